package repository

import (
	"encoding/json"

	"github.com/spec-kit/ticket-bot/internal/domain"
	"github.com/spec-kit/ticket-bot/internal/persistence"
)

// TicketRepository encapsulates ticket persistence over the document store.
type TicketRepository interface {
	// ListByRequester returns all tickets ever opened by a requester,
	// including closed ones.
	ListByRequester(requesterID string) ([]domain.Ticket, error)
	// OpenByRequester returns the requester's open ticket, or nil.
	OpenByRequester(requesterID string) (*domain.Ticket, error)
	// FindOpenByChannel scans all requesters for the open ticket bound to a
	// channel. Returns the ticket and its requester id, or nil when absent.
	FindOpenByChannel(channelID string) (*domain.Ticket, string, error)
	// Append adds a ticket to the requester's list.
	Append(requesterID string, ticket domain.Ticket) error
	// ReplaceAll overwrites the requester's ticket list.
	ReplaceAll(requesterID string, tickets []domain.Ticket) error
	// NextNumber allocates the next ticket number. The counter is persisted
	// before the caller provisions a channel, so a later failure leaves a
	// permanent gap rather than a reused number.
	NextNumber() (int, error)
	// Counter returns the current counter value.
	Counter() (int, error)
}

type ticketRepository struct {
	store *persistence.DocumentStore
}

// NewTicketRepository instantiates the repository.
func NewTicketRepository(store *persistence.DocumentStore) TicketRepository {
	return &ticketRepository{store: store}
}

func (r *ticketRepository) ListByRequester(requesterID string) ([]domain.Ticket, error) {
	value, ok, err := r.store.Get("tickets." + requesterID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return []domain.Ticket{}, nil
	}
	return decodeTickets(value)
}

func (r *ticketRepository) OpenByRequester(requesterID string) (*domain.Ticket, error) {
	tickets, err := r.ListByRequester(requesterID)
	if err != nil {
		return nil, err
	}
	for i := range tickets {
		if tickets[i].Open {
			return &tickets[i], nil
		}
	}
	return nil, nil
}

func (r *ticketRepository) FindOpenByChannel(channelID string) (*domain.Ticket, string, error) {
	doc, err := r.store.Snapshot()
	if err != nil {
		return nil, "", err
	}
	byRequester, _ := doc["tickets"].(map[string]any)
	for requesterID, raw := range byRequester {
		tickets, err := decodeTickets(raw)
		if err != nil {
			return nil, "", err
		}
		for i := range tickets {
			if tickets[i].Open && tickets[i].ChannelID == channelID {
				return &tickets[i], requesterID, nil
			}
		}
	}
	return nil, "", nil
}

func (r *ticketRepository) Append(requesterID string, ticket domain.Ticket) error {
	tickets, err := r.ListByRequester(requesterID)
	if err != nil {
		return err
	}
	return r.store.Set("tickets."+requesterID, append(tickets, ticket))
}

func (r *ticketRepository) ReplaceAll(requesterID string, tickets []domain.Ticket) error {
	return r.store.Set("tickets."+requesterID, tickets)
}

func (r *ticketRepository) NextNumber() (int, error) {
	current, err := r.Counter()
	if err != nil {
		return 0, err
	}
	next := current + 1
	if err := r.store.Set("counter", next); err != nil {
		return 0, err
	}
	return next, nil
}

func (r *ticketRepository) Counter() (int, error) {
	value, ok, err := r.store.Get("counter")
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, nil
	}
	// JSON numbers decode as float64.
	number, _ := value.(float64)
	return int(number), nil
}

func decodeTickets(value any) ([]domain.Ticket, error) {
	encoded, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	var tickets []domain.Ticket
	if err := json.Unmarshal(encoded, &tickets); err != nil {
		return nil, err
	}
	return tickets, nil
}
