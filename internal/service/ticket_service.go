package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-bot/internal/config"
	"github.com/spec-kit/ticket-bot/internal/domain"
	"github.com/spec-kit/ticket-bot/internal/events"
	"github.com/spec-kit/ticket-bot/internal/gateway"
	"github.com/spec-kit/ticket-bot/internal/repository"
	apperrors "github.com/spec-kit/ticket-bot/pkg/util"
)

// TicketService drives the ticket lifecycle: open, close, and the
// confirm/cancel exchange around closing.
type TicketService struct {
	tickets     repository.TicketRepository
	gateway     gateway.Gateway
	transcripts *TranscriptService
	feedback    *FeedbackService
	dispatcher  events.Dispatcher
	logger      *zap.Logger
	workspace   config.WorkspaceConfig
	closeGrace  time.Duration
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TicketRepo  repository.TicketRepository
	Gateway     gateway.Gateway
	Transcripts *TranscriptService
	Feedback    *FeedbackService
	Dispatcher  events.Dispatcher
	Logger      *zap.Logger
	Workspace   config.WorkspaceConfig
	CloseGrace  time.Duration
}

// OpenRequest describes a ticket creation payload.
type OpenRequest struct {
	RequesterID  string
	RequesterTag string
	ServiceType  string
	Description  string
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	return &TicketService{
		tickets:     deps.TicketRepo,
		gateway:     deps.Gateway,
		transcripts: deps.Transcripts,
		feedback:    deps.Feedback,
		dispatcher:  deps.Dispatcher,
		logger:      deps.Logger,
		workspace:   deps.Workspace,
		closeGrace:  deps.CloseGrace,
	}
}

// Open creates a ticket for the requester. At most one open ticket may exist
// per requester; a second attempt fails with a conflict. The counter is
// allocated before the channel is provisioned, so a failed provisioning
// leaves a permanent gap in ticket numbers rather than a reused one.
func (s *TicketService) Open(ctx context.Context, req OpenRequest) (*domain.Ticket, error) {
	existing, err := s.tickets.OpenByRequester(req.RequesterID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if s.gateway.ChannelReachable(ctx, existing.ChannelID) {
			return nil, apperrors.NewConflict("you already have an open ticket", map[string]any{
				"ticket_number": existing.Number,
			})
		}
		// The recorded channel is gone: the channel was deleted without the
		// record being closed. Heal the record and let the new ticket through.
		if err := s.closeStaleRecord(req.RequesterID, existing.Number); err != nil {
			return nil, err
		}
		s.logger.Warn("healed orphaned ticket record",
			zap.String("requester_id", req.RequesterID),
			zap.Int("ticket_number", existing.Number))
	}

	number, err := s.tickets.NextNumber()
	if err != nil {
		return nil, err
	}

	channelID, err := s.gateway.CreateChannel(ctx, gateway.ChannelCreate{
		Name:     fmt.Sprintf("ticket-%d", number),
		ParentID: s.workspace.TicketCategoryID,
		Overwrites: []gateway.PermissionOverwrite{
			{TargetID: "everyone", Deny: gateway.PermViewChannel},
			{TargetID: req.RequesterID, Allow: gateway.PermViewChannel | gateway.PermSendMessages},
			{TargetID: s.workspace.AdminRoleID, Allow: gateway.PermViewChannel | gateway.PermSendMessages | gateway.PermManageMessages},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("provision ticket channel: %w", err)
	}

	ticket := domain.Ticket{
		Number:       number,
		ChannelID:    channelID,
		RequesterID:  req.RequesterID,
		RequesterTag: req.RequesterTag,
		ServiceType:  req.ServiceType,
		Description:  req.Description,
		Open:         true,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.tickets.Append(req.RequesterID, ticket); err != nil {
		return nil, err
	}

	if _, err := s.gateway.SendMessage(ctx, channelID, s.introMessage(&ticket)); err != nil {
		s.logger.Warn("intro message not delivered",
			zap.Int("ticket_number", number),
			zap.Error(apperrors.NewDeliveryError("intro message", err)))
	}

	s.publish(ctx, events.Event{
		Type: events.EventTicketOpened,
		Payload: events.TicketOpenedPayload{
			TicketNumber: number,
			RequesterID:  req.RequesterID,
			ChannelID:    channelID,
			ServiceType:  req.ServiceType,
		},
	})
	return &ticket, nil
}

// Close ends the open ticket bound to channelID. A channel with no matching
// open ticket is a silent no-op. Transcript and survey are best-effort and
// run before the state flips; only the store write can abort the close.
func (s *TicketService) Close(ctx context.Context, channelID, closedByTag string) error {
	ticket, requesterID, err := s.tickets.FindOpenByChannel(channelID)
	if err != nil {
		return err
	}
	if ticket == nil {
		s.logger.Info("close requested for channel with no open ticket",
			zap.String("channel_id", channelID))
		return nil
	}

	if err := s.transcripts.Capture(ctx, ticket, closedByTag); err != nil {
		s.logger.Warn("transcript not delivered",
			zap.Int("ticket_number", ticket.Number),
			zap.Error(err))
	}
	if err := s.feedback.BeginSurvey(ctx, requesterID, ticket.Description, closedByTag); err != nil {
		s.logger.Warn("survey request not delivered",
			zap.String("requester_id", requesterID),
			zap.Error(err))
	}

	now := time.Now().UTC()
	if err := s.markClosed(requesterID, ticket.Number, now, closedByTag); err != nil {
		return err
	}
	ticket.Open = false
	ticket.ClosedAt = &now
	ticket.ClosedBy = closedByTag

	closing := gateway.OutboundMessage{Embed: &gateway.Embed{
		Title:       "🔒 Ticket Closed",
		Description: "This channel will be deleted shortly.",
		Color:       ColorSuccess,
		Timestamp:   now,
	}}
	if _, err := s.gateway.SendMessage(ctx, channelID, closing); err != nil {
		s.logger.Warn("closing notice not delivered",
			zap.String("channel_id", channelID),
			zap.Error(apperrors.NewDeliveryError("closing notice", err)))
	}

	s.scheduleChannelDelete(channelID)

	s.publish(ctx, events.Event{
		Type: events.EventTicketClosed,
		Payload: events.TicketClosedPayload{
			TicketNumber: ticket.Number,
			RequesterID:  requesterID,
			ChannelID:    channelID,
			ClosedBy:     closedByTag,
		},
	})
	return nil
}

// ConfirmClosePrompt is the two-step confirmation shown before a close.
func (s *TicketService) ConfirmClosePrompt() gateway.OutboundMessage {
	return gateway.OutboundMessage{
		Embed: &gateway.Embed{
			Title:       "Close Ticket",
			Description: "Are you sure? This will send a feedback request to the user.",
			Color:       ColorWarning,
		},
		Components: []gateway.ActionRow{{Buttons: []gateway.Button{
			{CustomID: "confirm_close", Label: "Confirm", Style: gateway.ButtonDanger},
			{CustomID: "cancel_close", Label: "Cancel", Style: gateway.ButtonSecondary},
		}}},
	}
}

func (s *TicketService) introMessage(ticket *domain.Ticket) gateway.OutboundMessage {
	return gateway.OutboundMessage{
		Content: fmt.Sprintf("<@%s> <@&%s>", ticket.RequesterID, s.workspace.AdminRoleID),
		Embed: &gateway.Embed{
			Title:       fmt.Sprintf("🎫 Ticket #%d", ticket.Number),
			Description: fmt.Sprintf("**Service:** %s", ticket.Description),
			Color:       ColorPrimary,
			Fields: []gateway.EmbedField{
				{Name: "Client", Value: fmt.Sprintf("<@%s>", ticket.RequesterID), Inline: true},
				{Name: "Created", Value: ticket.CreatedAt.Format(time.RFC1123), Inline: true},
			},
			Footer:    "Staff will assist you shortly.",
			Timestamp: ticket.CreatedAt,
		},
		Components: []gateway.ActionRow{{Buttons: []gateway.Button{
			{CustomID: "close_ticket", Label: "Close", Style: gateway.ButtonDanger, Emoji: "🔒"},
		}}},
	}
}

func (s *TicketService) markClosed(requesterID string, number int, closedAt time.Time, closedBy string) error {
	tickets, err := s.tickets.ListByRequester(requesterID)
	if err != nil {
		return err
	}
	for i := range tickets {
		if tickets[i].Number == number && tickets[i].Open {
			tickets[i].Open = false
			tickets[i].ClosedAt = &closedAt
			tickets[i].ClosedBy = closedBy
		}
	}
	return s.tickets.ReplaceAll(requesterID, tickets)
}

func (s *TicketService) closeStaleRecord(requesterID string, number int) error {
	return s.markClosed(requesterID, number, time.Now().UTC(), "system")
}

// scheduleChannelDelete removes the channel after the close grace period so
// the closing notice can be read.
func (s *TicketService) scheduleChannelDelete(channelID string) {
	time.AfterFunc(s.closeGrace, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := s.gateway.DeleteChannel(ctx, channelID); err != nil {
			s.logger.Warn("ticket channel not deleted",
				zap.String("channel_id", channelID),
				zap.Error(err))
		}
	})
}

func (s *TicketService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}
