package service

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-bot/internal/domain"
	"github.com/spec-kit/ticket-bot/internal/gateway"
	apperrors "github.com/spec-kit/ticket-bot/pkg/util"
)

// TranscriptService snapshots a ticket channel's recent history into an
// archival record at closure time. Delivery is best-effort.
type TranscriptService struct {
	gateway      gateway.Gateway
	channelID    string
	historyLimit int
	logger       *zap.Logger
}

// NewTranscriptService constructs the service. historyLimit bounds how many
// recent messages are archived (default 100).
func NewTranscriptService(gw gateway.Gateway, channelID string, historyLimit int, logger *zap.Logger) *TranscriptService {
	if historyLimit <= 0 {
		historyLimit = 100
	}
	return &TranscriptService{gateway: gw, channelID: channelID, historyLimit: historyLimit, logger: logger}
}

// Capture fetches the channel history, assembles the transcript, and sends
// it to the archive channel. closedByTag identifies the closer for tickets
// whose record has not been mutated yet.
func (s *TranscriptService) Capture(ctx context.Context, ticket *domain.Ticket, closedByTag string) error {
	messages, err := s.gateway.FetchMessages(ctx, ticket.ChannelID, s.historyLimit)
	if err != nil {
		return apperrors.NewDeliveryError("fetch channel history", err)
	}

	closedAt := time.Now().UTC()
	if ticket.ClosedAt != nil {
		closedAt = *ticket.ClosedAt
	}
	transcript := s.Assemble(ticket, messages, closedAt, closedByTag)

	summary := gateway.OutboundMessage{
		Embed: &gateway.Embed{
			Title:       fmt.Sprintf("🎫 Ticket #%d", ticket.Number),
			Description: fmt.Sprintf("**Service:** %s", ticket.Description),
			Color:       ColorPrimary,
			Fields: []gateway.EmbedField{
				{Name: "Client", Value: ticket.RequesterTag, Inline: true},
				{Name: "Duration", Value: fmt.Sprintf("%dm", wholeMinutes(ticket.CreatedAt, closedAt)), Inline: true},
				{Name: "Closed By", Value: closedByTag, Inline: true},
			},
			Timestamp: closedAt,
		},
		File: &gateway.FileAttachment{
			Name:    fmt.Sprintf("ticket-%d.txt", ticket.Number),
			Content: []byte(transcript),
		},
	}
	if _, err := s.gateway.SendMessage(ctx, s.channelID, summary); err != nil {
		return apperrors.NewDeliveryError("transcript", err)
	}
	return nil
}

// Assemble renders the archival document: header metadata followed by one
// line per message in chronological order. Input arrives newest first and is
// reversed. Messages with empty content keep their line; attachments and
// embeds are noted by reference only.
func (s *TranscriptService) Assemble(ticket *domain.Ticket, messages []gateway.Message, closedAt time.Time, closedByTag string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Ticket #%d\n", ticket.Number)
	fmt.Fprintf(&b, "Service: %s\n", ticket.Description)
	fmt.Fprintf(&b, "Client: %s\n", ticket.RequesterTag)
	fmt.Fprintf(&b, "Opened: %s\n", ticket.CreatedAt.Format(time.RFC3339))
	fmt.Fprintf(&b, "Closed: %s by %s\n", closedAt.Format(time.RFC3339), closedByTag)
	fmt.Fprintf(&b, "Duration: %dm\n", wholeMinutes(ticket.CreatedAt, closedAt))
	b.WriteString("\nMessages:\n")

	for i := len(messages) - 1; i >= 0; i-- {
		msg := messages[i]
		fmt.Fprintf(&b, "[%s] %s: %s", msg.CreatedAt.Format("15:04:05"), msg.AuthorTag, msg.Content)
		if msg.HasAttachments {
			b.WriteString(" [attachment]")
		}
		if msg.HasEmbeds {
			b.WriteString(" [embed]")
		}
		b.WriteString("\n")
	}
	return b.String()
}

func wholeMinutes(from, to time.Time) int {
	return int(math.Round(to.Sub(from).Minutes()))
}
