package handlers

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-bot/internal/api/dto"
	"github.com/spec-kit/ticket-bot/internal/domain"
	"github.com/spec-kit/ticket-bot/internal/gateway"
	"github.com/spec-kit/ticket-bot/internal/observability"
	"github.com/spec-kit/ticket-bot/internal/persistence"
	"github.com/spec-kit/ticket-bot/internal/service"
	apperrors "github.com/spec-kit/ticket-bot/pkg/util"
)

const dedupTTL = 15 * time.Minute

// InteractionsHandler dispatches inbound gateway interactions to the ticket
// and feedback services and builds the interaction reply.
type InteractionsHandler struct {
	tickets       *service.TicketService
	feedback      *service.FeedbackService
	redis         *persistence.Redis
	metrics       *observability.Metrics
	logger        *zap.Logger
	maxCommentLen int
}

// NewInteractionsHandler returns a new handler instance.
func NewInteractionsHandler(tickets *service.TicketService, feedback *service.FeedbackService, redis *persistence.Redis, metrics *observability.Metrics, logger *zap.Logger, maxCommentLen int) *InteractionsHandler {
	if maxCommentLen <= 0 {
		maxCommentLen = 500
	}
	return &InteractionsHandler{
		tickets:       tickets,
		feedback:      feedback,
		redis:         redis,
		metrics:       metrics,
		logger:        logger,
		maxCommentLen: maxCommentLen,
	}
}

// Handle processes one inbound interaction event.
func (h *InteractionsHandler) Handle(c *fiber.Ctx) error {
	var req dto.InteractionRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("malformed interaction payload", nil)
	}
	interaction, err := req.ToDomain()
	if err != nil {
		return err
	}

	ctx := c.UserContext()
	if !h.redis.ClaimInteraction(ctx, interaction.ID, dedupTTL) {
		h.logger.Debug("duplicate interaction dropped", zap.String("interaction_id", interaction.ID))
		return c.JSON(dto.InteractionResponse{Type: "none"})
	}
	h.metrics.RecordInteraction(string(interaction.Kind), interaction.CustomID)

	resp, err := h.dispatch(c, interaction)
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

func (h *InteractionsHandler) dispatch(c *fiber.Ctx, interaction *domain.Interaction) (dto.InteractionResponse, error) {
	ctx := c.UserContext()

	switch interaction.Kind {
	case domain.KindSlashCommand:
		if interaction.Command == "setup-tickets" {
			if !interaction.IsAdmin {
				return dto.InteractionResponse{Type: "message", Content: "❌ Administrator permission required.", Ephemeral: true}, nil
			}
			return dto.InteractionResponse{Type: "message", Message: service.BuildPanelMessage()}, nil
		}

	case domain.KindSelectMenu:
		switch {
		case interaction.CustomID == "ticket_type":
			serviceValue := interaction.Value()
			if serviceValue == "services" {
				return h.openTicket(c, interaction, "services", "Buying Services"), nil
			}
			return dto.InteractionResponse{Type: "message", Message: service.BuildActionMenu(serviceValue), Ephemeral: true}, nil

		case strings.HasPrefix(interaction.CustomID, "action_"):
			parts := strings.SplitN(interaction.Value(), "_", 2)
			if len(parts) != 2 {
				return dto.InteractionResponse{Type: "none"}, nil
			}
			action, serviceValue := parts[0], parts[1]
			verb := "Selling"
			if action == "buy" {
				verb = "Buying"
			}
			description := verb + " " + domain.ServiceName(serviceValue)
			return h.openTicket(c, interaction, action+"-"+serviceValue, description), nil

		case interaction.CustomID == "vouch_rating":
			return h.recordRating(c, interaction)
		}

	case domain.KindModalSubmit:
		if interaction.CustomID == "vouch_comment" {
			return h.submitComment(c, interaction)
		}

	case domain.KindButton:
		switch interaction.CustomID {
		case "close_ticket":
			return dto.InteractionResponse{Type: "message", Message: h.tickets.ConfirmClosePrompt(), Ephemeral: true}, nil
		case "confirm_close":
			if err := h.tickets.Close(ctx, interaction.ChannelID, interaction.UserTag); err != nil {
				return dto.InteractionResponse{}, err
			}
			return dto.InteractionResponse{Type: "none"}, nil
		case "cancel_close":
			return dto.InteractionResponse{Type: "update", Content: "Cancelled."}, nil
		}
	}

	h.logger.Debug("unhandled interaction",
		zap.String("kind", string(interaction.Kind)),
		zap.String("custom_id", interaction.CustomID))
	return dto.InteractionResponse{Type: "none"}, nil
}

func (h *InteractionsHandler) openTicket(c *fiber.Ctx, interaction *domain.Interaction, serviceType, description string) dto.InteractionResponse {
	ticket, err := h.tickets.Open(c.UserContext(), service.OpenRequest{
		RequesterID:  interaction.UserID,
		RequesterTag: interaction.UserTag,
		ServiceType:  serviceType,
		Description:  description,
	})
	if err != nil {
		if apperrors.IsCode(err, "CONFLICT") {
			return dto.InteractionResponse{
				Type: "message",
				Message: gateway.OutboundMessage{Embed: &gateway.Embed{
					Title:       "❌ Existing Ticket",
					Description: "You already have an open ticket. Please close it first.",
					Color:       service.ColorError,
				}},
				Ephemeral: true,
			}
		}
		h.logger.Error("ticket creation failed",
			zap.String("requester_id", interaction.UserID),
			zap.Error(err))
		return dto.InteractionResponse{Type: "message", Content: "❌ Failed to create ticket. Please try again.", Ephemeral: true}
	}

	return dto.InteractionResponse{
		Type: "message",
		Message: gateway.OutboundMessage{Embed: &gateway.Embed{
			Title:       "✅ Ticket Created",
			Description: "Your ticket has been created: <#" + ticket.ChannelID + ">",
			Color:       service.ColorSuccess,
		}},
		Ephemeral: true,
	}
}

func (h *InteractionsHandler) recordRating(c *fiber.Ctx, interaction *domain.Interaction) (dto.InteractionResponse, error) {
	value := interaction.Value()
	rating, err := strconv.Atoi(strings.TrimPrefix(value, "vouch_"))
	if err != nil {
		return dto.InteractionResponse{Type: "none"}, nil
	}

	accepted, err := h.feedback.RecordRating(c.UserContext(), interaction.UserID, rating)
	if err != nil {
		return dto.InteractionResponse{}, err
	}
	if !accepted {
		return dto.InteractionResponse{Type: "none"}, nil
	}

	return dto.InteractionResponse{
		Type: "modal",
		Modal: &dto.ModalSpec{
			CustomID: "vouch_comment",
			Title:    "Add Comment (Optional)",
			Inputs: []dto.ModalInput{{
				CustomID:  "comment",
				Label:     "Your feedback (optional)",
				Paragraph: true,
				Required:  false,
				MaxLength: h.maxCommentLen,
			}},
		},
	}, nil
}

func (h *InteractionsHandler) submitComment(c *fiber.Ctx, interaction *domain.Interaction) (dto.InteractionResponse, error) {
	submitted, err := h.feedback.SubmitComment(c.UserContext(), interaction.UserID, interaction.UserTag, interaction.Field("comment"))
	if err != nil {
		return dto.InteractionResponse{}, err
	}
	if !submitted {
		return dto.InteractionResponse{Type: "none"}, nil
	}

	return dto.InteractionResponse{
		Type: "message",
		Message: gateway.OutboundMessage{Embed: &gateway.Embed{
			Title:       "✅ Thank You!",
			Description: "Your feedback has been recorded.",
			Color:       service.ColorSuccess,
		}},
		Ephemeral: true,
	}, nil
}
