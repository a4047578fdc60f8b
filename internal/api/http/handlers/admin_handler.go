package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-bot/internal/api/dto"
	"github.com/spec-kit/ticket-bot/internal/gateway"
	"github.com/spec-kit/ticket-bot/internal/persistence"
	"github.com/spec-kit/ticket-bot/internal/service"
	apperrors "github.com/spec-kit/ticket-bot/pkg/util"
)

// AdminHandler serves the administrative surface: panel setup, the
// destructive data reset, and the gateway health check.
type AdminHandler struct {
	gateway gateway.Gateway
	store   *persistence.DocumentStore
	logger  *zap.Logger
}

// NewAdminHandler returns a new handler instance.
func NewAdminHandler(gw gateway.Gateway, store *persistence.DocumentStore, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{gateway: gw, store: store, logger: logger}
}

// PostPanel publishes the service-selection panel to a channel.
func (h *AdminHandler) PostPanel(c *fiber.Ctx) error {
	var req dto.AdminPanelRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("malformed request body", nil)
	}
	if req.ChannelID == "" {
		return apperrors.NewValidationError("channelId is required", nil)
	}

	messageID, err := h.gateway.SendMessage(c.UserContext(), req.ChannelID, service.BuildPanelMessage())
	if err != nil {
		return apperrors.NewDeliveryError("panel", err)
	}
	return c.JSON(fiber.Map{"messageId": messageID})
}

// ResetData wipes all ticket data. Destructive; the route sits behind the
// admin role and the body must confirm explicitly.
func (h *AdminHandler) ResetData(c *fiber.Ctx) error {
	var req dto.AdminResetRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("malformed request body", nil)
	}
	if !req.Confirm {
		return apperrors.NewValidationError("confirm must be true", nil)
	}

	if err := h.store.Reset(); err != nil {
		return err
	}
	h.logger.Warn("ticket data reset by admin")
	return c.JSON(fiber.Map{"status": "reset"})
}

// Health reports gateway round-trip latency.
func (h *AdminHandler) Health(c *fiber.Ctx) error {
	latency, err := h.gateway.Ping(c.UserContext())
	if err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"gateway": "unreachable",
			"error":   err.Error(),
		})
	}
	return c.JSON(fiber.Map{
		"gateway":   "ok",
		"latencyMs": latency.Milliseconds(),
		"checkedAt": time.Now().UTC(),
	})
}
