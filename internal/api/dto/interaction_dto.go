package dto

import (
	"github.com/spec-kit/ticket-bot/internal/domain"
	apperrors "github.com/spec-kit/ticket-bot/pkg/util"
)

// InteractionRequest is the inbound webhook payload delivered by the
// messaging gateway for a user action.
type InteractionRequest struct {
	ID        string            `json:"id"`
	Kind      string            `json:"kind"`
	UserID    string            `json:"userId"`
	UserTag   string            `json:"userTag"`
	ChannelID string            `json:"channelId"`
	CustomID  string            `json:"customId"`
	Values    []string          `json:"values,omitempty"`
	Fields    map[string]string `json:"fields,omitempty"`
	Command   string            `json:"command,omitempty"`
	IsAdmin   bool              `json:"isAdmin"`
}

// ToDomain validates the payload and converts it to the closed interaction
// variant.
func (r InteractionRequest) ToDomain() (*domain.Interaction, error) {
	if r.UserID == "" {
		return nil, apperrors.NewValidationError("userId is required", nil)
	}

	var kind domain.InteractionKind
	switch domain.InteractionKind(r.Kind) {
	case domain.KindSelectMenu, domain.KindButton, domain.KindModalSubmit, domain.KindSlashCommand:
		kind = domain.InteractionKind(r.Kind)
	default:
		return nil, apperrors.NewValidationError("unknown interaction kind", map[string]any{"kind": r.Kind})
	}

	return &domain.Interaction{
		ID:        r.ID,
		Kind:      kind,
		UserID:    r.UserID,
		UserTag:   r.UserTag,
		ChannelID: r.ChannelID,
		CustomID:  r.CustomID,
		Values:    r.Values,
		Fields:    r.Fields,
		Command:   r.Command,
		IsAdmin:   r.IsAdmin,
	}, nil
}

// InteractionResponse is the reply the webhook returns to the gateway.
type InteractionResponse struct {
	Type      string     `json:"type"` // message, update, modal, none
	Content   string     `json:"content,omitempty"`
	Message   any        `json:"message,omitempty"`
	Ephemeral bool       `json:"ephemeral,omitempty"`
	Modal     *ModalSpec `json:"modal,omitempty"`
}

// ModalSpec describes a form for the gateway to present.
type ModalSpec struct {
	CustomID string       `json:"customId"`
	Title    string       `json:"title"`
	Inputs   []ModalInput `json:"inputs"`
}

// ModalInput is one text field of a modal.
type ModalInput struct {
	CustomID  string `json:"customId"`
	Label     string `json:"label"`
	Paragraph bool   `json:"paragraph,omitempty"`
	Required  bool   `json:"required"`
	MaxLength int    `json:"maxLength,omitempty"`
}

// AdminPanelRequest asks for the service-selection panel in a channel.
type AdminPanelRequest struct {
	ChannelID string `json:"channelId"`
}

// AdminResetRequest guards the destructive wipe behind an explicit flag.
type AdminResetRequest struct {
	Confirm bool `json:"confirm"`
}
