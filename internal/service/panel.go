package service

import (
	"time"

	"github.com/spec-kit/ticket-bot/internal/domain"
	"github.com/spec-kit/ticket-bot/internal/gateway"
)

// BuildPanelMessage renders the service-selection panel a requester uses to
// open a ticket.
func BuildPanelMessage() gateway.OutboundMessage {
	options := domain.ServiceOptions()
	selectOptions := make([]gateway.SelectOption, 0, len(options))
	fields := make([]gateway.EmbedField, 0, len(options))
	for _, opt := range options {
		selectOptions = append(selectOptions, gateway.SelectOption{
			Label:       opt.Label,
			Value:       opt.Value,
			Description: opt.Description,
		})
		fields = append(fields, gateway.EmbedField{Name: opt.Label, Value: opt.Description, Inline: true})
	}

	return gateway.OutboundMessage{
		Embed: &gateway.Embed{
			Title:       "🎫 Support Tickets",
			Description: "Select a service below to create a ticket:",
			Color:       ColorPrimary,
			Fields:      fields,
			Footer:      "Staff will respond in your ticket channel.",
			Timestamp:   time.Now().UTC(),
		},
		Components: []gateway.ActionRow{{Select: &gateway.SelectMenu{
			CustomID:    "ticket_type",
			Placeholder: "Choose a service...",
			Options:     selectOptions,
		}}},
	}
}

// BuildActionMenu renders the buy/sell follow-up select for a service that
// needs one.
func BuildActionMenu(serviceValue string) gateway.OutboundMessage {
	name := domain.ServiceName(serviceValue)
	return gateway.OutboundMessage{
		Embed: &gateway.Embed{
			Title: "Buy or Sell " + name,
			Color: ColorPrimary,
		},
		Components: []gateway.ActionRow{{Select: &gateway.SelectMenu{
			CustomID:    "action_" + serviceValue,
			Placeholder: "Choose action...",
			Options: []gateway.SelectOption{
				{Label: "Buy " + name, Value: "buy_" + serviceValue, Emoji: "💰"},
				{Label: "Sell " + name, Value: "sell_" + serviceValue, Emoji: "💎"},
			},
		}}},
	}
}
