package gateway

import (
	"context"
	"time"
)

// Permission bits used in channel overwrites.
const (
	PermViewChannel    uint64 = 1 << 10
	PermSendMessages   uint64 = 1 << 11
	PermManageMessages uint64 = 1 << 16
)

// Gateway is the messaging platform collaborator. Every method is a fallible
// remote call; callers decide whether a failure is fatal or best-effort.
type Gateway interface {
	// SendMessage posts to a channel and returns the new message id.
	SendMessage(ctx context.Context, channelID string, msg OutboundMessage) (string, error)
	// SendDirect delivers a direct message to a user and returns the new
	// message id. Fails when the user does not accept DMs.
	SendDirect(ctx context.Context, userID string, msg OutboundMessage) (string, error)
	// DeleteMessage removes a message from a channel.
	DeleteMessage(ctx context.Context, channelID, messageID string) error
	// CreateChannel provisions a channel with permission overwrites and
	// returns its id.
	CreateChannel(ctx context.Context, req ChannelCreate) (string, error)
	// DeleteChannel removes a channel.
	DeleteChannel(ctx context.Context, channelID string) error
	// ChannelReachable reports whether a channel can still be fetched.
	ChannelReachable(ctx context.Context, channelID string) bool
	// FetchMessages returns up to limit recent messages, newest first.
	FetchMessages(ctx context.Context, channelID string, limit int) ([]Message, error)
	// Ping measures a round trip to the gateway.
	Ping(ctx context.Context) (time.Duration, error)
}

// OutboundMessage is one message to send, optionally with an embed,
// interactive components, and a file attachment.
type OutboundMessage struct {
	Content    string          `json:"content,omitempty"`
	Embed      *Embed          `json:"embed,omitempty"`
	Components []ActionRow     `json:"components,omitempty"`
	File       *FileAttachment `json:"file,omitempty"`
}

// Embed is a rich message card.
type Embed struct {
	Title       string       `json:"title,omitempty"`
	Description string       `json:"description,omitempty"`
	Color       int          `json:"color,omitempty"`
	Fields      []EmbedField `json:"fields,omitempty"`
	Footer      string       `json:"footer,omitempty"`
	Timestamp   time.Time    `json:"timestamp,omitempty"`
}

// EmbedField is one labeled value inside an embed.
type EmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

// ActionRow groups interactive components on one row.
type ActionRow struct {
	Buttons []Button    `json:"buttons,omitempty"`
	Select  *SelectMenu `json:"select,omitempty"`
}

// ButtonStyle controls button rendering.
type ButtonStyle string

const (
	ButtonDanger    ButtonStyle = "danger"
	ButtonSecondary ButtonStyle = "secondary"
	ButtonPrimary   ButtonStyle = "primary"
)

// Button is one clickable component.
type Button struct {
	CustomID string      `json:"customId"`
	Label    string      `json:"label"`
	Style    ButtonStyle `json:"style"`
	Emoji    string      `json:"emoji,omitempty"`
}

// SelectMenu is a dropdown component.
type SelectMenu struct {
	CustomID    string         `json:"customId"`
	Placeholder string         `json:"placeholder,omitempty"`
	Options     []SelectOption `json:"options"`
}

// SelectOption is one dropdown entry.
type SelectOption struct {
	Label       string `json:"label"`
	Value       string `json:"value"`
	Description string `json:"description,omitempty"`
	Emoji       string `json:"emoji,omitempty"`
}

// FileAttachment carries file content inline with a message.
type FileAttachment struct {
	Name    string `json:"name"`
	Content []byte `json:"content"`
}

// Message is one fetched channel message.
type Message struct {
	ID             string    `json:"id"`
	AuthorTag      string    `json:"authorTag"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"createdAt"`
	HasAttachments bool      `json:"hasAttachments"`
	HasEmbeds      bool      `json:"hasEmbeds"`
}

// PermissionOverwrite grants or denies permission bits to a user or role.
type PermissionOverwrite struct {
	TargetID string `json:"targetId"`
	Allow    uint64 `json:"allow"`
	Deny     uint64 `json:"deny"`
}

// ChannelCreate describes a channel to provision.
type ChannelCreate struct {
	Name       string                `json:"name"`
	ParentID   string                `json:"parentId,omitempty"`
	Overwrites []PermissionOverwrite `json:"overwrites,omitempty"`
}
