package domain

import "time"

// Ticket is the record for a single support request. JSON tags match the
// on-disk document format, one list of tickets per requester.
type Ticket struct {
	Number       int        `json:"number"`
	ChannelID    string     `json:"channelId"`
	RequesterID  string     `json:"userId"`
	RequesterTag string     `json:"userTag"`
	ServiceType  string     `json:"type"`
	Description  string     `json:"description"`
	Open         bool       `json:"open"`
	CreatedAt    time.Time  `json:"createdAt"`
	ClosedAt     *time.Time `json:"closedAt,omitempty"`
	ClosedBy     string     `json:"closedBy,omitempty"`
}

// Duration returns the open-to-close span, or zero if the ticket is still open.
func (t *Ticket) Duration() time.Duration {
	if t.ClosedAt == nil {
		return 0
	}
	return t.ClosedAt.Sub(t.CreatedAt)
}

// ServiceOption is one entry of the service-selection panel.
type ServiceOption struct {
	Label       string
	Value       string
	Description string
}

// ServiceOptions lists the services a requester can open a ticket for.
func ServiceOptions() []ServiceOption {
	return []ServiceOption{
		{Label: "Limiteds", Value: "limiteds", Description: "Buy or sell limited items"},
		{Label: "DaHood Skins", Value: "dahood", Description: "Buy or sell skins"},
		{Label: "Buying Services", Value: "services", Description: "Professional buying services"},
	}
}

// ServiceName maps a service value to its display name.
func ServiceName(value string) string {
	switch value {
	case "limiteds":
		return "Limiteds"
	case "dahood":
		return "DaHood Skins"
	case "services":
		return "Buying Services"
	default:
		return value
	}
}
