package domain

// InteractionKind enumerates the closed set of inbound event kinds delivered
// by the messaging gateway.
type InteractionKind string

const (
	KindSelectMenu   InteractionKind = "select_menu"
	KindButton       InteractionKind = "button"
	KindModalSubmit  InteractionKind = "modal_submit"
	KindSlashCommand InteractionKind = "slash_command"
)

// Interaction is one inbound user action. Which fields are populated depends
// on Kind: Values for select menus, Fields for modal submissions, Command for
// slash commands.
type Interaction struct {
	ID        string
	Kind      InteractionKind
	UserID    string
	UserTag   string
	ChannelID string
	CustomID  string
	Values    []string
	Fields    map[string]string
	Command   string
	IsAdmin   bool
}

// Value returns the first selected value of a select-menu interaction.
func (i *Interaction) Value() string {
	if len(i.Values) == 0 {
		return ""
	}
	return i.Values[0]
}

// Field returns a named modal input value.
func (i *Interaction) Field(name string) string {
	if i.Fields == nil {
		return ""
	}
	return i.Fields[name]
}
