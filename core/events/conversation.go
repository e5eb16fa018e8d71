package events

const (
	// KindConversationCreated identifies conversation id assignment by the
	// remote service.
	KindConversationCreated Kind = "conversation.created"
)

// ConversationCreated carries the conversation id assigned by the remote
// service. Informational; does not mutate the transcript.
type ConversationCreated struct {
	Base
	ID string
}

// NewConversationCreated creates a conversation created event.
func NewConversationCreated(id string) ConversationCreated {
	return ConversationCreated{Base: NewBase(KindConversationCreated), ID: id}
}
