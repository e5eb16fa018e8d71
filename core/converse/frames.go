package converse

// Frame event kinds emitted by the converse endpoint.
const (
	frameEventConversationCreated = "conversation_created"
	frameEventText                = "text"
	frameEventAudio               = "audio"
	frameEventToolCall            = "tool_call"
	frameEventToolResult          = "tool_result"
	frameEventComplete            = "complete"
	frameEventError               = "error"
)

// frame is one decoded event from the response stream. The same vocabulary
// is used over HTTP (`data: {json}` lines) and websocket (one frame per text
// message).
type frame struct {
	Event          string `json:"event"`
	Data           string `json:"data,omitempty"`
	ID             string `json:"id,omitempty"`
	ConversationID string `json:"conversation_id,omitempty"`
	Name           string `json:"name,omitempty"`
	Success        *bool  `json:"success,omitempty"`
	Result         string `json:"result,omitempty"`
	Error          string `json:"error,omitempty"`
}

func (f frame) conversationID() string {
	if f.ConversationID != "" {
		return f.ConversationID
	}
	return f.ID
}

// ToolResult carries the outcome of a remotely executed tool call.
type ToolResult struct {
	Name    string
	Success bool
	Result  string
	Error   string
}
