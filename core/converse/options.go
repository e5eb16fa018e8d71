package converse

type StreamOptions struct {
	ConversationID string
	AgentID        string
	Voice          string

	ConversationCreatedCallback func(id string)
	TextCallback                func(text string)
	AudioCallback               func(audio []byte)
	ToolCallCallback            func(name string)
	ToolResultCallback          func(result ToolResult)
	CompleteCallback            func()
}

type StreamOption func(*StreamOptions)

// WithConversationID attaches an existing conversation id so the remote
// service continues it instead of creating a new one.
func WithConversationID(id string) StreamOption {
	return func(o *StreamOptions) {
		o.ConversationID = id
	}
}

// WithAgentID selects the remote agent that handles the turn.
func WithAgentID(id string) StreamOption {
	return func(o *StreamOptions) {
		o.AgentID = id
	}
}

// WithVoice selects the synthesized voice for the response audio.
func WithVoice(voice string) StreamOption {
	return func(o *StreamOptions) {
		o.Voice = voice
	}
}

// WithConversationCreatedCallback registers a callback for conversation id
// assignment. Informational; fires at most once per stream.
func WithConversationCreatedCallback(callback func(id string)) StreamOption {
	return func(o *StreamOptions) {
		o.ConversationCreatedCallback = callback
	}
}

// WithTextCallback registers a callback for streamed response text
// fragments, in arrival order.
func WithTextCallback(callback func(text string)) StreamOption {
	return func(o *StreamOptions) {
		o.TextCallback = callback
	}
}

// WithAudioCallback registers a callback for decoded synthesized speech
// chunks, in arrival order.
func WithAudioCallback(callback func(audio []byte)) StreamOption {
	return func(o *StreamOptions) {
		o.AudioCallback = callback
	}
}

// WithToolCallCallback registers a callback for tool execution start.
func WithToolCallCallback(callback func(name string)) StreamOption {
	return func(o *StreamOptions) {
		o.ToolCallCallback = callback
	}
}

// WithToolResultCallback registers a callback for tool execution outcomes.
func WithToolResultCallback(callback func(result ToolResult)) StreamOption {
	return func(o *StreamOptions) {
		o.ToolResultCallback = callback
	}
}

// WithCompleteCallback registers a callback for stream completion. It fires
// before Stream returns on the success path.
func WithCompleteCallback(callback func()) StreamOption {
	return func(o *StreamOptions) {
		o.CompleteCallback = callback
	}
}
