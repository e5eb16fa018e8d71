package events

const (
	// KindAssistantResponseSegment identifies a streamed response text segment.
	KindAssistantResponseSegment Kind = "assistant_response.segment"
	// KindAssistantResponseFinal identifies response text stream completion.
	KindAssistantResponseFinal Kind = "assistant_response.final"
	// KindAssistantSpeechFrame identifies a synthesized speech audio chunk.
	KindAssistantSpeechFrame Kind = "assistant_speech.frame"
	// KindAssistantPlaybackStarted identifies playback start.
	KindAssistantPlaybackStarted Kind = "assistant_playback.started"
	// KindAssistantPlaybackEnded identifies playback queue drain or stop.
	KindAssistantPlaybackEnded Kind = "assistant_playback.ended"
)

// AssistantResponseSegment carries a streamed response text segment.
type AssistantResponseSegment struct {
	Base
	Segment string
}

// NewAssistantResponseSegment creates a response segment event.
func NewAssistantResponseSegment(segment string) AssistantResponseSegment {
	return AssistantResponseSegment{Base: NewBase(KindAssistantResponseSegment), Segment: segment}
}

// AssistantResponseFinal marks completion of the response text stream and
// carries the assembled response.
type AssistantResponseFinal struct {
	Base
	Response string
}

// NewAssistantResponseFinal creates a response final event.
func NewAssistantResponseFinal(response string) AssistantResponseFinal {
	return AssistantResponseFinal{Base: NewBase(KindAssistantResponseFinal), Response: response}
}

// AssistantSpeechFrame carries a synthesized speech audio chunk.
type AssistantSpeechFrame struct {
	Base
	Audio []byte
}

// NewAssistantSpeechFrame creates a speech frame event.
func NewAssistantSpeechFrame(audio []byte) AssistantSpeechFrame {
	return AssistantSpeechFrame{Base: NewBase(KindAssistantSpeechFrame), Audio: audio}
}

// AssistantPlaybackStarted marks playback start for the current response.
type AssistantPlaybackStarted struct{ Base }

// NewAssistantPlaybackStarted creates a playback started event.
func NewAssistantPlaybackStarted() AssistantPlaybackStarted {
	return AssistantPlaybackStarted{Base: NewBase(KindAssistantPlaybackStarted)}
}

// AssistantPlaybackEnded marks playback queue drain or stop.
type AssistantPlaybackEnded struct{ Base }

// NewAssistantPlaybackEnded creates a playback ended event.
func NewAssistantPlaybackEnded() AssistantPlaybackEnded {
	return AssistantPlaybackEnded{Base: NewBase(KindAssistantPlaybackEnded)}
}
