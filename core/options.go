package engine

import (
	"context"
	"time"

	"github.com/converselabs/converse-core/core/audio"
	"github.com/converselabs/converse-core/core/converse"
	"github.com/converselabs/converse-core/core/events"
)

// Mode selects which controller owns turn boundaries. Exactly one mode is
// active at a time.
type Mode string

const (
	// ModeManual leaves both turn boundaries to explicit Start/Stop calls.
	ModeManual Mode = "manual"
	// ModeConversational ends turns on sustained silence detected by the
	// voice-activity detector and listens again after each response.
	ModeConversational Mode = "conversational"
	// ModePushToTalk binds turn boundaries to a held key.
	ModePushToTalk Mode = "push-to-talk"
)

// DefaultPushToTalkKey is used when push-to-talk mode is configured without
// an explicit key.
const DefaultPushToTalkKey = "space"

// ConversationStreamer uploads one encoded utterance and decodes the remote
// response stream. [converse.Client] is the production implementation.
type ConversationStreamer interface {
	Stream(ctx context.Context, audio []byte, format string, opts ...converse.StreamOption) error
}

type EngineOption func(*Engine)

// WithAudioInput provides the microphone capability.
func WithAudioInput(input audio.Input) EngineOption {
	return func(e *Engine) { e.input = input }
}

// WithAudioOutput provides the speaker capability for response playback.
func WithAudioOutput(output audio.Output) EngineOption {
	return func(e *Engine) { e.output = output }
}

// WithStreamClient provides the converse endpoint client.
func WithStreamClient(client ConversationStreamer) EngineOption {
	return func(e *Engine) { e.streamer = client }
}

// WithClock replaces the time source, mainly for tests.
func WithClock(clock Clock) EngineOption {
	return func(e *Engine) { e.clock = clock }
}

// WithVAD tunes the voice-activity detector used in conversational mode.
func WithVAD(config VADConfig) EngineOption {
	return func(e *Engine) { e.vadConfig = config }
}

// WithPreRoll keeps the microphone open between conversational turns and
// retains the given duration of trailing audio, so the first syllable of the
// next turn is not lost. Zero disables pre-roll and releases the microphone
// on every stop.
func WithPreRoll(duration time.Duration) EngineOption {
	return func(e *Engine) { e.preRoll = duration }
}

// WithAgentID selects the remote agent attached to every turn.
func WithAgentID(id string) EngineOption {
	return func(e *Engine) { e.agentID = id }
}

// WithVoice selects the synthesized voice attached to every turn.
func WithVoice(voice string) EngineOption {
	return func(e *Engine) { e.voice = voice }
}

// WithKeySource provides a keyboard capability that is pumped into the
// push-to-talk controller while that mode is active.
func WithKeySource(source KeySource) EngineOption {
	return func(e *Engine) { e.keySource = source }
}

type SessionOptions struct {
	pushToTalkKey string

	onTranscriptUpdate     func(entries []TranscriptEntry)
	onToolExecution        func(execution ToolExecution)
	onToolCleared          func()
	onError                func(err error)
	onStateChanged         func(state State)
	onAudioLevel           func(level float64)
	onAudio                func(audio []byte)
	onSpeakingStateChanged func(isSpeaking bool)
	onEvent                func(event events.Event)
}

type SessionOption func(*SessionOptions)

// WithPushToTalkKey designates the push-to-talk key. Ignored outside
// push-to-talk mode.
func WithPushToTalkKey(key string) SessionOption {
	return func(o *SessionOptions) { o.pushToTalkKey = key }
}

// WithTranscriptCallback registers a callback invoked with a fresh snapshot
// after every transcript mutation, including streamed assistant deltas.
func WithTranscriptCallback(callback func(entries []TranscriptEntry)) SessionOption {
	return func(o *SessionOptions) { o.onTranscriptUpdate = callback }
}

// WithToolExecutionCallback registers a callback for tool execution
// progress surfaced from the response stream.
func WithToolExecutionCallback(callback func(execution ToolExecution)) SessionOption {
	return func(o *SessionOptions) { o.onToolExecution = callback }
}

// WithToolClearedCallback registers a callback for the automatic clear of a
// resolved tool execution after its display window.
func WithToolClearedCallback(callback func()) SessionOption {
	return func(o *SessionOptions) { o.onToolCleared = callback }
}

// WithErrorCallback registers a callback for terminal turn errors. The
// engine itself never retries; after any error it accepts a new Start.
func WithErrorCallback(callback func(err error)) SessionOption {
	return func(o *SessionOptions) { o.onError = callback }
}

// WithStateChangedCallback registers a callback for engine state snapshots.
func WithStateChangedCallback(callback func(state State)) SessionOption {
	return func(o *SessionOptions) { o.onStateChanged = callback }
}

// WithAudioLevelCallback registers a callback for normalized input volume
// samples while capturing.
func WithAudioLevelCallback(callback func(level float64)) SessionOption {
	return func(o *SessionOptions) { o.onAudioLevel = callback }
}

// WithAudioCallback registers a callback for synthesized speech chunks as
// they are enqueued for playback.
func WithAudioCallback(callback func(audio []byte)) SessionOption {
	return func(o *SessionOptions) { o.onAudio = callback }
}

// WithSpeakingStateChangedCallback registers a callback for voice-activity
// transitions in conversational mode.
func WithSpeakingStateChangedCallback(callback func(isSpeaking bool)) SessionOption {
	return func(o *SessionOptions) { o.onSpeakingStateChanged = callback }
}

// WithEventListener registers a listener for the full typed event stream,
// in addition to the specific callbacks above.
func WithEventListener(callback func(event events.Event)) SessionOption {
	return func(o *SessionOptions) { o.onEvent = callback }
}
