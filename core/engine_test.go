package engine

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/converselabs/converse-core/core/converse"
	"github.com/converselabs/converse-core/core/events"
)

// fakeStreamer is a scripted converse endpoint: the script receives the
// resolved stream options and drives the callbacks as a live stream would.
type fakeStreamer struct {
	mu      sync.Mutex
	calls   int
	uploads [][]byte
	formats []string
	script  func(ctx context.Context, options converse.StreamOptions) error
}

func (f *fakeStreamer) Stream(ctx context.Context, audio []byte, format string, opts ...converse.StreamOption) error {
	options := converse.StreamOptions{}
	for _, opt := range opts {
		opt(&options)
	}

	f.mu.Lock()
	f.calls++
	f.uploads = append(f.uploads, audio)
	f.formats = append(f.formats, format)
	script := f.script
	f.mu.Unlock()

	if script != nil {
		return script(ctx, options)
	}
	return nil
}

func (f *fakeStreamer) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// capturedError collects the error callback's argument across goroutines.
type capturedError struct {
	mu  sync.Mutex
	err error
}

func (c *capturedError) set(err error) {
	c.mu.Lock()
	c.err = err
	c.mu.Unlock()
}

func (c *capturedError) get() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

func waitForEvent(t *testing.T, ch <-chan events.Event, kind events.Kind) events.Event {
	t.Helper()

	deadline := time.After(time.Second)
	for {
		select {
		case event := <-ch:
			if event.Kind() == kind {
				return event
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %s", kind)
		}
	}
}

func newTestEngine(t *testing.T, mode Mode, streamer *fakeStreamer, opts ...SessionOption) (*Engine, *fakeInput, <-chan events.Event) {
	t.Helper()

	input := &fakeInput{}
	eventCh := make(chan events.Event, 128)

	engine := NewEngine(
		WithAudioInput(input),
		WithAudioOutput(newFakeOutput()),
		WithStreamClient(streamer),
		WithClock(newFakeClock()),
	)
	t.Cleanup(engine.Close)

	opts = append(opts, WithEventListener(func(event events.Event) { eventCh <- event }))
	engine.Configure(context.Background(), mode, opts...)

	return engine, input, eventCh
}

func TestEngineManualTurnLifecycle(t *testing.T) {
	streamer := &fakeStreamer{
		script: func(ctx context.Context, options converse.StreamOptions) error {
			options.ConversationCreatedCallback("conv-1")
			options.TextCallback("It is ")
			options.TextCallback("sunny today.")
			options.AudioCallback([]byte("pcm-chunk"))
			return nil
		},
	}

	engine, input, eventCh := newTestEngine(t, ModeManual, streamer)

	if err := engine.Start(); err != nil {
		t.Fatalf("failed to start turn: %v", err)
	}
	if !engine.State().IsRecording {
		t.Fatal("expected recording after Start")
	}

	input.push(bytes.Repeat([]byte{0x01}, 5000))

	if err := engine.Stop(); err != nil {
		t.Fatalf("failed to stop turn: %v", err)
	}

	waitForEvent(t, eventCh, events.KindTurnCompleted)

	if got := streamer.callCount(); got != 1 {
		t.Fatalf("expected exactly one upload, got %d", got)
	}
	if input.stopCount() != 1 {
		t.Fatal("expected the microphone to be released on stop")
	}
	if engine.ConversationID() != "conv-1" {
		t.Fatalf("unexpected conversation id: %q", engine.ConversationID())
	}

	entries := engine.Transcript()
	if len(entries) != 1 || entries[0].Content != "It is sunny today." {
		t.Fatalf("unexpected transcript: %+v", entries)
	}

	state := engine.State()
	if state.IsRecording || state.IsProcessing || state.Error != "" {
		t.Fatalf("expected a clean idle state, got %+v", state)
	}
}

func TestEngineStartWhileActiveIsNoop(t *testing.T) {
	streamer := &fakeStreamer{}
	engine, input, eventCh := newTestEngine(t, ModeManual, streamer)

	if err := engine.Start(); err != nil {
		t.Fatalf("failed to start turn: %v", err)
	}
	if err := engine.Start(); err != nil {
		t.Fatalf("expected a second Start to be a silent no-op, got %v", err)
	}

	input.push(bytes.Repeat([]byte{0x01}, 5000))
	if err := engine.Stop(); err != nil {
		t.Fatalf("failed to stop turn: %v", err)
	}
	waitForEvent(t, eventCh, events.KindTurnCompleted)

	if got := streamer.callCount(); got != 1 {
		t.Fatalf("expected one upload despite the double start, got %d", got)
	}
}

func TestEngineStopWithoutCaptureIsNoop(t *testing.T) {
	streamer := &fakeStreamer{}
	engine, _, _ := newTestEngine(t, ModeManual, streamer)

	if err := engine.Stop(); err != nil {
		t.Fatalf("expected a stale Stop to be a silent no-op, got %v", err)
	}
	if got := streamer.callCount(); got != 0 {
		t.Fatalf("expected no upload, got %d", got)
	}
}

func TestEngineTooShortUtteranceFailsTurn(t *testing.T) {
	streamer := &fakeStreamer{}
	failure := &capturedError{}
	engine, input, eventCh := newTestEngine(t, ModeManual, streamer,
		WithErrorCallback(failure.set),
	)

	if err := engine.Start(); err != nil {
		t.Fatalf("failed to start turn: %v", err)
	}
	input.push(make([]byte, 100))

	if err := engine.Stop(); !errors.Is(err, ErrUtteranceTooShort) {
		t.Fatalf("expected ErrUtteranceTooShort, got %v", err)
	}
	waitForEvent(t, eventCh, events.KindTurnFailed)

	if err := failure.get(); !errors.Is(err, ErrUtteranceTooShort) {
		t.Fatalf("expected the error callback to fire, got %v", err)
	}
	if got := streamer.callCount(); got != 0 {
		t.Fatalf("expected no upload for a too-short utterance, got %d", got)
	}

	// The engine accepts a fresh turn after the failure.
	if err := engine.Start(); err != nil {
		t.Fatalf("expected a fresh Start after failure, got %v", err)
	}
	if !engine.State().IsRecording {
		t.Fatal("expected recording after restart")
	}
}

func TestEngineStreamErrorFailsTurn(t *testing.T) {
	streamErr := &converse.StreamError{Message: "agent unavailable"}
	streamer := &fakeStreamer{
		script: func(ctx context.Context, options converse.StreamOptions) error {
			options.TextCallback("partial")
			return streamErr
		},
	}

	failure := &capturedError{}
	engine, input, eventCh := newTestEngine(t, ModeManual, streamer,
		WithErrorCallback(failure.set),
	)

	if err := engine.Start(); err != nil {
		t.Fatalf("failed to start turn: %v", err)
	}
	input.push(bytes.Repeat([]byte{0x01}, 5000))
	if err := engine.Stop(); err != nil {
		t.Fatalf("failed to stop turn: %v", err)
	}

	// The error callback runs on the turn goroutine before the failure
	// event is emitted, so this receive orders its write before the read.
	waitForEvent(t, eventCh, events.KindTurnFailed)

	if err := failure.get(); !errors.Is(err, streamErr) {
		t.Fatalf("expected the stream error to be surfaced, got %v", err)
	}
	if entries := engine.Transcript(); len(entries) != 0 {
		t.Fatalf("expected the partial draft to be discarded, got %+v", entries)
	}
	if engine.State().Error == "" {
		t.Fatal("expected the state to carry the error")
	}
}

func TestEngineCancelReleasesResources(t *testing.T) {
	release := make(chan struct{})
	streamer := &fakeStreamer{
		script: func(ctx context.Context, options converse.StreamOptions) error {
			options.TextCallback("partial")
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-release:
				return nil
			}
		},
	}

	engine, input, eventCh := newTestEngine(t, ModeManual, streamer)
	defer close(release)

	if err := engine.Start(); err != nil {
		t.Fatalf("failed to start turn: %v", err)
	}
	input.push(bytes.Repeat([]byte{0x01}, 5000))
	if err := engine.Stop(); err != nil {
		t.Fatalf("failed to stop turn: %v", err)
	}
	waitForEvent(t, eventCh, events.KindAssistantResponseSegment)

	engine.Cancel()
	waitForEvent(t, eventCh, events.KindTurnCancelled)

	if entries := engine.Transcript(); len(entries) != 0 {
		t.Fatalf("expected the partial draft to be discarded, got %+v", entries)
	}

	state := engine.State()
	if state.IsRecording || state.IsProcessing || state.IsPlaying {
		t.Fatalf("expected a quiet state after cancel, got %+v", state)
	}
	if state.Error != "" {
		t.Fatalf("cancellation is not an error, got %q", state.Error)
	}

	// A new turn starts cleanly after cancellation.
	if err := engine.Start(); err != nil {
		t.Fatalf("expected a fresh Start after cancel, got %v", err)
	}
}

func TestEngineCancelWhileCapturing(t *testing.T) {
	streamer := &fakeStreamer{}
	engine, input, eventCh := newTestEngine(t, ModeManual, streamer)

	if err := engine.Start(); err != nil {
		t.Fatalf("failed to start turn: %v", err)
	}
	input.push(bytes.Repeat([]byte{0x01}, 5000))

	engine.Cancel()
	waitForEvent(t, eventCh, events.KindTurnCancelled)

	if input.stopCount() != 1 {
		t.Fatal("expected the microphone to be released on cancel")
	}
	if got := streamer.callCount(); got != 0 {
		t.Fatalf("expected the buffered audio to be discarded, got %d uploads", got)
	}
}

func TestEngineStartWithoutInput(t *testing.T) {
	engine := NewEngine(WithStreamClient(&fakeStreamer{}))
	t.Cleanup(engine.Close)

	if err := engine.Start(); !errors.Is(err, ErrNoAudioInput) {
		t.Fatalf("expected ErrNoAudioInput, got %v", err)
	}
}

func TestEngineStartWithoutStreamClient(t *testing.T) {
	engine := NewEngine(WithAudioInput(&fakeInput{}))
	t.Cleanup(engine.Close)

	if err := engine.Start(); !errors.Is(err, ErrNoStreamClient) {
		t.Fatalf("expected ErrNoStreamClient, got %v", err)
	}
}

func TestEnginePushToTalkMode(t *testing.T) {
	streamer := &fakeStreamer{}
	engine, input, eventCh := newTestEngine(t, ModePushToTalk, streamer)

	if !engine.HandleKey(KeyEvent{Code: DefaultPushToTalkKey, Pressed: true}) {
		t.Fatal("expected the push-to-talk key to be consumed")
	}
	waitForEvent(t, eventCh, events.KindTurnStarted)

	input.push(bytes.Repeat([]byte{0x01}, 5000))

	if !engine.HandleKey(KeyEvent{Code: DefaultPushToTalkKey, Pressed: false}) {
		t.Fatal("expected the key release to be consumed")
	}
	waitForEvent(t, eventCh, events.KindTurnCompleted)

	if got := streamer.callCount(); got != 1 {
		t.Fatalf("expected one upload from the key cycle, got %d", got)
	}
}

func TestEngineHandleKeyOutsidePushToTalk(t *testing.T) {
	engine, _, _ := newTestEngine(t, ModeManual, &fakeStreamer{})

	if engine.HandleKey(KeyEvent{Code: DefaultPushToTalkKey, Pressed: true}) {
		t.Fatal("expected no key handling outside push-to-talk mode")
	}
}

func TestEngineToolExecutionSurfaced(t *testing.T) {
	streamer := &fakeStreamer{
		script: func(ctx context.Context, options converse.StreamOptions) error {
			options.ToolCallCallback("get_weather")
			options.ToolResultCallback(converse.ToolResult{Name: "get_weather", Success: true, Result: "sunny"})
			options.TextCallback("It is sunny.")
			return nil
		},
	}

	var executions []ToolExecution
	var executionsMu sync.Mutex
	engine, input, eventCh := newTestEngine(t, ModeManual, streamer,
		WithToolExecutionCallback(func(execution ToolExecution) {
			executionsMu.Lock()
			executions = append(executions, execution)
			executionsMu.Unlock()
		}),
	)

	if err := engine.Start(); err != nil {
		t.Fatalf("failed to start turn: %v", err)
	}
	input.push(bytes.Repeat([]byte{0x01}, 5000))
	if err := engine.Stop(); err != nil {
		t.Fatalf("failed to stop turn: %v", err)
	}
	waitForEvent(t, eventCh, events.KindTurnCompleted)

	executionsMu.Lock()
	defer executionsMu.Unlock()
	if len(executions) != 2 {
		t.Fatalf("expected 2 tool execution updates, got %d", len(executions))
	}
	if executions[0].Status != ToolStatusExecuting || executions[1].Status != ToolStatusCompleted {
		t.Fatalf("unexpected execution statuses: %+v", executions)
	}
}

func TestEngineUploadsFormatAndAudio(t *testing.T) {
	streamer := &fakeStreamer{}
	engine, input, eventCh := newTestEngine(t, ModeManual, streamer)

	if err := engine.Start(); err != nil {
		t.Fatalf("failed to start turn: %v", err)
	}
	payload := bytes.Repeat([]byte{0x5A}, 6400)
	input.push(payload)
	if err := engine.Stop(); err != nil {
		t.Fatalf("failed to stop turn: %v", err)
	}
	waitForEvent(t, eventCh, events.KindTurnCompleted)

	streamer.mu.Lock()
	defer streamer.mu.Unlock()
	if !bytes.Equal(streamer.uploads[0], payload) {
		t.Fatal("expected the finalized utterance to be uploaded unchanged")
	}
	if streamer.formats[0] != "linear16" {
		t.Fatalf("unexpected upload format: %q", streamer.formats[0])
	}
}
