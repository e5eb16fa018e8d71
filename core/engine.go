// Package engine drives real-time voice interaction turns: it captures a
// user utterance, streams it to a remote conversational agent, and plays the
// synthesized response while surfacing transcript, tool, and state updates
// to the host.
package engine

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/looplab/fsm"
	"go.opentelemetry.io/otel/codes"

	"github.com/converselabs/converse-core/core/audio"
	"github.com/converselabs/converse-core/core/converse"
	"github.com/converselabs/converse-core/core/events"
)

// Engine is the turn controller. At most one turn is in flight at any time;
// response playback is the only activity allowed to overlap the next turn.
//
// All exported methods are safe for concurrent use. Start and Stop requests
// that do not apply to the current turn state (double start, stale stop from
// a superseded silence timer or key release) are absorbed as no-ops.
type Engine struct {
	machine *fsm.FSM

	input     audio.Input
	output    audio.Output
	streamer  ConversationStreamer
	keySource KeySource
	clock     Clock

	vadConfig VADConfig
	preRoll   time.Duration
	agentID   string
	voice     string

	session    *captureSession
	playback   *playbackQueue
	tools      *toolExecutionTracker
	transcript *transcript
	levels     *levelMonitor

	mu             sync.Mutex
	mode           Mode
	vad            *voiceActivityDetector
	ptt            *pushToTalkController
	sessionOptions SessionOptions
	emitter        eventEmitter
	conversationID string
	turnID         string
	turnCancel     context.CancelFunc
	baseContext    context.Context
	baseCancel     context.CancelFunc

	state     stateStore
	closeOnce sync.Once
}

// NewEngine assembles an engine from the provided capabilities. Configure
// must be called before the first Start.
func NewEngine(opts ...EngineOption) *Engine {
	engine := &Engine{
		machine: newTurnMachine(),
		clock:   systemClock{},
		mode:    ModeManual,
		emitter: noopEventEmitter,
	}

	for _, opt := range opts {
		opt(engine)
	}

	engine.vadConfig = engine.vadConfig.withDefaults()
	engine.baseContext, engine.baseCancel = context.WithCancel(context.Background())

	if engine.input != nil {
		engine.session = newCaptureSession(engine.input, engine.preRoll)
	}
	engine.playback = newPlaybackQueue(engine.output)
	engine.tools = newToolExecutionTracker(engine.clock, toolDisplayWindow)
	engine.transcript = newTranscript(engine.clock)
	engine.levels = newLevelMonitor(nil)

	return engine
}

// Configure selects the recording mode and registers the host's callbacks.
// It must be called while no turn is in flight; reconfiguring mid-turn is
// unsupported.
func (e *Engine) Configure(ctx context.Context, mode Mode, opts ...SessionOption) {
	options := SessionOptions{}
	for _, opt := range opts {
		opt(&options)
	}

	e.mu.Lock()
	if e.baseCancel != nil {
		e.baseCancel()
	}
	e.baseContext, e.baseCancel = context.WithCancel(ctx)
	baseContext := e.baseContext

	e.mode = mode
	e.sessionOptions = options
	e.emitter = newCallbackEventEmitter(options)

	e.vad = nil
	e.ptt = nil
	switch mode {
	case ModeConversational:
		e.vad = newVoiceActivityDetector(e.vadConfig, e.clock, e.speechStarted, e.silenceDetected)
	case ModePushToTalk:
		key := options.pushToTalkKey
		if key == "" {
			key = DefaultPushToTalkKey
		}
		e.ptt = newPushToTalkController(key,
			func() { _ = e.Start() },
			func() { _ = e.Stop() },
		)
	}
	ptt := e.ptt
	e.mu.Unlock()

	e.state.setOnChange(options.onStateChanged)
	e.tools.setCallbacks(e.toolEvent, e.toolCleared)
	e.playback.configure(baseContext, e.playbackStarted, e.playbackDrained)
	if e.session != nil {
		e.session.setFrameTap(e.handleInputFrame)
	}
	if ptt != nil && e.keySource != nil {
		ptt.bind(baseContext, e.keySource)
	}
}

// Start begins capturing a new turn. While a turn is already in flight it is
// a no-op; overlapping turns cannot be created.
func (e *Engine) Start() error {
	e.mu.Lock()
	baseContext := e.baseContext
	vad := e.vad
	e.mu.Unlock()

	if e.session == nil {
		return ErrNoAudioInput
	}
	if e.streamer == nil {
		return ErrNoStreamClient
	}

	if err := e.machine.Event(baseContext, eventBegin); err != nil {
		return nil
	}

	turnID := uuid.NewString()
	e.mu.Lock()
	e.turnID = turnID
	e.mu.Unlock()

	if err := e.session.openMic(baseContext); err != nil {
		e.failTurn(turnID, err)
		return err
	}

	e.session.beginUtterance()
	if vad != nil {
		vad.Start()
	}

	e.state.update(func(s *State) {
		s.IsRecording = true
		s.Error = ""
	})
	e.emit(events.NewTurnStarted(turnID))
	return nil
}

// Stop finalizes the current recording and streams it to the remote agent.
// A stop that does not match an active capture, such as a silence timer that
// fired after a manual stop or a stray key release, is a no-op.
func (e *Engine) Stop() error {
	e.mu.Lock()
	baseContext := e.baseContext
	vad := e.vad
	mode := e.mode
	turnID := e.turnID
	e.mu.Unlock()

	if err := e.machine.Event(baseContext, eventFinalize); err != nil {
		return nil
	}

	if vad != nil {
		vad.Stop()
	}

	utterance, err := e.session.finishUtterance()

	// With pre-roll the conversational microphone stays open between turns
	// feeding the ring; every other configuration releases it here.
	if mode != ModeConversational || e.preRoll <= 0 {
		if closeErr := e.session.closeMic(); closeErr != nil {
			log.Printf("Failed to release microphone: %v", closeErr)
		}
	}

	if err != nil {
		e.failTurn(turnID, err)
		return err
	}

	e.state.update(func(s *State) {
		s.IsRecording = false
		s.IsProcessing = true
		s.AudioLevel = 0
	})
	e.emit(events.NewUserUtteranceFinal(utterance.Data, utterance.MIME))

	turnContext, cancel := context.WithCancel(baseContext)
	e.mu.Lock()
	e.turnCancel = cancel
	e.mu.Unlock()

	go e.processTurn(turnContext, turnID, utterance)
	return nil
}

// Cancel aborts the in-flight turn: it releases the microphone, clears the
// pending silence timer, abandons the stream, stops playback, and discards
// the partial assistant draft. The engine then accepts a new Start.
func (e *Engine) Cancel() {
	e.mu.Lock()
	cancel := e.turnCancel
	e.turnCancel = nil
	vad := e.vad
	ptt := e.ptt
	turnID := e.turnID
	baseContext := e.baseContext
	e.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if vad != nil {
		vad.Stop()
	}
	if ptt != nil {
		ptt.Reset()
	}
	if e.session != nil {
		if err := e.session.closeMic(); err != nil {
			log.Printf("Failed to release microphone: %v", err)
		}
		e.session.discardUtterance()
	}
	e.playback.StopAll()
	e.tools.Reset()

	if e.machine.Current() != stateIdle {
		_ = e.machine.Event(baseContext, eventFail)
		e.transcript.DiscardAssistantDraft()
		e.notifyTranscript()
		e.emit(events.NewTurnCancelled(turnID))
	}

	e.state.update(func(s *State) {
		s.IsRecording = false
		s.IsProcessing = false
		s.IsPlaying = false
		s.AudioLevel = 0
	})
}

// Close cancels any in-flight turn and releases every held capability.
// Idempotent; the engine is unusable afterwards.
func (e *Engine) Close() {
	e.closeOnce.Do(func() {
		e.Cancel()

		e.mu.Lock()
		baseCancel := e.baseCancel
		e.mu.Unlock()
		if baseCancel != nil {
			baseCancel()
		}

		if e.keySource != nil {
			if err := e.keySource.Close(); err != nil {
				log.Printf("Failed to close key source: %v", err)
			}
		}
		if e.input != nil {
			e.input.Close()
		}
		if e.output != nil {
			e.output.Close()
		}
	})
}

// HandleKey feeds one host key transition to the push-to-talk controller.
// It reports whether the event was consumed, so the host can suppress the
// key's default action. Outside push-to-talk mode no key is consumed.
func (e *Engine) HandleKey(event KeyEvent) bool {
	e.mu.Lock()
	ptt := e.ptt
	e.mu.Unlock()

	if ptt == nil {
		return false
	}
	return ptt.HandleKey(event)
}

// PausePlayback holds response playback between chunks.
func (e *Engine) PausePlayback() { e.playback.Pause() }

// ResumePlayback releases paused playback.
func (e *Engine) ResumePlayback() { e.playback.Resume() }

// State returns the current engine snapshot.
func (e *Engine) State() State { return e.state.snapshot() }

// Transcript returns a point-in-time copy of the conversation log.
func (e *Engine) Transcript() []TranscriptEntry { return e.transcript.Snapshot() }

// AppendTranscript adds a finalized entry to the conversation log, for host
// text injected outside the audio path.
func (e *Engine) AppendTranscript(role Role, content string) {
	e.transcript.Append(role, content)
	e.notifyTranscript()
}

// ClearTranscript drops the conversation log.
func (e *Engine) ClearTranscript() {
	e.transcript.Clear()
	e.notifyTranscript()
}

// ActiveTool returns the currently displayed tool execution, nil when none.
func (e *Engine) ActiveTool() *ToolExecution { return e.tools.Active() }

// ConversationID returns the id assigned by the remote service, empty until
// the first turn completes its handshake.
func (e *Engine) ConversationID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.conversationID
}

// Mode returns the configured recording mode.
func (e *Engine) Mode() Mode {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.mode
}

func (e *Engine) processTurn(ctx context.Context, turnID string, utterance Utterance) {
	ctx, span := tracer.Start(ctx, "process turn")
	defer span.End()

	e.mu.Lock()
	conversationID := e.conversationID
	e.mu.Unlock()

	err := e.streamer.Stream(ctx, utterance.Data, e.session.encoding.Format.Name(),
		converse.WithConversationID(conversationID),
		converse.WithAgentID(e.agentID),
		converse.WithVoice(e.voice),
		converse.WithConversationCreatedCallback(func(id string) {
			e.mu.Lock()
			e.conversationID = id
			e.mu.Unlock()
			e.emit(events.NewConversationCreated(id))
		}),
		converse.WithTextCallback(func(text string) {
			e.transcript.AppendAssistantDelta(text)
			e.emit(events.NewAssistantResponseSegment(text))
			e.notifyTranscript()
		}),
		converse.WithAudioCallback(func(chunk []byte) {
			e.emit(events.NewAssistantSpeechFrame(chunk))
			e.playback.Enqueue(chunk)
		}),
		converse.WithToolCallCallback(e.tools.ToolCalled),
		converse.WithToolResultCallback(e.tools.ToolResolved),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		if ctx.Err() != nil {
			// Cancel already wound the turn down.
			return
		}

		e.transcript.DiscardAssistantDraft()
		e.notifyTranscript()
		e.failTurn(turnID, err)
		return
	}

	if response := e.transcript.FinalizeAssistant(); response != "" {
		e.emit(events.NewAssistantResponseFinal(response))
		e.notifyTranscript()
	}

	_ = e.machine.Event(ctx, eventComplete)
	e.state.update(func(s *State) {
		s.IsProcessing = false
		s.Error = ""
	})
	e.emit(events.NewTurnCompleted(turnID))

	e.mu.Lock()
	continuous := e.mode == ModeConversational
	baseContext := e.baseContext
	e.mu.Unlock()

	if continuous && baseContext.Err() == nil {
		// Conversational mode goes straight back to listening.
		if err := e.Start(); err != nil {
			log.Printf("Failed to resume listening: %v", err)
		}
	}
}

// failTurn is the single terminal error path: it returns the machine to
// idle, releases capture resources, and surfaces the error. The engine does
// not retry; the next Start begins a fresh turn.
func (e *Engine) failTurn(turnID string, err error) {
	e.mu.Lock()
	vad := e.vad
	onError := e.sessionOptions.onError
	baseContext := e.baseContext
	e.mu.Unlock()

	_ = e.machine.Event(baseContext, eventFail)

	if vad != nil {
		vad.Stop()
	}
	if e.session != nil {
		if closeErr := e.session.closeMic(); closeErr != nil {
			log.Printf("Failed to release microphone: %v", closeErr)
		}
		e.session.discardUtterance()
	}

	e.state.update(func(s *State) {
		s.IsRecording = false
		s.IsProcessing = false
		s.AudioLevel = 0
		s.Error = err.Error()
	})

	// The error callback fires before the failure event.
	if onError != nil {
		onError(err)
	}
	e.emit(events.NewTurnFailed(turnID, err.Error()))
}

// handleInputFrame runs inline on the capture path for every microphone
// frame. Frames outside an active capture feed only the pre-roll ring.
func (e *Engine) handleInputFrame(frame []byte) {
	if e.machine.Current() != stateCapturing {
		return
	}

	e.emit(events.NewUserAudioFrame(frame))

	level := e.levels.Process(frame)
	e.state.update(func(s *State) { s.AudioLevel = level })
	e.emit(events.NewUserAudioLevel(level))

	e.mu.Lock()
	vad := e.vad
	e.mu.Unlock()
	if vad != nil {
		vad.ProcessFrame(frame)
	}
}

func (e *Engine) speechStarted() {
	e.emit(events.NewUserSpeechStarted())
}

func (e *Engine) silenceDetected() {
	e.emit(events.NewUserSpeechEnded())
	if err := e.Stop(); err != nil {
		log.Printf("Failed to finalize turn on silence: %v", err)
	}
}

func (e *Engine) playbackStarted() {
	e.state.update(func(s *State) { s.IsPlaying = true })
	e.emit(events.NewAssistantPlaybackStarted())
}

func (e *Engine) playbackDrained() {
	e.state.update(func(s *State) { s.IsPlaying = false })
	e.emit(events.NewAssistantPlaybackEnded())
}

func (e *Engine) toolEvent(execution ToolExecution) {
	switch execution.Status {
	case ToolStatusExecuting:
		e.emit(events.NewToolCallStarted(execution.ID, execution.Name))
	case ToolStatusCompleted:
		e.emit(events.NewToolCallCompleted(execution.ID, execution.Name, execution.Result))
	case ToolStatusFailed:
		e.emit(events.NewToolCallFailed(execution.ID, execution.Name, execution.Error))
	}

	e.mu.Lock()
	onToolExecution := e.sessionOptions.onToolExecution
	e.mu.Unlock()
	if onToolExecution != nil {
		onToolExecution(execution)
	}
}

func (e *Engine) toolCleared() {
	e.mu.Lock()
	onToolCleared := e.sessionOptions.onToolCleared
	e.mu.Unlock()
	if onToolCleared != nil {
		onToolCleared()
	}
}

func (e *Engine) emit(event events.Event) {
	e.mu.Lock()
	emitter := e.emitter
	e.mu.Unlock()

	if emitter != nil {
		emitter(event)
	}
}

func (e *Engine) notifyTranscript() {
	e.mu.Lock()
	onUpdate := e.sessionOptions.onTranscriptUpdate
	e.mu.Unlock()

	if onUpdate != nil {
		onUpdate(e.transcript.Snapshot())
	}
}
