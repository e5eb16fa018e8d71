package engine

import (
	"sync"

	"github.com/looplab/fsm"
)

// State is the externally observable engine snapshot. Any component may
// request a transition, but only the turn state machine commits one.
type State struct {
	IsRecording  bool
	IsProcessing bool
	IsPlaying    bool
	AudioLevel   float64
	Error        string
}

const (
	stateIdle      = "idle"
	stateCapturing = "capturing"
	stateStreaming = "streaming"
)

const (
	eventBegin    = "begin"
	eventFinalize = "finalize"
	eventComplete = "complete"
	eventFail     = "fail"
)

// newTurnMachine builds the turn lifecycle machine. Playing is not a machine
// state: playback overlaps Idle and Capturing, so it is tracked on State
// directly.
func newTurnMachine() *fsm.FSM {
	return fsm.NewFSM(
		stateIdle,
		fsm.Events{
			{Name: eventBegin, Src: []string{stateIdle}, Dst: stateCapturing},
			{Name: eventFinalize, Src: []string{stateCapturing}, Dst: stateStreaming},
			{Name: eventComplete, Src: []string{stateStreaming}, Dst: stateIdle},
			{Name: eventFail, Src: []string{stateCapturing, stateStreaming}, Dst: stateIdle},
		},
		fsm.Callbacks{},
	)
}

type stateStore struct {
	mu    sync.RWMutex
	state State

	onChange func(State)
}

func (s *stateStore) setOnChange(onChange func(State)) {
	s.mu.Lock()
	s.onChange = onChange
	s.mu.Unlock()
}

func (s *stateStore) update(mutate func(*State)) {
	s.mu.Lock()
	mutate(&s.state)
	snapshot := s.state
	onChange := s.onChange
	s.mu.Unlock()

	if onChange != nil {
		onChange(snapshot)
	}
}

func (s *stateStore) snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}
