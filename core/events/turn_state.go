package events

const (
	// KindTurnStarted identifies capture start for a new turn.
	KindTurnStarted Kind = "turn_state.started"
	// KindTurnCompleted identifies successful turn completion.
	KindTurnCompleted Kind = "turn_state.completed"
	// KindTurnFailed identifies a turn that ended with a terminal error.
	KindTurnFailed Kind = "turn_state.failed"
	// KindTurnCancelled identifies a cancelled turn.
	KindTurnCancelled Kind = "turn_state.cancelled"
)

// TurnStarted marks capture start for a new turn.
type TurnStarted struct {
	Base
	ID string
}

// NewTurnStarted creates a turn started event.
func NewTurnStarted(id string) TurnStarted {
	return TurnStarted{Base: NewBase(KindTurnStarted), ID: id}
}

// TurnCompleted marks successful completion of a turn.
type TurnCompleted struct {
	Base
	ID string
}

// NewTurnCompleted creates a turn completed event.
func NewTurnCompleted(id string) TurnCompleted {
	return TurnCompleted{Base: NewBase(KindTurnCompleted), ID: id}
}

// TurnFailed marks a turn that ended with a terminal error.
type TurnFailed struct {
	Base
	ID    string
	Error string
}

// NewTurnFailed creates a turn failed event.
func NewTurnFailed(id, err string) TurnFailed {
	return TurnFailed{Base: NewBase(KindTurnFailed), ID: id, Error: err}
}

// TurnCancelled marks a cancelled turn.
type TurnCancelled struct {
	Base
	ID string
}

// NewTurnCancelled creates a turn cancelled event.
func NewTurnCancelled(id string) TurnCancelled {
	return TurnCancelled{Base: NewBase(KindTurnCancelled), ID: id}
}
