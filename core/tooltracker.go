package engine

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/converselabs/converse-core/core/converse"
)

// toolDisplayWindow bounds how long a resolved tool execution stays visible
// before it is cleared automatically.
const toolDisplayWindow = 3 * time.Second

type ToolStatus string

const (
	ToolStatusExecuting ToolStatus = "executing"
	ToolStatusCompleted ToolStatus = "completed"
	ToolStatusFailed    ToolStatus = "failed"
)

// ToolExecution is the transient view of one remote tool call surfaced to
// the host.
type ToolExecution struct {
	ID     string
	Name   string
	Status ToolStatus
	Result string
	Error  string
}

// toolExecutionTracker mirrors tool_call/tool_result stream frames into a
// single visible entry with a bounded display lifetime: a resolved entry is
// cleared after the display window or on the next event's arrival, whichever
// is sooner.
type toolExecutionTracker struct {
	clock         Clock
	displayWindow time.Duration

	onEvent   func(ToolExecution)
	onCleared func()

	mu         sync.Mutex
	current    *ToolExecution
	clearTimer Timer
}

func newToolExecutionTracker(clock Clock, displayWindow time.Duration) *toolExecutionTracker {
	return &toolExecutionTracker{clock: clock, displayWindow: displayWindow}
}

func (t *toolExecutionTracker) setCallbacks(onEvent func(ToolExecution), onCleared func()) {
	t.mu.Lock()
	t.onEvent = onEvent
	t.onCleared = onCleared
	t.mu.Unlock()
}

// ToolCalled records the start of a remote tool execution, displacing any
// previous entry.
func (t *toolExecutionTracker) ToolCalled(name string) {
	t.mu.Lock()
	t.cancelTimerLocked()
	execution := ToolExecution{
		ID:     uuid.NewString(),
		Name:   name,
		Status: ToolStatusExecuting,
	}
	t.current = &execution
	onEvent := t.onEvent
	t.mu.Unlock()

	if onEvent != nil {
		onEvent(execution)
	}
}

// ToolResolved updates the matching entry with the execution outcome and
// schedules the automatic clear.
func (t *toolExecutionTracker) ToolResolved(result converse.ToolResult) {
	t.mu.Lock()
	t.cancelTimerLocked()

	if t.current == nil || t.current.Name != result.Name {
		// A result without a visible call still gets surfaced.
		t.current = &ToolExecution{ID: uuid.NewString(), Name: result.Name}
	}

	if result.Success {
		t.current.Status = ToolStatusCompleted
		t.current.Result = result.Result
	} else {
		t.current.Status = ToolStatusFailed
		t.current.Error = result.Error
	}

	execution := *t.current
	onEvent := t.onEvent
	t.clearTimer = t.clock.AfterFunc(t.displayWindow, t.clearElapsed)
	t.mu.Unlock()

	if onEvent != nil {
		onEvent(execution)
	}
}

// Active returns a copy of the currently displayed execution, nil when none.
func (t *toolExecutionTracker) Active() *ToolExecution {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.current == nil {
		return nil
	}
	execution := *t.current
	return &execution
}

// Reset drops the current entry and any pending clear without notifying.
func (t *toolExecutionTracker) Reset() {
	t.mu.Lock()
	t.cancelTimerLocked()
	t.current = nil
	t.mu.Unlock()
}

func (t *toolExecutionTracker) clearElapsed() {
	t.mu.Lock()
	if t.clearTimer == nil {
		t.mu.Unlock()
		return
	}
	t.clearTimer = nil
	t.current = nil
	onCleared := t.onCleared
	t.mu.Unlock()

	if onCleared != nil {
		onCleared()
	}
}

func (t *toolExecutionTracker) cancelTimerLocked() {
	if t.clearTimer != nil {
		t.clearTimer.Stop()
		t.clearTimer = nil
	}
}
