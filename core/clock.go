package engine

import "time"

// Clock abstracts the time source so silence timers and display windows are
// testable without real waits.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

// Timer is a one-shot cancelable timer. Stop reports whether the call
// prevented the timer from firing.
type Timer interface {
	Stop() bool
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func (systemClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
