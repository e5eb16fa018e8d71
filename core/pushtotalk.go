package engine

import (
	"context"
	"sync"
)

// KeyEvent is one key transition delivered by the host's keyboard source.
type KeyEvent struct {
	Code    string
	Pressed bool
	// Repeat marks auto-repeated key-down events from a held key.
	Repeat bool
	// FromTextInput marks events originating in a text-entry target; typing
	// the designated key must not hijack recording.
	FromTextInput bool
}

// KeySource is a host keyboard capability for push-to-talk mode.
type KeySource interface {
	Events() <-chan KeyEvent
	Close() error
}

// pushToTalkController latches a designated key's down/up transitions onto
// start/stop. State is a two-value latch reset on teardown.
type pushToTalkController struct {
	key string

	onPress   func()
	onRelease func()

	mu      sync.Mutex
	pressed bool
}

func newPushToTalkController(key string, onPress, onRelease func()) *pushToTalkController {
	return &pushToTalkController{key: key, onPress: onPress, onRelease: onRelease}
}

// HandleKey processes one key transition. It reports whether the event was
// consumed, so the host can suppress the key's default action (a space bar
// must not scroll the page).
func (c *pushToTalkController) HandleKey(event KeyEvent) (handled bool) {
	if event.Code != c.key || event.FromTextInput {
		return false
	}

	if event.Pressed {
		c.mu.Lock()
		if c.pressed || event.Repeat {
			// A sustained key-down must not re-trigger start.
			c.mu.Unlock()
			return true
		}
		c.pressed = true
		press := c.onPress
		c.mu.Unlock()

		if press != nil {
			press()
		}
		return true
	}

	c.mu.Lock()
	if !c.pressed {
		c.mu.Unlock()
		return true
	}
	c.pressed = false
	release := c.onRelease
	c.mu.Unlock()

	if release != nil {
		release()
	}
	return true
}

// Reset clears the latch without emitting a stop.
func (c *pushToTalkController) Reset() {
	c.mu.Lock()
	c.pressed = false
	c.mu.Unlock()
}

// bind pumps key events from the source until the context ends or the
// source's channel closes.
func (c *pushToTalkController) bind(ctx context.Context, source KeySource) {
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-source.Events():
				if !ok {
					return
				}
				c.HandleKey(event)
			}
		}
	}()
}
