package converse

import "fmt"

// TransportError indicates the request never produced a usable stream:
// a network failure or a non-2xx response.
type TransportError struct {
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("converse: request failed with status %d", e.StatusCode)
	}
	return fmt.Sprintf("converse: request failed: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// StreamError indicates the service reported a failure through an `error`
// frame; decoding stops at that frame.
type StreamError struct {
	Message string
}

func (e *StreamError) Error() string {
	return fmt.Sprintf("converse: stream error: %s", e.Message)
}
