// Package audio defines the host audio capabilities the engine consumes.
//
// Concrete implementations live in subpackages (miniaudio, portaudio). The
// engine itself only depends on the interfaces here, so turn handling and
// voice-activity logic stay testable without real devices.
package audio

import (
	"context"
	"errors"
)

var (
	// ErrPermissionDenied indicates the host refused microphone access.
	ErrPermissionDenied = errors.New("audio: microphone permission denied")
	// ErrDeviceUnavailable indicates no usable capture or playback device.
	ErrDeviceUnavailable = errors.New("audio: device unavailable")
)

// Input is a microphone capability. Start delivers raw frames to onFrame
// until Stop or Close is called; frames are owned by the callback for the
// duration of the call only.
type Input interface {
	EncodingInfo() EncodingInfo
	Start(ctx context.Context, onFrame func(frame []byte)) error
	Stop() error
	Close()
}

// Output is a speaker capability. Play blocks until the chunk has been
// played, the context is cancelled, or Halt is called.
type Output interface {
	EncodingInfo() EncodingInfo
	Play(ctx context.Context, chunk []byte) error
	Halt()
	Close()
}
