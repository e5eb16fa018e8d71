package engine

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/smallnest/ringbuffer"

	"github.com/converselabs/converse-core/core/audio"
)

// minUtteranceBytes guards against empty or near-empty recordings from
// accidental taps: 100ms of linear16 at the default sample rate.
const minUtteranceBytes = 3200

// Utterance is one user turn's recorded audio: an opaque encoded payload
// plus a codec tag. Immutable once finalized.
type Utterance struct {
	Data []byte
	MIME string
}

// captureSession owns the microphone stream and the utterance buffer. Every
// exit from capture releases exactly the resources it acquired, once; the
// microphone is never left open past teardown.
type captureSession struct {
	input    audio.Input
	encoding audio.EncodingInfo

	// onFrame is the engine's analysis tap; it runs inline on the capture
	// path and must not block.
	onFrame func(frame []byte)

	mu        sync.Mutex
	micOpen   bool
	recording bool
	buf       bytes.Buffer
	// preRoll retains a short tail of input while the mic is open but no
	// utterance is being recorded, so the first syllable of a new turn is
	// not lost. Nil when pre-roll is disabled.
	preRoll *ringbuffer.RingBuffer
}

func newCaptureSession(input audio.Input, preRoll time.Duration) *captureSession {
	session := &captureSession{
		input:    input,
		encoding: input.EncodingInfo(),
	}

	if preRoll > 0 {
		if capacity := session.encoding.Bytes(preRoll); capacity > 0 {
			session.preRoll = ringbuffer.New(capacity).SetBlocking(false)
		}
	}

	return session
}

func (s *captureSession) setFrameTap(onFrame func(frame []byte)) {
	s.mu.Lock()
	s.onFrame = onFrame
	s.mu.Unlock()
}

// openMic acquires the microphone stream. Idempotent.
func (s *captureSession) openMic(ctx context.Context) error {
	s.mu.Lock()
	if s.micOpen {
		s.mu.Unlock()
		return nil
	}
	s.micOpen = true
	s.mu.Unlock()

	if err := s.input.Start(ctx, s.handleFrame); err != nil {
		s.mu.Lock()
		s.micOpen = false
		s.mu.Unlock()
		return fmt.Errorf("failed to open microphone: %w", err)
	}

	return nil
}

// closeMic releases the microphone stream. Idempotent, safe on every exit
// path including errors.
func (s *captureSession) closeMic() error {
	s.mu.Lock()
	if !s.micOpen {
		s.mu.Unlock()
		return nil
	}
	s.micOpen = false
	s.mu.Unlock()

	if err := s.input.Stop(); err != nil {
		return fmt.Errorf("failed to release microphone: %w", err)
	}
	return nil
}

func (s *captureSession) isMicOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.micOpen
}

// beginUtterance starts accumulating a new utterance, seeded with any
// buffered pre-roll.
func (s *captureSession) beginUtterance() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.buf.Reset()
	if s.preRoll != nil && s.preRoll.Length() > 0 {
		head := make([]byte, s.preRoll.Length())
		if n, err := s.preRoll.Read(head); err == nil {
			s.buf.Write(head[:n])
		}
	}
	s.recording = true
}

// finishUtterance finalizes the current recording. The returned utterance is
// immutable; recordings below the minimum size yield ErrUtteranceTooShort.
func (s *captureSession) finishUtterance() (Utterance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.recording = false
	data := make([]byte, s.buf.Len())
	copy(data, s.buf.Bytes())
	s.buf.Reset()

	if len(data) < minUtteranceBytes {
		return Utterance{}, ErrUtteranceTooShort
	}

	return Utterance{Data: data, MIME: s.encoding.MIME()}, nil
}

// discardUtterance drops any partial recording without finalizing it.
func (s *captureSession) discardUtterance() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.recording = false
	s.buf.Reset()
	if s.preRoll != nil {
		s.preRoll.Reset()
	}
}

func (s *captureSession) handleFrame(frame []byte) {
	s.mu.Lock()
	if s.recording {
		s.buf.Write(frame)
	} else if s.preRoll != nil {
		if free := s.preRoll.Free(); free < len(frame) {
			// Overwrite the oldest audio so the ring always holds the most
			// recent pre-roll window.
			stale := make([]byte, len(frame)-free)
			_, _ = s.preRoll.Read(stale)
		}
		_, _ = s.preRoll.Write(frame)
	}
	tap := s.onFrame
	s.mu.Unlock()

	if tap != nil {
		tap(frame)
	}
}
