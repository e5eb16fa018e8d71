package engine

import "errors"

// ErrUtteranceTooShort indicates the finalized recording was below the
// minimum encoded size. Accidental taps produce near-empty recordings that
// are not worth a round trip.
var ErrUtteranceTooShort = errors.New("engine: utterance below minimum size")

// ErrNoAudioInput indicates no microphone capability was configured.
var ErrNoAudioInput = errors.New("engine: no audio input configured")

// ErrNoStreamClient indicates no converse stream client was configured.
var ErrNoStreamClient = errors.New("engine: no stream client configured")
