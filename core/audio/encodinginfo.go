package audio

import (
	"fmt"
	"time"
)

const (
	DefaultSampleRate = 16000
	DefaultFormat     = "linear16"
)

func GetDefaultEncodingInfo() EncodingInfo {
	return EncodingInfo{SampleRate: DefaultSampleRate, Format: encodingFormat(DefaultFormat)}
}

type EncodingInfo struct {
	SampleRate int
	Format     encodingFormat
}

func (e EncodingInfo) IsZero() bool {
	return e.SampleRate == 0 || e.Format.Name() == ""
}

// MIME returns the codec tag attached to a finalized utterance.
func (e EncodingInfo) MIME() string {
	switch e.Format {
	case EncodingMulaw:
		return fmt.Sprintf("audio/basic;rate=%d", e.SampleRate)
	case EncodingALaw:
		return fmt.Sprintf("audio/alaw;rate=%d", e.SampleRate)
	case EncodingLinear16:
		return fmt.Sprintf("audio/pcm;rate=%d", e.SampleRate)
	}

	return "application/octet-stream"
}

// Duration reports how long the provided payload plays for at this encoding.
func (e EncodingInfo) Duration(payload int) time.Duration {
	byteSize := e.Format.ByteSize()
	if e.SampleRate == 0 || byteSize <= 0 {
		return 0
	}
	return time.Duration(float64(payload) / float64(e.SampleRate) / float64(byteSize) * float64(time.Second))
}

// Bytes reports how many payload bytes cover the provided duration at this
// encoding.
func (e EncodingInfo) Bytes(duration time.Duration) int {
	byteSize := e.Format.ByteSize()
	if byteSize <= 0 {
		return 0
	}
	return int(float64(duration) / float64(time.Second) * float64(e.SampleRate) * float64(byteSize))
}

type encodingFormat string

func (e encodingFormat) Name() string {
	return string(e)
}

func (e encodingFormat) ByteSize() int {
	switch e {
	case EncodingMulaw, EncodingALaw:
		return 1
	case EncodingLinear16:
		return 2
	}
	return -1
}

const (
	EncodingMulaw    encodingFormat = "mulaw"
	EncodingALaw     encodingFormat = "alaw"
	EncodingLinear16 encodingFormat = "linear16"
)
