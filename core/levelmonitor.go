package engine

import (
	"encoding/binary"
	"math"
)

// levelMonitor converts raw linear16 frames into a normalized 0-1 volume
// signal. The voice-activity detector and the engine state each own their
// own monitor instance; the analysis graphs are deliberately not shared.
type levelMonitor struct {
	onLevel func(level float64)
}

func newLevelMonitor(onLevel func(level float64)) *levelMonitor {
	return &levelMonitor{onLevel: onLevel}
}

func (m *levelMonitor) Process(frame []byte) float64 {
	level := rmsLevel(frame)
	if m.onLevel != nil {
		m.onLevel(level)
	}
	return level
}

// rmsLevel computes the root-mean-square amplitude of a little-endian
// linear16 frame, normalized to 0-1.
func rmsLevel(frame []byte) float64 {
	samples := len(frame) / 2
	if samples == 0 {
		return 0
	}

	sum := 0.0
	for i := 0; i < samples; i++ {
		sample := int16(binary.LittleEndian.Uint16(frame[2*i:]))
		normalized := float64(sample) / 32768.0
		sum += normalized * normalized
	}

	return math.Sqrt(sum / float64(samples))
}
