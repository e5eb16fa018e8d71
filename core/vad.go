package engine

import (
	"sync"
	"time"
)

// VADConfig tunes the voice-activity detector.
type VADConfig struct {
	// SilenceThreshold is the normalized 0-1 volume at or below which input
	// counts as silent.
	SilenceThreshold float64
	// SilenceDuration is how long the signal must remain silent before a
	// stop is emitted.
	SilenceDuration time.Duration
	// MinRecordingDuration is the time from capture start before any stop
	// can be emitted, so a slow starter is not truncated.
	MinRecordingDuration time.Duration
}

const (
	defaultSilenceThreshold     = 0.015
	defaultSilenceDuration      = 1500 * time.Millisecond
	defaultMinRecordingDuration = 500 * time.Millisecond
)

func (c VADConfig) withDefaults() VADConfig {
	if c.SilenceThreshold <= 0 {
		c.SilenceThreshold = defaultSilenceThreshold
	}
	if c.SilenceDuration <= 0 {
		c.SilenceDuration = defaultSilenceDuration
	}
	if c.MinRecordingDuration <= 0 {
		c.MinRecordingDuration = defaultMinRecordingDuration
	}
	return c
}

// voiceActivityDetector is a debounced hysteresis detector, not a plain
// threshold crossing: once speech is detected, a dip below the threshold
// only ends the turn after it persists for the full silence duration, and
// any intervening speech cancels the pending timer.
type voiceActivityDetector struct {
	config VADConfig
	clock  Clock
	levels *levelMonitor

	onSpeechStarted   func()
	onSilenceDetected func()

	mu           sync.Mutex
	active       bool
	speaking     bool
	startedAt    time.Time
	silenceTimer Timer
}

func newVoiceActivityDetector(config VADConfig, clock Clock, onSpeechStarted, onSilenceDetected func()) *voiceActivityDetector {
	detector := &voiceActivityDetector{
		config:            config.withDefaults(),
		clock:             clock,
		onSpeechStarted:   onSpeechStarted,
		onSilenceDetected: onSilenceDetected,
	}
	detector.levels = newLevelMonitor(nil)
	return detector
}

// Start arms the detector for a new capture. Samples processed before Start
// or after Stop are ignored.
func (d *voiceActivityDetector) Start() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.active = true
	d.speaking = false
	d.startedAt = d.clock.Now()
	d.cancelTimerLocked()
}

// Stop disarms the detector and clears any pending silence timer.
func (d *voiceActivityDetector) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.active = false
	d.speaking = false
	d.cancelTimerLocked()
}

// ProcessFrame runs the detector over one raw input frame using its own
// level analysis.
func (d *voiceActivityDetector) ProcessFrame(frame []byte) {
	d.Process(d.levels.Process(frame))
}

// Process consumes one normalized volume sample.
func (d *voiceActivityDetector) Process(level float64) {
	d.mu.Lock()

	if !d.active {
		d.mu.Unlock()
		return
	}

	if level > d.config.SilenceThreshold {
		d.cancelTimerLocked()
		if !d.speaking {
			d.speaking = true
			started := d.onSpeechStarted
			d.mu.Unlock()
			if started != nil {
				started()
			}
			return
		}
		d.mu.Unlock()
		return
	}

	if d.speaking && d.silenceTimer == nil &&
		d.clock.Now().Sub(d.startedAt) >= d.config.MinRecordingDuration {
		d.silenceTimer = d.clock.AfterFunc(d.config.SilenceDuration, d.silenceElapsed)
	}
	d.mu.Unlock()
}

func (d *voiceActivityDetector) silenceElapsed() {
	d.mu.Lock()
	if !d.active || !d.speaking || d.silenceTimer == nil {
		d.mu.Unlock()
		return
	}

	d.silenceTimer = nil
	d.speaking = false
	detected := d.onSilenceDetected
	d.mu.Unlock()

	if detected != nil {
		detected()
	}
}

func (d *voiceActivityDetector) cancelTimerLocked() {
	if d.silenceTimer != nil {
		d.silenceTimer.Stop()
		d.silenceTimer = nil
	}
}
