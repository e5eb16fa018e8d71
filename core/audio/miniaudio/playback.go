package miniaudio

import (
	"context"
	"fmt"
	"sync"

	"github.com/gen2brain/malgo"

	"github.com/converselabs/converse-core/core/audio"
)

type playbackDevice struct {
	audioContext *malgo.AllocatedContext
	device       *malgo.Device
	config       malgo.DeviceConfig

	pending []byte
	halted  bool

	mu sync.Mutex
	// playMu serializes Play calls so chunks never interleave.
	playMu sync.Mutex

	drained chan struct{}
}

func (c *playbackDevice) init(audioContext *malgo.AllocatedContext) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	sampleRate := uint32(audio.DefaultSampleRate)
	channels := 1
	format := malgo.FormatS16
	bytesPerFrame := malgo.SampleSizeInBytes(format) * channels

	c.config = malgo.DefaultDeviceConfig(malgo.Playback)
	c.config.SampleRate = sampleRate
	c.config.Playback.Format = format
	c.config.Playback.Channels = uint32(channels)
	c.config.Alsa.NoMMap = 1
	c.config.PeriodSizeInFrames = sampleRate / 10 // ~100ms of audio
	c.config.Periods = 4

	c.audioContext = audioContext
	c.drained = make(chan struct{}, 1)

	var err error
	if c.device, err = malgo.InitDevice(
		c.audioContext.Context,
		c.config,
		malgo.DeviceCallbacks{Data: c.processAudio(bytesPerFrame)},
	); err != nil {
		return fmt.Errorf("failed to initialize playback device: %w", audio.ErrDeviceUnavailable)
	}

	return nil
}

func (c *playbackDevice) EncodingInfo() audio.EncodingInfo {
	return audio.GetDefaultEncodingInfo()
}

// Play queues the chunk on the device and blocks until it has been consumed,
// the context is cancelled, or Halt discards it.
func (c *playbackDevice) Play(ctx context.Context, chunk []byte) error {
	c.playMu.Lock()
	defer c.playMu.Unlock()

	c.mu.Lock()
	if c.device == nil {
		c.mu.Unlock()
		return audio.ErrDeviceUnavailable
	}
	if !c.device.IsStarted() {
		if err := c.device.Start(); err != nil {
			c.mu.Unlock()
			return fmt.Errorf("failed to start playback device: %w", err)
		}
	}
	c.pending = append(c.pending[:0], chunk...)
	c.halted = false
	c.mu.Unlock()

	for {
		select {
		case <-ctx.Done():
			c.mu.Lock()
			c.pending = nil
			c.mu.Unlock()
			return ctx.Err()
		case <-c.drained:
		}

		c.mu.Lock()
		done := len(c.pending) == 0 || c.halted
		c.mu.Unlock()
		if done {
			return nil
		}
	}
}

// Halt discards any queued audio and unblocks the active Play call.
func (c *playbackDevice) Halt() {
	c.mu.Lock()
	c.pending = nil
	c.halted = true
	c.mu.Unlock()
	c.signalDrained()
}

func (c *playbackDevice) Close() { _ = c.uninit() }

func (c *playbackDevice) uninit() error {
	c.Halt()

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.device != nil {
		c.device.Uninit()
		c.device = nil
	}
	return nil
}

func (c *playbackDevice) processAudio(bytesPerFrame int) malgo.DataProc {
	return func(pOutput, _ []byte, frameCount uint32) {
		need := int(frameCount) * bytesPerFrame

		c.mu.Lock()
		if len(c.pending) == 0 {
			c.mu.Unlock()
			return
		}

		if len(c.pending) <= need {
			copy(pOutput, c.pending)
			c.pending = nil
			c.mu.Unlock()
			c.signalDrained()
			return
		}

		copy(pOutput, c.pending[:need])
		c.pending = c.pending[need:]
		c.mu.Unlock()
	}
}

func (c *playbackDevice) signalDrained() {
	select {
	case c.drained <- struct{}{}:
	default:
	}
}
