// Package miniaudio implements the engine's audio capabilities on top of
// the malgo (miniaudio) bindings.
package miniaudio

import (
	"fmt"

	"github.com/gen2brain/malgo"

	"github.com/converselabs/converse-core/core/audio"
)

// Client owns the malgo context shared by the capture and playback devices.
type Client struct {
	// audioContext is only saved to be able to uninitialize it, it is an
	// ownership thing
	audioContext *malgo.AllocatedContext

	capture  captureDevice
	playback playbackDevice
}

func NewClient() (*Client, error) {
	audioCtx, err := malgo.InitContext(
		nil,
		malgo.ContextConfig{},
		func(message string) {},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize audio context: %w", audio.ErrDeviceUnavailable)
	}

	client := Client{audioContext: audioCtx}

	if err := client.capture.init(audioCtx); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to initialize capture device: %w", err)
	}

	if err := client.playback.init(audioCtx); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to initialize playback device: %w", err)
	}

	return &client, nil
}

// Capture returns the microphone capability backed by this client.
func (c *Client) Capture() audio.Input { return &c.capture }

// Playback returns the speaker capability backed by this client.
func (c *Client) Playback() audio.Output { return &c.playback }

func (c *Client) Close() {
	_ = c.capture.uninit()
	_ = c.playback.uninit()
	_ = c.audioContext.Uninit()
	c.audioContext.Free()
}
