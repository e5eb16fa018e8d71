//go:build portaudio

// Package portaudio implements the engine's microphone capability on top of
// the PortAudio bindings. It is an alternative to the miniaudio backend for
// hosts where PortAudio is already present.
package portaudio

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"sync/atomic"

	"github.com/gordonklaus/portaudio"

	"github.com/converselabs/converse-core/core/audio"
)

type Client struct {
	bufferSize int
	stream     *portaudio.Stream

	in      []int16
	started atomic.Bool
	stop    chan struct{}
}

func NewClient(bufferSize int) (*Client, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize portaudio: %w", audio.ErrDeviceUnavailable)
	}

	in := make([]int16, bufferSize)
	stream, err := portaudio.OpenDefaultStream(1, 0, audio.DefaultSampleRate, bufferSize, in)
	if err != nil {
		_ = portaudio.Terminate()
		return nil, fmt.Errorf("failed to open portaudio stream: %w", audio.ErrDeviceUnavailable)
	}

	return &Client{
		bufferSize: bufferSize,
		stream:     stream,
		in:         in,
		stop:       make(chan struct{}),
	}, nil
}

func (c *Client) EncodingInfo() audio.EncodingInfo {
	return audio.EncodingInfo{
		SampleRate: audio.DefaultSampleRate,
		Format:     audio.EncodingLinear16,
	}
}

func (c *Client) Start(ctx context.Context, onFrame func(frame []byte)) error {
	if !c.started.CompareAndSwap(false, true) {
		return nil
	}

	if err := c.stream.Start(); err != nil {
		c.started.Store(false)
		return fmt.Errorf("failed to start portaudio stream: %w", err)
	}

	c.stop = make(chan struct{})
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-c.stop:
				return
			default:
			}

			if err := c.stream.Read(); err != nil {
				continue
			}

			audioBuffer := bytes.Buffer{}
			_ = binary.Write(&audioBuffer, binary.LittleEndian, c.in)
			onFrame(audioBuffer.Bytes())
		}
	}()

	return nil
}

func (c *Client) Stop() error {
	if !c.started.CompareAndSwap(true, false) {
		return nil
	}

	close(c.stop)
	if err := c.stream.Stop(); err != nil {
		return fmt.Errorf("failed to stop portaudio stream: %w", err)
	}
	return nil
}

func (c *Client) Close() {
	_ = c.Stop()
	_ = c.stream.Close()
	_ = portaudio.Terminate()
}
