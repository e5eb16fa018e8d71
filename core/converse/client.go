// Package converse implements the client for the remote converse endpoint:
// one authenticated request per turn carrying a finalized utterance, answered
// by a live stream of event frames (transcript text, synthesized speech,
// tool execution progress).
package converse

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/codes"
)

type Client struct {
	endpoint string
	apiKey   string

	httpClient   *http.Client
	useWebsocket bool
}

type ClientOption func(*Client)

// WithAPIKey attaches a bearer token to every request.
func WithAPIKey(key string) ClientOption {
	return func(c *Client) { c.apiKey = key }
}

// WithHTTPClient replaces the default instrumented HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = httpClient }
}

// WithWebsocketTransport switches Stream to the websocket variant of the
// endpoint. The frame vocabulary is identical; synthesized speech arrives as
// binary messages instead of base64 payloads.
func WithWebsocketTransport() ClientOption {
	return func(c *Client) { c.useWebsocket = true }
}

func NewClient(endpoint string, opts ...ClientOption) *Client {
	client := &Client{
		endpoint: endpoint,
		httpClient: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

type converseRequest struct {
	AudioInput     string `json:"audio_input"`
	ConversationID string `json:"conversation_id,omitempty"`
	AgentID        string `json:"agent_id,omitempty"`
	Voice          string `json:"voice,omitempty"`
	Format         string `json:"format,omitempty"`
}

// Stream uploads one encoded utterance and decodes the live response until
// the service signals completion. Terminal failures are reported as
// [*TransportError] or [*StreamError]; a single malformed frame is skipped
// and never fails the stream.
func (c *Client) Stream(ctx context.Context, audio []byte, format string, opts ...StreamOption) error {
	options := StreamOptions{}
	for _, opt := range opts {
		opt(&options)
	}

	ctx, span := tracer.Start(ctx, "converse stream")
	defer span.End()

	var err error
	if c.useWebsocket {
		err = c.streamWebsocket(ctx, audio, format, options)
	} else {
		err = c.streamHTTP(ctx, audio, format, options)
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func (c *Client) streamHTTP(ctx context.Context, audio []byte, format string, options StreamOptions) error {
	body, err := json.Marshal(converseRequest{
		AudioInput:     base64.StdEncoding.EncodeToString(audio),
		ConversationID: options.ConversationID,
		AgentID:        options.AgentID,
		Voice:          options.Voice,
		Format:         format,
	})
	if err != nil {
		return fmt.Errorf("failed to encode converse request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build converse request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &TransportError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &TransportError{StatusCode: resp.StatusCode}
	}

	sink := newFrameSink(options)
	decoder := newFrameDecoder(sink.dispatch)

	buf := make([]byte, 4096)
	for {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			decoder.Feed(buf[:n])
			if sink.finished() {
				break
			}
		}
		if readErr == io.EOF {
			decoder.Flush()
			break
		}
		if readErr != nil {
			if sink.finished() {
				break
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return &TransportError{Err: readErr}
		}
	}

	return sink.result()
}

// frameSink routes decoded frames to the registered callbacks and tracks
// stream termination.
type frameSink struct {
	options StreamOptions

	completed bool
	streamErr *StreamError
}

func newFrameSink(options StreamOptions) *frameSink {
	return &frameSink{options: options}
}

func (s *frameSink) finished() bool {
	return s.completed || s.streamErr != nil
}

func (s *frameSink) result() error {
	if s.streamErr != nil {
		return s.streamErr
	}
	if !s.completed {
		return &StreamError{Message: "stream ended before completion"}
	}
	return nil
}

func (s *frameSink) dispatch(decoded frame) {
	if s.finished() {
		return
	}

	switch decoded.Event {
	case frameEventConversationCreated:
		if s.options.ConversationCreatedCallback != nil {
			s.options.ConversationCreatedCallback(decoded.conversationID())
		}
	case frameEventText:
		if s.options.TextCallback != nil {
			s.options.TextCallback(decoded.Data)
		}
	case frameEventAudio:
		chunk, err := base64.StdEncoding.DecodeString(decoded.Data)
		if err != nil {
			log.Printf("Skipping audio frame with invalid payload: %v", err)
			return
		}
		if s.options.AudioCallback != nil {
			s.options.AudioCallback(chunk)
		}
	case frameEventToolCall:
		if s.options.ToolCallCallback != nil {
			s.options.ToolCallCallback(decoded.Name)
		}
	case frameEventToolResult:
		if s.options.ToolResultCallback != nil {
			success := decoded.Success != nil && *decoded.Success
			s.options.ToolResultCallback(ToolResult{
				Name:    decoded.Name,
				Success: success,
				Result:  decoded.Result,
				Error:   decoded.Error,
			})
		}
	case frameEventComplete:
		s.completed = true
		if s.options.CompleteCallback != nil {
			s.options.CompleteCallback()
		}
	case frameEventError:
		message := decoded.Error
		if message == "" {
			message = decoded.Data
		}
		s.streamErr = &StreamError{Message: message}
	default:
		logger.Debug("ignoring unknown stream frame", "event", decoded.Event)
	}
}
