package converse

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"
)

func (c *Client) streamWebsocket(ctx context.Context, audio []byte, format string, options StreamOptions) error {
	endpoint, err := websocketEndpoint(c.endpoint)
	if err != nil {
		return fmt.Errorf("invalid converse endpoint: %w", err)
	}

	header := http.Header{}
	if c.apiKey != "" {
		header.Set("Authorization", "Bearer "+c.apiKey)
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, endpoint, header)
	if err != nil {
		return &TransportError{Err: err}
	}
	defer conn.Close()

	// Unblock the read loop if the caller abandons the turn.
	watchDone := make(chan struct{})
	defer close(watchDone)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-watchDone:
		}
	}()

	if err := conn.WriteJSON(converseRequest{
		AudioInput:     base64.StdEncoding.EncodeToString(audio),
		ConversationID: options.ConversationID,
		AgentID:        options.AgentID,
		Voice:          options.Voice,
		Format:         format,
	}); err != nil {
		return &TransportError{Err: fmt.Errorf("failed to send utterance: %w", err)}
	}

	sink := newFrameSink(options)
	for {
		msgType, msg, readErr := conn.ReadMessage()
		if readErr != nil {
			if sink.finished() {
				break
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return &TransportError{Err: readErr}
		}

		switch msgType {
		case websocket.BinaryMessage:
			if options.AudioCallback != nil {
				options.AudioCallback(msg)
			}
		case websocket.TextMessage:
			payload := strings.TrimPrefix(strings.TrimSpace(string(msg)), framePrefix)
			var decoded frame
			if err := json.Unmarshal([]byte(payload), &decoded); err != nil {
				log.Printf("Skipping malformed stream frame: %v", err)
				continue
			}
			sink.dispatch(decoded)
		}

		if sink.finished() {
			_ = conn.WriteMessage(
				websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			)
			break
		}
	}

	return sink.result()
}

func websocketEndpoint(endpoint string) (string, error) {
	parsed, err := url.Parse(endpoint)
	if err != nil {
		return "", err
	}

	switch parsed.Scheme {
	case "http":
		parsed.Scheme = "ws"
	case "https":
		parsed.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("unsupported scheme %q", parsed.Scheme)
	}

	return parsed.String(), nil
}
