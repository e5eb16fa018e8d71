package converse

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/converselabs/converse-core/internal/utils"
)

func streamHandler(t *testing.T, lines ...string) http.HandlerFunc {
	t.Helper()

	return func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		if !ok {
			t.Fatal("response writer does not support flushing")
		}

		w.Header().Set("Content-Type", "text/event-stream")
		for _, line := range lines {
			fmt.Fprintf(w, "%s\n", line)
			flusher.Flush()
		}
	}
}

func TestClientStreamsResponse(t *testing.T) {
	var request converseRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Fatalf("unexpected authorization header: %q", got)
		}

		streamHandler(t,
			`data: {"event":"conversation_created","conversation_id":"conv-1"}`,
			`data: {"event":"text","data":"Hello"}`,
			`data: {"event":"audio","data":"`+base64.StdEncoding.EncodeToString([]byte("pcm"))+`"}`,
			`data: {"event":"tool_call","name":"get_weather"}`,
			`data: {"event":"tool_result","name":"get_weather","success":true,"result":"sunny"}`,
			`data: {"event":"complete"}`,
		)(w, r)
	}))
	defer server.Close()

	client := NewClient(server.URL, WithAPIKey("test-key"))

	var conversationID, text string
	var audioChunk []byte
	var toolCalls []string
	var toolResults []ToolResult
	completed := false

	err := client.Stream(context.Background(), []byte("utterance"), "linear16",
		WithAgentID("agent-1"),
		WithConversationCreatedCallback(func(id string) { conversationID = id }),
		WithTextCallback(func(t string) { text += t }),
		WithAudioCallback(func(chunk []byte) { audioChunk = chunk }),
		WithToolCallCallback(func(name string) { toolCalls = append(toolCalls, name) }),
		WithToolResultCallback(func(result ToolResult) { toolResults = append(toolResults, result) }),
		WithCompleteCallback(func() { completed = true }),
	)
	if err != nil {
		t.Fatalf("stream failed: %v", err)
	}

	if request.AudioInput != base64.StdEncoding.EncodeToString([]byte("utterance")) {
		t.Fatal("expected the utterance to be uploaded base64 encoded")
	}
	if request.Format != "linear16" || request.AgentID != "agent-1" {
		t.Fatalf("unexpected request fields: %+v", request)
	}

	if conversationID != "conv-1" {
		t.Fatalf("unexpected conversation id: %q", conversationID)
	}
	if text != "Hello" {
		t.Fatalf("unexpected text: %q", text)
	}
	if string(audioChunk) != "pcm" {
		t.Fatalf("unexpected audio chunk: %q", audioChunk)
	}
	if len(toolCalls) != 1 || toolCalls[0] != "get_weather" {
		t.Fatalf("unexpected tool calls: %v", toolCalls)
	}
	if len(toolResults) != 1 || !toolResults[0].Success || toolResults[0].Result != "sunny" {
		t.Fatalf("unexpected tool results: %+v", toolResults)
	}
	if !completed {
		t.Fatal("expected the complete callback to fire")
	}
}

func TestClientReportsTransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusUnauthorized)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	err := client.Stream(context.Background(), []byte("utterance"), "linear16")

	var transportErr *TransportError
	if !errors.As(err, &transportErr) {
		t.Fatalf("expected a TransportError, got %v", err)
	}
	if transportErr.StatusCode != http.StatusUnauthorized {
		t.Fatalf("unexpected status code: %d", transportErr.StatusCode)
	}
}

func TestClientReportsStreamError(t *testing.T) {
	server := httptest.NewServer(streamHandler(t,
		`data: {"event":"text","data":"partial"}`,
		`data: {"event":"error","error":"agent unavailable"}`,
	))
	defer server.Close()

	client := NewClient(server.URL)
	err := client.Stream(context.Background(), []byte("utterance"), "linear16")

	var streamErr *StreamError
	if !errors.As(err, &streamErr) {
		t.Fatalf("expected a StreamError, got %v", err)
	}
	if streamErr.Message != "agent unavailable" {
		t.Fatalf("unexpected message: %q", streamErr.Message)
	}
}

func TestClientReportsTruncatedStream(t *testing.T) {
	server := httptest.NewServer(streamHandler(t,
		`data: {"event":"text","data":"partial"}`,
	))
	defer server.Close()

	client := NewClient(server.URL)
	err := client.Stream(context.Background(), []byte("utterance"), "linear16")

	var streamErr *StreamError
	if !errors.As(err, &streamErr) {
		t.Fatalf("expected a StreamError for a truncated stream, got %v", err)
	}
}

func TestClientSkipsMalformedFrame(t *testing.T) {
	server := httptest.NewServer(streamHandler(t,
		`data: {"event":"text","data":"before"}`,
		`data: {broken`,
		`data: {"event":"text","data":"after"}`,
		`data: {"event":"complete"}`,
	))
	defer server.Close()

	client := NewClient(server.URL)

	var text string
	err := client.Stream(context.Background(), []byte("utterance"), "linear16",
		WithTextCallback(func(t string) { text += t }),
	)
	if err != nil {
		t.Fatalf("expected the malformed frame not to fail the stream: %v", err)
	}
	if text != "beforeafter" {
		t.Fatalf("unexpected text: %q", text)
	}
}

func TestClientSkipsInvalidAudioPayload(t *testing.T) {
	server := httptest.NewServer(streamHandler(t,
		`data: {"event":"audio","data":"%%not-base64%%"}`,
		`data: {"event":"audio","data":"`+base64.StdEncoding.EncodeToString([]byte("ok"))+`"}`,
		`data: {"event":"complete"}`,
	))
	defer server.Close()

	client := NewClient(server.URL)

	var chunks [][]byte
	err := client.Stream(context.Background(), []byte("utterance"), "linear16",
		WithAudioCallback(func(chunk []byte) { chunks = append(chunks, chunk) }),
	)
	if err != nil {
		t.Fatalf("expected the invalid payload not to fail the stream: %v", err)
	}
	if len(chunks) != 1 || string(chunks[0]) != "ok" {
		t.Fatalf("unexpected audio chunks: %v", chunks)
	}
}

func TestFrameSinkToolResultDefaultsToFailure(t *testing.T) {
	var results []ToolResult
	sink := newFrameSink(StreamOptions{
		ToolResultCallback: func(result ToolResult) { results = append(results, result) },
	})

	// A tool_result without an explicit success field counts as a failure.
	sink.dispatch(frame{Event: frameEventToolResult, Name: "get_weather", Error: "boom"})
	sink.dispatch(frame{Event: frameEventToolResult, Name: "get_weather", Success: utils.Ptr(true), Result: "sunny"})

	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Success || results[0].Error != "boom" {
		t.Fatalf("unexpected first result: %+v", results[0])
	}
	if !results[1].Success || results[1].Result != "sunny" {
		t.Fatalf("unexpected second result: %+v", results[1])
	}
}

func TestClientCancelledContext(t *testing.T) {
	started := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		flusher := w.(http.Flusher)
		fmt.Fprint(w, "data: {\"event\":\"text\",\"data\":\"partial\"}\n")
		flusher.Flush()
		close(started)
		<-r.Context().Done()
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-started
		cancel()
	}()

	client := NewClient(server.URL)
	err := client.Stream(ctx, []byte("utterance"), "linear16")

	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
