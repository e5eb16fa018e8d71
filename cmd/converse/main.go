// Command converse is a terminal client for the voice interaction engine:
// it records from the default microphone, streams each utterance to a
// converse endpoint, and plays the agent's reply while rendering the live
// transcript.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	engine "github.com/converselabs/converse-core/core"
	"github.com/converselabs/converse-core/core/audio/miniaudio"
	"github.com/converselabs/converse-core/core/converse"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "converse: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}

	mode := engine.Mode(settings.Mode)
	switch mode {
	case engine.ModeManual, engine.ModeConversational:
	case engine.ModePushToTalk:
		// Terminals have no key-release events; the TUI toggles instead.
		mode = engine.ModeManual
	default:
		return fmt.Errorf("unknown mode %q", settings.Mode)
	}

	devices, err := miniaudio.NewClient()
	if err != nil {
		return fmt.Errorf("failed to initialize audio: %w", err)
	}
	defer devices.Close()

	clientOpts := []converse.ClientOption{}
	if settings.APIKey != "" {
		clientOpts = append(clientOpts, converse.WithAPIKey(settings.APIKey))
	}
	if settings.UseWebsocket {
		clientOpts = append(clientOpts, converse.WithWebsocketTransport())
	}

	eng := engine.NewEngine(
		engine.WithAudioInput(devices.Capture()),
		engine.WithAudioOutput(devices.Playback()),
		engine.WithStreamClient(converse.NewClient(settings.Endpoint, clientOpts...)),
		engine.WithAgentID(settings.AgentID),
		engine.WithVoice(settings.Voice),
		engine.WithPreRoll(settings.PreRoll()),
		engine.WithVAD(engine.VADConfig{
			SilenceThreshold:     settings.VAD.SilenceThreshold,
			SilenceDuration:      time.Duration(settings.VAD.SilenceDurationMs) * time.Millisecond,
			MinRecordingDuration: time.Duration(settings.VAD.MinRecordingDurationMs) * time.Millisecond,
		}),
	)
	defer eng.Close()

	program := tea.NewProgram(newModel(eng, mode), tea.WithAltScreen())

	eng.Configure(context.Background(), mode,
		engine.WithStateChangedCallback(func(state engine.State) {
			program.Send(stateMsg(state))
		}),
		engine.WithTranscriptCallback(func(entries []engine.TranscriptEntry) {
			program.Send(transcriptMsg(entries))
		}),
		engine.WithToolExecutionCallback(func(execution engine.ToolExecution) {
			program.Send(toolMsg(execution))
		}),
		engine.WithToolClearedCallback(func() {
			program.Send(toolClearedMsg{})
		}),
		engine.WithErrorCallback(func(err error) {
			program.Send(turnErrorMsg{err: err})
		}),
	)

	_, err = program.Run()
	return err
}
