package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type VADSettings struct {
	SilenceThreshold       float64 `mapstructure:"silence_threshold"`
	SilenceDurationMs      int     `mapstructure:"silence_duration_ms"`
	MinRecordingDurationMs int     `mapstructure:"min_recording_duration_ms"`
}

type Settings struct {
	Endpoint     string      `mapstructure:"endpoint"`
	APIKey       string      `mapstructure:"api_key"`
	AgentID      string      `mapstructure:"agent_id"`
	Voice        string      `mapstructure:"voice"`
	Mode         string      `mapstructure:"mode"`
	UseWebsocket bool        `mapstructure:"use_websocket"`
	PreRollMs    int         `mapstructure:"pre_roll_ms"`
	VAD          VADSettings `mapstructure:"vad"`
}

func (s Settings) PreRoll() time.Duration {
	return time.Duration(s.PreRollMs) * time.Millisecond
}

func loadSettings() (*Settings, error) {
	viper.SetConfigName("converse")
	viper.AddConfigPath(".")
	viper.AddConfigPath("$HOME/.config/converse")
	viper.SetConfigType("yaml")

	viper.SetDefault("endpoint", "http://localhost:8080/v1/converse")
	viper.SetDefault("mode", "manual")

	viper.SetEnvPrefix("CONVERSE")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		// Environment variables and defaults are enough to run.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var settings Settings
	if err := viper.Unmarshal(&settings); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &settings, nil
}
