// ============================================================================
// dikta - Desktop Voice Dictation
// ============================================================================
//
// Package:     app
// Description: Application configuration
// Author:      The dikta Authors
// Created:     2026-08-15
// License:     MIT
// ============================================================================

package app

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/dikta/dikta/internal/dictation"
	"github.com/dikta/dikta/internal/dictation/history"
	"github.com/dikta/dikta/internal/dictation/provider"
	"github.com/dikta/dikta/internal/dictation/vad"
)

// Config is the application configuration, loaded from a TOML file
type Config struct {
	General  GeneralConfig  `toml:"general"`
	Audio    AudioConfig    `toml:"audio"`
	VAD      VADConfig      `toml:"vad"`
	Provider ProviderConfig `toml:"provider"`
	Polish   PolishConfig   `toml:"polish"`
	Output   OutputConfig   `toml:"output"`
	Vocab    VocabConfig    `toml:"vocabulary"`
	History  HistoryConfig  `toml:"history"`
}

// GeneralConfig holds general settings
type GeneralConfig struct {
	// Language hint for transcription (e.g. "en", "de", "auto")
	Language string `toml:"language"`

	// LogLevel: debug, info, warn, error
	LogLevel string `toml:"log_level"`

	// Shortcut is the push-to-talk toggle hotkey (e.g. "ctrl+shift+d")
	Shortcut string `toml:"shortcut"`
}

// AudioConfig holds capture settings
type AudioConfig struct {
	InputDevice string `toml:"input_device"`
	SampleRate  int    `toml:"sample_rate"`
	BufferSize  int    `toml:"buffer_size"`
}

// VADConfig holds segmentation settings
type VADConfig struct {
	// Enabled turns utterance segmentation on. When false, sessions
	// transcribe the whole recording as one chunk at stop.
	Enabled bool `toml:"enabled"`

	// Sensitivity in [0, 1]; higher filters non-speech more aggressively
	Sensitivity float64 `toml:"sensitivity"`

	MinSpeechMs   int `toml:"min_speech_ms"`
	SilenceMs     int `toml:"silence_ms"`
	PrerollMs     int `toml:"preroll_ms"`
	ReadyTimeoutS int `toml:"ready_timeout_s"`
}

// ProviderConfig holds transcription provider settings
type ProviderConfig struct {
	// Kind: cloud, stream, local
	Kind     string `toml:"kind"`
	BaseURL  string `toml:"base_url"`
	APIKey   string `toml:"api_key"`
	Model    string `toml:"model"`
	TimeoutS int    `toml:"timeout_s"`

	// whisper.cpp (local kind only)
	BinaryPath string `toml:"binary_path"`
	ModelPath  string `toml:"model_path"`

	// Queue behavior
	RetryAttempts int `toml:"retry_attempts"`
	DrainTimeoutS int `toml:"drain_timeout_s"`
}

// PolishConfig holds AI polish settings
type PolishConfig struct {
	// Enabled is the global polish switch; sessions additionally opt in
	Enabled bool   `toml:"enabled"`
	BaseURL string `toml:"base_url"`
	Model   string `toml:"model"`
	Prompt  string `toml:"prompt"`
}

// OutputConfig holds transcript delivery settings
type OutputConfig struct {
	// Clipboard copies the final transcript to the system clipboard
	Clipboard bool `toml:"clipboard"`

	// Stdout prints the final transcript
	Stdout bool `toml:"stdout"`
}

// VocabConfig holds custom vocabulary settings
type VocabConfig struct {
	// Path to the YAML rules file; empty disables vocabulary replacement
	Path string `toml:"path"`
}

// HistoryConfig holds session history settings
type HistoryConfig struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// DefaultConfig returns the default application configuration
func DefaultConfig() Config {
	homeDir, _ := os.UserHomeDir()
	dataDir := filepath.Join(homeDir, ".local", "share", "dikta")

	return Config{
		General: GeneralConfig{
			Language: "en",
			LogLevel: "info",
			Shortcut: "ctrl+shift+d",
		},
		Audio: AudioConfig{
			InputDevice: "default",
			SampleRate:  16000,
			BufferSize:  512,
		},
		VAD: VADConfig{
			Enabled:       true,
			Sensitivity:   0.6,
			MinSpeechMs:   250,
			SilenceMs:     900,
			PrerollMs:     300,
			ReadyTimeoutS: 5,
		},
		Provider: ProviderConfig{
			Kind:          "cloud",
			BaseURL:       "http://localhost:8100",
			Model:         "whisper-1",
			TimeoutS:      60,
			RetryAttempts: 3,
			DrainTimeoutS: 30,
		},
		Polish: PolishConfig{
			Enabled: false,
			BaseURL: "http://localhost:11434",
			Model:   "mistral:7b",
		},
		Output: OutputConfig{
			Clipboard: true,
			Stdout:    true,
		},
		History: HistoryConfig{
			Enabled: true,
			Path:    filepath.Join(dataDir, "history.db"),
		},
	}
}

// ConfigPath returns the default config file location
func ConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	configDir := filepath.Join(homeDir, ".config", "dikta")
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return "", err
	}

	return filepath.Join(configDir, "config.toml"), nil
}

// LoadConfig reads the config file, falling back to defaults for a
// missing file. Values present in the file override defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		var err error
		path, err = ConfigPath()
		if err != nil {
			return cfg, err
		}
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// SessionConfig builds the per-session configuration from the app config
func (c Config) SessionConfig() dictation.SessionConfig {
	sc := dictation.DefaultSessionConfig()

	sc.Segmentation = c.VAD.Enabled
	sc.VAD = vad.Config{
		SampleRate:        c.Audio.SampleRate,
		Sensitivity:       c.VAD.Sensitivity,
		MinSpeechDuration: time.Duration(c.VAD.MinSpeechMs) * time.Millisecond,
		SilenceTimeout:    time.Duration(c.VAD.SilenceMs) * time.Millisecond,
		Preroll:           time.Duration(c.VAD.PrerollMs) * time.Millisecond,
		ReadyTimeout:      time.Duration(c.VAD.ReadyTimeoutS) * time.Second,
	}

	sc.Provider = provider.Config{
		Kind:       provider.Kind(c.Provider.Kind),
		BaseURL:    c.Provider.BaseURL,
		APIKey:     c.Provider.APIKey,
		Model:      c.Provider.Model,
		Language:   c.General.Language,
		Timeout:    time.Duration(c.Provider.TimeoutS) * time.Second,
		BinaryPath: c.Provider.BinaryPath,
		ModelPath:  c.Provider.ModelPath,
	}

	sc.Queue.Language = c.General.Language
	sc.Queue.RetryAttempts = c.Provider.RetryAttempts
	sc.DrainTimeout = time.Duration(c.Provider.DrainTimeoutS) * time.Second

	return sc
}

// HistoryStoreConfig builds the history store configuration
func (c Config) HistoryStoreConfig() history.Config {
	return history.Config{Path: c.History.Path}
}
