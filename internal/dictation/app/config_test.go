// ============================================================================
// dikta - Desktop Voice Dictation
// ============================================================================
//
// Package:     app
// Description: Tests for configuration loading
// Author:      The dikta Authors
// Created:     2026-08-15
// License:     MIT
// ============================================================================

package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dikta/dikta/internal/dictation/provider"
)

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "does-not-exist.toml"))
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.General.Language != "en" {
		t.Errorf("Language = %q, want en", cfg.General.Language)
	}
	if cfg.Audio.SampleRate != 16000 {
		t.Errorf("SampleRate = %d, want 16000", cfg.Audio.SampleRate)
	}
	if cfg.Provider.Kind != "cloud" {
		t.Errorf("Provider.Kind = %q, want cloud", cfg.Provider.Kind)
	}
}

func TestLoadConfig_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[general]
language = "de"
log_level = "debug"

[vad]
sensitivity = 0.9
silence_ms = 1200

[provider]
kind = "local"
model_path = "/models/ggml-base.bin"

[polish]
enabled = true
model = "llama3:8b"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.General.Language != "de" {
		t.Errorf("Language = %q, want de", cfg.General.Language)
	}
	if cfg.VAD.Sensitivity != 0.9 {
		t.Errorf("Sensitivity = %v, want 0.9", cfg.VAD.Sensitivity)
	}
	if cfg.VAD.SilenceMs != 1200 {
		t.Errorf("SilenceMs = %d, want 1200", cfg.VAD.SilenceMs)
	}
	if cfg.Provider.Kind != "local" {
		t.Errorf("Provider.Kind = %q, want local", cfg.Provider.Kind)
	}
	if !cfg.Polish.Enabled {
		t.Error("Polish.Enabled = false, want true")
	}

	// Untouched sections keep their defaults
	if cfg.Audio.SampleRate != 16000 {
		t.Errorf("SampleRate = %d, want default 16000", cfg.Audio.SampleRate)
	}
	if cfg.VAD.MinSpeechMs != 250 {
		t.Errorf("MinSpeechMs = %d, want default 250", cfg.VAD.MinSpeechMs)
	}
	if !cfg.VAD.Enabled {
		t.Error("VAD.Enabled = false, want default true")
	}
}

func TestConfig_SegmentationDisabled(t *testing.T) {
	cfg := DefaultConfig()
	cfg.VAD.Enabled = false

	sc := cfg.SessionConfig()
	if sc.Segmentation {
		t.Error("Segmentation = true, want false")
	}
}

func TestConfig_SessionConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.General.Language = "de"
	cfg.VAD.SilenceMs = 700
	cfg.Provider.Kind = "stream"
	cfg.Provider.DrainTimeoutS = 45

	sc := cfg.SessionConfig()

	if sc.VAD.SilenceTimeout != 700*time.Millisecond {
		t.Errorf("SilenceTimeout = %v, want 700ms", sc.VAD.SilenceTimeout)
	}
	if sc.VAD.SampleRate != 16000 {
		t.Errorf("VAD.SampleRate = %d, want 16000", sc.VAD.SampleRate)
	}
	if sc.Provider.Kind != provider.KindStream {
		t.Errorf("Provider.Kind = %q, want stream", sc.Provider.Kind)
	}
	if sc.Provider.Language != "de" {
		t.Errorf("Provider.Language = %q, want de", sc.Provider.Language)
	}
	if sc.Queue.Language != "de" {
		t.Errorf("Queue.Language = %q, want de", sc.Queue.Language)
	}
	if sc.DrainTimeout != 45*time.Second {
		t.Errorf("DrainTimeout = %v, want 45s", sc.DrainTimeout)
	}
}
