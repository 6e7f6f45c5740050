// ============================================================================
// dikta - Desktop Voice Dictation
// ============================================================================
//
// Package:     provider
// Description: Local whisper.cpp CLI transcriber
// Author:      The dikta Authors
// Created:     2026-08-15
// License:     MIT
// ============================================================================

package provider

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/dikta/dikta/internal/dictation/audio"
	"github.com/dikta/dikta/pkg/core/logging"
)

// LocalWhisper implements Transcriber by shelling out to whisper.cpp.
// Audio is written to a temp WAV file for each request.
type LocalWhisper struct {
	binaryPath string
	modelPath  string
	language   string
	tempDir    string
	logger     *logging.Logger
}

// NewLocalWhisper creates a whisper.cpp transcriber
func NewLocalWhisper(cfg Config) (*LocalWhisper, error) {
	binaryPath := cfg.BinaryPath
	if binaryPath == "" {
		binaryPath = findWhisperBinary()
	}
	if binaryPath == "" {
		return nil, fmt.Errorf("whisper binary not found")
	}

	if cfg.ModelPath == "" {
		return nil, fmt.Errorf("model path is required")
	}
	if _, err := os.Stat(cfg.ModelPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("model file not found: %s", cfg.ModelPath)
	}

	tempDir, err := os.MkdirTemp("", "dikta-whisper-")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp directory: %w", err)
	}

	return &LocalWhisper{
		binaryPath: binaryPath,
		modelPath:  cfg.ModelPath,
		language:   cfg.Language,
		tempDir:    tempDir,
		logger:     logging.New("provider-local"),
	}, nil
}

// findWhisperBinary locates the whisper binary in PATH or common locations
func findWhisperBinary() string {
	if path, err := exec.LookPath("whisper-cli"); err == nil {
		return path
	}
	if path, err := exec.LookPath("whisper"); err == nil {
		return path
	}

	locations := []string{
		"/opt/homebrew/bin/whisper-cli",
		"/usr/local/bin/whisper-cli",
		"/usr/local/bin/whisper",
		"/usr/bin/whisper",
	}
	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Transcribe writes the samples to a temp WAV file and runs whisper.cpp
func (w *LocalWhisper) Transcribe(ctx context.Context, req Request) (Result, error) {
	if len(req.Samples) == 0 {
		return Result{}, fmt.Errorf("no audio samples provided")
	}

	language := req.Language
	if language == "" {
		language = w.language
	}

	wavPath := filepath.Join(w.tempDir, fmt.Sprintf("audio_%d.wav", time.Now().UnixNano()))
	f, err := os.Create(wavPath)
	if err != nil {
		return Result{}, fmt.Errorf("failed to create WAV file: %w", err)
	}
	err = audio.WriteWAV(f, req.Samples, req.SampleRate)
	f.Close()
	if err != nil {
		return Result{}, fmt.Errorf("failed to write WAV file: %w", err)
	}
	defer os.Remove(wavPath)

	args := []string{
		"--model", w.modelPath,
		"--language", language,
		"--no-prints",
		wavPath,
	}

	cmd := exec.CommandContext(ctx, w.binaryPath, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	if err := cmd.Run(); err != nil {
		// Older builds use short flags
		args2 := []string{"-m", w.modelPath, "-l", language, "-np", wavPath}
		cmd2 := exec.CommandContext(ctx, w.binaryPath, args2...)
		stdout.Reset()
		stderr.Reset()
		cmd2.Stdout = &stdout
		cmd2.Stderr = &stderr

		if err2 := cmd2.Run(); err2 != nil {
			return Result{}, fmt.Errorf("whisper failed: %w, stderr: %s", err, stderr.String())
		}
	}

	text := cleanWhisperOutput(stdout.String())

	w.logger.Debug("Local transcription complete",
		"duration", time.Since(start), "text_length", len(text))

	return Result{
		Text:       text,
		Language:   language,
		Confidence: 0.9,
	}, nil
}

// cleanWhisperOutput strips timestamp prefixes like
// "[00:00:00.000 --> 00:00:05.000] text" and joins the lines.
func cleanWhisperOutput(raw string) string {
	lines := strings.Split(strings.TrimSpace(raw), "\n")
	var cleanLines []string
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "[") && strings.Contains(line, "-->") {
			if idx := strings.Index(line, "]"); idx != -1 {
				line = strings.TrimSpace(line[idx+1:])
			}
		}
		if line != "" {
			cleanLines = append(cleanLines, line)
		}
	}
	return strings.Join(cleanLines, " ")
}

// Healthy reports whether the binary and model are still present
func (w *LocalWhisper) Healthy(ctx context.Context) bool {
	if _, err := os.Stat(w.binaryPath); err != nil {
		return false
	}
	if _, err := os.Stat(w.modelPath); err != nil {
		return false
	}
	return true
}

// Close removes the temp directory
func (w *LocalWhisper) Close() error {
	if w.tempDir != "" {
		os.RemoveAll(w.tempDir)
	}
	return nil
}
