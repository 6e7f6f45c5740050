// ============================================================================
// dikta - Desktop Voice Dictation
// ============================================================================
//
// Package:     polish
// Description: AI text transformation interface
// Author:      The dikta Authors
// Created:     2026-08-15
// License:     MIT
// ============================================================================

package polish

import (
	"context"
	"time"
)

// Transformer rewrites a raw transcript into polished text. A failed
// transformation never loses the transcript: callers fall back to the
// raw text.
type Transformer interface {
	// Transform rewrites the transcript
	Transform(ctx context.Context, text string) (string, error)

	// Healthy reports whether the transformer can currently accept work
	Healthy(ctx context.Context) bool

	// Close releases resources
	Close() error
}

// Config holds transformation configuration
type Config struct {
	// BaseURL is the Ollama server URL
	BaseURL string

	// Model is the model name
	Model string

	// Prompt is the system prompt; empty uses the default
	Prompt string

	// Timeout bounds one transformation request
	Timeout time.Duration
}

// DefaultPrompt instructs the model to clean up dictated text without
// changing its meaning.
const DefaultPrompt = "You are a dictation cleanup assistant. Fix punctuation, " +
	"capitalization, and obvious transcription errors in the following dictated " +
	"text. Do not change the meaning, do not add content, and reply with only " +
	"the corrected text."

// DefaultConfig returns default transformation configuration
func DefaultConfig() Config {
	return Config{
		BaseURL: "http://localhost:11434",
		Model:   "mistral:7b",
		Timeout: 120 * time.Second,
	}
}
