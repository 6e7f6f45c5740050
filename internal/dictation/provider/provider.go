// ============================================================================
// dikta - Desktop Voice Dictation
// ============================================================================
//
// Package:     provider
// Description: Transcription provider interface and factory
// Author:      The dikta Authors
// Created:     2026-08-15
// License:     MIT
// ============================================================================

package provider

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for provider failures. Callers match with errors.Is to
// decide between retry, fallback, and abort.
var (
	// ErrNotReady indicates the provider is temporarily unable to accept
	// work (model loading, server warming up). Retryable.
	ErrNotReady = errors.New("provider not ready")

	// ErrAuth indicates the provider rejected the credentials. Not retryable.
	ErrAuth = errors.New("provider authentication failed")

	// ErrNetwork indicates the provider could not be reached
	ErrNetwork = errors.New("provider unreachable")
)

// Request is one transcription unit: the samples of a single utterance
// chunk, or the whole session audio in batch mode.
type Request struct {
	// Samples is mono float32 PCM in [-1, 1]
	Samples []float32

	// SampleRate of the samples
	SampleRate int

	// Language hint (e.g. "en", "de"); empty means auto-detect
	Language string

	// Model overrides the provider's configured model when non-empty
	Model string
}

// Result holds one transcription result
type Result struct {
	// Text is the transcribed text, possibly empty for silence
	Text string

	// Language is the detected or configured language
	Language string

	// Confidence in [0, 1]; providers that report none use 1.0
	Confidence float32

	// Duration is the audio duration in seconds as reported by the provider
	Duration float32
}

// Transcriber converts audio to text. Implementations must be safe for
// serialized use from a single worker goroutine; they need not support
// concurrent Transcribe calls.
type Transcriber interface {
	// Transcribe converts one request to text
	Transcribe(ctx context.Context, req Request) (Result, error)

	// Healthy reports whether the provider can currently accept work
	Healthy(ctx context.Context) bool

	// Close releases resources
	Close() error
}

// Kind selects a provider implementation
type Kind string

const (
	// KindCloud is an OpenAI-compatible HTTP transcription endpoint
	KindCloud Kind = "cloud"

	// KindStream is a WebSocket streaming transcription server
	KindStream Kind = "stream"

	// KindLocal runs whisper.cpp on the local machine
	KindLocal Kind = "local"
)

// Config holds provider configuration. Only the fields relevant to the
// selected kind are used.
type Config struct {
	// Kind selects the implementation
	Kind Kind

	// BaseURL is the HTTP or WebSocket endpoint
	BaseURL string

	// APIKey is sent as a bearer token when non-empty
	APIKey string

	// Model is the default model name
	Model string

	// Language is the default language hint
	Language string

	// Timeout bounds a single transcription request
	Timeout time.Duration

	// BinaryPath is the whisper.cpp binary (local kind only)
	BinaryPath string

	// ModelPath is the whisper.cpp model file (local kind only)
	ModelPath string
}

// DefaultConfig returns default provider configuration
func DefaultConfig() Config {
	return Config{
		Kind:     KindCloud,
		BaseURL:  "http://localhost:8100",
		Model:    "whisper-1",
		Language: "en",
		Timeout:  60 * time.Second,
	}
}

// New creates a transcriber for the configured kind
func New(cfg Config) (Transcriber, error) {
	switch cfg.Kind {
	case KindCloud, "":
		return NewCloudClient(cfg), nil
	case KindStream:
		return NewStreamClient(cfg), nil
	case KindLocal:
		return NewLocalWhisper(cfg)
	default:
		return nil, fmt.Errorf("unknown provider kind %q", cfg.Kind)
	}
}

// RetryNotReady calls fn up to attempts times, sleeping backoff between
// tries, as long as the failure is ErrNotReady. Any other error, or
// context cancellation, stops retrying immediately.
func RetryNotReady(ctx context.Context, attempts int, backoff time.Duration, fn func() (Result, error)) (Result, error) {
	var result Result
	var err error

	for i := 0; i < attempts; i++ {
		result, err = fn()
		if err == nil || !errors.Is(err, ErrNotReady) {
			return result, err
		}

		select {
		case <-ctx.Done():
			return Result{}, ctx.Err()
		case <-time.After(backoff):
		}
	}

	return result, err
}
