// ============================================================================
// dikta - Desktop Voice Dictation
// ============================================================================
//
// Package:     vad
// Description: Voice activity detection interface and configuration
// Author:      The dikta Authors
// Created:     2026-08-15
// License:     MIT
// ============================================================================

package vad

import (
	"time"
)

// Detector is the interface for frame-level voice activity detection.
// Process must be cheap: it runs on the capture path for every frame.
type Detector interface {
	// Process classifies float32 samples and returns whether speech is present
	Process(samples []float32) (bool, error)

	// ProcessInt16 classifies 16-bit integer samples
	ProcessInt16(samples []int16) (bool, error)

	// Close releases resources
	Close() error
}

// Config holds segmentation configuration
type Config struct {
	// SampleRate is the audio sample rate (8000, 16000, 32000, or 48000)
	SampleRate int

	// Sensitivity in [0, 1]; higher filters non-speech more aggressively
	Sensitivity float64

	// MinSpeechDuration is the minimum speech span for a chunk to be emitted
	MinSpeechDuration time.Duration

	// SilenceTimeout is how long silence must last to close an utterance
	SilenceTimeout time.Duration

	// Preroll is how much audio before speech onset is included in a chunk
	Preroll time.Duration

	// ReadyTimeout bounds detector acquisition before batch fallback
	ReadyTimeout time.Duration
}

// DefaultConfig returns default segmentation configuration
func DefaultConfig() Config {
	return Config{
		SampleRate:        16000,
		Sensitivity:       0.6,
		MinSpeechDuration: 250 * time.Millisecond,
		SilenceTimeout:    900 * time.Millisecond,
		Preroll:           300 * time.Millisecond,
		ReadyTimeout:      5 * time.Second,
	}
}

// Mode maps the sensitivity to a WebRTC VAD aggressiveness mode (0-3)
func (c Config) Mode() int {
	mode := int(c.Sensitivity*3 + 0.5)
	if mode < 0 {
		mode = 0
	}
	if mode > 3 {
		mode = 3
	}
	return mode
}
