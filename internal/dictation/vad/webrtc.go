// ============================================================================
// dikta - Desktop Voice Dictation
// ============================================================================
//
// Package:     vad
// Description: WebRTC VAD detector
// Author:      The dikta Authors
// Created:     2026-08-15
// License:     MIT
// ============================================================================

package vad

import (
	"fmt"

	webrtcvad "github.com/maxhawkins/go-webrtcvad"
)

// WebRTCDetector implements Detector using WebRTC's voice activity detector
type WebRTCDetector struct {
	vad        *webrtcvad.VAD
	sampleRate int
	mode       int
}

// NewWebRTCDetector creates a WebRTC VAD detector from the segmentation config
func NewWebRTCDetector(cfg Config) (Detector, error) {
	v, err := webrtcvad.New()
	if err != nil {
		return nil, fmt.Errorf("failed to create WebRTC VAD: %w", err)
	}

	mode := cfg.Mode()
	if err := v.SetMode(mode); err != nil {
		return nil, fmt.Errorf("failed to set VAD mode: %w", err)
	}

	validRates := []int{8000, 16000, 32000, 48000}
	validRate := false
	for _, r := range validRates {
		if cfg.SampleRate == r {
			validRate = true
			break
		}
	}
	if !validRate {
		return nil, fmt.Errorf("invalid sample rate %d, must be one of %v", cfg.SampleRate, validRates)
	}

	return &WebRTCDetector{
		vad:        v,
		sampleRate: cfg.SampleRate,
		mode:       mode,
	}, nil
}

// Process classifies float32 samples and returns whether speech is detected
func (w *WebRTCDetector) Process(samples []float32) (bool, error) {
	int16Samples := make([]int16, len(samples))
	for i, s := range samples {
		if s > 1.0 {
			s = 1.0
		}
		if s < -1.0 {
			s = -1.0
		}
		int16Samples[i] = int16(s * 32767)
	}

	return w.ProcessInt16(int16Samples)
}

// ProcessInt16 classifies 16-bit integer samples. WebRTC VAD requires
// 10/20/30ms frames; the input is split into 10ms sub-frames and the
// result is true if any sub-frame contains speech.
func (w *WebRTCDetector) ProcessInt16(samples []int16) (bool, error) {
	frameSize := w.sampleRate / 100 // 10ms

	if len(samples) < frameSize {
		padded := make([]int16, frameSize)
		copy(padded, samples)
		samples = padded
	}

	for i := 0; i+frameSize <= len(samples); i += frameSize {
		frameBytes := int16ToBytes(samples[i : i+frameSize])

		active, err := w.vad.Process(w.sampleRate, frameBytes)
		if err != nil {
			return false, fmt.Errorf("VAD processing failed: %w", err)
		}

		if active {
			return true, nil
		}
	}

	return false, nil
}

// Mode returns the aggressiveness mode
func (w *WebRTCDetector) Mode() int {
	return w.mode
}

// Close releases resources
func (w *WebRTCDetector) Close() error {
	// WebRTC VAD does not require explicit cleanup
	return nil
}

// int16ToBytes converts an int16 slice to little-endian bytes
func int16ToBytes(samples []int16) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		out[i*2] = byte(s)
		out[i*2+1] = byte(s >> 8)
	}
	return out
}
