// ============================================================================
// dikta - Desktop Voice Dictation
// ============================================================================
//
// Package:     audio
// Description: Audio frame and format types
// Author:      The dikta Authors
// Created:     2026-08-14
// License:     MIT
// ============================================================================

package audio

import (
	"fmt"
	"time"
)

// Encoding identifies the sample encoding of an audio source
type Encoding int

const (
	// EncodingFloat32 is 32-bit float samples in [-1, 1]
	EncodingFloat32 Encoding = iota

	// EncodingInt16 is 16-bit signed little-endian PCM
	EncodingInt16
)

// String returns the string representation of the encoding
func (e Encoding) String() string {
	switch e {
	case EncodingFloat32:
		return "f32"
	case EncodingInt16:
		return "i16"
	default:
		return "unknown"
	}
}

// Format describes the layout of audio samples
type Format struct {
	// SampleRate in Hz (e.g. 16000, 44100, 48000)
	SampleRate int

	// Channels is the channel count (1 = mono)
	Channels int

	// Encoding is the sample encoding of the originating source.
	// The pipeline normalizes all samples to float32 internally.
	Encoding Encoding
}

// String returns a short description like "16000Hz/1ch/f32"
func (f Format) String() string {
	return fmt.Sprintf("%dHz/%dch/%s", f.SampleRate, f.Channels, f.Encoding)
}

// Valid reports whether the format has a usable rate and channel count
func (f Format) Valid() bool {
	return f.SampleRate > 0 && f.Channels > 0
}

// Frame is an immutable buffer of PCM samples with its format and a
// monotonic capture timestamp. Ownership transfers down the pipeline;
// a stage must not retain a frame after handing it on.
type Frame struct {
	// Samples are interleaved float32 samples in [-1, 1]
	Samples []float32

	// Format describes the sample layout
	Format Format

	// Timestamp is the capture time of the first sample
	Timestamp time.Time
}

// Duration returns the play time of the frame
func (f Frame) Duration() time.Duration {
	if f.Format.SampleRate <= 0 || f.Format.Channels <= 0 {
		return 0
	}
	perChannel := len(f.Samples) / f.Format.Channels
	return time.Duration(perChannel) * time.Second / time.Duration(f.Format.SampleRate)
}
