// ============================================================================
// dikta - Desktop Voice Dictation
// ============================================================================
//
// Package:     audio
// Description: Audio buffer utilities
// Author:      The dikta Authors
// Created:     2026-08-14
// License:     MIT
// ============================================================================

package audio

import (
	"sync"
)

// RingBuffer is a thread-safe ring buffer for audio samples. The
// segmenter uses it to keep a short pre-roll of audio so an utterance
// chunk includes the samples just before speech onset was detected.
type RingBuffer struct {
	mu       sync.RWMutex
	data     []float32
	size     int
	writePos int
	readPos  int
	count    int
}

// NewRingBuffer creates a new ring buffer with the specified capacity
func NewRingBuffer(capacity int) *RingBuffer {
	return &RingBuffer{
		data: make([]float32, capacity),
		size: capacity,
	}
}

// Write writes samples to the buffer, overwriting the oldest data when full
func (rb *RingBuffer) Write(samples []float32) int {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	written := 0
	for _, s := range samples {
		rb.data[rb.writePos] = s
		rb.writePos = (rb.writePos + 1) % rb.size
		written++

		if rb.count < rb.size {
			rb.count++
		} else {
			rb.readPos = (rb.readPos + 1) % rb.size
		}
	}

	return written
}

// GetAll returns all buffered samples oldest-first without removing them
func (rb *RingBuffer) GetAll() []float32 {
	rb.mu.RLock()
	defer rb.mu.RUnlock()

	samples := make([]float32, rb.count)
	pos := rb.readPos
	for i := 0; i < rb.count; i++ {
		samples[i] = rb.data[pos]
		pos = (pos + 1) % rb.size
	}

	return samples
}

// Len returns the number of samples in the buffer
func (rb *RingBuffer) Len() int {
	rb.mu.RLock()
	defer rb.mu.RUnlock()
	return rb.count
}

// Cap returns the capacity of the buffer
func (rb *RingBuffer) Cap() int {
	return rb.size
}

// Clear clears the buffer
func (rb *RingBuffer) Clear() {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	rb.readPos = 0
	rb.writePos = 0
	rb.count = 0
}

// Buffer is a growing buffer for collecting audio samples. The session
// uses it in batch mode to hold the whole recording until stop.
type Buffer struct {
	mu      sync.RWMutex
	samples []float32
}

// NewBuffer creates a new audio buffer pre-sized for about ten seconds
// of 16kHz mono audio
func NewBuffer() *Buffer {
	return &Buffer{
		samples: make([]float32, 0, 16000*10),
	}
}

// Append adds samples to the buffer
func (b *Buffer) Append(samples []float32) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.samples = append(b.samples, samples...)
}

// Get returns a copy of all samples
func (b *Buffer) Get() []float32 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	result := make([]float32, len(b.samples))
	copy(result, b.samples)
	return result
}

// Len returns the number of samples
func (b *Buffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.samples)
}

// DurationSeconds returns the duration in seconds at the given sample rate
func (b *Buffer) DurationSeconds(sampleRate float64) float64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if sampleRate <= 0 {
		return 0
	}
	return float64(len(b.samples)) / sampleRate
}

// Clear clears the buffer, keeping its capacity
func (b *Buffer) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.samples = b.samples[:0]
}
