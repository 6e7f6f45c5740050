// ============================================================================
// dikta - Desktop Voice Dictation
// ============================================================================
//
// Package:     sink
// Description: Transcript output sinks
// Author:      The dikta Authors
// Created:     2026-08-15
// License:     MIT
// ============================================================================

package sink

import (
	"fmt"
	"io"
	"sync"
)

// Sink receives transcript text as a session progresses. DeliverInterim
// may be called many times with the growing transcript; DeliverFinal is
// called exactly once per completed session.
type Sink interface {
	// DeliverInterim receives the current transcript snapshot
	DeliverInterim(text string) error

	// DeliverFinal receives the final transcript
	DeliverFinal(text string) error

	// Close releases resources
	Close() error
}

// Writer delivers final transcripts to an io.Writer. Interim updates
// are dropped: a stream cannot retract already written text.
type Writer struct {
	mu  sync.Mutex
	out io.Writer
}

// NewWriter creates a sink writing final transcripts to out
func NewWriter(out io.Writer) *Writer {
	return &Writer{out: out}
}

// DeliverInterim is a no-op for stream output
func (w *Writer) DeliverInterim(text string) error {
	return nil
}

// DeliverFinal writes the transcript followed by a newline
func (w *Writer) DeliverFinal(text string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, err := fmt.Fprintln(w.out, text); err != nil {
		return fmt.Errorf("failed to write transcript: %w", err)
	}
	return nil
}

// Close releases resources
func (w *Writer) Close() error {
	return nil
}

// Multi fans deliveries out to several sinks. The first error is
// returned but all sinks are attempted.
type Multi struct {
	sinks []Sink
}

// NewMulti creates a fan-out sink
func NewMulti(sinks ...Sink) *Multi {
	return &Multi{sinks: sinks}
}

// DeliverInterim delivers to all sinks
func (m *Multi) DeliverInterim(text string) error {
	var firstErr error
	for _, s := range m.sinks {
		if err := s.DeliverInterim(text); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// DeliverFinal delivers to all sinks
func (m *Multi) DeliverFinal(text string) error {
	var firstErr error
	for _, s := range m.sinks {
		if err := s.DeliverFinal(text); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Close closes all sinks
func (m *Multi) Close() error {
	var firstErr error
	for _, s := range m.sinks {
		if err := s.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
