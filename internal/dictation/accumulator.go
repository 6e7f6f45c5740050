// ============================================================================
// dikta - Desktop Voice Dictation
// ============================================================================
//
// Package:     dictation
// Description: Sequence-ordered transcript accumulator
// Author:      The dikta Authors
// Created:     2026-08-15
// License:     MIT
// ============================================================================

package dictation

import (
	"strings"
	"sync"
)

// Accumulator collects per-chunk transcriptions and assembles them in
// sequence order. Completion order is irrelevant: a result for seq 5
// arriving before seq 2 lands in its slot. Failed chunks occupy their
// slot with an empty string, so the slot count always equals the number
// of chunks submitted.
type Accumulator struct {
	mu       sync.RWMutex
	segments map[uint64]string
	maxSeq   uint64
	any      bool
}

// NewAccumulator creates an empty accumulator
func NewAccumulator() *Accumulator {
	return &Accumulator{
		segments: make(map[uint64]string),
	}
}

// Append stores the text for a sequence number. Appending the same
// sequence twice overwrites; the queue worker never does.
func (a *Accumulator) Append(seq uint64, text string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.segments[seq] = text
	if seq > a.maxSeq {
		a.maxSeq = seq
	}
	a.any = true
}

// Segments returns all slots in sequence order, including empty ones.
// Sequence numbers with no result yet are returned as empty strings.
func (a *Accumulator) Segments() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if !a.any {
		return nil
	}

	out := make([]string, a.maxSeq+1)
	for seq, text := range a.segments {
		out[seq] = text
	}
	return out
}

// Transcript joins all non-empty segments in sequence order with
// single spaces.
func (a *Accumulator) Transcript() string {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if !a.any {
		return ""
	}

	parts := make([]string, 0, len(a.segments))
	for seq := uint64(0); seq <= a.maxSeq; seq++ {
		text := strings.TrimSpace(a.segments[seq])
		if text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " ")
}

// Count returns the number of stored slots
func (a *Accumulator) Count() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if !a.any {
		return 0
	}
	return int(a.maxSeq) + 1
}

// Reset clears all segments for a new session
func (a *Accumulator) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.segments = make(map[uint64]string)
	a.maxSeq = 0
	a.any = false
}
