// ============================================================================
// dikta - Desktop Voice Dictation
// ============================================================================
//
// Package:     dictation
// Description: Session model and configuration
// Author:      The dikta Authors
// Created:     2026-08-15
// License:     MIT
// ============================================================================

package dictation

import (
	"time"

	"github.com/google/uuid"

	"github.com/dikta/dikta/internal/dictation/provider"
	"github.com/dikta/dikta/internal/dictation/vad"
)

// Session is one dictation run from activation to delivery
type Session struct {
	// ID uniquely identifies the session
	ID uuid.UUID

	// StartedAt is when the session was activated
	StartedAt time.Time

	// CompletedAt is when the final transcript was delivered
	CompletedAt time.Time

	// Transcript is the delivered text (polished when polish ran)
	Transcript string

	// RawTranscript is the accumulator output before polish and vocabulary
	RawTranscript string

	// Polished reports whether AI polish was actually applied
	Polished bool

	// PolishRequested is the snapshot of the polish toggle taken at
	// session start. Flipping the toggle mid-session has no effect on
	// the running session.
	PolishRequested bool

	// BatchMode reports whether the session fell back to whole-recording
	// transcription because segmentation was unavailable
	BatchMode bool

	// Chunks is the number of utterance chunks submitted
	Chunks int

	// FailedChunks is the number of chunks whose transcription failed
	FailedChunks int

	// Provider is the provider kind used
	Provider provider.Kind

	// Model is the provider model used
	Model string

	// Language is the language hint used
	Language string
}

// Duration returns the session length, or the elapsed time while still
// running.
func (s *Session) Duration() time.Duration {
	if s.CompletedAt.IsZero() {
		return time.Since(s.StartedAt)
	}
	return s.CompletedAt.Sub(s.StartedAt)
}

// Observer receives session progress callbacks. All methods may be
// called from internal goroutines; implementations must be fast or
// hand off. Any method may be left nil-equivalent by embedding
// NopObserver.
type Observer interface {
	// OnStateChanged is called after every state transition
	OnStateChanged(oldState, newState State)

	// OnInterimText is called with the growing transcript after each
	// chunk result lands
	OnInterimText(text string)

	// OnError is called for fatal and non-fatal session errors
	OnError(err *SessionError)
}

// NopObserver is an Observer that ignores everything
type NopObserver struct{}

func (NopObserver) OnStateChanged(oldState, newState State) {}
func (NopObserver) OnInterimText(text string)               {}
func (NopObserver) OnError(err *SessionError)               {}

// SessionConfig holds per-session configuration. Values are snapshotted
// at Start; later changes apply to the next session.
type SessionConfig struct {
	// Segmentation enables utterance segmentation. When false the
	// session records in batch mode: the whole recording becomes a
	// single chunk at stop.
	Segmentation bool

	// VAD is the segmentation configuration
	VAD vad.Config

	// Provider is the transcription provider configuration
	Provider provider.Config

	// Queue is the transcription queue configuration
	Queue QueueConfig

	// PolishRequested asks for AI polish of this session's transcript.
	// Polish runs only when it is also globally enabled and a
	// transformer is configured.
	PolishRequested bool

	// DrainTimeout bounds the wait for pending transcriptions at stop
	DrainTimeout time.Duration

	// MaxBatchDuration caps buffered audio in batch fallback mode
	MaxBatchDuration time.Duration
}

// DefaultSessionConfig returns default session configuration
func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		Segmentation:     true,
		VAD:              vad.DefaultConfig(),
		Provider:         provider.DefaultConfig(),
		Queue:            DefaultQueueConfig(),
		DrainTimeout:     30 * time.Second,
		MaxBatchDuration: 5 * time.Minute,
	}
}
