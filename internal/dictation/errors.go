// ============================================================================
// dikta - Desktop Voice Dictation
// ============================================================================
//
// Package:     dictation
// Description: Session error taxonomy
// Author:      The dikta Authors
// Created:     2026-08-15
// License:     MIT
// ============================================================================

package dictation

import (
	"fmt"
)

// ErrorKind classifies session failures. Fatal kinds terminate the
// session; non-fatal kinds are reported to the observer and the session
// continues.
type ErrorKind int

const (
	// ErrUnknown is an unclassified failure
	ErrUnknown ErrorKind = iota

	// ErrPermissionDenied - microphone access was refused. Fatal.
	ErrPermissionDenied

	// ErrFormatUnsupported - captured audio cannot be converted to the
	// provider format. Fatal.
	ErrFormatUnsupported

	// ErrProviderInit - the transcription provider could not be set up. Fatal.
	ErrProviderInit

	// ErrChunkTranscription - one utterance failed to transcribe. Non-fatal;
	// the chunk's slot stays empty and the session continues.
	ErrChunkTranscription

	// ErrTransformation - AI polish failed. Non-fatal; the raw transcript
	// is delivered instead.
	ErrTransformation

	// ErrQueueDrainTimeout - pending transcriptions did not finish within
	// the drain deadline. Fatal.
	ErrQueueDrainTimeout

	// ErrAborted - the session was cancelled by the user. Fatal, no delivery.
	ErrAborted

	// ErrInitFailed - a component failed during session startup. Fatal.
	ErrInitFailed
)

// String returns the kind name
func (k ErrorKind) String() string {
	switch k {
	case ErrPermissionDenied:
		return "permission_denied"
	case ErrFormatUnsupported:
		return "format_unsupported"
	case ErrProviderInit:
		return "provider_init_failed"
	case ErrChunkTranscription:
		return "chunk_transcription_failed"
	case ErrTransformation:
		return "transformation_failed"
	case ErrQueueDrainTimeout:
		return "queue_drain_timeout"
	case ErrAborted:
		return "aborted"
	case ErrInitFailed:
		return "init_failed"
	default:
		return "unknown"
	}
}

// Fatal reports whether this kind terminates the session
func (k ErrorKind) Fatal() bool {
	switch k {
	case ErrChunkTranscription, ErrTransformation:
		return false
	default:
		return true
	}
}

// SessionError is a classified session failure
type SessionError struct {
	Kind  ErrorKind
	Cause error
}

// NewSessionError wraps a cause with a kind
func NewSessionError(kind ErrorKind, cause error) *SessionError {
	return &SessionError{Kind: kind, Cause: cause}
}

// Error implements the error interface
func (e *SessionError) Error() string {
	if e.Cause == nil {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Cause)
}

// Unwrap returns the cause
func (e *SessionError) Unwrap() error {
	return e.Cause
}
