// ============================================================================
// dikta - Desktop Voice Dictation
// ============================================================================
//
// Package:     dictation
// Description: Transcript finalization and optional AI polish
// Author:      The dikta Authors
// Created:     2026-08-15
// License:     MIT
// ============================================================================

package dictation

import (
	"context"

	"github.com/dikta/dikta/internal/dictation/polish"
	"github.com/dikta/dikta/internal/dictation/vocab"
	"github.com/dikta/dikta/pkg/core/logging"
)

// Finalizer assembles the deliverable transcript: vocabulary rules
// first, then optional AI polish. A polish failure is downgraded to the
// raw transcript; finalization itself cannot fail.
type Finalizer struct {
	transformer polish.Transformer
	rules       *vocab.Rules
	enabled     bool
	logger      *logging.Logger
}

// NewFinalizer creates a finalizer. transformer and rules may be nil;
// enabled is the global polish switch.
func NewFinalizer(transformer polish.Transformer, rules *vocab.Rules, enabled bool, logger *logging.Logger) *Finalizer {
	return &Finalizer{
		transformer: transformer,
		rules:       rules,
		enabled:     enabled,
		logger:      logger,
	}
}

// Finalize produces the deliverable text for a session. Polish runs
// only when the session requested it at start, polish is globally
// enabled, and a transformer is configured. The returned SessionError
// is non-fatal and only reports a polish failure that fell back to the
// raw text.
func (f *Finalizer) Finalize(ctx context.Context, session *Session, transcript string) (string, *SessionError) {
	text := f.rules.Apply(transcript)

	if !session.PolishRequested || !f.enabled || f.transformer == nil {
		return text, nil
	}

	polished, err := f.transformer.Transform(ctx, text)
	if err != nil {
		f.logger.Warn("Polish failed, delivering raw transcript",
			"session", session.ID, "error", err)
		return text, NewSessionError(ErrTransformation, err)
	}

	session.Polished = true
	f.logger.Debug("Transcript polished",
		"session", session.ID, "raw_length", len(text), "polished_length", len(polished))
	return polished, nil
}
