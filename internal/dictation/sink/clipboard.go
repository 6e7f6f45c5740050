// ============================================================================
// dikta - Desktop Voice Dictation
// ============================================================================
//
// Package:     sink
// Description: Clipboard output sink
// Author:      The dikta Authors
// Created:     2026-08-15
// License:     MIT
// ============================================================================

package sink

import (
	"fmt"

	"github.com/atotto/clipboard"

	"github.com/dikta/dikta/pkg/core/logging"
)

// Clipboard delivers the final transcript to the system clipboard.
// Interim updates are skipped so a half-finished dictation never
// clobbers whatever the user has copied.
type Clipboard struct {
	logger *logging.Logger
}

// NewClipboard creates a clipboard sink
func NewClipboard() *Clipboard {
	return &Clipboard{
		logger: logging.New("sink-clipboard"),
	}
}

// DeliverInterim is a no-op for the clipboard
func (c *Clipboard) DeliverInterim(text string) error {
	return nil
}

// DeliverFinal writes the transcript to the clipboard
func (c *Clipboard) DeliverFinal(text string) error {
	if err := clipboard.WriteAll(text); err != nil {
		return fmt.Errorf("failed to write clipboard: %w", err)
	}
	c.logger.Debug("Transcript copied to clipboard", "length", len(text))
	return nil
}

// Close releases resources
func (c *Clipboard) Close() error {
	return nil
}
