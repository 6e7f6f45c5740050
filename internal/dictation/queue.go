// ============================================================================
// dikta - Desktop Voice Dictation
// ============================================================================
//
// Package:     dictation
// Description: Serialized transcription queue worker
// Author:      The dikta Authors
// Created:     2026-08-15
// License:     MIT
// ============================================================================

package dictation

import (
	"context"
	"sync"
	"time"

	"github.com/dikta/dikta/internal/dictation/provider"
	"github.com/dikta/dikta/internal/dictation/vad"
	"github.com/dikta/dikta/pkg/core/logging"
)

// ResultHandler receives the outcome of one chunk. On failure, text is
// empty and err carries the cause; the chunk's slot must still be
// recorded so ordering holds.
type ResultHandler func(seq uint64, text string, err error)

// QueueConfig holds queue worker configuration
type QueueConfig struct {
	// Language hint passed to the provider
	Language string

	// Model override passed to the provider; empty uses the provider default
	Model string

	// RetryAttempts bounds retries for not-ready provider responses
	RetryAttempts int

	// RetryBackoff is the sleep between retries
	RetryBackoff time.Duration
}

// DefaultQueueConfig returns default queue configuration
func DefaultQueueConfig() QueueConfig {
	return QueueConfig{
		RetryAttempts: 3,
		RetryBackoff:  500 * time.Millisecond,
	}
}

// QueueWorker serializes chunk transcription. Enqueue never blocks the
// caller; a single drain goroutine processes chunks strictly in arrival
// order, which is also sequence order since the segmenter emits them
// that way. At most one drain goroutine exists at any time.
type QueueWorker struct {
	transcriber provider.Transcriber
	cfg         QueueConfig
	onResult    ResultHandler
	logger      *logging.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	pending  []*vad.Chunk
	draining bool
	idleCh   chan struct{}
	closed   bool
}

// NewQueueWorker creates a queue worker. The worker starts idle; the
// drain goroutine is spawned on the first enqueue.
func NewQueueWorker(transcriber provider.Transcriber, cfg QueueConfig, onResult ResultHandler, logger *logging.Logger) *QueueWorker {
	ctx, cancel := context.WithCancel(context.Background())

	idleCh := make(chan struct{})
	close(idleCh)

	return &QueueWorker{
		transcriber: transcriber,
		cfg:         cfg,
		onResult:    onResult,
		logger:      logger,
		ctx:         ctx,
		cancel:      cancel,
		idleCh:      idleCh,
	}
}

// Enqueue adds a chunk for transcription and returns immediately
func (w *QueueWorker) Enqueue(chunk *vad.Chunk) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return
	}

	w.pending = append(w.pending, chunk)
	w.logger.Debug("Chunk enqueued", "seq", chunk.Seq, "pending", len(w.pending))

	if !w.draining {
		w.draining = true
		w.idleCh = make(chan struct{})
		go w.drain()
	}
}

// drain processes pending chunks until the queue is empty, then exits.
// Only one drain goroutine runs at a time.
func (w *QueueWorker) drain() {
	for {
		w.mu.Lock()
		if len(w.pending) == 0 {
			w.draining = false
			close(w.idleCh)
			w.mu.Unlock()
			return
		}
		chunk := w.pending[0]
		w.pending = w.pending[1:]
		w.mu.Unlock()

		w.process(chunk)
	}
}

// process transcribes one chunk and reports the outcome
func (w *QueueWorker) process(chunk *vad.Chunk) {
	req := provider.Request{
		Samples:    chunk.Samples,
		SampleRate: chunk.Format.SampleRate,
		Language:   w.cfg.Language,
		Model:      w.cfg.Model,
	}

	attempts := w.cfg.RetryAttempts
	if attempts < 1 {
		attempts = 1
	}

	start := time.Now()
	result, err := provider.RetryNotReady(w.ctx, attempts, w.cfg.RetryBackoff, func() (provider.Result, error) {
		return w.transcriber.Transcribe(w.ctx, req)
	})

	if err != nil {
		w.logger.Warn("Chunk transcription failed",
			"seq", chunk.Seq, "error", err, "duration", time.Since(start))
		w.onResult(chunk.Seq, "", err)
		return
	}

	w.logger.Debug("Chunk transcribed",
		"seq", chunk.Seq, "text_length", len(result.Text), "duration", time.Since(start))
	w.onResult(chunk.Seq, result.Text, nil)
}

// WaitIdle blocks until all enqueued chunks have been processed or the
// context is done.
func (w *QueueWorker) WaitIdle(ctx context.Context) error {
	w.mu.Lock()
	ch := w.idleCh
	w.mu.Unlock()

	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Pending returns the number of chunks waiting to be processed
func (w *QueueWorker) Pending() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.pending)
}

// CloseDiscard drops all pending chunks and cancels any in-flight
// transcription. Used when aborting a session.
func (w *QueueWorker) CloseDiscard() {
	w.mu.Lock()
	w.closed = true
	w.pending = nil
	w.mu.Unlock()

	w.cancel()
}

// Close stops accepting new chunks. Already enqueued chunks still
// drain; use CloseDiscard to drop them.
func (w *QueueWorker) Close() {
	w.mu.Lock()
	w.closed = true
	w.mu.Unlock()
}
