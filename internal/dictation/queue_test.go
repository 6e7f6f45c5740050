// ============================================================================
// dikta - Desktop Voice Dictation
// ============================================================================
//
// Package:     dictation
// Description: Tests for the transcription queue worker
// Author:      The dikta Authors
// Created:     2026-08-15
// License:     MIT
// ============================================================================

package dictation

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dikta/dikta/internal/dictation/audio"
	"github.com/dikta/dikta/internal/dictation/provider"
	"github.com/dikta/dikta/internal/dictation/vad"
	"github.com/dikta/dikta/pkg/core/logging"
)

// fakeTranscriber answers from a script keyed by call order
type fakeTranscriber struct {
	mu      sync.Mutex
	calls   int
	answer  func(call int, req provider.Request) (provider.Result, error)
	healthy bool
	delay   time.Duration
}

func (f *fakeTranscriber) Transcribe(ctx context.Context, req provider.Request) (provider.Result, error) {
	f.mu.Lock()
	f.calls++
	call := f.calls
	delay := f.delay
	f.mu.Unlock()

	if delay > 0 {
		select {
		case <-ctx.Done():
			return provider.Result{}, ctx.Err()
		case <-time.After(delay):
		}
	}

	return f.answer(call, req)
}

func (f *fakeTranscriber) Healthy(ctx context.Context) bool { return f.healthy }
func (f *fakeTranscriber) Close() error                     { return nil }

func (f *fakeTranscriber) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// resultRecorder collects queue results
type resultRecorder struct {
	mu      sync.Mutex
	results []struct {
		seq  uint64
		text string
		err  error
	}
}

func (r *resultRecorder) handle(seq uint64, text string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, struct {
		seq  uint64
		text string
		err  error
	}{seq, text, err})
}

func (r *resultRecorder) snapshot() []struct {
	seq  uint64
	text string
	err  error
} {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]struct {
		seq  uint64
		text string
		err  error
	}, len(r.results))
	copy(out, r.results)
	return out
}

func testChunk(seq uint64) *vad.Chunk {
	return &vad.Chunk{
		Seq:     seq,
		Samples: make([]float32, 160),
		Format:  audio.Format{SampleRate: 16000, Channels: 1},
	}
}

func queueLogger() *logging.Logger {
	return logging.NewWithConfig(logging.Config{Name: "test", Level: logging.LevelError})
}

func TestQueueWorker_ProcessesInOrder(t *testing.T) {
	texts := []string{"one", "two", "three"}
	tr := &fakeTranscriber{answer: func(call int, req provider.Request) (provider.Result, error) {
		return provider.Result{Text: texts[call-1]}, nil
	}}

	rec := &resultRecorder{}
	w := NewQueueWorker(tr, DefaultQueueConfig(), rec.handle, queueLogger())

	for i := uint64(0); i < 3; i++ {
		w.Enqueue(testChunk(i))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := w.WaitIdle(ctx); err != nil {
		t.Fatalf("WaitIdle() error = %v", err)
	}

	results := rec.snapshot()
	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}
	for i, r := range results {
		if r.seq != uint64(i) {
			t.Errorf("result %d seq = %d, want %d", i, r.seq, i)
		}
		if r.text != texts[i] {
			t.Errorf("result %d text = %q, want %q", i, r.text, texts[i])
		}
	}
}

func TestQueueWorker_FailureReportsEmptyResult(t *testing.T) {
	tr := &fakeTranscriber{answer: func(call int, req provider.Request) (provider.Result, error) {
		if call == 2 {
			return provider.Result{}, errors.New("backend exploded")
		}
		return provider.Result{Text: "ok"}, nil
	}}

	rec := &resultRecorder{}
	w := NewQueueWorker(tr, DefaultQueueConfig(), rec.handle, queueLogger())

	for i := uint64(0); i < 3; i++ {
		w.Enqueue(testChunk(i))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := w.WaitIdle(ctx); err != nil {
		t.Fatalf("WaitIdle() error = %v", err)
	}

	results := rec.snapshot()
	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}
	if results[1].err == nil {
		t.Error("result 1 err = nil, want error")
	}
	if results[1].text != "" {
		t.Errorf("result 1 text = %q, want empty", results[1].text)
	}
	if results[0].err != nil || results[2].err != nil {
		t.Error("neighbor chunks affected by one failure")
	}
}

func TestQueueWorker_RetriesNotReady(t *testing.T) {
	tr := &fakeTranscriber{answer: func(call int, req provider.Request) (provider.Result, error) {
		if call < 3 {
			return provider.Result{}, provider.ErrNotReady
		}
		return provider.Result{Text: "finally"}, nil
	}}

	cfg := QueueConfig{RetryAttempts: 5, RetryBackoff: time.Millisecond}
	rec := &resultRecorder{}
	w := NewQueueWorker(tr, cfg, rec.handle, queueLogger())

	w.Enqueue(testChunk(0))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := w.WaitIdle(ctx); err != nil {
		t.Fatalf("WaitIdle() error = %v", err)
	}

	results := rec.snapshot()
	if len(results) != 1 || results[0].err != nil {
		t.Fatalf("results = %+v, want one success", results)
	}
	if results[0].text != "finally" {
		t.Errorf("text = %q, want finally", results[0].text)
	}
	if tr.callCount() != 3 {
		t.Errorf("calls = %d, want 3", tr.callCount())
	}
}

func TestQueueWorker_WaitIdleWhenEmpty(t *testing.T) {
	tr := &fakeTranscriber{answer: func(call int, req provider.Request) (provider.Result, error) {
		return provider.Result{}, nil
	}}
	w := NewQueueWorker(tr, DefaultQueueConfig(), func(uint64, string, error) {}, queueLogger())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := w.WaitIdle(ctx); err != nil {
		t.Errorf("WaitIdle() on empty queue error = %v", err)
	}
}

func TestQueueWorker_WaitIdleTimeout(t *testing.T) {
	tr := &fakeTranscriber{
		delay: time.Second,
		answer: func(call int, req provider.Request) (provider.Result, error) {
			return provider.Result{Text: "slow"}, nil
		},
	}

	rec := &resultRecorder{}
	w := NewQueueWorker(tr, DefaultQueueConfig(), rec.handle, queueLogger())
	defer w.CloseDiscard()

	w.Enqueue(testChunk(0))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := w.WaitIdle(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("WaitIdle() error = %v, want deadline exceeded", err)
	}
}

func TestQueueWorker_EnqueueAfterCloseDropped(t *testing.T) {
	tr := &fakeTranscriber{answer: func(call int, req provider.Request) (provider.Result, error) {
		return provider.Result{Text: "x"}, nil
	}}

	rec := &resultRecorder{}
	w := NewQueueWorker(tr, DefaultQueueConfig(), rec.handle, queueLogger())

	w.Close()
	w.Enqueue(testChunk(0))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := w.WaitIdle(ctx); err != nil {
		t.Fatalf("WaitIdle() error = %v", err)
	}
	if len(rec.snapshot()) != 0 {
		t.Errorf("results = %v, want none after close", rec.snapshot())
	}
}
