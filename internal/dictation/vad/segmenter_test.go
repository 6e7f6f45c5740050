// ============================================================================
// dikta - Desktop Voice Dictation
// ============================================================================
//
// Package:     vad
// Description: Tests for utterance segmentation
// Author:      The dikta Authors
// Created:     2026-08-15
// License:     MIT
// ============================================================================

package vad

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/dikta/dikta/internal/dictation/audio"
	"github.com/dikta/dikta/pkg/core/logging"
)

// fakeDetector classifies a frame as speech when its first sample
// exceeds 0.1 in magnitude.
type fakeDetector struct{}

func (fakeDetector) Process(samples []float32) (bool, error) {
	if len(samples) == 0 {
		return false, nil
	}
	return samples[0] > 0.1 || samples[0] < -0.1, nil
}

func (d fakeDetector) ProcessInt16(samples []int16) (bool, error) {
	if len(samples) == 0 {
		return false, nil
	}
	return samples[0] > 3276 || samples[0] < -3276, nil
}

func (fakeDetector) Close() error { return nil }

func fakeFactory(Config) (Detector, error) { return fakeDetector{}, nil }

func failingFactory(Config) (Detector, error) {
	return nil, fmt.Errorf("model file missing")
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.MinSpeechDuration = 250 * time.Millisecond
	cfg.SilenceTimeout = 500 * time.Millisecond
	cfg.Preroll = 100 * time.Millisecond
	return cfg
}

func testLogger() *logging.Logger {
	return logging.NewWithConfig(logging.Config{Name: "test", Level: logging.LevelError})
}

// makeFrame builds a 100ms mono frame filled with the given value
func makeFrame(value float32, ts time.Time) audio.Frame {
	samples := make([]float32, 1600)
	for i := range samples {
		samples[i] = value
	}
	return audio.Frame{
		Samples:   samples,
		Format:    audio.Format{SampleRate: 16000, Channels: 1},
		Timestamp: ts,
	}
}

func readySegmenter(t *testing.T, cfg Config) *Segmenter {
	t.Helper()
	s := NewSegmenterWithDetector(cfg, testLogger(), fakeFactory)
	s.Start(context.Background())
	if err := s.WaitReady(context.Background()); err != nil {
		t.Fatalf("WaitReady() error = %v", err)
	}
	return s
}

// feed pushes n 100ms frames of the given amplitude and returns any
// chunks emitted along the way.
func feed(t *testing.T, s *Segmenter, value float32, n int, ts *time.Time) []*Chunk {
	t.Helper()
	var chunks []*Chunk
	for i := 0; i < n; i++ {
		chunk, err := s.Push(makeFrame(value, *ts))
		if err != nil {
			t.Fatalf("Push() error = %v", err)
		}
		*ts = ts.Add(100 * time.Millisecond)
		if chunk != nil {
			chunks = append(chunks, chunk)
		}
	}
	return chunks
}

func TestSegmenter_EmitsChunkAfterSilenceTimeout(t *testing.T) {
	s := readySegmenter(t, testConfig())
	ts := time.Now()

	// 1.2s speech, then 1s silence (timeout 0.5s)
	chunks := feed(t, s, 0.5, 12, &ts)
	chunks = append(chunks, feed(t, s, 0.0, 10, &ts)...)

	if len(chunks) != 1 {
		t.Fatalf("emitted %d chunks, want 1", len(chunks))
	}
	chunk := chunks[0]
	if chunk.Seq != 0 {
		t.Errorf("Seq = %d, want 0", chunk.Seq)
	}
	if chunk.SpeechDuration != 1200*time.Millisecond {
		t.Errorf("SpeechDuration = %v, want 1.2s", chunk.SpeechDuration)
	}
	if len(chunk.Samples) == 0 {
		t.Error("chunk has no samples")
	}
}

func TestSegmenter_RejectsShortUtterance(t *testing.T) {
	s := readySegmenter(t, testConfig())
	ts := time.Now()

	// 0.1s speech is below the 0.25s minimum
	chunks := feed(t, s, 0.5, 1, &ts)
	chunks = append(chunks, feed(t, s, 0.0, 10, &ts)...)

	if len(chunks) != 0 {
		t.Errorf("emitted %d chunks, want 0", len(chunks))
	}
}

func TestSegmenter_SequenceNumbersIncrease(t *testing.T) {
	s := readySegmenter(t, testConfig())
	ts := time.Now()

	var chunks []*Chunk
	for i := 0; i < 3; i++ {
		chunks = append(chunks, feed(t, s, 0.5, 8, &ts)...)
		chunks = append(chunks, feed(t, s, 0.0, 8, &ts)...)
	}

	if len(chunks) != 3 {
		t.Fatalf("emitted %d chunks, want 3", len(chunks))
	}
	for i, chunk := range chunks {
		if chunk.Seq != uint64(i) {
			t.Errorf("chunk %d Seq = %d, want %d", i, chunk.Seq, i)
		}
	}
}

func TestSegmenter_SilenceResetDuringSpeech(t *testing.T) {
	s := readySegmenter(t, testConfig())
	ts := time.Now()

	// Speech with a 0.3s pause (below the 0.5s timeout) must stay one utterance
	var chunks []*Chunk
	chunks = append(chunks, feed(t, s, 0.5, 5, &ts)...)
	chunks = append(chunks, feed(t, s, 0.0, 3, &ts)...)
	chunks = append(chunks, feed(t, s, 0.5, 5, &ts)...)
	chunks = append(chunks, feed(t, s, 0.0, 6, &ts)...)

	if len(chunks) != 1 {
		t.Fatalf("emitted %d chunks, want 1", len(chunks))
	}
	if chunks[0].SpeechDuration != 1000*time.Millisecond {
		t.Errorf("SpeechDuration = %v, want 1s", chunks[0].SpeechDuration)
	}
}

func TestSegmenter_FlushEmitsOpenUtterance(t *testing.T) {
	s := readySegmenter(t, testConfig())
	ts := time.Now()

	chunks := feed(t, s, 0.5, 8, &ts)
	if len(chunks) != 0 {
		t.Fatalf("emitted %d chunks before flush, want 0", len(chunks))
	}

	chunk := s.Flush(audio.Format{SampleRate: 16000, Channels: 1})
	if chunk == nil {
		t.Fatal("Flush() = nil, want chunk")
	}
	if chunk.SpeechDuration != 800*time.Millisecond {
		t.Errorf("SpeechDuration = %v, want 0.8s", chunk.SpeechDuration)
	}

	// A second flush has nothing left
	if again := s.Flush(audio.Format{SampleRate: 16000, Channels: 1}); again != nil {
		t.Errorf("second Flush() = %+v, want nil", again)
	}
}

func TestSegmenter_PrerollIncluded(t *testing.T) {
	s := readySegmenter(t, testConfig())
	ts := time.Now()

	// Two silence frames fill the preroll ring before speech starts
	feed(t, s, 0.0, 2, &ts)
	feed(t, s, 0.5, 5, &ts)
	chunks := feed(t, s, 0.0, 6, &ts)

	if len(chunks) != 1 {
		t.Fatalf("emitted %d chunks, want 1", len(chunks))
	}
	// 0.5s speech + 0.5s closing silence + 0.1s preroll at 16kHz
	speechAndSilence := 16000 // 1.0s
	if len(chunks[0].Samples) <= speechAndSilence {
		t.Errorf("chunk samples = %d, want > %d (preroll missing)", len(chunks[0].Samples), speechAndSilence)
	}
}

func TestSegmenter_WaitReadyFailure(t *testing.T) {
	s := NewSegmenterWithDetector(testConfig(), testLogger(), failingFactory)
	s.Start(context.Background())

	if err := s.WaitReady(context.Background()); err == nil {
		t.Error("WaitReady() = nil, want error")
	}
	if s.Ready() {
		t.Error("Ready() = true after failed init")
	}
}

// closeTracker records whether Close was called
type closeTracker struct {
	fakeDetector
	closed chan struct{}
}

func (d *closeTracker) Close() error {
	close(d.closed)
	return nil
}

func TestSegmenter_LateDetectorClosedAfterClose(t *testing.T) {
	detector := &closeTracker{closed: make(chan struct{})}
	release := make(chan struct{})
	slowFactory := func(Config) (Detector, error) {
		<-release
		return detector, nil
	}

	s := NewSegmenterWithDetector(testConfig(), testLogger(), slowFactory)
	s.Start(context.Background())

	// The caller gives up before the detector materializes
	s.Close()
	close(release)

	select {
	case <-detector.closed:
	case <-time.After(5 * time.Second):
		t.Fatal("late detector was never closed")
	}
	if s.Ready() {
		t.Error("Ready() = true after Close")
	}
	if err := s.WaitReady(context.Background()); err == nil {
		t.Error("WaitReady() = nil after Close, want error")
	}
}

func TestSegmenter_PushBeforeReady(t *testing.T) {
	s := NewSegmenterWithDetector(testConfig(), testLogger(), fakeFactory)

	if _, err := s.Push(makeFrame(0.5, time.Now())); err == nil {
		t.Error("Push() before ready = nil error, want error")
	}
}

func TestConfig_Mode(t *testing.T) {
	tests := []struct {
		sensitivity float64
		mode        int
	}{
		{0.0, 0},
		{0.2, 1},
		{0.5, 2},
		{0.8, 2},
		{1.0, 3},
		{-1.0, 0},
		{2.0, 3},
	}

	for _, tt := range tests {
		cfg := Config{Sensitivity: tt.sensitivity}
		if got := cfg.Mode(); got != tt.mode {
			t.Errorf("Mode(%v) = %d, want %d", tt.sensitivity, got, tt.mode)
		}
	}
}
