// ============================================================================
// dikta - Desktop Voice Dictation
// ============================================================================
//
// Package:     vad
// Description: Utterance segmentation over a continuous audio stream
// Author:      The dikta Authors
// Created:     2026-08-15
// License:     MIT
// ============================================================================

package vad

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dikta/dikta/internal/dictation/audio"
	"github.com/dikta/dikta/pkg/core/logging"
)

// Chunk is a contiguous span of audio judged to be one spoken utterance.
// Chunks are immutable once emitted; the samples are owned by the chunk
// until the queue worker consumes it.
type Chunk struct {
	// Seq is the per-session sequence number, assigned at emission time.
	// It is the sole ordering key for transcription results.
	Seq uint64

	// Samples is the utterance audio, including preroll and trailing silence
	Samples []float32

	// Format of the samples
	Format audio.Format

	// Start and End are the capture timestamps of the span
	Start time.Time
	End   time.Time

	// SpeechDuration is the detected speech time within the span
	SpeechDuration time.Duration
}

// DetectorFactory builds a Detector for a config. The default factory
// creates a WebRTC detector; tests inject scripted detectors.
type DetectorFactory func(Config) (Detector, error)

// Segmenter turns a continuous frame stream into utterance chunks.
//
// It has its own readiness lifecycle: Start launches detector
// acquisition asynchronously and WaitReady gates the caller until the
// detector is usable or acquisition failed. Frame classification itself
// is synchronous and bounded, so Push may run on the capture path.
//
// Internal state machine: Silence -> (speech detected) -> Speaking ->
// (silence timeout elapsed) -> Silence, emitting exactly one chunk on
// the Speaking -> Silence transition when the span meets the minimum
// speech duration. Time is accounted from frame durations, not wall
// clock, so segmentation is deterministic for a given input stream.
type Segmenter struct {
	cfg     Config
	logger  *logging.Logger
	factory DetectorFactory

	mu       sync.Mutex
	detector Detector
	ready    chan struct{}
	initErr  error
	started  bool
	closed   bool

	// Utterance state (accessed only from the capture goroutine)
	speaking bool
	current  []float32
	speech   time.Duration
	silence  time.Duration
	startTS  time.Time
	endTS    time.Time
	preroll  *audio.RingBuffer
	nextSeq  uint64
}

// NewSegmenter creates a segmenter using the WebRTC detector
func NewSegmenter(cfg Config, logger *logging.Logger) *Segmenter {
	return NewSegmenterWithDetector(cfg, logger, NewWebRTCDetector)
}

// NewSegmenterWithDetector creates a segmenter with a custom detector factory
func NewSegmenterWithDetector(cfg Config, logger *logging.Logger, factory DetectorFactory) *Segmenter {
	prerollSamples := int(float64(cfg.SampleRate) * cfg.Preroll.Seconds())
	if prerollSamples < 1 {
		prerollSamples = 1
	}
	return &Segmenter{
		cfg:     cfg,
		logger:  logger,
		factory: factory,
		ready:   make(chan struct{}),
		preroll: audio.NewRingBuffer(prerollSamples),
	}
}

// Start begins detector acquisition asynchronously. It may be called
// once; later calls are no-ops.
func (s *Segmenter) Start(ctx context.Context) {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return
	}
	s.started = true
	s.mu.Unlock()

	go func() {
		detector, err := s.factory(s.cfg)

		s.mu.Lock()
		switch {
		case err != nil:
			s.initErr = fmt.Errorf("detector init failed: %w", err)
		case ctx.Err() != nil:
			s.initErr = ctx.Err()
			detector.Close()
		case s.closed:
			// The caller gave up on this segmenter (e.g. ready timeout)
			s.initErr = fmt.Errorf("segmenter closed")
			detector.Close()
		default:
			s.detector = detector
		}
		close(s.ready)
		s.mu.Unlock()
	}()
}

// WaitReady blocks until the detector is usable, acquisition failed, or
// the configured ready timeout elapsed. Capture must not start before
// WaitReady has returned (nil, or an error that triggered batch fallback).
func (s *Segmenter) WaitReady(ctx context.Context) error {
	timeout := s.cfg.ReadyTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	select {
	case <-s.ready:
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.initErr
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(timeout):
		return fmt.Errorf("detector not ready after %v", timeout)
	}
}

// Ready reports whether the detector is usable
func (s *Segmenter) Ready() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.detector != nil
}

// Push classifies one frame and returns a chunk when an utterance
// completed with this frame, or nil. It must only be called after
// WaitReady returned nil.
func (s *Segmenter) Push(frame audio.Frame) (*Chunk, error) {
	s.mu.Lock()
	detector := s.detector
	s.mu.Unlock()
	if detector == nil {
		return nil, fmt.Errorf("segmenter not ready")
	}

	isSpeech, err := detector.Process(frame.Samples)
	if err != nil {
		return nil, err
	}

	dur := frame.Duration()

	if isSpeech {
		if !s.speaking {
			s.speaking = true
			s.speech = 0
			s.silence = 0
			s.current = append([]float32(nil), s.preroll.GetAll()...)
			s.startTS = frame.Timestamp
		}
		s.current = append(s.current, frame.Samples...)
		s.speech += dur
		s.silence = 0
		s.endTS = frame.Timestamp.Add(dur)
		return nil, nil
	}

	if !s.speaking {
		s.preroll.Write(frame.Samples)
		return nil, nil
	}

	// Speaking, current frame is silence: keep the audio so the chunk
	// stays contiguous, and close the utterance once the timeout elapses.
	s.current = append(s.current, frame.Samples...)
	s.silence += dur
	s.endTS = frame.Timestamp.Add(dur)

	if s.silence < s.cfg.SilenceTimeout {
		return nil, nil
	}

	return s.closeUtterance(frame.Format), nil
}

// Flush closes a still-open utterance, e.g. when capture stops while
// the user is speaking. Returns nil when there is nothing to emit.
func (s *Segmenter) Flush(format audio.Format) *Chunk {
	if !s.speaking {
		return nil
	}
	return s.closeUtterance(format)
}

func (s *Segmenter) closeUtterance(format audio.Format) *Chunk {
	speech := s.speech
	samples := s.current
	start, end := s.startTS, s.endTS

	s.speaking = false
	s.current = nil
	s.speech = 0
	s.silence = 0
	s.preroll.Clear()

	if speech < s.cfg.MinSpeechDuration {
		s.logger.Debug("Discarding short utterance",
			"speech", speech, "min", s.cfg.MinSpeechDuration)
		return nil
	}

	chunk := &Chunk{
		Seq:            s.nextSeq,
		Samples:        samples,
		Format:         format,
		Start:          start,
		End:            end,
		SpeechDuration: speech,
	}
	s.nextSeq++

	s.logger.Debug("Utterance chunk emitted",
		"seq", chunk.Seq, "speech", speech, "samples", len(samples))

	return chunk
}

// Reset clears all utterance state for a new session
func (s *Segmenter) Reset() {
	s.speaking = false
	s.current = nil
	s.speech = 0
	s.silence = 0
	s.preroll.Clear()
	s.nextSeq = 0
}

// Close releases the detector. A detector still being acquired is
// closed by the acquisition goroutine once it materializes.
func (s *Segmenter) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	if s.detector != nil {
		err := s.detector.Close()
		s.detector = nil
		return err
	}
	return nil
}
