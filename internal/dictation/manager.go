// ============================================================================
// dikta - Desktop Voice Dictation
// ============================================================================
//
// Package:     dictation
// Description: Session orchestration
// Author:      The dikta Authors
// Created:     2026-08-15
// License:     MIT
// ============================================================================

package dictation

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dikta/dikta/internal/dictation/audio"
	"github.com/dikta/dikta/internal/dictation/provider"
	"github.com/dikta/dikta/internal/dictation/sink"
	"github.com/dikta/dikta/internal/dictation/vad"
	"github.com/dikta/dikta/pkg/core/logging"
)

// ManagerOptions holds the manager's collaborators. Source, Finalizer
// and Sink are required. Transcriber is optional: when nil, one is
// created per session from the session's provider config.
// DetectorFactory is optional and defaults to the WebRTC detector.
type ManagerOptions struct {
	Source          audio.Source
	Transcriber     provider.Transcriber
	Finalizer       *Finalizer
	Sink            sink.Sink
	Observer        Observer
	DetectorFactory vad.DetectorFactory
	Logger          *logging.Logger
}

// Manager runs dictation sessions. One session is active at a time.
//
// Session flow: Start initializes segmentation and only begins capture
// once segmentation readiness is decided (ready, or fallen back to
// batch mode) so no frame can arrive before the session knows how to
// route it. Captured frames are converted, segmented into utterance
// chunks, and transcribed by a serialized queue worker whose results
// land in a sequence-ordered accumulator. Stop drains the queue,
// finalizes the transcript, and delivers it exactly once.
type Manager struct {
	source          audio.Source
	transcriber     provider.Transcriber
	finalizer       *Finalizer
	sink            sink.Sink
	observer        Observer
	detectorFactory vad.DetectorFactory
	logger          *logging.Logger
	converter       *audio.Converter
	state           *StateMachine

	// opMu serializes Start/Stop/Abort
	opMu sync.Mutex

	// mu guards the per-session fields below
	mu             sync.Mutex
	session        *Session
	cfg            SessionConfig
	segmenter      *vad.Segmenter
	sessionTr      provider.Transcriber
	ownTr          bool
	queue          *QueueWorker
	acc            *Accumulator
	batch          *audio.Buffer
	batchMode      bool
	batchCapWarned bool
	target         audio.Format
	cancelRun      context.CancelFunc
	runDone        chan struct{}
	finalized      bool
}

// NewManager creates a session manager
func NewManager(opts ManagerOptions) (*Manager, error) {
	if opts.Source == nil {
		return nil, fmt.Errorf("audio source is required")
	}
	if opts.Finalizer == nil {
		return nil, fmt.Errorf("finalizer is required")
	}
	if opts.Sink == nil {
		return nil, fmt.Errorf("sink is required")
	}
	if opts.Observer == nil {
		opts.Observer = NopObserver{}
	}
	if opts.Logger == nil {
		opts.Logger = logging.New("dictation")
	}

	m := &Manager{
		source:          opts.Source,
		transcriber:     opts.Transcriber,
		finalizer:       opts.Finalizer,
		sink:            opts.Sink,
		observer:        opts.Observer,
		detectorFactory: opts.DetectorFactory,
		logger:          opts.Logger,
		converter:       audio.NewConverter(),
		state:           NewStateMachine(),
		acc:             NewAccumulator(),
	}

	m.state.AddListener(func(oldState, newState State) {
		m.logger.Info("Session state changed", "from", oldState, "to", newState)
		m.observer.OnStateChanged(oldState, newState)
	})

	return m, nil
}

// State returns the current session state
func (m *Manager) State() State {
	return m.state.Current()
}

// Session returns the current or last session, or nil
func (m *Manager) Session() *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session
}

// Start begins a new dictation session. It fails when a session is
// already active. Capture does not begin until segmentation readiness
// is decided; a segmentation init failure degrades the session to
// batch mode instead of failing it.
func (m *Manager) Start(ctx context.Context, cfg SessionConfig) (*Session, error) {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	if m.state.IsActive() {
		return nil, fmt.Errorf("a session is already active (state %s)", m.state.Current())
	}
	if cur := m.state.Current(); cur == StateCompleted || cur == StateError {
		m.state.Reset()
	}

	if !m.state.Transition(StateInitializing) {
		return nil, fmt.Errorf("cannot start from state %s", m.state.Current())
	}

	session := &Session{
		ID:              uuid.New(),
		StartedAt:       time.Now(),
		PolishRequested: cfg.PolishRequested,
		Provider:        cfg.Provider.Kind,
		Model:           cfg.Provider.Model,
		Language:        cfg.Provider.Language,
	}

	m.mu.Lock()
	m.session = session
	m.cfg = cfg
	m.acc.Reset()
	m.batch = nil
	m.batchMode = false
	m.batchCapWarned = false
	m.finalized = false
	m.target = audio.Format{
		SampleRate: cfg.VAD.SampleRate,
		Channels:   1,
		Encoding:   audio.EncodingFloat32,
	}
	m.mu.Unlock()

	m.logger.Info("Starting dictation session",
		"session", session.ID,
		"provider", cfg.Provider.Kind,
		"polish_requested", cfg.PolishRequested,
	)

	// Provider
	tr := m.transcriber
	own := false
	if tr == nil {
		var err error
		tr, err = provider.New(cfg.Provider)
		if err != nil {
			return nil, m.fail(ErrProviderInit, err)
		}
		own = true
	}

	queueCfg := cfg.Queue
	if queueCfg.Language == "" {
		queueCfg.Language = cfg.Provider.Language
	}
	queue := NewQueueWorker(tr, queueCfg, m.handleChunkResult, m.logger)

	// Segmentation readiness decides the capture routing before any
	// frame is captured.
	var segmenter *vad.Segmenter
	batchMode := !cfg.Segmentation
	if batchMode {
		session.BatchMode = true
	} else {
		factory := m.detectorFactory
		if factory != nil {
			segmenter = vad.NewSegmenterWithDetector(cfg.VAD, m.logger, factory)
		} else {
			segmenter = vad.NewSegmenter(cfg.VAD, m.logger)
		}
		segmenter.Start(ctx)

		if err := segmenter.WaitReady(ctx); err != nil {
			if ctx.Err() != nil {
				segmenter.Close()
				return nil, m.fail(ErrInitFailed, ctx.Err())
			}
			m.logger.Warn("Segmentation unavailable, falling back to batch mode",
				"session", session.ID, "error", err)
			segmenter.Close()
			segmenter = nil
			batchMode = true
			session.BatchMode = true
		}
	}

	m.mu.Lock()
	m.sessionTr = tr
	m.ownTr = own
	m.queue = queue
	m.segmenter = segmenter
	m.batchMode = batchMode
	if batchMode {
		m.batch = audio.NewBuffer()
	}
	m.mu.Unlock()

	if !m.state.Transition(StateRecording) {
		m.cleanupSession()
		return nil, m.fail(ErrInitFailed, fmt.Errorf("invalid transition to recording"))
	}

	runCtx, cancel := context.WithCancel(context.Background())
	runDone := make(chan struct{})
	m.mu.Lock()
	m.cancelRun = cancel
	m.runDone = runDone
	m.mu.Unlock()

	if err := m.source.Start(runCtx); err != nil {
		cancel()
		close(runDone)
		m.cleanupSession()
		kind := ErrInitFailed
		if strings.Contains(strings.ToLower(err.Error()), "permission") {
			kind = ErrPermissionDenied
		}
		return nil, m.fail(kind, err)
	}

	go m.runLoop(runCtx, runDone)

	return session, nil
}

// runLoop consumes captured frames until the session stops
func (m *Manager) runLoop(ctx context.Context, done chan struct{}) {
	defer close(done)

	for {
		select {
		case <-ctx.Done():
			return
		case frame, ok := <-m.source.Output():
			if !ok {
				return
			}
			m.handleFrame(frame)
		}
	}
}

// handleFrame converts one captured frame and routes it to the
// segmenter, or to the batch buffer in fallback mode.
func (m *Manager) handleFrame(frame audio.Frame) {
	converted, err := m.converter.Convert(frame, m.target)
	if err != nil {
		// Teardown waits for the run loop to exit, so it must not run
		// on this goroutine.
		go m.failSession(ErrFormatUnsupported, err)
		return
	}

	m.mu.Lock()
	batchMode := m.batchMode
	m.mu.Unlock()

	if batchMode {
		m.mu.Lock()
		if m.cfg.MaxBatchDuration > 0 &&
			m.batch.DurationSeconds(float64(m.target.SampleRate)) >= m.cfg.MaxBatchDuration.Seconds() {
			if !m.batchCapWarned {
				m.batchCapWarned = true
				m.logger.Warn("Batch buffer full, dropping further audio",
					"cap", m.cfg.MaxBatchDuration)
			}
			m.mu.Unlock()
			return
		}
		m.batch.Append(converted.Samples)
		m.mu.Unlock()
		return
	}

	chunk, err := m.segmenter.Push(converted)
	if err != nil {
		m.logger.Warn("Frame classification failed", "error", err)
		return
	}
	if chunk != nil {
		m.submitChunk(chunk)
	}
}

// submitChunk hands a chunk to the queue worker
func (m *Manager) submitChunk(chunk *vad.Chunk) {
	m.mu.Lock()
	m.session.Chunks++
	queue := m.queue
	m.mu.Unlock()

	queue.Enqueue(chunk)
}

// handleChunkResult is the queue worker's result callback. Failed
// chunks keep their slot as an empty segment so ordering and slot
// count are preserved.
func (m *Manager) handleChunkResult(seq uint64, text string, err error) {
	if err != nil {
		m.mu.Lock()
		if m.session != nil {
			m.session.FailedChunks++
		}
		m.mu.Unlock()

		m.acc.Append(seq, "")
		m.observer.OnError(NewSessionError(ErrChunkTranscription, err))
	} else {
		m.acc.Append(seq, text)
	}

	interim := m.acc.Transcript()
	m.observer.OnInterimText(interim)
	if err := m.sink.DeliverInterim(interim); err != nil {
		m.logger.Warn("Interim delivery failed", "error", err)
	}
}

// Stop ends recording, drains pending transcriptions, finalizes the
// transcript and delivers it. Calling Stop on a completed session
// returns the finished session without delivering again.
func (m *Manager) Stop(ctx context.Context) (*Session, error) {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	m.mu.Lock()
	session := m.session
	m.mu.Unlock()

	switch m.state.Current() {
	case StateRecording:
		// proceed
	case StateCompleted:
		return session, nil
	default:
		return session, fmt.Errorf("cannot stop from state %s", m.state.Current())
	}

	if !m.state.Transition(StateDraining) {
		return session, fmt.Errorf("cannot stop from state %s", m.state.Current())
	}

	m.stopCapture()

	// Close the open utterance, or submit the whole recording in batch mode
	m.mu.Lock()
	batchMode := m.batchMode
	segmenter := m.segmenter
	queue := m.queue
	cfg := m.cfg
	m.mu.Unlock()

	if batchMode {
		m.mu.Lock()
		samples := m.batch.Get()
		m.mu.Unlock()
		if len(samples) > 0 {
			m.submitChunk(&vad.Chunk{
				Seq:     0,
				Samples: samples,
				Format:  m.target,
				Start:   session.StartedAt,
				End:     time.Now(),
			})
		}
	} else if chunk := segmenter.Flush(m.target); chunk != nil {
		m.submitChunk(chunk)
	}
	queue.Close()

	drainTimeout := cfg.DrainTimeout
	if drainTimeout <= 0 {
		drainTimeout = 30 * time.Second
	}
	drainCtx, cancel := context.WithTimeout(ctx, drainTimeout)
	defer cancel()

	if err := queue.WaitIdle(drainCtx); err != nil {
		queue.CloseDiscard()
		m.cleanupSession()
		return session, m.fail(ErrQueueDrainTimeout,
			fmt.Errorf("queue not drained after %v: %w", drainTimeout, err))
	}

	if !m.state.Transition(StateFinalizing) {
		return session, fmt.Errorf("unexpected state %s during stop", m.state.Current())
	}

	session.RawTranscript = m.acc.Transcript()

	text, polishErr := m.finalizer.Finalize(ctx, session, session.RawTranscript)
	if polishErr != nil {
		m.observer.OnError(polishErr)
	}

	session.Transcript = text
	session.CompletedAt = time.Now()

	m.mu.Lock()
	deliver := !m.finalized
	m.finalized = true
	m.mu.Unlock()

	if deliver {
		if err := m.sink.DeliverFinal(text); err != nil {
			m.logger.Error("Final delivery failed", "session", session.ID, "error", err)
		}
	}

	m.cleanupSession()
	m.state.Transition(StateCompleted)

	m.logger.Info("Session completed",
		"session", session.ID,
		"duration", session.Duration(),
		"chunks", session.Chunks,
		"failed_chunks", session.FailedChunks,
		"polished", session.Polished,
	)

	return session, nil
}

// Abort cancels the session immediately. Pending and in-flight work is
// discarded and nothing is delivered.
func (m *Manager) Abort() error {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	if !m.state.IsActive() {
		return fmt.Errorf("no active session")
	}

	m.mu.Lock()
	session := m.session
	queue := m.queue
	m.mu.Unlock()

	m.logger.Info("Aborting session", "session", session.ID)

	m.stopCapture()
	if queue != nil {
		queue.CloseDiscard()
	}
	m.cleanupSession()

	m.fail(ErrAborted, nil)
	return nil
}

// failSession tears down an active session after a fatal mid-recording
// error: capture stops, pending work is discarded, resources are
// released, and only then does the state move to Error, so a new
// session can always start afterwards.
func (m *Manager) failSession(kind ErrorKind, cause error) {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	if !m.state.IsActive() {
		return
	}

	m.mu.Lock()
	queue := m.queue
	m.mu.Unlock()

	m.stopCapture()
	if queue != nil {
		queue.CloseDiscard()
	}
	m.cleanupSession()

	m.fail(kind, cause)
}

// stopCapture stops the source and waits for the run loop to exit
func (m *Manager) stopCapture() {
	m.mu.Lock()
	cancel := m.cancelRun
	done := m.runDone
	m.cancelRun = nil
	m.mu.Unlock()

	if err := m.source.Stop(); err != nil {
		m.logger.Warn("Audio source stop failed", "error", err)
	}
	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

// cleanupSession releases per-session resources
func (m *Manager) cleanupSession() {
	m.mu.Lock()
	segmenter := m.segmenter
	tr := m.sessionTr
	own := m.ownTr
	m.segmenter = nil
	m.sessionTr = nil
	m.mu.Unlock()

	if segmenter != nil {
		segmenter.Close()
	}
	if own && tr != nil {
		tr.Close()
	}
}

// fail moves the session to the error state and reports the failure.
// It returns the session error for convenience.
func (m *Manager) fail(kind ErrorKind, cause error) *SessionError {
	serr := NewSessionError(kind, cause)
	m.logger.Error("Session failed", "kind", kind, "error", cause)
	m.state.Transition(StateError)
	m.observer.OnError(serr)
	return serr
}
