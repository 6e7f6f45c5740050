// ============================================================================
// dikta - Desktop Voice Dictation
// ============================================================================
//
// Package:     app
// Description: Main application controller
// Author:      The dikta Authors
// Created:     2026-08-15
// License:     MIT
// ============================================================================

package app

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"strings"
	"sync"
	"time"

	"golang.design/x/hotkey"

	"github.com/dikta/dikta/internal/dictation"
	"github.com/dikta/dikta/internal/dictation/audio"
	"github.com/dikta/dikta/internal/dictation/history"
	"github.com/dikta/dikta/internal/dictation/polish"
	"github.com/dikta/dikta/internal/dictation/provider"
	"github.com/dikta/dikta/internal/dictation/sink"
	"github.com/dikta/dikta/internal/dictation/vocab"
	"github.com/dikta/dikta/pkg/core/logging"
)

// App is the dictation application: a session manager wired to the
// microphone, output sinks and history, toggled by a global hotkey.
type App struct {
	mu     sync.RWMutex
	config Config
	logger *logging.Logger

	manager     *dictation.Manager
	capture     *audio.Capture
	transcriber provider.Transcriber
	transformer polish.Transformer
	rules       *vocab.Rules
	store       *history.Store
	hotkey      *hotkey.Hotkey

	polishRequested bool
	running         bool
}

// New creates the application from its configuration
func New(cfg Config) (*App, error) {
	logger := logging.NewWithConfig(logging.Config{
		Name:  "dikta",
		Level: logging.ParseLevel(cfg.General.LogLevel),
	})

	a := &App{
		config: cfg,
		logger: logger,
	}

	if err := a.initComponents(); err != nil {
		return nil, fmt.Errorf("failed to initialize components: %w", err)
	}

	return a, nil
}

// initComponents wires all components
func (a *App) initComponents() error {
	var err error

	// Audio capture
	a.capture, err = audio.NewCapture(audio.CaptureConfig{
		SampleRate: a.config.Audio.SampleRate,
		BufferSize: a.config.Audio.BufferSize,
		Channels:   1,
		DeviceName: a.config.Audio.InputDevice,
	})
	if err != nil {
		return fmt.Errorf("failed to create audio capture: %w", err)
	}

	// Transcription provider, shared across sessions
	a.transcriber, err = provider.New(a.config.SessionConfig().Provider)
	if err != nil {
		return fmt.Errorf("failed to create transcription provider: %w", err)
	}

	// Polish
	if a.config.Polish.Enabled {
		a.transformer = polish.NewOllamaTransformer(polish.Config{
			BaseURL: a.config.Polish.BaseURL,
			Model:   a.config.Polish.Model,
			Prompt:  a.config.Polish.Prompt,
		})
	}

	// Vocabulary
	if a.config.Vocab.Path != "" {
		a.rules, err = vocab.Load(a.config.Vocab.Path)
		if err != nil {
			a.logger.Warn("Vocabulary file not usable, continuing without",
				"path", a.config.Vocab.Path, "error", err)
			a.rules = nil
		}
	}

	// Output sinks
	var sinks []sink.Sink
	if a.config.Output.Stdout {
		sinks = append(sinks, sink.NewWriter(os.Stdout))
	}
	if a.config.Output.Clipboard {
		sinks = append(sinks, sink.NewClipboard())
	}
	if len(sinks) == 0 {
		sinks = append(sinks, sink.NewWriter(os.Stdout))
	}

	// History
	if a.config.History.Enabled {
		a.store, err = history.Open(a.config.HistoryStoreConfig())
		if err != nil {
			a.logger.Warn("History store unavailable, continuing without", "error", err)
			a.store = nil
		}
	}

	finalizer := dictation.NewFinalizer(a.transformer, a.rules,
		a.config.Polish.Enabled, a.logger)

	a.manager, err = dictation.NewManager(dictation.ManagerOptions{
		Source:      a.capture,
		Transcriber: a.transcriber,
		Finalizer:   finalizer,
		Sink:        sink.NewMulti(sinks...),
		Observer:    a,
		Logger:      a.logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create session manager: %w", err)
	}

	return nil
}

// Run starts the application and blocks until the context is cancelled
func (a *App) Run(ctx context.Context) error {
	a.mu.Lock()
	if a.running {
		a.mu.Unlock()
		return fmt.Errorf("already running")
	}
	a.running = true
	a.mu.Unlock()

	a.logger.Info("Starting dikta",
		"provider", a.config.Provider.Kind,
		"polish_enabled", a.config.Polish.Enabled,
	)

	a.checkBackends(ctx)

	if err := a.registerHotkey(); err != nil {
		a.logger.Warn("Failed to register hotkey", "error", err)
	}

	<-ctx.Done()

	if a.manager.State() == dictation.StateRecording {
		stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if _, err := a.manager.Stop(stopCtx); err != nil {
			a.logger.Warn("Session stop on shutdown failed", "error", err)
		}
	}

	return a.Close()
}

// checkBackends probes the configured backends and logs what is missing
func (a *App) checkBackends(ctx context.Context) {
	probeCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	if !a.transcriber.Healthy(probeCtx) {
		a.logger.Warn("Transcription provider not reachable",
			"kind", a.config.Provider.Kind, "url", a.config.Provider.BaseURL)
	}
	if a.transformer != nil && !a.transformer.Healthy(probeCtx) {
		a.logger.Warn("Polish backend not reachable", "url", a.config.Polish.BaseURL)
	}
}

// registerHotkey registers the global toggle hotkey.
// On macOS the hotkey library can crash with SIGTRAP through CGO, so
// registration is skipped there.
func (a *App) registerHotkey() error {
	if runtime.GOOS == "darwin" {
		a.logger.Info("Hotkey disabled on macOS")
		return nil
	}

	mods, key, err := parseShortcut(a.config.General.Shortcut)
	if err != nil {
		return err
	}

	a.hotkey = hotkey.New(mods, key)
	if err := a.hotkey.Register(); err != nil {
		return fmt.Errorf("failed to register hotkey: %w", err)
	}

	go func() {
		for range a.hotkey.Keydown() {
			a.logger.Debug("Hotkey pressed")
			a.Toggle()
		}
	}()

	a.logger.Info("Hotkey registered", "shortcut", a.config.General.Shortcut)
	return nil
}

// parseShortcut parses a shortcut like "ctrl+shift+d"
func parseShortcut(s string) ([]hotkey.Modifier, hotkey.Key, error) {
	if s == "" {
		s = "ctrl+shift+d"
	}

	var mods []hotkey.Modifier
	var key hotkey.Key
	haveKey := false

	for _, part := range strings.Split(strings.ToLower(s), "+") {
		switch part {
		case "ctrl":
			mods = append(mods, hotkey.ModCtrl)
		case "shift":
			mods = append(mods, hotkey.ModShift)
		default:
			k, ok := letterKeys[part]
			if !ok {
				return nil, 0, fmt.Errorf("unsupported key %q in shortcut %q", part, s)
			}
			key = k
			haveKey = true
		}
	}

	if !haveKey {
		return nil, 0, fmt.Errorf("shortcut %q has no key", s)
	}
	return mods, key, nil
}

var letterKeys = map[string]hotkey.Key{
	"a": hotkey.KeyA, "b": hotkey.KeyB, "c": hotkey.KeyC, "d": hotkey.KeyD,
	"e": hotkey.KeyE, "f": hotkey.KeyF, "g": hotkey.KeyG, "h": hotkey.KeyH,
	"i": hotkey.KeyI, "j": hotkey.KeyJ, "k": hotkey.KeyK, "l": hotkey.KeyL,
	"m": hotkey.KeyM, "n": hotkey.KeyN, "o": hotkey.KeyO, "p": hotkey.KeyP,
	"q": hotkey.KeyQ, "r": hotkey.KeyR, "s": hotkey.KeyS, "t": hotkey.KeyT,
	"u": hotkey.KeyU, "v": hotkey.KeyV, "w": hotkey.KeyW, "x": hotkey.KeyX,
	"y": hotkey.KeyY, "z": hotkey.KeyZ,
}

// Toggle starts a session when idle and stops the active one when
// recording. Other states ignore the toggle.
func (a *App) Toggle() {
	switch a.manager.State() {
	case dictation.StateRecording:
		go a.stopSession()
	case dictation.StateIdle, dictation.StateCompleted, dictation.StateError:
		go a.startSession()
	default:
		a.logger.Debug("Toggle ignored", "state", a.manager.State())
	}
}

// startSession begins a new dictation session
func (a *App) startSession() {
	cfg := a.config.SessionConfig()

	a.mu.RLock()
	cfg.PolishRequested = a.polishRequested
	a.mu.RUnlock()

	if _, err := a.manager.Start(context.Background(), cfg); err != nil {
		a.logger.Error("Failed to start session", "error", err)
	}
}

// stopSession ends the active session and records it in history
func (a *App) stopSession() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	session, err := a.manager.Stop(ctx)
	if err != nil {
		a.logger.Error("Failed to stop session", "error", err)
		return
	}

	a.recordSession(session)
}

// Abort cancels the active session without delivering anything
func (a *App) Abort() {
	if err := a.manager.Abort(); err != nil {
		a.logger.Debug("Abort ignored", "error", err)
	}
}

// recordSession writes a completed session to the history store
func (a *App) recordSession(session *dictation.Session) {
	if a.store == nil || session == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	rec := &history.Record{
		ID:           session.ID.String(),
		StartedAt:    session.StartedAt,
		Duration:     session.Duration(),
		Transcript:   session.Transcript,
		RawText:      session.RawTranscript,
		Polished:     session.Polished,
		BatchMode:    session.BatchMode,
		Chunks:       session.Chunks,
		FailedChunks: session.FailedChunks,
		Provider:     string(session.Provider),
		Model:        session.Model,
		Language:     session.Language,
	}

	if err := a.store.Save(ctx, rec); err != nil {
		a.logger.Warn("Failed to record session in history", "error", err)
	}
}

// SetPolishRequested flips the polish toggle for future sessions and
// persists it. The active session keeps its snapshot.
func (a *App) SetPolishRequested(requested bool) {
	a.mu.Lock()
	a.polishRequested = requested
	a.mu.Unlock()

	if err := a.saveSettings(); err != nil {
		a.logger.Warn("Failed to persist settings", "error", err)
	}
}

// PolishRequested returns the current polish toggle
func (a *App) PolishRequested() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.polishRequested
}

// Manager exposes the session manager, e.g. for CLI commands
func (a *App) Manager() *dictation.Manager {
	return a.manager
}

// History exposes the history store, or nil when disabled
func (a *App) History() *history.Store {
	return a.store
}

// OnStateChanged implements dictation.Observer
func (a *App) OnStateChanged(oldState, newState dictation.State) {
	a.logger.Debug("State changed", "from", oldState, "to", newState)
}

// OnInterimText implements dictation.Observer
func (a *App) OnInterimText(text string) {
	a.logger.Debug("Interim transcript", "length", len(text))
}

// OnError implements dictation.Observer
func (a *App) OnError(err *dictation.SessionError) {
	if err.Kind.Fatal() {
		a.logger.Error("Session error", "kind", err.Kind, "error", err.Cause)
	} else {
		a.logger.Warn("Session degraded", "kind", err.Kind, "error", err.Cause)
	}
}

// Close releases all resources
func (a *App) Close() error {
	if a.hotkey != nil {
		a.hotkey.Unregister()
	}
	if a.capture != nil {
		a.capture.Close()
	}
	if a.transcriber != nil {
		a.transcriber.Close()
	}
	if a.transformer != nil {
		a.transformer.Close()
	}
	if a.store != nil {
		a.store.Close()
	}
	return nil
}
