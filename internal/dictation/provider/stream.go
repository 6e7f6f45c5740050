// ============================================================================
// dikta - Desktop Voice Dictation
// ============================================================================
//
// Package:     provider
// Description: WebSocket streaming transcription client
// Author:      The dikta Authors
// Created:     2026-08-15
// License:     MIT
// ============================================================================

package provider

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/dikta/dikta/internal/dictation/audio"
	"github.com/dikta/dikta/pkg/core/logging"
)

// StreamClient implements Transcriber against a WebSocket transcription
// server. Each request is one exchange on a persistent connection: a
// JSON start message, the audio as a binary WAV frame, then JSON result
// frames until a final one arrives.
type StreamClient struct {
	mu       sync.Mutex
	url      string
	model    string
	language string
	timeout  time.Duration
	conn     *websocket.Conn
	logger   *logging.Logger
}

// streamMessage is a JSON frame in either direction
type streamMessage struct {
	Type       string  `json:"type"`
	Model      string  `json:"model,omitempty"`
	Language   string  `json:"language,omitempty"`
	SampleRate int     `json:"sample_rate,omitempty"`
	Text       string  `json:"text,omitempty"`
	Final      bool    `json:"final,omitempty"`
	Confidence float32 `json:"confidence,omitempty"`
	Error      string  `json:"error,omitempty"`
}

// NewStreamClient creates a new WebSocket transcription client
func NewStreamClient(cfg Config) *StreamClient {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	return &StreamClient{
		url:      cfg.BaseURL,
		model:    cfg.Model,
		language: cfg.Language,
		timeout:  timeout,
		logger:   logging.New("provider-stream"),
	}
}

// connect establishes the WebSocket connection. Callers hold the lock.
func (c *StreamClient) connect(ctx context.Context) error {
	if c.conn != nil {
		return nil
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}

	conn, resp, err := dialer.DialContext(ctx, c.url, nil)
	if err != nil {
		if resp != nil && (resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden) {
			return fmt.Errorf("%w: %v", ErrAuth, err)
		}
		return fmt.Errorf("%w: %v", ErrNetwork, err)
	}

	c.conn = conn
	c.logger.Debug("Connected to streaming server", "url", c.url)
	return nil
}

// Transcribe sends one utterance and waits for the final result frame
func (c *StreamClient) Transcribe(ctx context.Context, req Request) (Result, error) {
	if len(req.Samples) == 0 {
		return Result{}, fmt.Errorf("no audio samples provided")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.connect(ctx); err != nil {
		return Result{}, err
	}

	deadline := time.Now().Add(c.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	c.conn.SetWriteDeadline(deadline)
	c.conn.SetReadDeadline(deadline)

	model := req.Model
	if model == "" {
		model = c.model
	}
	language := req.Language
	if language == "" {
		language = c.language
	}

	start := streamMessage{
		Type:       "start",
		Model:      model,
		Language:   language,
		SampleRate: req.SampleRate,
	}
	if err := c.conn.WriteJSON(start); err != nil {
		c.reset()
		return Result{}, fmt.Errorf("%w: failed to send start: %v", ErrNetwork, err)
	}

	wavData := audio.EncodeWAV(req.Samples, req.SampleRate)
	if err := c.conn.WriteMessage(websocket.BinaryMessage, wavData); err != nil {
		c.reset()
		return Result{}, fmt.Errorf("%w: failed to send audio: %v", ErrNetwork, err)
	}

	// Read until the final frame. Interim frames are ignored here; chunk
	// level interim text is not part of the per-chunk contract.
	for {
		select {
		case <-ctx.Done():
			c.reset()
			return Result{}, ctx.Err()
		default:
		}

		var msg streamMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			c.reset()
			return Result{}, fmt.Errorf("%w: failed to read result: %v", ErrNetwork, err)
		}

		switch msg.Type {
		case "result":
			if !msg.Final {
				continue
			}
			confidence := msg.Confidence
			if confidence == 0 {
				confidence = 1.0
			}
			return Result{
				Text:       msg.Text,
				Language:   language,
				Confidence: confidence,
			}, nil

		case "error":
			return Result{}, fmt.Errorf("server error: %s", msg.Error)

		case "not_ready":
			return Result{}, ErrNotReady

		case "pong":
			continue
		}
	}
}

// reset drops the connection so the next request reconnects.
// Callers hold the lock.
func (c *StreamClient) reset() {
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
}

// Healthy reports whether a connection can be established
func (c *StreamClient) Healthy(ctx context.Context) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connect(ctx) == nil
}

// Close closes the WebSocket connection
func (c *StreamClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil {
		err := c.conn.Close()
		c.conn = nil
		return err
	}
	return nil
}
