// ============================================================================
// dikta - Desktop Voice Dictation
// ============================================================================
//
// Package:     provider
// Description: OpenAI-compatible HTTP transcription client
// Author:      The dikta Authors
// Created:     2026-08-15
// License:     MIT
// ============================================================================

package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/dikta/dikta/internal/dictation/audio"
	"github.com/dikta/dikta/pkg/core/logging"
)

// CloudClient implements Transcriber against an OpenAI-compatible
// /v1/audio/transcriptions endpoint (vLLM, LocalAI, or hosted APIs).
type CloudClient struct {
	baseURL  string
	apiKey   string
	model    string
	language string
	client   *http.Client
	logger   *logging.Logger
}

// NewCloudClient creates a new HTTP transcription client
func NewCloudClient(cfg Config) *CloudClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:8100"
	}
	if cfg.Model == "" {
		cfg.Model = "whisper-1"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}

	return &CloudClient{
		baseURL:  cfg.BaseURL,
		apiKey:   cfg.APIKey,
		model:    cfg.Model,
		language: cfg.Language,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		logger: logging.New("provider-cloud"),
	}
}

// Transcribe sends the request audio as a WAV multipart upload
func (c *CloudClient) Transcribe(ctx context.Context, req Request) (Result, error) {
	if len(req.Samples) == 0 {
		return Result{}, fmt.Errorf("no audio samples provided")
	}

	wavData := audio.EncodeWAV(req.Samples, req.SampleRate)

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("file", "audio.wav")
	if err != nil {
		return Result{}, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(wavData); err != nil {
		return Result{}, fmt.Errorf("failed to write audio data: %w", err)
	}

	model := req.Model
	if model == "" {
		model = c.model
	}
	if err := writer.WriteField("model", model); err != nil {
		return Result{}, fmt.Errorf("failed to write model field: %w", err)
	}

	language := req.Language
	if language == "" {
		language = c.language
	}
	if language != "" && language != "auto" {
		if err := writer.WriteField("language", language); err != nil {
			return Result{}, fmt.Errorf("failed to write language field: %w", err)
		}
	}

	if err := writer.WriteField("response_format", "verbose_json"); err != nil {
		return Result{}, fmt.Errorf("failed to write response_format field: %w", err)
	}
	if err := writer.WriteField("temperature", "0"); err != nil {
		return Result{}, fmt.Errorf("failed to write temperature field: %w", err)
	}

	if err := writer.Close(); err != nil {
		return Result{}, fmt.Errorf("failed to close multipart writer: %w", err)
	}

	url := c.baseURL + "/v1/audio/transcriptions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &buf)
	if err != nil {
		return Result{}, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", writer.FormDataContentType())
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	c.logger.Debug("Sending transcription request", "url", url, "size", len(wavData))
	start := time.Now()

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, fmt.Errorf("failed to read response: %w", err)
	}

	if err := statusToError(resp.StatusCode, body); err != nil {
		return Result{}, err
	}

	var apiResp transcriptionResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return Result{}, fmt.Errorf("failed to parse response: %w", err)
	}

	c.logger.Debug("Transcription complete",
		"duration", time.Since(start),
		"text_length", len(apiResp.Text),
		"language", apiResp.Language,
	)

	return Result{
		Text:       apiResp.Text,
		Language:   apiResp.Language,
		Duration:   apiResp.Duration,
		Confidence: 1.0,
	}, nil
}

// statusToError maps HTTP status codes to the provider error taxonomy
func statusToError(status int, body []byte) error {
	switch {
	case status == http.StatusOK:
		return nil
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return fmt.Errorf("%w (status %d): %s", ErrAuth, status, string(body))
	case status == http.StatusServiceUnavailable || status == http.StatusTooManyRequests:
		return fmt.Errorf("%w (status %d)", ErrNotReady, status)
	default:
		return fmt.Errorf("API error (status %d): %s", status, string(body))
	}
}

// Healthy checks the server's health endpoint
func (c *CloudClient) Healthy(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return false
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode == http.StatusOK
}

// Close releases resources
func (c *CloudClient) Close() error {
	c.client.CloseIdleConnections()
	return nil
}

// transcriptionResponse is the verbose_json response structure
type transcriptionResponse struct {
	Text     string  `json:"text"`
	Language string  `json:"language"`
	Duration float32 `json:"duration"`
}
