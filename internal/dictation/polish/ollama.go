// ============================================================================
// dikta - Desktop Voice Dictation
// ============================================================================
//
// Package:     polish
// Description: Ollama-backed text transformer
// Author:      The dikta Authors
// Created:     2026-08-15
// License:     MIT
// ============================================================================

package polish

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dikta/dikta/pkg/core/logging"
)

// OllamaTransformer implements Transformer using a local Ollama server
type OllamaTransformer struct {
	baseURL    string
	model      string
	prompt     string
	httpClient *http.Client
	logger     *logging.Logger
}

// NewOllamaTransformer creates an Ollama-backed transformer
func NewOllamaTransformer(cfg Config) *OllamaTransformer {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:11434"
	}
	if cfg.Model == "" {
		cfg.Model = "mistral:7b"
	}
	if cfg.Prompt == "" {
		cfg.Prompt = DefaultPrompt
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 120 * time.Second
	}

	return &OllamaTransformer{
		baseURL: cfg.BaseURL,
		model:   cfg.Model,
		prompt:  cfg.Prompt,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		logger: logging.New("polish"),
	}
}

type ollamaChatRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
}

type ollamaMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaChatResponse struct {
	Model   string        `json:"model"`
	Message ollamaMessage `json:"message"`
	Done    bool          `json:"done"`
}

// Transform sends the transcript through the model and returns the
// cleaned text.
func (t *OllamaTransformer) Transform(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return text, nil
	}

	req := ollamaChatRequest{
		Model: t.model,
		Messages: []ollamaMessage{
			{Role: "system", Content: t.prompt},
			{Role: "user", Content: text},
		},
		Stream: false,
	}

	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	url := t.baseURL + "/api/chat"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := t.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("ollama returned %d: %s", resp.StatusCode, string(respBody))
	}

	var chatResp ollamaChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	polished := strings.TrimSpace(chatResp.Message.Content)
	if polished == "" {
		return "", fmt.Errorf("model returned empty text")
	}

	t.logger.Debug("Transformation complete",
		"duration", time.Since(start),
		"in_length", len(text),
		"out_length", len(polished),
	)

	return polished, nil
}

// Healthy checks the Ollama tags endpoint
func (t *OllamaTransformer) Healthy(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.baseURL+"/api/tags", nil)
	if err != nil {
		return false
	}

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode == http.StatusOK
}

// Close releases resources
func (t *OllamaTransformer) Close() error {
	t.httpClient.CloseIdleConnections()
	return nil
}
