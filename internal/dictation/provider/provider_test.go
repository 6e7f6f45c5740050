// ============================================================================
// dikta - Desktop Voice Dictation
// ============================================================================
//
// Package:     provider
// Description: Tests for transcription providers
// Author:      The dikta Authors
// Created:     2026-08-15
// License:     MIT
// ============================================================================

package provider

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func testRequest() Request {
	return Request{
		Samples:    make([]float32, 1600),
		SampleRate: 16000,
		Language:   "en",
	}
}

func cloudClientFor(server *httptest.Server) *CloudClient {
	return NewCloudClient(Config{
		Kind:    KindCloud,
		BaseURL: server.URL,
		Model:   "whisper-1",
		Timeout: 5 * time.Second,
	})
}

func TestCloudClient_Transcribe(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/audio/transcriptions" {
			t.Errorf("path = %s, want /v1/audio/transcriptions", r.URL.Path)
		}
		if err := r.ParseMultipartForm(10 << 20); err != nil {
			t.Fatalf("ParseMultipartForm() error = %v", err)
		}
		if got := r.FormValue("model"); got != "whisper-1" {
			t.Errorf("model = %q, want whisper-1", got)
		}
		if got := r.FormValue("language"); got != "en" {
			t.Errorf("language = %q, want en", got)
		}
		file, _, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("FormFile() error = %v", err)
		}
		file.Close()

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"text": "hello world", "language": "en", "duration": 0.1}`))
	}))
	defer server.Close()

	client := cloudClientFor(server)
	defer client.Close()

	result, err := client.Transcribe(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("Transcribe() error = %v", err)
	}
	if result.Text != "hello world" {
		t.Errorf("Text = %q, want %q", result.Text, "hello world")
	}
	if result.Language != "en" {
		t.Errorf("Language = %q, want en", result.Language)
	}
}

func TestCloudClient_AuthFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error": "invalid api key"}`))
	}))
	defer server.Close()

	client := cloudClientFor(server)
	defer client.Close()

	_, err := client.Transcribe(context.Background(), testRequest())
	if !errors.Is(err, ErrAuth) {
		t.Errorf("Transcribe() error = %v, want ErrAuth", err)
	}
}

func TestCloudClient_NotReady(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := cloudClientFor(server)
	defer client.Close()

	_, err := client.Transcribe(context.Background(), testRequest())
	if !errors.Is(err, ErrNotReady) {
		t.Errorf("Transcribe() error = %v, want ErrNotReady", err)
	}
}

func TestCloudClient_NetworkError(t *testing.T) {
	client := NewCloudClient(Config{
		BaseURL: "http://127.0.0.1:1",
		Timeout: 500 * time.Millisecond,
	})
	defer client.Close()

	_, err := client.Transcribe(context.Background(), testRequest())
	if !errors.Is(err, ErrNetwork) {
		t.Errorf("Transcribe() error = %v, want ErrNetwork", err)
	}
}

func TestCloudClient_EmptyRequest(t *testing.T) {
	client := NewCloudClient(DefaultConfig())
	defer client.Close()

	if _, err := client.Transcribe(context.Background(), Request{}); err == nil {
		t.Error("Transcribe() with no samples = nil error, want error")
	}
}

func TestCloudClient_Healthy(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := cloudClientFor(server)
	defer client.Close()

	if !client.Healthy(context.Background()) {
		t.Error("Healthy() = false, want true")
	}

	server.Close()
	if client.Healthy(context.Background()) {
		t.Error("Healthy() = true after server shutdown, want false")
	}
}

func TestRetryNotReady_SucceedsAfterRetry(t *testing.T) {
	calls := 0
	result, err := RetryNotReady(context.Background(), 3, time.Millisecond, func() (Result, error) {
		calls++
		if calls < 3 {
			return Result{}, ErrNotReady
		}
		return Result{Text: "ok"}, nil
	})

	if err != nil {
		t.Fatalf("RetryNotReady() error = %v", err)
	}
	if result.Text != "ok" {
		t.Errorf("Text = %q, want ok", result.Text)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestRetryNotReady_StopsOnOtherError(t *testing.T) {
	calls := 0
	_, err := RetryNotReady(context.Background(), 5, time.Millisecond, func() (Result, error) {
		calls++
		return Result{}, ErrAuth
	})

	if !errors.Is(err, ErrAuth) {
		t.Errorf("RetryNotReady() error = %v, want ErrAuth", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestRetryNotReady_Exhausted(t *testing.T) {
	calls := 0
	_, err := RetryNotReady(context.Background(), 3, time.Millisecond, func() (Result, error) {
		calls++
		return Result{}, ErrNotReady
	})

	if !errors.Is(err, ErrNotReady) {
		t.Errorf("RetryNotReady() error = %v, want ErrNotReady", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestNew_UnknownKind(t *testing.T) {
	if _, err := New(Config{Kind: "telepathy"}); err == nil {
		t.Error("New() with unknown kind = nil error, want error")
	}
}

func TestCleanWhisperOutput(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "hello world", "hello world"},
		{"timestamps", "[00:00:00.000 --> 00:00:02.000]  hello\n[00:00:02.000 --> 00:00:04.000]  world", "hello world"},
		{"blank lines", "hello\n\n\nworld\n", "hello world"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cleanWhisperOutput(tt.in); got != tt.want {
				t.Errorf("cleanWhisperOutput() = %q, want %q", got, tt.want)
			}
		})
	}
}
