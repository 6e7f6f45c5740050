// ============================================================================
// dikta - Desktop Voice Dictation
// ============================================================================
//
// Package:     history
// Description: Tests for the session history store
// Author:      The dikta Authors
// Created:     2026-08-15
// License:     MIT
// ============================================================================

package history

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(Config{Path: filepath.Join(t.TempDir(), "history.db")})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func testRecord(id string, startedAt time.Time) *Record {
	return &Record{
		ID:         id,
		StartedAt:  startedAt,
		Duration:   12 * time.Second,
		Transcript: "hello world",
		RawText:    "hello world",
		Chunks:     2,
		Provider:   "cloud",
		Model:      "whisper-1",
		Language:   "en",
	}
}

func TestStore_SaveAndGet(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	rec := testRecord("abc-123", time.Now().UTC().Truncate(time.Second))
	rec.Polished = true
	if err := store.Save(ctx, rec); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := store.Get(ctx, "abc-123")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got == nil {
		t.Fatal("Get() = nil, want record")
	}
	if got.Transcript != "hello world" {
		t.Errorf("Transcript = %q, want %q", got.Transcript, "hello world")
	}
	if got.Duration != 12*time.Second {
		t.Errorf("Duration = %v, want 12s", got.Duration)
	}
	if !got.Polished {
		t.Error("Polished = false, want true")
	}
	if got.Chunks != 2 {
		t.Errorf("Chunks = %d, want 2", got.Chunks)
	}
}

func TestStore_GetMissing(t *testing.T) {
	store := openTestStore(t)

	got, err := store.Get(context.Background(), "nope")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got != nil {
		t.Errorf("Get() = %+v, want nil", got)
	}
}

func TestStore_RecentNewestFirst(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	base := time.Now().UTC().Truncate(time.Second)
	for i := 0; i < 5; i++ {
		rec := testRecord(fmt.Sprintf("id-%d", i), base.Add(time.Duration(i)*time.Minute))
		if err := store.Save(ctx, rec); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
	}

	records, err := store.Recent(ctx, 3)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("Recent() returned %d records, want 3", len(records))
	}
	for i, want := range []string{"id-4", "id-3", "id-2"} {
		if records[i].ID != want {
			t.Errorf("records[%d].ID = %s, want %s", i, records[i].ID, want)
		}
	}
}

func TestStore_Delete(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if err := store.Save(ctx, testRecord("gone", time.Now())); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := store.Delete(ctx, "gone"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	got, err := store.Get(ctx, "gone")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got != nil {
		t.Error("record still present after Delete()")
	}

	n, err := store.Count(ctx)
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if n != 0 {
		t.Errorf("Count() = %d, want 0", n)
	}
}

func TestStore_SaveRequiresID(t *testing.T) {
	store := openTestStore(t)

	rec := testRecord("", time.Now())
	if err := store.Save(context.Background(), rec); err == nil {
		t.Error("Save() without ID = nil error, want error")
	}
}
