// PixelRelay - Conversion Event Tracking Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pixelrelay

package journal

import (
	"bytes"
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/tomtom215/pixelrelay/internal/logging"
	"github.com/tomtom215/pixelrelay/internal/models"
)

// createTestBadgerDB opens a throwaway on-disk BadgerDB.
func createTestBadgerDB(t *testing.T) (*badger.DB, func()) {
	t.Helper()

	dir, err := os.MkdirTemp("", "badger-journal-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}

	opts := badger.DefaultOptions(dir)
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		os.RemoveAll(dir)
		t.Fatalf("Failed to open BadgerDB: %v", err)
	}

	return db, func() {
		db.Close()
		os.RemoveAll(dir)
	}
}

func TestBadgerJournal_RecordAndGet(t *testing.T) {
	db, cleanup := createTestBadgerDB(t)
	defer cleanup()

	j := New(db, time.Hour)
	ctx := context.Background()

	want := models.RelayResult{
		Success:        false,
		EventID:        "evt-1",
		EventName:      "Purchase",
		StatusCode:     500,
		Error:          "conversions API returned 500: boom",
		ErrorCode:      models.ErrorCodeServerError,
		Duration:       120 * time.Millisecond,
		CompletedAt:    time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
		EventsReceived: 0,
	}
	if err := j.Record(ctx, want); err != nil {
		t.Fatalf("Record: %v", err)
	}

	got, err := j.Get(ctx, "evt-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.ErrorCode != want.ErrorCode || got.StatusCode != 500 || got.Error != want.Error {
		t.Errorf("got %+v, want %+v", got, want)
	}
	if got.Duration != want.Duration || !got.CompletedAt.Equal(want.CompletedAt) {
		t.Errorf("timing fields not preserved: %+v", got)
	}
}

func TestBadgerJournal_Overwrite(t *testing.T) {
	db, cleanup := createTestBadgerDB(t)
	defer cleanup()

	j := New(db, 0)
	ctx := context.Background()

	_ = j.Record(ctx, models.RelayResult{EventID: "evt-2", ErrorCode: models.ErrorCodeServerError})
	_ = j.Record(ctx, models.RelayResult{EventID: "evt-2", Success: true})

	got, err := j.Get(ctx, "evt-2")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !got.Success {
		t.Error("latest outcome should win")
	}
	if n, _ := j.Count(ctx); n != 1 {
		t.Errorf("Count = %d, want 1", n)
	}
}

func TestBadgerJournal_NotFound(t *testing.T) {
	j, err := Open(Config{InMemory: true})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer j.Close()

	if _, err := j.Get(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestBadgerJournal_RejectsMissingEventID(t *testing.T) {
	j, err := Open(Config{InMemory: true})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer j.Close()

	if err := j.Record(context.Background(), models.RelayResult{}); err == nil {
		t.Error("result without event id should be rejected")
	}
}

func TestBadgerJournal_RunGCInMemory(t *testing.T) {
	j, err := Open(Config{InMemory: true})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer j.Close()

	rewritten, err := j.RunGC(0.5)
	if err != nil {
		t.Errorf("RunGC: %v", err)
	}
	if rewritten {
		t.Error("in-memory journal has nothing to rewrite")
	}
}

func TestOpen_RequiresPath(t *testing.T) {
	if _, err := Open(Config{}); err == nil {
		t.Error("Open without path or in_memory should fail")
	}
}

func TestBadgerLogger_TagsComponent(t *testing.T) {
	var buf bytes.Buffer
	prev := logging.Logger()
	logging.SetLogger(logging.NewTestLogger(&buf))
	t.Cleanup(func() { logging.SetLogger(prev) })

	newBadgerLogger().Warningf("value log %d truncated\n", 3)

	out := buf.String()
	if !strings.Contains(out, `"component":"journal"`) {
		t.Errorf("missing component field: %s", out)
	}
	if !strings.Contains(out, `"message":"value log 3 truncated"`) {
		t.Errorf("message not trimmed: %s", out)
	}
}
