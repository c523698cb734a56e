// PixelRelay - Conversion Event Tracking Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pixelrelay

// Package journal keeps a short-lived record of server relay outcomes in
// BadgerDB, keyed by event id.
//
// The journal is diagnostic only. Nothing reads it to retry a failed relay;
// it exists so an operator can answer "did event X reach the platform, and if
// not, why" after the fact.
package journal

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/pixelrelay/internal/logging"
	"github.com/tomtom215/pixelrelay/internal/metrics"
	"github.com/tomtom215/pixelrelay/internal/models"
)

const (
	relayKeyPrefix = "relay:"

	// DefaultTTL is how long an outcome is kept.
	DefaultTTL = 72 * time.Hour

	// DefaultDiscardRatio is the value log GC discard ratio.
	DefaultDiscardRatio = 0.5
)

// ErrNotFound is returned when no outcome is journaled for an event id.
var ErrNotFound = errors.New("relay outcome not found")

// Config configures Open.
type Config struct {
	// Path is the BadgerDB directory. Ignored when InMemory is set.
	Path string

	// InMemory keeps the journal in memory only.
	InMemory bool

	// TTL of each entry. Zero uses DefaultTTL.
	TTL time.Duration
}

// BadgerJournal stores relay outcomes in BadgerDB.
type BadgerJournal struct {
	db     *badger.DB
	ttl    time.Duration
	ownsDB bool
}

// Open opens (or creates) the journal database described by cfg.
func Open(cfg Config) (*BadgerJournal, error) {
	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if strings.TrimSpace(cfg.Path) == "" {
			return nil, fmt.Errorf("journal path is required unless in_memory is set")
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.WithLogger(newBadgerLogger()).WithNumVersionsToKeep(1)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	j := New(db, cfg.TTL)
	j.ownsDB = true
	return j, nil
}

// New wraps an already open database. The caller keeps ownership of db.
func New(db *badger.DB, ttl time.Duration) *BadgerJournal {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &BadgerJournal{db: db, ttl: ttl}
}

// Record stores result under its event id, replacing any earlier outcome.
func (j *BadgerJournal) Record(_ context.Context, result models.RelayResult) error {
	if result.EventID == "" {
		return fmt.Errorf("journal: relay result has no event id")
	}
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal relay result: %w", err)
	}

	err = j.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry([]byte(relayKeyPrefix+result.EventID), data).WithTTL(j.ttl)
		if err := txn.SetEntry(e); err != nil {
			return fmt.Errorf("set relay result: %w", err)
		}
		return nil
	})
	metrics.RecordJournalWrite(err)
	return err
}

// Get returns the outcome journaled for eventID.
func (j *BadgerJournal) Get(_ context.Context, eventID string) (*models.RelayResult, error) {
	var result models.RelayResult

	err := j.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(relayKeyPrefix + eventID))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("get relay result: %w", err)
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &result)
		})
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// Count returns the number of live entries.
func (j *BadgerJournal) Count(_ context.Context) (int, error) {
	n := 0
	err := j.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(relayKeyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			n++
		}
		return nil
	})
	return n, err
}

// RunGC runs one value log garbage collection pass and reports whether a
// file was rewritten.
func (j *BadgerJournal) RunGC(discardRatio float64) (bool, error) {
	if discardRatio <= 0 || discardRatio >= 1 {
		discardRatio = DefaultDiscardRatio
	}
	err := j.db.RunValueLogGC(discardRatio)
	switch {
	case err == nil:
		metrics.RecordJournalGC("rewritten")
		return true, nil
	case errors.Is(err, badger.ErrNoRewrite), errors.Is(err, badger.ErrGCInMemoryMode):
		metrics.RecordJournalGC("noop")
		return false, nil
	default:
		metrics.RecordJournalGC("error")
		return false, fmt.Errorf("journal gc: %w", err)
	}
}

// Close closes the database if it was opened by Open.
func (j *BadgerJournal) Close() error {
	if !j.ownsDB {
		return nil
	}
	return j.db.Close()
}

// badgerLogger routes BadgerDB's own logging through zerolog. Info output
// is demoted to debug because badger is chatty at startup.
type badgerLogger struct {
	log zerolog.Logger
}

func newBadgerLogger() badgerLogger {
	return badgerLogger{log: logging.WithComponent("journal")}
}

func (b badgerLogger) Errorf(format string, args ...interface{}) {
	b.log.Error().Msgf(strings.TrimSpace(format), args...)
}

func (b badgerLogger) Warningf(format string, args ...interface{}) {
	b.log.Warn().Msgf(strings.TrimSpace(format), args...)
}

func (b badgerLogger) Infof(format string, args ...interface{}) {
	b.log.Debug().Msgf(strings.TrimSpace(format), args...)
}

func (b badgerLogger) Debugf(format string, args ...interface{}) {
	b.log.Debug().Msgf(strings.TrimSpace(format), args...)
}
