// PixelRelay - Conversion Event Tracking Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pixelrelay

package services

import (
	"context"
	"time"

	"github.com/tomtom215/pixelrelay/internal/logging"
)

// maxGCPasses bounds the passes per tick. Badger GC is repeated while it
// keeps rewriting files.
const maxGCPasses = 8

// JournalCollector is satisfied by *journal.BadgerJournal.
type JournalCollector interface {
	RunGC(discardRatio float64) (bool, error)
}

// JournalGCService runs value log garbage collection on the relay journal
// at a fixed interval.
//
// A GC error is logged and the loop continues.
type JournalGCService struct {
	journal      JournalCollector
	interval     time.Duration
	discardRatio float64
	name         string
}

// NewJournalGCService creates a GC loop. A non-positive interval defaults
// to 10 minutes.
func NewJournalGCService(j JournalCollector, interval time.Duration, discardRatio float64) *JournalGCService {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	return &JournalGCService{
		journal:      j,
		interval:     interval,
		discardRatio: discardRatio,
		name:         "journal-gc",
	}
}

// Serve implements suture.Service.
func (s *JournalGCService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.collect(ctx)
		}
	}
}

// collect runs GC passes until one reports nothing to rewrite.
func (s *JournalGCService) collect(ctx context.Context) {
	for pass := 0; pass < maxGCPasses; pass++ {
		if ctx.Err() != nil {
			return
		}
		rewritten, err := s.journal.RunGC(s.discardRatio)
		if err != nil {
			logging.Warn().Err(err).Int("pass", pass).Msg("Journal GC failed")
			return
		}
		if !rewritten {
			return
		}
	}
	logging.Debug().Int("passes", maxGCPasses).Msg("Journal GC pass limit reached")
}

func (s *JournalGCService) String() string {
	return s.name
}
