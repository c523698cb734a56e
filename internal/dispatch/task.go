// PixelRelay - Conversion Event Tracking Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pixelrelay

package dispatch

import (
	"context"

	"github.com/tomtom215/pixelrelay/internal/models"
)

// Task is a detached server relay. It completes exactly once.
type Task struct {
	eventID string
	done    chan struct{}
	result  models.RelayResult
}

func newTask(eventID string) *Task {
	return &Task{eventID: eventID, done: make(chan struct{})}
}

func (t *Task) complete(r models.RelayResult) {
	t.result = r
	close(t.done)
}

// EventID is the id of the envelope being relayed.
func (t *Task) EventID() string {
	return t.eventID
}

// Done is closed when the relay has finished.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Result returns the relay result if the task has finished.
func (t *Task) Result() (models.RelayResult, bool) {
	select {
	case <-t.done:
		return t.result, true
	default:
		return models.RelayResult{}, false
	}
}

// Wait blocks until the relay finishes or ctx is done. Giving up on the wait
// does not cancel the relay.
func (t *Task) Wait(ctx context.Context) (models.RelayResult, error) {
	select {
	case <-t.done:
		return t.result, nil
	case <-ctx.Done():
		return models.RelayResult{}, ctx.Err()
	}
}
