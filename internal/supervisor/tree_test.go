// PixelRelay - Conversion Event Tracking Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pixelrelay

package supervisor

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/thejerf/suture/v4"
)

// mockService runs until canceled or returns err immediately.
type mockService struct {
	name   string
	err    error
	starts atomic.Int32
}

func (m *mockService) Serve(ctx context.Context) error {
	m.starts.Add(1)
	if m.err != nil {
		return m.err
	}
	<-ctx.Done()
	return ctx.Err()
}

func (m *mockService) String() string { return m.name }

var _ suture.Service = (*mockService)(nil)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewSupervisorTree_Defaults(t *testing.T) {
	tree, err := NewSupervisorTree(quietLogger(), TreeConfig{})
	if err != nil {
		t.Fatalf("NewSupervisorTree: %v", err)
	}
	if tree.Root() == nil {
		t.Fatal("root supervisor should not be nil")
	}
	if tree.config != DefaultTreeConfig() {
		t.Errorf("config = %+v, want defaults", tree.config)
	}
}

func TestNewSupervisorTree_NilLogger(t *testing.T) {
	if _, err := NewSupervisorTree(nil, TreeConfig{}); err != nil {
		t.Fatalf("NewSupervisorTree(nil): %v", err)
	}
}

func TestSupervisorTree_Lifecycle(t *testing.T) {
	tree, err := NewSupervisorTree(quietLogger(), TreeConfig{
		FailureBackoff:  50 * time.Millisecond,
		ShutdownTimeout: time.Second,
	})
	if err != nil {
		t.Fatal(err)
	}

	data := &mockService{name: "journal-gc"}
	api := &mockService{name: "http-server"}
	tree.AddDataService(data)
	tree.AddAPIService(api)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := tree.ServeBackground(ctx)

	deadline := time.After(2 * time.Second)
	for data.starts.Load() == 0 || api.starts.Load() == 0 {
		select {
		case <-deadline:
			t.Fatal("services did not start")
		case <-time.After(10 * time.Millisecond):
		}
	}

	cancel()
	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			t.Errorf("tree exit: %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("tree did not stop")
	}

	report, err := tree.UnstoppedServiceReport()
	if err != nil {
		t.Fatal(err)
	}
	if len(report) != 0 {
		t.Errorf("unstopped services: %v", report)
	}
}

func TestSupervisorTree_RestartsFailingService(t *testing.T) {
	tree, err := NewSupervisorTree(quietLogger(), TreeConfig{
		FailureThreshold: 100,
		FailureBackoff:   10 * time.Millisecond,
		ShutdownTimeout:  time.Second,
	})
	if err != nil {
		t.Fatal(err)
	}

	failing := &mockService{name: "failing", err: errors.New("boom")}
	stable := &mockService{name: "stable"}
	tree.AddDataService(failing)
	tree.AddAPIService(stable)

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	<-tree.ServeBackground(ctx)

	if failing.starts.Load() < 2 {
		t.Errorf("failing service started %d times, want restarts", failing.starts.Load())
	}
	if stable.starts.Load() != 1 {
		t.Errorf("stable service started %d times, want 1", stable.starts.Load())
	}
}

// orderLog records shutdown events in the order they happen.
type orderLog struct {
	mu     sync.Mutex
	events []string
}

func (l *orderLog) add(ev string) {
	l.mu.Lock()
	l.events = append(l.events, ev)
	l.mu.Unlock()
}

func (l *orderLog) snapshot() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.events...)
}

// slowStopService takes a moment to stop after cancellation, like an HTTP
// server finishing its open requests.
type slowStopService struct {
	log     *orderLog
	started chan struct{}
	once    sync.Once
}

func (s *slowStopService) Serve(ctx context.Context) error {
	s.once.Do(func() { close(s.started) })
	<-ctx.Done()
	time.Sleep(20 * time.Millisecond)
	s.log.add("http stopped")
	return ctx.Err()
}

func (s *slowStopService) String() string { return "http-server" }

func TestSupervisorTree_RunOrdersShutdown(t *testing.T) {
	tree, err := NewSupervisorTree(quietLogger(), TreeConfig{ShutdownTimeout: time.Second})
	if err != nil {
		t.Fatal(err)
	}

	log := &orderLog{}
	svc := &slowStopService{log: log, started: make(chan struct{})}
	tree.AddAPIService(svc)

	var stepDeadline atomic.Bool
	steps := []ShutdownStep{
		{Name: "drain relays", Run: func(ctx context.Context) error {
			_, ok := ctx.Deadline()
			stepDeadline.Store(ok)
			log.add("relays drained")
			return errors.New("one relay abandoned")
		}},
		{Name: "close journal", Run: func(context.Context) error {
			log.add("journal closed")
			return nil
		}},
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- tree.Run(ctx, steps...) }()

	select {
	case <-svc.started:
	case <-time.After(2 * time.Second):
		t.Fatal("service did not start")
	}
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run = %v, want nil on cancellation", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}

	want := []string{"http stopped", "relays drained", "journal closed"}
	got := log.snapshot()
	if len(got) != len(want) {
		t.Fatalf("events = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("events = %v, want %v", got, want)
			break
		}
	}
	if !stepDeadline.Load() {
		t.Error("shutdown steps should run with a deadline")
	}
}

func TestSupervisorTree_RunReturnsTreeError(t *testing.T) {
	tree, err := NewSupervisorTree(quietLogger(), TreeConfig{ShutdownTimeout: time.Second})
	if err != nil {
		t.Fatal(err)
	}
	tree.AddAPIService(&mockService{name: "fatal", err: suture.ErrTerminateSupervisorTree})

	var ran atomic.Bool
	done := make(chan error, 1)
	go func() {
		done <- tree.Run(context.Background(), ShutdownStep{Name: "drain", Run: func(context.Context) error {
			ran.Store(true)
			return nil
		}})
	}()

	select {
	case err := <-done:
		if err == nil {
			t.Error("Run should report the tree's own exit")
		}
	case <-time.After(3 * time.Second):
		t.Fatal("Run did not return after the tree terminated")
	}
	if !ran.Load() {
		t.Error("shutdown steps must run when the tree exits on its own")
	}
}
