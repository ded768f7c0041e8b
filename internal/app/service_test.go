package app

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"
)

type blockingService struct {
	name    string
	startFn func(ctx context.Context) error

	mu      sync.Mutex
	stopped bool
	release chan struct{}
}

func newBlockingService(name string) *blockingService {
	return &blockingService{name: name, release: make(chan struct{})}
}

func (s *blockingService) Name() string { return s.name }

func (s *blockingService) Start(ctx context.Context) error {
	if s.startFn != nil {
		return s.startFn(ctx)
	}
	<-s.release
	return nil
}

func (s *blockingService) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.stopped {
		s.stopped = true
		close(s.release)
	}
	return nil
}

func (s *blockingService) wasStopped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopped
}

func TestRunnerStopsAllOnContextCancel(t *testing.T) {
	defer goleak.VerifyNone(t)

	first := newBlockingService("first")
	second := newBlockingService("second")
	closed := 0
	runner := NewRunner(first, second)
	runner.OnShutdown(func() { closed++ })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- runner.Run(ctx, time.Second, nil)
	}()
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("expected nil error, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("runner did not stop")
	}
	if !first.wasStopped() || !second.wasStopped() {
		t.Fatalf("expected all services stopped")
	}
	if closed != 1 {
		t.Fatalf("expected shutdown hook once, got %d", closed)
	}
}

func TestRunnerPropagatesStartError(t *testing.T) {
	defer goleak.VerifyNone(t)

	boom := errors.New("listen failed")
	failing := newBlockingService("failing")
	failing.startFn = func(ctx context.Context) error { return boom }
	healthy := newBlockingService("healthy")

	err := NewRunner(failing, healthy).Run(context.Background(), time.Second, nil)
	if !errors.Is(err, boom) {
		t.Fatalf("expected start error, got %v", err)
	}
	if !healthy.wasStopped() {
		t.Fatalf("expected healthy service stopped")
	}
}

func TestRunnerRejectsEmpty(t *testing.T) {
	if err := NewRunner().Run(context.Background(), time.Second, nil); err == nil {
		t.Fatalf("expected error for empty runner")
	}
	if err := NewRunner(nil).Run(context.Background(), time.Second, nil); err == nil {
		t.Fatalf("expected error for nil service")
	}
}

func TestBuildRunnerRejectsUnknownMode(t *testing.T) {
	if _, err := BuildRunner(nil, ModeAll); err == nil {
		t.Fatalf("expected nil config error")
	}
}

func TestParseMode(t *testing.T) {
	cases := map[string]string{"": ModeAll, " API ": ModeAPI, "worker": ModeWorker}
	for raw, want := range cases {
		got, err := ParseMode(raw)
		if err != nil || got != want {
			t.Fatalf("ParseMode(%q) = %q, %v", raw, got, err)
		}
	}
	if _, err := ParseMode("cron"); err == nil {
		t.Fatalf("expected error for unknown mode")
	}
}

func TestHTTPServiceStopsGracefully(t *testing.T) {
	svc := NewHTTPService("127.0.0.1:0", http.NotFoundHandler())
	done := make(chan error, 1)
	go func() { done <- svc.Start(context.Background()) }()

	time.Sleep(50 * time.Millisecond)
	stopCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := svc.Stop(stopCtx); err != nil {
		t.Fatalf("stop failed: %v", err)
	}
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("expected clean exit, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("http service did not exit")
	}
}
