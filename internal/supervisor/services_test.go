package supervisor

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"sync/atomic"
	"testing"
	"time"
)

// mockHTTPServer is a test double for the HTTPServer interface.
type mockHTTPServer struct {
	listenErr     error
	started       chan struct{}
	stopCh        chan struct{}
	shutdownCount atomic.Int32
}

func newMockHTTPServer() *mockHTTPServer {
	return &mockHTTPServer{
		started: make(chan struct{}, 1),
		stopCh:  make(chan struct{}),
	}
}

func (m *mockHTTPServer) ListenAndServe() error {
	select {
	case m.started <- struct{}{}:
	default:
	}
	if m.listenErr != nil {
		return m.listenErr
	}
	<-m.stopCh
	return http.ErrServerClosed
}

func (m *mockHTTPServer) Shutdown(ctx context.Context) error {
	if m.shutdownCount.Add(1) == 1 {
		close(m.stopCh)
	}
	return nil
}

func TestHTTPServerServiceShutdown(t *testing.T) {
	server := newMockHTTPServer()
	svc := NewHTTPServerService(server, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- svc.Serve(ctx) }()

	select {
	case <-server.started:
	case <-time.After(time.Second):
		t.Fatal("ListenAndServe was not called")
	}

	cancel()
	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
	if server.shutdownCount.Load() != 1 {
		t.Errorf("Shutdown calls = %d, want 1", server.shutdownCount.Load())
	}
}

func TestHTTPServerServiceListenError(t *testing.T) {
	server := newMockHTTPServer()
	server.listenErr = errors.New("address already in use")
	svc := NewHTTPServerService(server, 0)

	err := svc.Serve(context.Background())
	if err == nil || !errors.Is(err, server.listenErr) {
		t.Errorf("expected wrapped listen error, got %v", err)
	}
	if svc.String() != "http-server" {
		t.Errorf("unexpected name %q", svc.String())
	}
}

func TestRoutineService(t *testing.T) {
	t.Run("stops with context", func(t *testing.T) {
		svc := NewRoutineService("janitor", func(ctx context.Context) { <-ctx.Done() })
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if err := svc.Serve(ctx); !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})

	t.Run("early return is a failure", func(t *testing.T) {
		svc := NewRoutineService("janitor", func(ctx context.Context) {})
		if err := svc.Serve(context.Background()); err == nil {
			t.Error("expected error for a routine that returned early")
		}
	})
}

func TestTreeRestartsFailedRoutine(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	tree := NewTree(logger, TreeConfig{FailureBackoff: 10 * time.Millisecond})

	var runs atomic.Int32
	tree.AddBackgroundService(NewRoutineService("flaky", func(ctx context.Context) {
		if runs.Add(1) < 3 {
			return
		}
		<-ctx.Done()
	}))

	ctx, cancel := context.WithCancel(context.Background())
	errCh := tree.ServeBackground(ctx)

	deadline := time.Now().Add(2 * time.Second)
	for runs.Load() < 3 {
		if time.Now().After(deadline) {
			t.Fatalf("routine ran %d times, expected restarts up to 3", runs.Load())
		}
		time.Sleep(5 * time.Millisecond)
	}

	cancel()
	select {
	case <-errCh:
	case <-time.After(2 * time.Second):
		t.Fatal("tree did not stop after cancel")
	}
}

func TestTreeUnstoppedServiceReport(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("clean shutdown", func(t *testing.T) {
		tree := NewTree(logger, TreeConfig{ShutdownTimeout: time.Second})
		tree.AddBackgroundService(NewRoutineService("janitor", func(ctx context.Context) {
			<-ctx.Done()
		}))

		ctx, cancel := context.WithCancel(context.Background())
		errCh := tree.ServeBackground(ctx)
		time.Sleep(20 * time.Millisecond)
		cancel()
		<-errCh

		unstopped, err := tree.UnstoppedServiceReport()
		if err != nil {
			t.Fatalf("UnstoppedServiceReport: %v", err)
		}
		if len(unstopped) != 0 {
			t.Errorf("expected no unstopped services, got %d", len(unstopped))
		}
	})

	t.Run("service ignoring cancel", func(t *testing.T) {
		tree := NewTree(logger, TreeConfig{ShutdownTimeout: 20 * time.Millisecond})
		release := make(chan struct{})
		defer close(release)
		started := make(chan struct{})
		tree.AddBackgroundService(NewRoutineService("stuck", func(ctx context.Context) {
			close(started)
			<-release
		}))

		ctx, cancel := context.WithCancel(context.Background())
		errCh := tree.ServeBackground(ctx)
		<-started
		cancel()
		select {
		case <-errCh:
		case <-time.After(2 * time.Second):
			t.Fatal("tree did not give up on the stuck service")
		}

		unstopped, err := tree.UnstoppedServiceReport()
		if err != nil {
			t.Fatalf("UnstoppedServiceReport: %v", err)
		}
		if len(unstopped) == 0 {
			t.Error("expected the stuck service in the report")
		}
	})
}
