package supervisor

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// HTTPServer is the part of *http.Server the service needs.
type HTTPServer interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
}

// HTTPServerService runs an HTTP server as a supervised service. Canceling
// the service's context shuts the server down gracefully.
type HTTPServerService struct {
	server          HTTPServer
	shutdownTimeout time.Duration
}

func NewHTTPServerService(server HTTPServer, shutdownTimeout time.Duration) *HTTPServerService {
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	return &HTTPServerService{server: server, shutdownTimeout: shutdownTimeout}
}

func (h *HTTPServerService) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		if err := h.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil

	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), h.shutdownTimeout)
		defer cancel()

		if err := h.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http server shutdown failed: %w", err)
		}

		<-errCh
		return ctx.Err()
	}
}

func (h *HTTPServerService) String() string {
	return "http-server"
}

// RoutineService supervises a function that runs until its context is
// canceled, like a cleanup or refresh loop.
type RoutineService struct {
	name string
	run  func(ctx context.Context)
}

func NewRoutineService(name string, run func(ctx context.Context)) *RoutineService {
	return &RoutineService{name: name, run: run}
}

// Serve runs the routine. A routine that returns while ctx is still live
// is reported as failed so the supervisor restarts it.
func (r *RoutineService) Serve(ctx context.Context) error {
	r.run(ctx)
	if err := ctx.Err(); err != nil {
		return err
	}
	return fmt.Errorf("%s stopped unexpectedly", r.name)
}

func (r *RoutineService) String() string {
	return r.name
}
