package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"bootmatch/internal/allocator"
	"bootmatch/internal/cmdb"
	"bootmatch/internal/hw"
	"bootmatch/internal/profile"
	"bootmatch/pkg/logging"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
)

const (
	// UploadField is the multipart field carrying the fact dump.
	UploadField = "file"

	// MaxUploadSize bounds the accepted request body.
	MaxUploadSize = 4 << 20

	// DefaultReadHeaderTimeout is the default timeout for reading request headers.
	DefaultReadHeaderTimeout = 10 * time.Second
	// DefaultIdleTimeout is the default idle timeout for keepalive connections.
	DefaultIdleTimeout = 120 * time.Second
	// ShutdownTimeout bounds the graceful shutdown once the context is done.
	ShutdownTimeout = 30 * time.Second
)

// Allocator is the part of the allocation service the server needs.
type Allocator interface {
	Allocate(ctx context.Context, facts hw.Facts) (*allocator.Result, error)
}

// Server serves allocation requests.
type Server struct {
	alloc Allocator
	mux   *http.ServeMux
}

// New returns a Server backed by alloc.
func New(alloc Allocator) *Server {
	s := &Server{alloc: alloc, mux: http.NewServeMux()}
	s.mux.HandleFunc("POST /upload", s.handleUpload)
	s.mux.Handle("GET /metrics", promhttp.Handler())
	s.mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, "ok\n")
	})
	return s
}

// Handler returns the HTTP handler of the server.
func (s *Server) Handler() http.Handler { return s.mux }

// ListenAndServe serves on addr until ctx is done, then shuts down
// gracefully. In-flight allocations are allowed to finish.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is ListenAndServe on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	httpServer := &http.Server{
		Handler:           s.mux,
		ReadHeaderTimeout: DefaultReadHeaderTimeout,
		IdleTimeout:       DefaultIdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logging.Info("Server", "Listening on %s", ln.Addr())
		if err := httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		logging.Info("Server", "Shutting down")
		return httpServer.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadSize)
	file, _, err := r.FormFile(UploadField)
	if err != nil {
		logging.Warn("Server", "Rejected upload from %s: %v", r.RemoteAddr, err)
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		logging.Warn("Server", "Unable to read upload from %s: %v", r.RemoteAddr, err)
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	facts, err := hw.ParseFacts(data)
	if err != nil {
		logging.Warn("Server", "Invalid fact dump from %s: %v", r.RemoteAddr, err)
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	res, err := s.alloc.Allocate(r.Context(), facts)
	if err != nil {
		w.WriteHeader(StatusFor(err))
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("X-Request-Id", res.RequestID)
	if err := allocator.WriteResponse(w, res); err != nil {
		logging.Error("Server", err, "Failed to write response for request %s", res.RequestID)
	}
}

// StatusFor maps an allocation error to an HTTP status.
func StatusFor(err error) int {
	var noMatch *profile.NoMatchError
	switch {
	case errors.As(err, &noMatch):
		return http.StatusNotFound
	case errors.Is(err, cmdb.ErrPoolExhausted):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
