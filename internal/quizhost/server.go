// Package quizhost serves the quiz page over HTTP so the browser has a URL
// to load, along with health and metrics endpoints.
package quizhost

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/moolen/quizcheck/internal/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Options configure the server.
type Options struct {
	Root string
	Host string
	Port int // 0 picks a free port
	// ReuseExisting skips starting when something already serves on Port.
	ReuseExisting bool
	// Gatherer backs /metrics; nil disables the endpoint.
	Gatherer prometheus.Gatherer
}

// Server is a static file server. It implements lifecycle.Component.
type Server struct {
	opts   Options
	router chi.Router
	logger *logging.Logger

	mu     sync.Mutex
	server *http.Server
	addr   string
	reused bool
}

// New builds the router; nothing listens until Start.
func New(opts Options) (*Server, error) {
	if opts.Root == "" {
		opts.Root = "."
	}
	if opts.Host == "" {
		opts.Host = "127.0.0.1"
	}
	info, err := os.Stat(opts.Root)
	if err != nil {
		return nil, fmt.Errorf("quiz root %q: %w", opts.Root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("quiz root %q is not a directory", opts.Root)
	}

	s := &Server{
		opts:   opts,
		logger: logging.GetLogger("quizhost"),
	}
	s.router = s.routes()
	return s, nil
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Get("/healthz", s.handleHealth)
	if s.opts.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.opts.Gatherer, promhttp.HandlerOpts{}))
	}

	files := http.FileServer(http.Dir(s.opts.Root))
	r.Handle("/*", noCache(files))
	return r
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start listens and serves in the background. With ReuseExisting, a port
// that is already taken by a live HTTP server is used as is.
func (s *Server) Start(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	addr := net.JoinHostPort(s.opts.Host, strconv.Itoa(s.opts.Port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		if s.opts.ReuseExisting && errors.Is(err, syscall.EADDRINUSE) && probe(ctx, "http://"+addr+"/") {
			s.addr = addr
			s.reused = true
			s.logger.Info("reusing existing server on %s", addr)
			return nil
		}
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	s.addr = ln.Addr().String()
	s.server = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	go func() {
		if err := s.server.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.logger.Error("HTTP server error: %v", err)
		}
	}()

	s.logger.Info("serving %s on http://%s", s.opts.Root, s.addr)
	return nil
}

// Stop gracefully shuts the server down.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	srv := s.server
	s.server = nil
	s.mu.Unlock()

	if srv == nil {
		return nil
	}

	done := make(chan error, 1)
	go func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		done <- srv.Shutdown(shutdownCtx)
	}()

	select {
	case err := <-done:
		if err != nil {
			s.logger.Error("HTTP server shutdown error: %v", err)
			return err
		}
		s.logger.Info("quiz host stopped")
		return nil
	case <-ctx.Done():
		s.logger.Warn("quiz host shutdown timeout")
		return ctx.Err()
	}
}

// Name implements lifecycle.Component
func (s *Server) Name() string {
	return "quizhost"
}

// Addr is the host:port being served, valid after Start.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// Reused reports whether Start found an existing server instead of binding.
func (s *Server) Reused() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reused
}

// URL returns the absolute URL of path on this server.
func (s *Server) URL(path string) string {
	return "http://" + s.Addr() + "/" + strings.TrimPrefix(path, "/")
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"status": "healthy",
		"root":   s.opts.Root,
	})
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.DebugWithFields(fmt.Sprintf("%s %s", r.Method, r.URL.Path),
			logging.Field("status", ww.Status()),
			logging.Field("bytes", ww.BytesWritten()),
			logging.Field("duration", time.Since(start).String()),
			logging.Field("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

// noCache keeps the browser from serving a stale quiz page between runs.
func noCache(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
		next.ServeHTTP(w, r)
	})
}

func probe(ctx context.Context, url string) bool {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return false
	}
	_ = resp.Body.Close()
	return true
}
