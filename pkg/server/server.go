package server

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/mchmarny/docsite/pkg/logger"
	"github.com/mchmarny/docsite/pkg/metric"
)

const (
	// DefaultPort is the default HTTP server port.
	DefaultPort = 8080

	// DefaultReadTimeout is the maximum duration for reading the entire request,
	// including the body.
	DefaultReadTimeout = 10 * time.Second

	// DefaultWriteTimeout is the maximum duration before timing out writes of the response.
	DefaultWriteTimeout = 10 * time.Second

	// DefaultIdleTimeout is the maximum amount of time to wait for the next request
	// when keep-alives are enabled.
	DefaultIdleTimeout = 60 * time.Second

	// DefaultShutdownTimeout is the maximum duration to wait for active connections
	// to close during shutdown.
	DefaultShutdownTimeout = 5 * time.Second

	// DefaultMaxHeaderBytes limits the size of request headers.
	DefaultMaxHeaderBytes = 1 << 20 // 1 MB

	// RequestIDHeader carries the request id in requests and responses.
	RequestIDHeader = "X-Request-ID"
)

// Server defines the interface for the site HTTP server.
type Server interface {
	// Serve starts the HTTP server and blocks until the context is canceled.
	// It returns nil on graceful shutdown.
	Serve(ctx context.Context) error

	// IsRunning returns true once the socket is bound and until the server stops.
	IsRunning() bool

	// Handler returns the root handler with all middleware and routes.
	Handler() http.Handler

	// AddHandler registers an additional handler for pattern.
	AddHandler(pattern string, handler http.Handler)
}

// HealthChecker reports whether the process is able to function.
// It backs the liveness endpoint.
type HealthChecker interface {
	Healthy(ctx context.Context) error
}

// ReadinessChecker reports whether the process can serve traffic.
// It backs the readiness endpoint.
type ReadinessChecker interface {
	Ready(ctx context.Context) error
}

type route struct {
	pattern string
	handler http.Handler
}

// server is the internal implementation of the Server interface.
type server struct {
	mux             *chi.Mux
	routes          []route
	port            int
	readTimeout     time.Duration
	writeTimeout    time.Duration
	idleTimeout     time.Duration
	shutdownTimeout time.Duration
	maxHeaderBytes  int
	errLog          *log.Logger
	tlsConfig       *TLSConfig
	mu              sync.RWMutex
	running         bool
	registry        *prometheus.Registry
	metrics         bool
	health          HealthChecker
	readiness       ReadinessChecker
	requests        metric.IncrementalCounter
	latency         metric.DurationObserver
}

// TLSConfig contains the certificate and key file paths for HTTPS.
type TLSConfig struct {
	CertFile string
	KeyFile  string
}

// Option is a functional option for configuring the Server.
type Option func(*server)

// WithPort sets the port number for the HTTP server.
func WithPort(port int) Option {
	return func(s *server) { s.port = port }
}

// WithReadTimeout sets the maximum duration for reading the entire request.
func WithReadTimeout(d time.Duration) Option {
	return func(s *server) { s.readTimeout = d }
}

// WithWriteTimeout sets the maximum duration before timing out writes of the response.
func WithWriteTimeout(d time.Duration) Option {
	return func(s *server) { s.writeTimeout = d }
}

// WithIdleTimeout sets the keep-alive idle timeout.
func WithIdleTimeout(d time.Duration) Option {
	return func(s *server) { s.idleTimeout = d }
}

// WithShutdownTimeout sets the maximum duration to wait for graceful shutdown.
func WithShutdownTimeout(d time.Duration) Option {
	return func(s *server) { s.shutdownTimeout = d }
}

// WithMaxHeaderBytes sets the maximum number of bytes to read from request headers.
func WithMaxHeaderBytes(n int) Option {
	return func(s *server) { s.maxHeaderBytes = n }
}

// WithHandler registers an HTTP handler for the specified chi pattern.
// Multiple handlers can be registered by calling this option multiple times.
//
// Example:
//
//	srv := server.New(server.WithHandler("/menu.json", menu.Handler(src)))
func WithHandler(pattern string, handler http.Handler) Option {
	return func(s *server) {
		s.routes = append(s.routes, route{pattern: pattern, handler: handler})
	}
}

// WithStatic serves the files of fsys under prefix, e.g. "/static".
func WithStatic(prefix string, fsys fs.FS) Option {
	return WithHandler(prefix+"/*", http.StripPrefix(prefix+"/", http.FileServerFS(fsys)))
}

// WithSimpleHealth adds a /healthz endpoint that always returns 200 OK.
func WithSimpleHealth() Option {
	return WithHealthCheck(nil)
}

// WithHealthCheck adds a /healthz endpoint backed by c. A nil checker
// always reports healthy.
func WithHealthCheck(c HealthChecker) Option {
	return func(s *server) {
		s.health = c
		s.routes = append(s.routes, route{pattern: "/healthz", handler: http.HandlerFunc(s.handleHealth)})
	}
}

// WithReadinessCheck adds a /readyz endpoint backed by c.
func WithReadinessCheck(c ReadinessChecker) Option {
	return func(s *server) {
		s.readiness = c
		s.routes = append(s.routes, route{pattern: "/readyz", handler: http.HandlerFunc(s.handleReady)})
	}
}

// WithRegistry sets the Prometheus registry the server exposes and
// registers its own metrics with. A fresh registry is used by default.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(s *server) { s.registry = reg }
}

// WithPrometheusMetrics exposes the registry at /metrics and records
// request counts and latencies.
func WithPrometheusMetrics() Option {
	return func(s *server) { s.metrics = true }
}

// WithTLS configures the server to use TLS with the provided certificate and key files.
func WithTLS(cfg TLSConfig) Option {
	return func(s *server) {
		s.tlsConfig = &cfg
	}
}

// New creates a new HTTP server with the provided options.
//
// Default configuration:
//   - Port: 8080
//   - ReadTimeout: 10s
//   - WriteTimeout: 10s
//   - IdleTimeout: 60s
//   - ShutdownTimeout: 5s
//   - MaxHeaderBytes: 1 MB
//
// Example:
//
//	srv := server.New(
//	    server.WithPort(8080),
//	    server.WithPrometheusMetrics(),
//	    server.WithSimpleHealth(),
//	)
func New(opts ...Option) Server {
	s := &server{
		port:            DefaultPort,
		readTimeout:     DefaultReadTimeout,
		writeTimeout:    DefaultWriteTimeout,
		idleTimeout:     DefaultIdleTimeout,
		shutdownTimeout: DefaultShutdownTimeout,
		maxHeaderBytes:  DefaultMaxHeaderBytes,
		mux:             chi.NewRouter(),
		errLog:          logger.NewLogLogger(slog.LevelError),
		requests:        metric.Noop{},
		latency:         metric.Noop{},
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.registry == nil {
		s.registry = prometheus.NewRegistry()
	}

	if s.metrics {
		s.requests = metric.NewCounterWithRegistry(s.registry,
			"http_requests_total", "Number of HTTP requests by method and status code.", "method", "code")
		s.latency = metric.NewHistogramWithRegistry(s.registry,
			"http_request_duration_seconds", "HTTP request latency by method.", "method")
		s.routes = append(s.routes, route{pattern: "/metrics", handler: metric.GetHandlerForRegistry(s.registry)})
	}

	// chi requires middleware to be registered before any route
	s.mux.Use(s.requestContext, s.accessLog, middleware.Recoverer)
	for _, r := range s.routes {
		s.mux.Handle(r.pattern, r.handler)
	}

	slog.Info("server initialized",
		"port", s.port,
		"routes", len(s.routes),
		"metrics", s.metrics,
		"read_timeout", s.readTimeout,
		"write_timeout", s.writeTimeout)

	return s
}

// AddHandler registers an HTTP handler for the specified pattern.
func (s *server) AddHandler(pattern string, handler http.Handler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mux.Handle(pattern, handler)
}

// Handler returns the root handler of the server.
func (s *server) Handler() http.Handler {
	return s.mux
}

// IsRunning returns true if the server is currently running and accepting connections.
func (s *server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.running
}

// Serve starts the HTTP server and blocks until the context is canceled or an error occurs.
//
// The listener and the shutdown watcher run in an errgroup. When ctx is
// canceled the server stops accepting connections and waits up to the
// shutdown timeout for in-flight requests. http.ErrServerClosed is not
// reported as an error.
func (s *server) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:           fmt.Sprintf(":%d", s.port),
		Handler:        s.mux,
		ReadTimeout:    s.readTimeout,
		WriteTimeout:   s.writeTimeout,
		IdleTimeout:    s.idleTimeout,
		MaxHeaderBytes: s.maxHeaderBytes,
		ErrorLog:       s.errLog,
	}

	listener, err := net.Listen("tcp", srv.Addr)
	if err != nil {
		return fmt.Errorf("failed to create listener: %w", err)
	}

	if s.tlsConfig != nil {
		cert, certErr := tls.LoadX509KeyPair(s.tlsConfig.CertFile, s.tlsConfig.KeyFile)
		if certErr != nil {
			listener.Close()
			return fmt.Errorf("failed to load TLS certificate: %w", certErr)
		}

		listener = tls.NewListener(listener, &tls.Config{
			Certificates: []tls.Certificate{cert},
			MinVersion:   tls.VersionTLS12,
		})

		slog.Info("starting TLS server", "addr", srv.Addr)
	} else {
		slog.Info("starting server", "addr", srv.Addr)
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.mu.Lock()
		s.running = true
		s.mu.Unlock()

		defer func() {
			s.mu.Lock()
			s.running = false
			s.mu.Unlock()
		}()

		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()

		slog.Info("shutting down server", "grace_period", s.shutdownTimeout)

		shutdownStart := time.Now()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}

		slog.Info("server shutdown complete", "duration", time.Since(shutdownStart))

		return nil
	})

	return g.Wait()
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	var err error
	if s.health != nil {
		err = s.health.Healthy(r.Context())
	}
	writeProbe(w, r, "health", err)
}

func (s *server) handleReady(w http.ResponseWriter, r *http.Request) {
	var err error
	if s.readiness != nil {
		err = s.readiness.Ready(r.Context())
	}
	writeProbe(w, r, "readiness", err)
}

func writeProbe(w http.ResponseWriter, r *http.Request, probe string, err error) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if err != nil {
		logger.FromContext(r.Context()).Warn("probe failed", "probe", probe, "error", err)
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("not ok"))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
