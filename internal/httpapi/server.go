// Package httpapi serves images from a directory over HTTP, transformed on the
// fly by pipeline operations given in the query string.
//
//	GET /healthz
//	GET /images/{name}?op=scale=200&op=flip=h
//	GET /images/{name}/info
//	GET /images/{name}/datauri
//	GET /metrics
//
// Names are resolved inside the configured root; a name that would leave it is
// rejected with 400.
package httpapi

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rcrowley/go-metrics"

	"github.com/ironsheep/imagekit/internal/config"
	"github.com/ironsheep/imagekit/internal/imaging"
	"github.com/ironsheep/imagekit/internal/logging"
)

const shutdownTimeout = 10 * time.Second

// Server is the HTTP image server.
type Server struct {
	cfg     config.HTTPConfig
	root    string
	router  *chi.Mux
	logger  *slog.Logger
	metrics metrics.Registry
	opts    []imaging.Option
	http    *http.Server
}

// New builds a Server for cfg. The root directory must exist.
func New(cfg config.HTTPConfig, logger *slog.Logger, opts ...imaging.Option) (*Server, error) {
	if logger == nil {
		logger = logging.Discard()
	}
	root, err := filepath.Abs(cfg.Root)
	if err != nil {
		return nil, fmt.Errorf("resolving root %s: %w", cfg.Root, err)
	}
	if root, err = filepath.EvalSymlinks(root); err != nil {
		return nil, fmt.Errorf("resolving root %s: %w", cfg.Root, err)
	}

	s := &Server{
		cfg:     cfg,
		root:    root,
		router:  chi.NewRouter(),
		logger:  logger,
		metrics: metrics.NewRegistry(),
		opts:    append([]imaging.Option{imaging.WithLogger(logger)}, opts...),
	}
	s.routes()
	return s, nil
}

func (s *Server) routes() {
	r := s.router
	r.Use(middleware.RequestID)
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)

	r.Route("/images/{name}", func(r chi.Router) {
		r.With(trackRoute(s.metrics, "image")).Get("/", s.handleImage)
		r.With(trackRoute(s.metrics, "info")).Get("/info", s.handleInfo)
		r.With(trackRoute(s.metrics, "datauri")).Get("/datauri", s.handleDataURI)
	})

	if s.cfg.Metrics {
		r.Get("/metrics", s.handleMetrics)
	}
}

// Handler returns the router, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Metrics returns the registry the route timers are kept in.
func (s *Server) Metrics() metrics.Registry {
	return s.metrics
}

// Root returns the resolved directory images are served from.
func (s *Server) Root() string {
	return s.root
}

// Start begins listening and blocks until the server is shut down.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	return s.Serve(ln)
}

// Serve accepts connections on ln until the server is shut down.
func (s *Server) Serve(ln net.Listener) error {
	s.http = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.logger.Info("http server starting", "address", ln.Addr().String(), "root", s.root)
	if err := s.http.Serve(ln); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	s.logger.Info("shutting down http server", "timeout", shutdownTimeout)
	return s.http.Shutdown(shutdownCtx)
}

// Run serves on cfg.Addr until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() { errCh <- s.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		if err := s.Shutdown(context.Background()); err != nil {
			return err
		}
		return <-errCh
	}
}
