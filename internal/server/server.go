package server

import (
	"context"
	"fmt"
	"io/fs"
	"net"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/soar/padview/internal/hub"
	"github.com/soar/padview/internal/logger"
)

const wsPath = "/ws"

type Options struct {
	Addr string
	// MetricsPath serves Prometheus metrics from Gatherer when not empty.
	MetricsPath string
	Gatherer    prometheus.Gatherer
}

type Server struct {
	hub         *hub.Hub
	broadcaster *hub.Broadcaster
	frontend    assets
	opts        Options
	log         *logger.Logger
	httpServer  *http.Server
}

// New prepares the server; frontendFS is minified here.
func New(h *hub.Hub, b *hub.Broadcaster, frontendFS fs.FS, opts Options, log *logger.Logger) (*Server, error) {
	if opts.MetricsPath == "/" || opts.MetricsPath == wsPath {
		return nil, fmt.Errorf("metrics path %q conflicts with the viewer routes", opts.MetricsPath)
	}
	frontend, err := loadAssets(frontendFS)
	if err != nil {
		return nil, fmt.Errorf("frontend: %w", err)
	}
	return &Server{
		hub:         h,
		broadcaster: b,
		frontend:    frontend,
		opts:        opts,
		log:         log,
	}, nil
}

// Handler returns the routes of the server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// WebSocket endpoint
	mux.Handle(wsPath, newWebSocketHandler(s.hub, s.broadcaster, s.log))

	if s.opts.MetricsPath != "" && s.opts.Gatherer != nil {
		mux.Handle(s.opts.MetricsPath, promhttp.HandlerFor(s.opts.Gatherer, promhttp.HandlerOpts{}))
		s.log.Info().Str("path", s.opts.MetricsPath).Msg("Prometheus metrics enabled")
	}

	// Static files (frontend)
	mux.Handle("/", s.frontend)
	return mux
}

// Listen binds the address so callers learn about errors before serving.
func (s *Server) Listen() (net.Listener, error) {
	ln, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", s.opts.Addr, err)
	}
	return ln, nil
}

func (s *Server) Serve(ln net.Listener) error {
	s.httpServer = &http.Server{Handler: s.Handler()}
	s.log.Info().Str("addr", ln.Addr().String()).Msg("HTTP server listening")
	return s.httpServer.Serve(ln)
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		s.log.Info().Msg("Shutting down HTTP server...")
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}
