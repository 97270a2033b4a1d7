package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bascanada/tentacle/pkg/ioworker"
	"github.com/bascanada/tentacle/pkg/source"
)

// Server binds the HTTP transport to the streaming/merging core: the
// source registry and the blocking-I/O pool every request's pipeline is
// built from.
type Server struct {
	registry    *source.Registry
	pool        *ioworker.Pool
	router      *http.ServeMux
	httpServer  *http.Server
	logger      *slog.Logger
	host        string
	port        string
	openapiSpec []byte
}

// NewServer creates a Server bound to registry and pool, both owned by the
// caller for the lifetime of the process.
func NewServer(host, port string, registry *source.Registry, pool *ioworker.Pool, logger *slog.Logger, openapiSpec []byte) *Server {
	s := &Server{
		registry:    registry,
		pool:        pool,
		router:      http.NewServeMux(),
		logger:      logger,
		host:        host,
		port:        port,
		openapiSpec: openapiSpec,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.router.HandleFunc("/health", s.healthHandler)
	s.router.HandleFunc("/sources", s.listSourcesHandler)
	s.router.HandleFunc("/content", s.getContentHandler)
	s.router.HandleFunc("/openapi.yaml", s.openapiHandler)
}

// Start runs the HTTP server and blocks until a signal is received or the
// server fails to serve.
func (s *Server) Start() error {
	handler := s.chainMiddleware(s.router, s.recoveryMiddleware, s.corsMiddleware, s.requestIDMiddleware, s.loggingMiddleware)

	addr := fmt.Sprintf("%s:%s", s.host, s.port)

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to create listener: %w", err)
	}

	s.httpServer = &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("starting server", "addr", listener.Addr().String())
		serverErrors <- s.httpServer.Serve(listener)
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-shutdown:
		s.logger.Info("shutdown signal received", "signal", sig)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := s.httpServer.Shutdown(ctx); err != nil {
			s.logger.Error("graceful shutdown failed", "err", err)
			return s.httpServer.Close()
		}
		s.logger.Info("server shutdown gracefully")
	}

	return nil
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("stopping server")
	return s.httpServer.Shutdown(ctx)
}
