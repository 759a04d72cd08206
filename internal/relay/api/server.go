package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Server serves the query API until Shutdown is called.
type Server struct {
	http   *http.Server
	logger *zap.Logger
}

func NewServer(addr string, handler http.Handler, logger *zap.Logger) *Server {
	return &Server{
		http: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 5 * time.Second,
		},
		logger: logger,
	}
}

func (s *Server) Addr() string {
	return s.http.Addr
}

// Run blocks serving requests. It returns nil after a graceful Shutdown.
func (s *Server) Run() error {
	s.logger.Info("http server listening", zap.String("addr", s.http.Addr))
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
