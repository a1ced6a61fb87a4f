// Package server hosts the HTTP API: image identification, question
// answering, and operational status.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"sightdex/internal/answer"
	"sightdex/internal/config"
	"sightdex/internal/fetch"
	"sightdex/internal/identify"
	"sightdex/internal/logging"
	"sightdex/internal/pokeapi"
)

// Server serves the HTTP API.
type Server struct {
	cfg        *config.Config
	logger     *slog.Logger
	identifier *identify.Identifier
	answers    *answer.Service
	catalog    pokeapi.Catalog
	fetcher    *fetch.Client
	startedAt  time.Time

	listener net.Listener
	server   *http.Server
}

// New wires the API routes around the shared services.
func New(cfg *config.Config, identifier *identify.Identifier, answers *answer.Service, catalog pokeapi.Catalog, fetcher *fetch.Client, logger *slog.Logger) *Server {
	srv := &Server{
		cfg:        cfg,
		logger:     logging.NewComponentLogger(logger, "api-server"),
		identifier: identifier,
		answers:    answers,
		catalog:    catalog,
		fetcher:    fetcher,
		startedAt:  time.Now(),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/identify", srv.handleIdentify)
	mux.HandleFunc("/chat", srv.handleChat)
	mux.HandleFunc("/healthz", srv.handleHealth)
	mux.HandleFunc("/api/status", srv.handleStatus)

	srv.server = &http.Server{
		Handler:           srv.withRequestID(srv.withCORS(mux)),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		// A cold-cache identification scans the whole catalog, so responses
		// can take minutes.
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}
	return srv
}

// Handler exposes the routed handler chain, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Addr reports the bound listen address, or "" before Start.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Start binds the configured address and serves until ctx is canceled.
func (s *Server) Start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.cfg.Server.Bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.logger.Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

// Stop drains in-flight requests and closes the listener.
func (s *Server) Stop() {
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}
