//-------------------------------------------------------------------------
//
// pgEdge Rerank Server
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package server provides the HTTP server for the rerank API.
package server

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/pgEdge/pgedge-rerank-server/internal/config"
	"github.com/pgEdge/pgedge-rerank-server/internal/language"
	"github.com/pgEdge/pgedge-rerank-server/internal/metrics"
	"github.com/pgEdge/pgedge-rerank-server/internal/rerank"
	"github.com/pgEdge/pgedge-rerank-server/internal/source"
)

// Reranker is the ranking engine used by the handlers. *rerank.Engine
// implements it.
type Reranker interface {
	RerankScored(docs []rerank.Document, query string, limit int) ([]rerank.ScoredDocument, error)
	Analyze(text string) (language.Language, []string, error)
}

// BatchRunner executes batches of rerank requests. *rerank.BatchRunner
// implements it.
type BatchRunner interface {
	Run(ctx context.Context, reqs []rerank.BatchRequest) ([]rerank.BatchResult, error)
}

// SourceManager defines the interface for document source access.
// *source.Manager implements it.
type SourceManager interface {
	List() []source.Info
	Fetch(ctx context.Context, name string, ids []string, filter *config.Filter) ([]rerank.Document, error)
	Ping(ctx context.Context) map[string]error
	Close() error
}

// Options contains the dependencies of a Server. Batch, Sources and
// Metrics are optional.
type Options struct {
	Config  *config.Config
	Engine  Reranker
	Batch   BatchRunner
	Sources SourceManager
	Metrics *metrics.Metrics
	Logger  *slog.Logger
}

// maxRequestBytes bounds a request body.
const maxRequestBytes = 32 << 20

// Server is the HTTP server for the rerank API.
type Server struct {
	config  *config.Config
	engine  Reranker
	batch   BatchRunner
	sources SourceManager
	metrics *metrics.Metrics
	logger  *slog.Logger
	server  *http.Server
	mux     *http.ServeMux
}

// New creates a new HTTP server.
func New(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		config:  opts.Config,
		engine:  opts.Engine,
		batch:   opts.Batch,
		sources: opts.Sources,
		metrics: opts.Metrics,
		logger:  logger,
		mux:     http.NewServeMux(),
	}

	s.setupRoutes()

	return s
}

// Handler returns the routes wrapped in the server middleware.
func (s *Server) Handler() http.Handler {
	return s.applyMiddleware(s.mux)
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.ListenAddress, s.config.Server.Port)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	s.logger.Info("starting server",
		"address", addr,
		"tls", s.config.Server.TLS.Enabled)

	if s.config.Server.TLS.Enabled {
		return s.serveTLS()
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}

	return s.server.Serve(listener)
}

// serveTLS starts the server with TLS.
func (s *Server) serveTLS() error {
	s.server.TLSConfig = &tls.Config{
		MinVersion: tls.VersionTLS12,
	}

	return s.server.ListenAndServeTLS(
		s.config.Server.TLS.CertFile,
		s.config.Server.TLS.KeyFile,
	)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down server")

	if s.server != nil {
		return s.server.Shutdown(ctx)
	}

	return nil
}

// Addr returns the server's address. Returns empty string if not started.
func (s *Server) Addr() string {
	if s.server != nil {
		return s.server.Addr
	}
	return ""
}
