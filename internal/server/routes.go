//-------------------------------------------------------------------------
//
// pgEdge Rerank Server
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package server

import "net/http"

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	// API v1 routes
	s.route(http.MethodGet, "/v1/openapi.json", s.handleOpenAPI)
	s.route(http.MethodGet, "/v1/health", s.handleHealth)
	s.route(http.MethodPost, "/v1/rerank", s.handleRerank)
	s.route(http.MethodPost, "/v1/rerank/batch", s.handleRerankBatch)
	s.route(http.MethodPost, "/v1/detect", s.handleDetect)
	s.route(http.MethodGet, "/v1/sources", s.handleListSources)
	s.route(http.MethodPost, "/v1/sources/{name}/rerank", s.handleSourceRerank)

	if s.metrics != nil && s.config.Metrics.Enabled {
		s.mux.Handle("GET "+s.config.Metrics.Path, s.metrics.Handler())
	}
}

// route registers h for method and path, and a JSON 405 response for any
// other method on the same path.
func (s *Server) route(method, path string, h http.HandlerFunc) {
	s.mux.HandleFunc(method+" "+path, h)
	s.mux.HandleFunc(path, s.methodNotAllowed(method))
}
