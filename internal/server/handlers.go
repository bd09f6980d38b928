//-------------------------------------------------------------------------
//
// pgEdge Rerank Server
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/pgEdge/pgedge-rerank-server/internal/config"
	"github.com/pgEdge/pgedge-rerank-server/internal/database"
	"github.com/pgEdge/pgedge-rerank-server/internal/rerank"
	"github.com/pgEdge/pgedge-rerank-server/internal/source"
)

// HealthResponse is the response for the health check endpoint.
type HealthResponse struct {
	Status  string            `json:"status"`
	Sources map[string]string `json:"sources,omitempty"`
}

// RerankRequest is the body of POST /v1/rerank and one entry of a batch.
type RerankRequest struct {
	Query         string            `json:"query"`
	Limit         *int              `json:"limit,omitempty"`
	Documents     []rerank.Document `json:"documents"`
	IncludeScores bool              `json:"include_scores,omitempty"`
}

// RankedDocument is a document in a rerank response.
type RankedDocument struct {
	ID       string         `json:"id,omitempty"`
	Content  string         `json:"content"`
	Metadata map[string]any `json:"metadata,omitempty"`
	Score    *float64       `json:"score,omitempty"`
}

// RerankResponse is the response for the rerank endpoints.
type RerankResponse struct {
	Documents []RankedDocument `json:"documents"`
}

// BatchRerankRequest is the body of POST /v1/rerank/batch.
type BatchRerankRequest struct {
	Requests []RerankRequest `json:"requests"`
}

// BatchItem is the outcome of one batch entry. Documents is null when
// Error is set.
type BatchItem struct {
	Documents []RankedDocument `json:"documents"`
	Error     *ErrorDetail     `json:"error,omitempty"`
}

// BatchRerankResponse is the response for the batch endpoint.
type BatchRerankResponse struct {
	Results []BatchItem `json:"results"`
}

// SourceRerankRequest is the body of POST /v1/sources/{name}/rerank.
type SourceRerankRequest struct {
	Query         string         `json:"query"`
	Limit         *int           `json:"limit,omitempty"`
	IDs           []string       `json:"ids"`
	Filter        *config.Filter `json:"filter,omitempty"`
	IncludeScores bool           `json:"include_scores,omitempty"`
}

// SourcesResponse is the response for the list sources endpoint.
type SourcesResponse struct {
	Sources []source.Info `json:"sources"`

	// CandidateFactor tells clients how many candidates to fetch per
	// requested result.
	CandidateFactor int `json:"candidate_factor"`
}

// DetectRequest is the body of POST /v1/detect.
type DetectRequest struct {
	Text string `json:"text"`
}

// DetectResponse reports the language and analysis tokens of a text.
type DetectResponse struct {
	Language string   `json:"language"`
	ISOCode  string   `json:"iso_code"`
	Tokens   []string `json:"tokens"`
}

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// requestError is a client error detected while validating a request.
type requestError struct {
	status int
	code   string
	msg    string
}

func (e *requestError) Error() string { return e.msg }

func invalidRequest(format string, args ...any) *requestError {
	return &requestError{
		status: http.StatusBadRequest,
		code:   "INVALID_REQUEST",
		msg:    fmt.Sprintf(format, args...),
	}
}

// handleHealth handles the GET /v1/health endpoint.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{Status: "healthy"}
	status := http.StatusOK

	if s.sources != nil {
		results := s.sources.Ping(r.Context())
		if len(results) > 0 {
			resp.Sources = make(map[string]string, len(results))
		}
		for name, err := range results {
			if err != nil {
				resp.Sources[name] = "unavailable"
				resp.Status = "degraded"
				status = http.StatusServiceUnavailable
				continue
			}
			resp.Sources[name] = "ok"
		}
	}

	s.respondJSON(w, status, resp)
}

// handleRerank handles the POST /v1/rerank endpoint.
func (s *Server) handleRerank(w http.ResponseWriter, r *http.Request) {
	var req RerankRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	if err := s.validateCandidates(len(req.Documents)); err != nil {
		s.respondRequestError(w, err)
		return
	}

	scored, err := s.engine.RerankScored(req.Documents, req.Query, s.limit(req.Limit))
	if err != nil {
		s.respondRerankError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, RerankResponse{
		Documents: rankedDocuments(scored, req.IncludeScores),
	})
}

// handleRerankBatch handles the POST /v1/rerank/batch endpoint.
func (s *Server) handleRerankBatch(w http.ResponseWriter, r *http.Request) {
	if s.batch == nil {
		s.respondError(w, http.StatusServiceUnavailable, "BATCH_DISABLED", "batch reranking is not enabled")
		return
	}

	var req BatchRerankRequest
	if !s.decodeBody(w, r, &req) {
		return
	}
	if len(req.Requests) == 0 {
		s.respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "requests must not be empty")
		return
	}

	items := make([]BatchItem, len(req.Requests))
	jobs := make([]rerank.BatchRequest, 0, len(req.Requests))
	jobIndex := make([]int, 0, len(req.Requests))

	for i, rr := range req.Requests {
		if err := s.validateCandidates(len(rr.Documents)); err != nil {
			items[i].Error = &ErrorDetail{Code: err.code, Message: err.msg}
			continue
		}
		jobs = append(jobs, rerank.BatchRequest{
			Documents: rr.Documents,
			Query:     rr.Query,
			Limit:     s.limit(rr.Limit),
		})
		jobIndex = append(jobIndex, i)
	}

	results, err := s.batch.Run(r.Context(), jobs)
	if err != nil {
		s.logger.Error("batch rerank failed", "error", err)
		s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		return
	}

	for j, res := range results {
		i := jobIndex[j]
		if res.Err != nil {
			code := "INTERNAL_ERROR"
			if errors.Is(res.Err, rerank.ErrInvalidLimit) {
				code = "INVALID_REQUEST"
			}
			items[i].Error = &ErrorDetail{Code: code, Message: res.Err.Error()}
			continue
		}
		items[i].Documents = rankedDocuments(res.Documents, req.Requests[i].IncludeScores)
	}

	s.respondJSON(w, http.StatusOK, BatchRerankResponse{Results: items})
}

// handleListSources handles the GET /v1/sources endpoint.
func (s *Server) handleListSources(w http.ResponseWriter, r *http.Request) {
	infos := []source.Info{}
	if s.sources != nil {
		infos = s.sources.List()
	}

	s.respondJSON(w, http.StatusOK, SourcesResponse{
		Sources:         infos,
		CandidateFactor: s.config.Rerank.CandidateFactor,
	})
}

// handleSourceRerank handles the POST /v1/sources/{name}/rerank endpoint.
func (s *Server) handleSourceRerank(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if name == "" {
		s.respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "source name required")
		return
	}

	var req SourceRerankRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	if err := s.validateCandidates(len(req.IDs)); err != nil {
		s.respondRequestError(w, err)
		return
	}
	if err := database.ValidateFilter(req.Filter); err != nil {
		s.respondError(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	if s.sources == nil {
		s.respondError(w, http.StatusNotFound, "SOURCE_NOT_FOUND", "source not found: "+name)
		return
	}

	docs, err := s.sources.Fetch(r.Context(), name, req.IDs, req.Filter)
	if err != nil {
		if errors.Is(err, source.ErrSourceNotFound) {
			s.respondError(w, http.StatusNotFound, "SOURCE_NOT_FOUND", "source not found: "+name)
			return
		}
		s.logger.Error("failed to fetch documents",
			"source", name,
			"error", err)
		s.respondError(w, http.StatusBadGateway, "FETCH_ERROR", err.Error())
		return
	}

	scored, err := s.engine.RerankScored(docs, req.Query, s.limit(req.Limit))
	if err != nil {
		s.respondRerankError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, RerankResponse{
		Documents: rankedDocuments(scored, req.IncludeScores),
	})
}

// handleDetect handles the POST /v1/detect endpoint.
func (s *Server) handleDetect(w http.ResponseWriter, r *http.Request) {
	var req DetectRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	lang, tokens, err := s.engine.Analyze(req.Text)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}
	if tokens == nil {
		tokens = []string{}
	}

	s.respondJSON(w, http.StatusOK, DetectResponse{
		Language: lang.String(),
		ISOCode:  lang.ISOCode(),
		Tokens:   tokens,
	})
}

// decodeBody parses a JSON request body, responding with 400 on failure.
func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.respondError(w, http.StatusBadRequest, "INVALID_REQUEST",
			"invalid request body: "+err.Error())
		return false
	}
	return true
}

// limit resolves an omitted limit to the configured default.
func (s *Server) limit(l *int) int {
	if l == nil {
		return s.config.Rerank.DefaultLimit
	}
	return *l
}

func (s *Server) validateCandidates(n int) *requestError {
	if maxCandidates := s.config.Rerank.MaxCandidates; maxCandidates > 0 && n > maxCandidates {
		return invalidRequest("too many candidates: %d (maximum %d)", n, maxCandidates)
	}
	return nil
}

func rankedDocuments(scored []rerank.ScoredDocument, includeScores bool) []RankedDocument {
	out := make([]RankedDocument, len(scored))
	for i, sd := range scored {
		out[i] = RankedDocument{
			ID:       sd.ID,
			Content:  sd.Content,
			Metadata: sd.Metadata,
		}
		if includeScores {
			score := sd.Score
			out[i].Score = &score
		}
	}
	return out
}

// respondRerankError maps engine errors to HTTP responses.
func (s *Server) respondRerankError(w http.ResponseWriter, err error) {
	if errors.Is(err, rerank.ErrInvalidLimit) {
		s.respondError(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}
	s.logger.Error("rerank failed", "error", err)
	s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
}

func (s *Server) respondRequestError(w http.ResponseWriter, err *requestError) {
	s.respondError(w, err.status, err.code, err.msg)
}

// methodNotAllowed answers requests to a known path with the wrong method.
func (s *Server) methodNotAllowed(allowed string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Allow", allowed)
		s.respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED",
			"method not allowed")
	}
}

// respondJSON sends a JSON response with RFC 8631 Link header for API discovery.
func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	// RFC 8631: Link header for API documentation discovery
	w.Header().Set("Link", `</v1/openapi.json>; rel="service-desc"`)
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}

// respondError sends an error response.
func (s *Server) respondError(w http.ResponseWriter, status int, code, message string) {
	s.respondJSON(w, status, ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
		},
	})
}
