//-------------------------------------------------------------------------
//
// pgEdge Rerank Server
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package rerank

import (
	"cmp"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/pgEdge/pgedge-rerank-server/internal/analysis"
	"github.com/pgEdge/pgedge-rerank-server/internal/bm25"
	"github.com/pgEdge/pgedge-rerank-server/internal/language"
	"github.com/pgEdge/pgedge-rerank-server/internal/metrics"
)

// Engine reranks candidate sets. It holds no per-call state and is safe
// for concurrent use.
type Engine struct {
	k1       float64
	b        float64
	dedupe   bool
	analyzer *analysis.Pipeline
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

// Config contains the configuration for creating an Engine.
type Config struct {
	// K1 and B are the BM25 parameters, used as given. B=0 disables
	// length normalization.
	K1 float64
	B  float64

	// DedupeQueryTerms counts every distinct query term once. When false a
	// term repeated in the query is weighted once per occurrence.
	DedupeQueryTerms bool

	// Analyzer detects languages and tokenizes. Required.
	Analyzer *analysis.Pipeline

	// Metrics is optional.
	Metrics *metrics.Metrics

	Logger *slog.Logger
}

// DefaultConfig returns the standard BM25 parameters with query-term
// deduplication enabled. The analyzer still has to be set.
func DefaultConfig() Config {
	return Config{
		K1:               bm25.DefaultK1,
		B:                bm25.DefaultB,
		DedupeQueryTerms: true,
	}
}

// New creates a rerank engine.
func New(cfg Config) (*Engine, error) {
	if cfg.Analyzer == nil {
		return nil, errors.New("analyzer is required")
	}

	k1, b := cfg.K1, cfg.B
	if k1 < 0 {
		return nil, fmt.Errorf("k1 must be non-negative, got %g", k1)
	}
	if b < 0 || b > 1 {
		return nil, fmt.Errorf("b must be between 0 and 1, got %g", b)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Engine{
		k1:       k1,
		b:        b,
		dedupe:   cfg.DedupeQueryTerms,
		analyzer: cfg.Analyzer,
		metrics:  cfg.Metrics,
		logger:   logger,
	}, nil
}

// Rerank returns at most limit documents from docs ordered by BM25
// relevance to query. Documents with equal scores keep their input order.
// Documents without text or with text that cannot be analyzed are not
// returned; text that analyzes to no terms scores 0. An empty result
// means no relevant context and is not an error; only a negative limit is.
func (e *Engine) Rerank(docs []Document, query string, limit int) ([]Document, error) {
	scored, err := e.RerankScored(docs, query, limit)
	if err != nil {
		return nil, err
	}
	return Documents(scored), nil
}

// RerankScored is Rerank returning the scores alongside the documents.
func (e *Engine) RerankScored(docs []Document, query string, limit int) ([]ScoredDocument, error) {
	if limit < 0 {
		e.observeOutcome(metrics.OutcomeInvalid)
		return nil, fmt.Errorf("%w: %d", ErrInvalidLimit, limit)
	}

	start := time.Now()
	result := e.rank(docs, query, limit)

	if e.metrics != nil {
		e.metrics.RerankDuration.Observe(time.Since(start).Seconds())
		e.metrics.RerankCandidates.Observe(float64(len(docs)))
		e.metrics.RerankReturned.Observe(float64(len(result)))
	}
	if len(result) == 0 {
		e.observeOutcome(metrics.OutcomeEmpty)
	} else {
		e.observeOutcome(metrics.OutcomeRanked)
	}

	return result, nil
}

func (e *Engine) rank(docs []Document, query string, limit int) []ScoredDocument {
	if len(docs) == 0 || limit == 0 {
		return []ScoredDocument{}
	}

	texts := make([]string, len(docs))
	for i, d := range docs {
		texts[i] = d.Content
	}

	stats := bm25.BuildCorpus(texts, e.analyzer)
	e.observeSkipped(stats)

	if stats.TotalDocs == 0 {
		e.logger.Debug("no tokenizable candidates",
			"candidates", len(docs),
			"empty", stats.Empty,
			"malformed", stats.Malformed,
		)
		return []ScoredDocument{}
	}

	queryLang, queryTokens, err := e.analyzer.Analyze(query)
	if err != nil {
		// An unusable query matches nothing; candidates keep their order.
		e.logger.Debug("query could not be tokenized", "error", err)
		queryTokens = nil
	} else if e.metrics != nil {
		e.metrics.DetectedLanguages.WithLabelValues(queryLang.String()).Inc()
	}
	queryTerms := bm25.QueryTerms(queryTokens, e.dedupe)

	scorer := bm25.ForCorpus(e.k1, e.b, stats)

	scored := make([]ScoredDocument, 0, stats.TotalDocs+len(stats.Tokenless))
	for i, d := range docs {
		if !stats.Scorable(i) {
			continue
		}
		var score float64
		if docStats, ok := stats.Docs[i]; ok {
			score = scorer.ScoreDocument(queryTerms, docStats, stats.DocFreqs)
		}
		scored = append(scored, ScoredDocument{
			Document: d,
			Score:    score,
			Position: i,
		})
	}

	slices.SortStableFunc(scored, func(a, b ScoredDocument) int {
		return cmp.Compare(b.Score, a.Score)
	})

	if len(scored) > limit {
		scored = scored[:limit]
	}

	e.logger.Debug("reranked candidates",
		"candidates", len(docs),
		"ranked", stats.TotalDocs,
		"tokenless", len(stats.Tokenless),
		"returned", len(scored),
		"query_language", queryLang.String(),
		"query_terms", len(queryTerms),
		"avg_doc_length", stats.AvgDocLength,
	)

	return scored
}

// QueryLanguage reports the language the engine detects for query.
func (e *Engine) QueryLanguage(query string) language.Language {
	return e.analyzer.Detect(query)
}

// Analyze exposes the engine's analysis of a single text.
func (e *Engine) Analyze(text string) (language.Language, []string, error) {
	return e.analyzer.Analyze(text)
}

func (e *Engine) observeOutcome(outcome string) {
	if e.metrics != nil {
		e.metrics.RerankTotal.WithLabelValues(outcome).Inc()
	}
}

func (e *Engine) observeSkipped(stats *bm25.CorpusStats) {
	if e.metrics == nil {
		return
	}
	if stats.Empty > 0 {
		e.metrics.SkippedDocuments.WithLabelValues("empty").Add(float64(stats.Empty))
	}
	if stats.Malformed > 0 {
		e.metrics.SkippedDocuments.WithLabelValues("malformed").Add(float64(stats.Malformed))
	}
}
