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
	"fmt"
	"log/slog"

	"github.com/pgEdge/pgedge-rerank-server/internal/analysis"
	"github.com/pgEdge/pgedge-rerank-server/internal/config"
	"github.com/pgEdge/pgedge-rerank-server/internal/language"
	"github.com/pgEdge/pgedge-rerank-server/internal/metrics"
)

// NewFromConfig builds the language detector, the analyzers and the engine
// described by cfg. m may be nil.
func NewFromConfig(cfg *config.Config, m *metrics.Metrics, logger *slog.Logger) (*Engine, error) {
	if logger == nil {
		logger = slog.Default()
	}

	langs, err := language.ParseAll(cfg.Language.Languages)
	if err != nil {
		return nil, err
	}
	fallback, err := language.Parse(cfg.Language.Fallback)
	if err != nil {
		return nil, err
	}

	detector, err := language.NewDetector(language.Options{
		Languages:           langs,
		Fallback:            fallback,
		MinRelativeDistance: cfg.Language.MinRelativeDistance,
		Preload:             cfg.Language.PreloadModels,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create language detector: %w", err)
	}

	provider := analysis.NewProvider(analysis.ProviderOptions{
		MinTokenLength: cfg.Rerank.MinTokenLength,
		Fallback:       fallback,
	})

	engine, err := New(Config{
		K1:               cfg.Rerank.EffectiveK1(),
		B:                cfg.Rerank.EffectiveB(),
		DedupeQueryTerms: cfg.Rerank.EffectiveDedupe(),
		Analyzer:         analysis.NewPipeline(detector, provider),
		Metrics:          m,
		Logger:           logger.With("component", "rerank"),
	})
	if err != nil {
		return nil, err
	}

	logger.Info("rerank engine ready",
		"languages", cfg.Language.Languages,
		"fallback", fallback.String(),
		"k1", engine.k1,
		"b", engine.b,
		"dedupe_query_terms", engine.dedupe,
	)

	return engine, nil
}
