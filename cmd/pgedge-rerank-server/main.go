//-------------------------------------------------------------------------
//
// pgEdge Rerank Server
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pgEdge/pgedge-rerank-server/internal/config"
	"github.com/pgEdge/pgedge-rerank-server/internal/logging"
	"github.com/pgEdge/pgedge-rerank-server/internal/metrics"
	"github.com/pgEdge/pgedge-rerank-server/internal/rerank"
	"github.com/pgEdge/pgedge-rerank-server/internal/server"
	"github.com/pgEdge/pgedge-rerank-server/internal/source"
)

// Version information - set via ldflags during build
var (
	version   = "1.0.0-alpha1"
	buildTime = "unknown"
	gitCommit = "unknown"
)

func main() {
	var (
		showVersion = flag.Bool("version", false, "Show version information")
		showHelp    = flag.Bool("help", false, "Show help message")
		showOpenAPI = flag.Bool("openapi", false, "Output OpenAPI specification and exit")
		configPath  = flag.String("config", "", "Path to configuration file")
		logLevel    = flag.String("log-level", "", "Override logging.level from the configuration")
	)

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `pgEdge Rerank Server - lexical BM25 reranking for retrieval pipelines

Usage:
    pgedge-rerank-server [options]

Options:
    -config string
        Path to configuration file. If not specified, searches:
        1. /etc/pgedge/pgedge-rerank-server.yaml
        2. pgedge-rerank-server.yaml (in binary directory)
        and falls back to built-in defaults when neither exists.

    -log-level string
        Override the configured log level (debug, info, warn, error)

    -openapi
        Output OpenAPI v3 specification as JSON and exit

    -version
        Show version information and exit

    -help
        Show this help message and exit

For more information, visit: https://github.com/pgEdge/pgedge-rerank-server
`)
	}

	flag.Parse()

	if *showHelp {
		flag.Usage()
		os.Exit(0)
	}

	if *showVersion {
		fmt.Printf("pgEdge Rerank Server\n")
		fmt.Printf("  Version:    %s\n", version)
		fmt.Printf("  Build Time: %s\n", buildTime)
		fmt.Printf("  Git Commit: %s\n", gitCommit)
		os.Exit(0)
	}

	if *showOpenAPI {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(server.BuildOpenAPISpec()); err != nil {
			fmt.Fprintf(os.Stderr, "failed to encode OpenAPI spec: %v\n", err)
			os.Exit(1)
		}
		os.Exit(0)
	}

	cfg, err := config.LoadOptional(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	level := cfg.Logging.Level
	if *logLevel != "" {
		level = *logLevel
	}
	logger, err := logging.New(os.Stdout, level, cfg.Logging.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	logger.Info("configuration loaded",
		"sources", len(cfg.Sources),
		"metrics", cfg.Metrics.Enabled)

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
	}

	engine, err := rerank.NewFromConfig(cfg, m, logger)
	if err != nil {
		return fmt.Errorf("failed to create rerank engine: %w", err)
	}

	batch, err := rerank.NewBatchRunner(engine, cfg.Rerank.BatchWorkers)
	if err != nil {
		return fmt.Errorf("failed to create batch runner: %w", err)
	}
	defer batch.Close()

	connectCtx, cancelConnect := context.WithTimeout(context.Background(), 30*time.Second)
	sources, err := source.NewManager(connectCtx, source.ManagerConfig{
		Sources: cfg.Sources,
		Logger:  logger,
	})
	cancelConnect()
	if err != nil {
		return fmt.Errorf("failed to create source manager: %w", err)
	}
	defer func() {
		if err := sources.Close(); err != nil {
			logger.Error("failed to close source manager", "error", err)
		}
	}()

	srv := server.New(server.Options{
		Config:  cfg,
		Engine:  engine,
		Batch:   batch,
		Sources: sources,
		Metrics: m,
		Logger:  logger,
	})

	// Handle graceful shutdown
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, os.Interrupt, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case sig := <-shutdownCh:
		logger.Info("received shutdown signal", "signal", sig)

		// Give 30 seconds for graceful shutdown
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		return srv.Shutdown(ctx)
	}
}
