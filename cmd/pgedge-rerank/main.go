//-------------------------------------------------------------------------
//
// pgEdge Rerank Server
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Command pgedge-rerank reranks documents from a file or stdin and exposes
// the language detection and tokenization used for scoring.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/pgEdge/pgedge-rerank-server/internal/analysis"
	"github.com/pgEdge/pgedge-rerank-server/internal/config"
	"github.com/pgEdge/pgedge-rerank-server/internal/language"
	"github.com/pgEdge/pgedge-rerank-server/internal/logging"
	"github.com/pgEdge/pgedge-rerank-server/internal/rerank"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "pgedge-rerank",
		Usage: "Lexical BM25 reranking from the command line",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "warn",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to a server configuration file for rerank and language settings",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:      "rerank",
				Usage:     "Rerank documents against a query",
				ArgsUsage: " ",
				Action:    rerankCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "query",
						Aliases:  []string{"q"},
						Usage:    "Query text",
						Required: true,
					},
					&cli.IntFlag{
						Name:    "limit",
						Aliases: []string{"n"},
						Usage:   "Maximum number of documents to return (defaults to rerank.default_limit)",
					},
					&cli.StringFlag{
						Name:    "input",
						Aliases: []string{"i"},
						Usage:   "Documents file: JSON array, JSON lines or one document per line; - reads stdin",
						Value:   "-",
					},
					&cli.StringFlag{
						Name:  "format",
						Usage: "Output format (text, json)",
						Value: "text",
					},
					&cli.BoolFlag{
						Name:  "scores",
						Usage: "Include BM25 scores in the output",
					},
					&cli.StringFlag{
						Name:  "join",
						Usage: "Print the ranked contents joined by this separator",
					},
					&cli.Float64Flag{
						Name:  "k1",
						Usage: "Override the BM25 term frequency saturation",
					},
					&cli.Float64Flag{
						Name:  "b",
						Usage: "Override the BM25 length normalization",
					},
					&cli.BoolFlag{
						Name:  "no-dedupe",
						Usage: "Weight repeated query terms once per occurrence",
					},
				},
			},
			{
				Name:      "detect",
				Usage:     "Print the detected language of a text",
				ArgsUsage: "TEXT...",
				Action:    detectCommand,
			},
			{
				Name:      "tokenize",
				Usage:     "Print the terms a text is scored with",
				ArgsUsage: "TEXT...",
				Action:    tokenizeCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "language",
						Usage: "Analyze as this language instead of detecting it",
					},
				},
			},
		},
	}
}

func setupLogger(c *cli.Context) error {
	logger, err := logging.New(c.App.ErrWriter, c.String("log-level"), "text")
	if err != nil {
		return err
	}
	slog.SetDefault(logger)
	return nil
}

// loadConfig reads the optional configuration file and applies the
// command line overrides.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.LoadOptional(c.String("config"))
	if err != nil {
		return nil, err
	}

	if c.IsSet("k1") {
		k1 := c.Float64("k1")
		cfg.Rerank.K1 = &k1
	}
	if c.IsSet("b") {
		b := c.Float64("b")
		cfg.Rerank.B = &b
	}
	if c.Bool("no-dedupe") {
		dedupe := false
		cfg.Rerank.DedupeQueryTerms = &dedupe
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newEngine(c *cli.Context) (*rerank.Engine, *config.Config, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, nil, err
	}
	engine, err := rerank.NewFromConfig(cfg, nil, slog.Default())
	if err != nil {
		return nil, nil, err
	}
	return engine, cfg, nil
}

func openInput(c *cli.Context, path string) (io.ReadCloser, error) {
	if path == "" || path == "-" {
		return io.NopCloser(c.App.Reader), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input: %w", err)
	}
	return f, nil
}

func rerankCommand(c *cli.Context) error {
	format := c.String("format")
	if format != "text" && format != "json" {
		return fmt.Errorf("unsupported format %q (must be text or json)", format)
	}

	engine, cfg, err := newEngine(c)
	if err != nil {
		return err
	}

	input, err := openInput(c, c.String("input"))
	if err != nil {
		return err
	}
	docs, err := readDocuments(input)
	input.Close()
	if err != nil {
		return err
	}

	limit := cfg.Rerank.DefaultLimit
	if c.IsSet("limit") {
		limit = c.Int("limit")
	}

	scored, err := engine.RerankScored(docs, c.String("query"), limit)
	if err != nil {
		return err
	}
	slog.Debug("reranked documents",
		"candidates", len(docs),
		"returned", len(scored),
		"query_language", engine.QueryLanguage(c.String("query")).String())

	w := c.App.Writer
	if c.IsSet("join") {
		_, err := fmt.Fprintln(w, rerank.JoinContents(rerank.Documents(scored), c.String("join")))
		return err
	}

	if format == "json" {
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		if c.Bool("scores") {
			return encoder.Encode(scored)
		}
		return encoder.Encode(rerank.Documents(scored))
	}

	for _, s := range scored {
		var err error
		if c.Bool("scores") {
			_, err = fmt.Fprintf(w, "%.4f\t%s\n", s.Score, s.Content)
		} else {
			_, err = fmt.Fprintln(w, s.Content)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func textArg(c *cli.Context) (string, error) {
	text := strings.Join(c.Args().Slice(), " ")
	if strings.TrimSpace(text) == "" {
		return "", errors.New("text is required")
	}
	return text, nil
}

func detectCommand(c *cli.Context) error {
	text, err := textArg(c)
	if err != nil {
		return err
	}

	engine, _, err := newEngine(c)
	if err != nil {
		return err
	}

	lang := engine.QueryLanguage(text)
	_, err = fmt.Fprintf(c.App.Writer, "%s\t%s\n", lang, lang.ISOCode())
	return err
}

func tokenizeCommand(c *cli.Context) error {
	text, err := textArg(c)
	if err != nil {
		return err
	}

	var (
		lang   language.Language
		tokens []string
	)
	if name := c.String("language"); name != "" {
		cfg, err := loadConfig(c)
		if err != nil {
			return err
		}
		lang, err = language.Parse(name)
		if err != nil {
			return err
		}
		pipeline := analysis.NewPipeline(language.Fixed(lang), analysis.NewProvider(analysis.ProviderOptions{
			MinTokenLength: cfg.Rerank.MinTokenLength,
			Fallback:       lang,
		}))
		_, tokens, err = pipeline.Analyze(text)
		if err != nil {
			return err
		}
	} else {
		engine, _, err := newEngine(c)
		if err != nil {
			return err
		}
		lang, tokens, err = engine.Analyze(text)
		if err != nil {
			return err
		}
	}

	_, err = fmt.Fprintf(c.App.Writer, "%s\t%s\n", lang, strings.Join(tokens, " "))
	return err
}
