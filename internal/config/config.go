//-------------------------------------------------------------------------
//
// pgEdge Rerank Server
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package config handles configuration loading and validation for the
// pgEdge Rerank Server.
package config

import (
	"fmt"

	"github.com/pgEdge/pgedge-rerank-server/internal/bm25"
)

// Config is the root configuration structure for the server.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Logging  LoggingConfig  `yaml:"logging"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Rerank   RerankConfig   `yaml:"rerank"`
	Language LanguageConfig `yaml:"language"`
	Sources  []Source       `yaml:"sources"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	ListenAddress string     `yaml:"listen_address"`
	Port          int        `yaml:"port"`
	TLS           TLSConfig  `yaml:"tls"`
	CORS          CORSConfig `yaml:"cors"`
}

// CORSConfig contains CORS (Cross-Origin Resource Sharing) settings.
type CORSConfig struct {
	Enabled        bool     `yaml:"enabled"`
	AllowedOrigins []string `yaml:"allowed_origins"` // Origins to allow, or ["*"] for all
}

// TLSConfig contains TLS/HTTPS settings.
type TLSConfig struct {
	Enabled  bool   `yaml:"enabled"`
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
}

// LoggingConfig selects the slog handler.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text or json
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// RerankConfig contains the ranking parameters. Pointer fields distinguish
// an explicit zero from an omitted value.
type RerankConfig struct {
	K1               *float64 `yaml:"k1"`
	B                *float64 `yaml:"b"`
	DedupeQueryTerms *bool    `yaml:"dedupe_query_terms"`
	DefaultLimit     int      `yaml:"default_limit"`
	MaxCandidates    int      `yaml:"max_candidates"`
	MinTokenLength   int      `yaml:"min_token_length"`
	BatchWorkers     int      `yaml:"batch_workers"` // 0 means one per CPU
	CandidateFactor  int      `yaml:"candidate_factor"`
}

// LanguageConfig configures query and document language detection.
type LanguageConfig struct {
	Languages           []string `yaml:"languages"`
	Fallback            string   `yaml:"fallback"`
	MinRelativeDistance float64  `yaml:"min_relative_distance"`
	PreloadModels       bool     `yaml:"preload_models"`
}

// Source is a PostgreSQL table that candidate documents can be fetched
// from by ID.
type Source struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Database    DatabaseConfig `yaml:"database"`
	Table       string         `yaml:"table"`
	IDColumn    string         `yaml:"id_column"`
	TextColumn  string         `yaml:"text_column"`
	Filter      *ConfigFilter  `yaml:"filter"` // Optional filter (raw SQL or structured)
}

// DatabaseConfig contains PostgreSQL connection settings.
type DatabaseConfig struct {
	Host         string `yaml:"host"`
	Port         int    `yaml:"port"`
	Database     string `yaml:"database"`
	Username     string `yaml:"username"`
	Password     string `yaml:"password"`
	PasswordFile string `yaml:"password_file"`
	SSLMode      string `yaml:"ssl_mode"`

	// Certificate-based authentication
	SSLCert   string `yaml:"ssl_cert"`
	SSLKey    string `yaml:"ssl_key"`
	SSLRootCA string `yaml:"ssl_root_ca"`
}

// FilterCondition represents a single filter condition.
type FilterCondition struct {
	Column   string      `json:"column" yaml:"column"`
	Operator string      `json:"operator" yaml:"operator"`
	Value    interface{} `json:"value" yaml:"value"`
}

// Filter represents a collection of conditions with logical operators.
type Filter struct {
	Conditions []FilterCondition `json:"conditions" yaml:"conditions"`
	Logic      string            `json:"logic,omitempty" yaml:"logic,omitempty"` // "AND" or "OR", default "AND"
}

// ConfigFilter restricts the rows a source may return. It is either a raw
// SQL fragment (admin use) or a structured filter.
type ConfigFilter struct {
	RawSQL     string
	Structured *Filter
}

// UnmarshalYAML allows filter to be specified as either a string or a
// structured object.
func (cf *ConfigFilter) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err == nil {
		cf.RawSQL = s
		return nil
	}

	var f Filter
	if err := unmarshal(&f); err == nil {
		cf.Structured = &f
		return nil
	}

	return fmt.Errorf("filter must be a string or structured filter object")
}

// Default values applied when the configuration leaves them unset.
const (
	DefaultPort            = 8080
	DefaultDefaultLimit    = 10
	DefaultMaxCandidates   = 1000
	DefaultMinTokenLength  = 1
	DefaultCandidateFactor = 2
	DefaultMetricsPath     = "/metrics"
	DefaultDatabasePort    = 5432
	DefaultSSLMode         = "prefer"
)

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			ListenAddress: "0.0.0.0",
			Port:          DefaultPort,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    DefaultMetricsPath,
		},
		Rerank: RerankConfig{
			DefaultLimit:    DefaultDefaultLimit,
			MaxCandidates:   DefaultMaxCandidates,
			MinTokenLength:  DefaultMinTokenLength,
			CandidateFactor: DefaultCandidateFactor,
		},
		Language: LanguageConfig{
			Languages: []string{"english", "russian"},
			Fallback:  "english",
		},
	}
}

// EffectiveK1 returns the configured k1, or the standard value when omitted.
func (r RerankConfig) EffectiveK1() float64 {
	if r.K1 == nil {
		return bm25.DefaultK1
	}
	return *r.K1
}

// EffectiveB returns the configured b, or the standard value when omitted.
func (r RerankConfig) EffectiveB() float64 {
	if r.B == nil {
		return bm25.DefaultB
	}
	return *r.B
}

// EffectiveDedupe reports whether repeated query terms count once.
// Defaults to true.
func (r RerankConfig) EffectiveDedupe() bool {
	if r.DedupeQueryTerms == nil {
		return true
	}
	return *r.DedupeQueryTerms
}
