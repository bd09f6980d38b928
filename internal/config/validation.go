//-------------------------------------------------------------------------
//
// pgEdge Rerank Server
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pgEdge/pgedge-rerank-server/internal/language"
)

// expandPath expands ~ to the user's home directory.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(homeDir, path[2:])
	}
	return path
}

// ValidationError represents a single configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}

	msgs := make([]string, 0, len(e))
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate checks the configuration for errors and returns all validation
// errors found.
func (c *Config) Validate() error {
	var errs ValidationErrors

	errs = append(errs, c.validateServer()...)
	errs = append(errs, c.validateLogging()...)
	errs = append(errs, c.validateMetrics()...)
	errs = append(errs, c.validateRerank()...)
	errs = append(errs, c.validateLanguage()...)
	errs = append(errs, c.validateSources()...)

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// validateServer validates server configuration.
func (c *Config) validateServer() ValidationErrors {
	var errs ValidationErrors

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, ValidationError{
			Field:   "server.port",
			Message: "must be between 1 and 65535",
		})
	}

	if c.Server.TLS.Enabled {
		errs = append(errs, requireFile("server.tls.cert_file", c.Server.TLS.CertFile)...)
		errs = append(errs, requireFile("server.tls.key_file", c.Server.TLS.KeyFile)...)
	}

	return errs
}

func requireFile(field, path string) ValidationErrors {
	if path == "" {
		return ValidationErrors{{Field: field, Message: "required when TLS is enabled"}}
	}
	if _, err := os.Stat(expandPath(path)); err != nil {
		return ValidationErrors{{Field: field, Message: fmt.Sprintf("file not found: %s", path)}}
	}
	return nil
}

func (c *Config) validateLogging() ValidationErrors {
	var errs ValidationErrors

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, ValidationError{
			Field:   "logging.level",
			Message: "must be one of: debug, info, warn, error",
		})
	}

	switch c.Logging.Format {
	case "text", "json":
	default:
		errs = append(errs, ValidationError{
			Field:   "logging.format",
			Message: "must be one of: text, json",
		})
	}

	return errs
}

func (c *Config) validateMetrics() ValidationErrors {
	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		return ValidationErrors{{Field: "metrics.path", Message: "must start with /"}}
	}
	return nil
}

// validateRerank validates the ranking parameters.
func (c *Config) validateRerank() ValidationErrors {
	var errs ValidationErrors
	r := c.Rerank

	if k1 := r.EffectiveK1(); k1 < 0 {
		errs = append(errs, ValidationError{
			Field:   "rerank.k1",
			Message: "must be non-negative",
		})
	}

	if b := r.EffectiveB(); b < 0 || b > 1 {
		errs = append(errs, ValidationError{
			Field:   "rerank.b",
			Message: "must be between 0 and 1",
		})
	}

	if r.DefaultLimit < 0 {
		errs = append(errs, ValidationError{
			Field:   "rerank.default_limit",
			Message: "must be non-negative",
		})
	}

	if r.MaxCandidates < 1 {
		errs = append(errs, ValidationError{
			Field:   "rerank.max_candidates",
			Message: "must be positive",
		})
	}

	if r.MinTokenLength < 1 {
		errs = append(errs, ValidationError{
			Field:   "rerank.min_token_length",
			Message: "must be positive",
		})
	}

	if r.BatchWorkers < 0 {
		errs = append(errs, ValidationError{
			Field:   "rerank.batch_workers",
			Message: "must be non-negative",
		})
	}

	if r.CandidateFactor < 1 {
		errs = append(errs, ValidationError{
			Field:   "rerank.candidate_factor",
			Message: "must be positive",
		})
	}

	return errs
}

// validateLanguage checks that the detector can be built from the
// configured language set.
func (c *Config) validateLanguage() ValidationErrors {
	var errs ValidationErrors
	l := c.Language

	langs, err := language.ParseAll(l.Languages)
	if err != nil {
		errs = append(errs, ValidationError{
			Field:   "language.languages",
			Message: err.Error(),
		})
	} else if len(langs) < 2 {
		errs = append(errs, ValidationError{
			Field:   "language.languages",
			Message: "at least two languages must be configured",
		})
	}

	fallback, err := language.Parse(l.Fallback)
	if err != nil {
		errs = append(errs, ValidationError{
			Field:   "language.fallback",
			Message: err.Error(),
		})
	} else if langs != nil && !containsLanguage(langs, fallback) {
		errs = append(errs, ValidationError{
			Field:   "language.fallback",
			Message: fmt.Sprintf("%s is not in language.languages", fallback),
		})
	}

	if l.MinRelativeDistance < 0 || l.MinRelativeDistance > 0.99 {
		errs = append(errs, ValidationError{
			Field:   "language.min_relative_distance",
			Message: "must be between 0 and 0.99",
		})
	}

	return errs
}

func containsLanguage(langs []language.Language, l language.Language) bool {
	for _, x := range langs {
		if x == l {
			return true
		}
	}
	return false
}

// validateSources validates all source configurations. Sources are
// optional.
func (c *Config) validateSources() ValidationErrors {
	var errs ValidationErrors

	names := make(map[string]bool)
	for i, s := range c.Sources {
		if names[s.Name] {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("sources[%d].name", i),
				Message: fmt.Sprintf("duplicate source name: %s", s.Name),
			})
		}
		names[s.Name] = true

		errs = append(errs, c.validateSource(i, s)...)
	}

	return errs
}

// validateSource validates a single source configuration.
func (c *Config) validateSource(index int, s Source) ValidationErrors {
	var errs ValidationErrors
	prefix := fmt.Sprintf("sources[%d]", index)

	if s.Name == "" {
		errs = append(errs, ValidationError{
			Field:   prefix + ".name",
			Message: "required",
		})
	}

	errs = append(errs, c.validateDatabase(prefix+".database", s.Database)...)

	if s.Table == "" {
		errs = append(errs, ValidationError{
			Field:   prefix + ".table",
			Message: "required",
		})
	}

	if s.TextColumn == "" {
		errs = append(errs, ValidationError{
			Field:   prefix + ".text_column",
			Message: "required",
		})
	}

	if s.IDColumn == "" {
		errs = append(errs, ValidationError{
			Field:   prefix + ".id_column",
			Message: "required",
		})
	}

	return errs
}

// validateDatabase validates database configuration.
func (c *Config) validateDatabase(prefix string, db DatabaseConfig) ValidationErrors {
	var errs ValidationErrors

	if db.Host == "" {
		errs = append(errs, ValidationError{
			Field:   prefix + ".host",
			Message: "required",
		})
	}

	if db.Database == "" {
		errs = append(errs, ValidationError{
			Field:   prefix + ".database",
			Message: "required",
		})
	}

	if db.Port < 1 || db.Port > 65535 {
		errs = append(errs, ValidationError{
			Field:   prefix + ".port",
			Message: "must be between 1 and 65535",
		})
	}

	if db.Password != "" && db.PasswordFile != "" {
		errs = append(errs, ValidationError{
			Field:   prefix + ".password_file",
			Message: "cannot be combined with password",
		})
	}

	validSSLModes := map[string]bool{
		"disable":     true,
		"allow":       true,
		"prefer":      true,
		"require":     true,
		"verify-ca":   true,
		"verify-full": true,
	}
	if db.SSLMode != "" && !validSSLModes[db.SSLMode] {
		errs = append(errs, ValidationError{
			Field:   prefix + ".ssl_mode",
			Message: "must be one of: disable, allow, prefer, require, verify-ca, verify-full",
		})
	}

	return errs
}
