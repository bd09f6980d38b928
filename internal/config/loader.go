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

	"gopkg.in/yaml.v3"
)

const (
	// ConfigFileName is the default configuration file name.
	ConfigFileName = "pgedge-rerank-server.yaml"

	// SystemConfigPath is the system-wide configuration path.
	SystemConfigPath = "/etc/pgedge/" + ConfigFileName
)

// Load loads the configuration from the specified path, or searches
// default locations if path is empty.
//
// Search order:
//  1. Explicit path (if provided)
//  2. /etc/pgedge/pgedge-rerank-server.yaml
//  3. pgedge-rerank-server.yaml in the binary's directory
func Load(path string) (*Config, error) {
	configPath, err := findConfigFile(path)
	if err != nil {
		return nil, err
	}

	return loadFromFile(configPath)
}

// LoadOptional behaves like Load but returns the defaults when path is
// empty and no file exists in the default locations.
func LoadOptional(path string) (*Config, error) {
	if path == "" {
		if _, err := findConfigFile(""); err != nil {
			cfg := DefaultConfig()
			applyDefaults(cfg)
			return cfg, nil
		}
	}
	return Load(path)
}

// findConfigFile finds the configuration file using the search order.
func findConfigFile(explicitPath string) (string, error) {
	if explicitPath != "" {
		if _, err := os.Stat(explicitPath); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicitPath)
		}
		return explicitPath, nil
	}

	searchPaths := []string{
		SystemConfigPath,
		getBinaryDirConfigPath(),
	}

	for _, p := range searchPaths {
		if p == "" {
			continue
		}
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}

	return "", fmt.Errorf("no configuration file found; searched: %v", searchPaths)
}

// getBinaryDirConfigPath returns the path to config file in the binary's
// directory.
func getBinaryDirConfigPath() string {
	executable, err := os.Executable()
	if err != nil {
		return ""
	}

	executable, err = filepath.EvalSymlinks(executable)
	if err != nil {
		return ""
	}

	return filepath.Join(filepath.Dir(executable), ConfigFileName)
}

// loadFromFile loads and parses the configuration from a YAML file.
func loadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return Parse(data)
}

// Parse decodes YAML configuration on top of the defaults, then applies
// derived defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := DefaultConfig()

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// applyDefaults fills values a partial file may have zeroed.
func applyDefaults(cfg *Config) {
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	cfg.Logging.Level = strings.ToLower(cfg.Logging.Level)
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}
	cfg.Logging.Format = strings.ToLower(cfg.Logging.Format)

	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = DefaultMetricsPath
	}

	if cfg.Rerank.DefaultLimit == 0 {
		cfg.Rerank.DefaultLimit = DefaultDefaultLimit
	}
	if cfg.Rerank.MaxCandidates == 0 {
		cfg.Rerank.MaxCandidates = DefaultMaxCandidates
	}
	if cfg.Rerank.MinTokenLength == 0 {
		cfg.Rerank.MinTokenLength = DefaultMinTokenLength
	}
	if cfg.Rerank.CandidateFactor == 0 {
		cfg.Rerank.CandidateFactor = DefaultCandidateFactor
	}

	if cfg.Language.Fallback == "" {
		cfg.Language.Fallback = "english"
	}

	for i := range cfg.Sources {
		s := &cfg.Sources[i]

		if s.Database.Port == 0 {
			s.Database.Port = DefaultDatabasePort
		}
		if s.Database.SSLMode == "" {
			s.Database.SSLMode = DefaultSSLMode
		}
		if s.IDColumn == "" {
			s.IDColumn = "id"
		}
	}
}
