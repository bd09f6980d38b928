//-------------------------------------------------------------------------
//
// pgEdge Rerank Server
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package database

import (
	"testing"

	"github.com/pgEdge/pgedge-rerank-server/internal/config"
)

func TestBuildConnectionString(t *testing.T) {
	t.Setenv("PGUSER", "")
	t.Setenv("USER", "osuser")

	tests := []struct {
		name     string
		cfg      config.DatabaseConfig
		password string
		expected string
	}{
		{
			name:     "minimal uses USER",
			cfg:      config.DatabaseConfig{Host: "localhost", Port: 5432, Database: "kb"},
			expected: "host=localhost port=5432 dbname=kb user=osuser",
		},
		{
			name: "full",
			cfg: config.DatabaseConfig{
				Host:      "db.internal",
				Port:      6432,
				Database:  "kb",
				Username:  "rerank",
				SSLMode:   "verify-full",
				SSLCert:   "/certs/client.crt",
				SSLKey:    "/certs/client.key",
				SSLRootCA: "/certs/ca.crt",
			},
			password: "secret",
			expected: "host=db.internal port=6432 dbname=kb user=rerank password=secret " +
				"sslmode=verify-full sslcert=/certs/client.crt sslkey=/certs/client.key " +
				"sslrootcert=/certs/ca.crt",
		},
		{
			name:     "quoted password",
			cfg:      config.DatabaseConfig{Host: "localhost", Port: 5432, Database: "kb", Username: "u"},
			password: `it's a pass`,
			expected: `host=localhost port=5432 dbname=kb user=u password='it\'s a pass'`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := buildConnectionString(tt.cfg, tt.password)
			if got != tt.expected {
				t.Errorf("buildConnectionString() =\n%q\nwant\n%q", got, tt.expected)
			}
		})
	}
}

func TestBuildConnectionString_PGUSER(t *testing.T) {
	t.Setenv("PGUSER", "pguser")
	t.Setenv("USER", "osuser")

	got := buildConnectionString(config.DatabaseConfig{Host: "h", Port: 5432, Database: "d"}, "")
	expected := "host=h port=5432 dbname=d user=pguser"
	if got != expected {
		t.Errorf("buildConnectionString() = %q, want %q", got, expected)
	}
}
