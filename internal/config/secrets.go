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
	"strings"
)

// EnvDatabasePassword is consulted when a source configures neither a
// password nor a password file.
const EnvDatabasePassword = "PGPASSWORD"

// ResolvePassword returns the password for db with the following priority:
//  1. password set inline in the configuration
//  2. password_file
//  3. the PGPASSWORD environment variable
//
// An empty result with a nil error means no password is configured and
// libpq defaults such as ~/.pgpass apply.
func ResolvePassword(db DatabaseConfig) (string, error) {
	if db.Password != "" {
		return db.Password, nil
	}

	if db.PasswordFile != "" {
		return readSecretFile(expandPath(db.PasswordFile))
	}

	return os.Getenv(EnvDatabasePassword), nil
}

// readSecretFile reads a single secret from a file, trimming whitespace.
func readSecretFile(path string) (string, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return "", fmt.Errorf("password file not found: %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read password file: %w", err)
	}

	secret := strings.TrimSpace(string(data))
	if secret == "" {
		return "", fmt.Errorf("password file is empty: %s", path)
	}

	return secret, nil
}
