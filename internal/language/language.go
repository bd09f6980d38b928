//-------------------------------------------------------------------------
//
// pgEdge Rerank Server
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package language identifies the natural language of a text span.
package language

import (
	"fmt"
	"strings"
)

// Language is one of the languages the analyzers know how to tokenize.
type Language int

const (
	// English uses the Porter2 stemmer and the English stopword list.
	English Language = iota
	// Russian uses the Snowball Russian stemmer and stopword list.
	Russian
)

// Default is the language used whenever detection is inconclusive.
const Default = English

// Supported lists every language in declaration order.
var Supported = []Language{English, Russian}

// String returns the lower-case language name used in configuration.
func (l Language) String() string {
	switch l {
	case English:
		return "english"
	case Russian:
		return "russian"
	default:
		return fmt.Sprintf("language(%d)", int(l))
	}
}

// ISOCode returns the ISO 639-1 code of the language.
func (l Language) ISOCode() string {
	switch l {
	case English:
		return "en"
	case Russian:
		return "ru"
	default:
		return ""
	}
}

// Valid reports whether l is a member of the closed set.
func (l Language) Valid() bool {
	return l == English || l == Russian
}

// Parse accepts a language name or ISO 639-1 code, case-insensitively.
func Parse(s string) (Language, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "english", "en":
		return English, nil
	case "russian", "ru":
		return Russian, nil
	default:
		return Default, fmt.Errorf("unsupported language: %q", s)
	}
}

// ParseAll parses a list of language names, rejecting duplicates.
func ParseAll(names []string) ([]Language, error) {
	langs := make([]Language, 0, len(names))
	seen := make(map[Language]bool, len(names))
	for _, name := range names {
		l, err := Parse(name)
		if err != nil {
			return nil, err
		}
		if seen[l] {
			return nil, fmt.Errorf("duplicate language: %s", l)
		}
		seen[l] = true
		langs = append(langs, l)
	}
	return langs, nil
}
