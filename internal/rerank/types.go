//-------------------------------------------------------------------------
//
// pgEdge Rerank Server
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package rerank reorders candidate documents by their BM25 relevance to
// a query.
package rerank

import (
	"errors"
	"strings"
)

// ErrInvalidLimit is returned for a negative result limit.
var ErrInvalidLimit = errors.New("limit must be non-negative")

// Document is a candidate supplied by the caller. An empty Content means
// the document has no text and cannot be ranked.
type Document struct {
	ID       string         `json:"id,omitempty"`
	Content  string         `json:"content"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// ScoredDocument is a ranked document with its BM25 score and its
// position in the candidate list.
type ScoredDocument struct {
	Document
	Score    float64 `json:"score"`
	Position int     `json:"position"`
}

// Documents strips the scores from a ranked list.
func Documents(scored []ScoredDocument) []Document {
	docs := make([]Document, len(scored))
	for i, s := range scored {
		docs[i] = s.Document
	}
	return docs
}

// JoinContents concatenates the contents of docs with sep, skipping
// documents without text.
func JoinContents(docs []Document, sep string) string {
	parts := make([]string, 0, len(docs))
	for _, d := range docs {
		if d.Content == "" {
			continue
		}
		parts = append(parts, d.Content)
	}
	return strings.Join(parts, sep)
}
