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
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/pgEdge/pgedge-rerank-server/internal/rerank"
)

// readDocuments parses candidate documents from r. Three layouts are
// accepted: a JSON array of strings or document objects, one JSON
// document object per line, or plain text with one document per line.
func readDocuments(r io.Reader) ([]rerank.Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read documents: %w", err)
	}

	trimmed := bytes.TrimSpace(data)
	switch {
	case len(trimmed) == 0:
		return nil, nil
	case trimmed[0] == '[':
		return parseJSONArray(trimmed)
	case trimmed[0] == '{':
		return parseJSONLines(trimmed)
	default:
		return parsePlainLines(trimmed)
	}
}

func parseJSONArray(data []byte) ([]rerank.Document, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("invalid JSON array: %w", err)
	}

	docs := make([]rerank.Document, 0, len(items))
	for i, item := range items {
		doc, err := parseJSONItem(item)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func parseJSONItem(item json.RawMessage) (rerank.Document, error) {
	item = bytes.TrimSpace(item)
	if len(item) > 0 && item[0] == '"' {
		var content string
		if err := json.Unmarshal(item, &content); err != nil {
			return rerank.Document{}, err
		}
		return rerank.Document{Content: content}, nil
	}

	var doc rerank.Document
	if err := json.Unmarshal(item, &doc); err != nil {
		return rerank.Document{}, err
	}
	return doc, nil
}

func parseJSONLines(data []byte) ([]rerank.Document, error) {
	var docs []rerank.Document
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	line := 0
	for scanner.Scan() {
		line++
		text := bytes.TrimSpace(scanner.Bytes())
		if len(text) == 0 {
			continue
		}
		var doc rerank.Document
		if err := json.Unmarshal(text, &doc); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		docs = append(docs, doc)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read documents: %w", err)
	}
	return docs, nil
}

func parsePlainLines(data []byte) ([]rerank.Document, error) {
	var docs []rerank.Document
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		docs = append(docs, rerank.Document{Content: line})
	}
	return docs, nil
}
