//-------------------------------------------------------------------------
//
// pgEdge Rerank Server
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package database

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/pgEdge/pgedge-rerank-server/internal/config"
)

// Record is one row fetched from a source table.
type Record struct {
	ID      string
	Content string
}

// parseTableIdentifier splits a table name into schema and table parts.
// Supports formats: "table", "schema.table"
func parseTableIdentifier(table string) pgx.Identifier {
	return pgx.Identifier(strings.Split(table, "."))
}

// buildFetchQuery returns the statement selecting the rows of src whose ID
// is in $1, restricted by the source filter and the optional request
// filter. IDs are compared as text so any key type works.
func buildFetchQuery(src config.Source, filter *config.Filter) (string, []interface{}, error) {
	filterClause, filterArgs, err := buildFilterClause(src.Filter, filter, 2)
	if err != nil {
		return "", nil, fmt.Errorf("invalid filter: %w", err)
	}

	idColumn := pgx.Identifier{src.IDColumn}.Sanitize()
	idCondition := fmt.Sprintf("%s::text = ANY($1::text[])", idColumn)
	if filterClause == "" {
		filterClause = " WHERE " + idCondition
	} else {
		filterClause += " AND " + idCondition
	}

	query := fmt.Sprintf(`
		SELECT
			%s::text AS id,
			COALESCE(%s::text, '') AS content
		FROM %s%s`,
		idColumn,
		pgx.Identifier{src.TextColumn}.Sanitize(),
		parseTableIdentifier(src.Table).Sanitize(),
		filterClause,
	)

	return query, filterArgs, nil
}

// FetchDocumentsByIDs fetches the rows of src with the given IDs. The
// result follows the order of ids; duplicate IDs are returned once and
// IDs with no matching row are omitted.
func (p *Pool) FetchDocumentsByIDs(
	ctx context.Context,
	src config.Source,
	ids []string,
	filter *config.Filter,
) ([]Record, error) {
	ids = uniqueIDs(ids)
	if len(ids) == 0 {
		return []Record{}, nil
	}

	query, filterArgs, err := buildFetchQuery(src, filter)
	if err != nil {
		return nil, err
	}

	args := append([]interface{}{ids}, filterArgs...)
	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch documents: %w", err)
	}
	defer rows.Close()

	found := make(map[string]string, len(ids))
	for rows.Next() {
		var id, content string
		if err := rows.Scan(&id, &content); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		found[id] = content
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return orderByIDs(ids, found), nil
}

func uniqueIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// orderByIDs arranges found rows in the order the caller asked for them.
func orderByIDs(ids []string, found map[string]string) []Record {
	records := make([]Record, 0, len(found))
	for _, id := range ids {
		if content, ok := found[id]; ok {
			records = append(records, Record{ID: id, Content: content})
		}
	}
	return records
}
