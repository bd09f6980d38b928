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
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/pgEdge/pgedge-rerank-server/internal/config"
)

// supportedOperators defines the allowed SQL operators.
var supportedOperators = map[string]bool{
	"=":           true,
	"!=":          true,
	"<":           true,
	">":           true,
	"<=":          true,
	">=":          true,
	"LIKE":        true,
	"ILIKE":       true,
	"IN":          true,
	"NOT IN":      true,
	"IS NULL":     true,
	"IS NOT NULL": true,
}

// filterBuilder accumulates parenthesized conditions and their positional
// arguments.
type filterBuilder struct {
	conditions []string
	args       []interface{}
	next       int
}

func newFilterBuilder(firstParam int) *filterBuilder {
	return &filterBuilder{next: firstParam}
}

func (b *filterBuilder) placeholder(v interface{}) string {
	p := fmt.Sprintf("$%d", b.next)
	b.next++
	b.args = append(b.args, v)
	return p
}

// raw adds an admin-supplied SQL fragment verbatim.
func (b *filterBuilder) raw(sql string) {
	if strings.TrimSpace(sql) != "" {
		b.conditions = append(b.conditions, "("+sql+")")
	}
}

// structured adds a parameterized filter.
func (b *filterBuilder) structured(f *config.Filter) error {
	if f == nil || len(f.Conditions) == 0 {
		return nil
	}

	logic := "AND"
	if f.Logic != "" {
		logic = strings.ToUpper(f.Logic)
		if logic != "AND" && logic != "OR" {
			return fmt.Errorf("invalid logic operator: %s (must be AND or OR)", logic)
		}
	}

	parts := make([]string, 0, len(f.Conditions))
	for _, cond := range f.Conditions {
		clause, err := b.condition(cond)
		if err != nil {
			return err
		}
		parts = append(parts, clause)
	}

	b.conditions = append(b.conditions, "("+strings.Join(parts, " "+logic+" ")+")")
	return nil
}

// condition renders one condition, binding its values as parameters.
func (b *filterBuilder) condition(cond config.FilterCondition) (string, error) {
	if err := ValidateOperator(cond.Operator); err != nil {
		return "", err
	}
	if err := ValidateValue(cond.Operator, cond.Value); err != nil {
		return "", err
	}

	column := pgx.Identifier{cond.Column}.Sanitize()
	op := strings.ToUpper(cond.Operator)

	switch op {
	case "IS NULL", "IS NOT NULL":
		return column + " " + op, nil
	case "IN", "NOT IN":
		values := cond.Value.([]interface{})
		placeholders := make([]string, len(values))
		for i, v := range values {
			placeholders[i] = b.placeholder(v)
		}
		return fmt.Sprintf("%s %s (%s)", column, op, strings.Join(placeholders, ", ")), nil
	default:
		return fmt.Sprintf("%s %s %s", column, op, b.placeholder(cond.Value)), nil
	}
}

// where returns the conditions as a WHERE clause, or "" when there are
// none.
func (b *filterBuilder) where() string {
	if len(b.conditions) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(b.conditions, " AND ")
}

// buildFilterClause combines the source's configured filter with an
// optional request filter into a WHERE clause whose placeholders start at
// startParamIndex. Config filters may be raw SQL (trusted); request
// filters are always structured and parameterized.
func buildFilterClause(configFilter *config.ConfigFilter, requestFilter *config.Filter, startParamIndex int) (string, []interface{}, error) {
	b := newFilterBuilder(startParamIndex)

	if configFilter != nil {
		if configFilter.RawSQL != "" {
			b.raw(configFilter.RawSQL)
		} else if err := b.structured(configFilter.Structured); err != nil {
			return "", nil, fmt.Errorf("config filter error: %w", err)
		}
	}

	if err := b.structured(requestFilter); err != nil {
		return "", nil, fmt.Errorf("request filter error: %w", err)
	}

	return b.where(), b.args, nil
}

// ValidateFilter checks a request filter without building SQL.
func ValidateFilter(f *config.Filter) error {
	_, _, err := buildFilterClause(nil, f, 1)
	return err
}

// ValidateOperator checks if an operator is in the allowed list.
func ValidateOperator(operator string) error {
	if !supportedOperators[strings.ToUpper(operator)] {
		return fmt.Errorf("unsupported operator: %s (allowed: =, !=, <, >, <=, >=, LIKE, ILIKE, IN, NOT IN, IS NULL, IS NOT NULL)", operator)
	}
	return nil
}

// ValidateValue validates that the value is appropriate for the given operator.
func ValidateValue(operator string, value interface{}) error {
	switch strings.ToUpper(operator) {
	case "IS NULL", "IS NOT NULL":
		return nil
	case "IN", "NOT IN":
		v, ok := value.([]interface{})
		if !ok {
			return fmt.Errorf("IN operator requires array value, got: %T", value)
		}
		if len(v) == 0 {
			return fmt.Errorf("IN operator requires non-empty array")
		}
		return nil
	}

	if value == nil {
		return fmt.Errorf("operator %s requires non-nil value", operator)
	}
	return nil
}
