package utils

import (
	"fmt"
	"strings"

	"github.com/iqbalbaharum/hyper-sdk/internal/types"
)

const maxSearchLimit = 1000

var searchOps = map[string]bool{
	"=":    true,
	"!=":   true,
	"<":    true,
	"<=":   true,
	">":    true,
	">=":   true,
	"LIKE": true,
}

// BuildSearchQuery builds a parameterized SELECT from filter. Column names
// are interpolated, so callers must check them against their own schema.
func BuildSearchQuery(tableName string, columns string, filter types.MySQLFilter) (string, []any, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "SELECT %s FROM %s", columns, tableName)

	var values []any
	for idx, q := range filter.Query {
		op := strings.ToUpper(strings.TrimSpace(q.Op))
		if !searchOps[op] {
			return "", nil, fmt.Errorf("unsupported operator %q", q.Op)
		}

		if idx == 0 {
			sb.WriteString(" WHERE ")
		} else {
			sb.WriteString(" AND ")
		}

		fmt.Fprintf(&sb, "%s %s ?", q.Column, op)
		values = append(values, q.Query)
	}

	sb.WriteString(" ORDER BY timestamp DESC")

	limit := filter.Limit
	if limit <= 0 || limit > maxSearchLimit {
		limit = maxSearchLimit
	}
	fmt.Fprintf(&sb, " LIMIT %d", limit)

	if filter.Offset > 0 {
		fmt.Fprintf(&sb, " OFFSET %d", filter.Offset)
	}

	return sb.String(), values, nil
}
