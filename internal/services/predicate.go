package services

import (
	"fmt"
	"strings"
)

// filterClause is one conjunctive predicate. expr contains a single %s that
// is replaced with the positional placeholder for arg; clauses with no arg
// leave expr literal.
type filterClause struct {
	expr string
	arg  interface{}
}

// buildWhere renders clauses into a WHERE fragment with placeholders starting
// at startIdx, returning the fragment and the argument list in order.
func buildWhere(clauses []filterClause, startIdx int) (string, []interface{}) {
	if len(clauses) == 0 {
		return "TRUE", nil
	}

	parts := make([]string, 0, len(clauses))
	args := make([]interface{}, 0, len(clauses))
	idx := startIdx
	for _, c := range clauses {
		if c.arg == nil {
			parts = append(parts, c.expr)
			continue
		}
		parts = append(parts, fmt.Sprintf(c.expr, fmt.Sprintf("$%d", idx)))
		args = append(args, c.arg)
		idx++
	}

	return strings.Join(parts, " AND "), args
}
