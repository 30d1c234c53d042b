package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildWhere(t *testing.T) {
	tests := []struct {
		name      string
		clauses   []filterClause
		startIdx  int
		wantWhere string
		wantArgs  []interface{}
	}{
		{
			name:      "no clauses",
			clauses:   nil,
			startIdx:  1,
			wantWhere: "TRUE",
			wantArgs:  nil,
		},
		{
			name: "single clause",
			clauses: []filterClause{
				{"ct.start_year >= %s", 1990},
			},
			startIdx:  1,
			wantWhere: "ct.start_year >= $1",
			wantArgs:  []interface{}{1990},
		},
		{
			name: "numbering starts after reserved placeholders",
			clauses: []filterClause{
				{"ct.start_year >= %s", 1990},
				{"cr.average_rating >= %s", 7.5},
			},
			startIdx:  4,
			wantWhere: "ct.start_year >= $4 AND cr.average_rating >= $5",
			wantArgs:  []interface{}{1990, 7.5},
		},
		{
			name: "literal clause consumes no placeholder",
			clauses: []filterClause{
				{expr: "cr.num_votes >= 1000"},
				{"ct.genres ILIKE %s", "%Drama%"},
			},
			startIdx:  2,
			wantWhere: "cr.num_votes >= 1000 AND ct.genres ILIKE $2",
			wantArgs:  []interface{}{"%Drama%"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			where, args := buildWhere(tt.clauses, tt.startIdx)
			assert.Equal(t, tt.wantWhere, where)
			assert.Equal(t, tt.wantArgs, args)
		})
	}
}
