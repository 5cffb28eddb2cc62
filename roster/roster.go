// Package roster reads the student roster and matches typed identifiers
// against it.
package roster

import (
	"context"
	"strings"
)

// Row - one roster row, ordered cells starting at column A
type Row []string

// Columns of interest
const (
	ColumnID   = 0
	ColumnName = 2
)

// Source - where roster rows come from. An empty roster is (nil, nil).
type Source interface {
	Rows(ctx context.Context) ([]Row, error)
}

// ID - the identifier cell, normalized
func (r Row) ID() string {
	return Normalize(r.cell(ColumnID))
}

// Name - the display name cell as stored
func (r Row) Name() string {
	return r.cell(ColumnName)
}

func (r Row) cell(i int) string {
	if i < len(r) {
		return r[i]
	}
	return ""
}

// Normalize - trim surrounding whitespace and drop every no-break space (U+00A0)
func Normalize(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(strings.TrimSpace(s), "\u00a0", ""))
}

// Find - first row whose normalized ID equals the normalized candidate.
// Matching is exact and case sensitive.
func Find(rows []Row, candidate string) (Row, bool) {
	id := Normalize(candidate)
	for _, r := range rows {
		if r.ID() == id {
			return r, true
		}
	}
	return nil, false
}
