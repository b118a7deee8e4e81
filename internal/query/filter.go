package query

import (
	"github.com/reldb/reldb/internal/table"
)

// Filter is a conjunctive set of column -> expected value equality
// constraints. A nil or empty filter matches every row.
type Filter map[string]table.Value

func validateFilter(t *table.Table, where Filter) error {
	for col := range where {
		if _, err := t.ColumnIndex(col); err != nil {
			return err
		}
	}
	return nil
}

// matches assumes the filter columns were already validated.
func matches(t *table.Table, row table.Row, where Filter) bool {
	for col, want := range where {
		ci, _ := t.ColumnIndex(col)
		if !row[ci].Equal(want) {
			return false
		}
	}
	return true
}

func matchedPositions(t *table.Table, where Filter) []int {
	positions := []int{}
	for pos, row := range t.Rows {
		if matches(t, row, where) {
			positions = append(positions, pos)
		}
	}
	return positions
}
