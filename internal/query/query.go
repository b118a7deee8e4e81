package query

import (
	"github.com/reldb/reldb/internal/table"
	"github.com/reldb/reldb/pkg"
)

// Select returns independent copies of the matching rows, projected onto the
// requested columns. A nil projection means all columns in schema order.
// Result order is row-store iteration order.
func Select(t *table.Table, columns []string, where Filter) ([]table.Row, error) {
	if columns == nil {
		columns = t.Columns
	}

	offsets := make([]int, len(columns))
	for i, col := range columns {
		ci, err := t.ColumnIndex(col)
		if err != nil {
			return nil, err
		}
		offsets[i] = ci
	}
	if err := validateFilter(t, where); err != nil {
		return nil, err
	}

	found := pkg.Filter(t.Rows, func(row table.Row) bool {
		return matches(t, row, where)
	})

	result := make([]table.Row, len(found))
	for i, row := range found {
		projected := make(table.Row, len(offsets))
		for j, ci := range offsets {
			projected[j] = row[ci]
		}
		result[i] = projected
	}
	return result, nil
}

// Update mutates every matched row in place for the set columns only and
// returns the matched count. All validation, including the batch constraint
// checks, runs before the first mutation: a failed update changes nothing.
func Update(t *table.Table, set map[string]table.Value, where Filter) (int, error) {
	if len(set) == 0 {
		return 0, table.ErrEmptyUpdate
	}
	for col := range set {
		if _, err := t.ColumnIndex(col); err != nil {
			return 0, err
		}
	}
	if err := validateFilter(t, where); err != nil {
		return 0, err
	}
	for ci, col := range t.Columns {
		if v, ok := set[col]; ok && !v.Matches(t.Types[ci]) {
			return 0, &table.TypeMismatchError{Column: col, Want: t.Types[ci], Got: v.Type}
		}
	}

	positions := matchedPositions(t, where)
	matched := pkg.Map[int, bool]{}
	for _, pos := range positions {
		matched.Set(pos, true)
	}

	// primary key first, then unique constraints in declaration order
	if t.PrimaryKey != "" {
		if v, ok := set[t.PrimaryKey]; ok {
			if err := checkBatch(t, t.PrimaryKey, v, positions, matched, true); err != nil {
				return 0, err
			}
		}
	}
	for _, col := range t.UniqueConstraints {
		if v, ok := set[col]; ok {
			if err := checkBatch(t, col, v, positions, matched, false); err != nil {
				return 0, err
			}
		}
	}

	for _, pos := range positions {
		for ci, col := range t.Columns {
			if v, ok := set[col]; ok {
				t.Rows[pos][ci] = v
			}
		}
	}
	return len(positions), nil
}

// checkBatch enforces a constrained column's uniqueness for one update batch:
// the new value must collide neither with a non-matched row's current value
// nor with a value already assigned to an earlier matched row in this batch.
// Matched rows' pre-update values are deliberately not checked against each
// other; only the state after the proposed change matters.
func checkBatch(t *table.Table, column string, v table.Value, positions []int, matched pkg.Map[int, bool], primary bool) error {
	ci, _ := t.ColumnIndex(column)
	collision := func() error {
		if primary {
			return &table.DuplicatePrimaryKeyError{Value: v}
		}
		return &table.DuplicateUniqueValueError{Column: column, Value: v}
	}

	assigned := 0
	for range positions {
		for pos, row := range t.Rows {
			if matched.Has(pos) {
				continue
			}
			if row[ci].Equal(v) {
				return collision()
			}
		}
		// every matched row receives the same new value, so a second
		// assignment in the batch is itself a collision
		if assigned > 0 {
			return collision()
		}
		assigned++
	}
	return nil
}

// Delete removes the matched rows and compacts the store, preserving the
// relative order of survivors. Compaction renumbers positions, so every
// index the table carries is stale afterwards until rebuilt; callers that
// still need an index must CreateIndex it again.
func Delete(t *table.Table, where Filter) (int, error) {
	if err := validateFilter(t, where); err != nil {
		return 0, err
	}

	kept := pkg.Filter(t.Rows, func(row table.Row) bool {
		return !matches(t, row, where)
	})
	removed := len(t.Rows) - len(kept)
	t.Rows = kept
	return removed, nil
}

// Join runs a nested-loop equi-join and returns freshly allocated combined
// rows: the full left row followed by the full right row, for every pair
// whose join column values are equal. Order is left-major, then right-major;
// an N:M match set yields N*M combined rows.
func Join(left, right *table.Table, leftColumn, rightColumn string) ([]table.Row, error) {
	li, err := left.ColumnIndex(leftColumn)
	if err != nil {
		return nil, err
	}
	ri, err := right.ColumnIndex(rightColumn)
	if err != nil {
		return nil, err
	}

	result := []table.Row{}
	for _, lrow := range left.Rows {
		for _, rrow := range right.Rows {
			if !lrow[li].Equal(rrow[ri]) {
				continue
			}
			combined := make(table.Row, 0, len(lrow)+len(rrow))
			combined = append(combined, lrow...)
			combined = append(combined, rrow...)
			result = append(result, combined)
		}
	}
	return result, nil
}
