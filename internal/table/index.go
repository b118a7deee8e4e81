package table

import "fmt"

// Index maps the rendered form of a column value to the positions currently
// holding it. Values in one column share a single type, so the rendered form
// is unambiguous within an index.
type Index map[string][]int

func formatIndexValue(v Value) string {
	return fmt.Sprintf("%v", v.Scalar())
}

// CreateIndex scans the full row store and installs a fresh index on the
// column, replacing any prior one. Rebuilding is the only way to make an
// index trustworthy again after deletes shift row positions.
func (t *Table) CreateIndex(column string) error {
	ci, err := t.ColumnIndex(column)
	if err != nil {
		return err
	}

	index := Index{}
	for pos, row := range t.Rows {
		key := formatIndexValue(row[ci])
		index[key] = append(index[key], pos)
	}
	t.Indexes.Set(column, index)
	return nil
}

func (t *Table) DropIndex(column string) error {
	if !t.Indexes.Has(column) {
		return &IndexNotFoundError{Column: column}
	}
	t.Indexes.Delete(column)
	return nil
}

// Lookup returns the positions an index holds for a value, and whether an
// index exists on the column at all.
func (t *Table) Lookup(column string, v Value) ([]int, bool) {
	if !t.Indexes.Has(column) {
		return nil, false
	}
	return t.Indexes.Get(column)[formatIndexValue(v)], true
}

// indexInsert appends the new row's position to every index bucket matching
// its indexed-column value. Cheap on insert since positions only grow;
// deletes instead invalidate indexes wholesale (see CreateIndex).
func (t *Table) indexInsert(pos int, row Row) {
	for column, index := range t.Indexes {
		ci, err := t.ColumnIndex(column)
		if err != nil {
			continue
		}
		key := formatIndexValue(row[ci])
		index[key] = append(index[key], pos)
	}
}
