package table

import (
	"strings"

	"github.com/reldb/reldb/pkg"
)

// Row is a positional sequence of values, one per schema column.
type Row []Value

func (r Row) Clone() Row {
	c := make(Row, len(r))
	copy(c, r)
	return c
}

// Scalars returns the row as bare Go values, for encoding and display.
func (r Row) Scalars() []any {
	out := make([]any, len(r))
	for i, v := range r {
		out[i] = v.Scalar()
	}
	return out
}

// Table owns a schema, the authoritative row store and the hash indexes
// built over it. Row position is the current physical offset, not a stable
// id: delete compacts and renumbers.
type Table struct {
	Name              string
	Columns           []string
	Types             []ColumnType
	PrimaryKey        string // empty means no primary key
	UniqueConstraints []string
	Rows              []Row
	Indexes           pkg.Map[string, Index]
}

// NewTable validates the schema and returns an empty table.
func NewTable(name string, columns []string, types []ColumnType, primaryKey string, uniqueConstraints []string) (*Table, error) {
	if strings.TrimSpace(name) == "" {
		return nil, schemaErrorf("Table name cannot be empty")
	}
	if len(columns) == 0 {
		return nil, schemaErrorf("Table must have at least one column")
	}
	if len(columns) != len(types) {
		return nil, schemaErrorf("Number of columns must match number of types")
	}

	seen := pkg.Map[string, bool]{}
	for _, col := range columns {
		if seen.Has(col) {
			return nil, schemaErrorf("Duplicate column name found: %s", col)
		}
		seen.Set(col, true)
	}

	for _, col_type := range types {
		if !col_type.Valid() {
			return nil, schemaErrorf("Invalid data type: %s", col_type)
		}
	}

	if primaryKey != "" && !seen.Has(primaryKey) {
		return nil, schemaErrorf("Primary key column '%s' does not exist", primaryKey)
	}
	for _, col := range uniqueConstraints {
		if !seen.Has(col) {
			return nil, schemaErrorf("Unique constraint column '%s' does not exist", col)
		}
	}

	return &Table{
		Name:              name,
		Columns:           columns,
		Types:             types,
		PrimaryKey:        primaryKey,
		UniqueConstraints: uniqueConstraints,
		Rows:              []Row{},
		Indexes:           pkg.Map[string, Index]{},
	}, nil
}

// ColumnIndex resolves a column name to its positional offset.
func (t *Table) ColumnIndex(name string) (int, error) {
	for i, col := range t.Columns {
		if col == name {
			return i, nil
		}
	}
	return 0, &UnknownColumnError{Column: name, Table: t.Name}
}

// CheckRow validates arity and per-cell type tags against the schema.
func (t *Table) CheckRow(row Row) error {
	if len(row) != len(t.Columns) {
		return &RowShapeError{Want: len(t.Columns), Got: len(row)}
	}
	for i, v := range row {
		if !v.Matches(t.Types[i]) {
			return &TypeMismatchError{Column: t.Columns[i], Want: t.Types[i], Got: v.Type}
		}
	}
	return nil
}

// Insert validates the row against the schema and constraints, appends it at
// the next position and feeds existing indexes. Validation runs fully before
// any mutation: a failed insert leaves the table untouched.
func (t *Table) Insert(row Row) (int, error) {
	if err := t.CheckRow(row); err != nil {
		return 0, err
	}

	// primary key first, then unique constraints in declaration order
	if t.PrimaryKey != "" {
		pi, _ := t.ColumnIndex(t.PrimaryKey)
		for _, existing := range t.Rows {
			if existing[pi].Equal(row[pi]) {
				return 0, &DuplicatePrimaryKeyError{Value: row[pi]}
			}
		}
	}
	for _, col := range t.UniqueConstraints {
		ci, _ := t.ColumnIndex(col)
		for _, existing := range t.Rows {
			if existing[ci].Equal(row[ci]) {
				return 0, &DuplicateUniqueValueError{Column: col, Value: row[ci]}
			}
		}
	}

	pos := len(t.Rows)
	t.Rows = append(t.Rows, row)
	t.indexInsert(pos, row)
	return pos, nil
}

// RowAt returns the row at a physical position, or nil when out of range.
func (t *Table) RowAt(pos int) Row {
	if pos < 0 || pos >= len(t.Rows) {
		return nil
	}
	return t.Rows[pos]
}

func (t *Table) Len() int { return len(t.Rows) }
