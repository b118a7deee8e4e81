package table

import (
	"github.com/reldb/reldb/pkg"
)

// Document is the structured snapshot of a table's full state. It is what
// the persistence adapter stores, one document per table; the engine is
// agnostic to the file format built around it.
type Document struct {
	Name              string           `json:"name"`
	Columns           []string         `json:"columns"`
	Types             []ColumnType     `json:"types"`
	Rows              [][]any          `json:"rows"`
	PrimaryKey        *string          `json:"primary_key"`
	UniqueConstraints []string         `json:"unique_constraints"`
	Indexes           map[string]Index `json:"indexes"`
}

// ToDocument captures the table's state, including indexes verbatim.
func (t *Table) ToDocument() *Document {
	rows := make([][]any, len(t.Rows))
	for i, row := range t.Rows {
		rows[i] = row.Scalars()
	}

	var primary_key *string
	if t.PrimaryKey != "" {
		pk := t.PrimaryKey
		primary_key = &pk
	}

	indexes := map[string]Index{}
	for column, index := range t.Indexes {
		copied := Index{}
		for key, positions := range index {
			copied[key] = append([]int{}, positions...)
		}
		indexes[column] = copied
	}

	return &Document{
		Name:              t.Name,
		Columns:           t.Columns,
		Types:             t.Types,
		Rows:              rows,
		PrimaryKey:        primary_key,
		UniqueConstraints: t.UniqueConstraints,
		Indexes:           indexes,
	}
}

// FromDocument reconstructs a table. The embedded schema goes through the
// same validation as direct construction; rows are decoded positionally by
// declared column type and otherwise trusted; constraints and indexes are
// taken verbatim, stale or not.
func FromDocument(doc *Document) (*Table, error) {
	primary_key := ""
	if doc.PrimaryKey != nil {
		primary_key = *doc.PrimaryKey
	}

	unique_constraints := doc.UniqueConstraints
	if unique_constraints == nil {
		unique_constraints = []string{}
	}

	t, err := NewTable(doc.Name, doc.Columns, doc.Types, primary_key, unique_constraints)
	if err != nil {
		return nil, err
	}

	for _, raw := range doc.Rows {
		if len(raw) != len(doc.Columns) {
			return nil, &RowShapeError{Want: len(doc.Columns), Got: len(raw)}
		}
		row := make(Row, len(raw))
		for i, cell := range raw {
			v, err := DecodeValue(cell, doc.Types[i])
			if err != nil {
				return nil, err
			}
			row[i] = v
		}
		t.Rows = append(t.Rows, row)
	}

	t.Indexes = pkg.Map[string, Index]{}
	for column, index := range doc.Indexes {
		t.Indexes.Set(column, index)
	}

	return t, nil
}
