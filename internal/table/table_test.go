package table_test

import (
	"testing"

	. "github.com/reldb/reldb/internal/table"
	"gotest.tools/assert"
)

func newUsersTable(t *testing.T) *Table {
	tbl, err := NewTable("users",
		[]string{"id", "name", "age"},
		[]ColumnType{TypeInt, TypeText, TypeInt},
		"id", []string{"name"})
	assert.NilError(t, err)
	return tbl
}

func TestNewTable(t *testing.T) {
	t.Run("empty name", func(t *testing.T) {
		_, err := NewTable("", []string{"a"}, []ColumnType{TypeInt}, "", nil)
		assert.ErrorContains(t, err, "Table name cannot be empty")
	})

	t.Run("no columns", func(t *testing.T) {
		_, err := NewTable("a", nil, nil, "", nil)
		assert.ErrorContains(t, err, "at least one column")
	})

	t.Run("column type count mismatch", func(t *testing.T) {
		_, err := NewTable("a", []string{"x", "y"}, []ColumnType{TypeInt}, "", nil)
		assert.ErrorContains(t, err, "must match")
	})

	t.Run("duplicate column", func(t *testing.T) {
		_, err := NewTable("a", []string{"x", "x"}, []ColumnType{TypeInt, TypeInt}, "", nil)
		assert.ErrorContains(t, err, "Duplicate column name found: x")
	})

	t.Run("invalid type", func(t *testing.T) {
		_, err := NewTable("a", []string{"x"}, []ColumnType{"DATE"}, "", nil)
		assert.ErrorContains(t, err, "Invalid data type: DATE")
	})

	t.Run("missing primary key column", func(t *testing.T) {
		_, err := NewTable("a", []string{"x"}, []ColumnType{TypeInt}, "y", nil)
		assert.ErrorContains(t, err, "Primary key column 'y' does not exist")
	})

	t.Run("missing unique column", func(t *testing.T) {
		_, err := NewTable("a", []string{"x"}, []ColumnType{TypeInt}, "", []string{"y"})
		assert.ErrorContains(t, err, "Unique constraint column 'y' does not exist")
	})
}

func TestInsert(t *testing.T) {
	t.Run("positions are insertion order", func(t *testing.T) {
		tbl := newUsersTable(t)
		pos, err := tbl.Insert(Row{Int(1), Text("Alice"), Int(30)})
		assert.NilError(t, err)
		assert.Equal(t, pos, 0)

		pos, err = tbl.Insert(Row{Int(2), Text("Bob"), Int(25)})
		assert.NilError(t, err)
		assert.Equal(t, pos, 1)
	})

	t.Run("wrong arity", func(t *testing.T) {
		tbl := newUsersTable(t)
		_, err := tbl.Insert(Row{Int(1), Text("Alice")})
		assert.ErrorContains(t, err, "Expected 3 values, got 2")
	})

	t.Run("type mismatch", func(t *testing.T) {
		tbl := newUsersTable(t)
		_, err := tbl.Insert(Row{Int(1), Text("Alice"), Text("30")})
		assert.ErrorContains(t, err, "Invalid type for column 'age'")
	})

	t.Run("duplicate primary key keeps table unchanged", func(t *testing.T) {
		tbl := newUsersTable(t)
		_, err := tbl.Insert(Row{Int(1), Text("Alice"), Int(30)})
		assert.NilError(t, err)

		_, err = tbl.Insert(Row{Int(1), Text("Briana"), Int(25)})
		assert.ErrorContains(t, err, "Duplicate primary key value: 1")
		assert.Equal(t, tbl.Len(), 1)
	})

	t.Run("duplicate unique value", func(t *testing.T) {
		tbl := newUsersTable(t)
		_, err := tbl.Insert(Row{Int(1), Text("Alice"), Int(30)})
		assert.NilError(t, err)

		_, err = tbl.Insert(Row{Int(2), Text("Alice"), Int(25)})
		assert.ErrorContains(t, err, "Duplicate value for unique column 'name': Alice")
	})

	t.Run("primary key checked before unique", func(t *testing.T) {
		tbl := newUsersTable(t)
		_, err := tbl.Insert(Row{Int(1), Text("Alice"), Int(30)})
		assert.NilError(t, err)

		// violates both; the pk error wins
		_, err = tbl.Insert(Row{Int(1), Text("Alice"), Int(25)})
		assert.ErrorContains(t, err, "Duplicate primary key value: 1")
	})
}

func TestColumnIndex(t *testing.T) {
	tbl := newUsersTable(t)

	ci, err := tbl.ColumnIndex("age")
	assert.NilError(t, err)
	assert.Equal(t, ci, 2)

	_, err = tbl.ColumnIndex("email")
	assert.ErrorContains(t, err, "Column 'email' does not exist in table 'users'")
}
