package session

import (
	"fmt"

	"github.com/reldb/reldb/internal/command"
	"github.com/reldb/reldb/internal/query"
	"github.com/reldb/reldb/internal/table"
)

// Result is the uniform outcome of one executed command. Rows and Columns
// are set for reads; Count for mutations; Message is the human line the
// REPL prints.
type Result struct {
	Columns []string
	Rows    [][]any
	Count   int
	Message string
}

func rowsToScalars(rows []table.Row) [][]any {
	out := make([][]any, len(rows))
	for i, row := range rows {
		out[i] = row.Scalars()
	}
	return out
}

func (db *RelDB) Insert(table_name string, values []table.Value) (int, error) {
	t, err := db.table(table_name)
	if err != nil {
		return 0, err
	}
	pos, err := t.Insert(table.Row(values))
	if err != nil {
		return 0, err
	}
	if err := db.saveTable(t); err != nil {
		return 0, err
	}
	return pos, nil
}

func (db *RelDB) Select(table_name string, columns []string, where query.Filter) ([]string, []table.Row, error) {
	t, err := db.table(table_name)
	if err != nil {
		return nil, nil, err
	}
	if columns == nil {
		columns = t.Columns
	}
	rows, err := query.Select(t, columns, where)
	if err != nil {
		return nil, nil, err
	}
	return columns, rows, nil
}

func (db *RelDB) Update(table_name string, set map[string]table.Value, where query.Filter) (int, error) {
	t, err := db.table(table_name)
	if err != nil {
		return 0, err
	}
	count, err := query.Update(t, set, where)
	if err != nil {
		return 0, err
	}
	if err := db.saveTable(t); err != nil {
		return 0, err
	}
	return count, nil
}

// Delete removes matching rows, then rebuilds every index the table still
// carries: the engine leaves indexes stale after compaction, and the session
// is the caller responsible for making them trustworthy again.
func (db *RelDB) Delete(table_name string, where query.Filter) (int, error) {
	t, err := db.table(table_name)
	if err != nil {
		return 0, err
	}
	count, err := query.Delete(t, where)
	if err != nil {
		return 0, err
	}
	for _, column := range t.Indexes.Keys() {
		if err := t.CreateIndex(column); err != nil {
			return 0, err
		}
	}
	if err := db.saveTable(t); err != nil {
		return 0, err
	}
	return count, nil
}

func (db *RelDB) Join(left_name, right_name, left_column, right_column string) ([]string, []table.Row, error) {
	left, err := db.table(left_name)
	if err != nil {
		return nil, nil, err
	}
	right, err := db.table(right_name)
	if err != nil {
		return nil, nil, err
	}

	rows, err := query.Join(left, right, left_column, right_column)
	if err != nil {
		return nil, nil, err
	}

	columns := make([]string, 0, len(left.Columns)+len(right.Columns))
	for _, col := range left.Columns {
		columns = append(columns, left_name+"."+col)
	}
	for _, col := range right.Columns {
		columns = append(columns, right_name+"."+col)
	}
	return columns, rows, nil
}

// Lookup answers a point query through the column's hash index. The answer
// is only as fresh as the index: after deletes it reflects pre-compaction
// positions until the index is rebuilt.
func (db *RelDB) Lookup(table_name, column string, v table.Value) ([]int, error) {
	t, err := db.table(table_name)
	if err != nil {
		return nil, err
	}
	positions, ok := t.Lookup(column, v)
	if !ok {
		return nil, &table.IndexNotFoundError{Column: column}
	}
	return positions, nil
}

func (db *RelDB) CreateIndex(table_name, column string) error {
	t, err := db.table(table_name)
	if err != nil {
		return err
	}
	if err := t.CreateIndex(column); err != nil {
		return err
	}
	return db.saveTable(t)
}

func (db *RelDB) DropIndex(table_name, column string) error {
	t, err := db.table(table_name)
	if err != nil {
		return err
	}
	if err := t.DropIndex(column); err != nil {
		return err
	}
	return db.saveTable(t)
}

// Execute runs one structured command under the session lock: shared for
// reads, exclusive for mutations.
func (db *RelDB) Execute(cmd *command.Command) (*Result, error) {
	if cmd.Type.IsReadOnly() {
		db.Locker.RLock()
		defer db.Locker.RUnlock()
	} else {
		db.Locker.Lock()
		defer db.Locker.Unlock()
	}

	switch cmd.Type {
	case command.CreateTable:
		if _, err := db.CreateTable(cmd.TableName, cmd.Columns, cmd.ColumnTypes, cmd.PrimaryKey, cmd.UniqueConstraints); err != nil {
			return nil, err
		}
		return &Result{Message: fmt.Sprintf("Table '%s' created", cmd.TableName)}, nil

	case command.DropTable:
		if err := db.DropTable(cmd.TableName); err != nil {
			return nil, err
		}
		return &Result{Message: fmt.Sprintf("Table '%s' dropped", cmd.TableName)}, nil

	case command.Insert:
		if _, err := db.Insert(cmd.TableName, cmd.Values); err != nil {
			return nil, err
		}
		return &Result{Count: 1, Message: "1 row inserted"}, nil

	case command.Select:
		columns, rows, err := db.Select(cmd.TableName, cmd.Projection, cmd.Where)
		if err != nil {
			return nil, err
		}
		return &Result{Columns: columns, Rows: rowsToScalars(rows), Count: len(rows)}, nil

	case command.Update:
		count, err := db.Update(cmd.TableName, cmd.SetValues, cmd.Where)
		if err != nil {
			return nil, err
		}
		return &Result{Count: count, Message: fmt.Sprintf("%d row(s) updated", count)}, nil

	case command.Delete:
		count, err := db.Delete(cmd.TableName, cmd.Where)
		if err != nil {
			return nil, err
		}
		return &Result{Count: count, Message: fmt.Sprintf("%d row(s) deleted", count)}, nil

	case command.Join:
		columns, rows, err := db.Join(cmd.TableName, cmd.JoinTable, cmd.LeftColumn, cmd.RightColumn)
		if err != nil {
			return nil, err
		}
		return &Result{Columns: columns, Rows: rowsToScalars(rows), Count: len(rows)}, nil

	case command.CreateIndex:
		if err := db.CreateIndex(cmd.TableName, cmd.IndexColumn); err != nil {
			return nil, err
		}
		return &Result{Message: fmt.Sprintf("Index created on '%s'", cmd.IndexColumn)}, nil

	case command.DropIndex:
		if err := db.DropIndex(cmd.TableName, cmd.IndexColumn); err != nil {
			return nil, err
		}
		return &Result{Message: fmt.Sprintf("Index dropped on '%s'", cmd.IndexColumn)}, nil

	case command.ListTables:
		names := db.ListTables()
		rows := make([][]any, len(names))
		for i, name := range names {
			rows[i] = []any{name}
		}
		return &Result{Columns: []string{"table"}, Rows: rows, Count: len(names)}, nil
	}

	return nil, fmt.Errorf("Unknown command type: %s", cmd.Type)
}
