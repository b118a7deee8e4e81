package command

import (
	"github.com/reldb/reldb/internal/query"
	"github.com/reldb/reldb/internal/table"
)

// Type discriminates structured commands.
type Type string

const (
	CreateTable Type = "CREATE_TABLE"
	DropTable   Type = "DROP_TABLE"
	Insert      Type = "INSERT"
	Select      Type = "SELECT"
	Update      Type = "UPDATE"
	Delete      Type = "DELETE"
	Join        Type = "JOIN"
	CreateIndex Type = "CREATE_INDEX"
	DropIndex   Type = "DROP_INDEX"
	ListTables  Type = "LIST_TABLES"
)

func (t Type) IsReadOnly() bool {
	return t == Select || t == Join || t == ListTables
}

// Command is a fully structured query: the engine never sees query text.
// Filter and set values already carry typed values, not raw strings.
type Command struct {
	Type      Type
	TableName string

	// create table
	Columns           []string
	ColumnTypes       []table.ColumnType
	PrimaryKey        string
	UniqueConstraints []string

	// insert
	Values []table.Value

	// select / update / delete
	Projection []string // nil means all columns
	Where      query.Filter
	SetValues  map[string]table.Value

	// join
	JoinTable   string
	LeftColumn  string
	RightColumn string

	// create index / drop index
	IndexColumn string
}
