package conn

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/reldb/reldb/internal/auth"
	"github.com/reldb/reldb/internal/command"
	"github.com/reldb/reldb/internal/parser"
	"github.com/reldb/reldb/internal/query"
	"github.com/reldb/reldb/internal/session"
	"github.com/reldb/reldb/internal/table"
	"github.com/reldb/reldb/pkg"
)

// withTable resolves a table and runs fn over its schema under the session
// read lock, so request decoding never races a concurrent mutation.
func withTable(db *session.RelDB, name string, fn func(*table.Table) error) error {
	var err error
	pkg.RLockWrap(db, func() {
		var t *table.Table
		t, err = db.GetTable(name)
		if err != nil {
			return
		}
		err = fn(t)
	})
	return err
}

// decodeValues types a positional value list against the table schema.
func decodeValues(t *table.Table, raw []any) ([]table.Value, error) {
	if len(raw) != len(t.Columns) {
		return nil, &table.RowShapeError{Want: len(t.Columns), Got: len(raw)}
	}
	values := make([]table.Value, len(raw))
	for i, cell := range raw {
		v, err := table.DecodeValue(cell, t.Types[i])
		if err != nil {
			return nil, err
		}
		values[i] = v
	}
	return values, nil
}

// decodeFilter types a column -> raw value map against the table schema.
func decodeFilter(t *table.Table, raw map[string]any) (query.Filter, error) {
	if raw == nil {
		return nil, nil
	}
	where := query.Filter{}
	for col, cell := range raw {
		ci, err := t.ColumnIndex(col)
		if err != nil {
			return nil, err
		}
		v, err := table.DecodeValue(cell, t.Types[ci])
		if err != nil {
			return nil, err
		}
		where[col] = v
	}
	return where, nil
}

func executeResponse(status int, res *session.Result) Response {
	if res.Rows != nil || res.Columns != nil {
		return NewResponse(status, res.Message, map[string]any{
			"columns": res.Columns,
			"rows":    res.Rows,
			"count":   res.Count,
		})
	}
	return NewResponse(status, res.Message, map[string]any{"count": res.Count})
}

type CreateTableRequest struct {
	Table      string   `json:"table"`
	Columns    []string `json:"columns"`
	Types      []string `json:"types"`
	PrimaryKey string   `json:"primary_key"`
	Unique     []string `json:"unique"`
}

func CreateTableReqHandler(db *session.RelDB, raw []byte) Response {
	var req CreateTableRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return NewErrorResponse(http.StatusBadRequest, err.Error())
	}

	types := make([]table.ColumnType, len(req.Types))
	for i, t := range req.Types {
		types[i] = table.ColumnType(t)
	}

	res, err := db.Execute(&command.Command{
		Type:              command.CreateTable,
		TableName:         req.Table,
		Columns:           req.Columns,
		ColumnTypes:       types,
		PrimaryKey:        req.PrimaryKey,
		UniqueConstraints: req.Unique,
	})
	if err != nil {
		return errorResponse(err)
	}
	return NewResponse(http.StatusCreated, res.Message, nil)
}

type TableRequest struct {
	Table string `json:"table"`
}

func DropTableReqHandler(db *session.RelDB, raw []byte) Response {
	var req TableRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return NewErrorResponse(http.StatusBadRequest, err.Error())
	}

	res, err := db.Execute(&command.Command{Type: command.DropTable, TableName: req.Table})
	if err != nil {
		return errorResponse(err)
	}
	return NewResponse(http.StatusOK, res.Message, nil)
}

func ListTablesReqHandler(db *session.RelDB) Response {
	res, err := db.Execute(&command.Command{Type: command.ListTables})
	if err != nil {
		return errorResponse(err)
	}
	return NewResponse(http.StatusOK, fmt.Sprintf("%d table(s)", res.Count), res.Rows)
}

type InsertRequest struct {
	Table  string `json:"table"`
	Values []any  `json:"values"`
}

func InsertReqHandler(db *session.RelDB, raw []byte) Response {
	var req InsertRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return NewErrorResponse(http.StatusBadRequest, err.Error())
	}

	var values []table.Value
	err := withTable(db, req.Table, func(t *table.Table) error {
		var err error
		values, err = decodeValues(t, req.Values)
		return err
	})
	if err != nil {
		return errorResponse(err)
	}

	res, err := db.Execute(&command.Command{Type: command.Insert, TableName: req.Table, Values: values})
	if err != nil {
		return errorResponse(err)
	}
	return executeResponse(http.StatusCreated, res)
}

type SelectRequest struct {
	Table   string         `json:"table"`
	Columns []string       `json:"columns"`
	Where   map[string]any `json:"where"`
}

func SelectReqHandler(db *session.RelDB, raw []byte) Response {
	var req SelectRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return NewErrorResponse(http.StatusBadRequest, err.Error())
	}

	var where query.Filter
	err := withTable(db, req.Table, func(t *table.Table) error {
		var err error
		where, err = decodeFilter(t, req.Where)
		return err
	})
	if err != nil {
		return errorResponse(err)
	}

	res, err := db.Execute(&command.Command{
		Type: command.Select, TableName: req.Table,
		Projection: req.Columns, Where: where,
	})
	if err != nil {
		return errorResponse(err)
	}
	return executeResponse(http.StatusOK, res)
}

type UpdateRequest struct {
	Table string         `json:"table"`
	Set   map[string]any `json:"set"`
	Where map[string]any `json:"where"`
}

func UpdateReqHandler(db *session.RelDB, raw []byte) Response {
	var req UpdateRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return NewErrorResponse(http.StatusBadRequest, err.Error())
	}

	var set, where query.Filter
	err := withTable(db, req.Table, func(t *table.Table) error {
		var err error
		if set, err = decodeFilter(t, req.Set); err != nil {
			return err
		}
		where, err = decodeFilter(t, req.Where)
		return err
	})
	if err != nil {
		return errorResponse(err)
	}

	res, err := db.Execute(&command.Command{
		Type: command.Update, TableName: req.Table,
		SetValues: set, Where: where,
	})
	if err != nil {
		return errorResponse(err)
	}
	return executeResponse(http.StatusOK, res)
}

type DeleteRequest struct {
	Table string         `json:"table"`
	Where map[string]any `json:"where"`
}

func DeleteReqHandler(db *session.RelDB, raw []byte) Response {
	var req DeleteRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return NewErrorResponse(http.StatusBadRequest, err.Error())
	}

	var where query.Filter
	err := withTable(db, req.Table, func(t *table.Table) error {
		var err error
		where, err = decodeFilter(t, req.Where)
		return err
	})
	if err != nil {
		return errorResponse(err)
	}

	res, err := db.Execute(&command.Command{Type: command.Delete, TableName: req.Table, Where: where})
	if err != nil {
		return errorResponse(err)
	}
	return executeResponse(http.StatusOK, res)
}

type JoinRequest struct {
	Left        string `json:"left"`
	Right       string `json:"right"`
	LeftColumn  string `json:"left_column"`
	RightColumn string `json:"right_column"`
}

func JoinReqHandler(db *session.RelDB, raw []byte) Response {
	var req JoinRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return NewErrorResponse(http.StatusBadRequest, err.Error())
	}

	res, err := db.Execute(&command.Command{
		Type: command.Join, TableName: req.Left, JoinTable: req.Right,
		LeftColumn: req.LeftColumn, RightColumn: req.RightColumn,
	})
	if err != nil {
		return errorResponse(err)
	}
	return executeResponse(http.StatusOK, res)
}

type IndexRequest struct {
	Table  string `json:"table"`
	Column string `json:"column"`
}

func CreateIndexReqHandler(db *session.RelDB, raw []byte) Response {
	var req IndexRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return NewErrorResponse(http.StatusBadRequest, err.Error())
	}

	res, err := db.Execute(&command.Command{Type: command.CreateIndex, TableName: req.Table, IndexColumn: req.Column})
	if err != nil {
		return errorResponse(err)
	}
	return NewResponse(http.StatusCreated, res.Message, nil)
}

func DropIndexReqHandler(db *session.RelDB, raw []byte) Response {
	var req IndexRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return NewErrorResponse(http.StatusBadRequest, err.Error())
	}

	res, err := db.Execute(&command.Command{Type: command.DropIndex, TableName: req.Table, IndexColumn: req.Column})
	if err != nil {
		return errorResponse(err)
	}
	return NewResponse(http.StatusOK, res.Message, nil)
}

type LookupRequest struct {
	Table  string `json:"table"`
	Column string `json:"column"`
	Value  any    `json:"value"`
}

// LookupReqHandler answers a point query through a hash index and returns
// the matching row positions.
func LookupReqHandler(db *session.RelDB, raw []byte) Response {
	var req LookupRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return NewErrorResponse(http.StatusBadRequest, err.Error())
	}

	var positions []int
	err := withTable(db, req.Table, func(t *table.Table) error {
		ci, err := t.ColumnIndex(req.Column)
		if err != nil {
			return err
		}
		v, err := table.DecodeValue(req.Value, t.Types[ci])
		if err != nil {
			return err
		}
		positions, err = db.Lookup(req.Table, req.Column, v)
		return err
	})
	if err != nil {
		return errorResponse(err)
	}

	return NewResponse(http.StatusOK, fmt.Sprintf("%d position(s)", len(positions)),
		map[string]any{"positions": positions, "count": len(positions)})
}

type QueryRequest struct {
	Query string `json:"query"`
}

// QueryReqHandler routes raw command text through the parser, so clients can
// speak the same language as the REPL.
func QueryReqHandler(db *session.RelDB, ctx *ConnCtx, raw []byte) Response {
	var req QueryRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return NewErrorResponse(http.StatusBadRequest, err.Error())
	}

	cmd, err := parser.Parse(req.Query)
	if err != nil {
		return NewErrorResponse(http.StatusBadRequest, err.Error())
	}

	want := auth.RoleReadWrite
	if cmd.Type.IsReadOnly() {
		want = auth.RoleReadOnly
	}
	if !ctx.User.Role.HasClearance(want) {
		return NewErrorResponse(http.StatusForbidden, auth.ErrInsufficientPermissions.Error())
	}

	res, err := db.Execute(cmd)
	if err != nil {
		return errorResponse(err)
	}
	return executeResponse(http.StatusOK, res)
}

type CreateUserRequest struct {
	Name     string `json:"name"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

func CreateUserReqHandler(db *session.RelDB, raw []byte) Response {
	var req CreateUserRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return NewErrorResponse(http.StatusBadRequest, err.Error())
	}

	db.Locker.Lock()
	defer db.Locker.Unlock()

	if db.Users.Has(req.Name) {
		return NewErrorResponse(http.StatusConflict, fmt.Sprintf("User '%s' already exists", req.Name))
	}
	user := auth.NewUser(req.Name, req.Password, auth.ParseRole(req.Role))
	db.Users.Set(user.Name, user)
	db.SaveUsers()
	return NewResponse(http.StatusCreated, fmt.Sprintf("Created new user %s", user.Name), nil)
}

type DeleteUserRequest struct {
	Name string `json:"name"`
}

func DeleteUserReqHandler(db *session.RelDB, raw []byte) Response {
	var req DeleteUserRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return NewErrorResponse(http.StatusBadRequest, err.Error())
	}

	db.Locker.Lock()
	defer db.Locker.Unlock()

	if !db.Users.Has(req.Name) {
		return NewErrorResponse(http.StatusNotFound, fmt.Sprintf("User '%s' does not exist", req.Name))
	}
	db.Users.Delete(req.Name)
	db.SaveUsers()
	return NewResponse(http.StatusOK, fmt.Sprintf("Deleted user %s", req.Name), nil)
}

func ActionHandler(db *session.RelDB, action RequestAction, ctx *ConnCtx, raw []byte) Response {
	if action.IsAdminAction() {
		if !ctx.User.Role.HasClearance(auth.RoleAdmin) {
			return NewErrorResponse(http.StatusForbidden, auth.ErrInsufficientPermissions.Error())
		}
	} else if action.IsReadOnly() {
		if !ctx.User.Role.HasClearance(auth.RoleReadOnly) {
			return NewErrorResponse(http.StatusForbidden, auth.ErrInsufficientPermissions.Error())
		}
	} else if action != RequestActionQuery {
		// query clearance depends on the parsed command
		if !ctx.User.Role.HasClearance(auth.RoleReadWrite) {
			return NewErrorResponse(http.StatusForbidden, auth.ErrInsufficientPermissions.Error())
		}
	}

	switch action {
	case RequestActionCreateTable:
		return CreateTableReqHandler(db, raw)
	case RequestActionDropTable:
		return DropTableReqHandler(db, raw)
	case RequestActionListTables:
		return ListTablesReqHandler(db)
	case RequestActionInsert:
		return InsertReqHandler(db, raw)
	case RequestActionSelect:
		return SelectReqHandler(db, raw)
	case RequestActionUpdate:
		return UpdateReqHandler(db, raw)
	case RequestActionDelete:
		return DeleteReqHandler(db, raw)
	case RequestActionJoin:
		return JoinReqHandler(db, raw)
	case RequestActionCreateIndex:
		return CreateIndexReqHandler(db, raw)
	case RequestActionDropIndex:
		return DropIndexReqHandler(db, raw)
	case RequestActionLookup:
		return LookupReqHandler(db, raw)
	case RequestActionQuery:
		return QueryReqHandler(db, ctx, raw)
	case RequestActionCreateUser:
		return CreateUserReqHandler(db, raw)
	case RequestActionDeleteUser:
		return DeleteUserReqHandler(db, raw)
	default:
		return NewErrorResponse(http.StatusBadRequest, fmt.Sprintf("unknown action: %s", action))
	}
}
