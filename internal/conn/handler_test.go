package conn_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/reldb/reldb/internal/auth"
	. "github.com/reldb/reldb/internal/conn"
	"github.com/reldb/reldb/internal/session"
	"github.com/reldb/reldb/internal/table"
	"gotest.tools/assert"
)

func reqEncode(t *testing.T, payload map[string]any) []byte {
	raw, err := json.Marshal(payload)
	assert.NilError(t, err)
	return raw
}

func newTestDB(t *testing.T) *session.RelDB {
	db, err := session.NewRelDB(session.AuthSettings{},
		session.NewWriteSettings("", true), session.LogOptions{})
	assert.NilError(t, err)

	_, err = db.CreateTable("users",
		[]string{"id", "name", "age"},
		[]table.ColumnType{table.TypeInt, table.TypeText, table.TypeInt},
		"id", nil)
	assert.NilError(t, err)
	return db
}

func adminCtx() *ConnCtx {
	return &ConnCtx{User: auth.NewUser("root", "secret", auth.RoleAdmin)}
}

func readOnlyCtx() *ConnCtx {
	return &ConnCtx{User: auth.NewUser("viewer", "secret", auth.RoleReadOnly)}
}

func TestInsertReqHandler(t *testing.T) {
	db := newTestDB(t)
	ctx := adminCtx()

	t.Run("simple insert", func(t *testing.T) {
		raw := reqEncode(t, map[string]any{"table": "users", "values": []any{1, "Alice", 30}})
		res := ActionHandler(db, RequestActionInsert, ctx, raw)

		assert.Equal(t, res.Status, http.StatusCreated, res.Message)
		assert.Equal(t, res.Message, "1 row inserted")
	})

	t.Run("duplicate primary key", func(t *testing.T) {
		raw := reqEncode(t, map[string]any{"table": "users", "values": []any{1, "Briana", 25}})
		res := ActionHandler(db, RequestActionInsert, ctx, raw)

		assert.Equal(t, res.Status, http.StatusConflict, res.Message)
		assert.Equal(t, res.Message, "Duplicate primary key value: 1")
	})

	t.Run("table not found", func(t *testing.T) {
		raw := reqEncode(t, map[string]any{"table": "ghost", "values": []any{1}})
		res := ActionHandler(db, RequestActionInsert, ctx, raw)

		assert.Equal(t, res.Status, http.StatusNotFound, res.Message)
	})

	t.Run("json numbers decode by column type", func(t *testing.T) {
		// json turns every number into float64 on the way in
		raw := reqEncode(t, map[string]any{"table": "users", "values": []any{2.0, "Bob", 25.0}})
		res := ActionHandler(db, RequestActionInsert, ctx, raw)
		assert.Equal(t, res.Status, http.StatusCreated, res.Message)
	})

	t.Run("non-integral number for INT", func(t *testing.T) {
		raw := reqEncode(t, map[string]any{"table": "users", "values": []any{3.5, "Cara", 30}})
		res := ActionHandler(db, RequestActionInsert, ctx, raw)
		assert.Equal(t, res.Status, http.StatusBadRequest, res.Message)
	})
}

func TestSelectReqHandler(t *testing.T) {
	db := newTestDB(t)
	ctx := adminCtx()
	ActionHandler(db, RequestActionInsert, ctx,
		reqEncode(t, map[string]any{"table": "users", "values": []any{1, "Alice", 30}}))
	ActionHandler(db, RequestActionInsert, ctx,
		reqEncode(t, map[string]any{"table": "users", "values": []any{2, "Bob", 25}}))

	t.Run("filtered select", func(t *testing.T) {
		raw := reqEncode(t, map[string]any{"table": "users", "where": map[string]any{"age": 30}})
		res := ActionHandler(db, RequestActionSelect, ctx, raw)

		assert.Equal(t, res.Status, http.StatusOK, res.Message)
		data := res.Data.(map[string]any)
		assert.Equal(t, data["count"], 1)
	})

	t.Run("unknown filter column", func(t *testing.T) {
		raw := reqEncode(t, map[string]any{"table": "users", "where": map[string]any{"email": "x"}})
		res := ActionHandler(db, RequestActionSelect, ctx, raw)

		assert.Equal(t, res.Status, http.StatusNotFound, res.Message)
	})
}

func TestUpdateReqHandler(t *testing.T) {
	db := newTestDB(t)
	ctx := adminCtx()
	ActionHandler(db, RequestActionInsert, ctx,
		reqEncode(t, map[string]any{"table": "users", "values": []any{1, "Alice", 30}}))
	ActionHandler(db, RequestActionInsert, ctx,
		reqEncode(t, map[string]any{"table": "users", "values": []any{2, "Bob", 25}}))

	t.Run("simple update", func(t *testing.T) {
		raw := reqEncode(t, map[string]any{
			"table": "users",
			"set":   map[string]any{"age": 31},
			"where": map[string]any{"id": 1},
		})
		res := ActionHandler(db, RequestActionUpdate, ctx, raw)

		assert.Equal(t, res.Status, http.StatusOK, res.Message)
		assert.Equal(t, res.Message, "1 row(s) updated")
	})

	t.Run("primary key collision", func(t *testing.T) {
		raw := reqEncode(t, map[string]any{
			"table": "users",
			"set":   map[string]any{"id": 2},
			"where": map[string]any{"id": 1},
		})
		res := ActionHandler(db, RequestActionUpdate, ctx, raw)

		assert.Equal(t, res.Status, http.StatusConflict, res.Message)
		assert.Equal(t, res.Message, "Duplicate primary key value: 2")
	})

	t.Run("empty set", func(t *testing.T) {
		raw := reqEncode(t, map[string]any{"table": "users", "where": map[string]any{"id": 1}})
		res := ActionHandler(db, RequestActionUpdate, ctx, raw)

		assert.Equal(t, res.Status, http.StatusBadRequest, res.Message)
		assert.Equal(t, res.Message, "Must specify at least one column to update")
	})
}

func TestClearance(t *testing.T) {
	db := newTestDB(t)
	viewer := readOnlyCtx()

	t.Run("read-only can select", func(t *testing.T) {
		raw := reqEncode(t, map[string]any{"table": "users"})
		res := ActionHandler(db, RequestActionSelect, viewer, raw)
		assert.Equal(t, res.Status, http.StatusOK, res.Message)
	})

	t.Run("read-only cannot insert", func(t *testing.T) {
		raw := reqEncode(t, map[string]any{"table": "users", "values": []any{1, "Alice", 30}})
		res := ActionHandler(db, RequestActionInsert, viewer, raw)
		assert.Equal(t, res.Status, http.StatusForbidden, res.Message)
	})

	t.Run("read-only cannot mutate via query action", func(t *testing.T) {
		raw := reqEncode(t, map[string]any{"query": "DELETE FROM users"})
		res := ActionHandler(db, RequestActionQuery, viewer, raw)
		assert.Equal(t, res.Status, http.StatusForbidden, res.Message)
	})

	t.Run("non-admin cannot create users", func(t *testing.T) {
		raw := reqEncode(t, map[string]any{"name": "eve", "password": "x"})
		res := ActionHandler(db, RequestActionCreateUser, viewer, raw)
		assert.Equal(t, res.Status, http.StatusForbidden, res.Message)
	})
}

func TestLookupReqHandler(t *testing.T) {
	db := newTestDB(t)
	ctx := adminCtx()
	ActionHandler(db, RequestActionInsert, ctx,
		reqEncode(t, map[string]any{"table": "users", "values": []any{1, "Alice", 30}}))
	ActionHandler(db, RequestActionInsert, ctx,
		reqEncode(t, map[string]any{"table": "users", "values": []any{2, "Bob", 30}}))

	res := ActionHandler(db, RequestActionCreateIndex, ctx,
		reqEncode(t, map[string]any{"table": "users", "column": "age"}))
	assert.Equal(t, res.Status, http.StatusCreated, res.Message)

	t.Run("indexed lookup", func(t *testing.T) {
		res := ActionHandler(db, RequestActionLookup, ctx,
			reqEncode(t, map[string]any{"table": "users", "column": "age", "value": 30}))
		assert.Equal(t, res.Status, http.StatusOK, res.Message)
		data := res.Data.(map[string]any)
		assert.DeepEqual(t, data["positions"], []int{0, 1})
	})

	t.Run("no index on column", func(t *testing.T) {
		res := ActionHandler(db, RequestActionLookup, ctx,
			reqEncode(t, map[string]any{"table": "users", "column": "name", "value": "Alice"}))
		assert.Equal(t, res.Status, http.StatusNotFound, res.Message)
		assert.Equal(t, res.Message, "Index on column 'name' does not exist")
	})
}

func TestQueryReqHandler(t *testing.T) {
	db := newTestDB(t)
	ctx := adminCtx()

	res := ActionHandler(db, RequestActionQuery, ctx,
		reqEncode(t, map[string]any{"query": "INSERT INTO users VALUES (1, 'Alice', 30)"}))
	assert.Equal(t, res.Status, http.StatusOK, res.Message)

	res = ActionHandler(db, RequestActionQuery, ctx,
		reqEncode(t, map[string]any{"query": "SELECT name FROM users WHERE age = 30"}))
	assert.Equal(t, res.Status, http.StatusOK, res.Message)
	data := res.Data.(map[string]any)
	assert.Equal(t, data["count"], 1)

	res = ActionHandler(db, RequestActionQuery, ctx,
		reqEncode(t, map[string]any{"query": "EXPLAIN users"}))
	assert.Equal(t, res.Status, http.StatusBadRequest, res.Message)
}

func TestUserAdminHandlers(t *testing.T) {
	db := newTestDB(t)
	ctx := adminCtx()

	res := ActionHandler(db, RequestActionCreateUser, ctx,
		reqEncode(t, map[string]any{"name": "eve", "password": "pw", "role": "read-only"}))
	assert.Equal(t, res.Status, http.StatusCreated, res.Message)
	assert.Assert(t, db.Users.Has("eve"))
	assert.Equal(t, db.Users.Get("eve").Role, auth.RoleReadOnly)

	res = ActionHandler(db, RequestActionCreateUser, ctx,
		reqEncode(t, map[string]any{"name": "eve", "password": "pw"}))
	assert.Equal(t, res.Status, http.StatusConflict, res.Message)

	res = ActionHandler(db, RequestActionDeleteUser, ctx,
		reqEncode(t, map[string]any{"name": "eve"}))
	assert.Equal(t, res.Status, http.StatusOK, res.Message)
	assert.Assert(t, !db.Users.Has("eve"))

	res = ActionHandler(db, RequestActionDeleteUser, ctx,
		reqEncode(t, map[string]any{"name": "eve"}))
	assert.Equal(t, res.Status, http.StatusNotFound, res.Message)
}

func TestConnValidate(t *testing.T) {
	db := newTestDB(t)
	ctx := adminCtx()

	res := ActionHandler(db, RequestActionCreateUser, ctx,
		reqEncode(t, map[string]any{"name": "eve", "password": "pw", "role": "read-only"}))
	assert.Equal(t, res.Status, http.StatusCreated, res.Message)

	t.Run("valid credentials", func(t *testing.T) {
		u := ConnValidate(db, ConnRequest{Username: "eve", Password: "pw"})
		assert.Assert(t, u != nil)
		assert.Equal(t, u.Role, auth.RoleReadOnly)
	})

	t.Run("wrong password", func(t *testing.T) {
		assert.Assert(t, ConnValidate(db, ConnRequest{Username: "eve", Password: "nope"}) == nil)
	})

	t.Run("unknown user", func(t *testing.T) {
		assert.Assert(t, ConnValidate(db, ConnRequest{Username: "mallory", Password: "pw"}) == nil)
	})

	t.Run("empty username", func(t *testing.T) {
		assert.Assert(t, ConnValidate(db, ConnRequest{}) == nil)
	})

	t.Run("concurrent with user admin", func(t *testing.T) {
		create := make([][]byte, 8)
		drop := make([][]byte, 8)
		for i := range create {
			name := fmt.Sprintf("u%d", i)
			create[i] = reqEncode(t, map[string]any{"name": name, "password": "pw"})
			drop[i] = reqEncode(t, map[string]any{"name": name})
		}

		done := make(chan struct{})
		go func() {
			defer close(done)
			for i := range create {
				ActionHandler(db, RequestActionCreateUser, ctx, create[i])
				ActionHandler(db, RequestActionDeleteUser, ctx, drop[i])
			}
		}()
		for i := 0; i < len(create); i++ {
			ConnValidate(db, ConnRequest{Username: "eve", Password: "pw"})
		}
		<-done
	})
}

func TestTableAdminHandlers(t *testing.T) {
	db := newTestDB(t)
	ctx := adminCtx()

	res := ActionHandler(db, RequestActionCreateTable, ctx, reqEncode(t, map[string]any{
		"table":       "orders",
		"columns":     []string{"order_id", "user_id"},
		"types":       []string{"INT", "INT"},
		"primary_key": "order_id",
	}))
	assert.Equal(t, res.Status, http.StatusCreated, res.Message)
	assert.Equal(t, res.Message, "Table 'orders' created")

	res = ActionHandler(db, RequestActionListTables, ctx, nil)
	assert.Equal(t, res.Status, http.StatusOK, res.Message)

	res = ActionHandler(db, RequestActionDropTable, ctx,
		reqEncode(t, map[string]any{"table": "orders"}))
	assert.Equal(t, res.Status, http.StatusOK, res.Message)
	assert.Equal(t, res.Message, "Table 'orders' dropped")
}
