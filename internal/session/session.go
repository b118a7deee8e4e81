// Package session owns the live database: the table registry, its locking
// discipline and the write-through to disk after every mutation.
package session

import (
	"fmt"
	"sync"

	"github.com/pkg/errors"
	sorted "github.com/tobshub/go-sortedmap"

	"github.com/reldb/reldb/internal/auth"
	"github.com/reldb/reldb/internal/storage"
	"github.com/reldb/reldb/internal/table"
	"github.com/reldb/reldb/pkg"
)

type WriteSettings struct {
	DBPath string
	InMem  bool
}

func NewWriteSettings(db_path string, in_mem bool) *WriteSettings {
	if !in_mem && len(db_path) == 0 {
		pkg.FatalLog("Must either provide db path or use in-memory mode")
	}
	return &WriteSettings{db_path, in_mem}
}

type LogOptions struct {
	Should_log      bool
	Show_debug_logs bool
}

type AuthSettings struct {
	Username string
	Password string
}

type UserMap = pkg.Map[string, *auth.User]

// RelDB is one open database session. Tables are kept sorted by name so
// listing and save order are deterministic.
type RelDB struct {
	Locker sync.RWMutex

	Tables         *sorted.SortedMap[string, *table.Table]
	Users          UserMap
	store          *storage.Storage
	write_settings *WriteSettings
}

type TableNotFoundError struct {
	Table string
}

func (e *TableNotFoundError) Error() string {
	return fmt.Sprintf("Table '%s' does not exist", e.Table)
}

type TableExistsError struct {
	Table string
}

func (e *TableExistsError) Error() string {
	return fmt.Sprintf("Table '%s' already exists", e.Table)
}

func tableNameCmp(a, b *table.Table) bool { return a.Name < b.Name }

func NewRelDB(auth_settings AuthSettings, write_settings *WriteSettings, log_options LogOptions) (*RelDB, error) {
	if log_options.Should_log {
		if log_options.Show_debug_logs {
			pkg.SetLogLevel(pkg.LogLevelDebug)
		} else {
			pkg.SetLogLevel(pkg.LogLevelErrOnly)
		}
	} else {
		pkg.SetLogLevel(pkg.LogLevelNone)
	}

	db := &RelDB{
		Tables:         sorted.New[string, *table.Table](0, tableNameCmp),
		Users:          UserMap{},
		write_settings: write_settings,
	}

	if !write_settings.InMem {
		store, err := storage.New(write_settings.DBPath)
		if err != nil {
			return nil, err
		}
		db.store = store
		if err := db.loadTables(); err != nil {
			return nil, err
		}
		users, err := store.LoadUsers()
		if err != nil {
			return nil, err
		}
		db.Users = users
	}

	if auth_settings.Username != "" {
		user := auth.NewUser(auth_settings.Username, auth_settings.Password, auth.RoleAdmin)
		db.Users.Set(user.Name, user)
		db.SaveUsers()
	}

	return db, nil
}

func (db *RelDB) GetLocker() *sync.RWMutex { return &db.Locker }

func (db *RelDB) loadTables() error {
	names, err := db.store.ListTables()
	if err != nil {
		return err
	}

	for _, name := range names {
		doc, err := db.store.LoadTable(name)
		if err != nil {
			return err
		}
		if doc == nil {
			continue
		}
		t, err := table.FromDocument(doc)
		if err != nil {
			return errors.Wrapf(err, "Failed to restore table %s", name)
		}
		db.Tables.Insert(t.Name, t)
	}

	if len(names) > 0 {
		pkg.InfoLog("loaded", len(names), "tables from", db.write_settings.DBPath)
	}
	return nil
}

func (db *RelDB) table(name string) (*table.Table, error) {
	t, ok := db.Tables.Get(name)
	if !ok {
		return nil, &TableNotFoundError{Table: name}
	}
	return t, nil
}

// saveTable persists a single table after a successful mutation. In-memory
// sessions skip it.
func (db *RelDB) saveTable(t *table.Table) error {
	if db.store == nil {
		return nil
	}
	return db.store.SaveTable(t.ToDocument())
}

// SaveUsers persists the user map; in-memory sessions skip it.
func (db *RelDB) SaveUsers() {
	if db.store == nil {
		return
	}
	if err := db.store.SaveUsers(db.Users); err != nil {
		pkg.ErrorLog(err)
	}
}

func (db *RelDB) CreateTable(name string, columns []string, types []table.ColumnType, primary_key string, unique_constraints []string) (*table.Table, error) {
	if db.Tables.Has(name) {
		return nil, &TableExistsError{Table: name}
	}

	t, err := table.NewTable(name, columns, types, primary_key, unique_constraints)
	if err != nil {
		return nil, err
	}

	db.Tables.Insert(t.Name, t)
	if err := db.saveTable(t); err != nil {
		return nil, err
	}
	return t, nil
}

func (db *RelDB) DropTable(name string) error {
	if _, err := db.table(name); err != nil {
		return err
	}
	db.Tables.Delete(name)
	if db.store != nil {
		return db.store.DeleteTable(name)
	}
	return nil
}

func (db *RelDB) GetTable(name string) (*table.Table, error) {
	return db.table(name)
}

// ListTables returns table names in sorted order.
func (db *RelDB) ListTables() []string {
	names := []string{}
	iter, err := db.Tables.IterCh()
	if err != nil {
		return names
	}
	defer iter.Close()
	for rec := range iter.Records() {
		names = append(names, rec.Key)
	}
	return names
}
