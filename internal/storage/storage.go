// Package storage persists table documents as one JSON file per table under
// a single data directory.
package storage

import (
	"encoding/json"
	"os"
	"path"
	"strings"

	"github.com/pkg/errors"
	"github.com/reldb/reldb/internal/auth"
	"github.com/reldb/reldb/internal/table"
	"github.com/reldb/reldb/pkg"
)

// users live in users.meta so ListTables never mistakes them for a table
const users_file = "users.meta"

type Storage struct {
	db_path string
}

// New creates the data directory if needed.
func New(db_path string) (*Storage, error) {
	if err := os.MkdirAll(db_path, 0o755); err != nil {
		return nil, errors.Wrap(err, "Failed to create data directory")
	}
	return &Storage{db_path: db_path}, nil
}

func (s *Storage) tablePath(name string) string {
	return path.Join(s.db_path, name+".json")
}

func (s *Storage) SaveTable(doc *table.Document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return errors.Wrapf(err, "Failed to encode table %s", doc.Name)
	}
	if err := os.WriteFile(s.tablePath(doc.Name), data, 0o644); err != nil {
		return errors.Wrapf(err, "Failed to write table %s", doc.Name)
	}
	pkg.DebugLog("saved table", doc.Name, "with", len(doc.Rows), "rows")
	return nil
}

// LoadTable returns (nil, nil) when the table has no file on disk.
func (s *Storage) LoadTable(name string) (*table.Document, error) {
	data, err := os.ReadFile(s.tablePath(name))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to read table %s", name)
	}

	doc := table.Document{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrapf(err, "Failed to decode table %s", name)
	}
	return &doc, nil
}

func (s *Storage) DeleteTable(name string) error {
	err := os.Remove(s.tablePath(name))
	if err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "Failed to delete table %s", name)
	}
	return nil
}

func (s *Storage) TableExists(name string) bool {
	_, err := os.Stat(s.tablePath(name))
	return err == nil
}

func (s *Storage) SaveUsers(users pkg.Map[string, *auth.User]) error {
	data, err := json.MarshalIndent(users, "", "  ")
	if err != nil {
		return errors.Wrap(err, "Failed to encode users")
	}
	if err := os.WriteFile(path.Join(s.db_path, users_file), data, 0o600); err != nil {
		return errors.Wrap(err, "Failed to write users")
	}
	return nil
}

// LoadUsers returns an empty map when no users file exists yet.
func (s *Storage) LoadUsers() (pkg.Map[string, *auth.User], error) {
	users := pkg.Map[string, *auth.User]{}
	data, err := os.ReadFile(path.Join(s.db_path, users_file))
	if os.IsNotExist(err) {
		return users, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "Failed to read users")
	}
	if err := json.Unmarshal(data, &users); err != nil {
		return nil, errors.Wrap(err, "Failed to decode users")
	}
	return users, nil
}

// ListTables returns the names of every table with a file on disk, in
// directory iteration order.
func (s *Storage) ListTables() ([]string, error) {
	entries, err := os.ReadDir(s.db_path)
	if err != nil {
		return nil, errors.Wrap(err, "Failed to read data directory")
	}

	names := []string{}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		names = append(names, strings.TrimSuffix(entry.Name(), ".json"))
	}
	return names, nil
}
