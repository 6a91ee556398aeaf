// Package storage persists the Tempo snapshot as a YAML document or in a
// SQLite database.
package storage

import (
	"fmt"
	"path/filepath"

	"tempo/internal/core/model"
)

// Backend names accepted by Open.
const (
	BackendYAML   = "yaml"
	BackendSQLite = "sqlite"
)

// Backend loads and saves the full snapshot.
type Backend interface {
	Load() (model.Snapshot, error)
	Save(snapshot model.Snapshot) error
	Close() error
}

// Open returns the backend named by kind rooted at dataDir. An empty kind
// selects YAML.
func Open(kind, dataDir string) (Backend, error) {
	switch kind {
	case "", BackendYAML:
		return NewYAMLStore(filepath.Join(dataDir, YAMLFileName)), nil
	case BackendSQLite:
		store, err := OpenSQLite(filepath.Join(dataDir, SQLiteFileName))
		if err != nil {
			return nil, fmt.Errorf("open sqlite backend: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", kind)
	}
}
