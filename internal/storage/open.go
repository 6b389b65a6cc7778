package storage

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/julianstephens/moodlit/internal/storage/postgres"
	"github.com/julianstephens/moodlit/internal/storage/sqlite"
)

// Open returns the provider selected by config: a PostgreSQL connection
// string or a SQLite file path ("~/" is expanded). The returned provider is
// not yet initialized or loaded.
func Open(config string) (CompanyProvider, error) {
	if postgres.IsConnString(config) {
		if err := postgres.ValidateConnString(config); err != nil {
			return nil, err
		}
		return postgres.New(config), nil
	}
	path, err := ExpandPath(config)
	if err != nil {
		return nil, err
	}
	return sqlite.NewStore(path), nil
}

// ExpandPath resolves a leading "~/" against the user's home directory.
func ExpandPath(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}

// Migrator is implemented by providers that can apply pending schema
// migrations on demand.
type Migrator interface {
	Migrate(logFn func(string)) (int, error)
	SchemaVersion() (current, latest int, err error)
}

var (
	_ CompanyProvider = (*sqlite.Store)(nil)
	_ CompanyProvider = (*postgres.Store)(nil)
	_ Migrator        = (*sqlite.Store)(nil)
	_ Migrator        = (*postgres.Store)(nil)
)
