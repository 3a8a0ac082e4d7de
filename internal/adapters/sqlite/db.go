package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

const (
	cacheDirName = ".jd"
	cacheDBName  = "index.db"
)

// DBPath returns the path of the index cache for a managed tree.
func DBPath(root string) string {
	return filepath.Join(root, cacheDirName, cacheDBName)
}

// Open opens (creating if needed) the index cache for a managed tree.
func Open(root string) (*sql.DB, error) {
	cacheDir := filepath.Join(root, cacheDirName)
	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create %s directory: %w", cacheDirName, err)
	}

	db, err := sql.Open("sqlite3", DBPath(root))
	if err != nil {
		return nil, fmt.Errorf("failed to open index cache: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return db, nil
}
