// Package db opens the embedded DuckDB database and stores snapshots in it.
package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "github.com/marcboeker/go-duckdb"
)

var (
	instance *sql.DB
	once     sync.Once
	initErr  error
)

// Config holds database configuration. An empty DataDir opens an in-memory
// database.
type Config struct {
	DataDir    string
	DBName     string
	Extensions []string // e.g. spatial, parquet

	// NoExternalAccess turns off file readers, COPY and extension loading
	// once the extensions above are loaded.
	NoExternalAccess bool
}

// Open opens a new DuckDB handle for cfg.
func Open(cfg Config) (*sql.DB, error) {
	dsn := ""
	if cfg.DataDir != "" {
		duckdbDir := filepath.Join(cfg.DataDir, "duckdb")
		if err := os.MkdirAll(duckdbDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create duckdb directory: %w", err)
		}
		name := cfg.DBName
		if name == "" {
			name = "gold"
		}
		dsn = filepath.Join(duckdbDir, name+".duckdb")
	}

	conn, err := sql.Open("duckdb", dsn)
	if err != nil {
		return nil, err
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("open duckdb %q: %w", dsn, err)
	}

	for _, ext := range cfg.Extensions {
		// Offline hosts cannot INSTALL; the store does not need extensions.
		_, _ = conn.Exec(fmt.Sprintf("INSTALL %s; LOAD %s;", ext, ext))
	}
	if cfg.NoExternalAccess {
		if _, err := conn.Exec("SET enable_external_access = false"); err != nil {
			conn.Close()
			return nil, fmt.Errorf("restrict duckdb: %w", err)
		}
	}
	return conn, nil
}

// Get returns the process-wide connection, opening it on first use.
func Get(cfg Config) (*sql.DB, error) {
	once.Do(func() {
		instance, initErr = Open(cfg)
	})
	return instance, initErr
}

// Close closes the process-wide connection.
func Close() error {
	if instance != nil {
		return instance.Close()
	}
	return nil
}
