// Package db opens the DuckDB database that holds export tables.
package db

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	_ "github.com/marcboeker/go-duckdb"
)

var (
	mu       sync.Mutex
	instance *sql.DB
)

// Config holds database configuration.
type Config struct {
	DataDir string
	DBName  string
}

// Path returns the database file for cfg.
func (c Config) Path() string {
	return filepath.Join(c.DataDir, "duckdb", c.DBName+".duckdb")
}

// Open opens a new DuckDB connection at cfg.Path() and loads the extensions
// used by exports.
func Open(cfg Config) (*sql.DB, error) {
	if cfg.DBName == "" {
		cfg.DBName = "geovisor"
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Path()), 0755); err != nil {
		return nil, fmt.Errorf("failed to create duckdb directory: %w", err)
	}

	conn, err := sql.Open("duckdb", cfg.Path())
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("open duckdb: %w", err)
	}

	for _, ext := range []string{"parquet"} {
		if _, err := conn.Exec(fmt.Sprintf("INSTALL %s; LOAD %s;", ext, ext)); err != nil {
			// Bundled builds ship the extension already loaded.
			slog.Debug("duckdb extension not loaded", "extension", ext, "error", err)
		}
	}
	return conn, nil
}

// Get returns the shared DuckDB connection, opening it on first use.
// A failed open is retried on the next call.
func Get(cfg Config) (*sql.DB, error) {
	mu.Lock()
	defer mu.Unlock()
	if instance != nil {
		return instance, nil
	}
	conn, err := Open(cfg)
	if err != nil {
		return nil, err
	}
	instance = conn
	return instance, nil
}

// Close closes the shared connection. A later Get opens a new one.
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	if instance == nil {
		return nil
	}
	err := instance.Close()
	instance = nil
	return err
}
