// Package duckdb stores region match results in DuckDB.
// Each invocation is recorded as a run; its matches are appended in input
// order and can be queried afterwards.
package duckdb

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/marcboeker/go-duckdb"
)

// Store manages a DuckDB connection for region match results.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens or creates a DuckDB database at the given path.
// Use an empty string for an in-memory database.
func Open(path string) (*Store, error) {
	if path != "" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}

	s := &Store{db: db, path: path}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for direct access.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Path returns the database path, empty for in-memory stores.
func (s *Store) Path() string {
	return s.path
}

// ensureSchema creates tables if they don't exist.
func (s *Store) ensureSchema() error {
	if _, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS runs (
		run_id VARCHAR PRIMARY KEY,
		started_at TIMESTAMP,
		finished_at TIMESTAMP,
		gtf_path VARCHAR,
		gtf_size BIGINT,
		gtf_mtime TIMESTAMP,
		bed_path VARCHAR,
		bed_size BIGINT,
		bed_mtime TIMESTAMP,
		rules VARCHAR,
		report_level VARCHAR,
		workers BIGINT,
		batch_size BIGINT,
		regions BIGINT,
		records BIGINT
	)`); err != nil {
		return err
	}
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS region_matches (
		run_id VARCHAR,
		row_num BIGINT,
		region VARCHAR,
		chrom VARCHAR,
		region_start BIGINT,
		region_end BIGINT,
		midpoint BIGINT,
		gene_id VARCHAR,
		transcript_ids VARCHAR,
		exon_numbers VARCHAR,
		area VARCHAR,
		strand VARCHAR,
		distance BIGINT,
		tss_distance BIGINT,
		pctg_region DOUBLE,
		pctg_area DOUBLE,
		area_length BIGINT,
		region_length BIGINT
	)`)
	return err
}
