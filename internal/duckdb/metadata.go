package duckdb

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
)

// FileFingerprint holds stat-based identity for a file.
type FileFingerprint struct {
	Path    string
	Size    int64
	ModTime time.Time
}

// StatFile creates a FileFingerprint from an on-disk file.
// Stdin ("-") has no fingerprint and yields a zero value with the path set.
func StatFile(path string) (FileFingerprint, error) {
	if path == "-" {
		return FileFingerprint{Path: path}, nil
	}
	info, err := os.Stat(path)
	if err != nil {
		return FileFingerprint{}, err
	}
	return FileFingerprint{
		Path:    path,
		Size:    info.Size(),
		ModTime: info.ModTime(),
	}, nil
}

// Run describes one matching invocation.
type Run struct {
	ID          string
	StartedAt   time.Time
	FinishedAt  time.Time // zero until FinishRun
	GTF         FileFingerprint
	BED         FileFingerprint
	Rules       string
	ReportLevel string
	Workers     int
	BatchSize   int
	Regions     int64
	Records     int64
}

// RecordRun inserts a new run and returns its generated ID.
func (s *Store) RecordRun(run Run) (string, error) {
	id := uuid.NewString()
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now()
	}
	_, err := s.db.Exec(`INSERT INTO runs (
		run_id, started_at, gtf_path, gtf_size, gtf_mtime,
		bed_path, bed_size, bed_mtime, rules, report_level,
		workers, batch_size, regions, records
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0, 0)`,
		id, run.StartedAt.UTC(), run.GTF.Path, run.GTF.Size, run.GTF.ModTime.UTC(),
		run.BED.Path, run.BED.Size, run.BED.ModTime.UTC(), run.Rules, run.ReportLevel,
		int64(run.Workers), int64(run.BatchSize))
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}
	return id, nil
}

// FinishRun records the completion time and totals of a run.
func (s *Store) FinishRun(runID string, regions, records int64) error {
	res, err := s.db.Exec(`UPDATE runs SET finished_at = ?, regions = ?, records = ? WHERE run_id = ?`,
		time.Now().UTC(), regions, records, runID)
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("run %s not found", runID)
	}
	return nil
}

// GetRun loads a run by ID. It returns sql.ErrNoRows if the run is unknown.
func (s *Store) GetRun(runID string) (*Run, error) {
	var (
		run      Run
		finished sql.NullTime
	)
	err := s.db.QueryRow(`SELECT run_id, started_at, finished_at,
		gtf_path, gtf_size, gtf_mtime, bed_path, bed_size, bed_mtime,
		rules, report_level, workers, batch_size, regions, records
		FROM runs WHERE run_id = ?`, runID).Scan(
		&run.ID, &run.StartedAt, &finished,
		&run.GTF.Path, &run.GTF.Size, &run.GTF.ModTime,
		&run.BED.Path, &run.BED.Size, &run.BED.ModTime,
		&run.Rules, &run.ReportLevel, &run.Workers, &run.BatchSize,
		&run.Regions, &run.Records,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("query run: %w", err)
	}
	if finished.Valid {
		run.FinishedAt = finished.Time
	}
	return &run, nil
}

// LatestRun returns the ID of the most recently started run, or
// sql.ErrNoRows if the store holds no runs.
func (s *Store) LatestRun() (string, error) {
	var id string
	err := s.db.QueryRow(`SELECT run_id FROM runs ORDER BY started_at DESC LIMIT 1`).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", err
	}
	if err != nil {
		return "", fmt.Errorf("query latest run: %w", err)
	}
	return id, nil
}
