package duckdb

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"strconv"
	"strings"

	goduckdb "github.com/marcboeker/go-duckdb"

	"github.com/inodb/rgmatch/internal/match"
)

// MatchWriter appends batch results to region_matches using the Appender
// API. It implements match.ResultWriter and must be used from a single
// goroutine.
type MatchWriter struct {
	conn     *sql.Conn
	appender *goduckdb.Appender
	runID    string
	row      int64
}

// NewMatchWriter opens a dedicated connection and appender for runID.
func (s *Store) NewMatchWriter(ctx context.Context, runID string) (*MatchWriter, error) {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("get connection: %w", err)
	}

	var appender *goduckdb.Appender
	if err := conn.Raw(func(driverConn any) error {
		var err error
		appender, err = goduckdb.NewAppenderFromConn(driverConn.(driver.Conn), "", "region_matches")
		return err
	}); err != nil {
		conn.Close()
		return nil, fmt.Errorf("create appender: %w", err)
	}

	return &MatchWriter{conn: conn, appender: appender, runID: runID}, nil
}

// WriteBatch appends every match of the batch, keeping input order.
func (w *MatchWriter) WriteBatch(res *match.BatchResult) error {
	for _, rr := range res.Results {
		r := rr.Region
		for _, m := range rr.Matches {
			if err := w.appender.AppendRow(
				w.runID, w.row, r.ID(), r.Chrom, r.Start, r.End, r.Midpoint(),
				m.GeneID, strings.Join(m.TranscriptIDs, ","), joinInts(m.ExonNumbers),
				m.Area.String(), m.Strand.String(), m.Distance, m.TSSDistance,
				m.PctgRegion, m.PctgArea, m.AreaLength, m.RegionLength,
			); err != nil {
				return fmt.Errorf("append region match: %w", err)
			}
			w.row++
		}
	}
	return nil
}

// Flush writes appended rows to the database.
func (w *MatchWriter) Flush() error {
	return w.appender.Flush()
}

// Rows returns the number of rows appended so far.
func (w *MatchWriter) Rows() int64 {
	return w.row
}

// Close flushes and releases the appender and its connection.
func (w *MatchWriter) Close() error {
	err := w.appender.Close()
	if cerr := w.conn.Close(); err == nil {
		err = cerr
	}
	return err
}

func joinInts(ns []int) string {
	var b strings.Builder
	for i, n := range ns {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Itoa(n))
	}
	return b.String()
}

// MatchRow is a stored region match.
type MatchRow struct {
	Row           int64
	Region        string
	Chrom         string
	Start         int64
	End           int64
	Midpoint      int64
	GeneID        string
	TranscriptIDs string
	ExonNumbers   string
	Area          string
	Strand        string
	Distance      int64
	TSSDistance   int64
	PctgRegion    float64
	PctgArea      float64
	AreaLength    int64
	RegionLength  int64
}

const matchColumns = `row_num, region, chrom, region_start, region_end, midpoint,
	gene_id, transcript_ids, exon_numbers, area, strand, distance, tss_distance,
	pctg_region, pctg_area, area_length, region_length`

// Matches returns the matches of a run in input order.
func (s *Store) Matches(runID string) ([]MatchRow, error) {
	return s.queryMatches(`SELECT `+matchColumns+` FROM region_matches
		WHERE run_id = ? ORDER BY row_num`, runID)
}

// MatchesByGene returns the matches of a run for one gene, in input order.
func (s *Store) MatchesByGene(runID, geneID string) ([]MatchRow, error) {
	return s.queryMatches(`SELECT `+matchColumns+` FROM region_matches
		WHERE run_id = ? AND gene_id = ? ORDER BY row_num`, runID, geneID)
}

func (s *Store) queryMatches(query string, args ...any) ([]MatchRow, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query matches: %w", err)
	}
	defer rows.Close()

	var out []MatchRow
	for rows.Next() {
		var m MatchRow
		if err := rows.Scan(
			&m.Row, &m.Region, &m.Chrom, &m.Start, &m.End, &m.Midpoint,
			&m.GeneID, &m.TranscriptIDs, &m.ExonNumbers, &m.Area, &m.Strand,
			&m.Distance, &m.TSSDistance, &m.PctgRegion, &m.PctgArea,
			&m.AreaLength, &m.RegionLength,
		); err != nil {
			return nil, fmt.Errorf("scan match: %w", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate matches: %w", err)
	}
	return out, nil
}

// AreaCounts returns the number of matches per area for a run.
func (s *Store) AreaCounts(runID string) (map[string]int64, error) {
	rows, err := s.db.Query(`SELECT area, count(*) FROM region_matches
		WHERE run_id = ? GROUP BY area`, runID)
	if err != nil {
		return nil, fmt.Errorf("query area counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var area string
		var n int64
		if err := rows.Scan(&area, &n); err != nil {
			return nil, fmt.Errorf("scan area count: %w", err)
		}
		counts[area] = n
	}
	return counts, rows.Err()
}
