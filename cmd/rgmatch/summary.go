package main

import (
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/inodb/rgmatch/internal/duckdb"
	"github.com/inodb/rgmatch/internal/match"
)

func newSummaryCmd() *cobra.Command {
	var runID, gene string

	cmd := &cobra.Command{
		Use:   "summary <results.duckdb>",
		Short: "Summarize a run stored with --duckdb",
		Long: `Print the settings and per-area match counts of a stored run. With --gene,
print that gene's matches instead. The most recent run is used unless --run
is given.`,
		Example: `  rgmatch summary results.duckdb
  rgmatch summary results.duckdb --gene ENSG00000133703`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSummary(cmd.OutOrStdout(), args[0], runID, gene)
		},
	}

	cmd.Flags().StringVar(&runID, "run", "", "Run ID (default: most recent run)")
	cmd.Flags().StringVar(&gene, "gene", "", "List the matches of this gene")

	return cmd
}

func runSummary(w io.Writer, dbPath, runID, gene string) error {
	if _, err := os.Stat(dbPath); err != nil {
		return fmt.Errorf("open results: %w", err)
	}
	store, err := duckdb.Open(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	if runID == "" {
		runID, err = store.LatestRun()
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("no runs stored in %s", dbPath)
		}
		if err != nil {
			return err
		}
	}
	run, err := store.GetRun(runID)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("run %s not found in %s", runID, dbPath)
	}
	if err != nil {
		return err
	}

	if gene != "" {
		rows, err := store.MatchesByGene(run.ID, gene)
		if err != nil {
			return err
		}
		for _, m := range rows {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%.2f\t%.2f\n",
				m.Region, m.TranscriptIDs, m.ExonNumbers, m.Area, m.Strand, m.PctgRegion, m.PctgArea)
		}
		return nil
	}

	fmt.Fprintf(w, "Run:      %s\n", run.ID)
	fmt.Fprintf(w, "Started:  %s\n", humanize.Time(run.StartedAt))
	fmt.Fprintf(w, "GTF:      %s (%s)\n", run.GTF.Path, humanize.Bytes(uint64(run.GTF.Size)))
	fmt.Fprintf(w, "BED:      %s (%s)\n", run.BED.Path, humanize.Bytes(uint64(run.BED.Size)))
	fmt.Fprintf(w, "Rules:    %s\n", run.Rules)
	fmt.Fprintf(w, "Report:   %s\n", run.ReportLevel)
	fmt.Fprintf(w, "Regions:  %s\n", humanize.Comma(run.Regions))
	fmt.Fprintf(w, "Records:  %s\n", humanize.Comma(run.Records))

	counts, err := store.AreaCounts(run.ID)
	if err != nil {
		return err
	}
	for _, a := range summaryOrder(run.Rules) {
		if n, ok := counts[a.String()]; ok {
			fmt.Fprintf(w, "  %-12s %s\n", a.String(), humanize.Comma(n))
		}
	}
	return nil
}

// summaryOrder lists areas in the run's priority order.
func summaryOrder(rules string) []match.Area {
	cfg := match.DefaultConfig()
	parsed, err := match.ParseRules(rules)
	if err != nil {
		return match.AllAreas()
	}
	cfg.Rules = parsed
	return cfg.Priority()
}
