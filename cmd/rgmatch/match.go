package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/inodb/rgmatch/internal/bed"
	"github.com/inodb/rgmatch/internal/cache"
	"github.com/inodb/rgmatch/internal/duckdb"
	"github.com/inodb/rgmatch/internal/match"
	"github.com/inodb/rgmatch/internal/output"
)

const defaultBatchSize = 5000

// createOutput opens the --output file; tests replace it to inject failures.
var createOutput = func(path string) (io.WriteCloser, error) {
	return os.Create(path)
}

// matchOptions holds the resolved settings of the match command.
type matchOptions struct {
	GTF           string
	BED           string
	Output        string
	Report        string
	Rules         string
	GeneTag       string
	TranscriptTag string
	DuckDB        string
	Distance      int64
	TSS           int64
	TTS           int64
	Promoter      int64
	PercArea      float64
	PercRegion    float64
	Threads       int
	BatchSize     int
	QueueCapacity int
	Verbose       bool
}

func newMatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "match",
		Short: "Match BED regions against GTF gene models",
		Example: `  rgmatch match -g genes.gtf.gz -b peaks.bed -o peaks.tsv
  rgmatch match -g genes.gtf -b peaks.bed -r gene -R TSS,PROMOTER,1st_EXON
  rgmatch match -g genes.gtf -b - --duckdb results.duckdb < peaks.bed`,
		Args: cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return viper.BindPFlags(cmd.Flags())
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMatch(cmd.Context(), loadMatchOptions(viper.GetViper()), cmd.OutOrStdout())
		},
	}

	defaults := match.DefaultConfig()
	f := cmd.Flags()
	f.StringP("gtf", "g", "", "GTF gene annotation file (plain or gzipped)")
	f.StringP("bed", "b", "", "BED region file (plain or gzipped, '-' for stdin)")
	f.StringP("output", "o", "-", "Output file ('-' for stdout)")
	f.StringP("report", "r", defaults.Level.String(), "Report level: exon, transcript or gene")
	f.Int64P("distance", "q", defaults.DistanceKB, "Upstream/downstream reach in kb")
	f.Int64P("tss", "t", defaults.TSS, "TSS zone size in bp")
	f.Int64P("tts", "s", defaults.TTS, "TTS zone size in bp")
	f.Int64P("promoter", "p", defaults.Promoter, "Promoter zone size in bp")
	f.Float64P("perc_area", "v", defaults.PercArea, "Minimum percentage of the area covered by the region")
	f.Float64P("perc_region", "w", defaults.PercRegion, "Minimum percentage of the region covered by the area")
	f.StringP("rules", "R", match.FormatRules(defaults.Rules), "Area priority, highest first")
	f.StringP("gene", "G", cache.DefaultGeneIDTag, "GTF attribute holding the gene ID")
	f.StringP("transcript", "T", cache.DefaultTranscriptIDTag, "GTF attribute holding the transcript ID")
	f.IntP("threads", "j", 0, "Worker goroutines (0 = number of CPUs)")
	f.Int("batch-size", defaultBatchSize, "Regions per batch")
	f.Int("queue-capacity", 0, "Batches buffered between stages (0 = 2 x threads)")
	f.String("duckdb", "", "Also store results in this DuckDB database")

	return cmd
}

// loadMatchOptions reads the match options from v.
func loadMatchOptions(v *viper.Viper) matchOptions {
	return matchOptions{
		GTF:           v.GetString("gtf"),
		BED:           v.GetString("bed"),
		Output:        v.GetString("output"),
		Report:        v.GetString("report"),
		Rules:         v.GetString("rules"),
		GeneTag:       v.GetString("gene"),
		TranscriptTag: v.GetString("transcript"),
		DuckDB:        v.GetString("duckdb"),
		Distance:      v.GetInt64("distance"),
		TSS:           v.GetInt64("tss"),
		TTS:           v.GetInt64("tts"),
		Promoter:      v.GetInt64("promoter"),
		PercArea:      v.GetFloat64("perc_area"),
		PercRegion:    v.GetFloat64("perc_region"),
		Threads:       v.GetInt("threads"),
		BatchSize:     v.GetInt("batch-size"),
		QueueCapacity: v.GetInt("queue-capacity"),
		Verbose:       v.GetBool("verbose"),
	}
}

// matchConfig converts the options to a validated match.Config.
func (o matchOptions) matchConfig() (match.Config, error) {
	var errs []error
	cfg := match.DefaultConfig()

	rules, err := match.ParseRules(o.Rules)
	if err != nil {
		errs = append(errs, err)
	}
	cfg.Rules = rules

	level, err := match.ParseReportLevel(o.Report)
	if err != nil {
		errs = append(errs, err)
	}
	cfg.Level = level

	cfg.DistanceKB = o.Distance
	cfg.TSS = o.TSS
	cfg.TTS = o.TTS
	cfg.Promoter = o.Promoter
	cfg.PercArea = o.PercArea
	cfg.PercRegion = o.PercRegion

	if len(errs) == 0 {
		errs = append(errs, cfg.Validate())
	}
	return cfg, errors.Join(errs...)
}

func (o matchOptions) pipelineConfig() match.PipelineConfig {
	workers := o.Threads
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return match.PipelineConfig{
		Workers:       workers,
		BatchSize:     o.BatchSize,
		QueueCapacity: o.QueueCapacity,
	}
}

func runMatch(ctx context.Context, opts matchOptions, stdout io.Writer) error {
	if opts.GTF == "" {
		return errors.New("--gtf is required")
	}
	if opts.BED == "" {
		return errors.New("--bed is required")
	}
	cfg, err := opts.matchConfig()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	pcfg := opts.pipelineConfig()
	if err := pcfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := newLogger(opts.Verbose)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

	start := time.Now()
	idx, err := loadIndex(opts, logger)
	if err != nil {
		return err
	}

	parser, err := bed.NewParser(opts.BED)
	if err != nil {
		return err
	}
	var regions bed.RegionReader = parser
	defer regions.Close()
	src, err := newPeekSource(regions)
	if err != nil {
		return fmt.Errorf("read %s: %w", opts.BED, err)
	}

	out := stdout
	var outFile io.WriteCloser
	if opts.Output != "" && opts.Output != "-" {
		outFile, err = createOutput(opts.Output)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer func() {
			if outFile != nil {
				outFile.Close()
			}
		}()
		out = outFile
	}

	tab := output.NewTabWriter(out)
	if err := tab.WriteHeader(parser.NumMetaColumns()); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	var sink match.ResultWriter = tab
	var rec *runRecorder
	if opts.DuckDB != "" {
		rec, err = startRun(ctx, opts, cfg, pcfg)
		if err != nil {
			return err
		}
		defer rec.Close()
		sink = output.NewMultiWriter(tab, rec.writer)
	}

	matcher, err := match.NewMatcher(idx, cfg)
	if err != nil {
		return err
	}
	matcher.SetLogger(logger)

	pipeline, err := match.NewPipeline(matcher, tab, pcfg)
	if err != nil {
		return err
	}
	pipeline.SetLogger(logger)

	stats, err := pipeline.Run(ctx, src, sink)
	if err != nil {
		logger.Debug("pipeline stopped", zap.Int("bed_line", regions.LineNumber()))
		return err
	}

	if outFile != nil {
		err := outFile.Close()
		outFile = nil
		if err != nil {
			return fmt.Errorf("close output file: %w", err)
		}
	}

	if rec != nil {
		if err := rec.finish(stats); err != nil {
			return err
		}
		logger.Info("stored results",
			zap.String("db", opts.DuckDB),
			zap.String("run_id", rec.runID))
	}

	logger.Info("matched regions",
		zap.String("regions", humanize.Comma(int64(stats.Regions))),
		zap.String("records", humanize.Comma(int64(stats.Records))),
		zap.Int("batches", stats.Batches),
		zap.Int("max_pending", stats.MaxPending),
		zap.Int("workers", pcfg.Workers),
		zap.Duration("elapsed", time.Since(start).Round(time.Millisecond)))
	logger.Debug("pipeline timings",
		zap.Duration("match", stats.MatchTime),
		zap.Duration("dispatch_wait", stats.DispatchWait),
		zap.Duration("results_wait", stats.ResultsWait),
		zap.Duration("write", stats.WriteTime),
		zap.Int("in_flight_limit", pipeline.InFlight()))
	return nil
}

func loadIndex(opts matchOptions, logger *zap.Logger) (*cache.Index, error) {
	start := time.Now()
	idx := cache.NewIndex()
	loader := cache.NewGTFLoader(opts.GTF)
	loader.SetTags(opts.GeneTag, opts.TranscriptTag)
	if err := loader.Load(idx); err != nil {
		return nil, fmt.Errorf("load GTF: %w", err)
	}

	chroms := idx.Chromosomes()
	logger.Info("loaded gene models",
		zap.String("path", opts.GTF),
		zap.String("genes", humanize.Comma(int64(idx.GeneCount()))),
		zap.String("transcripts", humanize.Comma(int64(idx.TranscriptCount()))),
		zap.Int("chromosomes", len(chroms)),
		zap.Duration("elapsed", time.Since(start).Round(time.Millisecond)))
	for _, chrom := range chroms {
		logger.Debug("chromosome index", zap.String("chrom", chrom), zap.Int("genes", len(idx.Genes(chrom))))
	}
	return idx, nil
}

// peekSource hands out a region read ahead of time before delegating to
// the underlying reader. Reading the first region up front fixes the number
// of metadata columns in the header.
type peekSource struct {
	first *bed.Region
	src   match.RegionSource
}

func newPeekSource(src match.RegionSource) (*peekSource, error) {
	first, err := src.Next()
	if err != nil {
		return nil, err
	}
	return &peekSource{first: first, src: src}, nil
}

func (p *peekSource) Next() (*bed.Region, error) {
	if p.first != nil {
		r := p.first
		p.first = nil
		return r, nil
	}
	return p.src.Next()
}

// runRecorder tracks a run stored in DuckDB.
type runRecorder struct {
	store  *duckdb.Store
	writer *duckdb.MatchWriter
	runID  string
}

func startRun(ctx context.Context, opts matchOptions, cfg match.Config, pcfg match.PipelineConfig) (*runRecorder, error) {
	gtf, err := duckdb.StatFile(opts.GTF)
	if err != nil {
		return nil, fmt.Errorf("stat GTF: %w", err)
	}
	bedFP, err := duckdb.StatFile(opts.BED)
	if err != nil {
		return nil, fmt.Errorf("stat BED: %w", err)
	}

	store, err := duckdb.Open(opts.DuckDB)
	if err != nil {
		return nil, err
	}
	runID, err := store.RecordRun(duckdb.Run{
		GTF:         gtf,
		BED:         bedFP,
		Rules:       match.FormatRules(cfg.Rules),
		ReportLevel: cfg.Level.String(),
		Workers:     pcfg.Workers,
		BatchSize:   pcfg.BatchSize,
	})
	if err != nil {
		store.Close()
		return nil, err
	}
	w, err := store.NewMatchWriter(ctx, runID)
	if err != nil {
		store.Close()
		return nil, err
	}
	return &runRecorder{store: store, writer: w, runID: runID}, nil
}

func (r *runRecorder) finish(stats match.Stats) error {
	return r.store.FinishRun(r.runID, int64(stats.Regions), int64(stats.Records))
}

func (r *runRecorder) Close() error {
	werr := r.writer.Close()
	serr := r.store.Close()
	return errors.Join(werr, serr)
}
