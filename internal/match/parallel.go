package match

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/inodb/rgmatch/internal/bed"
	"github.com/inodb/rgmatch/internal/cache"
)

// RegionSource yields regions in input order; Next returns nil, nil at EOF.
type RegionSource interface {
	Next() (*bed.Region, error)
}

// Formatter renders a region's matches. It must be safe for concurrent use.
type Formatter interface {
	AppendMatches(dst []byte, r *bed.Region, matches []Match) []byte
}

// ResultWriter consumes batch results strictly in sequence order.
// It is only ever called from a single goroutine.
type ResultWriter interface {
	WriteBatch(res *BatchResult) error
	Flush() error
}

// RegionResult holds the resolved matches of one region.
type RegionResult struct {
	Region  *bed.Region
	Matches []Match
}

// BatchResult is the output of one batch.
type BatchResult struct {
	Seq     int
	Results []RegionResult
	Payload []byte // formatted output of every region in the batch
	Records int    // number of matches in the batch
}

// Batch is a contiguous run of regions tagged with its sequence number.
type Batch struct {
	Seq     int
	Regions []*bed.Region
}

// PipelineConfig controls the parallel pipeline.
type PipelineConfig struct {
	Workers       int
	BatchSize     int
	QueueCapacity int // 0 means 2 × Workers
}

// Validate checks the pipeline settings.
func (c PipelineConfig) Validate() error {
	if c.Workers < 1 {
		return fmt.Errorf("workers must be >= 1, got %d", c.Workers)
	}
	if c.BatchSize < 1 {
		return fmt.Errorf("batch size must be >= 1, got %d", c.BatchSize)
	}
	if c.QueueCapacity < 0 {
		return fmt.Errorf("queue capacity must be >= 0, got %d", c.QueueCapacity)
	}
	return nil
}

// Stats summarizes a pipeline run.
type Stats struct {
	Regions    int
	Batches    int
	Records    int
	MaxPending int // largest number of batches held for reordering

	MatchTime    time.Duration // summed over workers
	DispatchWait time.Duration // dispatcher blocked on the in-flight limit or work queue
	ResultsWait  time.Duration // workers blocked on the results queue, summed
	WriteTime    time.Duration // writer time in WriteBatch and Flush
}

// BatchError reports a fatal failure while processing a batch.
type BatchError struct {
	Seq int
	Err error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("batch %d: %v", e.Seq, e.Err)
}

func (e *BatchError) Unwrap() error {
	return e.Err
}

// State is a pipeline lifecycle stage.
type State int

const (
	StateLoading State = iota
	StateDispatching
	StateDraining
	StateDone
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateDispatching:
		return "dispatching"
	case StateDraining:
		return "draining"
	case StateDone:
		return "done"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Pipeline runs a Matcher over a region stream with a pool of workers and
// writes results in input order.
type Pipeline struct {
	matcher   *Matcher
	formatter Formatter
	cfg       PipelineConfig
	logger    *zap.Logger

	// processBatch is replaced in tests to inject failures.
	processBatch func(b Batch) (*BatchResult, error)
}

// NewPipeline creates a pipeline. formatter may be nil, in which case
// results carry no payload.
func NewPipeline(m *Matcher, formatter Formatter, cfg PipelineConfig) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid pipeline config: %w", err)
	}
	if cfg.QueueCapacity == 0 {
		cfg.QueueCapacity = 2 * cfg.Workers
	}
	p := &Pipeline{
		matcher:   m,
		formatter: formatter,
		cfg:       cfg,
		logger:    zap.NewNop(),
	}
	p.processBatch = p.matchBatch
	return p, nil
}

// SetLogger sets the logger for state transitions.
func (p *Pipeline) SetLogger(l *zap.Logger) {
	p.logger = l
}

func (p *Pipeline) setState(s State) {
	p.logger.Debug("pipeline state", zap.Stringer("state", s))
}

// Run reads every region from src, matches batches concurrently and hands
// the results to w in batch order. The first error from reading, matching
// or writing stops the pipeline and is returned.
//
// At most InFlight() batches exist between the dispatcher and the writer, so
// the reorder buffer and the queues together never hold more than
// InFlight() × BatchSize regions, however slow any single batch is.
func (p *Pipeline) Run(ctx context.Context, src RegionSource, w ResultWriter) (Stats, error) {
	var (
		stats                  Stats
		matchTime, resultsWait atomic.Int64
	)
	p.setState(StateLoading)

	g, ctx := errgroup.WithContext(ctx)
	slots := make(chan struct{}, p.InFlight())
	work := make(chan Batch, p.cfg.QueueCapacity)
	results := make(chan *BatchResult, p.cfg.QueueCapacity)

	// Dispatcher
	g.Go(func() error {
		defer close(work)
		p.setState(StateDispatching)
		seq := 0
		batch := make([]*bed.Region, 0, p.cfg.BatchSize)
		send := func() error {
			start := time.Now()
			defer func() { stats.DispatchWait += time.Since(start) }()
			select {
			case slots <- struct{}{}:
			case <-ctx.Done():
				return ctx.Err()
			}
			select {
			case work <- Batch{Seq: seq, Regions: batch}:
			case <-ctx.Done():
				return ctx.Err()
			}
			seq++
			batch = make([]*bed.Region, 0, p.cfg.BatchSize)
			return nil
		}
		for {
			r, err := src.Next()
			if err != nil {
				return fmt.Errorf("read region: %w", err)
			}
			if r == nil {
				break
			}
			stats.Regions++
			batch = append(batch, r)
			if len(batch) == p.cfg.BatchSize {
				if err := send(); err != nil {
					return err
				}
			}
		}
		if len(batch) > 0 {
			if err := send(); err != nil {
				return err
			}
		}
		stats.Batches = seq
		p.setState(StateDraining)
		return nil
	})

	// Workers
	workers, wctx := errgroup.WithContext(ctx)
	for i := 0; i < p.cfg.Workers; i++ {
		workers.Go(func() error {
			for b := range work {
				if err := wctx.Err(); err != nil {
					return err
				}
				start := time.Now()
				res, err := p.safeProcess(b)
				matchTime.Add(int64(time.Since(start)))
				if err != nil {
					return err
				}
				start = time.Now()
				select {
				case results <- res:
				case <-wctx.Done():
					return wctx.Err()
				}
				resultsWait.Add(int64(time.Since(start)))
			}
			return nil
		})
	}
	g.Go(func() error {
		defer close(results)
		return workers.Wait()
	})

	// Ordered writer
	g.Go(func() error {
		pending := make(map[int]*BatchResult)
		next := 0
		for res := range results {
			pending[res.Seq] = res
			stats.MaxPending = max(stats.MaxPending, len(pending))
			for {
				rr, ok := pending[next]
				if !ok {
					break
				}
				delete(pending, next)
				next++
				stats.Records += rr.Records
				start := time.Now()
				err := w.WriteBatch(rr)
				stats.WriteTime += time.Since(start)
				if err != nil {
					return &BatchError{Seq: rr.Seq, Err: fmt.Errorf("write: %w", err)}
				}
				<-slots
			}
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if len(pending) > 0 {
			return fmt.Errorf("%d batches left unwritten after batch %d", len(pending), next)
		}
		start := time.Now()
		err := w.Flush()
		stats.WriteTime += time.Since(start)
		if err != nil {
			return fmt.Errorf("flush output: %w", err)
		}
		return nil
	})

	err := g.Wait()
	stats.MatchTime = time.Duration(matchTime.Load())
	stats.ResultsWait = time.Duration(resultsWait.Load())
	if err != nil {
		return stats, err
	}
	p.setState(StateDone)
	return stats, nil
}

// InFlight returns the maximum number of batches dispatched but not yet
// written: one queued or held for reordering per queue slot, plus one being
// matched per worker.
func (p *Pipeline) InFlight() int {
	return p.cfg.QueueCapacity + p.cfg.Workers
}

// safeProcess runs processBatch and converts panics and errors into a
// BatchError naming the batch.
func (p *Pipeline) safeProcess(b Batch) (res *BatchResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("worker panic",
				zap.Int("batch", b.Seq),
				zap.Any("panic", r),
				zap.ByteString("stack", debug.Stack()))
			res, err = nil, &BatchError{Seq: b.Seq, Err: fmt.Errorf("panic: %v", r)}
		}
	}()
	res, err = p.processBatch(b)
	if err != nil {
		var be *BatchError
		if !errors.As(err, &be) {
			err = &BatchError{Seq: b.Seq, Err: err}
		}
		return nil, err
	}
	return res, nil
}

// matchBatch matches every region of a batch with a batch-local cursor.
func (p *Pipeline) matchBatch(b Batch) (*BatchResult, error) {
	res := &BatchResult{
		Seq:     b.Seq,
		Results: make([]RegionResult, len(b.Regions)),
	}
	var cur cache.Cursor
	for i, r := range b.Regions {
		var matches []Match
		matches, cur = p.matcher.Match(r, cur)
		res.Results[i] = RegionResult{Region: r, Matches: matches}
		res.Records += len(matches)
		if p.formatter != nil {
			res.Payload = p.formatter.AppendMatches(res.Payload, r, matches)
		}
	}
	return res, nil
}
