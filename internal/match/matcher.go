package match

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/inodb/rgmatch/internal/bed"
	"github.com/inodb/rgmatch/internal/cache"
)

// GeneLookup defines the gene index operations needed for matching.
type GeneLookup interface {
	Genes(chrom string) []*cache.Gene
	SearchStart(chrom string, pos, lookback int64, cur cache.Cursor) (int, cache.Cursor)
}

// Matcher annotates regions with their highest-priority gene areas.
// It is safe for concurrent use once created.
type Matcher struct {
	index    GeneLookup
	cfg      Config
	lookback int64
	resolver *Resolver
	logger   *zap.Logger
	missing  sync.Map // chromosomes without genes, warned once
}

// NewMatcher creates a matcher over a built gene index.
func NewMatcher(index GeneLookup, cfg Config) (*Matcher, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid match config: %w", err)
	}
	return &Matcher{
		index:    index,
		cfg:      cfg,
		lookback: cfg.MaxLookback(),
		resolver: NewResolver(&cfg),
		logger:   zap.NewNop(),
	}, nil
}

// SetLogger sets the logger used for warnings.
func (m *Matcher) SetLogger(l *zap.Logger) {
	m.logger = l
}

// Config returns the matcher configuration.
func (m *Matcher) Config() Config {
	return m.cfg
}

// Candidates returns all candidates for r across the genes in reach, and the
// cursor to pass with the next region.
func (m *Matcher) Candidates(r *bed.Region, cur cache.Cursor) ([]Candidate, cache.Cursor) {
	if r.Length() <= 0 {
		return nil, cur
	}

	genes := m.index.Genes(r.Chrom)
	if len(genes) == 0 {
		if _, seen := m.missing.LoadOrStore(r.Chrom, struct{}{}); !seen {
			m.logger.Warn("no genes on chromosome", zap.String("chrom", r.Chrom))
		}
		return nil, cur
	}
	i, cur := m.index.SearchStart(r.Chrom, r.Start, m.lookback, cur)

	var out []Candidate
	for ; i < len(genes); i++ {
		g := genes[i]
		if g.Start-m.lookback > r.End {
			break
		}
		if g.End+m.lookback < r.Start {
			continue
		}
		for _, t := range g.Transcripts {
			if t.Start-m.lookback > r.End || t.End+m.lookback < r.Start {
				continue
			}
			out = append(out, Classify(r, g, t, &m.cfg)...)
		}
	}
	return out, cur
}

// Match classifies r and resolves its candidates to the reported matches.
func (m *Matcher) Match(r *bed.Region, cur cache.Cursor) ([]Match, cache.Cursor) {
	cands, cur := m.Candidates(r, cur)
	return m.resolver.Resolve(cands, r.Length()), cur
}
