package match

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/inodb/rgmatch/internal/bed"
	"github.com/inodb/rgmatch/internal/cache"
)

// randomIndex builds a reproducible gene set over chromosomes 1 and 2.
func randomIndex(seed int64, n int) *cache.Index {
	rng := rand.New(rand.NewSource(seed))
	var genes []*cache.Gene
	for i := 0; i < n; i++ {
		strand := cache.Plus
		if rng.Intn(2) == 0 {
			strand = cache.Minus
		}
		start := rng.Int63n(200000) + 1
		var transcripts []*cache.Transcript
		for k := 0; k <= rng.Intn(3); k++ {
			var exons [][2]int64
			pos := start + rng.Int63n(500)
			for e := 0; e <= rng.Intn(4); e++ {
				length := rng.Int63n(400) + 1
				exons = append(exons, [2]int64{pos, pos + length - 1})
				pos += length + rng.Int63n(2000) + 1
			}
			transcripts = append(transcripts, newTranscript(string(rune('A'+k)), strand, exons...))
		}
		chrom := []string{"chr1", "chr2"}[i%2]
		genes = append(genes, newGene("G"+string(rune('a'+i%26))+string(rune('a'+i/26)), chrom, strand, transcripts...))
	}
	return buildIndex(genes...)
}

func randomRegions(seed int64, n int) []*bed.Region {
	rng := rand.New(rand.NewSource(seed))
	regions := make([]*bed.Region, n)
	for i := range regions {
		start := rng.Int63n(220000)
		chrom := []string{"chr1", "1", "chr2", "chr3"}[rng.Intn(4)]
		regions[i] = region(chrom, start, start+rng.Int63n(3000))
	}
	return regions
}

func TestMatcher_CursorEquivalence(t *testing.T) {
	idx := randomIndex(1, 300)
	m, err := NewMatcher(idx, DefaultConfig())
	require.NoError(t, err)

	unsorted := randomRegions(2, 400)
	sorted := append([]*bed.Region(nil), unsorted...)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := cache.NormalizeChrom(sorted[i].Chrom), cache.NormalizeChrom(sorted[j].Chrom)
		if a != b {
			return a < b
		}
		return sorted[i].Start < sorted[j].Start
	})

	for _, regions := range [][]*bed.Region{unsorted, sorted} {
		var cur cache.Cursor
		for _, r := range regions {
			var withCursor []Candidate
			withCursor, cur = m.Candidates(r, cur)
			fresh, _ := m.Candidates(r, cache.Cursor{})
			require.Equal(t, fresh, withCursor, "region %s", r.ID())
		}
	}
}

// The candidate scan must see every transcript a brute-force pass would.
func TestMatcher_CandidatesMatchBruteForce(t *testing.T) {
	idx := randomIndex(3, 200)
	cfg := DefaultConfig()
	m, err := NewMatcher(idx, cfg)
	require.NoError(t, err)

	for _, r := range randomRegions(4, 300) {
		var want []Candidate
		for _, g := range idx.Genes(r.Chrom) {
			for _, tx := range g.Transcripts {
				want = append(want, Classify(r, g, tx, &cfg)...)
			}
		}
		got, _ := m.Candidates(r, cache.Cursor{})
		require.Equal(t, want, got, "region %s", r.ID())
	}
}

func TestMatcher_TSSScenario(t *testing.T) {
	idx := buildIndex(newGene("G1", "chr1", cache.Plus, newTranscript("T1", cache.Plus, [2]int64{1000, 2000})))
	m, err := NewMatcher(idx, DefaultConfig())
	require.NoError(t, err)

	matches, _ := m.Match(region("chr1", 950, 1050), cache.Cursor{})
	require.Len(t, matches, 1)
	assert.Equal(t, TSS, matches[0].Area)
	assert.Equal(t, 100.0, matches[0].PctgRegion)
	assert.Equal(t, int64(0), matches[0].TSSDistance)
	assert.Equal(t, int64(101), matches[0].RegionLength)
}

func TestMatcher_DownstreamScenario(t *testing.T) {
	idx := buildIndex(newGene("G1", "1", cache.Plus, newTranscript("T1", cache.Plus, [2]int64{1000, 2000})))
	m, err := NewMatcher(idx, DefaultConfig())
	require.NoError(t, err)

	matches, _ := m.Match(region("1", 2001, 2100), cache.Cursor{})
	require.Len(t, matches, 1)
	assert.Equal(t, Downstream, matches[0].Area)
}

func TestMatcher_GeneLevelThreeTranscripts(t *testing.T) {
	g := newGene("G1", "1", cache.Plus,
		newTranscript("T1", cache.Plus, [2]int64{1000, 1500}, [2]int64{1800, 2000}),
		newTranscript("T2", cache.Plus, [2]int64{1000, 1200}, [2]int64{1900, 2100}),
		newTranscript("T3", cache.Plus, [2]int64{1000, 1100}),
	)
	cfg := DefaultConfig()
	cfg.Level = LevelGene
	m, err := NewMatcher(buildIndex(g), cfg)
	require.NoError(t, err)

	matches, _ := m.Match(region("1", 950, 1050), cache.Cursor{})
	require.Len(t, matches, 1)
	assert.Equal(t, TSS, matches[0].Area)
	assert.Equal(t, []string{"T1", "T2", "T3"}, matches[0].TranscriptIDs)
	assert.Equal(t, []int{1}, matches[0].ExonNumbers)
}

func TestMatcher_NoGenesOnChromosome(t *testing.T) {
	idx := buildIndex(newGene("G1", "1", cache.Plus, newTranscript("T1", cache.Plus, [2]int64{1000, 2000})))
	m, err := NewMatcher(idx, DefaultConfig())
	require.NoError(t, err)
	core, logs := observer.New(zap.WarnLevel)
	m.SetLogger(zap.New(core))

	matches, _ := m.Match(region("chrY", 950, 1050), cache.Cursor{})
	assert.Empty(t, matches)
	matches, _ = m.Match(region("chrY", 2000, 2050), cache.Cursor{})
	assert.Empty(t, matches)
	matches, _ = m.Match(region("1", 500000, 500100), cache.Cursor{})
	assert.Empty(t, matches, "too far from any gene")

	require.Equal(t, 1, logs.Len(), "warned once per chromosome")
	assert.Equal(t, "chrY", logs.All()[0].ContextMap()["chrom"])
}

func TestNewMatcher_InvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Rules = nil
	_, err := NewMatcher(cache.NewIndex(), cfg)
	assert.ErrorContains(t, err, "invalid match config")
}
