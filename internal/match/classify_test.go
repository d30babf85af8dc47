package match

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/rgmatch/internal/cache"
)

func TestClassify_TSSScenario(t *testing.T) {
	cands := classifyOne(DefaultConfig(), region("chr1", 950, 1050), cache.Plus, [2]int64{1000, 2000})
	require.Equal(t, []Area{TSS, FirstExon}, areas(cands))

	tss := cands[0]
	assert.Equal(t, "G", tss.GeneID)
	assert.Equal(t, "T", tss.TranscriptID)
	assert.Equal(t, 100.0, tss.PctgRegion)
	assert.Equal(t, 50.5, tss.PctgArea)
	assert.Equal(t, int64(0), tss.TSSDistance)
	assert.Equal(t, int64(0), tss.Distance)
	assert.Equal(t, int64(200), tss.AreaLength)
	assert.Equal(t, []int{1}, tss.ExonNumbers)

	first := cands[1]
	assert.Equal(t, int64(1001), first.AreaLength)
	assert.InDelta(t, 51.0*100/101, first.PctgRegion, 1e-9)
}

func TestClassify_ZoneBoundaries(t *testing.T) {
	exon := [2]int64{10000, 11000} // T=10000, TSS zone [9900,10099], promoter [8600,9899]
	tests := []struct {
		name       string
		start, end int64
		want       []Area
	}{
		{"ends on TSS zone edge", 9800, 9900, []Area{Promoter, TSS}},
		{"ends one before TSS zone", 9800, 9899, []Area{Promoter}},
		{"ends on promoter edge", 8500, 8600, []Area{Upstream, Promoter}},
		{"ends one before promoter", 8500, 8599, []Area{Upstream}},
		{"upstream limit", 0, 0, []Area{Upstream}},
		{"beyond upstream limit", -10, -1, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cands := classifyOne(DefaultConfig(), region("1", tt.start, tt.end), cache.Plus, exon)
			assert.Equal(t, tt.want, nilIfEmpty(areas(cands)))
		})
	}
}

// The TSS zone reaches tss-1 bp past T-h, into the first exon.
func TestClassify_TSSZoneDownstreamEdge(t *testing.T) {
	exon := [2]int64{10000, 11000}
	tests := []struct {
		name       string
		strand     cache.Strand
		start, end int64
		want       []Area
	}{
		{"plus starts on last TSS base", cache.Plus, 10099, 10150, []Area{TSS, FirstExon}},
		{"plus starts one past TSS zone", cache.Plus, 10100, 10150, []Area{FirstExon}},
		{"minus ends on last TSS base", cache.Minus, 10850, 10901, []Area{TSS, FirstExon}},
		{"minus ends one past TSS zone", cache.Minus, 10850, 10900, []Area{FirstExon}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cands := classifyOne(DefaultConfig(), region("1", tt.start, tt.end), tt.strand, exon)
			require.Equal(t, tt.want, areas(cands))
			if tt.want[0] == TSS {
				assert.Equal(t, int64(200), cands[0].AreaLength)
				assert.InDelta(t, 100.0/52, cands[0].PctgRegion, 1e-9)
			}
		})
	}
}

func nilIfEmpty(a []Area) []Area {
	if len(a) == 0 {
		return nil
	}
	return a
}

func TestClassify_DownstreamWithoutTTS(t *testing.T) {
	cfg := DefaultConfig()
	cands := classifyOne(cfg, region("1", 2001, 2050), cache.Plus, [2]int64{1000, 2000})
	require.Equal(t, []Area{Downstream}, areas(cands))
	assert.Equal(t, int64(1), cands[0].Distance)
	assert.Equal(t, []int{1}, cands[0].ExonNumbers)
	assert.Equal(t, 100.0, cands[0].PctgRegion)
	assert.Equal(t, int64(10000), cands[0].AreaLength)

	cfg.TTS = 100
	cands = classifyOne(cfg, region("1", 2001, 2050), cache.Plus, [2]int64{1000, 2000})
	require.Equal(t, []Area{TTS}, areas(cands))
	assert.Equal(t, 50.0, cands[0].PctgArea)

	cands = classifyOne(cfg, region("1", 2001, 2150), cache.Plus, [2]int64{1000, 2000})
	assert.Equal(t, []Area{TTS, Downstream}, areas(cands))
}

func TestClassify_MultiExonPlus(t *testing.T) {
	exons := [][2]int64{{100, 199}, {300, 399}, {500, 599}}
	cands := classifyOne(DefaultConfig(), region("1", 150, 350), cache.Plus, exons...)
	require.Equal(t, []Area{TSS, FirstExon, GeneBody, Intron}, areas(cands))

	first, body, intron := cands[1], cands[2], cands[3]
	assert.Equal(t, []int{1}, first.ExonNumbers)
	assert.Equal(t, 50.0, first.PctgArea)

	assert.Equal(t, []int{1, 2}, body.ExonNumbers)
	assert.Equal(t, int64(200), body.AreaLength)
	assert.Equal(t, 50.5, body.PctgArea)

	assert.Equal(t, []int{1}, intron.ExonNumbers)
	assert.Equal(t, 100.0, intron.PctgArea)
	assert.Equal(t, int64(150), intron.TSSDistance)
}

func TestClassify_MultiExonMinus(t *testing.T) {
	exons := [][2]int64{{100, 199}, {300, 399}, {500, 599}}
	cands := classifyOne(DefaultConfig(), region("1", 150, 350), cache.Minus, exons...)
	require.Equal(t, []Area{GeneBody, Intron}, areas(cands))
	assert.Equal(t, []int{2, 3}, cands[0].ExonNumbers)
	assert.Equal(t, []int{2}, cands[1].ExonNumbers)
	assert.Equal(t, int64(599-250), cands[0].TSSDistance)
}

func TestClassify_SingleInnerExon(t *testing.T) {
	exons := [][2]int64{{100, 199}, {300, 399}, {500, 599}}
	cands := classifyOne(DefaultConfig(), region("1", 320, 380), cache.Plus, exons...)
	require.Equal(t, []Area{Exon}, areas(cands))
	assert.Equal(t, []int{2}, cands[0].ExonNumbers)
	assert.Equal(t, 100.0, cands[0].PctgRegion)
	assert.Equal(t, 61.0, cands[0].PctgArea)
}

func TestClassify_UpstreamDistance(t *testing.T) {
	cands := classifyOne(DefaultConfig(), region("1", 5000, 5100), cache.Plus, [2]int64{10000, 11000})
	require.Equal(t, []Area{Upstream}, areas(cands))
	assert.Equal(t, int64(4900), cands[0].Distance)
	assert.Equal(t, int64(-4950), cands[0].TSSDistance)
}

func TestClassify_EmptyRegion(t *testing.T) {
	cands := classifyOne(DefaultConfig(), region("1", 1500, 1499), cache.Plus, [2]int64{1000, 2000})
	assert.Empty(t, cands)
}

// A Plus transcript and its coordinate-mirrored Minus copy must classify
// mirrored regions identically.
func TestClassify_StrandMirrorSymmetry(t *testing.T) {
	const c = 10000
	plusExons := [][2]int64{{1000, 1200}, {1500, 1700}, {2000, 2500}}
	minusExons := make([][2]int64, len(plusExons))
	for i, e := range plusExons {
		minusExons[i] = [2]int64{c - e[1], c - e[0]}
	}

	cfg := DefaultConfig()
	cfg.TTS = 150
	cfg.DistanceKB = 2

	// Every region has an even start+end so the midpoint mirrors exactly.
	var regions [][2]int64
	for start := int64(-1500); start < 5000; start += 37 {
		for _, length := range []int64{1, 51, 301, 1201} {
			end := start + length - 1
			if (start+end)%2 == 0 {
				regions = append(regions, [2]int64{start, end})
			}
		}
	}
	require.NotEmpty(t, regions)

	for _, r := range regions {
		plus := classifyOne(cfg, region("1", r[0], r[1]), cache.Plus, plusExons...)
		minus := classifyOne(cfg, region("1", c-r[1], c-r[0]), cache.Minus, minusExons...)
		for i := range plus {
			plus[i].Strand = 0
		}
		for i := range minus {
			minus[i].Strand = 0
		}
		require.Equal(t, plus, minus, fmt.Sprintf("region %v", r))
	}
}
