package match

import (
	"slices"

	"github.com/inodb/rgmatch/internal/cache"
)

// Candidate is one potential association between a region and one
// transcript area.
type Candidate struct {
	GeneID       string
	TranscriptID string
	Strand       cache.Strand
	Area         Area
	ExonNumbers  []int   // Exon or intron numbers, ascending
	Distance     int64   // Gap between region and transcript span, 0 if overlapping
	TSSDistance  int64   // Region midpoint minus transcription start, strand-aware
	PctgRegion   float64 // Percentage of the region inside the area
	PctgArea     float64 // Percentage of the area covered by the region
	AreaLength   int64
}

// Match is a resolved association reported for a region. At transcript and
// gene level it may merge several candidates.
type Match struct {
	GeneID        string
	TranscriptIDs []string
	Strand        cache.Strand
	Area          Area
	ExonNumbers   []int
	Distance      int64
	TSSDistance   int64
	PctgRegion    float64
	PctgArea      float64
	AreaLength    int64
	RegionLength  int64
}

func newMatch(c *Candidate, regionLength int64) Match {
	return Match{
		GeneID:        c.GeneID,
		TranscriptIDs: []string{c.TranscriptID},
		Strand:        c.Strand,
		Area:          c.Area,
		ExonNumbers:   slices.Clone(c.ExonNumbers),
		Distance:      c.Distance,
		TSSDistance:   c.TSSDistance,
		PctgRegion:    c.PctgRegion,
		PctgArea:      c.PctgArea,
		AreaLength:    c.AreaLength,
		RegionLength:  regionLength,
	}
}

// unionInts merges two ascending sets.
func unionInts(a, b []int) []int {
	out := make([]int, 0, len(a)+len(b))
	out = append(out, a...)
	out = append(out, b...)
	slices.Sort(out)
	return slices.Compact(out)
}
