// Package cache provides the in-memory gene index used for region matching.
package cache

import "fmt"

// Strand is the orientation of a gene or transcript.
type Strand int8

// Strand values, matching the GTF "+" and "-" tokens.
const (
	Plus  Strand = 1
	Minus Strand = -1
)

// ParseStrand converts a GTF strand token to a Strand.
func ParseStrand(s string) (Strand, error) {
	switch s {
	case "+":
		return Plus, nil
	case "-":
		return Minus, nil
	default:
		return 0, fmt.Errorf("invalid strand %q: expected '+' or '-'", s)
	}
}

// String returns the GTF token for the strand.
func (s Strand) String() string {
	switch s {
	case Plus:
		return "+"
	case Minus:
		return "-"
	default:
		return "."
	}
}

// Gene represents a genomic region with associated transcripts.
type Gene struct {
	ID          string        // Gene identifier (e.g., ENSG00000133703)
	Chrom       string        // Chromosome, normalized
	Start       int64         // Gene start position (1-based)
	End         int64         // Gene end position (1-based, inclusive)
	Strand      Strand        // Plus or Minus
	Transcripts []*Transcript // Associated transcripts, in load order
}

// IsForwardStrand returns true if the gene is on the forward strand.
func (g *Gene) IsForwardStrand() bool {
	return g.Strand == Plus
}

// IsReverseStrand returns true if the gene is on the reverse strand.
func (g *Gene) IsReverseStrand() bool {
	return g.Strand == Minus
}

// Contains returns true if the given position is within the gene boundaries.
func (g *Gene) Contains(pos int64) bool {
	return pos >= g.Start && pos <= g.End
}

// AddTranscript attaches a transcript to the gene.
func (g *Gene) AddTranscript(t *Transcript) {
	g.Transcripts = append(g.Transcripts, t)
}

// calculateSize sets the gene span from its transcripts.
func (g *Gene) calculateSize() {
	if len(g.Transcripts) == 0 {
		return
	}
	g.Start, g.End = g.Transcripts[0].Start, g.Transcripts[0].End
	for _, t := range g.Transcripts[1:] {
		g.Start = min(g.Start, t.Start)
		g.End = max(g.End, t.End)
	}
}
