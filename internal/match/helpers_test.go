package match

import (
	"github.com/inodb/rgmatch/internal/bed"
	"github.com/inodb/rgmatch/internal/cache"
)

// newTranscript builds a transcript from genomic exon coordinates.
func newTranscript(id string, strand cache.Strand, exons ...[2]int64) *cache.Transcript {
	t := &cache.Transcript{ID: id, Strand: strand}
	for _, e := range exons {
		t.AddExon(e[0], e[1])
	}
	return t
}

// newGene builds a gene holding the given transcripts.
func newGene(id, chrom string, strand cache.Strand, transcripts ...*cache.Transcript) *cache.Gene {
	g := &cache.Gene{ID: id, Chrom: chrom, Strand: strand}
	for _, t := range transcripts {
		t.GeneID = id
		g.AddTranscript(t)
	}
	return g
}

func buildIndex(genes ...*cache.Gene) *cache.Index {
	idx := cache.NewIndex()
	for _, g := range genes {
		idx.AddGene(g)
	}
	idx.Build()
	return idx
}

func region(chrom string, start, end int64) *bed.Region {
	return &bed.Region{Chrom: chrom, Start: start, End: end}
}

func areas(cands []Candidate) []Area {
	out := make([]Area, len(cands))
	for i, c := range cands {
		out[i] = c.Area
	}
	return out
}

// classifyOne builds a single-transcript gene and classifies r against it.
func classifyOne(cfg Config, r *bed.Region, strand cache.Strand, exons ...[2]int64) []Candidate {
	g := newGene("G", r.Chrom, strand, newTranscript("T", strand, exons...))
	buildIndex(g)
	return Classify(r, g, g.Transcripts[0], &cfg)
}
