package cache

import (
	"sort"
	"strings"
)

// Index holds genes grouped by chromosome and sorted by start.
// After Build it is read-only and safe for concurrent use without locks.
type Index struct {
	genes  map[string][]*Gene
	ends   map[string]endIndex
	frozen bool
}

// NewIndex creates an empty gene index.
func NewIndex() *Index {
	return &Index{
		genes: make(map[string][]*Gene),
		ends:  make(map[string]endIndex),
	}
}

// AddGene adds a gene to the index. It panics if called after Build.
func (x *Index) AddGene(g *Gene) {
	if x.frozen {
		panic("cache: AddGene called on a built index")
	}
	g.Chrom = NormalizeChrom(g.Chrom)
	x.genes[g.Chrom] = append(x.genes[g.Chrom], g)
}

// Build renumbers exons, computes gene spans, sorts genes by start (gene ID
// breaks ties) and freezes the per-chromosome search arrays.
func (x *Index) Build() {
	for chrom, genes := range x.genes {
		kept := genes[:0]
		for _, g := range genes {
			transcripts := g.Transcripts[:0]
			for _, t := range g.Transcripts {
				if len(t.Exons) == 0 {
					continue
				}
				t.Strand = g.Strand
				t.Renumber()
				transcripts = append(transcripts, t)
			}
			g.Transcripts = transcripts
			if len(g.Transcripts) == 0 {
				continue
			}
			g.calculateSize()
			kept = append(kept, g)
		}
		sort.SliceStable(kept, func(i, j int) bool {
			if kept[i].Start != kept[j].Start {
				return kept[i].Start < kept[j].Start
			}
			return kept[i].ID < kept[j].ID
		})
		if len(kept) == 0 {
			delete(x.genes, chrom)
			continue
		}
		x.genes[chrom] = kept
		x.ends[chrom] = buildEndIndex(kept)
	}
	x.frozen = true
}

// Genes returns the start-sorted genes of a chromosome.
func (x *Index) Genes(chrom string) []*Gene {
	return x.genes[NormalizeChrom(chrom)]
}

// GeneCount returns the total number of genes in the index.
func (x *Index) GeneCount() int {
	count := 0
	for _, genes := range x.genes {
		count += len(genes)
	}
	return count
}

// TranscriptCount returns the total number of transcripts in the index.
func (x *Index) TranscriptCount() int {
	count := 0
	for _, genes := range x.genes {
		for _, g := range genes {
			count += len(g.Transcripts)
		}
	}
	return count
}

// Chromosomes returns a sorted list of chromosomes in the index.
func (x *Index) Chromosomes() []string {
	chroms := make([]string, 0, len(x.genes))
	for chrom := range x.genes {
		chroms = append(chroms, chrom)
	}
	sort.Strings(chroms)
	return chroms
}

// Cursor carries the result of a previous SearchStart call so that queries
// at non-decreasing positions can skip genes already proven out of reach.
// The zero Cursor disables the optimization. Cursors are plain values: each
// caller keeps its own.
type Cursor struct {
	chrom    string
	pos      int64
	lookback int64
	index    int
	valid    bool
}

// SearchStart returns the index of the first gene on chrom whose
// end+lookback >= pos, or len(Genes(chrom)) if there is none, together with
// the cursor to pass to the next query.
//
// The cursor is used as a lower bound only when it refers to the same
// chromosome and lookback and pos has not moved backwards, so the result is
// always identical to a search from index 0.
func (x *Index) SearchStart(chrom string, pos, lookback int64, cur Cursor) (int, Cursor) {
	chrom = NormalizeChrom(chrom)
	from := 0
	if cur.valid && cur.chrom == chrom && cur.lookback == lookback && pos >= cur.pos {
		from = cur.index
	}
	idx := x.ends[chrom].search(pos, lookback, from)
	return idx, Cursor{chrom: chrom, pos: pos, lookback: lookback, index: idx, valid: true}
}

// NormalizeChrom normalizes chromosome names by removing the "chr" prefix.
// GENCODE uses "chr1" while many BED files use "1".
func NormalizeChrom(chrom string) string {
	if strings.HasPrefix(chrom, "chr") {
		return chrom[3:]
	}
	return chrom
}
