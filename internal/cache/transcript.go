package cache

import "sort"

// Transcript represents a specific gene isoform.
type Transcript struct {
	ID     string // Transcript ID (e.g., ENST00000311936)
	GeneID string // Parent gene ID
	Strand Strand // Plus or Minus
	Start  int64  // Transcript start (1-based)
	End    int64  // Transcript end (1-based, inclusive)
	Exons  []Exon // Exons ascending by genomic start, regardless of strand
}

// Exon represents a single exon within a transcript.
type Exon struct {
	Number int   // Exon number (1-based, transcription order)
	Start  int64 // Genomic start (1-based)
	End    int64 // Genomic end (1-based, inclusive)
}

// Length returns the exon length in bp.
func (e Exon) Length() int64 {
	return e.End - e.Start + 1
}

// Length returns the transcript span in bp.
func (t *Transcript) Length() int64 {
	return t.End - t.Start + 1
}

// IsForwardStrand returns true if the transcript is on the forward strand.
func (t *Transcript) IsForwardStrand() bool {
	return t.Strand == Plus
}

// Contains returns true if the given position is within the transcript boundaries.
func (t *Transcript) Contains(pos int64) bool {
	return pos >= t.Start && pos <= t.End
}

// FirstExon returns the exon nearest the transcription start.
func (t *Transcript) FirstExon() Exon {
	if t.Strand == Minus {
		return t.Exons[len(t.Exons)-1]
	}
	return t.Exons[0]
}

// TSS returns the genomic position of the transcription start.
func (t *Transcript) TSS() int64 {
	if t.Strand == Minus {
		return t.End
	}
	return t.Start
}

// TTS returns the genomic position of the transcription end.
func (t *Transcript) TTS() int64 {
	if t.Strand == Minus {
		return t.Start
	}
	return t.End
}

// AddExon appends an exon; call Renumber once all exons are added.
func (t *Transcript) AddExon(start, end int64) {
	t.Exons = append(t.Exons, Exon{Start: start, End: end})
}

// Renumber sorts exons by genomic start, assigns transcription-order exon
// numbers, and recomputes the transcript span.
//
// Plus strand exons are numbered 1..N left to right, Minus strand exons
// N..1, so exon 1 is always the one nearest the TSS.
func (t *Transcript) Renumber() {
	n := len(t.Exons)
	if n == 0 {
		return
	}
	sort.SliceStable(t.Exons, func(i, j int) bool {
		if t.Exons[i].Start != t.Exons[j].Start {
			return t.Exons[i].Start < t.Exons[j].Start
		}
		return t.Exons[i].End < t.Exons[j].End
	})
	t.Start, t.End = t.Exons[0].Start, t.Exons[0].End
	for i := range t.Exons {
		e := &t.Exons[i]
		if t.Strand == Minus {
			e.Number = n - i
		} else {
			e.Number = i + 1
		}
		t.Start = min(t.Start, e.Start)
		t.End = max(t.End, e.End)
	}
}
