package match

import (
	"github.com/inodb/rgmatch/internal/bed"
	"github.com/inodb/rgmatch/internal/cache"
)

// span is an inclusive interval in frame coordinates.
type span struct {
	start, end int64
}

func (s span) length() int64 {
	return s.end - s.start + 1
}

func (s span) empty() bool {
	return s.end < s.start
}

// overlap returns the number of bases shared by a and b.
func overlap(a, b span) int64 {
	lo := max(a.start, b.start)
	hi := min(a.end, b.end)
	if hi < lo {
		return 0
	}
	return hi - lo + 1
}

func percent(part, whole int64) float64 {
	if whole <= 0 {
		return 0
	}
	return float64(part) * 100 / float64(whole)
}

// frame maps genomic coordinates into a Plus-oriented frame: identity for
// Plus transcripts, negation for Minus ones. In the frame the transcription
// start is always the lowest coordinate of the transcript.
type frame struct {
	sign int64
}

func (f frame) pos(x int64) int64 {
	return f.sign * x
}

func (f frame) span(start, end int64) span {
	a, b := f.pos(start), f.pos(end)
	if a > b {
		a, b = b, a
	}
	return span{a, b}
}

// Classify returns every candidate area of transcript t touched by region r,
// in the order Upstream, Promoter, TSS, FirstExon, Exon, GeneBody, Intron,
// TTS, Downstream. Empty regions and transcripts without exons yield nothing.
func Classify(r *bed.Region, g *cache.Gene, t *cache.Transcript, cfg *Config) []Candidate {
	regionLen := r.Length()
	if regionLen <= 0 || len(t.Exons) == 0 {
		return nil
	}

	f := frame{sign: 1}
	if t.Strand == cache.Minus {
		f.sign = -1
	}

	reg := f.span(r.Start, r.End)
	mid := f.pos(r.Midpoint())
	tx := f.span(t.Start, t.End)
	tss, tes := tx.start, tx.end

	// Exons in transcription order.
	exons := make([]span, len(t.Exons))
	numbers := make([]int, len(t.Exons))
	for i, e := range t.Exons {
		j := i
		if f.sign < 0 {
			j = len(t.Exons) - 1 - i
		}
		exons[j] = f.span(e.Start, e.End)
		numbers[j] = e.Number
	}
	lastExon := numbers[len(numbers)-1]

	var distance int64
	switch {
	case reg.end < tss:
		distance = tss - reg.end
	case reg.start > tes:
		distance = reg.start - tes
	}

	var out []Candidate
	emit := func(area Area, ov, areaLen int64, exonNumbers []int) {
		out = append(out, Candidate{
			GeneID:       g.ID,
			TranscriptID: t.ID,
			Strand:       t.Strand,
			Area:         area,
			ExonNumbers:  exonNumbers,
			Distance:     distance,
			TSSDistance:  mid - tss,
			PctgRegion:   percent(ov, regionLen),
			PctgArea:     percent(ov, areaLen),
			AreaLength:   areaLen,
		})
	}
	zone := func(area Area, z span, exonNumber int) {
		if z.empty() {
			return
		}
		if ov := overlap(reg, z); ov > 0 {
			emit(area, ov, z.length(), []int{exonNumber})
		}
	}

	half := cfg.TSS / 2
	dist := cfg.DistanceBP()

	zone(Upstream, span{tss - dist, tss - half - cfg.Promoter - 1}, 1)
	zone(Promoter, span{tss - half - cfg.Promoter, tss - half - 1}, 1)
	zone(TSS, span{tss - half, tss - half + cfg.TSS - 1}, 1)

	var hitNumbers []int
	var hitOv, hitLen, firstOv, firstLen int64
	firstHit := false
	for i, e := range exons {
		ov := overlap(reg, e)
		if ov == 0 {
			continue
		}
		hitNumbers = append(hitNumbers, numbers[i])
		hitOv += ov
		hitLen += e.length()
		if numbers[i] == 1 {
			firstHit = true
			firstOv, firstLen = ov, e.length()
		}
	}
	switch {
	case len(hitNumbers) == 1:
		area := FirstExon
		if !firstHit {
			area = Exon
		}
		emit(area, hitOv, hitLen, hitNumbers)
	case len(hitNumbers) > 1:
		if firstHit {
			emit(FirstExon, firstOv, firstLen, []int{1})
		}
		emit(GeneBody, hitOv, hitLen, hitNumbers)
	}

	var intronNumbers []int
	var intronOv, intronLen int64
	for k := 1; k < len(exons); k++ {
		in := span{exons[k-1].end + 1, exons[k].start - 1}
		if in.empty() {
			continue
		}
		if ov := overlap(reg, in); ov > 0 {
			intronNumbers = append(intronNumbers, k)
			intronOv += ov
			intronLen += in.length()
		}
	}
	if len(intronNumbers) > 0 {
		emit(Intron, intronOv, intronLen, intronNumbers)
	}

	zone(TTS, span{tes + 1, tes + cfg.TTS}, lastExon)
	zone(Downstream, span{tes + cfg.TTS + 1, tes + dist}, lastExon)

	return out
}
