package match

import "slices"

// Resolver selects the reported matches among a region's candidates.
type Resolver struct {
	priority   []Area
	percArea   float64
	percRegion float64
	level      ReportLevel
}

// NewResolver creates a resolver from cfg. cfg is expected to be valid.
func NewResolver(cfg *Config) *Resolver {
	return &Resolver{
		priority:   cfg.Priority(),
		percArea:   cfg.PercArea,
		percRegion: cfg.PercRegion,
		level:      cfg.Level,
	}
}

// Resolve picks the first area in priority order that has any candidate,
// keeps the candidates of that area meeting either percentage threshold
// (all of them if none does), and aggregates them to the report level.
// Lower-priority areas never contribute, whatever their coverage.
func (res *Resolver) Resolve(cands []Candidate, regionLength int64) []Match {
	if len(cands) == 0 {
		return nil
	}

	var group []*Candidate
	for _, area := range res.priority {
		for i := range cands {
			if cands[i].Area == area {
				group = append(group, &cands[i])
			}
		}
		if len(group) > 0 {
			break
		}
	}

	passing := make([]*Candidate, 0, len(group))
	for _, c := range group {
		if c.PctgArea >= res.percArea || c.PctgRegion >= res.percRegion {
			passing = append(passing, c)
		}
	}
	if len(passing) == 0 {
		passing = group
	}

	switch res.level {
	case LevelTranscript:
		return byTranscript(passing, regionLength)
	case LevelGene:
		return byGene(byTranscript(passing, regionLength))
	default:
		out := make([]Match, len(passing))
		for i, c := range passing {
			out[i] = newMatch(c, regionLength)
		}
		return out
	}
}

// byTranscript merges candidates of the same (gene, transcript) that tie on
// the highest area coverage.
func byTranscript(cands []*Candidate, regionLength int64) []Match {
	type key struct{ gene, transcript string }
	var order []key
	groups := make(map[key][]*Candidate)
	for _, c := range cands {
		k := key{c.GeneID, c.TranscriptID}
		if _, ok := groups[k]; !ok {
			order = append(order, k)
		}
		groups[k] = append(groups[k], c)
	}

	out := make([]Match, 0, len(order))
	for _, k := range order {
		group := groups[k]
		best := group[0].PctgArea
		for _, c := range group[1:] {
			best = max(best, c.PctgArea)
		}
		var m *Match
		for _, c := range group {
			if c.PctgArea != best {
				continue
			}
			if m == nil {
				mm := newMatch(c, regionLength)
				m = &mm
				continue
			}
			m.ExonNumbers = unionInts(m.ExonNumbers, c.ExonNumbers)
		}
		out = append(out, *m)
	}
	return out
}

// byGene merges the transcript matches of a gene that tie on the highest
// area coverage, joining their transcript IDs in first-appearance order.
func byGene(matches []Match) []Match {
	var order []string
	groups := make(map[string][]int)
	for i := range matches {
		g := matches[i].GeneID
		if _, ok := groups[g]; !ok {
			order = append(order, g)
		}
		groups[g] = append(groups[g], i)
	}

	out := make([]Match, 0, len(order))
	for _, g := range order {
		idx := groups[g]
		best := matches[idx[0]].PctgArea
		for _, i := range idx[1:] {
			best = max(best, matches[i].PctgArea)
		}
		var m *Match
		for _, i := range idx {
			cur := matches[i]
			if cur.PctgArea != best {
				continue
			}
			if m == nil {
				m = &cur
				continue
			}
			for _, id := range cur.TranscriptIDs {
				if !slices.Contains(m.TranscriptIDs, id) {
					m.TranscriptIDs = append(m.TranscriptIDs, id)
				}
			}
			m.ExonNumbers = unionInts(m.ExonNumbers, cur.ExonNumbers)
		}
		out = append(out, *m)
	}
	return out
}
