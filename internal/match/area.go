// Package match classifies genomic regions against gene models and selects
// the highest-priority annotation per region.
package match

import (
	"fmt"
	"strings"
)

// Area is a gene feature class a region can be associated with.
type Area uint8

// Area values. Declaration order is also the order in which unlisted areas
// are appended to a rule list.
const (
	TSS Area = iota
	FirstExon
	Exon
	Intron
	GeneBody
	Promoter
	Upstream
	TTS
	Downstream

	numAreas = int(Downstream) + 1
)

var areaTokens = [numAreas]string{
	TSS:        "TSS",
	FirstExon:  "1st_EXON",
	Exon:       "EXON",
	Intron:     "INTRON",
	GeneBody:   "GENE_BODY",
	Promoter:   "PROMOTER",
	Upstream:   "UPSTREAM",
	TTS:        "TTS",
	Downstream: "DOWNSTREAM",
}

// String returns the area token used in rule lists and output.
func (a Area) String() string {
	if int(a) < numAreas {
		return areaTokens[a]
	}
	return fmt.Sprintf("Area(%d)", uint8(a))
}

// ParseArea converts a rule token to an Area. Matching ignores case and
// surrounding whitespace.
func ParseArea(s string) (Area, error) {
	s = strings.TrimSpace(s)
	for i, tok := range areaTokens {
		if strings.EqualFold(s, tok) {
			return Area(i), nil
		}
	}
	return 0, fmt.Errorf("unknown area %q", s)
}

// AllAreas returns every area in declaration order.
func AllAreas() []Area {
	areas := make([]Area, numAreas)
	for i := range areas {
		areas[i] = Area(i)
	}
	return areas
}

// ReportLevel controls how surviving candidates are aggregated.
type ReportLevel uint8

const (
	LevelExon ReportLevel = iota
	LevelTranscript
	LevelGene
)

func (l ReportLevel) String() string {
	switch l {
	case LevelExon:
		return "exon"
	case LevelTranscript:
		return "transcript"
	case LevelGene:
		return "gene"
	default:
		return fmt.Sprintf("ReportLevel(%d)", uint8(l))
	}
}

// ParseReportLevel converts "exon", "transcript" or "gene" to a ReportLevel.
func ParseReportLevel(s string) (ReportLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "exon":
		return LevelExon, nil
	case "transcript":
		return LevelTranscript, nil
	case "gene":
		return LevelGene, nil
	default:
		return 0, fmt.Errorf("unknown report level %q: expected exon, transcript or gene", s)
	}
}
