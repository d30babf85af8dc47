package match

import (
	"errors"
	"fmt"
	"strings"
)

// DefaultRules is the default area priority, highest first.
var DefaultRules = []Area{TSS, FirstExon, GeneBody, Promoter, Intron, TTS, Upstream, Downstream}

// Config holds the classification and resolution parameters.
type Config struct {
	Rules      []Area      // Area priority, highest first
	PercArea   float64     // Minimum percentage of the area covered by the region
	PercRegion float64     // Minimum percentage of the region covered by the area
	TSS        int64       // TSS zone size in bp, centered on the transcription start
	TTS        int64       // TTS zone size in bp, 3' of the transcription end
	Promoter   int64       // Promoter zone size in bp, 5' of the TSS zone
	DistanceKB int64       // Upstream/downstream reach in kb
	Level      ReportLevel // Aggregation level of reported matches
}

// DefaultConfig returns the default matching parameters.
func DefaultConfig() Config {
	return Config{
		Rules:      append([]Area(nil), DefaultRules...),
		PercArea:   90,
		PercRegion: 50,
		TSS:        200,
		TTS:        0,
		Promoter:   1300,
		DistanceKB: 10,
		Level:      LevelExon,
	}
}

// Validate reports every configuration problem at once.
func (c Config) Validate() error {
	var errs []error
	if len(c.Rules) == 0 {
		errs = append(errs, errors.New("rules: empty rule list"))
	}
	for _, a := range c.Rules {
		if int(a) >= numAreas {
			errs = append(errs, fmt.Errorf("rules: invalid area %d", uint8(a)))
		}
	}
	if c.PercArea < 0 || c.PercArea > 100 {
		errs = append(errs, fmt.Errorf("perc_area: %g outside [0,100]", c.PercArea))
	}
	if c.PercRegion < 0 || c.PercRegion > 100 {
		errs = append(errs, fmt.Errorf("perc_region: %g outside [0,100]", c.PercRegion))
	}
	if c.TSS < 0 {
		errs = append(errs, fmt.Errorf("tss: negative size %d", c.TSS))
	}
	if c.TTS < 0 {
		errs = append(errs, fmt.Errorf("tts: negative size %d", c.TTS))
	}
	if c.Promoter < 0 {
		errs = append(errs, fmt.Errorf("promoter: negative size %d", c.Promoter))
	}
	if c.DistanceKB < 0 {
		errs = append(errs, fmt.Errorf("distance: negative distance %d", c.DistanceKB))
	}
	if c.Level > LevelGene {
		errs = append(errs, fmt.Errorf("report level: invalid value %d", uint8(c.Level)))
	}
	return errors.Join(errs...)
}

// DistanceBP returns the upstream/downstream reach in bp.
func (c Config) DistanceBP() int64 {
	return c.DistanceKB * 1000
}

// MaxLookback returns how far from a gene a region can lie and still
// produce a candidate.
func (c Config) MaxLookback() int64 {
	return max(c.TSS+c.Promoter, c.TTS, c.DistanceBP())
}

// Priority returns the resolved priority list: the configured rules without
// duplicates, then Exon right after GeneBody if not listed, then every other
// unlisted area in declaration order.
func (c Config) Priority() []Area {
	var seen [numAreas]bool
	out := make([]Area, 0, numAreas)
	add := func(a Area) {
		if int(a) < numAreas && !seen[a] {
			seen[a] = true
			out = append(out, a)
		}
	}

	exonListed := false
	for _, a := range c.Rules {
		if a == Exon {
			exonListed = true
		}
	}
	for _, a := range c.Rules {
		add(a)
		if a == GeneBody && !exonListed {
			add(Exon)
		}
	}
	for _, a := range AllAreas() {
		add(a)
	}
	return out
}

// ParseRules parses a comma-separated rule list such as
// "TSS,1st_EXON,GENE_BODY". Tokens are case-insensitive; duplicates keep
// their first position.
func ParseRules(s string) ([]Area, error) {
	if strings.TrimSpace(s) == "" {
		return nil, errors.New("empty rule list")
	}
	var rules []Area
	seen := make(map[Area]bool)
	for _, tok := range strings.Split(s, ",") {
		a, err := ParseArea(tok)
		if err != nil {
			return nil, fmt.Errorf("parse rules: %w", err)
		}
		if seen[a] {
			continue
		}
		seen[a] = true
		rules = append(rules, a)
	}
	return rules, nil
}

// FormatRules renders a rule list in ParseRules syntax.
func FormatRules(rules []Area) string {
	parts := make([]string, len(rules))
	for i, a := range rules {
		parts[i] = a.String()
	}
	return strings.Join(parts, ",")
}
