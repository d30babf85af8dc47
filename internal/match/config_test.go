package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, DefaultRules, cfg.Rules)
	assert.Equal(t, 90.0, cfg.PercArea)
	assert.Equal(t, 50.0, cfg.PercRegion)
	assert.Equal(t, int64(200), cfg.TSS)
	assert.Equal(t, int64(0), cfg.TTS)
	assert.Equal(t, int64(1300), cfg.Promoter)
	assert.Equal(t, int64(10000), cfg.DistanceBP())
	assert.Equal(t, LevelExon, cfg.Level)
	assert.Equal(t, int64(10000), cfg.MaxLookback())

	cfg.Rules[0] = Downstream
	assert.Equal(t, TSS, DefaultRules[0], "DefaultConfig copies the rule list")
}

func TestConfig_MaxLookback(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DistanceKB = 0
	assert.Equal(t, int64(1500), cfg.MaxLookback(), "tss + promoter")
	cfg.TTS = 4000
	assert.Equal(t, int64(4000), cfg.MaxLookback())
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		msg    string
	}{
		{"empty rules", func(c *Config) { c.Rules = nil }, "empty rule list"},
		{"bad area", func(c *Config) { c.Rules = []Area{Area(42)} }, "invalid area"},
		{"perc area", func(c *Config) { c.PercArea = 100.5 }, "perc_area"},
		{"perc region", func(c *Config) { c.PercRegion = -1 }, "perc_region"},
		{"tss", func(c *Config) { c.TSS = -1 }, "tss"},
		{"tts", func(c *Config) { c.TTS = -5 }, "tts"},
		{"promoter", func(c *Config) { c.Promoter = -1 }, "promoter"},
		{"distance", func(c *Config) { c.DistanceKB = -1 }, "distance"},
		{"level", func(c *Config) { c.Level = ReportLevel(9) }, "report level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestConfig_ValidateReportsAll(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TSS = -1
	cfg.PercArea = 200
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tss")
	assert.Contains(t, err.Error(), "perc_area")
}

func TestParseRules(t *testing.T) {
	rules, err := ParseRules("DOWNSTREAM,UPSTREAM,GENE_BODY,INTRON,TTS,PROMOTER,1st_EXON,TSS")
	require.NoError(t, err)
	assert.Len(t, rules, 8)
	assert.Equal(t, Downstream, rules[0])
	assert.Equal(t, TSS, rules[7])

	rules, err = ParseRules(" tss, 1ST_exon ,Tss,intron")
	require.NoError(t, err)
	assert.Equal(t, []Area{TSS, FirstExon, Intron}, rules, "case-insensitive, duplicates dropped")

	_, err = ParseRules("TSS,UNKNOWN")
	assert.ErrorContains(t, err, `unknown area "UNKNOWN"`)

	_, err = ParseRules("  ")
	assert.Error(t, err)

	_, err = ParseRules("TSS,,INTRON")
	assert.Error(t, err, "empty token")
}

func TestFormatRules(t *testing.T) {
	assert.Equal(t, "TSS,1st_EXON,GENE_BODY,PROMOTER,INTRON,TTS,UPSTREAM,DOWNSTREAM", FormatRules(DefaultRules))
}

func TestConfig_Priority(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t,
		[]Area{TSS, FirstExon, GeneBody, Exon, Promoter, Intron, TTS, Upstream, Downstream},
		cfg.Priority(), "Exon follows GeneBody")

	cfg.Rules = []Area{Intron, Exon, TSS, Intron}
	assert.Equal(t,
		[]Area{Intron, Exon, TSS, FirstExon, GeneBody, Promoter, Upstream, TTS, Downstream},
		cfg.Priority(), "unlisted areas appended in declaration order")

	cfg.Rules = []Area{Downstream}
	assert.Len(t, cfg.Priority(), len(AllAreas()))
	assert.Equal(t, Downstream, cfg.Priority()[0])
}
