package cache

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/klauspost/compress/gzip"
)

// Default GTF attribute tags used to identify genes and transcripts.
const (
	DefaultGeneIDTag       = "gene_id"
	DefaultTranscriptIDTag = "transcript_id"
)

// GTFLoader loads gene models from GTF files (plain or gzipped).
type GTFLoader struct {
	path            string
	geneIDTag       string
	transcriptIDTag string
}

// NewGTFLoader creates a new GTF loader.
func NewGTFLoader(path string) *GTFLoader {
	return &GTFLoader{
		path:            path,
		geneIDTag:       DefaultGeneIDTag,
		transcriptIDTag: DefaultTranscriptIDTag,
	}
}

// SetTags overrides the attribute tags holding gene and transcript IDs.
// Empty values keep the defaults.
func (l *GTFLoader) SetTags(geneIDTag, transcriptIDTag string) {
	if geneIDTag != "" {
		l.geneIDTag = geneIDTag
	}
	if transcriptIDTag != "" {
		l.transcriptIDTag = transcriptIDTag
	}
}

// Load parses the GTF file, adds its genes to idx and builds the index.
func (l *GTFLoader) Load(idx *Index) error {
	f, err := os.Open(l.path)
	if err != nil {
		return fmt.Errorf("open GTF file: %w", err)
	}
	defer f.Close()

	br := bufio.NewReaderSize(f, 1<<20)
	var reader io.Reader = br

	// Check for gzip magic number (0x1f, 0x8b)
	if magic, err := br.Peek(2); err == nil && magic[0] == 0x1f && magic[1] == 0x8b {
		gz, err := gzip.NewReader(br)
		if err != nil {
			return fmt.Errorf("open gzip reader: %w", err)
		}
		defer gz.Close()
		reader = gz
	}

	if err := l.parseGTF(reader, idx); err != nil {
		return err
	}
	idx.Build()
	return nil
}

// geneKey identifies a gene; the same ID may appear on several chromosomes
// (e.g. pseudoautosomal regions).
type geneKey struct {
	chrom, id string
}

// parseGTF reads exon features and adds the resulting genes to idx in
// first-seen order. Transcripts keep their first-seen order within a gene.
func (l *GTFLoader) parseGTF(reader io.Reader, idx *Index) error {
	scanner := bufio.NewScanner(reader)
	// Increase buffer size for long attribute columns
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)

	genes := make(map[geneKey]*Gene)
	transcripts := make(map[geneKey]*Transcript)
	var order []*Gene

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Text()

		// Skip comments and empty lines
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Split(line, "\t")
		if len(fields) < 9 || fields[2] != "exon" {
			continue
		}

		strand, err := ParseStrand(fields[6])
		if err != nil {
			continue // Skip entries without a usable strand
		}

		start, err := strconv.ParseInt(fields[3], 10, 64)
		if err != nil {
			return &ParseError{Line: lineNum, Message: fmt.Sprintf("invalid start: %s", fields[3])}
		}
		end, err := strconv.ParseInt(fields[4], 10, 64)
		if err != nil {
			return &ParseError{Line: lineNum, Message: fmt.Sprintf("invalid end: %s", fields[4])}
		}

		attrs := parseAttributes(fields[8])
		geneID := attrs[l.geneIDTag]
		if geneID == "" {
			return &ParseError{Line: lineNum, Message: fmt.Sprintf("exon without %s attribute", l.geneIDTag)}
		}
		transcriptID := attrs[l.transcriptIDTag]
		if transcriptID == "" {
			return &ParseError{Line: lineNum, Message: fmt.Sprintf("exon without %s attribute", l.transcriptIDTag)}
		}

		chrom := NormalizeChrom(fields[0])
		gk := geneKey{chrom: chrom, id: geneID}
		g, ok := genes[gk]
		if !ok {
			g = &Gene{ID: geneID, Chrom: chrom, Strand: strand}
			genes[gk] = g
			order = append(order, g)
		}

		tk := geneKey{chrom: chrom, id: geneID + "\x00" + transcriptID}
		t, ok := transcripts[tk]
		if !ok {
			t = &Transcript{ID: transcriptID, GeneID: geneID, Strand: g.Strand}
			transcripts[tk] = t
			g.AddTranscript(t)
		}
		t.AddExon(start, end)
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scan GTF: %w", err)
	}

	for _, g := range order {
		idx.AddGene(g)
	}
	return nil
}

// parseAttributes parses GTF attribute column.
// Format: key "value"; key "value"; ...
func parseAttributes(attrStr string) map[string]string {
	attrs := make(map[string]string)

	for _, part := range strings.Split(attrStr, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		// Find the first space to separate key from value
		idx := strings.IndexByte(part, ' ')
		if idx == -1 {
			continue
		}

		key := part[:idx]
		value := strings.Trim(strings.TrimSpace(part[idx+1:]), "\"")
		attrs[key] = value
	}

	return attrs
}

// ParseError represents an error during GTF parsing with line context.
type ParseError struct {
	Line    int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("gtf parse error at line %d: %s", e.Line, e.Message)
}
