package bed

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/klauspost/compress/gzip"
)

// Parser reads regions from a BED file.
type Parser struct {
	reader     *bufio.Reader
	file       *os.File
	gzipReader *gzip.Reader
	lineNumber int
	seenData   bool
	numMeta    int
}

// NewParser creates a new BED parser for the given file.
// Supports both plain BED and gzipped BED (.bed.gz) files; "-" reads stdin.
func NewParser(path string) (*Parser, error) {
	if path == "-" {
		return NewParserFromReader(os.Stdin)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open bed file: %w", err)
	}

	p, err := newParser(file)
	if err != nil {
		file.Close()
		return nil, err
	}
	p.file = file
	return p, nil
}

// NewParserFromReader creates a parser from an io.Reader (e.g., stdin).
// Gzip input is detected from its magic bytes.
func NewParserFromReader(r io.Reader) (*Parser, error) {
	return newParser(r)
}

func newParser(r io.Reader) (*Parser, error) {
	br := bufio.NewReaderSize(r, 256*1024)
	p := &Parser{reader: br}

	// Check for gzip magic number (0x1f, 0x8b)
	magic, err := br.Peek(2)
	if err == nil && magic[0] == 0x1f && magic[1] == 0x8b {
		p.gzipReader, err = gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("create gzip reader: %w", err)
		}
		p.reader = bufio.NewReaderSize(p.gzipReader, 256*1024)
	}

	return p, nil
}

// Next reads the next region from the BED file.
// Returns nil, nil when there are no more regions.
//
// Empty lines, comments, and track/browser lines are skipped, as are header
// lines before the first region whose coordinates are not integers. Once a
// region has been read, a malformed line is a *ParseError.
func (p *Parser) Next() (*Region, error) {
	for {
		line, err := p.reader.ReadString('\n')
		if err != nil && err != io.EOF {
			return nil, fmt.Errorf("read bed line: %w", err)
		}
		if line == "" && err == io.EOF {
			return nil, nil
		}
		p.lineNumber++

		line = strings.TrimRight(line, "\r\n")
		if strings.TrimSpace(line) == "" || isHeaderLine(line) {
			continue
		}

		region, perr := p.parseLine(line)
		if perr != nil {
			if !p.seenData {
				continue
			}
			return nil, perr
		}
		p.seenData = true
		return region, nil
	}
}

func isHeaderLine(line string) bool {
	return strings.HasPrefix(line, "#") ||
		strings.HasPrefix(line, "track") ||
		strings.HasPrefix(line, "browser")
}

func (p *Parser) parseLine(line string) (*Region, error) {
	fields := strings.Split(line, "\t")
	if len(fields) < 3 {
		return nil, &ParseError{
			Line:    p.lineNumber,
			Message: fmt.Sprintf("expected at least 3 columns, found %d", len(fields)),
		}
	}

	start, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil {
		return nil, &ParseError{Line: p.lineNumber, Message: fmt.Sprintf("invalid start: %s", fields[1])}
	}
	end, err := strconv.ParseInt(fields[2], 10, 64)
	if err != nil {
		return nil, &ParseError{Line: p.lineNumber, Message: fmt.Sprintf("invalid end: %s", fields[2])}
	}

	var meta []string
	if len(fields) > 3 {
		n := min(len(fields)-3, MaxMetaColumns)
		meta = make([]string, n)
		copy(meta, fields[3:3+n])
	}
	if !p.seenData {
		p.numMeta = len(meta)
	}

	return &Region{
		Chrom:    fields[0],
		Start:    start,
		End:      end,
		Metadata: meta,
		Line:     p.lineNumber,
	}, nil
}

// NumMetaColumns returns the number of metadata columns of the first region
// read, or 0 before any region has been read.
func (p *Parser) NumMetaColumns() int {
	return p.numMeta
}

// LineNumber returns the current line number.
func (p *Parser) LineNumber() int {
	return p.lineNumber
}

// Close closes the parser and any underlying file.
func (p *Parser) Close() error {
	if p.gzipReader != nil {
		p.gzipReader.Close()
	}
	if p.file != nil {
		return p.file.Close()
	}
	return nil
}

// ParseError represents an error during BED parsing with line context.
type ParseError struct {
	Line    int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("bed parse error at line %d: %s", e.Line, e.Message)
}
