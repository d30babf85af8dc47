// Package output provides region match output writers.
package output

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/inodb/rgmatch/internal/bed"
	"github.com/inodb/rgmatch/internal/match"
)

// Columns are the fixed output columns, before any BED metadata columns.
var Columns = []string{
	"Region",
	"Midpoint",
	"Gene",
	"Transcript",
	"Exon/Intron",
	"Area",
	"Strand",
	"Distance",
	"TSSDistance",
	"PercRegion",
	"PercArea",
	"AreaLength",
	"RegionLength",
}

// TabWriter writes matches in tab-delimited format.
// AppendMatches is safe for concurrent use; the other methods are not.
type TabWriter struct {
	w *bufio.Writer
}

// NewTabWriter creates a new tab-delimited writer.
func NewTabWriter(w io.Writer) *TabWriter {
	return &TabWriter{w: bufio.NewWriterSize(w, 1<<20)}
}

// Header returns the header line for numMeta BED metadata columns.
func Header(numMeta int) string {
	cols := append([]string(nil), Columns...)
	numMeta = min(max(numMeta, 0), bed.MaxMetaColumns)
	cols = append(cols, bed.MetaColumnNames[:numMeta]...)
	return strings.Join(cols, "\t") + "\n"
}

// WriteHeader writes the header line.
func (tw *TabWriter) WriteHeader(numMeta int) error {
	_, err := tw.w.WriteString(Header(numMeta))
	return err
}

// AppendMatches appends one line per match of r to dst.
func (tw *TabWriter) AppendMatches(dst []byte, r *bed.Region, matches []match.Match) []byte {
	if len(matches) == 0 {
		return dst
	}
	id := r.ID()
	for i := range matches {
		dst = appendMatch(dst, id, r, &matches[i])
	}
	return dst
}

func appendMatch(dst []byte, id string, r *bed.Region, m *match.Match) []byte {
	dst = append(dst, id...)
	dst = append(dst, '\t')
	dst = strconv.AppendInt(dst, r.Midpoint(), 10)
	dst = append(dst, '\t')
	dst = append(dst, m.GeneID...)
	dst = append(dst, '\t')
	for i, t := range m.TranscriptIDs {
		if i > 0 {
			dst = append(dst, ',')
		}
		dst = append(dst, t...)
	}
	dst = append(dst, '\t')
	for i, n := range m.ExonNumbers {
		if i > 0 {
			dst = append(dst, ',')
		}
		dst = strconv.AppendInt(dst, int64(n), 10)
	}
	dst = append(dst, '\t')
	dst = append(dst, m.Area.String()...)
	dst = append(dst, '\t')
	dst = append(dst, m.Strand.String()...)
	dst = append(dst, '\t')
	dst = strconv.AppendInt(dst, m.Distance, 10)
	dst = append(dst, '\t')
	dst = strconv.AppendInt(dst, m.TSSDistance, 10)
	dst = append(dst, '\t')
	dst = strconv.AppendFloat(dst, m.PctgRegion, 'f', 2, 64)
	dst = append(dst, '\t')
	dst = strconv.AppendFloat(dst, m.PctgArea, 'f', 2, 64)
	dst = append(dst, '\t')
	dst = strconv.AppendInt(dst, m.AreaLength, 10)
	dst = append(dst, '\t')
	dst = strconv.AppendInt(dst, m.RegionLength, 10)
	for _, v := range r.Metadata {
		dst = append(dst, '\t')
		dst = append(dst, v...)
	}
	return append(dst, '\n')
}

// WriteBatch writes the formatted payload of a batch.
func (tw *TabWriter) WriteBatch(res *match.BatchResult) error {
	_, err := tw.w.Write(res.Payload)
	return err
}

// Flush flushes any buffered data to the underlying writer.
func (tw *TabWriter) Flush() error {
	return tw.w.Flush()
}
