// Package bed provides BED region file parsing.
package bed

import "fmt"

// MaxMetaColumns is the number of optional BED columns carried through to
// the output (name through blockStarts).
const MaxMetaColumns = 9

// MetaColumnNames are the standard names of the optional BED columns.
var MetaColumnNames = [MaxMetaColumns]string{
	"name", "score", "strand", "thickStart", "thickEnd",
	"itemRgb", "blockCount", "blockSizes", "blockStarts",
}

// Region represents a single genomic interval from a BED file.
// Coordinates are taken as written in the file and treated as inclusive.
type Region struct {
	Chrom    string   // Chromosome name as written (e.g., "chr1")
	Start    int64    // Region start
	End      int64    // Region end (inclusive)
	Metadata []string // Optional BED columns, at most MaxMetaColumns
	Line     int      // Source line number
}

// Length returns the region length in bp. It is <= 0 for empty regions.
func (r *Region) Length() int64 {
	return r.End - r.Start + 1
}

// Midpoint returns the integer midpoint of the region.
func (r *Region) Midpoint() int64 {
	return (r.Start + r.End) / 2
}

// ID returns the region identifier used in output (chrom_start_end).
func (r *Region) ID() string {
	return fmt.Sprintf("%s_%d_%d", r.Chrom, r.Start, r.End)
}
