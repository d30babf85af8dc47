package bed

// RegionReader is the interface for sources that stream regions in file order.
type RegionReader interface {
	// Next reads the next region.
	// Returns nil, nil when there are no more regions.
	Next() (*Region, error)

	// Close closes the reader and releases resources.
	Close() error

	// LineNumber returns the current line number being processed.
	LineNumber() int
}
