package output

import (
	"errors"

	"github.com/inodb/rgmatch/internal/match"
)

// MultiWriter fans every batch out to several result writers, in order.
type MultiWriter struct {
	writers []match.ResultWriter
}

// NewMultiWriter creates a writer that tees to all of ws.
func NewMultiWriter(ws ...match.ResultWriter) *MultiWriter {
	return &MultiWriter{writers: ws}
}

// WriteBatch writes res to every writer, stopping at the first error.
func (mw *MultiWriter) WriteBatch(res *match.BatchResult) error {
	for _, w := range mw.writers {
		if err := w.WriteBatch(res); err != nil {
			return err
		}
	}
	return nil
}

// Flush flushes every writer and returns all flush errors.
func (mw *MultiWriter) Flush() error {
	var errs []error
	for _, w := range mw.writers {
		errs = append(errs, w.Flush())
	}
	return errors.Join(errs...)
}
