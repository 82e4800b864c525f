package report

import (
	"io"

	"github.com/nao1215/appbundle/internal/model"
)

// Writer defines the interface for build output.
// Implementations write the manifest or its summary in various formats.
type Writer interface {
	// Write outputs the manifest to the configured destination.
	// Returns the number of bytes written and any error encountered.
	Write(manifest *model.Manifest) (int, error)

	// WriteSummary outputs only the bundle summary.
	WriteSummary(summary *Summary) (int, error)
}

// MultiWriter writes to multiple Writers simultaneously.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs the manifest to all configured Writers.
// Stops on first error encountered.
func (m *MultiWriter) Write(manifest *model.Manifest) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(manifest)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// WriteSummary outputs the summary to all configured Writers.
func (m *MultiWriter) WriteSummary(summary *Summary) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.WriteSummary(summary)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter provides common functionality for writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}
