package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/appbundle/internal/model"
)

// SimpleWriter outputs a plain text bundle summary for the terminal.
type SimpleWriter struct {
	baseWriter

	// verbose lists every requirement and page instead of counts only.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithVerbose enables verbose output with additional details.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs a summary of manifest.
func (w *SimpleWriter) Write(manifest *model.Manifest) (int, error) {
	summary, err := NewSummary(manifest, "", "")
	if err != nil {
		return 0, err
	}
	return w.WriteSummary(summary)
}

// WriteSummary outputs the summary in human-readable format.
func (w *SimpleWriter) WriteSummary(summary *Summary) (int, error) {
	var sb strings.Builder

	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 60))
	sb.WriteString("\n")
	sb.WriteString("                      BUNDLE SUMMARY\n")
	sb.WriteString(strings.Repeat("=", 60))
	sb.WriteString("\n\n")

	if summary.AppDir != "" {
		fmt.Fprintf(&sb, "App:           %s\n", summary.AppDir)
	}
	if summary.OutputPath != "" {
		fmt.Fprintf(&sb, "Output:        %s\n", summary.OutputPath)
	}
	fmt.Fprintf(&sb, "Digest:        %s\n", summary.Digest)
	fmt.Fprintf(&sb, "Requirements:  %d\n", len(summary.Requirements))
	fmt.Fprintf(&sb, "Pages:         %d\n", len(summary.Pages))
	fmt.Fprintf(&sb, "Lines:         %d\n", summary.TotalLines())
	if summary.Unchanged {
		sb.WriteString("Status:        Unchanged since last build\n")
	}

	if w.verbose || len(summary.Requirements) > 0 {
		sb.WriteString("\nREQUIREMENTS\n")
		sb.WriteString(strings.Repeat("-", 60))
		sb.WriteString("\n")
		if len(summary.Requirements) == 0 {
			sb.WriteString("  (none)\n")
		}
		for _, req := range summary.Requirements {
			fmt.Fprintf(&sb, "  %s\n", req)
		}
	}

	sb.WriteString("\nPAGES\n")
	sb.WriteString(strings.Repeat("-", 60))
	sb.WriteString("\n")
	if len(summary.Pages) == 0 {
		sb.WriteString("  (none)\n")
	}
	for _, page := range summary.Pages {
		if w.verbose {
			fmt.Fprintf(&sb, "  %-30s %5d lines  %s\n", page.Key, page.Lines, page.Title)
		} else {
			fmt.Fprintf(&sb, "  %s\n", page.Key)
		}
	}
	sb.WriteString("\n")

	return io.WriteString(w.output, sb.String())
}
