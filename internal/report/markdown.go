package report

import (
	"io"
	"strconv"

	"github.com/nao1215/appbundle/internal/model"
	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
)

// MarkdownWriter outputs bundle summaries in Markdown format.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs a summary of manifest in Markdown format.
func (w *MarkdownWriter) Write(manifest *model.Manifest) (int, error) {
	summary, err := NewSummary(manifest, "", "")
	if err != nil {
		return 0, err
	}
	return w.WriteSummary(summary)
}

// WriteSummary outputs the summary in Markdown format.
func (w *MarkdownWriter) WriteSummary(summary *Summary) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("Bundle Summary")
	md.PlainText("")

	rows := [][]string{}
	if summary.AppDir != "" {
		rows = append(rows, []string{"App", "`" + summary.AppDir + "`"})
	}
	if summary.OutputPath != "" {
		rows = append(rows, []string{"Output", "`" + summary.OutputPath + "`"})
	}
	rows = append(rows,
		[]string{"Digest", "`" + summary.Digest + "`"},
		[]string{"Built", summary.BuiltAt.Format("2006-01-02 15:04:05 MST")},
		[]string{"Requirements", strconv.Itoa(len(summary.Requirements))},
		[]string{"Pages", strconv.Itoa(len(summary.Pages))},
		[]string{"Entry point lines", strconv.Itoa(summary.EntrypointLines)},
	)
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows:   rows,
	})
	md.PlainText("")

	if summary.Unchanged {
		md.Note("The manifest is identical to the previous recorded build.")
		md.PlainText("")
	}

	w.writeRequirements(md, summary)
	w.writePages(md, summary)

	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Generated by [appbundle](https://github.com/nao1215/appbundle)*")

	return len(md.String()), md.Build()
}

// writeRequirements writes the requirements section.
func (w *MarkdownWriter) writeRequirements(md *markdown.Markdown, summary *Summary) {
	md.H2("Requirements")
	md.PlainText("")

	if len(summary.Requirements) == 0 {
		md.Tip("No extra requirements. The host environment provides everything the app imports.")
		md.PlainText("")
		return
	}

	md.BulletList(summary.Requirements...)
	md.PlainText("")
}

// writePages writes the pages table and a line distribution chart.
func (w *MarkdownWriter) writePages(md *markdown.Markdown, summary *Summary) {
	md.H2("Pages")
	md.PlainText("")

	if len(summary.Pages) == 0 {
		md.PlainText("No pages bundled.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(summary.Pages))
	for i, page := range summary.Pages {
		rows[i] = []string{page.Title, "`" + page.Key + "`", strconv.Itoa(page.Lines)}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Title", "File", "Lines"},
		Rows:   rows,
	})
	md.PlainText("")

	if summary.TotalLines() == 0 {
		return
	}

	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Lines per file"),
		piechart.WithShowData(true),
	)
	if summary.EntrypointLines > 0 {
		chart.LabelAndIntValue(model.EntrypointKey, uint64(summary.EntrypointLines)) //nolint:gosec // Line counts are non-negative
	}
	for _, page := range summary.Pages {
		if page.Lines > 0 {
			chart.LabelAndIntValue(page.Title, uint64(page.Lines)) //nolint:gosec // Line counts are non-negative
		}
	}

	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}
