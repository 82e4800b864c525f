package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/nao1215/appbundle/internal/model"
	"github.com/nao1215/markdown"
)

// WriteReplayJSON writes the replay report as indented JSON.
func WriteReplayJSON(w io.Writer, r *model.ReplayReport) error {
	encoder := json.NewEncoder(w)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "  ")
	return encoder.Encode(r)
}

// WriteReplayText writes the replay report in human-readable text format.
func WriteReplayText(w io.Writer, r *model.ReplayReport) error {
	var sb strings.Builder

	sb.WriteString("Image Replay\n")
	sb.WriteString(strings.Repeat("=", 60))
	sb.WriteString("\n\n")

	fmt.Fprintf(&sb, "Display calls:     %d\n", r.Calls)
	fmt.Fprintf(&sb, "Elements rendered: %d\n", len(r.Elements))
	fmt.Fprintf(&sb, "Cache:             %d hits, %d misses, %d entries\n",
		r.Cache.Hits, r.Cache.Misses, r.Cache.Entries)
	fmt.Fprintf(&sb, "Deduplicated:      %s\n", yesNo(r.Deduplicated()))

	sb.WriteString("\nElements:\n")
	for i, el := range r.Elements {
		fmt.Fprintf(&sb, "  %d. %-12s %-6s %-14s %s\n", i+1, el.Source, el.Kind, el.MediaType, elementDetail(el))
	}

	_, err := io.WriteString(w, sb.String())
	return err
}

// WriteReplayMarkdown writes the replay report in Markdown format.
func WriteReplayMarkdown(w io.Writer, r *model.ReplayReport) error {
	md := markdown.NewMarkdown(w)

	md.H1("Image Replay")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Metric", "Value"},
		Rows: [][]string{
			{"Display calls", strconv.Itoa(r.Calls)},
			{"Elements rendered", strconv.Itoa(len(r.Elements))},
			{"Cache hits", strconv.Itoa(r.Cache.Hits)},
			{"Cache misses", strconv.Itoa(r.Cache.Misses)},
		},
	})
	md.PlainText("")

	if r.Deduplicated() {
		md.Tip("Every repeated display call was served from the cache.")
	} else {
		md.Cautionf("%d elements were rendered for %d distinct display functions.",
			len(r.Elements), r.Cache.Misses)
	}
	md.PlainText("")

	md.H2("Elements")
	md.PlainText("")

	rows := make([][]string, len(r.Elements))
	for i, el := range r.Elements {
		rows[i] = []string{
			el.Source,
			string(el.Kind),
			el.MediaType,
			orDash(el.Caption),
			elementDetail(el),
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Source", "Kind", "Media Type", "Caption", "Detail"},
		Rows:   rows,
	})

	return md.Build()
}

// elementDetail describes the element payload.
func elementDetail(el model.ImageElement) string {
	if el.URL != "" {
		return el.URL
	}
	detail := strconv.Itoa(el.Size) + " bytes"
	if el.Width > 0 {
		detail += ", width " + strconv.Itoa(el.Width)
	}
	return detail
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
