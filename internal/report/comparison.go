package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/nao1215/appbundle/internal/model"
	"github.com/nao1215/markdown"
)

// Comparison holds the result of comparing two recorded builds of an app.
type Comparison struct {
	// AppDir is the app the builds belong to.
	AppDir string `json:"app_dir"`

	// Previous describes the older build.
	Previous BuildMetadata `json:"previous_build"`

	// Current describes the newer build.
	Current BuildMetadata `json:"current_build"`

	// Diff lists the changes from Previous to Current.
	Diff *model.ManifestDiff `json:"diff"`
}

// BuildMetadata contains metadata about a build for comparison display.
type BuildMetadata struct {
	ID               int64     `json:"id"`
	Timestamp        time.Time `json:"timestamp"`
	Digest           string    `json:"digest"`
	RequirementCount int       `json:"requirement_count"`
	PageCount        int       `json:"page_count"`
}

// NewComparison compares two build records. Both must carry their manifest.
func NewComparison(previous, current *model.BuildRecord) *Comparison {
	return &Comparison{
		AppDir:   current.AppDir,
		Previous: metadataOf(previous),
		Current:  metadataOf(current),
		Diff:     model.CompareManifests(previous.Manifest, current.Manifest),
	}
}

func metadataOf(r *model.BuildRecord) BuildMetadata {
	return BuildMetadata{
		ID:               r.ID,
		Timestamp:        r.Timestamp,
		Digest:           r.Digest,
		RequirementCount: r.RequirementCount,
		PageCount:        r.PageCount,
	}
}

// WriteComparisonJSON writes the comparison as indented JSON.
func WriteComparisonJSON(w io.Writer, c *Comparison) error {
	encoder := json.NewEncoder(w)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "  ")
	return encoder.Encode(c)
}

// WriteComparisonText writes the comparison in human-readable text format.
func WriteComparisonText(w io.Writer, c *Comparison) error {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Build Comparison: %s\n", c.AppDir)
	sb.WriteString(strings.Repeat("=", 60))
	sb.WriteString("\n")

	fmt.Fprintf(&sb, "\nStatus: %s\n", statusText(c.Diff))
	fmt.Fprintf(&sb, "\nPrevious build: #%d %s\n", c.Previous.ID, c.Previous.Timestamp.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&sb, "Current build:  #%d %s\n", c.Current.ID, c.Current.Timestamp.Format("2006-01-02 15:04:05"))

	sb.WriteString("\nSummary:\n")
	fmt.Fprintf(&sb, "  %-14s  %-10s  %-10s  %-10s\n", "", "Previous", "Current", "Change")
	sb.WriteString("  " + strings.Repeat("-", 50) + "\n")
	fmt.Fprintf(&sb, "  %-14s  %-10d  %-10d  %-10s\n", "Requirements",
		c.Previous.RequirementCount, c.Current.RequirementCount,
		formatDelta(c.Current.RequirementCount-c.Previous.RequirementCount))
	fmt.Fprintf(&sb, "  %-14s  %-10d  %-10d  %-10s\n", "Pages",
		c.Previous.PageCount, c.Current.PageCount,
		formatDelta(c.Current.PageCount-c.Previous.PageCount))

	writeTextList(&sb, "Added pages", "+", c.Diff.AddedPages)
	writeTextList(&sb, "Removed pages", "-", c.Diff.RemovedPages)
	writeTextList(&sb, "Changed pages", "~", c.Diff.ChangedPages)
	writeTextList(&sb, "Added requirements", "+", c.Diff.AddedRequirements)
	writeTextList(&sb, "Removed requirements", "-", c.Diff.RemovedRequirements)
	if c.Diff.EntrypointChanged {
		fmt.Fprintf(&sb, "\nEntry point %s changed\n", model.EntrypointKey)
	}

	_, err := io.WriteString(w, sb.String())
	return err
}

func writeTextList(sb *strings.Builder, title, marker string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(sb, "\n%s (%d):\n", title, len(items))
	for _, item := range items {
		fmt.Fprintf(sb, "  [%s] %s\n", marker, item)
	}
}

// WriteComparisonMarkdown writes the comparison in Markdown format.
func WriteComparisonMarkdown(w io.Writer, c *Comparison) error {
	md := markdown.NewMarkdown(w)

	md.H1("Build Comparison: " + c.AppDir)
	md.PlainText("")
	md.PlainTextf("**Status:** %s", statusText(c.Diff))
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Metric", "Previous", "Current", "Change"},
		Rows: [][]string{
			{"Build", "#" + strconv.FormatInt(c.Previous.ID, 10), "#" + strconv.FormatInt(c.Current.ID, 10), "-"},
			{
				"Date",
				c.Previous.Timestamp.Format("2006-01-02 15:04"),
				c.Current.Timestamp.Format("2006-01-02 15:04"),
				"-",
			},
			{
				"Requirements",
				strconv.Itoa(c.Previous.RequirementCount),
				strconv.Itoa(c.Current.RequirementCount),
				formatDelta(c.Current.RequirementCount - c.Previous.RequirementCount),
			},
			{
				"Pages",
				strconv.Itoa(c.Previous.PageCount),
				strconv.Itoa(c.Current.PageCount),
				formatDelta(c.Current.PageCount - c.Previous.PageCount),
			},
		},
	})
	md.PlainText("")

	writeMarkdownList(md, "Added Pages", c.Diff.AddedPages)
	writeMarkdownList(md, "Removed Pages", c.Diff.RemovedPages)
	writeMarkdownList(md, "Changed Pages", c.Diff.ChangedPages)
	writeMarkdownList(md, "Added Requirements", c.Diff.AddedRequirements)
	writeMarkdownList(md, "Removed Requirements", c.Diff.RemovedRequirements)

	if c.Diff.EntrypointChanged {
		md.Importantf("The entry point %s changed.", model.EntrypointKey)
		md.PlainText("")
	}

	return md.Build()
}

func writeMarkdownList(md *markdown.Markdown, title string, items []string) {
	if len(items) == 0 {
		return
	}
	md.H2(fmt.Sprintf("%s (%d)", title, len(items)))
	md.PlainText("")
	quoted := make([]string, len(items))
	for i, item := range items {
		quoted[i] = "`" + item + "`"
	}
	md.BulletList(quoted...)
	md.PlainText("")
}

// statusText summarises a diff in one phrase.
func statusText(diff *model.ManifestDiff) string {
	if !diff.HasChanges() {
		return "UNCHANGED"
	}
	return "CHANGED"
}

// formatDelta formats a numeric delta with sign for display.
func formatDelta(delta int) string {
	if delta > 0 {
		return "+" + strconv.Itoa(delta)
	}
	return strconv.Itoa(delta)
}
