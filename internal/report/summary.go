package report

import (
	"strings"
	"time"

	"github.com/nao1215/appbundle/internal/model"
)

// Summary describes a built manifest for human readers.
type Summary struct {
	AppDir       string        `json:"app_dir,omitempty"`
	OutputPath   string        `json:"output_path,omitempty"`
	Digest       string        `json:"digest"`
	Requirements []string      `json:"requirements"`
	Pages        []PageSummary `json:"pages"`

	// EntrypointLines is the line count of the entry point script.
	EntrypointLines int `json:"entrypoint_lines"`

	// Unchanged is set when the digest matches the previous recorded build.
	Unchanged bool `json:"unchanged"`

	BuiltAt time.Time `json:"built_at"`
}

// PageSummary describes one bundled page.
type PageSummary struct {
	Key   string `json:"key"`
	Title string `json:"title"`
	Lines int    `json:"lines"`
}

// TotalLines returns the number of lines across the entry point and pages.
func (s *Summary) TotalLines() int {
	total := s.EntrypointLines
	for _, p := range s.Pages {
		total += p.Lines
	}
	return total
}

// NewSummary summarises manifest. Pages are listed in key order.
func NewSummary(manifest *model.Manifest, appDir, outputPath string) (*Summary, error) {
	digest, err := manifest.Digest()
	if err != nil {
		return nil, err
	}

	s := &Summary{
		AppDir:          appDir,
		OutputPath:      outputPath,
		Digest:          digest,
		Requirements:    append([]string{}, manifest.Requirements...),
		EntrypointLines: len(model.SplitLines(manifest.EntrypointText())),
		BuiltAt:         time.Now(),
	}

	for _, key := range manifest.PageNames() {
		name := strings.TrimPrefix(key, model.PagesPrefix)
		s.Pages = append(s.Pages, PageSummary{
			Key:   key,
			Title: model.PageTitle(name),
			Lines: len(manifest.Files[key].Content.Lines()),
		})
	}

	return s, nil
}
