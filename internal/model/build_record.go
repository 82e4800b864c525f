package model

import "time"

// BuildRecord describes one recorded build of an app.
type BuildRecord struct {
	// ID is the database identifier. Zero before insertion.
	ID int64 `json:"id"`

	// AppDir is the absolute app directory the manifest was built from.
	AppDir string `json:"app_dir"`

	// OutputPath is where the manifest was written.
	OutputPath string `json:"output_path"`

	// Digest is Manifest.Digest() of the built manifest.
	Digest string `json:"digest"`

	// RequirementCount is the number of requirements kept.
	RequirementCount int `json:"requirement_count"`

	// PageCount is the number of pages bundled.
	PageCount int `json:"page_count"`

	// Timestamp is when the build finished.
	Timestamp time.Time `json:"timestamp"`

	// Manifest is the full manifest. It may be nil in history listings.
	Manifest *Manifest `json:"manifest,omitempty"`
}

// NewBuildRecord summarises a manifest into a record.
func NewBuildRecord(appDir, outputPath string, m *Manifest) (*BuildRecord, error) {
	digest, err := m.Digest()
	if err != nil {
		return nil, err
	}
	return &BuildRecord{
		AppDir:           appDir,
		OutputPath:       outputPath,
		Digest:           digest,
		RequirementCount: len(m.Requirements),
		PageCount:        len(m.PageNames()),
		Timestamp:        time.Now(),
		Manifest:         m,
	}, nil
}
