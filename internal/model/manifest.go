package model

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/crypto/sha3"
)

const (
	// EntrypointKey is the fixed key of the entry point inside Manifest.Files.
	// It is also the value of Manifest.Entrypoint.
	EntrypointKey = "main.py"

	// PagesPrefix is prepended to page file names to form their keys.
	PagesPrefix = "pages/"

	// CaseText tags a file entry as textual content.
	CaseText = "text"
)

// Manifest validation errors.
var (
	// ErrMissingEntrypoint is returned when Files has no entry point key.
	ErrMissingEntrypoint = errors.New("manifest has no entry point file")

	// ErrInvalidEntrypoint is returned when Entrypoint is not "main.py".
	ErrInvalidEntrypoint = errors.New("manifest entry point must be " + EntrypointKey)

	// ErrInvalidPageKey is returned when a non-entrypoint key lacks the script extension.
	ErrInvalidPageKey = errors.New("manifest file key does not end in the script extension")

	// ErrExcludedRequirement is returned when a requirement belongs to the exclusion set.
	ErrExcludedRequirement = errors.New("manifest requirement is provided by the host environment")
)

// Manifest is the JSON document describing a bundled app.
// It is built once per invocation and written verbatim to a single file.
type Manifest struct {
	// Requirements lists dependency names with the exclusion set removed.
	// Order follows the requirements file.
	Requirements []string `json:"requirements"`

	// Entrypoint names the file in Files the app starts from.
	Entrypoint string `json:"entrypoint"`

	// Files maps a relative path to its tagged content.
	Files map[string]FileEntry `json:"files"`
}

// FileEntry is a tagged file record.
type FileEntry struct {
	Content FileContent `json:"content"`
	Case    string      `json:"$case"`
}

// NewManifest returns an empty manifest whose entry point is main.py.
func NewManifest() *Manifest {
	return &Manifest{
		Requirements: []string{},
		Entrypoint:   EntrypointKey,
		Files:        make(map[string]FileEntry),
	}
}

// AddEntrypoint stores the verbatim entry point text.
func (m *Manifest) AddEntrypoint(text string) {
	m.Files[EntrypointKey] = FileEntry{Content: TextContent(text), Case: CaseText}
}

// AddPage stores a page under pages/<name> as a line sequence.
func (m *Manifest) AddPage(name string, lines []string) {
	m.Files[PagesPrefix+name] = FileEntry{Content: LineContent(lines), Case: CaseText}
}

// PageNames returns the page keys (pages/<name>) in sorted order.
func (m *Manifest) PageNames() []string {
	names := make([]string, 0, len(m.Files))
	for key := range m.Files {
		if key == EntrypointKey {
			continue
		}
		names = append(names, key)
	}
	sort.Strings(names)
	return names
}

// EntrypointText returns the entry point content, or "" if it is missing.
func (m *Manifest) EntrypointText() string {
	entry, ok := m.Files[EntrypointKey]
	if !ok {
		return ""
	}
	return entry.Content.Text()
}

// Validate checks the manifest invariants: the entry point is main.py and
// present in Files, every other key ends in ext, and no requirement is in
// the exclusion set.
func (m *Manifest) Validate(exclusions []string, ext string) error {
	if m.Entrypoint != EntrypointKey {
		return fmt.Errorf("%w: got %q", ErrInvalidEntrypoint, m.Entrypoint)
	}
	if _, ok := m.Files[EntrypointKey]; !ok {
		return ErrMissingEntrypoint
	}

	for _, key := range m.PageNames() {
		if !strings.HasSuffix(key, ext) {
			return fmt.Errorf("%w: %s", ErrInvalidPageKey, key)
		}
	}

	excluded := make(map[string]struct{}, len(exclusions))
	for _, name := range exclusions {
		excluded[name] = struct{}{}
	}
	for _, req := range m.Requirements {
		if _, ok := excluded[req]; ok {
			return fmt.Errorf("%w: %s", ErrExcludedRequirement, req)
		}
	}

	return nil
}

// MarshalCanonical returns the compact JSON encoding without HTML escaping.
// Map keys are sorted, so equal manifests always encode to equal bytes.
func (m *Manifest) MarshalCanonical() ([]byte, error) {
	return marshalNoEscape(m)
}

// Digest returns the hex SHA3-256 of the canonical encoding.
func (m *Manifest) Digest() (string, error) {
	data, err := m.MarshalCanonical()
	if err != nil {
		return "", err
	}
	sum := sha3.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// ParseManifest decodes a manifest from JSON.
func ParseManifest(data []byte) (*Manifest, error) {
	m := &Manifest{}
	if err := json.Unmarshal(data, m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	if m.Requirements == nil {
		m.Requirements = []string{}
	}
	if m.Files == nil {
		m.Files = make(map[string]FileEntry)
	}
	return m, nil
}

// FileContent holds either a full text or a sequence of lines.
// Text content encodes as a JSON string, line content as a JSON array.
type FileContent struct {
	text    string
	lines   []string
	isLines bool
}

// TextContent returns content holding a full text.
func TextContent(text string) FileContent {
	return FileContent{text: text}
}

// LineContent returns content holding a line sequence.
func LineContent(lines []string) FileContent {
	if lines == nil {
		lines = []string{}
	}
	return FileContent{lines: lines, isLines: true}
}

// IsLines reports whether the content is a line sequence.
func (c FileContent) IsLines() bool {
	return c.isLines
}

// Lines returns the line sequence. Text content is split into lines.
func (c FileContent) Lines() []string {
	if c.isLines {
		return c.lines
	}
	return SplitLines(c.text)
}

// Text returns the full text. Line content is joined with "\n".
func (c FileContent) Text() string {
	if c.isLines {
		return strings.Join(c.lines, "\n")
	}
	return c.text
}

// Equal reports whether both contents have the same shape and value.
func (c FileContent) Equal(other FileContent) bool {
	if c.isLines != other.isLines {
		return false
	}
	if !c.isLines {
		return c.text == other.text
	}
	if len(c.lines) != len(other.lines) {
		return false
	}
	for i := range c.lines {
		if c.lines[i] != other.lines[i] {
			return false
		}
	}
	return true
}

// MarshalJSON implements json.Marshaler.
func (c FileContent) MarshalJSON() ([]byte, error) {
	if c.isLines {
		lines := c.lines
		if lines == nil {
			lines = []string{}
		}
		return marshalNoEscape(lines)
	}
	return marshalNoEscape(c.text)
}

// UnmarshalJSON implements json.Unmarshaler.
func (c *FileContent) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var lines []string
		if err := json.Unmarshal(trimmed, &lines); err != nil {
			return err
		}
		*c = LineContent(lines)
		return nil
	}

	var text string
	if err := json.Unmarshal(trimmed, &text); err != nil {
		return err
	}
	*c = TextContent(text)
	return nil
}

// marshalNoEscape encodes v as compact JSON with HTML escaping disabled.
// Source files routinely contain <, > and &, which must stay readable.
func marshalNoEscape(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}
