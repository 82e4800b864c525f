package config

import (
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
)

// Default configuration values.
// The paths reproduce the layout of the component gallery sample app.
const (
	// DefaultAppDir is the sample app root, relative to the working directory.
	DefaultAppDir = "packages/sharing-editor/public/samples/011_component_gallery"

	// DefaultEntrypointFile is the entry point script inside the app root.
	DefaultEntrypointFile = "streamlit_app.py"

	// DefaultPagesDir is the pages directory inside the app root.
	DefaultPagesDir = "pages"

	// DefaultRequirementsFile is the requirements list inside the app root.
	DefaultRequirementsFile = "requirements.txt"

	// DefaultOutputPath is written to the working directory.
	DefaultOutputPath = "component_library_app.json"

	// DefaultScriptExt marks files that are bundled as pages.
	DefaultScriptExt = ".py"

	// DefaultWorkers is the number of pages read concurrently.
	DefaultWorkers = 4

	// AppName is the application name used for XDG directory paths.
	AppName = "appbundle"
)

// defaultExclusions are dependencies the host runtime already provides.
var defaultExclusions = []string{"streamlit", "numpy", "matplotlib", "requests", "pandas"}

// DefaultExclusions returns a copy of the built-in exclusion set.
func DefaultExclusions() []string {
	out := make([]string, len(defaultExclusions))
	copy(out, defaultExclusions)
	return out
}

// Config holds all configuration options for a build.
// It is populated from CLI flags and the optional config file and passed
// explicitly to the components that need it.
type Config struct {
	// AppDir is the root directory of the app being bundled.
	AppDir string

	// EntrypointFile is the entry point script. Relative paths resolve
	// against AppDir.
	EntrypointFile string

	// PagesDir is the directory holding page scripts. Relative paths
	// resolve against AppDir.
	PagesDir string

	// RequirementsFile is the requirements list. Relative paths resolve
	// against AppDir.
	RequirementsFile string

	// OutputPath is where the manifest is written.
	OutputPath string

	// ScriptExt is the extension a pages directory entry must end in.
	ScriptExt string

	// Exclusions are dependency names removed from the requirements.
	Exclusions []string

	// Workers bounds the number of pages read concurrently.
	Workers int

	// SortPages reads pages in lexical order so that progress output is
	// stable. The manifest itself is ordered regardless.
	SortPages bool

	// Verbose enables debug logging.
	Verbose bool

	// ConfigFilePath is the explicit config file path, if any.
	ConfigFilePath string

	// File is the loaded config file. Nil when none was found.
	File *File

	// PrintSummary prints a bundle summary after the build.
	PrintSummary bool

	// MarkdownSummary renders the summary as Markdown.
	MarkdownSummary bool

	// SummaryFile, when set, also receives the summary as JSON.
	SummaryFile string

	// SaveHistory records the build in the history database.
	SaveHistory bool

	// DBDir is the directory of the history database.
	DBDir string
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		AppDir:           DefaultAppDir,
		EntrypointFile:   DefaultEntrypointFile,
		PagesDir:         DefaultPagesDir,
		RequirementsFile: DefaultRequirementsFile,
		OutputPath:       DefaultOutputPath,
		ScriptExt:        DefaultScriptExt,
		Exclusions:       DefaultExclusions(),
		Workers:          DefaultWorkers,
		SortPages:        true,
		SaveHistory:      true,
		DBDir:            XDGDataDir(),
	}
}

// RequirementsPath returns the resolved requirements file path.
func (c *Config) RequirementsPath() string {
	return c.resolve(c.RequirementsFile)
}

// EntrypointPath returns the resolved entry point path.
func (c *Config) EntrypointPath() string {
	return c.resolve(c.EntrypointFile)
}

// PagesPath returns the resolved pages directory path.
func (c *Config) PagesPath() string {
	return c.resolve(c.PagesDir)
}

func (c *Config) resolve(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.AppDir, p)
}

// AddExclusions appends names to the exclusion set, skipping duplicates
// and blank names.
func (c *Config) AddExclusions(names ...string) {
	seen := make(map[string]struct{}, len(c.Exclusions))
	for _, name := range c.Exclusions {
		seen[name] = struct{}{}
	}
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		c.Exclusions = append(c.Exclusions, name)
	}
}

// ApplyFile merges config file settings into c. Values already changed by
// flags are the caller's responsibility; ApplyFile only fills settings the
// file defines.
func (c *Config) ApplyFile(f *File) {
	if f == nil {
		return
	}
	c.File = f
	c.AddExclusions(f.Exclude...)
	if f.ScriptExt != "" {
		c.ScriptExt = f.ScriptExt
	}
	if f.SortPages != nil {
		c.SortPages = *f.SortPages
	}
	if f.Workers > 0 {
		c.Workers = f.Workers
	}
}

// ApplyApp overrides paths with a named app preset.
func (c *Config) ApplyApp(app AppConfig) {
	if app.Dir != "" {
		c.AppDir = app.Dir
	}
	if app.Entrypoint != "" {
		c.EntrypointFile = app.Entrypoint
	}
	if app.PagesDir != "" {
		c.PagesDir = app.PagesDir
	}
	if app.Requirements != "" {
		c.RequirementsFile = app.Requirements
	}
	if app.Output != "" {
		c.OutputPath = app.Output
	}
	c.AddExclusions(app.Exclude...)
}

// XDGDataDir returns the XDG data directory for appbundle.
// On Linux: ~/.local/share/appbundle
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for appbundle.
// On Linux: ~/.config/appbundle
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks if the configuration is valid.
// It returns the first problem found.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.AppDir) == "" {
		return ErrEmptyAppDir
	}

	if strings.TrimSpace(c.OutputPath) == "" {
		return ErrEmptyOutput
	}

	// The extension must look like ".py": a dot followed by at least one character
	if len(c.ScriptExt) < 2 || !strings.HasPrefix(c.ScriptExt, ".") {
		return ErrInvalidScriptExt
	}

	if c.Workers <= 0 {
		return ErrInvalidWorkers
	}

	if c.MarkdownSummary && !c.PrintSummary {
		return ErrMarkdownWithoutSummary
	}

	if c.SaveHistory && c.DBDir == "" {
		return ErrEmptyDBDir
	}

	return nil
}
