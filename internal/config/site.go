package config

import (
	"fmt"
	"sort"
)

// AppConfig is a named app preset in the config file.
type AppConfig struct {
	// Dir is the app root directory.
	Dir string `yaml:"dir,omitempty"`

	// Entrypoint is the entry point script, relative to Dir.
	Entrypoint string `yaml:"entrypoint,omitempty"`

	// PagesDir is the pages directory, relative to Dir.
	PagesDir string `yaml:"pagesDir,omitempty"`

	// Requirements is the requirements file, relative to Dir.
	Requirements string `yaml:"requirements,omitempty"`

	// Output is the manifest output path.
	Output string `yaml:"output,omitempty"`

	// Exclude adds app-specific names to the exclusion set.
	Exclude []string `yaml:"exclude,omitempty"`
}

// File represents the structure of the .appbundle configuration file.
type File struct {
	// Exclude adds names to the built-in exclusion set.
	Exclude []string `yaml:"exclude,omitempty"`

	// ScriptExt overrides the page script extension.
	ScriptExt string `yaml:"scriptExt,omitempty"`

	// SortPages overrides lexical page ordering. Nil keeps the default.
	SortPages *bool `yaml:"sortPages,omitempty"`

	// Workers overrides the number of concurrent page reads.
	Workers int `yaml:"workers,omitempty"`

	// Apps maps a preset name to its paths.
	Apps map[string]AppConfig `yaml:"apps,omitempty"`
}

// GetApp returns the named app preset.
func (f *File) GetApp(name string) (AppConfig, error) {
	if f != nil {
		if app, ok := f.Apps[name]; ok {
			return app, nil
		}
	}
	return AppConfig{}, fmt.Errorf("%w: %s", ErrUnknownApp, name)
}

// AppNames returns the preset names in sorted order.
func (f *File) AppNames() []string {
	if f == nil {
		return nil
	}
	names := make([]string, 0, len(f.Apps))
	for name := range f.Apps {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
