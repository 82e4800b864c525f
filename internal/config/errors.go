package config

import "errors"

// Configuration validation errors returned by Config.Validate.
// Callers match them with errors.Is.
var (
	// ErrEmptyAppDir is returned when no app directory is configured.
	ErrEmptyAppDir = errors.New("invalid app directory: must not be empty")

	// ErrEmptyOutput is returned when no output path is configured.
	ErrEmptyOutput = errors.New("invalid output path: must not be empty")

	// ErrInvalidScriptExt is returned when the script extension is not of the form ".ext".
	ErrInvalidScriptExt = errors.New("invalid script extension: must start with '.' and name an extension")

	// ErrInvalidWorkers is returned when the worker count is not positive.
	ErrInvalidWorkers = errors.New("invalid workers: must be positive")

	// ErrMarkdownWithoutSummary is returned when --markdown is used without --summary.
	ErrMarkdownWithoutSummary = errors.New("conflicting flags: --markdown requires --summary")

	// ErrEmptyDBDir is returned when history is enabled without a database directory.
	ErrEmptyDBDir = errors.New("invalid history directory: must not be empty when history is enabled")

	// ErrUnknownApp is returned when a named app preset is not in the config file.
	ErrUnknownApp = errors.New("unknown app preset")
)
