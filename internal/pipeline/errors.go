package pipeline

import "errors"

// Build errors. Each wraps the underlying filesystem error as well, so
// errors.Is(err, fs.ErrNotExist) also holds for the not-found cases.
var (
	// ErrRequirementsNotFound is returned when the requirements file is missing.
	ErrRequirementsNotFound = errors.New("requirements file not found")

	// ErrEntrypointNotFound is returned when the entry point script is missing.
	ErrEntrypointNotFound = errors.New("entry point file not found")

	// ErrPagesDirNotFound is returned when the pages directory is missing.
	ErrPagesDirNotFound = errors.New("pages directory not found")

	// ErrPagesNotDirectory is returned when the pages path is not a directory.
	ErrPagesNotDirectory = errors.New("pages path is not a directory")

	// ErrInvalidText is returned when a source file is not valid UTF-8.
	ErrInvalidText = errors.New("source file is not valid UTF-8")
)
