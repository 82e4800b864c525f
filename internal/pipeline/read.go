package pipeline

import (
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/text/encoding"
	"golang.org/x/text/transform"
)

// readText reads a source file as UTF-8 text, byte for byte.
// A leading byte order mark is kept. Invalid UTF-8, including UTF-16 input,
// fails with ErrInvalidText.
func readText(path string) (string, error) {
	f, err := os.Open(path) //nolint:gosec // Paths come from the user's build configuration
	if err != nil {
		return "", err
	}
	defer f.Close()

	data, err := io.ReadAll(transform.NewReader(f, encoding.UTF8Validator))
	if err != nil {
		if errors.Is(err, encoding.ErrInvalidUTF8) {
			return "", fmt.Errorf("%w: %s: %w", ErrInvalidText, path, err)
		}
		return "", err
	}
	return string(data), nil
}
