package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/nao1215/appbundle/internal/model"
	"golang.org/x/sync/errgroup"
)

// RequirementsStep reads the requirements list and drops every line that
// names a dependency in the exclusion set. Matching is exact and the order
// of the remaining lines is preserved.
type RequirementsStep struct {
	path       string
	exclusions map[string]struct{}
	logger     *slog.Logger
	progress   ProgressFunc
}

// RequirementsStepOption configures a RequirementsStep.
type RequirementsStepOption func(*RequirementsStep)

// WithRequirementsLogger sets a custom logger for the requirements step.
func WithRequirementsLogger(logger *slog.Logger) RequirementsStepOption {
	return func(s *RequirementsStep) {
		s.logger = logger
	}
}

// WithRequirementsProgress sets the progress callback.
func WithRequirementsProgress(fn ProgressFunc) RequirementsStepOption {
	return func(s *RequirementsStep) {
		if fn != nil {
			s.progress = fn
		}
	}
}

// NewRequirementsStep creates a step reading the requirements file at path.
func NewRequirementsStep(path string, exclusions []string, opts ...RequirementsStepOption) *RequirementsStep {
	s := &RequirementsStep{
		path:       path,
		exclusions: make(map[string]struct{}, len(exclusions)),
		logger:     slog.Default(),
		progress:   noProgress,
	}
	for _, name := range exclusions {
		s.exclusions[name] = struct{}{}
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the step name.
func (s *RequirementsStep) Name() string {
	return "requirements"
}

// Do executes the requirements step.
func (s *RequirementsStep) Do(_ context.Context, manifest *model.Manifest) error {
	s.progress(ProgressEvent{Kind: ProgressRequirements, Path: s.path})

	text, err := readText(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s: %w", ErrRequirementsNotFound, s.path, err)
		}
		return fmt.Errorf("failed to read requirements: %w", err)
	}

	manifest.Requirements = FilterRequirements(model.SplitLines(text), s.exclusions)

	s.logger.Debug("requirements read",
		"path", s.path,
		"kept", manifest.Requirements,
	)

	return nil
}

// FilterRequirements returns the lines not in exclusions, in input order.
// The result is never nil.
func FilterRequirements(lines []string, exclusions map[string]struct{}) []string {
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		if _, ok := exclusions[line]; ok {
			continue
		}
		kept = append(kept, line)
	}
	return kept
}

// EntrypointStep stores the verbatim entry point script under main.py.
type EntrypointStep struct {
	path     string
	progress ProgressFunc
}

// EntrypointStepOption configures an EntrypointStep.
type EntrypointStepOption func(*EntrypointStep)

// WithEntrypointProgress sets the progress callback.
func WithEntrypointProgress(fn ProgressFunc) EntrypointStepOption {
	return func(s *EntrypointStep) {
		if fn != nil {
			s.progress = fn
		}
	}
}

// NewEntrypointStep creates a step reading the entry point at path.
func NewEntrypointStep(path string, opts ...EntrypointStepOption) *EntrypointStep {
	s := &EntrypointStep{
		path:     path,
		progress: noProgress,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the step name.
func (s *EntrypointStep) Name() string {
	return "entrypoint"
}

// Do executes the entry point step.
func (s *EntrypointStep) Do(_ context.Context, manifest *model.Manifest) error {
	s.progress(ProgressEvent{Kind: ProgressEntrypoint, Path: s.path})

	text, err := readText(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s: %w", ErrEntrypointNotFound, s.path, err)
		}
		return fmt.Errorf("failed to read entry point: %w", err)
	}

	manifest.AddEntrypoint(text)
	return nil
}

// PagesStep bundles every file of the pages directory whose name ends in the
// script extension. Each page is stored under pages/<name> as its line
// sequence. Other entries, including subdirectories, are skipped.
type PagesStep struct {
	dir      string
	ext      string
	workers  int
	sorted   bool
	logger   *slog.Logger
	progress ProgressFunc
}

// PagesStepOption configures a PagesStep.
type PagesStepOption func(*PagesStep)

// WithPagesWorkers bounds the number of pages read concurrently.
func WithPagesWorkers(n int) PagesStepOption {
	return func(s *PagesStep) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithPagesSorted selects lexical listing order instead of the order the
// filesystem yields entries in.
func WithPagesSorted(sorted bool) PagesStepOption {
	return func(s *PagesStep) {
		s.sorted = sorted
	}
}

// WithPagesLogger sets a custom logger for the pages step.
func WithPagesLogger(logger *slog.Logger) PagesStepOption {
	return func(s *PagesStep) {
		s.logger = logger
	}
}

// WithPagesProgress sets the progress callback.
func WithPagesProgress(fn ProgressFunc) PagesStepOption {
	return func(s *PagesStep) {
		if fn != nil {
			s.progress = fn
		}
	}
}

// NewPagesStep creates a step bundling the pages in dir.
func NewPagesStep(dir, ext string, opts ...PagesStepOption) *PagesStep {
	s := &PagesStep{
		dir:      dir,
		ext:      ext,
		workers:  1,
		sorted:   true,
		logger:   slog.Default(),
		progress: noProgress,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the step name.
func (s *PagesStep) Name() string {
	return "pages"
}

// Do executes the pages step.
// Reads run concurrently up to the worker limit; the first failure cancels
// the remaining reads and nothing is added to the manifest.
func (s *PagesStep) Do(ctx context.Context, manifest *model.Manifest) error {
	names, err := s.list()
	if err != nil {
		return err
	}

	pages := make(map[string][]string, len(names))
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)

	for _, name := range names {
		pagePath := filepath.Join(s.dir, name)
		s.progress(ProgressEvent{Kind: ProgressPage, Path: pagePath})

		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			text, err := readText(pagePath)
			if err != nil {
				return fmt.Errorf("failed to read page %s: %w", pagePath, err)
			}

			lines := model.SplitLines(text)

			mu.Lock()
			pages[name] = lines
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	for name, lines := range pages {
		manifest.AddPage(name, lines)
	}

	s.logger.Debug("pages read", "dir", s.dir, "count", len(pages))
	return nil
}

// list returns the names of the page files in listing order.
func (s *PagesStep) list() ([]string, error) {
	info, err := os.Stat(s.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s: %w", ErrPagesDirNotFound, s.dir, err)
		}
		return nil, fmt.Errorf("failed to stat pages directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrPagesNotDirectory, s.dir)
	}

	entries, err := s.readDir()
	if err != nil {
		return nil, fmt.Errorf("failed to list pages directory: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), s.ext) {
			s.logger.Debug("skipping pages entry", "name", entry.Name())
			continue
		}
		names = append(names, entry.Name())
	}
	return names, nil
}

// readDir lists the directory sorted, or in filesystem order when sorting
// is disabled.
func (s *PagesStep) readDir() ([]os.DirEntry, error) {
	if s.sorted {
		return os.ReadDir(s.dir)
	}

	f, err := os.Open(s.dir)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return f.ReadDir(-1)
}

// ValidateStep checks the manifest invariants once all sources are read.
type ValidateStep struct {
	exclusions []string
	ext        string
}

// NewValidateStep creates a validation step.
func NewValidateStep(exclusions []string, ext string) *ValidateStep {
	return &ValidateStep{exclusions: exclusions, ext: ext}
}

// Name returns the step name.
func (s *ValidateStep) Name() string {
	return "validate"
}

// Do executes the validation step.
func (s *ValidateStep) Do(_ context.Context, manifest *model.Manifest) error {
	return manifest.Validate(s.exclusions, s.ext)
}
