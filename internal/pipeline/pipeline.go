package pipeline

import (
	"context"
	"log/slog"

	"github.com/nao1215/appbundle/internal/config"
	"github.com/nao1215/appbundle/internal/model"
)

// Step defines the interface that all build steps must implement.
// Steps are executed in sequence, each receiving the manifest assembled by
// the previous steps.
type Step interface {
	// Do executes the step, adding to or checking the manifest.
	Do(ctx context.Context, manifest *model.Manifest) error

	// Name returns the step's name for logging purposes.
	Name() string
}

// Pipeline orchestrates the execution of multiple steps.
type Pipeline struct {
	steps    []Step
	logger   *slog.Logger
	progress ProgressFunc
}

// Option is a function that configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets a custom logger for the pipeline.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithProgress sets the callback that receives a line per file read.
func WithProgress(fn ProgressFunc) Option {
	return func(p *Pipeline) {
		if fn != nil {
			p.progress = fn
		}
	}
}

// New creates a new Pipeline with the given options.
// Steps should be added using AddStep after creation.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		steps:    make([]Step, 0),
		progress: noProgress,
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.logger == nil {
		p.logger = slog.Default()
	}

	return p
}

// AddStep appends a step to the pipeline.
func (p *Pipeline) AddStep(step Step) {
	p.steps = append(p.steps, step)
}

// AddSteps appends multiple steps to the pipeline.
func (p *Pipeline) AddSteps(steps ...Step) {
	p.steps = append(p.steps, steps...)
}

// Execute runs all steps in sequence against manifest.
// It stops at the first error or when ctx is cancelled.
func (p *Pipeline) Execute(ctx context.Context, manifest *model.Manifest) error {
	p.logger.Debug("starting build",
		"step_count", p.StepCount(),
		"steps", p.StepNames(),
	)

	for _, step := range p.steps {
		select {
		case <-ctx.Done():
			p.logger.Warn("build cancelled",
				"step", step.Name(),
				"reason", ctx.Err(),
			)
			return ctx.Err()
		default:
		}

		p.logger.Debug("executing step", "step", step.Name())

		if err := step.Do(ctx, manifest); err != nil {
			p.logger.Error("step failed",
				"step", step.Name(),
				"error", err,
			)
			return err
		}

		p.logger.Debug("step completed", "step", step.Name())
	}

	return nil
}

// Build runs the pipeline against a fresh manifest and returns it.
// On error no manifest is returned.
func (p *Pipeline) Build(ctx context.Context) (*model.Manifest, error) {
	manifest := model.NewManifest()
	if err := p.Execute(ctx, manifest); err != nil {
		return nil, err
	}
	return manifest, nil
}

// StepCount returns the number of steps in the pipeline.
func (p *Pipeline) StepCount() int {
	return len(p.steps)
}

// StepNames returns the names of all steps in execution order.
func (p *Pipeline) StepNames() []string {
	names := make([]string, len(p.steps))
	for i, step := range p.steps {
		names[i] = step.Name()
	}
	return names
}

// DefaultPipeline creates the standard build: requirements, entry point,
// pages and validation, configured from cfg.
func DefaultPipeline(cfg *config.Config, opts ...Option) *Pipeline {
	p := New(opts...)

	p.AddSteps(
		NewRequirementsStep(cfg.RequirementsPath(), cfg.Exclusions,
			WithRequirementsLogger(p.logger),
			WithRequirementsProgress(p.progress),
		),
		NewEntrypointStep(cfg.EntrypointPath(),
			WithEntrypointProgress(p.progress),
		),
		NewPagesStep(cfg.PagesPath(), cfg.ScriptExt,
			WithPagesWorkers(cfg.Workers),
			WithPagesSorted(cfg.SortPages),
			WithPagesLogger(p.logger),
			WithPagesProgress(p.progress),
		),
		NewValidateStep(cfg.Exclusions, cfg.ScriptExt),
	)

	return p
}
