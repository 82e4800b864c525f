package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/nao1215/appbundle/internal/config"
	"github.com/nao1215/appbundle/internal/model"
	"golang.org/x/sync/errgroup"
)

// BatchJob is one app to bundle in a batch run.
type BatchJob struct {
	// Name identifies the job, usually the app preset name.
	Name string

	// Config describes the app's paths and options.
	Config *config.Config
}

// BatchResult is the outcome of one batch job.
// Exactly one of Manifest and Err is set.
type BatchResult struct {
	Job      BatchJob
	Manifest *model.Manifest
	Err      error
}

// BatchProcessor builds several apps concurrently.
// A failing app does not stop the others.
type BatchProcessor struct {
	// pipelineFactory creates a fresh pipeline for each job.
	pipelineFactory func(cfg *config.Config) *Pipeline

	concurrency int
	logger      *slog.Logger
}

// BatchOption configures a BatchProcessor.
type BatchOption func(*BatchProcessor)

// WithBatchLogger sets a custom logger for batch processing.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchProcessor) {
		b.logger = logger
	}
}

// WithConcurrency sets the maximum number of apps built at once.
// Default is 2 if not specified.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchProcessor) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// NewBatchProcessor creates a new BatchProcessor.
func NewBatchProcessor(pipelineFactory func(cfg *config.Config) *Pipeline, opts ...BatchOption) *BatchProcessor {
	bp := &BatchProcessor{
		pipelineFactory: pipelineFactory,
		concurrency:     2,
	}

	for _, opt := range opts {
		opt(bp)
	}

	if bp.logger == nil {
		bp.logger = slog.Default()
	}

	return bp
}

// ProcessBatch builds every job and returns the results in job order.
// The error is non-nil only when ctx is cancelled.
func (bp *BatchProcessor) ProcessBatch(ctx context.Context, jobs []BatchJob) ([]BatchResult, error) {
	results := make([]BatchResult, len(jobs))
	err := bp.ProcessBatchWithCallback(ctx, jobs, func(result BatchResult, index int) {
		results[index] = result
	})
	return results, err
}

// ProcessBatchWithCallback builds every job and calls callback as each one
// completes. The callback runs on the job's goroutine and must be safe for
// concurrent use.
func (bp *BatchProcessor) ProcessBatchWithCallback(
	ctx context.Context,
	jobs []BatchJob,
	callback func(result BatchResult, index int),
) error {
	bp.logger.Info("starting batch build",
		"total_apps", len(jobs),
		"concurrency", bp.concurrency,
	)

	startTime := time.Now()

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.concurrency)

	for i, job := range jobs {
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			bp.logger.Info("building app",
				"app", job.Name,
				"index", i+1,
				"total", len(jobs),
			)

			manifest, err := bp.pipelineFactory(job.Config).Build(ctx)
			if err != nil {
				bp.logger.Warn("build failed", "app", job.Name, "error", err)
			}

			callback(BatchResult{Job: job, Manifest: manifest, Err: err}, i)
			return nil
		})
	}

	err := g.Wait()

	bp.logger.Info("batch build complete",
		"total_apps", len(jobs),
		"elapsed", time.Since(startTime),
	)

	return err
}
