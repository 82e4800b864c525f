package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/nao1215/appbundle/internal/config"
	"github.com/nao1215/appbundle/internal/model"
)

func TestBatchProcessorNew(t *testing.T) {
	t.Parallel()

	factory := func(*config.Config) *Pipeline { return New() }

	t.Run("creates processor with defaults", func(t *testing.T) {
		t.Parallel()

		bp := NewBatchProcessor(factory)
		if bp.concurrency != 2 {
			t.Errorf("expected default concurrency 2, got %d", bp.concurrency)
		}
		if bp.logger == nil {
			t.Error("expected default logger")
		}
	})

	t.Run("applies WithConcurrency option", func(t *testing.T) {
		t.Parallel()

		bp := NewBatchProcessor(factory, WithConcurrency(5))
		if bp.concurrency != 5 {
			t.Errorf("expected concurrency 5, got %d", bp.concurrency)
		}
	})

	t.Run("ignores non-positive concurrency", func(t *testing.T) {
		t.Parallel()

		bp := NewBatchProcessor(factory, WithConcurrency(0))
		if bp.concurrency != 2 {
			t.Errorf("expected concurrency 2, got %d", bp.concurrency)
		}
	})

	t.Run("applies WithBatchLogger option", func(t *testing.T) {
		t.Parallel()

		logger := slog.New(slog.NewTextHandler(io.Discard, nil))
		bp := NewBatchProcessor(factory, WithBatchLogger(logger))
		if bp.logger != logger {
			t.Error("expected custom logger")
		}
	})
}

func TestBatchProcessorProcessBatch(t *testing.T) {
	t.Parallel()

	t.Run("builds every app and keeps job order", func(t *testing.T) {
		t.Parallel()

		good := newSampleApp(t, "altair\n", map[string]string{"a.py": "a\n"})
		other := newSampleApp(t, "pydeck\n", map[string]string{"b.py": "b\n", "c.py": "c\n"})
		broken := config.NewConfig()
		broken.AppDir = t.TempDir()

		jobs := []BatchJob{
			{Name: "good", Config: good},
			{Name: "broken", Config: broken},
			{Name: "other", Config: other},
		}

		bp := NewBatchProcessor(func(cfg *config.Config) *Pipeline {
			return DefaultPipeline(cfg)
		}, WithConcurrency(3))

		results, err := bp.ProcessBatch(context.Background(), jobs)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(results) != 3 {
			t.Fatalf("expected 3 results, got %d", len(results))
		}

		if results[0].Err != nil || results[0].Manifest == nil {
			t.Errorf("expected good build, got %v", results[0].Err)
		}
		if !errors.Is(results[1].Err, ErrRequirementsNotFound) {
			t.Errorf("expected ErrRequirementsNotFound, got %v", results[1].Err)
		}
		if results[1].Manifest != nil {
			t.Error("expected nil manifest for failed build")
		}
		if results[2].Manifest == nil || len(results[2].Manifest.PageNames()) != 2 {
			t.Errorf("expected 2 pages for other, got %+v", results[2])
		}
		for i, job := range jobs {
			if results[i].Job.Name != job.Name {
				t.Errorf("result %d: expected job %q, got %q", i, job.Name, results[i].Job.Name)
			}
		}
	})

	t.Run("respects concurrency limit", func(t *testing.T) {
		t.Parallel()

		var running, peak int32
		var mu sync.Mutex

		bp := NewBatchProcessor(func(*config.Config) *Pipeline {
			p := New()
			p.AddStep(&mockStep{
				name: "track",
				doFunc: func(_ context.Context, _ *model.Manifest) error {
					n := atomic.AddInt32(&running, 1)
					mu.Lock()
					if n > peak {
						peak = n
					}
					mu.Unlock()
					atomic.AddInt32(&running, -1)
					return nil
				},
			})
			return p
		}, WithConcurrency(2))

		jobs := make([]BatchJob, 6)
		for i := range jobs {
			jobs[i] = BatchJob{Name: "app", Config: config.NewConfig()}
		}

		if _, err := bp.ProcessBatch(context.Background(), jobs); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if peak > 2 {
			t.Errorf("expected at most 2 concurrent builds, got %d", peak)
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		bp := NewBatchProcessor(func(*config.Config) *Pipeline { return New() })
		_, err := bp.ProcessBatch(ctx, []BatchJob{{Name: "x", Config: config.NewConfig()}})
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})
}
