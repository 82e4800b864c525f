package pipeline

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/nao1215/appbundle/internal/model"
)

// mockStep is a test helper that implements the Step interface.
type mockStep struct {
	name      string
	doFunc    func(ctx context.Context, manifest *model.Manifest) error
	callCount int
}

// Do implements Step.Do.
func (m *mockStep) Do(ctx context.Context, manifest *model.Manifest) error {
	m.callCount++
	if m.doFunc != nil {
		return m.doFunc(ctx, manifest)
	}
	return nil
}

// Name implements Step.Name.
func (m *mockStep) Name() string {
	return m.name
}

func TestPipelineNew(t *testing.T) {
	t.Parallel()

	t.Run("creates pipeline with default settings", func(t *testing.T) {
		t.Parallel()

		p := New()

		if p == nil {
			t.Fatal("expected non-nil pipeline")
		}
		if p.StepCount() != 0 {
			t.Errorf("expected 0 steps, got %d", p.StepCount())
		}
		if p.logger == nil {
			t.Error("expected default logger")
		}
	})

	t.Run("ignores nil progress", func(t *testing.T) {
		t.Parallel()

		p := New(WithProgress(nil))
		if p.progress == nil {
			t.Error("expected no-op progress")
		}
	})
}

func TestPipelineAddStep(t *testing.T) {
	t.Parallel()

	p := New()
	p.AddStep(&mockStep{name: "first"})
	p.AddSteps(&mockStep{name: "second"}, &mockStep{name: "third"})

	if p.StepCount() != 3 {
		t.Fatalf("expected 3 steps, got %d", p.StepCount())
	}

	names := p.StepNames()
	want := []string{"first", "second", "third"}
	for i, name := range want {
		if names[i] != name {
			t.Errorf("step %d: expected %q, got %q", i, name, names[i])
		}
	}
}

func TestPipelineExecute(t *testing.T) {
	t.Parallel()

	t.Run("logs the planned steps", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
		p := New(WithLogger(logger))
		p.AddSteps(&mockStep{name: "read"}, &mockStep{name: "check"})

		if err := p.Execute(context.Background(), model.NewManifest()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		out := buf.String()
		for _, want := range []string{"starting build", "step_count=2", "steps=\"[read check]\""} {
			if !strings.Contains(out, want) {
				t.Errorf("expected log to contain %q, got %q", want, out)
			}
		}
	})

	t.Run("runs steps in order", func(t *testing.T) {
		t.Parallel()

		var order []string
		record := func(name string) *mockStep {
			return &mockStep{
				name: name,
				doFunc: func(_ context.Context, _ *model.Manifest) error {
					order = append(order, name)
					return nil
				},
			}
		}

		p := New()
		p.AddSteps(record("a"), record("b"), record("c"))

		if err := p.Execute(context.Background(), model.NewManifest()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(order) != 3 || order[0] != "a" || order[1] != "b" || order[2] != "c" {
			t.Errorf("unexpected order: %v", order)
		}
	})

	t.Run("stops at first error", func(t *testing.T) {
		t.Parallel()

		errBoom := errors.New("boom")
		failing := &mockStep{
			name: "failing",
			doFunc: func(_ context.Context, _ *model.Manifest) error {
				return errBoom
			},
		}
		after := &mockStep{name: "after"}

		p := New()
		p.AddSteps(failing, after)

		err := p.Execute(context.Background(), model.NewManifest())
		if !errors.Is(err, errBoom) {
			t.Errorf("expected errBoom, got %v", err)
		}
		if after.callCount != 0 {
			t.Error("expected later step not to run")
		}
	})

	t.Run("respects cancelled context", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		step := &mockStep{name: "never"}
		p := New()
		p.AddStep(step)

		err := p.Execute(ctx, model.NewManifest())
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
		if step.callCount != 0 {
			t.Error("expected step not to run")
		}
	})
}

func TestPipelineBuild(t *testing.T) {
	t.Parallel()

	t.Run("returns nil manifest on failure", func(t *testing.T) {
		t.Parallel()

		p := New()
		p.AddStep(&mockStep{
			name: "failing",
			doFunc: func(_ context.Context, _ *model.Manifest) error {
				return errors.New("fail")
			},
		})

		m, err := p.Build(context.Background())
		if err == nil {
			t.Fatal("expected error")
		}
		if m != nil {
			t.Error("expected nil manifest")
		}
	})

	t.Run("returns populated manifest", func(t *testing.T) {
		t.Parallel()

		p := New()
		p.AddStep(&mockStep{
			name: "entry",
			doFunc: func(_ context.Context, m *model.Manifest) error {
				m.AddEntrypoint("print('hi')\n")
				return nil
			},
		})

		m, err := p.Build(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if m.EntrypointText() != "print('hi')\n" {
			t.Errorf("unexpected entry point: %q", m.EntrypointText())
		}
	})
}
