package model

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestCompareManifests(t *testing.T) {
	t.Parallel()

	previous := NewManifest()
	previous.Requirements = []string{"altair", "foo-lib"}
	previous.AddEntrypoint("main v1")
	previous.AddPage("a.py", []string{"a"})
	previous.AddPage("b.py", []string{"b"})

	t.Run("identical manifests have no changes", func(t *testing.T) {
		t.Parallel()

		diff := CompareManifests(previous, previous)
		if diff.HasChanges() {
			t.Errorf("expected no changes, got %+v", diff)
		}
	})

	t.Run("detects every kind of change", func(t *testing.T) {
		t.Parallel()

		current := NewManifest()
		current.Requirements = []string{"foo-lib", "plotly"}
		current.AddEntrypoint("main v2")
		current.AddPage("a.py", []string{"a", "changed"})
		current.AddPage("c.py", []string{"c"})

		want := &ManifestDiff{
			AddedPages:          []string{"pages/c.py"},
			RemovedPages:        []string{"pages/b.py"},
			ChangedPages:        []string{"pages/a.py"},
			AddedRequirements:   []string{"plotly"},
			RemovedRequirements: []string{"altair"},
			EntrypointChanged:   true,
		}

		got := CompareManifests(previous, current)
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("diff mismatch (-want +got):\n%s", diff)
		}
		if !got.HasChanges() {
			t.Error("expected HasChanges to be true")
		}
	})
}

func TestReplayReportDeduplicated(t *testing.T) {
	t.Parallel()

	t.Run("one element per source", func(t *testing.T) {
		t.Parallel()

		r := &ReplayReport{
			Calls: 4,
			Elements: []ImageElement{
				{Source: "svg_image"},
				{Source: "gif_image"},
			},
			Cache: CacheStats{Hits: 2, Misses: 2, Entries: 2},
		}
		if !r.Deduplicated() {
			t.Error("expected report to be deduplicated")
		}
	})

	t.Run("repeated source", func(t *testing.T) {
		t.Parallel()

		r := &ReplayReport{
			Calls: 2,
			Elements: []ImageElement{
				{Source: "svg_image"},
				{Source: "svg_image"},
			},
			Cache: CacheStats{Misses: 2},
		}
		if r.Deduplicated() {
			t.Error("expected report not to be deduplicated")
		}
	})
}
