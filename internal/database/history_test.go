package database

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/nao1215/appbundle/internal/model"
)

// setupTestDB creates a temporary database for testing.
func setupTestDB(t *testing.T) *HistoryDB {
	t.Helper()

	db, err := Open(t.TempDir(), DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})

	return db
}

// newRecord builds a record for appDir whose manifest holds the given pages.
func newRecord(t *testing.T, appDir string, ts time.Time, pages ...string) *model.BuildRecord {
	t.Helper()

	m := model.NewManifest()
	m.Requirements = []string{"altair"}
	m.AddEntrypoint("import streamlit as st\n")
	for _, p := range pages {
		m.AddPage(p, []string{"# " + p})
	}

	record, err := model.NewBuildRecord(appDir, "out.json", m)
	if err != nil {
		t.Fatalf("failed to create record: %v", err)
	}
	record.Timestamp = ts
	return record
}

func TestOpen(t *testing.T) {
	t.Parallel()

	t.Run("creates database in new directory", func(t *testing.T) {
		t.Parallel()

		dbDir := filepath.Join(t.TempDir(), "newdir", "subdir")
		db, err := Open(dbDir, DefaultOptions())
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		defer db.Close()

		if _, err := os.Stat(filepath.Join(dbDir, DBFileName)); os.IsNotExist(err) {
			t.Error("database file was not created")
		}
		if db.Path() != filepath.Join(dbDir, DBFileName) {
			t.Errorf("unexpected path: %s", db.Path())
		}
	})

	t.Run("CreateIfNotExists=false fails for missing database", func(t *testing.T) {
		t.Parallel()

		_, err := Open(t.TempDir(), Options{CreateIfNotExists: false})
		if err == nil {
			t.Error("expected error for missing database")
		}
	})

	t.Run("reopens existing database", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		db, err := Open(dir, DefaultOptions())
		if err != nil {
			t.Fatal(err)
		}
		if _, err := db.InsertBuild(context.Background(), newRecord(t, "app", time.Now())); err != nil {
			t.Fatal(err)
		}
		if err := db.Close(); err != nil {
			t.Fatal(err)
		}

		reopened, err := Open(dir, Options{CreateIfNotExists: false})
		if err != nil {
			t.Fatalf("failed to reopen: %v", err)
		}
		defer reopened.Close()

		apps, err := reopened.ListApps(context.Background())
		if err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff([]string{"app"}, apps); diff != "" {
			t.Errorf("apps mismatch (-want +got):\n%s", diff)
		}
	})
}

func TestInsertBuild(t *testing.T) {
	t.Parallel()

	t.Run("assigns increasing ids", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		ctx := context.Background()

		first, err := db.InsertBuild(ctx, newRecord(t, "app", time.Now()))
		if err != nil {
			t.Fatal(err)
		}
		second, err := db.InsertBuild(ctx, newRecord(t, "app", time.Now()))
		if err != nil {
			t.Fatal(err)
		}
		if second <= first {
			t.Errorf("expected increasing ids, got %d then %d", first, second)
		}
	})

	t.Run("rejects record without manifest", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		if _, err := db.InsertBuild(context.Background(), &model.BuildRecord{AppDir: "app"}); err == nil {
			t.Error("expected error")
		}
	})
}

func TestGetBuildHistory(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	for i, pages := range [][]string{{"a.py"}, {"a.py", "b.py"}, {"b.py"}} {
		if _, err := db.InsertBuild(ctx, newRecord(t, "gallery", base.Add(time.Duration(i)*time.Minute), pages...)); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := db.InsertBuild(ctx, newRecord(t, "other", base)); err != nil {
		t.Fatal(err)
	}

	history, err := db.GetBuildHistory(ctx, "gallery")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(history) != 3 {
		t.Fatalf("expected 3 builds, got %d", len(history))
	}

	if !history[0].Timestamp.Equal(base.Add(2 * time.Minute)) {
		t.Errorf("expected newest first, got %v", history[0].Timestamp)
	}
	if diff := cmp.Diff([]string{"pages/b.py"}, history[0].Manifest.PageNames()); diff != "" {
		t.Errorf("newest pages mismatch (-want +got):\n%s", diff)
	}
	if history[2].PageCount != 1 || history[1].PageCount != 2 {
		t.Errorf("unexpected page counts: %d, %d", history[1].PageCount, history[2].PageCount)
	}

	meta, err := db.GetBuildHistoryMetadata(ctx, "gallery")
	if err != nil {
		t.Fatal(err)
	}
	if len(meta) != 3 || meta[0].Manifest != nil {
		t.Errorf("expected 3 records without manifests, got %+v", meta)
	}

	empty, err := db.GetBuildHistory(ctx, "unknown")
	if err != nil {
		t.Fatal(err)
	}
	if len(empty) != 0 {
		t.Errorf("expected no history, got %d", len(empty))
	}
}

func TestGetBuildByID(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ctx := context.Background()

	record := newRecord(t, "gallery", time.Now(), "a.py")
	id, err := db.InsertBuild(ctx, record)
	if err != nil {
		t.Fatal(err)
	}

	got, err := db.GetBuildByID(ctx, id)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Digest != record.Digest {
		t.Errorf("expected digest %s, got %s", record.Digest, got.Digest)
	}

	digest, err := got.Manifest.Digest()
	if err != nil {
		t.Fatal(err)
	}
	if digest != record.Digest {
		t.Error("stored manifest does not reproduce its digest")
	}

	_, err = db.GetBuildByID(ctx, id+100)
	if !errors.Is(err, ErrBuildNotFound) {
		t.Errorf("expected ErrBuildNotFound, got %v", err)
	}
}

func TestLatestDigest(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ctx := context.Background()

	if _, ok, err := db.LatestDigest(ctx, "gallery"); err != nil || ok {
		t.Fatalf("expected no digest, got ok=%v err=%v", ok, err)
	}

	old := newRecord(t, "gallery", time.Now().Add(-time.Hour), "a.py")
	latest := newRecord(t, "gallery", time.Now(), "b.py")
	for _, r := range []*model.BuildRecord{old, latest} {
		if _, err := db.InsertBuild(ctx, r); err != nil {
			t.Fatal(err)
		}
	}

	digest, ok, err := db.LatestDigest(ctx, "gallery")
	if err != nil || !ok {
		t.Fatalf("expected digest, got ok=%v err=%v", ok, err)
	}
	if digest != latest.Digest {
		t.Errorf("expected %s, got %s", latest.Digest, digest)
	}
}

func TestListAppsAndDelete(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ctx := context.Background()

	for _, app := range []string{"zeta", "alpha", "zeta"} {
		if _, err := db.InsertBuild(ctx, newRecord(t, app, time.Now())); err != nil {
			t.Fatal(err)
		}
	}

	apps, err := db.ListApps(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"alpha", "zeta"}, apps); diff != "" {
		t.Errorf("apps mismatch (-want +got):\n%s", diff)
	}

	n, err := db.DeleteHistory(ctx, "zeta")
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("expected 2 deleted rows, got %d", n)
	}

	apps, err = db.ListApps(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"alpha"}, apps); diff != "" {
		t.Errorf("apps mismatch (-want +got):\n%s", diff)
	}
}

func TestParseTimestamp(t *testing.T) {
	t.Parallel()

	want := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	tests := []string{
		"2025-01-02 03:04:05.000000000",
		"2025-01-02 03:04:05",
		"2025-01-02T03:04:05Z",
	}
	for _, s := range tests {
		if got := parseTimestamp(s); !got.Equal(want) {
			t.Errorf("parseTimestamp(%q) = %v, want %v", s, got, want)
		}
	}
	if !parseTimestamp("garbage").IsZero() {
		t.Error("expected zero time for garbage")
	}
}
