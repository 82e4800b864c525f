package replay

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/nao1215/appbundle/internal/memo"
	"github.com/nao1215/appbundle/internal/model"
)

func TestDemoRun(t *testing.T) {
	t.Parallel()

	t.Run("each function renders once", func(t *testing.T) {
		t.Parallel()

		assets, err := NewAssets()
		if err != nil {
			t.Fatal(err)
		}

		page := NewPage()
		report, err := NewDemo(assets, memo.New()).Run(context.Background(), page)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if report.Calls != 8 {
			t.Errorf("expected 8 calls, got %d", report.Calls)
		}
		if diff := cmp.Diff(model.CacheStats{Hits: 4, Misses: 4, Entries: 4}, report.Cache); diff != "" {
			t.Errorf("cache stats mismatch (-want +got):\n%s", diff)
		}
		if !report.Deduplicated() {
			t.Error("expected deduplicated report")
		}

		var sources []string
		for _, el := range report.Elements {
			sources = append(sources, el.Source)
		}
		if diff := cmp.Diff([]string{"raster", "svg", "gif", "url"}, sources); diff != "" {
			t.Errorf("sources mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("elements carry display options", func(t *testing.T) {
		t.Parallel()

		assets, err := NewAssets()
		if err != nil {
			t.Fatal(err)
		}

		report, err := NewDemo(assets, memo.New()).Run(context.Background(), NewPage())
		if err != nil {
			t.Fatal(err)
		}

		byKind := make(map[model.ImageKind]model.ImageElement)
		for _, el := range report.Elements {
			byKind[el.Kind] = el
		}

		raster := byKind[model.ImageKindRaster]
		if raster.Caption != RasterCaption || raster.Width != 100 || raster.MediaType != "image/png" {
			t.Errorf("unexpected raster element: %+v", raster)
		}
		if byKind[model.ImageKindGIF].Width != 100 {
			t.Errorf("unexpected gif width %d", byKind[model.ImageKindGIF].Width)
		}
		url := byKind[model.ImageKindURL]
		if url.URL != RemoteImageURL || url.Width != 200 || url.Size != 0 {
			t.Errorf("unexpected url element: %+v", url)
		}
		if byKind[model.ImageKindSVG].MediaType != "image/svg+xml" {
			t.Errorf("unexpected svg media type %q", byKind[model.ImageKindSVG].MediaType)
		}
	})

	t.Run("shared cache renders nothing on a second run", func(t *testing.T) {
		t.Parallel()

		assets, err := NewAssets()
		if err != nil {
			t.Fatal(err)
		}
		cache := memo.New()

		if _, err := NewDemo(assets, cache).Run(context.Background(), NewPage()); err != nil {
			t.Fatal(err)
		}
		second := NewPage()
		report, err := NewDemo(assets, cache).Run(context.Background(), second)
		if err != nil {
			t.Fatal(err)
		}

		if len(second.Elements()) != 0 {
			t.Errorf("expected no elements on second page, got %d", len(second.Elements()))
		}
		if report.Cache.Hits != 12 {
			t.Errorf("expected 12 hits, got %d", report.Cache.Hits)
		}
	})

	t.Run("invalid svg fails the run", func(t *testing.T) {
		t.Parallel()

		assets, err := NewAssets()
		if err != nil {
			t.Fatal(err)
		}
		assets.SVG = "<p>not svg</p>"

		_, err = NewDemo(assets, memo.New()).Run(context.Background(), NewPage())
		if !errors.Is(err, ErrNotSVG) {
			t.Errorf("expected ErrNotSVG, got %v", err)
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		t.Parallel()

		assets, err := NewAssets()
		if err != nil {
			t.Fatal(err)
		}
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		if _, err := NewDemo(assets, memo.New()).Run(ctx, NewPage()); !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})
}

func TestURLImage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw     string
		wantErr bool
	}{
		{raw: RemoteImageURL},
		{raw: "http://example.com/a.png"},
		{raw: "ftp://example.com/a.png", wantErr: true},
		{raw: "/relative.png", wantErr: true},
		{raw: "://bad", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			t.Parallel()

			_, err := URLImage(tt.raw)
			if (err != nil) != tt.wantErr {
				t.Errorf("URLImage(%q) error = %v, wantErr %v", tt.raw, err, tt.wantErr)
			}
		})
	}
}
