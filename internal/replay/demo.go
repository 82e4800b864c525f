package replay

import (
	"context"
	"log/slog"

	"github.com/nao1215/appbundle/internal/memo"
	"github.com/nao1215/appbundle/internal/model"
)

// CallsPerFunction is how often Run invokes each display function.
const CallsPerFunction = 2

// RasterCaption is the caption of the raster element.
const RasterCaption = "Black Square with no output format specified"

// displayFunc renders one asset onto a page.
type displayFunc = memo.Func[ImageOptions, model.ImageElement]

// Demo displays the assets through memoized functions.
type Demo struct {
	assets *Assets
	cache  *memo.Cache
	logger *slog.Logger
}

// DemoOption configures a Demo.
type DemoOption func(*Demo)

// WithDemoLogger sets a custom logger.
func WithDemoLogger(logger *slog.Logger) DemoOption {
	return func(d *Demo) {
		d.logger = logger
	}
}

// NewDemo creates a demo over assets using cache for memoization.
func NewDemo(assets *Assets, cache *memo.Cache, opts ...DemoOption) *Demo {
	d := &Demo{
		assets: assets,
		cache:  cache,
	}

	for _, opt := range opts {
		opt(d)
	}

	if d.logger == nil {
		d.logger = slog.Default()
	}

	return d
}

// step is one memoized display function and the options it is called with.
type step struct {
	name string
	fn   displayFunc
	opts ImageOptions
}

// steps wraps the display functions for page in the demo's cache.
func (d *Demo) steps(page *Page) []step {
	wrap := func(name string, img func() (Image, error)) displayFunc {
		return memo.Wrap(d.cache, name, func(_ context.Context, opts ImageOptions) (model.ImageElement, error) {
			d.logger.Debug("rendering image", "source", name)
			i, err := img()
			if err != nil {
				return model.ImageElement{}, err
			}
			return page.Image(name, i, opts), nil
		})
	}

	return []step{
		{
			name: "raster",
			fn:   wrap("raster", func() (Image, error) { return PNGImage(d.assets.RasterPNG), nil }),
			opts: ImageOptions{Caption: RasterCaption, Width: RasterSize},
		},
		{
			name: "svg",
			fn:   wrap("svg", func() (Image, error) { return SVGImage(d.assets.SVG) }),
		},
		{
			name: "gif",
			fn:   wrap("gif", func() (Image, error) { return GIFImage(d.assets.GIF), nil }),
			opts: ImageOptions{Width: 100},
		},
		{
			name: "url",
			fn:   wrap("url", func() (Image, error) { return URLImage(d.assets.URL) }),
			opts: ImageOptions{Width: 200},
		},
	}
}

// Run displays every asset CallsPerFunction times onto page and reports
// what was rendered.
func (d *Demo) Run(ctx context.Context, page *Page) (*model.ReplayReport, error) {
	calls := 0
	for _, s := range d.steps(page) {
		for range CallsPerFunction {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			if _, err := s.fn(ctx, s.opts); err != nil {
				return nil, err
			}
			calls++
		}
		d.logger.Debug("display function done", "function", s.name)
	}

	stats := d.cache.Stats()
	return &model.ReplayReport{
		Calls:    calls,
		Elements: page.Elements(),
		Cache: model.CacheStats{
			Hits:    stats.Hits,
			Misses:  stats.Misses,
			Entries: stats.Entries,
		},
	}, nil
}
