package model

// ImageKind identifies the source an image element was rendered from.
type ImageKind string

// Image kinds emitted by the replay demo.
const (
	ImageKindRaster ImageKind = "raster"
	ImageKindGIF    ImageKind = "gif"
	ImageKindSVG    ImageKind = "svg"
	ImageKindURL    ImageKind = "url"
)

// ImageElement is one rendered image on a page.
type ImageElement struct {
	// Source names the display function that emitted the element.
	Source string `json:"source"`

	Kind    ImageKind `json:"kind"`
	Caption string    `json:"caption,omitempty"`

	// Width is the display width in pixels. Zero means natural width.
	Width int `json:"width,omitempty"`

	MediaType string `json:"media_type"`

	// Size is the encoded payload size in bytes. Zero for URL references.
	Size int `json:"size,omitempty"`

	// URL is set for remote references.
	URL string `json:"url,omitempty"`

	// Data is the encoded payload (PNG, GIF or SVG markup).
	Data []byte `json:"-"`
}

// CacheStats are the counters of a memoizing cache.
type CacheStats struct {
	Hits    int `json:"hits"`
	Misses  int `json:"misses"`
	Entries int `json:"entries"`
}

// ReplayReport is the outcome of running the image replay demo.
type ReplayReport struct {
	// Calls is the number of display calls issued.
	Calls int `json:"calls"`

	// Elements are the images actually rendered, in order.
	Elements []ImageElement `json:"elements"`

	Cache CacheStats `json:"cache"`
}

// Deduplicated reports whether every repeated call was served from cache,
// i.e. each distinct display function rendered exactly once.
func (r *ReplayReport) Deduplicated() bool {
	seen := make(map[string]int)
	for _, el := range r.Elements {
		seen[el.Source]++
		if seen[el.Source] > 1 {
			return false
		}
	}
	return r.Cache.Misses == len(r.Elements)
}
