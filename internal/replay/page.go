package replay

import (
	"fmt"
	"net/url"
	"sync"

	"github.com/nao1215/appbundle/internal/model"
)

// Image is a displayable image payload.
type Image struct {
	kind      model.ImageKind
	mediaType string
	data      []byte
	url       string
}

// PNGImage wraps PNG encoded bytes.
func PNGImage(data []byte) Image {
	return Image{kind: model.ImageKindRaster, mediaType: "image/png", data: data}
}

// GIFImage wraps GIF encoded bytes.
func GIFImage(data []byte) Image {
	return Image{kind: model.ImageKindGIF, mediaType: "image/gif", data: data}
}

// SVGImage wraps SVG markup. The markup must contain an svg element.
func SVGImage(markup string) (Image, error) {
	if err := CheckSVG(markup); err != nil {
		return Image{}, err
	}
	return Image{kind: model.ImageKindSVG, mediaType: "image/svg+xml", data: []byte(markup)}, nil
}

// URLImage references a remote image. Only absolute http(s) URLs are accepted.
func URLImage(raw string) (Image, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return Image{}, fmt.Errorf("invalid image url: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return Image{}, fmt.Errorf("invalid image url %q: must be absolute http or https", raw)
	}
	return Image{kind: model.ImageKindURL, mediaType: "image/*", url: u.String()}, nil
}

// ImageOptions controls how an image is displayed.
type ImageOptions struct {
	Caption string
	Width   int
}

// Page collects the elements displayed on it. It is safe for concurrent use.
type Page struct {
	mu       sync.Mutex
	elements []model.ImageElement
}

// NewPage returns an empty page.
func NewPage() *Page {
	return &Page{}
}

// Image displays img and returns the rendered element.
func (p *Page) Image(source string, img Image, opts ImageOptions) model.ImageElement {
	el := model.ImageElement{
		Source:    source,
		Kind:      img.kind,
		Caption:   opts.Caption,
		Width:     opts.Width,
		MediaType: img.mediaType,
		Size:      len(img.data),
		URL:       img.url,
		Data:      img.data,
	}

	p.mu.Lock()
	p.elements = append(p.elements, el)
	p.mu.Unlock()

	return el
}

// Elements returns a copy of the displayed elements in display order.
func (p *Page) Elements() []model.ImageElement {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]model.ImageElement, len(p.elements))
	copy(out, p.elements)
	return out
}
