package replay

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/gif"
	"image/png"
	"io"
	"path/filepath"
	"strings"

	"github.com/nao1215/appbundle/internal/report"
	"golang.org/x/net/html"
)

// Asset parameters.
const (
	// RasterSize is the edge length of the black raster.
	RasterSize = 100

	// GIFSize is the edge length of the animated GIF.
	GIFSize = 64

	// GIFFrames is the number of animation frames.
	GIFFrames = 32

	// GIFDelay is the per-frame delay in 100ths of a second.
	GIFDelay = 1

	// RemoteImageURL is referenced by URL and never fetched.
	RemoteImageURL = "https://avatars.githubusercontent.com/anoctopus"
)

// CircleSVG is the inline vector image.
const CircleSVG = `
<svg>
  <circle cx="50" cy="50" r="40" stroke="black" stroke-width="3" fill="red" />
</svg>
`

// ErrNotSVG is returned when markup has no svg element.
var ErrNotSVG = errors.New("markup contains no svg element")

// Assets are the images displayed by the demo.
// They are built once by NewAssets and shared read-only.
type Assets struct {
	// Raster is an all-black grayscale square.
	Raster *image.Gray

	// RasterPNG is Raster encoded as PNG.
	RasterPNG []byte

	// GIF is the encoded animation.
	GIF []byte

	// SVG is the vector markup.
	SVG string

	// URL is the remote image reference.
	URL string
}

// NewAssets builds the demo assets.
func NewAssets() (*Assets, error) {
	raster := NewRaster(RasterSize)

	var buf bytes.Buffer
	if err := png.Encode(&buf, raster); err != nil {
		return nil, fmt.Errorf("failed to encode raster: %w", err)
	}

	anim, err := CreateGIF(GIFSize, GIFFrames)
	if err != nil {
		return nil, err
	}

	if err := CheckSVG(CircleSVG); err != nil {
		return nil, err
	}

	return &Assets{
		Raster:    raster,
		RasterPNG: buf.Bytes(),
		GIF:       anim,
		SVG:       CircleSVG,
		URL:       RemoteImageURL,
	}, nil
}

// NewRaster returns a size x size grayscale image with every pixel black.
func NewRaster(size int) *image.Gray {
	// Gray's zero value is black.
	return image.NewGray(image.Rect(0, 0, size, size))
}

// gifPalette holds the two grays the animation uses.
var gifPalette = color.Palette{color.Gray{Y: 0xff}, color.Gray{Y: 0x00}}

// CreateGIF encodes a size x size animation of frames frames.
// Each frame shows a black circle of diameter size/2 on white whose
// bounding box starts at (i, i) for frame i, so the circle moves one pixel
// per frame down the principal diagonal. The animation plays once.
func CreateGIF(size, frames int) ([]byte, error) {
	if size <= 0 || frames <= 0 {
		return nil, fmt.Errorf("invalid gif parameters: size %d, frames %d", size, frames)
	}

	anim := &gif.GIF{
		LoopCount: -1,
		Config: image.Config{
			ColorModel: gifPalette,
			Width:      size,
			Height:     size,
		},
	}

	radius := float64(size) / 4
	for i := range frames {
		frame := image.NewPaletted(image.Rect(0, 0, size, size), gifPalette)
		cx := float64(i) + radius
		cy := float64(i) + radius
		for y := range size {
			for x := range size {
				dx := float64(x) - cx
				dy := float64(y) - cy
				if dx*dx+dy*dy <= radius*radius {
					frame.SetColorIndex(x, y, 1)
				}
			}
		}
		anim.Image = append(anim.Image, frame)
		anim.Delay = append(anim.Delay, GIFDelay)
	}

	var buf bytes.Buffer
	if err := gif.EncodeAll(&buf, anim); err != nil {
		return nil, fmt.Errorf("failed to encode gif: %w", err)
	}
	return buf.Bytes(), nil
}

// CheckSVG reports whether markup parses to a document with an svg element.
func CheckSVG(markup string) error {
	doc, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		return fmt.Errorf("failed to parse svg markup: %w", err)
	}
	if findElement(doc, "svg") == nil {
		return ErrNotSVG
	}
	return nil
}

// findElement returns the first element named name in depth-first order.
func findElement(n *html.Node, name string) *html.Node {
	if n.Type == html.ElementNode && n.Data == name {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, name); found != nil {
			return found
		}
	}
	return nil
}

// Asset file names written by WriteFiles.
const (
	RasterFileName = "raster.png"
	GIFFileName    = "replay.gif"
	SVGFileName    = "circle.svg"
)

// WriteFiles writes the binary assets into dir and returns their paths.
func (a *Assets) WriteFiles(dir string) ([]string, error) {
	files := []struct {
		name string
		data []byte
	}{
		{RasterFileName, a.RasterPNG},
		{GIFFileName, a.GIF},
		{SVGFileName, []byte(a.SVG)},
	}

	paths := make([]string, 0, len(files))
	for _, f := range files {
		path := filepath.Join(dir, f.name)
		err := report.WriteFileAtomic(path, func(w io.Writer) error {
			_, err := w.Write(f.data)
			return err
		})
		if err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}
