// Package replay implements the image replay demo.
//
// The demo builds four image assets once (a grayscale raster, an animated
// GIF, inline SVG markup and a remote URL reference) and displays each
// through a function memoized with package memo. Every function is called
// twice; the page must end up with exactly one element per function,
// proving that repeated calls are served from the cache without repeating
// their display side effect.
package replay
