// Package pipeline builds app manifests.
//
// A build is a sequence of steps that each read one part of the app's
// sources into a shared model.Manifest: the requirements list, the entry
// point script and the pages directory, followed by a validation step.
// Steps run in order and the first failure aborts the build before
// anything is written, so a failed build never leaves a partial manifest.
//
// BatchProcessor builds several apps concurrently using errgroup.
package pipeline
