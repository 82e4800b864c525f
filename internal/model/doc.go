// Package model defines the core data structures used throughout appbundle.
//
// This package contains the following main types:
//   - Manifest: The bundle document consumed by the packaging system
//   - FileEntry / FileContent: A tagged text record inside the manifest
//   - BuildRecord: Metadata about one recorded build run
//   - ManifestDiff: The difference between two manifests
//   - ImageElement / ReplayReport: Output of the image replay demo
//
// Models live in their own package so that the pipeline, report and database
// packages can share them without import cycles.
package model
