// Package report writes build output.
//
// JSONWriter emits the manifest itself, the document the packaging system
// consumes. SimpleWriter and MarkdownWriter render a human readable bundle
// summary for the terminal or for documentation. The package also renders
// build comparisons and replay demo results in text, JSON and Markdown.
//
// WriteFileAtomic publishes output files through a temporary file so a
// failed write never leaves a truncated artifact behind.
package report
