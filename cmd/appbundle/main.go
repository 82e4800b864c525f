// Package main provides the entry point for the appbundle CLI.
//
// appbundle bundles a sample app (an entry point script, a pages directory
// and a requirements list) into a single JSON manifest for the packaging
// system, keeps a history of builds, and publishes manifests to object
// storage.
//
// Usage:
//
//	appbundle build
//	appbundle build --app-dir path/to/app -o app.json
//	appbundle compare path/to/app
//
// See --help for all available options.
package main

// main is the entry point for appbundle.
func main() {
	Execute()
}
