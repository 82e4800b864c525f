package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

// runCommand executes the root command with args and returns what it wrote
// to stdout.
func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return stdout.String(), err
}

// writeFile creates path with content, creating parent directories.
func writeFile(t *testing.T, path, content string) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		t.Fatalf("failed to create directory: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

// newSampleApp lays out a small app with the default file names and
// returns its root directory.
func newSampleApp(t *testing.T, pages map[string]string) string {
	t.Helper()

	dir := filepath.Join(t.TempDir(), "app")
	writeFile(t, filepath.Join(dir, "requirements.txt"), "streamlit\naltair\nnumpy\nvega_datasets\n")
	writeFile(t, filepath.Join(dir, "streamlit_app.py"), "import streamlit as st\n\nst.title(\"Gallery\")\n")
	for name, content := range pages {
		writeFile(t, filepath.Join(dir, "pages", name), content)
	}
	return dir
}
