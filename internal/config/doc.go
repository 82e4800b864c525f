// Package config provides configuration structures and utilities for appbundle.
// It defines where an app's sources live, which dependencies the host
// environment already provides, and how the manifest is written.
package config
