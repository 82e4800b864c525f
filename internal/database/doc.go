// Package database provides SQLite-based build history for appbundle.
//
// HistoryDB records every successful build: the app it came from, where
// the manifest was written, its digest and the full manifest JSON. The
// history backs the compare command and lets build report when an output
// is unchanged from the previous run.
//
// The database is a single file under the XDG data directory, opened
// through the CGO-free modernc.org/sqlite driver in WAL mode.
package database
