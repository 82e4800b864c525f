package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/appbundle/internal/model"
)

// DBFileName is the name of the history database inside the data directory.
const DBFileName = "appbundle.db"

// ErrBuildNotFound is returned when a build ID has no record.
var ErrBuildNotFound = errors.New("build not found")

// HistoryDB provides SQLite-based storage for build records.
type HistoryDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures HistoryDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a HistoryDB in dbDir.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*HistoryDB, error) {
	dbPath := filepath.Join(dbDir, DBFileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// mode=rw refuses to create a missing file.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite only supports one writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	hdb := &HistoryDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := hdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return hdb, nil
}

// Path returns the database file path.
func (hdb *HistoryDB) Path() string {
	return hdb.dbPath
}

// Close closes the database connection.
func (hdb *HistoryDB) Close() error {
	return hdb.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (hdb *HistoryDB) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS builds (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		app_dir TEXT NOT NULL,
		output_path TEXT NOT NULL,
		digest TEXT NOT NULL,
		requirement_count INTEGER NOT NULL DEFAULT 0,
		page_count INTEGER NOT NULL DEFAULT 0,
		timestamp TEXT NOT NULL,
		manifest_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_builds_app ON builds(app_dir);
	CREATE INDEX IF NOT EXISTS idx_builds_timestamp ON builds(timestamp);
	`

	_, err := hdb.db.ExecContext(context.Background(), schema)
	return err
}

// timestampLayout is fixed width so timestamps sort lexically.
const timestampLayout = "2006-01-02 15:04:05.000000000"

// InsertBuild stores a build record and returns its ID.
// A zero Timestamp is replaced with the current time.
func (hdb *HistoryDB) InsertBuild(ctx context.Context, record *model.BuildRecord) (int64, error) {
	if record.Manifest == nil {
		return 0, errors.New("build record has no manifest")
	}

	manifestJSON, err := record.Manifest.MarshalCanonical()
	if err != nil {
		return 0, fmt.Errorf("failed to serialize manifest: %w", err)
	}

	ts := record.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	query := `
	INSERT INTO builds (app_dir, output_path, digest, requirement_count, page_count, timestamp, manifest_json)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	result, err := hdb.db.ExecContext(ctx, query,
		record.AppDir,
		record.OutputPath,
		record.Digest,
		record.RequirementCount,
		record.PageCount,
		ts.UTC().Format(timestampLayout),
		string(manifestJSON),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to save build: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get build ID: %w", err)
	}
	record.ID = id

	return id, nil
}

// selectBuild lists the columns scanned by scanBuild.
const selectBuild = `
	SELECT id, app_dir, output_path, digest, requirement_count, page_count, timestamp, manifest_json
	FROM builds
`

// rowScanner is implemented by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanBuild reads one build row. withManifest controls whether the stored
// manifest is decoded.
func scanBuild(row rowScanner, withManifest bool) (*model.BuildRecord, error) {
	var (
		record       model.BuildRecord
		timestamp    string
		manifestJSON string
	)

	if err := row.Scan(
		&record.ID,
		&record.AppDir,
		&record.OutputPath,
		&record.Digest,
		&record.RequirementCount,
		&record.PageCount,
		&timestamp,
		&manifestJSON,
	); err != nil {
		return nil, err
	}

	record.Timestamp = parseTimestamp(timestamp)

	if withManifest {
		m, err := model.ParseManifest([]byte(manifestJSON))
		if err != nil {
			return nil, fmt.Errorf("failed to parse manifest of build %d: %w", record.ID, err)
		}
		record.Manifest = m
	}

	return &record, nil
}

// GetBuildHistory retrieves all builds of an app, newest first.
// Manifests are decoded.
func (hdb *HistoryDB) GetBuildHistory(ctx context.Context, appDir string) ([]*model.BuildRecord, error) {
	return hdb.history(ctx, appDir, true)
}

// GetBuildHistoryMetadata retrieves all builds of an app, newest first,
// without decoding their manifests.
func (hdb *HistoryDB) GetBuildHistoryMetadata(ctx context.Context, appDir string) ([]*model.BuildRecord, error) {
	return hdb.history(ctx, appDir, false)
}

func (hdb *HistoryDB) history(ctx context.Context, appDir string, withManifest bool) ([]*model.BuildRecord, error) {
	query := selectBuild + `
	WHERE app_dir = ?
	ORDER BY timestamp DESC, id DESC
	`

	rows, err := hdb.db.QueryContext(ctx, query, appDir)
	if err != nil {
		return nil, fmt.Errorf("failed to get build history: %w", err)
	}
	defer rows.Close()

	var records []*model.BuildRecord
	for rows.Next() {
		record, err := scanBuild(rows, withManifest)
		if err != nil {
			return nil, fmt.Errorf("failed to scan build: %w", err)
		}
		records = append(records, record)
	}

	return records, rows.Err()
}

// GetBuildByID retrieves a build by its database ID.
// Returns ErrBuildNotFound if no such build exists.
func (hdb *HistoryDB) GetBuildByID(ctx context.Context, id int64) (*model.BuildRecord, error) {
	query := selectBuild + `
	WHERE id = ?
	`

	record, err := scanBuild(hdb.db.QueryRowContext(ctx, query, id), true)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", ErrBuildNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get build: %w", err)
	}

	return record, nil
}

// LatestDigest returns the digest of the newest build of an app.
// The boolean is false when the app has no recorded builds.
func (hdb *HistoryDB) LatestDigest(ctx context.Context, appDir string) (string, bool, error) {
	query := `
	SELECT digest FROM builds
	WHERE app_dir = ?
	ORDER BY timestamp DESC, id DESC
	LIMIT 1
	`

	var digest string
	err := hdb.db.QueryRowContext(ctx, query, appDir).Scan(&digest)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get latest digest: %w", err)
	}

	return digest, true, nil
}

// ListApps returns every app directory with recorded builds, sorted.
func (hdb *HistoryDB) ListApps(ctx context.Context) ([]string, error) {
	query := `
	SELECT DISTINCT app_dir FROM builds
	ORDER BY app_dir
	`

	rows, err := hdb.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list apps: %w", err)
	}
	defer rows.Close()

	var apps []string
	for rows.Next() {
		var app string
		if err := rows.Scan(&app); err != nil {
			return nil, fmt.Errorf("failed to scan app: %w", err)
		}
		apps = append(apps, app)
	}

	return apps, rows.Err()
}

// DeleteHistory removes every recorded build of an app and returns the
// number of rows deleted.
func (hdb *HistoryDB) DeleteHistory(ctx context.Context, appDir string) (int64, error) {
	result, err := hdb.db.ExecContext(ctx, "DELETE FROM builds WHERE app_dir = ?", appDir)
	if err != nil {
		return 0, fmt.Errorf("failed to delete history: %w", err)
	}
	return result.RowsAffected()
}

// timestampFormats contains the timestamp formats that may be stored.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	timestampLayout,
	"2006-01-02 15:04:05",
	time.RFC3339Nano,
	time.RFC3339,
}

// parseTimestamp parses a stored timestamp as UTC.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}
