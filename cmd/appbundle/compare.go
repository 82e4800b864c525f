package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/nao1215/appbundle/internal/config"
	"github.com/nao1215/appbundle/internal/database"
	"github.com/nao1215/appbundle/internal/model"
	"github.com/nao1215/appbundle/internal/report"
	"github.com/spf13/cobra"
)

// errTooFewBuilds is returned when an app has fewer than two recorded builds.
var errTooFewBuilds = errors.New("at least two recorded builds are required for comparison")

// NewCompareCmd creates the compare command.
func NewCompareCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare [app-dir]",
		Short: "Compare recorded builds of an app",
		Long: `Compare displays differences between two recorded builds of an app.

Every successful 'appbundle build' is recorded in the history database
unless --no-history is given. Compare shows:
- Pages added, removed or changed since the previous build
- Requirements added or removed
- Whether the entry point changed

Examples:
  # Compare the latest two builds of the default app
  appbundle compare

  # Compare the latest build with a specific historical build
  appbundle compare --with-build-id 5 samples/my_app

  # List build history for an app
  appbundle compare --list samples/my_app

  # List every app in the database
  appbundle compare --list-apps

  # Output the comparison as Markdown
  appbundle compare --markdown`,
		Args: cobra.MaximumNArgs(1),
		RunE: runCompareCmd,
	}

	// History listing flags
	cmd.Flags().BoolP("list", "l", false,
		"List build history for the app")
	cmd.Flags().BoolP("list-apps", "L", false,
		"List all apps in the database")
	cmd.Flags().Bool("clear", false,
		"Delete the recorded build history for the app")

	// Comparison target flags
	cmd.Flags().Int64P("with-build-id", "i", 0,
		"Compare the latest build with a specific build by ID (use --list to see available IDs)")

	// Output format flags
	cmd.Flags().BoolP("json", "j", false,
		"Output comparison result in JSON format")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output comparison result in Markdown format")

	cmd.Flags().String("db-dir", config.XDGDataDir(),
		"History database directory")

	cmd.MarkFlagsMutuallyExclusive("json", "markdown")
	cmd.MarkFlagsMutuallyExclusive("list", "list-apps", "clear")

	return cmd
}

// runCompareCmd executes the compare command.
func runCompareCmd(cmd *cobra.Command, args []string) error {
	logger := setupLogger(cmd)
	flags := cmd.Flags()

	listApps, err := flags.GetBool("list-apps")
	if err != nil {
		return err
	}

	appDir := config.DefaultAppDir
	if len(args) > 0 {
		appDir = args[0]
	}
	appDir, err = filepath.Abs(appDir)
	if err != nil {
		return fmt.Errorf("invalid app directory: %w", err)
	}

	dbDir, err := flags.GetString("db-dir")
	if err != nil {
		return err
	}

	db, err := database.Open(dbDir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		if cerr := db.Close(); cerr != nil {
			logger.Warn("failed to close history database", "error", cerr)
		}
	}()

	ctx, cancel := signalContext(cmd.Context(), logger)
	defer cancel()
	out := cmd.OutOrStdout()

	if listApps {
		return listRecordedApps(ctx, out, db)
	}

	listHistory, err := flags.GetBool("list")
	if err != nil {
		return err
	}
	if listHistory {
		return listBuildHistory(ctx, out, db, appDir)
	}

	clearHistory, err := flags.GetBool("clear")
	if err != nil {
		return err
	}
	if clearHistory {
		n, err := db.DeleteHistory(ctx, appDir)
		if err != nil {
			return fmt.Errorf("failed to delete build history: %w", err)
		}
		fmt.Fprintf(out, "Deleted %d recorded builds for %s\n", n, appDir)
		return nil
	}

	withBuildID, err := flags.GetInt64("with-build-id")
	if err != nil {
		return err
	}
	jsonOutput, err := flags.GetBool("json")
	if err != nil {
		return err
	}
	markdownOutput, err := flags.GetBool("markdown")
	if err != nil {
		return err
	}

	comparison, err := compareBuilds(ctx, db, appDir, withBuildID)
	if err != nil {
		return err
	}

	switch {
	case jsonOutput:
		return report.WriteComparisonJSON(out, comparison)
	case markdownOutput:
		return report.WriteComparisonMarkdown(out, comparison)
	default:
		return report.WriteComparisonText(out, comparison)
	}
}

// listRecordedApps lists every app that has recorded builds.
func listRecordedApps(ctx context.Context, out io.Writer, db *database.HistoryDB) error {
	apps, err := db.ListApps(ctx)
	if err != nil {
		return fmt.Errorf("failed to list apps: %w", err)
	}

	if len(apps) == 0 {
		fmt.Fprintln(out, "No recorded builds found in the database.")
		fmt.Fprintln(out, "\nUse 'appbundle build' to bundle an app.")
		return nil
	}

	fmt.Fprintf(out, "Recorded apps (%d):\n\n", len(apps))
	for _, app := range apps {
		fmt.Fprintf(out, "  • %s\n", app)
	}
	fmt.Fprintln(out, "\nUse 'appbundle compare --list <app-dir>' to see build history for an app.")

	return nil
}

// listBuildHistory lists the recorded builds of one app, newest first.
func listBuildHistory(ctx context.Context, out io.Writer, db *database.HistoryDB, appDir string) error {
	records, err := db.GetBuildHistoryMetadata(ctx, appDir)
	if err != nil {
		return fmt.Errorf("failed to get build history: %w", err)
	}

	if len(records) == 0 {
		fmt.Fprintf(out, "No build history found for %s\n", appDir)
		return nil
	}

	fmt.Fprintf(out, "Build history for %s (%d builds):\n\n", appDir, len(records))
	fmt.Fprintf(out, "  %-6s  %-20s  %-12s  %5s  %5s\n", "ID", "Date", "Digest", "Reqs", "Pages")
	fmt.Fprintln(out, "  "+strings.Repeat("-", 56))

	for _, rec := range records {
		fmt.Fprintf(out, "  %-6d  %-20s  %-12s  %5d  %5d\n",
			rec.ID,
			rec.Timestamp.Local().Format("2006-01-02 15:04:05"),
			shortDigest(rec.Digest),
			rec.RequirementCount,
			rec.PageCount,
		)
	}

	fmt.Fprintln(out, "\nUse 'appbundle compare <app-dir>' to compare the latest two builds.")
	fmt.Fprintln(out, "Use 'appbundle compare --with-build-id <id> <app-dir>' to compare with a specific build.")

	return nil
}

// compareBuilds compares the latest build of appDir with the previous one,
// or with the build withBuildID when it is non-zero.
func compareBuilds(ctx context.Context, db *database.HistoryDB, appDir string, withBuildID int64) (*report.Comparison, error) {
	history, err := db.GetBuildHistory(ctx, appDir)
	if err != nil {
		return nil, fmt.Errorf("failed to get build history: %w", err)
	}

	if len(history) == 0 {
		return nil, fmt.Errorf("no recorded builds for %s", appDir)
	}
	current := history[0]

	var previous *model.BuildRecord
	if withBuildID != 0 {
		previous, err = db.GetBuildByID(ctx, withBuildID)
		if err != nil {
			return nil, fmt.Errorf("failed to get build %d: %w", withBuildID, err)
		}
		if previous.AppDir != appDir {
			return nil, fmt.Errorf("build %d belongs to %s, not %s", withBuildID, previous.AppDir, appDir)
		}
	} else {
		if len(history) < 2 {
			return nil, fmt.Errorf("%w: %s has %d", errTooFewBuilds, appDir, len(history))
		}
		previous = history[1]
	}

	return report.NewComparison(previous, current), nil
}

// shortDigest abbreviates a digest for tables.
func shortDigest(digest string) string {
	const n = 12
	if len(digest) <= n {
		return digest
	}
	return digest[:n]
}
