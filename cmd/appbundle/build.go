package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/nao1215/appbundle/internal/config"
	"github.com/nao1215/appbundle/internal/database"
	"github.com/nao1215/appbundle/internal/model"
	"github.com/nao1215/appbundle/internal/pipeline"
	"github.com/nao1215/appbundle/internal/report"
	"github.com/spf13/cobra"
)

// errNoPresets is returned by --all when the config file defines no apps.
var errNoPresets = errors.New("no app presets defined in the configuration file")

// NewBuildCmd creates the build command.
func NewBuildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Bundle an app into a JSON manifest",
		Long: `Build reads an app's requirements, entry point and pages and writes them
as a single JSON manifest.

Requirements the host environment already provides (streamlit, numpy,
matplotlib, requests, pandas) are dropped. Every page script in the pages
directory is stored as a list of lines under "pages/<name>".

Examples:
  # Bundle the component gallery sample from the repository root
  appbundle build

  # Bundle another app
  appbundle build --app-dir samples/my_app -o my_app.json

  # Drop an extra dependency
  appbundle build -e altair

  # Bundle a preset from the config file, or all of them
  appbundle build --app component_gallery
  appbundle build --all

  # Print a Markdown summary of the bundle
  appbundle build -s -m

  # Keep a JSON summary next to the manifest
  appbundle build --summary-file summary.json`,
		Args: cobra.NoArgs,
		RunE: runBuildCmd,
	}

	// Input flags
	cmd.Flags().String("app-dir", config.DefaultAppDir,
		"App root directory")
	cmd.Flags().String("entrypoint", config.DefaultEntrypointFile,
		"Entry point script, relative to the app directory")
	cmd.Flags().String("pages-dir", config.DefaultPagesDir,
		"Pages directory, relative to the app directory")
	cmd.Flags().String("requirements", config.DefaultRequirementsFile,
		"Requirements file, relative to the app directory")
	cmd.Flags().StringArrayP("exclude", "e", nil,
		"Additional dependency to drop from requirements (repeatable)")
	cmd.Flags().IntP("workers", "w", config.DefaultWorkers,
		"Number of pages read concurrently")

	// Output flags
	cmd.Flags().StringP("output", "o", config.DefaultOutputPath,
		"Manifest output path")
	cmd.Flags().BoolP("summary", "s", false,
		"Print a bundle summary after writing the manifest")
	cmd.Flags().BoolP("markdown", "m", false,
		"Render the summary as Markdown (requires --summary)")
	cmd.Flags().String("summary-file", "",
		"Also write the bundle summary as JSON to this file")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .appbundle in current or home directory)")
	cmd.Flags().String("app", "",
		"Build the named app preset from the configuration file")
	cmd.Flags().Bool("all", false,
		"Build every app preset from the configuration file")

	// History flags
	cmd.Flags().Bool("no-history", false,
		"Do not record the build in the history database")
	cmd.Flags().String("db-dir", config.XDGDataDir(),
		"History database directory")

	cmd.MarkFlagsMutuallyExclusive("app", "all")

	return cmd
}

// runBuildCmd executes the build command.
func runBuildCmd(cmd *cobra.Command, _ []string) error {
	logger := setupLogger(cmd)

	jobs, err := buildJobs(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext(cmd.Context(), logger)
	defer cancel()

	var history *database.HistoryDB
	if jobs[0].Config.SaveHistory {
		history, err = database.Open(jobs[0].Config.DBDir, database.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open history database: %w", err)
		}
		defer func() {
			if cerr := history.Close(); cerr != nil {
				logger.Warn("failed to close history database", "error", cerr)
			}
		}()
	}

	b := &builder{
		out:     cmd.OutOrStdout(),
		logger:  logger,
		history: history,
	}

	if len(jobs) == 1 {
		return b.buildOne(ctx, jobs[0].Config)
	}
	return b.buildAll(ctx, jobs)
}

// buildJobs creates one job per app to build from the command flags and the
// configuration file.
func buildJobs(cmd *cobra.Command) ([]pipeline.BatchJob, error) {
	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	file, err := loadConfigFile(configPath)
	if err != nil {
		return nil, err
	}

	all, err := cmd.Flags().GetBool("all")
	if err != nil {
		return nil, err
	}
	appName, err := cmd.Flags().GetString("app")
	if err != nil {
		return nil, err
	}

	var presets []string
	switch {
	case all:
		presets = file.AppNames()
		if len(presets) == 0 {
			return nil, errNoPresets
		}
	case appName != "":
		presets = []string{appName}
	default:
		presets = []string{""}
	}

	jobs := make([]pipeline.BatchJob, 0, len(presets))
	for _, name := range presets {
		cfg, err := buildConfig(cmd, file, name)
		if err != nil {
			return nil, err
		}
		cfg.ConfigFilePath = configPath
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("configuration error: %w", err)
		}
		jobs = append(jobs, pipeline.BatchJob{Name: name, Config: cfg})
	}
	return jobs, nil
}

// loadConfigFile finds and loads the configuration file.
// An explicitly given path must exist; otherwise a missing file yields nil.
func loadConfigFile(configPath string) (*config.File, error) {
	found := config.FindConfigFile(configPath)
	if found == "" {
		if configPath != "" {
			return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, configPath)
		}
		return nil, nil
	}

	file, err := config.LoadConfigFile(found)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration file %s: %w", found, err)
	}
	return file, nil
}

// buildConfig creates a Config for the named preset ("" for none).
// Precedence is defaults, then the config file, then the preset, then flags
// the user set explicitly.
func buildConfig(cmd *cobra.Command, file *config.File, preset string) (*config.Config, error) {
	cfg := config.NewConfig()
	cfg.ApplyFile(file)

	if preset != "" {
		app, err := file.GetApp(preset)
		if err != nil {
			return nil, err
		}
		cfg.ApplyApp(app)
	}

	flags := cmd.Flags()
	stringFlags := map[string]*string{
		"app-dir":      &cfg.AppDir,
		"entrypoint":   &cfg.EntrypointFile,
		"pages-dir":    &cfg.PagesDir,
		"requirements": &cfg.RequirementsFile,
		"output":       &cfg.OutputPath,
		"summary-file": &cfg.SummaryFile,
		"db-dir":       &cfg.DBDir,
	}
	for name, dst := range stringFlags {
		if !flags.Changed(name) {
			continue
		}
		v, err := flags.GetString(name)
		if err != nil {
			return nil, err
		}
		*dst = v
	}

	if flags.Changed("workers") {
		workers, err := flags.GetInt("workers")
		if err != nil {
			return nil, err
		}
		cfg.Workers = workers
	}

	exclude, err := flags.GetStringArray("exclude")
	if err != nil {
		return nil, err
	}
	cfg.AddExclusions(exclude...)

	if cfg.PrintSummary, err = flags.GetBool("summary"); err != nil {
		return nil, err
	}
	if cfg.MarkdownSummary, err = flags.GetBool("markdown"); err != nil {
		return nil, err
	}
	noHistory, err := flags.GetBool("no-history")
	if err != nil {
		return nil, err
	}
	cfg.SaveHistory = !noHistory
	cfg.Verbose = getVerboseFlag(cmd)

	return cfg, nil
}

// builder runs builds and writes their results.
type builder struct {
	out     io.Writer
	logger  *slog.Logger
	history *database.HistoryDB

	// mu serializes writes to out.
	mu sync.Mutex
}

// printf writes a line to the console.
func (b *builder) printf(format string, args ...any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	fmt.Fprintf(b.out, format, args...)
}

// progress returns a progress callback printing each file read.
// In batch mode lines are prefixed with the app name.
func (b *builder) progress(prefix string) pipeline.ProgressFunc {
	return func(ev pipeline.ProgressEvent) {
		if prefix != "" {
			b.printf("[%s] %s\n", prefix, ev)
			return
		}
		b.printf("%s\n", ev)
	}
}

// buildOne builds a single app.
func (b *builder) buildOne(ctx context.Context, cfg *config.Config) error {
	p := pipeline.DefaultPipeline(cfg,
		pipeline.WithLogger(b.logger),
		pipeline.WithProgress(b.progress("")),
	)

	manifest, err := p.Build(ctx)
	if err != nil {
		return fmt.Errorf("failed to build %s: %w", cfg.AppDir, err)
	}
	return b.finish(ctx, cfg, manifest)
}

// buildAll builds every job concurrently and reports each result in job
// order. A failing app does not stop the others.
func (b *builder) buildAll(ctx context.Context, jobs []pipeline.BatchJob) error {
	names := make(map[*config.Config]string, len(jobs))
	for _, job := range jobs {
		names[job.Config] = job.Name
	}

	bp := pipeline.NewBatchProcessor(
		func(cfg *config.Config) *pipeline.Pipeline {
			return pipeline.DefaultPipeline(cfg,
				pipeline.WithLogger(b.logger),
				pipeline.WithProgress(b.progress(names[cfg])),
			)
		},
		pipeline.WithBatchLogger(b.logger),
	)

	results, err := bp.ProcessBatch(ctx, jobs)
	if err != nil {
		return err
	}

	failed := 0
	for _, result := range results {
		if result.Err != nil {
			failed++
			b.logger.Error("build failed", "app", result.Job.Name, "error", result.Err)
			continue
		}
		if err := b.finish(ctx, result.Job.Config, result.Manifest); err != nil {
			failed++
			b.logger.Error("failed to write manifest", "app", result.Job.Name, "error", err)
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d apps failed to build", failed, len(jobs))
	}
	return nil
}

// finish writes the manifest, records the build and prints the summary.
func (b *builder) finish(ctx context.Context, cfg *config.Config, manifest *model.Manifest) error {
	if err := report.WriteManifestFile(cfg.OutputPath, manifest); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	b.printf("Added app to %s\n", cfg.OutputPath)

	unchanged, err := b.record(ctx, cfg, manifest)
	if err != nil {
		// The manifest is already written; history is best effort.
		b.logger.Warn("failed to record build", "error", err)
	}

	if unchanged && !cfg.PrintSummary {
		b.printf("Manifest unchanged since the previous build\n")
	}
	if !cfg.PrintSummary && cfg.SummaryFile == "" {
		return nil
	}

	summary, err := report.NewSummary(manifest, cfg.AppDir, cfg.OutputPath)
	if err != nil {
		return err
	}
	summary.Unchanged = unchanged

	b.mu.Lock()
	defer b.mu.Unlock()

	if cfg.SummaryFile == "" {
		_, err = b.consoleWriter(cfg).WriteSummary(summary)
	} else {
		err = report.WriteFileAtomic(cfg.SummaryFile, func(f io.Writer) error {
			writers := []report.Writer{report.NewJSONWriter(f, report.WithPrettyPrint())}
			if cfg.PrintSummary {
				writers = append(writers, b.consoleWriter(cfg))
			}
			_, err := report.NewMultiWriter(writers...).WriteSummary(summary)
			return err
		})
	}
	if err != nil {
		return fmt.Errorf("failed to write summary: %w", err)
	}
	return nil
}

// consoleWriter returns the summary writer for the terminal.
func (b *builder) consoleWriter(cfg *config.Config) report.Writer {
	if cfg.MarkdownSummary {
		return report.NewMarkdownWriter(b.out)
	}
	return report.NewSimpleWriter(b.out, report.WithVerbose(cfg.Verbose))
}

// record stores the build in the history database and reports whether the
// manifest matches the previous build of the same app.
func (b *builder) record(ctx context.Context, cfg *config.Config, manifest *model.Manifest) (bool, error) {
	if b.history == nil || !cfg.SaveHistory {
		return false, nil
	}

	appDir, err := filepath.Abs(cfg.AppDir)
	if err != nil {
		return false, err
	}

	previous, found, err := b.history.LatestDigest(ctx, appDir)
	if err != nil {
		return false, err
	}

	rec, err := model.NewBuildRecord(appDir, cfg.OutputPath, manifest)
	if err != nil {
		return false, err
	}
	if _, err := b.history.InsertBuild(ctx, rec); err != nil {
		return false, err
	}

	b.logger.Debug("recorded build", "app", appDir, "id", rec.ID, "digest", rec.Digest)
	return found && previous == rec.Digest, nil
}
