package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/nao1215/appbundle/internal/memo"
	"github.com/nao1215/appbundle/internal/replay"
	"github.com/nao1215/appbundle/internal/report"
	"github.com/spf13/cobra"
)

// errNotDeduplicated is returned when a repeated display call rendered twice.
var errNotDeduplicated = errors.New("repeated display calls were not served from the cache")

// NewReplayCmd creates the replay command.
func NewReplayCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Run the cached image display demo",
		Long: `Replay displays a set of generated images through a memoizing cache.

Each display function is called twice. The second call is answered from
the cache, so the page ends up with exactly one element per function:
- A 100x100 black raster with a caption
- An inline SVG circle
- A 64x64 animated GIF of a circle moving down the diagonal
- A remote image reference

Examples:
  # Show the rendered elements and cache statistics
  appbundle replay

  # Write the generated PNG, GIF and SVG files to a directory
  appbundle replay --assets-dir ./replay-assets

  # Output as JSON
  appbundle replay --json`,
		Args: cobra.NoArgs,
		RunE: runReplayCmd,
	}

	cmd.Flags().BoolP("json", "j", false,
		"Output the replay report in JSON format")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output the replay report in Markdown format")
	cmd.Flags().String("assets-dir", "",
		"Write the generated image files to this directory")

	cmd.MarkFlagsMutuallyExclusive("json", "markdown")

	return cmd
}

// runReplayCmd executes the replay command.
func runReplayCmd(cmd *cobra.Command, _ []string) error {
	logger := setupLogger(cmd)
	flags := cmd.Flags()

	jsonOutput, err := flags.GetBool("json")
	if err != nil {
		return err
	}
	markdownOutput, err := flags.GetBool("markdown")
	if err != nil {
		return err
	}
	assetsDir, err := flags.GetString("assets-dir")
	if err != nil {
		return err
	}

	assets, err := replay.NewAssets()
	if err != nil {
		return fmt.Errorf("failed to generate assets: %w", err)
	}

	if assetsDir != "" {
		if err := os.MkdirAll(assetsDir, 0750); err != nil {
			return fmt.Errorf("failed to create assets directory: %w", err)
		}
		paths, err := assets.WriteFiles(assetsDir)
		if err != nil {
			return fmt.Errorf("failed to write assets: %w", err)
		}
		for _, p := range paths {
			logger.Info("wrote asset", "path", p)
		}
	}

	ctx, cancel := signalContext(cmd.Context(), logger)
	defer cancel()

	demo := replay.NewDemo(assets, memo.New(), replay.WithDemoLogger(logger))
	result, err := demo.Run(ctx, replay.NewPage())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch {
	case jsonOutput:
		err = report.WriteReplayJSON(out, result)
	case markdownOutput:
		err = report.WriteReplayMarkdown(out, result)
	default:
		err = report.WriteReplayText(out, result)
	}
	if err != nil {
		return err
	}

	if !result.Deduplicated() {
		return errNotDeduplicated
	}
	return nil
}
