package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/nao1215/appbundle/internal/config"
	"github.com/nao1215/appbundle/internal/model"
	"github.com/nao1215/appbundle/internal/publish"
	"github.com/spf13/cobra"
)

// NewPublishCmd creates the publish command.
func NewPublishCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "publish <manifest> <destination>",
		Short: "Upload a manifest to S3-compatible object storage",
		Long: `Publish uploads a built manifest to an S3-compatible bucket.

The destination has the form s3+https://host/bucket[/prefix] (or
s3+http:// for plain-text endpoints such as a local MinIO). Credentials
are read from AWS_ACCESS_KEY_ID and AWS_SECRET_ACCESS_KEY.

The manifest is validated before upload against the script extension and
exclusion set of the configuration file (and --app preset, if given). When the stored object already
carries the same digest the upload is skipped.

Examples:
  # Upload to a bucket on AWS
  appbundle publish component_library_app.json s3+https://s3.amazonaws.com/samples/apps

  # Upload to a local MinIO, replacing the object even if unchanged
  appbundle publish --force app.json s3+http://localhost:9000/samples`,
		Args: cobra.ExactArgs(2),
		RunE: runPublishCmd,
	}

	cmd.Flags().BoolP("force", "f", false,
		"Upload even when the stored object has the same digest")
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .appbundle in current or home directory)")
	cmd.Flags().String("app", "",
		"Validate against the named app preset from the configuration file")

	return cmd
}

// runPublishCmd executes the publish command.
func runPublishCmd(cmd *cobra.Command, args []string) error {
	logger := setupLogger(cmd)

	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		return err
	}

	manifestPath := args[0]
	dest, err := publish.ParseS3URL(args[1])
	if err != nil {
		return err
	}

	cfg, err := publishConfig(cmd)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(manifestPath) //nolint:gosec // User-provided manifest path is intentional
	if err != nil {
		return fmt.Errorf("failed to read manifest: %w", err)
	}

	manifest, err := model.ParseManifest(data)
	if err != nil {
		return fmt.Errorf("invalid manifest %s: %w", manifestPath, err)
	}
	if err := manifest.Validate(cfg.Exclusions, cfg.ScriptExt); err != nil {
		return fmt.Errorf("invalid manifest %s: %w", manifestPath, err)
	}
	digest, err := manifest.Digest()
	if err != nil {
		return err
	}

	creds, err := publish.CredentialsFromEnv(os.Getenv)
	if err != nil {
		return err
	}
	client, err := publish.NewClient(dest, creds)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext(cmd.Context(), logger)
	defer cancel()

	publisher := publish.NewPublisher(client, dest,
		publish.WithForce(force),
		publish.WithLogger(logger),
	)
	result, err := publisher.Publish(ctx, filepath.Base(manifestPath), data, digest)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if result.Skipped {
		fmt.Fprintf(out, "Unchanged: %s/%s\n", result.Bucket, result.Key)
		return nil
	}
	fmt.Fprintf(out, "Published %s to %s/%s (%d bytes)\n", manifestPath, result.Bucket, result.Key, result.Size)
	return nil
}

// publishConfig loads the settings a manifest is validated against.
func publishConfig(cmd *cobra.Command) (*config.Config, error) {
	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	appName, err := cmd.Flags().GetString("app")
	if err != nil {
		return nil, err
	}

	file, err := loadConfigFile(configPath)
	if err != nil {
		return nil, err
	}

	cfg := config.NewConfig()
	cfg.ApplyFile(file)
	if appName != "" {
		app, err := file.GetApp(appName)
		if err != nil {
			return nil, err
		}
		cfg.ApplyApp(app)
	}
	return cfg, nil
}
