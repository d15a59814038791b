package cli

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/CDFER/cd-fer-kicad-repository/internal/models"
	"github.com/CDFER/cd-fer-kicad-repository/internal/processor"
	"github.com/CDFER/cd-fer-kicad-repository/internal/releases"
	"github.com/CDFER/cd-fer-kicad-repository/internal/signer"
	"github.com/CDFER/cd-fer-kicad-repository/internal/updater"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// NewSyncCmd creates the sync command
func NewSyncCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Record new upstream releases and stamp the repository",
		Long: `Fetches the releases of the upstream GitHub repository, adds a version
entry to packages.json for every release that is not recorded yet and
updates the timestamp in repository.json.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := loadConfig(cmd, v, true)
			if err != nil {
				return err
			}

			logrus.Info("Starting repository sync...")
			logrus.Debugf("Upstream %s/%s, assets %s*%s, manifest %s",
				config.Owner, config.Repo, config.AssetPrefix, config.AssetSuffix, config.PackagesFile)

			return runSync(cmd.Context(), cmd.OutOrStdout(), config)
		},
	}

	addManifestFlags(cmd)
	addSyncFlags(cmd)

	return cmd
}

func runSync(ctx context.Context, out io.Writer, config *models.SyncConfig) error {
	client := &http.Client{Timeout: config.HTTPTimeout}

	// Step 1: Release source
	opts := []releases.GitHubOption{
		releases.WithUserAgent(config.UserAgent),
		releases.WithToken(config.Token),
	}
	if config.APIURL != "" {
		opts = append(opts, releases.WithBaseURL(config.APIURL))
	}

	source, err := releases.NewGitHubSource(client, config.Owner, config.Repo, opts...)
	if err != nil {
		return err
	}

	// Step 2: Optional signer
	var s signer.Signer
	if config.GPGKeyPath != "" {
		gpgSigner, err := signer.NewGPGSigner(config.GPGKeyPath, config.GPGPassphrase)
		if err != nil {
			return models.NewError(models.ErrSigning, config.GPGKeyPath,
				fmt.Errorf("failed to initialize GPG signer: %w", err))
		}
		s = gpgSigner
		logrus.Info("GPG signer initialized")
	}

	// Step 3: Run
	u := updater.New(config, source, processor.NewAssetProcessor(client, config.TempDir), s)
	result, err := u.Run(ctx)
	if err != nil {
		return err
	}

	if len(result.Skipped) > 0 {
		logrus.Warnf("%d versions could not be processed and will be retried: %v", len(result.Skipped), result.Skipped)
	}

	verb := "Updated"
	if config.DryRun {
		verb = "Dry run:"
	}
	fmt.Fprintf(out, "%s %s with %d new versions %v\n", verb, config.PackagesFile, len(result.Added), result.Added)
	return nil
}
