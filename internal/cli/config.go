package cli

import (
	"errors"

	"github.com/CDFER/cd-fer-kicad-repository/internal/models"
	"github.com/CDFER/cd-fer-kicad-repository/internal/releases"
	"github.com/CDFER/cd-fer-kicad-repository/internal/updater"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Defaults of the upstream repository
const (
	DefaultOwner = "CDFER"
	DefaultRepo  = "JLCPCB-Kicad-Library"
)

func addManifestFlags(cmd *cobra.Command) {
	cmd.Flags().String("packages-file", "packages.json", "Path to the package manifest")
	cmd.Flags().String("repository-file", "repository.json", "Path to the repository descriptor")
	cmd.Flags().Bool("dry-run", false, "Report changes without writing any file")
}

func addSyncFlags(cmd *cobra.Command) {
	// Upstream flags
	cmd.Flags().String("owner", DefaultOwner, "GitHub owner of the upstream repository")
	cmd.Flags().String("repo", DefaultRepo, "GitHub name of the upstream repository")
	cmd.Flags().String("token", "", "GitHub token (raises the API rate limit)")
	cmd.Flags().String("user-agent", releases.DefaultUserAgent, "User-Agent sent to the GitHub API")
	cmd.Flags().String("api-url", "", "GitHub API base URL (defaults to api.github.com)")

	// Asset flags
	cmd.Flags().String("asset-prefix", updater.DefaultAssetPrefix, "Name prefix of the release archive")
	cmd.Flags().String("asset-suffix", updater.DefaultAssetSuffix, "Name suffix of the release archive")
	cmd.Flags().String("temp-dir", "", "Directory for downloads (defaults to the system temp dir)")
	cmd.Flags().Duration("http-timeout", 0, "Timeout of each HTTP request (0 for none)")

	// GPG signing flags
	cmd.Flags().StringP("gpg-key", "k", "", "Path to GPG private key used to sign packages.json")
	cmd.Flags().StringP("gpg-passphrase", "p", "", "GPG key passphrase")
}

// loadConfig resolves the configuration of cmd from its flags, the
// environment and the config file, in that order of precedence
func loadConfig(cmd *cobra.Command, v *viper.Viper, upstream bool) (*models.SyncConfig, error) {
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return nil, models.NewError(models.ErrInvalidConfig, cmd.Name(), err)
	}

	config := &models.SyncConfig{
		PackagesFile:   v.GetString("packages-file"),
		RepositoryFile: v.GetString("repository-file"),
		Owner:          v.GetString("owner"),
		Repo:           v.GetString("repo"),
		Token:          v.GetString("token"),
		UserAgent:      v.GetString("user-agent"),
		APIURL:         v.GetString("api-url"),
		AssetPrefix:    v.GetString("asset-prefix"),
		AssetSuffix:    v.GetString("asset-suffix"),
		TempDir:        v.GetString("temp-dir"),
		HTTPTimeout:    v.GetDuration("http-timeout"),
		GPGKeyPath:     v.GetString("gpg-key"),
		GPGPassphrase:  v.GetString("gpg-passphrase"),
		DryRun:         v.GetBool("dry-run"),
	}

	if err := validateConfig(config, upstream); err != nil {
		return nil, err
	}
	return config, nil
}

func validateConfig(config *models.SyncConfig, upstream bool) error {
	if config.PackagesFile == "" {
		return invalidConfig("packages-file is required")
	}

	if config.RepositoryFile == "" {
		return invalidConfig("repository-file is required")
	}

	if config.HTTPTimeout < 0 {
		return invalidConfig("http-timeout must not be negative")
	}

	if !upstream {
		return nil
	}

	if config.Owner == "" {
		return invalidConfig("owner is required")
	}

	if config.Repo == "" {
		return invalidConfig("repo is required")
	}

	// Asset naming falls back to the library's release convention
	if config.AssetPrefix == "" && config.AssetSuffix == "" {
		config.AssetPrefix = updater.DefaultAssetPrefix
		config.AssetSuffix = updater.DefaultAssetSuffix
	}

	if config.UserAgent == "" {
		config.UserAgent = releases.DefaultUserAgent
	}

	return nil
}

func invalidConfig(msg string) error {
	return models.NewError(models.ErrInvalidConfig, "", errors.New(msg))
}
