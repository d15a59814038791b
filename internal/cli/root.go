package cli

import (
	"fmt"
	"strings"

	"github.com/CDFER/cd-fer-kicad-repository/internal/models"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes the environment variables read for configuration
const EnvPrefix = "KICAD_REPO"

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	rootCmd := &cobra.Command{
		Use:   "kicad-repo-sync",
		Short: "Keep a KiCad package repository in sync with its GitHub releases",
		Long: `kicad-repo-sync records every new GitHub release of a library in a KiCad
Plugin and Content Manager repository.

For each release not yet listed in packages.json it downloads the release
archive, computes its SHA-256 and download/install sizes, reads the status
and kicad_version from its metadata.json and prepends a version entry.
Finally repository.json is stamped with the current update time.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Setup logging
			verbose, _ := cmd.Flags().GetBool("verbose")
			if verbose {
				logrus.SetLevel(logrus.DebugLevel)
			} else {
				logrus.SetLevel(logrus.InfoLevel)
			}

			configFile, _ := cmd.Flags().GetString("config")
			if configFile == "" {
				return nil
			}

			v.SetConfigFile(configFile)
			if err := v.ReadInConfig(); err != nil {
				return models.NewError(models.ErrInvalidConfig, configFile, fmt.Errorf("failed to read config: %w", err))
			}
			logrus.Debugf("Using config file %s", v.ConfigFileUsed())
			return nil
		},
	}

	// Global flags
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().String("config", "", "Config file (YAML, JSON or TOML)")

	// Add subcommands
	rootCmd.AddCommand(NewSyncCmd(v))
	rootCmd.AddCommand(NewStampCmd(v))

	return rootCmd
}
