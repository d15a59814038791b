package cli

import (
	"fmt"

	"github.com/CDFER/cd-fer-kicad-repository/internal/updater"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// NewStampCmd creates the stamp command
func NewStampCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stamp",
		Short: "Only update the timestamp in repository.json",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := loadConfig(cmd, v, false)
			if err != nil {
				return err
			}

			if config.DryRun {
				logrus.Infof("Dry run: would stamp %s", config.RepositoryFile)
				return nil
			}

			if err := updater.New(config, nil, nil, nil).Stamp(); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Stamped %s\n", config.RepositoryFile)
			return nil
		},
	}

	addManifestFlags(cmd)

	return cmd
}
