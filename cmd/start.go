package cmd

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/marcus-crane/lure/config"
	"github.com/marcus-crane/lure/relay"
	"github.com/marcus-crane/lure/utils"
)

var configPath string

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start relaying your listening status",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		logger := newLogger(cfg, cmd.ErrOrStderr())
		slog.SetDefault(logger)

		return relay.Run(context.Background(), cfg, logger)
	},
}

func init() {
	rootCmd.AddCommand(startCmd)
	startCmd.Flags().StringVarP(&configPath, "config", "c", utils.GetEnv("LURE_CONFIG", config.DefaultPath), "path of the lure config file")
}
