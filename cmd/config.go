package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/marcus-crane/lure/config"
	"github.com/marcus-crane/lure/utils"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Work with lure configuration files",
}

var configGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Print an example configuration file",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Default()
		cfg.Enable = string(config.LastFM)
		return writeYAML(cmd, cfg)
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the configuration lure would run with, secrets hidden",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if err := writeYAML(cmd, cfg.Redacted()); err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "\nThis configuration is not valid:\n%s\n", err)
		}
		return nil
	},
}

func writeYAML(cmd *cobra.Command, cfg config.Config) error {
	enc := yaml.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return enc.Close()
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configGenerateCmd)
	configCmd.AddCommand(configShowCmd)
	configShowCmd.Flags().StringVarP(&configPath, "config", "c", utils.GetEnv("LURE_CONFIG", config.DefaultPath), "path of the lure config file")
}
