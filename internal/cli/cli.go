// Package cli provides the command-line interface for myhealth.
package cli

import (
	"alcyxob/myhealth/internal/app"
	"alcyxob/myhealth/internal/config"
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "myhealth",
	Short: "Local-first workout and body weight tracker",
	Long: `Local-first workout and body weight tracker

Workouts, routines, history and body weight are stored locally first and
synced to the configured remote store when signed in.

Configuration is read from config.yaml in the --config directory, an optional
.env file next to it, and environment variables (STORE_DRIVER, REMOTE_URI, ...).`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", ".", "directory holding config.yaml and .env")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(weightCmd)
}

// Execute runs the CLI.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// openApp loads the configuration and assembles the application.
// The caller must Close it.
func openApp(ctx context.Context) (*app.App, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	a, err := app.Build(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("initialize app: %w", err)
	}
	return a, nil
}
