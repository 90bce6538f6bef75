package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"keyforge/internal/app"
	"keyforge/internal/config"
)

var flagConfig string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the background-job server",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&flagConfig, "config", "keyforge.hcl", "path to the server configuration file")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadFile(flagConfig)
	if err != nil {
		return err
	}
	// Persistent flags override the file.
	if cmd.Root().PersistentFlags().Changed("log-level") || cfg.LogLevel == "" {
		cfg.LogLevel = flagLogLevel
	}
	if cmd.Root().PersistentFlags().Changed("log-format") || cfg.LogFormat == "" {
		cfg.LogFormat = flagLogFormat
	}

	a, err := app.New(cfg, os.Stderr)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return a.Run(ctx)
}
