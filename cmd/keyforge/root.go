// Package main implements the keyforge CLI: local validate and generate
// runs, board listing, and the background-job server.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"keyforge/internal/ctxlog"
)

var (
	flagLogLevel  string
	flagLogFormat string
)

var rootCmd = &cobra.Command{
	Use:           "keyforge",
	Short:         "Turn keyboard layouts into firmware source",
	Long:          "keyforge validates user-authored keyboard layouts against a board's physical geometry and generates firmware source artifacts.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&flagLogFormat, "log-format", "text", "log format: text or json")
}

// cliContext builds the context every command runs under, with a logger
// configured from the persistent flags.
func cliContext() context.Context {
	var level slog.Level
	switch flagLogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if flagLogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	return ctxlog.WithLogger(context.Background(), slog.New(handler))
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		// Validation failures already printed their report; other errors
		// have not been shown yet.
		if err != errReportPrinted {
			rootCmd.PrintErrln("Error:", err)
		}
		os.Exit(1)
	}
}
