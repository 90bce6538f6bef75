package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"keyforge/internal/board"
	"keyforge/internal/coords"
	"keyforge/internal/firmware"
	"keyforge/internal/keycode"
	"keyforge/internal/layout"
	"keyforge/internal/validate"
)

// errReportPrinted signals that the failure detail already went to the
// terminal as a formatted report.
var errReportPrinted = errors.New("validation failed")

var (
	flagLayout        string
	flagBoard         string
	flagVariant       string
	flagBoardsDir     string
	flagOut           string
	flagFormat        string
	flagDeterministic bool
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Validate a layout and generate firmware source",
	RunE:  runGenerate,
}

func init() {
	generateCmd.Flags().StringVar(&flagLayout, "layout", "", "path to the layout file")
	generateCmd.Flags().StringVar(&flagBoard, "board", "", "board id")
	generateCmd.Flags().StringVar(&flagVariant, "variant", "", "layout variant")
	generateCmd.Flags().StringVar(&flagBoardsDir, "boards-dir", "boards", "directory with board geometry files")
	generateCmd.Flags().StringVar(&flagOut, "out", ".", "output directory")
	generateCmd.Flags().StringVar(&flagFormat, "format", "both", "artifacts to emit: table-only, settings-only, or both")
	generateCmd.Flags().BoolVar(&flagDeterministic, "deterministic", false, "replace generated timestamps with a fixed placeholder")
	_ = generateCmd.MarkFlagRequired("layout")
	_ = generateCmd.MarkFlagRequired("board")
	rootCmd.AddCommand(generateCmd)
}

// preparePipeline resolves the board, builds the mapping, loads the layout,
// and constructs the resolver, the shared front half of generate and
// validate.
func preparePipeline() (*layout.Layout, *coords.Mapping, *keycode.BuiltinResolver, error) {
	ctx := cliContext()

	boards, err := board.LoadRegistry(ctx, flagBoardsDir)
	if err != nil {
		return nil, nil, nil, err
	}
	geo, err := boards.Resolve(flagBoard, flagVariant)
	if err != nil {
		return nil, nil, nil, err
	}
	doc, err := layout.Load(flagLayout)
	if err != nil {
		return nil, nil, nil, err
	}
	resolver, err := keycode.NewBuiltinResolver()
	if err != nil {
		return nil, nil, nil, err
	}

	mapping := coords.BuildLogged(ctx, geo.Keys, geo.Rows, geo.Cols)
	return doc, mapping, resolver, nil
}

func runGenerate(cmd *cobra.Command, args []string) error {
	format, ok := firmware.ParseFormat(flagFormat)
	if !ok {
		return fmt.Errorf("unknown format %q", flagFormat)
	}

	doc, mapping, resolver, err := preparePipeline()
	if err != nil {
		return err
	}

	report := validate.Validate(doc, mapping, resolver)
	if !report.Valid() {
		cmd.PrintErr(report.Format())
		return errReportPrinted
	}

	artifacts, err := firmware.Generate(doc, mapping, resolver, firmware.BuildSettings{
		Format:        format,
		Deterministic: flagDeterministic,
	})
	if err != nil {
		return err
	}

	if err := os.MkdirAll(flagOut, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	if artifacts.Keymap != nil {
		path := filepath.Join(flagOut, "keymap.c")
		if err := os.WriteFile(path, artifacts.Keymap, 0o644); err != nil {
			return err
		}
		cmd.Println("wrote", path)
	}
	if artifacts.Config != nil {
		path := filepath.Join(flagOut, "config.h")
		if err := os.WriteFile(path, artifacts.Config, 0o644); err != nil {
			return err
		}
		cmd.Println("wrote", path)
	}
	return nil
}
