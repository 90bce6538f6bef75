package main

import (
	"github.com/spf13/cobra"

	"keyforge/internal/validate"
)

var flagStrict bool

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a layout against a board's geometry",
	RunE:  runValidate,
}

func init() {
	validateCmd.Flags().StringVar(&flagLayout, "layout", "", "path to the layout file")
	validateCmd.Flags().StringVar(&flagBoard, "board", "", "board id")
	validateCmd.Flags().StringVar(&flagVariant, "variant", "", "layout variant")
	validateCmd.Flags().StringVar(&flagBoardsDir, "boards-dir", "boards", "directory with board geometry files")
	validateCmd.Flags().BoolVar(&flagStrict, "strict", false, "treat warnings as failures")
	_ = validateCmd.MarkFlagRequired("layout")
	_ = validateCmd.MarkFlagRequired("board")
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	doc, mapping, resolver, err := preparePipeline()
	if err != nil {
		return err
	}

	report := validate.Validate(doc, mapping, resolver)
	cmd.Print(report.Format())

	if !report.Valid() {
		return errReportPrinted
	}
	if flagStrict && len(report.Warnings) > 0 {
		return errReportPrinted
	}
	return nil
}
