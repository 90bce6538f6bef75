package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"keyforge/internal/board"
)

var boardsCmd = &cobra.Command{
	Use:   "boards",
	Short: "List known boards",
	RunE:  runBoards,
}

func init() {
	boardsCmd.Flags().StringVar(&flagBoardsDir, "boards-dir", "boards", "directory with board geometry files")
	rootCmd.AddCommand(boardsCmd)
}

func runBoards(cmd *cobra.Command, args []string) error {
	registry, err := board.LoadRegistry(cliContext(), flagBoardsDir)
	if err != nil {
		return err
	}

	for _, geo := range registry.List() {
		cmd.Println(fmt.Sprintf("%-24s %s (%dx%d matrix, %d keys)",
			geo.Key(), geo.Name, geo.Rows, geo.Cols, len(geo.Keys)))
	}
	return nil
}
