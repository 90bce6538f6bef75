package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"keyforge/internal/keycode"
)

var keycodesCmd = &cobra.Command{
	Use:   "keycodes",
	Short: "Look up keycodes",
}

var keycodesSearchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Fuzzy-search the keycode database",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		resolver, err := keycode.NewBuiltinResolver()
		if err != nil {
			return err
		}
		results := resolver.Search(args[0])
		if len(results) == 0 {
			cmd.Println("no matches")
			return nil
		}
		for _, c := range results {
			cmd.Println(fmt.Sprintf("%-20s %s", c.Name, c.Description))
		}
		return nil
	},
}

var keycodesDescribeCmd = &cobra.Command{
	Use:   "describe <token>",
	Short: "Explain what a keycode token does",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		resolver, err := keycode.NewBuiltinResolver()
		if err != nil {
			return err
		}
		desc, ok := resolver.Describe(args[0])
		if !ok {
			return fmt.Errorf("unknown keycode token %q", args[0])
		}
		cmd.Println(desc)
		return nil
	},
}

func init() {
	keycodesCmd.AddCommand(keycodesSearchCmd, keycodesDescribeCmd)
	rootCmd.AddCommand(keycodesCmd)
}
