package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"urlindex.local/internal/app/urlbatch"
)

func newCleanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clean [file]",
		Short: "Drop every token that is not a URL and print the result",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), urlbatch.CleanInput(raw))
			return err
		},
	}
}
