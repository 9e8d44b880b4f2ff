package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"urlindex.local/internal/app/urlbatch"
)

type parseOutput struct {
	URLs           []string             `json:"urls"`
	Records        []urlbatch.URLRecord `json:"records"`
	CorrectedInput string               `json:"corrected_input"`
	HasErrors      bool                 `json:"has_errors"`
	InvalidLines   []string             `json:"invalid_lines"`
}

func newParseCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "parse [file]",
		Short: "Classify every line and list the extracted URLs",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			res := urlbatch.Parse(raw)
			out := cmd.OutOrStdout()

			if opts.output == "json" {
				return writeJSON(out, parseOutput{
					URLs:           res.URLs,
					Records:        res.Records,
					CorrectedInput: res.CorrectedInput,
					HasErrors:      res.HasErrors,
					InvalidLines:   res.InvalidLines,
				})
			}

			for _, l := range res.Lines {
				if l.Line.Blank() {
					continue
				}
				fmt.Fprintf(out, "%4d  %-22s %s\n", l.Line.Index+1, l.Outcome, l.Line.Text)
			}
			fmt.Fprintf(out, "\n%d URL(s) extracted\n", len(res.URLs))
			if res.HasErrors {
				fmt.Fprintln(out, urlbatch.FormatInvalidLines(res.InvalidLines, urlbatch.DefaultInvalidLinesShown))
			}
			return nil
		},
	}
}
