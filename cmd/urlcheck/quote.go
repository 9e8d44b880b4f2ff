package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"urlindex.local/internal/app/urlbatch"
)

var errNotEligible = errors.New("batch cannot be submitted")

type quoteOutput struct {
	UniqueURLs     int                        `json:"unique_urls"`
	DuplicateCount int                        `json:"duplicate_count"`
	Quote          urlbatch.CreditQuote       `json:"quote"`
	Eligibility    urlbatch.EligibilityResult `json:"eligibility"`
}

func newQuoteCmd(opts *rootOptions) *cobra.Command {
	var available int
	cmd := &cobra.Command{
		Use:   "quote [file]",
		Short: "Show the credit quote and whether the batch could be submitted",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			prep := urlbatch.Prepare(raw, available, false, opts.policy())
			out := cmd.OutOrStdout()

			if opts.output == "json" {
				if err := writeJSON(out, quoteOutput{
					UniqueURLs:     len(prep.Dedup.Unique),
					DuplicateCount: prep.Dedup.DuplicateCount,
					Quote:          prep.Quote,
					Eligibility:    prep.Eligibility,
				}); err != nil {
					return err
				}
			} else {
				fmt.Fprintf(out, "unique URLs:     %d\n", len(prep.Dedup.Unique))
				fmt.Fprintf(out, "duplicates:      %d\n", prep.Dedup.DuplicateCount)
				fmt.Fprintf(out, "credits:         %d required, %d available\n", prep.Quote.Required, prep.Quote.Available)
				if prep.Eligibility.CanSubmit {
					fmt.Fprintln(out, "status:          ready to submit")
				} else {
					fmt.Fprintf(out, "status:          blocked (%s)\n", strings.Join(prep.Eligibility.BlockingReasons, "; "))
				}
			}
			if !prep.Eligibility.CanSubmit {
				return errNotEligible
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&available, "available", 0, "credits available to the submitting user")
	return cmd
}
