package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"urlindex.local/internal/app/urlbatch"
)

type rootOptions struct {
	output         string
	maxURLsPerTask int
	creditsPerURL  int
}

func (o *rootOptions) policy() urlbatch.Policy {
	return urlbatch.Policy{MaxURLsPerTask: o.maxURLsPerTask, CreditsPerURL: o.creditsPerURL}
}

// newRootCmd 离线检查粘贴的 URL 文本，与 API 使用同一套引擎。
func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:   "urlcheck",
		Short: "Check a pasted block of URLs before submitting it as a task",
		Long: `urlcheck runs the batch engine offline: it splits the input into lines,
classifies every line, extracts and deduplicates http(s) URLs, and reports
the credit quote and whether the batch could be submitted.

Input is read from the file argument, or from stdin when no file is given.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&opts.output, "output", "o", "human", "output format (human, json)")
	root.PersistentFlags().IntVar(&opts.maxURLsPerTask, "max-urls", urlbatch.DefaultMaxURLsPerTask, "maximum unique URLs per task")
	root.PersistentFlags().IntVar(&opts.creditsPerURL, "credits-per-url", urlbatch.DefaultCreditsPerURL, "credits charged per unique URL")

	root.AddCommand(
		newParseCmd(opts),
		newCleanCmd(),
		newQuoteCmd(opts),
	)
	return root
}

func readInput(cmd *cobra.Command, args []string) (string, error) {
	var r io.Reader = cmd.InOrStdin()
	if len(args) == 1 && args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return "", fmt.Errorf("open input: %w", err)
		}
		defer f.Close()
		r = f
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read input: %w", err)
	}
	return string(b), nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
