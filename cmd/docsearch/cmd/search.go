package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"docsearch/internal/domain"
	"docsearch/internal/validation"
)

// searchOptions holds CLI flags for search.
type searchOptions struct {
	doc    string
	limit  int
	min    float64
	format string
}

func newSearchCmd(a *app) *cobra.Command {
	var opts searchOptions

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search a persisted document",
		Long: `Search a persisted document.

Examples:
  docsearch search "pressure limits"
  docsearch search "pressure limits" --doc manual.pdf -n 10 --min 0.1
  docsearch search "valve" --format json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("limit") {
				opts.limit = a.cfg.Search.MaxResults
			}
			if !cmd.Flags().Changed("min") {
				opts.min = a.cfg.Search.MinSimilarity
			}
			query, err := validation.Query(strings.Join(args, " "), a.cfg.Search.MinQueryLength, a.cfg.Search.MaxQueryLength)
			if err != nil {
				return err
			}
			if _, err := a.restore(cmd.Context(), opts.doc); err != nil {
				return err
			}
			resp, err := a.svc.Search(query, opts.limit, opts.min)
			if err != nil {
				return err
			}
			if opts.format == "json" {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(resp)
			}
			printResults(cmd, resp)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.doc, "doc", "", "Persisted document to search (default: the only one stored)")
	cmd.Flags().IntVarP(&opts.limit, "limit", "n", 5, "Maximum number of results")
	cmd.Flags().Float64Var(&opts.min, "min", 0.01, "Minimum similarity score")
	cmd.Flags().StringVar(&opts.format, "format", "text", "Output format: text, json")
	return cmd
}

func printResults(cmd *cobra.Command, resp *domain.SearchResponse) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%d results for %q (%.3fs)\n", resp.TotalFound, resp.Query, resp.SearchTime.Seconds())
	for _, r := range resp.Results {
		page := ""
		if r.PageNumber != nil {
			page = fmt.Sprintf(" page %d", *r.PageNumber)
		}
		fmt.Fprintf(out, "\n%d. chunk %d%s  score %.3f  %s\n   %s\n",
			r.Rank, r.ChunkID, page, r.Score, r.Confidence(), r.Preview(150))
	}
}
