package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newTermsCmd(a *app) *cobra.Command {
	var docName string
	var n int

	cmd := &cobra.Command{
		Use:   "terms",
		Short: "Show the highest weighted terms of a document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := a.restore(cmd.Context(), docName); err != nil {
				return err
			}
			terms, err := a.svc.TopTerms(n)
			if err != nil {
				return err
			}
			for _, t := range terms {
				fmt.Fprintf(cmd.OutOrStdout(), "%-30s %.4f\n", t.Term, t.Weight)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&docName, "doc", "", "Persisted document (default: the only one stored)")
	cmd.Flags().IntVarP(&n, "limit", "n", 10, "Number of terms")
	return cmd
}

func newSimilarCmd(a *app) *cobra.Command {
	var docName string
	var n int

	cmd := &cobra.Command{
		Use:   "similar <chunk-id>",
		Short: "List the chunks most similar to a given chunk",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil || id < 0 {
				return fmt.Errorf("chunk id must be a non-negative integer, got %q", args[0])
			}
			if _, err := a.restore(cmd.Context(), docName); err != nil {
				return err
			}
			similar, err := a.svc.SimilarChunks(id, n)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(similar) == 0 {
				fmt.Fprintf(out, "No chunks similar to chunk %d\n", id)
				return nil
			}
			for _, s := range similar {
				fmt.Fprintf(out, "chunk %d  %.3f  %s\n", s.ChunkID, s.Similarity, s.Text)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&docName, "doc", "", "Persisted document (default: the only one stored)")
	cmd.Flags().IntVarP(&n, "limit", "n", 3, "Number of chunks")
	return cmd
}

func newDocsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "docs",
		Short: "List persisted documents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			names, err := a.svc.Documents(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(names) == 0 {
				fmt.Fprintln(out, "No processed documents")
				return nil
			}
			for _, name := range names {
				fmt.Fprintln(out, name)
			}
			return nil
		},
	}
}

func newRmCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <name>",
		Short: "Delete a persisted document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.store.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
			return nil
		},
	}
}
