package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"docsearch/internal/validation"
)

func newIndexCmd(a *app) *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "index <file>",
		Short: "Process, index and persist a PDF or text file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			if name == "" {
				name = filepath.Base(path)
			}
			safe, err := validation.Filename(name, a.cfg.Server.AllowedExtensions)
			if err != nil {
				return err
			}
			doc, err := a.svc.Ingest(cmd.Context(), path, safe)
			if err != nil {
				return err
			}
			info := doc.Info()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Indexed %s: %d chunks, %d words, %d pages\n",
				info.Filename, info.ChunkCount, info.TotalWords, info.TotalPages)
			if info.Summary != "" {
				fmt.Fprintf(out, "Summary: %s\n", info.Summary)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Store the document under this name (default: file name)")
	return cmd
}
