package cmd

import (
	"fmt"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"docsearch/internal/domain"
	"docsearch/internal/tui"
	"docsearch/internal/validation"
)

func newTUICmd(a *app) *cobra.Command {
	var docName string

	cmd := &cobra.Command{
		Use:   "tui [file]",
		Short: "Search interactively in the terminal",
		Long: `Search interactively in the terminal.

With a file argument the file is processed and indexed first; otherwise a
persisted document is loaded (see --doc).`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var doc *domain.Document
			var err error
			if len(args) == 1 {
				var name string
				name, err = validation.Filename(filepath.Base(args[0]), a.cfg.Server.AllowedExtensions)
				if err != nil {
					return err
				}
				doc, err = a.svc.Ingest(cmd.Context(), args[0], name)
			} else {
				doc, err = a.restore(cmd.Context(), docName)
			}
			if err != nil {
				return err
			}

			m := tui.New(a.svc, doc.Info(), tui.Options{
				MaxResults:     a.cfg.Search.MaxResults,
				MinSimilarity:  a.cfg.Search.MinSimilarity,
				MaxQueryLength: a.cfg.Search.MaxQueryLength,
			})
			if _, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(cmd.Context())).Run(); err != nil {
				return fmt.Errorf("tui: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&docName, "doc", "", "Persisted document to load (default: the only one stored)")
	return cmd
}
