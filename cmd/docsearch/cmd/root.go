// Package cmd provides the CLI commands for docsearch.
package cmd

import (
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for the docsearch CLI.
func NewRootCmd() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:   "docsearch",
		Short: "Upload a document and search it by meaning of its words",
		Long: `docsearch splits a PDF or text document into overlapping chunks, fits a
TF-IDF index over them and ranks chunks against free-text queries.

Examples:
  docsearch index manual.pdf
  docsearch search "how do I reset the device"
  docsearch serve --restore manual.pdf`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.setup(cmd); err != nil {
				a.close()
				return err
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&a.cfgPath, "config", "", "Path to YAML config file (default ./config.yaml or ~/.config/docsearch/config.yaml)")
	cmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Log level: debug, info, warn, error")

	cmd.AddCommand(newServeCmd(a))
	cmd.AddCommand(newIndexCmd(a))
	cmd.AddCommand(newSearchCmd(a))
	cmd.AddCommand(newTUICmd(a))
	cmd.AddCommand(newTermsCmd(a))
	cmd.AddCommand(newSimilarCmd(a))
	cmd.AddCommand(newDocsCmd(a))
	cmd.AddCommand(newRmCmd(a))

	// PersistentPostRun is skipped when RunE fails, so release resources here.
	for _, sub := range cmd.Commands() {
		run := sub.RunE
		sub.RunE = func(c *cobra.Command, args []string) error {
			defer a.close()
			return run(c, args)
		}
	}

	return cmd
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}
