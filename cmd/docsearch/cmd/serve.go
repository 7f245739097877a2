package cmd

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"docsearch/internal/server"
)

func newServeCmd(a *app) *cobra.Command {
	var restore string
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, a, addr, restore)
		},
	}

	cmd.Flags().StringVar(&restore, "restore", "", "Persisted document to activate on startup")
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides server.addr)")
	return cmd
}

func runServe(ctx context.Context, a *app, addr, restore string) error {
	if addr == "" {
		addr = a.cfg.Server.Addr
	}
	if restore != "" {
		if _, err := a.svc.Restore(ctx, restore); err != nil {
			a.logger.Warn("could not restore document, starting empty", "document", restore, "error", err)
		}
	}
	srv := server.New(a.svc, server.Options{
		Server:      a.cfg.Server,
		Search:      a.cfg.Search,
		UploadDir:   filepath.Join(a.cfg.Storage.DataDir, "uploads"),
		RestoreName: restore,
		Logger:      a.logger,
		Gatherer:    a.registry,
	})
	return srv.Run(ctx, addr)
}
