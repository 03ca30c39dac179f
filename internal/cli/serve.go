package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hyperjump/merkon/internal/server"
	"github.com/hyperjump/merkon/internal/watcher"
	"github.com/hyperjump/merkon/pkg/utils"
)

const shutdownTimeout = 10 * time.Second

func (a *app) serveCommand() *cobra.Command {
	var (
		host   string
		port   int
		follow bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the database over HTTP",
		Long: `Serve the database over the HTTP API.

With --follow the database is opened read-only and reloaded whenever another
process rewrites the snapshot file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if host != "" {
				a.cfg.Server.Host = host
			}
			if port != 0 {
				a.cfg.Server.Port = port
			}
			logger, err := utils.NewLogger(a.cfg.Debug || a.debug)
			if err != nil {
				return err
			}
			a.logger = logger
			return a.serve(cmd.Context(), follow)
		},
	}
	cmd.Flags().StringVar(&host, "host", "", "listen host (default server.host)")
	cmd.Flags().IntVarP(&port, "port", "p", 0, "listen port (default server.port)")
	cmd.Flags().BoolVar(&follow, "follow", false, "open read-only and reload when the file changes")
	return cmd
}

func (a *app) serve(parent context.Context, follow bool) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, emb, err := a.openStore(ctx, follow)
	if err != nil {
		return err
	}
	defer func() {
		_ = emb.Close()
		if err := store.Close(); err != nil {
			a.logger.Warn("store close failed", zap.Error(err))
		}
	}()

	if follow {
		fw := watcher.NewFileWatcher(store.Path(), func(path string) {
			if err := store.Reload(ctx); err != nil {
				a.logger.Warn("reload failed, keeping previous snapshot", zap.String("path", path), zap.Error(err))
				return
			}
			a.logger.Info("snapshot reloaded", zap.String("path", path))
		}, watcher.WithLogger(a.logger), watcher.WithDebounce(a.cfg.Watch.Debounce))
		if err := fw.Start(ctx); err != nil {
			return err
		}
		defer fw.Stop()
	}

	srv := server.NewServer(store, emb, &a.cfg.Server, a.logger)
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	a.logger.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Stop(shutdownCtx)
}
