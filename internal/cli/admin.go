package cli

import (
	"context"
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/hyperjump/merkon/internal/embedding"
	"github.com/hyperjump/merkon/pkg/merkon"
)

func (a *app) exportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "export <sqlite-file>",
		Short: "Export every collection to a SQLite database",
		Long: `Write every collection to a SQLite database with "collections" and
"records" tables. An existing export at the same path is replaced.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(cmd, true, func(ctx context.Context, store *merkon.Store, _ embedding.Embedder) error {
				if err := store.ExportSQLite(ctx, args[0]); err != nil {
					return err
				}
				return a.status(cmd, "exported", args[0])
			})
		},
	}
}

func (a *app) importCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "import <sqlite-file>",
		Short: "Import records from a SQLite export",
		Long:  `Upsert every record of a database written by export. Records with the same key are replaced.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(cmd, false, func(ctx context.Context, store *merkon.Store, _ embedding.Embedder) error {
				n, err := store.ImportSQLite(ctx, args[0])
				if err != nil {
					return err
				}
				if a.format == OutputJSON {
					return WriteJSON(cmd.OutOrStdout(), map[string]interface{}{"status": "imported", "records": n})
				}
				fmt.Fprintf(cmd.OutOrStdout(), "imported %d records from %s\n", n, args[0])
				return nil
			})
		},
	}
}

func (a *app) statsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show collections, record counts and file size",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(cmd, true, func(ctx context.Context, store *merkon.Store, _ embedding.Embedder) error {
				stats, err := store.Stats(ctx)
				if err != nil {
					return err
				}
				if a.format == OutputJSON {
					return WriteJSON(cmd.OutOrStdout(), stats)
				}
				w := cmd.OutOrStdout()
				fmt.Fprintf(w, "Path: %s\n", stats.Path)
				fmt.Fprintf(w, "File size: %s\n", formatSize(stats.FileSize))
				fmt.Fprintf(w, "Records: %d\n", stats.Records)
				fmt.Fprintf(w, "Collections: %d\n", len(stats.Collections))
				for _, c := range stats.Collections {
					fmt.Fprintf(w, "  %-30s %d\n", c.Name, c.Records)
				}
				return nil
			})
		},
	}
}

func (a *app) versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.format == OutputJSON {
				return WriteJSON(cmd.OutOrStdout(), map[string]string{
					"version":    a.build.Version,
					"commit":     a.build.Commit,
					"date":       a.build.Date,
					"go_version": runtime.Version(),
				})
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "merkon %s\n", a.build.Version)
			if a.build.Commit != "" {
				fmt.Fprintf(w, "Git commit: %s\n", a.build.Commit)
			}
			if a.build.Date != "" {
				fmt.Fprintf(w, "Build date: %s\n", a.build.Date)
			}
			fmt.Fprintf(w, "Go version: %s\n", runtime.Version())
			return nil
		},
	}
}

func formatSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(n)/float64(div), "KMGTPE"[exp])
}
