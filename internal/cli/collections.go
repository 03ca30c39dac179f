package cli

import (
	"context"
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/hyperjump/merkon/internal/embedding"
	"github.com/hyperjump/merkon/pkg/merkon"
)

func (a *app) collectionsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "collections",
		Aliases: []string{"coll"},
		Short:   "List, create and delete collections",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List collections",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(cmd, true, func(ctx context.Context, store *merkon.Store, _ embedding.Embedder) error {
				names := slices.Collect(store.GetCollections(ctx))
				if a.format == OutputJSON {
					if names == nil {
						names = []string{}
					}
					return WriteJSON(cmd.OutOrStdout(), map[string]interface{}{"collections": names})
				}
				for _, name := range names {
					fmt.Fprintln(cmd.OutOrStdout(), name)
				}
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "create <name>",
		Short: "Create a collection (no-op when it exists)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(cmd, false, func(ctx context.Context, store *merkon.Store, _ embedding.Embedder) error {
				if err := store.CreateCollection(ctx, args[0]); err != nil {
					return err
				}
				return a.status(cmd, "created", args[0])
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a collection and its records",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(cmd, false, func(ctx context.Context, store *merkon.Store, _ embedding.Embedder) error {
				if err := store.DeleteCollection(ctx, args[0]); err != nil {
					return err
				}
				return a.status(cmd, "deleted", args[0])
			})
		},
	})
	return cmd
}

// status reports a completed mutation.
func (a *app) status(cmd *cobra.Command, status, subject string) error {
	if a.format == OutputJSON {
		return WriteJSON(cmd.OutOrStdout(), map[string]string{"status": status, "name": subject})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", status, subject)
	return nil
}
