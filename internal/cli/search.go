package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hyperjump/merkon/internal/embedding"
	"github.com/hyperjump/merkon/internal/fileid"
	"github.com/hyperjump/merkon/pkg/merkon"
)

// recallWords is how much of each memory recall prints in text mode.
const recallWords = 40

func (a *app) searchCommand() *cobra.Command {
	var (
		embeddingJSON string
		query         merkon.MatchQuery
	)
	cmd := &cobra.Command{
		Use:   "search <collection> [text...]",
		Short: "Find the records nearest to an embedding or a text",
		Long: `Find the records of a collection most similar to --embedding, or to the
embedding of the given text, by cosine similarity. Results at or above
--min-score are printed best first.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			vec, err := parseEmbedding(embeddingJSON)
			if err != nil {
				return err
			}
			query.Embedding = vec
			query.Text = strings.Join(args[1:], " ")
			return a.withStore(cmd, true, func(ctx context.Context, store *merkon.Store, _ embedding.Embedder) error {
				response, err := store.Search(ctx, args[0], &query)
				if err != nil {
					return err
				}
				return WriteSearchResults(cmd.OutOrStdout(), response, a.format)
			})
		},
	}
	f := cmd.Flags()
	f.StringVar(&embeddingJSON, "embedding", "", "query embedding as a JSON array")
	f.IntVarP(&query.Limit, "limit", "n", 0, "maximum number of results (default search.default_limit)")
	f.Float64Var(&query.MinScore, "min-score", 0, "minimum cosine similarity (default search.min_score)")
	f.BoolVar(&query.WithEmbeddings, "with-embeddings", false, "include embeddings in results")
	return cmd
}

func (a *app) rememberCommand() *cobra.Command {
	var (
		id          string
		file        string
		description string
	)
	cmd := &cobra.Command{
		Use:   "remember <collection> [text...]",
		Short: "Store a piece of text as a memory",
		Long: `Embed a piece of text with the configured embedder and store it. With
--file the file content is stored under a key derived from its path, so
remembering the same file again replaces the earlier memory.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := recordInput{ID: id, Text: strings.Join(args[1:], " "), Description: description}
			if file != "" {
				content, err := os.ReadFile(file)
				if err != nil {
					return err
				}
				key, err := fileid.FromPath(file)
				if err != nil {
					return err
				}
				if in.ID == "" {
					in.ID = key
				}
				in.Text = string(content)
				in.ExternalSourceName = file
			}
			if strings.TrimSpace(in.Text) == "" {
				return fmt.Errorf("nothing to remember: give a text or --file")
			}
			return a.withStore(cmd, false, func(ctx context.Context, store *merkon.Store, emb embedding.Embedder) error {
				record, err := in.toRecord(ctx, emb)
				if err != nil {
					return err
				}
				key, err := store.Upsert(ctx, args[0], record)
				if err != nil {
					return err
				}
				return a.status(cmd, "remembered", key)
			})
		},
	}
	f := cmd.Flags()
	f.StringVar(&id, "id", "", "memory key (default a new UUID, or derived from --file)")
	f.StringVar(&file, "file", "", "remember the content of this file")
	f.StringVar(&description, "description", "", "memory description")
	return cmd
}

func (a *app) recallCommand() *cobra.Command {
	var query merkon.MatchQuery
	cmd := &cobra.Command{
		Use:   "recall <collection> <text...>",
		Short: "Print the memories most related to a text",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			query.Text = strings.Join(args[1:], " ")
			return a.withStore(cmd, true, func(ctx context.Context, store *merkon.Store, _ embedding.Embedder) error {
				response, err := store.Search(ctx, args[0], &query)
				if err != nil {
					return err
				}
				if a.format == OutputJSON {
					return WriteJSON(cmd.OutOrStdout(), response)
				}
				if len(response.Results) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "nothing recalled")
					return nil
				}
				for _, result := range response.Results {
					text := result.Record.Metadata.Text
					if text == "" {
						text = result.Record.Metadata.Description
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%.3f  %s\n", result.Score, TruncateWords(text, recallWords))
				}
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&query.Limit, "limit", "n", 0, "maximum number of memories (default search.default_limit)")
	cmd.Flags().Float64Var(&query.MinScore, "min-score", 0, "minimum cosine similarity (default search.min_score)")
	return cmd
}
