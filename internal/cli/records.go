package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	gojson "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hyperjump/merkon/internal/embedding"
	"github.com/hyperjump/merkon/pkg/merkon"
)

// recordInput is one record as given on the command line or as a JSON line of a
// batch file.
type recordInput struct {
	ID                 string     `json:"id"`
	IsReference        bool       `json:"is_reference"`
	ExternalSourceName string     `json:"external_source_name"`
	Description        string     `json:"description"`
	Text               string     `json:"text"`
	AdditionalMetadata string     `json:"additional_metadata"`
	Embedding          []float32  `json:"embedding"`
	Timestamp          *time.Time `json:"timestamp,omitempty"`
}

// toRecord builds the record, generating an ID when none is set and embedding the
// text (or description) when no embedding is given.
func (in *recordInput) toRecord(ctx context.Context, emb embedding.Embedder) (*merkon.MemoryRecord, error) {
	if in.ID == "" {
		in.ID = uuid.NewString()
	}
	if len(in.Embedding) == 0 {
		text := in.Text
		if text == "" {
			text = in.Description
		}
		if text == "" {
			return nil, fmt.Errorf("record %q: an embedding or text is required", in.ID)
		}
		vec, err := emb.Embed(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("embed record %q: %w", in.ID, err)
		}
		in.Embedding = vec
	}
	if in.IsReference {
		return merkon.NewReferenceRecord(in.ID, in.ExternalSourceName, in.Description, in.Embedding, in.AdditionalMetadata, in.Timestamp), nil
	}
	r := merkon.NewInformationRecord(in.ID, in.Text, in.Description, in.Embedding, in.AdditionalMetadata, in.Timestamp)
	r.Metadata.ExternalSourceName = in.ExternalSourceName
	return r, nil
}

// parseEmbedding parses a JSON array of numbers.
func parseEmbedding(s string) ([]float32, error) {
	if s == "" {
		return nil, nil
	}
	var vec []float32
	if err := gojson.Unmarshal([]byte(s), &vec); err != nil {
		return nil, fmt.Errorf("invalid --embedding (want a JSON array of numbers): %w", err)
	}
	return vec, nil
}

func (a *app) putCommand() *cobra.Command {
	var (
		in            recordInput
		embeddingJSON string
		timestamp     string
		batch         string
	)
	cmd := &cobra.Command{
		Use:   "put <collection> [id]",
		Short: "Insert or replace a record",
		Long: `Insert or replace a record. Without --embedding the record's text (or
description) is embedded with the configured embedder. A missing id is generated.

With --batch, records are read as JSON lines from the file ("-" for stdin) and
stored one by one; failures are reported per record.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			collection := args[0]
			if batch != "" {
				return a.putBatch(cmd, collection, batch)
			}
			if len(args) == 2 {
				in.ID = args[1]
			}
			vec, err := parseEmbedding(embeddingJSON)
			if err != nil {
				return err
			}
			in.Embedding = vec
			if timestamp != "" {
				ts, err := time.Parse(time.RFC3339, timestamp)
				if err != nil {
					return fmt.Errorf("invalid --timestamp: %w", err)
				}
				in.Timestamp = &ts
			}
			return a.withStore(cmd, false, func(ctx context.Context, store *merkon.Store, emb embedding.Embedder) error {
				record, err := in.toRecord(ctx, emb)
				if err != nil {
					return err
				}
				key, err := store.Upsert(ctx, collection, record)
				if err != nil {
					return err
				}
				return a.status(cmd, "stored", key)
			})
		},
	}
	f := cmd.Flags()
	f.StringVar(&embeddingJSON, "embedding", "", "embedding as a JSON array, e.g. '[0.1, 0.2]'")
	f.StringVar(&in.Text, "text", "", "record text")
	f.StringVar(&in.Description, "description", "", "record description")
	f.StringVar(&in.ExternalSourceName, "source", "", "external source name")
	f.BoolVar(&in.IsReference, "reference", false, "store as a reference to an external resource")
	f.StringVar(&in.AdditionalMetadata, "metadata", "", "additional metadata string")
	f.StringVar(&timestamp, "timestamp", "", "RFC 3339 timestamp")
	f.StringVar(&batch, "batch", "", "read records as JSON lines from this file (- for stdin)")
	return cmd
}

func (a *app) putBatch(cmd *cobra.Command, collection, path string) error {
	r := cmd.InOrStdin()
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		r = f
	}
	var inputs []recordInput
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for line := 1; scanner.Scan(); line++ {
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		var in recordInput
		if err := gojson.Unmarshal([]byte(text), &in); err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
		inputs = append(inputs, in)
	}
	if err := scanner.Err(); err != nil {
		return err
	}

	return a.withStore(cmd, false, func(ctx context.Context, store *merkon.Store, emb embedding.Embedder) error {
		records := make([]*merkon.MemoryRecord, 0, len(inputs))
		for i := range inputs {
			record, err := inputs[i].toRecord(ctx, emb)
			if err != nil {
				return err
			}
			records = append(records, record)
		}
		var stored, failed int
		var errs []error
		for key, err := range store.UpsertBatch(ctx, collection, records) {
			if err != nil {
				failed++
				errs = append(errs, err)
				a.logger.Warn("record not stored", zap.Error(err))
				continue
			}
			stored++
			a.logger.Debug("record stored", zap.String("key", key))
		}
		if a.format == OutputJSON {
			if err := WriteJSON(cmd.OutOrStdout(), map[string]int{"stored": stored, "failed": failed}); err != nil {
				return err
			}
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "stored %d records, %d failed\n", stored, failed)
		}
		return errors.Join(errs...)
	})
}

func (a *app) getCommand() *cobra.Command {
	var withEmbedding bool
	cmd := &cobra.Command{
		Use:   "get <collection> <key> [key...]",
		Short: "Print records by key",
		Long: `Print records by key. With several keys the records are printed in order
and the listing stops at the first key that is not found.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			collection, keys := args[0], args[1:]
			return a.withStore(cmd, true, func(ctx context.Context, store *merkon.Store, _ embedding.Embedder) error {
				if len(keys) == 1 {
					record, err := store.Get(ctx, collection, keys[0], withEmbedding)
					if err != nil {
						return err
					}
					if record == nil {
						return fmt.Errorf("record %q not found in %q", keys[0], collection)
					}
					return WriteRecord(cmd.OutOrStdout(), record, a.format)
				}

				records := []*merkon.MemoryRecord{}
				for record, err := range store.GetBatch(ctx, collection, keys, withEmbedding) {
					if err != nil {
						return err
					}
					records = append(records, record)
				}
				if a.format == OutputJSON {
					return WriteJSON(cmd.OutOrStdout(), map[string]interface{}{"records": records})
				}
				for _, record := range records {
					writeRecordText(cmd.OutOrStdout(), record)
					fmt.Fprintln(cmd.OutOrStdout())
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&withEmbedding, "with-embedding", false, "include embeddings")
	return cmd
}

func (a *app) rmCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <collection> <key> [key...]",
		Short: "Remove records by key",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			collection, keys := args[0], args[1:]
			return a.withStore(cmd, false, func(ctx context.Context, store *merkon.Store, _ embedding.Embedder) error {
				var err error
				if len(keys) == 1 {
					err = store.Remove(ctx, collection, keys[0])
				} else {
					err = store.RemoveBatch(ctx, collection, keys)
				}
				if err != nil {
					return err
				}
				return a.status(cmd, "removed", strings.Join(keys, ", "))
			})
		},
	}
}
