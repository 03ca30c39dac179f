// Package cli implements the merkon command line.
package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hyperjump/merkon/internal/config"
	"github.com/hyperjump/merkon/internal/embedding"
	"github.com/hyperjump/merkon/internal/storage"
	"github.com/hyperjump/merkon/pkg/merkon"
	"github.com/hyperjump/merkon/pkg/utils"
)

// BuildInfo is stamped into the binary with -ldflags.
type BuildInfo struct {
	Version string
	Commit  string
	Date    string
}

// app carries the global flags and the state derived from them.
type app struct {
	build   BuildInfo
	cfgFile string
	dbPath  string
	dbName  string
	debug   bool
	output  string

	cfg     *config.Config
	cfgPath string
	format  OutputFormat
	logger  *zap.Logger
}

// NewRootCommand builds the merkon command tree.
func NewRootCommand(build BuildInfo) *cobra.Command {
	a := &app{build: build}
	root := &cobra.Command{
		Use:   "merkon",
		Short: "Merkon - embedded vector store",
		Long: `Merkon keeps named collections of records with embeddings in a single
snapshot file and answers nearest-match queries by cosine similarity.

Commands operate on the database selected by --db, or by --name in the user
configuration directory.`,
		Version:           build.Version,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "config file path (default ./config.yaml when present)")
	flags.StringVar(&a.dbPath, "db", "", "database file path (overrides storage.path)")
	flags.StringVar(&a.dbName, "name", "", "database name in the user config dir (overrides storage.name)")
	flags.BoolVar(&a.debug, "debug", false, "enable debug logging")
	flags.StringVarP(&a.output, "output", "o", string(OutputText), "output format: text or json")

	root.AddCommand(
		a.collectionsCommand(),
		a.putCommand(),
		a.getCommand(),
		a.rmCommand(),
		a.searchCommand(),
		a.rememberCommand(),
		a.recallCommand(),
		a.serveCommand(),
		a.exportCommand(),
		a.importCommand(),
		a.statsCommand(),
		a.versionCommand(),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command, args []string) error {
	format, err := ParseOutputFormat(a.output)
	if err != nil {
		return err
	}
	a.format = format

	cfg, path, err := loadConfig(a.cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	a.cfg, a.cfgPath = cfg, path
	if a.dbPath != "" {
		a.cfg.Storage.Path = a.dbPath
	}
	if a.dbName != "" {
		a.cfg.Storage.Name = a.dbName
		if a.dbPath == "" {
			a.cfg.Storage.Path = ""
		}
	}

	logger, err := utils.NewCLILogger(a.cfg.Debug || a.debug)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	a.logger = logger
	a.logger.Debug("config loaded",
		zap.String("config_path", a.cfgPath),
		zap.String("storage_path", a.cfg.Storage.Path),
		zap.String("storage_name", a.cfg.Storage.Name))
	return nil
}

// loadConfig loads config from path. When path is empty it uses config.yaml in the
// current directory if one exists, and otherwise only the environment and defaults.
// Returns the config and the path that was actually loaded.
func loadConfig(path string) (*config.Config, string, error) {
	if path == "" {
		if cwd, err := os.Getwd(); err == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				path = fallback
			}
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

// databasePath returns the snapshot file selected by the config.
func (a *app) databasePath() (string, error) {
	if a.cfg.Storage.Path != "" {
		return a.cfg.Storage.Path, nil
	}
	return storage.DatabasePath("", a.cfg.Storage.Name)
}

// newEmbedder returns the text embedder configured under embedding.
func (a *app) newEmbedder() embedding.Embedder {
	return embedding.NewCachedEmbedder(
		embedding.NewHashEmbedder(a.cfg.Embedding.Dimensions),
		a.cfg.Embedding.CacheSize,
	)
}

// openStore opens the configured database. The store is read-only when readOnly is
// set; otherwise it takes the file lock unless storage.lock is false.
func (a *app) openStore(ctx context.Context, readOnly bool) (*merkon.Store, embedding.Embedder, error) {
	path, err := a.databasePath()
	if err != nil {
		return nil, nil, err
	}
	compression, err := storage.ParseCompression(a.cfg.Storage.Compression)
	if err != nil {
		return nil, nil, err
	}
	mode, err := storage.ParsePersistMode(a.cfg.Storage.PersistMode)
	if err != nil {
		return nil, nil, err
	}
	emb := a.newEmbedder()
	store, err := merkon.Open(ctx, path,
		merkon.WithLogger(a.logger),
		merkon.WithCompression(compression),
		merkon.WithPersistMode(mode),
		merkon.WithReadOnly(readOnly),
		merkon.WithLock(a.cfg.Storage.LockOrDefault()),
		merkon.WithEmbedder(emb),
		merkon.WithSearchDefaults(a.cfg.Search),
	)
	if err != nil {
		_ = emb.Close()
		return nil, nil, fmt.Errorf("open %s: %w", path, err)
	}
	if loadErr := store.LoadErr(); loadErr != nil {
		a.logger.Warn("snapshot could not be loaded; starting empty", zap.String("path", path), zap.Error(loadErr))
	}
	return store, emb, nil
}

// withStore opens the store, runs fn and closes the store, joining a close error
// into the result.
func (a *app) withStore(cmd *cobra.Command, readOnly bool, fn func(ctx context.Context, store *merkon.Store, emb embedding.Embedder) error) (err error) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	store, emb, err := a.openStore(ctx, readOnly)
	if err != nil {
		return err
	}
	defer func() {
		_ = emb.Close()
		if closeErr := store.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()
	return fn(ctx, store, emb)
}
