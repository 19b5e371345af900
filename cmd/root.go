package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/abhisek/habla/internal/catalog"
	"github.com/abhisek/habla/internal/config"
	"github.com/abhisek/habla/internal/logging"
	"github.com/abhisek/habla/internal/speech"
	"github.com/abhisek/habla/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "habla",
	Short: "Speech therapy games for children",
	Long:  "Habla runs speech and language therapy exercises with a patient and tracks their progress.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runApp(cmd, "")
	},
	SilenceUsage: true,
}

// Execute runs the root command. SIGINT cancels the command's context.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides HABLA_DB env var)")
	rootCmd.PersistentFlags().String("config", "", "Path to config file (default $XDG_CONFIG_HOME/habla/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error")

	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(patientCmd)
	rootCmd.AddCommand(diagnoseCmd)
	rootCmd.AddCommand(catalogCmd)
	rootCmd.AddCommand(levelsCmd)
	rootCmd.AddCommand(speakCmd)
	rootCmd.AddCommand(transcribeCmd)
	rootCmd.AddCommand(versionCmd)
}

// resolveDBPath returns the database path using --db flag (highest priority),
// then db.path from config or HABLA_DB, then the default XDG path.
func resolveDBPath(cmd *cobra.Command, cfg *config.Config) (string, error) {
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		return p, store.EnsureDir(p)
	}
	if cfg.DB.Path != "" {
		return cfg.DB.Path, store.EnsureDir(cfg.DB.Path)
	}
	return store.DefaultDBPath()
}

// env holds what most commands need: configuration, a logger and the store.
type env struct {
	cfg     *config.Config
	logger  *zap.Logger
	store   *store.Store
	closers []func()
}

// setup loads configuration and opens the logger. interactive commands log
// to a file so output does not corrupt the terminal UI.
func setup(cmd *cobra.Command, interactive bool) (*env, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
		cfg.Log.Level = lvl
	}
	if interactive && cfg.Log.File == "" {
		dir, err := store.DataDir()
		if err != nil {
			return nil, err
		}
		cfg.Log.File = filepath.Join(dir, "habla.log")
	}

	logger, cleanup, err := logging.New(cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	return &env{cfg: cfg, logger: logger, closers: []func(){cleanup}}, nil
}

// openStore opens the database for e, closing it with e.
func (e *env) openStore(cmd *cobra.Command) (*store.Store, error) {
	dbPath, err := resolveDBPath(cmd, e.cfg)
	if err != nil {
		return nil, fmt.Errorf("resolve DB path: %w", err)
	}
	st, err := store.Open(dbPath, store.WithLogger(e.logger))
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	e.store = st
	e.closers = append(e.closers, func() { _ = st.Close() })
	return st, nil
}

// speechProvider builds the configured speech backend.
func (e *env) speechProvider(ctx context.Context) (speech.Provider, error) {
	p, err := speech.NewProvider(ctx, e.cfg.Speech, e.logger)
	if err != nil {
		return nil, err
	}
	if lp, ok := p.(*speech.LoggingProvider); ok {
		e.closers = append(e.closers, func() { _ = lp.Close() })
	}
	return p, nil
}

// close releases resources in reverse order of acquisition.
func (e *env) close() {
	for i := len(e.closers) - 1; i >= 0; i-- {
		e.closers[i]()
	}
}

// ensureCatalog loads the built-in exercises into an empty database.
func ensureCatalog(ctx context.Context, st *store.Store, logger *zap.Logger) error {
	existing, err := st.ListExercises(ctx)
	if err != nil {
		return fmt.Errorf("list exercises: %w", err)
	}
	if len(existing) > 0 {
		return nil
	}
	seed := catalog.Seed()
	if err := st.UpsertExercises(ctx, seed); err != nil {
		return fmt.Errorf("seed catalog: %w", err)
	}
	logger.Info("seeded built-in catalog", zap.Int("exercises", len(seed)))
	return nil
}
