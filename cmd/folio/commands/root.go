package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/strrl/folio/internal/api"
	"github.com/strrl/folio/internal/auth"
	"github.com/strrl/folio/internal/cache"
	"github.com/strrl/folio/internal/catalog"
	"github.com/strrl/folio/internal/config"
	"github.com/strrl/folio/internal/logging"
	"github.com/strrl/folio/internal/tui"
)

var (
	configPath   string
	apiURL       string
	sessionTTL   time.Duration
	cacheBackend string
	logFile      string
	logLevel     string
)

// app holds everything a command needs, built once per invocation.
type app struct {
	cfg     *config.Config
	log     *zap.Logger
	store   *cache.Store
	client  *api.Client
	auth    *auth.Manager
	catalog *catalog.Catalog
}

// NewRootCommand creates the root command
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "folio",
		Short: "Browse and edit an architect's portfolio from the terminal",
		Long: `folio is a terminal client for the portfolio backend.
Visitors browse works by category; a logged-in admin can add and delete works.`,
		SilenceUsage: true,
		RunE:         runTUI,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "path to a JSON config file")
	flags.StringVar(&apiURL, "api", "", "backend base URL")
	flags.DurationVar(&sessionTTL, "session-ttl", 0, "how long a login stays valid")
	flags.StringVar(&cacheBackend, "cache", "", "cache backend: memory, duckdb, sqlite or redis")
	flags.StringVar(&logFile, "log-file", "", "log file path")
	flags.StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")

	rootCmd.AddCommand(NewLoginCommand())
	rootCmd.AddCommand(NewLogoutCommand())
	rootCmd.AddCommand(NewStatusCommand())
	rootCmd.AddCommand(NewShowCommand())
	rootCmd.AddCommand(NewDebugCommand())

	return rootCmd
}

// Execute runs the root command
func Execute() {
	rootCmd := NewRootCommand()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig merges defaults, file, environment and explicit flags.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	flags := cmd.Flags()
	if flags.Changed("api") {
		cfg.APIBaseURL = apiURL
	}
	if flags.Changed("session-ttl") {
		cfg.SessionTTL = sessionTTL
	}
	if flags.Changed("cache") {
		cfg.CacheBackend = cacheBackend
	}
	if flags.Changed("log-file") {
		cfg.LogFile = logFile
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newApp(cmd *cobra.Command) (*app, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	log, err := logging.New(cfg.LogFile, cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	store, err := cache.NewFromConfig(ctx, cfg, cache.WithLogger(log))
	if err != nil {
		log.Warn("cache backend unavailable, using memory", zap.String("backend", cfg.CacheBackend), zap.Error(err))
		store = cache.New(cache.NewMemory(),
			cache.WithTTL(cache.NamespaceWorks, cfg.WorksTTL),
			cache.WithTTL(cache.NamespaceCategories, cfg.CategoriesTTL),
			cache.WithTTL(cache.NamespaceAuth, cfg.SessionTTL),
			cache.WithLogger(log),
		)
	}

	client := api.New(cfg.APIBaseURL,
		api.WithTimeout(cfg.RequestTimeout),
		api.WithLogger(log),
	)
	mgr := auth.NewManager(store, client,
		auth.WithSessionTTL(cfg.SessionTTL),
		auth.WithLogger(log),
	)
	client.SetTokenSource(mgr)

	return &app{
		cfg:    cfg,
		log:    log,
		store:  store,
		client: client,
		auth:   mgr,
		catalog: catalog.New(client, store,
			catalog.WithPolicy(cfg.CachePolicy),
			catalog.WithLogger(log),
		),
	}, nil
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		a.log.Warn("closing cache", zap.Error(err))
	}
	_ = a.log.Sync()
}

func runTUI(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	a.log.Info("starting", zap.String("api", a.cfg.APIBaseURL), zap.String("cache", a.cfg.CacheBackend))
	if err := tui.Run(cmd.Context(), tui.Deps{
		Catalog: a.catalog,
		Auth:    a.auth,
		Log:     a.log,
	}); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
