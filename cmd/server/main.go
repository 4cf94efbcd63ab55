/*
main.go - Application entry point

PURPOSE:
  Command-line entry point for the CPQ pricing engine: runs the HTTP server
  and offers one-shot pricing commands for scripts and support staff.

COMMANDS:
  serve    Start the HTTP API
  price    Price one rate plan configuration
  compare  Compare current products against a migration path

CONFIGURATION ORDER (later wins):
  1. Built-in defaults
  2. JSON config file (--config)
  3. .env file (--env-file) and CPQ_* environment variables
  4. Command flags (--port, --db, --catalog)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Stop the catalog refresh scheduler
  4. Close database connection

EXAMPLES:
  # Run with file database and the demo catalog
  cpq serve --db ./data/cpq.db

  # Run in memory with a catalog file that is reloaded on change
  cpq serve --db "" --catalog ./catalog.yaml

  # Price 118 PDL on the cloud plan with a customer price
  cpq price --product energy-billing --plan eb-cloud --value eb-cloud-pdl=118 --customer-price 2000

SEE ALSO:
  - api/server.go: Router configuration
  - internal/config/config.go: Settings and environment variables
*/
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/warp/cpq-engine/api"
	"github.com/warp/cpq-engine/catalog"
	"github.com/warp/cpq-engine/internal/config"
	"github.com/warp/cpq-engine/internal/logging"
	"github.com/warp/cpq-engine/internal/metrics"
	"github.com/warp/cpq-engine/pricing"
	"github.com/warp/cpq-engine/pricing/store"
	"github.com/warp/cpq-engine/quote"
	"github.com/warp/cpq-engine/store/sqlite"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// newRootCmd builds the command tree. Each call returns fresh flag state.
func newRootCmd() *cobra.Command {
	var (
		cfgFile string
		envFile string
	)

	root := &cobra.Command{
		Use:           "cpq",
		Short:         "CPQ pricing engine: price rate plans, build quotes, compare migrations",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := config.LoadEnvFiles(envFile); err != nil {
				return err
			}
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if err := cfg.ApplyEnv(); err != nil {
				return fmt.Errorf("invalid environment: %w", err)
			}
			config.Set(cfg)
			return nil
		},
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "JSON config file")
	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before reading CPQ_* variables")

	root.AddCommand(newServeCmd(), newPriceCmd(), newCompareCmd())
	return root
}

// =============================================================================
// SERVE
// =============================================================================

func newServeCmd() *cobra.Command {
	var (
		port        int
		dbPath      string
		catalogPath string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Get()
			if cmd.Flags().Changed("port") {
				cfg.Server.Port = port
			}
			if cmd.Flags().Changed("db") {
				cfg.Storage.DatabasePath = dbPath
			}
			if cmd.Flags().Changed("catalog") {
				cfg.Catalog.Path = catalogPath
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			return serve(cfg)
		},
	}

	cmd.Flags().IntVar(&port, "port", 8080, "HTTP server port")
	cmd.Flags().StringVar(&dbPath, "db", "", `SQLite database path ("" keeps data in memory)`)
	cmd.Flags().StringVar(&catalogPath, "catalog", "", "catalog file (JSON or YAML), reloaded on change")
	return cmd
}

func serve(cfg *config.Config) error {
	if err := logging.Initialize(cfg.Logging); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer logging.Sync()
	logger := logging.Logger

	st, closeStore, err := openStore(cfg.Storage.DatabasePath)
	if err != nil {
		return err
	}
	defer closeStore()

	ctx := context.Background()
	m := metrics.New()
	var refresher *api.CatalogRefreshScheduler
	if cfg.Catalog.Path != "" {
		refresher = api.NewCatalogRefreshScheduler(cfg.Catalog.Path, st, logger)
		refresher.Metrics = m
		if !refresher.RunNow(ctx) {
			return fmt.Errorf("failed to load catalog %s", cfg.Catalog.Path)
		}
		refresher.Start()
		defer refresher.Stop()
	} else if err := installDemoCatalogIfEmpty(ctx, st); err != nil {
		return err
	}

	svc := quote.NewService(pricing.NewEngine(cfg.Pricing.Engine()), st, logging.Named("quote"))
	handler := api.NewHandler(svc, logging.Named("api"))
	handler.Refresher = refresher
	handler.Metrics = m

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      api.NewRouter(handler, cfg.Server.CORSOrigins),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting",
			zap.Int("port", cfg.Server.Port),
			zap.String("database", cfg.Storage.DatabasePath),
			zap.String("currency", cfg.Pricing.PreferredCurrency),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-quit:
	}

	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("server stopped")
	return nil
}

// openStore returns SQLite for a path and the memory store otherwise.
func openStore(dbPath string) (pricing.Store, func(), error) {
	if dbPath == "" {
		return store.NewMemory(), func() {}, nil
	}
	st, err := sqlite.New(dbPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	return st, func() { st.Close() }, nil
}

func installDemoCatalogIfEmpty(ctx context.Context, st pricing.Store) error {
	products, err := st.ListCatalogProducts(ctx)
	if err != nil {
		return err
	}
	if len(products) > 0 {
		return nil
	}
	return catalog.DemoCatalog().Install(ctx, st, st)
}
