package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/searchvault/internal/assets"
	"github.com/searchvault/internal/config"
	"github.com/searchvault/internal/extract"
	"github.com/searchvault/internal/ingest"
	"github.com/searchvault/internal/schedule"
	"github.com/searchvault/internal/search/newsfeed"
	"github.com/searchvault/internal/search/webapi"
	"github.com/searchvault/internal/storage"
	"github.com/searchvault/internal/storage/sqlite"
	"github.com/searchvault/pkg/logger"
	"github.com/searchvault/pkg/ratelimit"
)

var (
	cfgFile string
	cfg     *config.Config
	log     *logger.Logger
	repo    storage.Repository
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "searchvault-scheduler",
		Short: "Background scheduler for searchvault",
		Long: `Runs the recurring search-ingestion schedule in the background.
This daemon should be run as a service for autonomous operation.`,
		RunE: runScheduler,
	}

	rootCmd.Flags().StringVar(&cfgFile, "config", "", "config file path")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runScheduler(cmd *cobra.Command, args []string) error {
	var err error

	// Load config
	cfg, err = config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize logger
	log = logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})

	log.Info().Msg("Starting searchvault scheduler")

	// Initialize storage
	repo, err = sqlite.New(cfg.Database.DSN)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer repo.Close()

	if err := repo.Migrate(); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	// Start health check server
	go startHealthServer()

	// Build the ingestion stack
	limiter := ratelimit.New(cfg.RateLimit.SearchRequestsPerHour, cfg.RateLimit.PageRequestsPerSecond)
	credentials := cfg.Credentials()

	store, err := assets.NewStore(cfg.Storage.AssetDir, log)
	if err != nil {
		return fmt.Errorf("failed to open asset store: %w", err)
	}

	fetchTimeout, _ := time.ParseDuration(cfg.Fetch.Timeout)
	fetcher := assets.NewFetcher(fetchTimeout, cfg.Fetch.UserAgent, limiter, log)
	extractor := extract.New(log)

	executor := ingest.NewExecutor(repo, extractor, fetcher, store, ingest.Config{
		ExportDir: cfg.Storage.ExportDir,
		Timeout:   fetchTimeout,
		UserAgent: cfg.Fetch.UserAgent,
	}, limiter, log)
	executor.RegisterClient(webapi.New(cfg.Search.WebAPI, credentials, limiter, log))
	executor.RegisterClient(newsfeed.New(cfg.Search.NewsFeed, limiter, log))

	// Create the scheduler and load the fire table
	tickInterval, _ := time.ParseDuration(cfg.Scheduler.TickInterval)
	scheduler := schedule.New(repo, executor, tickInterval, log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := scheduler.Load(ctx); err != nil {
		return fmt.Errorf("failed to load schedule table: %w", err)
	}

	// Nightly maintenance: sweep temp files left by crashed or cancelled
	// asset downloads
	c := cron.New(cron.WithLogger(cronLogger{log}))
	_, err = c.AddFunc(cfg.Scheduler.SweepCron, func() {
		removed, err := store.SweepTemp(24 * time.Hour)
		if err != nil {
			log.Error().Err(err).Msg("Temp-file sweep failed")
			return
		}
		log.Info().Int("removed", removed).Msg("Temp-file sweep completed")
	})
	if err != nil {
		return fmt.Errorf("failed to schedule sweep job: %w", err)
	}
	c.Start()
	log.Info().Str("cron", cfg.Scheduler.SweepCron).Msg("Sweep job scheduled")

	// Run the tick loop until shutdown
	scheduler.Start(ctx)

	log.Info().Msg("Shutting down scheduler")
	c.Stop()

	return nil
}

// cronLogger adapts our logger for cron
type cronLogger struct {
	log *logger.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Info().Msgf(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error().Err(err).Msgf(msg, keysAndValues...)
}

// startHealthServer starts a simple HTTP server for health checks
func startHealthServer() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "10000"
	}

	http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	http.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("searchvault scheduler"))
	})

	log.Info().Str("port", port).Msg("Health check server starting")
	if err := http.ListenAndServe(":"+port, nil); err != nil {
		log.Error().Err(err).Msg("Health server failed")
	}
}
