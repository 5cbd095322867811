package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/searchvault/internal/assets"
	"github.com/searchvault/internal/config"
	"github.com/searchvault/internal/extract"
	"github.com/searchvault/internal/ingest"
	"github.com/searchvault/internal/models"
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
		Use:   "searchvault",
		Short: "Search-ingestion pipeline for saved queries",
		Long: `Registers search queries, runs them manually or on a daily schedule,
and archives every result page with its extracted content and assets.`,
		PersistentPreRunE: initializeApp,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./configs/config.yaml)")

	// Add subcommands
	rootCmd.AddCommand(queriesCmd())
	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(articlesCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func initializeApp(cmd *cobra.Command, args []string) error {
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

	// Initialize storage
	repo, err = sqlite.New(cfg.Database.DSN)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	// Run migrations
	if err := repo.Migrate(); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// buildExecutor assembles the ingestion stack shared by run commands
func buildExecutor() (*ingest.Executor, error) {
	limiter := ratelimit.New(cfg.RateLimit.SearchRequestsPerHour, cfg.RateLimit.PageRequestsPerSecond)

	store, err := assets.NewStore(cfg.Storage.AssetDir, log)
	if err != nil {
		return nil, fmt.Errorf("failed to open asset store: %w", err)
	}

	fetchTimeout, _ := time.ParseDuration(cfg.Fetch.Timeout)
	fetcher := assets.NewFetcher(fetchTimeout, cfg.Fetch.UserAgent, limiter, log)
	extractor := extract.New(log)

	executor := ingest.NewExecutor(repo, extractor, fetcher, store, ingest.Config{
		ExportDir: cfg.Storage.ExportDir,
		Timeout:   fetchTimeout,
		UserAgent: cfg.Fetch.UserAgent,
	}, limiter, log)
	executor.RegisterClient(webapi.New(cfg.Search.WebAPI, cfg.Credentials(), limiter, log))
	executor.RegisterClient(newsfeed.New(cfg.Search.NewsFeed, limiter, log))

	return executor, nil
}

// ============ QUERY COMMANDS ============

func queriesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "queries",
		Short: "Saved query management",
	}

	cmd.AddCommand(queriesAddCmd())
	cmd.AddCommand(queriesEditCmd())
	cmd.AddCommand(queriesListCmd())
	cmd.AddCommand(queriesEnableCmd(true))
	cmd.AddCommand(queriesEnableCmd(false))
	cmd.AddCommand(queriesDeleteCmd())
	return cmd
}

func queriesAddCmd() *cobra.Command {
	var (
		name       string
		language   string
		region     string
		location   string
		safeSearch bool
		resultType string
		timeRange  string
		filter     string
		provider   string
		schedule   string
	)

	cmd := &cobra.Command{
		Use:   "add <query text>",
		Short: "Save a new search query",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			queryCfg := &models.QueryConfig{
				Name:       name,
				Query:      args[0],
				Language:   language,
				Region:     region,
				Location:   location,
				SafeSearch: safeSearch,
				ResultType: resultType,
				TimeRange:  timeRange,
				Filter:     filter,
				Provider:   provider,
			}

			if schedule != "" {
				if _, err := models.ParseClock(schedule); err != nil {
					return fmt.Errorf("invalid --schedule: %w", err)
				}
				queryCfg.Automated = true
				queryCfg.Schedule = models.ScheduleSpec{
					Time:    schedule,
					Enabled: true,
				}
			}

			if err := repo.CreateQueryConfig(ctx, queryCfg); err != nil {
				return err
			}

			fmt.Printf("Saved query %d: %q", queryCfg.ID, queryCfg.Query)
			if queryCfg.Automated {
				fmt.Printf(" (daily at %s)", queryCfg.Schedule.Time)
			}
			fmt.Println()
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Display name")
	cmd.Flags().StringVar(&language, "language", "", "Result language (e.g. en)")
	cmd.Flags().StringVar(&region, "region", "", "Result region (e.g. us)")
	cmd.Flags().StringVar(&location, "location", "", "Location bias")
	cmd.Flags().BoolVar(&safeSearch, "safe", true, "Safe-search filtering")
	cmd.Flags().StringVar(&resultType, "type", "", "Result type (web, news, images)")
	cmd.Flags().StringVar(&timeRange, "time-range", "", "Time range (day, week, month, year)")
	cmd.Flags().StringVar(&filter, "filter", "", "Free-form provider filter")
	cmd.Flags().StringVar(&provider, "provider", models.ProviderWebAPI, "Search provider (webapi, newsfeed)")
	cmd.Flags().StringVar(&schedule, "schedule", "", "Daily trigger time HH:MM (makes the query automated)")
	return cmd
}

func queriesEditCmd() *cobra.Command {
	var (
		query      string
		name       string
		language   string
		region     string
		location   string
		resultType string
		timeRange  string
		filter     string
		provider   string
		schedule   string
	)

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Edit a saved query",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			queryCfg, err := repo.GetQueryConfigByID(ctx, id)
			if err != nil {
				return fmt.Errorf("query %d not found: %w", id, err)
			}

			// Only flags the user actually set are applied
			flags := cmd.Flags()
			if flags.Changed("query") {
				queryCfg.Query = query
			}
			if flags.Changed("name") {
				queryCfg.Name = name
			}
			if flags.Changed("language") {
				queryCfg.Language = language
			}
			if flags.Changed("region") {
				queryCfg.Region = region
			}
			if flags.Changed("location") {
				queryCfg.Location = location
			}
			if flags.Changed("type") {
				queryCfg.ResultType = resultType
			}
			if flags.Changed("time-range") {
				queryCfg.TimeRange = timeRange
			}
			if flags.Changed("filter") {
				queryCfg.Filter = filter
			}
			if flags.Changed("provider") {
				queryCfg.Provider = provider
			}
			if flags.Changed("schedule") {
				if schedule == "" {
					queryCfg.Automated = false
					queryCfg.Schedule.Enabled = false
				} else {
					if _, err := models.ParseClock(schedule); err != nil {
						return fmt.Errorf("invalid --schedule: %w", err)
					}
					queryCfg.Automated = true
					queryCfg.Schedule.Time = schedule
					queryCfg.Schedule.Enabled = true
				}
			}

			if err := repo.UpdateQueryConfig(ctx, queryCfg); err != nil {
				return err
			}

			fmt.Printf("Query %d updated\n", id)
			return nil
		},
	}

	cmd.Flags().StringVar(&query, "query", "", "Query text")
	cmd.Flags().StringVar(&name, "name", "", "Display name")
	cmd.Flags().StringVar(&language, "language", "", "Result language")
	cmd.Flags().StringVar(&region, "region", "", "Result region")
	cmd.Flags().StringVar(&location, "location", "", "Location bias")
	cmd.Flags().StringVar(&resultType, "type", "", "Result type (web, news, images)")
	cmd.Flags().StringVar(&timeRange, "time-range", "", "Time range (day, week, month, year)")
	cmd.Flags().StringVar(&filter, "filter", "", "Free-form provider filter")
	cmd.Flags().StringVar(&provider, "provider", "", "Search provider (webapi, newsfeed)")
	cmd.Flags().StringVar(&schedule, "schedule", "", "Daily trigger HH:MM; empty clears the schedule")
	return cmd
}

func queriesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved queries",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			configs, err := repo.ListQueryConfigs(ctx, storage.QueryFilter{})
			if err != nil {
				return err
			}

			if len(configs) == 0 {
				fmt.Println("No saved queries.")
				return nil
			}

			for _, c := range configs {
				fmt.Printf("[%d] %q provider=%s", c.ID, c.Query, c.Provider)
				if c.Automated {
					state := "disabled"
					if c.Schedule.Enabled {
						state = "enabled"
					}
					fmt.Printf(" daily@%s (%s, runs=%d", c.Schedule.Time, state, c.Schedule.ExecutionCount)
					if c.Schedule.LastRunAt != nil {
						fmt.Printf(", last=%s", c.Schedule.LastRunAt.Format(time.RFC3339))
					}
					fmt.Printf(")")
				}
				fmt.Println()
			}
			return nil
		},
	}
}

func queriesEnableCmd(enable bool) *cobra.Command {
	use, short := "enable <id>", "Enable a query's schedule"
	if !enable {
		use, short = "disable <id>", "Disable a query's schedule"
	}

	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			queryCfg, err := repo.GetQueryConfigByID(ctx, id)
			if err != nil {
				return fmt.Errorf("query %d not found: %w", id, err)
			}

			queryCfg.Automated = queryCfg.Automated || enable
			queryCfg.Schedule.Enabled = enable
			if err := repo.UpdateQueryConfig(ctx, queryCfg); err != nil {
				return err
			}

			fmt.Printf("Query %d schedule %s\n", id, map[bool]string{true: "enabled", false: "disabled"}[enable])
			return nil
		},
	}
}

func queriesDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a saved query",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			if err := repo.DeleteQueryConfig(ctx, id); err != nil {
				return err
			}

			fmt.Printf("Query %d deleted\n", id)
			return nil
		},
	}
}

// ============ RUN COMMAND ============

func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run <query-id>",
		Short: "Run ingestion for a saved query now",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			queryCfg, err := repo.GetQueryConfigByID(ctx, id)
			if err != nil {
				return fmt.Errorf("query %d not found: %w", id, err)
			}

			executor, err := buildExecutor()
			if err != nil {
				return err
			}

			result, err := executor.Run(ctx, queryCfg, ingest.Hooks{
				OnProgress: func(p ingest.Progress) {
					fmt.Printf("\rProcessing %d/%d...", p.Current, p.Total)
				},
			})
			fmt.Println()
			if result != nil {
				fmt.Printf("\n=== Run Summary ===\n")
				fmt.Printf("Articles created:   %d\n", result.ArticlesCreated)
				fmt.Printf("Duplicates skipped: %d\n", result.DuplicatesSkipped)
				fmt.Printf("Failures:           %d\n", result.Failures)
				fmt.Printf("Duration:           %s\n", result.Duration)
				if result.AbortReason != "" {
					fmt.Printf("Aborted:            %s\n", result.AbortReason)
				}
				for _, e := range result.Errors {
					fmt.Printf("  - %s\n", e)
				}
			}
			return err
		},
	}
}

// ============ ARTICLE COMMANDS ============

func articlesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "articles",
		Short: "Ingested article management",
	}

	cmd.AddCommand(articlesListCmd())
	cmd.AddCommand(articlesShowCmd())
	cmd.AddCommand(articlesDeleteCmd())
	return cmd
}

func articlesListCmd() *cobra.Command {
	var queryID uint

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List ingested articles",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			filter := storage.DefaultArticleFilter()
			if queryID != 0 {
				filter.QueryConfigID = &queryID
			}

			articles, err := repo.ListArticles(ctx, filter)
			if err != nil {
				return err
			}

			if len(articles) == 0 {
				fmt.Println("No articles.")
				return nil
			}

			for _, a := range articles {
				fmt.Printf("[%d] %s\n     %s (query %d, %d words, %d min, %d assets)\n",
					a.ID, a.Title, a.URL, a.QueryConfigID, a.WordCount, a.ReadingTime, a.AssetCount())
			}
			return nil
		},
	}

	cmd.Flags().UintVar(&queryID, "query", 0, "Filter by parent query ID")
	return cmd
}

func articlesShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one article",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			a, err := repo.GetArticleByID(ctx, id)
			if err != nil {
				return fmt.Errorf("article %d not found: %w", id, err)
			}

			fmt.Printf("Title:       %s\n", a.Title)
			fmt.Printf("URL:         %s\n", a.URL)
			fmt.Printf("Author:      %s\n", a.Author)
			fmt.Printf("Published:   %s\n", a.PublishDate)
			fmt.Printf("Language:    %s\n", a.Language)
			fmt.Printf("Words:       %d (%d min read)\n", a.WordCount, a.ReadingTime)
			fmt.Printf("Tags:        %v\n", []string(a.Tags))
			fmt.Printf("Links:       %d\n", len(a.Links))
			fmt.Printf("Videos:      %d\n", len(a.Videos))
			fmt.Printf("Audios:      %d\n", len(a.Audios))
			fmt.Printf("Assets:      %d stored, %d bytes\n", a.AssetCount(), a.AssetBytes())
			for _, asset := range a.Assets {
				path := "(download failed)"
				if asset.LocalPath != nil {
					path = *asset.LocalPath
				}
				fmt.Printf("  - %s -> %s\n", asset.SourceURL, path)
			}
			return nil
		},
	}
}

func articlesDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an article and its stored assets",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			a, err := repo.GetArticleByID(ctx, id)
			if err != nil {
				return fmt.Errorf("article %d not found: %w", id, err)
			}

			if err := repo.DeleteArticle(ctx, id); err != nil {
				return err
			}

			// Remove stored asset bytes and the article's partition dir
			for _, asset := range a.Assets {
				if asset.LocalPath == nil {
					continue
				}
				os.Remove(*asset.LocalPath)
				os.Remove(filepath.Dir(*asset.LocalPath))
			}

			// Remove the plain-text export
			os.Remove(filepath.Join(cfg.Storage.ExportDir, fmt.Sprintf("%d.txt", id)))

			fmt.Printf("Article %d deleted\n", id)
			return nil
		},
	}
}

func parseID(arg string) (uint, error) {
	id, err := strconv.ParseUint(arg, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q", arg)
	}
	return uint(id), nil
}
