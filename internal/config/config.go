package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	Database  DatabaseConfig  `mapstructure:"database"`
	Search    SearchConfig    `mapstructure:"search"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Fetch     FetchConfig     `mapstructure:"fetch"`

	viper *viper.Viper `mapstructure:"-"`
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	DSN string `mapstructure:"dsn"` // sqlite file path
}

// SearchConfig holds search provider settings
type SearchConfig struct {
	WebAPI   WebAPIConfig   `mapstructure:"webapi"`
	NewsFeed NewsFeedConfig `mapstructure:"newsfeed"`
}

// WebAPIConfig holds the JSON web-search provider settings
type WebAPIConfig struct {
	Endpoint       string `mapstructure:"endpoint"`
	CredentialName string `mapstructure:"credential_name"`
	MaxResults     int    `mapstructure:"max_results"`
}

// NewsFeedConfig holds the feed-search provider settings
type NewsFeedConfig struct {
	Endpoint string `mapstructure:"endpoint"`
}

// StorageConfig holds local filesystem layout settings
type StorageConfig struct {
	AssetDir  string `mapstructure:"asset_dir"`  // downloaded asset bytes
	ExportDir string `mapstructure:"export_dir"` // plain-text article exports
}

// SchedulerConfig holds scheduler settings
type SchedulerConfig struct {
	TickInterval string `mapstructure:"tick_interval"` // Go duration, e.g. "1s"
	SweepCron    string `mapstructure:"sweep_cron"`    // stale temp-file sweep
}

// RateLimitConfig holds rate limiting settings
type RateLimitConfig struct {
	SearchRequestsPerHour int `mapstructure:"search_requests_per_hour"`
	PageRequestsPerSecond int `mapstructure:"page_requests_per_second"`
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json or console
	Output string `mapstructure:"output"` // stdout or file path
}

// FetchConfig holds page/asset HTTP fetch settings
type FetchConfig struct {
	Timeout   string `mapstructure:"timeout"` // Go duration
	UserAgent string `mapstructure:"user_agent"`
}

// Load loads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	// Load .env file if present (ignore errors if not found)
	_ = godotenv.Load()
	_ = godotenv.Load(".env.local")

	v := viper.New()

	// Set defaults
	setDefaults(v)

	// Config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// Look for config in current directory and configs folder
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")

		// Also check user's home directory
		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(filepath.Join(home, ".searchvault"))
		}
	}

	// Environment variables
	v.SetEnvPrefix("SEARCHVAULT")
	v.AutomaticEnv()

	// Explicit bindings for nested keys (Viper doesn't auto-bind underscored nested keys)
	v.BindEnv("database.dsn", "SEARCHVAULT_DATABASE_DSN")
	v.BindEnv("search.webapi.endpoint", "SEARCHVAULT_SEARCH_WEBAPI_ENDPOINT")
	v.BindEnv("search.webapi.credential_name", "SEARCHVAULT_SEARCH_WEBAPI_CREDENTIAL_NAME")
	v.BindEnv("search.newsfeed.endpoint", "SEARCHVAULT_SEARCH_NEWSFEED_ENDPOINT")
	v.BindEnv("storage.asset_dir", "SEARCHVAULT_STORAGE_ASSET_DIR")
	v.BindEnv("storage.export_dir", "SEARCHVAULT_STORAGE_EXPORT_DIR")
	v.BindEnv("scheduler.tick_interval", "SEARCHVAULT_SCHEDULER_TICK_INTERVAL")
	v.BindEnv("logging.level", "SEARCHVAULT_LOGGING_LEVEL")

	// Read config file (ignore if not found)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	config.viper = v
	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Database defaults
	v.SetDefault("database.dsn", "./data/searchvault.db")

	// Search defaults
	v.SetDefault("search.webapi.endpoint", "https://google.serper.dev/search")
	v.SetDefault("search.webapi.credential_name", "serper_api_key")
	v.SetDefault("search.webapi.max_results", 10)
	v.SetDefault("search.newsfeed.endpoint", "https://news.google.com/rss/search")

	// Storage defaults
	v.SetDefault("storage.asset_dir", "./data/assets")
	v.SetDefault("storage.export_dir", "./data/exports")

	// Scheduler defaults
	v.SetDefault("scheduler.tick_interval", "1s")
	v.SetDefault("scheduler.sweep_cron", "0 3 * * *") // 3am daily temp-file sweep

	// Rate limit defaults
	v.SetDefault("rate_limit.search_requests_per_hour", 100)
	v.SetDefault("rate_limit.page_requests_per_second", 2)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.output", "stdout")

	// Fetch defaults
	v.SetDefault("fetch.timeout", "30s")
	v.SetDefault("fetch.user_agent", "searchvault/1.0")
}
