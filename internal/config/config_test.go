package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	// Point at an empty directory so no config file or .env interferes
	cfg, err := Load(writeConfig(t, ""))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Database.DSN != "./data/searchvault.db" {
		t.Errorf("database dsn = %q", cfg.Database.DSN)
	}
	if cfg.Search.WebAPI.MaxResults != 10 {
		t.Errorf("max results = %d", cfg.Search.WebAPI.MaxResults)
	}
	if cfg.Search.WebAPI.CredentialName != "serper_api_key" {
		t.Errorf("credential name = %q", cfg.Search.WebAPI.CredentialName)
	}
	if cfg.Search.NewsFeed.Endpoint == "" {
		t.Error("newsfeed endpoint default missing")
	}
	if cfg.Scheduler.TickInterval != "1s" {
		t.Errorf("tick interval = %q", cfg.Scheduler.TickInterval)
	}
	if cfg.Scheduler.SweepCron != "0 3 * * *" {
		t.Errorf("sweep cron = %q", cfg.Scheduler.SweepCron)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "console" {
		t.Errorf("logging defaults = %+v", cfg.Logging)
	}
	if cfg.Fetch.UserAgent != "searchvault/1.0" {
		t.Errorf("user agent = %q", cfg.Fetch.UserAgent)
	}
}

func TestLoadConfigFileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
database:
  dsn: /tmp/override.db
search:
  webapi:
    max_results: 25
logging:
  level: debug
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Database.DSN != "/tmp/override.db" {
		t.Errorf("database dsn = %q", cfg.Database.DSN)
	}
	if cfg.Search.WebAPI.MaxResults != 25 {
		t.Errorf("max results = %d", cfg.Search.WebAPI.MaxResults)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("logging level = %q", cfg.Logging.Level)
	}
	// Untouched keys keep their defaults
	if cfg.Search.WebAPI.Endpoint == "" {
		t.Error("webapi endpoint default lost")
	}
}

func TestLoadEnvOverridesFile(t *testing.T) {
	t.Setenv("SEARCHVAULT_DATABASE_DSN", "/tmp/from-env.db")
	t.Setenv("SEARCHVAULT_LOGGING_LEVEL", "warn")

	path := writeConfig(t, `
database:
  dsn: /tmp/from-file.db
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Database.DSN != "/tmp/from-env.db" {
		t.Errorf("database dsn = %q, want the env value", cfg.Database.DSN)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("logging level = %q, want the env value", cfg.Logging.Level)
	}
}

func TestCredentialsResolutionOrder(t *testing.T) {
	path := writeConfig(t, `
credentials:
  serper_api_key: from-file
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	resolver := cfg.Credentials()

	// Config-file fallback
	if value, ok := resolver("serper_api_key"); !ok || value != "from-file" {
		t.Fatalf("resolve = %q, %v", value, ok)
	}

	// Environment wins over the file
	t.Setenv("SEARCHVAULT_CREDENTIAL_SERPER_API_KEY", "from-env")
	if value, _ := resolver("serper_api_key"); value != "from-env" {
		t.Fatalf("resolve = %q, want the env value", value)
	}

	// Unknown credential reports not-configured
	if _, ok := resolver("no_such_key"); ok {
		t.Fatal("unknown credential resolved")
	}
}

func TestStaticCredentials(t *testing.T) {
	resolver := StaticCredentials(map[string]string{"present": "value", "empty": ""})

	if value, ok := resolver("present"); !ok || value != "value" {
		t.Fatalf("resolve = %q, %v", value, ok)
	}
	if _, ok := resolver("empty"); ok {
		t.Fatal("empty credential resolved")
	}
	if _, ok := resolver("missing"); ok {
		t.Fatal("missing credential resolved")
	}
}

// writeConfig writes a yaml config file into a temp dir and returns its path
func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}
