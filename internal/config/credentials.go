package config

import (
	"os"
	"strings"
)

// CredentialResolver resolves a named secret. Implementations return
// ("", false) when the credential is not configured; callers map that to
// their own missing-credential error.
type CredentialResolver func(name string) (string, bool)

// Credentials returns a resolver backed by the environment with a fallback
// to plain `credentials.<name>` values from the config file. The environment
// stands in for the platform secret store; the config value is the plain
// preference fallback.
func (c *Config) Credentials() CredentialResolver {
	return func(name string) (string, bool) {
		envKey := "SEARCHVAULT_CREDENTIAL_" + strings.ToUpper(strings.ReplaceAll(name, "-", "_"))
		if value := os.Getenv(envKey); value != "" {
			return value, true
		}
		if c.viper != nil {
			if value := c.viper.GetString("credentials." + name); value != "" {
				return value, true
			}
		}
		return "", false
	}
}

// StaticCredentials returns a resolver over a fixed map (for tests)
func StaticCredentials(values map[string]string) CredentialResolver {
	return func(name string) (string, bool) {
		value, ok := values[name]
		return value, ok && value != ""
	}
}
