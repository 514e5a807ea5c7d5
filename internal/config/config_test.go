package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	cfg := defaults()
	cfg.DatabaseURL = "postgres://localhost:5432/volunteers"
	cfg.Auth.TokenSecret = "0123456789abcdef0123"
	return &cfg
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "volunteer_config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

// clearEnv keeps secrets from the test runner's environment out of the result
func clearEnv(t *testing.T) {
	t.Setenv(EnvDatabaseURL, "")
	t.Setenv(EnvTokenSecret, "")
}

func TestValidate_ValidConfig(t *testing.T) {
	cfg := validConfig()
	cfg.Email = EmailConfig{
		Enabled:     true,
		GmailUserID: "me",
		Sender:      "events@example.com",
		BaseURL:     "https://volunteer.example.com",
	}
	cfg.Series.DefaultRRule = "FREQ=MONTHLY;BYDAY=1SU;BYMONTH=1,4,7,10"

	assert.NoError(t, Validate(cfg))
}

func TestValidate_MinimalConfig(t *testing.T) {
	assert.NoError(t, Validate(validConfig()))
}

func TestValidate_Failures(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"missing database url", func(c *Config) { c.DatabaseURL = "" }, "validation failed"},
		{"short token secret", func(c *Config) { c.Auth.TokenSecret = "short" }, "validation failed"},
		{"zero token ttl", func(c *Config) { c.Auth.TokenTTL = 0 }, "validation failed"},
		{"unknown log level", func(c *Config) { c.LogLevel = "verbose" }, "validation failed"},
		{"reminder lead too long", func(c *Config) { c.Reminders.LeadDays = 31 }, "validation failed"},
		{"email enabled without user", func(c *Config) { c.Email.Enabled = true }, "validation failed"},
		{"bad base url", func(c *Config) { c.Email.BaseURL = "not a url" }, "validation failed"},
		{"zero series cap", func(c *Config) { c.Series.MaxOccurrences = 0 }, "validation failed"},
		{"invalid rrule", func(c *Config) { c.Series.DefaultRRule = "INVALID_RRULE_SYNTAX" }, "invalid rrule"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := Validate(cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadFromPath_ValidConfig(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
databaseURL: "postgres://localhost:5432/volunteers"
http:
  addr: ":9090"
auth:
  tokenSecret: "0123456789abcdef0123"
  tokenTTL: 2h
logLevel: debug
reminders:
  leadDays: 2
email:
  enabled: true
  gmailUserID: me
  sender: events@example.com
  baseURL: https://volunteer.example.com
roster:
  spreadsheetID: sheet123
series:
  maxOccurrences: 12
  defaultRRule: "FREQ=WEEKLY;BYDAY=SA"
`)

	cfg, err := LoadFromPath(path)
	require.NoError(t, err)

	assert.Equal(t, "postgres://localhost:5432/volunteers", cfg.DatabaseURL)
	assert.Equal(t, ":9090", cfg.HTTP.Addr)
	assert.Equal(t, 2*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 2, cfg.Reminders.LeadDays)
	assert.True(t, cfg.Email.Enabled)
	assert.Equal(t, "https://volunteer.example.com", cfg.Email.BaseURL)
	assert.Equal(t, "sheet123", cfg.Roster.SpreadsheetID)
	assert.Equal(t, 12, cfg.Series.MaxOccurrences)
	assert.Equal(t, "FREQ=WEEKLY;BYDAY=SA", cfg.Series.DefaultRRule)
}

func TestLoadFromPath_MinimalConfigGetsDefaults(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
databaseURL: "postgres://localhost:5432/volunteers"
auth:
  tokenSecret: "0123456789abcdef0123"
`)

	cfg, err := LoadFromPath(path)
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, 24*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 1, cfg.Reminders.LeadDays)
	assert.Equal(t, 52, cfg.Series.MaxOccurrences)
	assert.False(t, cfg.Email.Enabled)
	assert.Empty(t, cfg.Roster.SpreadsheetID)
}

func TestLoadFromPath_EnvOverridesSecrets(t *testing.T) {
	t.Setenv(EnvDatabaseURL, "postgres://override/volunteers")
	t.Setenv(EnvTokenSecret, "override-secret-0123456789")
	path := writeConfig(t, `
auth:
  tokenTTL: 1h
`)

	cfg, err := LoadFromPath(path)
	require.NoError(t, err)

	assert.Equal(t, "postgres://override/volunteers", cfg.DatabaseURL)
	assert.Equal(t, "override-secret-0123456789", cfg.Auth.TokenSecret)
}

func TestLoadFromPath_MissingRequiredField(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
auth:
  tokenSecret: "0123456789abcdef0123"
`)

	_, err := LoadFromPath(path)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
}

func TestLoadFromPath_InvalidRRule(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
databaseURL: "postgres://localhost:5432/volunteers"
auth:
  tokenSecret: "0123456789abcdef0123"
series:
  defaultRRule: "INVALID_RRULE_SYNTAX"
`)

	_, err := LoadFromPath(path)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid rrule")
}

func TestLoadFromPath_InvalidYAML(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
databaseURL: "postgres://localhost:5432/volunteers"
  invalid indentation
logLevel: info
`)

	_, err := LoadFromPath(path)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config file")
}

func TestLoadFromPath_FileNotFound(t *testing.T) {
	_, err := LoadFromPath("/nonexistent/path/config.yaml")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoadWithEnv_FindsFileInWorkingDir(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "volunteer_config.staging.yaml"), []byte(`
databaseURL: "postgres://localhost:5432/staging"
auth:
  tokenSecret: "0123456789abcdef0123"
`), 0644))

	cfg, err := LoadWithEnv("staging")
	require.NoError(t, err)
	assert.Equal(t, "postgres://localhost:5432/staging", cfg.DatabaseURL)

	t.Setenv("HOME", t.TempDir())
	_, err = LoadWithEnv("missing")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "volunteer_config.missing.yaml not found")
}
