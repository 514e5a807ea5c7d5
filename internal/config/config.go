package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/teambition/rrule-go"
	"gopkg.in/yaml.v3"
)

const (
	EnvDatabaseURL = "VOLUNTEER_DATABASE_URL"
	EnvTokenSecret = "VOLUNTEER_TOKEN_SECRET"
)

// HTTPConfig configures the API listener
type HTTPConfig struct {
	Addr string `yaml:"addr" validate:"required"`
}

// AuthConfig configures actor tokens
type AuthConfig struct {
	TokenSecret string        `yaml:"tokenSecret" validate:"required,min=16"`
	TokenTTL    time.Duration `yaml:"tokenTTL" validate:"gt=0"`
}

// RemindersConfig configures the event reminder job
type RemindersConfig struct {
	LeadDays int `yaml:"leadDays" validate:"min=1,max=30"`
}

// EmailConfig configures the notification email relay
type EmailConfig struct {
	Enabled     bool   `yaml:"enabled"`
	GmailUserID string `yaml:"gmailUserID" validate:"required_if=Enabled true"`
	Sender      string `yaml:"sender,omitempty" validate:"omitempty,email"`
	// BaseURL prefixes event links in emails
	BaseURL string `yaml:"baseURL" validate:"omitempty,url"`
}

// RosterConfig configures the roster export
type RosterConfig struct {
	SpreadsheetID string `yaml:"spreadsheetID,omitempty"`
}

// SeriesConfig configures recurring event creation
type SeriesConfig struct {
	MaxOccurrences int `yaml:"maxOccurrences" validate:"min=1,max=366"`
	// DefaultRRule is used by the CLI when no rule is given
	DefaultRRule string `yaml:"defaultRRule,omitempty"`
}

// Config represents the application configuration
type Config struct {
	DatabaseURL string          `yaml:"databaseURL" validate:"required"`
	HTTP        HTTPConfig      `yaml:"http"`
	Auth        AuthConfig      `yaml:"auth"`
	LogLevel    string          `yaml:"logLevel" validate:"oneof=debug info warn error"`
	Reminders   RemindersConfig `yaml:"reminders"`
	Email       EmailConfig     `yaml:"email"`
	Roster      RosterConfig    `yaml:"roster"`
	Series      SeriesConfig    `yaml:"series"`
}

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// defaults returns a config with every optional field set
func defaults() Config {
	return Config{
		HTTP:      HTTPConfig{Addr: ":8080"},
		Auth:      AuthConfig{TokenTTL: 24 * time.Hour},
		LogLevel:  "info",
		Reminders: RemindersConfig{LeadDays: 1},
		Series:    SeriesConfig{MaxOccurrences: 52},
	}
}

// Load loads and validates the configuration from volunteer_config.yaml
func Load() (*Config, error) {
	return LoadWithEnv("")
}

// LoadWithEnv loads and validates the configuration with an environment suffix.
// For example, env="test" looks for "volunteer_config.test.yaml".
// It looks in the current directory first, then in the user's home directory.
func LoadWithEnv(env string) (*Config, error) {
	configPath, err := findConfigFile(env)
	if err != nil {
		return nil, fmt.Errorf("failed to find config file: %w", err)
	}

	return LoadFromPath(configPath)
}

// LoadFromPath loads and validates the configuration from a specific path.
// Secrets from the process environment (or a .env file) override the file.
func LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := defaults()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// a missing .env is fine
	_ = godotenv.Load()
	applyEnv(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv(EnvDatabaseURL); v != "" {
		cfg.DatabaseURL = v
	}
	if v := os.Getenv(EnvTokenSecret); v != "" {
		cfg.Auth.TokenSecret = v
	}
}

// Validate validates the configuration struct and checks rrule syntax
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	if cfg.Series.DefaultRRule != "" {
		if _, err := rrule.StrToRRule(cfg.Series.DefaultRRule); err != nil {
			return fmt.Errorf("invalid rrule in series.defaultRRule: %w", err)
		}
	}

	return nil
}

// findConfigFile searches for the config file in the current directory and home directory
func findConfigFile(env string) (string, error) {
	configFileName := "volunteer_config.yaml"
	if env != "" {
		configFileName = "volunteer_config." + env + ".yaml"
	}

	// Check current directory
	if _, err := os.Stat(configFileName); err == nil {
		return configFileName, nil
	}

	// Check home directory
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	homeConfigPath := filepath.Join(homeDir, configFileName)
	if _, err := os.Stat(homeConfigPath); err == nil {
		return homeConfigPath, nil
	}

	return "", fmt.Errorf("%s not found in current directory or home directory", configFileName)
}
