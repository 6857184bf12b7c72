package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/teambition/rrule-go"
	"gopkg.in/yaml.v3"
)

// Defaults applied when the config file leaves a value unset
const (
	DefaultEcoScorePerCheckIn = 10
	DefaultTeamCapacity       = 10
	DefaultHTTPPort           = 8080
	DefaultAutoAssignTeamSize = 5
)

// RecurringEvent describes a cleanup that repeats on an RRULE schedule
type RecurringEvent struct {
	Title          string  `yaml:"title" validate:"required"`
	Description    string  `yaml:"description,omitempty"`
	Location       string  `yaml:"location" validate:"required"`
	RRule          string  `yaml:"rrule" validate:"required"`
	WasteAvailable float64 `yaml:"wasteAvailable" validate:"gte=0"`
}

// HTTPConfig configures the API server
type HTTPConfig struct {
	Port           int      `yaml:"port" validate:"omitempty,min=1,max=65535"`
	AllowedOrigins []string `yaml:"allowedOrigins,omitempty" validate:"dive,required"`
}

// FirebaseConfig locates the service account used for token verification and push messages
type FirebaseConfig struct {
	CredentialsFile string `yaml:"credentialsFile,omitempty"`
	ProjectID       string `yaml:"projectID,omitempty"`
}

// Config represents the application configuration
type Config struct {
	DatabaseURL        string           `yaml:"databaseURL" validate:"required"`
	HTTP               HTTPConfig       `yaml:"http"`
	Firebase           FirebaseConfig   `yaml:"firebase"`
	GmailUserID        string           `yaml:"gmailUserID,omitempty" validate:"omitempty,email"`
	GmailSender        string           `yaml:"gmailSender,omitempty"`
	ReportSheetID      string           `yaml:"reportSheetID,omitempty"`
	EcoScorePerCheckIn int              `yaml:"ecoScorePerCheckIn,omitempty" validate:"omitempty,min=1"`
	TeamCapacity       int              `yaml:"teamCapacity,omitempty" validate:"omitempty,min=1"`
	AutoAssignTeamSize int              `yaml:"autoAssignTeamSize,omitempty" validate:"omitempty,min=1"`
	RecurringEvents    []RecurringEvent `yaml:"recurringEvents,omitempty" validate:"dive"`
}

// Environment variables that override config file values
const (
	EnvDatabaseURL         = "DATABASE_URL"
	EnvFirebaseCredentials = "FIREBASE_CREDENTIALS_FILE"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// LoadWithEnv loads .env files and the configuration for an environment.
// env="test" reads ".env.test" and "seashield_config.test.yaml", falling back to
// ".env" and "seashield_config.yaml".
func LoadWithEnv(env string) (*Config, error) {
	if err := loadDotEnv(env); err != nil {
		return nil, err
	}

	configPath, err := findConfigFile(env)
	if err != nil {
		return nil, fmt.Errorf("failed to find config file: %w", err)
	}

	return LoadFromPath(configPath)
}

// LoadFromPath loads and validates the configuration from a specific path.
// Environment overrides and defaults are applied before validation.
func LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyEnvOverrides(&cfg)
	applyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate validates the configuration struct and checks rrule syntax
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	for i, event := range cfg.RecurringEvents {
		if _, err := rrule.StrToRRule(event.RRule); err != nil {
			return fmt.Errorf("invalid rrule in recurringEvents[%d]: %w", i, err)
		}
	}

	return nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv(EnvDatabaseURL); v != "" {
		cfg.DatabaseURL = v
	}
	if v := os.Getenv(EnvFirebaseCredentials); v != "" {
		cfg.Firebase.CredentialsFile = v
	}
}

// Defaults returns a configuration with every default applied and no database,
// for running against the in-memory store
func Defaults() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.EcoScorePerCheckIn == 0 {
		cfg.EcoScorePerCheckIn = DefaultEcoScorePerCheckIn
	}
	if cfg.TeamCapacity == 0 {
		cfg.TeamCapacity = DefaultTeamCapacity
	}
	if cfg.AutoAssignTeamSize == 0 {
		cfg.AutoAssignTeamSize = DefaultAutoAssignTeamSize
	}
	if cfg.HTTP.Port == 0 {
		cfg.HTTP.Port = DefaultHTTPPort
	}
}

// loadDotEnv loads the environment-specific .env file and then the shared one.
// Variables already set in the process environment win. Missing files are ignored.
func loadDotEnv(env string) error {
	files := []string{".env"}
	if env != "" {
		files = []string{".env." + env, ".env"}
	}

	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", f, err)
		}
	}

	return nil
}

// findConfigFile searches for the environment's config file, then the shared one
func findConfigFile(env string) (string, error) {
	names := []string{"seashield_config.yaml"}
	if env != "" {
		names = []string{"seashield_config." + env + ".yaml", "seashield_config.yaml"}
	}
	return findFile(names)
}

// findFile returns the first of names found in the current directory or the
// home directory, trying each name in both places before moving to the next
func findFile(names []string) (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	for _, name := range names {
		if _, err := os.Stat(name); err == nil {
			return name, nil
		}

		homePath := filepath.Join(homeDir, name)
		if _, err := os.Stat(homePath); err == nil {
			return homePath, nil
		}
	}

	return "", fmt.Errorf("%s not found in current directory or home directory", names[0])
}
