package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config holds the application configuration.
type Config struct {
	DBPath      string `validate:"required"`
	Port        string `validate:"required,numeric"`
	LogLevel    string `validate:"oneof=trace debug info warn warning error fatal panic"`
	StaticDir   string `validate:"omitempty,dir"`
	MaxUploadMB int    `validate:"min=1,max=1024"`
}

// MaxUploadBytes returns the request body limit for uploads.
func (c *Config) MaxUploadBytes() int {
	return c.MaxUploadMB * 1024 * 1024
}

// Load reads .env (if present) and the environment, then validates.
func Load() (*Config, error) {
	// It's okay if the .env file doesn't exist
	envLoaded := godotenv.Load() == nil

	cfg, err := FromEnv(os.Getenv)
	if err != nil {
		return nil, err
	}
	if envLoaded {
		GetLogger().Debug("Loaded environment variables from .env file.")
	}
	return cfg, nil
}

// FromEnv builds a Config from getenv, applying defaults.
func FromEnv(getenv func(string) string) (*Config, error) {
	cfg := &Config{
		DBPath:      getenv("CLOSURE_DB_PATH"),
		Port:        getenv("PORT"),
		LogLevel:    strings.ToLower(getenv("LOG_LEVEL")),
		StaticDir:   getenv("STATIC_DIR"),
		MaxUploadMB: 32,
	}

	if cfg.DBPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve home directory: %w", err)
		}
		cfg.DBPath = DefaultDBPath(home)
	}
	if cfg.Port == "" {
		cfg.Port = "8080"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if v := getenv("MAX_UPLOAD_MB"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid MAX_UPLOAD_MB %q: %w", v, err)
		}
		cfg.MaxUploadMB = n
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// DefaultDBPath is the database location under home.
func DefaultDBPath(home string) string {
	return filepath.Join(home, ".closure-importer", "closures.db")
}

var validate = validator.New()

// Validate checks the struct tags and reports every failing field.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var fields []string
	if verrs, ok := err.(validator.ValidationErrors); ok {
		for _, ve := range verrs {
			fields = append(fields, fmt.Sprintf("%s (%s)", ve.Field(), ve.Tag()))
		}
		return fmt.Errorf("invalid configuration: %s", strings.Join(fields, ", "))
	}
	return fmt.Errorf("invalid configuration: %w", err)
}
