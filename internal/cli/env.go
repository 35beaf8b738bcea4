// Package cli holds the cobra subcommands of closure-importer.
package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"

	"github.com/insightdelivered/closure-importer/internal/config"
	"github.com/insightdelivered/closure-importer/internal/models"
	"github.com/insightdelivered/closure-importer/internal/money"
	"github.com/insightdelivered/closure-importer/internal/store"
)

// env is what every command needs: configuration, a logger and the store.
type env struct {
	cfg   *config.Config
	log   *logrus.Logger
	store *store.Store
}

// openEnv loads configuration, configures logging and opens the database.
// The caller must close the store.
func openEnv(jsonLogs bool) (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := config.SetupLogger(cfg.LogLevel, jsonLogs, os.Stderr); err != nil {
		return nil, err
	}
	log := config.GetLogger()

	s, err := store.Open(cfg.DBPath, log)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", cfg.DBPath, err)
	}
	return &env{cfg: cfg, log: log, store: s}, nil
}

func (e *env) Close() error {
	return e.store.Close()
}

// statusBadge colours a review status for terminal output.
func statusBadge(s models.Status) string {
	switch s {
	case models.StatusOK:
		return color.New(color.FgGreen).Sprint(string(s))
	case models.StatusMismatch:
		return color.New(color.FgYellow).Sprint(string(s))
	default:
		return color.New(color.FgRed).Sprint(string(s))
	}
}

func eur(cents int64) string {
	return money.CentsToDisplay(cents)
}

// timeNow is replaced in tests.
var timeNow = time.Now

func today() string {
	return timeNow().Format("2006-01-02")
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
