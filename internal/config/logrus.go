package config

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

var (
	logg *logrus.Logger
)

// GetLogger returns the process-wide logger.
func GetLogger() *logrus.Logger {
	return logg
}

func init() {
	logg = logrus.New()
	logg.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	logg.SetLevel(logrus.InfoLevel)
	logg.SetOutput(os.Stderr)
}

// SetupLogger applies level and format to the process-wide logger.
// JSON output is used for the server, text for interactive commands.
func SetupLogger(level string, json bool, out io.Writer) error {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return err
	}
	logg.SetLevel(lvl)
	if json {
		logg.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logg.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	}
	if out != nil {
		logg.SetOutput(out)
	}
	return nil
}

// LogError logs err at error level, tagged with where it happened and the
// data being handled.
func LogError(logger *logrus.Logger, moduleName string, funcName string, context string, data any, err error) {
	fields := logrus.Fields{
		"module":   moduleName,
		"funcName": funcName,
		"context":  context,
	}
	if data != nil {
		fields["data"] = data
	}
	logger.WithFields(fields).Error(err.Error())
}
