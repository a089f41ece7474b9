package common

import (
	"os"

	"messagely/internal/config"

	"github.com/sirupsen/logrus"
)

// SetupLogger configures the standard logrus logger from config.
func SetupLogger(cfg *config.Config) {
	logrus.SetOutput(os.Stdout)

	if cfg.Logging.Format == "json" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	level, err := logrus.ParseLevel(cfg.Logging.Level)
	if err != nil {
		logrus.WithError(err).Warnf("Unknown log level %q, using info", cfg.Logging.Level)
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
}
