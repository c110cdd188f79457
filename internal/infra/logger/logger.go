// internal/infra/logger/logger.go
package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"homestock_notifier/internal/infra/config"

	"github.com/sirupsen/logrus"
)

const serviceName = "homestock-notifier"

// Log is the global logger instance
var Log = logrus.New()

// Init configures the global logger from the application configuration.
func Init(cfg *config.AppConfig) {
	configure(Log, os.Stdout, cfg.LogLevel, cfg.Environment)
}

func configure(l *logrus.Logger, out io.Writer, level, env string) {
	l.SetOutput(out)
	l.SetFormatter(formatterFor(env))

	parsed, err := logrus.ParseLevel(strings.ToLower(level))
	if err != nil {
		parsed = logrus.InfoLevel
	}
	l.SetLevel(parsed)
	if err != nil {
		l.WithField("log_level", level).Warn("Unknown log level, falling back to info")
	}
}

// formatterFor picks JSON in deployed environments and a readable text layout for local runs.
func formatterFor(env string) logrus.Formatter {
	switch strings.ToLower(env) {
	case "production", "staging":
		return &logrus.JSONFormatter{
			TimestampFormat: time.RFC3339Nano,
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime:  "ts",
				logrus.FieldKeyLevel: "severity",
				logrus.FieldKeyMsg:   "message",
			},
		}
	default:
		return &logrus.TextFormatter{
			FullTimestamp:             true,
			TimestampFormat:           "2006-01-02 15:04:05",
			EnvironmentOverrideColors: true,
		}
	}
}

// Component returns an entry tagged with the service and component names.
func Component(name string) *logrus.Entry {
	return Log.WithFields(logrus.Fields{
		"service":   serviceName,
		"component": name,
	})
}
