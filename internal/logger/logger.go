// Package logger configures the process wide logrus logger.
package logger

import (
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/iliyamo/private-chef-marketplace/internal/config"
)

// Setup points logrus at stdout and a rotating file.  It returns the rotator
// so main can close it on shutdown; the result is nil when file logging is
// disabled (empty LOG_FILE).
func Setup(cfg config.LogConfig) io.Closer {
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)

	if cfg.JSON {
		logrus.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: time.RFC3339,
		})
	}

	if cfg.File == "" {
		logrus.SetOutput(os.Stdout)
		return nil
	}
	rotator := &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSizeMB, // megabytes
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays, // days
		Compress:   true,
	}
	logrus.SetOutput(io.MultiWriter(os.Stdout, rotator))
	return rotator
}

// NewFileLogger builds a standalone logger that appends plain lines to a
// rotating file.  The booking audit consumer uses it so audit lines stay out
// of the application log.
func NewFileLogger(path string) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(&lumberjack.Logger{
		Filename:   path,
		MaxSize:    10,
		MaxBackups: 30,
		MaxAge:     90,
		Compress:   true,
	})
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:    true,
		TimestampFormat:  time.RFC3339,
		DisableColors:    true,
		DisableQuote:     true,
		QuoteEmptyFields: true,
	})
	return l
}
