package utils

import (
	"os"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	logger     *logrus.Logger
	loggerOnce sync.Once
)

// GetLogger returns the shared application logger, initializing it on first
// use from the LOG_LEVEL and LOG_FORMAT environment variables.
func GetLogger() *logrus.Logger {
	loggerOnce.Do(func() {
		logger = logrus.New()
		logger.SetOutput(os.Stdout)

		switch strings.ToLower(os.Getenv("LOG_FORMAT")) {
		case "text":
			logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
		default:
			logger.SetFormatter(&logrus.JSONFormatter{})
		}

		level, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL"))
		if err != nil {
			level = logrus.InfoLevel
		}
		logger.SetLevel(level)
	})

	return logger
}

// LogWithRequestID returns a logger entry tagged with the request ID for tracking
func LogWithRequestID(requestID string) *logrus.Entry {
	return GetLogger().WithField("request_id", requestID)
}
