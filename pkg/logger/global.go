package logger

import (
	"os"
	"sync"
)

var (
	globalLogger *Logger
	once         sync.Once
)

// GetLogger returns the global logger instance, initializing it from the
// environment on first use.
func GetLogger() *Logger {
	once.Do(func() {
		if globalLogger == nil {
			defaultLevel := "info"
			if os.Getenv("DEBUG") == "true" {
				defaultLevel = "debug"
			} else if os.Getenv("LOG_LEVEL") != "" {
				defaultLevel = os.Getenv("LOG_LEVEL")
			}

			globalLogger = New(Config{
				Level:  defaultLevel,
				Format: "json",
				Output: "stdout",
			})
		}
	})
	return globalLogger
}

// SetLogger sets the global logger instance.
func SetLogger(logger *Logger) {
	globalLogger = logger
}

// WithField adds a field to the global logger.
func WithField(key string, value interface{}) *Logger {
	return GetLogger().WithField(key, value)
}

// WithFields adds multiple fields to the global logger.
func WithFields(fields map[string]interface{}) *Logger {
	return GetLogger().WithFields(fields)
}

// WithError adds an error to the global logger.
func WithError(err error) *Logger {
	return GetLogger().WithError(err)
}
