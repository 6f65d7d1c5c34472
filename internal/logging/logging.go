// Package logging configures the process-wide charmbracelet logger and hands
// out prefixed child loggers per component.
package logging

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/matthewbaird/formbuilder/internal/config"
)

var (
	mu     sync.RWMutex
	logger *log.Logger
)

// New builds a logger writing to w from cfg.
func New(w io.Writer, cfg config.LoggingConfig) (*log.Logger, error) {
	level := log.InfoLevel
	if cfg.Level != "" {
		l, err := log.ParseLevel(cfg.Level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
		}
		level = l
	}
	l := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      cfg.TimeFormat,
		ReportCaller:    cfg.ReportCaller,
		Level:           level,
	})
	return l, nil
}

// Init replaces the global logger with one writing to stderr.
func Init(cfg config.LoggingConfig) error {
	l, err := New(os.Stderr, cfg)
	if err != nil {
		return err
	}
	Set(l)
	return nil
}

// Set replaces the global logger.
func Set(l *log.Logger) {
	mu.Lock()
	defer mu.Unlock()
	logger = l
}

// Logger returns the global logger, creating a default one on first use.
func Logger() *log.Logger {
	mu.RLock()
	l := logger
	mu.RUnlock()
	if l != nil {
		return l
	}

	mu.Lock()
	defer mu.Unlock()
	if logger == nil {
		logger = log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: true})
	}
	return logger
}

// Component returns a child of the global logger prefixed with name.
func Component(name string) *log.Logger {
	return Logger().WithPrefix(name)
}

// Or returns l, or the global logger when l is nil.
func Or(l *log.Logger) *log.Logger {
	if l != nil {
		return l
	}
	return Logger()
}
