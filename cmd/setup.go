package cmd

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/timada-org/taskflow/internal/backend"
	"github.com/timada-org/taskflow/internal/core"
	"github.com/timada-org/taskflow/internal/session"
	"github.com/timada-org/taskflow/internal/store"
)

func loadConfig() (*core.Config, error) {
	if err := core.LoadDotEnv(envFile); err != nil {
		return nil, fmt.Errorf("load %s: %w", envFile, err)
	}

	return core.NewConfig(cfgFile)
}

// newLogger writes to the configured log file, or to fallback when none is
// set. The returned closer must be called on exit.
func newLogger(cfg core.Log, fallback io.Writer) (*slog.Logger, io.Closer, error) {
	if cfg.File == "" {
		return core.NewLogger(cfg, fallback), io.NopCloser(nil), nil
	}

	if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
		return nil, nil, err
	}

	f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, err
	}

	return core.NewLogger(cfg, f), f, nil
}

// openBackend returns a nil backend, not an error, when none is configured.
func openBackend(cfg core.Backend, logger *slog.Logger) (store.Backend, error) {
	b, err := backend.Open(cfg)
	if errors.Is(err, store.ErrNotConfigured) {
		logger.Warn("backend not configured, set TASKFLOW_BACKEND_URL and TASKFLOW_BACKEND_KEY")
		return nil, nil
	}

	return b, err
}

type sessionStore interface {
	session.Store
	io.Closer
}

type fileStoreCloser struct {
	*session.FileStore
}

func (fileStoreCloser) Close() error {
	return nil
}

func openSessionStore(cfg core.Session) (sessionStore, error) {
	if cfg.RedisURL != "" {
		s, err := session.NewRedisStore(cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		return s, nil
	}

	return fileStoreCloser{session.NewFileStore(cfg.Path)}, nil
}
