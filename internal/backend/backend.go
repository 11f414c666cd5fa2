// Package backend opens the store.Backend named by the configuration.
package backend

import (
	"fmt"
	"strings"

	"github.com/timada-org/taskflow/internal/core"
	"github.com/timada-org/taskflow/internal/store"
	"github.com/timada-org/taskflow/internal/store/gormstore"
	"github.com/timada-org/taskflow/internal/store/rest"
)

// Open returns store.ErrNotConfigured when the URL, or the key of a REST
// backend, is missing. Callers treat that as "run without a backend".
func Open(cfg core.Backend) (store.Backend, error) {
	if cfg.URL == "" {
		return nil, store.ErrNotConfigured
	}

	scheme, path, _ := strings.Cut(cfg.URL, ":")

	var (
		b   store.Backend
		err error
	)

	switch strings.ToLower(scheme) {
	case "http", "https":
		var s *rest.Store
		if s, err = rest.New(rest.Options{URL: cfg.URL, Key: cfg.Key, Timeout: cfg.Timeout}); err == nil {
			b = s
		}
	case "postgres", "postgresql":
		var s *gormstore.Store
		if s, err = gormstore.OpenPostgres(cfg.URL); err == nil {
			b = s
		}
	case "sqlite", "file":
		if strings.EqualFold(scheme, "sqlite") {
			path = strings.TrimPrefix(path, "//")
		} else {
			path = cfg.URL
		}

		var s *gormstore.Store
		if s, err = gormstore.OpenSQLite(path); err == nil {
			b = s
		}
	default:
		err = fmt.Errorf("backend: unsupported url scheme %q", scheme)
	}

	if err != nil {
		return nil, err
	}

	return b, nil
}
