package source

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/penwyp/go-agent-timeline/internal/core/model"
	"github.com/penwyp/go-agent-timeline/internal/data/cache"
	"github.com/penwyp/go-agent-timeline/internal/util"
)

// Source kinds accepted by CreateSource
const (
	KindLocal  = "local"
	KindRemote = "remote"
	KindAuto   = "auto"
)

const defaultTimeout = 30 * time.Second

var (
	ErrRemoteUnavailable = errors.New("remote log source unavailable")
	ErrUnknownSource     = errors.New("unknown log source")
	ErrNoLogFiles        = errors.New("no log files found")
	ErrNoSnapshot        = cache.ErrNoSnapshot
)

// LogSource fetches the raw log records of one agent, or of every agent when
// agent is empty. Records come back in no particular order.
type LogSource interface {
	FetchLogs(ctx context.Context, agent string) ([]model.LogRecord, error)
	Name() string
}

// Config selects and parameterizes a LogSource
type Config struct {
	Kind        string // local, remote or auto
	Dir         string // local log directory
	URL         string // remote base URL
	APIKey      string
	CacheDir    string // snapshot location for auto
	Policy      FallbackPolicy
	Concurrency int
	Timeout     time.Duration
}

// CreateSource builds the LogSource described by cfg. auto wraps the remote
// source with a snapshot fallback.
func CreateSource(cfg Config) (LogSource, error) {
	kind := strings.ToLower(strings.TrimSpace(cfg.Kind))
	if kind == "" {
		kind = KindLocal
	}

	switch kind {
	case KindLocal:
		if cfg.Dir == "" {
			return nil, fmt.Errorf("local source requires a log directory")
		}
		util.LogDebugf("Using local log source: %s", cfg.Dir)
		return NewLocalSource(cfg.Dir, cfg.Concurrency), nil

	case KindRemote, KindAuto:
		if cfg.URL == "" {
			return nil, fmt.Errorf("%s source requires a base URL", kind)
		}
		remote := NewRemoteSource(cfg.URL, cfg.APIKey, cfg.Timeout)
		if kind == KindRemote {
			util.LogDebugf("Using remote log source: %s", cfg.URL)
			return remote, nil
		}

		store, err := cache.NewSnapshotStore(SnapshotDir(cfg.CacheDir))
		if err != nil {
			return nil, fmt.Errorf("failed to create snapshot store: %w", err)
		}
		policy := cfg.Policy
		if policy == "" {
			policy = PolicyRemoteFirst
		}
		util.LogDebugf("Using remote log source with snapshot fallback: url=%s, policy=%s", cfg.URL, policy)
		return NewFallbackSource(remote, store, policy), nil

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownSource, cfg.Kind)
	}
}

// SnapshotDir is where auto sources keep their snapshots under cacheDir
func SnapshotDir(cacheDir string) string {
	return filepath.Join(cacheDir, "snapshots")
}
