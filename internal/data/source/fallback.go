package source

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/penwyp/go-agent-timeline/internal/core/model"
	"github.com/penwyp/go-agent-timeline/internal/data/cache"
	"github.com/penwyp/go-agent-timeline/internal/util"
)

// FallbackPolicy decides when the snapshot is consulted
type FallbackPolicy string

const (
	// PolicyRemoteFirst asks the primary source and serves the snapshot only on failure
	PolicyRemoteFirst FallbackPolicy = "remote-first"
	// PolicySnapshotOnly never contacts the primary source
	PolicySnapshotOnly FallbackPolicy = "snapshot-only"
)

func ParseFallbackPolicy(s string) (FallbackPolicy, error) {
	switch FallbackPolicy(s) {
	case PolicyRemoteFirst, "":
		return PolicyRemoteFirst, nil
	case PolicySnapshotOnly:
		return PolicySnapshotOnly, nil
	default:
		return "", fmt.Errorf("unknown fallback policy: %s", s)
	}
}

// Origin describes where the last FetchLogs result came from
type Origin struct {
	Source    string
	Stale     bool
	FetchedAt time.Time
}

// FallbackSource serves the last good snapshot when the primary source fails.
// Every successful primary fetch replaces the snapshot.
type FallbackSource struct {
	primary LogSource
	store   *cache.SnapshotStore
	policy  FallbackPolicy
	now     func() time.Time

	mu     sync.RWMutex
	origin Origin
}

func NewFallbackSource(primary LogSource, store *cache.SnapshotStore, policy FallbackPolicy) *FallbackSource {
	return &FallbackSource{
		primary: primary,
		store:   store,
		policy:  policy,
		now:     time.Now,
	}
}

func (s *FallbackSource) Name() string {
	return s.primary.Name() + "+snapshot"
}

// LastOrigin reports whether the latest result was fresh or served from a snapshot
func (s *FallbackSource) LastOrigin() Origin {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.origin
}

func (s *FallbackSource) setOrigin(o Origin) {
	s.mu.Lock()
	s.origin = o
	s.mu.Unlock()
}

func (s *FallbackSource) FetchLogs(ctx context.Context, agent string) ([]model.LogRecord, error) {
	if s.policy == PolicySnapshotOnly {
		snap, err := s.store.Load(agent)
		if err != nil {
			return nil, fmt.Errorf("snapshot for %q: %w", agent, err)
		}
		s.setOrigin(Origin{Source: snap.Source, Stale: true, FetchedAt: snap.FetchedAt})
		return snap.Records, nil
	}

	records, err := s.primary.FetchLogs(ctx, agent)
	if err == nil {
		fetched := s.now()
		if saveErr := s.store.Save(cache.Snapshot{
			Agent:     agent,
			Source:    s.primary.Name(),
			FetchedAt: fetched,
			Records:   records,
		}); saveErr != nil {
			util.LogWarnf("Failed to save snapshot for %q: %v", agent, saveErr)
		}
		s.setOrigin(Origin{Source: s.primary.Name(), FetchedAt: fetched})
		return records, nil
	}

	if ctx.Err() != nil {
		return nil, err
	}

	snap, loadErr := s.store.Load(agent)
	if loadErr != nil {
		if !errors.Is(loadErr, cache.ErrNoSnapshot) {
			util.LogWarnf("Failed to load snapshot for %q: %v", agent, loadErr)
		}
		return nil, err
	}

	util.LogWarn("Primary log source failed, serving snapshot",
		util.F("source", s.primary.Name()),
		util.F("agent", agent),
		util.F("error", err.Error()),
		util.F("snapshot_age", s.now().Sub(snap.FetchedAt).Round(time.Second).String()))
	s.setOrigin(Origin{Source: snap.Source, Stale: true, FetchedAt: snap.FetchedAt})
	return snap.Records, nil
}
