package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/klauspost/compress/zstd"

	"github.com/penwyp/go-agent-timeline/internal/core/model"
	"github.com/penwyp/go-agent-timeline/internal/util"
)

// ErrNoSnapshot is returned when no snapshot exists for an agent
var ErrNoSnapshot = errors.New("no snapshot available")

const snapshotExt = ".snapshot.json.zst"

// Snapshot is the last successful remote fetch for one agent
type Snapshot struct {
	Agent     string            `json:"agent"`
	Source    string            `json:"source"`
	FetchedAt time.Time         `json:"fetched_at"`
	Records   []model.LogRecord `json:"records"`
}

// SnapshotStore persists snapshots as zstd-compressed JSON, one file per agent
type SnapshotStore struct {
	mu  sync.RWMutex
	dir string
}

// NewSnapshotStore creates the store directory if needed
func NewSnapshotStore(dir string) (*SnapshotStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create snapshot directory: %w", err)
	}
	return &SnapshotStore{dir: dir}, nil
}

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// path keeps a readable prefix and appends a hash of the raw agent name, so
// names that sanitize alike still map to different files.
func (s *SnapshotStore) path(agent string) string {
	name := agent
	if name == "" {
		name = "_all"
	}
	sum := sha256.Sum256([]byte(agent))
	return filepath.Join(s.dir, unsafeName.ReplaceAllString(name, "_")+"-"+hex.EncodeToString(sum[:4])+snapshotExt)
}

// Save writes the snapshot atomically through a temp file
func (s *SnapshotStore) Save(snap Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := sonic.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return err
	}
	compressed := enc.EncodeAll(data, nil)
	_ = enc.Close()

	target := s.path(snap.Agent)
	tmp := target + ".tmp"
	if err := os.WriteFile(tmp, compressed, 0644); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := os.Rename(tmp, target); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to rename snapshot: %w", err)
	}

	util.LogDebugf("Saved snapshot for %q: %d records (%d -> %d bytes)", snap.Agent, len(snap.Records), len(data), len(compressed))
	return nil
}

// Load reads the snapshot for agent, returning ErrNoSnapshot when absent
func (s *SnapshotStore) Load(agent string) (*Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	compressed, err := os.ReadFile(s.path(agent))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoSnapshot
		}
		return nil, err
	}

	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	data, err := dec.DecodeAll(compressed, nil)
	if err != nil {
		return nil, fmt.Errorf("corrupt snapshot for %q: %w", agent, err)
	}

	var snap Snapshot
	if err := sonic.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("corrupt snapshot for %q: %w", agent, err)
	}
	if snap.Agent != agent {
		util.LogWarnf("Ignoring snapshot for %q found under %q", snap.Agent, agent)
		return nil, ErrNoSnapshot
	}
	return &snap, nil
}

// Has reports whether a snapshot file exists for agent
func (s *SnapshotStore) Has(agent string) bool {
	_, err := os.Stat(s.path(agent))
	return err == nil
}

// Clear removes every snapshot file in the store directory
func (s *SnapshotStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	matches, err := filepath.Glob(filepath.Join(s.dir, "*"+snapshotExt))
	if err != nil {
		return err
	}
	for _, m := range matches {
		if err := os.Remove(m); err != nil {
			return err
		}
	}
	return nil
}
