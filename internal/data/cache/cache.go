package cache

import (
	"sync"

	"github.com/penwyp/go-agent-timeline/internal/core/model"
	"github.com/penwyp/go-agent-timeline/internal/util"
)

type CacheMissReason int

const (
	MissReasonNone CacheMissReason = iota
	MissReasonNotFound
	MissReasonError
	MissReasonChanged
	MissReasonFingerprint
)

func (r CacheMissReason) String() string {
	switch r {
	case MissReasonNone:
		return "none"
	case MissReasonNotFound:
		return "not_found"
	case MissReasonError:
		return "error"
	case MissReasonChanged:
		return "changed"
	case MissReasonFingerprint:
		return "fingerprint"
	default:
		return "unknown"
	}
}

type CacheResult struct {
	Records    []model.LogRecord
	Found      bool
	MissReason CacheMissReason
}

type entry struct {
	info        util.FileInfo
	fingerprint string
	records     []model.LogRecord
}

// FileCache keeps parsed records per log file for as long as the file is
// unchanged. A file counts as unchanged when inode, size, modification time
// and tail fingerprint all match.
type FileCache struct {
	mu      sync.RWMutex
	entries map[string]*entry
}

func NewFileCache() *FileCache {
	return &FileCache{entries: make(map[string]*entry)}
}

// Get returns the cached records for path if the file has not changed since Set.
func (c *FileCache) Get(path string) CacheResult {
	c.mu.RLock()
	e, ok := c.entries[path]
	c.mu.RUnlock()
	if !ok {
		return CacheResult{MissReason: MissReasonNotFound}
	}

	if reason := validate(path, e); reason != MissReasonNone {
		c.mu.Lock()
		delete(c.entries, path)
		c.mu.Unlock()
		return CacheResult{MissReason: reason}
	}
	return CacheResult{Records: e.records, Found: true}
}

func validate(path string, e *entry) CacheMissReason {
	current, err := util.GetFileInfo(path)
	if err != nil {
		util.LogDebugf("Cache validation failed for %s: %v", path, err)
		return MissReasonError
	}
	if !current.Same(&e.info) {
		util.LogDebugf("Cache invalidated for %s: file changed (size %d -> %d)", path, e.info.Size, current.Size)
		return MissReasonChanged
	}
	fingerprint, err := util.CalculateFileFingerprint(path)
	if err != nil || fingerprint != e.fingerprint {
		util.LogDebugf("Cache invalidated for %s: fingerprint mismatch", path)
		return MissReasonFingerprint
	}
	return MissReasonNone
}

// Set stores records parsed from path, stamped with the file's current identity.
func (c *FileCache) Set(path string, records []model.LogRecord) error {
	info, err := util.GetFileInfo(path)
	if err != nil {
		return err
	}
	fingerprint, err := util.CalculateFileFingerprint(path)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[path] = &entry{info: *info, fingerprint: fingerprint, records: records}
	return nil
}

// Prune drops entries for files not in keep, e.g. after files were deleted.
func (c *FileCache) Prune(keep []string) int {
	wanted := make(map[string]struct{}, len(keep))
	for _, k := range keep {
		wanted[k] = struct{}{}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	removed := 0
	for path := range c.entries {
		if _, ok := wanted[path]; !ok {
			delete(c.entries, path)
			removed++
		}
	}
	return removed
}

func (c *FileCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *FileCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*entry)
}
