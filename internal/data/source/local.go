package source

import (
	"context"
	"fmt"
	"time"

	"github.com/penwyp/go-agent-timeline/internal/core/model"
	"github.com/penwyp/go-agent-timeline/internal/core/timeline"
	"github.com/penwyp/go-agent-timeline/internal/data/cache"
	"github.com/penwyp/go-agent-timeline/internal/data/parser"
	"github.com/penwyp/go-agent-timeline/internal/data/scanner"
	"github.com/penwyp/go-agent-timeline/internal/util"
)

// LocalSource reads JSONL exports from a directory. Parsed files are cached
// and only reparsed once they change on disk.
type LocalSource struct {
	dir     string
	scanner *scanner.FileScanner
	parser  *parser.Parser
	cache   *cache.FileCache
}

func NewLocalSource(dir string, concurrency int) *LocalSource {
	return &LocalSource{
		dir:     dir,
		scanner: scanner.NewFileScanner(dir),
		parser:  parser.NewParser(concurrency),
		cache:   cache.NewFileCache(),
	}
}

func (s *LocalSource) Name() string {
	return KindLocal
}

func (s *LocalSource) FetchLogs(ctx context.Context, agent string) ([]model.LogRecord, error) {
	start := time.Now()

	files, err := s.scanner.Scan()
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", s.dir, err)
	}
	s.cache.Prune(files)
	if len(files) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoLogFiles, s.dir)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var (
		records []model.LogRecord
		stale   []string
	)
	for _, f := range files {
		if res := s.cache.Get(f); res.Found {
			records = append(records, res.Records...)
			continue
		}
		stale = append(stale, f)
	}

	failed := 0
	for result := range s.parser.ParseFiles(stale) {
		if result.Error != nil {
			failed++
			util.LogWarnf("Skipping unreadable log file %s: %v", result.File, result.Error)
			continue
		}
		if err := s.cache.Set(result.File, result.Records); err != nil {
			util.LogDebugf("Failed to cache %s: %v", result.File, err)
		}
		records = append(records, result.Records...)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	util.LogDebugf("Loaded %d records from %d files (%d parsed, %d cached, %d failed) in %v",
		len(records), len(files), len(stale)-failed, len(files)-len(stale), failed, time.Since(start))

	return timeline.FilterByAgent(records, agent), nil
}
