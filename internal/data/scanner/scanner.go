package scanner

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/penwyp/go-agent-timeline/internal/util"
)

// Extensions accepted as agent log exports
var logExtensions = []string{".jsonl", ".jsonl.zst"}

// FileScanner finds agent log files under a directory
type FileScanner struct {
	baseDir string
}

// NewFileScanner creates a new FileScanner instance
func NewFileScanner(baseDir string) *FileScanner {
	return &FileScanner{baseDir: baseDir}
}

// IsLogFile reports whether path has a log export extension (case-insensitive)
func IsLogFile(path string) bool {
	lower := strings.ToLower(path)
	for _, ext := range logExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

// Scan walks the base directory and returns log file paths in lexical order.
// Unreadable entries are skipped; a missing base directory yields no files.
func (s *FileScanner) Scan() ([]string, error) {
	start := time.Now()
	var files []string
	dirCount := 0
	totalCount := 0

	util.LogDebugf("Start scanning directory: %s", s.baseDir)

	err := filepath.WalkDir(s.baseDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			util.LogDebugf("Skip entry (error): %s - %v", path, err)
			if d != nil && d.IsDir() && path != s.baseDir {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			dirCount++
			return nil
		}

		totalCount++
		if IsLogFile(path) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", s.baseDir, err)
	}

	sort.Strings(files)

	util.LogDebugf("File scan completed: duration %v, scanned %d directories, %d files, found %d log files",
		time.Since(start), dirCount, totalCount, len(files))

	return files, nil
}
