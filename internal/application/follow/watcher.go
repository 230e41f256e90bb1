package follow

import (
	"io/fs"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/penwyp/go-agent-timeline/internal/core/model"
	"github.com/penwyp/go-agent-timeline/internal/data/scanner"
	"github.com/penwyp/go-agent-timeline/internal/util"
)

// FileWatcher reports changes to log files under a set of directories.
// Directories created after start are watched as they appear.
type FileWatcher struct {
	watcher *fsnotify.Watcher
	events  chan model.FileEvent
	done    chan struct{}
	once    sync.Once
}

func NewFileWatcher(paths []string) (*FileWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	fw := &FileWatcher{
		watcher: watcher,
		events:  make(chan model.FileEvent, 100),
		done:    make(chan struct{}),
	}

	for _, path := range paths {
		if err := fw.addPath(path); err != nil {
			watcher.Close()
			return nil, err
		}
	}

	go fw.processEvents()

	return fw, nil
}

// addPath watches path and every directory beneath it
func (fw *FileWatcher) addPath(path string) error {
	return filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			return fw.watcher.Add(p)
		}
		return nil
	})
}

func (fw *FileWatcher) processEvents() {
	defer close(fw.events)

	for {
		select {
		case <-fw.done:
			return

		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}

			if event.Has(fsnotify.Create) {
				if err := fw.addPath(event.Name); err != nil {
					util.LogDebugf("Failed to watch new path %s: %v", event.Name, err)
				}
			}

			if !scanner.IsLogFile(event.Name) || event.Op == fsnotify.Chmod {
				continue
			}

			fe := model.FileEvent{Path: event.Name, Operation: event.Op.String()}
			select {
			case fw.events <- fe:
			case <-fw.done:
				return
			default:
				// refreshes are debounced, a dropped event loses nothing
				util.LogDebugf("Watcher queue full, dropping event for %s", event.Name)
			}

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			util.LogError("File monitoring error: " + err.Error())
		}
	}
}

// Events is closed once the watcher stops
func (fw *FileWatcher) Events() <-chan model.FileEvent {
	return fw.events
}

func (fw *FileWatcher) Close() error {
	var err error
	fw.once.Do(func() {
		close(fw.done)
		err = fw.watcher.Close()
	})
	return err
}
