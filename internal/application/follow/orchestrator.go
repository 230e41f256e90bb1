package follow

import (
	"context"
	"errors"
	"time"

	"github.com/penwyp/go-agent-timeline/internal/util"
)

const defaultDebounce = 500 * time.Millisecond

// Config controls when follow mode refreshes
type Config struct {
	WatchPaths []string      // directories to watch; empty disables the watcher
	Interval   time.Duration // periodic refresh; zero disables it
	Debounce   time.Duration // quiet period after file events before refreshing
}

// Renderer draws a State
type Renderer interface {
	Render(State) error
}

// Orchestrator coordinates the watcher, the refresh controller and the renderer
type Orchestrator struct {
	config     Config
	controller *RefreshController
	store      *Store
	renderer   Renderer
}

func NewOrchestrator(config Config, controller *RefreshController, store *Store, renderer Renderer) *Orchestrator {
	if config.Debounce <= 0 {
		config.Debounce = defaultDebounce
	}
	return &Orchestrator{
		config:     config,
		controller: controller,
		store:      store,
		renderer:   renderer,
	}
}

// Run loads once, then refreshes on file changes or the interval until ctx
// is cancelled. Failed refreshes are shown, not returned.
func (o *Orchestrator) Run(ctx context.Context) error {
	util.LogInfo("Starting follow mode...")

	unsubscribe := o.store.Subscribe(func(s State) {
		if err := o.renderer.Render(s); err != nil {
			util.LogDebugf("Render failed: %v", err)
		}
	})
	defer unsubscribe()

	o.refresh(ctx)

	var events <-chan struct{}
	if len(o.config.WatchPaths) > 0 {
		watcher, err := NewFileWatcher(o.config.WatchPaths)
		if err != nil {
			return err
		}
		defer watcher.Close()
		events = o.signals(ctx, watcher)
	}

	var tick <-chan time.Time
	if o.config.Interval > 0 {
		ticker := time.NewTicker(o.config.Interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	// armed only by file events
	debounce := time.NewTimer(o.config.Debounce)
	debounce.Stop()
	defer debounce.Stop()

	for {
		select {
		case <-ctx.Done():
			util.LogInfo("Shutting down follow mode...")
			return nil

		case <-tick:
			o.refresh(ctx)

		case _, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			debounce.Reset(o.config.Debounce)

		case <-debounce.C:
			o.refresh(ctx)
		}
	}
}

// signals turns watcher events into bare change notifications
func (o *Orchestrator) signals(ctx context.Context, watcher *FileWatcher) <-chan struct{} {
	out := make(chan struct{}, 1)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-watcher.Events():
				if !ok {
					return
				}
				util.LogDebugf("File changed: %s (%s)", ev.Path, ev.Operation)
				select {
				case out <- struct{}{}:
				default:
				}
			}
		}
	}()
	return out
}

func (o *Orchestrator) refresh(ctx context.Context) {
	if err := o.controller.Refresh(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		util.LogWarnf("Refresh failed: %v", err)
	}
}
