package follow

import (
	"context"
	"sync"
	"time"

	"github.com/penwyp/go-agent-timeline/internal/core/timeline"
	"github.com/penwyp/go-agent-timeline/internal/data/source"
	"github.com/penwyp/go-agent-timeline/internal/util"
)

// originReporter is implemented by sources that may answer from a snapshot
type originReporter interface {
	LastOrigin() source.Origin
}

// RefreshController runs fetch, rebuild and dispatch, one refresh at a time.
// Every refresh rebuilds the timeline from the full record set.
type RefreshController struct {
	source  source.LogSource
	builder *timeline.TimelineBuilder
	agent   string
	store   *Store
	now     func() time.Time

	refreshMutex sync.Mutex
}

func NewRefreshController(src source.LogSource, builder *timeline.TimelineBuilder, agent string, store *Store) *RefreshController {
	return &RefreshController{
		source:  src,
		builder: builder,
		agent:   agent,
		store:   store,
		now:     time.Now,
	}
}

func (rc *RefreshController) Refresh(ctx context.Context) error {
	rc.refreshMutex.Lock()
	defer rc.refreshMutex.Unlock()

	start := time.Now()
	rc.store.Dispatch(LoadStarted{})

	records, err := rc.source.FetchLogs(ctx, rc.agent)
	if err != nil {
		rc.store.Dispatch(LoadFailed{Err: err, At: rc.now()})
		return err
	}

	result := rc.builder.Build(records)

	loaded := LoadSucceeded{Result: result, Source: rc.source.Name(), At: rc.now()}
	if r, ok := rc.source.(originReporter); ok {
		origin := r.LastOrigin()
		loaded.Stale = origin.Stale
		if origin.Source != "" {
			loaded.Source = origin.Source
		}
	}
	rc.store.Dispatch(loaded)

	util.LogDebugf("Refresh finished: %d records -> %d units in %v (source=%s, stale=%t)",
		len(records), len(result.Units), time.Since(start), loaded.Source, loaded.Stale)
	return nil
}
