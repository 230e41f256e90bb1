package timeline

import (
	"time"

	"github.com/penwyp/go-agent-timeline/internal/core/model"
	"github.com/penwyp/go-agent-timeline/internal/util"
)

// TimelineBuilder runs the filter, reconstruct and trim phases over a fetched log list
type TimelineBuilder struct {
	opts Options
	now  func() time.Time
}

// NewTimelineBuilder creates a new timeline builder
func NewTimelineBuilder(opts Options) *TimelineBuilder {
	return &TimelineBuilder{
		opts: opts,
		now:  time.Now,
	}
}

// Build reconstructs the timeline for the configured agent. Each call is a
// full rebuild; nothing is carried over between calls.
func (tb *TimelineBuilder) Build(records []model.LogRecord) Result {
	start := time.Now()

	filtered := FilterByAgent(records, tb.opts.Agent)
	util.LogDebugf("Filter by agent %q: %d -> %d records", tb.opts.Agent, len(records), len(filtered))

	units := Reconstruct(filtered)
	util.LogDebugf("Reconstructed %d units from %d records in %v", len(units), len(filtered), time.Since(start))

	now := tb.now()
	units = FilterByDuration(units, tb.opts.Duration, now)

	if tb.opts.Limit > 0 && len(units) > tb.opts.Limit {
		util.LogDebugf("Applying result limit: %d -> %d", len(units), tb.opts.Limit)
		units = units[:tb.opts.Limit]
	}

	return Result{
		Agent:       tb.opts.Agent,
		GeneratedAt: now,
		Units:       units,
		Summary:     Summarize(units),
	}
}

// FilterByAgent keeps records produced by agent. An empty agent keeps everything.
func FilterByAgent(records []model.LogRecord, agent string) []model.LogRecord {
	if agent == "" {
		return records
	}
	filtered := make([]model.LogRecord, 0, len(records))
	for _, rec := range records {
		if rec.AgentSystemName == agent {
			filtered = append(filtered, rec)
		}
	}
	return filtered
}

// FilterByDuration keeps units whose timestamp falls within d before now
func FilterByDuration(units []model.InteractionUnit, d time.Duration, now time.Time) []model.InteractionUnit {
	if d <= 0 {
		return units
	}
	cutoff := now.Add(-d)
	filtered := make([]model.InteractionUnit, 0, len(units))
	for _, u := range units {
		if !u.Timestamp.Before(cutoff) {
			filtered = append(filtered, u)
		}
	}
	return filtered
}

// Summarize counts units per kind and totals records and tokens
func Summarize(units []model.InteractionUnit) Summary {
	s := Summary{
		Units: len(units),
		Kinds: make(map[model.Kind]int),
	}
	for _, u := range units {
		s.Kinds[u.Kind]++
		s.Records += u.RecordCount()
		if u.Failed() {
			s.Failed++
		}
		in, out := u.Tokens()
		s.InputTokens += in
		s.OutputTokens += out

		if u.Timestamp.IsZero() {
			continue
		}
		if s.Oldest.IsZero() || u.Timestamp.Before(s.Oldest) {
			s.Oldest = u.Timestamp
		}
		if u.Timestamp.After(s.Newest) {
			s.Newest = u.Timestamp
		}
	}
	return s
}
