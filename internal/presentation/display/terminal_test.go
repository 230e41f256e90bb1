package display

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/penwyp/go-agent-timeline/internal/application/follow"
	"github.com/penwyp/go-agent-timeline/internal/core/model"
	"github.com/penwyp/go-agent-timeline/internal/core/timeline"
	"github.com/penwyp/go-agent-timeline/internal/presentation/formatter"
	"github.com/penwyp/go-agent-timeline/internal/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDisplay(out *bytes.Buffer) *TerminalDisplay {
	return NewTerminalDisplay(out, formatter.NewSummaryFormatter(formatter.Options{Location: time.UTC}), false)
}

func loadedState() follow.State {
	units := timeline.Reconstruct([]model.LogRecord{
		{ID: 1, LogType: "request", PairID: "p", CreatedAt: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)},
		{ID: 2, LogType: "response", PairID: "p", CreatedAt: time.Date(2025, 3, 1, 10, 0, 1, 0, time.UTC)},
	})
	return follow.State{
		Result:     timeline.Result{Agent: "content_writer", Units: units, Summary: timeline.Summarize(units)},
		Source:     "local",
		LastUpdate: time.Date(2025, 3, 1, 10, 5, 0, 0, time.UTC),
		Revision:   2,
	}
}

func TestRenderLoadingScreen(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, newDisplay(&out).Render(follow.State{Loading: true}))

	s := out.String()
	assert.True(t, strings.HasPrefix(s, util.ClearScreen), "first frame clears the screen")
	assert.Contains(t, s, "Loading agent logs...")
	assert.Contains(t, s, "agent: all agents")
}

func TestRenderTimeline(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, newDisplay(&out).Render(loadedState()))

	s := out.String()
	assert.Contains(t, s, "agent: content_writer | source: local")
	assert.Contains(t, s, "request-plus-response:")
	assert.Contains(t, s, "Ctrl+C")
}

func TestRenderSkipsIdenticalFrames(t *testing.T) {
	var out bytes.Buffer
	td := newDisplay(&out)
	state := loadedState()

	require.NoError(t, td.Render(state))
	first := out.Len()

	state.Revision++
	require.NoError(t, td.Render(state))
	assert.Equal(t, first, out.Len())

	state.Loading = true
	require.NoError(t, td.Render(state))
	assert.Greater(t, out.Len(), first)
	assert.NotContains(t, out.String()[first:], util.ClearScreen, "later frames redraw in place")
}

func TestRenderStatusLines(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*follow.State)
		want   string
	}{
		{"error", func(s *follow.State) { s.Err = errors.New("remote log source unavailable:\n503") }, "Refresh failed: remote log source unavailable: 503"},
		{"stale", func(s *follow.State) { s.Stale = true }, "showing last snapshot"},
		{"refreshing", func(s *follow.State) { s.Loading = true }, "Refreshing..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			state := loadedState()
			tt.mutate(&state)
			require.NoError(t, newDisplay(&out).Render(state))
			assert.Contains(t, out.String(), tt.want)
		})
	}
}

func TestRenderNewUnitsIndicator(t *testing.T) {
	var out bytes.Buffer
	state := loadedState()
	state.Previous = state.Result.Units
	state.Result.Units = []model.InteractionUnit{
		{GroupKey: "7", Kind: model.KindStandalone},
		state.Previous[0],
	}

	require.NoError(t, newDisplay(&out).Render(state))
	assert.Contains(t, out.String(), "+1 new")
}

func TestColorOutput(t *testing.T) {
	var out bytes.Buffer
	td := NewTerminalDisplay(&out, formatter.NewSummaryFormatter(formatter.Options{}), true)
	state := loadedState()
	state.Err = errors.New("boom")

	require.NoError(t, td.Render(state))
	assert.Contains(t, out.String(), util.ColorRed+"Refresh failed: boom"+util.ColorReset)
}

func TestAlternateScreen(t *testing.T) {
	var out bytes.Buffer
	td := newDisplay(&out)

	td.EnterAlternateScreen()
	td.EnterAlternateScreen()
	assert.Equal(t, 1, strings.Count(out.String(), util.EnterAltScreen))

	td.ExitAlternateScreen()
	td.ExitAlternateScreen()
	assert.Equal(t, 1, strings.Count(out.String(), util.ExitAltScreen))
	assert.Contains(t, out.String(), util.ShowCursor)
}
