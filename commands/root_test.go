package commands

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/penwyp/go-agent-timeline/internal/application/follow"
	"github.com/penwyp/go-agent-timeline/internal/config"
	"github.com/penwyp/go-agent-timeline/internal/core/model"
	"github.com/penwyp/go-agent-timeline/internal/data/cache"
	"github.com/penwyp/go-agent-timeline/internal/data/source"
	"github.com/penwyp/go-agent-timeline/internal/testing/fixtures"
)

// testEnv isolates HOME so the default config and log file live in a temp dir
func testEnv(t *testing.T) (home string, gen *fixtures.TestDataGenerator) {
	t.Helper()
	home = t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv(config.EnvAPIKey, "")
	t.Setenv(config.EnvURL, "")
	return home, fixtures.NewTestDataGenerator(filepath.Join(home, "logs"))
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestTimelineFromLocalDir(t *testing.T) {
	_, gen := testEnv(t)
	start := time.Now().Add(-time.Hour)
	records := append(gen.MixedSession("content_writer", start), gen.Interaction("researcher", start, 5, 5)...)
	_, err := gen.WriteJSONL("export.jsonl", records)
	require.NoError(t, err)

	out, err := execute(t, "--dir", gen.GetBaseDir(), "--agent", "content_writer", "--timezone", "UTC", "-o", "csv")
	require.NoError(t, err)

	assert.Contains(t, out, "request-plus-response")
	assert.Contains(t, out, "request-plus-error")
	assert.NotContains(t, out, "researcher")
}

func TestTimelineLimitAndJSON(t *testing.T) {
	_, gen := testEnv(t)
	_, err := gen.WriteJSONL("export.jsonl", gen.LargeDataset("a", time.Now().Add(-time.Minute), 5))
	require.NoError(t, err)

	out, err := execute(t, "--dir", gen.GetBaseDir(), "--limit", "2", "--output", "json")
	require.NoError(t, err)
	assert.Contains(t, out, `"units": 2`)
}

func TestTimelineDurationFilter(t *testing.T) {
	_, gen := testEnv(t)
	records := append(gen.Interaction("a", time.Now().Add(-72*time.Hour), 1, 1), gen.Interaction("a", time.Now().Add(-time.Hour), 1, 1)...)
	_, err := gen.WriteJSONL("export.jsonl", records)
	require.NoError(t, err)

	out, err := execute(t, "--dir", gen.GetBaseDir(), "--duration", "1d", "-o", "json")
	require.NoError(t, err)
	assert.Contains(t, out, `"units": 1`)
}

func TestFlagsOverrideConfigFile(t *testing.T) {
	home, gen := testEnv(t)
	start := time.Now().Add(-time.Hour)
	records := append(gen.Interaction("writer", start, 1, 1), gen.Interaction("reviewer", start, 1, 1)...)
	_, err := gen.WriteJSONL("export.jsonl", records)
	require.NoError(t, err)

	cfg := config.Default()
	cfg.Dir = gen.GetBaseDir()
	cfg.Agent = "writer"
	cfg.Output = "csv"
	require.NoError(t, config.SaveYAML(filepath.Join(home, ".go-agent-timeline", "config.yaml"), cfg))

	out, err := execute(t)
	require.NoError(t, err)
	assert.Contains(t, out, "writer")
	assert.NotContains(t, out, "reviewer")

	out, err = execute(t, "--agent", "reviewer")
	require.NoError(t, err)
	assert.Contains(t, out, "reviewer")
	assert.NotContains(t, out, ",writer,")
}

func TestExplicitConfigMustExist(t *testing.T) {
	home, _ := testEnv(t)
	_, err := execute(t, "--config", filepath.Join(home, "missing.yaml"))
	assert.Error(t, err)
}

func TestInvalidFlags(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"unknown source", []string{"--source", "ftp"}},
		{"remote without url", []string{"--source", "remote"}},
		{"bad duration", []string{"--duration", "yesterday"}},
		{"bad output", []string{"--output", "xml"}},
		{"bad timezone", []string{"--timezone", "Nowhere/Town"}},
		{"bad group-by", []string{"usage", "--group-by", "fortnight"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, gen := testEnv(t)
			_, err := gen.WriteJSONL("export.jsonl", gen.Interaction("a", time.Now(), 1, 1))
			require.NoError(t, err)

			_, err = execute(t, append(tt.args, "--dir", gen.GetBaseDir())...)
			assert.Error(t, err)
		})
	}
}

func TestEmptyLogDir(t *testing.T) {
	home, _ := testEnv(t)
	dir := filepath.Join(home, "empty")
	require.NoError(t, ensureDir(dir))

	_, err := execute(t, "--dir", dir)
	assert.ErrorIs(t, err, source.ErrNoLogFiles)
}

func TestUsageCommand(t *testing.T) {
	_, gen := testEnv(t)
	start := time.Now().Add(-2 * time.Hour)
	records := append(gen.Interaction("writer", start, 100, 200), gen.Interaction("reviewer", start, 10, 20)...)
	_, err := gen.WriteJSONL("export.jsonl", records)
	require.NoError(t, err)

	out, err := execute(t, "usage", "--dir", gen.GetBaseDir(), "--group-by", "agent", "-o", "csv")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.GreaterOrEqual(t, len(lines), 3)
	assert.Contains(t, out, "writer")
	assert.Contains(t, out, "reviewer")
	assert.Contains(t, out, "300")
}

func TestResetClearsSnapshots(t *testing.T) {
	home, gen := testEnv(t)
	_, err := gen.WriteJSONL("export.jsonl", gen.Interaction("a", time.Now(), 1, 1))
	require.NoError(t, err)

	store, err := cache.NewSnapshotStore(source.SnapshotDir(config.ExpandPath(filepath.Join(home, ".go-agent-timeline", "cache"))))
	require.NoError(t, err)
	require.NoError(t, store.Save(cache.Snapshot{Source: "remote", FetchedAt: time.Now()}))
	require.True(t, store.Has(""))

	_, err = execute(t, "--dir", gen.GetBaseDir(), "--reset")
	require.NoError(t, err)
	assert.False(t, store.Has(""))
}

func TestRecordsSince(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	records := []model.LogRecord{
		{ID: 1, CreatedAt: now.Add(-48 * time.Hour)},
		{ID: 2, CreatedAt: now.Add(-time.Hour)},
		{ID: 3, CreatedAt: now.Add(-24 * time.Hour)},
	}

	assert.Len(t, recordsSince(records, 0, now), 3)

	kept := recordsSince(records, 24*time.Hour, now)
	require.Len(t, kept, 2)
	assert.Equal(t, model.FlexibleID(2), kept[0].ID)
	assert.Equal(t, model.FlexibleID(3), kept[1].ID)
}

type recordingRenderer struct {
	mu     sync.Mutex
	states []follow.State
	loaded chan struct{}
	once   sync.Once
}

func (r *recordingRenderer) Render(s follow.State) error {
	r.mu.Lock()
	r.states = append(r.states, s)
	r.mu.Unlock()
	if !s.Loading && !s.LastUpdate.IsZero() {
		r.once.Do(func() { close(r.loaded) })
	}
	return nil
}

func TestFollowOrchestratorLoadsLocalLogs(t *testing.T) {
	_, gen := testEnv(t)
	_, err := gen.WriteJSONL("export.jsonl", gen.MixedSession("writer", time.Now().Add(-time.Minute)))
	require.NoError(t, err)

	cfg := config.Default()
	cfg.Dir = gen.GetBaseDir()
	cfg.Interval = 0
	src, err := source.CreateSource(cfg.SourceConfig())
	require.NoError(t, err)

	renderer := &recordingRenderer{loaded: make(chan struct{})}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- newFollowOrchestrator(cfg, src, renderer).Run(ctx) }()

	select {
	case <-renderer.loaded:
	case <-time.After(5 * time.Second):
		t.Fatal("timeline never loaded")
	}
	cancel()
	require.NoError(t, <-done)

	renderer.mu.Lock()
	defer renderer.mu.Unlock()
	last := renderer.states[len(renderer.states)-1]
	assert.Equal(t, "local", last.Source)
	assert.NotEmpty(t, last.Result.Units)
}

func TestEnsureDir(t *testing.T) {
	testDir := filepath.Join(t.TempDir(), "test", "nested", "dir")

	require.NoError(t, ensureDir(testDir))
	info, err := os.Stat(testDir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	assert.NoError(t, ensureDir(testDir))
}

func TestStdoutIsTerminal(t *testing.T) {
	assert.False(t, stdoutIsTerminal(&bytes.Buffer{}))
}
