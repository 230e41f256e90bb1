package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/penwyp/go-agent-timeline/internal/data/source"
)

func TestLoadMissingOptionalFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"), true)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadMissingRequiredFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"), false)
	assert.Error(t, err)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `source: auto
url: https://logs.example.com
agent: content_writer
duration: 7d
limit: 25
interval: 10s
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path, false)
	require.NoError(t, err)
	assert.Equal(t, source.KindAuto, cfg.Source)
	assert.Equal(t, "https://logs.example.com", cfg.URL)
	assert.Equal(t, "content_writer", cfg.Agent)
	assert.Equal(t, "7d", cfg.Duration)
	assert.Equal(t, 25, cfg.Limit)
	assert.Equal(t, 10*time.Second, cfg.Interval)
	assert.Equal(t, "table", cfg.Output, "unset keys keep their defaults")
	assert.NoError(t, cfg.Validate())
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("limit: [not a number"), 0644))

	_, err := Load(path, true)
	assert.Error(t, err)
}

func TestSaveYAMLRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := Default()
	cfg.Agent = "researcher"
	cfg.Interval = 45 * time.Second

	require.NoError(t, SaveYAML(path, cfg))

	loaded, err := Load(path, false)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestApplyEnv(t *testing.T) {
	t.Setenv(EnvAPIKey, "secret")
	t.Setenv(EnvURL, "https://env.example.com")

	cfg := Default()
	cfg.URL = "https://file.example.com"
	cfg.ApplyEnv()

	assert.Equal(t, "secret", cfg.APIKey)
	assert.Equal(t, "https://env.example.com", cfg.URL)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"remote with url", func(c *Config) { c.Source = source.KindRemote; c.URL = "http://x" }, false},
		{"remote without url", func(c *Config) { c.Source = source.KindRemote }, true},
		{"unknown source", func(c *Config) { c.Source = "ftp" }, true},
		{"negative limit", func(c *Config) { c.Limit = -1 }, true},
		{"negative interval", func(c *Config) { c.Interval = -time.Second }, true},
		{"bad duration", func(c *Config) { c.Duration = "7 days" }, true},
		{"bad policy", func(c *Config) { c.FallbackPolicy = "never" }, true},
		{"bad timezone", func(c *Config) { c.Timezone = "Mars/Olympus" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSourceConfig(t *testing.T) {
	cfg := Default()
	cfg.Source = source.KindAuto
	cfg.URL = "http://x"
	cfg.FallbackPolicy = string(source.PolicySnapshotOnly)
	cfg.Dir = "logs"

	sc := cfg.SourceConfig()
	assert.Equal(t, source.KindAuto, sc.Kind)
	assert.Equal(t, source.PolicySnapshotOnly, sc.Policy)
	assert.True(t, filepath.IsAbs(sc.Dir))
	assert.True(t, filepath.IsAbs(sc.CacheDir))
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, "", ExpandPath(""))
	assert.Equal(t, filepath.Join(home, "logs"), ExpandPath("~/logs"))
	assert.Equal(t, "/var/log/agents", ExpandPath("/var/log/agents"))
}
