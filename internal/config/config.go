package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/penwyp/go-agent-timeline/internal/data/aggregator"
	"github.com/penwyp/go-agent-timeline/internal/data/source"
	"github.com/penwyp/go-agent-timeline/internal/util"
)

const (
	DefaultHome     = "~/.go-agent-timeline"
	DefaultPath     = DefaultHome + "/config.yaml"
	DefaultLogFile  = DefaultHome + "/logs/app.log"
	DefaultCacheDir = DefaultHome + "/cache"
	DefaultLogDir   = DefaultHome + "/agent-logs"

	EnvAPIKey = "AGENT_TIMELINE_API_KEY"
	EnvURL    = "AGENT_TIMELINE_URL"
)

// Config is the merged result of defaults, the YAML file, the environment
// and command line flags, applied in that order.
type Config struct {
	Source         string        `yaml:"source"`
	Dir            string        `yaml:"dir"`
	URL            string        `yaml:"url"`
	APIKey         string        `yaml:"api_key,omitempty"`
	FallbackPolicy string        `yaml:"fallback_policy"`
	Agent          string        `yaml:"agent"`
	Duration       string        `yaml:"duration"`
	Limit          int           `yaml:"limit"`
	Output         string        `yaml:"output"`
	GroupBy        string        `yaml:"group_by"`
	Timezone       string        `yaml:"timezone"`
	Interval       time.Duration `yaml:"interval"`
	CacheDir       string        `yaml:"cache_dir"`
	LogFile        string        `yaml:"log_file"`
	LogFormat      string        `yaml:"log_format"`
	Concurrency    int           `yaml:"concurrency"`
	Debug          bool          `yaml:"debug"`
}

func Default() *Config {
	return &Config{
		Source:         source.KindLocal,
		Dir:            DefaultLogDir,
		FallbackPolicy: string(source.PolicyRemoteFirst),
		Output:         "table",
		GroupBy:        string(aggregator.GroupByDay),
		Timezone:       "Local",
		Interval:       30 * time.Second,
		CacheDir:       DefaultCacheDir,
		LogFile:        DefaultLogFile,
		LogFormat:      "text",
		Concurrency:    runtime.NumCPU(),
	}
}

// LoadYAML loads a YAML file into the provided struct.
func LoadYAML(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse YAML from %s: %w", path, err)
	}
	return nil
}

// SaveYAML saves a struct to a YAML file.
func SaveYAML(path string, v interface{}) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal YAML: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write file %s: %w", path, err)
	}
	return nil
}

// Load reads path over the defaults. A missing file is not an error when
// optional is set, which is the case for the default location.
func Load(path string, optional bool) (*Config, error) {
	cfg := Default()
	expanded := ExpandPath(path)

	if _, err := os.Stat(expanded); err != nil {
		if os.IsNotExist(err) && optional {
			return cfg, nil
		}
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}

	if err := LoadYAML(expanded, cfg); err != nil {
		return nil, err
	}
	util.LogDebugf("Loaded config from %s", expanded)
	return cfg, nil
}

// ApplyEnv fills the API key and URL from the environment when set.
func (c *Config) ApplyEnv() {
	if v := os.Getenv(EnvAPIKey); v != "" {
		c.APIKey = v
	}
	if v := os.Getenv(EnvURL); v != "" {
		c.URL = v
	}
}

func (c *Config) Validate() error {
	switch strings.ToLower(c.Source) {
	case source.KindLocal, source.KindRemote, source.KindAuto:
	default:
		return fmt.Errorf("%w: %s (valid: local, remote, auto)", source.ErrUnknownSource, c.Source)
	}
	if c.Source != source.KindLocal && c.URL == "" {
		return fmt.Errorf("source %s requires --url or %s", c.Source, EnvURL)
	}
	if c.Limit < 0 {
		return fmt.Errorf("limit must not be negative: %d", c.Limit)
	}
	if c.Interval < 0 {
		return fmt.Errorf("interval must not be negative: %s", c.Interval)
	}
	if _, err := util.ParseLookback(c.Duration); err != nil {
		return err
	}
	if _, err := source.ParseFallbackPolicy(c.FallbackPolicy); err != nil {
		return err
	}
	if _, err := util.LoadLocation(c.Timezone); err != nil {
		return err
	}
	return nil
}

// SourceConfig translates c into the log source factory's settings.
func (c *Config) SourceConfig() source.Config {
	policy, _ := source.ParseFallbackPolicy(c.FallbackPolicy)
	return source.Config{
		Kind:        c.Source,
		Dir:         ExpandPath(c.Dir),
		URL:         c.URL,
		APIKey:      c.APIKey,
		CacheDir:    ExpandPath(c.CacheDir),
		Policy:      policy,
		Concurrency: c.Concurrency,
	}
}

// ExpandPath resolves a leading ~/ and makes path absolute.
func ExpandPath(path string) string {
	if path == "" {
		return path
	}
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		path = filepath.Join(home, path[2:])
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return absPath
}
