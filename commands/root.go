package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/penwyp/go-agent-timeline/internal/config"
	"github.com/penwyp/go-agent-timeline/internal/core/timeline"
	"github.com/penwyp/go-agent-timeline/internal/data/cache"
	"github.com/penwyp/go-agent-timeline/internal/data/source"
	"github.com/penwyp/go-agent-timeline/internal/presentation/formatter"
	"github.com/penwyp/go-agent-timeline/internal/util"
)

// rootOptions holds flag values shared by every command. Only flags the user
// actually set override the config file.
type rootOptions struct {
	configPath string
	debug      bool

	// Log source
	sourceKind string
	dir        string
	url        string
	apiKey     string
	policy     string

	// Filtering
	agent    string
	duration string
	limit    int

	// Output
	output   string
	timezone string
	reset    bool

	// Subcommands
	groupBy  string
	interval time.Duration
}

var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "go-agent-timeline [flags]",
		Short: "Agent interaction timeline viewer",
		Long: `go-agent-timeline reconstructs the interaction timeline of AI agents from their logs.

Request, response and error records that share a pair id are grouped into one
interaction; everything else is shown on its own. Logs are read from local JSONL
exports or from a remote logs API, with an optional snapshot fallback.

Examples:
  go-agent-timeline                                         # Timeline of all agents in the default log directory
  go-agent-timeline --agent content_writer                  # Only one agent
  go-agent-timeline --dir ./exports --duration 12h          # Last 12 hours from a local export
  go-agent-timeline --source remote --url https://logs.example.com --limit 50
  go-agent-timeline --source auto --url https://logs.example.com   # Fall back to the last snapshot
  go-agent-timeline --output json                           # JSON output
  go-agent-timeline usage --group-by week                   # Token usage per week
  go-agent-timeline follow --agent researcher               # Live view`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTimeline(cmd, opts)
		},
	}

	// Shared configuration
	pf := cmd.PersistentFlags()
	pf.StringVar(&opts.configPath, "config", config.DefaultPath,
		"Config file path")
	pf.BoolVar(&opts.debug, "debug", false,
		"Enable debug mode")

	// Log source
	pf.StringVar(&opts.sourceKind, "source", source.KindLocal,
		"Log source (local, remote, auto)")
	pf.StringVar(&opts.dir, "dir", config.DefaultLogDir,
		"Local log directory")
	pf.StringVar(&opts.url, "url", "",
		"Remote logs API base URL")
	pf.StringVar(&opts.apiKey, "api-key", "",
		"Remote logs API key (or "+config.EnvAPIKey+")")
	pf.StringVar(&opts.policy, "fallback-policy", string(source.PolicyRemoteFirst),
		"Snapshot fallback policy for --source auto (remote-first, snapshot-only)")

	// Filtering
	pf.StringVar(&opts.agent, "agent", "",
		"Only show this agent (agent_system_name)")
	pf.StringVarP(&opts.duration, "duration", "d", "",
		"Time duration to look back (e.g., 12h, 7d, 2w, 1m, 1d12h)")
	pf.StringVar(&opts.timezone, "timezone", "Local",
		"Timezone setting (e.g., Asia/Shanghai, UTC)")

	// Timeline only
	cmd.Flags().IntVar(&opts.limit, "limit", 0,
		"Limit interaction count (0 = unlimited)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "table",
		"Output format (table, json, csv, summary)")
	cmd.Flags().BoolVarP(&opts.reset, "reset", "r", false,
		"Clear snapshots before fetching")

	cmd.AddCommand(newUsageCmd(opts), newFollowCmd(opts))
	return cmd
}

func Execute() error {
	return rootCmd.Execute()
}

func runTimeline(cmd *cobra.Command, opts *rootOptions) error {
	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		return err
	}
	if err := setup(cfg, cfg.Debug); err != nil {
		return err
	}
	defer util.SetLogger(nil)

	if opts.reset {
		if err := clearSnapshots(cfg); err != nil {
			return fmt.Errorf("failed to clear snapshots: %w", err)
		}
		util.LogInfo("Snapshots cleared")
	}

	loc, _ := util.LoadLocation(cfg.Timezone)
	f, err := formatter.NewTimelineFormatter(cfg.Output, formatter.Options{Location: loc})
	if err != nil {
		return err
	}

	src, err := source.CreateSource(cfg.SourceConfig())
	if err != nil {
		return err
	}

	result, err := buildTimeline(cmd.Context(), src, cfg)
	if err != nil {
		return err
	}
	return f.Format(cmd.OutOrStdout(), result)
}

func buildTimeline(ctx context.Context, src source.LogSource, cfg *config.Config) (timeline.Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	records, err := src.FetchLogs(ctx, cfg.Agent)
	if err != nil {
		return timeline.Result{}, fmt.Errorf("failed to fetch logs from %s: %w", src.Name(), err)
	}
	if r, ok := src.(interface{ LastOrigin() source.Origin }); ok && r.LastOrigin().Stale {
		util.LogWarn("Serving logs from snapshot",
			util.F("source", src.Name()),
			util.F("fetched_at", r.LastOrigin().FetchedAt))
	}

	return timeline.NewTimelineBuilder(timelineOptions(cfg)).Build(records), nil
}

func timelineOptions(cfg *config.Config) timeline.Options {
	// Validate has already rejected malformed durations
	d, _ := util.ParseLookback(cfg.Duration)
	return timeline.Options{
		Agent:    cfg.Agent,
		Duration: d,
		Limit:    cfg.Limit,
	}
}

// loadConfig merges defaults, the config file, the environment and the flags
// the user set, then validates the result.
func loadConfig(cmd *cobra.Command, opts *rootOptions) (*config.Config, error) {
	flags := cmd.Flags()

	cfg, err := config.Load(opts.configPath, !flags.Changed("config"))
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnv()

	str := func(name string, dst *string, v string) {
		if flags.Changed(name) {
			*dst = v
		}
	}
	str("source", &cfg.Source, opts.sourceKind)
	str("dir", &cfg.Dir, opts.dir)
	str("url", &cfg.URL, opts.url)
	str("api-key", &cfg.APIKey, opts.apiKey)
	str("fallback-policy", &cfg.FallbackPolicy, opts.policy)
	str("agent", &cfg.Agent, opts.agent)
	str("duration", &cfg.Duration, opts.duration)
	str("timezone", &cfg.Timezone, opts.timezone)
	str("output", &cfg.Output, opts.output)
	if flags.Changed("limit") {
		cfg.Limit = opts.limit
	}
	str("group-by", &cfg.GroupBy, opts.groupBy)
	if flags.Changed("interval") {
		cfg.Interval = opts.interval
	}
	if flags.Changed("debug") {
		cfg.Debug = opts.debug
	}
	cfg.Source = strings.ToLower(strings.TrimSpace(cfg.Source))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setup initializes logging and the display timezone. console mirrors log
// entries to stderr.
func setup(cfg *config.Config, console bool) error {
	logLevel := "info"
	if cfg.Debug {
		logLevel = "debug"
	}

	logFile := config.ExpandPath(cfg.LogFile)
	if logFile != "" {
		if err := ensureDir(filepath.Dir(logFile)); err != nil {
			return fmt.Errorf("failed to create log directory: %w", err)
		}
	}
	if err := util.InitLogger(util.LoggerOptions{
		Level:   logLevel,
		File:    logFile,
		Format:  util.ParseLogFormat(cfg.LogFormat),
		Console: console,
	}); err != nil {
		return err
	}

	return util.InitializeTimeProvider(cfg.Timezone)
}

func clearSnapshots(cfg *config.Config) error {
	dir := source.SnapshotDir(config.ExpandPath(cfg.CacheDir))
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return nil
	}
	store, err := cache.NewSnapshotStore(dir)
	if err != nil {
		return err
	}
	return store.Clear()
}

func ensureDir(dir string) error {
	return os.MkdirAll(dir, 0755)
}

// stdoutIsTerminal reports whether w is an interactive terminal
func stdoutIsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && util.IsTerminal(f.Fd())
}
