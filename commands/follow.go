package commands

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/penwyp/go-agent-timeline/internal/application/follow"
	"github.com/penwyp/go-agent-timeline/internal/config"
	"github.com/penwyp/go-agent-timeline/internal/core/timeline"
	"github.com/penwyp/go-agent-timeline/internal/data/source"
	"github.com/penwyp/go-agent-timeline/internal/presentation/display"
	"github.com/penwyp/go-agent-timeline/internal/presentation/formatter"
	"github.com/penwyp/go-agent-timeline/internal/util"
)

func newFollowCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "follow",
		Short: "Watch an agent's timeline update in real-time",
		Long: `Keeps the timeline on screen and rebuilds it whenever new logs arrive.

Local log directories are watched for changes; every source is also polled at
--interval. A failed refresh keeps the last timeline visible with an error line.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFollow(cmd, opts)
		},
	}

	cmd.Flags().DurationVar(&opts.interval, "interval", config.Default().Interval,
		"Polling interval (0 disables polling)")
	cmd.Flags().IntVar(&opts.limit, "limit", 0,
		"Limit interaction count (0 = unlimited)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "table",
		"Display format (table, summary)")
	return cmd
}

func runFollow(cmd *cobra.Command, opts *rootOptions) error {
	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		return err
	}
	// follow owns the terminal, so logs only go to the file
	if err := setup(cfg, false); err != nil {
		return err
	}
	defer util.SetLogger(nil)

	loc, _ := util.LoadLocation(cfg.Timezone)
	f, err := formatter.NewTimelineFormatter(cfg.Output, formatter.Options{Location: loc})
	if err != nil {
		return err
	}

	src, err := source.CreateSource(cfg.SourceConfig())
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := cmd.OutOrStdout()
	interactive := stdoutIsTerminal(out)
	td := display.NewTerminalDisplay(out, f, interactive)
	if interactive {
		td.EnterAlternateScreen()
		defer td.ExitAlternateScreen()
	}

	return newFollowOrchestrator(cfg, src, td).Run(ctx)
}

func newFollowOrchestrator(cfg *config.Config, src source.LogSource, renderer follow.Renderer) *follow.Orchestrator {
	store := follow.NewStore()
	builder := timeline.NewTimelineBuilder(timelineOptions(cfg))
	controller := follow.NewRefreshController(src, builder, cfg.Agent, store)

	var watchPaths []string
	if cfg.Source == source.KindLocal {
		dir := config.ExpandPath(cfg.Dir)
		if _, err := os.Stat(dir); err == nil {
			watchPaths = append(watchPaths, dir)
		} else {
			util.LogWarnf("Not watching %s: %v", dir, err)
		}
	}
	if len(watchPaths) == 0 && cfg.Interval == 0 {
		util.LogWarn("Follow mode has neither a watched directory nor a polling interval")
	}

	return follow.NewOrchestrator(follow.Config{
		WatchPaths: watchPaths,
		Interval:   cfg.Interval,
	}, controller, store, renderer)
}
