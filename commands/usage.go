package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/penwyp/go-agent-timeline/internal/core/model"
	"github.com/penwyp/go-agent-timeline/internal/data/aggregator"
	"github.com/penwyp/go-agent-timeline/internal/data/source"
	"github.com/penwyp/go-agent-timeline/internal/presentation/formatter"
	"github.com/penwyp/go-agent-timeline/internal/util"
)

func newUsageCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "usage",
		Short: "Summarize token usage per agent and period",
		Long: `Aggregates input and output tokens, request counts and errors from the agent logs.

Examples:
  go-agent-timeline usage                         # Per day, all agents
  go-agent-timeline usage --group-by hour -d 24h  # Hourly over the last day
  go-agent-timeline usage --group-by agent -o csv # One row per agent`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUsage(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.groupBy, "group-by", string(aggregator.GroupByDay),
		"Group by (agent, hour, day, week, month)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "table",
		"Output format (table, json, csv)")
	return cmd
}

func runUsage(cmd *cobra.Command, opts *rootOptions) error {
	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		return err
	}
	if err := setup(cfg, cfg.Debug); err != nil {
		return err
	}
	defer util.SetLogger(nil)

	groupBy, err := aggregator.ParseGroupBy(cfg.GroupBy)
	if err != nil {
		return err
	}
	f, err := formatter.NewUsageFormatter(cfg.Output)
	if err != nil {
		return err
	}

	src, err := source.CreateSource(cfg.SourceConfig())
	if err != nil {
		return err
	}
	records, err := src.FetchLogs(cmd.Context(), cfg.Agent)
	if err != nil {
		return fmt.Errorf("failed to fetch logs from %s: %w", src.Name(), err)
	}

	lookback, _ := util.ParseLookback(cfg.Duration)
	records = recordsSince(records, lookback, time.Now())

	loc, _ := util.LoadLocation(cfg.Timezone)
	rows := aggregator.NewAggregator(groupBy, loc).Aggregate(records)
	util.LogDebugf("Aggregated %d records into %d rows by %s", len(records), len(rows), groupBy)

	return f.FormatUsage(cmd.OutOrStdout(), rows)
}

// recordsSince keeps records created within d before now; zero keeps all
func recordsSince(records []model.LogRecord, d time.Duration, now time.Time) []model.LogRecord {
	if d <= 0 {
		return records
	}
	cutoff := now.Add(-d)
	kept := make([]model.LogRecord, 0, len(records))
	for _, rec := range records {
		if !rec.CreatedAt.Before(cutoff) {
			kept = append(kept, rec)
		}
	}
	return kept
}
