package formatter

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"github.com/penwyp/go-agent-timeline/internal/core/timeline"
	"github.com/penwyp/go-agent-timeline/internal/data/aggregator"
)

// CSVFormatter writes one row per member record so spreadsheets can regroup
// by group_key.
type CSVFormatter struct {
	opts Options
}

func NewCSVFormatter(opts Options) *CSVFormatter {
	return &CSVFormatter{opts: opts}
}

func (f *CSVFormatter) Format(w io.Writer, result timeline.Result) error {
	cw := csv.NewWriter(w)

	headers := []string{
		"group_key", "paired", "kind", "unit_timestamp", "role", "superseded",
		"id", "log_type", "created_at", "agent_system_name", "input_tokens", "output_tokens", "details",
	}
	if err := cw.Write(headers); err != nil {
		return err
	}

	for _, u := range result.Units {
		for _, m := range u.Members {
			r := m.Record
			record := []string{
				u.GroupKey,
				strconv.FormatBool(u.Paired),
				string(u.Kind),
				u.Timestamp.UTC().Format(time.RFC3339Nano),
				string(m.Role),
				strconv.FormatBool(m.Superseded),
				r.ID.String(),
				r.LogType,
				r.CreatedAt.UTC().Format(time.RFC3339Nano),
				r.AgentSystemName,
				strconv.Itoa(r.InputTokens),
				strconv.Itoa(r.OutputTokens),
				string(r.Details),
			}
			if err := cw.Write(record); err != nil {
				return err
			}
		}
	}

	cw.Flush()
	return cw.Error()
}

func (f *CSVFormatter) FormatUsage(w io.Writer, rows []aggregator.UsageRow) error {
	cw := csv.NewWriter(w)

	headers := []string{
		"period", "label", "agent", "records", "requests", "errors",
		"input_tokens", "output_tokens", "total_tokens",
	}
	if err := cw.Write(headers); err != nil {
		return err
	}

	for _, r := range rows {
		period := ""
		if !r.Period.IsZero() {
			period = r.Period.Format(time.RFC3339)
		}
		record := []string{
			period,
			r.Label,
			r.Agent,
			strconv.Itoa(r.Records),
			strconv.Itoa(r.Requests),
			strconv.Itoa(r.Errors),
			strconv.Itoa(r.InputTokens),
			strconv.Itoa(r.OutputTokens),
			strconv.Itoa(r.TotalTokens),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}
