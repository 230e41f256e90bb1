package formatter

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/penwyp/go-agent-timeline/internal/core/model"
	"github.com/penwyp/go-agent-timeline/internal/core/timeline"
	"github.com/penwyp/go-agent-timeline/internal/data/aggregator"
	"github.com/penwyp/go-agent-timeline/internal/util"
)

const timeLayout = "2006-01-02 15:04:05"

// TimelineFormatter renders a reconstructed timeline
type TimelineFormatter interface {
	Format(w io.Writer, result timeline.Result) error
}

// UsageFormatter renders aggregated token usage
type UsageFormatter interface {
	FormatUsage(w io.Writer, rows []aggregator.UsageRow) error
}

// Options tune human-readable output
type Options struct {
	Width    int            // terminal width; zero detects it
	Location *time.Location // display timezone; nil uses the global time provider
}

func (o Options) width() int {
	if o.Width > 0 {
		return o.Width
	}
	return util.TerminalWidth()
}

func (o Options) format(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	if o.Location != nil {
		return t.In(o.Location).Format(timeLayout)
	}
	return util.GetTimeProvider().Format(t, timeLayout)
}

// NewTimelineFormatter returns the formatter for output: table, json, csv or summary
func NewTimelineFormatter(output string, opts Options) (TimelineFormatter, error) {
	switch strings.ToLower(output) {
	case "table", "":
		return NewTableFormatter(opts), nil
	case "json":
		return NewJSONFormatter(), nil
	case "csv":
		return NewCSVFormatter(opts), nil
	case "summary":
		return NewSummaryFormatter(opts), nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s (valid: table, json, csv, summary)", output)
	}
}

// NewUsageFormatter returns the formatter for output: table, json or csv
func NewUsageFormatter(output string) (UsageFormatter, error) {
	switch strings.ToLower(output) {
	case "table", "", "summary":
		return NewTableFormatter(Options{}), nil
	case "json":
		return NewJSONFormatter(), nil
	case "csv":
		return NewCSVFormatter(Options{}), nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s (valid: table, json, csv)", output)
	}
}

// kindLabel marks units whose response arrived alongside an error record.
func kindLabel(u model.InteractionUnit) string {
	label := string(u.Kind)
	if u.HasSecondaryError() {
		label += " !"
	}
	return label
}

// outcome is the record whose payload best describes the unit.
func outcome(u model.InteractionUnit) *model.LogRecord {
	if r := u.Error(); r != nil && u.Response() == nil {
		return r
	}
	if r := u.Response(); r != nil {
		return r
	}
	if r := u.Request(); r != nil {
		return r
	}
	if len(u.Members) > 0 {
		return &u.Members[0].Record
	}
	return nil
}

func detail(u model.InteractionUnit) string {
	r := outcome(u)
	if r == nil || len(r.Details) == 0 || string(r.Details) == "null" {
		return ""
	}
	return util.SingleLine(string(r.Details))
}
