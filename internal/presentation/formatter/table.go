package formatter

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/penwyp/go-agent-timeline/internal/core/timeline"
	"github.com/penwyp/go-agent-timeline/internal/data/aggregator"
	"github.com/penwyp/go-agent-timeline/internal/util"
)

const (
	maxKeyWidth    = 36
	minDetailWidth = 10
)

type TableFormatter struct {
	opts Options
}

func NewTableFormatter(opts Options) *TableFormatter {
	return &TableFormatter{opts: opts}
}

var timelineHeaders = []string{"Time", "Key", "Kind", "Recs", "Input", "Output", "Duration", "Detail"}

// left-aligned timeline columns; the rest are numeric
var timelineLeft = []bool{true, true, true, false, false, false, false, true}

func (f *TableFormatter) Format(w io.Writer, result timeline.Result) error {
	rows := make([][]string, 0, len(result.Units))
	for _, u := range result.Units {
		in, out := u.Tokens()
		rows = append(rows, []string{
			f.opts.format(u.Timestamp),
			util.TruncateToWidth(u.GroupKey, maxKeyWidth),
			kindLabel(u),
			strconv.Itoa(u.RecordCount()),
			util.FormatNumber(in),
			util.FormatNumber(out),
			formatElapsed(u.Duration()),
			detail(u),
		})
	}

	last := len(timelineHeaders) - 1
	if len(rows) == 0 {
		rows = append(rows, append([]string{"(no interactions)"}, make([]string, last)...))
	}

	widths := columnWidths(timelineHeaders, rows)
	fixed := 1
	for _, width := range widths[:last] {
		fixed += width + 3
	}
	widths[last] = max(f.opts.width()-fixed-4, minDetailWidth)
	for _, row := range rows {
		row[last] = util.TruncateToWidth(row[last], widths[last])
	}

	tw := &tableWriter{w: w, widths: widths, left: timelineLeft}
	tw.border("top")
	tw.row(timelineHeaders)
	tw.border("middle")
	for _, row := range rows {
		tw.row(row)
	}
	tw.border("bottom")

	s := result.Summary
	tw.printf("%s units, %s records, %s failed, tokens in %s / out %s\n",
		util.FormatNumber(s.Units), util.FormatNumber(s.Records), util.FormatNumber(s.Failed),
		util.FormatTokens(s.InputTokens), util.FormatTokens(s.OutputTokens))
	return tw.err
}

var usageHeaders = []string{"Period", "Agent", "Records", "Requests", "Errors", "Input", "Output", "Total Tokens"}

var usageLeft = []bool{true, true, false, false, false, false, false, false}

func usageCells(r aggregator.UsageRow) []string {
	return []string{
		r.Label,
		r.Agent,
		util.FormatNumber(r.Records),
		util.FormatNumber(r.Requests),
		util.FormatNumber(r.Errors),
		util.FormatNumber(r.InputTokens),
		util.FormatNumber(r.OutputTokens),
		util.FormatNumber(r.TotalTokens),
	}
}

func (f *TableFormatter) FormatUsage(w io.Writer, data []aggregator.UsageRow) error {
	rows := make([][]string, 0, len(data))
	for _, r := range data {
		rows = append(rows, usageCells(r))
	}
	total := usageCells(aggregator.Totals(data))
	total[0], total[1] = "Total", ""

	widths := columnWidths(usageHeaders, append(rows, total))
	for i := range widths {
		widths[i] = max(widths[i], 8)
	}

	tw := &tableWriter{w: w, widths: widths, left: usageLeft}
	tw.border("top")
	tw.row(usageHeaders)
	tw.border("middle")
	for _, row := range rows {
		tw.row(row)
	}
	tw.border("middle")
	tw.row(total)
	tw.border("bottom")
	return tw.err
}

func columnWidths(headers []string, rows [][]string) []int {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = util.GetDisplayWidth(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if w := util.GetDisplayWidth(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}
	return widths
}

func formatElapsed(d time.Duration) string {
	switch {
	case d <= 0:
		return "-"
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	default:
		return util.FormatDuration(d)
	}
}

// tableWriter draws box tables and keeps the first write error
type tableWriter struct {
	w      io.Writer
	widths []int
	left   []bool
	err    error
}

func (t *tableWriter) printf(format string, args ...interface{}) {
	if t.err != nil {
		return
	}
	_, t.err = fmt.Fprintf(t.w, format, args...)
}

func (t *tableWriter) border(kind string) {
	var left, middle, right string
	switch kind {
	case "top":
		left, middle, right = "┌", "┬", "┐"
	case "middle":
		left, middle, right = "├", "┼", "┤"
	default:
		left, middle, right = "└", "┴", "┘"
	}

	var b strings.Builder
	b.WriteString(left)
	for i, width := range t.widths {
		b.WriteString(strings.Repeat("─", width+2))
		if i < len(t.widths)-1 {
			b.WriteString(middle)
		}
	}
	b.WriteString(right)
	t.printf("%s\n", b.String())
}

func (t *tableWriter) row(values []string) {
	var b strings.Builder
	b.WriteString("│")
	for i, value := range values {
		b.WriteString(" ")
		b.WriteString(util.PadString(value, t.widths[i], t.left[i]))
		b.WriteString(" │")
	}
	t.printf("%s\n", b.String())
}
