package aggregator

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/penwyp/go-agent-timeline/internal/core/model"
)

// GroupBy selects the usage bucket size
type GroupBy string

const (
	GroupByAgent GroupBy = "agent"
	GroupByHour  GroupBy = "hour"
	GroupByDay   GroupBy = "day"
	GroupByWeek  GroupBy = "week"
	GroupByMonth GroupBy = "month"
)

func ParseGroupBy(s string) (GroupBy, error) {
	switch g := GroupBy(strings.ToLower(strings.TrimSpace(s))); g {
	case GroupByAgent, GroupByHour, GroupByDay, GroupByWeek, GroupByMonth:
		return g, nil
	case "":
		return GroupByDay, nil
	default:
		return "", fmt.Errorf("unknown grouping: %s (valid: agent, hour, day, week, month)", s)
	}
}

// UsageRow holds token usage of one agent within one period.
type UsageRow struct {
	Agent        string    `json:"agent"`
	Period       time.Time `json:"period"` // bucket start, zero for GroupByAgent
	Label        string    `json:"label"`
	InputTokens  int       `json:"input_tokens"`
	OutputTokens int       `json:"output_tokens"`
	TotalTokens  int       `json:"total_tokens"`
	Records      int       `json:"records"`
	Requests     int       `json:"requests"`
	Errors       int       `json:"errors"`
	FirstEntry   time.Time `json:"first_entry"`
	LastEntry    time.Time `json:"last_entry"`
}

// Aggregator buckets agent log records by agent and period.
type Aggregator struct {
	groupBy GroupBy
	loc     *time.Location
}

// NewAggregator buckets in loc; nil means UTC.
func NewAggregator(groupBy GroupBy, loc *time.Location) *Aggregator {
	if loc == nil {
		loc = time.UTC
	}
	return &Aggregator{groupBy: groupBy, loc: loc}
}

// Aggregate sums usage per (period, agent). Every record counts, including
// records that share an id. Rows are ordered by period, then agent.
func (a *Aggregator) Aggregate(records []model.LogRecord) []UsageRow {
	rows := make(map[string]*UsageRow)

	for _, r := range records {
		agent := r.AgentSystemName
		if agent == "" {
			agent = "unknown"
		}
		period := a.bucket(r.CreatedAt)
		key := fmt.Sprintf("%d|%s", period.Unix(), agent)

		row, ok := rows[key]
		if !ok {
			row = &UsageRow{
				Agent:      agent,
				Period:     period,
				Label:      a.label(period),
				FirstEntry: r.CreatedAt,
				LastEntry:  r.CreatedAt,
			}
			rows[key] = row
		}

		row.InputTokens += r.InputTokens
		row.OutputTokens += r.OutputTokens
		row.Records++
		switch r.Type() {
		case model.LogTypeRequest:
			row.Requests++
		case model.LogTypeError:
			row.Errors++
		}
		if r.CreatedAt.Before(row.FirstEntry) {
			row.FirstEntry = r.CreatedAt
		}
		if r.CreatedAt.After(row.LastEntry) {
			row.LastEntry = r.CreatedAt
		}
	}

	result := make([]UsageRow, 0, len(rows))
	for _, row := range rows {
		row.TotalTokens = row.InputTokens + row.OutputTokens
		result = append(result, *row)
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].Period.Equal(result[j].Period) {
			return result[i].Period.Before(result[j].Period)
		}
		return result[i].Agent < result[j].Agent
	})
	return result
}

// Totals sums rows into a single row labelled "total".
func Totals(rows []UsageRow) UsageRow {
	total := UsageRow{Agent: "all", Label: "total"}
	for i, r := range rows {
		total.InputTokens += r.InputTokens
		total.OutputTokens += r.OutputTokens
		total.TotalTokens += r.TotalTokens
		total.Records += r.Records
		total.Requests += r.Requests
		total.Errors += r.Errors
		if i == 0 || r.FirstEntry.Before(total.FirstEntry) {
			total.FirstEntry = r.FirstEntry
		}
		if r.LastEntry.After(total.LastEntry) {
			total.LastEntry = r.LastEntry
		}
	}
	return total
}

// bucket returns the start of the period containing t in the aggregator's
// location. Dates are rebuilt rather than truncated so zones with
// non-hour offsets bucket on local boundaries.
func (a *Aggregator) bucket(t time.Time) time.Time {
	local := t.In(a.loc)
	y, m, d := local.Date()

	switch a.groupBy {
	case GroupByAgent:
		return time.Time{}
	case GroupByHour:
		return time.Date(y, m, d, local.Hour(), 0, 0, 0, a.loc)
	case GroupByWeek:
		offset := (int(local.Weekday()) + 6) % 7 // weeks start on Monday
		return time.Date(y, m, d-offset, 0, 0, 0, 0, a.loc)
	case GroupByMonth:
		return time.Date(y, m, 1, 0, 0, 0, 0, a.loc)
	default:
		return time.Date(y, m, d, 0, 0, 0, 0, a.loc)
	}
}

func (a *Aggregator) label(period time.Time) string {
	switch a.groupBy {
	case GroupByAgent:
		return "all time"
	case GroupByHour:
		return period.Format("2006-01-02 15:00")
	case GroupByWeek:
		return "week of " + period.Format("2006-01-02")
	case GroupByMonth:
		return period.Format("2006-01")
	default:
		return period.Format("2006-01-02")
	}
}
