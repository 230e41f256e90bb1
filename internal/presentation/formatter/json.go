package formatter

import (
	"io"

	"github.com/bytedance/sonic"

	"github.com/penwyp/go-agent-timeline/internal/core/timeline"
	"github.com/penwyp/go-agent-timeline/internal/data/aggregator"
)

type JSONFormatter struct{}

func NewJSONFormatter() *JSONFormatter {
	return &JSONFormatter{}
}

func (f *JSONFormatter) Format(w io.Writer, result timeline.Result) error {
	return writeIndented(w, result)
}

type usageDocument struct {
	Rows  []aggregator.UsageRow `json:"rows"`
	Total aggregator.UsageRow   `json:"total"`
}

func (f *JSONFormatter) FormatUsage(w io.Writer, rows []aggregator.UsageRow) error {
	if rows == nil {
		rows = []aggregator.UsageRow{}
	}
	return writeIndented(w, usageDocument{Rows: rows, Total: aggregator.Totals(rows)})
}

// writeIndented uses the std-compatible config so map keys come out sorted
func writeIndented(w io.Writer, v interface{}) error {
	data, err := sonic.ConfigStd.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}
