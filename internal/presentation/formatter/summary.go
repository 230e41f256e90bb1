package formatter

import (
	"io"
	"strings"

	"github.com/penwyp/go-agent-timeline/internal/core/model"
	"github.com/penwyp/go-agent-timeline/internal/core/timeline"
	"github.com/penwyp/go-agent-timeline/internal/util"
)

// SummaryFormatter prints kind counts and token totals instead of individual units.
type SummaryFormatter struct {
	opts Options
}

func NewSummaryFormatter(opts Options) *SummaryFormatter {
	return &SummaryFormatter{opts: opts}
}

func (f *SummaryFormatter) Format(w io.Writer, result timeline.Result) error {
	tw := &tableWriter{w: w}
	s := result.Summary
	rule := strings.Repeat("=", 60)

	agent := result.Agent
	if agent == "" {
		agent = "all agents"
	}

	tw.printf("%s\n", rule)
	tw.printf("Agent Timeline Summary: %s\n", agent)
	tw.printf("%s\n\n", rule)

	if s.Units == 0 {
		tw.printf("No interactions to summarize\n\n%s\n", rule)
		return tw.err
	}

	tw.printf("Time Range: %s to %s\n\n", f.opts.format(s.Oldest), f.opts.format(s.Newest))

	tw.printf("Interactions:\n")
	tw.printf("  Units:   %s\n", util.FormatNumber(s.Units))
	tw.printf("  Records: %s\n", util.FormatNumber(s.Records))
	tw.printf("  Failed:  %s\n\n", util.FormatNumber(s.Failed))

	tw.printf("By Kind:\n")
	for _, kind := range model.AllKinds {
		if n := s.Kinds[kind]; n > 0 {
			tw.printf("  %s %s\n", util.PadString(string(kind)+":", 24, true), util.FormatNumber(n))
		}
	}
	tw.printf("\n")

	tw.printf("Token Breakdown:\n")
	tw.printf("  Input:  %s\n", util.FormatNumber(s.InputTokens))
	tw.printf("  Output: %s\n", util.FormatNumber(s.OutputTokens))
	tw.printf("  Total:  %s\n\n", util.FormatNumber(s.InputTokens+s.OutputTokens))
	tw.printf("%s\n", rule)
	return tw.err
}
