package timeline

import (
	"time"

	"github.com/penwyp/go-agent-timeline/internal/core/model"
)

// Options controls what Build keeps.
type Options struct {
	Agent    string        // exact agent_system_name; empty keeps all agents
	Duration time.Duration // look-back window from now; zero keeps everything
	Limit    int           // maximum units; zero is unlimited
}

// Summary describes a reconstructed timeline
type Summary struct {
	Units        int                `json:"units"`
	Records      int                `json:"records"`
	Kinds        map[model.Kind]int `json:"kinds"`
	Failed       int                `json:"failed"`
	InputTokens  int                `json:"input_tokens"`
	OutputTokens int                `json:"output_tokens"`
	Oldest       time.Time          `json:"oldest"`
	Newest       time.Time          `json:"newest"`
}

// Result is the output of TimelineBuilder.Build
type Result struct {
	Agent       string                  `json:"agent,omitempty"`
	GeneratedAt time.Time               `json:"generated_at"`
	Units       []model.InteractionUnit `json:"units"`
	Summary     Summary                 `json:"summary"`
}
