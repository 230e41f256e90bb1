package display

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/penwyp/go-agent-timeline/internal/application/follow"
	"github.com/penwyp/go-agent-timeline/internal/presentation/formatter"
	"github.com/penwyp/go-agent-timeline/internal/util"
)

// TerminalDisplay renders follow mode states full-screen. Frames identical
// to the previous one are not redrawn.
type TerminalDisplay struct {
	out       io.Writer
	formatter formatter.TimelineFormatter
	color     bool

	mu                sync.Mutex
	inAlternateScreen bool
	isFirstRender     bool
	lastFrame         string
}

func NewTerminalDisplay(out io.Writer, f formatter.TimelineFormatter, color bool) *TerminalDisplay {
	return &TerminalDisplay{
		out:           out,
		formatter:     f,
		color:         color,
		isFirstRender: true,
	}
}

// EnterAlternateScreen switches to the alternate screen buffer
func (td *TerminalDisplay) EnterAlternateScreen() {
	td.mu.Lock()
	defer td.mu.Unlock()
	if td.inAlternateScreen {
		return
	}
	fmt.Fprint(td.out, util.EnterAltScreen+util.ClearScreen+util.ClearScrollback+util.MoveCursorHome+util.HideCursor)
	td.inAlternateScreen = true
	td.isFirstRender = true
}

// ExitAlternateScreen returns to the normal screen buffer
func (td *TerminalDisplay) ExitAlternateScreen() {
	td.mu.Lock()
	defer td.mu.Unlock()
	if !td.inAlternateScreen {
		return
	}
	fmt.Fprint(td.out, util.ClearScreen+util.MoveCursorHome+util.ShowCursor+util.ExitAltScreen)
	td.inAlternateScreen = false
}

func (td *TerminalDisplay) Render(state follow.State) error {
	frame, err := td.frame(state)
	if err != nil {
		return err
	}

	td.mu.Lock()
	defer td.mu.Unlock()

	if frame == td.lastFrame {
		return nil
	}
	td.lastFrame = frame

	var prefix string
	if td.isFirstRender {
		prefix = util.ClearScreen
		td.isFirstRender = false
	}
	_, err = fmt.Fprint(td.out, prefix+util.MoveCursorHome+frame+util.ClearToEnd)
	return err
}

func (td *TerminalDisplay) frame(state follow.State) (string, error) {
	var buf bytes.Buffer

	buf.WriteString(td.paint(util.ColorBold, "Agent Timeline") + "  " + td.header(state) + "\n")
	if status := td.status(state); status != "" {
		buf.WriteString(status + "\n")
	}
	buf.WriteString("\n")

	if state.LastUpdate.IsZero() && len(state.Result.Units) == 0 {
		if state.Loading {
			buf.WriteString("Loading agent logs...\n")
		}
		return buf.String(), nil
	}

	if err := td.formatter.Format(&buf, state.Result); err != nil {
		return "", err
	}
	buf.WriteString("\nPress Ctrl+C to exit\n")
	return buf.String(), nil
}

func (td *TerminalDisplay) header(state follow.State) string {
	agent := state.Result.Agent
	if agent == "" {
		agent = "all agents"
	}
	parts := []string{"agent: " + agent}
	if state.Source != "" {
		parts = append(parts, "source: "+state.Source)
	}
	parts = append(parts, "updated: "+util.GetTimeProvider().Format(state.LastUpdate, "15:04:05"))
	if delta := len(state.Result.Units) - len(state.Previous); !state.LastUpdate.IsZero() && delta > 0 && len(state.Previous) > 0 {
		parts = append(parts, fmt.Sprintf("+%d new", delta))
	}
	return strings.Join(parts, " | ")
}

func (td *TerminalDisplay) status(state follow.State) string {
	switch {
	case state.Err != nil:
		return td.paint(util.ColorRed, "Refresh failed: "+util.SingleLine(state.Err.Error()))
	case state.Stale:
		return td.paint(util.ColorYellow, "Remote unavailable, showing last snapshot")
	case state.Loading:
		return td.paint(util.ColorGreen, "Refreshing...")
	default:
		return ""
	}
}

func (td *TerminalDisplay) paint(color, s string) string {
	if !td.color {
		return s
	}
	return color + s + util.ColorReset
}
