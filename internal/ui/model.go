// ABOUTME: Bubbletea model for the playback transport TUI
// ABOUTME: Ticks the player at the frame interval and renders transport state
package ui

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/avio-player/avio-go/internal/app"
	"github.com/avio-player/avio-go/internal/probe"
)

// tickMsg drives one Advance call per frame interval.
type tickMsg time.Time

// Model represents the TUI state. The player itself is the source of
// truth; the model only holds presentation toggles.
type Model struct {
	player *app.Player
	report *probe.Report

	showInfo bool
	lastErr  string

	width  int
	height int
}

// NewModel creates a TUI model bound to a loaded player. The report may
// be nil when probing failed; the info panel then shows nothing.
func NewModel(player *app.Player, report *probe.Report) Model {
	return Model{player: player, report: report}
}

// Init starts the frame-interval tick loop.
func (m Model) Init() tea.Cmd {
	return tick(m.player.FrameInterval())
}

func tick(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		if err := m.player.Advance(time.Time(msg)); err != nil {
			m.lastErr = err.Error()
		}
		return m, tick(m.player.FrameInterval())
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	}

	return m, nil
}

// handleKey handles keyboard input
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case " ":
		m.player.TogglePause()
	case "left":
		m.player.SeekBy(-5000)
	case "right":
		m.player.SeekBy(5000)
	case "up":
		m.player.SetVolume(m.player.Volume() + 0.05)
	case "down":
		m.player.SetVolume(m.player.Volume() - 0.05)
	case "i":
		m.showInfo = !m.showInfo
	}

	return m, nil
}

// View renders the TUI
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	s := ""
	s += m.renderHeader()
	s += m.renderTransport()
	if m.showInfo {
		s += m.renderInfo()
	}
	if m.lastErr != "" {
		s += fmt.Sprintf("│ Error: %-45s │\n", truncate(m.lastErr, 45))
	}
	s += m.renderHelp()

	return s
}

// renderHeader renders the file name and playback state
func (m Model) renderHeader() string {
	name := truncate(filepath.Base(m.player.Path()), 44)

	state := "Playing"
	switch {
	case m.player.AtEnd():
		state = "End of stream"
	case m.player.Paused():
		state = "Paused"
	}
	if !m.player.HasAudio() {
		state += " (video only)"
	}

	return fmt.Sprintf(`┌─ avio ───────────────────────────────────────────────┐
│ File:  %-45s │
│ State: %-45s │
├──────────────────────────────────────────────────────┤
`, name, state)
}

// renderTransport renders position, progress, volume, and frame rate
func (m Model) renderTransport() string {
	cur, dur := m.player.Times()

	progress := 0
	if dur > 0 {
		progress = int(cur * 100 / dur)
	}

	volume := int(m.player.Volume()*100 + 0.5)
	w, h := m.player.Dimensions()

	return fmt.Sprintf("│ Time: %s / %s%-24s │\n"+
		"│ [%s] %3d%%%-17s │\n"+
		"│ Volume: [%s] %3d%%%-27s │\n"+
		"│ %dx%d @ %.2f fps (showing %.1f)%-19s │\n",
		formatTime(cur), formatTime(dur), "",
		renderBar(progress, 100, 30), progress, "",
		renderBar(volume, 100, 10), volume, "",
		w, h, m.player.FrameRate(), m.player.FPS(), "")
}

// renderInfo renders the stream listing from the probe report
func (m Model) renderInfo() string {
	if m.report == nil {
		return "│ No stream info available                             │\n"
	}

	s := "├──────────────────────────────────────────────────────┤\n"
	for _, line := range strings.Split(strings.TrimRight(m.report.String(), "\n"), "\n") {
		s += fmt.Sprintf("│ %-52s │\n", truncate(strings.TrimSpace(line), 52))
	}
	return s
}

// renderHelp renders keyboard shortcuts
func (m Model) renderHelp() string {
	return `│ space:Pause  ←/→:Seek 5s  ↑/↓:Volume  i:Info  q:Quit │
└──────────────────────────────────────────────────────┘
`
}

// Utility functions
func renderBar(value, max, width int) string {
	if value < 0 {
		value = 0
	}
	if value > max {
		value = max
	}
	filled := (value * width) / max
	bar := ""
	for i := 0; i < width; i++ {
		if i < filled {
			bar += "█"
		} else {
			bar += "░"
		}
	}
	return bar
}

func truncate(s string, length int) string {
	if len(s) <= length {
		return s
	}
	if length <= 0 {
		return ""
	}
	if length <= 3 {
		return s[:length]
	}
	return s[:length-3] + "..."
}

func formatTime(ms int64) string {
	if ms < 0 {
		ms = 0
	}
	h := ms / 3600000
	m := (ms % 3600000) / 60000
	s := (ms % 60000) / 1000
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}
