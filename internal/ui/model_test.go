// ABOUTME: Tests for TUI model update handling and rendering helpers
// ABOUTME: Runs against an unloaded player; no media files are opened
package ui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/avio-player/avio-go/internal/app"
	"github.com/avio-player/avio-go/internal/probe"
)

func testModel() Model {
	return NewModel(app.New(nil), nil)
}

func TestNewModel(t *testing.T) {
	m := testModel()

	if m.showInfo {
		t.Error("expected info panel hidden initially")
	}
	if m.lastErr != "" {
		t.Errorf("expected no error initially, got %q", m.lastErr)
	}
}

func TestQuitKeys(t *testing.T) {
	for _, key := range []string{"q", "ctrl+c"} {
		m := testModel()
		_, cmd := m.Update(keyMsg(key))
		if cmd == nil {
			t.Errorf("key %q should produce a quit command", key)
			continue
		}
		if _, ok := cmd().(tea.QuitMsg); !ok {
			t.Errorf("key %q produced %T, want tea.QuitMsg", key, cmd())
		}
	}
}

func TestVolumeKeys(t *testing.T) {
	m := testModel()

	updated, _ := m.Update(keyMsg("up"))
	m = updated.(Model)
	if got := m.player.Volume(); got < 0.74 || got > 0.76 {
		t.Errorf("volume after up = %v, want 0.75", got)
	}

	for i := 0; i < 50; i++ {
		updated, _ = m.Update(keyMsg("down"))
		m = updated.(Model)
	}
	if got := m.player.Volume(); got != 0 {
		t.Errorf("volume after repeated down = %v, want 0", got)
	}
}

func TestInfoToggle(t *testing.T) {
	m := testModel()

	updated, _ := m.Update(keyMsg("i"))
	m = updated.(Model)
	if !m.showInfo {
		t.Error("i should show the info panel")
	}

	updated, _ = m.Update(keyMsg("i"))
	m = updated.(Model)
	if m.showInfo {
		t.Error("second i should hide the info panel")
	}
}

func TestTransportKeysWithoutFile(t *testing.T) {
	m := testModel()

	// Must not panic with nothing loaded.
	for _, key := range []string{" ", "left", "right"} {
		updated, _ := m.Update(keyMsg(key))
		m = updated.(Model)
	}
	if m.player.Paused() {
		t.Error("pause must not latch without a file")
	}
}

func TestViewBeforeSize(t *testing.T) {
	m := testModel()
	if got := m.View(); got != "Loading..." {
		t.Errorf("View before WindowSizeMsg = %q", got)
	}
}

func TestViewRendersTransport(t *testing.T) {
	m := testModel()
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	m = updated.(Model)

	out := m.View()
	for _, want := range []string{"avio", "Time:", "Volume:", "q:Quit"} {
		if !strings.Contains(out, want) {
			t.Errorf("view missing %q in:\n%s", want, out)
		}
	}
}

func TestViewInfoPanelWithReport(t *testing.T) {
	m := NewModel(app.New(nil), &probe.Report{Path: "clip.mp4", DurationMs: 1000})
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	m = updated.(Model)
	updated, _ = m.Update(keyMsg("i"))
	m = updated.(Model)

	if !strings.Contains(m.View(), "clip.mp4") {
		t.Error("info panel should include the probe report")
	}
}

func TestRenderBar(t *testing.T) {
	tests := []struct {
		name  string
		value int
		want  string
	}{
		{"empty", 0, "░░░░░░░░░░"},
		{"half", 50, "█████░░░░░"},
		{"full", 100, "██████████"},
		{"clamped high", 150, "██████████"},
		{"clamped low", -10, "░░░░░░░░░░"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := renderBar(tt.value, 100, 10); got != tt.want {
				t.Errorf("renderBar(%d) = %q, want %q", tt.value, got, tt.want)
			}
		})
	}
}

func TestFormatTime(t *testing.T) {
	tests := []struct {
		name string
		ms   int64
		want string
	}{
		{"zero", 0, "00:00"},
		{"seconds", 59000, "00:59"},
		{"minutes", 90000, "01:30"},
		{"hours", 3723000, "1:02:03"},
		{"negative", -10, "00:00"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatTime(tt.ms); got != tt.want {
				t.Errorf("formatTime(%d) = %q, want %q", tt.ms, got, tt.want)
			}
		})
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name   string
		s      string
		length int
		want   string
	}{
		{"fits", "short", 10, "short"},
		{"long", "a very long file name.mkv", 10, "a very ..."},
		{"exact", "abcde", 5, "abcde"},
		{"length three", "abcde", 3, "abc"},
		{"length one", "abcde", 1, "a"},
		{"length zero", "abcde", 0, ""},
		{"negative length", "abcde", -2, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := truncate(tt.s, tt.length); got != tt.want {
				t.Errorf("truncate(%q, %d) = %q, want %q", tt.s, tt.length, got, tt.want)
			}
		})
	}
}

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
	}
}
