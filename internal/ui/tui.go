// ABOUTME: TUI initialization and control
// ABOUTME: Wraps the bubbletea program for the playback transport
package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/avio-player/avio-go/internal/app"
	"github.com/avio-player/avio-go/internal/probe"
)

// Run creates the transport TUI for a loaded player. The returned
// program blocks in Run until the user quits.
func Run(player *app.Player, report *probe.Report) *tea.Program {
	return tea.NewProgram(NewModel(player, report), tea.WithAltScreen())
}
