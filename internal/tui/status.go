package tui

import "github.com/charmbracelet/lipgloss"

// backendMode says where questions are answered.
type backendMode string

const (
	// modeLocal answers in-process against the loaded runtime.
	modeLocal backendMode = "local"
	// modeRemote forwards questions to a running API server.
	modeRemote backendMode = "remote"
)

func renderModeBadge(mode backendMode) string {
	style := lipgloss.NewStyle().Padding(0, 1).MarginLeft(1).Bold(true)
	switch mode {
	case modeRemote:
		style = style.Background(lipgloss.Color("33")).Foreground(lipgloss.Color("231"))
	default:
		style = style.Background(lipgloss.Color("240")).Foreground(lipgloss.Color("231"))
	}
	return style.Render("Mode: " + string(mode))
}
