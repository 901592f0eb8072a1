package tui

import "github.com/charmbracelet/lipgloss"

// Catppuccin Mocha subset.
const (
	colorText    lipgloss.Color = "#cdd6f4"
	colorSubtext lipgloss.Color = "#a6adc8"
	colorOverlay lipgloss.Color = "#6c7086"
	colorGreen   lipgloss.Color = "#a6e3a1"
	colorRed     lipgloss.Color = "#f38ba8"
	colorYellow  lipgloss.Color = "#f9e2af"
	colorBlue    lipgloss.Color = "#89b4fa"
	colorMauve   lipgloss.Color = "#cba6f7"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(colorMauve)

	menuItemStyle     = lipgloss.NewStyle().Foreground(colorText).PaddingLeft(2)
	menuSelectedStyle = lipgloss.NewStyle().Foreground(colorBlue).Bold(true).PaddingLeft(0)

	statusOKStyle  = lipgloss.NewStyle().Foreground(colorGreen)
	statusErrStyle = lipgloss.NewStyle().Foreground(colorRed)

	labelStyle = lipgloss.NewStyle().Foreground(colorSubtext)
	helpStyle  = lipgloss.NewStyle().Foreground(colorOverlay)

	balanceStyle = lipgloss.NewStyle().Foreground(colorYellow).Bold(true)
)
