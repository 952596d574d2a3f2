package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/wulfaz/karotzctl/internal/version"
)

// AppName is shown in the dashboard header
const AppName = "KAROTZ DASHBOARD"

// Layout constants for responsive terminal width
const (
	MinTerminalWidth  = 60
	MinTerminalHeight = 20
)

// Color palette
var (
	PrimaryColor   = lipgloss.Color("#FF8C1A") // Orange
	SecondaryColor = lipgloss.Color("#43BF6D") // Green
	WarningColor   = lipgloss.Color("#FFA500") // Orange
	ErrorColor     = lipgloss.Color("#FF5555") // Red

	TextColor   = lipgloss.Color("#FFFFFF") // White
	SubtleColor = lipgloss.Color("#626262") // Gray
	BorderColor = lipgloss.Color("#FF8C1A")
)

var (
	SectionTitleStyle = lipgloss.NewStyle().
				Foreground(PrimaryColor).
				Bold(true)

	LabelStyle = lipgloss.NewStyle().
			Foreground(SubtleColor).
			Width(14)

	ValueStyle = lipgloss.NewStyle().
			Foreground(TextColor)

	AwakeStyle = lipgloss.NewStyle().
			Foreground(SecondaryColor).
			Bold(true)

	SleepingStyle = lipgloss.NewStyle().
			Foreground(WarningColor).
			Bold(true)

	UnknownStyle = lipgloss.NewStyle().
			Foreground(SubtleColor).
			Bold(true)

	SpinnerStyle = lipgloss.NewStyle().
			Foreground(PrimaryColor)

	SuccessLineStyle = lipgloss.NewStyle().
				Foreground(SecondaryColor)

	ErrorLineStyle = lipgloss.NewStyle().
			Foreground(ErrorColor).
			Bold(true)

	HintStyle = lipgloss.NewStyle().
			Foreground(SubtleColor).
			Italic(true)

	PanelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(SubtleColor).
			Padding(0, 1)

	InputPanelStyle = lipgloss.NewStyle().
			Border(lipgloss.Border{
			Top:    "━",
			Bottom: "━",
			Left:   "┃",
			Right:  "┃",
		}).
		BorderForeground(PrimaryColor).
		Padding(0, 1)
)

// StatusStyle returns the style for a device status word
func StatusStyle(awake, sleeping bool) lipgloss.Style {
	switch {
	case awake:
		return AwakeStyle
	case sleeping:
		return SleepingStyle
	default:
		return UnknownStyle
	}
}

// BuildHeaderContent creates header content with app name and device
func BuildHeaderContent(device string) string {
	left := lipgloss.NewStyle().
		Foreground(TextColor).
		Bold(true).
		Render(AppName + " v" + version.Version)

	right := lipgloss.NewStyle().
		Foreground(SubtleColor).
		Render(device)

	return lipgloss.JoinHorizontal(lipgloss.Top, left, "  ", right)
}

// RenderApplicationContainer wraps screen content with the header, the
// footer help line and an outer border filling the terminal.
func RenderApplicationContainer(device, content, footerText string, terminalWidth, terminalHeight int) string {
	if terminalWidth < MinTerminalWidth {
		terminalWidth = MinTerminalWidth
	}
	if terminalHeight < MinTerminalHeight {
		terminalHeight = MinTerminalHeight
	}

	headerStyle := lipgloss.NewStyle().
		BorderStyle(lipgloss.Border{Bottom: "─"}).
		BorderForeground(BorderColor).
		Width(terminalWidth-4).
		Padding(0, 1)

	footerStyle := lipgloss.NewStyle().
		BorderStyle(lipgloss.Border{Top: "─"}).
		BorderForeground(BorderColor).
		Foreground(SubtleColor).
		Width(terminalWidth-4).
		Padding(0, 1)

	contentStyle := lipgloss.NewStyle().
		Width(terminalWidth-4).
		Padding(1, 1)

	inner := lipgloss.JoinVertical(
		lipgloss.Left,
		headerStyle.Render(BuildHeaderContent(device)),
		contentStyle.Render(content),
		footerStyle.Render(footerText),
	)

	bordered := lipgloss.NewStyle().
		Border(lipgloss.NormalBorder()).
		BorderForeground(BorderColor).
		Width(terminalWidth - 2).
		AlignVertical(lipgloss.Top).
		Render(inner)

	return lipgloss.Place(terminalWidth, terminalHeight, lipgloss.Left, lipgloss.Top, bordered)
}
