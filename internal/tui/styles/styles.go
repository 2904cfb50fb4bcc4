package styles

import (
	"github.com/charmbracelet/lipgloss"
)

var (
	PrimaryColor   = lipgloss.Color("#D12182")
	SecondaryColor = lipgloss.Color("#874BFD")
	MutedColor     = lipgloss.Color("#4A4A4A")
	LimeColor      = lipgloss.Color("#00FF77")

	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(PrimaryColor)

	SubtitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#999999"))

	ContainerStyle = lipgloss.NewStyle().
			Padding(2).
			Margin(2, 0, 2, 2)

	SelectedItemStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(PrimaryColor)

	MessageStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			PaddingLeft(2)

	OwnMessageStyle = lipgloss.NewStyle().
			Foreground(LimeColor).
			PaddingLeft(2)

	SenderStyle = lipgloss.NewStyle().
			Foreground(PrimaryColor).
			Bold(true)

	TimestampStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#71717a")).
			Italic(true)

	InputStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#999999")).
			MarginTop(1)

	CommandStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#999999")).
			MarginTop(1)

	NavStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF8800"))

	BadgeStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(PrimaryColor).
			Padding(0, 1)

	StatusInfoStyle = lipgloss.NewStyle().
			Foreground(SecondaryColor)

	StatusErrorStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("9"))

	StatusSuccessStyle = lipgloss.NewStyle().
				Foreground(LimeColor)

	ListItemTitleStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#FFFFFF"))

	ListItemTitleSelectedStyle = lipgloss.NewStyle().
					Bold(true).
					Foreground(PrimaryColor)

	ListItemMetaStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#71717a"))

	KeyStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(SecondaryColor)

	HelpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262"))
)

// RenderKeyBinding renders a "[key] action" help fragment.
func RenderKeyBinding(key, action string) string {
	return KeyStyle.Render("["+key+"]") + " " + HelpStyle.Render(action)
}
