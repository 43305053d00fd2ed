package courses

import "github.com/charmbracelet/lipgloss"

type styles struct {
	title       lipgloss.Style
	header      lipgloss.Style
	course      lipgloss.Style
	courseShort lipgloss.Style
	meeting     lipgloss.Style
	meetingURL  lipgloss.Style
	warning     lipgloss.Style
	section     lipgloss.Style
	empty       lipgloss.Style
}

func newStyles() styles {
	return styles{
		title:       lipgloss.NewStyle().Bold(true),
		header:      lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		course:      lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		courseShort: lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		meeting:     lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		meetingURL:  lipgloss.NewStyle().Faint(true),
		warning:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("203")),
		section:     lipgloss.NewStyle().MarginTop(1),
		empty:       lipgloss.NewStyle().Faint(true),
	}
}
