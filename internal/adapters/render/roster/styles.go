package roster

import "github.com/charmbracelet/lipgloss"

type styles struct {
	title   lipgloss.Style
	header  lipgloss.Style
	account lipgloss.Style
	handle  lipgloss.Style
	session lipgloss.Style
	proxy   lipgloss.Style
	marker  lipgloss.Style
	viewing lipgloss.Style
	warning lipgloss.Style
	empty   lipgloss.Style
}

func newStyles() styles {
	return styles{
		title:   lipgloss.NewStyle().Bold(true),
		header:  lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		account: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		handle:  lipgloss.NewStyle().Foreground(lipgloss.Color("250")),
		session: lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		proxy:   lipgloss.NewStyle().Foreground(lipgloss.Color("108")),
		marker:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("114")),
		viewing: lipgloss.NewStyle().Foreground(lipgloss.Color("179")),
		warning: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("203")),
		empty:   lipgloss.NewStyle().Faint(true),
	}
}
