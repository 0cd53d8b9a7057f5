package roster

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

func renderView(entries []Entry, opts RenderOptions, s styles) string {
	lines := []string{
		s.title.Render("Accounts"),
		s.header.Render(headerLine(len(entries), opts)),
	}

	if len(entries) == 0 {
		lines = append(lines, s.empty.Render("No accounts loaded. Put *.session files in the sessions directory and run `tgherd account reload`."))
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	}

	for _, entry := range entries {
		lines = append(lines, renderEntry(entry, s))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func headerLine(count int, opts RenderOptions) string {
	dispatch := "auto"
	if !opts.AutoDispatch {
		dispatch = "viewing-account"
	}
	line := fmt.Sprintf("accounts: %d  mode: %s  dispatch: %s", count, opts.Mode, dispatch)
	if opts.Cached {
		line += "  (cached roster, not reconnected)"
	}
	return line
}

func renderEntry(entry Entry, s styles) string {
	parts := []string{
		s.account.Render(entry.Profile.FriendlyDisplay()),
		s.handle.Render(fmt.Sprintf("(id %d)", entry.Profile.UserID)),
		s.session.Render(entry.Profile.Session),
	}

	if entry.Proxy != "" {
		parts = append(parts, s.proxy.Render("via "+entry.Proxy))
	} else {
		parts = append(parts, s.session.Render("direct"))
	}

	if entry.SendsNext {
		parts = append(parts, s.marker.Render("<- sends next"))
	}
	if entry.Viewing {
		parts = append(parts, s.viewing.Render("[viewing]"))
	}

	return strings.Join(parts, " ")
}
