package cmd

import (
	"fmt"
	"strings"

	"github.com/okhotin/tgherd/internal/domain"
)

// formatMessage renders one message as a single terminal line.
func formatMessage(m domain.Message) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%d] %s", m.ID, m.Date.Format("2006-01-02 15:04"))
	if m.Sender != "" {
		fmt.Fprintf(&b, " %s:", m.Sender)
	} else if m.SenderID != 0 {
		fmt.Fprintf(&b, " id%d:", m.SenderID)
	}
	if m.Text != "" {
		fmt.Fprintf(&b, " %s", m.Text)
	}
	if m.Media != nil {
		fmt.Fprintf(&b, " <%s", m.Media.Kind)
		if m.Media.FileName != "" {
			fmt.Fprintf(&b, " %s", m.Media.FileName)
		}
		b.WriteString(">")
	}
	if len(m.Reactions) > 0 {
		parts := make([]string, 0, len(m.Reactions))
		for _, r := range m.Reactions {
			parts = append(parts, fmt.Sprintf("%s %d", r.Emoji, r.Count))
		}
		fmt.Fprintf(&b, " {%s}", strings.Join(parts, ", "))
	}
	return b.String()
}
