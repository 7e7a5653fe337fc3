package cmd

import (
	"fmt"
	"strings"

	"github.com/rivo/tview"

	"github.com/ponyo877/vivachat/client/domain"
)

const timeLayout = "15:04:05"

// formatMessage renders one message as a single line. With color the line
// carries tview color tags and user text is escaped.
func formatMessage(m domain.Message, color bool) string {
	esc := func(s string) string { return s }
	if color {
		esc = tview.Escape
	}

	var b strings.Builder
	ts := "--:--:--"
	if !m.SentAt.IsZero() {
		ts = m.SentAt.Local().Format(timeLayout)
	}
	sender := m.SenderNickname
	if sender == "" {
		sender = "unknown"
	}
	if color {
		fmt.Fprintf(&b, "[white][%s] [blue]%s[white]: ", ts, esc(sender))
	} else {
		fmt.Fprintf(&b, "[%s] %s: ", ts, sender)
	}

	if m.IsDeleted {
		if color {
			b.WriteString("[gray::i]message deleted[-:-:-]")
		} else {
			b.WriteString("message deleted")
		}
		return b.String()
	}

	b.WriteString(esc(m.Content))
	if m.IsEdited {
		b.WriteString(" (edited)")
	}
	if m.Type == domain.MessageTypeFile {
		if len(m.Attachments) == 0 {
			b.WriteString(esc(" [loading attachment]"))
		}
		for _, a := range m.Attachments {
			fmt.Fprintf(&b, "\n    %s (%s)", esc(a.DisplayName()), humanSize(a.FileSize))
		}
	}
	return b.String()
}

func humanSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGT"[exp])
}

func formatRoom(r domain.Room) string {
	state := "open"
	switch {
	case !r.IsActive:
		state = "closed"
	case r.IsFull:
		state = "full"
	}
	return fmt.Sprintf("%-6d %-8s %-10s %3d/%-3d %-6s %s",
		r.ID, r.Code, r.Type, r.CurrentUsers, r.MaxUsers, state, r.Name)
}
