package notify

import (
	"fmt"
	"strings"

	"github.com/hapo/redmine-reminder/internal/format"
)

// Message is a rendered reminder, independent of the chat dialect.
type Message struct {
	Project  string
	Content  string // Redmine markdown
	Issue    string // "#id: subject", empty when not linked or not resolvable
	IssueURL string
	Time     string // dd/mm/yyyy HH:MM in the creator's timezone
	Repeat   string // recurrence label, empty for one-off reminders
	Days     string // custom weekdays, empty unless custom
}

func (m *Message) Title() string {
	return "Reminder from project " + m.Project
}

// GoogleChat renders the message in Google Chat markup.
func (m *Message) GoogleChat() string {
	parts := []string{m.Title(), "", format.GoogleChat(m.Content)}
	if m.Issue != "" {
		parts = append(parts, "", "Issue: "+format.Link(m.IssueURL, m.Issue))
	}
	return strings.Join(append(parts, m.footer()...), "\n")
}

// Markdown renders the message in Redmine markdown, used for the Telegram mirror.
func (m *Message) Markdown() string {
	parts := []string{"**" + m.Title() + "**", "", strings.TrimSpace(m.Content)}
	if m.Issue != "" {
		parts = append(parts, "", fmt.Sprintf("Issue: [%s](%s)", m.Issue, m.IssueURL))
	}
	return strings.Join(append(parts, m.footer()...), "\n")
}

func (m *Message) footer() []string {
	lines := []string{"", "Time: " + m.Time}
	if m.Repeat != "" {
		lines = append(lines, "Repeat: "+m.Repeat)
	}
	if m.Days != "" {
		lines = append(lines, "Days: "+m.Days)
	}
	return lines
}
