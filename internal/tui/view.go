package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/pillbox/internal/constants"
	"github.com/julianstephens/pillbox/internal/reminder"
	"github.com/julianstephens/pillbox/internal/utils"
)

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var content string
	switch m.state {
	case StateToday:
		content = m.viewToday()
	case StateStats:
		content = m.viewStats()
	case StateEditing, StateReminder:
		content = docStyle.Render(m.form.View())
	case StateConfirmDelete:
		content = m.viewConfirmDelete()
	}

	return lipgloss.JoinVertical(
		lipgloss.Left,
		m.viewTabs(),
		content,
		m.viewStatus(),
		m.help.View(m),
	)
}

func (m Model) viewTabs() string {
	var tabs []string
	for i, title := range []string{"Today", "Stats"} {
		if m.tab == SessionState(i) {
			tabs = append(tabs, activeTabStyle.Render(title))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(title))
		}
	}
	tabs = append(tabs, mutedStyle.Render("  "+utils.FriendlyLabel(m.tracker.Now())))
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func card(label, value string) string {
	return cardStyle.Render(lipgloss.JoinVertical(lipgloss.Center, cardValueStyle.Render(value), mutedStyle.Render(label)))
}

func (m Model) viewCards() string {
	s := m.summary
	return lipgloss.JoinHorizontal(lipgloss.Top,
		card("taken today", fmt.Sprintf("%d/%d", s.CompletedToday, s.Total)),
		card("completion", fmt.Sprintf("%d%%", s.CompletionRate)),
		card("day streak", fmt.Sprintf("%d", s.Streak)),
	)
}

func (m Model) viewToday() string {
	return docStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
		m.viewCards(),
		"",
		m.itemList.View(),
	))
}

func (m Model) viewWeek() string {
	var labels, dots []string
	for _, d := range m.summary.WeeklyHistory {
		labels = append(labels, dayLabelStyle.Render(d.Label))
		if d.Completed {
			dots = append(dots, dayLabelStyle.Render(dayDoneStyle.Render("●")))
		} else {
			dots = append(dots, dayLabelStyle.Render(dayMissedStyle.Render("○")))
		}
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.JoinHorizontal(lipgloss.Top, labels...),
		lipgloss.JoinHorizontal(lipgloss.Top, dots...),
	)
}

func (m Model) viewStats() string {
	s := m.summary
	var b strings.Builder
	for _, st := range s.Items {
		fmt.Fprintf(&b, "  %-28s %3d days logged\n", st.Supplement.Name, len(st.Supplement.History))
	}
	return docStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
		m.viewCards(),
		"",
		headerDateStyle.Render("Last 7 days"),
		m.viewWeek(),
		fmt.Sprintf("%d/7 complete days", s.WeeklyScore),
		"",
		b.String(),
		successStyle.Render(s.Insight),
	))
}

func (m Model) viewReminder() string {
	if !m.settings.Enabled {
		return mutedStyle.Render("Reminder: off")
	}
	line := "Reminder: daily at " + m.settings.Time
	if m.scheduler != nil {
		if at, ok := m.scheduler.Target(); ok {
			line += " · armed for " + at.Format(constants.TimeFormat)
		} else {
			line += " · not armed today"
		}
	}
	return mutedStyle.Render(line)
}

func (m Model) viewStatus() string {
	lines := []string{m.viewReminder()}
	if m.blocked && m.settings.Enabled {
		lines = append(lines, warningStyle.Render(reminder.BlockedNotice))
	}
	if m.errMsg != "" {
		lines = append(lines, dangerStyle.Render(m.errMsg))
	}
	if m.toast != "" {
		lines = append(lines, successStyle.Render(m.toast))
	}
	return lipgloss.NewStyle().Padding(0, 2).Render(strings.Join(lines, "\n"))
}

func (m Model) viewConfirmDelete() string {
	name := m.deleteID
	if s, ok := m.tracker.Find(m.deleteID); ok {
		name = s.Name
	}
	return lipgloss.Place(m.width, max(m.height-6, 5),
		lipgloss.Center, lipgloss.Center,
		lipgloss.JoinVertical(lipgloss.Center,
			dangerStyle.Render(fmt.Sprintf("Delete %q and its history?", name)),
			"",
			"[y] Yes",
			"[n] No",
		),
	)
}
