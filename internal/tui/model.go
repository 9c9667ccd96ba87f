package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/julianstephens/pillbox/internal/models"
	"github.com/julianstephens/pillbox/internal/reminder"
	"github.com/julianstephens/pillbox/internal/stats"
	"github.com/julianstephens/pillbox/internal/tracker"
	"github.com/julianstephens/pillbox/internal/tui/components/itemlist"
)

type SessionState int

const (
	StateToday SessionState = iota
	StateStats
	StateEditing
	StateReminder
	StateConfirmDelete
)

// tabCount is the number of tabbed views; the remaining states are overlays.
const tabCount = 2

// ChangedMsg is sent when the tracker state changed outside the TUI, e.g.
// after the midnight reload.
type ChangedMsg struct {
	Snapshot tracker.Snapshot
}

// FiredMsg carries the result of a reminder timer fire.
type FiredMsg struct {
	Result reminder.FireResult
}

type ItemFormModel struct {
	Name     string
	Dosage   string
	Category models.Category
	Hour     string
}

type ReminderFormModel struct {
	Enabled bool
	Time    string
}

type Model struct {
	tracker      *tracker.Tracker
	scheduler    *reminder.Scheduler
	state        SessionState
	tab          SessionState
	keys         KeyMap
	help         help.Model
	itemList     itemlist.Model
	summary      stats.Summary
	settings     models.ReminderSettings
	form         *huh.Form
	itemForm     *ItemFormModel
	reminderForm *ReminderFormModel
	editingID    string
	deleteID     string
	toast        string
	errMsg       string
	blocked      bool
	quitting     bool
	width        int
	height       int
}

// NewModel builds the TUI over tr. sched may be nil when no reminder
// scheduler is running.
func NewModel(tr *tracker.Tracker, sched *reminder.Scheduler) Model {
	m := Model{
		tracker:   tr,
		scheduler: sched,
		state:     StateToday,
		tab:       StateToday,
		keys:      DefaultKeyMap(),
		help:      help.New(),
		itemList:  itemlist.New(nil, tr.Today(), 80, 12),
	}
	m.refresh()
	return m
}

// refresh re-reads everything the views render from the tracker.
func (m *Model) refresh() {
	items := m.tracker.Items()
	m.summary = stats.Summarize(items, m.tracker.Now())
	m.settings = m.tracker.Settings()
	m.itemList.SetItems(items, m.tracker.Today())

	if err := m.tracker.Err(); err != nil {
		m.errMsg = "Not saved: " + err.Error()
	} else {
		m.errMsg = ""
	}
	if m.scheduler != nil {
		m.blocked = m.scheduler.Blocked(context.Background())
	}
}

func (m Model) ShortHelp() []key.Binding {
	keys := []key.Binding{m.keys.Tab, m.keys.Quit, m.keys.Help}
	if m.state == StateToday {
		keys = append(keys, m.keys.Take, m.keys.Add, m.keys.Edit, m.keys.Delete)
	}
	return append(keys, m.keys.Reminder, m.keys.Toggle)
}

func (m Model) FullHelp() [][]key.Binding {
	return m.keys.FullHelp()
}

func (m Model) Init() tea.Cmd {
	return nil
}
