package tui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/julianstephens/pillbox/internal/reminder"
	"github.com/julianstephens/pillbox/internal/tui/components/itemlist"
)

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		// Header, cards, reminder line and help take roughly 14 rows.
		m.itemList.SetSize(msg.Width-4, max(msg.Height-14, 4))
		return m, nil

	case ChangedMsg:
		m.refresh()
		return m, nil

	case FiredMsg:
		m.toast = fireToast(msg.Result)
		m.refresh()
		if msg.Result.Outcome == reminder.OutcomeBlocked {
			m.blocked = true
		}
		return m, nil
	}

	switch m.state {
	case StateEditing:
		return m.updateItemForm(msg)
	case StateReminder:
		return m.updateReminderForm(msg)
	case StateConfirmDelete:
		return m.updateConfirmDelete(msg)
	}

	if _, ok := msg.(tea.KeyMsg); ok && m.state == StateToday && m.itemList.Filtering() {
		var cmd tea.Cmd
		m.itemList, cmd = m.itemList.Update(msg)
		return m, cmd
	}

	switch msg := msg.(type) {
	case itemlist.TakeItemMsg:
		m.toast = ""
		if err := m.tracker.TakeItem(context.Background(), msg.ID); err != nil {
			m.toast = err.Error()
		}
		m.refresh()
		return m, nil

	case itemlist.AddItemMsg:
		m.editingID = ""
		m.itemForm = newItemForm()
		m.form = NewItemForm(m.itemForm)
		m.state = StateEditing
		return m, m.form.Init()

	case itemlist.EditItemMsg:
		m.editingID = msg.Supplement.ID
		m.itemForm = itemFormFrom(msg.Supplement)
		m.form = NewItemForm(m.itemForm)
		m.state = StateEditing
		return m, m.form.Init()

	case itemlist.DeleteItemMsg:
		m.deleteID = msg.ID
		m.state = StateConfirmDelete
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
			return m, nil
		case key.Matches(msg, m.keys.Tab):
			m.tab = (m.tab + 1) % tabCount
			m.state = m.tab
			return m, nil
		case key.Matches(msg, m.keys.ShiftTab):
			m.tab = (m.tab - 1 + tabCount) % tabCount
			m.state = m.tab
			return m, nil
		case key.Matches(msg, m.keys.Toggle):
			m.tracker.SetReminderEnabled(context.Background(), !m.settings.Enabled)
			m.refresh()
			return m, nil
		case key.Matches(msg, m.keys.Reminder):
			m.reminderForm = &ReminderFormModel{Enabled: m.settings.Enabled, Time: m.settings.Time}
			m.form = NewReminderForm(m.reminderForm)
			m.state = StateReminder
			return m, m.form.Init()
		}
	}

	if m.state == StateToday {
		var cmd tea.Cmd
		m.itemList, cmd = m.itemList.Update(msg)
		return m, cmd
	}
	return m, nil
}

// updateForm feeds msg to the active form. Esc closes it without saving.
func (m *Model) updateForm(msg tea.Msg) (huh.FormState, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && msg.Type == tea.KeyEsc {
		return huh.StateAborted, nil
	}
	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}
	return m.form.State, cmd
}

func (m Model) updateItemForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	st, cmd := m.updateForm(msg)
	switch st {
	case huh.StateCompleted:
		ctx := context.Background()
		if m.editingID == "" {
			if s, err := m.tracker.AddItem(ctx, m.itemForm.draft()); err != nil {
				m.toast = err.Error()
			} else {
				m.toast = "Added " + s.Name
			}
		} else if err := m.tracker.UpdateItem(ctx, m.editingID, m.itemForm.patch()); err != nil {
			m.toast = err.Error()
		}
		m.closeForm()
		return m, nil
	case huh.StateAborted:
		m.closeForm()
		return m, nil
	}
	return m, cmd
}

func (m Model) updateReminderForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	st, cmd := m.updateForm(msg)
	switch st {
	case huh.StateCompleted:
		ctx := context.Background()
		if err := m.tracker.SetReminderTime(ctx, m.reminderForm.Time); err != nil {
			m.toast = err.Error()
		}
		m.tracker.SetReminderEnabled(ctx, m.reminderForm.Enabled)
		m.closeForm()
		return m, nil
	case huh.StateAborted:
		m.closeForm()
		return m, nil
	}
	return m, cmd
}

func (m *Model) closeForm() {
	m.form = nil
	m.itemForm = nil
	m.reminderForm = nil
	m.editingID = ""
	m.state = m.tab
	m.refresh()
}

func (m Model) updateConfirmDelete(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch {
	case key.Matches(keyMsg, m.keys.Confirm):
		if err := m.tracker.DeleteItem(context.Background(), m.deleteID); err != nil {
			m.toast = err.Error()
		}
	case key.Matches(keyMsg, m.keys.Cancel):
	default:
		return m, nil
	}
	m.deleteID = ""
	m.state = m.tab
	m.refresh()
	return m, nil
}

func fireToast(r reminder.FireResult) string {
	at := r.At.Format("15:04")
	switch r.Outcome {
	case reminder.OutcomeSent:
		return fmt.Sprintf("%s reminder sent, %d left for today", at, r.Pending)
	case reminder.OutcomeSuppressed:
		return fmt.Sprintf("%s everything taken, no reminder needed", at)
	case reminder.OutcomeBlocked:
		return fmt.Sprintf("%s reminder not sent, notifications are blocked", at)
	default:
		return fmt.Sprintf("%s reminder failed: %v", at, r.Err)
	}
}
