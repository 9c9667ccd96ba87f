package itemlist

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/pillbox/internal/models"
)

type AddItemMsg struct{}

type TakeItemMsg struct {
	ID string
}

type DeleteItemMsg struct {
	ID string
}

type EditItemMsg struct {
	Supplement models.Supplement
}

type Item struct {
	Supplement models.Supplement
	Taken      bool
}

func (i Item) Title() string {
	if i.Taken {
		return "✓ " + i.Supplement.Name
	}
	return "○ " + i.Supplement.Name
}

func (i Item) Description() string {
	desc := fmt.Sprintf("%s | %s | ~%02d:00", i.Supplement.Dosage, i.Supplement.Category, i.Supplement.ReminderHour)
	if i.Taken {
		desc += " | taken today"
	}
	return desc
}

func (i Item) FilterValue() string { return i.Supplement.Name }

type KeyMap struct {
	Take   key.Binding
	Add    key.Binding
	Edit   key.Binding
	Delete key.Binding
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Take: key.NewBinding(
			key.WithKeys("enter", " ", "x"),
			key.WithHelp("x/space", "mark taken"),
		),
		Add: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "add"),
		),
		Edit: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "edit"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "delete"),
		),
	}
}

type Model struct {
	list list.Model
	keys KeyMap
}

func New(items []models.Supplement, today string, width, height int) Model {
	l := list.New(toListItems(items, today), list.NewDefaultDelegate(), width, height)
	l.Title = "Supplements"
	l.SetShowTitle(false)
	l.SetShowHelp(false) // help is rendered by the main model
	l.DisableQuitKeybindings()

	keys := DefaultKeyMap()
	l.AdditionalShortHelpKeys = func() []key.Binding {
		return []key.Binding{keys.Take, keys.Add, keys.Edit, keys.Delete}
	}
	l.AdditionalFullHelpKeys = l.AdditionalShortHelpKeys

	return Model{list: l, keys: keys}
}

func toListItems(items []models.Supplement, today string) []list.Item {
	out := make([]list.Item, len(items))
	for i, s := range items {
		out[i] = Item{Supplement: s, Taken: s.TakenOn(today)}
	}
	return out
}

// SetItems replaces the rows, keeping the cursor where it was when possible.
func (m *Model) SetItems(items []models.Supplement, today string) {
	idx := m.list.Index()
	m.list.SetItems(toListItems(items, today))
	if n := len(items); n > 0 {
		if idx >= n {
			idx = n - 1
		}
		m.list.Select(idx)
	}
}

// Selected returns the highlighted supplement.
func (m Model) Selected() (models.Supplement, bool) {
	i, ok := m.list.SelectedItem().(Item)
	return i.Supplement, ok
}

// Filtering reports whether the user is typing a filter.
func (m Model) Filtering() bool {
	return m.list.FilterState() == list.Filtering
}

func (m Model) Len() int {
	return len(m.list.Items())
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd

	if msg, ok := msg.(tea.KeyMsg); ok && m.list.FilterState() != list.Filtering {
		switch {
		case key.Matches(msg, m.keys.Add):
			return m, func() tea.Msg { return AddItemMsg{} }
		case key.Matches(msg, m.keys.Take):
			if s, ok := m.Selected(); ok {
				return m, func() tea.Msg { return TakeItemMsg{ID: s.ID} }
			}
			return m, nil
		case key.Matches(msg, m.keys.Edit):
			if s, ok := m.Selected(); ok {
				return m, func() tea.Msg { return EditItemMsg{Supplement: s} }
			}
			return m, nil
		case key.Matches(msg, m.keys.Delete):
			if s, ok := m.Selected(); ok {
				return m, func() tea.Msg { return DeleteItemMsg{ID: s.ID} }
			}
			return m, nil
		}
	}

	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if len(m.list.Items()) == 0 && m.list.FilterState() != list.Filtering {
		return "\n  No supplements yet.\n  Press 'a' to add one."
	}
	return m.list.View()
}

func (m *Model) SetSize(width, height int) {
	m.list.SetSize(width, height)
}
