package projectlist

import (
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/treeshoptech/freedom-drains-pro/store"
)

var now = time.Date(2026, time.May, 4, 15, 0, 0, 0, time.UTC)

func runes(s string) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)} }

func newList() Model {
	m := New(func() time.Time { return now })
	m.SetSize(80, 30)
	m.SetProjects([]store.Summary{
		{ID: "a", Name: "Riverside", Address: "1 River Rd", Status: store.StatusDraft, TotalCost: 12345, UpdatedAt: now.Add(-time.Hour)},
		{ID: "b", Name: "Lot 7", Address: "7 Canal St", Status: store.StatusCompleted, UpdatedAt: now.Add(-48 * time.Hour)},
	}, nil)
	return m
}

func TestBrowseActions(t *testing.T) {
	m := newList()

	res := m.HandleKey(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, KeyResult{Action: ActionOpen, ID: "a"}, res)

	res = m.HandleKey(runes("s"))
	assert.Equal(t, ActionCycleStatus, res.Action)
	assert.Equal(t, store.StatusQuoted, res.Status)

	m.HandleKey(runes("j"))
	res = m.HandleKey(runes("s"))
	assert.Equal(t, "b", res.ID)
	assert.Equal(t, store.StatusDraft, res.Status, "completed wraps to draft")

	m.HandleKey(runes("j"))
	p, ok := m.Selected()
	require.True(t, ok)
	assert.Equal(t, "b", p.ID, "cursor stops at the end")

	assert.Equal(t, ActionClose, m.HandleKey(tea.KeyMsg{Type: tea.KeyEsc}).Action)
}

func TestDeleteNeedsConfirmation(t *testing.T) {
	m := newList()
	assert.Equal(t, ActionNone, m.HandleKey(runes("x")).Action)
	assert.Equal(t, ModeConfirmDelete, m.Mode())
	assert.Equal(t, ActionNone, m.HandleKey(runes("n")).Action)
	assert.Equal(t, ModeBrowse, m.Mode())

	m.HandleKey(runes("x"))
	assert.Equal(t, KeyResult{Action: ActionDelete, ID: "a"}, m.HandleKey(runes("y")))
}

func TestCreateRequiresNameAndAddress(t *testing.T) {
	m := newList()
	m.HandleKey(runes("n"))
	require.True(t, m.InInputMode())

	m, _ = m.Update(runes("Lot 9"))
	res := m.HandleKey(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, ActionNone, res.Action)
	assert.Contains(t, m.View(), "name and address are required")

	m, _ = m.Update(runes("9 Canal St"))
	res = m.HandleKey(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, KeyResult{Action: ActionCreate, Name: "Lot 9", Address: "9 Canal St"}, res)
	assert.False(t, m.InInputMode())
}

func TestReplaceAndErrors(t *testing.T) {
	m := newList()
	m.Replace(store.Project{ID: "b", Status: store.StatusApproved, UpdatedAt: now})
	assert.Equal(t, store.StatusApproved, m.Projects()[1].Status)

	view := m.View()
	assert.Contains(t, view, "Riverside")
	assert.Contains(t, view, "$12,345")
	assert.Contains(t, view, "1 hour ago")

	m.SetLoading()
	assert.Contains(t, m.View(), "Loading projects")
	m.SetProjects(nil, errors.New("database is locked"))
	assert.Contains(t, m.View(), "database is locked")
	assert.Len(t, m.Projects(), 2, "a failed listing keeps the last rows")
}

func TestEmptyList(t *testing.T) {
	m := New(nil)
	m.SetSize(80, 30)
	m.SetProjects(nil, nil)
	assert.Contains(t, m.View(), "No saved projects")
	assert.Equal(t, ActionNone, m.HandleKey(tea.KeyMsg{Type: tea.KeyEnter}).Action)
}
