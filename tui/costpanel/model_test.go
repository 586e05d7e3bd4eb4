package costpanel

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/treeshoptech/freedom-drains-pro/pricing"
	"github.com/treeshoptech/freedom-drains-pro/project"
	"github.com/treeshoptech/freedom-drains-pro/store"
)

var now = time.Date(2026, time.May, 4, 15, 0, 0, 0, time.UTC)

func newPanel() Model {
	m := New(func() time.Time { return now })
	m.SetSize(32, 30)
	return m
}

func TestEmptyEstimate(t *testing.T) {
	m := newPanel()
	view := m.View()
	assert.Contains(t, view, "Untitled project")
	assert.Contains(t, view, "Not saved yet")
	assert.Contains(t, view, "Draw runs or place boxes")
	assert.Contains(t, view, "Total $0")
}

func TestLineItemsAndPromo(t *testing.T) {
	m := newPanel()
	m.SetProject(project.Details{Name: "Lot 7", Address: "7 Canal St", Status: store.StatusQuoted}, true)
	m.SetStatus(project.SaveStatus{State: project.Saved, LastSaved: now.Add(-2 * time.Minute)})
	m.SetQuote(pricing.Summary{
		HydrobloxLF:     120,
		TransitionCount: 1,
		HydrobloxCost:   4800,
		TransitionCost:  300,
		Total:           5100,
		RegularTotal:    5800,
		Savings:         700,
		IsPromo:         true,
		PromoEnds:       time.Date(2026, time.September, 30, 0, 0, 0, 0, time.UTC),
		Rates:           pricing.Rates{HydrobloxPerLF: 40, TransitionBox: 300},
	})

	view := m.View()
	for _, want := range []string{"Lot 7", "7 Canal St", "quoted", "Saved 2 minutes ago",
		"120 LF × $40", "$4,800", "1 × $300", "PROMO", "ends Sep 30, 2026", "Regular $5,800", "You save $700", "$5,100"} {
		assert.Contains(t, view, want)
	}
	assert.NotContains(t, view, "Parallel Row", "zero rows are hidden")
}

func TestSaveStates(t *testing.T) {
	m := newPanel()
	m.SetProject(project.Details{Name: "Lot 7"}, true)

	m.SetStatus(project.SaveStatus{State: project.Saved, Dirty: true})
	assert.Contains(t, m.View(), "Unsaved changes")

	m.SetStatus(project.SaveStatus{State: project.Saving})
	assert.Contains(t, m.View(), "Saving")

	m.SetStatus(project.SaveStatus{State: project.Failed, Err: errors.New("disk full")})
	assert.Contains(t, m.View(), "Save failed: disk full")
}
