// Package costpanel shows the live estimate and save state.
package costpanel

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/treeshoptech/freedom-drains-pro/pricing"
	"github.com/treeshoptech/freedom-drains-pro/project"
	"github.com/treeshoptech/freedom-drains-pro/tui/shared"
)

type Model struct {
	quote   pricing.Summary
	details project.Details
	saved   bool
	status  project.SaveStatus
	now     func() time.Time
	width   int
	height  int
}

func New(now func() time.Time) Model {
	if now == nil {
		now = time.Now
	}
	return Model{now: now}
}

func (m *Model) SetSize(w, h int) {
	m.width = w
	m.height = h
}

func (m *Model) SetQuote(q pricing.Summary) { m.quote = q }

// SetProject updates the header. saved is false for a never-saved project.
func (m *Model) SetProject(d project.Details, saved bool) {
	m.details = d
	m.saved = saved
}

func (m *Model) SetStatus(s project.SaveStatus) { m.status = s }

func (m Model) Quote() pricing.Summary { return m.quote }

func (m Model) View() string {
	var b strings.Builder

	name := m.details.Name
	if strings.TrimSpace(name) == "" {
		name = "Untitled project"
	}
	b.WriteString(shared.TitleStyle.Render(name))
	b.WriteString("\n")
	if m.details.Address != "" {
		b.WriteString(shared.DimStyle.Render(m.details.Address))
		b.WriteString("\n")
	}
	if m.details.Status != "" {
		b.WriteString(shared.StatusBadge(string(m.details.Status)))
		b.WriteString("\n")
	}
	b.WriteString(m.saveLine())
	b.WriteString("\n\n")

	b.WriteString(shared.GroupHeaderStyle.Render("Estimate"))
	b.WriteString("\n")
	if !m.quote.HasItems() {
		b.WriteString(shared.DimStyle.Render("Draw runs or place boxes to see pricing"))
		b.WriteString("\n")
	}
	for _, l := range m.quote.Lines() {
		if l.Quantity <= 0 {
			continue
		}
		b.WriteString(shared.FGStyle.Render(l.Name))
		b.WriteString("\n")
		b.WriteString("  " + shared.DimStyle.Render(l.Detail()) + "  " + shared.MoneyStyle.Render(pricing.FormatMoney(l.Cost)))
		b.WriteString("\n")
	}

	b.WriteString(shared.MutedStyle.Render(strings.Repeat("─", max(m.width-2, 10))))
	b.WriteString("\n")
	if m.quote.IsPromo {
		b.WriteString(shared.PromoBadge.Render("PROMO"))
		if !m.quote.PromoEnds.IsZero() {
			b.WriteString(" " + shared.DimStyle.Render("ends "+m.quote.PromoEnds.Format("Jan 2, 2006")))
		}
		b.WriteString("\n")
		b.WriteString(shared.DimStyle.Render("Regular " + pricing.FormatMoney(m.quote.RegularTotal)))
		b.WriteString("\n")
		if m.quote.Savings > 0 {
			b.WriteString(shared.AccentStyle.Render("You save " + pricing.FormatMoney(m.quote.Savings)))
			b.WriteString("\n")
		}
	}
	b.WriteString(shared.TitleStyle.Render("Total ") + shared.MoneyStyle.Render(pricing.FormatMoney(m.quote.Total)))
	return b.String()
}

func (m Model) saveLine() string {
	st := m.status
	switch {
	case st.State == project.Saving:
		return shared.DimStyle.Render("Saving…")
	case st.State == project.Failed:
		msg := "Save failed"
		if st.Err != nil {
			msg = fmt.Sprintf("Save failed: %v", st.Err)
		}
		return shared.ErrorStyle.Render(msg)
	case !m.saved:
		return shared.DimStyle.Render("Not saved yet")
	case st.Dirty:
		return shared.AccentStyle.Render("● Unsaved changes")
	case !st.LastSaved.IsZero():
		return shared.DimStyle.Render("Saved " + humanize.RelTime(st.LastSaved, m.now(), "ago", "from now"))
	default:
		return shared.DimStyle.Render("Saved")
	}
}
