package shared

import (
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/lipgloss"
	"github.com/treeshoptech/freedom-drains-pro/config"
)

var (
	// Headers
	TitleStyle       lipgloss.Style
	GroupHeaderStyle lipgloss.Style

	// Text
	FGStyle     lipgloss.Style
	DimStyle    lipgloss.Style
	MutedStyle  lipgloss.Style
	AccentStyle lipgloss.Style
	MoneyStyle  lipgloss.Style
	ErrorStyle  lipgloss.Style

	// Cursor highlight
	CursorStyle lipgloss.Style

	// Map canvas
	CrosshairStyle lipgloss.Style
	PendingStyle   lipgloss.Style
	CanvasBGStyle  lipgloss.Style

	// Side panels
	PanelStyle        lipgloss.Style
	PanelFocusedStyle lipgloss.Style

	// Status bar
	StatusBarStyle lipgloss.Style

	// Help styles
	HelpKeyStyle     lipgloss.Style
	HelpDescStyle    lipgloss.Style
	HelpOverlayStyle lipgloss.Style

	// Overlays (projects, search, details)
	OverlayStyle lipgloss.Style

	// Badges
	PromoBadge    lipgloss.Style
	StatusBadges  map[string]lipgloss.Style
	FallbackBadge lipgloss.Style

	// Spinner
	SpinnerStyle lipgloss.Style
	SpinnerKind  spinner.Spinner

	// Feedback
	FeedbackSuccessStyle lipgloss.Style
	FeedbackWarningStyle lipgloss.Style
	FeedbackErrorStyle   lipgloss.Style
)

// InitStyles configures all styles from a resolved theme.
func InitStyles(theme config.ThemeConfig) {
	TitleStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color(theme.FG))

	GroupHeaderStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color(theme.Dim)).
		Bold(true)

	FGStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color(theme.FG))

	DimStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color(theme.Dim))

	MutedStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color(theme.Muted))

	AccentStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color(theme.Accent))

	MoneyStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color(theme.Accent2)).
		Bold(true)

	ErrorStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color(theme.Error))

	CursorStyle = lipgloss.NewStyle().
		Background(lipgloss.Color(theme.CursorBG))

	CrosshairStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color(theme.Crosshair)).
		Bold(true)

	PendingStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color(theme.Accent)).
		Bold(true)

	CanvasBGStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color(theme.Muted))

	PanelStyle = lipgloss.NewStyle().
		Border(lipgloss.NormalBorder(), false, false, false, true).
		BorderForeground(lipgloss.Color(theme.Muted)).
		PaddingLeft(1)

	PanelFocusedStyle = lipgloss.NewStyle().
		Border(lipgloss.NormalBorder(), false, false, false, true).
		BorderForeground(lipgloss.Color(theme.Accent)).
		PaddingLeft(1)

	StatusBarStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color(theme.StatusBarFG)).
		Background(lipgloss.Color(theme.StatusBarBG)).
		Padding(0, 1)

	HelpKeyStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color(theme.Accent))

	HelpDescStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color(theme.Dim))

	HelpOverlayStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(theme.Muted)).
		Padding(1, 2)

	OverlayStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(theme.Accent)).
		Padding(1, 2)

	PromoBadge = lipgloss.NewStyle().
		Foreground(lipgloss.Color(theme.PromoFG)).
		Background(lipgloss.Color(theme.PromoBG)).
		Bold(true).
		Padding(0, 1)

	StatusBadges = map[string]lipgloss.Style{
		"draft":     badge(theme.Dim, theme.CursorBG),
		"quoted":    badge(theme.FeedbackWarningFG, theme.FeedbackWarningBG),
		"approved":  badge(theme.FeedbackSuccessFG, theme.FeedbackSuccessBG),
		"completed": badge(theme.Accent2, theme.StatusBarBG),
	}
	FallbackBadge = badge(theme.Dim, theme.StatusBarBG)

	SpinnerStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color(theme.SpinnerFG))
	SpinnerKind = spinnerFor(theme.SpinnerType)

	FeedbackSuccessStyle = badge(theme.FeedbackSuccessFG, theme.FeedbackSuccessBG)
	FeedbackWarningStyle = badge(theme.FeedbackWarningFG, theme.FeedbackWarningBG)
	FeedbackErrorStyle = badge(theme.FeedbackErrorFG, theme.FeedbackErrorBG)
}

func badge(fg, bg string) lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color(fg)).
		Background(lipgloss.Color(bg)).
		Padding(0, 1)
}

// StatusBadge renders a project status as a colored badge.
func StatusBadge(status string) string {
	if s, ok := StatusBadges[status]; ok {
		return s.Render(status)
	}
	return FallbackBadge.Render(status)
}

// ColorStyle is a foreground style for a palette color.
func ColorStyle(hex string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(hex))
}

func spinnerFor(name string) spinner.Spinner {
	switch name {
	case "dot":
		return spinner.Dot
	case "line":
		return spinner.Line
	case "points":
		return spinner.Points
	case "pulse":
		return spinner.Pulse
	default:
		return spinner.MiniDot
	}
}
