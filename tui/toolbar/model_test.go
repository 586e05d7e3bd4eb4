package toolbar

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/treeshoptech/freedom-drains-pro/design"
	"github.com/treeshoptech/freedom-drains-pro/render"
	"github.com/treeshoptech/freedom-drains-pro/session"
)

func TestDigitShortcuts(t *testing.T) {
	m := New(render.DefaultPalette())

	tool, ok := m.ToolForKey("0")
	require.True(t, ok)
	assert.Equal(t, session.Select, tool)

	tool, ok = m.ToolForKey("1")
	require.True(t, ok)
	assert.Equal(t, session.ToolFor(design.HydrobloxRun), tool)

	tool, ok = m.ToolForKey("4")
	require.True(t, ok)
	assert.Equal(t, session.ToolFor(design.StormwaterBox), tool)

	_, ok = m.ToolForKey("x")
	assert.False(t, ok)

	k, ok := m.Shortcut(session.ToolFor(design.ParallelRow))
	require.True(t, ok)
	assert.Equal(t, "2", k)
	_, ok = m.Shortcut(session.ToolFor(design.Downspout))
	assert.False(t, ok, "only the first ten tools get digits")
}

func TestCycleWraps(t *testing.T) {
	m := New(render.DefaultPalette())
	assert.Equal(t, session.ToolFor(design.HydrobloxRun), m.Cycle(1))
	assert.Equal(t, session.ToolFor(design.Downspout), m.Cycle(-1))

	m.SetActive(session.ToolFor(design.Downspout))
	assert.Equal(t, session.Select, m.Cycle(1))
}

func TestViewGroupsTools(t *testing.T) {
	m := New(render.DefaultPalette())
	m.SetActive(session.ToolFor(design.TransitionBox))
	view := m.View()

	for _, want := range []string{"Tools", "HydroBlox", "Water Flow", "Existing Features", "Transition Box", "▸"} {
		assert.Contains(t, view, want)
	}
	assert.Less(t, strings.Index(view, "HydroBlox Run"), strings.Index(view, "Flow Arrow"))
	assert.Less(t, strings.Index(view, "Flow Arrow"), strings.Index(view, "Downspout"))
}
