package engine

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"odyssai/internal/narrative"
)

func TestRenderSectionsSkipsEmptyBodies(t *testing.T) {
	text := renderSections([]section{
		{title: "WORLD", body: "Name: terra novia"},
		{title: "CHARACTER", body: "   "},
		{title: "RECENT EVENTS", body: "- the gate opened"},
	}, 1000)

	assert.Contains(t, text, "## WORLD\nName: terra novia")
	assert.Contains(t, text, "## RECENT EVENTS\n- the gate opened")
	assert.NotContains(t, text, "## CHARACTER")
}

func TestRenderSectionsStaysWithinBudget(t *testing.T) {
	long := strings.Repeat("lore ", 2000)
	text := renderSections([]section{
		{title: "WORLD", body: "Name: terra novia"},
		{title: "ESTABLISHED LORE", body: long},
		{title: "RECENT EVENTS", body: long},
	}, 3000)

	assert.LessOrEqual(t, len(text), 3000)
	// The trim never erases a section, only shortens it.
	assert.Contains(t, text, "## WORLD")
	assert.Contains(t, text, "## ESTABLISHED LORE")
	assert.Contains(t, text, "## RECENT EVENTS")
}

func TestRenderSectionsEmptyInputIsEmpty(t *testing.T) {
	assert.Empty(t, renderSections(nil, 1000))
	assert.Empty(t, renderSections([]section{{title: "WORLD", body: ""}}, 1000))
}

func TestFragmentBlockDropsOldestFirst(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	fragments := []narrative.Fragment{
		{Content: strings.Repeat("a", 60), CreatedAt: base},
		{Content: strings.Repeat("b", 60), CreatedAt: base.Add(time.Minute)},
		{Content: strings.Repeat("c", 60), CreatedAt: base.Add(2 * time.Minute)},
	}

	text := fragmentBlock(fragments, 140)
	assert.NotContains(t, text, "aaa")
	assert.Contains(t, text, "bbb")
	assert.Contains(t, text, "ccc")
	assert.LessOrEqual(t, len(text), 140)
}

func TestFragmentBlockKeepsEverythingUnderBudget(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	fragments := []narrative.Fragment{
		{Content: "the moon shattered", CreatedAt: base},
		{Content: "the tide turned black", CreatedAt: base.Add(time.Minute)},
	}

	text := fragmentBlock(fragments, 1000)
	assert.Equal(t, "- the moon shattered\n- the tide turned black", text)
}

func TestChronologicalOrdersOldestFirst(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	fragments := []narrative.Fragment{
		{Content: "third", CreatedAt: base.Add(2 * time.Minute)},
		{Content: "first", CreatedAt: base},
		{Content: "second", CreatedAt: base.Add(time.Minute)},
	}

	ordered := chronological(fragments)
	assert.Equal(t, "first", ordered[0].Content)
	assert.Equal(t, "second", ordered[1].Content)
	assert.Equal(t, "third", ordered[2].Content)
	// Input order is untouched.
	assert.Equal(t, "third", fragments[0].Content)
}
