package engine

import (
	"context"
	"sort"
	"strings"

	"odyssai/internal/narrative"
)

// Minimum characters preserved per section before global truncation.
const minSectionChars = 200

// section is one "## TITLE" block of grounding context.
type section struct {
	title string
	body  string
}

// renderSections joins sections into the grounding context handed to
// the generator, enforcing the character budget. Overflow is absorbed
// by trimming section bodies down to a floor; if that is not enough the
// whole text is cut at the budget.
func renderSections(sections []section, budget int) string {
	var parts []string
	total := 0
	for _, sec := range sections {
		if strings.TrimSpace(sec.body) == "" {
			continue
		}
		block := "## " + sec.title + "\n" + strings.TrimSpace(sec.body)
		parts = append(parts, block)
		total += len(block)
	}
	if len(parts) == 0 {
		return ""
	}
	text := strings.Join(parts, "\n\n")
	if total <= budget {
		return text
	}

	overflow := len(text) - budget
	for i := range parts {
		if overflow <= 0 {
			break
		}
		reducible := len(parts[i]) - minSectionChars
		if reducible <= 0 {
			continue
		}
		cut := reducible
		if cut > overflow {
			cut = overflow
		}
		parts[i] = parts[i][:len(parts[i])-cut]
		overflow -= cut
	}
	text = strings.Join(parts, "\n\n")
	if len(text) > budget {
		text = text[:budget]
	}
	return text
}

// fragmentBlock renders retrieved fragments as one section body within
// a budget. When over budget, the oldest fragments are dropped first so
// recent lore keeps its influence.
func fragmentBlock(fragments []narrative.Fragment, budget int) string {
	if len(fragments) == 0 {
		return ""
	}
	kept := make([]narrative.Fragment, len(fragments))
	copy(kept, fragments)

	for size(kept) > budget && len(kept) > 1 {
		oldest := 0
		for i, f := range kept {
			if f.CreatedAt.Before(kept[oldest].CreatedAt) {
				oldest = i
			}
		}
		kept = append(kept[:oldest], kept[oldest+1:]...)
	}

	lines := make([]string, 0, len(kept))
	for _, f := range kept {
		lines = append(lines, "- "+strings.TrimSpace(f.Content))
	}
	text := strings.Join(lines, "\n")
	if len(text) > budget {
		text = text[:budget]
	}
	return text
}

func size(fragments []narrative.Fragment) int {
	total := 0
	for _, f := range fragments {
		total += len(f.Content) + 3
	}
	return total
}

// chronological orders fragments oldest first for event recaps.
func chronological(fragments []narrative.Fragment) []narrative.Fragment {
	out := make([]narrative.Fragment, len(fragments))
	copy(out, fragments)
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// groundingContext retrieves the top-K fragments relevant to the query
// text plus the most recent events, and renders them with the world
// overview inside the context budget. Retrieval failures propagate as
// MemoryUnavailableError: generation without grounding is never silent.
func (e *Engine) groundingContext(ctx context.Context, s *State, queryText string) (string, error) {
	characterID := ""
	if s.Character != nil {
		characterID = s.Character.ID
	}

	relevant, err := e.lore.Query(ctx, narrative.FragmentQuery{
		WorldID:     s.World.ID,
		CharacterID: characterID,
		Text:        queryText,
		K:           e.opts.RetrievalK,
	})
	if err != nil {
		return "", err
	}
	recent, err := e.lore.Recent(ctx, s.World.ID, characterID, e.opts.RetrievalK/2+1)
	if err != nil {
		return "", err
	}

	sections := []section{
		{title: "WORLD", body: worldLine(s.World)},
	}
	if s.Character != nil {
		sections = append(sections, section{title: "CHARACTER", body: characterLine(s.Character)})
	}
	perSection := e.opts.ContextBudget / 2
	sections = append(sections,
		section{title: "ESTABLISHED LORE", body: fragmentBlock(relevant, perSection)},
		section{title: "RECENT EVENTS", body: fragmentBlock(chronological(recent), perSection)},
	)
	return renderSections(sections, e.opts.ContextBudget), nil
}

func worldLine(w *narrative.World) string {
	var b strings.Builder
	b.WriteString("Name: " + w.Name)
	if w.Genre != "" {
		b.WriteString("\nGenre: " + w.Genre)
	}
	if w.Directives != "" {
		b.WriteString("\nDirectives: " + w.Directives)
	}
	if w.Synopsis != "" {
		b.WriteString("\nSynopsis: " + w.Synopsis)
	}
	return b.String()
}

func characterLine(c *narrative.Character) string {
	var b strings.Builder
	b.WriteString("Name: " + c.Name)
	if c.Gender != "" {
		b.WriteString("\nGender: " + c.Gender)
	}
	if c.Description != "" {
		b.WriteString("\nDescription: " + c.Description)
	}
	if c.Biography != "" {
		b.WriteString("\nBiography: " + c.Biography)
	}
	return b.String()
}
