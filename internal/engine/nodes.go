package engine

import (
	"context"

	"odyssai/internal/narrative"
)

// initNode resolves the world and character references for the request
// and enforces the existence rules of the entry transitions: creation
// shapes require a free name, every other shape requires the referenced
// records to exist.
func (e *Engine) initNode(ctx context.Context, s *State) error {
	in := s.In

	switch {
	case in.WorldGenre != "":
		// New-world setup: the supplied name must not be registered yet,
		// compared case-insensitively.
		_, err := e.registry.GetWorldByName(ctx, in.WorldName)
		if err == nil {
			return narrative.NewError(narrative.KindDuplicateName, "world %q already exists", in.WorldName)
		}
		if narrative.KindOf(err) != narrative.KindWorldNotFound {
			return err
		}

	case in.WorldID != "":
		w, err := e.registry.GetWorld(ctx, in.WorldID)
		if err != nil {
			if in.CharacterID != "" && narrative.KindOf(err) == narrative.KindWorldNotFound {
				// Gameplay operations surface stale references uniformly.
				return narrative.NewError(narrative.KindNotFound, "world %s not found", in.WorldID)
			}
			return err
		}
		s.World = w

	case in.WorldName != "":
		w, err := e.registry.GetWorldByName(ctx, in.WorldName)
		if err != nil {
			if narrative.KindOf(err) == narrative.KindWorldNotFound {
				return narrative.NewError(narrative.KindNotFound, "world %q not found", in.WorldName)
			}
			return err
		}
		s.World = w
	}

	switch {
	case in.CharacterID != "":
		c, err := e.registry.GetCharacter(ctx, s.World.ID, in.CharacterID)
		if err != nil {
			return err
		}
		s.Character = c

	case in.CharacterName != "" && in.WorldID != "":
		// Character creation: the name must be free within this world.
		_, err := e.registry.GetCharacterByName(ctx, s.World.ID, in.CharacterName)
		if err == nil {
			return narrative.NewError(narrative.KindDuplicateName, "character %q already exists in world %s", in.CharacterName, s.World.ID)
		}
		if narrative.KindOf(err) != narrative.KindNotFound {
			return err
		}

	case in.CharacterName != "" && s.World != nil:
		c, err := e.registry.GetCharacterByName(ctx, s.World.ID, in.CharacterName)
		if err != nil {
			return err
		}
		s.Character = c
	}

	return nil
}

// createWorldNode generates the world overview first, then commits the
// world row and its seed fragment. A generation failure leaves nothing
// behind, so the request can simply be retried.
func (e *Engine) createWorldNode(ctx context.Context, s *State) error {
	overview, err := e.generate(ctx, worldInstruction(s.In.WorldName, s.In.WorldGenre, s.In.Directives), "")
	if err != nil {
		return err
	}

	w, err := e.registry.CreateWorld(ctx, s.In.WorldName, s.In.WorldGenre, s.In.Directives)
	if err != nil {
		return err
	}
	s.World = w
	s.WorldOverview = overview

	if _, err := e.lore.AddFragment(ctx, w.ID, "", narrative.KindWorld, overview); err != nil {
		return err
	}
	return nil
}

// generateLoreNode expands the world's mythology with one grounded lore
// fragment.
func (e *Engine) generateLoreNode(ctx context.Context, s *State) error {
	grounding, err := e.groundingContext(ctx, s, "Lore about the world "+s.World.Name)
	if err != nil {
		return err
	}
	lore, err := e.generate(ctx, loreInstruction(s.World.Name), grounding)
	if err != nil {
		return err
	}
	s.Lore = lore

	if _, err := e.lore.AddFragment(ctx, s.World.ID, "", narrative.KindLore, lore); err != nil {
		return err
	}
	return nil
}

// summarizeSynopsisNode regenerates the derived synopsis from the top-K
// relevant fragments and stores it on the world record.
func (e *Engine) summarizeSynopsisNode(ctx context.Context, s *State) error {
	grounding, err := e.groundingContext(ctx, s, "Synopsis of the world "+s.World.Name)
	if err != nil {
		return err
	}
	synopsis, err := e.generate(ctx, synopsisInstruction(s.World.Name), grounding)
	if err != nil {
		return err
	}
	if err := e.registry.UpdateSynopsis(ctx, s.World.ID, synopsis); err != nil {
		return err
	}
	s.Synopsis = synopsis
	s.World.Synopsis = synopsis
	return nil
}

// createCharacterNode generates a lore-grounded biography, commits the
// character, appends the biography as a character-scoped fragment and
// parks a fresh session at AWAIT_PROMPT.
func (e *Engine) createCharacterNode(ctx context.Context, s *State) error {
	grounding, err := e.groundingContext(ctx, s, "Who is "+s.In.CharacterName+" in the world "+s.World.Name)
	if err != nil {
		return err
	}
	biography, err := e.generate(ctx, biographyInstruction(s.In.CharacterName, s.In.Gender, s.In.Description), grounding)
	if err != nil {
		return err
	}

	c, err := e.registry.CreateCharacter(ctx, s.World.ID, s.In.CharacterName, s.In.Gender, s.In.Description, biography)
	if err != nil {
		return err
	}
	s.Character = c
	s.Biography = biography

	if _, err := e.lore.AddFragment(ctx, s.World.ID, c.ID, narrative.KindCharacter, biography); err != nil {
		return err
	}

	return e.sessions.Save(ctx, &narrative.Session{
		Stage:       narrative.StageAwaitPrompt,
		WorldID:     s.World.ID,
		CharacterID: c.ID,
	})
}

// joinGameNode composes a fresh summary blending world synopsis and
// character biography, and restarts the session at AWAIT_PROMPT.
func (e *Engine) joinGameNode(ctx context.Context, s *State) error {
	grounding, err := e.groundingContext(ctx, s, "The world so far and the story of "+s.Character.Name)
	if err != nil {
		return err
	}
	summary, err := e.generate(ctx, joinSummaryInstruction(s.World.Name, s.Character.Name), grounding)
	if err != nil {
		return err
	}
	s.WorldSummary = summary

	return e.sessions.Save(ctx, &narrative.Session{
		Stage:       narrative.StageAwaitPrompt,
		WorldID:     s.World.ID,
		CharacterID: s.Character.ID,
	})
}

// awaitPromptNode produces the narrative situation for the player and
// records it as the session's outstanding prompt.
func (e *Engine) awaitPromptNode(ctx context.Context, s *State) error {
	sess, err := e.loadOrStartSession(ctx, s)
	if err != nil {
		return err
	}
	if sess.Stage == narrative.StageTerminated {
		return narrative.NewError(narrative.KindStateConflict, "session has ended")
	}

	query := "Current situation of " + s.Character.Name + " in the world " + s.World.Name
	if sess.LastAnswer != "" {
		query += ". Last player action: " + sess.LastAnswer
	}
	grounding, err := e.groundingContext(ctx, s, query)
	if err != nil {
		return err
	}
	prompt, err := e.generate(ctx, gamePromptInstruction(s.Character.Name), grounding)
	if err != nil {
		return err
	}

	sess.Stage = narrative.StageAwaitPrompt
	sess.PendingPrompt = prompt
	if err := e.sessions.Save(ctx, sess); err != nil {
		return err
	}
	s.Prompt = prompt
	s.Session = sess
	return nil
}

// registerAnswerNode commits the player's answer and its generated
// consequence as new fragments, then rearms the session for the next
// prompt. Without an outstanding prompt the operation is invalid.
func (e *Engine) registerAnswerNode(ctx context.Context, s *State) error {
	sess, err := e.sessions.Load(ctx, s.World.ID, s.Character.ID)
	if err != nil {
		if narrative.KindOf(err) == narrative.KindNotFound {
			return narrative.NewError(narrative.KindStateConflict, "no outstanding prompt for this session")
		}
		return err
	}
	if sess.Stage == narrative.StageTerminated {
		return narrative.NewError(narrative.KindStateConflict, "session has ended")
	}
	if sess.PendingPrompt == "" {
		return narrative.NewError(narrative.KindStateConflict, "no outstanding prompt for this session")
	}

	grounding, err := e.groundingContext(ctx, s, s.In.PlayerAnswer)
	if err != nil {
		return err
	}
	events, err := e.generate(ctx, immediateEventsInstruction(s.Character.Name, s.In.PlayerAnswer), grounding)
	if err != nil {
		return err
	}

	answerFact := s.Character.Name + " chose: " + s.In.PlayerAnswer
	if _, err := e.lore.AddFragment(ctx, s.World.ID, s.Character.ID, narrative.KindPlayerEvent, answerFact); err != nil {
		return err
	}
	if _, err := e.lore.AddFragment(ctx, s.World.ID, s.Character.ID, narrative.KindAIEvent, events); err != nil {
		return err
	}

	sess.Stage = narrative.StageAwaitPrompt
	sess.PendingPrompt = ""
	sess.LastAnswer = s.In.PlayerAnswer
	sess.ImmediateEvents = events
	if err := e.sessions.Save(ctx, sess); err != nil {
		return err
	}
	s.ImmediateEvents = events
	s.Session = sess
	return nil
}

// loadOrStartSession returns the stored session or starts a new one at
// AWAIT_PROMPT. Sessions expire from the store after the inactivity
// horizon, so a prompt request may legitimately find none.
func (e *Engine) loadOrStartSession(ctx context.Context, s *State) (*narrative.Session, error) {
	sess, err := e.sessions.Load(ctx, s.World.ID, s.Character.ID)
	if err == nil {
		return sess, nil
	}
	if narrative.KindOf(err) == narrative.KindNotFound {
		return &narrative.Session{
			Stage:       narrative.StageAwaitPrompt,
			WorldID:     s.World.ID,
			CharacterID: s.Character.ID,
		}, nil
	}
	return nil, err
}
