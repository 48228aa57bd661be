package engine

import (
	"context"
	"strings"

	"odyssai/internal/narrative"
)

// WorldResult is the outcome of CreateWorld.
type WorldResult struct {
	WorldID   string
	WorldName string
	Synopsis  string
}

// CharacterResult is the outcome of CreateCharacter. Description holds
// the generated biography, the canonical description of the character.
type CharacterResult struct {
	CharacterID   string
	CharacterName string
	Description   string
	WorldID       string
}

// JoinResult is the outcome of JoinGame.
type JoinResult struct {
	CharacterID   string
	CharacterName string
	WorldID       string
	WorldName     string
	WorldSummary  string
}

// PromptResult is the outcome of GetGamePrompt.
type PromptResult struct {
	AIPrompt    string
	CharacterID string
	WorldID     string
}

// AnswerResult is the outcome of RegisterAnswer.
type AnswerResult struct {
	ImmediateEvents string
	CharacterID     string
	WorldID         string
}

// CreateWorld sets up a new world: overview generation, seed lore and
// the initial synopsis, all within one request.
func (e *Engine) CreateWorld(ctx context.Context, name, genre, directives string) (*WorldResult, error) {
	if err := requireFields(map[string]string{
		"world_name":  name,
		"world_genre": genre,
	}); err != nil {
		return nil, err
	}

	s := newState(Input{
		WorldName:  strings.TrimSpace(name),
		WorldGenre: strings.TrimSpace(genre),
		Directives: strings.TrimSpace(directives),
	})
	if err := e.run(ctx, s); err != nil {
		return nil, err
	}
	return &WorldResult{
		WorldID:   s.World.ID,
		WorldName: s.World.Name,
		Synopsis:  s.Synopsis,
	}, nil
}

// CreateCharacter adds a character to an existing world with a
// biography grounded in that world's lore.
func (e *Engine) CreateCharacter(ctx context.Context, worldID, name, gender, description string) (*CharacterResult, error) {
	if err := requireFields(map[string]string{
		"world_id":              worldID,
		"character_name":        name,
		"character_description": description,
	}); err != nil {
		return nil, err
	}

	s := newState(Input{
		WorldID:       strings.TrimSpace(worldID),
		CharacterName: strings.TrimSpace(name),
		Gender:        strings.TrimSpace(gender),
		Description:   strings.TrimSpace(description),
	})
	if err := e.run(ctx, s); err != nil {
		return nil, err
	}
	return &CharacterResult{
		CharacterID:   s.Character.ID,
		CharacterName: s.Character.Name,
		Description:   s.Biography,
		WorldID:       s.World.ID,
	}, nil
}

// JoinGame resumes play for an existing world/character pair and
// returns a freshly composed world summary.
func (e *Engine) JoinGame(ctx context.Context, worldName, characterName string) (*JoinResult, error) {
	if err := requireFields(map[string]string{
		"world_name":     worldName,
		"character_name": characterName,
	}); err != nil {
		return nil, err
	}

	s := newState(Input{
		WorldName:     strings.TrimSpace(worldName),
		CharacterName: strings.TrimSpace(characterName),
	})
	if err := e.run(ctx, s); err != nil {
		return nil, err
	}
	return &JoinResult{
		CharacterID:   s.Character.ID,
		CharacterName: s.Character.Name,
		WorldID:       s.World.ID,
		WorldName:     s.World.Name,
		WorldSummary:  s.WorldSummary,
	}, nil
}

// GetSynopsis regenerates the synopsis of a world on demand from its
// most relevant lore.
func (e *Engine) GetSynopsis(ctx context.Context, worldID string) (string, error) {
	if err := requireFields(map[string]string{"world_id": worldID}); err != nil {
		return "", err
	}

	s := newState(Input{WorldID: strings.TrimSpace(worldID)})
	if err := e.run(ctx, s); err != nil {
		return "", err
	}
	return s.Synopsis, nil
}

// GetGamePrompt produces the narrative situation the player must answer
// and records it as the session's outstanding prompt.
func (e *Engine) GetGamePrompt(ctx context.Context, worldID, characterID string) (*PromptResult, error) {
	if err := requireFields(map[string]string{
		"world_id":     worldID,
		"character_id": characterID,
	}); err != nil {
		return nil, err
	}

	s := newState(Input{
		WorldID:     strings.TrimSpace(worldID),
		CharacterID: strings.TrimSpace(characterID),
	})
	if err := e.run(ctx, s); err != nil {
		return nil, err
	}
	return &PromptResult{
		AIPrompt:    s.Prompt,
		CharacterID: s.Character.ID,
		WorldID:     s.World.ID,
	}, nil
}

// RegisterAnswer commits the player's answer against the outstanding
// prompt and returns the immediate narrative consequence.
func (e *Engine) RegisterAnswer(ctx context.Context, worldID, characterID, playerAnswer string) (*AnswerResult, error) {
	if err := requireFields(map[string]string{
		"world_id":      worldID,
		"character_id":  characterID,
		"player_answer": playerAnswer,
	}); err != nil {
		return nil, err
	}

	s := newState(Input{
		WorldID:      strings.TrimSpace(worldID),
		CharacterID:  strings.TrimSpace(characterID),
		PlayerAnswer: strings.TrimSpace(playerAnswer),
	})
	if err := e.run(ctx, s); err != nil {
		return nil, err
	}
	return &AnswerResult{
		ImmediateEvents: s.ImmediateEvents,
		CharacterID:     s.Character.ID,
		WorldID:         s.World.ID,
	}, nil
}

// EndSession moves a session to TERMINATED. The session becomes
// read-only: prompts and answers are rejected, the world synopsis stays
// queryable.
func (e *Engine) EndSession(ctx context.Context, worldID, characterID string) error {
	if err := requireFields(map[string]string{
		"world_id":     worldID,
		"character_id": characterID,
	}); err != nil {
		return err
	}

	s := newState(Input{WorldID: worldID, CharacterID: characterID})
	if err := e.initNode(ctx, s); err != nil {
		return err
	}
	sess, err := e.loadOrStartSession(ctx, s)
	if err != nil {
		return err
	}
	sess.Stage = narrative.StageTerminated
	sess.PendingPrompt = ""
	return e.sessions.Save(ctx, sess)
}

// ListWorlds returns every registered world.
func (e *Engine) ListWorlds(ctx context.Context) ([]narrative.World, error) {
	return e.registry.ListWorlds(ctx)
}

// CheckWorld reports whether a world exists, addressed by id or name.
func (e *Engine) CheckWorld(ctx context.Context, worldID, worldName string) (*narrative.World, error) {
	if worldID != "" {
		return e.registry.GetWorld(ctx, worldID)
	}
	if worldName != "" {
		return e.registry.GetWorldByName(ctx, worldName)
	}
	return nil, narrative.NewError(narrative.KindNotFound, "world_id or world_name is required")
}

// CheckCharacter reports whether a character exists within a world,
// addressed by id or name.
func (e *Engine) CheckCharacter(ctx context.Context, worldID, characterID, characterName string) (*narrative.Character, error) {
	if _, err := e.registry.GetWorld(ctx, worldID); err != nil {
		return nil, err
	}
	if characterID != "" {
		return e.registry.GetCharacter(ctx, worldID, characterID)
	}
	if characterName != "" {
		return e.registry.GetCharacterByName(ctx, worldID, characterName)
	}
	return nil, narrative.NewError(narrative.KindNotFound, "character_id or character_name is required")
}

// requireFields rejects blank required inputs before any stage runs.
func requireFields(fields map[string]string) error {
	for name, value := range fields {
		if strings.TrimSpace(value) == "" {
			return narrative.NewError(narrative.KindValidation, "missing required field %s", name)
		}
	}
	return nil
}
