// Package engine sequences the narrative workflow graph. Each public
// operation seeds a request state, runs stage handlers from INIT until
// TERMINATED per the pure transition function in stages.go, and leaves
// all cross-request memory in the session store and lore index.
package engine

import (
	"context"
	"errors"
	"log"
	"time"

	"odyssai/internal/narrative"
)

// WorldRegistry is the registry of worlds and characters.
type WorldRegistry interface {
	CreateWorld(ctx context.Context, name, genre, directives string) (*narrative.World, error)
	GetWorld(ctx context.Context, worldID string) (*narrative.World, error)
	GetWorldByName(ctx context.Context, name string) (*narrative.World, error)
	ListWorlds(ctx context.Context) ([]narrative.World, error)
	UpdateSynopsis(ctx context.Context, worldID, synopsis string) error
	CreateCharacter(ctx context.Context, worldID, name, gender, description, biography string) (*narrative.Character, error)
	GetCharacter(ctx context.Context, worldID, characterID string) (*narrative.Character, error)
	GetCharacterByName(ctx context.Context, worldID, name string) (*narrative.Character, error)
}

// LoreIndex is the append-only semantic store of narrative facts.
type LoreIndex interface {
	AddFragment(ctx context.Context, worldID, characterID string, kind narrative.FragmentKind, content string) (string, error)
	Query(ctx context.Context, q narrative.FragmentQuery) ([]narrative.Fragment, error)
	Recent(ctx context.Context, worldID, characterID string, k int) ([]narrative.Fragment, error)
}

// SessionStore persists per-player workflow state between requests.
type SessionStore interface {
	Load(ctx context.Context, worldID, characterID string) (*narrative.Session, error)
	Save(ctx context.Context, sess *narrative.Session) error
}

// Generator produces narrative text. Implementations do not retry.
type Generator interface {
	Generate(ctx context.Context, instruction, context string) (string, error)
}

// Options tune retrieval and retry behavior.
type Options struct {
	// RetrievalK is the top-K for lore similarity queries.
	RetrievalK int
	// ContextBudget caps assembled grounding context, in characters.
	ContextBudget int
	// RetryBackoff is the pause before the single generation retry.
	RetryBackoff time.Duration
}

func (o *Options) defaults() {
	if o.RetrievalK <= 0 {
		o.RetrievalK = 10
	}
	if o.ContextBudget <= 0 {
		o.ContextBudget = 12000
	}
	if o.RetryBackoff <= 0 {
		o.RetryBackoff = 2 * time.Second
	}
}

// Engine is the workflow graph engine. It is stateless between calls
// and safe for concurrent use across sessions.
type Engine struct {
	registry  WorldRegistry
	lore      LoreIndex
	sessions  SessionStore
	generator Generator
	opts      Options
}

// New assembles an engine from its collaborators.
func New(registry WorldRegistry, lore LoreIndex, sessions SessionStore, generator Generator, opts Options) *Engine {
	opts.defaults()
	return &Engine{
		registry:  registry,
		lore:      lore,
		sessions:  sessions,
		generator: generator,
		opts:      opts,
	}
}

// run drives the state through the graph until TERMINATED.
func (e *Engine) run(ctx context.Context, s *State) error {
	for s.Stage != narrative.StageTerminated {
		handler, ok := e.handler(s.Stage)
		if !ok {
			return narrative.NewError(narrative.KindInternal, "no handler for stage %s", s.Stage)
		}
		if err := handler(ctx, s); err != nil {
			return err
		}
		next := Next(s.Stage, s)
		if next == s.Stage {
			return narrative.NewError(narrative.KindInternal, "stage %s does not advance", s.Stage)
		}
		s.Stage = next
	}
	return nil
}

func (e *Engine) handler(stage narrative.Stage) (func(context.Context, *State) error, bool) {
	switch stage {
	case narrative.StageInit:
		return e.initNode, true
	case narrative.StageCreateWorld:
		return e.createWorldNode, true
	case narrative.StageGenerateLore:
		return e.generateLoreNode, true
	case narrative.StageCreateCharacter:
		return e.createCharacterNode, true
	case narrative.StageJoinGame:
		return e.joinGameNode, true
	case narrative.StageAwaitPrompt:
		return e.awaitPromptNode, true
	case narrative.StageRegisterAnswer:
		return e.registerAnswerNode, true
	case narrative.StageSummarizeSynopsis:
		return e.summarizeSynopsisNode, true
	default:
		return nil, false
	}
}

// generate calls the provider with a single retry after backoff.
// Anything that still fails surfaces as GenerationError; handlers call
// this before committing state so a failed generation commits nothing.
func (e *Engine) generate(ctx context.Context, instruction, groundingContext string) (string, error) {
	text, err := e.generator.Generate(ctx, instruction, groundingContext)
	if err == nil {
		return text, nil
	}
	log.Printf("generation failed, retrying once: %v", err)

	select {
	case <-time.After(e.opts.RetryBackoff):
	case <-ctx.Done():
		return "", narrative.WrapError(narrative.KindGeneration, ctx.Err(), "generation canceled")
	}

	text, err = e.generator.Generate(ctx, instruction, groundingContext)
	if err != nil {
		var domainErr *narrative.Error
		if errors.As(err, &domainErr) {
			return "", err
		}
		return "", narrative.WrapError(narrative.KindGeneration, err, "provider call failed after retry")
	}
	return text, nil
}
