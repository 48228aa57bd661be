package engine

import "odyssai/internal/narrative"

// Input is the request fragment that seeds a workflow run. Which fields
// are populated determines the path the graph takes from INIT.
type Input struct {
	WorldID       string
	WorldName     string
	WorldGenre    string
	Directives    string
	CharacterID   string
	CharacterName string
	Gender        string
	Description   string
	PlayerAnswer  string
}

// State is the working memory of one request's traversal through the
// graph. It is created per request, mutated by stage handlers, and
// discarded once the response is built; everything that must survive
// the request goes through the session store.
type State struct {
	Stage narrative.Stage
	In    Input

	// Resolved during INIT.
	World     *narrative.World
	Character *narrative.Character
	Session   *narrative.Session

	// Stage outputs.
	WorldOverview   string
	Lore            string
	Biography       string
	Synopsis        string
	WorldSummary    string
	Prompt          string
	ImmediateEvents string
}

// newState seeds a run at INIT.
func newState(in Input) *State {
	return &State{Stage: narrative.StageInit, In: in}
}
