package narrative

import "time"

// World is a self-contained fictional universe. Name is stored lowercase
// and is unique across worlds; Synopsis is derived text and is regenerated
// whenever the lore materially changes.
type World struct {
	ID         string    `json:"world_id"`
	Name       string    `json:"world_name"`
	Genre      string    `json:"world_genre"`
	Directives string    `json:"story_directives"`
	Synopsis   string    `json:"synopsis"`
	CreatedAt  time.Time `json:"created_at"`
}

// Character belongs to exactly one world. Name is stored lowercase and is
// unique within its world. Biography is generated once, at creation.
type Character struct {
	ID          string    `json:"character_id"`
	WorldID     string    `json:"world_id"`
	Name        string    `json:"character_name"`
	Gender      string    `json:"character_gender"`
	Description string    `json:"character_description"`
	Biography   string    `json:"character_biography"`
	CreatedAt   time.Time `json:"created_at"`
}

// FragmentKind classifies a lore fragment.
type FragmentKind string

const (
	KindWorld       FragmentKind = "world"
	KindLore        FragmentKind = "lore"
	KindCharacter   FragmentKind = "character"
	KindPlayerEvent FragmentKind = "player_event"
	KindAIEvent     FragmentKind = "ai_event"
)

// Fragment is an immutable atomic unit of established narrative fact.
// Corrections are appended as new fragments, never edited in place.
type Fragment struct {
	ID          string       `json:"fragment_id"`
	WorldID     string       `json:"world_id"`
	CharacterID string       `json:"character_id,omitempty"`
	Kind        FragmentKind `json:"kind"`
	Content     string       `json:"content"`
	CreatedAt   time.Time    `json:"created_at"`
}

// FragmentQuery asks the lore index for the top-K fragments most similar
// to Text, scoped to one world and optionally one character. Results are
// ordered by descending similarity with ties broken by recency.
type FragmentQuery struct {
	WorldID     string
	CharacterID string
	Text        string
	K           int
}

// Session is one player's traversal of the workflow graph for one
// (world, character) pair. It is the only state carried across requests.
type Session struct {
	Stage           Stage     `json:"stage"`
	WorldID         string    `json:"world_id"`
	CharacterID     string    `json:"character_id"`
	PendingPrompt   string    `json:"pending_prompt,omitempty"`
	LastAnswer      string    `json:"last_answer,omitempty"`
	ImmediateEvents string    `json:"immediate_events,omitempty"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Stage is a named step in the workflow graph.
type Stage string

const (
	StageInit              Stage = "INIT"
	StageCreateWorld       Stage = "CREATE_WORLD"
	StageGenerateLore      Stage = "GENERATE_LORE"
	StageCreateCharacter   Stage = "CREATE_CHARACTER"
	StageJoinGame          Stage = "JOIN_GAME"
	StageAwaitPrompt       Stage = "AWAIT_PROMPT"
	StageRegisterAnswer    Stage = "REGISTER_ANSWER"
	StageSummarizeSynopsis Stage = "SUMMARIZE_SYNOPSIS"
	StageTerminated        Stage = "TERMINATED"
)
