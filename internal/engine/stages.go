package engine

import "odyssai/internal/narrative"

// Next is the pure transition function of the workflow graph. It
// inspects only the state and returns the stage that follows; it never
// performs I/O, so the graph shape is testable in isolation.
//
// A request runs stages until TERMINATED. The session's resting stage
// between requests (AWAIT_PROMPT with or without an outstanding prompt)
// is recorded by the stage handlers through the session store.
func Next(stage narrative.Stage, s *State) narrative.Stage {
	switch stage {
	case narrative.StageInit:
		switch {
		case s.In.PlayerAnswer != "":
			// A player answer only makes sense against an open prompt.
			return narrative.StageRegisterAnswer
		case s.In.WorldGenre != "":
			// Genre is only supplied when setting up a new world.
			return narrative.StageCreateWorld
		case s.In.CharacterName != "" && s.In.WorldID != "":
			// A named character addressed by world id is a creation.
			return narrative.StageCreateCharacter
		case s.In.CharacterName != "":
			// A named character addressed by world name joins the game.
			return narrative.StageJoinGame
		case s.In.CharacterID != "":
			return narrative.StageAwaitPrompt
		default:
			return narrative.StageSummarizeSynopsis
		}

	case narrative.StageCreateWorld:
		return narrative.StageGenerateLore

	case narrative.StageGenerateLore:
		if s.In.CharacterName != "" {
			return narrative.StageCreateCharacter
		}
		return narrative.StageSummarizeSynopsis

	case narrative.StageCreateCharacter, narrative.StageJoinGame:
		// The session is parked at AWAIT_PROMPT; the prompt itself is
		// produced by the next request.
		return narrative.StageTerminated

	case narrative.StageAwaitPrompt,
		narrative.StageRegisterAnswer,
		narrative.StageSummarizeSynopsis:
		return narrative.StageTerminated

	default:
		return narrative.StageTerminated
	}
}
