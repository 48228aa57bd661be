package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"odyssai/internal/narrative"
)

// CreateWorldRequest is the payload for POST /api/worlds.
type CreateWorldRequest struct {
	WorldName       string `json:"world_name"`
	WorldGenre      string `json:"world_genre"`
	StoryDirectives string `json:"story_directives"`
}

// CreateCharacterRequest is the payload for POST /api/characters.
type CreateCharacterRequest struct {
	WorldID              string `json:"world_id"`
	CharacterName        string `json:"character_name"`
	CharacterGender      string `json:"character_gender"`
	CharacterDescription string `json:"character_description"`
}

// JoinGameRequest is the payload for POST /api/gameplay/join.
type JoinGameRequest struct {
	WorldName     string `json:"world_name"`
	CharacterName string `json:"character_name"`
}

// RegisterAnswerRequest is the payload for POST /api/gameplay/action.
type RegisterAnswerRequest struct {
	WorldID      string `json:"world_id"`
	CharacterID  string `json:"character_id"`
	PlayerAnswer string `json:"player_answer"`
}

// EndSessionRequest is the payload for POST /api/gameplay/end.
type EndSessionRequest struct {
	WorldID     string `json:"world_id"`
	CharacterID string `json:"character_id"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"service":   serviceName,
		"version":   serviceVersion,
	})
}

func (s *Server) handleCreateWorld(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	lang := langFrom(r)

	var req CreateWorldRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		observe("POST", "/worlds", "error", start)
		writeError(w, lang, narrative.NewError(narrative.KindValidation, "invalid request body"))
		return
	}

	result, err := s.engine.CreateWorld(r.Context(), req.WorldName, req.WorldGenre, req.StoryDirectives)
	if err != nil {
		observe("POST", "/worlds", "error", start)
		writeError(w, lang, err)
		return
	}

	observe("POST", "/worlds", "success", start)
	writeJSONResponse(w, http.StatusCreated, map[string]interface{}{
		"success":    true,
		"message":    message(lang, "world_created"),
		"world_id":   result.WorldID,
		"world_name": result.WorldName,
		"synopsis":   result.Synopsis,
	})
}

func (s *Server) handleListWorlds(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	worlds, err := s.engine.ListWorlds(r.Context())
	if err != nil {
		observe("GET", "/worlds", "error", start)
		writeError(w, langFrom(r), err)
		return
	}
	if worlds == nil {
		worlds = []narrative.World{}
	}

	observe("GET", "/worlds", "success", start)
	writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"worlds":  worlds,
		"count":   len(worlds),
	})
}

func (s *Server) handleCheckWorld(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	worldID := r.URL.Query().Get("world_id")
	worldName := r.URL.Query().Get("world_name")

	if worldID == "" && worldName == "" {
		observe("GET", "/worlds/check", "error", start)
		writeError(w, langFrom(r), narrative.NewError(narrative.KindValidation, "world_id or world_name parameter is required"))
		return
	}

	world, err := s.engine.CheckWorld(r.Context(), worldID, worldName)
	if err != nil {
		if kind := narrative.KindOf(err); kind == narrative.KindWorldNotFound || kind == narrative.KindNotFound {
			observe("GET", "/worlds/check", "success", start)
			writeJSONResponse(w, http.StatusOK, map[string]interface{}{
				"success":    true,
				"exists":     false,
				"world_id":   worldID,
				"world_name": worldName,
			})
			return
		}
		observe("GET", "/worlds/check", "error", start)
		writeError(w, langFrom(r), err)
		return
	}

	observe("GET", "/worlds/check", "success", start)
	writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"success":    true,
		"exists":     true,
		"world_id":   world.ID,
		"world_name": world.Name,
	})
}

func (s *Server) handleSynopsis(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	worldID := mux.Vars(r)["world_id"]

	synopsis, err := s.engine.GetSynopsis(r.Context(), worldID)
	if err != nil {
		observe("GET", "/worlds/:id/synopsis", "error", start)
		writeError(w, langFrom(r), err)
		return
	}

	observe("GET", "/worlds/:id/synopsis", "success", start)
	writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"synopsis": synopsis,
		"world_id": worldID,
	})
}

func (s *Server) handleCreateCharacter(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	lang := langFrom(r)

	var req CreateCharacterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		observe("POST", "/characters", "error", start)
		writeError(w, lang, narrative.NewError(narrative.KindValidation, "invalid request body"))
		return
	}

	result, err := s.engine.CreateCharacter(r.Context(), req.WorldID, req.CharacterName, req.CharacterGender, req.CharacterDescription)
	if err != nil {
		observe("POST", "/characters", "error", start)
		writeError(w, lang, err)
		return
	}

	observe("POST", "/characters", "success", start)
	writeJSONResponse(w, http.StatusCreated, map[string]interface{}{
		"success":               true,
		"message":               message(lang, "character_created"),
		"character_id":          result.CharacterID,
		"character_name":        result.CharacterName,
		"character_description": result.Description,
		"world_id":              result.WorldID,
	})
}

func (s *Server) handleCheckCharacter(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	worldID := r.URL.Query().Get("world_id")
	characterID := r.URL.Query().Get("character_id")
	characterName := r.URL.Query().Get("character_name")

	if worldID == "" {
		observe("GET", "/characters/check", "error", start)
		writeError(w, langFrom(r), narrative.NewError(narrative.KindValidation, "world_id parameter is required"))
		return
	}
	if characterID == "" && characterName == "" {
		observe("GET", "/characters/check", "error", start)
		writeError(w, langFrom(r), narrative.NewError(narrative.KindValidation, "character_id or character_name parameter is required"))
		return
	}

	character, err := s.engine.CheckCharacter(r.Context(), worldID, characterID, characterName)
	if err != nil {
		if narrative.KindOf(err) == narrative.KindNotFound {
			observe("GET", "/characters/check", "success", start)
			writeJSONResponse(w, http.StatusOK, map[string]interface{}{
				"success":        true,
				"exists":         false,
				"world_id":       worldID,
				"character_id":   characterID,
				"character_name": characterName,
			})
			return
		}
		observe("GET", "/characters/check", "error", start)
		writeError(w, langFrom(r), err)
		return
	}

	observe("GET", "/characters/check", "success", start)
	writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"success":        true,
		"exists":         true,
		"world_id":       character.WorldID,
		"character_id":   character.ID,
		"character_name": character.Name,
	})
}

func (s *Server) handleJoinGame(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	lang := langFrom(r)

	var req JoinGameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		observe("POST", "/gameplay/join", "error", start)
		writeError(w, lang, narrative.NewError(narrative.KindValidation, "invalid request body"))
		return
	}

	result, err := s.engine.JoinGame(r.Context(), req.WorldName, req.CharacterName)
	if err != nil {
		observe("POST", "/gameplay/join", "error", start)
		writeError(w, lang, err)
		return
	}

	observe("POST", "/gameplay/join", "success", start)
	writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"success":        true,
		"message":        message(lang, "game_joined"),
		"character_id":   result.CharacterID,
		"character_name": result.CharacterName,
		"world_id":       result.WorldID,
		"world_name":     result.WorldName,
		"world_summary":  result.WorldSummary,
	})
}

func (s *Server) handleGamePrompt(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	lang := langFrom(r)
	worldID := r.URL.Query().Get("world_id")
	characterID := r.URL.Query().Get("character_id")

	result, err := s.engine.GetGamePrompt(r.Context(), worldID, characterID)
	if err != nil {
		observe("GET", "/gameplay/prompt", "error", start)
		writeError(w, lang, err)
		return
	}

	observe("GET", "/gameplay/prompt", "success", start)
	writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"success":      true,
		"message":      message(lang, "prompt_generated"),
		"ai_prompt":    result.AIPrompt,
		"character_id": result.CharacterID,
		"world_id":     result.WorldID,
	})
}

func (s *Server) handleRegisterAnswer(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	lang := langFrom(r)

	var req RegisterAnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		observe("POST", "/gameplay/action", "error", start)
		writeError(w, lang, narrative.NewError(narrative.KindValidation, "invalid request body"))
		return
	}

	result, err := s.engine.RegisterAnswer(r.Context(), req.WorldID, req.CharacterID, req.PlayerAnswer)
	if err != nil {
		observe("POST", "/gameplay/action", "error", start)
		writeError(w, lang, err)
		return
	}

	observe("POST", "/gameplay/action", "success", start)
	writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"success":          true,
		"message":          message(lang, "action_registered"),
		"immediate_events": result.ImmediateEvents,
		"character_id":     result.CharacterID,
		"world_id":         result.WorldID,
	})
}

func (s *Server) handleEndSession(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	lang := langFrom(r)

	var req EndSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		observe("POST", "/gameplay/end", "error", start)
		writeError(w, lang, narrative.NewError(narrative.KindValidation, "invalid request body"))
		return
	}

	if err := s.engine.EndSession(r.Context(), req.WorldID, req.CharacterID); err != nil {
		observe("POST", "/gameplay/end", "error", start)
		writeError(w, lang, err)
		return
	}

	observe("POST", "/gameplay/end", "success", start)
	writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"success":      true,
		"message":      message(lang, "session_ended"),
		"world_id":     req.WorldID,
		"character_id": req.CharacterID,
	})
}
