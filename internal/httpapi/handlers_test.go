package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"odyssai/internal/engine"
	"odyssai/internal/narrative"
)

// stubEngine returns canned results per operation, or the configured
// error for everything.
type stubEngine struct {
	err       error
	world     *engine.WorldResult
	character *engine.CharacterResult
	join      *engine.JoinResult
	prompt    *engine.PromptResult
	answer    *engine.AnswerResult
	synopsis  string
	worlds    []narrative.World
	checked   *narrative.World
	checkedCh *narrative.Character
}

func (s *stubEngine) CreateWorld(ctx context.Context, name, genre, directives string) (*engine.WorldResult, error) {
	return s.world, s.err
}

func (s *stubEngine) CreateCharacter(ctx context.Context, worldID, name, gender, description string) (*engine.CharacterResult, error) {
	return s.character, s.err
}

func (s *stubEngine) JoinGame(ctx context.Context, worldName, characterName string) (*engine.JoinResult, error) {
	return s.join, s.err
}

func (s *stubEngine) GetSynopsis(ctx context.Context, worldID string) (string, error) {
	return s.synopsis, s.err
}

func (s *stubEngine) GetGamePrompt(ctx context.Context, worldID, characterID string) (*engine.PromptResult, error) {
	return s.prompt, s.err
}

func (s *stubEngine) RegisterAnswer(ctx context.Context, worldID, characterID, playerAnswer string) (*engine.AnswerResult, error) {
	return s.answer, s.err
}

func (s *stubEngine) EndSession(ctx context.Context, worldID, characterID string) error {
	return s.err
}

func (s *stubEngine) ListWorlds(ctx context.Context) ([]narrative.World, error) {
	return s.worlds, s.err
}

func (s *stubEngine) CheckWorld(ctx context.Context, worldID, worldName string) (*narrative.World, error) {
	return s.checked, s.err
}

func (s *stubEngine) CheckCharacter(ctx context.Context, worldID, characterID, characterName string) (*narrative.Character, error) {
	return s.checkedCh, s.err
}

func doRequest(t *testing.T, eng Engine, method, target string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	rec := httptest.NewRecorder()
	NewServer(eng).Router().ServeHTTP(rec, req)

	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	return rec, payload
}

func TestHandleHealth(t *testing.T) {
	rec, payload := doRequest(t, &stubEngine{}, "GET", "/api/health", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", payload["status"])
	assert.Equal(t, serviceName, payload["service"])
	assert.NotEmpty(t, payload["timestamp"])
}

func TestHandleCreateWorldSuccess(t *testing.T) {
	eng := &stubEngine{world: &engine.WorldResult{
		WorldID:   "w1",
		WorldName: "terra novia",
		Synopsis:  "A dark land.",
	}}
	rec, payload := doRequest(t, eng, "POST", "/api/worlds", CreateWorldRequest{
		WorldName:  "Terra Novia",
		WorldGenre: "dark fantasy",
	})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, true, payload["success"])
	assert.Equal(t, "w1", payload["world_id"])
	assert.Equal(t, "terra novia", payload["world_name"])
	assert.Equal(t, "A dark land.", payload["synopsis"])
	assert.Equal(t, "World created successfully", payload["message"])
}

func TestHandleCreateWorldDuplicateName(t *testing.T) {
	eng := &stubEngine{err: narrative.NewError(narrative.KindDuplicateName, "world already exists")}
	rec, payload := doRequest(t, eng, "POST", "/api/worlds", CreateWorldRequest{
		WorldName:  "Terra Novia",
		WorldGenre: "dark fantasy",
	})

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, false, payload["success"])
	assert.Equal(t, "DuplicateNameError", payload["error_kind"])
}

func TestHandleCreateWorldRejectsBadBody(t *testing.T) {
	req := httptest.NewRequest("POST", "/api/worlds", bytes.NewBufferString("{not json"))
	rec := httptest.NewRecorder()
	NewServer(&stubEngine{}).Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Equal(t, "ValidationError", payload["error_kind"])
}

func TestHandleCreateWorldFrenchMessage(t *testing.T) {
	eng := &stubEngine{world: &engine.WorldResult{WorldID: "w1", WorldName: "terra novia"}}
	_, payload := doRequest(t, eng, "POST", "/api/worlds?lang=fr", CreateWorldRequest{
		WorldName:  "Terra Novia",
		WorldGenre: "dark fantasy",
	})

	assert.Equal(t, "Monde créé avec succès", payload["message"])
}

func TestHandleListWorldsEmptyIsAnArray(t *testing.T) {
	rec, payload := doRequest(t, &stubEngine{}, "GET", "/api/worlds", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(0), payload["count"])
	worlds, ok := payload["worlds"].([]interface{})
	require.True(t, ok)
	assert.Empty(t, worlds)
}

func TestHandleCheckWorldNotFoundIsASuccess(t *testing.T) {
	eng := &stubEngine{err: narrative.NewError(narrative.KindWorldNotFound, "world not found")}
	rec, payload := doRequest(t, eng, "GET", "/api/worlds/check?world_name=nowhere", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, payload["success"])
	assert.Equal(t, false, payload["exists"])
}

func TestHandleCheckWorldRequiresAReference(t *testing.T) {
	rec, _ := doRequest(t, &stubEngine{}, "GET", "/api/worlds/check", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleSynopsis(t *testing.T) {
	eng := &stubEngine{synopsis: "A dark land of redemption."}
	rec, payload := doRequest(t, eng, "GET", "/api/worlds/w1/synopsis", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "A dark land of redemption.", payload["synopsis"])
	assert.Equal(t, "w1", payload["world_id"])
}

func TestHandleSynopsisUnknownWorld(t *testing.T) {
	eng := &stubEngine{err: narrative.NewError(narrative.KindWorldNotFound, "world not found")}
	rec, _ := doRequest(t, eng, "GET", "/api/worlds/missing/synopsis", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleCreateCharacterSuccess(t *testing.T) {
	eng := &stubEngine{character: &engine.CharacterResult{
		CharacterID:   "c1",
		CharacterName: "jyokaro",
		Description:   "A quiet tracker.",
		WorldID:       "w1",
	}}
	rec, payload := doRequest(t, eng, "POST", "/api/characters", CreateCharacterRequest{
		WorldID:              "w1",
		CharacterName:        "Jyokaro",
		CharacterDescription: "a quiet tracker",
	})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "c1", payload["character_id"])
	assert.Equal(t, "A quiet tracker.", payload["character_description"])
}

func TestHandleJoinGame(t *testing.T) {
	eng := &stubEngine{join: &engine.JoinResult{
		CharacterID:   "c1",
		CharacterName: "jyokaro",
		WorldID:       "w1",
		WorldName:     "terra novia",
		WorldSummary:  "The story so far.",
	}}
	rec, payload := doRequest(t, eng, "POST", "/api/gameplay/join", JoinGameRequest{
		WorldName:     "Terra Novia",
		CharacterName: "Jyokaro",
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "The story so far.", payload["world_summary"])
	assert.Equal(t, "w1", payload["world_id"])
}

func TestHandleGamePrompt(t *testing.T) {
	eng := &stubEngine{prompt: &engine.PromptResult{
		AIPrompt:    "A door creaks open. What do you do?",
		CharacterID: "c1",
		WorldID:     "w1",
	}}
	rec, payload := doRequest(t, eng, "GET", "/api/gameplay/prompt?world_id=w1&character_id=c1", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "A door creaks open. What do you do?", payload["ai_prompt"])
}

func TestHandleRegisterAnswerConflict(t *testing.T) {
	eng := &stubEngine{err: narrative.NewError(narrative.KindStateConflict, "no outstanding prompt for this session")}
	rec, payload := doRequest(t, eng, "POST", "/api/gameplay/action", RegisterAnswerRequest{
		WorldID:      "w1",
		CharacterID:  "c1",
		PlayerAnswer: "I open the door.",
	})

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "StateConflictError", payload["error_kind"])
}

func TestHandleRegisterAnswerSuccess(t *testing.T) {
	eng := &stubEngine{answer: &engine.AnswerResult{
		ImmediateEvents: "The door swings wide.",
		CharacterID:     "c1",
		WorldID:         "w1",
	}}
	rec, payload := doRequest(t, eng, "POST", "/api/gameplay/action", RegisterAnswerRequest{
		WorldID:      "w1",
		CharacterID:  "c1",
		PlayerAnswer: "I open the door.",
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "The door swings wide.", payload["immediate_events"])
}

func TestHandleEndSession(t *testing.T) {
	rec, payload := doRequest(t, &stubEngine{}, "POST", "/api/gameplay/end", EndSessionRequest{
		WorldID:     "w1",
		CharacterID: "c1",
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, payload["success"])
	assert.Equal(t, "Session ended", payload["message"])
}

func TestGenerationFailureMapsToBadGateway(t *testing.T) {
	eng := &stubEngine{err: narrative.NewError(narrative.KindGeneration, "provider call failed after retry")}
	rec, _ := doRequest(t, eng, "GET", "/api/gameplay/prompt?world_id=w1&character_id=c1", nil)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestMemoryUnavailableMapsToServiceUnavailable(t *testing.T) {
	eng := &stubEngine{err: narrative.NewError(narrative.KindMemoryUnavailable, "lore index unreachable")}
	rec, _ := doRequest(t, eng, "GET", "/api/worlds/w1/synopsis", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestStatusForCoversTheTaxonomy(t *testing.T) {
	tests := []struct {
		kind narrative.ErrorKind
		want int
	}{
		{narrative.KindNotFound, http.StatusNotFound},
		{narrative.KindWorldNotFound, http.StatusNotFound},
		{narrative.KindDuplicateName, http.StatusConflict},
		{narrative.KindStateConflict, http.StatusConflict},
		{narrative.KindValidation, http.StatusBadRequest},
		{narrative.KindGeneration, http.StatusBadGateway},
		{narrative.KindMemoryUnavailable, http.StatusServiceUnavailable},
		{narrative.KindInternal, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.kind), string(tt.kind))
	}
}
