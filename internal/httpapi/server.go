// Package httpapi exposes the narrative engine over HTTP. Handlers are
// thin adapters: parse, call the engine, map domain errors to status
// codes, count metrics.
package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"odyssai/internal/engine"
	"odyssai/internal/narrative"
)

const (
	serviceName    = "odyssai-core"
	serviceVersion = "1.0.0"
)

// Engine is the part of the workflow engine the HTTP layer consumes.
type Engine interface {
	CreateWorld(ctx context.Context, name, genre, directives string) (*engine.WorldResult, error)
	CreateCharacter(ctx context.Context, worldID, name, gender, description string) (*engine.CharacterResult, error)
	JoinGame(ctx context.Context, worldName, characterName string) (*engine.JoinResult, error)
	GetSynopsis(ctx context.Context, worldID string) (string, error)
	GetGamePrompt(ctx context.Context, worldID, characterID string) (*engine.PromptResult, error)
	RegisterAnswer(ctx context.Context, worldID, characterID, playerAnswer string) (*engine.AnswerResult, error)
	EndSession(ctx context.Context, worldID, characterID string) error
	ListWorlds(ctx context.Context) ([]narrative.World, error)
	CheckWorld(ctx context.Context, worldID, worldName string) (*narrative.World, error)
	CheckCharacter(ctx context.Context, worldID, characterID, characterName string) (*narrative.Character, error)
}

// Prometheus metrics
var (
	apiRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "odyssai_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status"},
	)
	apiRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "odyssai_request_duration_seconds",
			Help: "Duration of API requests",
		},
		[]string{"method", "endpoint"},
	)
)

func init() {
	prometheus.MustRegister(apiRequestsTotal)
	prometheus.MustRegister(apiRequestDuration)
}

// Server wires routes to the engine.
type Server struct {
	engine Engine
}

// NewServer builds the HTTP surface for an engine.
func NewServer(eng Engine) *Server {
	return &Server{engine: eng}
}

// Router returns the configured mux router.
func (s *Server) Router() *mux.Router {
	router := mux.NewRouter()
	api := router.PathPrefix("/api").Subrouter()

	api.HandleFunc("/health", s.handleHealth).Methods("GET")

	api.HandleFunc("/worlds", s.handleListWorlds).Methods("GET")
	api.HandleFunc("/worlds", s.handleCreateWorld).Methods("POST")
	api.HandleFunc("/worlds/check", s.handleCheckWorld).Methods("GET")
	api.HandleFunc("/worlds/{world_id}/synopsis", s.handleSynopsis).Methods("GET")

	api.HandleFunc("/characters", s.handleCreateCharacter).Methods("POST")
	api.HandleFunc("/characters/check", s.handleCheckCharacter).Methods("GET")

	api.HandleFunc("/gameplay/join", s.handleJoinGame).Methods("POST")
	api.HandleFunc("/gameplay/prompt", s.handleGamePrompt).Methods("GET")
	api.HandleFunc("/gameplay/action", s.handleRegisterAnswer).Methods("POST")
	api.HandleFunc("/gameplay/end", s.handleEndSession).Methods("POST")

	router.Handle("/metrics", promhttp.Handler())
	return router
}

// observe records the metrics for one handled request.
func observe(method, endpoint, status string, start time.Time) {
	apiRequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	apiRequestDuration.WithLabelValues(method, endpoint).Observe(time.Since(start).Seconds())
}

func writeJSONResponse(w http.ResponseWriter, code int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(data)
}

// writeError maps a domain error to a failure response. No error
// crosses this boundary uncaught or unclassified.
func writeError(w http.ResponseWriter, lang string, err error) {
	kind := narrative.KindOf(err)
	writeJSONResponse(w, statusFor(kind), map[string]interface{}{
		"success":    false,
		"error_kind": string(kind),
		"error":      err.Error(),
		"message":    message(lang, messageKeyFor(kind)),
	})
}

func statusFor(kind narrative.ErrorKind) int {
	switch kind {
	case narrative.KindNotFound, narrative.KindWorldNotFound:
		return http.StatusNotFound
	case narrative.KindDuplicateName, narrative.KindStateConflict:
		return http.StatusConflict
	case narrative.KindValidation:
		return http.StatusBadRequest
	case narrative.KindGeneration:
		return http.StatusBadGateway
	case narrative.KindMemoryUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func messageKeyFor(kind narrative.ErrorKind) string {
	switch kind {
	case narrative.KindNotFound, narrative.KindWorldNotFound:
		return "not_found"
	case narrative.KindDuplicateName:
		return "duplicate_name"
	case narrative.KindStateConflict:
		return "state_conflict"
	case narrative.KindValidation:
		return "missing_fields"
	case narrative.KindGeneration:
		return "generation_failed"
	case narrative.KindMemoryUnavailable:
		return "memory_unavailable"
	default:
		return "internal_error"
	}
}
