package httpapi

import "net/http"

// Localized human-readable messages attached to responses. English is
// the default; French is the only other supported language.
var messages = map[string]map[string]string{
	"en": {
		"world_created":      "World created successfully",
		"character_created":  "Character created successfully",
		"game_joined":        "Game joined successfully",
		"prompt_generated":   "Prompt generated successfully",
		"action_registered":  "Action registered successfully",
		"session_ended":      "Session ended",
		"missing_fields":     "Required fields are missing",
		"internal_error":     "An internal error occurred",
		"not_found":          "The requested resource was not found",
		"duplicate_name":     "This name is already taken",
		"state_conflict":     "This action is not allowed right now",
		"generation_failed":  "The narrative generator is unavailable",
		"memory_unavailable": "The lore memory is unavailable",
	},
	"fr": {
		"world_created":      "Monde créé avec succès",
		"character_created":  "Personnage créé avec succès",
		"game_joined":        "Partie rejointe avec succès",
		"prompt_generated":   "Situation générée avec succès",
		"action_registered":  "Action enregistrée avec succès",
		"session_ended":      "Session terminée",
		"missing_fields":     "Des champs obligatoires sont manquants",
		"internal_error":     "Une erreur interne est survenue",
		"not_found":          "La ressource demandée est introuvable",
		"duplicate_name":     "Ce nom est déjà pris",
		"state_conflict":     "Cette action n'est pas autorisée pour le moment",
		"generation_failed":  "Le générateur narratif est indisponible",
		"memory_unavailable": "La mémoire narrative est indisponible",
	},
}

// langFrom picks the response language from the lang query parameter,
// defaulting to English.
func langFrom(r *http.Request) string {
	lang := r.URL.Query().Get("lang")
	if lang != "fr" && lang != "en" {
		return "en"
	}
	return lang
}

func message(lang, key string) string {
	if m, ok := messages[lang][key]; ok {
		return m
	}
	return messages["en"][key]
}
