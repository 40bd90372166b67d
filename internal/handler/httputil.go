package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/formforge/formforge/internal/field"
	"github.com/formforge/formforge/internal/store"
)

// writeJSON marshals v as JSON and writes it with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("writeJSON encode error: %v", err)
	}
}

// writeError writes a structured JSON error response.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]string{
		"error": message,
		"code":  code,
	})
}

// decodeJSON decodes the request body into v.
func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

// parseUUID extracts and validates a UUID path parameter.
func parseUUID(w http.ResponseWriter, r *http.Request, paramName string) (uuid.UUID, bool) {
	raw := chi.URLParam(r, paramName)
	id, err := uuid.Parse(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "invalid UUID: "+raw)
		return uuid.Nil, false
	}
	return id, true
}

// parseStage reads the ?stage= query parameter, defaulting to draft.
func parseStage(w http.ResponseWriter, r *http.Request) (store.Stage, bool) {
	raw := r.URL.Query().Get("stage")
	if raw == "" {
		return store.StageDraft, true
	}
	stage := store.Stage(raw)
	if !stage.Valid() {
		writeError(w, http.StatusBadRequest, "INVALID_STAGE", "unknown stage: "+raw)
		return "", false
	}
	return stage, true
}

// requireActor extracts the acting user from the X-Actor header.
func requireActor(w http.ResponseWriter, r *http.Request) (string, bool) {
	actor := r.Header.Get("X-Actor")
	if actor == "" {
		writeError(w, http.StatusBadRequest, "MISSING_ACTOR", "X-Actor header is required")
		return "", false
	}
	return actor, true
}

// storeErrorToHTTP maps store and validation errors to HTTP responses.
func storeErrorToHTTP(w http.ResponseWriter, err error) {
	var verr *field.ValidationError
	if errors.As(err, &verr) {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", verr.Error())
		return
	}
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "NOT_FOUND", err.Error())
		return
	}
	log.Printf("internal error: %v", err)
	writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
}
