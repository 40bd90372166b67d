package handler

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/formforge/formforge/internal/field"
	"github.com/formforge/formforge/internal/perm"
	"github.com/formforge/formforge/internal/render"
	"github.com/formforge/formforge/internal/store"
)

// FormHandler implements HTTP handlers for forms and their compiled
// rule sets.
type FormHandler struct {
	store  store.Store
	policy perm.FormPolicy
}

// NewFormHandler creates a FormHandler.
func NewFormHandler(s store.Store, policy perm.FormPolicy) *FormHandler {
	return &FormHandler{store: s, policy: policy}
}

type createFormRequest struct {
	Title string `json:"title"`
}

func (h *FormHandler) CreateForm(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireActor(w, r); !ok {
		return
	}
	var req createFormRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", err.Error())
		return
	}
	if req.Title == "" {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "title is required")
		return
	}
	f := &field.Form{
		ID:        uuid.New(),
		Title:     req.Title,
		CreatedAt: time.Now().UTC(),
	}
	if err := h.store.CreateForm(r.Context(), f); err != nil {
		storeErrorToHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, f)
}

func (h *FormHandler) GetForm(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUID(w, r, "id")
	if !ok {
		return
	}
	f, err := h.store.FormByID(r.Context(), id)
	if err != nil {
		storeErrorToHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusOK, f)
}

type updateFormRequest struct {
	Title *string `json:"title,omitempty"`
}

func (h *FormHandler) UpdateForm(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUID(w, r, "id")
	if !ok {
		return
	}
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	if !h.policy.CanEditForm(r.Context(), actor, id) {
		writeError(w, http.StatusForbidden, "FORBIDDEN", "not allowed to edit this form")
		return
	}
	var req updateFormRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", err.Error())
		return
	}
	f, err := h.store.FormByID(r.Context(), id)
	if err != nil {
		storeErrorToHTTP(w, err)
		return
	}
	if req.Title != nil {
		if *req.Title == "" {
			writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "title cannot be empty")
			return
		}
		f.Title = *req.Title
	}
	if err := h.store.UpdateForm(r.Context(), f); err != nil {
		storeErrorToHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusOK, f)
}

// DeleteForm removes the form and everything under it on every stage.
func (h *FormHandler) DeleteForm(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUID(w, r, "id")
	if !ok {
		return
	}
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	if !h.policy.CanDeleteForm(r.Context(), actor, id) {
		writeError(w, http.StatusForbidden, "FORBIDDEN", "not allowed to delete this form")
		return
	}
	if err := h.store.DeleteForm(r.Context(), id); err != nil {
		storeErrorToHTTP(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *FormHandler) ListForms(w http.ResponseWriter, r *http.Request) {
	forms, err := h.store.ListForms(r.Context())
	if err != nil {
		storeErrorToHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusOK, forms)
}

// RuleSets returns the compiled conditional-visibility descriptors for every
// field of the form at the requested stage (default draft; the front-end
// runtime requests ?stage=live).
func (h *FormHandler) RuleSets(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUID(w, r, "id")
	if !ok {
		return
	}
	stage, ok := parseStage(w, r)
	if !ok {
		return
	}
	if _, err := h.store.FormByID(r.Context(), id); err != nil {
		storeErrorToHTTP(w, err)
		return
	}
	sets, err := render.RuleSets(r.Context(), h.store, id, stage)
	if err != nil {
		storeErrorToHTTP(w, err)
		return
	}
	if sets == nil {
		sets = []*field.RuleSet{}
	}
	writeJSON(w, http.StatusOK, sets)
}
