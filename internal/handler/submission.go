package handler

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/formforge/formforge/internal/event"
	"github.com/formforge/formforge/internal/store"
	"github.com/formforge/formforge/internal/submission"
)

// SubmissionHandler implements HTTP handlers for captured submissions.
type SubmissionHandler struct {
	store store.Store
	bus   eventPublisher
}

// NewSubmissionHandler creates a SubmissionHandler.
func NewSubmissionHandler(s store.Store, bus eventPublisher) *SubmissionHandler {
	return &SubmissionHandler{store: s, bus: bus}
}

type submitValueRequest struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type createSubmissionRequest struct {
	Values []submitValueRequest `json:"values"`
}

// CreateSubmission captures one completed form instance. Each value
// snapshots the field's Name and Title at submission time: later edits to
// the field definition never rewrite history.
func (h *SubmissionHandler) CreateSubmission(w http.ResponseWriter, r *http.Request) {
	formID, ok := parseUUID(w, r, "id")
	if !ok {
		return
	}
	var req createSubmissionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", err.Error())
		return
	}
	if _, err := h.store.FormByID(r.Context(), formID); err != nil {
		storeErrorToHTTP(w, err)
		return
	}

	liveFields, err := h.store.FieldsByForm(r.Context(), formID, store.StageLive)
	if err != nil {
		storeErrorToHTTP(w, err)
		return
	}
	titles := make(map[string]string, len(liveFields))
	for _, f := range liveFields {
		titles[f.Name] = f.Title
	}

	sub := &submission.Submission{
		ID:        uuid.New(),
		FormID:    formID,
		CreatedAt: time.Now().UTC(),
	}
	values := make([]*submission.SubmittedValue, 0, len(req.Values))
	for _, v := range req.Values {
		values = append(values, &submission.SubmittedValue{
			ID:           uuid.New(),
			SubmissionID: sub.ID,
			Name:         v.Name,
			Title:        titles[v.Name],
			Value:        v.Value,
		})
	}

	if err := h.store.CreateSubmission(r.Context(), sub, values); err != nil {
		storeErrorToHTTP(w, err)
		return
	}
	h.bus.Publish(r.Context(), event.NewSubmissionReceived(event.SubmissionReceivedPayload{
		SubmissionID: sub.ID.String(),
		FormID:       formID.String(),
		ValueCount:   len(values),
	}))
	writeJSON(w, http.StatusCreated, sub)
}

type submissionValueView struct {
	Name      string `json:"name"`
	Title     string `json:"title"`
	Formatted string `json:"formatted"`
}

type submissionView struct {
	ID        uuid.UUID             `json:"id"`
	FormID    uuid.UUID             `json:"form_id"`
	CreatedAt time.Time             `json:"created_at"`
	Values    []submissionValueView `json:"values"`
}

// GetSubmission returns the submission with values formatted for display:
// markup escaped, newlines as line breaks.
func (h *SubmissionHandler) GetSubmission(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUID(w, r, "id")
	if !ok {
		return
	}
	sub, err := h.store.SubmissionByID(r.Context(), id)
	if err != nil {
		storeErrorToHTTP(w, err)
		return
	}
	values, err := h.store.ValuesForSubmission(r.Context(), id)
	if err != nil {
		storeErrorToHTTP(w, err)
		return
	}

	view := submissionView{
		ID:        sub.ID,
		FormID:    sub.FormID,
		CreatedAt: sub.CreatedAt,
		Values:    make([]submissionValueView, 0, len(values)),
	}
	for _, v := range values {
		view.Values = append(view.Values, submissionValueView{
			Name:      v.Name,
			Title:     v.Title,
			Formatted: v.FormattedValue(),
		})
	}
	writeJSON(w, http.StatusOK, view)
}

// ExportSubmission returns raw values for machine-readable export. No
// markup escaping: a spreadsheet cell wants the bytes the user typed.
func (h *SubmissionHandler) ExportSubmission(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUID(w, r, "id")
	if !ok {
		return
	}
	if _, err := h.store.SubmissionByID(r.Context(), id); err != nil {
		storeErrorToHTTP(w, err)
		return
	}
	values, err := h.store.ValuesForSubmission(r.Context(), id)
	if err != nil {
		storeErrorToHTTP(w, err)
		return
	}

	out := make(map[string]string, len(values))
	for _, v := range values {
		out[v.Name] = v.ExportValue()
	}
	writeJSON(w, http.StatusOK, out)
}
