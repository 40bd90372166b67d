package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/formforge/formforge/internal/event"
	"github.com/formforge/formforge/internal/field"
	"github.com/formforge/formforge/internal/perm"
	"github.com/formforge/formforge/internal/publish"
	"github.com/formforge/formforge/internal/store"
)

// eventPublisher is the slice of the event bus handlers need.
type eventPublisher interface {
	Publish(ctx context.Context, evt event.DomainEvent)
}

// FieldHandler implements HTTP handlers for editable fields and their
// display rules.
type FieldHandler struct {
	store       store.Store
	lifecycle   *field.Lifecycle
	coordinator *publish.Coordinator
	oracle      *perm.Oracle
	bus         eventPublisher
}

// NewFieldHandler creates a FieldHandler.
func NewFieldHandler(s store.Store, lc *field.Lifecycle, co *publish.Coordinator, oracle *perm.Oracle, bus eventPublisher) *FieldHandler {
	return &FieldHandler{store: s, lifecycle: lc, coordinator: co, oracle: oracle, bus: bus}
}

type createFieldRequest struct {
	FormID             string `json:"form_id"`
	Name               string `json:"name,omitempty"`
	Title              string `json:"title"`
	Kind               string `json:"kind"`
	Required           bool   `json:"required"`
	ShowOnLoad         *bool  `json:"show_on_load,omitempty"`
	Conjunction        string `json:"display_rules_conjunction,omitempty"`
	Default            string `json:"default,omitempty"`
	ExtraClass         string `json:"extra_class,omitempty"`
	RightTitle         string `json:"right_title,omitempty"`
	Placeholder        string `json:"placeholder,omitempty"`
	CustomErrorMessage string `json:"custom_error_message,omitempty"`
}

func (h *FieldHandler) CreateField(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	var req createFieldRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", err.Error())
		return
	}

	formID, err := uuid.Parse(req.FormID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "invalid form_id")
		return
	}
	if !h.oracle.CanCreate(r.Context(), actor, perm.CreationContext{FormID: formID}) {
		writeError(w, http.StatusForbidden, "FORBIDDEN", "not allowed to create fields in this form")
		return
	}
	if _, err := h.store.FormByID(r.Context(), formID); err != nil {
		storeErrorToHTTP(w, err)
		return
	}

	now := time.Now().UTC()
	showOnLoad := true
	if req.ShowOnLoad != nil {
		showOnLoad = *req.ShowOnLoad
	}
	f := &field.EditableField{
		ID:                      uuid.New(),
		FormID:                  formID,
		Name:                    req.Name,
		Title:                   req.Title,
		Kind:                    req.Kind,
		Required:                req.Required,
		ShowOnLoad:              showOnLoad,
		DisplayRulesConjunction: parseConjunction(req.Conjunction),
		Default:                 req.Default,
		ExtraClass:              req.ExtraClass,
		RightTitle:              req.RightTitle,
		Placeholder:             req.Placeholder,
		CustomErrorMessage:      req.CustomErrorMessage,
		CreatedAt:               now,
		UpdatedAt:               now,
	}

	if err := h.lifecycle.BeforeWrite(r.Context(), f); err != nil {
		storeErrorToHTTP(w, err)
		return
	}
	if err := h.store.CreateField(r.Context(), f); err != nil {
		storeErrorToHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, f)
}

func (h *FieldHandler) GetField(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUID(w, r, "id")
	if !ok {
		return
	}
	stage, ok := parseStage(w, r)
	if !ok {
		return
	}
	f, err := h.store.FieldByID(r.Context(), id, stage)
	if err != nil {
		storeErrorToHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusOK, f)
}

func (h *FieldHandler) ListFields(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("form_id")
	formID, err := uuid.Parse(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "form_id query parameter is required")
		return
	}
	stage, ok := parseStage(w, r)
	if !ok {
		return
	}
	fields, err := h.store.FieldsByForm(r.Context(), formID, stage)
	if err != nil {
		storeErrorToHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusOK, fields)
}

type updateFieldRequest struct {
	Title              *string `json:"title,omitempty"`
	Name               *string `json:"name,omitempty"`
	Required           *bool   `json:"required,omitempty"`
	ShowOnLoad         *bool   `json:"show_on_load,omitempty"`
	Conjunction        *string `json:"display_rules_conjunction,omitempty"`
	Sort               *int    `json:"sort,omitempty"`
	Default            *string `json:"default,omitempty"`
	ExtraClass         *string `json:"extra_class,omitempty"`
	RightTitle         *string `json:"right_title,omitempty"`
	Placeholder        *string `json:"placeholder,omitempty"`
	CustomErrorMessage *string `json:"custom_error_message,omitempty"`
}

func (h *FieldHandler) UpdateField(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUID(w, r, "id")
	if !ok {
		return
	}
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	var req updateFieldRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", err.Error())
		return
	}

	f, err := h.store.FieldByID(r.Context(), id, store.StageDraft)
	if err != nil {
		storeErrorToHTTP(w, err)
		return
	}
	if !h.oracle.CanEdit(r.Context(), actor, f) {
		writeError(w, http.StatusForbidden, "FORBIDDEN", "not allowed to edit this field")
		return
	}

	if req.Title != nil {
		f.Title = *req.Title
	}
	if req.Name != nil {
		f.Name = *req.Name
	}
	if req.Required != nil {
		f.Required = *req.Required
	}
	if req.ShowOnLoad != nil {
		f.ShowOnLoad = *req.ShowOnLoad
	}
	if req.Conjunction != nil {
		f.DisplayRulesConjunction = parseConjunction(*req.Conjunction)
	}
	if req.Sort != nil {
		f.Sort = *req.Sort
	}
	if req.Default != nil {
		f.Default = *req.Default
	}
	if req.ExtraClass != nil {
		f.ExtraClass = *req.ExtraClass
	}
	if req.RightTitle != nil {
		f.RightTitle = *req.RightTitle
	}
	if req.Placeholder != nil {
		f.Placeholder = *req.Placeholder
	}
	if req.CustomErrorMessage != nil {
		f.CustomErrorMessage = *req.CustomErrorMessage
	}

	if err := h.lifecycle.BeforeWrite(r.Context(), f); err != nil {
		storeErrorToHTTP(w, err)
		return
	}
	if err := h.store.UpdateField(r.Context(), f); err != nil {
		storeErrorToHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusOK, f)
}

// DeleteField removes the field and its rules from the draft stage. The
// live stage keeps serving the last published version until unpublish.
func (h *FieldHandler) DeleteField(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUID(w, r, "id")
	if !ok {
		return
	}
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	f, err := h.store.FieldByID(r.Context(), id, store.StageDraft)
	if err != nil {
		storeErrorToHTTP(w, err)
		return
	}
	if !h.oracle.CanDelete(r.Context(), actor, f) {
		writeError(w, http.StatusForbidden, "FORBIDDEN", "not allowed to delete this field")
		return
	}
	if err := h.coordinator.DeleteFromStage(r.Context(), id, store.StageDraft); err != nil {
		storeErrorToHTTP(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type publishRequest struct {
	CreateNewVersion *bool `json:"create_new_version,omitempty"`
}

func (h *FieldHandler) PublishField(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUID(w, r, "id")
	if !ok {
		return
	}
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	f, err := h.store.FieldByID(r.Context(), id, store.StageDraft)
	if err != nil {
		storeErrorToHTTP(w, err)
		return
	}
	if !h.oracle.CanEdit(r.Context(), actor, f) {
		writeError(w, http.StatusForbidden, "FORBIDDEN", "not allowed to publish this field")
		return
	}

	newVersion := true
	var req publishRequest
	if err := decodeJSON(r, &req); err == nil && req.CreateNewVersion != nil {
		newVersion = *req.CreateNewVersion
	}

	if err := h.coordinator.Publish(r.Context(), id, store.StageDraft, store.StageLive, newVersion); err != nil {
		storeErrorToHTTP(w, err)
		return
	}

	rules, err := h.store.RulesForField(r.Context(), id, store.StageLive)
	if err != nil {
		storeErrorToHTTP(w, err)
		return
	}
	h.bus.Publish(r.Context(), event.NewFieldPublished(event.FieldPublishedPayload{
		FieldID:   f.ID.String(),
		FormID:    f.FormID.String(),
		FieldName: f.Name,
		FromStage: string(store.StageDraft),
		ToStage:   string(store.StageLive),
		RuleCount: len(rules),
	}))
	writeJSON(w, http.StatusOK, map[string]any{"published": true, "rules": len(rules)})
}

func (h *FieldHandler) UnpublishField(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUID(w, r, "id")
	if !ok {
		return
	}
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	f, err := h.store.FieldByID(r.Context(), id, store.StageLive)
	if err != nil {
		storeErrorToHTTP(w, err)
		return
	}
	if !h.oracle.CanEdit(r.Context(), actor, f) {
		writeError(w, http.StatusForbidden, "FORBIDDEN", "not allowed to unpublish this field")
		return
	}
	if err := h.coordinator.DeleteFromStage(r.Context(), id, store.StageLive); err != nil {
		storeErrorToHTTP(w, err)
		return
	}
	h.bus.Publish(r.Context(), event.NewFieldUnpublished(event.FieldUnpublishedPayload{
		FieldID:   f.ID.String(),
		FormID:    f.FormID.String(),
		FieldName: f.Name,
		Stage:     string(store.StageLive),
	}))
	writeJSON(w, http.StatusOK, map[string]any{"unpublished": true})
}

// FieldNumber returns the dotted nesting index of a draft field within its
// parent form, e.g. {"number": "1.2.1"}. An empty number means the field is
// outside any page structure.
func (h *FieldHandler) FieldNumber(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUID(w, r, "id")
	if !ok {
		return
	}
	f, err := h.store.FieldByID(r.Context(), id, store.StageDraft)
	if err != nil {
		storeErrorToHTTP(w, err)
		return
	}
	siblings, err := h.store.FieldsByForm(r.Context(), f.FormID, store.StageDraft)
	if err != nil {
		storeErrorToHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"number": field.FieldNumber(f, siblings)})
}

type createRuleRequest struct {
	ConditionFieldID string `json:"condition_field_id"`
	Operator         string `json:"operator"`
	FieldValue       string `json:"field_value,omitempty"`
}

var knownOperators = map[field.Operator]bool{
	field.OpIsBlank:            true,
	field.OpIsNotBlank:         true,
	field.OpEquals:             true,
	field.OpNotEquals:          true,
	field.OpLessThan:           true,
	field.OpLessThanOrEqual:    true,
	field.OpGreaterThan:        true,
	field.OpGreaterThanOrEqual: true,
}

func (h *FieldHandler) CreateRule(w http.ResponseWriter, r *http.Request) {
	fieldID, ok := parseUUID(w, r, "id")
	if !ok {
		return
	}
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	var req createRuleRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", err.Error())
		return
	}
	conditionFieldID, err := uuid.Parse(req.ConditionFieldID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "invalid condition_field_id")
		return
	}
	op := field.Operator(req.Operator)
	if !knownOperators[op] {
		writeError(w, http.StatusBadRequest, "INVALID_OPERATOR", "unknown operator: "+req.Operator)
		return
	}

	owner, err := h.store.FieldByID(r.Context(), fieldID, store.StageDraft)
	if err != nil {
		storeErrorToHTTP(w, err)
		return
	}
	if !h.oracle.CanEdit(r.Context(), actor, owner) {
		writeError(w, http.StatusForbidden, "FORBIDDEN", "not allowed to edit this field")
		return
	}

	rule := &field.DisplayRule{
		ID:               uuid.New(),
		FieldID:          fieldID,
		ConditionFieldID: conditionFieldID,
		Operator:         op,
		FieldValue:       req.FieldValue,
	}
	if err := h.store.CreateRule(r.Context(), rule); err != nil {
		storeErrorToHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rule)
}

func (h *FieldHandler) DeleteRule(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUID(w, r, "id")
	if !ok {
		return
	}
	if _, ok := requireActor(w, r); !ok {
		return
	}
	if err := h.store.DeleteRule(r.Context(), id); err != nil {
		storeErrorToHTTP(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func parseConjunction(raw string) field.Conjunction {
	if raw == string(field.ConjunctionOr) || raw == "Or" {
		return field.ConjunctionOr
	}
	return field.ConjunctionAnd
}
