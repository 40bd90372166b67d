// Package event defines the domain events emitted by the field engine:
// publish lifecycle changes and received submissions.
package event

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Event types emitted by the engine.
const (
	TypeFieldPublished     = "field_published"
	TypeFieldUnpublished   = "field_unpublished"
	TypeSubmissionReceived = "submission_received"
)

// EntityRef identifies an entity touched by a domain event.
type EntityRef struct {
	EntityType string `json:"entity_type"` // "form", "field", "submission"
	EntityID   string `json:"entity_id"`
	Role       string `json:"role"` // "subject", "context"
}

// DomainEvent is the canonical shape of every event on the bus.
type DomainEvent struct {
	ID               string          `json:"id"`
	EventType        string          `json:"event_type"`
	OccurredAt       time.Time       `json:"occurred_at"`
	AffectedEntities []EntityRef     `json:"affected_entities"`
	Summary          string          `json:"summary"`
	Payload          json.RawMessage `json:"payload"`
}

func newID() string { return uuid.New().String() }

func mustJSON(v any) json.RawMessage {
	b, _ := json.Marshal(v)
	return b
}

// FieldPublishedPayload carries event-specific data for field_published.
type FieldPublishedPayload struct {
	FieldID   string `json:"field_id"`
	FormID    string `json:"form_id"`
	FieldName string `json:"field_name"`
	FromStage string `json:"from_stage"`
	ToStage   string `json:"to_stage"`
	RuleCount int    `json:"rule_count"`
}

// NewFieldPublished builds the event emitted after a successful publish.
func NewFieldPublished(p FieldPublishedPayload) DomainEvent {
	return DomainEvent{
		ID:         newID(),
		EventType:  TypeFieldPublished,
		OccurredAt: time.Now(),
		AffectedEntities: []EntityRef{
			{EntityType: "field", EntityID: p.FieldID, Role: "subject"},
			{EntityType: "form", EntityID: p.FormID, Role: "context"},
		},
		Summary: fmt.Sprintf("Field %s published to %s (%d rules)", p.FieldName, p.ToStage, p.RuleCount),
		Payload: mustJSON(p),
	}
}

// FieldUnpublishedPayload carries event-specific data for field_unpublished.
type FieldUnpublishedPayload struct {
	FieldID   string `json:"field_id"`
	FormID    string `json:"form_id"`
	FieldName string `json:"field_name"`
	Stage     string `json:"stage"`
}

// NewFieldUnpublished builds the event emitted after a stage delete.
func NewFieldUnpublished(p FieldUnpublishedPayload) DomainEvent {
	return DomainEvent{
		ID:         newID(),
		EventType:  TypeFieldUnpublished,
		OccurredAt: time.Now(),
		AffectedEntities: []EntityRef{
			{EntityType: "field", EntityID: p.FieldID, Role: "subject"},
			{EntityType: "form", EntityID: p.FormID, Role: "context"},
		},
		Summary: fmt.Sprintf("Field %s removed from %s", p.FieldName, p.Stage),
		Payload: mustJSON(p),
	}
}

// SubmissionReceivedPayload carries event-specific data for submission_received.
type SubmissionReceivedPayload struct {
	SubmissionID string `json:"submission_id"`
	FormID       string `json:"form_id"`
	ValueCount   int    `json:"value_count"`
}

// NewSubmissionReceived builds the event emitted after a submission is stored.
func NewSubmissionReceived(p SubmissionReceivedPayload) DomainEvent {
	return DomainEvent{
		ID:         newID(),
		EventType:  TypeSubmissionReceived,
		OccurredAt: time.Now(),
		AffectedEntities: []EntityRef{
			{EntityType: "submission", EntityID: p.SubmissionID, Role: "subject"},
			{EntityType: "form", EntityID: p.FormID, Role: "context"},
		},
		Summary: fmt.Sprintf("Submission with %d values received", p.ValueCount),
		Payload: mustJSON(p),
	}
}
