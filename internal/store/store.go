// Package store defines the record store the form-field engine runs
// against, with a SQLite implementation for deployments and an in-memory
// implementation for demos and tests.
package store

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/formforge/formforge/internal/field"
	"github.com/formforge/formforge/internal/submission"
)

// Stage is one of the two persisted states in the versioning model.
type Stage string

const (
	StageDraft Stage = "draft"
	StageLive  Stage = "live"
)

// Valid reports whether s names a known stage.
func (s Stage) Valid() bool {
	return s == StageDraft || s == StageLive
}

// ErrNotFound is returned by ID lookups when no row exists. Best-effort
// lookups (by name) return (nil, nil) instead.
var ErrNotFound = errors.New("store: not found")

// Store is the full record store contract. Field and rule writes always
// target the draft stage; the live stage is only written through the
// publish operations.
type Store interface {
	// Forms
	CreateForm(ctx context.Context, f *field.Form) error
	FormByID(ctx context.Context, id uuid.UUID) (*field.Form, error)
	ListForms(ctx context.Context) ([]*field.Form, error)
	UpdateForm(ctx context.Context, f *field.Form) error
	// DeleteForm removes the form and everything under it: fields and rules
	// on both stages, submissions, and submitted values.
	DeleteForm(ctx context.Context, id uuid.UUID) error

	// Fields
	CreateField(ctx context.Context, f *field.EditableField) error
	UpdateField(ctx context.Context, f *field.EditableField) error
	FieldByID(ctx context.Context, id uuid.UUID, stage Stage) (*field.EditableField, error)
	// FieldsByForm returns a form's fields ordered by Sort ascending.
	FieldsByForm(ctx context.Context, formID uuid.UUID, stage Stage) ([]*field.EditableField, error)
	// FieldByFormAndName is a best-effort lookup: (nil, nil) when absent.
	FieldByFormAndName(ctx context.Context, formID uuid.UUID, name string) (*field.EditableField, error)
	FieldNameExists(ctx context.Context, name string) (bool, error)
	MaxSortForForm(ctx context.Context, formID uuid.UUID) (int, error)

	// Display rules
	CreateRule(ctx context.Context, r *field.DisplayRule) error
	DeleteRule(ctx context.Context, id uuid.UUID) error
	RulesForField(ctx context.Context, fieldID uuid.UUID, stage Stage) ([]*field.DisplayRule, error)

	// Submissions
	CreateSubmission(ctx context.Context, s *submission.Submission, values []*submission.SubmittedValue) error
	SubmissionByID(ctx context.Context, id uuid.UUID) (*submission.Submission, error)
	ValuesForSubmission(ctx context.Context, submissionID uuid.UUID) ([]*submission.SubmittedValue, error)

	// Versioning. Publish copies a row between stages; createNewVersion
	// bumps the row's version number on the target stage.
	PublishField(ctx context.Context, id uuid.UUID, from, to Stage, createNewVersion bool) error
	PublishRule(ctx context.Context, id uuid.UUID, from, to Stage, createNewVersion bool) error
	DeleteFieldFromStage(ctx context.Context, id uuid.UUID, stage Stage) error
	DeleteRuleFromStage(ctx context.Context, id uuid.UUID, stage Stage) error

	// WithTx runs fn against a store view whose writes commit or roll back
	// together. Implementations without real transactions serialize fn.
	WithTx(ctx context.Context, fn func(Store) error) error
}
