// Package submission holds captured form submissions and the formatting
// applied to submitted values in reports, exports, and notification emails.
package submission

import (
	"context"
	"html"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/formforge/formforge/internal/field"
)

// Submission is one completed instance of a user sending a form.
type Submission struct {
	ID        uuid.UUID `json:"id"`
	FormID    uuid.UUID `json:"form_id"`
	CreatedAt time.Time `json:"created_at"`
}

// SubmittedValue is an immutable snapshot of one field's value within one
// submission. It carries its own copy of Name and Title: the originating
// field may be edited or deleted later without touching submissions.
type SubmittedValue struct {
	ID           uuid.UUID `json:"id"`
	SubmissionID uuid.UUID `json:"submission_id"`
	Name         string    `json:"name"`
	Title        string    `json:"title"`
	Value        string    `json:"value"`
}

// FormattedValue returns the captured value prepared for embedding in
// markup: special characters escaped and newlines converted to <br /> tags.
func (v *SubmittedValue) FormattedValue() string {
	escaped := html.EscapeString(v.Value)
	escaped = strings.ReplaceAll(escaped, "\r\n", "\n")
	return strings.ReplaceAll(escaped, "\n", "<br />")
}

// ExportValue returns the raw captured value unchanged. Tabular exports
// must not carry markup escaping.
func (v *SubmittedValue) ExportValue() string {
	return v.Value
}

// Source is the slice of the record store needed to trace a submitted value
// back to its field definition.
type Source interface {
	SubmissionByID(ctx context.Context, id uuid.UUID) (*Submission, error)
	FieldByFormAndName(ctx context.Context, formID uuid.UUID, name string) (*field.EditableField, error)
}

// EditableField resolves the field definition this value was captured from,
// matching by Name within the submission's form. Returns (nil, nil) when the
// field has since been renamed or deleted; callers must tolerate absence.
func (v *SubmittedValue) EditableField(ctx context.Context, src Source) (*field.EditableField, error) {
	sub, err := src.SubmissionByID(ctx, v.SubmissionID)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return nil, nil
	}
	return src.FieldByFormAndName(ctx, sub.FormID, v.Name)
}
