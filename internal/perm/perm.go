// Package perm answers can-view/can-edit/can-delete/can-create questions
// for form fields. Field permissions are not stored per field: they
// delegate to the owning form's policy.
package perm

import (
	"context"

	"github.com/google/uuid"

	"github.com/formforge/formforge/internal/field"
)

// FormPolicy answers permission questions at the form level. The host CMS
// supplies the real implementation; StaticPolicy covers standalone use.
type FormPolicy interface {
	CanViewForm(ctx context.Context, actor string, formID uuid.UUID) bool
	CanEditForm(ctx context.Context, actor string, formID uuid.UUID) bool
	CanDeleteForm(ctx context.Context, actor string, formID uuid.UUID) bool
	CanCreateInForm(ctx context.Context, actor string, formID uuid.UUID) bool
}

// CreationContext names the form a new field would be created under. The
// caller passes it explicitly; the oracle never inspects the ambient
// execution environment to guess which editor is open.
type CreationContext struct {
	FormID uuid.UUID
}

// Oracle resolves field-level permissions by delegating to the owning
// form's policy.
type Oracle struct {
	policy FormPolicy
}

// NewOracle creates an Oracle over the given form policy.
func NewOracle(policy FormPolicy) *Oracle {
	return &Oracle{policy: policy}
}

// CanView reports whether actor may view the field. Fields not yet attached
// to a form are not viewable by anyone.
func (o *Oracle) CanView(ctx context.Context, actor string, f *field.EditableField) bool {
	if f.FormID == uuid.Nil {
		return false
	}
	return o.policy.CanViewForm(ctx, actor, f.FormID)
}

// CanEdit reports whether actor may edit the field.
func (o *Oracle) CanEdit(ctx context.Context, actor string, f *field.EditableField) bool {
	if f.FormID == uuid.Nil {
		return false
	}
	return o.policy.CanEditForm(ctx, actor, f.FormID)
}

// CanDelete reports whether actor may delete the field.
func (o *Oracle) CanDelete(ctx context.Context, actor string, f *field.EditableField) bool {
	if f.FormID == uuid.Nil {
		return false
	}
	return o.policy.CanDeleteForm(ctx, actor, f.FormID)
}

// CanCreate reports whether actor may create a field in the context's form.
// An empty context is a denial, not an error.
func (o *Oracle) CanCreate(ctx context.Context, actor string, cc CreationContext) bool {
	if cc.FormID == uuid.Nil {
		return false
	}
	return o.policy.CanCreateInForm(ctx, actor, cc.FormID)
}

// StaticPolicy grants every action on every form to a fixed set of actors.
// It backs standalone deployments where the host CMS policy is absent.
type StaticPolicy struct {
	editors map[string]bool
}

// NewStaticPolicy creates a StaticPolicy allowing the named actors.
func NewStaticPolicy(editors []string) *StaticPolicy {
	m := make(map[string]bool, len(editors))
	for _, e := range editors {
		m[e] = true
	}
	return &StaticPolicy{editors: m}
}

func (p *StaticPolicy) CanViewForm(_ context.Context, actor string, _ uuid.UUID) bool {
	return p.editors[actor]
}

func (p *StaticPolicy) CanEditForm(_ context.Context, actor string, _ uuid.UUID) bool {
	return p.editors[actor]
}

func (p *StaticPolicy) CanDeleteForm(_ context.Context, actor string, _ uuid.UUID) bool {
	return p.editors[actor]
}

func (p *StaticPolicy) CanCreateInForm(_ context.Context, actor string, _ uuid.UUID) bool {
	return p.editors[actor]
}
