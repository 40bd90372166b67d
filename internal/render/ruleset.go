// Package render compiles a form's fields into the rule-set descriptors the
// front-end conditional-visibility runtime consumes.
package render

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/formforge/formforge/internal/field"
	"github.com/formforge/formforge/internal/store"
)

// RuleSets compiles the display rules of every field on a form at the given
// stage. Fields without effective rules contribute nothing. Watched-field
// lookups resolve against the same stage, so a draft preview and the live
// form can disagree while edits are pending.
func RuleSets(ctx context.Context, s store.Store, formID uuid.UUID, stage store.Stage) ([]*field.RuleSet, error) {
	fields, err := s.FieldsByForm(ctx, formID, stage)
	if err != nil {
		return nil, fmt.Errorf("loading %s fields for form %s: %w", stage, formID, err)
	}

	lookup := func(id uuid.UUID) (*field.EditableField, error) {
		f, err := s.FieldByID(ctx, id, stage)
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil
		}
		return f, err
	}

	var out []*field.RuleSet
	for _, f := range fields {
		rules, err := s.RulesForField(ctx, f.ID, stage)
		if err != nil {
			return nil, fmt.Errorf("loading rules for field %s: %w", f.ID, err)
		}
		rs, err := field.CompileDisplayRules(f, rules, lookup)
		if err != nil {
			return nil, err
		}
		if rs != nil {
			out = append(out, rs)
		}
	}
	return out, nil
}
