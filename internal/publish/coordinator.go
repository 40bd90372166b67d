// Package publish coordinates moving a field and its display rules between
// the draft and live stages of the versioning model.
package publish

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/formforge/formforge/internal/store"
)

// Coordinator publishes and unpublishes fields together with their owned
// display rules. The whole publish sequence runs in one store transaction:
// either the field, all of its rules, and the orphan cleanup land together,
// or none of them do.
type Coordinator struct {
	store store.Store
}

// NewCoordinator creates a Coordinator over the given store.
func NewCoordinator(s store.Store) *Coordinator {
	return &Coordinator{store: s}
}

// Publish copies the field from one stage to the other, republishes every
// rule currently attached on the source stage, and removes target-stage
// rules the source no longer produces (orphans: rules deleted or reparented
// in the source since the last publish).
func (c *Coordinator) Publish(ctx context.Context, fieldID uuid.UUID, from, to store.Stage, createNewVersion bool) error {
	if !from.Valid() || !to.Valid() {
		return fmt.Errorf("invalid stage transition %q -> %q", from, to)
	}

	return c.store.WithTx(ctx, func(tx store.Store) error {
		if err := tx.PublishField(ctx, fieldID, from, to, createNewVersion); err != nil {
			return fmt.Errorf("publishing field %s: %w", fieldID, err)
		}

		rules, err := tx.RulesForField(ctx, fieldID, from)
		if err != nil {
			return fmt.Errorf("loading %s rules for field %s: %w", from, fieldID, err)
		}

		seen := make(map[uuid.UUID]bool, len(rules))
		for _, r := range rules {
			if err := tx.PublishRule(ctx, r.ID, from, to, createNewVersion); err != nil {
				return fmt.Errorf("publishing rule %s: %w", r.ID, err)
			}
			seen[r.ID] = true
		}

		targetRules, err := tx.RulesForField(ctx, fieldID, to)
		if err != nil {
			return fmt.Errorf("loading %s rules for field %s: %w", to, fieldID, err)
		}
		for _, r := range targetRules {
			if seen[r.ID] {
				continue
			}
			if err := tx.DeleteRuleFromStage(ctx, r.ID, to); err != nil {
				return fmt.Errorf("removing orphan rule %s from %s: %w", r.ID, to, err)
			}
			log.Printf("publish: removed orphan rule %s for field %s from %s", r.ID, fieldID, to)
		}
		return nil
	})
}

// DeleteFromStage removes the field and its display rules from one stage.
// Rules go first so the stage never holds rules referencing a missing field.
func (c *Coordinator) DeleteFromStage(ctx context.Context, fieldID uuid.UUID, stage store.Stage) error {
	if !stage.Valid() {
		return fmt.Errorf("invalid stage %q", stage)
	}

	return c.store.WithTx(ctx, func(tx store.Store) error {
		rules, err := tx.RulesForField(ctx, fieldID, stage)
		if err != nil {
			return fmt.Errorf("loading %s rules for field %s: %w", stage, fieldID, err)
		}
		for _, r := range rules {
			if err := tx.DeleteRuleFromStage(ctx, r.ID, stage); err != nil {
				return fmt.Errorf("deleting rule %s from %s: %w", r.ID, stage, err)
			}
		}
		if err := tx.DeleteFieldFromStage(ctx, fieldID, stage); err != nil {
			return fmt.Errorf("deleting field %s from %s: %w", fieldID, stage, err)
		}
		return nil
	})
}
