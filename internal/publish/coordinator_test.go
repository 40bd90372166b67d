package publish

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/formforge/formforge/internal/field"
	"github.com/formforge/formforge/internal/store"
)

func seedField(t *testing.T, st store.Store, formID uuid.UUID) *field.EditableField {
	t.Helper()
	f := &field.EditableField{
		ID:     uuid.New(),
		FormID: formID,
		Name:   "Field" + uuid.NewString()[:8],
		Kind:   "EditableTextField",
		Role:   field.RoleOrdinary,
		Sort:   1,
	}
	if err := st.CreateField(context.Background(), f); err != nil {
		t.Fatalf("CreateField: %v", err)
	}
	return f
}

func seedRule(t *testing.T, st store.Store, fieldID uuid.UUID) *field.DisplayRule {
	t.Helper()
	r := &field.DisplayRule{
		ID:       uuid.New(),
		FieldID:  fieldID,
		Operator: field.OpIsNotBlank,
	}
	if err := st.CreateRule(context.Background(), r); err != nil {
		t.Fatalf("CreateRule: %v", err)
	}
	return r
}

func liveRuleIDs(t *testing.T, st store.Store, fieldID uuid.UUID) map[uuid.UUID]bool {
	t.Helper()
	rules, err := st.RulesForField(context.Background(), fieldID, store.StageLive)
	if err != nil {
		t.Fatalf("RulesForField: %v", err)
	}
	ids := make(map[uuid.UUID]bool, len(rules))
	for _, r := range rules {
		ids[r.ID] = true
	}
	return ids
}

func TestPublish_CopiesFieldAndRules(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	c := NewCoordinator(st)

	f := seedField(t, st, uuid.New())
	r1 := seedRule(t, st, f.ID)
	r2 := seedRule(t, st, f.ID)

	if err := c.Publish(ctx, f.ID, store.StageDraft, store.StageLive, true); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	if _, err := st.FieldByID(ctx, f.ID, store.StageLive); err != nil {
		t.Fatalf("live field missing after publish: %v", err)
	}
	live := liveRuleIDs(t, st, f.ID)
	if !live[r1.ID] || !live[r2.ID] || len(live) != 2 {
		t.Errorf("live rules = %v, want exactly {%s, %s}", live, r1.ID, r2.ID)
	}
}

func TestPublish_RemovesOrphanedLiveRules(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	c := NewCoordinator(st)

	f := seedField(t, st, uuid.New())
	r1 := seedRule(t, st, f.ID)
	r2 := seedRule(t, st, f.ID)

	// First publish puts r1 and r2 live.
	if err := c.Publish(ctx, f.ID, store.StageDraft, store.StageLive, true); err != nil {
		t.Fatalf("first Publish: %v", err)
	}

	// The editor deletes r1 and adds r3 on draft, then republishes.
	if err := st.DeleteRule(ctx, r1.ID); err != nil {
		t.Fatalf("DeleteRule: %v", err)
	}
	r3 := seedRule(t, st, f.ID)

	if err := c.Publish(ctx, f.ID, store.StageDraft, store.StageLive, true); err != nil {
		t.Fatalf("second Publish: %v", err)
	}

	live := liveRuleIDs(t, st, f.ID)
	if live[r1.ID] {
		t.Error("orphaned rule r1 still live after republish")
	}
	if !live[r2.ID] || !live[r3.ID] {
		t.Errorf("live rules = %v, want r2 and r3", live)
	}
	if len(live) != 2 {
		t.Errorf("live rule count = %d, want 2", len(live))
	}
}

func TestPublish_Idempotent(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	c := NewCoordinator(st)

	f := seedField(t, st, uuid.New())
	r := seedRule(t, st, f.ID)

	for i := 0; i < 3; i++ {
		if err := c.Publish(ctx, f.ID, store.StageDraft, store.StageLive, true); err != nil {
			t.Fatalf("Publish #%d: %v", i+1, err)
		}
	}

	live := liveRuleIDs(t, st, f.ID)
	if len(live) != 1 || !live[r.ID] {
		t.Errorf("live rules = %v, want exactly {%s}", live, r.ID)
	}
}

func TestPublish_UnknownField(t *testing.T) {
	c := NewCoordinator(store.NewMemoryStore())
	err := c.Publish(context.Background(), uuid.New(), store.StageDraft, store.StageLive, true)
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestPublish_InvalidStage(t *testing.T) {
	c := NewCoordinator(store.NewMemoryStore())
	if err := c.Publish(context.Background(), uuid.New(), "draft", "archive", true); err == nil {
		t.Error("expected error for unknown target stage")
	}
}

func TestDeleteFromStage_RemovesFieldAndRules(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	c := NewCoordinator(st)

	f := seedField(t, st, uuid.New())
	seedRule(t, st, f.ID)
	if err := c.Publish(ctx, f.ID, store.StageDraft, store.StageLive, true); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	// Unpublish: live copies go, draft copies stay.
	if err := c.DeleteFromStage(ctx, f.ID, store.StageLive); err != nil {
		t.Fatalf("DeleteFromStage: %v", err)
	}

	if _, err := st.FieldByID(ctx, f.ID, store.StageLive); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("live field err = %v, want ErrNotFound", err)
	}
	if len(liveRuleIDs(t, st, f.ID)) != 0 {
		t.Error("live rules survived DeleteFromStage")
	}
	if _, err := st.FieldByID(ctx, f.ID, store.StageDraft); err != nil {
		t.Errorf("draft field gone after live delete: %v", err)
	}
	draft, _ := st.RulesForField(ctx, f.ID, store.StageDraft)
	if len(draft) != 1 {
		t.Errorf("draft rules = %d, want 1", len(draft))
	}
}
