package render

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/formforge/formforge/internal/field"
	"github.com/formforge/formforge/internal/store"
)

func TestRuleSets_CompilesPerStage(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	formID := uuid.New()

	topic := &field.EditableField{
		ID: uuid.New(), FormID: formID, Name: "Topic",
		Kind: "EditableDropdown", Role: field.RoleOrdinary, Sort: 1,
	}
	details := &field.EditableField{
		ID: uuid.New(), FormID: formID, Name: "Details",
		Kind: "EditableTextareaField", Role: field.RoleOrdinary, Sort: 2,
		ShowOnLoad: false,
	}
	require.NoError(t, st.CreateField(ctx, topic))
	require.NoError(t, st.CreateField(ctx, details))
	require.NoError(t, st.CreateRule(ctx, &field.DisplayRule{
		ID:               uuid.New(),
		FieldID:          details.ID,
		ConditionFieldID: topic.ID,
		Operator:         field.OpEquals,
		FieldValue:       "order",
	}))

	draft, err := RuleSets(ctx, st, formID, store.StageDraft)
	require.NoError(t, err)
	require.Len(t, draft, 1)
	assert.Equal(t, "#Details", draft[0].TargetSelector)
	assert.Equal(t, []string{"[name='Topic']"}, draft[0].Selectors)
	assert.Equal(t, []string{"change"}, draft[0].Events)

	// Nothing has been published, so the live form compiles to nothing.
	liveSets, err := RuleSets(ctx, st, formID, store.StageLive)
	require.NoError(t, err)
	assert.Empty(t, liveSets)
}

func TestRuleSets_SkipsFieldsWithoutEffectiveRules(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	formID := uuid.New()

	watched := &field.EditableField{
		ID: uuid.New(), FormID: formID, Name: "Watched",
		Kind: "EditableTextField", Role: field.RoleOrdinary, Sort: 1,
	}
	// Required fields never compile rules.
	required := &field.EditableField{
		ID: uuid.New(), FormID: formID, Name: "Email",
		Kind: "EditableEmailField", Role: field.RoleOrdinary, Sort: 2,
		Required: true,
	}
	plain := &field.EditableField{
		ID: uuid.New(), FormID: formID, Name: "Plain",
		Kind: "EditableTextField", Role: field.RoleOrdinary, Sort: 3,
	}
	for _, f := range []*field.EditableField{watched, required, plain} {
		require.NoError(t, st.CreateField(ctx, f))
	}
	require.NoError(t, st.CreateRule(ctx, &field.DisplayRule{
		ID:               uuid.New(),
		FieldID:          required.ID,
		ConditionFieldID: watched.ID,
		Operator:         field.OpIsNotBlank,
	}))

	sets, err := RuleSets(ctx, st, formID, store.StageDraft)
	require.NoError(t, err)
	assert.Empty(t, sets)
}

func TestRuleSets_ToleratesDeletedWatchedField(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	formID := uuid.New()

	details := &field.EditableField{
		ID: uuid.New(), FormID: formID, Name: "Details",
		Kind: "EditableTextField", Role: field.RoleOrdinary, Sort: 1,
	}
	require.NoError(t, st.CreateField(ctx, details))
	// The rule watches a field that no longer exists anywhere.
	require.NoError(t, st.CreateRule(ctx, &field.DisplayRule{
		ID:               uuid.New(),
		FieldID:          details.ID,
		ConditionFieldID: uuid.New(),
		Operator:         field.OpIsBlank,
	}))

	sets, err := RuleSets(ctx, st, formID, store.StageDraft)
	require.NoError(t, err)
	assert.Empty(t, sets)
}
