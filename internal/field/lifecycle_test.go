package field

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLifecycleStore struct {
	names   map[string]bool
	maxSort map[uuid.UUID]int
}

func newFakeLifecycleStore() *fakeLifecycleStore {
	return &fakeLifecycleStore{
		names:   make(map[string]bool),
		maxSort: make(map[uuid.UUID]int),
	}
}

func (s *fakeLifecycleStore) FieldNameExists(_ context.Context, name string) (bool, error) {
	return s.names[name], nil
}

func (s *fakeLifecycleStore) MaxSortForForm(_ context.Context, formID uuid.UUID) (int, error) {
	return s.maxSort[formID], nil
}

func TestBeforeWrite_GeneratesName(t *testing.T) {
	st := newFakeLifecycleStore()
	lc := NewLifecycle(st, nil)
	lc.SetRandSource(func() uint32 { return 0xabcde })

	f := &EditableField{Kind: "EditableTextField"}
	require.NoError(t, lc.BeforeWrite(context.Background(), f))
	assert.Equal(t, "EditableTextFieldabcde", f.Name)
}

func TestBeforeWrite_NameCollisionRetries(t *testing.T) {
	st := newFakeLifecycleStore()
	st.names["EditableTextField00001"] = true

	lc := NewLifecycle(st, nil)
	seq := []uint32{1, 1, 2} // first candidate collides twice, then a free one
	lc.SetRandSource(func() uint32 {
		v := seq[0]
		if len(seq) > 1 {
			seq = seq[1:]
		}
		return v
	})

	f := &EditableField{Kind: "EditableTextField"}
	require.NoError(t, lc.BeforeWrite(context.Background(), f))
	assert.Equal(t, "EditableTextField00002", f.Name)
}

func TestBeforeWrite_KeepsExplicitName(t *testing.T) {
	lc := NewLifecycle(newFakeLifecycleStore(), nil)
	f := &EditableField{Kind: "EditableTextField", Name: "ContactEmail"}
	require.NoError(t, lc.BeforeWrite(context.Background(), f))
	assert.Equal(t, "ContactEmail", f.Name)
}

func TestBeforeWrite_RejectsReservedName(t *testing.T) {
	lc := NewLifecycle(newFakeLifecycleStore(), nil)
	f := &EditableField{Kind: "EditableTextField", Name: ReservedName}

	err := lc.BeforeWrite(context.Background(), f)
	require.Error(t, err)
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestBeforeWrite_RejectsUnknownKind(t *testing.T) {
	lc := NewLifecycle(newFakeLifecycleStore(), nil)
	f := &EditableField{Kind: "EditableTelepathyField"}

	err := lc.BeforeWrite(context.Background(), f)
	require.Error(t, err)
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestBeforeWrite_ResolvesRole(t *testing.T) {
	lc := NewLifecycle(newFakeLifecycleStore(), nil)

	cases := []struct {
		kind string
		role Role
	}{
		{"EditableTextField", RoleOrdinary},
		{"EditableFormStep", RolePageBreak},
		{"EditableFieldGroup", RoleGroupStart},
		{"EditableFieldGroupEnd", RoleGroupEnd},
	}
	for _, tc := range cases {
		f := &EditableField{Kind: tc.kind}
		require.NoError(t, lc.BeforeWrite(context.Background(), f))
		assert.Equal(t, tc.role, f.Role, tc.kind)
	}
}

func TestBeforeWrite_AssignsSortAfterSiblings(t *testing.T) {
	formID := uuid.New()
	st := newFakeLifecycleStore()
	st.maxSort[formID] = 7

	lc := NewLifecycle(st, nil)
	f := &EditableField{Kind: "EditableTextField", FormID: formID}
	require.NoError(t, lc.BeforeWrite(context.Background(), f))
	assert.Equal(t, 8, f.Sort)
}

func TestBeforeWrite_KeepsExplicitSort(t *testing.T) {
	formID := uuid.New()
	st := newFakeLifecycleStore()
	st.maxSort[formID] = 7

	lc := NewLifecycle(st, nil)
	f := &EditableField{Kind: "EditableTextField", FormID: formID, Sort: 3}
	require.NoError(t, lc.BeforeWrite(context.Background(), f))
	assert.Equal(t, 3, f.Sort)
}

func TestBeforeWrite_NoSortWithoutParent(t *testing.T) {
	lc := NewLifecycle(newFakeLifecycleStore(), nil)
	f := &EditableField{Kind: "EditableTextField"}
	require.NoError(t, lc.BeforeWrite(context.Background(), f))
	assert.Equal(t, 0, f.Sort)
}

func TestBeforeWrite_ExtraClass(t *testing.T) {
	lc := NewLifecycle(newFakeLifecycleStore(), []string{"wide", "inline"})

	cases := []struct {
		extraClass string
		ok         bool
	}{
		{"", true},
		{"wide", true},
		{"wide inline", true},
		{"narrow", false},
		{"wide narrow", false},
	}
	for _, tc := range cases {
		t.Run(fmt.Sprintf("%q", tc.extraClass), func(t *testing.T) {
			f := &EditableField{Kind: "EditableTextField", ExtraClass: tc.extraClass}
			err := lc.BeforeWrite(context.Background(), f)
			if tc.ok {
				assert.NoError(t, err)
			} else {
				var verr *ValidationError
				assert.ErrorAs(t, err, &verr)
			}
		})
	}
}

func TestBeforeWrite_AnyClassAllowedWhenUnrestricted(t *testing.T) {
	lc := NewLifecycle(newFakeLifecycleStore(), nil)
	f := &EditableField{Kind: "EditableTextField", ExtraClass: "anything goes"}
	assert.NoError(t, lc.BeforeWrite(context.Background(), f))
}
