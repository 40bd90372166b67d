package field

import (
	"testing"

	"github.com/google/uuid"
)

// layoutField builds a saved field with the given kind, attached to formID.
func layoutField(formID uuid.UUID, kind string) *EditableField {
	return &EditableField{
		ID:     uuid.New(),
		FormID: formID,
		Kind:   kind,
		Role:   RoleForKind(kind),
	}
}

func TestFieldNumber_GroupThenSibling(t *testing.T) {
	formID := uuid.New()
	page := layoutField(formID, "EditableFormStep")
	groupStart := layoutField(formID, "EditableFieldGroup")
	inGroup := layoutField(formID, "EditableTextField")
	groupEnd := layoutField(formID, "EditableFieldGroupEnd")
	after := layoutField(formID, "EditableTextField")

	siblings := []*EditableField{page, groupStart, inGroup, groupEnd, after}

	if got := FieldNumber(inGroup, siblings); got != "1.1" {
		t.Errorf("in-group field number = %q, want %q", got, "1.1")
	}
	// A field after the group closes is back at page depth.
	if got := FieldNumber(after, siblings); got != "1" {
		t.Errorf("post-group field number = %q, want %q", got, "1")
	}
}

func TestFieldNumber_SequentialGroups(t *testing.T) {
	formID := uuid.New()
	page := layoutField(formID, "EditableFormStep")
	g1 := layoutField(formID, "EditableFieldGroup")
	f1 := layoutField(formID, "EditableTextField")
	g1End := layoutField(formID, "EditableFieldGroupEnd")
	g2 := layoutField(formID, "EditableFieldGroup")
	f2 := layoutField(formID, "EditableTextField")
	g2End := layoutField(formID, "EditableFieldGroupEnd")

	siblings := []*EditableField{page, g1, f1, g1End, g2, f2, g2End}

	if got := FieldNumber(f1, siblings); got != "1.1" {
		t.Errorf("first group field = %q, want %q", got, "1.1")
	}
	if got := FieldNumber(f2, siblings); got != "1.2" {
		t.Errorf("second group field = %q, want %q", got, "1.2")
	}
}

func TestFieldNumber_NestedGroups(t *testing.T) {
	formID := uuid.New()
	page := layoutField(formID, "EditableFormStep")
	outer := layoutField(formID, "EditableFieldGroup")
	inner := layoutField(formID, "EditableFieldGroup")
	deep := layoutField(formID, "EditableTextField")
	innerEnd := layoutField(formID, "EditableFieldGroupEnd")
	mid := layoutField(formID, "EditableTextField")
	outerEnd := layoutField(formID, "EditableFieldGroupEnd")

	siblings := []*EditableField{page, outer, inner, deep, innerEnd, mid, outerEnd}

	if got := FieldNumber(deep, siblings); got != "1.1.1" {
		t.Errorf("nested field = %q, want %q", got, "1.1.1")
	}
	if got := FieldNumber(mid, siblings); got != "1.1" {
		t.Errorf("field after inner group = %q, want %q", got, "1.1")
	}
}

func TestFieldNumber_SecondPage(t *testing.T) {
	formID := uuid.New()
	page1 := layoutField(formID, "EditableFormStep")
	f1 := layoutField(formID, "EditableTextField")
	page2 := layoutField(formID, "EditableFormStep")
	f2 := layoutField(formID, "EditableTextField")
	g := layoutField(formID, "EditableFieldGroup")
	f3 := layoutField(formID, "EditableTextField")
	gEnd := layoutField(formID, "EditableFieldGroupEnd")

	siblings := []*EditableField{page1, f1, page2, f2, g, f3, gEnd}

	if got := FieldNumber(f1, siblings); got != "1" {
		t.Errorf("page one field = %q, want %q", got, "1")
	}
	if got := FieldNumber(f2, siblings); got != "2" {
		t.Errorf("page two field = %q, want %q", got, "2")
	}
	if got := FieldNumber(f3, siblings); got != "2.1" {
		t.Errorf("page two grouped field = %q, want %q", got, "2.1")
	}
}

func TestFieldNumber_PageBreakResetsGroupCounters(t *testing.T) {
	formID := uuid.New()
	page1 := layoutField(formID, "EditableFormStep")
	g1 := layoutField(formID, "EditableFieldGroup")
	g1End := layoutField(formID, "EditableFieldGroupEnd")
	page2 := layoutField(formID, "EditableFormStep")
	g2 := layoutField(formID, "EditableFieldGroup")
	f := layoutField(formID, "EditableTextField")
	g2End := layoutField(formID, "EditableFieldGroupEnd")

	siblings := []*EditableField{page1, g1, g1End, page2, g2, f, g2End}

	// The group on page two starts over at .1, not .2.
	if got := FieldNumber(f, siblings); got != "2.1" {
		t.Errorf("field = %q, want %q", got, "2.1")
	}
}

func TestFieldNumber_Empty(t *testing.T) {
	formID := uuid.New()
	saved := layoutField(formID, "EditableTextField")

	cases := []struct {
		name     string
		target   *EditableField
		siblings []*EditableField
	}{
		{"nil target", nil, []*EditableField{saved}},
		{"unsaved", &EditableField{FormID: formID}, []*EditableField{saved}},
		{"no parent", &EditableField{ID: uuid.New()}, []*EditableField{saved}},
		{"no siblings", saved, nil},
		{"not in siblings", layoutField(formID, "EditableTextField"), []*EditableField{saved}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := FieldNumber(tc.target, tc.siblings); got != "" {
				t.Errorf("FieldNumber = %q, want empty", got)
			}
		})
	}
}
