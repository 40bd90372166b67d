package submission

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/formforge/formforge/internal/field"
)

func TestFormattedValue(t *testing.T) {
	cases := []struct {
		name  string
		value string
		want  string
	}{
		{"plain", "hello", "hello"},
		{"escapes markup", `<b>&"bold"</b>`, "&lt;b&gt;&amp;&#34;bold&#34;&lt;/b&gt;"},
		{"unix newlines", "line one\nline two", "line one<br />line two"},
		{"windows newlines", "line one\r\nline two", "line one<br />line two"},
		{"mixed newlines", "a\r\nb\nc", "a<br />b<br />c"},
		{"empty", "", ""},
		{"escaping before break conversion", "<a>\n<b>", "&lt;a&gt;<br />&lt;b&gt;"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			v := SubmittedValue{Value: tc.value}
			if got := v.FormattedValue(); got != tc.want {
				t.Errorf("FormattedValue() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestExportValueIsRaw(t *testing.T) {
	v := SubmittedValue{Value: "<b>raw</b>\r\nnext"}
	if got := v.ExportValue(); got != v.Value {
		t.Errorf("ExportValue() = %q, want unchanged %q", got, v.Value)
	}
}

type fakeSource struct {
	subs   map[uuid.UUID]*Submission
	fields map[string]*field.EditableField // keyed by name
}

func (s *fakeSource) SubmissionByID(_ context.Context, id uuid.UUID) (*Submission, error) {
	return s.subs[id], nil
}

func (s *fakeSource) FieldByFormAndName(_ context.Context, _ uuid.UUID, name string) (*field.EditableField, error) {
	return s.fields[name], nil
}

func TestEditableField(t *testing.T) {
	formID := uuid.New()
	sub := &Submission{ID: uuid.New(), FormID: formID}
	f := &field.EditableField{ID: uuid.New(), FormID: formID, Name: "ContactEmail"}

	src := &fakeSource{
		subs:   map[uuid.UUID]*Submission{sub.ID: sub},
		fields: map[string]*field.EditableField{f.Name: f},
	}

	v := SubmittedValue{SubmissionID: sub.ID, Name: "ContactEmail"}
	got, err := v.EditableField(context.Background(), src)
	if err != nil {
		t.Fatalf("EditableField: %v", err)
	}
	if got == nil || got.ID != f.ID {
		t.Errorf("EditableField = %v, want field %s", got, f.ID)
	}
}

func TestEditableField_AbsentField(t *testing.T) {
	sub := &Submission{ID: uuid.New(), FormID: uuid.New()}
	src := &fakeSource{
		subs:   map[uuid.UUID]*Submission{sub.ID: sub},
		fields: map[string]*field.EditableField{},
	}

	// The field was renamed or deleted after this value was captured.
	v := SubmittedValue{SubmissionID: sub.ID, Name: "OldName"}
	got, err := v.EditableField(context.Background(), src)
	if err != nil {
		t.Fatalf("EditableField: %v", err)
	}
	if got != nil {
		t.Errorf("EditableField = %v, want nil for absent field", got)
	}
}
