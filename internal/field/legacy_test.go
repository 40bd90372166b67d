package field

import (
	"reflect"
	"testing"
)

func TestMigrateLegacySettings_AppliesKnownKeys(t *testing.T) {
	blob := []byte(`{
		"Default": "hello",
		"ExtraClass": "wide",
		"RightTitle": "optional",
		"Placeholder": "type here",
		"CustomErrorMessage": "required!",
		"ShowOnLoad": "Show",
		"Required": "1",
		"DisplayRulesConjunction": "Or"
	}`)

	var f EditableField
	unknown, err := MigrateLegacySettings(&f, blob)
	if err != nil {
		t.Fatalf("MigrateLegacySettings: %v", err)
	}
	if len(unknown) != 0 {
		t.Errorf("unknown keys = %v, want none", unknown)
	}

	if f.Default != "hello" {
		t.Errorf("Default = %q", f.Default)
	}
	if f.ExtraClass != "wide" {
		t.Errorf("ExtraClass = %q", f.ExtraClass)
	}
	if f.RightTitle != "optional" {
		t.Errorf("RightTitle = %q", f.RightTitle)
	}
	if f.Placeholder != "type here" {
		t.Errorf("Placeholder = %q", f.Placeholder)
	}
	if f.CustomErrorMessage != "required!" {
		t.Errorf("CustomErrorMessage = %q", f.CustomErrorMessage)
	}
	if !f.ShowOnLoad {
		t.Error("ShowOnLoad = false, want true")
	}
	if !f.Required {
		t.Error("Required = false, want true")
	}
	if f.DisplayRulesConjunction != ConjunctionOr {
		t.Errorf("DisplayRulesConjunction = %q", f.DisplayRulesConjunction)
	}
}

func TestMigrateLegacySettings_CoercesScalars(t *testing.T) {
	// Legacy blobs mix types freely; booleans and numbers arrive unquoted.
	blob := []byte(`{"Required": true, "ShowOnLoad": false, "Default": 42}`)

	var f EditableField
	if _, err := MigrateLegacySettings(&f, blob); err != nil {
		t.Fatalf("MigrateLegacySettings: %v", err)
	}
	if !f.Required {
		t.Error("Required = false, want true")
	}
	if f.ShowOnLoad {
		t.Error("ShowOnLoad = true, want false")
	}
	if f.Default != "42" {
		t.Errorf("Default = %q, want %q", f.Default, "42")
	}
}

func TestMigrateLegacySettings_ReportsUnknownKeysSorted(t *testing.T) {
	blob := []byte(`{"Zeta": "1", "Alpha": "2", "Default": "x"}`)

	var f EditableField
	unknown, err := MigrateLegacySettings(&f, blob)
	if err != nil {
		t.Fatalf("MigrateLegacySettings: %v", err)
	}
	want := []string{"Alpha", "Zeta"}
	if !reflect.DeepEqual(unknown, want) {
		t.Errorf("unknown = %v, want %v", unknown, want)
	}
	if f.Default != "x" {
		t.Errorf("Default = %q, known keys must still apply", f.Default)
	}
}

func TestMigrateLegacySettings_EmptyBlob(t *testing.T) {
	var f EditableField
	unknown, err := MigrateLegacySettings(&f, nil)
	if err != nil {
		t.Fatalf("MigrateLegacySettings: %v", err)
	}
	if unknown != nil {
		t.Errorf("unknown = %v, want nil", unknown)
	}
}

func TestMigrateLegacySettings_BadJSON(t *testing.T) {
	var f EditableField
	if _, err := MigrateLegacySettings(&f, []byte("{not json")); err == nil {
		t.Fatal("expected error for malformed blob")
	}
}
