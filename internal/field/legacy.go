package field

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
)

// Earlier releases stored per-field settings as one opaque serialized map.
// MigrateLegacySettings moves those entries into the typed columns via an
// explicit key table; it is a one-time utility invoked by an operator, not
// part of the request path.

// legacySetters maps each known legacy settings key to its typed field.
var legacySetters = map[string]func(f *EditableField, v string){
	"Default":            func(f *EditableField, v string) { f.Default = v },
	"ExtraClass":         func(f *EditableField, v string) { f.ExtraClass = v },
	"RightTitle":         func(f *EditableField, v string) { f.RightTitle = v },
	"Placeholder":        func(f *EditableField, v string) { f.Placeholder = v },
	"CustomErrorMessage": func(f *EditableField, v string) { f.CustomErrorMessage = v },
	"ShowOnLoad": func(f *EditableField, v string) {
		f.ShowOnLoad = v == "1" || v == "true" || v == "Show"
	},
	"Required": func(f *EditableField, v string) {
		f.Required = v == "1" || v == "true"
	},
	"DisplayRulesConjunction": func(f *EditableField, v string) {
		if v == "Or" || v == "or" {
			f.DisplayRulesConjunction = ConjunctionOr
		} else {
			f.DisplayRulesConjunction = ConjunctionAnd
		}
	},
}

// MigrateLegacySettings applies a legacy serialized settings blob to f and
// returns the keys it did not recognize, in sorted order. Unknown keys are
// reported so the operator can audit them; they are never applied blindly.
func MigrateLegacySettings(f *EditableField, blob []byte) ([]string, error) {
	if len(blob) == 0 {
		return nil, nil
	}
	var settings map[string]any
	if err := json.Unmarshal(blob, &settings); err != nil {
		return nil, fmt.Errorf("decoding legacy settings: %w", err)
	}

	var unknown []string
	for key, raw := range settings {
		set, ok := legacySetters[key]
		if !ok {
			unknown = append(unknown, key)
			continue
		}
		set(f, legacyString(raw))
	}
	sort.Strings(unknown)
	return unknown, nil
}

func legacyString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", t)
	}
}
