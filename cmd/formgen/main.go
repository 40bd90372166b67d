// cmd/formgen loads CUE form definitions and seeds them into the record
// store's draft stage.
//
// A definitions package declares forms, their fields, and conditional
// display rules. CUE validates the shape before anything touches the
// database, so a typo'd operator or unknown field kind fails the whole run
// instead of half-seeding a form. Watched fields in rules are referenced by
// field name and resolved to IDs at insert time.
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
	"github.com/google/uuid"

	"github.com/formforge/formforge/internal/config"
	"github.com/formforge/formforge/internal/field"
	"github.com/formforge/formforge/internal/store"

	_ "modernc.org/sqlite"
)

// defSchema constrains the definitions package. It is unified with the
// loaded instance, so constraint violations carry CUE's own positions.
const defSchema = `
#Rule: {
	watch:    string & !=""
	operator: "is_blank" | "is_not_blank" | "equals" | "not_equals" |
		"less_than" | "less_than_or_equal" |
		"greater_than" | "greater_than_or_equal"
	value: string | *""
}

#Field: {
	kind:  string & !=""
	title: string | *""
	name:  string | *""
	required:     bool | *false
	show_on_load: bool | *true
	conjunction:  "and" | "or" | *"and"
	default:      string | *""
	extra_class:  string | *""
	placeholder:  string | *""
	rules: [...#Rule]
}

#Form: {
	title: string & !=""
	fields: [...#Field]
}

forms: [...#Form]
`

type ruleDef struct {
	Watch    string `json:"watch"`
	Operator string `json:"operator"`
	Value    string `json:"value"`
}

type fieldDef struct {
	Kind        string    `json:"kind"`
	Title       string    `json:"title"`
	Name        string    `json:"name"`
	Required    bool      `json:"required"`
	ShowOnLoad  bool      `json:"show_on_load"`
	Conjunction string    `json:"conjunction"`
	Default     string    `json:"default"`
	ExtraClass  string    `json:"extra_class"`
	Placeholder string    `json:"placeholder"`
	Rules       []ruleDef `json:"rules"`
}

type formDef struct {
	Title  string     `json:"title"`
	Fields []fieldDef `json:"fields"`
}

func main() {
	log.SetFlags(0)
	log.SetPrefix("formgen: ")

	dir := flag.String("dir", "./forms", "directory containing the CUE definitions package")
	cfgPath := flag.String("config", os.Getenv("FORMFORGE_CONFIG"), "server config file (for the database DSN)")
	dryRun := flag.Bool("dry-run", false, "validate definitions without writing to the store")
	flag.Parse()

	forms, err := loadDefinitions(*dir)
	if err != nil {
		log.Fatalf("loading definitions: %v", err)
	}
	if err := validate(forms); err != nil {
		log.Fatalf("invalid definitions: %v", err)
	}
	log.Printf("validated %d form definition(s) in %s", len(forms), *dir)
	if *dryRun {
		return
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	db, err := sql.Open("sqlite", cfg.Server.DSN)
	if err != nil {
		log.Fatalf("opening database: %v", err)
	}
	db.SetMaxOpenConns(1)

	ctx := context.Background()
	st := store.NewSQLiteStore(db)
	if err := st.CreateTables(ctx); err != nil {
		log.Fatalf("running schema migration: %v", err)
	}

	for _, def := range forms {
		if err := seedForm(ctx, st, cfg.Fields.AllowedExtraClasses, def); err != nil {
			log.Fatalf("seeding form %q: %v", def.Title, err)
		}
		log.Printf("seeded form %q with %d field(s)", def.Title, len(def.Fields))
	}
}

// loadDefinitions builds the CUE package at dir, unifies it with the schema,
// and decodes the forms list.
func loadDefinitions(dir string) ([]formDef, error) {
	cuectx := cuecontext.New()

	insts := load.Instances([]string{dir}, nil)
	if len(insts) == 0 {
		return nil, fmt.Errorf("no CUE instances found in %s", dir)
	}
	if insts[0].Err != nil {
		return nil, insts[0].Err
	}
	val := cuectx.BuildInstance(insts[0])
	if val.Err() != nil {
		return nil, val.Err()
	}

	schema := cuectx.CompileString(defSchema)
	if schema.Err() != nil {
		return nil, fmt.Errorf("compiling schema: %w", schema.Err())
	}
	unified := val.Unify(schema)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return nil, err
	}

	var out struct {
		Forms []formDef `json:"forms"`
	}
	if err := unified.Decode(&out); err != nil {
		return nil, fmt.Errorf("decoding forms: %w", err)
	}
	return out.Forms, nil
}

// validate applies the checks CUE cannot express: kind registry membership,
// the reserved field name, and rule watch targets that resolve within the
// same form.
func validate(forms []formDef) error {
	for _, f := range forms {
		names := make(map[string]bool, len(f.Fields))
		for _, fd := range f.Fields {
			if fd.Name != "" {
				names[fd.Name] = true
			}
		}
		for _, fd := range f.Fields {
			if !field.KnownKind(fd.Kind) {
				return fmt.Errorf("form %q: unknown field kind %q", f.Title, fd.Kind)
			}
			if fd.Name == field.ReservedName {
				return fmt.Errorf("form %q: field name %q is reserved", f.Title, fd.Name)
			}
			for _, r := range fd.Rules {
				if !names[r.Watch] {
					return fmt.Errorf("form %q: field %q watches unknown field %q",
						f.Title, fd.Kind, r.Watch)
				}
			}
		}
	}
	return nil
}

// seedForm writes one form, its fields, and their rules in a single
// transaction. Fields are inserted first so rule watch names can resolve.
// The lifecycle is built over the transaction view so its uniqueness checks
// run on the same connection.
func seedForm(ctx context.Context, st store.Store, allowedClasses []string, def formDef) error {
	return st.WithTx(ctx, func(tx store.Store) error {
		lc := field.NewLifecycle(tx, allowedClasses)
		now := time.Now().UTC()
		form := &field.Form{ID: uuid.New(), Title: def.Title, CreatedAt: now}
		if err := tx.CreateForm(ctx, form); err != nil {
			return err
		}

		idByName := make(map[string]uuid.UUID, len(def.Fields))
		fields := make([]*field.EditableField, 0, len(def.Fields))
		for _, fd := range def.Fields {
			ef := &field.EditableField{
				ID:                      uuid.New(),
				FormID:                  form.ID,
				Name:                    fd.Name,
				Title:                   fd.Title,
				Kind:                    fd.Kind,
				Required:                fd.Required,
				ShowOnLoad:              fd.ShowOnLoad,
				DisplayRulesConjunction: field.Conjunction(fd.Conjunction),
				Default:                 fd.Default,
				ExtraClass:              fd.ExtraClass,
				Placeholder:             fd.Placeholder,
				CreatedAt:               now,
				UpdatedAt:               now,
			}
			if err := lc.BeforeWrite(ctx, ef); err != nil {
				return err
			}
			if err := tx.CreateField(ctx, ef); err != nil {
				return err
			}
			idByName[ef.Name] = ef.ID
			fields = append(fields, ef)
		}

		for i, fd := range def.Fields {
			for _, r := range fd.Rules {
				rule := &field.DisplayRule{
					ID:               uuid.New(),
					FieldID:          fields[i].ID,
					ConditionFieldID: idByName[r.Watch],
					Operator:         field.Operator(r.Operator),
					FieldValue:       r.Value,
				}
				if err := tx.CreateRule(ctx, rule); err != nil {
					return err
				}
			}
		}
		return nil
	})
}
