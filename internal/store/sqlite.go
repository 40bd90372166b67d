package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/formforge/formforge/internal/field"
	"github.com/formforge/formforge/internal/submission"
)

// querier is satisfied by both *sql.DB and *sql.Tx so every store method
// works inside and outside a transaction.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// SQLiteStore implements Store over a SQLite database. Fields and display
// rules are staged: the primary key is (id, stage) and publish copies rows
// between stages.
type SQLiteStore struct {
	db *sql.DB
	q  querier
}

// NewSQLiteStore creates a SQLiteStore over an open database handle.
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db, q: db}
}

// CreateTables creates the schema. Run during migration, not per request.
func (s *SQLiteStore) CreateTables(ctx context.Context) error {
	_, err := s.q.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS forms (
			id         TEXT PRIMARY KEY,
			title      TEXT NOT NULL,
			created_at TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS fields (
			id                   TEXT NOT NULL,
			stage                TEXT NOT NULL,
			form_id              TEXT NOT NULL,
			name                 TEXT NOT NULL,
			title                TEXT NOT NULL,
			kind                 TEXT NOT NULL,
			role                 TEXT NOT NULL,
			sort                 INTEGER NOT NULL,
			required             INTEGER NOT NULL DEFAULT 0,
			show_on_load         INTEGER NOT NULL DEFAULT 1,
			conjunction          TEXT NOT NULL DEFAULT 'and',
			default_value        TEXT NOT NULL DEFAULT '',
			extra_class          TEXT NOT NULL DEFAULT '',
			right_title          TEXT NOT NULL DEFAULT '',
			placeholder          TEXT NOT NULL DEFAULT '',
			custom_error_message TEXT NOT NULL DEFAULT '',
			version              INTEGER NOT NULL DEFAULT 1,
			created_at           TEXT NOT NULL,
			updated_at           TEXT NOT NULL,
			PRIMARY KEY (id, stage)
		);
		CREATE INDEX IF NOT EXISTS idx_fields_form_sort ON fields (form_id, stage, sort);
		CREATE INDEX IF NOT EXISTS idx_fields_name ON fields (name, stage);

		CREATE TABLE IF NOT EXISTS display_rules (
			id                 TEXT NOT NULL,
			stage              TEXT NOT NULL,
			field_id           TEXT NOT NULL,
			condition_field_id TEXT NOT NULL,
			operator           TEXT NOT NULL,
			field_value        TEXT NOT NULL DEFAULT '',
			version            INTEGER NOT NULL DEFAULT 1,
			PRIMARY KEY (id, stage)
		);
		CREATE INDEX IF NOT EXISTS idx_rules_field ON display_rules (field_id, stage);

		CREATE TABLE IF NOT EXISTS submissions (
			id         TEXT PRIMARY KEY,
			form_id    TEXT NOT NULL,
			created_at TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS submitted_values (
			id            TEXT PRIMARY KEY,
			submission_id TEXT NOT NULL REFERENCES submissions(id) ON DELETE CASCADE,
			name          TEXT NOT NULL,
			title         TEXT NOT NULL,
			value         TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_values_submission ON submitted_values (submission_id);
	`)
	return err
}

func (s *SQLiteStore) CreateForm(ctx context.Context, f *field.Form) error {
	_, err := s.q.ExecContext(ctx,
		`INSERT INTO forms (id, title, created_at) VALUES (?, ?, ?)`,
		f.ID.String(), f.Title, f.CreatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("inserting form: %w", err)
	}
	return nil
}

func (s *SQLiteStore) FormByID(ctx context.Context, id uuid.UUID) (*field.Form, error) {
	row := s.q.QueryRowContext(ctx,
		`SELECT id, title, created_at FROM forms WHERE id = ?`, id.String())
	return scanForm(row)
}

func (s *SQLiteStore) ListForms(ctx context.Context) ([]*field.Form, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT id, title, created_at FROM forms ORDER BY title`)
	if err != nil {
		return nil, fmt.Errorf("listing forms: %w", err)
	}
	defer rows.Close()

	var out []*field.Form
	for rows.Next() {
		f, err := scanForm(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) UpdateForm(ctx context.Context, f *field.Form) error {
	res, err := s.q.ExecContext(ctx,
		`UPDATE forms SET title = ? WHERE id = ?`, f.Title, f.ID.String())
	if err != nil {
		return fmt.Errorf("updating form: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) DeleteForm(ctx context.Context, id uuid.UUID) error {
	return s.WithTx(ctx, func(txStore Store) error {
		tx := txStore.(*SQLiteStore)
		if _, err := tx.q.ExecContext(ctx, `
			DELETE FROM display_rules WHERE field_id IN
				(SELECT id FROM fields WHERE form_id = ?)`, id.String()); err != nil {
			return fmt.Errorf("deleting form rules: %w", err)
		}
		if _, err := tx.q.ExecContext(ctx,
			`DELETE FROM fields WHERE form_id = ?`, id.String()); err != nil {
			return fmt.Errorf("deleting form fields: %w", err)
		}
		// submitted_values cascade from submissions.
		if _, err := tx.q.ExecContext(ctx,
			`DELETE FROM submissions WHERE form_id = ?`, id.String()); err != nil {
			return fmt.Errorf("deleting form submissions: %w", err)
		}
		res, err := tx.q.ExecContext(ctx,
			`DELETE FROM forms WHERE id = ?`, id.String())
		if err != nil {
			return fmt.Errorf("deleting form: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return ErrNotFound
		}
		return nil
	})
}

const fieldColumns = `id, stage, form_id, name, title, kind, role, sort, required,
	show_on_load, conjunction, default_value, extra_class, right_title,
	placeholder, custom_error_message, created_at, updated_at`

func (s *SQLiteStore) CreateField(ctx context.Context, f *field.EditableField) error {
	_, err := s.q.ExecContext(ctx,
		`INSERT INTO fields (`+fieldColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		fieldArgs(f, StageDraft)...)
	if err != nil {
		return fmt.Errorf("inserting field: %w", err)
	}
	return nil
}

func (s *SQLiteStore) UpdateField(ctx context.Context, f *field.EditableField) error {
	f.UpdatedAt = time.Now().UTC()
	res, err := s.q.ExecContext(ctx, `
		UPDATE fields SET form_id = ?, name = ?, title = ?, kind = ?, role = ?,
			sort = ?, required = ?, show_on_load = ?, conjunction = ?,
			default_value = ?, extra_class = ?, right_title = ?, placeholder = ?,
			custom_error_message = ?, updated_at = ?
		WHERE id = ? AND stage = ?`,
		f.FormID.String(), f.Name, f.Title, f.Kind, string(f.Role),
		f.Sort, f.Required, f.ShowOnLoad, string(f.DisplayRulesConjunction),
		f.Default, f.ExtraClass, f.RightTitle, f.Placeholder,
		f.CustomErrorMessage, f.UpdatedAt.Format(time.RFC3339Nano),
		f.ID.String(), string(StageDraft))
	if err != nil {
		return fmt.Errorf("updating field: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) FieldByID(ctx context.Context, id uuid.UUID, stage Stage) (*field.EditableField, error) {
	row := s.q.QueryRowContext(ctx,
		`SELECT `+fieldColumns+` FROM fields WHERE id = ? AND stage = ?`,
		id.String(), string(stage))
	return scanField(row)
}

func (s *SQLiteStore) FieldsByForm(ctx context.Context, formID uuid.UUID, stage Stage) ([]*field.EditableField, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT `+fieldColumns+` FROM fields WHERE form_id = ? AND stage = ? ORDER BY sort`,
		formID.String(), string(stage))
	if err != nil {
		return nil, fmt.Errorf("listing fields: %w", err)
	}
	defer rows.Close()

	var out []*field.EditableField
	for rows.Next() {
		f, err := scanField(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) FieldByFormAndName(ctx context.Context, formID uuid.UUID, name string) (*field.EditableField, error) {
	row := s.q.QueryRowContext(ctx,
		`SELECT `+fieldColumns+` FROM fields WHERE form_id = ? AND name = ? AND stage = ?`,
		formID.String(), name, string(StageDraft))
	f, err := scanField(row)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	return f, err
}

func (s *SQLiteStore) FieldNameExists(ctx context.Context, name string) (bool, error) {
	var n int
	err := s.q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM fields WHERE name = ?`, name).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("checking field name: %w", err)
	}
	return n > 0, nil
}

func (s *SQLiteStore) MaxSortForForm(ctx context.Context, formID uuid.UUID) (int, error) {
	var max sql.NullInt64
	err := s.q.QueryRowContext(ctx,
		`SELECT MAX(sort) FROM fields WHERE form_id = ? AND stage = ?`,
		formID.String(), string(StageDraft)).Scan(&max)
	if err != nil {
		return 0, fmt.Errorf("querying max sort: %w", err)
	}
	return int(max.Int64), nil
}

func (s *SQLiteStore) CreateRule(ctx context.Context, r *field.DisplayRule) error {
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO display_rules (id, stage, field_id, condition_field_id, operator, field_value)
		VALUES (?, ?, ?, ?, ?, ?)`,
		r.ID.String(), string(StageDraft), r.FieldID.String(),
		r.ConditionFieldID.String(), string(r.Operator), r.FieldValue)
	if err != nil {
		return fmt.Errorf("inserting display rule: %w", err)
	}
	return nil
}

func (s *SQLiteStore) DeleteRule(ctx context.Context, id uuid.UUID) error {
	res, err := s.q.ExecContext(ctx,
		`DELETE FROM display_rules WHERE id = ? AND stage = ?`,
		id.String(), string(StageDraft))
	if err != nil {
		return fmt.Errorf("deleting display rule: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) RulesForField(ctx context.Context, fieldID uuid.UUID, stage Stage) ([]*field.DisplayRule, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT id, field_id, condition_field_id, operator, field_value
		FROM display_rules WHERE field_id = ? AND stage = ? ORDER BY id`,
		fieldID.String(), string(stage))
	if err != nil {
		return nil, fmt.Errorf("listing display rules: %w", err)
	}
	defer rows.Close()

	var out []*field.DisplayRule
	for rows.Next() {
		var r field.DisplayRule
		var id, fid, cid, op string
		if err := rows.Scan(&id, &fid, &cid, &op, &r.FieldValue); err != nil {
			return nil, fmt.Errorf("scanning display rule: %w", err)
		}
		r.ID = uuid.MustParse(id)
		r.FieldID = uuid.MustParse(fid)
		r.ConditionFieldID = uuid.MustParse(cid)
		r.Operator = field.Operator(op)
		out = append(out, &r)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) CreateSubmission(ctx context.Context, sub *submission.Submission, values []*submission.SubmittedValue) error {
	return s.WithTx(ctx, func(txStore Store) error {
		tx := txStore.(*SQLiteStore)
		_, err := tx.q.ExecContext(ctx,
			`INSERT INTO submissions (id, form_id, created_at) VALUES (?, ?, ?)`,
			sub.ID.String(), sub.FormID.String(), sub.CreatedAt.UTC().Format(time.RFC3339Nano))
		if err != nil {
			return fmt.Errorf("inserting submission: %w", err)
		}
		for _, v := range values {
			_, err := tx.q.ExecContext(ctx, `
				INSERT INTO submitted_values (id, submission_id, name, title, value)
				VALUES (?, ?, ?, ?, ?)`,
				v.ID.String(), sub.ID.String(), v.Name, v.Title, v.Value)
			if err != nil {
				return fmt.Errorf("inserting submitted value: %w", err)
			}
		}
		return nil
	})
}

func (s *SQLiteStore) SubmissionByID(ctx context.Context, id uuid.UUID) (*submission.Submission, error) {
	var sub submission.Submission
	var sid, fid, created string
	err := s.q.QueryRowContext(ctx,
		`SELECT id, form_id, created_at FROM submissions WHERE id = ?`,
		id.String()).Scan(&sid, &fid, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying submission: %w", err)
	}
	sub.ID = uuid.MustParse(sid)
	sub.FormID = uuid.MustParse(fid)
	sub.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
	return &sub, nil
}

func (s *SQLiteStore) ValuesForSubmission(ctx context.Context, submissionID uuid.UUID) ([]*submission.SubmittedValue, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT id, submission_id, name, title, value
		FROM submitted_values WHERE submission_id = ? ORDER BY rowid`,
		submissionID.String())
	if err != nil {
		return nil, fmt.Errorf("listing submitted values: %w", err)
	}
	defer rows.Close()

	var out []*submission.SubmittedValue
	for rows.Next() {
		var v submission.SubmittedValue
		var id, sid string
		if err := rows.Scan(&id, &sid, &v.Name, &v.Title, &v.Value); err != nil {
			return nil, fmt.Errorf("scanning submitted value: %w", err)
		}
		v.ID = uuid.MustParse(id)
		v.SubmissionID = uuid.MustParse(sid)
		out = append(out, &v)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) PublishField(ctx context.Context, id uuid.UUID, from, to Stage, createNewVersion bool) error {
	bump := 0
	if createNewVersion {
		bump = 1
	}
	if _, err := s.q.ExecContext(ctx,
		`DELETE FROM fields WHERE id = ? AND stage = ?`, id.String(), string(to)); err != nil {
		return fmt.Errorf("clearing target stage field: %w", err)
	}
	res, err := s.q.ExecContext(ctx, `
		INSERT INTO fields (`+fieldColumns+`, version)
		SELECT id, ?, form_id, name, title, kind, role, sort, required,
			show_on_load, conjunction, default_value, extra_class, right_title,
			placeholder, custom_error_message, created_at, updated_at, version + ?
		FROM fields WHERE id = ? AND stage = ?`,
		string(to), bump, id.String(), string(from))
	if err != nil {
		return fmt.Errorf("publishing field %s to %s: %w", id, to, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) PublishRule(ctx context.Context, id uuid.UUID, from, to Stage, createNewVersion bool) error {
	bump := 0
	if createNewVersion {
		bump = 1
	}
	if _, err := s.q.ExecContext(ctx,
		`DELETE FROM display_rules WHERE id = ? AND stage = ?`, id.String(), string(to)); err != nil {
		return fmt.Errorf("clearing target stage rule: %w", err)
	}
	res, err := s.q.ExecContext(ctx, `
		INSERT INTO display_rules (id, stage, field_id, condition_field_id, operator, field_value, version)
		SELECT id, ?, field_id, condition_field_id, operator, field_value, version + ?
		FROM display_rules WHERE id = ? AND stage = ?`,
		string(to), bump, id.String(), string(from))
	if err != nil {
		return fmt.Errorf("publishing rule %s to %s: %w", id, to, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) DeleteFieldFromStage(ctx context.Context, id uuid.UUID, stage Stage) error {
	_, err := s.q.ExecContext(ctx,
		`DELETE FROM fields WHERE id = ? AND stage = ?`, id.String(), string(stage))
	if err != nil {
		return fmt.Errorf("deleting field from %s: %w", stage, err)
	}
	return nil
}

func (s *SQLiteStore) DeleteRuleFromStage(ctx context.Context, id uuid.UUID, stage Stage) error {
	_, err := s.q.ExecContext(ctx,
		`DELETE FROM display_rules WHERE id = ? AND stage = ?`, id.String(), string(stage))
	if err != nil {
		return fmt.Errorf("deleting rule from %s: %w", stage, err)
	}
	return nil
}

// WithTx runs fn against a transactional view of the store. A nested call
// reuses the outer transaction.
func (s *SQLiteStore) WithTx(ctx context.Context, fn func(Store) error) error {
	if _, inTx := s.q.(*sql.Tx); inTx {
		return fn(s)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	txStore := &SQLiteStore{db: s.db, q: tx}
	if err := fn(txStore); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback failed: %v)", err, rbErr)
		}
		return err
	}
	return tx.Commit()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanForm(row rowScanner) (*field.Form, error) {
	var f field.Form
	var id, created string
	err := row.Scan(&id, &f.Title, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning form: %w", err)
	}
	f.ID = uuid.MustParse(id)
	f.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
	return &f, nil
}

func scanField(row rowScanner) (*field.EditableField, error) {
	var f field.EditableField
	var id, stage, formID, role, conjunction, created, updated string
	err := row.Scan(&id, &stage, &formID, &f.Name, &f.Title, &f.Kind, &role,
		&f.Sort, &f.Required, &f.ShowOnLoad, &conjunction, &f.Default,
		&f.ExtraClass, &f.RightTitle, &f.Placeholder, &f.CustomErrorMessage,
		&created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning field: %w", err)
	}
	f.ID = uuid.MustParse(id)
	f.FormID = uuid.MustParse(formID)
	f.Role = field.Role(role)
	f.DisplayRulesConjunction = field.Conjunction(conjunction)
	f.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
	f.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updated)
	return &f, nil
}

func fieldArgs(f *field.EditableField, stage Stage) []any {
	return []any{
		f.ID.String(), string(stage), f.FormID.String(), f.Name, f.Title,
		f.Kind, string(f.Role), f.Sort, f.Required, f.ShowOnLoad,
		string(f.DisplayRulesConjunction), f.Default, f.ExtraClass,
		f.RightTitle, f.Placeholder, f.CustomErrorMessage,
		f.CreatedAt.UTC().Format(time.RFC3339Nano),
		f.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}
