package store

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/formforge/formforge/internal/field"
	"github.com/formforge/formforge/internal/submission"
)

// MemoryStore implements Store with mutex-guarded maps, for demos and tests
// that do not need SQLite. WithTx serializes but does not roll back; tests
// that need failure atomicity use the SQLite store.
type MemoryStore struct {
	txMu sync.Mutex
	mu   sync.RWMutex

	forms  map[uuid.UUID]*field.Form
	fields map[Stage]map[uuid.UUID]*field.EditableField
	rules  map[Stage]map[uuid.UUID]*field.DisplayRule

	submissions map[uuid.UUID]*submission.Submission
	values      map[uuid.UUID][]*submission.SubmittedValue
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		forms: make(map[uuid.UUID]*field.Form),
		fields: map[Stage]map[uuid.UUID]*field.EditableField{
			StageDraft: {},
			StageLive:  {},
		},
		rules: map[Stage]map[uuid.UUID]*field.DisplayRule{
			StageDraft: {},
			StageLive:  {},
		},
		submissions: make(map[uuid.UUID]*submission.Submission),
		values:      make(map[uuid.UUID][]*submission.SubmittedValue),
	}
}

func (s *MemoryStore) CreateForm(_ context.Context, f *field.Form) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *f
	s.forms[f.ID] = &cp
	return nil
}

func (s *MemoryStore) FormByID(_ context.Context, id uuid.UUID) (*field.Form, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.forms[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *f
	return &cp, nil
}

func (s *MemoryStore) ListForms(_ context.Context) ([]*field.Form, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*field.Form, 0, len(s.forms))
	for _, f := range s.forms {
		cp := *f
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out, nil
}

func (s *MemoryStore) UpdateForm(_ context.Context, f *field.Form) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.forms[f.ID]; !ok {
		return ErrNotFound
	}
	cp := *f
	s.forms[f.ID] = &cp
	return nil
}

func (s *MemoryStore) DeleteForm(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.forms[id]; !ok {
		return ErrNotFound
	}
	delete(s.forms, id)

	for _, stage := range []Stage{StageDraft, StageLive} {
		owned := make(map[uuid.UUID]bool)
		for fid, f := range s.fields[stage] {
			if f.FormID == id {
				owned[fid] = true
				delete(s.fields[stage], fid)
			}
		}
		for rid, r := range s.rules[stage] {
			if owned[r.FieldID] {
				delete(s.rules[stage], rid)
			}
		}
	}
	for sid, sub := range s.submissions {
		if sub.FormID == id {
			delete(s.submissions, sid)
			delete(s.values, sid)
		}
	}
	return nil
}

func (s *MemoryStore) CreateField(_ context.Context, f *field.EditableField) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *f
	s.fields[StageDraft][f.ID] = &cp
	return nil
}

func (s *MemoryStore) UpdateField(_ context.Context, f *field.EditableField) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.fields[StageDraft][f.ID]; !ok {
		return ErrNotFound
	}
	cp := *f
	s.fields[StageDraft][f.ID] = &cp
	return nil
}

func (s *MemoryStore) FieldByID(_ context.Context, id uuid.UUID, stage Stage) (*field.EditableField, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.fields[stage][id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *f
	return &cp, nil
}

func (s *MemoryStore) FieldsByForm(_ context.Context, formID uuid.UUID, stage Stage) ([]*field.EditableField, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*field.EditableField
	for _, f := range s.fields[stage] {
		if f.FormID == formID {
			cp := *f
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Sort < out[j].Sort })
	return out, nil
}

func (s *MemoryStore) FieldByFormAndName(_ context.Context, formID uuid.UUID, name string) (*field.EditableField, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, f := range s.fields[StageDraft] {
		if f.FormID == formID && f.Name == name {
			cp := *f
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *MemoryStore) FieldNameExists(_ context.Context, name string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, f := range s.fields[StageDraft] {
		if f.Name == name {
			return true, nil
		}
	}
	return false, nil
}

func (s *MemoryStore) MaxSortForForm(_ context.Context, formID uuid.UUID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	max := 0
	for _, f := range s.fields[StageDraft] {
		if f.FormID == formID && f.Sort > max {
			max = f.Sort
		}
	}
	return max, nil
}

func (s *MemoryStore) CreateRule(_ context.Context, r *field.DisplayRule) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *r
	s.rules[StageDraft][r.ID] = &cp
	return nil
}

func (s *MemoryStore) DeleteRule(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rules[StageDraft][id]; !ok {
		return ErrNotFound
	}
	delete(s.rules[StageDraft], id)
	return nil
}

func (s *MemoryStore) RulesForField(_ context.Context, fieldID uuid.UUID, stage Stage) ([]*field.DisplayRule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*field.DisplayRule
	for _, r := range s.rules[stage] {
		if r.FieldID == fieldID {
			cp := *r
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return out, nil
}

func (s *MemoryStore) CreateSubmission(_ context.Context, sub *submission.Submission, values []*submission.SubmittedValue) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *sub
	s.submissions[sub.ID] = &cp
	stored := make([]*submission.SubmittedValue, len(values))
	for i, v := range values {
		vc := *v
		stored[i] = &vc
	}
	s.values[sub.ID] = stored
	return nil
}

func (s *MemoryStore) SubmissionByID(_ context.Context, id uuid.UUID) (*submission.Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sub, ok := s.submissions[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *sub
	return &cp, nil
}

func (s *MemoryStore) ValuesForSubmission(_ context.Context, submissionID uuid.UUID) ([]*submission.SubmittedValue, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stored := s.values[submissionID]
	out := make([]*submission.SubmittedValue, len(stored))
	for i, v := range stored {
		cp := *v
		out[i] = &cp
	}
	return out, nil
}

func (s *MemoryStore) PublishField(_ context.Context, id uuid.UUID, from, to Stage, _ bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.fields[from][id]
	if !ok {
		return ErrNotFound
	}
	cp := *f
	s.fields[to][id] = &cp
	return nil
}

func (s *MemoryStore) PublishRule(_ context.Context, id uuid.UUID, from, to Stage, _ bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rules[from][id]
	if !ok {
		return ErrNotFound
	}
	cp := *r
	s.rules[to][id] = &cp
	return nil
}

func (s *MemoryStore) DeleteFieldFromStage(_ context.Context, id uuid.UUID, stage Stage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.fields[stage], id)
	return nil
}

func (s *MemoryStore) DeleteRuleFromStage(_ context.Context, id uuid.UUID, stage Stage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rules[stage], id)
	return nil
}

// WithTx serializes fn against other transactions. The memory store has no
// rollback; partial writes from a failed fn remain visible.
func (s *MemoryStore) WithTx(_ context.Context, fn func(Store) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	return fn(s)
}
