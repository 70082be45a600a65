package testutil

import (
	"context"
	"sync"

	"pm-go/internal/model"
	"pm-go/internal/pm"
)

// FaultyStore wraps a pm.Store and fails selected operations on demand.
// Safe for concurrent use.
type FaultyStore struct {
	pm.Store

	mu     sync.Mutex
	errs   map[string]error
	calls  map[string]int
	before func(op string)
}

// NewFaultyStore wraps store with no failures armed.
func NewFaultyStore(store pm.Store) *FaultyStore {
	return &FaultyStore{
		Store: store,
		errs:  make(map[string]error),
		calls: make(map[string]int),
	}
}

// FailOn makes every later call to op ("ensure_schema", "select_all",
// "insert", "update", "delete", "replace_all", "backup_to") return err.
// A nil err clears the failure.
func (s *FaultyStore) FailOn(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.errs, op)
		return
	}
	s.errs[op] = err
}

// OnCall registers fn to run at the start of every operation, before any
// armed failure is returned.
func (s *FaultyStore) OnCall(fn func(op string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.before = fn
}

// Calls returns how many times op was invoked.
func (s *FaultyStore) Calls(op string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[op]
}

func (s *FaultyStore) check(op string) error {
	s.mu.Lock()
	s.calls[op]++
	fn := s.before
	err := s.errs[op]
	s.mu.Unlock()
	if fn != nil {
		fn(op)
	}
	return err
}

func (s *FaultyStore) EnsureSchema(ctx context.Context) error {
	if err := s.check("ensure_schema"); err != nil {
		return err
	}
	return s.Store.EnsureSchema(ctx)
}

func (s *FaultyStore) SelectAll(ctx context.Context) ([]model.CredentialRecord, error) {
	if err := s.check("select_all"); err != nil {
		return nil, err
	}
	return s.Store.SelectAll(ctx)
}

func (s *FaultyStore) Insert(ctx context.Context, record model.CredentialRecord) error {
	if err := s.check("insert"); err != nil {
		return err
	}
	return s.Store.Insert(ctx, record)
}

func (s *FaultyStore) Update(ctx context.Context, id string, fields model.RecordFields, updatedAt string) (int64, error) {
	if err := s.check("update"); err != nil {
		return 0, err
	}
	return s.Store.Update(ctx, id, fields, updatedAt)
}

func (s *FaultyStore) Delete(ctx context.Context, id string) (int64, error) {
	if err := s.check("delete"); err != nil {
		return 0, err
	}
	return s.Store.Delete(ctx, id)
}

func (s *FaultyStore) ReplaceAll(ctx context.Context, records []model.CredentialRecord) error {
	if err := s.check("replace_all"); err != nil {
		return err
	}
	return s.Store.ReplaceAll(ctx, records)
}

func (s *FaultyStore) BackupTo(ctx context.Context, destPath string) error {
	if err := s.check("backup_to"); err != nil {
		return err
	}
	return s.Store.BackupTo(ctx, destPath)
}

var _ pm.Store = (*FaultyStore)(nil)
