package pm

import (
	"context"
	"fmt"
	"sync"

	"pm-go/internal/model"
)

// Repository owns the canonical in-memory snapshot of the stored records.
// The snapshot is never patched directly: every write is followed by a full
// reload so it always mirrors the store as of the last successful load.
type Repository struct {
	store  Store
	logger Logger

	mu      sync.RWMutex
	records []model.CredentialRecord
	loaded  bool
}

// NewRepository creates a Repository over store. The snapshot is empty until
// the first LoadAll.
func NewRepository(store Store, logger Logger) *Repository {
	return &Repository{store: store, logger: logger}
}

// EnsureSchema guarantees the record table exists.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	if err := r.store.EnsureSchema(ctx); err != nil {
		r.logger.Error("ensuring schema failed", "error", err)
		return &StorageError{Op: "ensure schema", Err: err}
	}
	return nil
}

// LoadAll refreshes the snapshot from the store and returns a copy of it,
// newest first. On failure the previous snapshot is kept.
func (r *Repository) LoadAll(ctx context.Context) ([]model.CredentialRecord, error) {
	if err := r.EnsureSchema(ctx); err != nil {
		return nil, err
	}

	records, err := r.store.SelectAll(ctx)
	if err != nil {
		r.logger.Error("loading records failed", "error", err)
		return nil, &StorageError{Op: "load", Err: err}
	}

	r.mu.Lock()
	r.records = records
	r.loaded = true
	r.mu.Unlock()

	r.logger.Debug("records loaded", "count", len(records))
	return cloneRecords(records), nil
}

// Records returns a copy of the current snapshot.
func (r *Repository) Records() []model.CredentialRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return cloneRecords(r.records)
}

// Loaded reports whether at least one load has succeeded.
func (r *Repository) Loaded() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.loaded
}

// Find returns the record with the given id from the snapshot.
func (r *Repository) Find(id string) (model.CredentialRecord, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, rec := range r.records {
		if rec.ID == id {
			return rec, true
		}
	}
	return model.CredentialRecord{}, false
}

// Create persists a new record and reloads.
func (r *Repository) Create(ctx context.Context, record model.CredentialRecord) error {
	if err := r.store.Insert(ctx, record); err != nil {
		r.logger.Error("creating record failed", "id", record.ID, "error", err)
		return &StorageError{Op: "create", Err: err}
	}
	r.logger.Info("record created", "id", record.ID, "title", record.Title)
	return r.reload(ctx)
}

// Update replaces the mutable fields of the record with the given id and
// reloads. ErrNotFound is returned, after the reload, when no row matched.
func (r *Repository) Update(ctx context.Context, id string, fields model.RecordFields, updatedAt string) error {
	n, err := r.store.Update(ctx, id, fields, updatedAt)
	if err != nil {
		r.logger.Error("updating record failed", "id", id, "error", err)
		return &StorageError{Op: "update", Err: err}
	}
	if err := r.reload(ctx); err != nil {
		return err
	}
	if n == 0 {
		r.logger.Warn("update matched no record", "id", id)
		return fmt.Errorf("updating %s: %w", id, ErrNotFound)
	}
	r.logger.Info("record updated", "id", id)
	return nil
}

// Delete removes the record with the given id and reloads. ErrNotFound is
// returned, after the reload, when no row matched.
func (r *Repository) Delete(ctx context.Context, id string) error {
	n, err := r.store.Delete(ctx, id)
	if err != nil {
		r.logger.Error("deleting record failed", "id", id, "error", err)
		return &StorageError{Op: "delete", Err: err}
	}
	if err := r.reload(ctx); err != nil {
		return err
	}
	if n == 0 {
		r.logger.Warn("delete matched no record", "id", id)
		return fmt.Errorf("deleting %s: %w", id, ErrNotFound)
	}
	r.logger.Info("record deleted", "id", id)
	return nil
}

// ReplaceAll swaps the whole stored collection for records and reloads.
func (r *Repository) ReplaceAll(ctx context.Context, records []model.CredentialRecord) error {
	if err := r.EnsureSchema(ctx); err != nil {
		return err
	}
	if err := r.store.ReplaceAll(ctx, records); err != nil {
		r.logger.Error("replacing records failed", "error", err)
		return &StorageError{Op: "replace", Err: err}
	}
	r.logger.Info("records replaced", "count", len(records))
	return r.reload(ctx)
}

func (r *Repository) reload(ctx context.Context) error {
	if _, err := r.LoadAll(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrStaleSnapshot, err)
	}
	return nil
}

func cloneRecords(records []model.CredentialRecord) []model.CredentialRecord {
	if records == nil {
		return nil
	}
	out := make([]model.CredentialRecord, len(records))
	copy(out, records)
	return out
}
