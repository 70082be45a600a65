package pm

import (
	"context"

	"pm-go/internal/model"
)

// Store is the persistent single-table record store.
// Implementations execute exactly one statement per write call.
type Store interface {
	// EnsureSchema creates the password_entries table if it is absent.
	// It is idempotent and safe to call before every load.
	EnsureSchema(ctx context.Context) error

	// SelectAll returns every stored record ordered by created_at descending.
	SelectAll(ctx context.Context) ([]model.CredentialRecord, error)

	// Insert stores a new record.
	Insert(ctx context.Context, record model.CredentialRecord) error

	// Update replaces the mutable fields and updated_at of the record with the
	// given id. It returns the number of rows affected; zero is not an error.
	Update(ctx context.Context, id string, fields model.RecordFields, updatedAt string) (int64, error)

	// Delete removes the record with the given id and returns the number of
	// rows affected; zero is not an error.
	Delete(ctx context.Context, id string) (int64, error)

	// ReplaceAll atomically replaces the whole table content with records.
	ReplaceAll(ctx context.Context, records []model.CredentialRecord) error

	// BackupTo writes a consistent copy of the database to destPath.
	BackupTo(ctx context.Context, destPath string) error

	// Close closes the underlying connection.
	Close() error
}

// StoreOpener opens a Store from a database file. It is used to read
// restored backups.
type StoreOpener func(path string) (Store, error)
