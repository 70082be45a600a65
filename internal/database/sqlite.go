package database

import (
	"context"
	"database/sql"
	"fmt"

	"pm-go/internal/database/migrations"
	"pm-go/internal/model"
	"pm-go/internal/pm"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

const selectAllQuery = `SELECT id, title, username, password, website, email, created_at, updated_at
FROM password_entries ORDER BY created_at DESC`

const insertQuery = `INSERT INTO password_entries (id, title, username, password, website, email, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

const updateQuery = `UPDATE password_entries
SET title = ?, username = ?, password = ?, website = ?, email = ?, updated_at = ?
WHERE id = ?`

const deleteQuery = `DELETE FROM password_entries WHERE id = ?`

// SQLiteDatabase implements pm.Store on a single password_entries table.
type SQLiteDatabase struct {
	db   *sql.DB
	path string
}

// NewSQLiteDatabase opens the database at path.
// path can be a file path or ":memory:" for an in-memory database.
// The schema is not applied until EnsureSchema.
func NewSQLiteDatabase(path string) (*SQLiteDatabase, error) {
	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}
	return &SQLiteDatabase{db: db, path: path}, nil
}

// NewSQLiteDatabaseFromDB wraps an existing database connection.
// The caller is responsible for ensuring the connection is properly configured.
func NewSQLiteDatabaseFromDB(db *sql.DB) *SQLiteDatabase {
	return &SQLiteDatabase{db: db}
}

// OpenStore opens path as a pm.Store. It matches pm.StoreOpener.
func OpenStore(path string) (pm.Store, error) {
	return NewSQLiteDatabase(path)
}

// OpenConnection opens and configures a SQLite database connection.
// The pool is limited to one connection: SQLite has a single writer, and an
// in-memory database exists per connection.
func OpenConnection(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	return db, nil
}

// EnsureSchema applies pending migrations. It is idempotent.
func (s *SQLiteDatabase) EnsureSchema(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := migrations.MigrateUp(s.db); err != nil {
		return fmt.Errorf("ensuring schema: %w", err)
	}
	return nil
}

// CheckMigrations verifies the schema is at the latest version.
func (s *SQLiteDatabase) CheckMigrations() error {
	return migrations.CheckDBMigrationStatus(s.db)
}

// SelectAll returns every record, newest first. NULL website and email
// columns are read back as empty strings.
func (s *SQLiteDatabase) SelectAll(ctx context.Context) ([]model.CredentialRecord, error) {
	rows, err := s.db.QueryContext(ctx, selectAllQuery)
	if err != nil {
		return nil, fmt.Errorf("selecting records: %w", err)
	}
	defer rows.Close()

	records := []model.CredentialRecord{}
	for rows.Next() {
		var rec model.CredentialRecord
		var website, email sql.NullString
		if err := rows.Scan(&rec.ID, &rec.Title, &rec.Username, &rec.Password,
			&website, &email, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning record: %w", err)
		}
		rec.Website = website.String
		rec.Email = email.String
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating records: %w", err)
	}
	return records, nil
}

// Insert stores a new record.
func (s *SQLiteDatabase) Insert(ctx context.Context, rec model.CredentialRecord) error {
	_, err := s.db.ExecContext(ctx, insertQuery,
		rec.ID, rec.Title, rec.Username, rec.Password, rec.Website, rec.Email, rec.CreatedAt, rec.UpdatedAt)
	if err != nil {
		return fmt.Errorf("inserting record %s: %w", rec.ID, err)
	}
	return nil
}

// Update replaces the mutable fields of record id and returns the number of
// rows affected.
func (s *SQLiteDatabase) Update(ctx context.Context, id string, f model.RecordFields, updatedAt string) (int64, error) {
	res, err := s.db.ExecContext(ctx, updateQuery,
		f.Title, f.Username, f.Password, f.Website, f.Email, updatedAt, id)
	if err != nil {
		return 0, fmt.Errorf("updating record %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("reading rows affected: %w", err)
	}
	return n, nil
}

// Delete removes record id and returns the number of rows affected.
func (s *SQLiteDatabase) Delete(ctx context.Context, id string) (int64, error) {
	res, err := s.db.ExecContext(ctx, deleteQuery, id)
	if err != nil {
		return 0, fmt.Errorf("deleting record %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("reading rows affected: %w", err)
	}
	return n, nil
}

// ReplaceAll deletes every record and inserts records in one transaction.
func (s *SQLiteDatabase) ReplaceAll(ctx context.Context, records []model.CredentialRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM password_entries`); err != nil {
		return fmt.Errorf("clearing records: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, insertQuery)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, rec := range records {
		if _, err := stmt.ExecContext(ctx,
			rec.ID, rec.Title, rec.Username, rec.Password, rec.Website, rec.Email, rec.CreatedAt, rec.UpdatedAt); err != nil {
			return fmt.Errorf("inserting record %s: %w", rec.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// BackupTo creates a complete copy of the database at destPath using VACUUM INTO.
// destPath must not exist.
func (s *SQLiteDatabase) BackupTo(ctx context.Context, destPath string) error {
	if _, err := s.db.ExecContext(ctx, "VACUUM INTO ?", destPath); err != nil {
		return fmt.Errorf("backing up database: %w", err)
	}
	return nil
}

// Path returns the path the database was opened with.
func (s *SQLiteDatabase) Path() string {
	return s.path
}

// Close closes the database connection.
func (s *SQLiteDatabase) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Compile-time check that SQLiteDatabase implements pm.Store.
var _ pm.Store = (*SQLiteDatabase)(nil)
