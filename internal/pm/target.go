package pm

import (
	"context"
	"io"
	"time"
)

// BackupInfo describes one stored backup.
type BackupInfo struct {
	Name       string    `json:"name" yaml:"name"`
	Size       int64     `json:"size" yaml:"size"`
	ModifiedAt time.Time `json:"modified_at" yaml:"modified_at"`
}

// BackupTarget stores encrypted database backups off the live store.
// Streams are used so a backup is never held twice in memory.
type BackupTarget interface {
	// Put stores a backup under name. size is the number of bytes in r.
	Put(ctx context.Context, name string, r io.Reader, size int64) error

	// Get writes the backup stored under name to w.
	Get(ctx context.Context, name string, w io.Writer) error

	// List returns the stored backups ordered by name.
	List(ctx context.Context) ([]BackupInfo, error)
}
