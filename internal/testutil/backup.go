package testutil

import (
	"pm-go/internal/backup"
)

// NewTestBackupTarget creates a new in-memory backup target for testing.
func NewTestBackupTarget() *backup.MemoryTarget {
	return backup.NewMemoryTarget()
}
