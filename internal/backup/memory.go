package backup

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"pm-go/internal/pm"
)

// MemoryTarget keeps backups in memory. It is useful for testing and is safe
// for concurrent use.
type MemoryTarget struct {
	mu      sync.RWMutex
	objects map[string]memoryObject
	now     func() time.Time
}

type memoryObject struct {
	data       []byte
	modifiedAt time.Time
}

// NewMemoryTarget creates an empty in-memory backup target.
func NewMemoryTarget() *MemoryTarget {
	return &MemoryTarget{
		objects: make(map[string]memoryObject),
		now:     time.Now,
	}
}

// Put stores the backup under name, replacing any previous one.
func (m *MemoryTarget) Put(_ context.Context, name string, r io.Reader, size int64) error {
	if err := validateName(name); err != nil {
		return err
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("failed to read backup: %w", err)
	}
	if int64(len(data)) != size {
		return fmt.Errorf("size mismatch: expected %d bytes, got %d", size, len(data))
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[name] = memoryObject{data: data, modifiedAt: m.now()}
	return nil
}

// Get writes the backup stored under name to w.
func (m *MemoryTarget) Get(_ context.Context, name string, w io.Writer) error {
	m.mu.RLock()
	obj, ok := m.objects[name]
	m.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}

	if _, err := io.Copy(w, bytes.NewReader(obj.data)); err != nil {
		return fmt.Errorf("failed to write backup: %w", err)
	}
	return nil
}

// List returns the stored backups ordered by name.
func (m *MemoryTarget) List(_ context.Context) ([]pm.BackupInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	infos := make([]pm.BackupInfo, 0, len(m.objects))
	for name, obj := range m.objects {
		infos = append(infos, pm.BackupInfo{
			Name:       name,
			Size:       int64(len(obj.data)),
			ModifiedAt: obj.modifiedAt,
		})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos, nil
}

// Compile-time check that MemoryTarget implements pm.BackupTarget.
var _ pm.BackupTarget = (*MemoryTarget)(nil)
