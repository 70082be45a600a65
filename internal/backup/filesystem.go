package backup

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"pm-go/internal/pm"
)

var (
	// ErrNotFound is returned when a named backup does not exist.
	ErrNotFound = errors.New("backup not found")

	// ErrInvalidName is returned for names that are empty or contain a path separator.
	ErrInvalidName = errors.New("invalid backup name")
)

// FileSystemTarget stores backups as files directly under a root directory.
type FileSystemTarget struct {
	root string
}

// NewFileSystemTarget creates a filesystem target rooted at root, creating
// the directory if needed.
func NewFileSystemTarget(root string) (*FileSystemTarget, error) {
	if err := os.MkdirAll(root, 0700); err != nil {
		return nil, fmt.Errorf("failed to create backup directory: %w", err)
	}
	return &FileSystemTarget{root: root}, nil
}

// Put writes the backup atomically (temp file + rename).
func (t *FileSystemTarget) Put(ctx context.Context, name string, r io.Reader, size int64) error {
	if err := validateName(name); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	tmpFile, err := os.CreateTemp(t.root, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	written, err := io.Copy(tmpFile, r)
	if err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to write backup: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if written != size {
		return fmt.Errorf("size mismatch: expected %d bytes, got %d", size, written)
	}

	if err := os.Rename(tmpPath, filepath.Join(t.root, name)); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	success = true
	return nil
}

// Get writes the backup stored under name to w.
func (t *FileSystemTarget) Get(ctx context.Context, name string, w io.Writer) error {
	if err := validateName(name); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	f, err := os.Open(filepath.Join(t.root, name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return fmt.Errorf("failed to open backup: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("failed to read backup: %w", err)
	}
	return nil
}

// List returns the stored backups ordered by name. Temp files of interrupted
// writes are skipped.
func (t *FileSystemTarget) List(ctx context.Context) ([]pm.BackupInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(t.root)
	if err != nil {
		return nil, fmt.Errorf("failed to read backup directory: %w", err)
	}

	var infos []pm.BackupInfo
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".tmp-") {
			continue
		}
		fi, err := e.Info()
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", e.Name(), err)
		}
		infos = append(infos, pm.BackupInfo{
			Name:       e.Name(),
			Size:       fi.Size(),
			ModifiedAt: fi.ModTime(),
		})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos, nil
}

func validateName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

// Compile-time check that FileSystemTarget implements pm.BackupTarget.
var _ pm.BackupTarget = (*FileSystemTarget)(nil)
