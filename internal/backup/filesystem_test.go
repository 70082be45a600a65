package backup

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewFileSystemTarget(t *testing.T) {
	t.Run("creates root directory", func(t *testing.T) {
		root := filepath.Join(t.TempDir(), "backups", "nested")

		if _, err := NewFileSystemTarget(root); err != nil {
			t.Fatalf("NewFileSystemTarget() error = %v", err)
		}

		info, err := os.Stat(root)
		if err != nil {
			t.Fatalf("root directory not created: %v", err)
		}
		if !info.IsDir() {
			t.Errorf("root is not a directory")
		}
	})

	t.Run("works with existing directory", func(t *testing.T) {
		if _, err := NewFileSystemTarget(t.TempDir()); err != nil {
			t.Fatalf("NewFileSystemTarget() error = %v", err)
		}
	})
}

func TestFileSystemTarget_Put(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		size    int64
		wantErr bool
	}{
		{name: "store content successfully", data: "hello world", size: 11},
		{name: "size mismatch", data: "hello", size: 100, wantErr: true},
		{name: "empty content", data: "", size: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			target, err := NewFileSystemTarget(root)
			if err != nil {
				t.Fatalf("NewFileSystemTarget() error = %v", err)
			}

			err = target.Put(context.Background(), "pm.db.age", strings.NewReader(tt.data), tt.size)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Put() error = %v, wantErr %v", err, tt.wantErr)
			}

			path := filepath.Join(root, "pm.db.age")
			_, statErr := os.Stat(path)
			if tt.wantErr {
				if statErr == nil {
					t.Error("backup file exists after failed Put()")
				}
				entries, _ := os.ReadDir(root)
				if len(entries) != 0 {
					t.Errorf("temp files left behind: %v", entries)
				}
				return
			}
			got, err := os.ReadFile(path)
			if err != nil {
				t.Fatalf("reading stored backup: %v", err)
			}
			if string(got) != tt.data {
				t.Errorf("stored content = %q, want %q", got, tt.data)
			}
		})
	}
}

func TestFileSystemTarget_Get(t *testing.T) {
	target, err := NewFileSystemTarget(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileSystemTarget() error = %v", err)
	}
	ctx := context.Background()

	if err := target.Put(ctx, "pm.db.age", strings.NewReader("payload"), 7); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	t.Run("existing backup", func(t *testing.T) {
		var buf bytes.Buffer
		if err := target.Get(ctx, "pm.db.age", &buf); err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if buf.String() != "payload" {
			t.Errorf("Get() = %q, want %q", buf.String(), "payload")
		}
	})

	t.Run("missing backup", func(t *testing.T) {
		err := target.Get(ctx, "missing.db.age", &bytes.Buffer{})
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("Get() error = %v, want ErrNotFound", err)
		}
	})

	t.Run("path traversal", func(t *testing.T) {
		err := target.Get(ctx, "../pm.db.age", &bytes.Buffer{})
		if !errors.Is(err, ErrInvalidName) {
			t.Errorf("Get() error = %v, want ErrInvalidName", err)
		}
	})
}

func TestFileSystemTarget_List(t *testing.T) {
	root := t.TempDir()
	target, err := NewFileSystemTarget(root)
	if err != nil {
		t.Fatalf("NewFileSystemTarget() error = %v", err)
	}
	ctx := context.Background()

	for _, name := range []string{"pm-2.db.age", "pm-1.db.age"} {
		if err := target.Put(ctx, name, strings.NewReader("data"), 4); err != nil {
			t.Fatalf("Put(%s) error = %v", name, err)
		}
	}
	if err := os.WriteFile(filepath.Join(root, ".tmp-123"), []byte("partial"), 0600); err != nil {
		t.Fatalf("writing temp file: %v", err)
	}
	if err := os.Mkdir(filepath.Join(root, "subdir"), 0700); err != nil {
		t.Fatalf("creating subdir: %v", err)
	}

	infos, err := target.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(infos) != 2 {
		t.Fatalf("List() returned %d backups, want 2: %v", len(infos), infos)
	}
	if infos[0].Name != "pm-1.db.age" || infos[1].Name != "pm-2.db.age" {
		t.Errorf("List() names = %q, %q; want pm-1.db.age, pm-2.db.age", infos[0].Name, infos[1].Name)
	}
	if infos[0].Size != 4 {
		t.Errorf("List()[0].Size = %d, want 4", infos[0].Size)
	}
	if infos[0].ModifiedAt.IsZero() {
		t.Error("List()[0].ModifiedAt is zero")
	}
}
