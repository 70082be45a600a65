package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestManager_ReadWrite_RoundTrip(t *testing.T) {
	original := &Config{
		BaseDir:  "/home/user/.local/share/pm",
		LogDir:   "/home/user/.local/share/pm/log",
		Database: DatabaseConfig{Type: "sqlite", Path: "/home/user/.local/share/pm/pass.db"},
		IDs:      IDConfig{Format: "ulid"},
		Display:  DisplayConfig{SortField: "title", SortOrder: "asc"},
		Backup: BackupConfig{
			Type:        "s3",
			S3Bucket:    "backups",
			S3Prefix:    "pm/",
			S3Region:    "eu-west-1",
			S3Endpoint:  "http://localhost:9000",
			S3PathStyle: true,
		},
		Encryption: EncryptionConfig{
			Type:           "age",
			PublicKeyPath:  "/home/user/.local/share/pm/keys/pm.pub",
			PrivateKeyPath: "/home/user/.local/share/pm/keys/pm.key",
		},
	}

	var buf bytes.Buffer
	m := &Manager{}

	if err := m.Write(&buf, original); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	got, err := m.Read(&buf)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}

	if *got != *original {
		t.Errorf("Read() = %+v, want %+v", got, original)
	}
}

func TestManager_Read_InvalidTOML(t *testing.T) {
	m := &Manager{}
	if _, err := m.Read(strings.NewReader("base_dir = [unterminated")); err == nil {
		t.Error("Read() expected error for invalid TOML, got nil")
	}
}

func TestNewConfig(t *testing.T) {
	cfg := NewConfig("/data/pm")

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"log dir", cfg.LogDir, "/data/pm/log"},
		{"database type", cfg.Database.Type, "sqlite"},
		{"database path", cfg.Database.Path, "/data/pm/pass.db"},
		{"id format", cfg.IDs.Format, "uuid"},
		{"sort field", cfg.Display.SortField, "created_at"},
		{"sort order", cfg.Display.SortOrder, "desc"},
		{"backup type", cfg.Backup.Type, "filesystem"},
		{"backup root", cfg.Backup.FSRoot, "/data/pm/backups"},
		{"public key", cfg.Encryption.PublicKeyPath, "/data/pm/keys/pm.pub"},
		{"private key", cfg.Encryption.PrivateKeyPath, "/data/pm/keys/pm.key"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
}

func TestInit(t *testing.T) {
	t.Run("creates config file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "sub", "pm.toml")

		if err := Init(path, NewConfig("/data/pm")); err != nil {
			t.Fatalf("Init() error = %v", err)
		}

		info, err := os.Stat(path)
		if err != nil {
			t.Fatalf("config file not created: %v", err)
		}
		if perm := info.Mode().Perm(); perm != 0600 {
			t.Errorf("config file mode = %o, want 600", perm)
		}

		got, err := ReadFromFile(path)
		if err != nil {
			t.Fatalf("ReadFromFile() error = %v", err)
		}
		if got.BaseDir != "/data/pm" {
			t.Errorf("BaseDir = %q, want %q", got.BaseDir, "/data/pm")
		}
	})

	t.Run("refuses to overwrite", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "pm.toml")
		if err := os.WriteFile(path, []byte("base_dir = \"x\"\n"), 0644); err != nil {
			t.Fatalf("writing existing config: %v", err)
		}

		if err := Init(path, NewConfig("/data/pm")); err == nil {
			t.Error("Init() expected error for existing file, got nil")
		}
	})
}

func TestReadFromFile_Missing(t *testing.T) {
	if _, err := ReadFromFile(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Error("ReadFromFile() expected error for missing file, got nil")
	}
}
