package pm

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// BackupSuffix is the extension of backup objects.
const BackupSuffix = ".db.age"

// Backups copies the live database to a BackupTarget, encrypted, and restores
// such copies into the live store.
type Backups struct {
	store  Store
	repo   *Repository
	target BackupTarget
	enc    Encryptor
	open   StoreOpener
	clock  Clock
	logger Logger
}

// NewBackups creates a Backups service. open is used to read a decrypted
// backup during Restore.
func NewBackups(store Store, repo *Repository, target BackupTarget, enc Encryptor, open StoreOpener, clock Clock, logger Logger) *Backups {
	return &Backups{
		store:  store,
		repo:   repo,
		target: target,
		enc:    enc,
		open:   open,
		clock:  clock,
		logger: logger,
	}
}

// BackupNameLayout is the time layout embedded in backup names.
const BackupNameLayout = "20060102T150405.000Z"

// BackupName returns the object name for a backup taken at the clock's
// current time.
func (b *Backups) BackupName() string {
	return "pm-" + b.clock.Now().UTC().Format(BackupNameLayout) + BackupSuffix
}

// Push snapshots the live database, encrypts it and stores it on the target.
func (b *Backups) Push(ctx context.Context) (BackupInfo, error) {
	if !b.enc.IsConfigured() {
		return BackupInfo{}, fmt.Errorf("encryption keys not configured: run `pm config init`")
	}

	name := b.BackupName()
	if err := b.ensureAbsent(ctx, name); err != nil {
		return BackupInfo{}, err
	}

	tmpDir, err := os.MkdirTemp("", "pm-backup-*")
	if err != nil {
		return BackupInfo{}, fmt.Errorf("creating temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	snapshotPath := filepath.Join(tmpDir, "snapshot.db")
	if err := b.store.BackupTo(ctx, snapshotPath); err != nil {
		return BackupInfo{}, &StorageError{Op: "backup", Err: err}
	}

	encryptedPath := filepath.Join(tmpDir, "snapshot.db.age")
	if err := b.encryptFile(snapshotPath, encryptedPath); err != nil {
		return BackupInfo{}, err
	}

	f, err := os.Open(encryptedPath)
	if err != nil {
		return BackupInfo{}, fmt.Errorf("opening encrypted snapshot: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return BackupInfo{}, fmt.Errorf("stat encrypted snapshot: %w", err)
	}

	if err := b.target.Put(ctx, name, f, info.Size()); err != nil {
		return BackupInfo{}, fmt.Errorf("uploading backup %s: %w", name, err)
	}

	b.logger.Info("backup stored", "name", name, "size", info.Size())
	return BackupInfo{Name: name, Size: info.Size(), ModifiedAt: b.clock.Now()}, nil
}

// List returns the backups present on the target.
func (b *Backups) List(ctx context.Context) ([]BackupInfo, error) {
	infos, err := b.target.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing backups: %w", err)
	}
	var out []BackupInfo
	for _, info := range infos {
		if strings.HasSuffix(info.Name, BackupSuffix) {
			out = append(out, info)
		}
	}
	return out, nil
}

// Restore replaces every live record with the records of backup name and
// reloads the repository. It returns the number of restored records.
func (b *Backups) Restore(ctx context.Context, name string, dc DecryptionContext) (int, error) {
	tmpDir, err := os.MkdirTemp("", "pm-restore-*")
	if err != nil {
		return 0, fmt.Errorf("creating temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	encryptedPath := filepath.Join(tmpDir, "backup.db.age")
	if err := b.download(ctx, name, encryptedPath); err != nil {
		return 0, err
	}

	snapshotPath := filepath.Join(tmpDir, "backup.db")
	if err := decryptFile(dc, encryptedPath, snapshotPath); err != nil {
		return 0, err
	}

	snapshot, err := b.open(snapshotPath)
	if err != nil {
		return 0, fmt.Errorf("opening backup %s: %w", name, err)
	}
	records, err := snapshot.SelectAll(ctx)
	snapshot.Close()
	if err != nil {
		return 0, fmt.Errorf("reading backup %s: %w", name, err)
	}

	if err := b.repo.ReplaceAll(ctx, records); err != nil {
		return 0, fmt.Errorf("restoring backup %s: %w", name, err)
	}

	b.logger.Info("backup restored", "name", name, "count", len(records))
	return len(records), nil
}

// ensureAbsent fails with ErrBackupExists when name is already stored, so a
// push never replaces an earlier backup.
func (b *Backups) ensureAbsent(ctx context.Context, name string) error {
	infos, err := b.target.List(ctx)
	if err != nil {
		return fmt.Errorf("listing backups: %w", err)
	}
	for _, info := range infos {
		if info.Name == name {
			return fmt.Errorf("%s: %w", name, ErrBackupExists)
		}
	}
	return nil
}

func (b *Backups) encryptFile(srcPath, destPath string) error {
	src, err := os.Open(srcPath)
	if err != nil {
		return fmt.Errorf("opening snapshot: %w", err)
	}
	defer src.Close()

	dest, err := os.OpenFile(destPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("creating encrypted snapshot: %w", err)
	}
	defer dest.Close()

	if err := b.enc.Encrypt(src, dest); err != nil {
		return fmt.Errorf("encrypting snapshot: %w", err)
	}
	return dest.Close()
}

func (b *Backups) download(ctx context.Context, name, destPath string) error {
	f, err := os.OpenFile(destPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("creating download file: %w", err)
	}
	defer f.Close()

	if err := b.target.Get(ctx, name, f); err != nil {
		return fmt.Errorf("downloading backup %s: %w", name, err)
	}
	return f.Close()
}

func decryptFile(dc DecryptionContext, srcPath, destPath string) error {
	src, err := os.Open(srcPath)
	if err != nil {
		return fmt.Errorf("opening encrypted backup: %w", err)
	}
	defer src.Close()

	dest, err := os.OpenFile(destPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("creating decrypted backup: %w", err)
	}
	defer dest.Close()

	if err := dc.Decrypt(src, dest); err != nil {
		return fmt.Errorf("decrypting backup: %w", err)
	}
	return dest.Close()
}
