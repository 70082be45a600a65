package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"pm-go/internal/backup"
	"pm-go/internal/config"
	"pm-go/internal/database"
	"pm-go/internal/encryption"
	"pm-go/internal/model"
	"pm-go/internal/pm"
)

// Options tune how a PMApp is built.
type Options struct {
	// Verbose mirrors log records to Stderr and enables debug records.
	Verbose bool
	Stderr  io.Writer
	Clock   pm.Clock
}

// PMApp is the application layer between the CLI and the record engine.
// It constructs all dependencies from config, runs every mutation through
// the Controller session, and releases resources on Close.
type PMApp struct {
	cfg        *config.Config
	db         *database.SQLiteDatabase
	repo       *pm.Repository
	controller *pm.Controller
	visibility *pm.Visibility
	encryptor  pm.Encryptor
	target     pm.BackupTarget
	clock      pm.Clock
	logger     pm.Logger
	op         *Operation
	logFile    *os.File
}

// NewPMApp creates a fully wired PMApp from the given config and loads the
// stored records. operation names the CLI command being run (e.g. "ls").
// The caller must call Close when done.
func NewPMApp(ctx context.Context, cfg *config.Config, operation string, opts Options) (*PMApp, error) {
	clock := opts.Clock
	if clock == nil {
		clock = pm.RealClock{}
	}
	op := NewOperation(operation, clock.Now())

	level := slog.LevelInfo
	var stderr io.Writer
	if opts.Verbose {
		level = slog.LevelDebug
		stderr = opts.Stderr
		if stderr == nil {
			stderr = os.Stderr
		}
	}
	slogger, logFile, err := newLogger(cfg.LogDir, op.ID, level, stderr)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	logger := &slogAdapter{l: slogger.With("op", op.Name)}

	idgen, err := pm.NewIDGenerator(cfg.IDs.Format)
	if err != nil {
		logFile.Close()
		return nil, fmt.Errorf("creating id generator: %w", err)
	}

	enc, err := encryption.NewEncryptorFromConfig(cfg.Encryption)
	if err != nil {
		logFile.Close()
		return nil, fmt.Errorf("creating encryptor: %w", err)
	}

	db, err := database.NewDatabaseFromConfig(cfg.Database)
	if err != nil {
		logFile.Close()
		return nil, fmt.Errorf("creating database: %w", err)
	}

	repo := pm.NewRepository(db, logger)
	visibility := pm.NewVisibility()
	controller := pm.NewController(repo, clock, idgen, visibility, logger)
	if err := controller.Load(ctx); err != nil {
		db.Close()
		logFile.Close()
		return nil, fmt.Errorf("loading records: %w", err)
	}

	return &PMApp{
		cfg:        cfg,
		db:         db,
		repo:       repo,
		controller: controller,
		visibility: visibility,
		encryptor:  enc,
		clock:      clock,
		logger:     logger,
		op:         op,
		logFile:    logFile,
	}, nil
}

// DefaultSort returns the listing order configured in the display section.
func (a *PMApp) DefaultSort() (pm.SortState, error) {
	state := pm.DefaultSortState()
	if a.cfg.Display.SortField != "" {
		f, err := pm.ParseSortField(a.cfg.Display.SortField)
		if err != nil {
			return pm.SortState{}, fmt.Errorf("display.sort_field: %w", err)
		}
		state.Field = f
	}
	if a.cfg.Display.SortOrder != "" {
		o, err := pm.ParseSortOrder(a.cfg.Display.SortOrder)
		if err != nil {
			return pm.SortState{}, fmt.Errorf("display.sort_order: %w", err)
		}
		state.Order = o
	}
	return state, nil
}

// List derives the display list for query. Records whose id is in show have
// their password visible.
func (a *PMApp) List(query pm.ViewQuery, show []string) []model.DisplayRecord {
	for _, id := range show {
		a.visibility.Show(id)
	}
	return a.controller.View(query)
}

// Get returns the record with the given id.
func (a *PMApp) Get(id string) (model.CredentialRecord, error) {
	rec, ok := a.repo.Find(id)
	if !ok {
		return model.CredentialRecord{}, fmt.Errorf("%s: %w", id, pm.ErrNotFound)
	}
	return rec, nil
}

// Add creates a record from fields. When generate is true the password is
// replaced by a generated one. It returns the new record.
func (a *PMApp) Add(ctx context.Context, fields model.RecordFields, generate bool) (model.CredentialRecord, error) {
	if err := a.controller.BeginCreate(); err != nil {
		return model.CredentialRecord{}, a.fail(err)
	}
	return a.submit(ctx, func(f *model.RecordFields) { *f = fields }, generate)
}

// Edit applies change to the current fields of record id and saves them.
// When generate is true the password is replaced by a generated one.
func (a *PMApp) Edit(ctx context.Context, id string, change func(*model.RecordFields), generate bool) (model.CredentialRecord, error) {
	if err := a.controller.BeginEdit(id); err != nil {
		return model.CredentialRecord{}, a.fail(err)
	}
	return a.submit(ctx, change, generate)
}

func (a *PMApp) submit(ctx context.Context, change func(*model.RecordFields), generate bool) (model.CredentialRecord, error) {
	defer a.controller.Cancel()

	if err := a.controller.EditForm(change); err != nil {
		return model.CredentialRecord{}, a.fail(err)
	}
	if generate {
		if _, err := a.controller.FillGeneratedPassword(); err != nil {
			return model.CredentialRecord{}, a.fail(err)
		}
	}
	id, err := a.controller.Submit(ctx)
	if err != nil {
		return model.CredentialRecord{}, a.fail(err)
	}
	rec, _ := a.repo.Find(id)
	return rec, nil
}

// Remove deletes record id. confirm is asked once the record is known to
// exist; when it returns false nothing is deleted and Remove returns false.
func (a *PMApp) Remove(ctx context.Context, id string, confirm func(model.CredentialRecord) bool) (bool, error) {
	rec, err := a.Get(id)
	if err != nil {
		return false, a.fail(err)
	}
	if err := a.controller.RequestDelete(id); err != nil {
		return false, a.fail(err)
	}
	defer a.controller.Cancel()

	if confirm != nil && !confirm(rec) {
		return false, nil
	}
	if err := a.controller.ConfirmDelete(ctx); err != nil {
		return false, a.fail(err)
	}
	return true, nil
}

// SetupEncryption creates the backup key pair protected by passphrase.
func (a *PMApp) SetupEncryption(passphrase string) error {
	if err := a.encryptor.Setup(passphrase); err != nil {
		return a.fail(fmt.Errorf("setting up encryption: %w", err))
	}
	a.logger.Info("backup keys created")
	return nil
}

// EncryptionConfigured reports whether the backup key pair exists.
func (a *PMApp) EncryptionConfigured() bool {
	return a.encryptor.IsConfigured()
}

// PushBackup stores an encrypted snapshot of the database on the backup target.
func (a *PMApp) PushBackup(ctx context.Context) (pm.BackupInfo, error) {
	b, err := a.backups(ctx)
	if err != nil {
		return pm.BackupInfo{}, a.fail(err)
	}
	info, err := b.Push(ctx)
	if err != nil {
		return pm.BackupInfo{}, a.fail(err)
	}
	return info, nil
}

// ListBackups returns the backups on the backup target.
func (a *PMApp) ListBackups(ctx context.Context) ([]pm.BackupInfo, error) {
	b, err := a.backups(ctx)
	if err != nil {
		return nil, a.fail(err)
	}
	infos, err := b.List(ctx)
	if err != nil {
		return nil, a.fail(err)
	}
	return infos, nil
}

// RestoreBackup unlocks the backup key with passphrase and replaces every
// stored record with the content of backup name. All passwords are hidden
// afterwards.
func (a *PMApp) RestoreBackup(ctx context.Context, name, passphrase string) (int, error) {
	b, err := a.backups(ctx)
	if err != nil {
		return 0, a.fail(err)
	}
	dc, err := a.encryptor.Unlock(passphrase)
	if err != nil {
		return 0, a.fail(fmt.Errorf("unlocking backup key: %w", err))
	}
	n, err := b.Restore(ctx, name, dc)
	if err != nil {
		return 0, a.fail(err)
	}
	a.visibility.Clear()
	return n, nil
}

// backups builds the backup service on first use, so commands that never
// touch backups do not create the target.
func (a *PMApp) backups(ctx context.Context) (*pm.Backups, error) {
	if a.target == nil {
		t, err := backup.NewTargetFromConfig(ctx, a.cfg.Backup)
		if err != nil {
			return nil, fmt.Errorf("creating backup target: %w", err)
		}
		a.target = t
	}
	return pm.NewBackups(a.db, a.repo, a.target, a.encryptor, database.OpenStore, a.clock, a.logger), nil
}

func (a *PMApp) fail(err error) error {
	a.op.Fail()
	return err
}

// Close logs the outcome of the operation and closes all resources.
func (a *PMApp) Close() error {
	a.logger.Debug("operation finished",
		"status", a.op.Status,
		"duration", a.op.Duration(a.clock.Now()).String())

	var firstErr error
	if err := a.db.Close(); err != nil {
		firstErr = fmt.Errorf("closing database: %w", err)
	}
	if a.logFile != nil {
		if err := a.logFile.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("closing log file: %w", err)
		}
	}
	return firstErr
}
