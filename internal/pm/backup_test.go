package pm_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pm-go/internal/backup"
	"pm-go/internal/database"
	"pm-go/internal/encryption"
	"pm-go/internal/model"
	"pm-go/internal/pm"
	"pm-go/internal/testutil"
)

type backupFixture struct {
	backups *pm.Backups
	repo    *pm.Repository
	store   *testutil.FaultyStore
	target  *backup.MemoryTarget
	enc     pm.Encryptor
}

func newTestBackups(t *testing.T, enc pm.Encryptor) *backupFixture {
	t.Helper()
	store := testutil.NewFaultyStore(testutil.NewTestDatabase(t))
	repo := pm.NewRepository(store, pm.NewNopLogger())
	target := testutil.NewTestBackupTarget()
	b := pm.NewBackups(store, repo, target, enc, database.OpenStore, testutil.FixedClock(), pm.NewNopLogger())
	return &backupFixture{backups: b, repo: repo, store: store, target: target, enc: enc}
}

func TestBackups_PushAndRestore(t *testing.T) {
	f := newTestBackups(t, testutil.NewTestEncryptor())
	ctx := context.Background()

	original := []model.CredentialRecord{
		rec("a", "Mail", "bob", "", "bob@x.com", "2024-01-15T10:30:00.000000000Z", "2024-01-15T10:30:00.000000000Z"),
		rec("b", "Bank", "alice", "https://bank.example", "", "2024-01-16T10:30:00.000000000Z", "2024-01-16T10:30:00.000000000Z"),
	}
	for _, r := range original {
		require.NoError(t, f.repo.Create(ctx, r))
	}

	info, err := f.backups.Push(ctx)
	require.NoError(t, err)
	assert.Equal(t, "pm-20240115T103000.000Z.db.age", info.Name)
	assert.Positive(t, info.Size)

	require.NoError(t, f.repo.Delete(ctx, "a"))
	require.NoError(t, f.repo.Create(ctx, rec("c", "Forum", "carol", "", "", "2024-01-17T10:30:00.000000000Z", "2024-01-17T10:30:00.000000000Z")))

	dc, err := f.enc.Unlock("")
	require.NoError(t, err)
	n, err := f.backups.Restore(ctx, info.Name, dc)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []string{"b", "a"}, ids(f.repo.Records()))

	restored, ok := f.repo.Find("a")
	require.True(t, ok)
	assert.Equal(t, original[0], restored)
}

func TestBackups_PushWithAge(t *testing.T) {
	dir := t.TempDir()
	enc := encryption.NewAgeEncryptor(configForKeys(dir))
	require.NoError(t, enc.Setup("correct horse"))

	f := newTestBackups(t, enc)
	ctx := context.Background()
	require.NoError(t, f.repo.Create(ctx, rec("a", "Mail", "bob", "", "", "2024-01-15T10:30:00.000000000Z", "2024-01-15T10:30:00.000000000Z")))

	info, err := f.backups.Push(ctx)
	require.NoError(t, err)

	var stored strings.Builder
	require.NoError(t, f.target.Get(ctx, info.Name, &stored))
	assert.True(t, strings.HasPrefix(stored.String(), "age-encryption.org/v1"))
	assert.NotContains(t, stored.String(), "pw-a")

	require.NoError(t, f.repo.ReplaceAll(ctx, nil))
	dc, err := enc.Unlock("correct horse")
	require.NoError(t, err)
	n, err := f.backups.Restore(ctx, info.Name, dc)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []string{"a"}, ids(f.repo.Records()))
}

func TestBackups_PushRequiresKeys(t *testing.T) {
	f := newTestBackups(t, encryption.NewUnconfiguredTestEncryptor())

	_, err := f.backups.Push(context.Background())
	require.Error(t, err)
	assert.Zero(t, f.store.Calls("backup_to"))
}

func TestBackups_PushStorageError(t *testing.T) {
	f := newTestBackups(t, testutil.NewTestEncryptor())
	f.store.FailOn("backup_to", errDiskFull)

	_, err := f.backups.Push(context.Background())
	require.Error(t, err)
	assert.True(t, pm.IsStorageError(err))

	infos, err := f.backups.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, infos)
}

func TestBackups_List(t *testing.T) {
	f := newTestBackups(t, testutil.NewTestEncryptor())
	ctx := context.Background()

	_, err := f.backups.Push(ctx)
	require.NoError(t, err)
	require.NoError(t, f.target.Put(ctx, "notes.txt", strings.NewReader("x"), 1))

	infos, err := f.backups.List(ctx)
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, "pm-20240115T103000.000Z.db.age", infos[0].Name)
}

func TestBackups_RestoreMissing(t *testing.T) {
	f := newTestBackups(t, testutil.NewTestEncryptor())
	ctx := context.Background()
	require.NoError(t, f.repo.Create(ctx, rec("a", "Mail", "bob", "", "", "2024-01-15T10:30:00.000000000Z", "2024-01-15T10:30:00.000000000Z")))

	dc, err := f.enc.Unlock("")
	require.NoError(t, err)
	_, err = f.backups.Restore(ctx, "pm-missing.db.age", dc)
	assert.ErrorIs(t, err, backup.ErrNotFound)
	assert.Len(t, f.repo.Records(), 1, "live records untouched")
}

func TestBackups_PushNeverOverwrites(t *testing.T) {
	store := testutil.NewFaultyStore(testutil.NewTestDatabase(t))
	repo := pm.NewRepository(store, pm.NewNopLogger())
	target := testutil.NewTestBackupTarget()
	clock := testutil.FixedClock()
	b := pm.NewBackups(store, repo, target, testutil.NewTestEncryptor(), database.OpenStore, clock, pm.NewNopLogger())
	ctx := context.Background()

	first, err := b.Push(ctx)
	require.NoError(t, err)

	_, err = b.Push(ctx)
	assert.ErrorIs(t, err, pm.ErrBackupExists)
	assert.Equal(t, 1, store.Calls("backup_to"), "snapshot skipped when the name is taken")

	clock.Advance(time.Millisecond)
	second, err := b.Push(ctx)
	require.NoError(t, err)
	assert.Equal(t, "pm-20240115T103000.001Z.db.age", second.Name)

	infos, err := b.List(ctx)
	require.NoError(t, err)
	require.Len(t, infos, 2)
	assert.Equal(t, first.Name, infos[0].Name)
	assert.Equal(t, second.Name, infos[1].Name)
}
