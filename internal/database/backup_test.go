package database

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"teewatch/internal/model"
	"teewatch/internal/storage"
)

func TestPerformBackupRoundTrip(t *testing.T) {
	dir := t.TempDir()

	store, err := storage.NewStore(filepath.Join(dir, "teewatch.db"))
	require.NoError(t, err)
	defer store.Close()

	cfg := model.DefaultUserConfig()
	cfg.MinPlayers = 3
	require.NoError(t, store.PutUserConfig(cfg.Item("user@test.com")))

	logger := zerolog.Nop()
	backupDir := filepath.Join(dir, "backups")
	svc := NewBackupService(store, BackupConfig{
		Enabled:     true,
		StoragePath: backupDir,
	}, &logger)

	require.NoError(t, svc.PerformBackup())

	files, err := os.ReadDir(backupDir)
	require.NoError(t, err)
	require.Len(t, files, 1)

	// The backup opens as a working database with the data intact.
	restored, err := storage.NewStore(filepath.Join(backupDir, files[0].Name()))
	require.NoError(t, err)
	defer restored.Close()

	got, found, err := restored.GetUserConfig("user@test.com")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 3, got.MinPlayers)
}

func TestCleanupOldBackups(t *testing.T) {
	dir := t.TempDir()
	logger := zerolog.Nop()

	stale := filepath.Join(dir, "backup_old.db")
	require.NoError(t, os.WriteFile(stale, []byte("x"), 0o600))
	old := time.Now().AddDate(0, 0, -10)
	require.NoError(t, os.Chtimes(stale, old, old))

	fresh := filepath.Join(dir, "backup_new.db")
	require.NoError(t, os.WriteFile(fresh, []byte("x"), 0o600))

	svc := NewBackupService(nil, BackupConfig{
		Enabled:       true,
		StoragePath:   dir,
		RetentionDays: 7,
	}, &logger)
	svc.CleanupOldBackups()

	files, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "backup_new.db", files[0].Name())
}
