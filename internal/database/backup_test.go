package database

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"zolver/internal/config"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPerformBackup(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "source.db")

	db, err := NewDB(dbPath)
	require.NoError(t, err)
	defer db.Close()

	a := testAppointment("pro-1", time.Now(), time.Hour)
	require.NoError(t, db.CreateAppointment(context.Background(), a))

	logger := zerolog.New(os.Stdout)
	backupDir := filepath.Join(dir, "backups")
	svc := NewBackupService(dbPath, config.BackupConfig{
		Enabled:     true,
		StoragePath: backupDir,
	}, &logger)

	require.NoError(t, svc.PerformBackup())

	files, err := os.ReadDir(backupDir)
	require.NoError(t, err)
	require.Len(t, files, 1)

	// The snapshot is a usable database with the data in it.
	restored, err := NewDB(filepath.Join(backupDir, files[0].Name()))
	require.NoError(t, err)
	defer restored.Close()

	got, err := restored.GetAppointment(context.Background(), a.ID)
	require.NoError(t, err)
	assert.Equal(t, a.ID, got.ID)
}

func TestCleanupOldBackups(t *testing.T) {
	dir := t.TempDir()

	oldFile := filepath.Join(dir, "backup_old.db")
	require.NoError(t, os.WriteFile(oldFile, []byte("stale"), 0o644))
	oldTime := time.Now().AddDate(0, 0, -10)
	require.NoError(t, os.Chtimes(oldFile, oldTime, oldTime))

	freshFile := filepath.Join(dir, "backup_fresh.db")
	require.NoError(t, os.WriteFile(freshFile, []byte("fresh"), 0o644))

	logger := zerolog.New(os.Stdout)
	svc := NewBackupService("unused.db", config.BackupConfig{
		Enabled:       true,
		StoragePath:   dir,
		RetentionDays: 7,
	}, &logger)

	svc.CleanupOldBackups()

	_, err := os.Stat(oldFile)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(freshFile)
	assert.NoError(t, err)
}
