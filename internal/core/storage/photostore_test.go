package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStore(t *testing.T) *PhotoStore {
	t.Helper()
	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetLevel(logrus.ErrorLevel)
	return NewPhotoStore(t.TempDir(), 7, log)
}

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		in       string
		expected string
	}{
		{"Front Door", "front-door"},
		{"BACK YARD", "back-yard"},
		{"garage", "garage"},
		{"Side  Gate", "side--gate"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, NormalizeName(tt.in))
	}
}

func TestSavePhotoLayout(t *testing.T) {
	store := testStore(t)

	ts := time.Date(2026, 8, 25, 14, 30, 5, 0, time.Local)
	path, err := store.SavePhoto("front-door", []byte("data"), ts)
	require.NoError(t, err)

	// Folder and filename derive from the same timestamp.
	assert.Equal(t, "front-door_20260825_143005.jpg", filepath.Base(path))
	assert.Equal(t, "2026-08-25", filepath.Base(filepath.Dir(path)))
	assert.Equal(t, "front-door", filepath.Base(filepath.Dir(filepath.Dir(path))))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("data"), data)
}

func TestResolvePhoto(t *testing.T) {
	store := testStore(t)

	expected := filepath.Join(store.Root(), "ghost", "2026-08-25", "ghost_20260825_120000.jpg")
	assert.Equal(t, expected, store.ResolvePhoto("ghost", "2026-08-25", "ghost_20260825_120000.jpg"))

	// Resolving an unknown camera must not create its folder.
	_, err := os.Stat(filepath.Join(store.Root(), "ghost"))
	assert.True(t, os.IsNotExist(err))

	// Traversal elements are reduced to their base name.
	assert.Equal(t, expected, store.ResolvePhoto("ghost", "2026-08-25", "../../ghost_20260825_120000.jpg"))
}

func TestLatestPhoto(t *testing.T) {
	store := testStore(t)

	older, err := store.SavePhoto("cam", []byte("old"), time.Date(2026, 8, 24, 10, 0, 0, 0, time.Local))
	require.NoError(t, err)
	past := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(older, past, past))

	newer, err := store.SavePhoto("cam", []byte("new"), time.Date(2026, 8, 25, 10, 0, 0, 0, time.Local))
	require.NoError(t, err)

	assert.Equal(t, newer, store.LatestPhoto("cam"))
}

func TestLatestPhotoBeforeSkipsRecent(t *testing.T) {
	store := testStore(t)

	older, err := store.SavePhoto("cam", []byte("old"), time.Now().Add(-time.Hour))
	require.NoError(t, err)
	past := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(older, past, past))

	_, err = store.SavePhoto("cam", []byte("new"), time.Now())
	require.NoError(t, err)

	cutoff := time.Now().Add(-time.Minute)
	assert.Equal(t, older, store.LatestPhotoBefore("cam", cutoff))
}

func TestCleanupCameraRemovesExpiredFolders(t *testing.T) {
	store := testStore(t)

	_, err := store.SavePhoto("cam", []byte("old"), time.Now().AddDate(0, 0, -10))
	require.NoError(t, err)
	kept, err := store.SavePhoto("cam", []byte("new"), time.Now())
	require.NoError(t, err)

	stats := store.CleanupCamera("cam")
	assert.Equal(t, 1, stats.DeletedFolders)
	assert.Equal(t, 1, stats.DeletedPhotos)

	_, err = os.Stat(kept)
	assert.NoError(t, err)
	assert.Len(t, store.DateFolders("cam"), 1)
}

func TestMigrateCameraMovesFlatPhotos(t *testing.T) {
	store := testStore(t)

	camDir, err := store.CameraDir("cam")
	require.NoError(t, err)

	// Legacy layout: photo directly inside the camera folder, date embedded
	// in the filename.
	flat := filepath.Join(camDir, "cam_20260820_091500.jpg")
	require.NoError(t, os.WriteFile(flat, []byte("legacy"), 0o644))

	stats := store.MigrateCamera("cam")
	assert.Equal(t, 1, stats.Migrated)
	assert.Equal(t, 0, stats.Errors)

	moved := filepath.Join(camDir, "2026-08-20", "cam_20260820_091500.jpg")
	_, err = os.Stat(moved)
	assert.NoError(t, err)
	_, err = os.Stat(flat)
	assert.True(t, os.IsNotExist(err))
}

func TestMigrateCameraFallsBackToModTime(t *testing.T) {
	store := testStore(t)

	camDir, err := store.CameraDir("cam")
	require.NoError(t, err)

	flat := filepath.Join(camDir, "cam_oddname.jpg")
	require.NoError(t, os.WriteFile(flat, []byte("legacy"), 0o644))
	mtime := time.Date(2026, 8, 19, 12, 0, 0, 0, time.Local)
	require.NoError(t, os.Chtimes(flat, mtime, mtime))

	stats := store.MigrateCamera("cam")
	assert.Equal(t, 1, stats.Migrated)

	_, err = os.Stat(filepath.Join(camDir, "2026-08-19", "cam_oddname.jpg"))
	assert.NoError(t, err)
}

func TestStats(t *testing.T) {
	store := testStore(t)

	_, err := store.SavePhoto("cam", []byte("aaaa"), time.Date(2026, 8, 24, 10, 0, 0, 0, time.Local))
	require.NoError(t, err)
	_, err = store.SavePhoto("cam", []byte("bbbb"), time.Date(2026, 8, 25, 10, 0, 0, 0, time.Local))
	require.NoError(t, err)

	stats := store.Stats("cam")
	assert.Equal(t, 2, stats.TotalPhotos)
	assert.Equal(t, 2, stats.DateFolders)
	assert.Equal(t, "2026-08-24", stats.OldestDate)
	assert.Equal(t, "2026-08-25", stats.NewestDate)
}
