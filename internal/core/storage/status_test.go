package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteAndReadStatus(t *testing.T) {
	store := testStore(t)

	wifi := -55
	photo := "cam_20260825_143005.jpg"
	status := CameraStatus{
		Temperature:  "72",
		Battery:      "ok",
		WifiStrength: &wifi,
		LastUpdated:  "2026-08-25T14:30:05Z",
		LastPhoto:    &photo,
	}
	require.NoError(t, store.WriteStatus("cam", status))

	got, err := store.ReadStatus("cam")
	require.NoError(t, err)
	assert.Equal(t, status, got)

	// No temp file left behind.
	camDir, err := store.CameraDir("cam")
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(camDir, "status.json.tmp"))
	assert.True(t, os.IsNotExist(err))
}

func TestReadStatusMissing(t *testing.T) {
	store := testStore(t)
	_, err := store.ReadStatus("never-seen")
	assert.Error(t, err)
}

func TestDuplicateCount(t *testing.T) {
	store := testStore(t)

	// Missing counter file reads as zero.
	assert.Equal(t, 0, store.DuplicateCount("cam"))

	require.NoError(t, store.SetDuplicateCount("cam", 3))
	assert.Equal(t, 3, store.DuplicateCount("cam"))

	require.NoError(t, store.SetDuplicateCount("cam", 0))
	assert.Equal(t, 0, store.DuplicateCount("cam"))
}

func TestDuplicateCountCorruptFile(t *testing.T) {
	store := testStore(t)

	camDir, err := store.CameraDir("cam")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(camDir, ".duplicate_count"), []byte("not a number"), 0o644))

	assert.Equal(t, 0, store.DuplicateCount("cam"))
}
