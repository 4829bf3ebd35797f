package capture

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/camwatch/camwatch-go/internal/core/storage"
	"github.com/camwatch/camwatch-go/pkg/logger"
)

// fakeAPI is a scriptable CameraAPI recording call counts.
type fakeAPI struct {
	media    []byte
	mediaErr error
	thumb    []byte
	thumbErr error

	triggerErr error

	refreshAllCalls    int
	refreshCameraCalls int
	triggerCalls       int
	mediaCalls         int
	thumbCalls         int

	state CameraState
}

func (f *fakeAPI) RefreshAll(ctx context.Context, force bool) error {
	f.refreshAllCalls++
	return nil
}

func (f *fakeAPI) RefreshCamera(ctx context.Context, camera string) error {
	f.refreshCameraCalls++
	return nil
}

func (f *fakeAPI) TriggerCapture(ctx context.Context, camera string) (string, error) {
	f.triggerCalls++
	if f.triggerErr != nil {
		return "", f.triggerErr
	}
	return "12345", nil
}

func (f *fakeAPI) FetchMedia(ctx context.Context, camera string) ([]byte, error) {
	f.mediaCalls++
	return f.media, f.mediaErr
}

func (f *fakeAPI) FetchThumbnail(ctx context.Context, camera string) ([]byte, error) {
	f.thumbCalls++
	return f.thumb, f.thumbErr
}

func (f *fakeAPI) State(camera string) (CameraState, bool) {
	return f.state, true
}

func newTestProcessor(t *testing.T, api *fakeAPI) (*Processor, *storage.PhotoStore) {
	t.Helper()
	log := logger.New(t.TempDir(), "error", 5)
	store := storage.NewPhotoStore(t.TempDir(), 7, log.Logger)
	dedup := NewDuplicateDetector(store, log, time.Minute, 3)
	p := NewProcessor(api, store, dedup, log, Options{
		SettleDelay:      time.Millisecond,
		SnapshotAttempts: 2,
		RetryDelay:       time.Millisecond,
	})
	p.sleep = func(time.Duration) {}
	return p, store
}

func TestProcessCameraSavesFullMedia(t *testing.T) {
	api := &fakeAPI{media: bytes.Repeat([]byte("m"), 2000)}
	p, store := newTestProcessor(t, api)

	result, err := p.ProcessCamera(context.Background(), "Front Door")
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, SourceMedia, result.Source)

	// Saved under the normalized name in the date-partitioned layout.
	path := store.LatestPhoto("front-door")
	require.NotEmpty(t, path)
	assert.Regexp(t, `front-door_\d{8}_\d{6}\.jpg$`, filepath.Base(path))
	assert.Regexp(t, `^\d{4}-\d{2}-\d{2}$`, filepath.Base(filepath.Dir(path)))

	// Status side-file written next to the photos.
	status, err := store.ReadStatus("front-door")
	require.NoError(t, err)
	require.NotNil(t, status.LastPhoto)
	assert.Equal(t, filepath.Base(path), *status.LastPhoto)
	assert.Equal(t, 1, api.triggerCalls)
}

func TestProcessCameraFallsBackToThumbnail(t *testing.T) {
	api := &fakeAPI{
		mediaErr: errors.New("media unavailable"),
		thumb:    bytes.Repeat([]byte("t"), 1500),
	}
	p, _ := newTestProcessor(t, api)

	result, err := p.ProcessCamera(context.Background(), "Back Yard")
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, SourceThumbnail, result.Source)
	assert.Equal(t, 1, api.mediaCalls)
	assert.Equal(t, 1, api.thumbCalls)
}

func TestProcessCameraUndersizedMediaTriesThumbnail(t *testing.T) {
	// A successful download below the size floor is treated as absent.
	api := &fakeAPI{
		media: []byte("tiny"),
		thumb: bytes.Repeat([]byte("t"), 1500),
	}
	p, _ := newTestProcessor(t, api)

	result, err := p.ProcessCamera(context.Background(), "Back Yard")
	require.NoError(t, err)
	assert.Equal(t, SourceThumbnail, result.Source)
}

func TestProcessCameraUsesPlaceholderWhenAllTiersFail(t *testing.T) {
	api := &fakeAPI{
		mediaErr: errors.New("down"),
		thumbErr: errors.New("down"),
	}
	p, store := newTestProcessor(t, api)

	result, err := p.ProcessCamera(context.Background(), "Garage")
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, SourcePlaceholder, result.Source)

	// The placeholder is a real JPEG on disk, not an empty file.
	path := store.LatestPhoto("garage")
	require.NotEmpty(t, path)
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(minImageBytes))
}

func TestProcessCameraRetriesSnapshotTrigger(t *testing.T) {
	api := &fakeAPI{
		media:      bytes.Repeat([]byte("m"), 2000),
		triggerErr: errors.New("command rejected"),
	}
	p, _ := newTestProcessor(t, api)

	result, err := p.ProcessCamera(context.Background(), "Front Door")
	require.NoError(t, err)

	// Trigger failure exhausts its retries but never fails the cycle.
	assert.True(t, result.Success)
	assert.Equal(t, 2, api.triggerCalls)
}

func TestProcessCameraMarksDuplicate(t *testing.T) {
	data := bytes.Repeat([]byte("same"), 600)
	api := &fakeAPI{media: data}
	p, store := newTestProcessor(t, api)

	prior, err := store.SavePhoto("front-door", data, time.Now().Add(-5*time.Minute))
	require.NoError(t, err)
	old := time.Now().Add(-5 * time.Minute)
	require.NoError(t, os.Chtimes(prior, old, old))

	result, err := p.ProcessCamera(context.Background(), "Front Door")
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, SourceMedia+"_DUPLICATE", result.Source)
	assert.Equal(t, 1, store.DuplicateCount("front-door"))
}
