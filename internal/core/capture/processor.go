package capture

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/camwatch/camwatch-go/internal/core/storage"
	"github.com/camwatch/camwatch-go/pkg/logger"
)

// Per-step timeouts. Every network call in the pipeline is bounded; there is
// no unbounded wait anywhere in a cycle.
const (
	refreshTimeout       = 10 * time.Second
	snapshotTimeout      = 30 * time.Second
	globalRefreshTimeout = 20 * time.Second
	mediaTimeout         = 30 * time.Second
	thumbnailTimeout     = 15 * time.Second
)

// Options tunes the acquisition pipeline. Zero values are replaced with the
// defaults below.
type Options struct {
	// SettleDelay is the unconditional wait between triggering a capture and
	// refreshing, giving the vendor backend time to process the new image.
	SettleDelay time.Duration
	// SnapshotAttempts bounds the capture-trigger retry loop.
	SnapshotAttempts int
	// RetryDelay is the fixed backoff between capture-trigger attempts.
	RetryDelay time.Duration
}

func (o *Options) applyDefaults() {
	if o.SettleDelay <= 0 {
		o.SettleDelay = 12 * time.Second
	}
	if o.SnapshotAttempts <= 0 {
		o.SnapshotAttempts = 2
	}
	if o.RetryDelay <= 0 {
		o.RetryDelay = 5 * time.Second
	}
}

// Processor runs the per-camera snapshot state machine: refresh state,
// request capture with bounded retries, settle, force a global refresh,
// download with tiered fallback, validate, duplicate-check, persist, and
// write the status side-file. No step aborts the camera; every path reaches
// the terminal state with some image.
type Processor struct {
	api   CameraAPI
	store *storage.PhotoStore
	dedup *DuplicateDetector
	log   *logger.Logger
	opts  Options

	// sleep is replaced in tests to keep settle and backoff waits out of
	// the test wall clock.
	sleep func(time.Duration)
}

// NewProcessor creates a snapshot processor.
func NewProcessor(api CameraAPI, store *storage.PhotoStore, dedup *DuplicateDetector, log *logger.Logger, opts Options) *Processor {
	opts.applyDefaults()
	return &Processor{
		api:   api,
		store: store,
		dedup: dedup,
		log:   log,
		opts:  opts,
		sleep: time.Sleep,
	}
}

// ProcessCamera runs one full acquisition pass for a camera. The returned
// error is reserved for failures that leave no persisted artifact (the one
// condition the scheduler counts as a camera failure); every degraded path
// still returns a successful Result.
func (p *Processor) ProcessCamera(ctx context.Context, displayName string) (Result, error) {
	start := time.Now()
	camera := storage.NormalizeName(displayName)

	p.log.Main("============================================================")
	p.log.Mainf("Processing camera: %s", displayName)
	p.log.Main("============================================================")

	state, _ := p.api.State(displayName)
	bars := WifiBars(state.WifiStrength)

	p.log.Mainf("  Battery: %s", orNA(state.Battery))
	p.log.Mainf("  Temperature: %s", orNAInt(state.Temperature))
	p.log.Mainf("  WiFi Signal: %s dBm (%d/5 bars)", orNAInt(state.WifiStrength), bars)

	p.refreshCameraState(ctx, displayName, camera)
	p.requestSnapshot(ctx, displayName, camera)

	p.log.Mainf("  Waiting %s for camera to process snapshot...", p.opts.SettleDelay)
	p.sleep(p.opts.SettleDelay)

	p.globalRefresh(ctx, camera)

	data, source := p.downloadImage(ctx, displayName, camera)

	if format, bounds, err := validateImage(data); err != nil {
		p.log.Mainf("  WARNING: Image validation failed: %v", err)
		p.log.Camera(camera, fmt.Sprintf("WARNING: Image validation failed - %v", err))
	} else {
		p.log.Mainf("  Valid %s image %dx%d", format, bounds.Dx(), bounds.Dy())
	}

	if isDuplicate, _ := p.dedup.Check(camera, data); isDuplicate {
		source += duplicateSuffix
	}

	photoPath, err := p.persist(camera, data, source)
	if err != nil {
		return Result{Camera: displayName, Source: source, Duration: time.Since(start)}, err
	}

	p.writeStatus(camera, state, photoPath)

	p.log.Camera(camera, fmt.Sprintf("Temp: %s | Battery: %s | WiFi: %d/5 | Source: %s",
		orNAInt(state.Temperature), orNA(state.Battery), bars, source))

	total := time.Since(start)
	p.log.CameraPerf(camera, "total_processing", total, true)

	return Result{Camera: displayName, Success: true, Source: source, Duration: total}, nil
}

// refreshCameraState is a best-effort single-camera refresh. Failure or
// timeout is logged and the pipeline continues.
func (p *Processor) refreshCameraState(ctx context.Context, displayName, camera string) {
	p.log.Main("  Refreshing camera state before snapshot...")

	stepCtx, cancel := context.WithTimeout(ctx, refreshTimeout)
	defer cancel()

	switch status, err := classify(p.api.RefreshCamera(stepCtx, displayName)); status {
	case StepTimedOut:
		p.log.Main("  WARNING: Camera state refresh timed out")
	case StepFailed:
		p.log.Mainf("  WARNING: Camera state refresh failed: %v", err)
	}
}

// requestSnapshot triggers a new capture with bounded retries and fixed
// backoff. Exhausting retries is logged but not fatal: the pipeline falls
// back to whatever image the vendor currently has.
func (p *Processor) requestSnapshot(ctx context.Context, displayName, camera string) bool {
	start := time.Now()

	for attempt := 0; attempt < p.opts.SnapshotAttempts; attempt++ {
		if attempt > 0 {
			p.log.Mainf("  Retry %d/%d for snapshot...", attempt, p.opts.SnapshotAttempts)
			p.sleep(p.opts.RetryDelay)
		}

		p.log.Main("  Requesting new snapshot from camera...")

		stepCtx, cancel := context.WithTimeout(ctx, snapshotTimeout)
		commandID, err := p.api.TriggerCapture(stepCtx, displayName)
		cancel()

		status, err := classify(err)
		if status == StepSuccess {
			p.log.CameraPerf(camera, "snap_picture", time.Since(start), true)
			p.log.Mainf("  Snapshot requested (ID: %s)", commandID)
			return true
		}

		p.log.CameraPerf(camera, "snap_picture", time.Since(start), false)
		if status == StepTimedOut {
			p.log.Mainf("  WARNING: Snapshot request timed out (attempt %d/%d)", attempt+1, p.opts.SnapshotAttempts)
			p.log.Camera(camera, fmt.Sprintf("TIMEOUT: Snapshot request exceeded %s (attempt %d)", snapshotTimeout, attempt+1))
		} else {
			p.log.Mainf("  WARNING: Snapshot request failed: %v", err)
			p.log.Camera(camera, fmt.Sprintf("ERROR: Snapshot request failed - %v", err))
		}
	}

	p.log.Mainf("  ERROR: All snapshot attempts failed for %s", displayName)
	p.log.Mainf("  WARNING: Proceeding with last available image for %s", displayName)
	return false
}

// globalRefresh forces a full account refresh so the new capture becomes
// visible to the media fetch. Non-fatal on timeout or error.
func (p *Processor) globalRefresh(ctx context.Context, camera string) {
	start := time.Now()

	stepCtx, cancel := context.WithTimeout(ctx, globalRefreshTimeout)
	defer cancel()

	switch status, err := classify(p.api.RefreshAll(stepCtx, true)); status {
	case StepSuccess:
		p.log.CameraPerf(camera, "refresh_after_snap", time.Since(start), true)
	case StepTimedOut:
		p.log.CameraPerf(camera, "refresh_after_snap", time.Since(start), false)
		p.log.Main("  WARNING: Refresh after snap timed out")
	default:
		p.log.CameraPerf(camera, "refresh_after_snap", time.Since(start), false)
		p.log.Mainf("  WARNING: Refresh error: %v", err)
	}
}

// downloadImage runs the tiered fallback chain: full media, then thumbnail,
// then a locally synthesized placeholder. It always returns some image.
func (p *Processor) downloadImage(ctx context.Context, displayName, camera string) ([]byte, string) {
	mediaStart := time.Now()
	mediaCtx, cancel := context.WithTimeout(ctx, mediaTimeout)
	data, err := p.api.FetchMedia(mediaCtx, displayName)
	cancel()

	switch status, err := classify(err); status {
	case StepSuccess:
		p.log.CameraPerf(camera, "get_media", time.Since(mediaStart), true)
		p.log.Mainf("  Downloaded %d bytes in %.2fs", len(data), time.Since(mediaStart).Seconds())
	case StepTimedOut:
		p.log.CameraPerf(camera, "get_media", time.Since(mediaStart), false)
		p.log.Mainf("  Timeout: Media download timed out for %s", displayName)
		p.log.Camera(camera, fmt.Sprintf("TIMEOUT: Media download exceeded %s", mediaTimeout))
	default:
		p.log.CameraPerf(camera, "get_media", time.Since(mediaStart), false)
		p.log.Mainf("  ERROR: Download failed: %v", err)
		p.log.Camera(camera, fmt.Sprintf("ERROR: Media download failed - %v", err))
	}

	if len(data) >= minImageBytes {
		return data, SourceMedia
	}

	thumbStart := time.Now()
	thumbCtx, cancel := context.WithTimeout(ctx, thumbnailTimeout)
	thumb, err := p.api.FetchThumbnail(thumbCtx, displayName)
	cancel()

	switch status, err := classify(err); status {
	case StepSuccess:
		p.log.CameraPerf(camera, "get_thumbnail", time.Since(thumbStart), true)
		p.log.Mainf("  WARNING: Using thumbnail (%d bytes)", len(thumb))
		p.log.Camera(camera, "FALLBACK: Using thumbnail instead of full image")
	case StepTimedOut:
		p.log.CameraPerf(camera, "get_thumbnail", time.Since(thumbStart), false)
		p.log.Mainf("  Timeout: Thumbnail download timed out for %s", displayName)
		p.log.Camera(camera, fmt.Sprintf("TIMEOUT: Thumbnail download exceeded %s", thumbnailTimeout))
	default:
		p.log.CameraPerf(camera, "get_thumbnail", time.Since(thumbStart), false)
		p.log.Mainf("  ERROR: Thumbnail failed: %v", err)
		p.log.Camera(camera, fmt.Sprintf("ERROR: Thumbnail download failed - %v", err))
	}

	if len(thumb) >= minImageBytes {
		return thumb, SourceThumbnail
	}

	p.log.Main("  WARNING: No valid image data, using placeholder")
	p.log.Camera(camera, "WARNING: No valid image received, using red placeholder")
	return placeholderImage(), SourcePlaceholder
}

// persist writes the image through the photo store and verifies it landed.
func (p *Processor) persist(camera string, data []byte, source string) (string, error) {
	saveStart := time.Now()

	photoPath, err := p.store.SavePhoto(camera, data, time.Now())
	if err == nil {
		if _, statErr := os.Stat(photoPath); statErr != nil {
			err = fmt.Errorf("photo missing after save: %w", statErr)
		}
	}
	if err != nil {
		p.log.CameraPerf(camera, "save_photo", time.Since(saveStart), false)
		p.log.Main("  ERROR: File not found after save!")
		p.log.Camera(camera, "ERROR: Photo file not found after save operation")
		return "", err
	}

	info, _ := os.Stat(photoPath)
	p.log.CameraPerf(camera, "save_photo", time.Since(saveStart), true)
	p.log.Mainf("  Saved: %s/%s (%d bytes, %s)",
		filepath.Base(filepath.Dir(photoPath)), filepath.Base(photoPath), info.Size(), source)
	return photoPath, nil
}

// writeStatus atomically updates the camera's status side-file. A write
// failure is logged but never fails the cycle.
func (p *Processor) writeStatus(camera string, state CameraState, photoPath string) {
	status := storage.CameraStatus{
		Temperature:  orNAInt(state.Temperature),
		Battery:      orNA(state.Battery),
		WifiStrength: state.WifiStrength,
		LastUpdated:  time.Now().Format(time.RFC3339),
	}
	if photoPath != "" {
		name := filepath.Base(photoPath)
		status.LastPhoto = &name
	}

	if err := p.store.WriteStatus(camera, status); err != nil {
		p.log.Mainf("  WARNING: Error updating status file: %v", err)
		p.log.Camera(camera, fmt.Sprintf("ERROR: Failed to update status.json - %v", err))
		return
	}
	p.log.Main("  Status updated: status.json")
}

// classify maps a step error to its explicit outcome.
func classify(err error) (StepStatus, error) {
	switch {
	case err == nil:
		return StepSuccess, nil
	case errors.Is(err, context.DeadlineExceeded):
		return StepTimedOut, err
	default:
		return StepFailed, err
	}
}

func orNA(v *string) string {
	if v == nil {
		return "N/A"
	}
	return *v
}

func orNAInt(v *int) string {
	if v == nil {
		return "N/A"
	}
	return fmt.Sprintf("%d", *v)
}
