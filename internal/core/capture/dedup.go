package capture

import (
	"crypto/md5"
	"encoding/hex"
	"os"
	"path/filepath"
	"time"

	"github.com/camwatch/camwatch-go/internal/core/storage"
	"github.com/camwatch/camwatch-go/pkg/logger"
)

// DuplicateDetector compares each downloaded image against the most recent
// previously saved photo and tracks a consecutive-duplicate counter per
// camera. Photos younger than the recency cutoff are never used for
// comparison, which keeps an in-flight capture from matching itself.
type DuplicateDetector struct {
	store     *storage.PhotoStore
	log       *logger.Logger
	cutoff    time.Duration
	threshold int
}

// NewDuplicateDetector creates a detector with the configured recency cutoff
// and escalation threshold.
func NewDuplicateDetector(store *storage.PhotoStore, log *logger.Logger, cutoff time.Duration, threshold int) *DuplicateDetector {
	return &DuplicateDetector{
		store:     store,
		log:       log,
		cutoff:    cutoff,
		threshold: threshold,
	}
}

// Check hashes the new image against the latest qualifying prior photo.
// It returns whether the image is a duplicate and the updated counter value.
// A duplicate increments the persisted counter; anything else resets it to
// zero. Reaching the threshold logs an operator-visible warning but never
// fails the cycle.
func (d *DuplicateDetector) Check(camera string, data []byte) (bool, int) {
	currentHash := hashBytes(data)

	prior := d.store.LatestPhotoBefore(camera, time.Now().Add(-d.cutoff))
	if prior == "" {
		d.store.SetDuplicateCount(camera, 0)
		d.log.Main("  INFO: No previous photos to compare (first run or new camera)")
		return false, 0
	}

	priorData, err := os.ReadFile(prior)
	if err != nil {
		d.log.Camera(camera, "Error reading photo for duplicate check: "+err.Error())
		d.store.SetDuplicateCount(camera, 0)
		return false, 0
	}

	if hashBytes(priorData) != currentHash {
		d.store.SetDuplicateCount(camera, 0)
		d.log.Mainf("  OK: Image is unique (compared with %s)", filepath.Base(prior))
		return false, 0
	}

	count := d.store.DuplicateCount(camera) + 1
	if err := d.store.SetDuplicateCount(camera, count); err != nil {
		d.log.Camera(camera, "Error persisting duplicate count: "+err.Error())
	}

	if count >= d.threshold {
		d.log.Mainf("  WARNING: Snapshot unchanged for %d consecutive cycles", count)
		d.log.Camera(camera, "WARNING: Camera may not be capturing new images - "+
			"likely dead battery or offline camera")
	} else {
		d.log.Mainf("  INFO: Image identical to previous capture (compared with %s)", filepath.Base(prior))
	}
	return true, count
}

func hashBytes(data []byte) string {
	sum := md5.Sum(data)
	return hex.EncodeToString(sum[:])
}
