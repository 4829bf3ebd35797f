package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

var (
	dateFolderPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	photoNamePattern  = regexp.MustCompile(`_(\d{8})_(\d{6})\.jpg$`)
)

// NormalizeName converts a camera display name ("Front Door") to the
// lowercase hyphenated form used for all filesystem and lookup keys.
func NormalizeName(displayName string) string {
	return strings.ToLower(strings.ReplaceAll(displayName, " ", "-"))
}

// PhotoStore maps cameras and timestamps to files inside a date-partitioned
// tree: cameras/{camera}/{YYYY-MM-DD}/{camera}_{YYYYMMDD_HHMMSS}.jpg.
// The capture cycle is the only writer; the dashboard reads concurrently,
// which is safe because status writes go through a temp-file rename.
type PhotoStore struct {
	camerasDir string
	maxDays    int
	logger     *logrus.Logger
}

// CleanupStats reports what a retention pass removed for one camera.
type CleanupStats struct {
	Camera         string `json:"camera"`
	DeletedFolders int    `json:"deleted_folders"`
	DeletedPhotos  int    `json:"deleted_photos"`
}

// MigrationStats reports a flat-layout migration pass for one camera.
type MigrationStats struct {
	Camera   string `json:"camera"`
	Migrated int    `json:"migrated"`
	Errors   int    `json:"errors"`
}

// CameraStats summarizes a camera's stored photos.
type CameraStats struct {
	Camera      string  `json:"camera"`
	TotalPhotos int     `json:"total_photos"`
	TotalSizeMB float64 `json:"total_size_mb"`
	DateFolders int     `json:"date_folders"`
	OldestDate  string  `json:"oldest_date,omitempty"`
	NewestDate  string  `json:"newest_date,omitempty"`
}

// NewPhotoStore creates a photo store rooted at camerasDir, retaining
// maxDays of date folders per camera.
func NewPhotoStore(camerasDir string, maxDays int, logger *logrus.Logger) *PhotoStore {
	return &PhotoStore{
		camerasDir: camerasDir,
		maxDays:    maxDays,
		logger:     logger,
	}
}

// Root returns the cameras directory.
func (s *PhotoStore) Root() string {
	return s.camerasDir
}

// CameraDir returns (and creates) the folder for a normalized camera name.
func (s *PhotoStore) CameraDir(camera string) (string, error) {
	dir := filepath.Join(s.camerasDir, camera)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create camera folder: %w", err)
	}
	return dir, nil
}

// ResolvePhoto maps a camera, date folder and filename to the path the photo
// would live at. It only joins path components, so reads never create camera
// folders as a side effect; path elements are reduced to their base name to
// keep lookups inside the store.
func (s *PhotoStore) ResolvePhoto(camera, date, file string) string {
	return filepath.Join(s.camerasDir, filepath.Base(camera), filepath.Base(date), filepath.Base(file))
}

// Cameras lists the camera folders currently present in the store.
func (s *PhotoStore) Cameras() []string {
	entries, err := os.ReadDir(s.camerasDir)
	if err != nil {
		return nil
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names
}

// SavePhoto persists image bytes for a camera at the given timestamp and
// returns the photo path. The date folder and the filename timestamp are
// derived from the same instant, so they always agree.
func (s *PhotoStore) SavePhoto(camera string, data []byte, ts time.Time) (string, error) {
	camDir, err := s.CameraDir(camera)
	if err != nil {
		return "", err
	}

	dateDir := filepath.Join(camDir, ts.Format("2006-01-02"))
	if err := os.MkdirAll(dateDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create date folder: %w", err)
	}

	filename := fmt.Sprintf("%s_%s.jpg", camera, ts.Format("20060102_150405"))
	path := filepath.Join(dateDir, filename)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write photo: %w", err)
	}
	return path, nil
}

// DateFolders returns a camera's date folder names, newest first.
func (s *PhotoStore) DateFolders(camera string) []string {
	camDir := filepath.Join(s.camerasDir, camera)
	entries, err := os.ReadDir(camDir)
	if err != nil {
		return nil
	}

	var folders []string
	for _, e := range entries {
		if e.IsDir() && dateFolderPattern.MatchString(e.Name()) {
			folders = append(folders, e.Name())
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(folders)))
	return folders
}

// LatestPhotoBefore walks a camera's photos newest-first and returns the
// path of the most recent photo modified before cutoff. Photos newer than
// the cutoff are skipped so an in-flight capture is never compared against
// itself. Returns "" when no qualifying photo exists.
func (s *PhotoStore) LatestPhotoBefore(camera string, cutoff time.Time) string {
	camDir := filepath.Join(s.camerasDir, camera)

	for _, folder := range s.DateFolders(camera) {
		photos := s.photosNewestFirst(filepath.Join(camDir, folder), camera)
		for _, p := range photos {
			info, err := os.Stat(p)
			if err != nil {
				continue
			}
			if info.ModTime().After(cutoff) {
				continue
			}
			return p
		}
	}
	return ""
}

// LatestPhoto returns the newest photo path for a camera, or "".
func (s *PhotoStore) LatestPhoto(camera string) string {
	camDir := filepath.Join(s.camerasDir, camera)
	for _, folder := range s.DateFolders(camera) {
		photos := s.photosNewestFirst(filepath.Join(camDir, folder), camera)
		if len(photos) > 0 {
			return photos[0]
		}
	}
	return ""
}

func (s *PhotoStore) photosNewestFirst(dateDir, camera string) []string {
	matches, err := filepath.Glob(filepath.Join(dateDir, camera+"_*.jpg"))
	if err != nil {
		return nil
	}

	type photo struct {
		path  string
		mtime time.Time
	}
	photos := make([]photo, 0, len(matches))
	for _, m := range matches {
		info, err := os.Stat(m)
		if err != nil {
			continue
		}
		photos = append(photos, photo{path: m, mtime: info.ModTime()})
	}
	sort.Slice(photos, func(i, j int) bool { return photos[i].mtime.After(photos[j].mtime) })

	paths := make([]string, len(photos))
	for i, p := range photos {
		paths[i] = p.path
	}
	return paths
}

// CleanupCamera removes date folders older than the retention window for one
// camera and reports how many folders and photos were deleted.
func (s *PhotoStore) CleanupCamera(camera string) CleanupStats {
	stats := CleanupStats{Camera: camera}
	camDir := filepath.Join(s.camerasDir, camera)

	cutoff := time.Now().AddDate(0, 0, -s.maxDays).Format("2006-01-02")

	for _, folder := range s.DateFolders(camera) {
		if folder >= cutoff {
			continue
		}
		folderPath := filepath.Join(camDir, folder)
		photos, _ := filepath.Glob(filepath.Join(folderPath, "*.jpg"))
		if err := os.RemoveAll(folderPath); err != nil {
			s.logger.WithError(err).WithField("folder", folderPath).Warn("Failed to delete old date folder")
			continue
		}
		stats.DeletedFolders++
		stats.DeletedPhotos += len(photos)
	}
	return stats
}

// CleanupAll runs retention cleanup over every camera folder and returns
// stats for cameras where something was deleted.
func (s *PhotoStore) CleanupAll() []CleanupStats {
	var all []CleanupStats
	for _, camera := range s.Cameras() {
		if stats := s.CleanupCamera(camera); stats.DeletedFolders > 0 {
			all = append(all, stats)
		}
	}
	return all
}

// MigrateCamera moves photos sitting directly in a camera folder into the
// date folder derived from the timestamp embedded in their filename, falling
// back to file modification time when the name does not parse.
func (s *PhotoStore) MigrateCamera(camera string) MigrationStats {
	stats := MigrationStats{Camera: camera}
	camDir := filepath.Join(s.camerasDir, camera)

	flat, err := filepath.Glob(filepath.Join(camDir, "*.jpg"))
	if err != nil {
		return stats
	}

	for _, photo := range flat {
		ts := time.Time{}
		if m := photoNamePattern.FindStringSubmatch(filepath.Base(photo)); m != nil {
			if parsed, err := time.ParseInLocation("20060102", m[1], time.Local); err == nil {
				ts = parsed
			}
		}
		if ts.IsZero() {
			info, err := os.Stat(photo)
			if err != nil {
				stats.Errors++
				continue
			}
			ts = info.ModTime()
		}

		dateDir := filepath.Join(camDir, ts.Format("2006-01-02"))
		if err := os.MkdirAll(dateDir, 0o755); err != nil {
			stats.Errors++
			continue
		}
		if err := os.Rename(photo, filepath.Join(dateDir, filepath.Base(photo))); err != nil {
			s.logger.WithError(err).WithField("photo", photo).Warn("Failed to migrate photo")
			stats.Errors++
			continue
		}
		stats.Migrated++
	}
	return stats
}

// MigrateAll migrates every camera folder out of the legacy flat layout.
func (s *PhotoStore) MigrateAll() []MigrationStats {
	var all []MigrationStats
	for _, camera := range s.Cameras() {
		if stats := s.MigrateCamera(camera); stats.Migrated > 0 || stats.Errors > 0 {
			all = append(all, stats)
		}
	}
	return all
}

// Stats summarizes photo counts, size on disk and the date range for one
// camera.
func (s *PhotoStore) Stats(camera string) CameraStats {
	stats := CameraStats{Camera: camera}
	camDir := filepath.Join(s.camerasDir, camera)

	folders := s.DateFolders(camera)
	stats.DateFolders = len(folders)
	if len(folders) > 0 {
		stats.NewestDate = folders[0]
		stats.OldestDate = folders[len(folders)-1]
	}

	var totalSize int64
	for _, folder := range folders {
		photos, _ := filepath.Glob(filepath.Join(camDir, folder, "*.jpg"))
		stats.TotalPhotos += len(photos)
		for _, p := range photos {
			if info, err := os.Stat(p); err == nil {
				totalSize += info.Size()
			}
		}
	}
	stats.TotalSizeMB = float64(totalSize) / (1024 * 1024)
	return stats
}

// AllStats returns stats for every camera in the store.
func (s *PhotoStore) AllStats() []CameraStats {
	var all []CameraStats
	for _, camera := range s.Cameras() {
		all = append(all, s.Stats(camera))
	}
	return all
}
