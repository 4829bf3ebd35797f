package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

const (
	statusFileName     = "status.json"
	duplicateCountFile = ".duplicate_count"
)

// CameraStatus is the per-camera side-file the dashboard reads instead of
// re-deriving state from logs. WifiStrength is the raw dBm reading and may
// be absent.
type CameraStatus struct {
	Temperature  string  `json:"temperature"`
	Battery      string  `json:"battery"`
	WifiStrength *int    `json:"wifi_strength"`
	LastUpdated  string  `json:"last_updated"`
	LastPhoto    *string `json:"last_photo"`
}

// WriteStatus atomically replaces a camera's status.json. The document is
// written to a temp file and renamed so a concurrent reader never observes
// a partial write.
func (s *PhotoStore) WriteStatus(camera string, status CameraStatus) error {
	camDir, err := s.CameraDir(camera)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(status, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal status: %w", err)
	}

	tmp := filepath.Join(camDir, statusFileName+".tmp")
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write status temp file: %w", err)
	}
	if err := os.Rename(tmp, filepath.Join(camDir, statusFileName)); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace status file: %w", err)
	}
	return nil
}

// ReadStatus loads a camera's status side-file.
func (s *PhotoStore) ReadStatus(camera string) (CameraStatus, error) {
	var status CameraStatus
	data, err := os.ReadFile(filepath.Join(s.camerasDir, camera, statusFileName))
	if err != nil {
		return status, err
	}
	if err := json.Unmarshal(data, &status); err != nil {
		return status, fmt.Errorf("failed to parse status file: %w", err)
	}
	return status, nil
}

// DuplicateCount reads the consecutive-duplicate counter for a camera.
// A missing or unreadable sidecar counts as zero.
func (s *PhotoStore) DuplicateCount(camera string) int {
	data, err := os.ReadFile(filepath.Join(s.camerasDir, camera, duplicateCountFile))
	if err != nil {
		return 0
	}
	n, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// SetDuplicateCount persists the consecutive-duplicate counter.
func (s *PhotoStore) SetDuplicateCount(camera string, count int) error {
	camDir, err := s.CameraDir(camera)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(camDir, duplicateCountFile), []byte(strconv.Itoa(count)), 0o644)
}
