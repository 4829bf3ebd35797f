package snooze

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/camwatch/camwatch-go/internal/core/storage"
	"github.com/camwatch/camwatch-go/pkg/logger"
)

// allCamerasKey marks a snooze applying to every camera.
const allCamerasKey = "__all__"

// Entry is one snooze record as persisted.
type Entry struct {
	Camera    string    `json:"camera"`
	ExpiresAt time.Time `json:"expires_at"`
	Reason    string    `json:"reason,omitempty"`
}

// Status is the read view returned to API clients.
type Status struct {
	Camera    string    `json:"camera"`
	ExpiresAt time.Time `json:"expires_at"`
	Remaining string    `json:"remaining"`
	Reason    string    `json:"reason,omitempty"`
}

// Manager tracks per-camera snoozes with a JSON state file so snoozes
// survive restarts. Records are keyed by normalized camera name, so the
// scheduler (display names) and the API (normalized names) address the same
// entries. Expiry is lazy: entries are pruned whenever they are consulted,
// never by a background timer.
type Manager struct {
	mu      sync.Mutex
	path    string
	log     *logger.Logger
	entries map[string]Entry
	now     func() time.Time
}

// NewManager loads existing snooze state from path. A missing or corrupt
// state file starts empty; snoozes are a convenience, not critical state.
func NewManager(path string, log *logger.Logger) *Manager {
	m := &Manager{
		path:    path,
		log:     log,
		entries: make(map[string]Entry),
		now:     time.Now,
	}
	m.load()
	return m
}

func (m *Manager) load() {
	data, err := os.ReadFile(m.path)
	if err != nil {
		return
	}
	var entries map[string]Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		m.log.Mainf("WARNING: ignoring corrupt snooze state file: %v", err)
		return
	}
	m.entries = entries
	m.pruneLocked()
}

// persist writes the state file atomically. Called with the mutex held.
func (m *Manager) persist() {
	data, err := json.MarshalIndent(m.entries, "", "  ")
	if err != nil {
		m.log.Mainf("WARNING: failed to encode snooze state: %v", err)
		return
	}
	tmp := m.path + ".tmp"
	if err := os.MkdirAll(filepath.Dir(m.path), 0o755); err != nil {
		m.log.Mainf("WARNING: failed to create snooze state dir: %v", err)
		return
	}
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		m.log.Mainf("WARNING: failed to write snooze state: %v", err)
		return
	}
	if err := os.Rename(tmp, m.path); err != nil {
		os.Remove(tmp)
		m.log.Mainf("WARNING: failed to replace snooze state: %v", err)
	}
}

// pruneLocked drops expired entries. Called with the mutex held.
func (m *Manager) pruneLocked() {
	now := m.now()
	for key, e := range m.entries {
		if !e.ExpiresAt.After(now) {
			delete(m.entries, key)
		}
	}
}

// Snooze suppresses processing for one camera until the duration elapses.
// The camera may be given as a display name or a normalized name.
func (m *Manager) Snooze(camera string, d time.Duration, reason string) (Entry, error) {
	if d <= 0 {
		return Entry{}, fmt.Errorf("snooze duration must be positive")
	}
	camera = storage.NormalizeName(camera)
	m.mu.Lock()
	defer m.mu.Unlock()

	e := Entry{Camera: camera, ExpiresAt: m.now().Add(d), Reason: reason}
	m.entries[camera] = e
	m.persist()
	m.log.Mainf("Camera %s snoozed until %s", camera, e.ExpiresAt.Format("2006-01-02 15:04:05"))
	return e, nil
}

// SnoozeAll suppresses processing for every camera until the duration
// elapses.
func (m *Manager) SnoozeAll(d time.Duration, reason string) (Entry, error) {
	if d <= 0 {
		return Entry{}, fmt.Errorf("snooze duration must be positive")
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	e := Entry{Camera: allCamerasKey, ExpiresAt: m.now().Add(d), Reason: reason}
	m.entries[allCamerasKey] = e
	m.persist()
	m.log.Mainf("All cameras snoozed until %s", e.ExpiresAt.Format("2006-01-02 15:04:05"))
	return e, nil
}

// Unsnooze clears one camera's snooze. Clearing a camera that was not
// snoozed is not an error.
func (m *Manager) Unsnooze(camera string) {
	camera = storage.NormalizeName(camera)
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entries[camera]; ok {
		delete(m.entries, camera)
		m.persist()
		m.log.Mainf("Camera %s snooze cleared", camera)
	}
}

// UnsnoozeAll clears every snooze, including the all-cameras record.
func (m *Manager) UnsnoozeAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.entries) == 0 {
		return
	}
	m.entries = make(map[string]Entry)
	m.persist()
	m.log.Main("All snoozes cleared")
}

// IsSnoozed reports whether a camera should be skipped right now, either by
// its own snooze or an all-cameras snooze.
func (m *Manager) IsSnoozed(camera string) bool {
	camera = storage.NormalizeName(camera)
	m.mu.Lock()
	defer m.mu.Unlock()

	before := len(m.entries)
	m.pruneLocked()
	if len(m.entries) != before {
		m.persist()
	}

	if _, ok := m.entries[allCamerasKey]; ok {
		return true
	}
	_, ok := m.entries[camera]
	return ok
}

// Active lists current snoozes for API clients, pruning expired ones.
func (m *Manager) Active() []Status {
	m.mu.Lock()
	defer m.mu.Unlock()

	before := len(m.entries)
	m.pruneLocked()
	if len(m.entries) != before {
		m.persist()
	}

	now := m.now()
	out := make([]Status, 0, len(m.entries))
	for _, e := range m.entries {
		camera := e.Camera
		if camera == allCamerasKey {
			camera = "all"
		}
		out = append(out, Status{
			Camera:    camera,
			ExpiresAt: e.ExpiresAt,
			Remaining: e.ExpiresAt.Sub(now).Round(time.Second).String(),
			Reason:    e.Reason,
		})
	}
	return out
}
