package snooze

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/camwatch/camwatch-go/pkg/logger"
)

func newTestManager(t *testing.T) (*Manager, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "snooze.json")
	log := logger.New(t.TempDir(), "error", 5)
	return NewManager(path, log), path
}

func TestSnoozeAndExpiry(t *testing.T) {
	m, _ := newTestManager(t)

	_, err := m.Snooze("front-door", time.Hour, "maintenance")
	require.NoError(t, err)

	assert.True(t, m.IsSnoozed("front-door"))
	assert.False(t, m.IsSnoozed("back-yard"))

	// Lazy expiry: moving the clock past the deadline clears the entry on
	// the next check.
	m.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	assert.False(t, m.IsSnoozed("front-door"))
	assert.Empty(t, m.Active())
}

func TestSnoozeMatchesDisplayAndNormalizedNames(t *testing.T) {
	m, _ := newTestManager(t)

	// The API snoozes by normalized name; the scheduler checks by display
	// name. Both must address the same record.
	_, err := m.Snooze("front-door", time.Hour, "")
	require.NoError(t, err)
	assert.True(t, m.IsSnoozed("Front Door"))

	m.Unsnooze("Front Door")
	assert.False(t, m.IsSnoozed("front-door"))

	_, err = m.Snooze("Back Yard", time.Hour, "")
	require.NoError(t, err)
	assert.True(t, m.IsSnoozed("back-yard"))
}

func TestSnoozeRejectsNonPositiveDuration(t *testing.T) {
	m, _ := newTestManager(t)
	_, err := m.Snooze("front-door", 0, "")
	assert.Error(t, err)
	_, err = m.SnoozeAll(-time.Minute, "")
	assert.Error(t, err)
}

func TestSnoozeAllCoversEveryCamera(t *testing.T) {
	m, _ := newTestManager(t)

	_, err := m.SnoozeAll(time.Hour, "storm")
	require.NoError(t, err)

	assert.True(t, m.IsSnoozed("front-door"))
	assert.True(t, m.IsSnoozed("anything"))

	m.UnsnoozeAll()
	assert.False(t, m.IsSnoozed("front-door"))
}

func TestUnsnoozeSingleCamera(t *testing.T) {
	m, _ := newTestManager(t)

	_, err := m.Snooze("front-door", time.Hour, "")
	require.NoError(t, err)
	_, err = m.Snooze("back-yard", time.Hour, "")
	require.NoError(t, err)

	m.Unsnooze("front-door")
	assert.False(t, m.IsSnoozed("front-door"))
	assert.True(t, m.IsSnoozed("back-yard"))
}

func TestSnoozeSurvivesRestart(t *testing.T) {
	m, path := newTestManager(t)
	_, err := m.Snooze("front-door", time.Hour, "maintenance")
	require.NoError(t, err)

	log := logger.New(t.TempDir(), "error", 5)
	reloaded := NewManager(path, log)
	assert.True(t, reloaded.IsSnoozed("front-door"))

	active := reloaded.Active()
	require.Len(t, active, 1)
	assert.Equal(t, "front-door", active[0].Camera)
	assert.Equal(t, "maintenance", active[0].Reason)
}

func TestExpiredEntriesDroppedOnLoad(t *testing.T) {
	m, path := newTestManager(t)
	_, err := m.Snooze("front-door", time.Millisecond, "")
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)

	log := logger.New(t.TempDir(), "error", 5)
	reloaded := NewManager(path, log)
	assert.False(t, reloaded.IsSnoozed("front-door"))
}
