package alerts

import (
	"sync"
	"time"
)

// WeatherAlert is one active alert for the monitored forecast zone.
type WeatherAlert struct {
	Event       string `json:"event"`
	Headline    string `json:"headline"`
	Description string `json:"description"`
	Severity    string `json:"severity"`
	Urgency     string `json:"urgency"`
	Expires     string `json:"expires,omitempty"`
}

// Storm is one active Atlantic hurricane from the tracking feed.
type Storm struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Classification string `json:"classification"`
	Intensity      string `json:"intensity"`
	MovementDir    int    `json:"movement_dir"`
	MovementSpeed  int    `json:"movement_speed"`
	Pressure       int    `json:"pressure"`
}

// WeatherSnapshot is the read view of the zone alert state. LastCheck covers
// every poll, failed ones included; Updated only moves on a successful fetch.
type WeatherSnapshot struct {
	Alerts      []WeatherAlert `json:"alerts"`
	AlertActive bool           `json:"alert_active"`
	Updated     time.Time      `json:"updated"`
	LastCheck   time.Time      `json:"last_check"`
	NextCheck   time.Time      `json:"next_check"`
	Stale       bool           `json:"stale"`
}

// StormSnapshot is the read view of the hurricane state.
type StormSnapshot struct {
	Storms      []Storm   `json:"storms"`
	AlertActive bool      `json:"alert_active"`
	Updated     time.Time `json:"updated"`
	LastCheck   time.Time `json:"last_check"`
	NextCheck   time.Time `json:"next_check"`
	Stale       bool      `json:"stale"`
}

// State holds the latest data from both monitors. Monitors write, API
// handlers read; the mutex is the only coordination between them.
type State struct {
	mu sync.RWMutex

	weather          []WeatherAlert
	weatherUpdated   time.Time
	weatherLastCheck time.Time
	weatherNextCheck time.Time
	weatherStale     bool

	storms          []Storm
	stormsUpdated   time.Time
	stormsLastCheck time.Time
	stormsNextCheck time.Time
	stormsStale     bool
}

// NewState returns an empty alert state.
func NewState() *State {
	return &State{}
}

// SetWeather replaces the zone alerts with a fresh fetch.
func (s *State) SetWeather(alerts []WeatherAlert) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.weather = alerts
	s.weatherUpdated = time.Now()
	s.weatherStale = false
}

// MarkWeatherStale flags the cached alerts as possibly out of date after a
// failed fetch. The cached data itself is kept.
func (s *State) MarkWeatherStale() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.weatherStale = true
}

// RecordWeatherCheck stores when the zone was last polled and when the next
// poll is due. Called on every poll, successful or not, so the dashboard
// always sees a truthful check schedule.
func (s *State) RecordWeatherCheck(last, next time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.weatherLastCheck = last
	s.weatherNextCheck = next
}

// Weather returns a copy of the current zone alert state.
func (s *State) Weather() WeatherSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	alerts := make([]WeatherAlert, len(s.weather))
	copy(alerts, s.weather)
	return WeatherSnapshot{
		Alerts:      alerts,
		AlertActive: len(s.weather) > 0,
		Updated:     s.weatherUpdated,
		LastCheck:   s.weatherLastCheck,
		NextCheck:   s.weatherNextCheck,
		Stale:       s.weatherStale,
	}
}

// HasActiveWeather reports whether any zone alert is currently cached.
func (s *State) HasActiveWeather() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.weather) > 0
}

// SetStorms replaces the hurricane list with a fresh fetch.
func (s *State) SetStorms(storms []Storm) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.storms = storms
	s.stormsUpdated = time.Now()
	s.stormsStale = false
}

// MarkStormsStale flags the cached storm list after a failed fetch.
func (s *State) MarkStormsStale() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stormsStale = true
}

// RecordStormCheck stores the last and next storm-feed poll times.
func (s *State) RecordStormCheck(last, next time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stormsLastCheck = last
	s.stormsNextCheck = next
}

// Storms returns a copy of the current hurricane state.
func (s *State) Storms() StormSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	storms := make([]Storm, len(s.storms))
	copy(storms, s.storms)
	return StormSnapshot{
		Storms:      storms,
		AlertActive: len(s.storms) > 0,
		Updated:     s.stormsUpdated,
		LastCheck:   s.stormsLastCheck,
		NextCheck:   s.stormsNextCheck,
		Stale:       s.stormsStale,
	}
}
