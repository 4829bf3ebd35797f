package alerts

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/camwatch/camwatch-go/pkg/logger"
)

const (
	nhcStormsURL    = "https://www.nhc.noaa.gov/CurrentStorms.json"
	nhcFetchTimeout = 20 * time.Second
	nhcTickInterval = time.Minute

	// The feed is refreshed on the advisory schedule, so polling is confined
	// to the first five minutes of the advisory hours.
	nhcWindowMinutes = 5
)

// nhcAdvisoryHours are the local hours when new advisories are published.
var nhcAdvisoryHours = map[int]bool{5: true, 11: true, 17: true, 23: true}

// nhcResponse is the CurrentStorms.json document.
type nhcResponse struct {
	ActiveStorms []struct {
		ID             string `json:"id"`
		Name           string `json:"name"`
		Classification string `json:"classification"`
		Intensity      string `json:"intensity"`
		MovementDir    int    `json:"movementDir"`
		MovementSpeed  int    `json:"movementSpeed"`
		Pressure       int    `json:"pressure"`
	} `json:"activeStorms"`
}

// NHCMonitor polls the National Hurricane Center storm feed for active
// Atlantic hurricanes.
type NHCMonitor struct {
	httpClient *http.Client
	log        *logger.Logger
	state      *State
	userAgent  string

	feedURL      string
	lastPollHour time.Time
	now          func() time.Time
}

// NewNHCMonitor creates a hurricane monitor writing into state.
func NewNHCMonitor(userAgent string, state *State, log *logger.Logger) *NHCMonitor {
	if userAgent == "" {
		userAgent = defaultNWSUserAgent
	}
	return &NHCMonitor{
		httpClient: &http.Client{Timeout: nhcFetchTimeout},
		log:        log,
		state:      state,
		userAgent:  userAgent,
		feedURL:    nhcStormsURL,
		now:        time.Now,
	}
}

// Run polls until the context ends. An immediate startup poll fills the
// cache; after that fetches happen only inside advisory windows.
func (m *NHCMonitor) Run(ctx context.Context) {
	m.log.Main("Hurricane monitor started")
	m.Poll(ctx)

	ticker := time.NewTicker(nhcTickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !m.shouldPoll(m.now()) {
				continue
			}
			m.Poll(ctx)
		}
	}
}

// shouldPoll reports whether now falls inside an advisory window that has
// not been polled yet. At most one poll per window.
func (m *NHCMonitor) shouldPoll(now time.Time) bool {
	if !nhcAdvisoryHours[now.Hour()] || now.Minute() >= nhcWindowMinutes {
		return false
	}
	return !now.Truncate(time.Hour).Equal(m.lastPollHour)
}

// nextAdvisoryWindow returns the start of the next advisory window after
// now, for the dashboard's next-check display.
func nextAdvisoryWindow(now time.Time) time.Time {
	hours := make([]int, 0, len(nhcAdvisoryHours))
	for h := range nhcAdvisoryHours {
		hours = append(hours, h)
	}
	sort.Ints(hours)

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	for _, h := range hours {
		window := today.Add(time.Duration(h) * time.Hour)
		if window.After(now) {
			return window
		}
	}
	return today.AddDate(0, 0, 1).Add(time.Duration(hours[0]) * time.Hour)
}

// Poll fetches the storm feed and updates shared state. A failed fetch keeps
// the cached list and marks it stale. Check times are recorded either way.
func (m *NHCMonitor) Poll(ctx context.Context) {
	checkedAt := m.now()
	m.lastPollHour = checkedAt.Truncate(time.Hour)

	storms, err := m.fetch(ctx)
	if err != nil {
		m.log.Mainf("WARNING: Hurricane feed fetch failed: %v", err)
		m.state.MarkStormsStale()
		m.state.RecordStormCheck(checkedAt, nextAdvisoryWindow(checkedAt))
		return
	}

	m.state.SetStorms(storms)
	m.state.RecordStormCheck(checkedAt, nextAdvisoryWindow(checkedAt))
	for _, s := range storms {
		m.log.Mainf("HURRICANE TRACKED: %s (%s) intensity %s kt", s.Name, s.ID, s.Intensity)
	}
}

// fetch downloads the feed and filters it to Atlantic-basin hurricanes.
func (m *NHCMonitor) fetch(ctx context.Context) ([]Storm, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.feedURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", m.userAgent)

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("storm feed returned status %d", resp.StatusCode)
	}

	var body nhcResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode storm feed: %w", err)
	}

	storms := make([]Storm, 0, len(body.ActiveStorms))
	for _, s := range body.ActiveStorms {
		if !isAtlanticHurricane(s.ID, s.Classification) {
			continue
		}
		storms = append(storms, Storm{
			ID:             s.ID,
			Name:           s.Name,
			Classification: s.Classification,
			Intensity:      s.Intensity,
			MovementDir:    s.MovementDir,
			MovementSpeed:  s.MovementSpeed,
			Pressure:       s.Pressure,
		})
	}
	return storms, nil
}

// isAtlanticHurricane matches Atlantic-basin storm ids ("al" prefix) at
// hurricane classification. Depressions, storms and other basins are
// ignored.
func isAtlanticHurricane(id, classification string) bool {
	return strings.HasPrefix(strings.ToLower(id), "al") &&
		strings.EqualFold(classification, "HU")
}
