package alerts

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/camwatch/camwatch-go/pkg/logger"
)

const (
	nwsBaseURL          = "https://api.weather.gov"
	defaultNWSUserAgent = "camwatch/1.0 (alerts monitor)"

	// Base cadence polls on wall-clock 5-minute marks; an active alert tightens
	// the cadence to every 2 minutes until the zone clears.
	nwsBaseInterval   = 5 * time.Minute
	nwsActiveInterval = 2 * time.Minute

	nwsFetchAttempts = 3
	nwsRetryDelay    = 5 * time.Second
	nwsFetchTimeout  = 15 * time.Second
)

// nwsResponse is the GeoJSON envelope from the active-alerts endpoint.
type nwsResponse struct {
	Features []struct {
		Properties struct {
			Event       string `json:"event"`
			Headline    string `json:"headline"`
			Description string `json:"description"`
			Severity    string `json:"severity"`
			Urgency     string `json:"urgency"`
			Ends        string `json:"ends"`
		} `json:"properties"`
	} `json:"features"`
}

// NWSMonitor polls the National Weather Service active-alerts feed for one
// forecast zone.
type NWSMonitor struct {
	httpClient *http.Client
	log        *logger.Logger
	state      *State
	zone       string
	userAgent  string

	baseURL  string
	nextPoll time.Time
	sleep    func(time.Duration)
}

// NewNWSMonitor creates a zone alert monitor. The zone must already be
// validated (see config.ValidNWSZone); userAgent identifies this deployment
// to the NWS API and falls back to a generic agent when empty.
func NewNWSMonitor(zone, userAgent string, state *State, log *logger.Logger) *NWSMonitor {
	if userAgent == "" {
		userAgent = defaultNWSUserAgent
	}
	return &NWSMonitor{
		httpClient: &http.Client{Timeout: nwsFetchTimeout},
		log:        log,
		state:      state,
		zone:       zone,
		userAgent:  userAgent,
		baseURL:    nwsBaseURL,
		sleep:      time.Sleep,
	}
}

// Run polls until the context ends. The loop ticks every second and fires
// when the computed next-poll time passes, so cadence changes take effect
// immediately after a fetch rather than at the end of a long sleep.
func (m *NWSMonitor) Run(ctx context.Context) {
	m.log.Mainf("Weather alert monitor started for zone %s", m.zone)
	m.Poll(ctx)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if time.Now().Before(m.nextPoll) {
				continue
			}
			m.Poll(ctx)
		}
	}
}

// Poll fetches the zone's active alerts, updates shared state and schedules
// the next poll. On persistent fetch failure the cached alerts are kept and
// marked stale. The check times are recorded for every poll so the dashboard
// sees when the zone was last queried even when the fetch failed.
func (m *NWSMonitor) Poll(ctx context.Context) {
	checkedAt := time.Now()
	alerts, err := m.fetch(ctx)

	if err != nil {
		m.log.Mainf("WARNING: Weather alert fetch failed for zone %s: %v", m.zone, err)
		m.state.MarkWeatherStale()
		m.nextPoll = m.schedule(time.Now(), m.state.HasActiveWeather())
		m.state.RecordWeatherCheck(checkedAt, m.nextPoll)
		return
	}

	previouslyActive := m.state.HasActiveWeather()
	m.state.SetWeather(alerts)

	if len(alerts) > 0 {
		for _, a := range alerts {
			m.log.Mainf("WEATHER ALERT [%s/%s]: %s", a.Severity, a.Urgency, a.Event)
		}
	} else if previouslyActive {
		m.log.Mainf("Weather alerts cleared for zone %s", m.zone)
	}

	m.nextPoll = m.schedule(time.Now(), len(alerts) > 0)
	m.state.RecordWeatherCheck(checkedAt, m.nextPoll)
}

// schedule picks the next poll time: a short fixed delay while alerts are
// active, otherwise the next wall-clock 5-minute mark. Snapping back to the
// mark keeps the quiet cadence aligned regardless of when an alert cleared.
func (m *NWSMonitor) schedule(now time.Time, active bool) time.Time {
	if active {
		return now.Add(nwsActiveInterval)
	}
	return nextMark(now, nwsBaseInterval)
}

// nextMark returns the next wall-clock boundary of the interval after now.
func nextMark(now time.Time, interval time.Duration) time.Time {
	mark := now.Truncate(interval).Add(interval)
	if !mark.After(now) {
		mark = mark.Add(interval)
	}
	return mark
}

// fetch retrieves active alerts, retrying transient failures.
func (m *NWSMonitor) fetch(ctx context.Context) ([]WeatherAlert, error) {
	var lastErr error
	for attempt := 1; attempt <= nwsFetchAttempts; attempt++ {
		if attempt > 1 {
			m.sleep(nwsRetryDelay)
		}

		alerts, err := m.fetchOnce(ctx)
		if err == nil {
			return alerts, nil
		}
		lastErr = err
		m.log.Mainf("WARNING: Weather fetch attempt %d/%d failed: %v", attempt, nwsFetchAttempts, err)

		if ctx.Err() != nil {
			break
		}
	}
	return nil, lastErr
}

func (m *NWSMonitor) fetchOnce(ctx context.Context) ([]WeatherAlert, error) {
	url := fmt.Sprintf("%s/alerts/active?zone=%s", m.baseURL, m.zone)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	// The NWS API rejects requests without an identifying agent.
	req.Header.Set("User-Agent", m.userAgent)
	req.Header.Set("Accept", "application/geo+json")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("alerts endpoint returned status %d", resp.StatusCode)
	}

	var body nwsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode alerts response: %w", err)
	}

	alerts := make([]WeatherAlert, 0, len(body.Features))
	for _, f := range body.Features {
		p := f.Properties
		alerts = append(alerts, WeatherAlert{
			Event:       p.Event,
			Headline:    p.Headline,
			Description: summarizeDescription(p.Description),
			Severity:    p.Severity,
			Urgency:     p.Urgency,
			Expires:     p.Ends,
		})
	}
	return alerts, nil
}

// summarizeDescription keeps the first paragraph of an alert description and
// flattens its line wrapping. Full NWS descriptions run to pages.
func summarizeDescription(desc string) string {
	if idx := strings.Index(desc, "\n\n"); idx >= 0 {
		desc = desc[:idx]
	}
	desc = strings.ReplaceAll(desc, "\n", " ")
	return strings.TrimSpace(desc)
}
