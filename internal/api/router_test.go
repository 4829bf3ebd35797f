package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/camwatch/camwatch-go/internal/config"
	"github.com/camwatch/camwatch-go/internal/core/alerts"
	"github.com/camwatch/camwatch-go/internal/core/snooze"
	"github.com/camwatch/camwatch-go/internal/core/storage"
	"github.com/camwatch/camwatch-go/pkg/logger"
	"github.com/camwatch/camwatch-go/pkg/utils"
)

func newTestRouter(t *testing.T) (http.Handler, *storage.PhotoStore, *alerts.State) {
	t.Helper()

	cfg := &config.Config{
		Server:  config.ServerConfig{Port: 8080, Mode: "production"},
		Capture: config.CaptureConfig{Cameras: []string{"Front Door"}},
	}

	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)

	store := storage.NewPhotoStore(t.TempDir(), 7, log)
	alertState := alerts.NewState()
	snoozes := snooze.NewManager(filepath.Join(t.TempDir(), "snooze.json"), logger.New(t.TempDir(), "error", 5))

	return NewRouter(cfg, store, alertState, snoozes, log), store, alertState
}

func doRequest(t *testing.T, router http.Handler, method, path string, body []byte) (*httptest.ResponseRecorder, utils.Response) {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var resp utils.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return w, resp
}

func TestHealthEndpoint(t *testing.T) {
	router, _, _ := newTestRouter(t)
	w, resp := doRequest(t, router, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, resp.Success)
}

func TestListCameras(t *testing.T) {
	router, store, _ := newTestRouter(t)

	_, err := store.SavePhoto("front-door", []byte("data"), time.Now())
	require.NoError(t, err)

	w, resp := doRequest(t, router, http.MethodGet, "/api/v1/cameras", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	cameras, ok := resp.Data.([]interface{})
	require.True(t, ok)
	require.Len(t, cameras, 1)
	cam := cameras[0].(map[string]interface{})
	assert.Equal(t, "Front Door", cam["name"])
	assert.Equal(t, "front-door", cam["normalized"])
	assert.Equal(t, true, cam["has_photos"])
}

func TestGetCameraStatusNotFound(t *testing.T) {
	router, _, _ := newTestRouter(t)
	w, resp := doRequest(t, router, http.MethodGet, "/api/v1/cameras/front-door/status", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.False(t, resp.Success)
}

func TestGetCameraStatus(t *testing.T) {
	router, store, _ := newTestRouter(t)

	require.NoError(t, store.WriteStatus("front-door", storage.CameraStatus{
		Temperature: "72",
		Battery:     "ok",
		LastUpdated: "2026-08-25T14:30:05Z",
	}))

	w, resp := doRequest(t, router, http.MethodGet, "/api/v1/cameras/front-door/status", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	status := resp.Data.(map[string]interface{})
	assert.Equal(t, "72", status["temperature"])
}

func TestGetLatestPhoto(t *testing.T) {
	router, store, _ := newTestRouter(t)

	_, err := store.SavePhoto("front-door", []byte("jpeg-bytes"), time.Now())
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cameras/front-door/latest", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "jpeg-bytes", w.Body.String())
}

func TestGetPhotoByDate(t *testing.T) {
	router, store, _ := newTestRouter(t)

	ts := time.Date(2026, 8, 25, 14, 30, 5, 0, time.Local)
	_, err := store.SavePhoto("front-door", []byte("jpeg-bytes"), ts)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cameras/front-door/photos/2026-08-25/front-door_20260825_143005.jpg", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "jpeg-bytes", w.Body.String())
}

func TestGetPhotoUnknownCameraCreatesNothing(t *testing.T) {
	router, store, _ := newTestRouter(t)

	w, resp := doRequest(t, router, http.MethodGet, "/api/v1/cameras/ghost/photos/2026-08-25/ghost_20260825_120000.jpg", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.False(t, resp.Success)

	// Read-only lookups must not leave a camera folder behind.
	_, err := os.Stat(filepath.Join(store.Root(), "ghost"))
	assert.True(t, os.IsNotExist(err))
}

func TestWeatherAlertsEndpoint(t *testing.T) {
	router, _, alertState := newTestRouter(t)

	alertState.SetWeather([]alerts.WeatherAlert{{Event: "Flood Watch", Severity: "Moderate"}})
	alertState.RecordWeatherCheck(time.Now(), time.Now().Add(5*time.Minute))

	w, resp := doRequest(t, router, http.MethodGet, "/api/v1/alerts/weather", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	data := resp.Data.(map[string]interface{})
	assert.Len(t, data["alerts"], 1)
	assert.Equal(t, true, data["alert_active"])
	assert.Equal(t, false, data["stale"])
	assert.Contains(t, data, "last_check")
	assert.Contains(t, data, "next_check")
}

func TestSnoozeLifecycle(t *testing.T) {
	router, _, _ := newTestRouter(t)

	body, _ := json.Marshal(map[string]string{"duration": "30m", "reason": "maintenance"})
	w, resp := doRequest(t, router, http.MethodPost, "/api/v1/snooze/front-door", body)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, resp.Success)

	_, resp = doRequest(t, router, http.MethodGet, "/api/v1/snooze", nil)
	active, ok := resp.Data.([]interface{})
	require.True(t, ok)
	assert.Len(t, active, 1)

	w, _ = doRequest(t, router, http.MethodDelete, "/api/v1/snooze/front-door", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	_, resp = doRequest(t, router, http.MethodGet, "/api/v1/snooze", nil)
	active, _ = resp.Data.([]interface{})
	assert.Empty(t, active)
}

func TestSnoozeRejectsBadDuration(t *testing.T) {
	router, _, _ := newTestRouter(t)

	body, _ := json.Marshal(map[string]string{"duration": "whenever"})
	w, resp := doRequest(t, router, http.MethodPost, "/api/v1/snooze/front-door", body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, resp.Success)
}
