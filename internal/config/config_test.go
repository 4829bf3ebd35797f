package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestValidNWSZone(t *testing.T) {
	tests := []struct {
		zone     string
		expected bool
	}{
		{"PAZ021", true},
		{"FLZ050", true},
		{"paz021", true},
		{"PA021", false},
		{"PAZ02", false},
		{"PAZ0211", false},
		{"021PAZ", false},
		{"PAZXXX", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.zone, func(t *testing.T) {
			assert.Equal(t, tt.expected, ValidNWSZone(tt.zone))
		})
	}
}

func TestCaptureDurations(t *testing.T) {
	c := CaptureConfig{
		PollInterval: "10m",
		SettleDelay:  "8s",
		RetryDelay:   "3s",
	}
	assert.Equal(t, 10*time.Minute, c.GetPollInterval())
	assert.Equal(t, 8*time.Second, c.GetSettleDelay())
	assert.Equal(t, 3*time.Second, c.GetRetryDelay())

	// Missing or malformed values fall back to defaults.
	var zero CaptureConfig
	assert.Equal(t, 5*time.Minute, zero.GetPollInterval())
	assert.Equal(t, 12*time.Second, zero.GetSettleDelay())
	assert.Equal(t, 60*time.Second, zero.GetDuplicateCutoff())

	bad := CaptureConfig{PollInterval: "soon"}
	assert.Equal(t, 5*time.Minute, bad.GetPollInterval())
}

func TestValidate(t *testing.T) {
	valid := Config{
		Server:  ServerConfig{Port: 8080},
		Storage: StorageConfig{CamerasPath: "./cameras", RetentionDays: 7},
		Blink:   BlinkConfig{CredentialsFile: "./blink_token.json"},
		Capture: CaptureConfig{Cameras: []string{"Front Door"}, DuplicateThreshold: 3},
	}
	assert.NoError(t, valid.Validate())

	noCameras := valid
	noCameras.Capture.Cameras = nil
	assert.Error(t, noCameras.Validate())

	badZone := valid
	badZone.Alerts.NWSZone = "nope"
	assert.Error(t, badZone.Validate())

	badPort := valid
	badPort.Server.Port = 0
	assert.Error(t, badPort.Validate())
}
