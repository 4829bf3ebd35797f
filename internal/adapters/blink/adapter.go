package blink

import (
	"context"
	"fmt"
	"sync"

	"github.com/camwatch/camwatch-go/internal/core/capture"
	"github.com/sirupsen/logrus"
)

// thumbnailWidth is the reduced size requested for the fallback tier.
const thumbnailWidth = 320

// Adapter exposes the Blink account as a capture.CameraAPI and manages the
// session lifecycle (credential load, token refresh, re-initialization after
// an external credentials change). Camera state is cached from the last
// refresh; the scheduler goroutine is the only writer.
type Adapter struct {
	client     *Client
	logger     *logrus.Logger
	credsPath  string
	deviceName string

	mu      sync.RWMutex
	creds   *Credentials
	cameras map[string]*cameraRecord
}

// cameraRecord is the cached vendor-side identity and state for one camera.
type cameraRecord struct {
	id        int
	networkID int
	thumbnail string
	state     capture.CameraState
}

// NewAdapter creates a Blink adapter reading session state from credsPath.
// deviceName is sent as the User-Agent on every vendor request.
func NewAdapter(credsPath, deviceName string, logger *logrus.Logger) *Adapter {
	return &Adapter{
		logger:     logger,
		credsPath:  credsPath,
		deviceName: deviceName,
		cameras:    make(map[string]*cameraRecord),
	}
}

// Initialize loads credentials and performs the initial account refresh.
// Any failure here is non-recoverable without operator intervention: the
// caller should abort startup.
func (a *Adapter) Initialize(ctx context.Context) error {
	creds, err := LoadCredentials(a.credsPath)
	if err != nil {
		return err
	}

	a.mu.Lock()
	a.creds = creds
	a.client = NewClient(creds, a.deviceName, a.logger)
	a.mu.Unlock()

	if err := a.RefreshAll(ctx, true); err != nil {
		return fmt.Errorf("initial account refresh failed: %w", err)
	}

	a.logger.WithField("cameras", len(a.CameraNames())).Info("Blink session established")
	return nil
}

// RefreshAll forces an account-wide state refresh from the homescreen
// document.
func (a *Adapter) RefreshAll(ctx context.Context, force bool) error {
	cams, err := a.client.Homescreen(ctx)
	if err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	for _, hc := range cams {
		a.cameras[hc.Name] = &cameraRecord{
			id:        hc.ID,
			networkID: hc.NetworkID,
			thumbnail: hc.Thumbnail,
			state:     stateFromHomescreen(hc),
		}
	}
	return nil
}

// RefreshCamera updates a single camera's cached state.
func (a *Adapter) RefreshCamera(ctx context.Context, camera string) error {
	rec, err := a.record(camera)
	if err != nil {
		return err
	}

	hc, err := a.client.CameraStatus(ctx, rec.networkID, rec.id)
	if err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if cached, ok := a.cameras[camera]; ok {
		if hc.Thumbnail != "" {
			cached.thumbnail = hc.Thumbnail
		}
		cached.state = stateFromHomescreen(*hc)
		cached.state.Name = camera
	}
	return nil
}

// TriggerCapture asks the camera for a new snapshot.
func (a *Adapter) TriggerCapture(ctx context.Context, camera string) (string, error) {
	rec, err := a.record(camera)
	if err != nil {
		return "", err
	}
	return a.client.TriggerCapture(ctx, rec.networkID, rec.id)
}

// FetchMedia downloads the camera's current full-resolution image.
func (a *Adapter) FetchMedia(ctx context.Context, camera string) ([]byte, error) {
	rec, err := a.record(camera)
	if err != nil {
		return nil, err
	}
	return a.client.FetchImage(ctx, rec.thumbnail+".jpg")
}

// FetchThumbnail downloads the reduced-size fallback image.
func (a *Adapter) FetchThumbnail(ctx context.Context, camera string) ([]byte, error) {
	rec, err := a.record(camera)
	if err != nil {
		return nil, err
	}
	return a.client.FetchImage(ctx, fmt.Sprintf("%s.jpg?width=%d", rec.thumbnail, thumbnailWidth))
}

// State returns the camera's last-known attributes.
func (a *Adapter) State(camera string) (capture.CameraState, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	rec, ok := a.cameras[camera]
	if !ok {
		return capture.CameraState{Name: camera}, false
	}
	return rec.state, true
}

// CameraNames lists the cameras found on the account, for startup logging.
func (a *Adapter) CameraNames() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	names := make([]string, 0, len(a.cameras))
	for name := range a.cameras {
		names = append(names, name)
	}
	return names
}

// RefreshSession refreshes the vendor token and persists the updated
// credentials file.
func (a *Adapter) RefreshSession(ctx context.Context) error {
	if err := a.client.RefreshSession(ctx); err != nil {
		return err
	}

	a.mu.Lock()
	a.creds.Token = a.client.AccessToken()
	creds := *a.creds
	a.mu.Unlock()

	return creds.Save(a.credsPath)
}

// Reinitialize reloads externally refreshed credentials and re-establishes
// camera session state.
func (a *Adapter) Reinitialize(ctx context.Context) error {
	creds, err := LoadCredentials(a.credsPath)
	if err != nil {
		return fmt.Errorf("failed to reload credentials: %w", err)
	}

	a.mu.Lock()
	a.creds = creds
	a.client.SetSession(creds)
	a.mu.Unlock()

	return a.RefreshAll(ctx, true)
}

// CredentialsPath returns the token file path the adapter watches.
func (a *Adapter) CredentialsPath() string {
	return a.credsPath
}

// SessionInfo returns the masked token prefix and account id for logging.
func (a *Adapter) SessionInfo() (string, int) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.creds == nil {
		return "", 0
	}
	return MaskedToken(a.creds.Token), a.creds.AccountID
}

func (a *Adapter) record(camera string) (cameraRecord, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	rec, ok := a.cameras[camera]
	if !ok {
		return cameraRecord{}, fmt.Errorf("unknown camera %q", camera)
	}
	return *rec, nil
}

func stateFromHomescreen(hc homescreenCamera) capture.CameraState {
	return capture.CameraState{
		Name:         hc.Name,
		Battery:      hc.Battery,
		Temperature:  hc.Signals.Temp,
		WifiStrength: hc.Signals.WiFi,
	}
}
