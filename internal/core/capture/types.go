package capture

import (
	"context"
	"time"
)

// Image source tags recorded with each persisted snapshot.
const (
	SourceMedia       = "get_media"
	SourceThumbnail   = "thumbnail"
	SourcePlaceholder = "placeholder"

	// duplicateSuffix is appended to the source tag when the duplicate
	// detector flags the image.
	duplicateSuffix = "_DUPLICATE"
)

// StepStatus is the explicit outcome of one acquisition step. Degrade-and-
// continue is a branch on these values, not an ignored error.
type StepStatus int

const (
	StepSuccess StepStatus = iota
	StepTimedOut
	StepFailed
)

func (s StepStatus) String() string {
	switch s {
	case StepSuccess:
		return "SUCCESS"
	case StepTimedOut:
		return "TIMEOUT"
	default:
		return "FAILED"
	}
}

// CameraState is the vendor's per-cycle view of a camera. The vendor is the
// source of truth; fields it did not report stay nil.
type CameraState struct {
	Name         string
	Battery      *string
	Temperature  *int
	WifiStrength *int
}

// Result is the per-camera outcome returned to the cycle scheduler.
type Result struct {
	Camera   string        `json:"camera"`
	Success  bool          `json:"success"`
	Source   string        `json:"source"`
	Duration time.Duration `json:"duration"`
}

// CameraAPI is the vendor camera capability consumed by the acquisition
// pipeline. Implementations own all protocol details; every call must honor
// the context deadline.
type CameraAPI interface {
	// RefreshAll forces an account-wide state refresh.
	RefreshAll(ctx context.Context, force bool) error
	// RefreshCamera updates a single camera's state.
	RefreshCamera(ctx context.Context, camera string) error
	// TriggerCapture asks the camera to take a new snapshot and returns the
	// vendor's command identifier.
	TriggerCapture(ctx context.Context, camera string) (string, error)
	// FetchMedia downloads the camera's current full image.
	FetchMedia(ctx context.Context, camera string) ([]byte, error)
	// FetchThumbnail downloads the camera's thumbnail image.
	FetchThumbnail(ctx context.Context, camera string) ([]byte, error)
	// State returns the camera's last-known attributes.
	State(camera string) (CameraState, bool)
}

// WifiBars maps a WiFi signal reading in dBm to a 0-5 bar scale. A missing
// reading is 0 bars.
func WifiBars(dbm *int) int {
	if dbm == nil {
		return 0
	}
	switch {
	case *dbm >= -50:
		return 5
	case *dbm >= -60:
		return 4
	case *dbm >= -70:
		return 3
	case *dbm >= -80:
		return 2
	case *dbm >= -90:
		return 1
	default:
		return 0
	}
}
