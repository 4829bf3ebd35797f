package blink

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"
)

// Credentials is the session state persisted in the token file. The file is
// produced by the interactive setup flow and may also be rewritten by an
// external refresher; the adapter watches it for changes.
type Credentials struct {
	DeviceID     string `json:"device_id"`
	Token        string `json:"token"`
	RefreshToken string `json:"refresh_token"`
	Host         string `json:"host"`
	ClientID     string `json:"client_id"`
	AccountID    int    `json:"account_id"`
	UserID       int    `json:"user_id"`
}

// LoadCredentials reads and validates the token file. A missing or
// incomplete file is the non-recoverable startup condition: the caller is
// expected to abort initialization.
func LoadCredentials(path string) (*Credentials, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read credentials file: %w", err)
	}

	var creds Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return nil, fmt.Errorf("failed to parse credentials file: %w", err)
	}

	if creds.Token == "" || creds.Host == "" || creds.AccountID == 0 {
		return nil, fmt.Errorf("credentials file is missing token, host or account_id")
	}

	// Older token files predate per-client ids; assign one so token refresh
	// has a stable client identity.
	if creds.ClientID == "" {
		creds.ClientID = uuid.New().String()
	}
	return &creds, nil
}

// Save writes the credentials back to the token file.
func (c *Credentials) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to marshal credentials: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write credentials file: %w", err)
	}
	return nil
}

// MaskedToken returns the first 20 characters of a token for logging.
// Full tokens never reach a log line.
func MaskedToken(token string) string {
	if len(token) <= 20 {
		return token + "..."
	}
	return token[:20] + "..."
}
