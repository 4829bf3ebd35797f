package blink

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
)

const (
	blinkHostSuffix  = ".immedia-semi.com"
	defaultUserAgent = "camwatch/1.0"
)

// Client handles communication with the Blink REST API. It is not a full
// protocol implementation; it covers exactly the capabilities the capture
// pipeline consumes: session refresh, homescreen state, capture trigger and
// image download.
type Client struct {
	httpClient *http.Client
	logger     *logrus.Logger
	userAgent  string

	host      string
	regionID  string
	accountID int
	userID    int
	clientID  string
	token     *oauth2.Token
}

// homescreenResponse is the subset of the account-wide state document the
// pipeline needs.
type homescreenResponse struct {
	Cameras []homescreenCamera `json:"cameras"`
	Owls    []homescreenCamera `json:"owls"`
}

// homescreenCamera carries one camera's transient attributes. Signal fields
// are pointers: the vendor omits them for offline cameras.
type homescreenCamera struct {
	ID        int     `json:"id"`
	NetworkID int     `json:"network_id"`
	Name      string  `json:"name"`
	Battery   *string `json:"battery"`
	Signals   struct {
		WiFi    *int `json:"wifi"`
		Temp    *int `json:"temp"`
		Battery *int `json:"battery"`
	} `json:"signals"`
	Thumbnail string `json:"thumbnail"`
}

// commandResponse is the vendor's acknowledgment of an async camera command.
type commandResponse struct {
	ID             int    `json:"id"`
	StateCondition string `json:"state_condition"`
}

type tokenResponse struct {
	Auth struct {
		Token string `json:"token"`
	} `json:"auth"`
	Account struct {
		AccountID int `json:"account_id"`
		UserID    int `json:"user_id"`
	} `json:"account"`
}

// NewClient creates a Blink API client from previously established session
// state (see Credentials). deviceName identifies this deployment to the
// vendor; empty falls back to a generic agent string.
func NewClient(creds *Credentials, deviceName string, logger *logrus.Logger) *Client {
	userAgent := defaultUserAgent
	if deviceName != "" {
		userAgent = deviceName
	}
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logger,
		userAgent:  userAgent,
		host:       creds.Host,
		regionID:   regionFromHost(creds.Host),
		accountID:  creds.AccountID,
		userID:     creds.UserID,
		clientID:   creds.ClientID,
		token: &oauth2.Token{
			AccessToken:  creds.Token,
			RefreshToken: creds.RefreshToken,
			TokenType:    "Bearer",
		},
	}
}

// regionFromHost extracts the region id from a host like
// https://rest-u011.immedia-semi.com.
func regionFromHost(host string) string {
	region := strings.TrimPrefix(host, "https://rest-")
	return strings.TrimSuffix(region, blinkHostSuffix)
}

// AccessToken returns the current session token.
func (c *Client) AccessToken() string {
	if c.token == nil {
		return ""
	}
	return c.token.AccessToken
}

// SetSession replaces the client's session state, used after an external
// credentials refresh.
func (c *Client) SetSession(creds *Credentials) {
	c.host = creds.Host
	c.regionID = regionFromHost(creds.Host)
	c.accountID = creds.AccountID
	c.userID = creds.UserID
	c.clientID = creds.ClientID
	c.token = &oauth2.Token{
		AccessToken:  creds.Token,
		RefreshToken: creds.RefreshToken,
		TokenType:    "Bearer",
	}
}

// RefreshSession exchanges the refresh token for a fresh session token.
func (c *Client) RefreshSession(ctx context.Context) error {
	path := fmt.Sprintf("/api/v5/accounts/%d/users/%d/clients/%s/token", c.accountID, c.userID, c.clientID)

	body := map[string]string{"refresh_token": c.token.RefreshToken}
	resp, err := c.do(ctx, http.MethodPost, path, body)
	if err != nil {
		return fmt.Errorf("token refresh request failed: %w", err)
	}
	defer resp.Body.Close()

	var tr tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return fmt.Errorf("failed to decode token response: %w", err)
	}
	if tr.Auth.Token == "" {
		return fmt.Errorf("token refresh returned empty token")
	}

	c.token.AccessToken = tr.Auth.Token
	c.token.Expiry = time.Now().Add(12 * time.Hour)
	return nil
}

// Homescreen fetches the account-wide state document listing every camera
// and its current attributes.
func (c *Client) Homescreen(ctx context.Context) ([]homescreenCamera, error) {
	path := fmt.Sprintf("/api/v3/accounts/%d/homescreen", c.accountID)

	resp, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, fmt.Errorf("homescreen request failed: %w", err)
	}
	defer resp.Body.Close()

	var hs homescreenResponse
	if err := json.NewDecoder(resp.Body).Decode(&hs); err != nil {
		return nil, fmt.Errorf("failed to decode homescreen: %w", err)
	}

	cameras := make([]homescreenCamera, 0, len(hs.Cameras)+len(hs.Owls))
	cameras = append(cameras, hs.Cameras...)
	cameras = append(cameras, hs.Owls...)
	return cameras, nil
}

// TriggerCapture asks a camera to take a new snapshot. The returned command
// id identifies the async operation on the vendor side.
func (c *Client) TriggerCapture(ctx context.Context, networkID, cameraID int) (string, error) {
	path := fmt.Sprintf("/network/%d/camera/%d/thumbnail", networkID, cameraID)

	resp, err := c.do(ctx, http.MethodPost, path, nil)
	if err != nil {
		return "", fmt.Errorf("capture trigger failed: %w", err)
	}
	defer resp.Body.Close()

	var cmd commandResponse
	if err := json.NewDecoder(resp.Body).Decode(&cmd); err != nil {
		return "", fmt.Errorf("failed to decode command response: %w", err)
	}
	return fmt.Sprintf("%d", cmd.ID), nil
}

// CameraStatus fetches a single camera's current state from its config
// endpoint, the cheap alternative to a full homescreen pull.
func (c *Client) CameraStatus(ctx context.Context, networkID, cameraID int) (*homescreenCamera, error) {
	path := fmt.Sprintf("/network/%d/camera/%d/config", networkID, cameraID)

	resp, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, fmt.Errorf("camera config request failed: %w", err)
	}
	defer resp.Body.Close()

	var result struct {
		Camera []homescreenCamera `json:"camera"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode camera config: %w", err)
	}
	if len(result.Camera) == 0 {
		return nil, fmt.Errorf("camera config response was empty")
	}
	return &result.Camera[0], nil
}

// FetchImage downloads image bytes from a vendor media path (thumbnail or
// full media), exactly as composed by the caller.
func (c *Client) FetchImage(ctx context.Context, mediaPath string) ([]byte, error) {
	if mediaPath == "" {
		return nil, fmt.Errorf("camera has no media path")
	}

	resp, err := c.do(ctx, http.MethodGet, mediaPath, nil)
	if err != nil {
		return nil, fmt.Errorf("media download failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read media body: %w", err)
	}
	return data, nil
}

func (c *Client) do(ctx context.Context, method, path string, body interface{}) (*http.Response, error) {
	if c.token == nil || c.token.AccessToken == "" {
		return nil, fmt.Errorf("not authenticated")
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = strings.NewReader(string(data))
	}

	req, err := http.NewRequestWithContext(ctx, method, c.host+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("TOKEN_AUTH", c.token.AccessToken)
	req.Header.Set("User-Agent", c.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= 400 {
		resp.Body.Close()
		return nil, fmt.Errorf("API request failed with status %d", resp.StatusCode)
	}
	return resp, nil
}
