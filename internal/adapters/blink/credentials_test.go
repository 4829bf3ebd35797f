package blink

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCreds(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "blink_token.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadCredentials(t *testing.T) {
	path := writeCreds(t, `{
		"device_id": "dev-1",
		"token": "abc123",
		"refresh_token": "ref456",
		"host": "https://rest-u011.immedia-semi.com",
		"client_id": "client-1",
		"account_id": 42,
		"user_id": 7
	}`)

	creds, err := LoadCredentials(path)
	require.NoError(t, err)
	assert.Equal(t, "abc123", creds.Token)
	assert.Equal(t, 42, creds.AccountID)
	assert.Equal(t, "client-1", creds.ClientID)
}

func TestLoadCredentialsAssignsClientID(t *testing.T) {
	path := writeCreds(t, `{
		"token": "abc123",
		"host": "https://rest-u011.immedia-semi.com",
		"account_id": 42
	}`)

	creds, err := LoadCredentials(path)
	require.NoError(t, err)
	assert.NotEmpty(t, creds.ClientID)
}

func TestLoadCredentialsRejectsIncomplete(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "missing token", body: `{"host": "https://rest-u011.immedia-semi.com", "account_id": 42}`},
		{name: "missing host", body: `{"token": "abc", "account_id": 42}`},
		{name: "missing account", body: `{"token": "abc", "host": "https://rest-u011.immedia-semi.com"}`},
		{name: "not json", body: `not json at all`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadCredentials(writeCreds(t, tt.body))
			assert.Error(t, err)
		})
	}
}

func TestLoadCredentialsMissingFile(t *testing.T) {
	_, err := LoadCredentials(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blink_token.json")
	creds := &Credentials{
		Token:     "abc123",
		Host:      "https://rest-u011.immedia-semi.com",
		AccountID: 42,
		ClientID:  "client-1",
	}
	require.NoError(t, creds.Save(path))

	loaded, err := LoadCredentials(path)
	require.NoError(t, err)
	assert.Equal(t, creds.Token, loaded.Token)
	assert.Equal(t, creds.AccountID, loaded.AccountID)
}

func TestMaskedToken(t *testing.T) {
	assert.Equal(t, "short...", MaskedToken("short"))
	long := "0123456789abcdefghijKLMNOP"
	assert.Equal(t, "0123456789abcdefghij...", MaskedToken(long))
}

func TestRegionFromHost(t *testing.T) {
	assert.Equal(t, "u011", regionFromHost("https://rest-u011.immedia-semi.com"))
	assert.Equal(t, "prod", regionFromHost("https://rest-prod.immedia-semi.com"))
}
