package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("TVMINDER_API_URL", "")
	t.Setenv("TVMINDER_PINNED_CHANNEL", "")
	t.Setenv("TVMINDER_TIMEOUT", "")

	c, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:3030", c.APIBaseURL)
	assert.Equal(t, int64(186), c.PinnedChannelID)
	assert.Equal(t, 30*time.Second, c.Timeout)
	assert.Equal(t, "channel-logos", c.LogoBucket)
	assert.Equal(t, "reminders.changed", c.EventsQueue)
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("TVMINDER_API_URL", "https://epg.example.com/")
	t.Setenv("TVMINDER_PINNED_CHANNEL", "7")
	t.Setenv("TVMINDER_TIMEOUT", "5s")
	t.Setenv("TVMINDER_RATE_BURST", "3")
	t.Setenv("TVMINDER_STORE", "memory")

	c, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://epg.example.com", c.APIBaseURL)
	assert.Equal(t, int64(7), c.PinnedChannelID)
	assert.Equal(t, 5*time.Second, c.Timeout)
	assert.Equal(t, 3, c.RateBurst)
	assert.Equal(t, "memory", c.StoreDSN)
}

func TestLoad_RejectsBadValues(t *testing.T) {
	t.Setenv("TVMINDER_PINNED_CHANNEL", "zero")
	_, err := Load()
	assert.ErrorIs(t, err, ErrInvalidPinnedChannel)

	t.Setenv("TVMINDER_PINNED_CHANNEL", "")
	t.Setenv("TVMINDER_API_URL", "ftp://example.com")
	_, err = Load()
	assert.ErrorIs(t, err, ErrInvalidAPIURL)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tvminder.yaml")
	yml := `api_url: http://10.0.0.5:3030
auth_url: https://auth.example.com/auth/v1
pinned_channel: 42
timeout: 2s
store: memory
redis_url: redis://localhost:6379/0
`
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o600))

	c, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "http://10.0.0.5:3030", c.APIBaseURL)
	assert.Equal(t, "https://auth.example.com/auth/v1", c.AuthURL)
	assert.Equal(t, int64(42), c.PinnedChannelID)
	assert.Equal(t, 2*time.Second, c.Timeout)
	assert.Equal(t, "memory", c.StoreDSN)
	assert.Equal(t, "redis://localhost:6379/0", c.RedisURL)
	assert.Equal(t, "tvminder/1.0", c.UserAgent)
}

func TestLoadFromFile_Missing(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestEndpoints(t *testing.T) {
	c := Defaults()
	assert.Equal(t, "http://localhost:3030/auth/v1", c.AuthEndpoint())
	assert.Equal(t, "http://localhost:3030/storage/v1", c.StorageEndpoint())

	c.AuthURL = "https://auth.example.com"
	c.StorageURL = "https://files.example.com/storage/v1"
	assert.Equal(t, "https://auth.example.com", c.AuthEndpoint())
	assert.Equal(t, "https://files.example.com/storage/v1", c.StorageEndpoint())
}
