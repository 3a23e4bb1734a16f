package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/Danikxd/maturita-web/internal/models"
)

// Config holds application configuration: remote services, local snapshot
// storage and optional infrastructure (Redis, AMQP).
type Config struct {
	APIBaseURL      string        `yaml:"api_url" env:"TVMINDER_API_URL"`
	AuthURL         string        `yaml:"auth_url" env:"TVMINDER_AUTH_URL"`
	AuthAPIKey      string        `yaml:"auth_key" env:"TVMINDER_AUTH_KEY"`
	StorageURL      string        `yaml:"storage_url" env:"TVMINDER_STORAGE_URL"`
	LogoBucket      string        `yaml:"logo_bucket" env:"TVMINDER_LOGO_BUCKET"`
	PinnedChannelID int64         `yaml:"pinned_channel" env:"TVMINDER_PINNED_CHANNEL"`
	UserAgent       string        `yaml:"user_agent" env:"TVMINDER_USER_AGENT"`
	Timeout         time.Duration `yaml:"timeout" env:"TVMINDER_TIMEOUT"`
	RateLimit       float64       `yaml:"rate_limit" env:"TVMINDER_RATE_LIMIT"`
	RateBurst       int           `yaml:"rate_burst" env:"TVMINDER_RATE_BURST"`
	StoreDSN        string        `yaml:"store" env:"TVMINDER_STORE"`
	RedisURL        string        `yaml:"redis_url" env:"REDIS_URL"`
	AMQPURL         string        `yaml:"amqp_url" env:"AMQP_URL"`
	EventsQueue     string        `yaml:"events_queue" env:"TVMINDER_EVENTS_QUEUE"`
	ListenAddr      string        `yaml:"listen_addr" env:"TVMINDER_LISTEN_ADDR"`
}

var (
	// ErrInvalidAPIURL is returned when the data service URL is not http(s).
	ErrInvalidAPIURL = errors.New("TVMINDER_API_URL must be a valid http or https URL")
	// ErrInvalidPinnedChannel is returned for a non-positive pinned channel id.
	ErrInvalidPinnedChannel = errors.New("TVMINDER_PINNED_CHANNEL must be a positive integer")
)

// Load builds config from environment variables, after loading .env.local
// and .env (existing variables are never overridden). Every key is optional.
func Load() (*Config, error) {
	loadEnvFiles()
	c := Defaults()
	c.APIBaseURL = getenvDefault("TVMINDER_API_URL", c.APIBaseURL)
	c.AuthURL = os.Getenv("TVMINDER_AUTH_URL")
	c.AuthAPIKey = os.Getenv("TVMINDER_AUTH_KEY")
	c.StorageURL = os.Getenv("TVMINDER_STORAGE_URL")
	c.LogoBucket = getenvDefault("TVMINDER_LOGO_BUCKET", c.LogoBucket)
	c.UserAgent = getenvDefault("TVMINDER_USER_AGENT", c.UserAgent)
	c.StoreDSN = getenvDefault("TVMINDER_STORE", c.StoreDSN)
	c.RedisURL = os.Getenv("REDIS_URL")
	c.AMQPURL = os.Getenv("AMQP_URL")
	c.EventsQueue = getenvDefault("TVMINDER_EVENTS_QUEUE", c.EventsQueue)
	c.ListenAddr = getenvDefault("TVMINDER_LISTEN_ADDR", c.ListenAddr)

	if s := os.Getenv("TVMINDER_PINNED_CHANNEL"); s != "" {
		id, err := strconv.ParseInt(s, 10, 64)
		if err != nil || id <= 0 {
			return nil, ErrInvalidPinnedChannel
		}
		c.PinnedChannelID = id
	}
	if s := os.Getenv("TVMINDER_TIMEOUT"); s != "" {
		if d, err := time.ParseDuration(s); err == nil {
			c.Timeout = d
		}
	}
	if s := os.Getenv("TVMINDER_RATE_LIMIT"); s != "" {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			c.RateLimit = f
		}
	}
	if s := os.Getenv("TVMINDER_RATE_BURST"); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			c.RateBurst = n
		}
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Defaults returns a Config with every default applied.
func Defaults() *Config {
	return &Config{
		APIBaseURL:      "http://localhost:3030",
		LogoBucket:      "channel-logos",
		PinnedChannelID: models.DefaultPinnedChannelID,
		UserAgent:       "tvminder/1.0",
		Timeout:         30 * time.Second,
		RateLimit:       10,
		RateBurst:       20,
		StoreDSN:        defaultStorePath(),
		EventsQueue:     "reminders.changed",
		ListenAddr:      ":8080",
	}
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	u, err := url.ParseRequestURI(c.APIBaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return ErrInvalidAPIURL
	}
	if c.PinnedChannelID <= 0 {
		return ErrInvalidPinnedChannel
	}
	if c.AuthURL != "" {
		if _, err := url.ParseRequestURI(c.AuthURL); err != nil {
			return fmt.Errorf("TVMINDER_AUTH_URL: %w", err)
		}
	}
	c.APIBaseURL = strings.TrimRight(c.APIBaseURL, "/")
	c.AuthURL = strings.TrimRight(c.AuthURL, "/")
	c.StorageURL = strings.TrimRight(c.StorageURL, "/")
	return nil
}

func defaultStorePath() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "tvminder.db"
	}
	return filepath.Join(dir, "tvminder", "tvminder.db")
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// AuthEndpoint is the identity provider base URL, defaulting to the
// GoTrue path under the data service.
func (c *Config) AuthEndpoint() string {
	if c.AuthURL != "" {
		return c.AuthURL
	}
	return c.APIBaseURL + "/auth/v1"
}

// StorageEndpoint is the object storage base URL, defaulting to the
// storage path under the data service.
func (c *Config) StorageEndpoint() string {
	if c.StorageURL != "" {
		return c.StorageURL
	}
	return c.APIBaseURL + "/storage/v1"
}
