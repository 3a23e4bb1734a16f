package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type fileConfig struct {
	APIURL        string  `yaml:"api_url"`
	AuthURL       string  `yaml:"auth_url"`
	AuthKey       string  `yaml:"auth_key"`
	StorageURL    string  `yaml:"storage_url"`
	LogoBucket    string  `yaml:"logo_bucket"`
	PinnedChannel int64   `yaml:"pinned_channel"`
	UserAgent     string  `yaml:"user_agent"`
	Timeout       string  `yaml:"timeout"`
	RateLimit     float64 `yaml:"rate_limit"`
	RateBurst     int     `yaml:"rate_burst"`
	Store         string  `yaml:"store"`
	RedisURL      string  `yaml:"redis_url"`
	AMQPURL       string  `yaml:"amqp_url"`
	EventsQueue   string  `yaml:"events_queue"`
	ListenAddr    string  `yaml:"listen_addr"`
}

// LoadFromFile loads config from a YAML file. Missing keys take defaults.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f fileConfig
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	c := Defaults()
	setString(&c.APIBaseURL, f.APIURL)
	setString(&c.AuthURL, f.AuthURL)
	setString(&c.AuthAPIKey, f.AuthKey)
	setString(&c.StorageURL, f.StorageURL)
	setString(&c.LogoBucket, f.LogoBucket)
	setString(&c.UserAgent, f.UserAgent)
	setString(&c.StoreDSN, f.Store)
	setString(&c.RedisURL, f.RedisURL)
	setString(&c.AMQPURL, f.AMQPURL)
	setString(&c.EventsQueue, f.EventsQueue)
	setString(&c.ListenAddr, f.ListenAddr)
	if f.PinnedChannel != 0 {
		c.PinnedChannelID = f.PinnedChannel
	}
	if f.RateLimit > 0 {
		c.RateLimit = f.RateLimit
	}
	if f.RateBurst > 0 {
		c.RateBurst = f.RateBurst
	}
	if f.Timeout != "" {
		if d, err := time.ParseDuration(f.Timeout); err == nil {
			c.Timeout = d
		}
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
