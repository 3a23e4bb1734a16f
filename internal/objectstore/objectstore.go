// Package objectstore uploads channel logos to Supabase-storage compatible
// object storage and resolves their public URLs.
package objectstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Danikxd/maturita-web/internal/apperr"
	"github.com/Danikxd/maturita-web/internal/metrics"
)

// Client talks to the storage API rooted at baseURL (e.g. https://x.supabase.co/storage/v1).
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// New creates a Client. apiKey is sent as the apikey header when set.
func New(baseURL, apiKey string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), apiKey: apiKey, http: httpClient}
}

type uploadResponse struct {
	Key string `json:"Key"`
}

// Upload stores data under bucket/key and returns the stored path relative
// to the bucket. An existing object with the same key is replaced.
func (c *Client) Upload(ctx context.Context, token, bucket, key string, data []byte, contentType string) (path string, err error) {
	done := metrics.ObserveCall("storage", "upload")
	defer func() { done(err) }()

	endpoint := fmt.Sprintf("%s/object/%s/%s", c.baseURL, url.PathEscape(bucket), escapeKey(key))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("build upload: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("x-upsert", "true")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if c.apiKey != "" {
		req.Header.Set("apikey", c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", apperr.Network(err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return "", &apperr.Error{Kind: apperr.KindUnauthenticated, Code: apperr.CodeUnauthenticated, Message: "upload rejected", Err: fmt.Errorf("HTTP %d", resp.StatusCode)}
	case resp.StatusCode == http.StatusBadGateway, resp.StatusCode == http.StatusServiceUnavailable, resp.StatusCode == http.StatusGatewayTimeout:
		return "", apperr.Network(fmt.Errorf("HTTP %d", resp.StatusCode))
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		var e struct {
			Error   string `json:"error"`
			Message string `json:"message"`
		}
		_ = json.Unmarshal(raw, &e)
		return "", apperr.Rejected("", e.Message, fmt.Errorf("upload HTTP %d: %s", resp.StatusCode, e.Error))
	}

	var out uploadResponse
	if err := json.Unmarshal(raw, &out); err == nil && out.Key != "" {
		// Key is "bucket/path"
		return strings.TrimPrefix(out.Key, bucket+"/"), nil
	}
	return key, nil
}

// PublicURL returns the public URL of path inside bucket.
func (c *Client) PublicURL(bucket, path string) string {
	return fmt.Sprintf("%s/object/public/%s/%s", c.baseURL, url.PathEscape(bucket), escapeKey(path))
}

func escapeKey(key string) string {
	parts := strings.Split(key, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}
