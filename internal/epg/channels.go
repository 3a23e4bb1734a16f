package epg

import (
	"context"
	"fmt"
	"net/http"

	"github.com/Danikxd/maturita-web/internal/models"
)

// ListChannels fetches every channel in arrival order.
func (c *Client) ListChannels(ctx context.Context) ([]models.Channel, error) {
	var out []models.Channel
	if err := c.do(ctx, "list_channels", http.MethodGet, "/channels", "", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateChannel creates a channel (admin).
func (c *Client) CreateChannel(ctx context.Context, token string, in models.ChannelInput) (models.Channel, error) {
	var out models.Channel
	if err := c.do(ctx, "create_channel", http.MethodPost, "/tv_channels", token, in, &out); err != nil {
		return models.Channel{}, err
	}
	return out, nil
}

// UpdateChannel patches a channel (admin). Nil fields of in are left unchanged.
func (c *Client) UpdateChannel(ctx context.Context, token string, id int64, in models.ChannelInput) (models.Channel, error) {
	var out models.Channel
	if err := c.do(ctx, "update_channel", http.MethodPatch, fmt.Sprintf("/tv_channels/%d", id), token, in, &out); err != nil {
		return models.Channel{}, err
	}
	if out.ID == 0 {
		out.ID = id
	}
	return out, nil
}

// DeleteChannel deletes a channel (admin).
func (c *Client) DeleteChannel(ctx context.Context, token string, id int64) error {
	return c.do(ctx, "delete_channel", http.MethodDelete, fmt.Sprintf("/tv_channels/%d", id), token, nil, nil)
}

type verifyRequest struct {
	UserID string `json:"user_id"`
}

type verifyResponse struct {
	IsAdmin bool `json:"is_admin"`
}

// VerifyAdmin asks the data service whether userID holds the admin role.
func (c *Client) VerifyAdmin(ctx context.Context, token, userID string) (bool, error) {
	var out verifyResponse
	if err := c.do(ctx, "verify", http.MethodPost, "/verify", token, verifyRequest{UserID: userID}, &out); err != nil {
		return false, err
	}
	return out.IsAdmin, nil
}
