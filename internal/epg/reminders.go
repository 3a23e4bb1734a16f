package epg

import (
	"context"
	"fmt"
	"net/http"

	"github.com/Danikxd/maturita-web/internal/models"
)

// ListReminders fetches the reminders owned by the bearer of token.
func (c *Client) ListReminders(ctx context.Context, token string) ([]models.Reminder, error) {
	var out []models.Reminder
	if err := c.do(ctx, "list_reminders", http.MethodGet, "/notifications", token, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateReminder registers a reminder; the server assigns id and user_id.
func (c *Client) CreateReminder(ctx context.Context, token string, in models.ReminderInput) (models.Reminder, error) {
	var out models.Reminder
	if err := c.do(ctx, "create_reminder", http.MethodPost, "/notifications", token, in, &out); err != nil {
		return models.Reminder{}, err
	}
	return out, nil
}

// UpdateReminder replaces the mutable fields of reminder id.
func (c *Client) UpdateReminder(ctx context.Context, token string, id int64, in models.ReminderInput) (models.Reminder, error) {
	var out models.Reminder
	if err := c.do(ctx, "update_reminder", http.MethodPatch, fmt.Sprintf("/notifications/%d", id), token, in, &out); err != nil {
		return models.Reminder{}, err
	}
	if out.ID == 0 {
		out = models.Reminder{ID: id, ChannelID: in.ChannelID, Title: in.Title, NotifyBefore: in.NotifyBefore}
	}
	return out, nil
}

// DeleteReminder deletes reminder id.
func (c *Client) DeleteReminder(ctx context.Context, token string, id int64) error {
	return c.do(ctx, "delete_reminder", http.MethodDelete, fmt.Sprintf("/notifications/%d", id), token, nil, nil)
}
