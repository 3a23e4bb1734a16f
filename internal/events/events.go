// Package events publishes reminder changes so an external delivery service
// can schedule notifications. Nothing here delivers notifications.
package events

import (
	"context"
	"sync"
	"time"

	"github.com/Danikxd/maturita-web/internal/models"
)

// Action is the kind of change.
type Action string

const (
	ActionCreated Action = "created"
	ActionUpdated Action = "updated"
	ActionDeleted Action = "deleted"
)

// ReminderEvent is the message body published after a confirmed mutation.
type ReminderEvent struct {
	Action       Action    `json:"action"`
	ReminderID   int64     `json:"reminder_id"`
	UserID       string    `json:"user_id"`
	ChannelID    int64     `json:"channel_id,omitempty"`
	Title        string    `json:"title,omitempty"`
	NotifyBefore int       `json:"notify_before,omitempty"`
	OccurredAt   time.Time `json:"occurred_at"`
}

// NewReminderEvent builds the event for r.
func NewReminderEvent(action Action, r models.Reminder) ReminderEvent {
	return ReminderEvent{
		Action:       action,
		ReminderID:   r.ID,
		UserID:       r.UserID,
		ChannelID:    r.ChannelID,
		Title:        r.Title,
		NotifyBefore: r.NotifyBefore,
		OccurredAt:   time.Now().UTC(),
	}
}

// Publisher sends reminder events.
type Publisher interface {
	Publish(ctx context.Context, ev ReminderEvent) error
	Close() error
}

// Nop discards events.
type Nop struct{}

func (Nop) Publish(context.Context, ReminderEvent) error { return nil }
func (Nop) Close() error                                 { return nil }

// Recorder keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []ReminderEvent
}

func (r *Recorder) Publish(_ context.Context, ev ReminderEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func (r *Recorder) Close() error { return nil }

// Events returns a copy of everything published so far.
func (r *Recorder) Events() []ReminderEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]ReminderEvent(nil), r.events...)
}
