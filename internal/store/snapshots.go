package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Danikxd/maturita-web/internal/models"
)

const (
	scopeAll     = "all"
	scopeCurrent = "current"
)

// Snapshots implements Store by JSON-encoding collections into a Backend.
type Snapshots struct {
	b Backend
}

// NewSnapshots wraps b.
func NewSnapshots(b Backend) *Snapshots {
	return &Snapshots{b: b}
}

func (s *Snapshots) SaveChannels(ctx context.Context, channels []models.Channel) error {
	return put(ctx, s.b, KindChannels, scopeAll, channels)
}

func (s *Snapshots) LoadChannels(ctx context.Context) ([]models.Channel, error) {
	return get[[]models.Channel](ctx, s.b, KindChannels, scopeAll)
}

func (s *Snapshots) SaveProgrammes(ctx context.Context, date string, programmes []models.Programme) error {
	return put(ctx, s.b, KindProgrammes, date, programmes)
}

func (s *Snapshots) LoadProgrammes(ctx context.Context, date string) ([]models.Programme, error) {
	return get[[]models.Programme](ctx, s.b, KindProgrammes, date)
}

func (s *Snapshots) SaveReminders(ctx context.Context, userID string, reminders []models.Reminder) error {
	return put(ctx, s.b, KindReminders, userID, reminders)
}

func (s *Snapshots) LoadReminders(ctx context.Context, userID string) ([]models.Reminder, error) {
	return get[[]models.Reminder](ctx, s.b, KindReminders, userID)
}

func (s *Snapshots) SaveSession(ctx context.Context, sess models.Session) error {
	return put(ctx, s.b, KindSession, scopeCurrent, sess)
}

func (s *Snapshots) LoadSession(ctx context.Context) (models.Session, error) {
	return get[models.Session](ctx, s.b, KindSession, scopeCurrent)
}

func (s *Snapshots) ClearSession(ctx context.Context) error {
	return s.b.Delete(ctx, KindSession, scopeCurrent)
}

func (s *Snapshots) Close() error {
	return s.b.Close()
}

func put(ctx context.Context, b Backend, kind, scope string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s/%s: %w", kind, scope, err)
	}
	return b.Put(ctx, kind, scope, data)
}

func get[T any](ctx context.Context, b Backend, kind, scope string) (T, error) {
	var v T
	data, err := b.Get(ctx, kind, scope)
	if err != nil {
		return v, err
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return v, fmt.Errorf("decode %s/%s: %w", kind, scope, err)
	}
	return v, nil
}
