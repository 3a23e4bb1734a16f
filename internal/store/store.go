package store

import (
	"context"
	"errors"

	"github.com/Danikxd/maturita-web/internal/models"
)

// ErrNotFound is returned when no snapshot has been saved for a kind/scope.
var ErrNotFound = errors.New("snapshot not found")

// Snapshot kinds.
const (
	KindChannels   = "channels"
	KindProgrammes = "programmes"
	KindReminders  = "reminders"
	KindSession    = "session"
)

// Store persists the last successful copy of each remote collection so the
// client can show stale data while offline, plus the signed-in session.
type Store interface {
	SaveChannels(ctx context.Context, channels []models.Channel) error
	LoadChannels(ctx context.Context) ([]models.Channel, error)

	// SaveProgrammes stores the programmes for one calendar date (YYYY-MM-DD).
	SaveProgrammes(ctx context.Context, date string, programmes []models.Programme) error
	LoadProgrammes(ctx context.Context, date string) ([]models.Programme, error)

	// SaveReminders stores one user's reminders. Snapshots are scoped per
	// user so signing in as someone else never shows foreign data.
	SaveReminders(ctx context.Context, userID string, reminders []models.Reminder) error
	LoadReminders(ctx context.Context, userID string) ([]models.Reminder, error)

	SaveSession(ctx context.Context, s models.Session) error
	LoadSession(ctx context.Context) (models.Session, error)
	ClearSession(ctx context.Context) error

	Close() error
}

// Backend is the raw key/value layer a Store is built on. Get returns
// ErrNotFound for a missing entry.
type Backend interface {
	Put(ctx context.Context, kind, scope string, payload []byte) error
	Get(ctx context.Context, kind, scope string) ([]byte, error)
	Delete(ctx context.Context, kind, scope string) error
	Close() error
}
