// Package admin is the administrative side of the channel directory:
// admin verification, logo upload and channel create/update/delete.
package admin

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/Danikxd/maturita-web/internal/apperr"
	"github.com/Danikxd/maturita-web/internal/models"
	"github.com/Danikxd/maturita-web/internal/reconcile"
	"github.com/Danikxd/maturita-web/internal/session"
)

// Service is the channel-management part of the data service.
type Service interface {
	ListChannels(ctx context.Context) ([]models.Channel, error)
	CreateChannel(ctx context.Context, token string, in models.ChannelInput) (models.Channel, error)
	UpdateChannel(ctx context.Context, token string, id int64, in models.ChannelInput) (models.Channel, error)
	DeleteChannel(ctx context.Context, token string, id int64) error
	VerifyAdmin(ctx context.Context, token, userID string) (bool, error)
}

// Uploader stores logo bytes and resolves their public URL.
type Uploader interface {
	Upload(ctx context.Context, token, bucket, key string, data []byte, contentType string) (string, error)
	PublicURL(bucket, path string) string
}

// Directory is the local channel list the admin surface edits.
type Directory interface {
	reconcile.State[models.Channel]
	Lookup(id int64) (models.Channel, error)
	LookupName(name string) (models.Channel, bool)
}

// ChannelWrite is a create (ID == 0) or an update of channel ID.
// Empty DisplayName and LogoURL are sent as absent.
type ChannelWrite struct {
	ID          int64  `json:"id,omitempty"`
	ChannelName string `json:"channel_name"`
	DisplayName string `json:"display_name,omitempty"`
	LogoURL     string `json:"logo,omitempty"`
}

func (w ChannelWrite) validate() error {
	if strings.TrimSpace(w.ChannelName) == "" {
		return apperr.Validation(apperr.CodeEmptyChannelName, "channel name must not be empty")
	}
	return nil
}

func (w ChannelWrite) input() models.ChannelInput {
	name := strings.TrimSpace(w.ChannelName)
	in := models.ChannelInput{ChannelName: &name}
	if d := strings.TrimSpace(w.DisplayName); d != "" {
		in.DisplayName = &d
	}
	if l := strings.TrimSpace(w.LogoURL); l != "" {
		in.LogoURL = &l
	}
	return in
}

// Config holds the Manager's collaborators.
type Config struct {
	Gate      session.Gate
	Service   Service
	Uploader  Uploader
	Directory Directory
	Bucket    string

	// WriteTimeout bounds writes, which are detached from the caller's
	// cancellation. Zero means no bound.
	WriteTimeout time.Duration
}

// Manager runs admin operations against the data service and keeps the
// directory in step through a reconcile controller.
type Manager struct {
	gate     session.Gate
	svc      Service
	uploader Uploader
	dir      Directory
	bucket   string
	timeout  time.Duration
	ctrl     *reconcile.Controller[models.Channel]

	mu      sync.Mutex
	checked map[string]bool
}

// NewManager creates a Manager.
func NewManager(cfg Config) *Manager {
	m := &Manager{
		gate:     cfg.Gate,
		svc:      cfg.Service,
		uploader: cfg.Uploader,
		dir:      cfg.Directory,
		bucket:   cfg.Bucket,
		timeout:  cfg.WriteTimeout,
		checked:  map[string]bool{},
	}
	m.ctrl = reconcile.New("channels", cfg.Directory, func(c models.Channel) int64 { return c.ID }, cfg.Service.ListChannels)
	return m
}

// IsAdmin asks the data service whether the signed-in user is an
// administrator. A positive answer is remembered per user.
func (m *Manager) IsAdmin(ctx context.Context) (bool, error) {
	s, err := m.gate.RequireSession(ctx)
	if err != nil {
		return false, err
	}
	return m.isAdmin(ctx, s)
}

func (m *Manager) isAdmin(ctx context.Context, s models.Session) (bool, error) {
	m.mu.Lock()
	ok := m.checked[s.UserID]
	m.mu.Unlock()
	if ok {
		return true, nil
	}
	ok, err := m.svc.VerifyAdmin(ctx, s.AccessToken, s.UserID)
	if err != nil {
		return false, err
	}
	if ok {
		m.mu.Lock()
		m.checked[s.UserID] = true
		m.mu.Unlock()
	}
	return ok, nil
}

func (m *Manager) requireAdmin(ctx context.Context) (models.Session, error) {
	s, err := m.gate.RequireSession(ctx)
	if err != nil {
		return models.Session{}, err
	}
	ok, err := m.isAdmin(ctx, s)
	if err != nil {
		return models.Session{}, err
	}
	if !ok {
		return models.Session{}, apperr.Rejected(apperr.CodeNotAdmin, "administrator access is required", nil)
	}
	return s, nil
}

// WriteChannel creates or updates a channel. Updating an id the directory
// does not hold is NotFound.
func (m *Manager) WriteChannel(ctx context.Context, w ChannelWrite) (models.Channel, reconcile.Result, error) {
	if err := w.validate(); err != nil {
		return models.Channel{}, reconcile.Result{Outcome: reconcile.RolledBack}, err
	}
	s, err := m.requireAdmin(ctx)
	if err != nil {
		return models.Channel{}, reconcile.Result{Outcome: reconcile.RolledBack}, err
	}
	return m.write(ctx, s, w)
}

func (m *Manager) write(ctx context.Context, s models.Session, w ChannelWrite) (models.Channel, reconcile.Result, error) {
	if err := m.checkTarget(w); err != nil {
		return models.Channel{}, reconcile.Result{Outcome: reconcile.RolledBack}, err
	}
	wctx, cancel := m.detach(ctx)
	defer cancel()
	return m.apply(wctx, s, w)
}

// checkTarget fails with NotFound when w updates a channel the directory
// does not hold.
func (m *Manager) checkTarget(w ChannelWrite) error {
	if w.ID == 0 {
		return nil
	}
	_, err := m.dir.Lookup(w.ID)
	return err
}

func (m *Manager) apply(ctx context.Context, s models.Session, w ChannelWrite) (models.Channel, reconcile.Result, error) {
	return m.ctrl.Apply(ctx, func(ctx context.Context) (models.Channel, error) {
		if w.ID == 0 {
			return m.svc.CreateChannel(ctx, s.AccessToken, w.input())
		}
		return m.svc.UpdateChannel(ctx, s.AccessToken, w.ID, w.input())
	})
}

// detach returns the context a write runs on. It keeps ctx's values but not
// its cancellation.
func (m *Manager) detach(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx = context.WithoutCancel(ctx)
	if m.timeout > 0 {
		return context.WithTimeout(ctx, m.timeout)
	}
	return ctx, func() {}
}

// SaveChannel uploads logo when given, then writes the channel with the
// logo's public URL. Nothing is written when the upload fails.
func (m *Manager) SaveChannel(ctx context.Context, w ChannelWrite, logo *Logo) (models.Channel, reconcile.Result, error) {
	if err := w.validate(); err != nil {
		return models.Channel{}, reconcile.Result{Outcome: reconcile.RolledBack}, err
	}
	s, err := m.requireAdmin(ctx)
	if err != nil {
		return models.Channel{}, reconcile.Result{Outcome: reconcile.RolledBack}, err
	}
	if err := m.checkTarget(w); err != nil {
		return models.Channel{}, reconcile.Result{Outcome: reconcile.RolledBack}, err
	}
	wctx, cancel := m.detach(ctx)
	defer cancel()
	if logo != nil {
		url, err := m.upload(wctx, s, *logo)
		if err != nil {
			return models.Channel{}, reconcile.Result{Outcome: reconcile.RolledBack}, err
		}
		w.LogoURL = url
	}
	return m.apply(wctx, s, w)
}

// DeleteChannel removes channel id, optimistically from the directory.
func (m *Manager) DeleteChannel(ctx context.Context, id int64) (reconcile.Result, error) {
	s, err := m.requireAdmin(ctx)
	if err != nil {
		return reconcile.Result{Outcome: reconcile.RolledBack}, err
	}
	wctx, cancel := m.detach(ctx)
	defer cancel()
	return m.ctrl.Remove(wctx, id, func(ctx context.Context) error {
		return m.svc.DeleteChannel(ctx, s.AccessToken, id)
	})
}
