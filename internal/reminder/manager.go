// Package reminder manages the signed-in user's reminders: validation,
// create/edit/delete against the data service, and the reminder form.
package reminder

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/Danikxd/maturita-web/internal/apperr"
	"github.com/Danikxd/maturita-web/internal/cache"
	"github.com/Danikxd/maturita-web/internal/events"
	"github.com/Danikxd/maturita-web/internal/models"
	"github.com/Danikxd/maturita-web/internal/reconcile"
	"github.com/Danikxd/maturita-web/internal/session"
)

// Service is the reminder part of the data service.
type Service interface {
	ListReminders(ctx context.Context, token string) ([]models.Reminder, error)
	CreateReminder(ctx context.Context, token string, in models.ReminderInput) (models.Reminder, error)
	UpdateReminder(ctx context.Context, token string, id int64, in models.ReminderInput) (models.Reminder, error)
	DeleteReminder(ctx context.Context, token string, id int64) error
}

// ChannelLookup resolves channel ids. An empty directory is loaded before
// the first lookup.
type ChannelLookup interface {
	Lookup(id int64) (models.Channel, error)
	Len() int
	Load(ctx context.Context) ([]models.Channel, error)
}

// publishTimeout bounds how long a change event may take after a mutation.
const publishTimeout = 5 * time.Second

// Locker serialises mutations of one user across processes.
type Locker interface {
	Lock(ctx context.Context, scope string) (unlock func(), err error)
}

// Snapshots persists reminders per user.
type Snapshots interface {
	SaveReminders(ctx context.Context, userID string, reminders []models.Reminder) error
	LoadReminders(ctx context.Context, userID string) ([]models.Reminder, error)
}

// Config holds the Manager's collaborators. Gate, Service and Channels are required.
type Config struct {
	Gate      session.Gate
	Service   Service
	Channels  ChannelLookup
	Events    events.Publisher
	Locker    Locker
	Snapshots Snapshots

	// WriteTimeout bounds the remote half of a mutation, which is detached
	// from the caller's cancellation. Zero means no bound.
	WriteTimeout time.Duration
}

// Manager owns the local reminder list of the signed-in user.
//
// Every mutation checks its input fields first, then the session, then the
// channel and local state, and only then calls the data service. Input and
// session failures never reach the data service. Once a mutation is sent it
// runs to completion even if the caller goes away.
type Manager struct {
	gate     session.Gate
	svc      Service
	channels ChannelLookup
	events   events.Publisher
	locker   Locker
	snaps    Snapshots
	timeout  time.Duration

	list *reconcile.List[models.Reminder]
	ctrl *reconcile.Controller[models.Reminder]

	mu     sync.Mutex
	userID string
}

// NewManager creates a Manager.
func NewManager(cfg Config) *Manager {
	m := &Manager{
		gate:     cfg.Gate,
		svc:      cfg.Service,
		channels: cfg.Channels,
		events:   cfg.Events,
		locker:   cfg.Locker,
		snaps:    cfg.Snapshots,
		timeout:  cfg.WriteTimeout,
	}
	if m.events == nil {
		m.events = events.Nop{}
	}
	m.list = reconcile.NewList(m.persist)
	m.ctrl = reconcile.New("reminders", m.list, func(r models.Reminder) int64 { return r.ID }, m.fetch)
	return m
}

func (m *Manager) fetch(ctx context.Context) ([]models.Reminder, error) {
	s, err := m.gate.RequireSession(ctx)
	if err != nil {
		return nil, err
	}
	return m.svc.ListReminders(ctx, s.AccessToken)
}

func (m *Manager) persist(ctx context.Context, items []models.Reminder) {
	m.mu.Lock()
	user := m.userID
	m.mu.Unlock()
	if m.snaps == nil || user == "" {
		return
	}
	if err := m.snaps.SaveReminders(ctx, user, items); err != nil {
		log.Printf("reminder: persist: %v", err)
	}
}

// bindUser switches the list to userID, dropping another user's reminders.
func (m *Manager) bindUser(userID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.userID != userID {
		m.userID = userID
		m.list.Reset()
	}
}

// HandleSessionChange drops local reminders when the user signs out or a
// different user signs in. It never re-runs mutations.
func (m *Manager) HandleSessionChange(s *models.Session) {
	if s == nil {
		m.bindUser("")
		return
	}
	m.mu.Lock()
	same := m.userID == s.UserID
	m.mu.Unlock()
	if !same {
		m.bindUser("")
	}
}

// Load fetches the signed-in user's reminders and replaces local state.
// On failure local state is kept.
func (m *Manager) Load(ctx context.Context) ([]models.Reminder, error) {
	s, err := m.gate.RequireSession(ctx)
	if err != nil {
		return nil, err
	}
	m.bindUser(s.UserID)
	if err := m.ctrl.Reconcile(ctx); err != nil {
		return m.list.Snapshot(), err
	}
	return m.list.Snapshot(), nil
}

// Restore seeds local state from the persisted reminders of userID.
func (m *Manager) Restore(ctx context.Context, userID string) bool {
	if m.snaps == nil || userID == "" {
		return false
	}
	items, err := m.snaps.LoadReminders(ctx, userID)
	if err != nil {
		return false
	}
	m.bindUser(userID)
	m.list.Replace(ctx, items)
	return true
}

// Reminders returns the local list.
func (m *Manager) Reminders() []models.Reminder {
	return m.list.Snapshot()
}

// Get returns the local reminder with id.
func (m *Manager) Get(id int64) (models.Reminder, error) {
	for _, r := range m.list.Snapshot() {
		if r.ID == id {
			return r, nil
		}
	}
	return models.Reminder{}, apperr.NotFound("reminder")
}

// Create registers a new reminder.
func (m *Manager) Create(ctx context.Context, in Input) (models.Reminder, reconcile.Result, error) {
	s, err := m.prepare(ctx, in)
	if err != nil {
		return models.Reminder{}, reconcile.Result{Outcome: reconcile.RolledBack}, err
	}

	unlock, err := m.lock(ctx, s.UserID)
	if err != nil {
		return models.Reminder{}, reconcile.Result{Outcome: reconcile.RolledBack}, err
	}
	wctx, cancel := m.detach(ctx)
	defer cancel()
	r, res, err := m.ctrl.Apply(wctx, func(ctx context.Context) (models.Reminder, error) {
		return m.svc.CreateReminder(ctx, s.AccessToken, in.wire())
	})
	unlock()
	if err != nil {
		return models.Reminder{}, res, err
	}
	m.publish(wctx, events.ActionCreated, r)
	return r, res, nil
}

// Update edits an existing reminder. The id must be present locally.
func (m *Manager) Update(ctx context.Context, id int64, in Input) (models.Reminder, reconcile.Result, error) {
	s, err := m.prepare(ctx, in)
	if err != nil {
		return models.Reminder{}, reconcile.Result{Outcome: reconcile.RolledBack}, err
	}
	if _, err := m.Get(id); err != nil {
		return models.Reminder{}, reconcile.Result{Outcome: reconcile.RolledBack}, err
	}

	unlock, err := m.lock(ctx, s.UserID)
	if err != nil {
		return models.Reminder{}, reconcile.Result{Outcome: reconcile.RolledBack}, err
	}
	wctx, cancel := m.detach(ctx)
	defer cancel()
	r, res, err := m.ctrl.Apply(wctx, func(ctx context.Context) (models.Reminder, error) {
		return m.svc.UpdateReminder(ctx, s.AccessToken, id, in.wire())
	})
	unlock()
	if err != nil {
		return models.Reminder{}, res, err
	}
	m.publish(wctx, events.ActionUpdated, r)
	return r, res, nil
}

// Delete removes a reminder. A locally known reminder disappears at once
// and is restored if the data service refuses; an unknown id is sent to the
// data service as is, so ownership is decided remotely.
func (m *Manager) Delete(ctx context.Context, id int64) (reconcile.Result, error) {
	s, err := m.gate.RequireSession(ctx)
	if err != nil {
		return reconcile.Result{Outcome: reconcile.RolledBack}, err
	}
	m.bindUser(s.UserID)

	unlock, err := m.lock(ctx, s.UserID)
	if err != nil {
		return reconcile.Result{Outcome: reconcile.RolledBack}, err
	}
	wctx, cancel := m.detach(ctx)
	defer cancel()

	remote := func(ctx context.Context) error {
		return m.svc.DeleteReminder(ctx, s.AccessToken, id)
	}

	var res reconcile.Result
	deleted, lookupErr := m.Get(id)
	if lookupErr != nil {
		deleted = models.Reminder{ID: id, UserID: s.UserID}
		res, err = m.ctrl.Batch(wctx, func(ctx context.Context) ([]models.Reminder, error) {
			return nil, remote(ctx)
		})
	} else {
		res, err = m.ctrl.Remove(wctx, id, remote)
	}
	unlock()
	if err != nil {
		return res, err
	}
	m.publish(wctx, events.ActionDeleted, deleted)
	return res, nil
}

// prepare runs the checks every create and edit shares, in order: input
// fields, session, channel.
func (m *Manager) prepare(ctx context.Context, in Input) (models.Session, error) {
	if err := in.Validate(); err != nil {
		return models.Session{}, err
	}
	s, err := m.gate.RequireSession(ctx)
	if err != nil {
		return models.Session{}, err
	}
	m.bindUser(s.UserID)
	if err := m.resolveChannel(ctx, in.ChannelID); err != nil {
		return models.Session{}, err
	}
	return s, nil
}

func (m *Manager) resolveChannel(ctx context.Context, id int64) error {
	if m.channels.Len() == 0 {
		if _, err := m.channels.Load(ctx); err != nil {
			return err
		}
	}
	if _, err := m.channels.Lookup(id); err != nil {
		return apperr.Validation(apperr.CodeUnknownChannel, "unknown channel")
	}
	return nil
}

// detach returns the context the remote half of a mutation runs on. It
// keeps ctx's values but not its cancellation.
func (m *Manager) detach(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx = context.WithoutCancel(ctx)
	if m.timeout > 0 {
		return context.WithTimeout(ctx, m.timeout)
	}
	return ctx, func() {}
}

func (m *Manager) lock(ctx context.Context, userID string) (func(), error) {
	if m.locker == nil {
		return func() {}, nil
	}
	unlock, err := m.locker.Lock(ctx, userID)
	if errors.Is(err, cache.ErrLocked) {
		return nil, apperr.Validation(apperr.CodeSubmissionInFlight, "another change is in progress")
	}
	if err != nil {
		log.Printf("reminder: lock unavailable, continuing unlocked: %v", err)
		return func() {}, nil
	}
	return unlock, nil
}

func (m *Manager) publish(ctx context.Context, action events.Action, r models.Reminder) {
	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	if err := m.events.Publish(ctx, events.NewReminderEvent(action, r)); err != nil {
		log.Printf("reminder: publish %s %d: %v", action, r.ID, err)
	}
}
