// Package app wires configuration into the components shared by the CLI and
// the HTTP server. Every client is built here and handed to its users.
package app

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/Danikxd/maturita-web/internal/admin"
	"github.com/Danikxd/maturita-web/internal/cache"
	"github.com/Danikxd/maturita-web/internal/config"
	"github.com/Danikxd/maturita-web/internal/directory"
	"github.com/Danikxd/maturita-web/internal/epg"
	"github.com/Danikxd/maturita-web/internal/events"
	"github.com/Danikxd/maturita-web/internal/identity"
	"github.com/Danikxd/maturita-web/internal/models"
	"github.com/Danikxd/maturita-web/internal/objectstore"
	"github.com/Danikxd/maturita-web/internal/programme"
	"github.com/Danikxd/maturita-web/internal/reminder"
	"github.com/Danikxd/maturita-web/internal/server"
	"github.com/Danikxd/maturita-web/internal/session"
	"github.com/Danikxd/maturita-web/internal/store"
)

// lockTTL bounds how long a crashed process can hold a user's mutation lock.
const lockTTL = 30 * time.Second

// Clients are the remote collaborators. Tests substitute fakes.
type Clients struct {
	Identity identity.Provider
	Data     DataService
	Storage  admin.Uploader
}

// DataService is everything the components need from the data service.
type DataService interface {
	admin.Service
	reminder.Service
	ListProgrammes(ctx context.Context, date time.Time) ([]models.Programme, error)
}

// App owns the wired components and their infrastructure.
type App struct {
	Config *config.Config

	Store     store.Store
	Sessions  *session.Manager
	Channels  *directory.Directory
	Guide     *programme.Index
	Reminders *reminder.Manager
	Form      *reminder.Form
	Admin     *admin.Manager
	Events    events.Publisher

	closers []func() error
}

// NewClients builds the HTTP clients for cfg.
func NewClients(cfg *config.Config) Clients {
	httpClient := &http.Client{Timeout: cfg.Timeout}
	return Clients{
		Identity: identity.NewGoTrue(cfg.AuthEndpoint(), cfg.AuthAPIKey, httpClient),
		Data: epg.New(cfg.APIBaseURL,
			epg.WithHTTPClient(httpClient),
			epg.WithUserAgent(cfg.UserAgent),
			epg.WithRateLimit(cfg.RateLimit, cfg.RateBurst),
		),
		Storage: objectstore.New(cfg.StorageEndpoint(), cfg.AuthAPIKey, nil),
	}
}

// New opens the snapshot store and optional Redis/AMQP, then wires every
// component around clients. Call Close when done.
func New(ctx context.Context, cfg *config.Config, clients Clients) (*App, error) {
	a := &App{Config: cfg}

	st, err := store.Open(ctx, cfg.StoreDSN)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	a.Store = st
	a.closers = append(a.closers, st.Close)

	var locker reminder.Locker
	if cfg.RedisURL != "" {
		rds, err := cache.New(cfg.RedisURL)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("redis: %w", err)
		}
		if err := rds.Ping(ctx); err != nil {
			log.Printf("app: redis unreachable, caching disabled: %v", err)
			_ = rds.Close()
		} else {
			a.Store = store.NewCachedStore(st, rds)
			locker = cache.NewLocker(rds, lockTTL)
			a.closers = append(a.closers, rds.Close)
		}
	}

	if cfg.AMQPURL != "" {
		a.Events = events.NewAMQP(cfg.AMQPURL, cfg.EventsQueue)
	} else {
		a.Events = events.Nop{}
	}
	a.closers = append(a.closers, a.Events.Close)

	a.Sessions = session.NewManager(clients.Identity, a.Store)
	a.Channels = directory.New(clients.Data, a.Store, cfg.PinnedChannelID)
	a.Guide = programme.New(clients.Data, a.Channels, a.Store)
	a.Reminders = reminder.NewManager(reminder.Config{
		Gate:      a.Sessions,
		Service:   clients.Data,
		Channels:  a.Channels,
		Events:    a.Events,
		Locker:    locker,
		Snapshots: a.Store,

		WriteTimeout: cfg.Timeout,
	})
	a.Form = reminder.NewForm(a.Reminders)
	a.Admin = admin.NewManager(admin.Config{
		Gate:      a.Sessions,
		Service:   clients.Data,
		Uploader:  clients.Storage,
		Directory: a.Channels,
		Bucket:    cfg.LogoBucket,

		WriteTimeout: cfg.Timeout,
	})
	a.Sessions.OnSessionChange(a.Reminders.HandleSessionChange)

	a.restore(ctx)
	return a, nil
}

// restore seeds every component from the last persisted snapshots so a cold
// start shows stale-but-available data.
func (a *App) restore(ctx context.Context) {
	a.Channels.Restore(ctx)
	ok, err := a.Sessions.Restore(ctx)
	if err != nil {
		log.Printf("app: restore session: %v", err)
	}
	if ok {
		if s, signedIn := a.Sessions.GetSession(); signedIn {
			a.Reminders.Restore(ctx, s.UserID)
		}
	}
}

// Server returns the HTTP view API over the app's components.
func (a *App) Server() *server.Server {
	return server.New(server.Deps{
		Sessions:  a.Sessions,
		Channels:  a.Channels,
		Guide:     a.Guide,
		Reminders: a.Reminders,
		Form:      a.Form,
		Admin:     a.Admin,
	}, a.Config.ListenAddr)
}

// Close releases infrastructure in reverse order of acquisition.
func (a *App) Close() error {
	var first error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	a.closers = nil
	return first
}
