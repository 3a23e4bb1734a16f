// Package directory caches the channel list and provides the orderings
// used by every surface that lets a user pick a channel.
package directory

import (
	"context"
	"errors"
	"log"
	"sort"
	"sync"

	"github.com/Danikxd/maturita-web/internal/apperr"
	"github.com/Danikxd/maturita-web/internal/models"
)

// Source fetches the authoritative channel list.
type Source interface {
	ListChannels(ctx context.Context) ([]models.Channel, error)
}

// Snapshots persists the last successful channel list.
type Snapshots interface {
	SaveChannels(ctx context.Context, channels []models.Channel) error
	LoadChannels(ctx context.Context) ([]models.Channel, error)
}

// Directory holds the channel list in arrival order, de-duplicated by id.
// On a failed load it keeps the previous contents. Safe for concurrent use.
type Directory struct {
	src    Source
	snaps  Snapshots
	pinned int64

	mu       sync.RWMutex
	channels []models.Channel
	index    map[int64]int
	loaded   bool
	err      error
}

// New creates a Directory. snaps may be nil.
func New(src Source, snaps Snapshots, pinnedID int64) *Directory {
	if pinnedID <= 0 {
		pinnedID = models.DefaultPinnedChannelID
	}
	return &Directory{src: src, snaps: snaps, pinned: pinnedID, index: map[int64]int{}}
}

// PinnedID returns the channel id forced to the front of selection lists.
func (d *Directory) PinnedID() int64 { return d.pinned }

// Load fetches the channel list and replaces the cached contents.
// On failure the cache keeps its previous contents and the error is both
// returned and reported by Err.
func (d *Directory) Load(ctx context.Context) ([]models.Channel, error) {
	chans, err := d.src.ListChannels(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		if apperr.KindOf(err) == apperr.KindUnknown {
			err = apperr.Network(err)
		}
		d.mu.Lock()
		d.err = err
		d.mu.Unlock()
		log.Printf("directory: load: %v", err)
		return nil, err
	}
	d.Replace(ctx, chans)
	return d.All(), nil
}

// Restore seeds an empty cache from the last persisted snapshot.
// It reports whether anything was restored.
func (d *Directory) Restore(ctx context.Context) bool {
	if d.snaps == nil {
		return false
	}
	d.mu.RLock()
	loaded := d.loaded
	d.mu.RUnlock()
	if loaded {
		return false
	}
	chans, err := d.snaps.LoadChannels(ctx)
	if err != nil {
		return false
	}
	d.mu.Lock()
	d.set(chans)
	d.mu.Unlock()
	return true
}

// Replace installs chans as the authoritative list and persists it.
func (d *Directory) Replace(ctx context.Context, chans []models.Channel) {
	d.mu.Lock()
	d.set(chans)
	d.loaded = true
	d.err = nil
	cp := append([]models.Channel(nil), d.channels...)
	d.mu.Unlock()

	if d.snaps != nil {
		if err := d.snaps.SaveChannels(ctx, cp); err != nil {
			log.Printf("directory: persist: %v", err)
		}
	}
}

// set must be called with mu held.
func (d *Directory) set(chans []models.Channel) {
	out := make([]models.Channel, 0, len(chans))
	index := make(map[int64]int, len(chans))
	for _, c := range chans {
		if _, dup := index[c.ID]; dup {
			continue
		}
		index[c.ID] = len(out)
		out = append(out, c)
	}
	d.channels = out
	d.index = index
}

// Snapshot returns a copy of the cached list in arrival order.
func (d *Directory) Snapshot() []models.Channel {
	return d.All()
}

// All returns a copy of the cached list in arrival order.
func (d *Directory) All() []models.Channel {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]models.Channel(nil), d.channels...)
}

// Len returns the number of cached channels.
func (d *Directory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.channels)
}

// Err returns the error of the last failed load, cleared by the next success.
func (d *Directory) Err() error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.err
}

// Lookup returns the channel with id.
func (d *Directory) Lookup(id int64) (models.Channel, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	i, ok := d.index[id]
	if !ok {
		return models.Channel{}, apperr.NotFound("channel")
	}
	return d.channels[i], nil
}

// LookupName returns the first channel whose channel_name equals name.
func (d *Directory) LookupName(name string) (models.Channel, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, c := range d.channels {
		if c.ChannelName == name {
			return c, true
		}
	}
	return models.Channel{}, false
}

// OrderedForSelection returns the pinned channel first, the rest in arrival order.
func (d *Directory) OrderedForSelection() []models.Channel {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]models.Channel, 0, len(d.channels))
	if i, ok := d.index[d.pinned]; ok {
		out = append(out, d.channels[i])
	}
	for _, c := range d.channels {
		if c.ID != d.pinned {
			out = append(out, c)
		}
	}
	return out
}

// SortedByID returns the channels ascending by id (admin listing).
func (d *Directory) SortedByID() []models.Channel {
	out := d.All()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
