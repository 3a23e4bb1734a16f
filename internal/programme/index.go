// Package programme loads the schedule of a selected date and groups it
// per channel.
package programme

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/Danikxd/maturita-web/internal/apperr"
	"github.com/Danikxd/maturita-web/internal/models"
)

// ErrSuperseded is returned by Load when a newer Load started before this
// one finished. Its result is discarded.
var ErrSuperseded = errors.New("programme load superseded by a newer selection")

// Source fetches the programmes of one date.
type Source interface {
	ListProgrammes(ctx context.Context, date time.Time) ([]models.Programme, error)
}

// Channels is the part of the channel directory the index needs.
type Channels interface {
	OrderedForSelection() []models.Channel
	LookupName(name string) (models.Channel, bool)
}

// Snapshots persists fetched programmes per date.
type Snapshots interface {
	SaveProgrammes(ctx context.Context, date string, programmes []models.Programme) error
	LoadProgrammes(ctx context.Context, date string) ([]models.Programme, error)
}

// Index holds the guide of the currently selected date. Each Load
// supersedes the previous one: the previous request is cancelled and its
// late result never replaces a newer selection.
type Index struct {
	src   Source
	chans Channels
	snaps Snapshots

	mu      sync.Mutex
	gen     uint64
	cancel  context.CancelFunc
	current Guide
	err     error
}

// New creates an Index. snaps may be nil.
func New(src Source, chans Channels, snaps Snapshots) *Index {
	return &Index{src: src, chans: chans, snaps: snaps}
}

// Load fetches and groups the programmes of date. On failure the
// previously displayed guide is retained and returned alongside the error.
func (ix *Index) Load(ctx context.Context, date time.Time) (Guide, error) {
	day := date.Format(models.DateLayout)

	ix.mu.Lock()
	ix.gen++
	gen := ix.gen
	if ix.cancel != nil {
		ix.cancel()
	}
	ctx, cancel := context.WithCancel(ctx)
	ix.cancel = cancel
	ix.mu.Unlock()
	defer cancel()

	progs, err := ix.src.ListProgrammes(ctx, date)

	ix.mu.Lock()
	if gen != ix.gen {
		ix.mu.Unlock()
		return Guide{}, ErrSuperseded
	}
	ix.cancel = nil
	if err != nil {
		if apperr.KindOf(err) == apperr.KindUnknown && !errors.Is(err, context.Canceled) {
			err = apperr.Network(err)
		}
		ix.err = err
		prev := ix.current
		ix.mu.Unlock()
		log.Printf("programme: load %s: %v", day, err)
		return prev, err
	}
	guide := Build(day, progs, ix.chans.OrderedForSelection(), ix.chans.LookupName)
	ix.current = guide
	ix.err = nil
	ix.mu.Unlock()

	if ix.snaps != nil {
		if err := ix.snaps.SaveProgrammes(ctx, day, progs); err != nil {
			log.Printf("programme: persist %s: %v", day, err)
		}
	}
	return guide, nil
}

// Restore shows the persisted guide of date, marked stale. It reports
// whether a snapshot existed.
func (ix *Index) Restore(ctx context.Context, date time.Time) (Guide, bool) {
	if ix.snaps == nil {
		return Guide{}, false
	}
	day := date.Format(models.DateLayout)
	progs, err := ix.snaps.LoadProgrammes(ctx, day)
	if err != nil {
		return Guide{}, false
	}
	guide := Build(day, progs, ix.chans.OrderedForSelection(), ix.chans.LookupName)
	guide.Stale = true

	ix.mu.Lock()
	ix.current = guide
	ix.mu.Unlock()
	return guide, true
}

// Current returns the guide on display.
func (ix *Index) Current() Guide {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return ix.current
}

// Err reports the error of the last failed load, cleared on success.
func (ix *Index) Err() error {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return ix.err
}
