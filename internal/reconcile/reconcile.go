// Package reconcile keeps a local collection in step with its authoritative
// remote copy: mutations are applied (or optimistically removed), then the
// full list is refetched and replaces local state.
package reconcile

import (
	"context"
	"log"
	"sync"

	"github.com/Danikxd/maturita-web/internal/apperr"
	"github.com/Danikxd/maturita-web/internal/metrics"
)

// Outcome tags the local effect of a mutation.
type Outcome int

const (
	// Applied: the remote accepted the mutation and local state reflects it.
	Applied Outcome = iota
	// RolledBack: the remote failed and local state is as before the call.
	RolledBack
)

func (o Outcome) String() string {
	if o == Applied {
		return "applied"
	}
	return "rolled_back"
}

// Result reports a mutation's outcome. SyncErr is set when the mutation
// succeeded but the follow-up refetch failed; local state then holds the
// confirmed item and is at most one round trip stale.
type Result struct {
	Outcome Outcome
	SyncErr error
}

// State is the local view a Controller manages.
type State[T any] interface {
	Snapshot() []T
	Replace(ctx context.Context, items []T)
}

// Controller serialises mutations on one collection and reconciles after each.
type Controller[T any] struct {
	name  string
	state State[T]
	key   func(T) int64
	fetch func(context.Context) ([]T, error)

	mu sync.Mutex
}

// New creates a Controller. name labels metrics and logs.
func New[T any](name string, state State[T], key func(T) int64, fetch func(context.Context) ([]T, error)) *Controller[T] {
	return &Controller[T]{name: name, state: state, key: key, fetch: fetch}
}

// Reconcile refetches the authoritative list and replaces local state.
// On failure local state is untouched.
func (c *Controller[T]) Reconcile(ctx context.Context) error {
	items, err := c.fetch(ctx)
	if err != nil {
		return err
	}
	c.state.Replace(ctx, items)
	return nil
}

// Apply runs a create or edit. Nothing changes locally until remote returns
// the confirmed item, which is upserted before reconciling.
func (c *Controller[T]) Apply(ctx context.Context, remote func(context.Context) (T, error)) (T, Result, error) {
	var item T
	res, err := c.Batch(ctx, func(ctx context.Context) ([]T, error) {
		it, err := remote(ctx)
		if err != nil {
			return nil, err
		}
		item = it
		return []T{it}, nil
	})
	return item, res, err
}

// Batch runs remote, which may perform several mutations and returns the
// items it confirmed. They are upserted, then the list is reconciled once.
// If remote fails without confirming anything, local state is untouched.
func (c *Controller[T]) Batch(ctx context.Context, remote func(context.Context) ([]T, error)) (Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	confirmed, err := remote(ctx)
	if len(confirmed) > 0 {
		c.upsert(ctx, confirmed)
	}
	if err != nil && len(confirmed) == 0 {
		metrics.ObserveReconcile(c.name, RolledBack.String())
		return Result{Outcome: RolledBack}, err
	}
	res := Result{Outcome: Applied, SyncErr: c.sync(ctx)}
	metrics.ObserveReconcile(c.name, Applied.String())
	return res, err
}

// Remove deletes the item with id optimistically, then runs remote. If
// remote fails the item is restored at its previous position and the
// result is RolledBack.
func (c *Controller[T]) Remove(ctx context.Context, id int64, remote func(context.Context) error) (Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	items := c.state.Snapshot()
	idx := c.indexOf(items, id)
	if idx < 0 {
		return Result{Outcome: RolledBack}, apperr.NotFound(c.name)
	}
	removed := items[idx]
	without := make([]T, 0, len(items)-1)
	without = append(without, items[:idx]...)
	without = append(without, items[idx+1:]...)
	c.state.Replace(ctx, without)

	if err := remote(ctx); err != nil {
		cur := c.state.Snapshot()
		if c.indexOf(cur, id) < 0 {
			pos := min(idx, len(cur))
			restored := make([]T, 0, len(cur)+1)
			restored = append(restored, cur[:pos]...)
			restored = append(restored, removed)
			restored = append(restored, cur[pos:]...)
			c.state.Replace(ctx, restored)
		}
		metrics.ObserveReconcile(c.name, RolledBack.String())
		return Result{Outcome: RolledBack}, err
	}

	metrics.ObserveReconcile(c.name, Applied.String())
	return Result{Outcome: Applied, SyncErr: c.sync(ctx)}, nil
}

func (c *Controller[T]) sync(ctx context.Context) error {
	if err := c.Reconcile(ctx); err != nil {
		log.Printf("reconcile: %s refetch: %v", c.name, err)
		return err
	}
	return nil
}

func (c *Controller[T]) upsert(ctx context.Context, confirmed []T) {
	items := c.state.Snapshot()
	for _, it := range confirmed {
		if i := c.indexOf(items, c.key(it)); i >= 0 {
			items[i] = it
		} else {
			items = append(items, it)
		}
	}
	c.state.Replace(ctx, items)
}

func (c *Controller[T]) indexOf(items []T, id int64) int {
	for i, it := range items {
		if c.key(it) == id {
			return i
		}
	}
	return -1
}
