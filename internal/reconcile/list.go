package reconcile

import (
	"context"
	"sync"
)

// List is an in-memory State. onReplace, when set, observes every new list.
type List[T any] struct {
	mu        sync.RWMutex
	items     []T
	onReplace func(ctx context.Context, items []T)
}

// NewList returns an empty List.
func NewList[T any](onReplace func(ctx context.Context, items []T)) *List[T] {
	return &List[T]{onReplace: onReplace}
}

func (l *List[T]) Snapshot() []T {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]T(nil), l.items...)
}

func (l *List[T]) Replace(ctx context.Context, items []T) {
	cp := append([]T(nil), items...)
	l.mu.Lock()
	l.items = cp
	l.mu.Unlock()
	if l.onReplace != nil {
		l.onReplace(ctx, append([]T(nil), cp...))
	}
}

// Reset empties the list without notifying onReplace.
func (l *List[T]) Reset() {
	l.mu.Lock()
	l.items = nil
	l.mu.Unlock()
}
