package cache

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"
)

// ErrLocked is returned by TryLock when the lock is already held.
var ErrLocked = errors.New("lock is already held")

const unlockScript = `
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("del", KEYS[1])
	end
	return 0
`

// TryLock acquires a lock identified by key using SET NX EX. On success it
// returns an unlock function that must be called to release the lock.
func TryLock(ctx context.Context, r *Redis, key string, ttl time.Duration) (unlock func(), err error) {
	// only the holder of token may release
	token := randomToken()

	ok, err := r.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("cache lock %s: %w", key, err)
	}
	if !ok {
		return nil, ErrLocked
	}
	return func() {
		_ = r.client.Eval(context.Background(), unlockScript, []string{key}, token).Err()
	}, nil
}

// IsLocked returns true if the lock key exists.
func IsLocked(ctx context.Context, r *Redis, key string) bool {
	n, _ := r.client.Exists(ctx, key).Result()
	return n > 0
}

// Locker serialises reminder mutations per user across processes that share
// one Redis instance.
type Locker struct {
	r   *Redis
	ttl time.Duration
}

// NewLocker returns a Locker whose locks expire after ttl.
func NewLocker(r *Redis, ttl time.Duration) *Locker {
	return &Locker{r: r, ttl: ttl}
}

// Lock acquires the mutation lock for scope (typically a user id).
func (l *Locker) Lock(ctx context.Context, scope string) (func(), error) {
	return TryLock(ctx, l.r, Key("lock", "reminders", scope), l.ttl)
}

func randomToken() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
