package auth

import (
	"sync"
	"time"
)

// Registry remembers, per user id, the instant of the last credential
// change. Tokens issued before that watermark are rejected.
//
// Watermarks live in memory for the lifetime of the process. They are not
// persisted: after a restart, tokens issued before a pre-restart change are
// accepted again until they expire. Entries are never evicted, so the map
// grows with the number of users that ever changed credentials.
type Registry struct {
	mu         sync.RWMutex
	watermarks map[uint64]time.Time
}

func NewRegistry() *Registry {
	return &Registry{watermarks: make(map[uint64]time.Time)}
}

// MarkChanged records (or overwrites) the watermark for userID and returns
// the stored value. The instant is rounded up to the next TimestampPrecision
// boundary so that every token issued before at, even within the same
// second, compares strictly below the watermark.
func (r *Registry) MarkChanged(userID uint64, at time.Time) time.Time {
	wm := at.UTC().Truncate(TimestampPrecision).Add(TimestampPrecision)

	r.mu.Lock()
	r.watermarks[userID] = wm
	r.mu.Unlock()

	return wm
}

// Watermark returns the watermark for userID, if any.
func (r *Registry) Watermark(userID uint64) (time.Time, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	wm, ok := r.watermarks[userID]
	return wm, ok
}

// IsValidIssuedAt is false iff a watermark exists and iat is before it.
func (r *Registry) IsValidIssuedAt(userID uint64, iat time.Time) bool {
	wm, ok := r.Watermark(userID)
	if !ok {
		return true
	}
	return !iat.Before(wm)
}

// Len reports the number of tracked users.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.watermarks)
}
