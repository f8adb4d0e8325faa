// Package cache provides the process-wide store for rendered animations,
// keyed by identity and filter label, with TTL-based freshness.
package cache

import "time"

// TTL is how long an entry stays usable after it was inserted.
const TTL = 3600 * time.Second

// Entry represents a stored payload with its insertion time.
// Entries are never mutated; an Insert replaces the whole value.
type Entry struct {
	InsertedAt time.Time
	Payload    string // base64 of the encoded animation
}

// Fresh reports whether the entry is still usable at now.
func (e Entry) Fresh(now time.Time, ttl time.Duration) bool {
	return now.Sub(e.InsertedAt) < ttl
}

// Reader defines the interface for reading cache entries
type Reader interface {
	// Lookup returns the current entry for key, fresh or not.
	// Freshness is left to the caller.
	Lookup(key Key) (Entry, bool)
}

// Writer defines the interface for writing cache entries
type Writer interface {
	// Insert stores payload under key with InsertedAt set to the store's
	// current time, replacing any prior entry.
	Insert(key Key, payload string) error
}

// Store is the main interface that combines all cache operations
type Store interface {
	Reader
	Writer

	// Len returns the number of entries held, stale ones included.
	Len() int
}

// Clock returns the current time. Stores and the coordinator take one so
// tests can move time forward.
type Clock func() time.Time

// Option configures a store.
type Option func(*options)

type options struct {
	now Clock
}

// WithClock overrides time.Now.
func WithClock(c Clock) Option {
	return func(o *options) {
		if c != nil {
			o.now = c
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// New returns a MemoryStore when shards <= 1 and a ShardedStore otherwise.
func New(shards int, opts ...Option) Store {
	if shards <= 1 {
		return NewMemoryStore(opts...)
	}
	return NewShardedStore(shards, opts...)
}
