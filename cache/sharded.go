package cache

// ShardedStore spreads keys over independent MemoryStores so writers on
// different keys do not contend on one lock. A key always maps to the same
// shard, which keeps per-key atomicity identical to MemoryStore.
type ShardedStore struct {
	shards []*MemoryStore
}

// NewShardedStore creates a store with n shards (at least one).
func NewShardedStore(n int, opts ...Option) *ShardedStore {
	if n < 1 {
		n = 1
	}
	s := make([]*MemoryStore, n)
	for i := range s {
		s[i] = NewMemoryStore(opts...)
	}
	return &ShardedStore{shards: s}
}

func (s *ShardedStore) shardFor(key Key) *MemoryStore {
	return s.shards[int(key.hash()%uint32(len(s.shards)))]
}

// Lookup implements Reader.
func (s *ShardedStore) Lookup(key Key) (Entry, bool) {
	return s.shardFor(key).Lookup(key)
}

// Insert implements Writer.
func (s *ShardedStore) Insert(key Key, payload string) error {
	return s.shardFor(key).Insert(key, payload)
}

// Len implements Store.
func (s *ShardedStore) Len() int {
	total := 0
	for _, sh := range s.shards {
		total += sh.Len()
	}
	return total
}

// Shards returns the shard count.
func (s *ShardedStore) Shards() int {
	return len(s.shards)
}
