package cache

import (
	"hash/fnv"
	"strconv"
)

// Key identifies one rendered animation: the upstream identity plus the
// human-readable label of the resampling filter used to produce it.
type Key struct {
	ID     int64
	Filter string
}

// KeyFor builds the key for an identity and filter label.
func KeyFor(id int64, filterLabel string) Key {
	return Key{ID: id, Filter: filterLabel}
}

// String renders the key as "id:label", e.g. "42:Nearest Neighbor".
func (k Key) String() string {
	return strconv.FormatInt(k.ID, 10) + ":" + k.Filter
}

// hash converts a key into a number for shard selection.
func (k Key) hash() uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(k.String()))
	return h.Sum32()
}
