package keylock

import (
	"sync"

	"github.com/cespare/xxhash/v2"

	"github.com/dreamware/minikv/internal/metrics"
)

// defaultShards is used when New is called with shards <= 0.
const defaultShards = 256

// Table is a fixed-size array of mutexes used to serialize access to
// individual keys without requiring one mutex per key.
type Table struct {
	shards []sync.Mutex
}

// New returns a Table with the given number of shards. shards <= 0
// falls back to defaultShards.
func New(shards int) *Table {
	if shards <= 0 {
		shards = defaultShards
	}
	return &Table{shards: make([]sync.Mutex, shards)}
}

func (t *Table) shardFor(key string) *sync.Mutex {
	h := xxhash.Sum64String(key)
	return &t.shards[h%uint64(len(t.shards))]
}

// Lock blocks until the shard owning key is acquired.
func (t *Table) Lock(key string) {
	t.shardFor(key).Lock()
	metrics.KeyLockHoldersInFlight.Inc()
}

// Unlock releases the shard owning key. Calling Unlock without a
// matching prior Lock is a programmer error, as with sync.Mutex.
func (t *Table) Unlock(key string) {
	metrics.KeyLockHoldersInFlight.Dec()
	t.shardFor(key).Unlock()
}

// WithLock runs fn with key's shard held, guaranteeing release even if
// fn panics.
func (t *Table) WithLock(key string, fn func()) {
	t.Lock(key)
	defer t.Unlock(key)
	fn()
}
