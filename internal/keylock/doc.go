// Package keylock provides per-key mutual exclusion over a fixed-size
// table of shards, so that concurrent requests for different keys never
// contend on a single global mutex while concurrent requests for the
// same key are strictly serialized.
//
// A key maps to a shard via a hash of the key modulo the table size;
// unrelated keys that happen to collide on a shard share a mutex, which
// is an accepted, bounded false-sharing cost rather than a correctness
// problem (serialization is still scoped correctly, just coarser than
// necessary for the colliding pair).
package keylock
