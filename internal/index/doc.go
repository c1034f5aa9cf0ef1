// Package index wraps an embedded LevelDB (github.com/syndtr/goleveldb)
// database as the durable key -> record-bytes map described by the
// specification's Index Store component: atomic single-key writes,
// ordered prefix iteration, and a full ordered scan for the unlinked
// listing.
//
// Keys are compared byte-wise by LevelDB itself, which is what gives
// prefix iteration and listing their required lexicographic ordering.
// Every method wraps LevelDB errors (other than "not found") in
// ErrIndex so callers can map failures to a single 500-class outcome
// without depending on goleveldb's error types directly.
package index
