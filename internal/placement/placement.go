package placement

import (
	"encoding/base64"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/dgryski/go-rendezvous"
)

// ErrNotEnoughVolumes is returned when fewer than n volumes are configured.
var ErrNotEnoughVolumes = fmt.Errorf("placement: replication factor exceeds volume count")

// KeyHash returns a 128-bit-strength digest of key, used to derive the
// on-volume path prefix. It is not cryptographically strong, only
// collision-robust enough that derived paths fan out evenly across the
// two-level directory tree.
//
// The digest is two independent 64-bit xxhash sums concatenated: one over
// key, one over key with a fixed domain-separation suffix. This keeps the
// hot path to a single extra dependency already present (transitively) in
// the retrieval pack rather than pulling in a dedicated 128-bit hash.
func KeyHash(key string) [16]byte {
	var out [16]byte
	h1 := xxhash.Sum64String(key)
	h2 := xxhash.Sum64String(key + "\x00mkv-path")
	binary.BigEndian.PutUint64(out[0:8], h1)
	binary.BigEndian.PutUint64(out[8:16], h2)
	return out
}

// DerivePath returns the on-volume path for key: /<b1>/<b2>/<base64url(key)>,
// optionally prefixed with /sv<NN> when subvolumes > 0 (--subvolumes),
// sharding across that many volume-internal top-level directories.
// A single leading slash on key (as in the request's URL path) is not
// part of the name: DerivePath("/wehave", 0) == DerivePath("wehave", 0).
func DerivePath(key string, subvolumes int) string {
	key = strings.TrimPrefix(key, "/")
	digest := KeyHash(key)
	b1 := hex.EncodeToString(digest[0:1])
	b2 := hex.EncodeToString(digest[1:2])
	enc := base64.URLEncoding.WithPadding(base64.NoPadding).EncodeToString([]byte(key))

	if subvolumes > 0 {
		sv := binary.BigEndian.Uint64(digest[8:16]) % uint64(subvolumes)
		return fmt.Sprintf("/sv%02d/%s/%s/%s", sv, b1, b2, enc)
	}
	return fmt.Sprintf("/%s/%s/%s", b1, b2, enc)
}

// volumeHash is the Hasher passed to rendezvous.New. The library hashes
// every volume name and the looked-up key with it and mixes the two into
// the weight it ranks volumes by.
func volumeHash(s string) uint64 {
	return xxhash.Sum64String(s)
}

// Place returns the ordered list of n volumes key maps onto: Place(...)[0]
// is the primary (target of GET/HEAD redirects and the first PUT), the
// rest are replicas filled in order. The result is a pure function of key
// and volumes — the same roster always yields the same ordering, which is
// what lets a restarted master rediscover a key's replicas without
// consulting anything but the roster itself (spec invariant: placement
// determinism).
//
// This is rendezvous (highest random weight) placement: volumes are
// ranked by a weight mixed from volumeHash(key) and volumeHash(v), and the
// top n are taken, which is
// stable under adding volumes that don't displace the current top n, and
// independent of the order volumes were configured in.
func Place(key string, volumes []string, n int) ([]string, error) {
	if n <= 0 {
		return nil, fmt.Errorf("placement: replication factor must be >= 1, got %d", n)
	}
	if n > len(volumes) {
		return nil, ErrNotEnoughVolumes
	}

	remaining := make([]string, len(volumes))
	copy(remaining, volumes)

	chosen := make([]string, 0, n)
	for i := 0; i < n; i++ {
		rdv := rendezvous.New(remaining, volumeHash)
		winner := rdv.Lookup(key)
		chosen = append(chosen, winner)
		remaining = removeVolume(remaining, winner)
	}
	return chosen, nil
}

func removeVolume(volumes []string, target string) []string {
	out := make([]string, 0, len(volumes)-1)
	for _, v := range volumes {
		if v != target {
			out = append(out, v)
		}
	}
	return out
}
