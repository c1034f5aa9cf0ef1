package index

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/util"
)

// ErrNotFound is returned by Get when key is absent.
var ErrNotFound = errors.New("index: key not found")

// ErrIndex wraps any underlying LevelDB failure other than not-found.
// Handlers map ErrIndex to a 500-class response (spec's IndexError).
type ErrIndex struct {
	Op  string
	Err error
}

func (e *ErrIndex) Error() string { return fmt.Sprintf("index: %s: %v", e.Op, e.Err) }
func (e *ErrIndex) Unwrap() error { return e.Err }

// Store is a durable ordered key -> record-bytes map backed by an
// embedded LevelDB database. All methods are safe for concurrent use;
// LevelDB itself serializes writes and provides snapshot-consistent
// iteration.
type Store struct {
	db *leveldb.DB
}

// Open opens (creating if necessary) the LevelDB database at dir.
func Open(dir string) (*Store, error) {
	db, err := leveldb.OpenFile(dir, nil)
	if err != nil {
		return nil, &ErrIndex{Op: "open", Err: err}
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return &ErrIndex{Op: "close", Err: err}
	}
	return nil
}

// Get returns the encoded record bytes stored under key, or ErrNotFound.
func (s *Store) Get(key []byte) ([]byte, error) {
	v, err := s.db.Get(key, nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, &ErrIndex{Op: "get", Err: err}
	}
	return v, nil
}

// Put atomically overwrites (or creates) the value stored under key.
func (s *Store) Put(key, value []byte) error {
	if err := s.db.Put(key, value, nil); err != nil {
		return &ErrIndex{Op: "put", Err: err}
	}
	return nil
}

// Delete removes key. It is not an error for key to already be absent.
func (s *Store) Delete(key []byte) error {
	if err := s.db.Delete(key, nil); err != nil {
		return &ErrIndex{Op: "delete", Err: err}
	}
	return nil
}

// KV is a single key/value pair returned by iteration.
type KV struct {
	Key   []byte
	Value []byte
}

// IterPrefix streams, in byte-wise key order, every (key, value) pair
// whose key begins with prefix and is strictly greater than start (when
// start is non-empty), stopping after limit entries (when limit > 0) or
// when fn returns false to stop early. fn receiving false early-exits
// without error.
func (s *Store) IterPrefix(prefix, start []byte, limit int, fn func(key, value []byte) (more bool)) error {
	iter := s.db.NewIterator(util.BytesPrefix(prefix), nil)
	defer iter.Release()

	if len(start) > 0 {
		// Seek to the first key > start within the prefix range.
		iter.Seek(start)
		if bytes.Equal(iter.Key(), start) {
			if !iter.Next() {
				return iterErr(iter)
			}
		}
	} else {
		if !iter.First() {
			return iterErr(iter)
		}
	}

	count := 0
	for ; iter.Valid(); {
		if !bytes.HasPrefix(iter.Key(), prefix) {
			break
		}
		if limit > 0 && count >= limit {
			break
		}
		if !fn(cloneBytes(iter.Key()), cloneBytes(iter.Value())) {
			break
		}
		count++
		if !iter.Next() {
			break
		}
	}
	return iterErr(iter)
}

// IterAll streams every (key, value) pair in the store in key order.
func (s *Store) IterAll(fn func(key, value []byte) (more bool)) error {
	iter := s.db.NewIterator(nil, nil)
	defer iter.Release()
	for iter.Next() {
		if !fn(cloneBytes(iter.Key()), cloneBytes(iter.Value())) {
			break
		}
	}
	return iterErr(iter)
}

func iterErr(iter iterator) error {
	if err := iter.Error(); err != nil {
		return &ErrIndex{Op: "iterate", Err: err}
	}
	return nil
}

// iterator is the subset of leveldb.Iterator used by iterErr, extracted
// so the helper doesn't need to import the concrete type twice.
type iterator interface {
	Error() error
}

func cloneBytes(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
