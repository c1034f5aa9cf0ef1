package index

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "idx")
	s, err := Open(dir)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestGetMissingReturnsNotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Get([]byte("nope"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPutGetRoundTrip(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Put([]byte("k"), []byte("v1")))
	got, err := s.Get([]byte("k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v1"), got)
}

func TestPutOverwritesAtomically(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Put([]byte("k"), []byte("v1")))
	require.NoError(t, s.Put([]byte("k"), []byte("v2")))
	got, err := s.Get([]byte("k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), got)
}

func TestDeleteIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Delete([]byte("absent")))
	require.NoError(t, s.Put([]byte("k"), []byte("v")))
	require.NoError(t, s.Delete([]byte("k")))
	_, err := s.Get([]byte("k"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestIterPrefixOrderingAndBounds(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Put([]byte("we/a"), []byte("1")))
	require.NoError(t, s.Put([]byte("we/b"), []byte("2")))
	require.NoError(t, s.Put([]byte("other"), []byte("3")))

	var keys []string
	err := s.IterPrefix([]byte("we"), nil, 0, func(k, _ []byte) bool {
		keys = append(keys, string(k))
		return true
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"we/a", "we/b"}, keys)
}

func TestIterPrefixStartExclusive(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Put([]byte("we/a"), []byte("1")))
	require.NoError(t, s.Put([]byte("we/b"), []byte("2")))

	var keys []string
	err := s.IterPrefix([]byte("we"), []byte("we/a"), 1, func(k, _ []byte) bool {
		keys = append(keys, string(k))
		return true
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"we/b"}, keys)
}

func TestIterPrefixLimit(t *testing.T) {
	s := newTestStore(t)
	for _, k := range []string{"p/1", "p/2", "p/3"} {
		require.NoError(t, s.Put([]byte(k), []byte("v")))
	}
	var keys []string
	err := s.IterPrefix([]byte("p"), nil, 2, func(k, _ []byte) bool {
		keys = append(keys, string(k))
		return true
	})
	require.NoError(t, err)
	assert.Len(t, keys, 2)
}

func TestIterAllOrdered(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Put([]byte("b"), []byte("2")))
	require.NoError(t, s.Put([]byte("a"), []byte("1")))

	var keys []string
	err := s.IterAll(func(k, _ []byte) bool {
		keys = append(keys, string(k))
		return true
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, keys)
}
