package storage

import (
	"bytes"
	"fmt"
	"sync"
	"testing"
)

func TestMemoryStoreEmptyByDefault(t *testing.T) {
	store := NewMemoryStore()

	if keys := store.List(); len(keys) != 0 {
		t.Errorf("expected empty store, got %d keys", len(keys))
	}
	if _, err := store.Get("nonexistent"); err != ErrBlobNotFound {
		t.Errorf("expected ErrBlobNotFound, got %v", err)
	}
}

func TestMemoryStorePutGet(t *testing.T) {
	store := NewMemoryStore()

	if err := store.Put("/a/b/c", []byte("blob")); err != nil {
		t.Fatalf("put failed: %v", err)
	}
	got, err := store.Get("/a/b/c")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if !bytes.Equal(got, []byte("blob")) {
		t.Errorf("expected %q, got %q", "blob", got)
	}
}

func TestMemoryStoreOverwrite(t *testing.T) {
	store := NewMemoryStore()
	_ = store.Put("k", []byte("v1"))
	_ = store.Put("k", []byte("v2"))

	got, _ := store.Get("k")
	if !bytes.Equal(got, []byte("v2")) {
		t.Errorf("expected v2, got %q", got)
	}
}

func TestMemoryStoreDeleteIsIdempotent(t *testing.T) {
	store := NewMemoryStore()
	if err := store.Delete("absent"); err != nil {
		t.Errorf("expected nil error deleting absent key, got %v", err)
	}

	_ = store.Put("k", []byte("v"))
	if err := store.Delete("k"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, err := store.Get("k"); err != ErrBlobNotFound {
		t.Errorf("expected ErrBlobNotFound after delete, got %v", err)
	}
}

func TestMemoryStoreReturnsIndependentCopies(t *testing.T) {
	store := NewMemoryStore()
	original := []byte("blob")
	_ = store.Put("k", original)
	original[0] = 'X'

	got, _ := store.Get("k")
	if !bytes.Equal(got, []byte("blob")) {
		t.Errorf("store value was mutated via caller's slice: got %q", got)
	}
}

func TestMemoryStoreList(t *testing.T) {
	store := NewMemoryStore()
	want := map[string][]byte{
		"/a/1": []byte("v1"),
		"/a/2": []byte("v2"),
		"/b/1": []byte("v3"),
	}
	for k, v := range want {
		if err := store.Put(k, v); err != nil {
			t.Fatalf("put %s: %v", k, err)
		}
	}

	got := store.List()
	if len(got) != len(want) {
		t.Errorf("expected %d keys, got %d", len(want), len(got))
	}
	seen := make(map[string]bool, len(got))
	for _, k := range got {
		seen[k] = true
	}
	for k := range want {
		if !seen[k] {
			t.Errorf("expected %s in list", k)
		}
	}
}

func TestStoreInterfaceCompliance(t *testing.T) {
	var _ Store = (*MemoryStore)(nil)

	var store Store = NewMemoryStore()
	if err := store.Put("k", []byte("v")); err != nil {
		t.Fatalf("interface Put failed: %v", err)
	}
	if _, err := store.Get("k"); err != nil {
		t.Fatalf("interface Get failed: %v", err)
	}
	if err := store.Delete("k"); err != nil {
		t.Fatalf("interface Delete failed: %v", err)
	}
}

func TestMemoryStoreConcurrentMixedOps(t *testing.T) {
	store := NewMemoryStore()
	var wg sync.WaitGroup
	const goroutines = 50

	wg.Add(goroutines * 3)
	for i := 0; i < goroutines; i++ {
		go func(id int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				key := fmt.Sprintf("/k/%d", j)
				_ = store.Put(key, []byte(fmt.Sprintf("writer-%d-%d", id, j)))
			}
		}(i)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_, _ = store.Get(fmt.Sprintf("/k/%d", j))
			}
		}(i)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				if j%10 == 0 {
					_ = store.Delete(fmt.Sprintf("/k/%d", j))
				}
			}
		}(i)
	}
	wg.Wait()

	if err := store.Put("/final", []byte("ok")); err != nil {
		t.Errorf("store not functional after concurrent ops: %v", err)
	}
}
