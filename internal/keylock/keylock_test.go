package keylock

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewDefaultsShards(t *testing.T) {
	tbl := New(0)
	assert.Len(t, tbl.shards, defaultShards)
	tbl2 := New(16)
	assert.Len(t, tbl2.shards, 16)
}

func TestWithLockReleasesOnPanic(t *testing.T) {
	tbl := New(4)
	func() {
		defer func() { _ = recover() }()
		tbl.WithLock("k", func() { panic("boom") })
	}()

	done := make(chan struct{})
	go func() {
		tbl.Lock("k")
		tbl.Unlock("k")
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock was not released after panic")
	}
}

func TestSameKeySerializes(t *testing.T) {
	tbl := New(4)
	var mu sync.Mutex
	counter := 0
	maxSeen := 0

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tbl.WithLock("shared", func() {
				mu.Lock()
				counter++
				if counter > maxSeen {
					maxSeen = counter
				}
				mu.Unlock()

				time.Sleep(time.Millisecond)

				mu.Lock()
				counter--
				mu.Unlock()
			})
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, maxSeen)
}

func TestDifferentKeysDoNotBlockEachOther(t *testing.T) {
	tbl := New(64)
	var wg sync.WaitGroup
	start := make(chan struct{})
	results := make(chan time.Duration, 2)

	run := func(key string) {
		defer wg.Done()
		<-start
		begin := time.Now()
		tbl.WithLock(key, func() {
			time.Sleep(50 * time.Millisecond)
		})
		results <- time.Since(begin)
	}

	wg.Add(2)
	go run("alpha")
	go run("beta")
	close(start)
	wg.Wait()
	close(results)

	for d := range results {
		assert.Less(t, d, 150*time.Millisecond)
	}
}
