package pagecache

import (
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"swapcore/internal/config"
)

// TestStressConcurrentAccess hammers a small shared cache from many
// goroutines at once, mixing read-only and write-intent Get calls across a
// narrow offset range so shards and the LRU tail collide constantly. This is
// the adversarial case behind invariant L1 (every page reachable from the
// LRU list is also reachable from its bucket, and vice versa): a promotion
// racing an eviction is exactly what used to slip a page out of its bucket
// while leaving it on the LRU list.
func TestStressConcurrentAccess(t *testing.T) {
	const (
		goroutines = 256
		opsPerG    = 500
		offsets    = 32 // narrow range: forces constant eviction/promotion collisions
	)

	c, _ := newTestCache(t, 8)

	var (
		gets  atomic.Int64
		evict atomic.Int64
	)

	var wg sync.WaitGroup
	wg.Add(goroutines)

	start := time.Now()

	for g := 0; g < goroutines; g++ {
		go func(seed int) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(int64(seed)))

			for i := 0; i < opsPerG; i++ {
				offset := uint64(rng.Intn(offsets)) * config.PageSize
				writeIntent := rng.Intn(4) == 0

				data, err := c.Get(offset, writeIntent)
				if err != nil {
					t.Errorf("Get(%d, %v): %v", offset, writeIntent, err)
					return
				}
				if len(data) != config.PageSize {
					t.Errorf("Get(%d) returned %d bytes, want %d", offset, len(data), config.PageSize)
					return
				}
				gets.Add(1)

				if rng.Intn(16) == 0 {
					c.Evict()
					evict.Add(1)
				}
			}
		}(g)
	}

	wg.Wait()
	elapsed := time.Since(start)

	// Every page still reachable from a bucket must also be reachable from
	// the LRU list, and the LRU list must contain no more entries than
	// entryCount — a page stuck on the list after losing its bucket slot
	// (the race this test exists to catch) would desync these counts.
	c.lruMu.Lock()
	lruCount := 0
	for p := c.lru.head; p != nil; p = p.lruNext {
		lruCount++
	}
	entryCount := c.entryCount
	c.lruMu.Unlock()

	if lruCount != entryCount {
		t.Fatalf("lru list has %d entries but entryCount is %d: a page escaped its bucket", lruCount, entryCount)
	}

	for b := 0; b < config.HashSize; b++ {
		g := groupOf(b)
		c.shardLocks[g].Lock()
		for p := c.buckets[b]; p != nil; p = p.bucketNext {
			if p.lruPrev == nil && p.lruNext == nil && c.lru.head != p && c.lru.tail != p {
				c.shardLocks[g].Unlock()
				t.Fatalf("page at offset %d is in bucket %d but detached from the lru list", p.offset, b)
			}
		}
		c.shardLocks[g].Unlock()
	}

	fmt.Printf("stress: %d goroutines x %d ops in %v (%d gets, %d manual evictions)\n",
		goroutines, opsPerG, elapsed.Round(time.Millisecond), gets.Load(), evict.Load())
}

// TestStressBurstAllWorkersStartTogether mirrors a fleet of workers all
// hitting the cache at once rather than ramping up, the other shape of
// contention a staggered-goroutine test misses.
func TestStressBurstAllWorkersStartTogether(t *testing.T) {
	const workers = 128

	c, _ := newTestCache(t, 16)

	var ready, fire, done sync.WaitGroup
	ready.Add(workers)
	fire.Add(1)
	done.Add(workers)

	var errs atomic.Int64

	for w := 0; w < workers; w++ {
		go func(id int) {
			defer done.Done()
			ready.Done()
			fire.Wait()

			offset := uint64(id%24) * config.PageSize
			if _, err := c.Get(offset, id%3 == 0); err != nil {
				errs.Add(1)
			}
		}(w)
	}

	ready.Wait()
	start := time.Now()
	fire.Done()
	done.Wait()
	elapsed := time.Since(start)

	if n := errs.Load(); n != 0 {
		t.Fatalf("%d of %d workers got a Get error on burst start", n, workers)
	}
	fmt.Printf("burst: %d workers fired simultaneously, settled in %v\n", workers, elapsed.Round(time.Millisecond))
}
