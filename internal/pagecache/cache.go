// Package pagecache implements the sharded page cache of spec §4.C: a
// hash map partitioned into lock groups plus one process-wide LRU list,
// backing every worker's view of the swap image.
//
// Grounded on the teacher's internal/storage/cache package (shard.go,
// cache.go, eviction.go) for the sharded-map-plus-lock shape, generalized
// from string key/value pairs to fixed PAGE_SIZE byte pages and from
// sampled LRU to the genuine doubly linked list spec's L1 invariant
// requires. The on-disk codec resolves Open Question 1 as variant (b):
// store a length+checksum header and decompress on load.
package pagecache

import (
	"errors"
	"sync"

	"github.com/sirupsen/logrus"

	"swapcore/internal/compressor"
	"swapcore/internal/config"
	"swapcore/internal/metrics"
	"swapcore/internal/swaperr"
	"swapcore/internal/swapfile"
)

// Cache is the shared page cache described in spec §3/§4.C. Construct with
// New; the zero value is not usable.
type Cache struct {
	buckets    [config.HashSize]*page
	shardLocks [config.MutexGroups]sync.Mutex

	lruMu      sync.Mutex
	lru        lruList
	entryCount int

	maxEntries int
	sf         *swapfile.File
	comp       *compressor.Compressor
	metrics    *metrics.Metrics
	log        *logrus.Entry
}

// New builds an empty cache over sf, using comp for the on-disk codec and
// writing its own hit/miss/eviction counters to m (m may be nil in tests).
func New(sf *swapfile.File, comp *compressor.Compressor, maxEntries int, m *metrics.Metrics, log *logrus.Entry) *Cache {
	return &Cache{
		maxEntries: maxEntries,
		sf:         sf,
		comp:       comp,
		metrics:    m,
		log:        log,
	}
}

// EntryCount reports the current number of cached pages (§3 entry_count).
func (c *Cache) EntryCount() int {
	c.lruMu.Lock()
	defer c.lruMu.Unlock()
	return c.entryCount
}

// Get returns a copy of the page at offset (spec §4.C.1). offset must be a
// multiple of config.PageSize (invariant O1). A miss loads from the backing
// file, decoding the on-disk slot; write_intent marks the entry dirty so a
// later eviction or destroy writes it back.
func (c *Cache) Get(offset uint64, writeIntent bool) ([]byte, error) {
	bucket := bucketIndex(offset)
	g := groupOf(bucket)

	c.shardLocks[g].Lock()

	if p := findInBucket(c.buckets[:], bucket, offset); p != nil {
		if writeIntent {
			p.dirty = true
		}
		p.touch()
		out := make([]byte, config.PageSize)
		copy(out, p.data)

		// lru_lock is taken inside the shard lock for the promotion (spec
		// §4.C.2), never after releasing it: releasing first would let a
		// concurrent evictOnce see p as the tail and fully unlink it from
		// both the bucket and the LRU list before this goroutine re-splices
		// it back in, leaving it LRU-reachable but bucket-absent.
		c.lruMu.Lock()
		c.lru.moveToFront(p)
		c.lruMu.Unlock()

		c.shardLocks[g].Unlock()

		c.incHit()
		return out, nil
	}

	// Miss: load from disk with the shard lock held (spec §4.C.2 — this
	// intentionally serializes concurrent misses to the same shard rather
	// than risk duplicate loads).
	data, err := c.loadFromDisk(offset)
	if err != nil {
		c.shardLocks[g].Unlock()
		return nil, err
	}

	p := &page{offset: offset, data: data, dirty: writeIntent}
	p.touch()
	insertInBucket(c.buckets[:], bucket, p)

	c.lruMu.Lock()
	c.lru.pushFront(p)
	c.entryCount++
	overCapacity := c.entryCount > c.maxEntries
	c.lruMu.Unlock()

	c.shardLocks[g].Unlock()

	// Deferred eviction (§4.C.3 / Open Question 3): the eviction step runs
	// only after every lock from the miss path has been released, and
	// re-acquires in the canonical victim-shard -> lru order, so no
	// goroutine ever holds two shard locks at once.
	if overCapacity {
		c.evictOnce()
	}

	c.incMiss()
	out := make([]byte, config.PageSize)
	copy(out, p.data)
	return out, nil
}

func (c *Cache) loadFromDisk(offset uint64) ([]byte, error) {
	raw := make([]byte, SlotSize())
	err := c.sf.ReadAt(raw, diskOffset(offset))
	if err != nil {
		if errors.Is(err, swaperr.ErrPartialIo) {
			if c.log != nil {
				c.log.WithField("offset", offset).Warn("partial slot read, zero-filling remainder")
			}
		} else {
			return nil, err
		}
	}

	payload, corrupt := decodeSlot(raw)
	if corrupt {
		if c.metrics != nil {
			c.metrics.CorruptSlots.Inc()
		}
		if c.log != nil {
			c.log.WithError(swaperr.ErrCorrupt).WithField("offset", offset).Warn("serving zero-filled page")
		}
		return make([]byte, config.PageSize), nil
	}
	if payload == nil {
		return make([]byte, config.PageSize), nil
	}

	out := make([]byte, config.PageSize)
	dec, err := c.comp.Decompress(out[:0], payload)
	if err != nil {
		return nil, err
	}
	if len(dec) < config.PageSize {
		padded := make([]byte, config.PageSize)
		copy(padded, dec)
		dec = padded
	}
	return dec, nil
}

// Evict runs the eviction routine once, per the public contract in §4.C.1.
// A no-op when the cache is empty.
func (c *Cache) Evict() {
	c.evictOnce()
}

func (c *Cache) evictOnce() {
	const maxAttempts = 4
	for attempt := 0; attempt < maxAttempts; attempt++ {
		c.lruMu.Lock()
		v := c.lru.tail
		if v == nil {
			c.lruMu.Unlock()
			return
		}
		offset := v.offset
		c.lruMu.Unlock()

		bucket := bucketIndex(offset)
		g := groupOf(bucket)

		c.shardLocks[g].Lock()
		c.lruMu.Lock()

		v2 := c.lru.tail
		if v2 == nil || v2.offset != offset {
			// Tail moved between the peek and the canonical-order
			// acquisition (another evictOnce or a promoting Get raced
			// us); retry against whatever the tail is now.
			c.lruMu.Unlock()
			c.shardLocks[g].Unlock()
			continue
		}

		c.lru.remove(v2)
		c.entryCount--
		removeFromBucket(c.buckets[:], bucket, v2)

		c.lruMu.Unlock()
		c.shardLocks[g].Unlock()

		if v2.dirty {
			c.writeBackRaw(v2.offset, v2.data)
		}
		if c.metrics != nil {
			c.metrics.CacheEvictions.Inc()
		}
		return
	}
}

// Destroy tears the cache down: every dirty page is written back (errors
// logged, not fatal), then every lock and bucket is released. Call this
// once, at shutdown.
func (c *Cache) Destroy() {
	for i := range c.shardLocks {
		c.shardLocks[i].Lock()
	}
	c.lruMu.Lock()

	for i := range c.buckets {
		for p := c.buckets[i]; p != nil; p = p.bucketNext {
			if p.dirty {
				c.writeBackRaw(p.offset, p.data)
			}
		}
		c.buckets[i] = nil
	}
	c.lru = lruList{}
	c.entryCount = 0

	c.lruMu.Unlock()
	for i := range c.shardLocks {
		c.shardLocks[i].Unlock()
	}
}

// writeBackRaw compresses raw page bytes at the cache's baseline level and
// writes the resulting slot to disk. Errors are logged, never propagated
// (§4.C.1: "any I/O error is logged but does not propagate").
func (c *Cache) writeBackRaw(offset uint64, raw []byte) {
	compressed, err := c.comp.Compress(nil, raw, c.comp.MinLevel())
	if err != nil {
		if c.log != nil {
			c.log.WithError(err).WithField("offset", offset).Error("write-back compression failed")
		}
		if c.metrics != nil {
			c.metrics.CompressErrors.Inc()
		}
		return
	}
	if err := c.WriteBack(offset, compressed); err != nil && c.log != nil {
		c.log.WithError(err).WithField("offset", offset).Error("write-back failed")
	}
}

// WriteBack encodes an already-compressed payload into an on-disk slot and
// writes it at offset. Exposed for the worker loop's step 8 (spec §4.E),
// which writes the compressed mutation result directly, bypassing the
// in-memory page's own dirty bookkeeping exactly as the source does.
func (c *Cache) WriteBack(offset uint64, compressed []byte) error {
	slot, err := encodeSlot(compressed)
	if err != nil {
		return err
	}
	return c.sf.WriteAt(slot, diskOffset(offset))
}

func (c *Cache) incHit() {
	if c.metrics != nil {
		c.metrics.CacheHits.Inc()
	}
}

func (c *Cache) incMiss() {
	if c.metrics != nil {
		c.metrics.CacheMisses.Inc()
	}
}
