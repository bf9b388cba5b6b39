package pagecache

import (
	"sync/atomic"
	"time"
)

// page is one cached, decompressed PAGE_SIZE block (spec §3 "Page"). It
// belongs to at most one shard's bucket chain and at most one position in
// the process-wide LRU list (invariants H1/L1); both are guarded by locks
// external to the struct itself — shard_lock[g] for bucket membership,
// lru_lock for prev/next.
type page struct {
	offset uint64
	data   []byte // len == config.PageSize

	dirty      bool
	lastAccess int64 // unix nano, atomic

	bucketNext *page // collision chain, guarded by its shard lock
	lruPrev, lruNext *page // LRU list links, guarded by cache.lruMu
}

func (p *page) touch() {
	atomic.StoreInt64(&p.lastAccess, time.Now().UnixNano())
}
