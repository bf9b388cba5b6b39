// Package ringlog implements the fixed-size circular diagnostic buffer of
// spec §4.B / §3 "RingLog": a single-lock, single-cursor byte ring that
// mirrors original_source/ring_cache.c's malloc'd buffer + cursor, made
// concurrency-safe (the C original has no lock at all, since pseudo_core.c
// never shares one ring_cache across threads — swapcore does share one
// RingLog across all workers, so the lock is load-bearing here).
package ringlog

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// RingLog is a fixed-size circular buffer of recently written pages. It has
// no read interface beyond diagnostics (§6: "not exposed externally").
type RingLog struct {
	mu       sync.Mutex
	buf      []byte
	cursor   int
	pageSize int

	overflow prometheus.Counter
	appends  prometheus.Counter
}

// New allocates a ring of size bytes (CACHE_MB * 1 MiB per spec §3) with a
// fixed pageSize slot. size is rounded down to a multiple of pageSize (and
// up to one page if smaller) so wraparound never splits a page (§4.B).
func New(size, pageSize int, overflow, appends prometheus.Counter) *RingLog {
	if pageSize <= 0 {
		pageSize = 1
	}
	// Round down to a whole number of pages so a wrap never splits one.
	size -= size % pageSize
	if size < pageSize {
		size = pageSize
	}
	return &RingLog{
		buf:      make([]byte, size),
		pageSize: pageSize,
		overflow: overflow,
		appends:  appends,
	}
}

// Append copies data (must be exactly pageSize bytes) into the ring at the
// current cursor and advances it modulo the ring size. If the remaining
// space before the physical end of the buffer is less than pageSize, the
// write is dropped and counted as an overflow rather than splitting the
// page across the wrap point (§4.B).
func (r *RingLog) Append(offset uint64, data []byte) {
	if len(data) != r.pageSize {
		// Defensive truncate/pad — a caller bug, not a runtime fault; the
		// spec's invariant is "cursor wrap must not split a page", which
		// this preserves by never writing a partial slot.
		fixed := make([]byte, r.pageSize)
		copy(fixed, data)
		data = fixed
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	remaining := len(r.buf) - r.cursor
	if remaining < r.pageSize {
		// Not enough contiguous room before the physical end of the
		// buffer: the write is dropped rather than splitting the page
		// across the wrap point (§4.B invariant).
		if r.overflow != nil {
			r.overflow.Inc()
		}
		return
	}

	copy(r.buf[r.cursor:r.cursor+r.pageSize], data)
	r.cursor = (r.cursor + r.pageSize) % len(r.buf)

	if r.appends != nil {
		r.appends.Inc()
	}
	_ = offset // diagnostic only, not stored (§4.B)
}

// Len reports the ring's capacity in bytes, for diagnostics/tests.
func (r *RingLog) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.buf)
}
