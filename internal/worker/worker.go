// Package worker implements the per-core loop of spec §4.E: select an
// offset, report it to the scheduler, maybe migrate, pull the page through
// the cache, mutate a scratch copy, compress and write it back, append to
// the ring log, then throttle.
//
// Grounded on original_source/pseudo_core.c's core_run, translated from the
// single shared-nothing C loop into one goroutine per worker coordinating
// through shared *pagecache.Cache / *scheduler.Scheduler / *ringlog.RingLog
// instances owned by the supervisor.
package worker

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"swapcore/internal/compressor"
	"swapcore/internal/config"
	"swapcore/internal/hotstats"
	"swapcore/internal/pagecache"
	"swapcore/internal/ringlog"
	"swapcore/internal/scheduler"
)

const (
	mutatePasses   = 125
	baseDelay      = 15 * time.Millisecond
	loadCheckEvery = 100
)

// Worker is one pseudo-core (spec §3 "Worker"). Construct with New and run
// with Run, which blocks until ctx is cancelled.
type Worker struct {
	ID           int
	segmentBase  uint64
	segmentLen   uint64
	cursor       uint64

	cache        *pagecache.Cache
	sched        *scheduler.Scheduler
	ring         *ringlog.RingLog
	adapt        *compressor.Adaptive
	hot          *hotstats.Table
	log          *logrus.Entry
	limiter      *rate.Limiter
	migThreshold int
}

// New constructs a worker for id over [id*segmentLen, (id+1)*segmentLen).
func New(id int, segmentLen uint64, cache *pagecache.Cache, sched *scheduler.Scheduler,
	ring *ringlog.RingLog, comp *compressor.Compressor, cfg config.Config, log *logrus.Entry) *Worker {
	return &Worker{
		ID:           id,
		segmentBase:  uint64(id) * segmentLen,
		segmentLen:   segmentLen,
		cache:        cache,
		sched:        sched,
		ring:         ring,
		adapt:        compressor.NewAdaptive(comp, config.PageSize, cfg.CompressionAdaptiveThreshold),
		hot:          hotstats.New(),
		log:          log.WithField("worker", id),
		limiter:      rate.NewLimiter(rate.Every(baseDelay), 1),
		migThreshold: cfg.MigrationThreshold,
	}
}

// Run executes the INIT->RUN->...->STOP loop until ctx is cancelled. It
// never returns an error: every per-iteration failure is logged and the
// loop continues, matching the source's "log and keep going" posture.
func (w *Worker) Run(ctx context.Context) {
	w.log.Info("worker started")
	defer w.log.Info("worker terminated")

	iterations := 0
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		w.step()

		iterations++
		w.adjustThrottle(iterations)
		if err := w.limiter.Wait(ctx); err != nil {
			return
		}
	}
}

// step runs one iteration of the 10-step loop in spec §4.E.
func (w *Worker) step() {
	// 1. Select offset.
	blocksPerSegment := w.segmentLen / config.PageSize
	idx := w.cursor
	w.cursor++
	offset := w.segmentBase + (idx%blocksPerSegment)*config.PageSize

	// 2. Report access.
	w.sched.ReportAccess(w.ID, offset)
	w.hot.Record(offset)

	// 3. Maybe migrate.
	if w.sched.ShouldMigrate(w.ID) {
		if m := w.sched.GetMigratedTask(w.ID); !scheduler.None(m) {
			offset = m
		}
	}

	// 4. Load.
	page, err := w.cache.Get(offset, true)
	if err != nil {
		w.log.WithError(err).WithField("offset", offset).Warn("cache get failed")
		return
	}

	// 5. Copy to scratch buffer.
	scratch := make([]byte, config.PageSize)
	copy(scratch, page)

	// 6. Prefetch neighbour, gated on the neighbour looking hot (component
	// G, hotstats). Open Question 5: routed through the cache
	// (write_intent=false) instead of a raw pread that bypasses it, so a
	// successful prefetch actually warms the cache for a later access.
	neighbour := offset + config.PageSize
	if w.hot.ShouldPrefetch(neighbour) {
		if _, err := w.cache.Get(neighbour, false); err != nil {
			w.log.WithError(err).WithField("offset", neighbour).Debug("prefetch failed")
		}
	}

	// 7. Mutate: XOR every byte with id&0xFF, mutatePasses times.
	x := byte(w.ID & 0xFF)
	for pass := 0; pass < mutatePasses; pass++ {
		for i := range scratch {
			scratch[i] ^= x
		}
	}

	// 8. Compress under the adaptive level and write the compressed bytes
	// back at offset.
	compressed, err := w.adapt.CompressNext(nil, scratch)
	if err != nil {
		w.log.WithError(err).WithField("offset", offset).Warn("compression failed")
	} else if err := w.cache.WriteBack(offset, compressed); err != nil {
		w.log.WithError(err).WithField("offset", offset).Warn("write-back failed")
	}

	// 9. Ring-log the mutated, uncompressed scratch buffer.
	w.ring.Append(offset, scratch)
}

// adjustThrottle implements step 10: every loadCheckEvery iterations, halve
// the limiter's rate (doubling the effective delay) when the scheduler
// reports this worker's own queue as high-load, otherwise restore the base
// rate.
func (w *Worker) adjustThrottle(iteration int) {
	if iteration%loadCheckEvery != 0 {
		return
	}
	if w.sched.QueueLen(w.ID) > w.migThreshold*2 {
		w.limiter.SetLimit(rate.Every(baseDelay * 2))
		return
	}
	w.limiter.SetLimit(rate.Every(baseDelay))
}
