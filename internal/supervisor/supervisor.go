// Package supervisor owns process lifecycle: open the swap image, spawn the
// worker pool, install signal handlers, and tear everything down in order
// on shutdown (spec §4.F).
//
// Grounded on the teacher's cmd/imcs/main.go graceful-shutdown goroutine,
// generalized from a single signal-channel-plus-goroutine into
// golang.org/x/sync/errgroup fan-out/fan-in over the worker pool, since
// §4.F requires joining every worker before tearing down shared state.
package supervisor

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"swapcore/internal/compressor"
	"swapcore/internal/config"
	"swapcore/internal/metrics"
	"swapcore/internal/pagecache"
	"swapcore/internal/ringlog"
	"swapcore/internal/scheduler"
	"swapcore/internal/swapfile"
	"swapcore/internal/worker"
)

// Supervisor wires together the swap image, cache, scheduler, ring log and
// worker pool, and runs them until a termination signal arrives or Run's
// context is cancelled.
type Supervisor struct {
	cfg     config.Config
	log     *logrus.Entry
	metrics *metrics.Metrics

	sf      *swapfile.File
	comp    *compressor.Compressor
	cache   *pagecache.Cache
	sched   *scheduler.Scheduler
	ring    *ringlog.RingLog
	workers []*worker.Worker
}

// New validates cfg and opens every shared component. Fails fatally
// (swaperr.ErrConfig / ErrIoOpen) exactly as spec §4.F / §7 require for
// startup errors.
func New(cfg config.Config, log *logrus.Entry, m *metrics.Metrics) (*Supervisor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	totalBytes := int64(cfg.Cores) * int64(cfg.SegmentBytes())
	physicalBytes := (totalBytes / config.PageSize) * pagecache.SlotSize()

	sf, err := swapfile.Open(cfg.SwapImagePath, physicalBytes)
	if err != nil {
		return nil, err
	}

	comp, err := compressor.New(cfg.CompressionMinLevel, cfg.CompressionMaxLevel)
	if err != nil {
		sf.Close()
		return nil, err
	}

	cache := pagecache.New(sf, comp, cfg.MaxCacheEntries, m, log)
	sched := scheduler.New(cfg.Cores, cfg.MigrationThreshold, m)

	var overflowCtr, appendCtr prometheus.Counter
	if m != nil {
		overflowCtr, appendCtr = m.RingOverflows, m.RingAppends
	}
	ring := ringlog.New(int(cfg.RingBytes()), config.PageSize, overflowCtr, appendCtr)

	s := &Supervisor{
		cfg:     cfg,
		log:     log,
		metrics: m,
		sf:      sf,
		comp:    comp,
		cache:   cache,
		sched:   sched,
		ring:    ring,
	}

	for id := 0; id < cfg.Cores; id++ {
		s.workers = append(s.workers, worker.New(id, cfg.SegmentBytes(), cache, sched, ring, comp, cfg, log))
	}

	return s, nil
}

// Run spawns every worker and blocks until a SIGINT/SIGTERM arrives or ctx
// is cancelled, then joins all workers and tears down shared state in this
// order: cache (flushing dirty pages), swap image, compressor. The
// scheduler and ring log hold no external resources and are not torn down.
func (s *Supervisor) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	for _, w := range s.workers {
		w := w
		g.Go(func() error {
			w.Run(gctx)
			return nil
		})
	}

	s.log.Info("supervisor running")
	err := g.Wait()

	s.log.Info("shutting down: flushing cache")
	s.cache.Destroy()

	s.log.Info("shutting down: closing swap image")
	if cerr := s.sf.Close(); cerr != nil && err == nil {
		err = fmt.Errorf("closing swap image: %w", cerr)
	}
	s.comp.Close()

	s.log.Info("shutdown complete")
	return err
}
