package worker

import (
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"swapcore/internal/compressor"
	"swapcore/internal/config"
	"swapcore/internal/pagecache"
	"swapcore/internal/ringlog"
	"swapcore/internal/scheduler"
	"swapcore/internal/swapfile"
)

func newTestWorker(t *testing.T, id int) *Worker {
	t.Helper()
	cfg := config.Default()
	cfg.Cores = 2
	cfg.SegmentMB = 1 // small segment for a fast-cycling test
	cfg.MaxCacheEntries = 64

	segBytes := cfg.SegmentBytes()
	path := filepath.Join(t.TempDir(), "swap.img")
	total := int64(cfg.Cores) * int64(segBytes) / config.PageSize * pagecache.SlotSize()
	sf, err := swapfile.Open(path, total)
	require.NoError(t, err)
	t.Cleanup(func() { sf.Close() })

	comp, err := compressor.New(cfg.CompressionMinLevel, cfg.CompressionMaxLevel)
	require.NoError(t, err)
	t.Cleanup(comp.Close)

	log := logrus.NewEntry(logrus.New())
	cache := pagecache.New(sf, comp, cfg.MaxCacheEntries, nil, log)
	sched := scheduler.New(cfg.Cores, cfg.MigrationThreshold, nil)
	ring := ringlog.New(int(cfg.RingBytes()), config.PageSize, nil, nil)

	return New(id, segBytes, cache, sched, ring, comp, cfg, log)
}

func TestStepAdvancesCursorWithinSegment(t *testing.T) {
	w := newTestWorker(t, 0)
	blocksPerSegment := w.segmentLen / config.PageSize

	for i := uint64(0); i < blocksPerSegment+5; i++ {
		w.step()
	}
	require.Equal(t, blocksPerSegment+5, w.cursor)
}

func TestStepKeepsSelectedOffsetInsideOwnSegment(t *testing.T) {
	w := newTestWorker(t, 1)
	blocksPerSegment := w.segmentLen / config.PageSize

	for i := uint64(0); i < 3; i++ {
		offset := w.segmentBase + (w.cursor % blocksPerSegment) * config.PageSize
		require.GreaterOrEqual(t, offset, w.segmentBase)
		require.Less(t, offset, w.segmentBase+w.segmentLen)
		w.step()
	}
}

func TestStepDoesNotPanicAcrossManyIterations(t *testing.T) {
	w := newTestWorker(t, 0)
	require.NotPanics(t, func() {
		for i := 0; i < 200; i++ {
			w.step()
		}
	})
}
