package ringlog

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func newCounters() (overflow, appends prometheus.Counter) {
	return prometheus.NewCounter(prometheus.CounterOpts{Name: "test_overflow"}),
		prometheus.NewCounter(prometheus.CounterOpts{Name: "test_appends"})
}

func TestAppendAdvancesCursor(t *testing.T) {
	overflow, appends := newCounters()
	r := New(3*4096, 4096, overflow, appends)
	require.Equal(t, 3*4096, r.Len())

	page := make([]byte, 4096)
	for i := 0; i < 3; i++ {
		r.Append(uint64(i*4096), page)
		require.Equal(t, ((i+1)*4096)%(3*4096), r.cursor)
	}
	require.Equal(t, float64(3), testutil.ToFloat64(appends))
	require.Equal(t, float64(0), testutil.ToFloat64(overflow))
}

func TestAppendOverflowsWhenNotEnoughContiguousRoom(t *testing.T) {
	overflow, appends := newCounters()
	r := New(4096*2, 4096, overflow, appends)

	// New always rounds the ring to a whole number of pages, so the cursor
	// never naturally lands somewhere with less than a page of room left.
	// Force that state directly to exercise the defensive drop path.
	r.cursor = len(r.buf) - 1

	page := make([]byte, 4096)
	r.Append(0, page)

	require.Equal(t, float64(0), testutil.ToFloat64(appends))
	require.Equal(t, float64(1), testutil.ToFloat64(overflow))
	require.Equal(t, len(r.buf)-1, r.cursor, "a dropped write must not move the cursor")
}

func TestNewRoundsSizeDownToPageMultiple(t *testing.T) {
	overflow, appends := newCounters()
	r := New(4096*2+10, 4096, overflow, appends)
	require.Equal(t, 4096*2, r.Len())
}

func TestAppendPadsShortData(t *testing.T) {
	overflow, appends := newCounters()
	r := New(4096, 4096, overflow, appends)

	short := []byte("not a full page")
	require.NotPanics(t, func() { r.Append(0, short) })
	require.Equal(t, float64(1), testutil.ToFloat64(appends))
}
