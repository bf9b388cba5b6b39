package swapfile

import (
	"bytes"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"swapcore/internal/swaperr"
)

func TestOpenCreatesAndGrowsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "swap.img")
	f, err := Open(path, 8192)
	require.NoError(t, err)
	defer f.Close()

	require.EqualValues(t, 8192, f.Size())

	buf := make([]byte, 4096)
	require.NoError(t, f.ReadAt(buf, 0))
	for _, b := range buf {
		require.Zero(t, b, "a freshly created swap image must read back as zeroes")
	}
}

func TestWriteAtThenReadAtRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "swap.img")
	f, err := Open(path, 8192)
	require.NoError(t, err)
	defer f.Close()

	want := []byte("0123456789abcdef")
	require.NoError(t, f.WriteAt(want, 4096))

	got := make([]byte, len(want))
	require.NoError(t, f.ReadAt(got, 4096))
	require.Equal(t, want, got)
}

func TestReadAtBeyondFileIsPartialIo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "swap.img")
	f, err := Open(path, 4096)
	require.NoError(t, err)
	defer f.Close()

	buf := make([]byte, 8192)
	err = f.ReadAt(buf, 0)
	require.Error(t, err)
	require.True(t, errors.Is(err, swaperr.ErrPartialIo))
}

func TestReadAtEntirelyPastEndIsZeroFilledPartialIo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "swap.img")
	f, err := Open(path, 4096)
	require.NoError(t, err)
	defer f.Close()

	buf := bytes.Repeat([]byte{0xff}, 4096)
	err = f.ReadAt(buf, 4096)
	require.Error(t, err)
	require.True(t, errors.Is(err, swaperr.ErrPartialIo), "a read that lands exactly at EOF must surface as partial io, not a hard error")
	for _, b := range buf {
		require.Zero(t, b, "a read with n==0 at EOF must zero-fill the buffer")
	}
}
