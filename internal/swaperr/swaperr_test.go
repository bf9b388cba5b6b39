package swaperr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewReadErrorWrapsSentinelAndCause(t *testing.T) {
	cause := errors.New("disk on fire")
	err := NewReadError(42, cause)

	require.True(t, errors.Is(err, ErrIoRead))
	require.True(t, errors.Is(err, cause))

	var ioErr *IoError
	require.True(t, errors.As(err, &ioErr))
	require.Equal(t, "read", ioErr.Op)
	require.EqualValues(t, 42, ioErr.Offset)
}

func TestNewWriteErrorWrapsSentinel(t *testing.T) {
	err := NewWriteError(7, errors.New("no space left"))
	require.True(t, errors.Is(err, ErrIoWrite))
}
