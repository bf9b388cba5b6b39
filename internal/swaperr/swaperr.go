// Package swaperr defines the error taxonomy shared by the paging core.
//
// Every public operation returns one of these sentinels wrapped with
// fmt.Errorf("...: %w", ...) so callers can use errors.Is/errors.As instead
// of string matching. Nothing in this package panics or calls log.Fatal —
// only cmd/swapcore decides what's fatal.
package swaperr

import "errors"

// Sentinels. Match the taxonomy in spec §7; names are illustrative there,
// binding here.
var (
	// ErrConfig marks an invalid compile-time/runtime constant. Fatal at
	// startup — never returned from a steady-state operation.
	ErrConfig = errors.New("config error")

	// ErrIoOpen marks failure to open the backing file. Fatal at startup.
	ErrIoOpen = errors.New("io open error")

	// ErrIoRead marks a mid-run positioned read failure.
	ErrIoRead = errors.New("io read error")

	// ErrIoWrite marks a mid-run positioned write failure.
	ErrIoWrite = errors.New("io write error")

	// ErrPartialIo marks 0 < n < PAGE_SIZE on a read or write. Not fatal;
	// on a read the caller zero-fills the remainder, on a write the caller
	// logs it. A short write is not retried, and an evicted page whose
	// write-back was short is not kept in the cache.
	ErrPartialIo = errors.New("partial io")

	// ErrAlloc marks cache entry allocation failure.
	ErrAlloc = errors.New("alloc error")

	// ErrCompress marks a codec failure from the compressor.
	ErrCompress = errors.New("compress error")

	// ErrCorrupt marks a page slot whose stored CRC64 doesn't match its
	// payload. Treated like a partial read: zero-fill and log, never fatal.
	ErrCorrupt = errors.New("corrupt page slot")
)

// IoError carries the offset and underlying cause for a read/write failure,
// so log call sites and tests can inspect both without parsing strings.
type IoError struct {
	Op     string // "read" or "write"
	Offset uint64
	Err    error
}

func (e *IoError) Error() string {
	return e.Op + " at offset " + itoa(e.Offset) + ": " + e.Err.Error()
}

func (e *IoError) Unwrap() error { return e.Err }

func itoa(v uint64) string {
	if v == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	return string(buf[i:])
}

// NewReadError wraps err as an IoReadError at offset.
func NewReadError(offset uint64, err error) error {
	return &IoError{Op: "read", Offset: offset, Err: errJoin(ErrIoRead, err)}
}

// NewWriteError wraps err as an IoWriteError at offset.
func NewWriteError(offset uint64, err error) error {
	return &IoError{Op: "write", Offset: offset, Err: errJoin(ErrIoWrite, err)}
}

func errJoin(sentinel, cause error) error {
	if cause == nil {
		return sentinel
	}
	return &joined{sentinel: sentinel, cause: cause}
}

type joined struct {
	sentinel error
	cause    error
}

func (j *joined) Error() string { return j.sentinel.Error() + ": " + j.cause.Error() }
func (j *joined) Unwrap() []error {
	return []error{j.sentinel, j.cause}
}
