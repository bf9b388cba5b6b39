// Package swapfile opens and positions reads/writes against the single
// backing "swap image" file that every worker shares (spec §3, §4.F).
//
// Grounded on original_source/pseudo_core.c's open()/pread()/pwrite() calls
// around a single fd shared by all core threads; Go's *os.File ReadAt/WriteAt
// already give positioned, concurrency-safe access without an explicit lock,
// so there's no analogue of a C-side flock here.
package swapfile

import (
	"errors"
	"fmt"
	"io"
	"os"

	"swapcore/internal/swaperr"
)

// File wraps the backing swap image, sized to hold CORES segments of
// SEGMENT_MB each (spec §3).
type File struct {
	f    *os.File
	size int64
}

// Open creates path if absent and grows it to size bytes, matching
// original_source/pseudo_core.c's bootstrap behaviour (a freshly created
// swap image reads back as zeroes everywhere).
func Open(path string, size int64) (*File, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", swaperr.ErrIoOpen, err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: stat: %v", swaperr.ErrIoOpen, err)
	}
	if info.Size() < size {
		if err := f.Truncate(size); err != nil {
			f.Close()
			return nil, fmt.Errorf("%w: truncate: %v", swaperr.ErrIoOpen, err)
		}
	}

	return &File{f: f, size: size}, nil
}

// Size returns the backing file's logical size in bytes.
func (sf *File) Size() int64 { return sf.size }

// ReadAt reads exactly len(buf) bytes at offset. A short read (0 <= n <
// len(buf)), including a read that lands at or past EOF and returns nothing
// at all, surfaces as swaperr.ErrPartialIo; callers zero-fill the remainder
// per spec §7/§8 ("buffer is all-zero; no error" past the addressable
// range). Only a genuine I/O failure (n == 0 with an error other than EOF)
// is a hard error.
func (sf *File) ReadAt(buf []byte, offset int64) error {
	n, err := sf.f.ReadAt(buf, offset)
	if err != nil && n == 0 && !errors.Is(err, io.EOF) {
		return swaperr.NewReadError(uint64(offset), err)
	}
	if n < len(buf) {
		for i := n; i < len(buf); i++ {
			buf[i] = 0
		}
		return fmt.Errorf("%w: read %d of %d bytes at offset %d", swaperr.ErrPartialIo, n, len(buf), offset)
	}
	return nil
}

// WriteAt writes exactly len(buf) bytes at offset.
func (sf *File) WriteAt(buf []byte, offset int64) error {
	n, err := sf.f.WriteAt(buf, offset)
	if err != nil && n == 0 {
		return swaperr.NewWriteError(uint64(offset), err)
	}
	if n < len(buf) {
		return fmt.Errorf("%w: wrote %d of %d bytes at offset %d", swaperr.ErrPartialIo, n, len(buf), offset)
	}
	return nil
}

// Sync flushes the backing file to stable storage.
func (sf *File) Sync() error {
	if err := sf.f.Sync(); err != nil {
		return fmt.Errorf("%w: sync: %v", swaperr.ErrIoWrite, err)
	}
	return nil
}

// Close closes the backing file.
func (sf *File) Close() error {
	return sf.f.Close()
}
