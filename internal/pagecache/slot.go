package pagecache

import (
	"encoding/binary"
	"hash/crc64"

	"swapcore/internal/config"
	"swapcore/internal/swaperr"
)

// Open Question 1 (spec §9) is resolved as variant (b): a per-slot header
// carrying the compressed length and a checksum, decompressed on load.
// That requires more physical space per page than PAGE_SIZE, since zstd's
// worst case (incompressible input) can expand a 4 KiB page by a handful of
// bytes; slotSlack is a generous margin for that, sized well above any
// klauspost/compress/zstd frame overhead observed on PAGE_SIZE inputs.
const (
	slotHeaderSize = 4 + 8 // compressed length (BE u32) + CRC64 (BE u64)
	slotSlack      = 64
	slotSize       = config.PageSize + slotHeaderSize + slotSlack
)

var crcTable = crc64.MakeTable(crc64.ECMA)

// SlotSize is the physical on-disk footprint of one page, larger than
// config.PageSize to hold the header plus worst-case compression expansion.
func SlotSize() int64 { return slotSize }

// diskOffset maps a logical, PAGE_SIZE-aligned cache key to its physical
// byte position in the backing file.
func diskOffset(logical uint64) int64 {
	return int64(logical/config.PageSize) * slotSize
}

// encodeSlot builds a slotSize-byte on-disk record from a compressed
// payload. A never-written slot (length 0) decodes back to an all-zero
// page, matching the backing file's freshly-truncated state.
func encodeSlot(compressed []byte) ([]byte, error) {
	if len(compressed)+slotHeaderSize > slotSize {
		return nil, swaperr.ErrCompress
	}
	buf := make([]byte, slotSize)
	binary.BigEndian.PutUint32(buf[0:4], uint32(len(compressed)))
	sum := crc64.Checksum(compressed, crcTable)
	binary.BigEndian.PutUint64(buf[4:12], sum)
	copy(buf[slotHeaderSize:], compressed)
	return buf, nil
}

// decodeSlot extracts the compressed payload from a slotSize-byte record.
// It returns (nil, false) for a never-written (all-zero) slot, and
// (nil, true) when the stored checksum doesn't match. Callers treat both as
// "serve a zero-filled page" per spec §7, differing only in whether the
// caller logs a swaperr.ErrCorrupt warning for the corrupt case.
func decodeSlot(raw []byte) (compressed []byte, corrupt bool) {
	if len(raw) < slotHeaderSize {
		return nil, false
	}
	n := binary.BigEndian.Uint32(raw[0:4])
	if n == 0 {
		return nil, false
	}
	want := binary.BigEndian.Uint64(raw[4:12])
	end := slotHeaderSize + int(n)
	if end > len(raw) {
		return nil, true
	}
	payload := raw[slotHeaderSize:end]
	got := crc64.Checksum(payload, crcTable)
	if got != want {
		return nil, true
	}
	return payload, false
}
