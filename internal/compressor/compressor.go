// Package compressor implements the single-page compress/decompress step of
// spec §4.A, with the ratio-feedback adaptive level policy (variant (a)) and
// the optional entropy-driven policy (variant (b)).
//
// original_source/compress.c links libzstd directly (ZSTD_compress /
// ZSTD_decompress / ZSTD_compressBound); this package uses the pure-Go
// klauspost/compress/zstd codec instead (see SPEC_FULL.md DOMAIN STACK).
package compressor

import (
	"fmt"
	"math"
	"sync"

	"github.com/klauspost/compress/zstd"

	"swapcore/internal/swaperr"
)

// Compressor compresses and decompresses fixed-size pages at an adaptive
// zstd level. The zero value is not usable; construct with New.
type Compressor struct {
	minLevel int
	maxLevel int

	mu       sync.Mutex
	encoders map[int]*zstd.Encoder
	decoder  *zstd.Decoder
}

// New builds a Compressor whose adaptive level oscillates between minLevel
// and maxLevel (COMPRESSION_MIN_LVL / COMPRESSION_MAX_LVL in
// original_source/config.h).
func New(minLevel, maxLevel int) (*Compressor, error) {
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("%w: building decoder: %v", swaperr.ErrCompress, err)
	}
	return &Compressor{
		minLevel: minLevel,
		maxLevel: maxLevel,
		encoders: make(map[int]*zstd.Encoder),
		decoder:  dec,
	}, nil
}

// Close releases the decoder's background goroutines.
func (c *Compressor) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.decoder.Close()
	for _, e := range c.encoders {
		e.Close()
	}
}

func (c *Compressor) encoderFor(level int) (*zstd.Encoder, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.encoders[level]; ok {
		return e, nil
	}

	e, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(level)))
	if err != nil {
		return nil, err
	}
	c.encoders[level] = e
	return e, nil
}

// Compress compresses in at the given level, appending the result to dst and
// returning the extended slice. Fails with swaperr.ErrCompress when the
// codec reports an error.
func (c *Compressor) Compress(dst, in []byte, level int) ([]byte, error) {
	enc, err := c.encoderFor(level)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", swaperr.ErrCompress, err)
	}
	out := enc.EncodeAll(in, dst)
	return out, nil
}

// Decompress decodes in, appending the result to dst[:0] (growing it if its
// capacity is too small), and returns the decoded slice. Fails with
// swaperr.ErrCompress on a codec error.
func (c *Compressor) Decompress(dst, in []byte) ([]byte, error) {
	out, err := c.decoder.DecodeAll(in, dst[:0])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", swaperr.ErrCompress, err)
	}
	return out, nil
}

// MinLevel and MaxLevel report the configured bounds, used by Adaptive.
func (c *Compressor) MinLevel() int { return c.minLevel }
func (c *Compressor) MaxLevel() int { return c.maxLevel }

// Adaptive implements spec §4.A variant (a): ratio feedback. It remembers
// the size of the last compressed page and picks the next level from it.
// Not safe for concurrent use by itself — each worker owns one (matching
// original_source/pseudo_core.c, where compression_level/last_compressed_size
// are per-core-thread locals, not shared state).
type Adaptive struct {
	threshold float64
	prevSize  int
	pageSize  int
	comp      *Compressor
}

// NewAdaptive starts with C_prev = pageSize, per spec §4.A.
func NewAdaptive(comp *Compressor, pageSize int, threshold float64) *Adaptive {
	return &Adaptive{
		threshold: threshold,
		prevSize:  pageSize,
		pageSize:  pageSize,
		comp:      comp,
	}
}

// NextLevel returns the level to use for the next page, based on the
// previous page's compressed size.
func (a *Adaptive) NextLevel() int {
	ratio := float64(a.prevSize) / float64(a.pageSize)
	if ratio > a.threshold {
		return a.comp.MaxLevel()
	}
	return a.comp.MinLevel()
}

// CompressNext compresses in at the adaptive level and records the result
// size for the following call.
func (a *Adaptive) CompressNext(dst, in []byte) ([]byte, error) {
	level := a.NextLevel()
	out, err := a.comp.Compress(dst, in, level)
	if err != nil {
		return nil, err
	}
	a.prevSize = len(out)
	return out, nil
}

// EntropyLevel implements spec §4.A variant (b), the optional entropy-driven
// policy used when a caller passes level 0: Shannon entropy of in, mapped to
// a fixed level.
func EntropyLevel(in []byte) int {
	h := shannonEntropy(in)
	switch {
	case h < 4:
		return 1
	case h < 6:
		return 3
	default:
		return 5
	}
}

func shannonEntropy(in []byte) float64 {
	if len(in) == 0 {
		return 0
	}
	var counts [256]int
	for _, b := range in {
		counts[b]++
	}
	n := float64(len(in))
	var h float64
	for _, c := range counts {
		if c == 0 {
			continue
		}
		p := float64(c) / n
		h -= p * math.Log2(p)
	}
	return h
}
