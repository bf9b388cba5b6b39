// Package config holds the paging core's compile-time-ish constants.
//
// The teacher keeps these as untyped consts (internal/storage/cache/shard.go:
// "const shardCount = 64"); swapcore exposes them as a validated struct so
// the CLI (cmd/swapcore) can override the defaults from original_source/config.h
// via flags while still rejecting nonsensical combinations at startup.
package config

import (
	"fmt"

	"swapcore/internal/swaperr"
)

// PageSize is fixed: it is the unit the on-disk slot header (SPEC_FULL Open
// Question 1) is built around and is not meant to vary per deployment.
const PageSize = 4096

// HashSize and MutexGroups are fixed shard-table geometry, matching
// original_source/cache.h (HASH_SIZE 2048) and spec.md §3 (MUTEX_GROUPS 16).
const (
	HashSize    = 2048
	MutexGroups = 16
)

// Config is the validated set of runtime-tunable constants from
// original_source/config.h.
type Config struct {
	Cores                       int
	SegmentMB                   int
	CacheMB                     int
	MaxCacheEntries             int
	MigrationThreshold          int
	CompressionMinLevel         int
	CompressionMaxLevel         int
	CompressionAdaptiveThreshold float64
	SwapImagePath               string
}

// Default mirrors original_source/config.h, except CompressionAdaptiveThreshold:
// the spec's ratio-feedback policy pins that to 0.8, not the source's 0.5.
func Default() Config {
	return Config{
		Cores:                        4,
		SegmentMB:                    512,
		CacheMB:                      128,
		MaxCacheEntries:              8192,
		MigrationThreshold:           5,
		CompressionMinLevel:          1,
		CompressionMaxLevel:          9,
		CompressionAdaptiveThreshold: 0.8,
		SwapImagePath:                "./storage_swap.img",
	}
}

// SegmentBytes is the per-worker addressable range.
func (c Config) SegmentBytes() uint64 {
	return uint64(c.SegmentMB) * 1024 * 1024
}

// RingBytes is the RingLog buffer size.
func (c Config) RingBytes() uint64 {
	return uint64(c.CacheMB) * 1024 * 1024
}

// Validate rejects combinations that would make the rest of the core
// misbehave; callers treat a non-nil return as swaperr.ErrConfig and fail
// startup (§7: "ConfigError ... Fatal at startup").
func (c Config) Validate() error {
	switch {
	case c.Cores <= 0:
		return fmt.Errorf("%w: cores must be positive, got %d", swaperr.ErrConfig, c.Cores)
	case c.SegmentMB <= 0:
		return fmt.Errorf("%w: segment_mb must be positive, got %d", swaperr.ErrConfig, c.SegmentMB)
	case c.SegmentBytes()%PageSize != 0:
		return fmt.Errorf("%w: segment_mb*1MiB must be a multiple of page size %d", swaperr.ErrConfig, PageSize)
	case c.CacheMB <= 0:
		return fmt.Errorf("%w: cache_mb must be positive, got %d", swaperr.ErrConfig, c.CacheMB)
	case c.MaxCacheEntries <= 0:
		return fmt.Errorf("%w: max_cache_entries must be positive, got %d", swaperr.ErrConfig, c.MaxCacheEntries)
	case c.MigrationThreshold < 0:
		return fmt.Errorf("%w: migration_threshold must be non-negative, got %d", swaperr.ErrConfig, c.MigrationThreshold)
	case c.CompressionMinLevel <= 0 || c.CompressionMaxLevel <= 0:
		return fmt.Errorf("%w: compression levels must be positive", swaperr.ErrConfig)
	case c.CompressionMinLevel > c.CompressionMaxLevel:
		return fmt.Errorf("%w: compression_min_lvl (%d) must not exceed compression_max_lvl (%d)",
			swaperr.ErrConfig, c.CompressionMinLevel, c.CompressionMaxLevel)
	case c.CompressionAdaptiveThreshold <= 0 || c.CompressionAdaptiveThreshold >= 1:
		return fmt.Errorf("%w: compression_adaptive_threshold must be in (0, 1), got %f",
			swaperr.ErrConfig, c.CompressionAdaptiveThreshold)
	case c.SwapImagePath == "":
		return fmt.Errorf("%w: swap image path must not be empty", swaperr.ErrConfig)
	}
	return nil
}
