package config

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"swapcore/internal/swaperr"
)

func TestDefaultConfigIsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(c *Config)
	}{
		{"zero cores", func(c *Config) { c.Cores = 0 }},
		{"negative segment", func(c *Config) { c.SegmentMB = -1 }},
		{"zero cache", func(c *Config) { c.CacheMB = 0 }},
		{"zero max entries", func(c *Config) { c.MaxCacheEntries = 0 }},
		{"negative migration threshold", func(c *Config) { c.MigrationThreshold = -1 }},
		{"min level exceeds max", func(c *Config) { c.CompressionMinLevel = 9; c.CompressionMaxLevel = 1 }},
		{"threshold out of range", func(c *Config) { c.CompressionAdaptiveThreshold = 1.5 }},
		{"empty path", func(c *Config) { c.SwapImagePath = "" }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := Default()
			tc.mutate(&c)
			err := c.Validate()
			require.Error(t, err)
			require.True(t, errors.Is(err, swaperr.ErrConfig))
		})
	}
}
