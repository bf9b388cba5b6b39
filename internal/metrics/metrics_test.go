package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

func TestMustRegisterRegistersEveryCollectorOnce(t *testing.T) {
	m := New()
	reg := prometheus.NewRegistry()
	require.NotPanics(t, func() { m.MustRegister(reg) })

	mfs, err := reg.Gather()
	require.NoError(t, err)
	require.NotEmpty(t, mfs)
}
