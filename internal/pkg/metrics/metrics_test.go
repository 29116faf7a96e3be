package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectorsRegisteredOnEngineRegistry(t *testing.T) {
	before := testutil.ToFloat64(RecomputeTotal.WithLabelValues("test"))
	RecomputeTotal.WithLabelValues("test").Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(RecomputeTotal.WithLabelValues("test")))

	families, err := Registry.Gather()
	require.NoError(t, err)

	names := make(map[string]bool, len(families))
	for _, mf := range families {
		names[mf.GetName()] = true
	}
	assert.True(t, names["building_rollup_recompute_total"])
}
