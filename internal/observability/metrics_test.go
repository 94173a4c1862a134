package observability

import (
	"context"
	"testing"
	"time"

	"github.com/annel0/voxel-engine/internal/config"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorldMetricsCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewWorldMetrics(reg)

	m.SetLoaded(25)
	m.ChunkGenerated(3 * time.Millisecond)
	m.ChunkGenerated(5 * time.Millisecond)
	m.ChunkUnloaded()
	m.BlockEdit("remove")
	m.BlockEdit("remove")
	m.BlockEdit("add")
	m.CollisionContacts(3)
	m.CollisionContacts(0)

	assert.Equal(t, 25.0, testutil.ToFloat64(m.loadedChunks))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.generated))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.unloaded))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.blockEdits.WithLabelValues("remove")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.blockEdits.WithLabelValues("add")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.collisions))

	count, err := testutil.GatherAndCount(reg, "voxel_world_chunk_generation_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestNilWorldMetricsIsSafe(t *testing.T) {
	var m *WorldMetrics
	assert.NotPanics(t, func() {
		m.SetLoaded(1)
		m.SetPending(1)
		m.ChunkGenerated(time.Millisecond)
		m.ChunkUnloaded()
		m.BlockEdit("add")
		m.CollisionContacts(1)
		m.InvariantError()
	})
}

func TestInitTelemetryDisabled(t *testing.T) {
	shutdown, err := InitTelemetry(context.Background(), config.TelemetryConfig{Enabled: false})
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}

func TestProcessSnapshot(t *testing.T) {
	pm, err := NewProcessMonitor()
	require.NoError(t, err)

	stats, err := pm.Snapshot()
	require.NoError(t, err)
	assert.Greater(t, stats.RSSBytes, uint64(0))
	assert.Contains(t, stats.String(), "RSS")
}
