package world

import (
	"context"
	"testing"

	"github.com/annel0/voxel-engine/internal/config"
	"github.com/annel0/voxel-engine/internal/vec"
	"github.com/annel0/voxel-engine/internal/world/block"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T, cfg *config.Config, opts ...Option) *Manager {
	t.Helper()
	m, err := NewManager(cfg, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })
	return m
}

func windowAround(center vec.Vec2, r int) []vec.Vec2 {
	var out []vec.Vec2
	for x := center.X - r; x <= center.X+r; x++ {
		for z := center.Z - r; z <= center.Z+r; z++ {
			out = append(out, vec.Vec2{X: x, Z: z})
		}
	}
	return out
}

func TestStreamingConvergence(t *testing.T) {
	cfg := testConfig()
	sink := newRecordingSink()
	m := newTestManager(t, cfg, WithRenderSink(sink))
	ctx := context.Background()

	require.NoError(t, m.Update(ctx, vec.Vec3Float{X: 4, Y: 12, Z: 4}))
	assert.ElementsMatch(t, windowAround(vec.Vec2{}, 1), m.LoadedCoords())
	assert.Equal(t, ManagerStats{Loaded: 9}, m.Stats())
	requireExposureInvariant(t, m)

	// Сдвиг ровно на ширину чанка по X
	require.NoError(t, m.Update(ctx, vec.Vec3Float{X: 12, Y: 12, Z: 4}))
	assert.ElementsMatch(t, windowAround(vec.Vec2{X: 1}, 1), m.LoadedCoords())
	assert.ElementsMatch(t, []vec.Vec2{{X: -1, Z: -1}, {X: -1, Z: 0}, {X: -1, Z: 1}}, sink.released,
		"выгружается только задний столбец")
	requireExposureInvariant(t, m)

	assert.Equal(t, ChunkUnloaded, m.State(vec.Vec2{X: -1}))
	assert.Equal(t, ChunkLoaded, m.State(vec.Vec2{X: 2}))
}

func TestStreamingIsIdempotent(t *testing.T) {
	m := newTestManager(t, testConfig())
	ctx := context.Background()
	pos := vec.Vec3Float{X: -3, Y: 12, Z: 20}

	require.NoError(t, m.Update(ctx, pos))
	c, ok := m.Chunk(vec.Vec2{X: -1, Z: 2})
	require.True(t, ok)

	require.NoError(t, m.Update(ctx, pos))
	same, ok := m.Chunk(vec.Vec2{X: -1, Z: 2})
	require.True(t, ok)
	assert.Same(t, c, same, "повторный тик не перегенерирует чанки")
}

func TestAsyncGenerationClosestFirst(t *testing.T) {
	cfg := testConfig()
	cfg.Streaming.Async = true
	m := newTestManager(t, cfg)
	ctx := context.Background()

	require.NoError(t, m.Update(ctx, vec.Vec3Float{X: 4, Y: 12, Z: 4}))
	assert.Equal(t, 0, m.Stats().Loaded, "асинхронный режим не генерирует в Update")
	assert.Equal(t, 9, m.Stats().Pending)

	_, known := m.BlockAt(4, 2, 4)
	assert.False(t, known, "незагруженный чанк неизвестен")

	n, err := m.ProcessPending(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []vec.Vec2{{X: 0, Z: 0}}, m.LoadedCoords(), "первым грузится чанк игрока")

	_, known = m.BlockAt(4, 2, 4)
	assert.True(t, known)

	_, err = m.ProcessPending(ctx, 100)
	require.NoError(t, err)
	assert.Len(t, m.LoadedCoords(), 9)
	requireExposureInvariant(t, m)
}

func TestAsyncSkipsCoordinatesThatLeftWindow(t *testing.T) {
	cfg := testConfig()
	cfg.Streaming.Async = true
	m := newTestManager(t, cfg)
	ctx := context.Background()

	require.NoError(t, m.Update(ctx, vec.Vec3Float{X: 4, Y: 12, Z: 4}))
	// Игрок ушёл далеко до того, как очередь обработана
	require.NoError(t, m.Update(ctx, vec.Vec3Float{X: 404, Y: 12, Z: 4}))

	_, err := m.ProcessPending(ctx, 100)
	require.NoError(t, err)
	assert.ElementsMatch(t, windowAround(vec.Vec2{X: 50}, 1), m.LoadedCoords())
	assert.Equal(t, 0, m.Stats().Pending)
}

func TestParallelGenerationMatchesSequential(t *testing.T) {
	seqCfg := testConfig()
	parCfg := testConfig()
	parCfg.Streaming.Workers = 4
	parCfg.World.DrawDistance = 2

	seqCfg.World.DrawDistance = 2
	seq := newTestManager(t, seqCfg)
	par := newTestManager(t, parCfg)
	ctx := context.Background()
	pos := vec.Vec3Float{X: 4, Y: 12, Z: 4}

	require.NoError(t, seq.Update(ctx, pos))
	require.NoError(t, par.Update(ctx, pos))

	require.Equal(t, seq.LoadedCoords(), par.LoadedCoords())
	for _, coords := range seq.LoadedCoords() {
		a, _ := seq.Chunk(coords)
		b, _ := par.Chunk(coords)
		assert.Equal(t, a.Digest(), b.Digest(), "чанк %v", coords)
	}
	requireExposureInvariant(t, par)
	requireExposureInvariant(t, seq)
}

func TestBlockAtOutsideWorldHeight(t *testing.T) {
	m := newTestManager(t, testConfig())

	id, known := m.BlockAt(0, -1, 0)
	assert.True(t, known)
	assert.Equal(t, block.EmptyBlockID, id)

	id, known = m.BlockAt(0, 16, 0)
	assert.True(t, known)
	assert.Equal(t, block.EmptyBlockID, id)

	_, known = m.BlockAt(0, 5, 0)
	assert.False(t, known, "до первого тика мир неизвестен")
}

func TestCloseReleasesEverything(t *testing.T) {
	sink := newRecordingSink()
	m := newTestManager(t, testConfig(), WithRenderSink(sink))
	require.NoError(t, m.Update(context.Background(), vec.Vec3Float{X: 4, Y: 12, Z: 4}))

	require.NoError(t, m.Close())
	assert.Empty(t, m.LoadedCoords())
	assert.Len(t, sink.released, 9)
}

func TestCancelledContextStopsGeneration(t *testing.T) {
	cfg := testConfig()
	cfg.Streaming.Async = true
	m := newTestManager(t, cfg)

	require.NoError(t, m.Update(context.Background(), vec.Vec3Float{X: 4, Y: 12, Z: 4}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := m.ProcessPending(ctx, 5)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, m.Stats().Generating, "отменённая генерация не оставляет висящих состояний")

	require.NoError(t, m.Update(context.Background(), vec.Vec3Float{X: 4, Y: 12, Z: 4}))
	_, err = m.ProcessPending(context.Background(), 100)
	require.NoError(t, err)
	assert.Len(t, m.LoadedCoords(), 9)
}
