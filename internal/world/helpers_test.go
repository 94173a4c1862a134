package world

import (
	"testing"

	"github.com/annel0/voxel-engine/internal/config"
	"github.com/annel0/voxel-engine/internal/vec"
	"github.com/annel0/voxel-engine/internal/world/block"
	"github.com/stretchr/testify/require"
)

// testConfig - маленький мир с рельефом строго выше нижнего слоя
func testConfig() *config.Config {
	cfg := config.Default()
	cfg.World = config.WorldConfig{ChunkWidth: 8, ChunkHeight: 16, DrawDistance: 1}
	cfg.Generation.Seed = 42
	cfg.Generation.Terrain.Offset = 0.5
	cfg.Generation.Terrain.Magnitude = 0.2
	return &cfg
}

// solidChunk создаёт чанк, целиком заполненный камнем, с построенными таблицами
func solidChunk(size int) *Chunk {
	c := NewChunk(vec.Vec2{}, size, size)
	for x := 0; x < size; x++ {
		for y := 0; y < size; y++ {
			for z := 0; z < size; z++ {
				c.SetBlockID(x, y, z, block.StoneBlockID)
			}
		}
	}
	c.BuildInstances(nil)
	return c
}

// requireExposureInvariant проверяет для всех загруженных чанков, что слот есть
// ровно у солидных открытых клеток и таблицы согласованы
func requireExposureInvariant(t *testing.T, m *Manager) {
	t.Helper()
	for _, coords := range m.LoadedCoords() {
		c, ok := m.Chunk(coords)
		require.True(t, ok)
		require.NoError(t, c.CheckInstances(), "чанк %v", coords)

		lookup := m.neighborLookup(coords)
		for x := 0; x < c.Width; x++ {
			for y := 0; y < c.Height; y++ {
				for z := 0; z < c.Width; z++ {
					cell, _ := c.Get(x, y, z)
					exposed := block.IsSolid(cell.ID) && !c.IsObscuredWith(lookup, x, y, z)
					require.Equal(t, exposed, cell.Live(),
						"чанк %v клетка (%d,%d,%d) %s: открыта=%v, слот=%d", coords, x, y, z, cell.ID, exposed, cell.Slot)
				}
			}
		}
	}
}

// recordingSink запоминает уведомления для отрисовки
type recordingSink struct {
	changed  map[vec.Vec2]int
	released []vec.Vec2
}

func newRecordingSink() *recordingSink {
	return &recordingSink{changed: make(map[vec.Vec2]int)}
}

func (s *recordingSink) InstancesChanged(coords vec.Vec2, _ *InstanceTable) {
	s.changed[coords]++
}

func (s *recordingSink) ChunkReleased(coords vec.Vec2) {
	s.released = append(s.released, coords)
}
