package world

import (
	"math/rand"
	"testing"

	"github.com/annel0/voxel-engine/internal/vec"
	"github.com/annel0/voxel-engine/internal/world/block"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildInstancesSkipsObscured(t *testing.T) {
	c := solidChunk(4)

	table, ok := c.InstanceTable(block.StoneBlockID)
	require.True(t, ok)
	assert.Equal(t, 64-8, table.Count(), "внутренний куб 2x2x2 закрыт")
	assert.Equal(t, 64, table.Capacity())
	require.NoError(t, c.CheckInstances())

	cell, _ := c.Get(1, 1, 1)
	assert.False(t, cell.Live())

	// Слоты раздаются по порядку обхода с нуля
	first, _ := c.Get(0, 0, 0)
	assert.Equal(t, int32(0), first.Slot)
	second, _ := c.Get(0, 0, 1)
	assert.Equal(t, int32(1), second.Slot)
}

func TestRemoveInstanceSwapsLastIntoHole(t *testing.T) {
	c := solidChunk(4)
	table, _ := c.InstanceTable(block.StoneBlockID)
	count := table.Count()

	last, ok := table.Record(count - 1)
	require.True(t, ok)

	require.NoError(t, c.RemoveInstance(0, 0, 0))

	assert.Equal(t, count-1, table.Count())
	removed, _ := c.Get(0, 0, 0)
	assert.False(t, removed.Live())

	moved, _ := c.Get(last.Position.X, last.Position.Y, last.Position.Z)
	assert.Equal(t, int32(0), moved.Slot, "владелец последнего слота переезжает в освободившийся")
	rec, _ := table.Record(0)
	assert.Equal(t, last.Position, rec.Position)
	require.NoError(t, c.CheckInstances())
}

func TestRemoveInstanceOfLastSlot(t *testing.T) {
	c := solidChunk(4)
	table, _ := c.InstanceTable(block.StoneBlockID)
	count := table.Count()
	before := table.Records()

	last := before[count-1].Position
	require.NoError(t, c.RemoveInstance(last.X, last.Y, last.Z))

	assert.Equal(t, count-1, table.Count())
	assert.Equal(t, before[:count-1], table.Records(), "остальные слоты не меняются")
	require.NoError(t, c.CheckInstances())
}

func TestAddInstance(t *testing.T) {
	c := solidChunk(4)
	table, _ := c.InstanceTable(block.StoneBlockID)
	count := table.Count()

	added, err := c.AddInstance(1, 1, 1)
	require.NoError(t, err)
	assert.True(t, added)
	cell, _ := c.Get(1, 1, 1)
	assert.Equal(t, int32(count), cell.Slot, "новый слот добавляется в конец")

	added, err = c.AddInstance(1, 1, 1)
	require.NoError(t, err)
	assert.False(t, added, "живая клетка не получает второй слот")

	c.SetBlockID(1, 2, 1, block.EmptyBlockID)
	c.SetInstanceSlot(1, 2, 1, NoInstance)
	added, err = c.AddInstance(1, 2, 1)
	require.NoError(t, err)
	assert.False(t, added, "пустая клетка не отрисовывается")
}

func TestRemoveInstanceWithoutSlotIsInvariantError(t *testing.T) {
	c := solidChunk(4)
	table, _ := c.InstanceTable(block.StoneBlockID)
	count := table.Count()

	err := c.RemoveInstance(1, 1, 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInstanceInvariant)
	assert.Equal(t, count, table.Count(), "при ошибке таблица не меняется")
}

func TestMissingTableIsInvariantError(t *testing.T) {
	c := NewChunk(vec.Vec2{}, 2, 2)
	c.SetBlockID(0, 0, 0, block.StoneBlockID)

	_, err := c.AddInstance(0, 0, 0)
	assert.ErrorIs(t, err, ErrInstanceInvariant)
}

func TestCorruptedSlotIsDetected(t *testing.T) {
	c := solidChunk(4)
	c.SetInstanceSlot(0, 0, 0, 5)

	assert.ErrorIs(t, c.CheckInstances(), ErrInstanceInvariant)
	assert.ErrorIs(t, c.RemoveInstance(0, 0, 0), ErrInstanceInvariant)
}

func TestRefreshInstanceFollowsExposure(t *testing.T) {
	c := solidChunk(4)

	c.SetBlockID(1, 2, 1, block.EmptyBlockID)
	require.NoError(t, c.RefreshInstance(nil, 1, 1, 1))
	cell, _ := c.Get(1, 1, 1)
	assert.True(t, cell.Live(), "открытый сосед должен получить слот")

	c.SetBlockID(1, 2, 1, block.StoneBlockID)
	require.NoError(t, c.RefreshInstance(nil, 1, 1, 1))
	cell, _ = c.Get(1, 1, 1)
	assert.False(t, cell.Live(), "снова закрытый блок теряет слот")
	require.NoError(t, c.RefreshInstance(nil, 1, 2, 1))
	require.NoError(t, c.CheckInstances())
}

func TestTakeDirtyTables(t *testing.T) {
	c := solidChunk(3)

	dirty := c.TakeDirtyTables()
	require.Len(t, dirty, len(block.SolidIDs()), "после построения изменены все таблицы")
	for i := 1; i < len(dirty); i++ {
		assert.Less(t, dirty[i-1].BlockID, dirty[i].BlockID)
	}
	assert.Nil(t, c.TakeDirtyTables())

	stone, _ := c.InstanceTable(block.StoneBlockID)
	version := stone.Version()
	require.NoError(t, c.RemoveInstance(0, 0, 0))
	dirty = c.TakeDirtyTables()
	require.Len(t, dirty, 1)
	assert.Equal(t, block.StoneBlockID, dirty[0].BlockID)
	assert.Greater(t, stone.Version(), version)
}

func TestTransformIsBlockCenter(t *testing.T) {
	c := NewChunk(vec.Vec2{X: -1, Z: 2}, 4, 4)
	c.SetBlockID(3, 0, 1, block.SandBlockID)
	c.BuildInstances(nil)

	table, _ := c.InstanceTable(block.SandBlockID)
	pos, ok := table.Transform(c, 0)
	require.True(t, ok)
	assert.Equal(t, vec.Vec3Float{X: -4 + 3 + 0.5, Y: 0.5, Z: 8 + 1 + 0.5}, pos)
}

// Случайная последовательность правок не должна нарушать инвариант таблиц
func TestRandomEditsKeepInvariant(t *testing.T) {
	c := solidChunk(5)
	rng := rand.New(rand.NewSource(7))
	ids := []block.BlockID{block.StoneBlockID, block.DirtBlockID, block.SandBlockID}

	for i := 0; i < 500; i++ {
		x, y, z := rng.Intn(5), rng.Intn(5), rng.Intn(5)
		cell, _ := c.Get(x, y, z)

		if cell.ID != block.EmptyBlockID {
			if cell.Live() {
				require.NoError(t, c.RemoveInstance(x, y, z))
			}
			c.SetBlockID(x, y, z, block.EmptyBlockID)
		} else {
			c.SetBlockID(x, y, z, ids[rng.Intn(len(ids))])
			require.NoError(t, c.RefreshInstance(nil, x, y, z))
		}
		for _, d := range vec.Neighbors6 {
			require.NoError(t, c.RefreshInstance(nil, x+d.X, y+d.Y, z+d.Z))
		}
		require.NoError(t, c.CheckInstances(), "шаг %d", i)
	}

	for x := 0; x < 5; x++ {
		for y := 0; y < 5; y++ {
			for z := 0; z < 5; z++ {
				cell, _ := c.Get(x, y, z)
				exposed := block.IsSolid(cell.ID) && !c.IsObscured(x, y, z)
				assert.Equal(t, exposed, cell.Live())
			}
		}
	}
}
