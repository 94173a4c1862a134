package world

import (
	"github.com/annel0/voxel-engine/internal/vec"
	"github.com/annel0/voxel-engine/internal/world/block"
)

// RemoveBlock убирает блок игроком. Ничего не делает (false, nil) для нижнего
// слоя, клеток вне мира по высоте, пустых клеток и незагруженных чанков.
// Ошибка означает нарушение согласованности таблиц; мир при этом не изменён.
func (m *Manager) RemoveBlock(wx, wy, wz int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if wy <= 0 || wy >= m.world.ChunkHeight {
		return false, nil
	}
	c, x, z, ok := m.locate(wx, wz)
	if !ok {
		return false, nil
	}
	cell, _ := c.Get(x, wy, z)
	if cell.ID == block.EmptyBlockID {
		return false, nil
	}

	if cell.Live() {
		if err := c.RemoveInstance(x, wy, z); err != nil {
			return false, m.reportInvariant(err)
		}
	}
	c.SetBlockID(x, wy, z, block.EmptyBlockID)
	m.recordEdit(c, x, wy, z, block.EmptyBlockID)

	touched, err := m.refreshAround(wx, wy, wz)
	m.flush(touched...)
	if err != nil {
		return true, m.reportInvariant(err)
	}

	m.metrics.BlockEdit("remove")
	m.logger.Debug("Блок %s удалён в (%d,%d,%d)", cell.ID, wx, wy, wz)
	return true, nil
}

// AddBlock ставит солидный блок id в пустую клетку. Ничего не делает (false, nil)
// для несолидного id, занятой клетки, высоты вне мира и незагруженного чанка.
func (m *Manager) AddBlock(wx, wy, wz int, id block.BlockID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !block.IsSolid(id) || wy < 0 || wy >= m.world.ChunkHeight {
		return false, nil
	}
	c, x, z, ok := m.locate(wx, wz)
	if !ok {
		return false, nil
	}
	if c.BlockID(x, wy, z) != block.EmptyBlockID {
		return false, nil
	}
	if _, err := c.table(id); err != nil {
		return false, m.reportInvariant(err)
	}

	c.SetBlockID(x, wy, z, id)
	m.recordEdit(c, x, wy, z, id)

	touched := []*Chunk{c}
	err := c.RefreshInstance(m.neighborLookup(c.Coords), x, wy, z)
	if err == nil {
		var around []*Chunk
		around, err = m.refreshAround(wx, wy, wz)
		touched = append(touched, around...)
	}
	m.flush(touched...)
	if err != nil {
		return true, m.reportInvariant(err)
	}

	m.metrics.BlockEdit("add")
	m.logger.Debug("Блок %s поставлен в (%d,%d,%d)", id, wx, wy, wz)
	return true, nil
}

func (m *Manager) recordEdit(c *Chunk, x, y, z int, id block.BlockID) {
	ox, oz := c.Origin()
	m.edits.Set(EditKey{OriginX: ox, OriginZ: oz, Local: vec.Vec3{X: x, Y: y, Z: z}}, id)
}

// refreshAround пересчитывает видимость шести соседей мировой клетки,
// в том числе в соседних чанках. Возвращает затронутые чанки.
func (m *Manager) refreshAround(wx, wy, wz int) ([]*Chunk, error) {
	var touched []*Chunk
	for _, d := range vec.Neighbors6 {
		nx, ny, nz := wx+d.X, wy+d.Y, wz+d.Z
		if ny < 0 || ny >= m.world.ChunkHeight {
			continue
		}
		c, x, z, ok := m.locate(nx, nz)
		if !ok {
			continue
		}
		if err := c.RefreshInstance(m.neighborLookup(c.Coords), x, ny, z); err != nil {
			return touched, err
		}
		touched = appendChunk(touched, c)
	}
	return touched, nil
}

func appendChunk(list []*Chunk, c *Chunk) []*Chunk {
	for _, existing := range list {
		if existing == c {
			return list
		}
	}
	return append(list, c)
}
