package world

import (
	"encoding/binary"

	"github.com/annel0/voxel-engine/internal/vec"
	"github.com/annel0/voxel-engine/internal/world/block"
	"github.com/cespare/xxhash/v2"
)

// NoInstance означает, что у клетки нет слота в таблице экземпляров
const NoInstance = -1

// Cell - одна клетка сетки чанка
type Cell struct {
	ID   block.BlockID
	Slot int32 // индекс в таблице экземпляров своего типа или NoInstance
}

// Live возвращает true, если клетка занимает слот отрисовки
func (c Cell) Live() bool {
	return c.Slot != NoInstance
}

// NeighborLookup разрешает тип блока по локальным координатам чанка,
// выходящим за его горизонтальные границы. known=false - соседний чанк неизвестен.
type NeighborLookup func(x, y, z int) (id block.BlockID, known bool)

// Chunk представляет колонну мира Width x Height x Width блоков.
// Высота всегда начинается с мировой y=0.
type Chunk struct {
	Coords vec.Vec2 // Координаты чанка в мире
	Width  int
	Height int

	cells []Cell

	instances map[block.BlockID]*InstanceTable
	dirty     map[block.BlockID]struct{} // таблицы, изменённые с последнего TakeDirtyTables

	loaded bool
}

// NewChunk создаёт пустой чанк с указанными координатами
func NewChunk(coords vec.Vec2, width, height int) *Chunk {
	cells := make([]Cell, width*height*width)
	for i := range cells {
		cells[i] = Cell{ID: block.EmptyBlockID, Slot: NoInstance}
	}
	return &Chunk{
		Coords: coords,
		Width:  width,
		Height: height,
		cells:  cells,
		dirty:  make(map[block.BlockID]struct{}),
	}
}

// Origin возвращает мировые координаты (x, z) угла чанка
func (c *Chunk) Origin() (int, int) {
	return c.Coords.Origin(c.Width)
}

// Loaded возвращает true после завершения генерации
func (c *Chunk) Loaded() bool {
	return c.loaded
}

// Volume возвращает число клеток чанка
func (c *Chunk) Volume() int {
	return len(c.cells)
}

// InBounds проверяет локальные координаты. У выгруженного чанка клеток нет.
func (c *Chunk) InBounds(x, y, z int) bool {
	return c.cells != nil &&
		x >= 0 && x < c.Width &&
		y >= 0 && y < c.Height &&
		z >= 0 && z < c.Width
}

func (c *Chunk) index(x, y, z int) int {
	return (x*c.Height+y)*c.Width + z
}

// Get возвращает клетку; ok=false вне границ чанка
func (c *Chunk) Get(x, y, z int) (Cell, bool) {
	if !c.InBounds(x, y, z) {
		return Cell{ID: block.EmptyBlockID, Slot: NoInstance}, false
	}
	return c.cells[c.index(x, y, z)], true
}

// BlockID возвращает тип блока; вне границ - пустота
func (c *Chunk) BlockID(x, y, z int) block.BlockID {
	cell, _ := c.Get(x, y, z)
	return cell.ID
}

// SetBlockID устанавливает тип блока. Вне границ ничего не делает.
func (c *Chunk) SetBlockID(x, y, z int, id block.BlockID) {
	if c.InBounds(x, y, z) {
		c.cells[c.index(x, y, z)].ID = id
	}
}

// SetInstanceSlot устанавливает слот клетки (NoInstance - снять)
func (c *Chunk) SetInstanceSlot(x, y, z int, slot int) {
	if c.InBounds(x, y, z) {
		c.cells[c.index(x, y, z)].Slot = int32(slot)
	}
}

// IsObscured возвращает true, если все шесть соседей не пусты.
// Соседи за границами чанка считаются пустыми.
func (c *Chunk) IsObscured(x, y, z int) bool {
	return c.IsObscuredWith(nil, x, y, z)
}

// IsObscuredWith то же, что IsObscured, но соседей за горизонтальной границей
// разрешает через lookup. Неизвестный сосед считается солидным, выход за
// пределы по высоте - пустотой.
func (c *Chunk) IsObscuredWith(lookup NeighborLookup, x, y, z int) bool {
	for _, d := range vec.Neighbors6 {
		nx, ny, nz := x+d.X, y+d.Y, z+d.Z
		if c.InBounds(nx, ny, nz) {
			if c.cells[c.index(nx, ny, nz)].ID == block.EmptyBlockID {
				return false
			}
			continue
		}
		if ny < 0 || ny >= c.Height || lookup == nil {
			return false
		}
		id, known := lookup(nx, ny, nz)
		if known && id == block.EmptyBlockID {
			return false
		}
	}
	return true
}

// Digest возвращает отпечаток сетки типов блоков
func (c *Chunk) Digest() uint64 {
	h := xxhash.New()
	var hdr [16]byte
	binary.LittleEndian.PutUint64(hdr[0:], uint64(int64(c.Coords.X)))
	binary.LittleEndian.PutUint64(hdr[8:], uint64(int64(c.Coords.Z)))
	_, _ = h.Write(hdr[:])

	ids := make([]byte, len(c.cells))
	for i, cell := range c.cells {
		ids[i] = byte(cell.ID)
	}
	_, _ = h.Write(ids)
	return h.Sum64()
}

// BlockIDs возвращает копию сетки типов в порядке индексации чанка
func (c *Chunk) BlockIDs() []block.BlockID {
	ids := make([]block.BlockID, len(c.cells))
	for i, cell := range c.cells {
		ids[i] = cell.ID
	}
	return ids
}

// release освобождает сетку и таблицы экземпляров при выгрузке
func (c *Chunk) release() {
	c.loaded = false
	c.instances = nil
	c.dirty = make(map[block.BlockID]struct{})
	c.cells = nil
}
