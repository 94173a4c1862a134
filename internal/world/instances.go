package world

import (
	"fmt"
	"sort"

	"github.com/annel0/voxel-engine/internal/vec"
	"github.com/annel0/voxel-engine/internal/world/block"
)

// InstanceRecord - запись слота отрисовки: локальная позиция клетки.
// По ней восстанавливается владелец слота после перестановки.
type InstanceRecord struct {
	Position vec.Vec3
}

// InstanceTable - плотная таблица видимых блоков одного типа в чанке.
// Живые записи занимают индексы [0, Count()).
type InstanceTable struct {
	BlockID  block.BlockID
	capacity int
	records  []InstanceRecord
	version  uint64
}

func newInstanceTable(id block.BlockID, capacity int) *InstanceTable {
	return &InstanceTable{BlockID: id, capacity: capacity}
}

// Count возвращает число живых слотов
func (t *InstanceTable) Count() int { return len(t.records) }

// Capacity возвращает максимальное число слотов (объём чанка)
func (t *InstanceTable) Capacity() int { return t.capacity }

// Version увеличивается при каждом изменении таблицы
func (t *InstanceTable) Version() uint64 { return t.version }

// Record возвращает запись слота i
func (t *InstanceTable) Record(i int) (InstanceRecord, bool) {
	if i < 0 || i >= len(t.records) {
		return InstanceRecord{}, false
	}
	return t.records[i], true
}

// Records возвращает копию живых записей
func (t *InstanceTable) Records() []InstanceRecord {
	out := make([]InstanceRecord, len(t.records))
	copy(out, t.records)
	return out
}

// Transform возвращает мировую позицию центра блока в слоте i
func (t *InstanceTable) Transform(c *Chunk, i int) (vec.Vec3Float, bool) {
	rec, ok := t.Record(i)
	if !ok {
		return vec.Vec3Float{}, false
	}
	ox, oz := c.Origin()
	return vec.Vec3Float{
		X: float64(ox+rec.Position.X) + 0.5,
		Y: float64(rec.Position.Y) + 0.5,
		Z: float64(oz+rec.Position.Z) + 0.5,
	}, true
}

// BuildInstances строит таблицы для всех солидных типов и раздаёт слоты
// открытым блокам по порядку обхода, начиная с 0 для каждого типа.
func (c *Chunk) BuildInstances(lookup NeighborLookup) {
	c.instances = make(map[block.BlockID]*InstanceTable)
	for _, id := range block.SolidIDs() {
		c.instances[id] = newInstanceTable(id, c.Volume())
	}

	for x := 0; x < c.Width; x++ {
		for y := 0; y < c.Height; y++ {
			for z := 0; z < c.Width; z++ {
				idx := c.index(x, y, z)
				c.cells[idx].Slot = NoInstance

				id := c.cells[idx].ID
				if !block.IsSolid(id) || c.IsObscuredWith(lookup, x, y, z) {
					continue
				}
				t := c.instances[id]
				c.cells[idx].Slot = int32(len(t.records))
				t.records = append(t.records, InstanceRecord{Position: vec.Vec3{X: x, Y: y, Z: z}})
			}
		}
	}

	for id, t := range c.instances {
		t.version++
		c.dirty[id] = struct{}{}
	}
}

// InstanceTable возвращает таблицу типа id
func (c *Chunk) InstanceTable(id block.BlockID) (*InstanceTable, bool) {
	t, ok := c.instances[id]
	return t, ok
}

func (c *Chunk) table(id block.BlockID) (*InstanceTable, error) {
	t, ok := c.instances[id]
	if !ok {
		return nil, fmt.Errorf("%w: чанк %v: нет таблицы для блока %s", ErrInstanceInvariant, c.Coords, id)
	}
	return t, nil
}

// RemoveInstance снимает живую клетку с отрисовки. Последняя запись таблицы
// переносится в освободившийся слот, её владелец получает новый индекс.
func (c *Chunk) RemoveInstance(x, y, z int) error {
	cell, ok := c.Get(x, y, z)
	if !ok || !block.IsSolid(cell.ID) || !cell.Live() {
		return fmt.Errorf("%w: чанк %v: у клетки (%d,%d,%d) нет слота", ErrInstanceInvariant, c.Coords, x, y, z)
	}
	t, err := c.table(cell.ID)
	if err != nil {
		return err
	}

	i := int(cell.Slot)
	last := len(t.records) - 1
	if i > last {
		return fmt.Errorf("%w: чанк %v: слот %d вне [0,%d) для %s", ErrInstanceInvariant, c.Coords, i, len(t.records), cell.ID)
	}
	if rec := t.records[i].Position; rec != (vec.Vec3{X: x, Y: y, Z: z}) {
		return fmt.Errorf("%w: чанк %v: слот %d принадлежит %v, а не (%d,%d,%d)", ErrInstanceInvariant, c.Coords, i, rec, x, y, z)
	}

	if i != last {
		moved := t.records[last]
		p := moved.Position
		owner, ok := c.Get(p.X, p.Y, p.Z)
		if !ok || owner.ID != cell.ID || int(owner.Slot) != last {
			return fmt.Errorf("%w: чанк %v: последний слот %d не совпадает с клеткой %v", ErrInstanceInvariant, c.Coords, last, p)
		}
		t.records[i] = moved
		c.cells[c.index(p.X, p.Y, p.Z)].Slot = int32(i)
	}

	t.records = t.records[:last]
	c.cells[c.index(x, y, z)].Slot = NoInstance
	c.markDirty(t)
	return nil
}

// AddInstance выдаёт слот солидной клетке без слота.
// Для пустой или уже живой клетки ничего не делает и возвращает false.
func (c *Chunk) AddInstance(x, y, z int) (bool, error) {
	cell, ok := c.Get(x, y, z)
	if !ok || !block.IsSolid(cell.ID) || cell.Live() {
		return false, nil
	}
	t, err := c.table(cell.ID)
	if err != nil {
		return false, err
	}
	if len(t.records) >= t.capacity {
		return false, fmt.Errorf("%w: чанк %v: таблица %s переполнена", ErrInstanceInvariant, c.Coords, cell.ID)
	}

	c.cells[c.index(x, y, z)].Slot = int32(len(t.records))
	t.records = append(t.records, InstanceRecord{Position: vec.Vec3{X: x, Y: y, Z: z}})
	c.markDirty(t)
	return true, nil
}

// RefreshInstance приводит слот клетки к её видимости: открытый солидный блок
// получает слот, закрытый или пустой - теряет.
func (c *Chunk) RefreshInstance(lookup NeighborLookup, x, y, z int) error {
	cell, ok := c.Get(x, y, z)
	if !ok {
		return nil
	}
	exposed := block.IsSolid(cell.ID) && !c.IsObscuredWith(lookup, x, y, z)
	switch {
	case exposed && !cell.Live():
		_, err := c.AddInstance(x, y, z)
		return err
	case !exposed && cell.Live():
		return c.RemoveInstance(x, y, z)
	}
	return nil
}

func (c *Chunk) markDirty(t *InstanceTable) {
	t.version++
	c.dirty[t.BlockID] = struct{}{}
}

// TakeDirtyTables возвращает изменённые таблицы (по возрастанию ID) и сбрасывает отметки
func (c *Chunk) TakeDirtyTables() []*InstanceTable {
	if len(c.dirty) == 0 {
		return nil
	}
	out := make([]*InstanceTable, 0, len(c.dirty))
	for id := range c.dirty {
		if t, ok := c.instances[id]; ok {
			out = append(out, t)
		}
	}
	c.dirty = make(map[block.BlockID]struct{})
	sort.Slice(out, func(i, j int) bool { return out[i].BlockID < out[j].BlockID })
	return out
}

// CheckInstances проверяет инвариант таблиц: каждый живой слот принадлежит
// ровно одной клетке своего типа, и число живых слотов равно числу таких клеток.
func (c *Chunk) CheckInstances() error {
	live := make(map[block.BlockID]int)
	for x := 0; x < c.Width; x++ {
		for y := 0; y < c.Height; y++ {
			for z := 0; z < c.Width; z++ {
				cell := c.cells[c.index(x, y, z)]
				if !cell.Live() {
					continue
				}
				t, err := c.table(cell.ID)
				if err != nil {
					return err
				}
				rec, ok := t.Record(int(cell.Slot))
				if !ok {
					return fmt.Errorf("%w: чанк %v: слот %d клетки (%d,%d,%d) вне таблицы", ErrInstanceInvariant, c.Coords, cell.Slot, x, y, z)
				}
				if rec.Position != (vec.Vec3{X: x, Y: y, Z: z}) {
					return fmt.Errorf("%w: чанк %v: слот %d указывает на %v, а не на (%d,%d,%d)", ErrInstanceInvariant, c.Coords, cell.Slot, rec.Position, x, y, z)
				}
				live[cell.ID]++
			}
		}
	}
	for id, t := range c.instances {
		if t.Count() != live[id] {
			return fmt.Errorf("%w: чанк %v: таблица %s содержит %d слотов, клеток %d", ErrInstanceInvariant, c.Coords, id, t.Count(), live[id])
		}
	}
	return nil
}
