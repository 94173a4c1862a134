package world

import "github.com/annel0/voxel-engine/internal/vec"

// RenderSink получает изменения таблиц экземпляров для отрисовки.
// Вызывается только из потока тика.
type RenderSink interface {
	// InstancesChanged сообщает, что таблица типа изменилась и её нужно перечитать
	InstancesChanged(coords vec.Vec2, table *InstanceTable)
	// ChunkReleased сообщает, что чанк выгружен и его таблицы больше не действительны
	ChunkReleased(coords vec.Vec2)
}

type nopSink struct{}

func (nopSink) InstancesChanged(vec.Vec2, *InstanceTable) {}
func (nopSink) ChunkReleased(vec.Vec2) {}
