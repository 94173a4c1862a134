package world

import (
	"sync"

	"github.com/annel0/voxel-engine/internal/vec"
	"github.com/annel0/voxel-engine/internal/world/block"
)

// EditKey адресует правку игрока: угол чанка в мире и локальные координаты клетки
type EditKey struct {
	OriginX, OriginZ int
	Local            vec.Vec3
}

// EditStore хранит отклонения мира от процедурной генерации,
// вызванные игроком. Записи переживают выгрузку чанка.
type EditStore interface {
	Contains(key EditKey) bool
	Get(key EditKey) (block.BlockID, bool)
	Set(key EditKey, id block.BlockID)
	// ForChunk возвращает правки чанка с указанным углом
	ForChunk(originX, originZ int) map[vec.Vec3]block.BlockID
}

// MemoryEditStore - EditStore в памяти, сгруппированный по чанкам
type MemoryEditStore struct {
	mu     sync.RWMutex
	chunks map[vec.Vec2]map[vec.Vec3]block.BlockID
	count  int
}

// NewMemoryEditStore создаёт пустое хранилище правок
func NewMemoryEditStore() *MemoryEditStore {
	return &MemoryEditStore{chunks: make(map[vec.Vec2]map[vec.Vec3]block.BlockID)}
}

func (s *MemoryEditStore) Contains(key EditKey) bool {
	_, ok := s.Get(key)
	return ok
}

func (s *MemoryEditStore) Get(key EditKey) (block.BlockID, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	edits, ok := s.chunks[vec.Vec2{X: key.OriginX, Z: key.OriginZ}]
	if !ok {
		return block.EmptyBlockID, false
	}
	id, ok := edits[key.Local]
	return id, ok
}

func (s *MemoryEditStore) Set(key EditKey, id block.BlockID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	origin := vec.Vec2{X: key.OriginX, Z: key.OriginZ}
	edits, ok := s.chunks[origin]
	if !ok {
		edits = make(map[vec.Vec3]block.BlockID)
		s.chunks[origin] = edits
	}
	if _, exists := edits[key.Local]; !exists {
		s.count++
	}
	edits[key.Local] = id
}

func (s *MemoryEditStore) ForChunk(originX, originZ int) map[vec.Vec3]block.BlockID {
	s.mu.RLock()
	defer s.mu.RUnlock()

	edits := s.chunks[vec.Vec2{X: originX, Z: originZ}]
	out := make(map[vec.Vec3]block.BlockID, len(edits))
	for k, v := range edits {
		out[k] = v
	}
	return out
}

// Len возвращает число сохранённых правок
func (s *MemoryEditStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.count
}
