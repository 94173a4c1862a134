package world

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/annel0/voxel-engine/internal/config"
	"github.com/annel0/voxel-engine/internal/logging"
	"github.com/annel0/voxel-engine/internal/observability"
	"github.com/annel0/voxel-engine/internal/vec"
	"github.com/annel0/voxel-engine/internal/world/block"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

// ChunkState - состояние координаты чанка в менеджере
type ChunkState int

const (
	ChunkUnloaded ChunkState = iota
	ChunkGenerating
	ChunkLoaded
)

func (s ChunkState) String() string {
	switch s {
	case ChunkGenerating:
		return "generating"
	case ChunkLoaded:
		return "loaded"
	}
	return "unloaded"
}

// ManagerStats - сводка состояния стриминга
type ManagerStats struct {
	Loaded     int
	Pending    int
	Generating int
	Center     vec.Vec2
}

// Manager владеет загруженными чанками вокруг игрока: решает, что загрузить
// и выгрузить, планирует генерацию и применяет правки блоков.
// Все изменения выполняются под mu одним писателем (поток тика).
type Manager struct {
	mu sync.RWMutex

	world     config.WorldConfig
	streaming config.StreamingConfig

	generator *Generator
	edits     EditStore
	sink      RenderSink
	metrics   *observability.WorldMetrics
	logger    *logging.Logger
	tracer    trace.Tracer

	chunks     map[vec.Vec2]*Chunk   // только полностью сгенерированные чанки
	generating map[vec.Vec2]struct{} // координаты, генерация которых идёт сейчас
	queued     map[vec.Vec2]struct{} // координаты в pending
	visible    map[vec.Vec2]struct{} // окно видимости последнего Update
	pending    []vec.Vec2            // очередь генерации, ближние первыми
	center     vec.Vec2
}

// Option настраивает Manager
type Option func(*Manager)

// WithRenderSink задаёт получателя изменений таблиц экземпляров
func WithRenderSink(sink RenderSink) Option {
	return func(m *Manager) { m.sink = sink }
}

// WithMetrics задаёт Prometheus-метрики
func WithMetrics(metrics *observability.WorldMetrics) Option {
	return func(m *Manager) { m.metrics = metrics }
}

// WithEditStore задаёт хранилище правок игрока (по умолчанию - в памяти)
func WithEditStore(edits EditStore) Option {
	return func(m *Manager) { m.edits = edits }
}

// WithLogger задаёт логгер (по умолчанию - компонент "world")
func WithLogger(logger *logging.Logger) Option {
	return func(m *Manager) { m.logger = logger }
}

// NewManager создаёт менеджер мира по конфигурации
func NewManager(cfg *config.Config, opts ...Option) (*Manager, error) {
	m := &Manager{
		world:      cfg.World,
		streaming:  cfg.Streaming,
		sink:       nopSink{},
		chunks:     make(map[vec.Vec2]*Chunk),
		generating: make(map[vec.Vec2]struct{}),
		queued:     make(map[vec.Vec2]struct{}),
		visible:    make(map[vec.Vec2]struct{}),
		tracer:     otel.Tracer("github.com/annel0/voxel-engine/internal/world"),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.edits == nil {
		m.edits = NewMemoryEditStore()
	}
	if m.logger == nil {
		m.logger = logging.GetWorldLogger()
	}
	if m.streaming.BudgetPerTick < 1 {
		m.streaming.BudgetPerTick = 1
	}
	if m.streaming.Workers < 1 {
		m.streaming.Workers = 1
	}

	gen, err := NewGenerator(cfg.World, cfg.Generation, m.edits)
	if err != nil {
		return nil, err
	}
	m.generator = gen
	return m, nil
}

// Generator возвращает генератор мира
func (m *Manager) Generator() *Generator { return m.generator }

// Edits возвращает хранилище правок игрока
func (m *Manager) Edits() EditStore { return m.edits }

// ChunkCoordsAt возвращает координаты чанка, содержащего мировую точку
func (m *Manager) ChunkCoordsAt(position vec.Vec3Float) vec.Vec2 {
	return vec.ChunkOf(int(math.Floor(position.X)), int(math.Floor(position.Z)), m.world.ChunkWidth)
}

// Update пересчитывает окно видимости вокруг позиции игрока: выгружает
// чанки за его пределами и ставит недостающие в очередь. В синхронном режиме
// очередь генерируется здесь же, иначе - через ProcessPending.
func (m *Manager) Update(ctx context.Context, position vec.Vec3Float) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	center := m.ChunkCoordsAt(position)
	ctx, span := m.tracer.Start(ctx, "world.StreamingUpdate", trace.WithAttributes(
		attribute.Int("chunk.x", center.X),
		attribute.Int("chunk.z", center.Z),
	))
	defer span.End()

	m.center = center
	m.visible = m.window(center)

	var errs []error
	unloaded := 0
	for coords := range m.chunks {
		if _, ok := m.visible[coords]; !ok {
			if err := m.teardown(coords); err != nil {
				errs = append(errs, err)
			}
			unloaded++
		}
	}

	queued := 0
	for coords := range m.visible {
		if m.stateLocked(coords) != ChunkUnloaded {
			continue
		}
		if _, ok := m.queued[coords]; ok {
			continue
		}
		m.queued[coords] = struct{}{}
		m.pending = append(m.pending, coords)
		queued++
	}
	m.sortPending()

	if unloaded > 0 || queued > 0 {
		m.logger.Debug("Стриминг: центр %v, выгружено %d, в очередь %d, загружено %d",
			center, unloaded, queued, len(m.chunks))
	}

	if !m.streaming.Async {
		if _, err := m.processPendingLocked(ctx, len(m.pending)); err != nil {
			errs = append(errs, err)
		}
	}

	m.metrics.SetLoaded(len(m.chunks))
	m.metrics.SetPending(len(m.pending))
	span.SetAttributes(attribute.Int("chunks.loaded", len(m.chunks)))
	return errors.Join(errs...)
}

// ProcessPending генерирует до budget чанков из очереди (слот простоя).
// Координаты, покинувшие окно видимости, пропускаются без генерации.
// Возвращает число установленных чанков.
func (m *Manager) ProcessPending(ctx context.Context, budget int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n, err := m.processPendingLocked(ctx, budget)
	m.metrics.SetLoaded(len(m.chunks))
	m.metrics.SetPending(len(m.pending))
	return n, err
}

func (m *Manager) processPendingLocked(ctx context.Context, budget int) (int, error) {
	var errs []error
	installed := 0

	for budget > 0 && len(m.pending) > 0 {
		batchSize := m.streaming.Workers
		if batchSize > budget {
			batchSize = budget
		}
		batch := m.dequeue(batchSize)
		if len(batch) == 0 {
			break
		}
		budget -= len(batch)

		if len(batch) == 1 {
			chunk, err := m.generateOne(ctx, batch[0])
			if err != nil {
				delete(m.generating, batch[0])
				return installed, err
			}
			if err := m.install(chunk); err != nil {
				errs = append(errs, err)
			}
			installed++
			continue
		}

		chunks, err := m.generateBatch(ctx, batch)
		if err != nil {
			for _, coords := range batch {
				delete(m.generating, coords)
			}
			return installed, err
		}
		for _, chunk := range chunks {
			if err := m.install(chunk); err != nil {
				errs = append(errs, err)
			}
			installed++
		}
	}
	return installed, errors.Join(errs...)
}

// dequeue снимает до n координат, которые всё ещё видимы и не загружены,
// и переводит их в состояние генерации
func (m *Manager) dequeue(n int) []vec.Vec2 {
	batch := make([]vec.Vec2, 0, n)
	for len(batch) < n && len(m.pending) > 0 {
		coords := m.pending[0]
		m.pending = m.pending[1:]
		delete(m.queued, coords)

		if _, ok := m.visible[coords]; !ok {
			continue
		}
		if m.stateLocked(coords) != ChunkUnloaded {
			continue
		}
		m.generating[coords] = struct{}{}
		batch = append(batch, coords)
	}
	return batch
}

func (m *Manager) generateOne(ctx context.Context, coords vec.Vec2) (*Chunk, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()
	chunk := m.generator.Generate(ctx, coords, m.neighborLookup(coords))
	m.metrics.ChunkGenerated(time.Since(start))
	return chunk, nil
}

// generateBatch генерирует пачку параллельно. Генерация читает только
// загруженные чанки, писатель в это время ждёт, поэтому гонок нет.
// Чанки пачки не видят друг друга и считаются неизвестными: границы
// выравниваются при установке.
func (m *Manager) generateBatch(ctx context.Context, batch []vec.Vec2) ([]*Chunk, error) {
	chunks := make([]*Chunk, len(batch))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.streaming.Workers)

	for i, coords := range batch {
		g.Go(func() error {
			chunk, err := m.generateOne(gctx, coords)
			if err != nil {
				return err
			}
			chunks[i] = chunk
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("генерация пачки из %d чанков: %w", len(batch), err)
	}
	return chunks, nil
}

// install делает чанк видимым для запросов и выравнивает общие границы с соседями
func (m *Manager) install(chunk *Chunk) error {
	coords := chunk.Coords
	delete(m.generating, coords)
	m.chunks[coords] = chunk

	var errs []error
	touched := []*Chunk{chunk}
	for _, side := range chunkSides {
		if err := m.refreshBorder(chunk, side); err != nil {
			errs = append(errs, err)
		}
		neighbor, ok := m.chunks[coords.Add(side.offset)]
		if !ok {
			continue
		}
		if err := m.refreshBorder(neighbor, side.opposite()); err != nil {
			errs = append(errs, err)
		}
		touched = append(touched, neighbor)
	}
	m.flush(touched...)

	m.logger.Debug("Чанк %v загружен (digest %016x)", coords, chunk.Digest())
	return m.reportInvariant(errors.Join(errs...))
}

// teardown освобождает чанк и закрывает открытые на него грани соседей
func (m *Manager) teardown(coords vec.Vec2) error {
	chunk, ok := m.chunks[coords]
	if !ok {
		return nil
	}
	delete(m.chunks, coords)
	chunk.release()
	m.sink.ChunkReleased(coords)
	m.metrics.ChunkUnloaded()

	var errs []error
	for _, side := range chunkSides {
		neighbor, ok := m.chunks[coords.Add(side.offset)]
		if !ok {
			continue
		}
		if err := m.refreshBorder(neighbor, side.opposite()); err != nil {
			errs = append(errs, err)
		}
		m.flush(neighbor)
	}

	m.logger.Debug("Чанк %v выгружен", coords)
	return m.reportInvariant(errors.Join(errs...))
}

// Close выгружает все чанки и очищает очередь
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var errs []error
	for coords := range m.chunks {
		if err := m.teardown(coords); err != nil {
			errs = append(errs, err)
		}
	}
	m.pending = nil
	m.queued = make(map[vec.Vec2]struct{})
	m.visible = make(map[vec.Vec2]struct{})
	m.metrics.SetLoaded(0)
	m.metrics.SetPending(0)
	return errors.Join(errs...)
}

// chunkSide описывает одну из четырёх горизонтальных сторон чанка
type chunkSide struct {
	offset vec.Vec2
}

var chunkSides = [4]chunkSide{
	{offset: vec.Vec2{X: 1}},
	{offset: vec.Vec2{X: -1}},
	{offset: vec.Vec2{Z: 1}},
	{offset: vec.Vec2{Z: -1}},
}

func (s chunkSide) opposite() chunkSide {
	return chunkSide{offset: vec.Vec2{X: -s.offset.X, Z: -s.offset.Z}}
}

// refreshBorder пересчитывает видимость клеток чанка, прилегающих к стороне side
func (m *Manager) refreshBorder(c *Chunk, side chunkSide) error {
	lookup := m.neighborLookup(c.Coords)
	for i := 0; i < c.Width; i++ {
		x, z := i, i
		switch {
		case side.offset.X > 0:
			x = c.Width - 1
		case side.offset.X < 0:
			x = 0
		case side.offset.Z > 0:
			z = c.Width - 1
		default:
			z = 0
		}
		for y := 0; y < c.Height; y++ {
			if err := c.RefreshInstance(lookup, x, y, z); err != nil {
				return err
			}
		}
	}
	return nil
}

// neighborLookup разрешает клетки за границей чанка coords через мировые координаты
func (m *Manager) neighborLookup(coords vec.Vec2) NeighborLookup {
	ox, oz := coords.Origin(m.world.ChunkWidth)
	return func(x, y, z int) (block.BlockID, bool) {
		return m.blockAtLocked(ox+x, y, oz+z)
	}
}

// flush передаёт изменённые таблицы получателю отрисовки
func (m *Manager) flush(chunks ...*Chunk) {
	for _, c := range chunks {
		for _, table := range c.TakeDirtyTables() {
			m.sink.InstancesChanged(c.Coords, table)
		}
	}
}

func (m *Manager) reportInvariant(err error) error {
	if err == nil {
		return nil
	}
	m.metrics.InvariantError()
	m.logger.Error("Нарушена согласованность таблиц экземпляров: %v", err)
	return err
}

// window возвращает квадрат Чебышёва радиуса DrawDistance вокруг center
func (m *Manager) window(center vec.Vec2) map[vec.Vec2]struct{} {
	r := m.world.DrawDistance
	out := make(map[vec.Vec2]struct{}, (2*r+1)*(2*r+1))
	for dx := -r; dx <= r; dx++ {
		for dz := -r; dz <= r; dz++ {
			out[center.Add(vec.Vec2{X: dx, Z: dz})] = struct{}{}
		}
	}
	return out
}

// sortPending упорядочивает очередь по удалённости от центра
func (m *Manager) sortPending() {
	c := m.center
	dist := func(v vec.Vec2) int {
		dx, dz := v.X-c.X, v.Z-c.Z
		return dx*dx + dz*dz
	}
	sort.SliceStable(m.pending, func(i, j int) bool {
		a, b := m.pending[i], m.pending[j]
		if da, db := dist(a), dist(b); da != db {
			return da < db
		}
		if a.X != b.X {
			return a.X < b.X
		}
		return a.Z < b.Z
	})
}

func (m *Manager) stateLocked(coords vec.Vec2) ChunkState {
	if _, ok := m.chunks[coords]; ok {
		return ChunkLoaded
	}
	if _, ok := m.generating[coords]; ok {
		return ChunkGenerating
	}
	return ChunkUnloaded
}

// State возвращает состояние координаты чанка
func (m *Manager) State(coords vec.Vec2) ChunkState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.stateLocked(coords)
}

// Chunk возвращает загруженный чанк
func (m *Manager) Chunk(coords vec.Vec2) (*Chunk, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.chunks[coords]
	return c, ok
}

// LoadedCoords возвращает координаты загруженных чанков в стабильном порядке
func (m *Manager) LoadedCoords() []vec.Vec2 {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]vec.Vec2, 0, len(m.chunks))
	for coords := range m.chunks {
		out = append(out, coords)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].X != out[j].X {
			return out[i].X < out[j].X
		}
		return out[i].Z < out[j].Z
	})
	return out
}

// Stats возвращает сводку стриминга
func (m *Manager) Stats() ManagerStats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return ManagerStats{
		Loaded:     len(m.chunks),
		Pending:    len(m.pending),
		Generating: len(m.generating),
		Center:     m.center,
	}
}

// BlockAt возвращает тип блока в мировой клетке. known=false, если чанк
// не загружен или ещё генерируется. Выше и ниже мира - известная пустота.
func (m *Manager) BlockAt(wx, wy, wz int) (block.BlockID, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.blockAtLocked(wx, wy, wz)
}

func (m *Manager) blockAtLocked(wx, wy, wz int) (block.BlockID, bool) {
	if wy < 0 || wy >= m.world.ChunkHeight {
		return block.EmptyBlockID, true
	}
	c, x, z, ok := m.locate(wx, wz)
	if !ok {
		return block.EmptyBlockID, false
	}
	return c.BlockID(x, wy, z), true
}

// locate находит загруженный чанк и локальные координаты мировой колонки
func (m *Manager) locate(wx, wz int) (*Chunk, int, int, bool) {
	coords := vec.ChunkOf(wx, wz, m.world.ChunkWidth)
	c, ok := m.chunks[coords]
	if !ok || !c.Loaded() {
		return nil, 0, 0, false
	}
	ox, oz := c.Origin()
	return c, wx - ox, wz - oz, true
}
