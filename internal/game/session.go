package game

import (
	"context"
	"fmt"
	"math"

	"github.com/annel0/voxel-engine/internal/config"
	"github.com/annel0/voxel-engine/internal/logging"
	"github.com/annel0/voxel-engine/internal/observability"
	"github.com/annel0/voxel-engine/internal/physics"
	"github.com/annel0/voxel-engine/internal/vec"
	"github.com/annel0/voxel-engine/internal/world"
	"github.com/annel0/voxel-engine/internal/world/block"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// TickResult - итог одного тика
type TickResult struct {
	Tick     uint64
	Chunk    vec.Vec2
	Contacts int
	OnGround bool
}

// Session связывает мир, игрока и физику и продвигает их тиками
// в фиксированном порядке: стриминг, движение, коллизии.
type Session struct {
	ID uuid.UUID

	World   *world.Manager
	Player  *physics.Player
	physics *physics.Physics

	streaming config.StreamingConfig
	metrics   *observability.WorldMetrics
	logger    *logging.Logger
	tracer    trace.Tracer

	tick  uint64
	edits uint64
}

// NewSession создаёт сессию. metrics может быть nil.
func NewSession(cfg *config.Config, metrics *observability.WorldMetrics, opts ...world.Option) (*Session, error) {
	opts = append([]world.Option{world.WithMetrics(metrics)}, opts...)
	manager, err := world.NewManager(cfg, opts...)
	if err != nil {
		return nil, fmt.Errorf("создание мира: %w", err)
	}

	s := &Session{
		ID:        uuid.New(),
		World:     manager,
		Player:    physics.NewPlayer(cfg.Player),
		physics:   physics.New(cfg.Physics),
		streaming: cfg.Streaming,
		metrics:   metrics,
		logger:    logging.GetGameLogger(),
		tracer:    otel.Tracer("github.com/annel0/voxel-engine/internal/game"),
	}
	s.logger.Info("🎮 Сессия %s создана (seed=%d, чанк %dx%d, дальность %d)",
		s.ID, cfg.Generation.Seed, cfg.World.ChunkWidth, cfg.World.ChunkHeight, cfg.World.DrawDistance)
	return s, nil
}

// Tick продвигает сессию на dt секунд с вводом in
func (s *Session) Tick(ctx context.Context, dt float64, in physics.Input) (TickResult, error) {
	s.tick++
	ctx, span := s.tracer.Start(ctx, "game.Tick", trace.WithAttributes(
		attribute.String("session.id", s.ID.String()),
		attribute.Int64("tick", int64(s.tick)),
	))
	defer span.End()

	result := TickResult{Tick: s.tick, Chunk: s.World.ChunkCoordsAt(s.Player.Position)}

	if err := s.World.Update(ctx, s.Player.Position); err != nil {
		return result, fmt.Errorf("тик %d: стриминг: %w", s.tick, err)
	}
	// чанк игрока стоит первым в очереди, поэтому к физике он уже загружен
	if s.streaming.Async {
		if _, err := s.World.ProcessPending(ctx, s.streaming.BudgetPerTick); err != nil {
			return result, fmt.Errorf("тик %d: генерация: %w", s.tick, err)
		}
	}

	s.Player.SetInput(in)
	if in.Jump {
		s.Player.Jump()
	}
	result.Contacts = s.physics.Update(dt, s.Player, s.World)
	result.OnGround = s.Player.OnGround
	s.metrics.CollisionContacts(result.Contacts)
	return result, nil
}

// Jump - прыжок, если игрок на земле
func (s *Session) Jump() bool {
	return s.Player.Jump()
}

// Teleport переносит игрока в точку мира
func (s *Session) Teleport(pos vec.Vec3Float) {
	s.Player.Teleport(pos)
	s.logger.Debug("Сессия %s: телепорт в %s", s.ID, s.Player)
}

// Respawn возвращает игрока в точку появления
func (s *Session) Respawn() {
	s.Player.Respawn()
	s.logger.Debug("Сессия %s: возрождение в %s", s.ID, s.Player)
}

// AddBlock ставит блок в мировую клетку
func (s *Session) AddBlock(wx, wy, wz int, id block.BlockID) (bool, error) {
	ok, err := s.World.AddBlock(wx, wy, wz, id)
	if ok {
		s.edits++
	}
	return ok, err
}

// RemoveBlock убирает блок в мировой клетке
func (s *Session) RemoveBlock(wx, wy, wz int) (bool, error) {
	ok, err := s.World.RemoveBlock(wx, wy, wz)
	if ok {
		s.edits++
	}
	return ok, err
}

// FeetCell возвращает клетку, на которой стоит игрок
func (s *Session) FeetCell() vec.Vec3 {
	p := s.Player.Position
	return vec.Vec3{
		X: int(math.Floor(p.X)),
		Y: int(math.Floor(p.Y - s.Player.Height - 0.5)),
		Z: int(math.Floor(p.Z)),
	}
}

// DigBelow убирает блок под ногами игрока
func (s *Session) DigBelow() (bool, error) {
	c := s.FeetCell()
	return s.RemoveBlock(c.X, c.Y, c.Z)
}

// Ticks возвращает число выполненных тиков
func (s *Session) Ticks() uint64 { return s.tick }

// Edits возвращает число успешных правок
func (s *Session) Edits() uint64 { return s.edits }

// Close выгружает мир
func (s *Session) Close() error {
	err := s.World.Close()
	s.logger.Info("🎮 Сессия %s закрыта: тиков %d, правок %d", s.ID, s.tick, s.edits)
	return err
}
