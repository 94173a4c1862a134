package physics

import (
	"github.com/annel0/voxel-engine/internal/config"
	"github.com/annel0/voxel-engine/internal/logging"
)

// Physics продвигает игрока во времени фиксированными подшагами
type Physics struct {
	Gravity float64

	stepSize    float64 // 0 - один шаг на весь dt
	maxSubSteps int
	accumulator float64

	logger *logging.Logger
}

// New создаёт физику по конфигурации
func New(cfg config.PhysicsConfig) *Physics {
	p := &Physics{
		Gravity:     cfg.Gravity,
		maxSubSteps: cfg.MaxSubSteps,
		logger:      logging.GetPhysicsLogger(),
	}
	if cfg.SimulationRate > 0 {
		p.stepSize = 1 / cfg.SimulationRate
	}
	if p.maxSubSteps < 1 {
		p.maxSubSteps = 1
	}
	return p
}

// Update продвигает симуляцию на dt секунд и возвращает число разрешённых контактов
func (ph *Physics) Update(dt float64, player *Player, grid BlockGrid) int {
	if dt <= 0 {
		return 0
	}
	if ph.stepSize == 0 {
		return ph.step(dt, player, grid)
	}

	ph.accumulator += dt
	contacts, steps := 0, 0
	for ph.accumulator >= ph.stepSize {
		if steps == ph.maxSubSteps {
			ph.logger.Debug("Физика не успевает: отброшено %.4fс", ph.accumulator)
			ph.accumulator = 0
			break
		}
		contacts += ph.step(ph.stepSize, player, grid)
		ph.accumulator -= ph.stepSize
		steps++
	}
	return contacts
}

// step: гравитация, ввод, коллизии
func (ph *Physics) step(dt float64, player *Player, grid BlockGrid) int {
	player.Velocity.Y -= ph.Gravity * dt
	player.ApplyInputs(dt)

	player.OnGround = false
	contacts := DetectCollisions(player, grid)
	if len(contacts) > 0 && ph.logger.Enabled(logging.TRACE) {
		ph.logger.Trace("Контактов: %d, игрок %s", len(contacts), player)
	}
	return len(contacts)
}
