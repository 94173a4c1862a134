package physics

import (
	"fmt"

	"github.com/annel0/voxel-engine/internal/config"
	"github.com/annel0/voxel-engine/internal/vec"
)

// Input - управление игроком на один тик
type Input struct {
	Forward float64 // [-1, 1], вперёд по взгляду
	Right   float64 // [-1, 1], вбок
	Yaw     float64 // поворот взгляда вокруг Y, радианы
	Jump    bool
}

// Player - капсула игрока. Position - уровень глаз, капсула занимает
// [Position.Y-Height, Position.Y] по вертикали.
// Velocity хранится в системе взгляда (X - вправо, Z - вперёд),
// физика работает с мировой скоростью через WorldVelocity.
type Player struct {
	Position vec.Vec3Float
	Velocity vec.Vec3Float
	Yaw      float64
	OnGround bool

	Radius    float64
	Height    float64
	MaxSpeed  float64
	JumpSpeed float64

	input vec.Vec2Float
	spawn vec.Vec3Float
}

// NewPlayer создаёт игрока в точке появления из конфигурации
func NewPlayer(cfg config.PlayerConfig) *Player {
	spawn := vec.Vec3Float{X: cfg.Spawn.X, Y: cfg.Spawn.Y, Z: cfg.Spawn.Z}
	return &Player{
		Position:  spawn,
		Radius:    cfg.Radius,
		Height:    cfg.Height,
		MaxSpeed:  cfg.MaxSpeed,
		JumpSpeed: cfg.JumpSpeed,
		spawn:     spawn,
	}
}

// SetInput задаёт горизонтальный ввод, масштабированный до MaxSpeed, и поворот
func (p *Player) SetInput(in Input) {
	p.Yaw = in.Yaw
	p.input = vec.Vec2Float{X: clampAxis(in.Right) * p.MaxSpeed, Z: clampAxis(in.Forward) * p.MaxSpeed}
}

// WorldVelocity возвращает скорость в мировой системе координат
func (p *Player) WorldVelocity() vec.Vec3Float {
	return p.Velocity.RotateY(p.Yaw)
}

// ApplyWorldDeltaVelocity добавляет мировое приращение скорости,
// переводя его обратно в систему взгляда
func (p *Player) ApplyWorldDeltaVelocity(dv vec.Vec3Float) {
	p.Velocity = p.Velocity.Add(dv.RotateY(-p.Yaw))
}

// ApplyInputs переносит ввод в горизонтальную скорость и интегрирует позицию за dt
func (p *Player) ApplyInputs(dt float64) {
	p.Velocity.X = p.input.X
	p.Velocity.Z = p.input.Z
	p.Position = p.Position.Add(p.WorldVelocity().Mul(dt))
}

// Jump даёт вертикальный импульс, если игрок стоит на земле
func (p *Player) Jump() bool {
	if !p.OnGround {
		return false
	}
	p.Velocity.Y = p.JumpSpeed
	p.OnGround = false
	return true
}

// Teleport переносит игрока без изменения скорости
func (p *Player) Teleport(pos vec.Vec3Float) {
	p.Position = pos
}

// Respawn возвращает игрока в точку появления и гасит скорость
func (p *Player) Respawn() {
	p.Position = p.spawn
	p.Velocity = vec.Vec3Float{}
	p.OnGround = false
}

func (p *Player) String() string {
	return fmt.Sprintf("X: %.3f Y: %.3f Z: %.3f", p.Position.X, p.Position.Y, p.Position.Z)
}

func clampAxis(v float64) float64 {
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return v
}
