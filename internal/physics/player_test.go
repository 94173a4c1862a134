package physics

import (
	"math"
	"testing"

	"github.com/annel0/voxel-engine/internal/config"
	"github.com/annel0/voxel-engine/internal/vec"
	"github.com/stretchr/testify/assert"
)

func TestApplyInputsMovesAlongYaw(t *testing.T) {
	p := NewPlayer(config.Default().Player)
	start := p.Position

	p.SetInput(Input{Forward: 1, Yaw: math.Pi / 2})
	p.ApplyInputs(0.1)

	assert.InDelta(t, start.X+p.MaxSpeed*0.1, p.Position.X, 1e-9, "взгляд повёрнут к +X")
	assert.InDelta(t, start.Z, p.Position.Z, 1e-9)
}

func TestInputIsClamped(t *testing.T) {
	p := NewPlayer(config.Default().Player)
	p.SetInput(Input{Forward: 5, Right: -3})
	p.ApplyInputs(0)

	assert.Equal(t, p.MaxSpeed, p.Velocity.Z)
	assert.Equal(t, -p.MaxSpeed, p.Velocity.X)
}

func TestWorldDeltaVelocityRoundTrip(t *testing.T) {
	p := NewPlayer(config.Default().Player)
	p.Yaw = 1.1
	p.ApplyWorldDeltaVelocity(vec.Vec3Float{X: 2, Y: 1, Z: -3})

	wv := p.WorldVelocity()
	assert.InDelta(t, 2.0, wv.X, 1e-9)
	assert.InDelta(t, 1.0, wv.Y, 1e-9)
	assert.InDelta(t, -3.0, wv.Z, 1e-9)
}

func TestRespawnResetsState(t *testing.T) {
	cfg := config.Default().Player
	p := NewPlayer(cfg)
	p.Teleport(vec.Vec3Float{X: 100, Y: 5, Z: -7})
	p.Velocity = vec.Vec3Float{X: 1, Y: 2, Z: 3}
	p.OnGround = true

	p.Respawn()

	assert.Equal(t, vec.Vec3Float{X: cfg.Spawn.X, Y: cfg.Spawn.Y, Z: cfg.Spawn.Z}, p.Position)
	assert.Equal(t, vec.Vec3Float{}, p.Velocity)
	assert.False(t, p.OnGround)
}

func TestSubStepsAreCapped(t *testing.T) {
	ph := New(config.PhysicsConfig{Gravity: 10, SimulationRate: 100, MaxSubSteps: 5})
	p := NewPlayer(config.Default().Player)
	grid := newMapGrid()

	ph.Update(1.0, p, grid)

	// Пять шагов по 0.01с: скорость -10*0.05
	assert.InDelta(t, -0.5, p.Velocity.Y, 1e-9)
	assert.Equal(t, 0.0, ph.accumulator)
}
