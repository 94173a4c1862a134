package physics

import (
	"math"
	"sort"

	"github.com/annel0/voxel-engine/internal/vec"
	"github.com/annel0/voxel-engine/internal/world/block"
)

// BlockGrid - запрос типа блока по мировой клетке.
// known=false - чанк не загружен: такая клетка не мешает движению.
type BlockGrid interface {
	BlockAt(x, y, z int) (id block.BlockID, known bool)
}

// Contact - пересечение капсулы игрока с блоком
type Contact struct {
	Block   vec.Vec3      // клетка блока; куб занимает [Block, Block+1]
	Point   vec.Vec3Float // ближайшая к оси капсулы точка куба
	Normal  vec.Vec3Float // направление выталкивания игрока
	Overlap float64
}

// BroadPhase собирает известные солидные клетки в целочисленном диапазоне,
// покрывающем капсулу (границы включительно)
func BroadPhase(p *Player, grid BlockGrid) []vec.Vec3 {
	minX, maxX := int(math.Floor(p.Position.X-p.Radius)), int(math.Ceil(p.Position.X+p.Radius))
	minY, maxY := int(math.Floor(p.Position.Y-p.Height)), int(math.Ceil(p.Position.Y))
	minZ, maxZ := int(math.Floor(p.Position.Z-p.Radius)), int(math.Ceil(p.Position.Z+p.Radius))

	var candidates []vec.Vec3
	for x := minX; x <= maxX; x++ {
		for y := minY; y <= maxY; y++ {
			for z := minZ; z <= maxZ; z++ {
				id, known := grid.BlockAt(x, y, z)
				if known && block.IsSolid(id) {
					candidates = append(candidates, vec.Vec3{X: x, Y: y, Z: z})
				}
			}
		}
	}
	return candidates
}

// NarrowPhase проверяет кандидатов точно: ближайшая к центру оси капсулы
// точка куба должна лежать внутри капсулы
func NarrowPhase(candidates []vec.Vec3, p *Player) []Contact {
	halfHeight := p.Height / 2
	center := vec.Vec3Float{X: p.Position.X, Y: p.Position.Y - halfHeight, Z: p.Position.Z}

	var contacts []Contact
	for _, b := range candidates {
		closest := vec.Vec3Float{
			X: clamp(center.X, float64(b.X), float64(b.X+1)),
			Y: clamp(center.Y, float64(b.Y), float64(b.Y+1)),
			Z: clamp(center.Z, float64(b.Z), float64(b.Z+1)),
		}
		d := closest.Sub(center)
		distSq := d.X*d.X + d.Z*d.Z
		if math.Abs(d.Y) >= halfHeight || distSq >= p.Radius*p.Radius {
			continue
		}

		overlapY := halfHeight - math.Abs(d.Y)
		overlapXZ := p.Radius - math.Sqrt(distSq)

		var normal vec.Vec3Float
		overlap := overlapXZ
		switch {
		case distSq == 0 && d.Y == 0:
			// центр оси внутри куба: поднимаем ноги на верхнюю грань
			normal = vec.Vec3Float{Y: 1}
			overlap = float64(b.Y+1) - (center.Y - halfHeight)
		case distSq == 0 || overlapY < overlapXZ:
			// по вертикали выйти короче, либо ось над/под кубом и горизонтальной нормали нет
			normal = vec.Vec3Float{Y: -sign(d.Y)}
			overlap = overlapY
		default:
			normal = vec.Vec3Float{X: -d.X, Z: -d.Z}.Normalized()
		}

		contacts = append(contacts, Contact{Block: b, Point: closest, Normal: normal, Overlap: overlap})
	}
	return contacts
}

// ResolveCollisions разрешает контакты от меньшего перекрытия к большему:
// сдвигает игрока по нормали и убирает компоненту мировой скорости вдоль неё.
// Возвращает контакты в порядке разрешения.
func ResolveCollisions(contacts []Contact, p *Player) []Contact {
	ordered := make([]Contact, len(contacts))
	copy(ordered, contacts)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Overlap < ordered[j].Overlap
	})

	for _, c := range ordered {
		p.Position = p.Position.Add(c.Normal.Mul(c.Overlap))

		magnitude := p.WorldVelocity().Dot(c.Normal)
		p.ApplyWorldDeltaVelocity(c.Normal.Mul(-magnitude))

		if c.Normal.Y > 0 {
			p.OnGround = true
		}
	}
	return ordered
}

// DetectCollisions выполняет обе фазы и разрешение для одного игрока
func DetectCollisions(p *Player, grid BlockGrid) []Contact {
	contacts := NarrowPhase(BroadPhase(p, grid), p)
	if len(contacts) == 0 {
		return nil
	}
	return ResolveCollisions(contacts, p)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(v, hi))
}

func sign(v float64) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}
