package world

import (
	"context"
	"fmt"
	"math"
	"math/rand"

	"github.com/annel0/voxel-engine/internal/config"
	"github.com/annel0/voxel-engine/internal/util"
	"github.com/annel0/voxel-engine/internal/vec"
	"github.com/annel0/voxel-engine/internal/world/block"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Смещения сида для независимых полей шума
const (
	biomeSeedSalt     = 1
	variationSeedSalt = 2
	cloudSeedSalt     = 3
	resourceSeedSalt  = 10 // + индекс ресурса
)

// Generator заполняет чанки по сиду и параметрам генерации.
// Результат зависит только от (сид, координаты чанка, параметры, правки игрока),
// поэтому Generate можно вызывать из нескольких горутин для разных чанков.
type Generator struct {
	world     config.WorldConfig
	params    config.GenerationConfig
	resources []block.Resource
	edits     EditStore
	tracer    trace.Tracer
}

// NewGenerator создаёт генератор. edits может быть nil - тогда правки не применяются.
func NewGenerator(world config.WorldConfig, params config.GenerationConfig, edits EditStore) (*Generator, error) {
	if err := world.Validate(); err != nil {
		return nil, fmt.Errorf("генератор: %w", err)
	}
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("генератор: %w", err)
	}
	resources, err := params.ResourceTable()
	if err != nil {
		return nil, fmt.Errorf("генератор: %w", err)
	}
	return &Generator{
		world:     world,
		params:    params,
		resources: resources,
		edits:     edits,
		tracer:    otel.Tracer("github.com/annel0/voxel-engine/internal/world"),
	}, nil
}

// Seed возвращает сид мира
func (g *Generator) Seed() int64 {
	return g.params.Seed
}

// Height возвращает высоту поверхности в мировой колонке (wx, wz)
func (g *Generator) Height(wx, wz int) int {
	t := g.params.Terrain
	value := util.Noise2D(g.params.Seed, float64(wx)/t.Scale, float64(wz)/t.Scale)
	h := int(math.Floor(float64(g.world.ChunkHeight) * (t.Offset + t.Magnitude*value)))
	if h < 0 {
		return 0
	}
	if h > g.world.ChunkHeight-1 {
		return g.world.ChunkHeight - 1
	}
	return h
}

// Biome классифицирует мировую колонку (wx, wz)
func (g *Generator) Biome(wx, wz int) BiomeType {
	b := g.params.Biomes
	base := util.Noise2D(g.params.Seed+biomeSeedSalt, float64(wx)/b.Scale, float64(wz)/b.Scale)
	variation := util.Noise2D(g.params.Seed+variationSeedSalt, float64(wx)/b.Variation.Scale, float64(wz)/b.Variation.Scale)
	return classifyBiome(0.5+0.5*base+b.Variation.Amplitude*variation, b)
}

// Generate строит чанк целиком: рельеф, ресурсы, деревья, облака, правки игрока
// и таблицы экземпляров. Возвращённый чанк уже помечен загруженным.
func (g *Generator) Generate(ctx context.Context, coords vec.Vec2, lookup NeighborLookup) *Chunk {
	_, span := g.tracer.Start(ctx, "world.GenerateChunk", trace.WithAttributes(
		attribute.Int("chunk.x", coords.X),
		attribute.Int("chunk.z", coords.Z),
		attribute.Int64("world.seed", g.params.Seed),
	))
	defer span.End()

	c := NewChunk(coords, g.world.ChunkWidth, g.world.ChunkHeight)
	rng := rand.New(rand.NewSource(util.ChunkSeed(g.params.Seed, coords.X, coords.Z)))

	g.generateTerrain(c, rng)
	g.generateClouds(c)
	g.applyEdits(c)

	c.BuildInstances(lookup)
	c.loaded = true

	span.SetAttributes(attribute.Int64("chunk.digest", int64(c.Digest())))
	return c
}

func (g *Generator) generateTerrain(c *Chunk, rng *rand.Rand) {
	ox, oz := c.Origin()
	waterLevel := g.params.Terrain.WaterLevel

	for x := 0; x < c.Width; x++ {
		for z := 0; z < c.Width; z++ {
			wx, wz := ox+x, oz+z
			height := g.Height(wx, wz)
			biome := g.Biome(wx, wz)

			for y := c.Height - 1; y >= 0; y-- {
				switch {
				case y > height:
					// воздух или уже поставленное дерево
				case y == height && height <= waterLevel:
					c.SetBlockID(x, y, z, block.SandBlockID)
				case y == height:
					c.SetBlockID(x, y, z, biome.GroundBlock())
					if rng.Float64() < treeFrequency(biome, g.params.Trees.Frequency) {
						g.generateTree(c, rng, biome, x, y+1, z)
					}
				case c.BlockID(x, y, z) == block.EmptyBlockID:
					c.SetBlockID(x, y, z, g.undergroundBlock(wx, y, wz))
				}
			}
		}
	}
}

// undergroundBlock возвращает землю или ресурс; более поздний ресурс перекрывает ранний
func (g *Generator) undergroundBlock(wx, y, wz int) block.BlockID {
	id := block.DirtBlockID
	for i, r := range g.resources {
		value := util.Noise3D(g.params.Seed+resourceSeedSalt+int64(i),
			float64(wx)/r.Scale.X, float64(y)/r.Scale.Y, float64(wz)/r.Scale.Z)
		if value > r.Scarcity {
			id = r.ID
		}
	}
	return id
}

// generateTree ставит ствол от (x, baseY, z) вверх и, если у биома есть листва, крону.
// Блоки за пределами чанка отбрасываются.
func (g *Generator) generateTree(c *Chunk, rng *rand.Rand, biome BiomeType, x, baseY, z int) {
	trunk := g.params.Trees.Trunk
	height := trunk.MinHeight + rng.Intn(trunk.MaxHeight-trunk.MinHeight+1)

	trunkID := biome.TrunkBlock()
	for y := baseY; y < baseY+height; y++ {
		c.SetBlockID(x, y, z, trunkID)
	}

	leaves, ok := biome.LeavesBlock()
	if !ok {
		return
	}

	canopy := g.params.Trees.Canopy
	radius := canopy.MinRadius + rng.Intn(canopy.MaxRadius-canopy.MinRadius+1)
	cy := baseY + height
	for dx := -radius; dx <= radius; dx++ {
		for dy := -radius; dy <= radius; dy++ {
			for dz := -radius; dz <= radius; dz++ {
				// бросок тратится на каждую клетку, чтобы поток ГПСЧ не зависел от занятости
				roll := rng.Float64()
				if dx*dx+dy*dy+dz*dz > radius*radius {
					continue
				}
				lx, ly, lz := x+dx, cy+dy, z+dz
				cell, inside := c.Get(lx, ly, lz)
				if inside && cell.ID == block.EmptyBlockID && roll < canopy.Density {
					c.SetBlockID(lx, ly, lz, leaves)
				}
			}
		}
	}
}

func (g *Generator) generateClouds(c *Chunk) {
	ox, oz := c.Origin()
	clouds := g.params.Clouds
	top := c.Height - 1

	for x := 0; x < c.Width; x++ {
		for z := 0; z < c.Width; z++ {
			value := util.Noise2D(g.params.Seed+cloudSeedSalt, float64(ox+x)/clouds.Scale, float64(oz+z)/clouds.Scale)
			if util.Noise01(value) < clouds.Density && c.BlockID(x, top, z) == block.EmptyBlockID {
				c.SetBlockID(x, top, z, block.CloudBlockID)
			}
		}
	}
}

// applyEdits накладывает правки игрока последним шагом, чтобы они всегда побеждали
func (g *Generator) applyEdits(c *Chunk) {
	if g.edits == nil {
		return
	}
	ox, oz := c.Origin()
	for pos, id := range g.edits.ForChunk(ox, oz) {
		c.SetBlockID(pos.X, pos.Y, pos.Z, id)
	}
}
