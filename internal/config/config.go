package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/annel0/voxel-engine/internal/world/block"
	"gopkg.in/yaml.v3"
)

// Config корневая структура конфигурации движка.
type Config struct {
	World      WorldConfig      `yaml:"world"`
	Generation GenerationConfig `yaml:"generation"`
	Streaming  StreamingConfig  `yaml:"streaming"`
	Player     PlayerConfig     `yaml:"player"`
	Physics    PhysicsConfig    `yaml:"physics"`
	Logging    LoggingConfig    `yaml:"logging"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`
	Metrics    MetricsConfig    `yaml:"metrics"`
}

// WorldConfig задаёт геометрию чанков и дальность прорисовки
type WorldConfig struct {
	ChunkWidth   int `yaml:"chunk_width"`
	ChunkHeight  int `yaml:"chunk_height"`
	DrawDistance int `yaml:"draw_distance"` // радиус Чебышёва в чанках
}

// GenerationConfig - параметры процедурной генерации
type GenerationConfig struct {
	Seed      int64            `yaml:"seed"`
	Terrain   TerrainConfig    `yaml:"terrain"`
	Biomes    BiomeConfig      `yaml:"biomes"`
	Resources []ResourceConfig `yaml:"resources"`
	Trees     TreeConfig       `yaml:"trees"`
	Clouds    CloudConfig      `yaml:"clouds"`
}

type TerrainConfig struct {
	Scale      float64 `yaml:"scale"`
	Magnitude  float64 `yaml:"magnitude"`
	Offset     float64 `yaml:"offset"`
	WaterLevel int     `yaml:"water_level"`
}

type BiomeConfig struct {
	Scale             float64         `yaml:"scale"`
	Variation         VariationConfig `yaml:"variation"`
	TundraToTemperate float64         `yaml:"tundra_to_temperate"`
	TemperateToJungle float64         `yaml:"temperate_to_jungle"`
	JungleToDesert    float64         `yaml:"jungle_to_desert"`
}

type VariationConfig struct {
	Amplitude float64 `yaml:"amplitude"`
	Scale     float64 `yaml:"scale"`
}

type ResourceConfig struct {
	Block    string      `yaml:"block"`
	Scale    ScaleConfig `yaml:"scale"`
	Scarcity float64     `yaml:"scarcity"`
}

type ScaleConfig struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
	Z float64 `yaml:"z"`
}

type TreeConfig struct {
	Trunk     TrunkConfig    `yaml:"trunk"`
	Canopy    CanopyConfig   `yaml:"canopy"`
	Frequency BiomeFrequency `yaml:"frequency"`
}

type TrunkConfig struct {
	MinHeight int `yaml:"min_height"`
	MaxHeight int `yaml:"max_height"`
}

type CanopyConfig struct {
	MinRadius int     `yaml:"min_radius"`
	MaxRadius int     `yaml:"max_radius"`
	Density   float64 `yaml:"density"`
}

// BiomeFrequency - вероятность дерева/кактуса на клетку поверхности по биомам
type BiomeFrequency struct {
	Tundra    float64 `yaml:"tundra"`
	Temperate float64 `yaml:"temperate"`
	Jungle    float64 `yaml:"jungle"`
	Desert    float64 `yaml:"desert"`
}

type CloudConfig struct {
	Scale   float64 `yaml:"scale"`
	Density float64 `yaml:"density"`
}

// StreamingConfig управляет загрузкой чанков
type StreamingConfig struct {
	Async         bool `yaml:"async"`           // генерировать в отдельном слоте, а не в Update
	BudgetPerTick int  `yaml:"budget_per_tick"` // сколько чанков генерировать за слот
	Workers       int  `yaml:"workers"`         // >1 - параллельная генерация пачки
}

type PlayerConfig struct {
	Radius    float64     `yaml:"radius"`
	Height    float64     `yaml:"height"`
	MaxSpeed  float64     `yaml:"max_speed"`
	JumpSpeed float64     `yaml:"jump_speed"`
	Spawn     ScaleConfig `yaml:"spawn"`
}

type PhysicsConfig struct {
	Gravity        float64 `yaml:"gravity"`
	SimulationRate float64 `yaml:"simulation_rate"` // шагов в секунду, 0 - без подшагов
	MaxSubSteps    int     `yaml:"max_substeps"`
}

type LoggingConfig struct {
	Level      string            `yaml:"level"`
	Dir        string            `yaml:"dir"`        // пусто - только консоль
	Components map[string]string `yaml:"components"` // уровень консоли по компонентам
}

type TelemetryConfig struct {
	Enabled     bool   `yaml:"enabled"`
	ServiceName string `yaml:"service_name"`
	Endpoint    string `yaml:"endpoint"` // host:port OTLP/HTTP, пусто - localhost:4318
}

type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

// GetAddr возвращает адрес /metrics с приоритетом: config -> env -> выключено
func (m *MetricsConfig) GetAddr() string {
	if m.Addr != "" {
		return m.Addr
	}
	return os.Getenv("VOXEL_METRICS_ADDR")
}

// Default возвращает конфигурацию по умолчанию
func Default() Config {
	return Config{
		World: WorldConfig{
			ChunkWidth:   32,
			ChunkHeight:  32,
			DrawDistance: 2,
		},
		Generation: GenerationConfig{
			Seed: 0,
			Terrain: TerrainConfig{
				Scale:      30,
				Magnitude:  0.5,
				Offset:     0.2,
				WaterLevel: 3,
			},
			Biomes: BiomeConfig{
				Scale:             500,
				Variation:         VariationConfig{Amplitude: 0.2, Scale: 50},
				TundraToTemperate: 0.25,
				TemperateToJungle: 0.5,
				JungleToDesert:    0.75,
			},
			Resources: defaultResources(),
			Trees: TreeConfig{
				Trunk:  TrunkConfig{MinHeight: 4, MaxHeight: 7},
				Canopy: CanopyConfig{MinRadius: 2, MaxRadius: 3, Density: 0.7},
				Frequency: BiomeFrequency{
					Tundra:    0.005,
					Temperate: 0.01,
					Jungle:    0.03,
					Desert:    0.005,
				},
			},
			Clouds: CloudConfig{Scale: 30, Density: 0.3},
		},
		Streaming: StreamingConfig{
			Async:         false,
			BudgetPerTick: 1,
			Workers:       1,
		},
		Player: PlayerConfig{
			Radius:    0.5,
			Height:    1.75,
			MaxSpeed:  10,
			JumpSpeed: 10,
			Spawn:     ScaleConfig{X: 16, Y: 32, Z: 16},
		},
		Physics: PhysicsConfig{
			Gravity:        32,
			SimulationRate: 250,
			MaxSubSteps:    20,
		},
		Logging: LoggingConfig{Level: "info"},
		Telemetry: TelemetryConfig{
			ServiceName: "voxel-engine",
		},
	}
}

func defaultResources() []ResourceConfig {
	res := block.DefaultResources()
	out := make([]ResourceConfig, 0, len(res))
	for _, r := range res {
		out = append(out, ResourceConfig{
			Block:    r.ID.String(),
			Scale:    ScaleConfig{X: r.Scale.X, Y: r.Scale.Y, Z: r.Scale.Z},
			Scarcity: r.Scarcity,
		})
	}
	return out
}

// ResourceTable переводит описание ресурсов в таблицу блоков
func (g GenerationConfig) ResourceTable() ([]block.Resource, error) {
	out := make([]block.Resource, 0, len(g.Resources))
	for _, rc := range g.Resources {
		id, err := block.ByName(rc.Block)
		if err != nil {
			return nil, fmt.Errorf("ресурс: %w", err)
		}
		out = append(out, block.Resource{
			ID:       id,
			Scale:    block.Scale{X: rc.Scale.X, Y: rc.Scale.Y, Z: rc.Scale.Z},
			Scarcity: rc.Scarcity,
		})
	}
	return out, nil
}

// Load читает YAML файл конфигурации поверх значений по умолчанию.
// Если path == "", пытается прочитать из ENV VOXEL_CONFIG, иначе возвращает Default().
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		path = os.Getenv("VOXEL_CONFIG")
		if path == "" {
			return &cfg, nil // конфиг не задан, используем дефолты
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("чтение конфигурации %s: %w", path, err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("разбор конфигурации %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate проверяет согласованность параметров
func (c *Config) Validate() error {
	v := &validator{}
	c.World.validate(v)
	c.Generation.validate(v)

	s := c.Streaming
	v.check(s.BudgetPerTick > 0, "streaming.budget_per_tick должен быть > 0")
	v.check(s.Workers >= 1, "streaming.workers должен быть >= 1")

	p := c.Player
	v.check(p.Radius > 0 && p.Height > 0, "player.radius и player.height должны быть > 0")

	v.check(c.Physics.SimulationRate >= 0, "physics.simulation_rate не может быть отрицательным")
	return v.err()
}

// Validate проверяет геометрию чанков
func (w WorldConfig) Validate() error {
	v := &validator{}
	w.validate(v)
	return v.err()
}

// Validate проверяет параметры генерации. Генератор вызывает её сам,
// поэтому конфигурация, собранная в коде, тоже проходит проверку.
func (g GenerationConfig) Validate() error {
	v := &validator{}
	g.validate(v)
	return v.err()
}

func (w WorldConfig) validate(v *validator) {
	v.check(w.ChunkWidth > 0, "world.chunk_width должен быть > 0, получено %d", w.ChunkWidth)
	v.check(w.ChunkHeight > 0, "world.chunk_height должен быть > 0, получено %d", w.ChunkHeight)
	v.check(w.DrawDistance >= 0, "world.draw_distance не может быть отрицательным")
}

func (g GenerationConfig) validate(v *validator) {
	v.check(g.Terrain.Scale > 0, "generation.terrain.scale должен быть > 0")
	v.check(g.Biomes.Scale > 0, "generation.biomes.scale должен быть > 0")
	v.check(g.Biomes.Variation.Scale > 0, "generation.biomes.variation.scale должен быть > 0")
	v.check(g.Biomes.TundraToTemperate <= g.Biomes.TemperateToJungle &&
		g.Biomes.TemperateToJungle <= g.Biomes.JungleToDesert,
		"пороги биомов должны возрастать")
	v.check(g.Trees.Trunk.MinHeight >= 0 && g.Trees.Trunk.MinHeight <= g.Trees.Trunk.MaxHeight,
		"generation.trees.trunk: неверный диапазон [%d, %d]", g.Trees.Trunk.MinHeight, g.Trees.Trunk.MaxHeight)
	v.check(g.Trees.Canopy.MinRadius >= 0 && g.Trees.Canopy.MinRadius <= g.Trees.Canopy.MaxRadius,
		"generation.trees.canopy: неверный диапазон [%d, %d]", g.Trees.Canopy.MinRadius, g.Trees.Canopy.MaxRadius)
	v.check(g.Clouds.Scale > 0, "generation.clouds.scale должен быть > 0")
	for i, r := range g.Resources {
		v.check(r.Scale.X > 0 && r.Scale.Y > 0 && r.Scale.Z > 0, "generation.resources[%d]: масштаб должен быть > 0", i)
	}
	if _, err := g.ResourceTable(); err != nil {
		v.errs = append(v.errs, err)
	}
}

// validator собирает все найденные ошибки, а не только первую
type validator struct {
	errs []error
}

func (v *validator) check(ok bool, format string, args ...interface{}) {
	if !ok {
		v.errs = append(v.errs, fmt.Errorf(format, args...))
	}
}

func (v *validator) err() error {
	if len(v.errs) == 0 {
		return nil
	}
	return fmt.Errorf("некорректная конфигурация: %w", errors.Join(v.errs...))
}
