package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/annel0/voxel-engine/internal/world/block"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	res, err := cfg.Generation.ResourceTable()
	require.NoError(t, err)
	assert.Equal(t, block.DefaultResources(), res)
}

func TestLoadWithoutPathReturnsDefaults(t *testing.T) {
	t.Setenv("VOXEL_CONFIG", "")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), *cfg)
}

func TestLoadOverridesOnlyGivenKeys(t *testing.T) {
	path := writeConfig(t, `
world:
  chunk_width: 64
generation:
  seed: 1234
  terrain:
    magnitude: 0.3
streaming:
  async: true
  budget_per_tick: 4
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	def := Default()
	assert.Equal(t, 64, cfg.World.ChunkWidth)
	assert.Equal(t, def.World.ChunkHeight, cfg.World.ChunkHeight, "незаданные ключи сохраняют дефолт")
	assert.Equal(t, int64(1234), cfg.Generation.Seed)
	assert.Equal(t, 0.3, cfg.Generation.Terrain.Magnitude)
	assert.Equal(t, def.Generation.Terrain.Scale, cfg.Generation.Terrain.Scale)
	assert.True(t, cfg.Streaming.Async)
	assert.Equal(t, 4, cfg.Streaming.BudgetPerTick)
	assert.Len(t, cfg.Generation.Resources, len(def.Generation.Resources))
}

func TestLoadFromEnv(t *testing.T) {
	path := writeConfig(t, "world:\n  draw_distance: 5\n")
	t.Setenv("VOXEL_CONFIG", path)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.World.DrawDistance)
}

func TestLoadEmptyFile(t *testing.T) {
	cfg, err := Load(writeConfig(t, ""))
	require.NoError(t, err)
	assert.Equal(t, Default(), *cfg)
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	_, err := Load(writeConfig(t, "world:\n  chunk_depth: 3\n"))
	assert.Error(t, err)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	_, err := Load(writeConfig(t, `
world:
  chunk_width: 0
generation:
  resources:
    - block: lava
      scale: {x: 1, y: 1, z: 1}
      scarcity: 0.5
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chunk_width")
	assert.Contains(t, err.Error(), "lava")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestMetricsAddrFallback(t *testing.T) {
	t.Setenv("VOXEL_METRICS_ADDR", ":9100")

	m := MetricsConfig{}
	assert.Equal(t, ":9100", m.GetAddr())

	m.Addr = ":2112"
	assert.Equal(t, ":2112", m.GetAddr())
}

func TestSampleConfigLoads(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", "configs", "voxelsim.yaml"))
	require.NoError(t, err)
	assert.Equal(t, int64(1337), cfg.Generation.Seed)
	assert.Equal(t, 2, cfg.Streaming.Workers)
	assert.Equal(t, ":2112", cfg.Metrics.GetAddr())
	assert.Equal(t, Default().Generation.Trees.Trunk, cfg.Generation.Trees.Trunk)
	assert.Equal(t, map[string]string{"physics": "warn"}, cfg.Logging.Components)
}

func TestGenerationValidateRanges(t *testing.T) {
	g := Default().Generation
	require.NoError(t, g.Validate())

	g.Trees.Trunk = TrunkConfig{MinHeight: 5, MaxHeight: 2}
	g.Trees.Canopy = CanopyConfig{MinRadius: 3, MaxRadius: 1}
	err := g.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "trunk")
	assert.Contains(t, err.Error(), "canopy")

	assert.Error(t, WorldConfig{ChunkWidth: 8}.Validate())
}
