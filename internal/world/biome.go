package world

import (
	"github.com/annel0/voxel-engine/internal/config"
	"github.com/annel0/voxel-engine/internal/world/block"
)

// BiomeType представляет тип биома колонки
type BiomeType int

const (
	BiomeTundra BiomeType = iota
	BiomeTemperate
	BiomeJungle
	BiomeDesert
)

func (b BiomeType) String() string {
	switch b {
	case BiomeTundra:
		return "tundra"
	case BiomeTemperate:
		return "temperate"
	case BiomeJungle:
		return "jungle"
	case BiomeDesert:
		return "desert"
	}
	return "unknown"
}

// classifyBiome выбирает биом по возрастающим порогам
func classifyBiome(value float64, cfg config.BiomeConfig) BiomeType {
	switch {
	case value < cfg.TundraToTemperate:
		return BiomeTundra
	case value < cfg.TemperateToJungle:
		return BiomeTemperate
	case value < cfg.JungleToDesert:
		return BiomeJungle
	default:
		return BiomeDesert
	}
}

// GroundBlock возвращает блок поверхности биома
func (b BiomeType) GroundBlock() block.BlockID {
	switch b {
	case BiomeTundra:
		return block.SnowBlockID
	case BiomeDesert:
		return block.SandBlockID
	default:
		return block.GrassBlockID
	}
}

// TrunkBlock возвращает блок ствола (для пустыни - кактус)
func (b BiomeType) TrunkBlock() block.BlockID {
	switch b {
	case BiomeJungle:
		return block.JungleTreeBlockID
	case BiomeDesert:
		return block.CactusBlockID
	default:
		return block.TreeBlockID
	}
}

// LeavesBlock возвращает блок кроны; ok=false, если у биома кроны нет
func (b BiomeType) LeavesBlock() (block.BlockID, bool) {
	switch b {
	case BiomeTemperate:
		return block.LeavesBlockID, true
	case BiomeJungle:
		return block.JungleLeavesBlockID, true
	}
	return block.EmptyBlockID, false
}

func treeFrequency(b BiomeType, f config.BiomeFrequency) float64 {
	switch b {
	case BiomeTundra:
		return f.Tundra
	case BiomeTemperate:
		return f.Temperate
	case BiomeJungle:
		return f.Jungle
	default:
		return f.Desert
	}
}
