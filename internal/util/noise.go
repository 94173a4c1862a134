package util

import (
	"encoding/binary"
	"sync"

	"github.com/aquilax/go-perlin"
	"github.com/cespare/xxhash/v2"
)

// Параметры генератора шума Перлина
const (
	perlinAlpha   = 2.0 // Сглаживание шума
	perlinBeta    = 2.0 // Частота шума
	perlinOctaves = 3   // Количество октав
)

// generators хранит неизменяемые таблицы перестановок по сиду.
// Perlin после создания только читается, поэтому выборка остаётся чистой функцией.
var generators sync.Map // map[int64]*perlin.Perlin

func generatorFor(seed int64) *perlin.Perlin {
	if p, ok := generators.Load(seed); ok {
		return p.(*perlin.Perlin)
	}
	p, _ := generators.LoadOrStore(seed, perlin.NewPerlin(perlinAlpha, perlinBeta, perlinOctaves, seed))
	return p.(*perlin.Perlin)
}

// Noise2D возвращает когерентный шум для (seed, x, z), примерно в диапазоне [-1, 1].
// Одинаковые аргументы всегда дают одинаковое значение.
func Noise2D(seed int64, x, z float64) float64 {
	return clampUnit(generatorFor(seed).Noise2D(x, z))
}

// Noise3D возвращает трехмерный когерентный шум, примерно в диапазоне [-1, 1]
func Noise3D(seed int64, x, y, z float64) float64 {
	return clampUnit(generatorFor(seed).Noise3D(x, y, z))
}

// Noise01 переводит значение шума из [-1, 1] в [0, 1]
func Noise01(value float64) float64 {
	return (value + 1.0) / 2.0
}

// ChunkSeed выводит сид ГПСЧ чанка из глобального сида и координат чанка
func ChunkSeed(seed int64, chunkX, chunkZ int) int64 {
	var buf [24]byte
	binary.LittleEndian.PutUint64(buf[0:], uint64(seed))
	binary.LittleEndian.PutUint64(buf[8:], uint64(int64(chunkX)))
	binary.LittleEndian.PutUint64(buf[16:], uint64(int64(chunkZ)))
	return int64(xxhash.Sum64(buf[:]))
}

func clampUnit(v float64) float64 {
	if v < -1 {
		return -1
	}
	if v > 1 {
		return 1
	}
	return v
}
