package block

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOnlyEmptyIsNotSolid(t *testing.T) {
	for _, p := range All() {
		if p.ID == EmptyBlockID {
			assert.False(t, IsSolid(p.ID), "пустота не должна быть солидной")
			continue
		}
		assert.True(t, IsSolid(p.ID), "блок %s должен быть солидным", p.Name)
		assert.Equal(t, p.Solid, IsSolid(p.ID))
	}
	assert.False(t, IsSolid(blockCount), "неизвестный ID не солиден")
}

func TestTableIsIndexedByID(t *testing.T) {
	for i, p := range All() {
		assert.Equal(t, BlockID(i), p.ID, "таблица должна индексироваться по ID")
		assert.NotEmpty(t, p.Name)
	}
	assert.Len(t, SolidIDs(), int(blockCount)-1)
}

func TestAllReturnsCopy(t *testing.T) {
	all := All()
	all[GrassBlockID].Name = "changed"

	p, ok := Get(GrassBlockID)
	require.True(t, ok)
	assert.Equal(t, "grass", p.Name, "статическая таблица не должна изменяться снаружи")
}

func TestByName(t *testing.T) {
	id, err := ByName("coal_ore")
	require.NoError(t, err)
	assert.Equal(t, CoalOreBlockID, id)

	_, err = ByName("lava")
	assert.Error(t, err)
}

func TestResourcesAreBelowSurfaceBlocks(t *testing.T) {
	for _, r := range DefaultResources() {
		p, ok := Get(r.ID)
		require.True(t, ok)
		assert.True(t, p.Resource, "%s должен быть ресурсом", p.Name)
		assert.False(t, p.Surface)
	}
}
