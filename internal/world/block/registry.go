package block

import "fmt"

// BlockID представляет идентификатор типа блока
type BlockID uint8

// Константы ID блоков. Набор закрыт и известен при старте.
const (
	EmptyBlockID BlockID = iota // 0 - пустота (воздух), единственный несолидный тип
	GrassBlockID
	DirtBlockID
	StoneBlockID
	CoalOreBlockID
	IronOreBlockID
	SandBlockID
	SnowBlockID
	TreeBlockID
	LeavesBlockID
	JungleTreeBlockID
	JungleLeavesBlockID
	CactusBlockID
	CloudBlockID

	blockCount // всегда последний
)

// Properties описывает статические свойства типа блока
type Properties struct {
	ID       BlockID
	Name     string
	Solid    bool // участвует в коллизиях и перекрытии граней
	Surface  bool // может быть верхним блоком колонки
	Resource bool // встречается только под поверхностью
}

// table заполняется один раз при инициализации пакета и больше не изменяется
var table = [blockCount]Properties{
	EmptyBlockID:        {ID: EmptyBlockID, Name: "empty"},
	GrassBlockID:        {ID: GrassBlockID, Name: "grass", Solid: true, Surface: true},
	DirtBlockID:         {ID: DirtBlockID, Name: "dirt", Solid: true},
	StoneBlockID:        {ID: StoneBlockID, Name: "stone", Solid: true, Resource: true},
	CoalOreBlockID:      {ID: CoalOreBlockID, Name: "coal_ore", Solid: true, Resource: true},
	IronOreBlockID:      {ID: IronOreBlockID, Name: "iron_ore", Solid: true, Resource: true},
	SandBlockID:         {ID: SandBlockID, Name: "sand", Solid: true, Surface: true},
	SnowBlockID:         {ID: SnowBlockID, Name: "snow", Solid: true, Surface: true},
	TreeBlockID:         {ID: TreeBlockID, Name: "tree", Solid: true},
	LeavesBlockID:       {ID: LeavesBlockID, Name: "leaves", Solid: true},
	JungleTreeBlockID:   {ID: JungleTreeBlockID, Name: "jungle_tree", Solid: true},
	JungleLeavesBlockID: {ID: JungleLeavesBlockID, Name: "jungle_leaves", Solid: true},
	CactusBlockID:       {ID: CactusBlockID, Name: "cactus", Solid: true},
	CloudBlockID:        {ID: CloudBlockID, Name: "cloud", Solid: true},
}

// Get возвращает свойства для указанного ID
func Get(id BlockID) (Properties, bool) {
	if !IsValidBlockID(id) {
		return Properties{}, false
	}
	return table[id], true
}

// IsValidBlockID проверяет, является ли ID допустимым идентификатором блока
func IsValidBlockID(id BlockID) bool {
	return id < blockCount
}

// IsSolid возвращает true для всех известных типов, кроме пустоты
func IsSolid(id BlockID) bool {
	return id != EmptyBlockID && id < blockCount
}

// All возвращает свойства всех типов блоков в порядке ID
func All() []Properties {
	out := make([]Properties, len(table))
	copy(out, table[:])
	return out
}

// SolidIDs возвращает ID всех солидных типов
func SolidIDs() []BlockID {
	ids := make([]BlockID, 0, len(table)-1)
	for _, p := range table {
		if p.Solid {
			ids = append(ids, p.ID)
		}
	}
	return ids
}

// ByName ищет тип блока по имени (используется конфигурацией)
func ByName(name string) (BlockID, error) {
	for _, p := range table {
		if p.Name == name {
			return p.ID, nil
		}
	}
	return EmptyBlockID, fmt.Errorf("неизвестный тип блока %q", name)
}

// String возвращает имя блока
func (id BlockID) String() string {
	if p, ok := Get(id); ok {
		return p.Name
	}
	return fmt.Sprintf("block(%d)", uint8(id))
}
