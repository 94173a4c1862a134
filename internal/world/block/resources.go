package block

// Scale задаёт масштаб 3-D шума по осям
type Scale struct {
	X, Y, Z float64
}

// Resource описывает подземный ресурс (руду), размещаемый по 3-D шуму
type Resource struct {
	ID       BlockID
	Scale    Scale
	Scarcity float64 // порог шума: ресурс ставится, если значение выше
}

// DefaultResources возвращает ресурсы по умолчанию.
// Порядок важен: более поздний ресурс перекрывает более ранний.
func DefaultResources() []Resource {
	return []Resource{
		{ID: StoneBlockID, Scale: Scale{X: 30, Y: 20, Z: 30}, Scarcity: 0.8},
		{ID: CoalOreBlockID, Scale: Scale{X: 20, Y: 20, Z: 20}, Scarcity: 0.8},
		{ID: IronOreBlockID, Scale: Scale{X: 40, Y: 40, Z: 40}, Scarcity: 0.9},
	}
}
