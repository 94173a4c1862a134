package vec

// Vec2 представляет целочисленные координаты на плоскости XZ.
// Используется как координата чанка (cx, cz).
type Vec2 struct {
	X, Z int
}

// FloorDiv делит с округлением к минус бесконечности (в отличие от оператора /).
func FloorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// ChunkOf возвращает координаты чанка, содержащего мировую колонку (worldX, worldZ)
func ChunkOf(worldX, worldZ, width int) Vec2 {
	return Vec2{X: FloorDiv(worldX, width), Z: FloorDiv(worldZ, width)}
}

// Origin возвращает мировые координаты угла чанка
func (v Vec2) Origin(width int) (int, int) {
	return v.X * width, v.Z * width
}

// Add складывает два вектора
func (v Vec2) Add(other Vec2) Vec2 {
	return Vec2{X: v.X + other.X, Z: v.Z + other.Z}
}

// ChebyshevDistance возвращает расстояние Чебышёва (max(|dx|, |dz|))
func (v Vec2) ChebyshevDistance(other Vec2) int {
	dx := v.X - other.X
	if dx < 0 {
		dx = -dx
	}
	dz := v.Z - other.Z
	if dz < 0 {
		dz = -dz
	}
	if dx > dz {
		return dx
	}
	return dz
}
