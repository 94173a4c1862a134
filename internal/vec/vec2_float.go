package vec

import "math"

// Vec2Float представляет вектор в горизонтальной плоскости XZ
type Vec2Float struct {
	X, Z float64
}

// Horizontal возвращает проекцию вектора на плоскость XZ
func (v Vec3Float) Horizontal() Vec2Float {
	return Vec2Float{X: v.X, Z: v.Z}
}

// Sub вычитает вектор
func (v Vec2Float) Sub(other Vec2Float) Vec2Float {
	return Vec2Float{X: v.X - other.X, Z: v.Z - other.Z}
}

// Normalized возвращает нормализованный вектор
func (v Vec2Float) Normalized() Vec2Float {
	length := v.Length()
	if length == 0 {
		return Vec2Float{}
	}
	return Vec2Float{X: v.X / length, Z: v.Z / length}
}

// Length возвращает длину вектора
func (v Vec2Float) Length() float64 {
	return math.Sqrt(v.LengthSq())
}

// LengthSq возвращает квадрат длины (без извлечения корня)
func (v Vec2Float) LengthSq() float64 {
	return v.X*v.X + v.Z*v.Z
}

// To3D поднимает вектор в пространство с заданной Y
func (v Vec2Float) To3D(y float64) Vec3Float {
	return Vec3Float{X: v.X, Y: y, Z: v.Z}
}
