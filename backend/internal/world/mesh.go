package world

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

const rayEpsilon = 1e-12

// Hit результат пересечения луча с геометрией
type Hit struct {
	Distance float64
	Point    mgl64.Vec3
}

// Triangle треугольник в мировых координатах
type Triangle struct {
	A, B, C mgl64.Vec3
}

// Normal возвращает единичную нормаль по правилу обхода A-B-C
func (t Triangle) Normal() mgl64.Vec3 {
	n := t.B.Sub(t.A).Cross(t.C.Sub(t.A))
	if n.Len() < rayEpsilon {
		return mgl64.Vec3{}
	}
	return n.Normalize()
}

// Intersect проверяет пересечение луча с треугольником (Möller–Trumbore).
// Обе стороны треугольника считаются твердыми, обход вершин в прокси произвольный.
func (t Triangle) Intersect(origin, dir mgl64.Vec3) (float64, bool) {
	edge1 := t.B.Sub(t.A)
	edge2 := t.C.Sub(t.A)

	p := dir.Cross(edge2)
	det := edge1.Dot(p)
	if math.Abs(det) < rayEpsilon {
		// Луч параллелен плоскости треугольника
		return 0, false
	}
	invDet := 1.0 / det

	s := origin.Sub(t.A)
	u := s.Dot(p) * invDet
	if u < 0 || u > 1 {
		return 0, false
	}

	q := s.Cross(edge1)
	v := dir.Dot(q) * invDet
	if v < 0 || u+v > 1 {
		return 0, false
	}

	distance := edge2.Dot(q) * invDet
	if distance < 0 {
		return 0, false
	}
	return distance, true
}

// AABB ограничивающий параллелепипед, выровненный по осям
type AABB struct {
	Min, Max mgl64.Vec3
}

// EmptyAABB возвращает пустой бокс, готовый к расширению
func EmptyAABB() AABB {
	inf := math.Inf(1)
	return AABB{
		Min: mgl64.Vec3{inf, inf, inf},
		Max: mgl64.Vec3{-inf, -inf, -inf},
	}
}

// Empty сообщает, что в бокс не добавлено ни одной точки
func (b AABB) Empty() bool {
	return b.Min.X() > b.Max.X()
}

// Extend расширяет бокс до точки p
func (b *AABB) Extend(p mgl64.Vec3) {
	for i := 0; i < 3; i++ {
		b.Min[i] = math.Min(b.Min[i], p[i])
		b.Max[i] = math.Max(b.Max[i], p[i])
	}
}

// Center центр бокса
func (b AABB) Center() mgl64.Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

// IntersectRay slab-тест. Возвращает true, если луч проходит через бокс на отрезке [0, +inf).
func (b AABB) IntersectRay(origin, dir mgl64.Vec3) bool {
	if b.Empty() {
		return false
	}

	tmin := 0.0
	tmax := math.Inf(1)

	for i := 0; i < 3; i++ {
		if math.Abs(dir[i]) < rayEpsilon {
			if origin[i] < b.Min[i] || origin[i] > b.Max[i] {
				return false
			}
			continue
		}

		inv := 1.0 / dir[i]
		t1 := (b.Min[i] - origin[i]) * inv
		t2 := (b.Max[i] - origin[i]) * inv
		if t1 > t2 {
			t1, t2 = t2, t1
		}

		tmin = math.Max(tmin, t1)
		tmax = math.Min(tmax, t2)
		if tmin > tmax {
			return false
		}
	}

	return true
}

// Mesh треугольная сетка с предвычисленным AABB
type Mesh struct {
	Triangles []Triangle
	Bounds    AABB
}

// NewMesh создает сетку и вычисляет ее границы
func NewMesh(triangles []Triangle) *Mesh {
	bounds := EmptyAABB()
	for _, tri := range triangles {
		bounds.Extend(tri.A)
		bounds.Extend(tri.B)
		bounds.Extend(tri.C)
	}

	return &Mesh{
		Triangles: triangles,
		Bounds:    bounds,
	}
}

// Raycast возвращает ближайшее пересечение луча с сеткой
func (m *Mesh) Raycast(origin, dir mgl64.Vec3) (Hit, bool) {
	if m == nil || !m.Bounds.IntersectRay(origin, dir) {
		return Hit{}, false
	}

	best := math.Inf(1)
	found := false
	for _, tri := range m.Triangles {
		if d, ok := tri.Intersect(origin, dir); ok && d < best {
			best = d
			found = true
		}
	}

	if !found {
		return Hit{}, false
	}

	return Hit{
		Distance: best,
		Point:    origin.Add(dir.Mul(best)),
	}, true
}
