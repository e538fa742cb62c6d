package world

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Heightfield регулярная сетка высот (полы, пандусы, лестничные марши)
type Heightfield struct {
	Origin  mgl64.Vec3 // угол сетки с минимальными x и z
	Cols    int
	Rows    int
	Cell    float64
	Heights []float64 // (Cols+1)*(Rows+1) узлов, построчно по z
}

// NewHeightfield строит сетку, вычисляя высоту в каждом узле
func NewHeightfield(origin mgl64.Vec3, cols, rows int, cell float64, height func(x, z float64) float64) *Heightfield {
	h := &Heightfield{
		Origin:  origin,
		Cols:    cols,
		Rows:    rows,
		Cell:    cell,
		Heights: make([]float64, (cols+1)*(rows+1)),
	}

	for j := 0; j <= rows; j++ {
		for i := 0; i <= cols; i++ {
			x := origin.X() + float64(i)*cell
			z := origin.Z() + float64(j)*cell
			h.Heights[j*(cols+1)+i] = origin.Y() + height(x, z)
		}
	}

	return h
}

func (h *Heightfield) node(i, j int) mgl64.Vec3 {
	return mgl64.Vec3{
		h.Origin.X() + float64(i)*h.Cell,
		h.Heights[j*(h.Cols+1)+i],
		h.Origin.Z() + float64(j)*h.Cell,
	}
}

// Triangles по два треугольника на ячейку
func (h *Heightfield) Triangles() []Triangle {
	tris := make([]Triangle, 0, h.Cols*h.Rows*2)
	for j := 0; j < h.Rows; j++ {
		for i := 0; i < h.Cols; i++ {
			a := h.node(i, j)
			b := h.node(i+1, j)
			c := h.node(i, j+1)
			d := h.node(i+1, j+1)
			tris = append(tris, Triangle{A: a, B: c, C: b}, Triangle{A: b, B: c, C: d})
		}
	}
	return tris
}

// Flat ровный пол
func Flat(float64, float64) float64 {
	return 0
}

// RampProfile плавный подъем на rise между zStart и zEnd, внутри полосы xMin..xMax
func RampProfile(xMin, xMax, zStart, zEnd, rise float64) func(x, z float64) float64 {
	return func(x, z float64) float64 {
		if x < xMin || x > xMax {
			return 0
		}
		t := (z - zStart) / (zEnd - zStart)
		t = math.Max(0, math.Min(1, t))
		return rise * smoothstepValue(t)
	}
}

// smoothstepValue функция интерполяции для сглаживания
func smoothstepValue(t float64) float64 {
	return t * t * (3.0 - 2.0*t)
}
