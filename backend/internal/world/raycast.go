package world

import (
	"sync/atomic"

	"github.com/go-gl/mathgl/mgl64"
)

// Proxy невидимая коллизионная геометрия: полы и стены здания
type Proxy struct {
	Meshes []*Mesh
}

// NewProxy собирает прокси из сеток объектов
func NewProxy(meshes ...*Mesh) *Proxy {
	p := &Proxy{}
	for _, m := range meshes {
		if m != nil && len(m.Triangles) > 0 {
			p.Meshes = append(p.Meshes, m)
		}
	}
	return p
}

// TriangleCount общее число треугольников прокси
func (p *Proxy) TriangleCount() int {
	n := 0
	for _, m := range p.Meshes {
		n += len(m.Triangles)
	}
	return n
}

// Raycaster выполняет запросы лучей только к прокси.
// Прокси публикуется загрузчиком через атомарный указатель, кадр читает его без блокировок.
type Raycaster struct {
	proxy atomic.Pointer[Proxy]
}

// NewRaycaster создает сервис запросов без прокси
func NewRaycaster() *Raycaster {
	return &Raycaster{}
}

// SetProxy публикует прокси. nil снимает прокси.
func (r *Raycaster) SetProxy(p *Proxy) {
	r.proxy.Store(p)
}

// HasProxy сообщает, загружен ли прокси
func (r *Raycaster) HasProxy() bool {
	return r.proxy.Load() != nil
}

// CastRay возвращает ближайшее пересечение луча с прокси.
// Без прокси попаданий нет: стены еще неизвестны.
func (r *Raycaster) CastRay(origin, direction mgl64.Vec3) (Hit, bool) {
	proxy := r.proxy.Load()
	if proxy == nil {
		return Hit{}, false
	}

	if direction.Len() < rayEpsilon {
		return Hit{}, false
	}
	direction = direction.Normalize()

	var best Hit
	found := false
	for _, mesh := range proxy.Meshes {
		hit, ok := mesh.Raycast(origin, direction)
		if ok && (!found || hit.Distance < best.Distance) {
			best = hit
			found = true
		}
	}
	return best, found
}
