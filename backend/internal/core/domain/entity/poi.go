package entity

import "sync"

// PointOfInterest именованное место, панель которого показывается при приближении посетителя.
// Name совпадает с именем объекта сцены, по которому ищется якорь.
type PointOfInterest struct {
	Name  string `json:"-"`
	Title string `json:"name"`
	Body  string `json:"info"`
}

// Registry точки интереса в порядке добавления.
// Заполняется загрузчиком один раз, дальше только читается. Блокировка нужна на момент передачи.
type Registry struct {
	mu      sync.RWMutex
	order   []string
	entries map[string]PointOfInterest
}

// NewRegistry создает пустой реестр
func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[string]PointOfInterest),
	}
}

// Add добавляет или заменяет точку. Замененная точка сохраняет прежнее место в порядке.
func (r *Registry) Add(poi PointOfInterest) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[poi.Name]; !exists {
		r.order = append(r.order, poi.Name)
	}
	r.entries[poi.Name] = poi
}

// Get точка по имени
func (r *Registry) Get(name string) (PointOfInterest, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	poi, ok := r.entries[name]
	return poi, ok
}

// Entries копия всех точек в порядке добавления
func (r *Registry) Entries() []PointOfInterest {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]PointOfInterest, 0, len(r.order))
	for _, name := range r.order {
		result = append(result, r.entries[name])
	}
	return result
}

// Len число точек
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}
