package world

import "sync"

// Manager граф сцены: именованные объекты в порядке загрузки
type Manager struct {
	objects map[string]*Object
	order   []string
	mu      sync.RWMutex
}

func NewManager() *Manager {
	return &Manager{
		objects: make(map[string]*Object),
	}
}

// AddObject добавляет объект. Повторное имя заменяет объект, сохраняя его место.
func (m *Manager) AddObject(obj *Object) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.objects[obj.Name]; !exists {
		m.order = append(m.order, obj.Name)
	}
	m.objects[obj.Name] = obj
}

// ObjectByName ищет объект по имени
func (m *Manager) ObjectByName(name string) (*Object, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, exists := m.objects[name]
	return obj, exists
}

// Objects возвращает все объекты в порядке добавления
func (m *Manager) Objects() []*Object {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*Object, 0, len(m.order))
	for _, name := range m.order {
		result = append(result, m.objects[name])
	}
	return result
}

// ObjectsByCategory возвращает объекты одной категории
func (m *Manager) ObjectsByCategory(c Category) []*Object {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []*Object
	for _, name := range m.order {
		if obj := m.objects[name]; obj.Category == c {
			result = append(result, obj)
		}
	}
	return result
}

// Len количество объектов в сцене
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.order)
}
