package panel

import "github.com/go-gl/mathgl/mgl64"

// Имена текстовых полей панели
const (
	FieldName = "name"
	FieldInfo = "info"
)

// Panel определяет интерфейс информационной панели
type Panel interface {
	SetPosition(position mgl64.Vec3)

	// LookAt поворачивает панель лицом к точке
	LookAt(target mgl64.Vec3)

	SetField(name, text string)
	SetVisible(visible bool)

	// Update перерисовывает панель после изменения полей
	Update()
}
