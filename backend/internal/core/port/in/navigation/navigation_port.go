package navigation

import (
	"context"

	"github.com/go-gl/mathgl/mgl64"

	"walkthrough/backend/internal/core/domain/entity"
	"walkthrough/backend/internal/core/port/out/audio"
	"walkthrough/backend/internal/core/port/out/panel"
	"walkthrough/backend/internal/core/port/out/presentation"
	"walkthrough/backend/internal/world"
)

// Outputs стороны, куда сессия отдает результат кадра. Любая может быть nil.
type Outputs struct {
	Presenter presentation.Presenter
	Panel     panel.Panel
	Audio     audio.Player
}

// SceneObject описание объекта сцены для клиента
type SceneObject struct {
	Name       string           `json:"name"`
	Category   string           `json:"category"`
	Position   mgl64.Vec3       `json:"position"`
	Appearance world.Appearance `json:"appearance"`
}

// Session одна прогулка одного посетителя
type Session interface {
	ID() string

	// Post передает событие устройства в кадр. false, если очередь переполнена.
	Post(ev entity.DeviceEvent) bool

	// Close останавливает кадры и звук. Идемпотентно.
	Close()
}

// NavigationPort определяет входной порт сервиса прогулки
type NavigationPort interface {
	OpenSession(ctx context.Context, id string, out Outputs) (Session, error)

	// Manifest объекты загруженной сцены
	Manifest() []SceneObject

	// Ready загружен ли коллизионный прокси
	Ready() bool
}
