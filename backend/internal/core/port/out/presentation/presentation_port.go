package presentation

import "walkthrough/backend/internal/core/domain/entity"

// Presenter определяет интерфейс стороны, которая рисует кадр
type Presenter interface {
	// IsPresenting сообщает, идет ли иммерсивная сессия
	IsPresenting() bool

	// RecomputeViewport пересчитывает проекцию при входе и выходе из иммерсивного режима
	RecomputeViewport()

	// Render передает итог кадра на отрисовку
	Render(state entity.FrameState)
}
