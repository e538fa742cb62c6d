package game

import (
	"time"

	"walkthrough/backend/internal/telemetry"
)

// stage общие поля этапов кадра
type stage struct {
	name     string
	priority int
	o        *Orchestrator
}

// GetName возвращает имя этапа
func (s *stage) GetName() string {
	return s.name
}

// GetPriority возвращает приоритет этапа
func (s *stage) GetPriority() int {
	return s.priority
}

// EventStage разбирает очередь событий устройств. Выполняется всегда.
type EventStage struct{ stage }

// NewEventStage создает этап событий
func NewEventStage(o *Orchestrator) *EventStage {
	return &EventStage{stage{name: "events", priority: 0, o: o}}
}

// Update применяет все события, накопленные с прошлого кадра
func (es *EventStage) Update(time.Duration) error {
	for {
		select {
		case ev := <-es.o.inbox:
			es.o.apply(ev)
		default:
			return nil
		}
	}
}

// InputStage продвигает взгляд и вычисляет запрос движения
type InputStage struct{ stage }

// NewInputStage создает этап ввода
func NewInputStage(o *Orchestrator) *InputStage {
	return &InputStage{stage{name: "input", priority: 10, o: o}}
}

// Update работает только в иммерсивном режиме
func (is *InputStage) Update(deltaTime time.Duration) error {
	o := is.o
	if !o.current.presenting || o.Input == nil {
		return nil
	}

	if o.Locomotion != nil {
		o.Input.UpdateGaze(deltaTime, o.Locomotion.LookDirection())
	}
	o.current.moving = o.Input.MoveRequested()
	return nil
}

// LocomotionStage двигает риг, если движение запрошено
type LocomotionStage struct{ stage }

// NewLocomotionStage создает этап движения
func NewLocomotionStage(o *Orchestrator) *LocomotionStage {
	return &LocomotionStage{stage{name: "locomotion", priority: 20, o: o}}
}

func (ls *LocomotionStage) Update(deltaTime time.Duration) error {
	o := ls.o
	if !o.current.presenting || !o.current.moving || o.Locomotion == nil {
		return nil
	}
	o.current.step = o.Locomotion.Step(deltaTime)
	return nil
}

// ProximityStage показывает панель ближайшей точки интереса
type ProximityStage struct{ stage }

// NewProximityStage создает этап близости
func NewProximityStage(o *Orchestrator) *ProximityStage {
	return &ProximityStage{stage{name: "proximity", priority: 30, o: o}}
}

func (ps *ProximityStage) Update(time.Duration) error {
	o := ps.o
	if !o.current.presenting || o.Proximity == nil || o.Locomotion == nil {
		return nil
	}
	o.Proximity.Evaluate(o.Locomotion.Rig.Position, o.Locomotion.ViewerPosition())
	return nil
}

// PresentStage сообщает о смене иммерсивного режима и отдает кадр на отрисовку
type PresentStage struct{ stage }

// NewPresentStage создает этап отрисовки
func NewPresentStage(o *Orchestrator) *PresentStage {
	return &PresentStage{stage{name: "present", priority: 100, o: o}}
}

func (ps *PresentStage) Update(time.Duration) error {
	o := ps.o
	if o.Presenter == nil {
		return nil
	}

	if o.current.presenting != o.immersive {
		o.immersive = o.current.presenting
		o.Presenter.RecomputeViewport()
		o.logger.Infow("immersive session changed", "session", o.session, "immersive", o.immersive)
	}

	o.Presenter.Render(o.State())
	return nil
}

// TelemetryStage записывает кадр в телеметрию
type TelemetryStage struct{ stage }

// NewTelemetryStage создает этап телеметрии
func NewTelemetryStage(o *Orchestrator) *TelemetryStage {
	return &TelemetryStage{stage{name: "telemetry", priority: 200, o: o}}
}

func (ts *TelemetryStage) Update(time.Duration) error {
	o := ts.o
	if o.Recorder == nil {
		return nil
	}

	state := o.State()
	step := o.current.step
	pos := state.Rig.Position

	o.Recorder.Record(telemetry.FrameSample{
		Session:           o.session,
		Frame:             state.Frame,
		Position:          telemetry.Vector3{X: pos.X(), Y: pos.Y(), Z: pos.Z()},
		Mode:              state.Mode.String(),
		Moving:            state.Moving,
		Advanced:          step.Advanced,
		Blocked:           step.Blocked,
		LateralCorrection: step.LateralCorrection,
		FloorSnapped:      step.FloorSnapped,
		Footstep:          step.Footstep,
		ActivePOI:         state.ActivePOI,
	})
	o.Recorder.PrintSummary()
	return nil
}
