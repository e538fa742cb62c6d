package game

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"walkthrough/backend/internal/core/domain/entity"
	"walkthrough/backend/internal/core/port/out/presentation"
	"walkthrough/backend/internal/telemetry"
)

// DefaultInboxSize емкость очереди событий устройств
const DefaultInboxSize = 256

// Components участники кадра одной сессии
type Components struct {
	Input      *InputArbiter
	Locomotion *Locomotion
	Proximity  *Proximity
	Presenter  presentation.Presenter
	Recorder   *telemetry.Recorder
}

// frameContext данные текущего кадра, которые этапы передают друг другу
type frameContext struct {
	dt         time.Duration
	presenting bool
	moving     bool
	step       StepResult
}

// Orchestrator выполняет кадр сессии: события устройств, ввод, движение, близость, отрисовка.
// Frame вызывается только из одной горутины. Post безопасен из любой.
type Orchestrator struct {
	session string
	clock   clock.Clock

	inbox   chan entity.DeviceEvent
	dropped atomic.Uint64

	Components

	monitor *StageMonitor

	stages      []Stage
	stagesMutex sync.RWMutex

	frame     uint64
	lastTime  time.Time
	started   bool
	immersive bool
	current   frameContext

	logger *zap.SugaredLogger
}

// NewOrchestrator создает оркестратор со стандартным набором этапов
func NewOrchestrator(session string, c Components, inboxSize int, clk clock.Clock, logger *zap.SugaredLogger) *Orchestrator {
	if inboxSize <= 0 {
		inboxSize = DefaultInboxSize
	}
	if clk == nil {
		clk = clock.New()
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	o := &Orchestrator{
		session:    session,
		clock:      clk,
		inbox:      make(chan entity.DeviceEvent, inboxSize),
		Components: c,
		monitor:    NewStageMonitor(50, 4*time.Millisecond, clk, logger.Named("stages")),
		logger:     logger,
	}

	o.RegisterStage(NewEventStage(o))
	o.RegisterStage(NewInputStage(o))
	o.RegisterStage(NewLocomotionStage(o))
	o.RegisterStage(NewProximityStage(o))
	o.RegisterStage(NewPresentStage(o))
	if c.Recorder != nil {
		o.RegisterStage(NewTelemetryStage(o))
	}

	return o
}

// RegisterStage добавляет этап с сохранением порядка по приоритету
func (o *Orchestrator) RegisterStage(stage Stage) {
	o.stagesMutex.Lock()
	defer o.stagesMutex.Unlock()

	o.stages = append(o.stages, stage)

	// Сортируем по приоритету (меньше = раньше)
	for i := len(o.stages) - 1; i > 0; i-- {
		if o.stages[i].GetPriority() < o.stages[i-1].GetPriority() {
			o.stages[i], o.stages[i-1] = o.stages[i-1], o.stages[i]
		} else {
			break
		}
	}
}

// StageNames имена этапов в порядке выполнения
func (o *Orchestrator) StageNames() []string {
	o.stagesMutex.RLock()
	defer o.stagesMutex.RUnlock()

	names := make([]string, len(o.stages))
	for i, s := range o.stages {
		names[i] = s.GetName()
	}
	return names
}

// Post ставит событие устройства в очередь до следующего кадра.
// Не блокируется: при переполненной очереди событие отбрасывается и возвращается false.
func (o *Orchestrator) Post(ev entity.DeviceEvent) bool {
	select {
	case o.inbox <- ev:
		return true
	default:
		if o.dropped.Add(1) == 1 {
			o.logger.Warnw("device event inbox full, dropping events", "session", o.session)
		}
		return false
	}
}

// Dropped сколько событий отброшено
func (o *Orchestrator) Dropped() uint64 {
	return o.dropped.Load()
}

// Frame выполняет один кадр. dt первого кадра равен нулю.
func (o *Orchestrator) Frame() {
	now := o.clock.Now()
	var dt time.Duration
	if o.started {
		dt = now.Sub(o.lastTime)
	}
	o.started = true
	o.lastTime = now
	o.frame++

	o.current = frameContext{dt: dt}
	if o.Presenter != nil {
		o.current.presenting = o.Presenter.IsPresenting()
	}

	o.stagesMutex.RLock()
	stages := make([]Stage, len(o.stages))
	copy(stages, o.stages)
	o.stagesMutex.RUnlock()

	for _, stage := range stages {
		o.monitor.Run(stage, dt)
	}
}

// FrameCount номер последнего кадра
func (o *Orchestrator) FrameCount() uint64 {
	return o.frame
}

// Immersive последнее состояние иммерсивного режима, известное кадру
func (o *Orchestrator) Immersive() bool {
	return o.immersive
}

// Monitor метрики этапов
func (o *Orchestrator) Monitor() *StageMonitor {
	return o.monitor
}

// State снимок для отрисовки
func (o *Orchestrator) State() entity.FrameState {
	state := entity.FrameState{
		Frame:     o.frame,
		Immersive: o.immersive,
		Moving:    o.current.moving,
		Footstep:  o.current.step.Footstep,
	}
	if o.Locomotion != nil {
		state.Rig = o.Locomotion.Rig
		state.Look = o.Locomotion.Look
	}
	if o.Input != nil {
		state.Mode = o.Input.Mode()
		state.Gaze = o.Input.GazeMode()
	}
	if o.Proximity != nil {
		state.ActivePOI = o.Proximity.Active()
	}
	return state
}

// apply применяет событие устройства. Вызывается только из кадра.
func (o *Orchestrator) apply(ev entity.DeviceEvent) {
	switch ev.Kind {
	case entity.ControllerConnectedEvent:
		if o.Input != nil {
			o.Input.ControllerConnected(ev.Index)
		}
	case entity.ControllerDisconnectedEvent:
		if o.Input != nil {
			o.Input.ControllerDisconnected(ev.Index)
		}
	case entity.SelectStartEvent:
		if o.Input != nil {
			o.Input.SelectStart(ev.Index)
		}
	case entity.SelectEndEvent:
		if o.Input != nil {
			o.Input.SelectEnd(ev.Index)
		}
	case entity.HeadPoseEvent:
		if o.Locomotion != nil {
			o.Locomotion.SetHeadPose(ev.Position, ev.Rotation)
		}
	default:
		o.logger.Debugw("unknown device event", "kind", ev.Kind)
	}
}
