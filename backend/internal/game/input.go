package game

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"

	"walkthrough/backend/internal/core/domain/entity"
)

// InputConfig настройки арбитража ввода
type InputConfig struct {
	FallbackTimeout time.Duration
	GazeDwell       time.Duration
	GazeTolerance   float64
}

// DefaultInputConfig значения по умолчанию
func DefaultInputConfig() InputConfig {
	return InputConfig{
		FallbackTimeout: 2 * time.Second,
		GazeDwell:       1500 * time.Millisecond,
		GazeTolerance:   0.1,
	}
}

// InputArbiter решает, откуда берется намерение двигаться: кнопка контроллера или взгляд.
//
// Режим хранится атомарно: таймер отката срабатывает в своей горутине и делает только CAS
// AwaitingController -> GazeFallbackActive. Подключение контроллера останавливает таймер
// и навсегда переводит режим в ControllerActive. Остальное состояние принадлежит горутине кадра.
type InputArbiter struct {
	cfg   InputConfig
	clock clock.Clock

	mode      atomic.Int32
	timer     *clock.Timer
	startOnce sync.Once
	stopOnce  sync.Once
	fallbacks atomic.Int32

	held     map[int]bool
	gaze     *GazeDwell
	gazeMode entity.GazeMode

	logger *zap.SugaredLogger
}

// NewInputArbiter создает арбитр в режиме ожидания контроллера
func NewInputArbiter(cfg InputConfig, clk clock.Clock, logger *zap.SugaredLogger) *InputArbiter {
	if clk == nil {
		clk = clock.New()
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	a := &InputArbiter{
		cfg:    cfg,
		clock:  clk,
		held:   make(map[int]bool),
		logger: logger,
	}
	a.mode.Store(int32(entity.AwaitingController))
	return a
}

// Start планирует откат на взгляд. Повторный вызов ничего не делает.
func (a *InputArbiter) Start() {
	a.startOnce.Do(func() {
		a.timer = a.clock.AfterFunc(a.cfg.FallbackTimeout, a.fallback)
	})
}

func (a *InputArbiter) fallback() {
	if a.mode.CompareAndSwap(int32(entity.AwaitingController), int32(entity.GazeFallbackActive)) {
		a.fallbacks.Add(1)
		a.logger.Infow("no controller connected, gaze fallback active", "timeout", a.cfg.FallbackTimeout)
	}
}

// Stop отменяет таймер отката. Идемпотентно.
func (a *InputArbiter) Stop() {
	a.stopOnce.Do(func() {
		if a.timer != nil {
			a.timer.Stop()
		}
	})
}

// Mode текущий режим ввода
func (a *InputArbiter) Mode() entity.InputMode {
	return entity.InputMode(a.mode.Load())
}

// FallbackCount сколько раз срабатывал откат (не больше одного)
func (a *InputArbiter) FallbackCount() int {
	return int(a.fallbacks.Load())
}

// GazeMode последний результат контроллера взгляда
func (a *InputArbiter) GazeMode() entity.GazeMode {
	return a.gazeMode
}

// ControllerConnected отменяет таймер и фиксирует ControllerActive
func (a *InputArbiter) ControllerConnected(index int) {
	a.Stop()
	prev := entity.InputMode(a.mode.Swap(int32(entity.ControllerActive)))
	if prev != entity.ControllerActive {
		a.logger.Infow("controller connected", "index", index, "previous_mode", prev.String())
	}
}

// ControllerDisconnected отпускает кнопку контроллера. Режим не меняется.
func (a *InputArbiter) ControllerDisconnected(index int) {
	delete(a.held, index)
}

// SelectStart кнопка select нажата
func (a *InputArbiter) SelectStart(index int) {
	a.held[index] = true
}

// SelectEnd кнопка select отпущена
func (a *InputArbiter) SelectEnd(index int) {
	delete(a.held, index)
}

// UpdateGaze продвигает контроллер взгляда. Он создается при первом кадре в режиме отката.
func (a *InputArbiter) UpdateGaze(dt time.Duration, lookDirection mgl64.Vec3) {
	if a.Mode() != entity.GazeFallbackActive {
		a.gazeMode = entity.GazeIdle
		return
	}

	if a.gaze == nil {
		a.gaze = NewGazeDwell(a.cfg.GazeDwell, a.cfg.GazeTolerance)
	}
	a.gazeMode = a.gaze.Update(dt, lookDirection)
}

// MoveRequested вычисляется заново каждый кадр из режима и текущего ввода
func (a *InputArbiter) MoveRequested() bool {
	switch a.Mode() {
	case entity.ControllerActive:
		return len(a.held) > 0
	case entity.GazeFallbackActive:
		return a.gazeMode == entity.GazeMove
	default:
		return false
	}
}
