package game

import (
	"time"

	"github.com/benbjohnson/clock"
	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"

	"walkthrough/backend/internal/core/domain/entity"
	"walkthrough/backend/internal/core/port/out/audio"
	"walkthrough/backend/internal/world"
)

// lateralEpsilon поправки меньше этой величины не применяются,
// чтобы повторная коррекция у той же стены давала ровно ноль.
const lateralEpsilon = 1e-9

// Raycaster сервис пространственных запросов к коллизионному прокси
type Raycaster interface {
	CastRay(origin, direction mgl64.Vec3) (world.Hit, bool)
	HasProxy() bool
}

// LocomotionConfig параметры движения. Три порога независимы.
type LocomotionConfig struct {
	Speed              float64 // единиц в секунду
	EyeOffset          float64 // подъем начала луча вперед
	WallClearance      float64 // дистанция остановки перед стеной
	LateralClearance   float64 // дистанция бокового выталкивания
	LateralProbeHeight float64 // подъем начала боковых лучей
	FloorProbeHeight   float64 // подъем начала луча вниз
	StepCooldown       time.Duration
}

// DefaultLocomotionConfig значения по умолчанию. Боковые лучи подняты над полом, чтобы не задевать пандус.
func DefaultLocomotionConfig() LocomotionConfig {
	return LocomotionConfig{
		Speed:              2.0,
		EyeOffset:          1.0,
		WallClearance:      1.3,
		LateralClearance:   1.3,
		LateralProbeHeight: 1.0,
		FloorProbeHeight:   1.5,
		StepCooldown:       400 * time.Millisecond,
	}
}

// StepResult что произошло за один шаг движения
type StepResult struct {
	Skipped           bool    // прокси нет, шаг не выполнялся
	Advanced          bool    // продвинулись вперед
	Blocked           bool    // впереди стена ближе WallClearance
	WallDistance      float64 // расстояние до стены при упоре
	LateralCorrection float64 // суммарный модуль бокового выталкивания
	FloorSnapped      bool
	Footstep          bool
}

// FootstepGate пропускает звук шага не чаще раза в cooldown
type FootstepGate struct {
	cooldown time.Duration
	clock    clock.Clock
	last     time.Time
	fired    bool
}

// NewFootstepGate создает ограничитель звука шагов
func NewFootstepGate(cooldown time.Duration, clk clock.Clock) *FootstepGate {
	return &FootstepGate{cooldown: cooldown, clock: clk}
}

// Allow true, если с последнего шага прошло больше cooldown
func (g *FootstepGate) Allow() bool {
	now := g.clock.Now()
	if g.fired && now.Sub(g.last) <= g.cooldown {
		return false
	}
	g.fired = true
	g.last = now
	return true
}

// Locomotion владеет трансформом рига и двигает его с учетом коллизий.
// Ориентация взгляда только заимствуется на время лучевых проверок, затем собственная ориентация рига восстанавливается.
type Locomotion struct {
	cfg   LocomotionConfig
	ray   Raycaster
	gate  *FootstepGate
	audio audio.Player

	Rig  entity.Transform
	Look entity.LookTransform

	logger *zap.SugaredLogger
}

// NewLocomotion создает контроллер с ригом в точке spawn
func NewLocomotion(cfg LocomotionConfig, ray Raycaster, spawn mgl64.Vec3, clk clock.Clock, logger *zap.SugaredLogger) *Locomotion {
	if clk == nil {
		clk = clock.New()
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	return &Locomotion{
		cfg:    cfg,
		ray:    ray,
		gate:   NewFootstepGate(cfg.StepCooldown, clk),
		Rig:    entity.NewTransform(spawn),
		Look:   entity.NewLookTransform(),
		logger: logger,
	}
}

// SetAudio подключает проигрыватель для звука шагов
func (l *Locomotion) SetAudio(player audio.Player) {
	l.audio = player
}

// SetHeadPose обновляет позу головы относительно рига
func (l *Locomotion) SetHeadPose(position mgl64.Vec3, rotation mgl64.Quat) {
	l.Look.LocalPosition = position
	if rotation.Len() < 1e-12 {
		rotation = mgl64.QuatIdent()
	}
	l.Look.LocalRotation = rotation.Normalize()
}

// LookDirection мировое направление взгляда
func (l *Locomotion) LookDirection() mgl64.Vec3 {
	return l.Look.WorldDirection(l.Rig)
}

// ViewerPosition мировая позиция головы
func (l *Locomotion) ViewerPosition() mgl64.Vec3 {
	return l.Look.WorldPosition(l.Rig)
}

// borrowLookOrientation ставит ригу мировую ориентацию взгляда и возвращает прежнюю
func (l *Locomotion) borrowLookOrientation() mgl64.Quat {
	prev := l.Rig.Rotation
	l.Rig.SetRotation(l.Look.WorldRotation(l.Rig))
	return prev
}

// Step один шаг движения длительностью dt
func (l *Locomotion) Step(dt time.Duration) StepResult {
	if l.ray == nil || !l.ray.HasProxy() {
		return StepResult{Skipped: true}
	}

	var res StepResult

	prev := l.borrowLookOrientation()

	// Вперед: луч с высоты глаз вдоль локальной -Z
	origin := l.Rig.Position.Add(mgl64.Vec3{0, l.cfg.EyeOffset, 0})
	hit, ok := l.ray.CastRay(origin, l.Rig.Forward())
	if !ok || hit.Distance >= l.cfg.WallClearance {
		l.Rig.TranslateOnAxis(entity.AxisForward, l.cfg.Speed*dt.Seconds())
		res.Advanced = true
		if l.gate.Allow() {
			res.Footstep = true
			if l.audio != nil {
				l.audio.PlayOnce(audio.Footstep)
			}
		}
	} else {
		res.Blocked = true
		res.WallDistance = hit.Distance
	}

	// Вбок: оба луча из заново взятой позиции рига
	res.LateralCorrection = l.correctLateral()

	// Вниз: прилипание к полу, меняется только y
	floorOrigin := l.Rig.Position.Add(mgl64.Vec3{0, l.cfg.FloorProbeHeight, 0})
	if floor, ok := l.ray.CastRay(floorOrigin, entity.AxisDown); ok {
		l.Rig.Position[1] = floor.Point.Y()
		res.FloorSnapped = true
	}

	l.Rig.Rotation = prev

	return res
}

// correctLateral выталкивает риг от стен слева и справа ровно на (clearance - d)
func (l *Locomotion) correctLateral() float64 {
	origin := l.Rig.Position.Add(mgl64.Vec3{0, l.cfg.LateralProbeHeight, 0})
	limit := l.cfg.LateralClearance
	total := 0.0

	if hit, ok := l.ray.CastRay(origin, l.Rig.Axis(entity.AxisLeft)); ok && limit-hit.Distance > lateralEpsilon {
		push := limit - hit.Distance
		l.Rig.TranslateOnAxis(entity.AxisRight, push)
		total += push
	}

	if hit, ok := l.ray.CastRay(origin, l.Rig.Axis(entity.AxisRight)); ok && limit-hit.Distance > lateralEpsilon {
		push := limit - hit.Distance
		l.Rig.TranslateOnAxis(entity.AxisLeft, push)
		total += push
	}

	return total
}
