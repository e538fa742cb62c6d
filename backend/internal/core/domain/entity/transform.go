package entity

import "github.com/go-gl/mathgl/mgl64"

// Локальные оси трансформа. Сцена правосторонняя с осью Y вверх, вперед это -Z.
var (
	AxisRight   = mgl64.Vec3{1, 0, 0}
	AxisLeft    = mgl64.Vec3{-1, 0, 0}
	AxisUp      = mgl64.Vec3{0, 1, 0}
	AxisDown    = mgl64.Vec3{0, -1, 0}
	AxisForward = mgl64.Vec3{0, 0, -1}
)

// Transform позиция и единичная ориентация в мировых координатах
type Transform struct {
	Position mgl64.Vec3
	Rotation mgl64.Quat
}

// NewTransform трансформ без поворота в точке position
func NewTransform(position mgl64.Vec3) Transform {
	return Transform{
		Position: position,
		Rotation: mgl64.QuatIdent(),
	}
}

// Axis локальная ось в мировых координатах
func (t Transform) Axis(local mgl64.Vec3) mgl64.Vec3 {
	return t.Rotation.Rotate(local).Normalize()
}

// Forward мировое направление локальной -Z
func (t Transform) Forward() mgl64.Vec3 {
	return t.Axis(AxisForward)
}

// TranslateOnAxis сдвигает трансформ на distance вдоль локальной оси
func (t *Transform) TranslateOnAxis(local mgl64.Vec3, distance float64) {
	t.Position = t.Position.Add(t.Axis(local).Mul(distance))
}

// SetRotation сохраняет нормализованную копию q. Вырожденный кватернион становится единичным.
func (t *Transform) SetRotation(q mgl64.Quat) {
	if q.Len() < 1e-12 {
		t.Rotation = mgl64.QuatIdent()
		return
	}
	t.Rotation = q.Normalize()
}

// LookTransform поза головы от шлема относительно рига.
// Хранится отдельно от рига: поворот головы не меняет направление движения.
type LookTransform struct {
	LocalPosition mgl64.Vec3
	LocalRotation mgl64.Quat
}

// DefaultEyeHeight высота головы стоящего посетителя над началом рига
const DefaultEyeHeight = 1.6

// NewLookTransform поза головы на высоте глаз, взгляд вдоль оси вперед рига
func NewLookTransform() LookTransform {
	return LookTransform{
		LocalPosition: mgl64.Vec3{0, DefaultEyeHeight, 0},
		LocalRotation: mgl64.QuatIdent(),
	}
}

// WorldRotation мировая ориентация головы для данного рига
func (l LookTransform) WorldRotation(rig Transform) mgl64.Quat {
	return rig.Rotation.Mul(l.LocalRotation).Normalize()
}

// WorldPosition мировая позиция головы для данного рига
func (l LookTransform) WorldPosition(rig Transform) mgl64.Vec3 {
	return rig.Position.Add(rig.Rotation.Rotate(l.LocalPosition))
}

// WorldDirection мировое направление взгляда
func (l LookTransform) WorldDirection(rig Transform) mgl64.Vec3 {
	return l.WorldRotation(rig).Rotate(AxisForward).Normalize()
}
