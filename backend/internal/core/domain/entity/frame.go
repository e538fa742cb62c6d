package entity

import "github.com/go-gl/mathgl/mgl64"

// InputMode источник намерения двигаться
type InputMode int32

const (
	AwaitingController InputMode = iota
	ControllerActive
	GazeFallbackActive
)

func (m InputMode) String() string {
	switch m {
	case AwaitingController:
		return "awaiting_controller"
	case ControllerActive:
		return "controller"
	case GazeFallbackActive:
		return "gaze"
	default:
		return "unknown"
	}
}

// GazeMode состояние контроллера задержки взгляда
type GazeMode int

const (
	GazeIdle GazeMode = iota
	GazeGazing
	GazeMove
)

func (m GazeMode) String() string {
	switch m {
	case GazeIdle:
		return "idle"
	case GazeGazing:
		return "gazing"
	case GazeMove:
		return "move"
	default:
		return "unknown"
	}
}

// DeviceEventKind виды сигналов устройств, которые сессия передает в цикл кадров
type DeviceEventKind int

const (
	ControllerConnectedEvent DeviceEventKind = iota
	ControllerDisconnectedEvent
	SelectStartEvent
	SelectEndEvent
	HeadPoseEvent
)

// DeviceEvent один сигнал устройства в очереди. Position и Rotation заполнены только для позы головы.
type DeviceEvent struct {
	Kind     DeviceEventKind
	Index    int
	Position mgl64.Vec3
	Rotation mgl64.Quat
}

// PanelState то, что посетитель сейчас видит на информационной панели
type PanelState struct {
	Visible  bool
	Name     string
	Title    string
	Body     string
	Position mgl64.Vec3
	Target   mgl64.Vec3
}

// FrameState снимок, который уходит на сторону презентации после каждого кадра
type FrameState struct {
	Frame     uint64
	Immersive bool
	Rig       Transform
	Look      LookTransform
	Mode      InputMode
	Gaze      GazeMode
	Moving    bool
	Footstep  bool
	ActivePOI string
}
