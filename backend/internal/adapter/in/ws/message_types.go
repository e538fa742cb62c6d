package ws

import (
	"time"

	"walkthrough/backend/internal/core/port/in/navigation"
)

// Типы сообщений клиента
const (
	MessageTypeController = "controller" // Контроллер подключен, отключен, нажат
	MessageTypeHead       = "head"       // Поза головы от шлема
	MessageTypeSession    = "session"    // Вход и выход из иммерсивного режима
	MessageTypePing       = "ping"       // Пинг для измерения задержки
)

// Типы сообщений сервера
const (
	MessageTypeWelcome  = "welcome"  // Id сессии и объекты сцены
	MessageTypeState    = "state"    // Итог кадра
	MessageTypeViewport = "viewport" // Пересчитать проекцию
	MessageTypeAudio    = "audio"    // Команда звука
	MessageTypePong     = "pong"     // Ответ на пинг
)

// События контроллера
const (
	ControllerConnected    = "connected"
	ControllerDisconnected = "disconnected"
	ControllerSelectStart  = "selectstart"
	ControllerSelectEnd    = "selectend"
)

// Действия звука
const (
	AudioPlay = "play"
	AudioLoop = "loop"
	AudioStop = "stop"
)

// Envelope общая часть входящих сообщений
type Envelope struct {
	Type string `json:"type"`
}

// ControllerMessage событие контроллера
type ControllerMessage struct {
	Type  string `json:"type"`
	Index int    `json:"index"`
	Event string `json:"event"`
}

// HeadMessage поза головы относительно рига. Rotation в порядке x, y, z, w.
type HeadMessage struct {
	Type     string     `json:"type"`
	Position [3]float64 `json:"position"`
	Rotation [4]float64 `json:"rotation"`
}

// SessionMessage состояние иммерсивной сессии браузера
type SessionMessage struct {
	Type       string `json:"type"`
	Presenting bool   `json:"presenting"`
}

// PingMessage пинг клиента
type PingMessage struct {
	Type       string  `json:"type"`
	ClientTime float64 `json:"client_time"`
}

// PongMessage ответ на пинг
type PongMessage struct {
	Type       string  `json:"type"`
	ClientTime float64 `json:"client_time"`
	ServerTime int64   `json:"server_time"`
}

// WelcomeMessage первое сообщение после подключения
type WelcomeMessage struct {
	Type       string                   `json:"type"`
	Session    string                   `json:"session"`
	Ready      bool                     `json:"ready"`
	Objects    []navigation.SceneObject `json:"objects"`
	ServerTime int64                    `json:"server_time"`
}

// PoseMessage положение и ориентация
type PoseMessage struct {
	Position [3]float64 `json:"position"`
	Rotation [4]float64 `json:"rotation"`
}

// PanelMessage то, что посетитель видит на информационной панели
type PanelMessage struct {
	Visible  bool       `json:"visible"`
	Name     string     `json:"name,omitempty"`
	Title    string     `json:"title,omitempty"`
	Body     string     `json:"info,omitempty"`
	Position [3]float64 `json:"position"`
	Target   [3]float64 `json:"target"`
}

// StateMessage итог кадра
type StateMessage struct {
	Type      string       `json:"type"`
	Frame     uint64       `json:"frame"`
	Immersive bool         `json:"immersive"`
	Rig       PoseMessage  `json:"rig"`
	Look      PoseMessage  `json:"look"`
	Mode      string       `json:"mode"`
	Gaze      string       `json:"gaze"`
	Moving    bool         `json:"moving"`
	Footstep  bool         `json:"footstep"`
	Panel     PanelMessage `json:"panel"`
}

// ViewportMessage просит клиента пересчитать проекцию
type ViewportMessage struct {
	Type      string `json:"type"`
	Immersive bool   `json:"immersive"`
}

// AudioMessage команда звука
type AudioMessage struct {
	Type   string  `json:"type"`
	Action string  `json:"action"`
	Sound  string  `json:"sound"`
	Volume float64 `json:"volume,omitempty"`
}

// GetCurrentServerTime возвращает текущее серверное время в миллисекундах
func GetCurrentServerTime() int64 {
	return time.Now().UnixMilli()
}

// NewPongMessage создает ответ на пинг
func NewPongMessage(clientTime float64) PongMessage {
	return PongMessage{
		Type:       MessageTypePong,
		ClientTime: clientTime,
		ServerTime: GetCurrentServerTime(),
	}
}
