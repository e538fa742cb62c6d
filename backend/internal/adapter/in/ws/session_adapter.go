package ws

import (
	"sync"
	"sync/atomic"

	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"

	"walkthrough/backend/internal/core/domain/entity"
	"walkthrough/backend/internal/core/port/out/audio"
	"walkthrough/backend/internal/core/port/out/panel"
	"walkthrough/backend/internal/core/port/out/presentation"
)

// Client выходная сторона одной сессии: презентация, панель и звук поверх одного соединения.
// Методы вызываются из цикла кадров, состояние сессии браузера приходит из читающей горутины.
type Client struct {
	writer *SafeWriter

	presenting atomic.Bool
	failed     atomic.Bool

	mu    sync.Mutex
	panel entity.PanelState

	logger *zap.SugaredLogger
}

var (
	_ presentation.Presenter = (*Client)(nil)
	_ panel.Panel            = (*Client)(nil)
	_ audio.Player           = (*Client)(nil)
)

// NewClient создает выходную сторону сессии
func NewClient(writer *SafeWriter, logger *zap.SugaredLogger) *Client {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Client{writer: writer, logger: logger}
}

// SetPresenting обновляет состояние иммерсивной сессии браузера
func (c *Client) SetPresenting(presenting bool) {
	c.presenting.Store(presenting)
}

func (c *Client) IsPresenting() bool {
	return c.presenting.Load()
}

func (c *Client) RecomputeViewport() {
	c.send(ViewportMessage{Type: MessageTypeViewport, Immersive: c.IsPresenting()})
}

func (c *Client) Render(state entity.FrameState) {
	c.mu.Lock()
	p := c.panel
	c.mu.Unlock()

	if p.Visible {
		p.Name = state.ActivePOI
	}
	c.send(NewStateMessage(state, p))
}

func (c *Client) SetPosition(position mgl64.Vec3) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.panel.Position = position
}

func (c *Client) LookAt(target mgl64.Vec3) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.panel.Target = target
}

func (c *Client) SetField(name, text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch name {
	case panel.FieldName:
		c.panel.Title = text
	case panel.FieldInfo:
		c.panel.Body = text
	}
}

func (c *Client) SetVisible(visible bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.panel.Visible == visible {
		return
	}
	c.panel.Visible = visible
	c.logger.Debugw("panel visibility changed", "visible", visible, "title", c.panel.Title)
}

// Update ничего не отправляет: панель уходит вместе со следующим кадром
func (c *Client) Update() {}

// Panel снимок состояния панели
func (c *Client) Panel() entity.PanelState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.panel
}

func (c *Client) PlayOnce(sound audio.Sound) {
	c.send(AudioMessage{Type: MessageTypeAudio, Action: AudioPlay, Sound: string(sound), Volume: audio.FootstepVolume})
}

func (c *Client) PlayLoop(sound audio.Sound, volume float64) {
	c.send(AudioMessage{Type: MessageTypeAudio, Action: AudioLoop, Sound: string(sound), Volume: volume})
}

func (c *Client) Stop(sound audio.Sound) {
	c.send(AudioMessage{Type: MessageTypeAudio, Action: AudioStop, Sound: string(sound)})
}

// send пишет сообщение. Первая ошибка записи логируется, дальше соединение считается потерянным.
func (c *Client) send(v interface{}) {
	if c.failed.Load() {
		return
	}
	if err := c.writer.WriteJSON(v); err != nil {
		if c.failed.CompareAndSwap(false, true) {
			c.logger.Debugw("client write failed", "error", err)
		}
	}
}
