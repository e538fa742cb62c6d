package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"walkthrough/backend/internal/core/domain/entity"
	"walkthrough/backend/internal/core/port/in/navigation"
)

const (
	writeWait      = 2 * time.Second
	maxMessageSize = 4096
)

// connection то, что видит обработчик входящего сообщения
type connection struct {
	writer  *SafeWriter
	client  *Client
	session navigation.Session
	logger  *zap.SugaredLogger
}

type handler func(c *connection, raw []byte) error

// WSAdapter адаптер для WebSocket соединений
type WSAdapter struct {
	ctx       context.Context
	upgrader  websocket.Upgrader
	handlers  map[string]handler
	port      navigation.NavigationPort
	clients   map[*SafeWriter]string // Активные соединения и id их сессий
	clientsMu sync.Mutex
	logger    *zap.SugaredLogger
}

// NewWSAdapter создает новый экземпляр WSAdapter. ctx ограничивает жизнь циклов кадров всех сессий.
func NewWSAdapter(ctx context.Context, port navigation.NavigationPort, logger *zap.SugaredLogger) *WSAdapter {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	a := &WSAdapter{
		ctx:  ctx,
		port: port,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		handlers: make(map[string]handler),
		clients:  make(map[*SafeWriter]string),
		logger:   logger,
	}
	a.RegisterHandlers()
	return a
}

// SafeWriter обеспечивает потокобезопасную запись в WebSocket
type SafeWriter struct {
	conn  *websocket.Conn
	mutex sync.Mutex
}

// NewSafeWriter создает новый экземпляр SafeWriter
func NewSafeWriter(conn *websocket.Conn) *SafeWriter {
	return &SafeWriter{
		conn: conn,
	}
}

// WriteJSON потокобезопасно отправляет JSON данные через WebSocket
func (w *SafeWriter) WriteJSON(v interface{}) error {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	jsonData, err := json.Marshal(v)
	if err != nil {
		return errors.Wrap(err, "encoding message")
	}

	if err := w.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return w.conn.WriteMessage(websocket.TextMessage, jsonData)
}

// Close закрывает соединение WebSocket
func (w *SafeWriter) Close() error {
	return w.conn.Close()
}

// RegisterHandlers регистрирует обработчики сообщений
func (a *WSAdapter) RegisterHandlers() {
	a.handlers[MessageTypeController] = func(c *connection, raw []byte) error {
		var msg ControllerMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			return errors.Wrap(err, "decoding controller message")
		}

		var kind entity.DeviceEventKind
		switch msg.Event {
		case ControllerConnected:
			kind = entity.ControllerConnectedEvent
		case ControllerDisconnected:
			kind = entity.ControllerDisconnectedEvent
		case ControllerSelectStart:
			kind = entity.SelectStartEvent
		case ControllerSelectEnd:
			kind = entity.SelectEndEvent
		default:
			return errors.Errorf("unknown controller event %q", msg.Event)
		}

		post(c, entity.DeviceEvent{Kind: kind, Index: msg.Index})
		return nil
	}

	a.handlers[MessageTypeHead] = func(c *connection, raw []byte) error {
		var msg HeadMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			return errors.Wrap(err, "decoding head message")
		}
		post(c, entity.DeviceEvent{
			Kind:     entity.HeadPoseEvent,
			Position: mgl64.Vec3(msg.Position),
			Rotation: quatFromWire(msg.Rotation),
		})
		return nil
	}

	a.handlers[MessageTypeSession] = func(c *connection, raw []byte) error {
		var msg SessionMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			return errors.Wrap(err, "decoding session message")
		}
		c.client.SetPresenting(msg.Presenting)
		c.logger.Debugw("presenting changed", "presenting", msg.Presenting)
		return nil
	}

	a.handlers[MessageTypePing] = func(c *connection, raw []byte) error {
		var msg PingMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			return errors.Wrap(err, "decoding ping message")
		}
		return c.writer.WriteJSON(NewPongMessage(msg.ClientTime))
	}
}

func post(c *connection, ev entity.DeviceEvent) {
	if !c.session.Post(ev) {
		c.logger.Debugw("device event dropped", "kind", ev.Kind)
	}
}

// HandleWS обрабатывает WebSocket соединения: одна сессия прогулки на соединение
func (a *WSAdapter) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := a.upgrader.Upgrade(w, r, nil)
	if err != nil {
		a.logger.Warnw("websocket upgrade failed", "error", err)
		return
	}
	conn.SetReadLimit(maxMessageSize)

	id := uuid.NewString()
	logger := a.logger.With("session", id)
	writer := NewSafeWriter(conn)
	client := NewClient(writer, logger.Named("client"))

	if err := writer.WriteJSON(WelcomeMessage{
		Type:       MessageTypeWelcome,
		Session:    id,
		Ready:      a.port.Ready(),
		Objects:    a.port.Manifest(),
		ServerTime: GetCurrentServerTime(),
	}); err != nil {
		logger.Warnw("welcome failed", "error", err)
		conn.Close()
		return
	}

	session, err := a.port.OpenSession(a.ctx, id, navigation.Outputs{
		Presenter: client,
		Panel:     client,
		Audio:     client,
	})
	if err != nil {
		logger.Errorw("opening session failed", "error", err)
		conn.Close()
		return
	}

	a.clientsMu.Lock()
	a.clients[writer] = id
	a.clientsMu.Unlock()
	logger.Infow("client connected", "remote", r.RemoteAddr)

	defer func() {
		session.Close()
		a.clientsMu.Lock()
		delete(a.clients, writer)
		a.clientsMu.Unlock()
		conn.Close()
		logger.Infow("client disconnected")
	}()

	c := &connection{writer: writer, client: client, session: session, logger: logger}
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warnw("read failed", "error", err)
			}
			return
		}

		var envelope Envelope
		if err := json.Unmarshal(raw, &envelope); err != nil || envelope.Type == "" {
			logger.Debugw("message without type", "raw", string(raw))
			continue
		}

		h, ok := a.handlers[envelope.Type]
		if !ok {
			logger.Debugw("no handler for message type", "type", envelope.Type)
			continue
		}

		if err := h(c, raw); err != nil {
			logger.Warnw("handling message failed", "type", envelope.Type, "error", err)
		}
	}
}

// ClientCount число подключенных клиентов
func (a *WSAdapter) ClientCount() int {
	a.clientsMu.Lock()
	defer a.clientsMu.Unlock()
	return len(a.clients)
}

// CloseAll разрывает все соединения. Сессии закрываются их читающими горутинами.
func (a *WSAdapter) CloseAll() {
	a.clientsMu.Lock()
	defer a.clientsMu.Unlock()
	for writer := range a.clients {
		_ = writer.Close()
	}
}
