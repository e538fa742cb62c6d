package main

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"math/rand/v2"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"walkthrough/backend/internal/adapter/in/healthcheck"
	"walkthrough/backend/internal/adapter/in/ws"
	"walkthrough/backend/internal/core/domain/entity"
	"walkthrough/backend/internal/logging"
)

// Bot гуляет по зданию как посетитель в шлеме: держит select и водит головой
type Bot struct {
	ID         string
	ServerURL  string
	Pattern    string
	Duration   time.Duration
	HeadRate   time.Duration
	Controller bool

	conn    *websocket.Conn
	writeMu sync.Mutex
	session string
	stats   BotStats
	logger  *zap.SugaredLogger
}

// BotStats содержит статистику прогулки
type BotStats struct {
	mu        sync.Mutex
	States    int
	Footsteps int
	Panels    map[string]bool
	Last      ws.StateMessage
	Errors    int
	StartTime time.Time
}

// NewBot создает нового бота
func NewBot(id, serverURL, pattern string, duration, headRate time.Duration, controller bool, logger *zap.SugaredLogger) *Bot {
	return &Bot{
		ID:         id,
		ServerURL:  serverURL,
		Pattern:    pattern,
		Duration:   duration,
		HeadRate:   headRate,
		Controller: controller,
		stats: BotStats{
			Panels:    make(map[string]bool),
			StartTime: time.Now(),
		},
		logger: logger.With("bot", id),
	}
}

// Connect подключается к серверу и читает приветствие
func (b *Bot) Connect(ctx context.Context) error {
	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
	}

	conn, _, err := dialer.DialContext(ctx, b.ServerURL, nil)
	if err != nil {
		return errors.Wrapf(err, "connecting to %s", b.ServerURL)
	}
	b.conn = conn

	var welcome ws.WelcomeMessage
	if err := conn.ReadJSON(&welcome); err != nil {
		return errors.Wrap(err, "reading welcome")
	}
	b.session = welcome.Session
	b.logger.Infow("connected", "session", welcome.Session, "objects", len(welcome.Objects), "ready", welcome.Ready)
	return nil
}

// Disconnect отключается от сервера
func (b *Bot) Disconnect() {
	if b.conn == nil {
		return
	}
	b.writeMu.Lock()
	_ = b.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	b.writeMu.Unlock()
	_ = b.conn.Close()
	b.logger.Info("disconnected")
}

func (b *Bot) send(v interface{}) error {
	b.writeMu.Lock()
	defer b.writeMu.Unlock()
	return b.conn.WriteJSON(v)
}

// headYaw угол головы относительно рига в момент elapsed
func (b *Bot) headYaw(elapsed time.Duration) float64 {
	switch b.Pattern {
	case "still":
		return 0
	case "random":
		return (rand.Float64()*2 - 1) * math.Pi / 3
	default: // "sweep"
		return math.Sin(elapsed.Seconds()*0.5) * math.Pi / 4
	}
}

func (b *Bot) sendHead(elapsed time.Duration) error {
	q := mgl64.QuatRotate(b.headYaw(elapsed), entity.AxisUp)
	return b.send(ws.HeadMessage{
		Type:     ws.MessageTypeHead,
		Position: [3]float64{0, entity.DefaultEyeHeight, 0},
		Rotation: [4]float64{q.V[0], q.V[1], q.V[2], q.W},
	})
}

// handleMessage обрабатывает входящие сообщения
func (b *Bot) handleMessage(data []byte) {
	var envelope ws.Envelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		b.logger.Warnw("malformed message", "error", err)
		return
	}

	switch envelope.Type {
	case ws.MessageTypeState:
		var state ws.StateMessage
		if err := json.Unmarshal(data, &state); err != nil {
			b.logger.Warnw("malformed state", "error", err)
			return
		}
		b.stats.mu.Lock()
		b.stats.States++
		if state.Footstep {
			b.stats.Footsteps++
		}
		if state.Panel.Visible && !b.stats.Panels[state.Panel.Title] {
			b.stats.Panels[state.Panel.Title] = true
			b.logger.Infow("panel shown", "title", state.Panel.Title, "info", state.Panel.Body)
		}
		b.stats.Last = state
		b.stats.mu.Unlock()

	case ws.MessageTypeAudio:
		var sound ws.AudioMessage
		if err := json.Unmarshal(data, &sound); err == nil {
			b.logger.Debugw("audio", "action", sound.Action, "sound", sound.Sound)
		}

	case ws.MessageTypeViewport:
		b.logger.Debug("viewport recomputed")

	case ws.MessageTypePong:
		var pong ws.PongMessage
		if err := json.Unmarshal(data, &pong); err == nil {
			b.logger.Debugw("pong", "rtt_ms", float64(time.Now().UnixMilli())-pong.ClientTime)
		}

	default:
		b.logger.Debugw("unknown message type", "type", envelope.Type)
	}
}

func (b *Bot) readLoop(done chan<- struct{}) {
	defer close(done)
	for {
		_, data, err := b.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure) {
				b.stats.mu.Lock()
				b.stats.Errors++
				b.stats.mu.Unlock()
				b.logger.Debugw("read stopped", "error", err)
			}
			return
		}
		b.handleMessage(data)
	}
}

// Run проходит сценарий: контроллер, вход в сессию, удержание select с движением головы, выход
func (b *Bot) Run(ctx context.Context) error {
	if err := b.Connect(ctx); err != nil {
		return err
	}
	defer b.Disconnect()

	readDone := make(chan struct{})
	go b.readLoop(readDone)

	var opening []interface{}
	if b.Controller {
		opening = append(opening, ws.ControllerMessage{Type: ws.MessageTypeController, Event: ws.ControllerConnected})
	}
	opening = append(opening, ws.SessionMessage{Type: ws.MessageTypeSession, Presenting: true})
	if b.Controller {
		opening = append(opening, ws.ControllerMessage{Type: ws.MessageTypeController, Event: ws.ControllerSelectStart})
	}
	for _, msg := range opening {
		if err := b.send(msg); err != nil {
			return errors.Wrap(err, "starting walk")
		}
	}

	headTicker := time.NewTicker(b.HeadRate)
	defer headTicker.Stop()
	pingTicker := time.NewTicker(5 * time.Second)
	defer pingTicker.Stop()

	start := time.Now()
	timer := time.NewTimer(b.Duration)
	defer timer.Stop()

loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case <-timer.C:
			break loop
		case <-readDone:
			return errors.New("server closed the connection")
		case <-headTicker.C:
			if err := b.sendHead(time.Since(start)); err != nil {
				return errors.Wrap(err, "sending head pose")
			}
		case <-pingTicker.C:
			if err := b.send(ws.PingMessage{Type: ws.MessageTypePing, ClientTime: float64(time.Now().UnixMilli())}); err != nil {
				return errors.Wrap(err, "sending ping")
			}
		}
	}

	var closing []interface{}
	if b.Controller {
		closing = append(closing, ws.ControllerMessage{Type: ws.MessageTypeController, Event: ws.ControllerSelectEnd})
	}
	closing = append(closing, ws.SessionMessage{Type: ws.MessageTypeSession, Presenting: false})
	var err error
	for _, msg := range closing {
		err = multierr.Append(err, b.send(msg))
	}
	return errors.Wrap(err, "ending walk")
}

// PrintStats выводит статистику бота
func (b *Bot) PrintStats() {
	b.stats.mu.Lock()
	defer b.stats.mu.Unlock()

	duration := time.Since(b.stats.StartTime)
	panels := make([]string, 0, len(b.stats.Panels))
	for title := range b.stats.Panels {
		panels = append(panels, title)
	}
	b.logger.Infow("walk finished",
		"duration", duration.Round(time.Millisecond),
		"states", b.stats.States,
		"footsteps", b.stats.Footsteps,
		"panels", panels,
		"mode", b.stats.Last.Mode,
		"position", b.stats.Last.Rig.Position,
		"errors", b.stats.Errors,
	)
}

// checkHealth спрашивает готовность навигации у gRPC health
func checkHealth(ctx context.Context, addr string) (healthpb.HealthCheckResponse_ServingStatus, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return healthpb.HealthCheckResponse_UNKNOWN, errors.Wrapf(err, "dialing %s", addr)
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	resp, err := healthpb.NewHealthClient(conn).Check(ctx, &healthpb.HealthCheckRequest{Service: healthcheck.ServiceName})
	if err != nil {
		return healthpb.HealthCheckResponse_UNKNOWN, errors.Wrap(err, "health check")
	}
	return resp.GetStatus(), nil
}

func runBots(c *cli.Context) error {
	logger, err := logging.New("bot", c.String("log-level"))
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if addr := c.String("health"); addr != "" {
		status, err := checkHealth(ctx, addr)
		if err != nil {
			return err
		}
		logger.Infow("server health", "status", status.String())
	}

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs error
	)
	for i := 0; i < c.Int("bots"); i++ {
		bot := NewBot(
			fmt.Sprintf("bot%d", i+1),
			c.String("url"),
			c.String("pattern"),
			c.Duration("duration"),
			c.Duration("head-rate"),
			c.Bool("controller"),
			logger,
		)
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := bot.Run(ctx)
			bot.PrintStats()
			mu.Lock()
			errs = multierr.Append(errs, errors.Wrap(err, bot.ID))
			mu.Unlock()
		}()
	}
	wg.Wait()
	return errs
}

func main() {
	app := &cli.App{
		Name:  "walkthrough-bot",
		Usage: "headless visitors that walk the building over websocket",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "url", Value: "ws://localhost:8080/ws", Usage: "websocket endpoint"},
			&cli.StringFlag{Name: "health", Usage: "gRPC health address to check before walking"},
			&cli.IntFlag{Name: "bots", Value: 1, Usage: "number of concurrent visitors"},
			&cli.StringFlag{Name: "pattern", Value: "sweep", Usage: "head movement: sweep, still or random"},
			&cli.DurationFlag{Name: "duration", Value: 10 * time.Second, Usage: "how long to hold select"},
			&cli.DurationFlag{Name: "head-rate", Value: 50 * time.Millisecond, Usage: "head pose send interval"},
			&cli.BoolFlag{Name: "controller", Value: true, Usage: "announce a controller, otherwise rely on gaze fallback"},
			&cli.StringFlag{Name: "log-level", Value: "info"},
		},
		Action: runBots,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
