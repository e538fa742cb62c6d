package service

import (
	"context"
	"sync"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"walkthrough/backend/internal/config"
	"walkthrough/backend/internal/core/domain/entity"
	"walkthrough/backend/internal/core/port/in/navigation"
	"walkthrough/backend/internal/core/port/out/audio"
	"walkthrough/backend/internal/game"
	"walkthrough/backend/internal/telemetry"
	"walkthrough/backend/internal/world"
)

// ErrSessionExists сессия с таким id уже открыта
var ErrSessionExists = errors.New("session already open")

// WalkthroughService реализует входной порт навигации: общие ресурсы здания и сессии посетителей
type WalkthroughService struct {
	cfg      *config.Config
	library  *world.Library
	recorder *telemetry.Recorder
	clock    clock.Clock
	logger   *zap.SugaredLogger

	mu       sync.Mutex
	sessions map[string]*session
}

var (
	_ navigation.NavigationPort = (*WalkthroughService)(nil)
	_ telemetry.StatsSource     = (*WalkthroughService)(nil)
)

// NewWalkthroughService создает сервис. Правила категорий из конфигурации проверяются сразу.
func NewWalkthroughService(
	cfg *config.Config,
	sink world.DiagnosticSink,
	recorder *telemetry.Recorder,
	clk clock.Clock,
	logger *zap.SugaredLogger,
) (*WalkthroughService, error) {
	if clk == nil {
		clk = clock.New()
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	rules, err := CategoryRules(cfg.Assets.CategoryRules)
	if err != nil {
		return nil, err
	}

	return &WalkthroughService{
		cfg:      cfg,
		library:  world.NewLibrary(rules, sink, logger.Named("library")),
		recorder: recorder,
		clock:    clk,
		logger:   logger,
		sessions: make(map[string]*session),
	}, nil
}

// CategoryRules переводит правила конфигурации. Пустой список означает правила по умолчанию.
func CategoryRules(rules []config.CategoryRuleConfig) ([]world.CategoryRule, error) {
	result := make([]world.CategoryRule, 0, len(rules))
	for i, r := range rules {
		rule, err := world.NewCategoryRule(r.Category, r.Contains, r.Match)
		if err != nil {
			return nil, errors.Wrapf(err, "assets.category_rules[%d]", i)
		}
		result = append(result, rule)
	}
	return result, nil
}

// Anchors переводит якоря конфигурации
func Anchors(anchors []config.AnchorConfig) []world.MidpointAnchor {
	result := make([]world.MidpointAnchor, len(anchors))
	for i, a := range anchors {
		result[i] = world.MidpointAnchor{Name: a.Name, From: a.From, To: a.To}
	}
	return result
}

// Library общие ресурсы сцены
func (s *WalkthroughService) Library() *world.Library {
	return s.library
}

// LoadAssets запускает загрузку модели и точек интереса в фоне.
// Пустой путь выбирает встроенное демо-здание. Каналы закрываются по завершении.
func (s *WalkthroughService) LoadAssets() (model, pois <-chan struct{}) {
	modelSource := world.DemoModelSource
	if s.cfg.Assets.Model != "" {
		modelSource = world.FileModel(s.cfg.Assets.Model)
	}

	poiSource := world.DemoPOISource
	if s.cfg.Assets.POI != "" {
		poiSource = world.FilePOIs(s.cfg.Assets.POI)
	}

	s.logger.Infow("loading assets", "model", orDemo(s.cfg.Assets.Model), "poi", orDemo(s.cfg.Assets.POI))

	model = s.library.LoadModelAsync(modelSource, Anchors(s.cfg.Assets.Anchors))
	pois = s.library.LoadPOIsAsync(poiSource)
	return model, pois
}

func orDemo(path string) string {
	if path == "" {
		return "demo"
	}
	return path
}

// Ready загружен ли коллизионный прокси
func (s *WalkthroughService) Ready() bool {
	return s.library.Raycaster.HasProxy()
}

// Manifest объекты сцены в порядке загрузки
func (s *WalkthroughService) Manifest() []navigation.SceneObject {
	objects := s.library.Scene.Objects()
	result := make([]navigation.SceneObject, 0, len(objects))
	for _, obj := range objects {
		result = append(result, navigation.SceneObject{
			Name:       obj.Name,
			Category:   obj.Category.String(),
			Position:   obj.WorldPosition(),
			Appearance: obj.Appearance,
		})
	}
	return result
}

// OpenSession создает посетителя в точке старта и запускает его цикл кадров
func (s *WalkthroughService) OpenSession(ctx context.Context, id string, out navigation.Outputs) (navigation.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.sessions[id]; exists {
		return nil, errors.Wrapf(ErrSessionExists, "session %q", id)
	}

	logger := s.logger.Named("session").With("session", id)
	cfg := s.cfg

	arbiter := game.NewInputArbiter(game.InputConfig{
		FallbackTimeout: cfg.Input.FallbackTimeout,
		GazeDwell:       cfg.Input.GazeDwell,
		GazeTolerance:   cfg.Input.GazeTolerance,
	}, s.clock, logger.Named("input"))

	locomotion := game.NewLocomotion(game.LocomotionConfig{
		Speed:              cfg.Navigation.Speed,
		EyeOffset:          cfg.Navigation.EyeOffset,
		WallClearance:      cfg.Navigation.WallClearance,
		LateralClearance:   cfg.Navigation.LateralClearance,
		LateralProbeHeight: cfg.Navigation.LateralProbeHeight,
		FloorProbeHeight:   cfg.Navigation.FloorProbeHeight,
		StepCooldown:       cfg.Navigation.StepCooldown,
	}, s.library.Raycaster, cfg.Navigation.Spawn.Vec3(), s.clock, logger.Named("locomotion"))
	if out.Audio != nil {
		locomotion.SetAudio(out.Audio)
	}

	proximity := game.NewProximity(game.ProximityConfig{
		Radius: cfg.Proximity.Radius,
	}, s.library.Registry, s.library.Scene, game.NewPortBinder(out.Panel, cfg.Proximity.PanelOffset.Vec3()), logger.Named("proximity"))

	orchestrator := game.NewOrchestrator(id, game.Components{
		Input:      arbiter,
		Locomotion: locomotion,
		Proximity:  proximity,
		Presenter:  out.Presenter,
		Recorder:   s.recorder,
	}, cfg.Server.InboxSize, s.clock, logger)

	sess := &session{
		id:           id,
		service:      s,
		arbiter:      arbiter,
		orchestrator: orchestrator,
		loop:         game.NewFrameLoop(cfg.Server.FPS, orchestrator, s.clock, logger.Named("loop")),
		audio:        out.Audio,
		logger:       logger,
	}

	if out.Audio != nil {
		out.Audio.PlayLoop(audio.Ambient, audio.AmbientVolume)
	}
	arbiter.Start()
	sess.loop.Start(ctx)

	s.sessions[id] = sess
	if s.recorder != nil {
		s.recorder.Increment("sessions_opened")
	}
	logger.Infow("session opened", "spawn", cfg.Navigation.Spawn, "proxy_loaded", s.Ready())

	return sess, nil
}

// SessionCount число открытых сессий
func (s *WalkthroughService) SessionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Shutdown закрывает все сессии
func (s *WalkthroughService) Shutdown() {
	s.mu.Lock()
	sessions := make([]*session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		sessions = append(sessions, sess)
	}
	s.mu.Unlock()

	for _, sess := range sessions {
		sess.Close()
	}
}

// SessionStats статистика цикла кадров и этапов каждой открытой сессии
func (s *WalkthroughService) SessionStats() map[string]interface{} {
	s.mu.Lock()
	sessions := make([]*session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		sessions = append(sessions, sess)
	}
	s.mu.Unlock()

	stats := make(map[string]interface{}, len(sessions))
	for _, sess := range sessions {
		stats[sess.id] = map[string]interface{}{
			"loop":   sess.loop.Stats(),
			"stages": sess.orchestrator.Monitor().StagesStats(),
		}
	}
	return stats
}

func (s *WalkthroughService) forget(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

// session связывает оркестратор, цикл кадров и таймер отката одного посетителя
type session struct {
	id           string
	service      *WalkthroughService
	arbiter      *game.InputArbiter
	orchestrator *game.Orchestrator
	loop         *game.FrameLoop
	audio        audio.Player
	closeOnce    sync.Once
	logger       *zap.SugaredLogger
}

func (s *session) ID() string {
	return s.id
}

func (s *session) Post(ev entity.DeviceEvent) bool {
	return s.orchestrator.Post(ev)
}

func (s *session) Close() {
	s.closeOnce.Do(func() {
		s.loop.Stop()
		s.arbiter.Stop()
		if s.audio != nil {
			s.audio.Stop(audio.Ambient)
		}
		s.service.forget(s.id)
		s.logger.Infow("session closed", "frames", s.loop.FrameCount(), "dropped_events", s.orchestrator.Dropped())
	})
}
