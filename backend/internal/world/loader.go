package world

import (
	"bytes"
	"sync/atomic"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"walkthrough/backend/internal/core/domain/entity"
)

// DiagnosticSink получает ошибки загрузки ресурсов
type DiagnosticSink interface {
	Report(source string, err error)
}

// ModelSource источник сырых объектов модели
type ModelSource func() ([]*RawObject, error)

// POISource источник описаний точек интереса
type POISource func() ([]entity.PointOfInterest, error)

// FileModel модель из OBJ файла
func FileModel(path string) ModelSource {
	return func() ([]*RawObject, error) {
		return LoadOBJFile(path)
	}
}

// DemoModelSource встроенное демо-здание
func DemoModelSource() ([]*RawObject, error) {
	return DemoModel(), nil
}

// FilePOIs точки интереса из JSON файла
func FilePOIs(path string) POISource {
	return func() ([]entity.PointOfInterest, error) {
		return LoadPOIFile(path)
	}
}

// DemoPOISource точки интереса демо-здания
func DemoPOISource() ([]entity.PointOfInterest, error) {
	return ParsePOIDocument(bytes.NewReader(DemoPOIDocument))
}

// Library общие для всех сессий ресурсы: граф сцены, прокси и реестр точек интереса.
// Загрузки идут в своих горутинах и публикуют результат атомарно, кадры их не ждут.
type Library struct {
	Scene     *Manager
	Raycaster *Raycaster

	registry atomic.Pointer[entity.Registry]
	rules    []CategoryRule
	sink     DiagnosticSink
	logger   *zap.SugaredLogger
}

// NewLibrary создает пустую библиотеку ресурсов
func NewLibrary(rules []CategoryRule, sink DiagnosticSink, logger *zap.SugaredLogger) *Library {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Library{
		Scene:     NewManager(),
		Raycaster: NewRaycaster(),
		rules:     rules,
		sink:      sink,
		logger:    logger,
	}
}

// Registry возвращает реестр точек интереса или nil, если он еще не загружен
func (l *Library) Registry() *entity.Registry {
	return l.registry.Load()
}

// LoadModel синхронно загружает модель, строит сцену и публикует прокси
func (l *Library) LoadModel(source ModelSource, anchors []MidpointAnchor) error {
	raw, err := source()
	if err != nil {
		return l.fail("model", errors.Wrap(err, "loading model"))
	}

	factory := NewFactory(l.Scene, l.rules, l.logger.Named("factory"))
	proxy, err := factory.Build(raw)
	created := factory.AddMidpointAnchors(anchors)
	l.logger.Infow("scene loaded", "objects", l.Scene.Len(), "anchors", created)

	if err != nil {
		// Сцена остается, но без прокси шаги движения пропускаются
		return l.fail("model", err)
	}

	l.Raycaster.SetProxy(proxy)
	return nil
}

// LoadPOIs синхронно загружает реестр точек интереса и публикует его
func (l *Library) LoadPOIs(source POISource) error {
	pois, err := source()
	if err != nil {
		return l.fail("poi", errors.Wrap(err, "loading points of interest"))
	}

	registry := entity.NewRegistry()
	for _, poi := range pois {
		registry.Add(poi)
	}
	l.registry.Store(registry)

	l.logger.Infow("points of interest loaded", "count", registry.Len())
	return nil
}

// LoadModelAsync запускает загрузку модели без ожидания. Канал закрывается по завершении.
func (l *Library) LoadModelAsync(source ModelSource, anchors []MidpointAnchor) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = l.LoadModel(source, anchors)
	}()
	return done
}

// LoadPOIsAsync запускает загрузку точек интереса без ожидания
func (l *Library) LoadPOIsAsync(source POISource) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = l.LoadPOIs(source)
	}()
	return done
}

// fail сообщает об ошибке один раз и возвращает ее. Повторных попыток нет.
func (l *Library) fail(source string, err error) error {
	if l.sink != nil {
		l.sink.Report(source, err)
	} else {
		l.logger.Errorw("resource load failed", "source", source, "error", err)
	}
	return err
}
