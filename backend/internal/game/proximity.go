package game

import (
	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"

	"walkthrough/backend/internal/core/domain/entity"
	"walkthrough/backend/internal/core/port/out/panel"
	"walkthrough/backend/internal/core/port/out/scene"
)

// ProximityConfig настройки триггера близости
type ProximityConfig struct {
	Radius float64
}

// DefaultProximityConfig значения по умолчанию
func DefaultProximityConfig() ProximityConfig {
	return ProximityConfig{Radius: 3.0}
}

// DefaultPanelOffset подъем панели над якорем точки интереса
var DefaultPanelOffset = mgl64.Vec3{0, 1.3, 0}

// PanelBinder показывает и прячет информационную панель
type PanelBinder interface {
	Show(poi entity.PointOfInterest, anchor, viewer mgl64.Vec3)
	Hide()
}

// RegistrySource отдает реестр точек интереса, nil пока он не загружен
type RegistrySource func() *entity.Registry

// Proximity выбирает активную точку интереса по расстоянию от рига
type Proximity struct {
	cfg      ProximityConfig
	registry RegistrySource
	scene    scene.Graph
	binder   PanelBinder

	active string
	logger *zap.SugaredLogger
}

// NewProximity создает триггер близости
func NewProximity(cfg ProximityConfig, registry RegistrySource, graph scene.Graph, binder PanelBinder, logger *zap.SugaredLogger) *Proximity {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Proximity{
		cfg:      cfg,
		registry: registry,
		scene:    graph,
		binder:   binder,
		logger:   logger,
	}
}

// Active имя показанной точки или пустая строка
func (p *Proximity) Active() string {
	return p.active
}

// Evaluate проходит реестр в порядке добавления. При перекрытии радиусов побеждает последняя подходящая точка.
func (p *Proximity) Evaluate(rigPosition, viewerPosition mgl64.Vec3) string {
	if p.registry == nil || p.scene == nil {
		return p.active
	}
	registry := p.registry()
	if registry == nil {
		return p.active
	}

	found := false
	for _, poi := range registry.Entries() {
		obj, ok := p.scene.ObjectByName(poi.Name)
		if !ok {
			continue
		}

		anchor := obj.WorldPosition()
		if rigPosition.Sub(anchor).Len() >= p.cfg.Radius {
			continue
		}

		found = true
		if poi.Name != p.active {
			p.active = poi.Name
			if p.binder != nil {
				p.binder.Show(poi, anchor, viewerPosition)
			}
			p.logger.Debugw("point of interest shown", "name", poi.Name)
		}
	}

	if !found {
		p.active = ""
		if p.binder != nil {
			p.binder.Hide()
		}
	}

	return p.active
}

// PortBinder раскладывает точку интереса по полям панели
type PortBinder struct {
	panel  panel.Panel
	offset mgl64.Vec3
}

// NewPortBinder создает связку с панелью
func NewPortBinder(p panel.Panel, offset mgl64.Vec3) *PortBinder {
	return &PortBinder{panel: p, offset: offset}
}

func (b *PortBinder) Show(poi entity.PointOfInterest, anchor, viewer mgl64.Vec3) {
	if b.panel == nil {
		return
	}
	b.panel.SetPosition(anchor.Add(b.offset))
	b.panel.LookAt(viewer)
	b.panel.SetField(panel.FieldName, poi.Title)
	b.panel.SetField(panel.FieldInfo, poi.Body)
	b.panel.Update()
	b.panel.SetVisible(true)
}

func (b *PortBinder) Hide() {
	if b.panel == nil {
		return
	}
	b.panel.SetVisible(false)
}
