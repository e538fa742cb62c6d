package world

import (
	"strings"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// ErrNoProxyMesh в модели нет объекта коллизионного прокси
var ErrNoProxyMesh = errors.New("model has no collision proxy object")

// MatchField где искать подстроку правила
type MatchField int

const (
	MatchName MatchField = iota
	MatchMaterial
	MatchAny
)

// CategoryRule правило классификации объекта по подстроке имени или материала
type CategoryRule struct {
	Category  Category
	Substring string
	Field     MatchField
}

// NewCategoryRule собирает правило из строкового описания конфигурации
func NewCategoryRule(category, contains, match string) (CategoryRule, error) {
	c, ok := ParseCategory(category)
	if !ok {
		return CategoryRule{}, errors.Errorf("unknown category %q", category)
	}
	if contains == "" {
		return CategoryRule{}, errors.Errorf("rule for %q has empty substring", category)
	}

	var field MatchField
	switch strings.ToLower(match) {
	case "name":
		field = MatchName
	case "material":
		field = MatchMaterial
	case "", "any":
		field = MatchAny
	default:
		return CategoryRule{}, errors.Errorf("unknown match field %q", match)
	}

	return CategoryRule{Category: c, Substring: contains, Field: field}, nil
}

// DefaultCategoryRules порядок правил определяет приоритет: выигрывает первое совпадение
func DefaultCategoryRules() []CategoryRule {
	return []CategoryRule{
		{Category: CategoryProxy, Substring: "PROXY", Field: MatchName},
		{Category: CategoryGlass, Substring: "Glass", Field: MatchMaterial},
		{Category: CategoryWall, Substring: "Wall", Field: MatchMaterial},
		{Category: CategoryStair, Substring: "Stair", Field: MatchMaterial},
		{Category: CategorySofa, Substring: "Sofa", Field: MatchMaterial},
		{Category: CategoryCarpet, Substring: "Carpet", Field: MatchMaterial},
		{Category: CategoryDoor, Substring: "Door", Field: MatchAny},
		{Category: CategoryFloor, Substring: "Floor", Field: MatchAny},
		{Category: CategoryCeiling, Substring: "Ceiling", Field: MatchAny},
		{Category: CategorySkyBox, Substring: "SkyBox", Field: MatchMaterial},
	}
}

func (r CategoryRule) matches(obj *RawObject) bool {
	if r.Field != MatchMaterial && strings.Contains(obj.Name, r.Substring) {
		return true
	}
	if r.Field != MatchName {
		for _, m := range obj.Materials {
			if strings.Contains(m, r.Substring) {
				return true
			}
		}
	}
	return false
}

// MidpointAnchor синтетический якорь посередине между двумя объектами
type MidpointAnchor struct {
	Name string
	From string
	To   string
}

// Factory превращает сырые объекты модели в граф сцены и прокси
type Factory struct {
	manager *Manager
	rules   []CategoryRule
	logger  *zap.SugaredLogger
}

// NewFactory создает фабрику. Пустой набор правил заменяется правилами по умолчанию.
func NewFactory(manager *Manager, rules []CategoryRule, logger *zap.SugaredLogger) *Factory {
	if len(rules) == 0 {
		rules = DefaultCategoryRules()
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Factory{
		manager: manager,
		rules:   rules,
		logger:  logger,
	}
}

// Classify возвращает категорию первого сработавшего правила
func (f *Factory) Classify(obj *RawObject) Category {
	for _, rule := range f.rules {
		if rule.matches(obj) {
			return rule.Category
		}
	}
	return CategoryOther
}

// Build добавляет объекты в сцену и возвращает прокси из объектов категории Proxy
func (f *Factory) Build(raw []*RawObject) (*Proxy, error) {
	var proxyMeshes []*Mesh
	counts := make(map[Category]int)

	for _, r := range raw {
		if len(r.Triangles) == 0 {
			continue
		}

		mesh := NewMesh(r.Triangles)
		category := f.Classify(r)
		counts[category]++

		f.manager.AddObject(&Object{
			Name:       r.Name,
			Material:   r.Material(),
			Category:   category,
			Appearance: appearanceFor(category),
			Position:   mesh.Bounds.Center(),
			Mesh:       mesh,
		})

		if category == CategoryProxy {
			proxyMeshes = append(proxyMeshes, mesh)
		}
	}

	f.logger.Debugw("scene built", "objects", f.manager.Len(), "categories", categorySummary(counts))

	if len(proxyMeshes) == 0 {
		return nil, ErrNoProxyMesh
	}

	proxy := NewProxy(proxyMeshes...)
	f.logger.Infow("collision proxy ready", "meshes", len(proxy.Meshes), "triangles", proxy.TriangleCount())
	return proxy, nil
}

// AddMidpointAnchors добавляет якоря, для которых найдены оба исходных объекта.
// Возвращает число созданных якорей.
func (f *Factory) AddMidpointAnchors(anchors []MidpointAnchor) int {
	created := 0
	for _, a := range anchors {
		from, ok1 := f.manager.ObjectByName(a.From)
		to, ok2 := f.manager.ObjectByName(a.To)
		if !ok1 || !ok2 {
			f.logger.Debugw("midpoint anchor skipped", "anchor", a.Name, "from", a.From, "to", a.To)
			continue
		}

		f.manager.AddObject(NewAnchor(a.Name, midpoint(from.WorldPosition(), to.WorldPosition())))
		created++
	}
	return created
}

func midpoint(a, b mgl64.Vec3) mgl64.Vec3 {
	return a.Sub(b).Mul(0.5).Add(b)
}

func categorySummary(counts map[Category]int) map[string]int {
	summary := make(map[string]int, len(counts))
	for c, n := range counts {
		summary[c.String()] = n
	}
	return summary
}
