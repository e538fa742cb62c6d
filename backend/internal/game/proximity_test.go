package game

import (
	"fmt"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap/zaptest"
	"go.viam.com/test"

	"walkthrough/backend/internal/core/domain/entity"
	"walkthrough/backend/internal/world"
)

type fakeScene map[string]*world.Object

func (s fakeScene) ObjectByName(name string) (*world.Object, bool) {
	obj, ok := s[name]
	return obj, ok
}

type recordingBinder struct {
	shown []string
	hides int
}

func (b *recordingBinder) Show(poi entity.PointOfInterest, _, _ mgl64.Vec3) {
	b.shown = append(b.shown, poi.Name)
}

func (b *recordingBinder) Hide() {
	b.hides++
}

// recordingPanel пишет вызовы панели по порядку
type recordingPanel struct {
	calls []string
	pos   mgl64.Vec3
	look  mgl64.Vec3
}

func (p *recordingPanel) SetPosition(position mgl64.Vec3) {
	p.pos = position
	p.calls = append(p.calls, "position")
}

func (p *recordingPanel) LookAt(target mgl64.Vec3) {
	p.look = target
	p.calls = append(p.calls, "lookat")
}

func (p *recordingPanel) SetField(name, text string) {
	p.calls = append(p.calls, fmt.Sprintf("%s=%s", name, text))
}

func (p *recordingPanel) SetVisible(visible bool) {
	p.calls = append(p.calls, fmt.Sprintf("visible=%v", visible))
}

func (p *recordingPanel) Update() {
	p.calls = append(p.calls, "update")
}

func registryOf(names ...string) RegistrySource {
	registry := entity.NewRegistry()
	for _, name := range names {
		registry.Add(entity.PointOfInterest{Name: name, Title: name + " title", Body: name + " body"})
	}
	return func() *entity.Registry { return registry }
}

func newTestProximity(t *testing.T, registry RegistrySource, scene fakeScene, binder PanelBinder) *Proximity {
	t.Helper()
	return NewProximity(DefaultProximityConfig(), registry, scene, binder, zaptest.NewLogger(t).Sugar())
}

func TestProximityRadius(t *testing.T) {
	scene := fakeScene{"Shop": world.NewAnchor("Shop", mgl64.Vec3{0, 0, -2.9})}
	binder := &recordingBinder{}
	prox := newTestProximity(t, registryOf("Shop"), scene, binder)

	test.That(t, prox.Evaluate(mgl64.Vec3{}, mgl64.Vec3{0, 1.6, 0}), test.ShouldEqual, "Shop")
	test.That(t, binder.shown, test.ShouldResemble, []string{"Shop"})

	// Повторный кадр в радиусе панель не перерисовывает
	prox.Evaluate(mgl64.Vec3{}, mgl64.Vec3{0, 1.6, 0})
	test.That(t, binder.shown, test.ShouldHaveLength, 1)

	scene["Shop"] = world.NewAnchor("Shop", mgl64.Vec3{0, 0, -3.1})
	test.That(t, prox.Evaluate(mgl64.Vec3{}, mgl64.Vec3{0, 1.6, 0}), test.ShouldEqual, "")
	test.That(t, prox.Active(), test.ShouldEqual, "")
	test.That(t, binder.hides, test.ShouldEqual, 1)
}

func TestProximityLastMatchWins(t *testing.T) {
	scene := fakeScene{
		"A": world.NewAnchor("A", mgl64.Vec3{1, 0, 0}),
		"B": world.NewAnchor("B", mgl64.Vec3{2, 0, 0}),
	}
	binder := &recordingBinder{}
	prox := newTestProximity(t, registryOf("A", "B"), scene, binder)

	// Обе точки в радиусе: побеждает последняя в порядке реестра, хотя A ближе
	test.That(t, prox.Evaluate(mgl64.Vec3{}, mgl64.Vec3{}), test.ShouldEqual, "B")
	test.That(t, binder.shown, test.ShouldResemble, []string{"A", "B"})
}

func TestProximityUnresolvedNamesNeverTrigger(t *testing.T) {
	binder := &recordingBinder{}
	prox := newTestProximity(t, registryOf("Library"), fakeScene{}, binder)

	test.That(t, prox.Evaluate(mgl64.Vec3{}, mgl64.Vec3{}), test.ShouldEqual, "")
	test.That(t, binder.shown, test.ShouldBeEmpty)
}

func TestProximitySkipsUntilRegistryLoaded(t *testing.T) {
	scene := fakeScene{"Shop": world.NewAnchor("Shop", mgl64.Vec3{})}
	binder := &recordingBinder{}

	var registry *entity.Registry
	prox := newTestProximity(t, func() *entity.Registry { return registry }, scene, binder)

	test.That(t, prox.Evaluate(mgl64.Vec3{}, mgl64.Vec3{}), test.ShouldEqual, "")
	test.That(t, binder.shown, test.ShouldBeEmpty)
	test.That(t, binder.hides, test.ShouldEqual, 0)

	registry = entity.NewRegistry()
	registry.Add(entity.PointOfInterest{Name: "Shop"})
	test.That(t, prox.Evaluate(mgl64.Vec3{}, mgl64.Vec3{}), test.ShouldEqual, "Shop")
}

func TestPortBinderShow(t *testing.T) {
	p := &recordingPanel{}
	binder := NewPortBinder(p, DefaultPanelOffset)

	poi := entity.PointOfInterest{Name: "Shop", Title: "Gift shop", Body: "Open daily"}
	binder.Show(poi, mgl64.Vec3{1, 0, 2}, mgl64.Vec3{0, 1.6, 5})

	test.That(t, p.calls, test.ShouldResemble, []string{
		"position", "lookat", "name=Gift shop", "info=Open daily", "update", "visible=true",
	})
	test.That(t, p.pos, test.ShouldResemble, mgl64.Vec3{1, 1.3, 2})
	test.That(t, p.look, test.ShouldResemble, mgl64.Vec3{0, 1.6, 5})

	binder.Hide()
	test.That(t, p.calls[len(p.calls)-1], test.ShouldEqual, "visible=false")
}

func TestPortBinderWithoutPanel(t *testing.T) {
	binder := NewPortBinder(nil, mgl64.Vec3{})
	binder.Show(entity.PointOfInterest{Name: "Shop"}, mgl64.Vec3{}, mgl64.Vec3{})
	binder.Hide()
}
