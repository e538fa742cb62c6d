package world

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap/zaptest"
	"go.viam.com/test"
)

func rawBox(name, material string) *RawObject {
	return &RawObject{
		Name:      name,
		Materials: []string{material},
		Triangles: BoxTriangles(mgl64.Vec3{0, 0, 0}, mgl64.Vec3{1, 1, 1}),
	}
}

func TestClassifyPrecedence(t *testing.T) {
	f := NewFactory(NewManager(), nil, zaptest.NewLogger(t).Sugar())

	cases := []struct {
		name     string
		material string
		expected Category
	}{
		{"PROXY", "Glass_Clear", CategoryProxy},
		{"Door_3", "Wall_Plaster", CategoryWall},
		{"Main_Floor", "Tiles", CategoryFloor},
		{"Panel", "Door_Oak", CategoryDoor},
		{"Dome", "SkyBox_Mat", CategorySkyBox},
		{"Glass_Shelf", "Metal", CategoryOther},
		{"Chair", "Fabric", CategoryOther},
		{"Ceiling_West", "Plaster", CategoryCeiling},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			test.That(t, f.Classify(rawBox(c.name, c.material)), test.ShouldEqual, c.expected)
		})
	}
}

func TestCustomCategoryRules(t *testing.T) {
	rule, err := NewCategoryRule("Glass", "Window", "name")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, rule.Category, test.ShouldEqual, CategoryGlass)

	f := NewFactory(NewManager(), []CategoryRule{rule}, nil)
	test.That(t, f.Classify(rawBox("Window_1", "Wood")), test.ShouldEqual, CategoryGlass)
	test.That(t, f.Classify(rawBox("Door", "Window")), test.ShouldEqual, CategoryOther)

	_, err = NewCategoryRule("lava", "x", "")
	test.That(t, err, test.ShouldNotBeNil)
	_, err = NewCategoryRule("wall", "", "any")
	test.That(t, err, test.ShouldNotBeNil)
	_, err = NewCategoryRule("wall", "W", "texture")
	test.That(t, err, test.ShouldNotBeNil)
}

func TestBuildScene(t *testing.T) {
	manager := NewManager()
	f := NewFactory(manager, nil, zaptest.NewLogger(t).Sugar())

	proxy, err := f.Build(DemoModel())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, proxy.Meshes, test.ShouldHaveLength, 1)
	test.That(t, proxy.TriangleCount(), test.ShouldBeGreaterThan, 0)

	obj, ok := manager.ObjectByName("COLLISION_PROXY")
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, obj.Category, test.ShouldEqual, CategoryProxy)
	test.That(t, obj.Appearance.Visible, test.ShouldBeFalse)

	glass, ok := manager.ObjectByName("Window_North")
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, glass.Appearance.Opacity, test.ShouldEqual, 0.1)
	test.That(t, glass.Appearance.Transparent, test.ShouldBeTrue)

	test.That(t, manager.ObjectsByCategory(CategoryDoor), test.ShouldHaveLength, 2)
	test.That(t, manager.Objects()[0].Name, test.ShouldEqual, "Floor_Main")
}

func TestBuildWithoutProxy(t *testing.T) {
	manager := NewManager()
	f := NewFactory(manager, nil, nil)

	proxy, err := f.Build([]*RawObject{rawBox("Chair", "Fabric"), {Name: "Empty"}})
	test.That(t, err, test.ShouldEqual, ErrNoProxyMesh)
	test.That(t, proxy, test.ShouldBeNil)
	test.That(t, manager.Len(), test.ShouldEqual, 1)
}

func TestMidpointAnchors(t *testing.T) {
	manager := NewManager()
	f := NewFactory(manager, nil, zaptest.NewLogger(t).Sugar())
	_, err := f.Build(DemoModel())
	test.That(t, err, test.ShouldBeNil)

	created := f.AddMidpointAnchors(append(DemoAnchors, MidpointAnchor{Name: "Ghost", From: "Nope", To: "Reception"}))
	test.That(t, created, test.ShouldEqual, 1)

	lobby, ok := manager.ObjectByName("LobbyShop")
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, lobby.Category, test.ShouldEqual, CategoryAnchor)
	test.That(t, lobby.Mesh, test.ShouldBeNil)
	test.That(t, lobby.WorldPosition().ApproxEqualThreshold(mgl64.Vec3{0, 1.1, -9.95}, 1e-9), test.ShouldBeTrue)

	_, ok = manager.ObjectByName("Ghost")
	test.That(t, ok, test.ShouldBeFalse)
}
