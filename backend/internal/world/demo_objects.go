package world

import "github.com/go-gl/mathgl/mgl64"

// Демонстрационное здание: используется, когда путь к модели не задан, а также ботом и тестами.
const (
	demoHalfSize   = 10.0
	demoWallHeight = 3.0
	demoWallWidth  = 0.2
)

// DemoSpawn стартовая позиция посетителя в демо-здании
var DemoSpawn = mgl64.Vec3{0, 0, 5}

// DemoAnchors якоря демо-здания
var DemoAnchors = []MidpointAnchor{
	{Name: "LobbyShop", From: "LobbyShop_Door__1_", To: "LobbyShop_Door__2_"},
}

// DemoPOIDocument описания точек интереса в формате внешнего документа
var DemoPOIDocument = []byte(`{
  "LobbyShop": {"name": "Lobby Shop", "info": "Stationery, snacks and college merchandise. Open 8:00-18:00."},
  "Reception": {"name": "Reception", "info": "Visitor registration and campus maps."},
  "Lounge": {"name": "Student Lounge", "info": "Quiet seating area with charging points."},
  "Library": {"name": "Library", "info": "Second floor, east wing."}
}`)

// BoxTriangles 12 треугольников параллелепипеда
func BoxTriangles(min, max mgl64.Vec3) []Triangle {
	c := func(x, y, z int) mgl64.Vec3 {
		v := min
		if x == 1 {
			v[0] = max[0]
		}
		if y == 1 {
			v[1] = max[1]
		}
		if z == 1 {
			v[2] = max[2]
		}
		return v
	}

	quad := func(a, b, cc, d mgl64.Vec3) []Triangle {
		return []Triangle{{A: a, B: b, C: cc}, {A: a, B: cc, C: d}}
	}

	var tris []Triangle
	tris = append(tris, quad(c(0, 0, 0), c(1, 0, 0), c(1, 1, 0), c(0, 1, 0))...) // -Z
	tris = append(tris, quad(c(0, 0, 1), c(0, 1, 1), c(1, 1, 1), c(1, 0, 1))...) // +Z
	tris = append(tris, quad(c(0, 0, 0), c(0, 1, 0), c(0, 1, 1), c(0, 0, 1))...) // -X
	tris = append(tris, quad(c(1, 0, 0), c(1, 0, 1), c(1, 1, 1), c(1, 1, 0))...) // +X
	tris = append(tris, quad(c(0, 0, 0), c(0, 0, 1), c(1, 0, 1), c(1, 0, 0))...) // -Y
	tris = append(tris, quad(c(0, 1, 0), c(1, 1, 0), c(1, 1, 1), c(0, 1, 1))...) // +Y
	return tris
}

// DemoModel собирает демо-здание в виде сырых объектов модели
func DemoModel() []*RawObject {
	const h = demoHalfSize

	floor := NewHeightfield(mgl64.Vec3{-h, 0, -h}, 20, 20, 1.0,
		RampProfile(4, 8, -2, -8, 1.0))

	walls := [][2]mgl64.Vec3{
		{{-h, 0, -h - demoWallWidth}, {h, demoWallHeight, -h}},
		{{-h, 0, h}, {h, demoWallHeight, h + demoWallWidth}},
		{{-h - demoWallWidth, 0, -h}, {-h, demoWallHeight, h}},
		{{h, 0, -h}, {h + demoWallWidth, demoWallHeight, h}},
		{{-h, 0, -4.1}, {-3, demoWallHeight, -3.9}}, // перегородка
	}

	var wallTris []Triangle
	for _, w := range walls {
		wallTris = append(wallTris, BoxTriangles(w[0], w[1])...)
	}

	desk := BoxTriangles(mgl64.Vec3{-6, 0, 2}, mgl64.Vec3{-4, 1.1, 3})
	sofa := BoxTriangles(mgl64.Vec3{5, 0, 5}, mgl64.Vec3{8, 0.8, 6})

	proxy := make([]Triangle, 0, len(floor.Triangles())+len(wallTris)+len(desk)+len(sofa))
	proxy = append(proxy, floor.Triangles()...)
	proxy = append(proxy, wallTris...)
	proxy = append(proxy, desk...)
	proxy = append(proxy, sofa...)

	ceiling := NewHeightfield(mgl64.Vec3{-h, demoWallHeight, -h}, 1, 1, 2*h, Flat)

	return []*RawObject{
		{Name: "Floor_Main", Materials: []string{"Tiles"}, Triangles: floor.Triangles()},
		{Name: "Walls_Outer", Materials: []string{"Wall_Plaster"}, Triangles: wallTris},
		{Name: "Ceiling_Main", Materials: []string{"Ceiling_Panels"}, Triangles: ceiling.Triangles()},
		{Name: "Window_North", Materials: []string{"Glass_Clear"},
			Triangles: BoxTriangles(mgl64.Vec3{4, 1, -h - 0.05}, mgl64.Vec3{7, 2.5, -h})},
		{Name: "LobbyShop_Door__1_", Materials: []string{"Wood"},
			Triangles: BoxTriangles(mgl64.Vec3{-2, 0, -h}, mgl64.Vec3{-1, 2.2, -h + 0.1})},
		{Name: "LobbyShop_Door__2_", Materials: []string{"Wood"},
			Triangles: BoxTriangles(mgl64.Vec3{1, 0, -h}, mgl64.Vec3{2, 2.2, -h + 0.1})},
		{Name: "Reception", Materials: []string{"Wood"}, Triangles: desk},
		{Name: "Lounge", Materials: []string{"Sofa_Fabric"}, Triangles: sofa},
		{Name: "Carpet_Lounge", Materials: []string{"Carpet_Red"},
			Triangles: BoxTriangles(mgl64.Vec3{4, 0, 4}, mgl64.Vec3{9, 0.01, 7})},
		{Name: "COLLISION_PROXY", Materials: []string{"Proxy"}, Triangles: proxy},
	}
}
