package world

import (
	"strings"

	"github.com/go-gl/mathgl/mgl64"
)

// Category определяет поведение объекта сцены. Вычисляется один раз при загрузке.
type Category int

const (
	CategoryOther Category = iota
	CategoryProxy
	CategoryGlass
	CategoryWall
	CategoryStair
	CategorySofa
	CategoryCarpet
	CategoryDoor
	CategoryFloor
	CategoryCeiling
	CategorySkyBox
	CategoryAnchor
)

var categoryNames = map[Category]string{
	CategoryOther:   "other",
	CategoryProxy:   "proxy",
	CategoryGlass:   "glass",
	CategoryWall:    "wall",
	CategoryStair:   "stair",
	CategorySofa:    "sofa",
	CategoryCarpet:  "carpet",
	CategoryDoor:    "door",
	CategoryFloor:   "floor",
	CategoryCeiling: "ceiling",
	CategorySkyBox:  "skybox",
	CategoryAnchor:  "anchor",
}

func (c Category) String() string {
	if name, ok := categoryNames[c]; ok {
		return name
	}
	return "other"
}

// ParseCategory переводит имя категории из конфигурации.
func ParseCategory(name string) (Category, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for c, n := range categoryNames {
		if n == name {
			return c, true
		}
	}
	return CategoryOther, false
}

// Appearance подсказка для клиента, как отрисовать объект
type Appearance struct {
	Color       string  `json:"color,omitempty"`
	Opacity     float64 `json:"opacity"`
	Transparent bool    `json:"transparent,omitempty"`
	Unlit       bool    `json:"unlit,omitempty"`
	Visible     bool    `json:"visible"`
}

// appearanceFor возвращает оформление категории
func appearanceFor(c Category) Appearance {
	a := Appearance{Opacity: 1, Visible: true}
	switch c {
	case CategoryProxy:
		a.Visible = false
	case CategoryGlass:
		a.Opacity = 0.1
		a.Transparent = true
	case CategoryWall:
		a.Color = "#8B4513"
	case CategoryStair, CategoryCeiling:
		a.Color = "#000000"
	case CategorySofa:
		a.Color = "#F5F5DC"
	case CategoryCarpet:
		a.Color = "#B22222"
	case CategoryDoor:
		a.Color = "#FF0000"
	case CategoryFloor:
		a.Color = "#FFD580"
	case CategorySkyBox:
		a.Unlit = true
	case CategoryAnchor:
		a.Visible = false
	}
	return a
}

// Object именованный объект сцены
type Object struct {
	Name       string
	Material   string
	Category   Category
	Appearance Appearance
	Position   mgl64.Vec3 // мировая позиция опорной точки
	Mesh       *Mesh      // nil у синтетических якорей
}

// WorldPosition возвращает мировую позицию объекта
func (o *Object) WorldPosition() mgl64.Vec3 {
	return o.Position
}

// NewAnchor создает невидимый якорь без геометрии
func NewAnchor(name string, position mgl64.Vec3) *Object {
	return &Object{
		Name:       name,
		Category:   CategoryAnchor,
		Appearance: appearanceFor(CategoryAnchor),
		Position:   position,
	}
}
