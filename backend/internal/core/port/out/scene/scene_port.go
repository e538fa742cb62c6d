package scene

import "walkthrough/backend/internal/world"

// Graph поиск именованных объектов живой сцены
type Graph interface {
	ObjectByName(name string) (*world.Object, bool)
}
