package world

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"go.viam.com/test"
)

const sampleOBJ = `# exported
mtllib college.mtl
o PROXY_Floor
v 0 0 0
v 1 0 0
v 1 0 1
v 0 0 1
usemtl Concrete
f 1 2 3 4
o Wall_A
usemtl Wall_Brick
f -4/1/1 -3/2/1 -2/3/1
`

func TestParseOBJ(t *testing.T) {
	objects, err := ParseOBJ(strings.NewReader(sampleOBJ))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, objects, test.ShouldHaveLength, 2)

	floor := objects[0]
	test.That(t, floor.Name, test.ShouldEqual, "PROXY_Floor")
	test.That(t, floor.Materials, test.ShouldResemble, []string{"Concrete"})
	test.That(t, floor.Triangles, test.ShouldHaveLength, 2)
	test.That(t, floor.Triangles[1].C.Z(), test.ShouldEqual, 1.0)

	wall := objects[1]
	test.That(t, wall.Material(), test.ShouldEqual, "Wall_Brick")
	test.That(t, wall.Triangles, test.ShouldHaveLength, 1)
	test.That(t, wall.Triangles[0].A.X(), test.ShouldEqual, 0.0)
	test.That(t, wall.Triangles[0].B.X(), test.ShouldEqual, 1.0)
}

func TestParseOBJErrors(t *testing.T) {
	_, err := ParseOBJ(strings.NewReader("v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 9\n"))
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "out of range")

	_, err = ParseOBJ(strings.NewReader("v 0 0 x\n"))
	test.That(t, err, test.ShouldNotBeNil)

	_, err = ParseOBJ(strings.NewReader("o empty\nv 0 0 0\n"))
	test.That(t, err, test.ShouldEqual, ErrEmptyModel)
}

func TestLoadOBJFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.obj")
	test.That(t, os.WriteFile(path, []byte(sampleOBJ), 0o600), test.ShouldBeNil)

	objects, err := LoadOBJFile(path)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, objects, test.ShouldHaveLength, 2)

	_, err = LoadOBJFile(filepath.Join(t.TempDir(), "missing.obj"))
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "missing.obj")

	empty := filepath.Join(t.TempDir(), "empty.obj")
	test.That(t, os.WriteFile(empty, []byte("# nothing\n"), 0o600), test.ShouldBeNil)
	_, err = LoadOBJFile(empty)
	test.That(t, errors.Cause(err), test.ShouldEqual, ErrEmptyModel)
}
