package world

import (
	"bufio"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
)

// ErrEmptyModel модель не содержит ни одного треугольника
var ErrEmptyModel = errors.New("model has no faces")

// RawObject объект модели до классификации
type RawObject struct {
	Name      string
	Materials []string
	Triangles []Triangle
}

// Material возвращает первый материал объекта
func (o *RawObject) Material() string {
	if len(o.Materials) == 0 {
		return ""
	}
	return o.Materials[0]
}

// LoadOBJFile читает Wavefront OBJ с диска
func LoadOBJFile(path string) ([]*RawObject, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening model %q", path)
	}
	defer f.Close()

	objects, err := ParseOBJ(f)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing model %q", path)
	}
	return objects, nil
}

// ParseOBJ разбирает поток Wavefront OBJ.
// Поддерживаются o/g, usemtl, v и f (многоугольники разбиваются веером, допускаются отрицательные индексы).
func ParseOBJ(r io.Reader) ([]*RawObject, error) {
	var (
		vertices []mgl64.Vec3
		objects  []*RawObject
		current  *RawObject
		material string
	)

	startObject := func(name string) {
		current = &RawObject{Name: name}
		objects = append(objects, current)
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Fields(line)
		switch fields[0] {
		case "o", "g":
			name := "unnamed"
			if len(fields) > 1 {
				name = strings.Join(fields[1:], " ")
			}
			startObject(name)

		case "usemtl":
			if len(fields) < 2 {
				continue
			}
			material = fields[1]
			if current != nil && !slices.Contains(current.Materials, material) {
				current.Materials = append(current.Materials, material)
			}

		case "v":
			if len(fields) < 4 {
				return nil, errors.Errorf("line %d: vertex needs 3 coordinates", lineNo)
			}
			var v mgl64.Vec3
			for i := 0; i < 3; i++ {
				f, err := strconv.ParseFloat(fields[i+1], 64)
				if err != nil {
					return nil, errors.Wrapf(err, "line %d: bad vertex coordinate", lineNo)
				}
				v[i] = f
			}
			vertices = append(vertices, v)

		case "f":
			if len(fields) < 4 {
				return nil, errors.Errorf("line %d: face needs at least 3 vertices", lineNo)
			}
			if current == nil {
				startObject("default")
			}
			// Материал, заданный до объекта, действует и на его грани
			if len(current.Materials) == 0 && material != "" {
				current.Materials = append(current.Materials, material)
			}

			idx := make([]int, 0, len(fields)-1)
			for _, token := range fields[1:] {
				i, err := faceIndex(token, len(vertices))
				if err != nil {
					return nil, errors.Wrapf(err, "line %d", lineNo)
				}
				idx = append(idx, i)
			}

			for i := 1; i+1 < len(idx); i++ {
				current.Triangles = append(current.Triangles, Triangle{
					A: vertices[idx[0]],
					B: vertices[idx[i]],
					C: vertices[idx[i+1]],
				})
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "reading model")
	}

	total := 0
	for _, obj := range objects {
		total += len(obj.Triangles)
	}
	if total == 0 {
		return nil, ErrEmptyModel
	}

	return objects, nil
}

// faceIndex переводит ссылку на вершину "v", "v/vt", "v//vn" в индекс массива
func faceIndex(token string, count int) (int, error) {
	if slash := strings.IndexByte(token, '/'); slash >= 0 {
		token = token[:slash]
	}

	n, err := strconv.Atoi(token)
	if err != nil {
		return 0, errors.Wrapf(err, "bad face index %q", token)
	}

	var i int
	switch {
	case n > 0:
		i = n - 1
	case n < 0:
		i = count + n
	default:
		return 0, errors.New("face index 0 is invalid")
	}

	if i < 0 || i >= count {
		return 0, errors.Errorf("face index %d out of range (%d vertices)", n, count)
	}
	return i, nil
}
