package world

import (
	"encoding/json"
	"io"
	"os"

	"github.com/pkg/errors"

	"walkthrough/backend/internal/core/domain/entity"
)

// ParsePOIDocument читает документ { имя: { name, info } }.
// Порядок ключей документа сохраняется: от него зависит, какая точка побеждает при перекрытии радиусов.
func ParsePOIDocument(r io.Reader) ([]entity.PointOfInterest, error) {
	dec := json.NewDecoder(r)

	tok, err := dec.Token()
	if err != nil {
		return nil, errors.Wrap(err, "reading poi document")
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, errors.New("poi document must be a JSON object")
	}

	var result []entity.PointOfInterest
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, errors.Wrap(err, "reading poi name")
		}
		name, ok := tok.(string)
		if !ok {
			return nil, errors.Errorf("unexpected token %v", tok)
		}

		var poi entity.PointOfInterest
		if err := dec.Decode(&poi); err != nil {
			return nil, errors.Wrapf(err, "decoding poi %q", name)
		}
		poi.Name = name
		result = append(result, poi)
	}

	if _, err := dec.Token(); err != nil {
		return nil, errors.Wrap(err, "closing poi document")
	}

	return result, nil
}

// LoadPOIFile читает документ точек интереса с диска
func LoadPOIFile(path string) ([]entity.PointOfInterest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening poi document %q", path)
	}
	defer f.Close()

	pois, err := ParsePOIDocument(f)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing poi document %q", path)
	}
	return pois, nil
}
