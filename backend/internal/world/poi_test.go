package world

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.viam.com/test"
)

func TestParsePOIDocumentKeepsOrder(t *testing.T) {
	doc := `{
		"Zeta": {"name": "Zeta Hall", "info": "last letter"},
		"Alpha": {"name": "Alpha Room", "info": "first letter"},
		"Mid": {"name": "Middle", "info": "", "extra": 42}
	}`

	pois, err := ParsePOIDocument(strings.NewReader(doc))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, pois, test.ShouldHaveLength, 3)

	test.That(t, pois[0].Name, test.ShouldEqual, "Zeta")
	test.That(t, pois[0].Title, test.ShouldEqual, "Zeta Hall")
	test.That(t, pois[0].Body, test.ShouldEqual, "last letter")
	test.That(t, pois[1].Name, test.ShouldEqual, "Alpha")
	test.That(t, pois[2].Name, test.ShouldEqual, "Mid")
}

func TestParsePOIDocumentRejectsGarbage(t *testing.T) {
	for _, doc := range []string{`[]`, `{"A": 5}`, `{"A": {"name": "x"}`, ``} {
		_, err := ParsePOIDocument(strings.NewReader(doc))
		test.That(t, err, test.ShouldNotBeNil)
	}
}

func TestLoadPOIFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	test.That(t, os.WriteFile(path, DemoPOIDocument, 0o600), test.ShouldBeNil)

	pois, err := LoadPOIFile(path)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, pois, test.ShouldHaveLength, 4)
	test.That(t, pois[0].Name, test.ShouldEqual, "LobbyShop")

	_, err = LoadPOIFile(filepath.Join(t.TempDir(), "none.json"))
	test.That(t, err, test.ShouldNotBeNil)
}
