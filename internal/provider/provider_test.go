package provider

import (
	"math"
	"testing"

	"github.com/kalstrom/citypulse/internal/geo"
)

func TestMockEntitiesDeterministic(t *testing.T) {
	a := MockEntities(52.52, 13.405, 0.01)
	b := MockEntities(52.52, 13.405, 0.01)

	for _, k := range geo.Kinds {
		if len(a[k]) != len(b[k]) {
			t.Fatalf("%s count differs across runs: %d vs %d", k, len(a[k]), len(b[k]))
		}
		for i := range a[k] {
			if a[k][i].ID != b[k][i].ID || a[k][i].Anchor != b[k][i].Anchor {
				t.Fatalf("%s[%d] differs across runs", k, i)
			}
		}
	}

	other := MockEntities(48.85, 2.35, 0.01)
	if len(other[geo.KindBuilding]) == len(a[geo.KindBuilding]) &&
		len(other[geo.KindTree]) == len(a[geo.KindTree]) &&
		len(other[geo.KindCanal]) == len(a[geo.KindCanal]) &&
		len(other[geo.KindStreet]) == len(a[geo.KindStreet]) {
		// Counts can coincide; geometry should not.
		if other[geo.KindBuilding][0].Anchor == a[geo.KindBuilding][0].Anchor {
			t.Error("different locations produced identical batches")
		}
	}
}

func TestMockEntitiesCountRanges(t *testing.T) {
	batch := MockEntities(52.52, 13.405, 0.01)

	checks := []struct {
		kind   geo.Kind
		lo, hi int
	}{
		{geo.KindBuilding, mockBuildingsMin, mockBuildingsMax},
		{geo.KindTree, mockTreesMin, mockTreesMax},
		{geo.KindCanal, mockCanalsMin, mockCanalsMax},
		{geo.KindStreet, mockStreetsMin, mockStreetsMax},
	}
	for _, c := range checks {
		if n := len(batch[c.kind]); n < c.lo || n > c.hi {
			t.Errorf("%s count %d outside [%d,%d]", c.kind, n, c.lo, c.hi)
		}
	}
}

func TestMockEntitiesGeometry(t *testing.T) {
	const lat, lon, radius = 52.52, 13.405, 0.01
	batch := MockEntities(lat, lon, radius)

	for _, e := range batch[geo.KindBuilding] {
		if len(e.Footprint) != 1 || len(e.Footprint[0]) != 5 {
			t.Fatalf("building %s footprint malformed", e.ID)
		}
		if math.Abs(e.Anchor[0]-lon) > radius || math.Abs(e.Anchor[1]-lat) > radius {
			t.Errorf("building %s anchored outside the radius box", e.ID)
		}
		if e.Origin != geo.OriginExisting {
			t.Errorf("building %s not marked existing", e.ID)
		}
	}
	for _, e := range batch[geo.KindCanal] {
		if len(e.Path) < 2 {
			t.Errorf("canal %s path too short", e.ID)
		}
	}
	for _, e := range batch[geo.KindStreet] {
		if len(e.Path) < 2 {
			t.Errorf("street %s path too short", e.ID)
		}
	}
	if batch[geo.KindTree][0].ID != "mock-tree-1" {
		t.Errorf("unexpected mock id %s", batch[geo.KindTree][0].ID)
	}
}

const overpassFixture = `{
  "elements": [
    {
      "type": "way", "id": 101,
      "tags": {"building": "apartments", "name": "Hofhaus"},
      "geometry": [
        {"lat": 52.520, "lon": 13.400},
        {"lat": 52.520, "lon": 13.401},
        {"lat": 52.521, "lon": 13.401},
        {"lat": 52.521, "lon": 13.400}
      ]
    },
    {
      "type": "node", "id": 202, "lat": 52.5205, "lon": 13.4005,
      "tags": {"natural": "tree", "species": "Tilia"}
    },
    {
      "type": "way", "id": 303,
      "tags": {"waterway": "canal", "name": "Landwehrkanal"},
      "geometry": [
        {"lat": 52.519, "lon": 13.398},
        {"lat": 52.519, "lon": 13.404}
      ]
    },
    {
      "type": "way", "id": 404,
      "tags": {"highway": "residential"},
      "geometry": [
        {"lat": 52.522, "lon": 13.399},
        {"lat": 52.522, "lon": 13.403}
      ]
    },
    {
      "type": "way", "id": 505,
      "tags": {"building": "yes"},
      "geometry": [
        {"lat": 52.520, "lon": 13.400},
        {"lat": 52.521, "lon": 13.401}
      ]
    },
    {
      "type": "node", "id": 606, "lat": 0, "lon": 0,
      "tags": {"natural": "tree"}
    },
    {
      "type": "node", "id": 707, "lat": 52.5, "lon": 13.4,
      "tags": {"amenity": "bench"}
    }
  ]
}`

func TestParseOverpass(t *testing.T) {
	batch, err := ParseOverpass([]byte(overpassFixture))
	if err != nil {
		t.Fatal(err)
	}

	if got := len(batch[geo.KindBuilding]); got != 1 {
		t.Errorf("buildings = %d, want 1 (degenerate ring dropped)", got)
	}
	if got := len(batch[geo.KindTree]); got != 1 {
		t.Errorf("trees = %d, want 1 (null island node dropped)", got)
	}
	if got := len(batch[geo.KindCanal]); got != 1 {
		t.Errorf("canals = %d, want 1", got)
	}
	if got := len(batch[geo.KindStreet]); got != 1 {
		t.Errorf("streets = %d, want 1", got)
	}

	b := batch[geo.KindBuilding][0]
	if b.ID != "osm-way/101" || b.Name != "Hofhaus" || b.Subtype != "apartments" {
		t.Errorf("building metadata wrong: %+v", b)
	}
	ring := b.Footprint[0]
	if ring[0] != ring[len(ring)-1] {
		t.Error("building ring not auto-closed")
	}
	if math.Abs(b.Anchor[0]-13.4005) > 1e-9 || math.Abs(b.Anchor[1]-52.5205) > 1e-9 {
		t.Errorf("centroid anchor = %v", b.Anchor)
	}

	tr := batch[geo.KindTree][0]
	if tr.ID != "osm-node/202" || tr.Subtype != "Tilia" {
		t.Errorf("tree metadata wrong: %+v", tr)
	}

	c := batch[geo.KindCanal][0]
	if c.Subtype != "canal" || len(c.Path) != 2 {
		t.Errorf("canal wrong: %+v", c)
	}
}

func TestParseOverpassRejectsGarbage(t *testing.T) {
	if _, err := ParseOverpass([]byte("<html>rate limited</html>")); err == nil {
		t.Error("expected parse error for non-JSON body")
	}
}

func TestFallbackWeather(t *testing.T) {
	w := FallbackWeather()
	if w.Temperature != 18.5 || w.WindSpeed != 12 || w.WindDirection != 230 {
		t.Errorf("fallback snapshot drifted: %+v", w)
	}
	if w.Humidity != 64 || w.CO2 != 417 || w.Pressure != 1013 {
		t.Errorf("fallback snapshot drifted: %+v", w)
	}
}
