package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/paulmach/orb"

	"github.com/kalstrom/citypulse/internal/geo"
)

// Geodata fetches real map entities from the Overpass API.
type Geodata struct {
	endpoint string
	client   *http.Client
}

// NewGeodata creates an Overpass client against the public endpoint.
func NewGeodata() *Geodata {
	return &Geodata{
		endpoint: "https://overpass-api.de/api/interpreter",
		client:   &http.Client{Timeout: 25 * time.Second},
	}
}

// Fetch queries buildings, trees, canals and streets within radiusDeg of
// the location and parses them into store-ready entities. Elements with
// unusable geometry are dropped, not fatal to the batch. The caller
// composes the fallback: fetch().orElse(MockEntities).
func (g *Geodata) Fetch(ctx context.Context, lat, lon, radiusDeg float64) (map[geo.Kind][]*geo.Entity, error) {
	radiusM := radiusDeg * 111000

	query := fmt.Sprintf(`[out:json][timeout:25];
(
  way["building"](around:%.0f,%.5f,%.5f);
  node["natural"="tree"](around:%.0f,%.5f,%.5f);
  way["waterway"~"^(canal|river|ditch)$"](around:%.0f,%.5f,%.5f);
  way["highway"](around:%.0f,%.5f,%.5f);
);
out tags geom 400;`,
		radiusM, lat, lon, radiusM, lat, lon, radiusM, lat, lon, radiusM, lat, lon)

	form := url.Values{"data": {query}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint,
		bytes.NewBufferString(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("overpass request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("overpass call: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read overpass response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("overpass error %d: %s", resp.StatusCode, truncate(body, 200))
	}

	return ParseOverpass(body)
}

// overpassElement mirrors one element of an Overpass JSON response with
// "out geom".
type overpassElement struct {
	Type     string            `json:"type"`
	ID       int64             `json:"id"`
	Lat      float64           `json:"lat"`
	Lon      float64           `json:"lon"`
	Tags     map[string]string `json:"tags"`
	Geometry []struct {
		Lat float64 `json:"lat"`
		Lon float64 `json:"lon"`
	} `json:"geometry"`
}

// ParseOverpass converts a raw Overpass response into per-kind entity
// lists. Split from Fetch so fixtures can exercise it offline.
func ParseOverpass(body []byte) (map[geo.Kind][]*geo.Entity, error) {
	var payload struct {
		Elements []overpassElement `json:"elements"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("parse overpass: %w", err)
	}

	batch := make(map[geo.Kind][]*geo.Entity)
	dropped := 0
	for _, el := range payload.Elements {
		e, ok := entityFromElement(el)
		if !ok {
			dropped++
			continue
		}
		batch[e.Kind] = append(batch[e.Kind], e)
	}

	if dropped > 0 {
		slog.Debug("overpass elements dropped", "count", dropped)
	}
	return batch, nil
}

func entityFromElement(el overpassElement) (*geo.Entity, bool) {
	tags := el.Tags
	name := tags["name"]

	switch {
	case el.Type == "node" && tags["natural"] == "tree":
		if el.Lat == 0 && el.Lon == 0 {
			return nil, false
		}
		return &geo.Entity{
			ID:      fmt.Sprintf("osm-node/%d", el.ID),
			Kind:    geo.KindTree,
			Origin:  geo.OriginExisting,
			Anchor:  orb.Point{el.Lon, el.Lat},
			Name:    name,
			Subtype: tags["species"],
		}, true

	case el.Type == "way" && tags["building"] != "":
		ring := ringFromGeometry(el)
		if len(ring) < 4 {
			return nil, false
		}
		return &geo.Entity{
			ID:        fmt.Sprintf("osm-way/%d", el.ID),
			Kind:      geo.KindBuilding,
			Origin:    geo.OriginExisting,
			Anchor:    ringCentroid(ring),
			Footprint: orb.Polygon{ring},
			Name:      name,
			Subtype:   tags["building"],
		}, true

	case el.Type == "way" && tags["waterway"] != "":
		path := pathFromGeometry(el)
		if len(path) < 2 {
			return nil, false
		}
		return &geo.Entity{
			ID:      fmt.Sprintf("osm-way/%d", el.ID),
			Kind:    geo.KindCanal,
			Origin:  geo.OriginExisting,
			Path:    path,
			Name:    name,
			Subtype: tags["waterway"],
		}, true

	case el.Type == "way" && tags["highway"] != "":
		path := pathFromGeometry(el)
		if len(path) < 2 {
			return nil, false
		}
		return &geo.Entity{
			ID:      fmt.Sprintf("osm-way/%d", el.ID),
			Kind:    geo.KindStreet,
			Origin:  geo.OriginExisting,
			Path:    path,
			Name:    name,
			Subtype: tags["highway"],
		}, true
	}
	return nil, false
}

func pathFromGeometry(el overpassElement) orb.LineString {
	path := make(orb.LineString, 0, len(el.Geometry))
	for _, v := range el.Geometry {
		path = append(path, orb.Point{v.Lon, v.Lat})
	}
	return path
}

func ringFromGeometry(el overpassElement) orb.Ring {
	ring := make(orb.Ring, 0, len(el.Geometry))
	for _, v := range el.Geometry {
		ring = append(ring, orb.Point{v.Lon, v.Lat})
	}
	if len(ring) >= 3 && ring[0] != ring[len(ring)-1] {
		ring = append(ring, ring[0])
	}
	return ring
}

func ringCentroid(ring orb.Ring) orb.Point {
	// Vertex mean is close enough for an anchor; skip the duplicated
	// closing vertex.
	n := len(ring)
	if n > 1 && ring[0] == ring[n-1] {
		n--
	}
	var lon, lat float64
	for _, p := range ring[:n] {
		lon += p[0]
		lat += p[1]
	}
	return orb.Point{lon / float64(n), lat / float64(n)}
}

func truncate(b []byte, n int) string {
	if len(b) > n {
		return string(b[:n]) + "..."
	}
	return string(b)
}
