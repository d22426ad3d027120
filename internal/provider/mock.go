package provider

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/paulmach/orb"

	"github.com/kalstrom/citypulse/internal/geo"
)

// Mock batch size ranges, matching a plausible dense urban block.
const (
	mockBuildingsMin, mockBuildingsMax = 15, 35
	mockTreesMin, mockTreesMax         = 5, 15
	mockCanalsMin, mockCanalsMax       = 2, 4
	mockStreetsMin, mockStreetsMax     = 3, 6
)

// MockEntities generates a deterministic pseudo-random entity batch
// anchored within radiusDeg of the location. Same location, same batch;
// this is the fallback when the geodata provider is unavailable.
func MockEntities(lat, lon, radiusDeg float64) map[geo.Kind][]*geo.Entity {
	rng := rand.New(rand.NewSource(mockSeed(lat, lon)))
	batch := make(map[geo.Kind][]*geo.Entity)

	buildings := spanInt(rng, mockBuildingsMin, mockBuildingsMax)
	for i := 0; i < buildings; i++ {
		anchor := scatter(rng, lat, lon, radiusDeg)
		half := 0.5e-4 + rng.Float64()*1e-4
		batch[geo.KindBuilding] = append(batch[geo.KindBuilding], &geo.Entity{
			ID:        fmt.Sprintf("mock-building-%d", i+1),
			Kind:      geo.KindBuilding,
			Origin:    geo.OriginExisting,
			Anchor:    anchor,
			Footprint: squareRing(anchor, half),
			Subtype:   "residential",
		})
	}

	trees := spanInt(rng, mockTreesMin, mockTreesMax)
	for i := 0; i < trees; i++ {
		batch[geo.KindTree] = append(batch[geo.KindTree], &geo.Entity{
			ID:     fmt.Sprintf("mock-tree-%d", i+1),
			Kind:   geo.KindTree,
			Origin: geo.OriginExisting,
			Anchor: scatter(rng, lat, lon, radiusDeg),
		})
	}

	canals := spanInt(rng, mockCanalsMin, mockCanalsMax)
	for i := 0; i < canals; i++ {
		batch[geo.KindCanal] = append(batch[geo.KindCanal], &geo.Entity{
			ID:      fmt.Sprintf("mock-canal-%d", i+1),
			Kind:    geo.KindCanal,
			Origin:  geo.OriginExisting,
			Path:    wander(rng, lat, lon, radiusDeg, 4),
			Subtype: "canal",
		})
	}

	streets := spanInt(rng, mockStreetsMin, mockStreetsMax)
	for i := 0; i < streets; i++ {
		batch[geo.KindStreet] = append(batch[geo.KindStreet], &geo.Entity{
			ID:      fmt.Sprintf("mock-street-%d", i+1),
			Kind:    geo.KindStreet,
			Origin:  geo.OriginExisting,
			Path:    wander(rng, lat, lon, radiusDeg, 3),
			Subtype: "residential",
		})
	}

	return batch
}

// mockSeed derives a stable seed from the location so repeated fallbacks
// at the same place produce the same city block.
func mockSeed(lat, lon float64) int64 {
	return int64(math.Round(lat*1e5))*1_000_003 + int64(math.Round(lon*1e5))
}

func spanInt(rng *rand.Rand, lo, hi int) int {
	return lo + rng.Intn(hi-lo+1)
}

// scatter places a point uniformly within the radius box around the
// location.
func scatter(rng *rand.Rand, lat, lon, radiusDeg float64) orb.Point {
	return orb.Point{
		lon + (rng.Float64()*2-1)*radiusDeg,
		lat + (rng.Float64()*2-1)*radiusDeg,
	}
}

// wander builds an n-vertex polyline meandering from a scattered start.
func wander(rng *rand.Rand, lat, lon, radiusDeg float64, n int) orb.LineString {
	step := radiusDeg / 3
	cur := scatter(rng, lat, lon, radiusDeg)
	path := orb.LineString{cur}
	bearing := rng.Float64() * 2 * math.Pi
	for i := 1; i < n; i++ {
		bearing += (rng.Float64() - 0.5) // gentle drift
		cur = orb.Point{
			cur[0] + step*math.Sin(bearing),
			cur[1] + step*math.Cos(bearing),
		}
		path = append(path, cur)
	}
	return path
}

func squareRing(p orb.Point, half float64) orb.Polygon {
	lon, lat := p[0], p[1]
	return orb.Polygon{orb.Ring{
		{lon - half, lat - half},
		{lon + half, lat - half},
		{lon + half, lat + half},
		{lon - half, lat + half},
		{lon - half, lat - half},
	}}
}
