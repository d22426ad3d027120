package viz

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/kalstrom/citypulse/internal/climate"
	"github.com/kalstrom/citypulse/internal/geo"
)

// Style is one kind+status draw rule: a fill color and an extrusion
// height for the 3D surface. The engine only hands these over; all
// drawing belongs to the renderer.
type Style struct {
	Color     string  `json:"color"`
	Elevation float64 `json:"elevation"`
	Opacity   float64 `json:"opacity"`
}

// KindStyles maps "<kind>.<status>" to its draw rule.
var KindStyles = map[string]Style{
	"building.existing": {Color: "#8d99ae", Elevation: 18, Opacity: 0.9},
	"building.added":    {Color: "#ff8c42", Elevation: 22, Opacity: 0.95},
	"building.removed":  {Color: "#d64550", Elevation: 6, Opacity: 0.35},
	"tree.existing":     {Color: "#2e8b57", Elevation: 8, Opacity: 0.9},
	"tree.added":        {Color: "#7ddf64", Elevation: 10, Opacity: 0.95},
	"tree.removed":      {Color: "#d64550", Elevation: 2, Opacity: 0.35},
	"canal.existing":    {Color: "#3a86c8", Elevation: 0, Opacity: 0.85},
	"canal.added":       {Color: "#61c0f2", Elevation: 0, Opacity: 0.9},
	"canal.removed":     {Color: "#d64550", Elevation: 0, Opacity: 0.3},
	"street.existing":   {Color: "#c9c9c9", Elevation: 0.5, Opacity: 0.85},
	"street.added":      {Color: "#ffd166", Elevation: 0.5, Opacity: 0.9},
	"street.removed":    {Color: "#d64550", Elevation: 0.5, Opacity: 0.3},
}

// RenderConfig is the full declarative payload for the rendering surface.
type RenderConfig struct {
	View     View                       `json:"view"`
	Styles   map[string]Style           `json:"styles"`
	Features *geojson.FeatureCollection `json:"features"`
	Heat     []HeatSample               `json:"heat"`
	Wind     []WindSegment              `json:"wind"`
}

// BuildRenderConfig assembles GeoJSON, camera and field grids from the
// current store, weather and optional viewport.
func BuildRenderConfig(store *geo.Store, weather climate.Snapshot, vp *Viewport, fallback orb.Point, gridSize int) RenderConfig {
	fc := ToGeoJSON(store)

	var bound orb.Bound
	if len(fc.Features) > 0 {
		bound = FeatureBound(fc)
	} else {
		bound = orb.Bound{Min: fallback, Max: fallback}
	}

	return RenderConfig{
		View:     ResolveView(vp, fc, fallback),
		Styles:   KindStyles,
		Features: fc,
		Heat:     HeatGrid(weather, bound, gridSize),
		Wind:     WindField(weather, bound, gridSize),
	}
}
