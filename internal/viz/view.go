package viz

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// Viewport is the map surface's visible region, consumed read-only.
type Viewport struct {
	Latitude       float64 `json:"latitude"`
	Longitude      float64 `json:"longitude"`
	LatitudeDelta  float64 `json:"latitude_delta"`
	LongitudeDelta float64 `json:"longitude_delta"`
}

// View is the resolved camera for the rendering surface.
type View struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Zoom      float64 `json:"zoom"`
	Pitch     float64 `json:"pitch"`
}

// DefaultZoom applies when neither viewport nor features constrain the
// view. DefaultPitch gives the 3D surface its tilt.
const (
	DefaultZoom  = 14.0
	DefaultPitch = 45.0
)

// ResolveView derives the camera. A supplied viewport wins; otherwise the
// feature bounding box; otherwise the fallback location at default zoom.
func ResolveView(vp *Viewport, fc *geojson.FeatureCollection, fallback orb.Point) View {
	if vp != nil {
		delta := vp.LatitudeDelta
		if vp.LongitudeDelta > delta {
			delta = vp.LongitudeDelta
		}
		return View{
			Latitude:  vp.Latitude,
			Longitude: vp.Longitude,
			Zoom:      ZoomForDelta(delta),
			Pitch:     DefaultPitch,
		}
	}

	if fc != nil && len(fc.Features) > 0 {
		bound := FeatureBound(fc)
		center := bound.Center()
		latRange := bound.Max[1] - bound.Min[1]
		lonRange := bound.Max[0] - bound.Min[0]
		span := latRange
		if lonRange > span {
			span = lonRange
		}
		return View{
			Latitude:  center[1],
			Longitude: center[0],
			Zoom:      ZoomForDelta(span),
			Pitch:     DefaultPitch,
		}
	}

	return View{
		Latitude:  fallback[1],
		Longitude: fallback[0],
		Zoom:      DefaultZoom,
		Pitch:     DefaultPitch,
	}
}

// FeatureBound unions the bounds of every feature geometry, flattening
// Point, LineString and Polygon rings uniformly.
func FeatureBound(fc *geojson.FeatureCollection) orb.Bound {
	bound := fc.Features[0].Geometry.Bound()
	for _, f := range fc.Features[1:] {
		bound = bound.Union(f.Geometry.Bound())
	}
	return bound
}

// zoomStep maps a coordinate span (degrees) to a camera zoom.
type zoomStep struct {
	maxDelta float64
	zoom     float64
}

// The step table, largest spans first. Spans beyond the table floor at
// continent zoom; spans below the last step get street-level zoom.
var zoomSteps = []zoomStep{
	{20, 4},
	{10, 5},
	{5, 6.5},
	{2, 8},
	{1, 9.5},
	{0.5, 11},
	{0.2, 12},
	{0.1, 13},
	{0.05, 14},
	{0.02, 15},
	{0.01, 15.5},
}

// ZoomForDelta resolves a span against the step table.
func ZoomForDelta(delta float64) float64 {
	for _, s := range zoomSteps {
		if delta >= s.maxDelta {
			return s.zoom
		}
	}
	return 16.5
}
