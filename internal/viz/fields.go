package viz

import (
	"math"

	"github.com/paulmach/orb"

	"github.com/kalstrom/citypulse/internal/climate"
)

// DefaultGridSize is the sample resolution when the caller does not pick
// one.
const DefaultGridSize = 25

// minExtent pads degenerate bounding boxes (single point, empty store) so
// the grids still cover a visible area.
const minExtent = 0.01

// HeatSample is one weighted heat grid point.
type HeatSample struct {
	Lat    float64 `json:"lat"`
	Lon    float64 `json:"lon"`
	Weight float64 `json:"weight"`
}

// WindSegment is one directed wind vector for the rendering surface.
type WindSegment struct {
	Start     [2]float64 `json:"start"` // [lon, lat]
	End       [2]float64 `json:"end"`
	Intensity float64    `json:"intensity"` // [0,1] color scale
}

// HeatGrid samples gridSize x gridSize points across the bound, each
// weighted by temperature. The field is uniform; the rendering surface
// owns the color ramp and any spatial falloff.
func HeatGrid(w climate.Snapshot, bound orb.Bound, gridSize int) []HeatSample {
	if gridSize <= 0 {
		gridSize = DefaultGridSize
	}
	bound = padBound(bound)

	out := make([]HeatSample, 0, gridSize*gridSize)
	for i := 0; i < gridSize; i++ {
		for j := 0; j < gridSize; j++ {
			out = append(out, HeatSample{
				Lat:    lerp(bound.Min[1], bound.Max[1], frac(i, gridSize)),
				Lon:    lerp(bound.Min[0], bound.Max[0], frac(j, gridSize)),
				Weight: w.Temperature,
			})
		}
	}
	return out
}

// Wind segment length bounds, in meters-equivalent.
const (
	windLengthPerKmh = 3.0
	windLengthMin    = 20.0
	windLengthMax    = 100.0
	windFullScale    = 30.0 // km/h at which intensity saturates
)

// WindField samples a grid of directed segments: each starts at a sample
// point and extends along the wind direction, length proportional to
// speed, color intensity saturating at windFullScale.
func WindField(w climate.Snapshot, bound orb.Bound, gridSize int) []WindSegment {
	if gridSize <= 0 {
		gridSize = DefaultGridSize
	}
	bound = padBound(bound)

	lengthM := w.WindSpeed * windLengthPerKmh
	if lengthM < windLengthMin {
		lengthM = windLengthMin
	}
	if lengthM > windLengthMax {
		lengthM = windLengthMax
	}
	intensity := w.WindSpeed / windFullScale
	if intensity > 1 {
		intensity = 1
	}

	bearing := w.WindDirection * math.Pi / 180

	out := make([]WindSegment, 0, gridSize*gridSize)
	for i := 0; i < gridSize; i++ {
		for j := 0; j < gridSize; j++ {
			lat := lerp(bound.Min[1], bound.Max[1], frac(i, gridSize))
			lon := lerp(bound.Min[0], bound.Max[0], frac(j, gridSize))

			// Flat meter-to-degree conversion, fine at city scale.
			dLat := lengthM * math.Cos(bearing) / 111000
			dLon := lengthM * math.Sin(bearing) / (111000 * math.Cos(lat*math.Pi/180))

			out = append(out, WindSegment{
				Start:     [2]float64{lon, lat},
				End:       [2]float64{lon + dLon, lat + dLat},
				Intensity: intensity,
			})
		}
	}
	return out
}

// Hotspot returns the warmest heat sample, for the on-screen summary.
// With a uniform field this is simply the first sample; kept as a scan so
// a gradient field slots in without touching callers.
func Hotspot(samples []HeatSample) (HeatSample, bool) {
	if len(samples) == 0 {
		return HeatSample{}, false
	}
	best := samples[0]
	for _, s := range samples[1:] {
		if s.Weight > best.Weight {
			best = s
		}
	}
	return best, true
}

func padBound(b orb.Bound) orb.Bound {
	if b.Max[0]-b.Min[0] < minExtent {
		mid := (b.Max[0] + b.Min[0]) / 2
		b.Min[0], b.Max[0] = mid-minExtent/2, mid+minExtent/2
	}
	if b.Max[1]-b.Min[1] < minExtent {
		mid := (b.Max[1] + b.Min[1]) / 2
		b.Min[1], b.Max[1] = mid-minExtent/2, mid+minExtent/2
	}
	return b
}

func lerp(a, b, t float64) float64 { return a + (b-a)*t }

func frac(i, n int) float64 {
	if n <= 1 {
		return 0.5
	}
	return float64(i) / float64(n-1)
}
