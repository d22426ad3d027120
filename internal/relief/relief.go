// Package relief provides the elevation field for terrain visualization.
// The grid is synthesized with layered simplex noise plus basin and ridge
// shaping; structured so a real DEM tile can replace the generator later.
package relief

import (
	"math"

	opensimplex "github.com/ojrac/opensimplex-go"
	"github.com/paulmach/orb"
)

// Config holds relief grid parameters.
type Config struct {
	BaseLat    float64 // center latitude
	BaseLon    float64 // center longitude
	GridWidth  int
	GridHeight int
	Seed       int64
}

// DefaultConfig covers roughly a 5 km x 5 km urban area.
func DefaultConfig(lat, lon float64) Config {
	return Config{
		BaseLat:    lat,
		BaseLon:    lon,
		GridWidth:  100,
		GridHeight: 100,
		Seed:       42,
	}
}

// Bounds is the area and elevation envelope of the grid.
type Bounds struct {
	North        float64 `json:"north"`
	South        float64 `json:"south"`
	East         float64 `json:"east"`
	West         float64 `json:"west"`
	MinElevation float64 `json:"min_elevation"`
	MaxElevation float64 `json:"max_elevation"`
}

// Sample is one [lat, lon, value] visualization point.
type Sample struct {
	Lat   float64 `json:"lat"`
	Lon   float64 `json:"lon"`
	Value float64 `json:"value"`
}

// Contour is one chained elevation isoline.
type Contour struct {
	Elevation float64     `json:"elevation"`
	Points    []orb.Point `json:"points"` // [lon, lat]
}

// Provider serves elevation, hillshade and contour data over a fixed
// grid. Deterministic for a given Config.
type Provider struct {
	cfg      Config
	latMin   float64
	latMax   float64
	lonMin   float64
	lonMax   float64
	grid     [][]float64 // [y][x], meters above sea level
	minElev  float64
	maxElev  float64
}

// Area half-extents in degrees (roughly 5 km x 5 km at mid latitudes).
const (
	latHalfExtent = 0.03
	lonHalfExtent = 0.05
)

// New builds the elevation grid.
func New(cfg Config) *Provider {
	p := &Provider{
		cfg:    cfg,
		latMin: cfg.BaseLat - latHalfExtent,
		latMax: cfg.BaseLat + latHalfExtent,
		lonMin: cfg.BaseLon - lonHalfExtent,
		lonMax: cfg.BaseLon + lonHalfExtent,
	}
	p.generate()
	return p
}

// generate fills the grid: a flat lowland base with a gentle slope, a
// river basin, two canal depressions, noise hills and one raised field.
func (p *Provider) generate() {
	noise := opensimplex.NewNormalized(p.cfg.Seed)

	const baseElevation = 38.0
	p.grid = make([][]float64, p.cfg.GridHeight)
	p.minElev = math.Inf(1)
	p.maxElev = math.Inf(-1)

	for y := 0; y < p.cfg.GridHeight; y++ {
		p.grid[y] = make([]float64, p.cfg.GridWidth)
		fy := float64(y) / float64(p.cfg.GridHeight)
		for x := 0; x < p.cfg.GridWidth; x++ {
			fx := float64(x) / float64(p.cfg.GridWidth)

			slope := 5.0 * (fx*0.3 + fy*0.7)
			river := -8.0 * math.Exp(-((fx-0.3)*(fx-0.3)+(fy-0.5)*(fy-0.5))/0.1)
			canal1 := -3.0 * math.Exp(-((fx-0.6)*(fx-0.6))/0.05)
			canal2 := -3.0 * math.Exp(-((fy-0.3)*(fy-0.3))/0.05)
			hills := 4.0 * (octaveNoise(noise, fx*10, fy*10, 3, 0.8, 0.5) - 0.5)
			field := 3.0 * math.Exp(-((fx-0.5)*(fx-0.5)+(fy-0.7)*(fy-0.7))/0.15)

			elev := baseElevation + slope + river + canal1 + canal2 + hills + field
			if elev < 25.0 {
				elev = 25.0
			}

			p.grid[y][x] = elev
			if elev < p.minElev {
				p.minElev = elev
			}
			if elev > p.maxElev {
				p.maxElev = elev
			}
		}
	}
}

// GridToLatLon converts grid coordinates to lat/lon.
func (p *Provider) GridToLatLon(x, y int) (lat, lon float64) {
	lat = p.latMin + float64(y)/float64(p.cfg.GridHeight)*(p.latMax-p.latMin)
	lon = p.lonMin + float64(x)/float64(p.cfg.GridWidth)*(p.lonMax-p.lonMin)
	return lat, lon
}

// LatLonToGrid converts lat/lon to clamped grid coordinates.
func (p *Provider) LatLonToGrid(lat, lon float64) (x, y int) {
	y = int((lat - p.latMin) / (p.latMax - p.latMin) * float64(p.cfg.GridHeight))
	x = int((lon - p.lonMin) / (p.lonMax - p.lonMin) * float64(p.cfg.GridWidth))
	return clampInt(x, 0, p.cfg.GridWidth-1), clampInt(y, 0, p.cfg.GridHeight-1)
}

// ElevationAt returns the elevation at a point, clamped to the grid.
func (p *Provider) ElevationAt(lat, lon float64) float64 {
	x, y := p.LatLonToGrid(lat, lon)
	return p.grid[y][x]
}

// ElevationData samples every sampleRate-th grid point.
func (p *Provider) ElevationData(sampleRate int) []Sample {
	if sampleRate < 1 {
		sampleRate = 1
	}
	var out []Sample
	for y := 0; y < p.cfg.GridHeight; y += sampleRate {
		for x := 0; x < p.cfg.GridWidth; x += sampleRate {
			lat, lon := p.GridToLatLon(x, y)
			out = append(out, Sample{Lat: lat, Lon: lon, Value: p.grid[y][x]})
		}
	}
	return out
}

// Hillshade computes shaded relief values in [0,255] for a light source
// at the given azimuth and altitude (degrees).
func (p *Provider) Hillshade(sampleRate int, azimuth, altitude float64) []Sample {
	if sampleRate < 1 {
		sampleRate = 1
	}
	azRad := azimuth * math.Pi / 180
	altRad := altitude * math.Pi / 180

	var out []Sample
	for y := 0; y < p.cfg.GridHeight; y += sampleRate {
		for x := 0; x < p.cfg.GridWidth; x += sampleRate {
			gx, gy := p.gradientAt(x, y)
			slope := math.Atan(math.Sqrt(gx*gx + gy*gy))
			aspect := math.Atan2(-gx, gy)

			shade := math.Sin(altRad)*math.Sin(slope) +
				math.Cos(altRad)*math.Cos(slope)*math.Cos(azRad-aspect)
			shade = (shade + 1) / 2 * 255
			if shade < 0 {
				shade = 0
			}
			if shade > 255 {
				shade = 255
			}

			lat, lon := p.GridToLatLon(x, y)
			out = append(out, Sample{Lat: lat, Lon: lon, Value: shade})
		}
	}
	return out
}

// ContourLines extracts isolines at the given elevation levels. With nil
// levels, five levels spanning the elevation envelope are used. Points
// near a level are chained by nearest-neighbour walking; proper marching
// squares is overkill for a display hint.
func (p *Provider) ContourLines(levels []float64) []Contour {
	if levels == nil {
		span := p.maxElev - p.minElev
		for i := 0; i < 5; i++ {
			levels = append(levels, p.minElev+span*float64(i)/4)
		}
	}

	const threshold = 1.0 // meters
	var contours []Contour
	for _, level := range levels {
		var pts []orb.Point
		for y := 0; y < p.cfg.GridHeight; y++ {
			for x := 0; x < p.cfg.GridWidth; x++ {
				if math.Abs(p.grid[y][x]-level) < threshold {
					lat, lon := p.GridToLatLon(x, y)
					pts = append(pts, orb.Point{lon, lat})
				}
			}
		}
		if chained := chainPoints(pts); len(chained) > 5 {
			contours = append(contours, Contour{Elevation: level, Points: chained})
		}
	}
	return contours
}

// Bounds returns the grid's area and elevation envelope.
func (p *Provider) Bounds() Bounds {
	return Bounds{
		North:        p.latMax,
		South:        p.latMin,
		East:         p.lonMax,
		West:         p.lonMin,
		MinElevation: p.minElev,
		MaxElevation: p.maxElev,
	}
}

// gradientAt returns central-difference gradients, one-sided at edges.
func (p *Provider) gradientAt(x, y int) (gx, gy float64) {
	x0, x1 := clampInt(x-1, 0, p.cfg.GridWidth-1), clampInt(x+1, 0, p.cfg.GridWidth-1)
	y0, y1 := clampInt(y-1, 0, p.cfg.GridHeight-1), clampInt(y+1, 0, p.cfg.GridHeight-1)
	gx = (p.grid[y][x1] - p.grid[y][x0]) / float64(x1-x0)
	gy = (p.grid[y1][x] - p.grid[y0][x]) / float64(y1-y0)
	return gx, gy
}

// chainPoints orders scattered level points into one walkable line,
// stopping when the next point is too far to belong to the same line.
func chainPoints(pts []orb.Point) []orb.Point {
	if len(pts) <= 5 {
		return nil
	}
	const maxJumpSq = 0.01

	remaining := append([]orb.Point(nil), pts...)
	chained := []orb.Point{remaining[0]}
	remaining = remaining[1:]

	for len(remaining) > 0 {
		last := chained[len(chained)-1]
		bestIdx, bestD := 0, math.Inf(1)
		for i, pt := range remaining {
			dx := pt[0] - last[0]
			dy := pt[1] - last[1]
			if d := dx*dx + dy*dy; d < bestD {
				bestD = d
				bestIdx = i
			}
		}
		if bestD >= maxJumpSq {
			break
		}
		chained = append(chained, remaining[bestIdx])
		remaining = append(remaining[:bestIdx], remaining[bestIdx+1:]...)
	}
	return chained
}

// octaveNoise layers multiple noise frequencies, as in fractal terrain.
func octaveNoise(noise opensimplex.Noise, x, y float64, octaves int, frequency, persistence float64) float64 {
	total := 0.0
	amplitude := 1.0
	maxVal := 0.0
	for i := 0; i < octaves; i++ {
		total += noise.Eval2(x*frequency, y*frequency) * amplitude
		maxVal += amplitude
		amplitude *= persistence
		frequency *= 2
	}
	return total / maxVal
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
