// Package edit reconciles tap input against the entity store: add modes
// synthesize placeholder shapes, remove mode resolves the nearest
// candidate across all four kinds.
package edit

import (
	"math"
	"math/rand"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"github.com/kalstrom/citypulse/internal/geo"
)

// Mode is the active edit tool.
type Mode uint8

const (
	ModeView Mode = iota
	ModeAddBuilding
	ModeAddTree
	ModeAddCanal
	ModeAddStreet
	ModeRemove
)

// String returns the wire name of the mode.
func (m Mode) String() string {
	switch m {
	case ModeAddBuilding:
		return "add-building"
	case ModeAddTree:
		return "add-tree"
	case ModeAddCanal:
		return "add-canal"
	case ModeAddStreet:
		return "add-street"
	case ModeRemove:
		return "remove"
	}
	return "view"
}

// ParseMode maps a wire name back to a Mode.
func ParseMode(s string) (Mode, bool) {
	switch strings.ToLower(s) {
	case "view":
		return ModeView, true
	case "add-building":
		return ModeAddBuilding, true
	case "add-tree":
		return ModeAddTree, true
	case "add-canal":
		return ModeAddCanal, true
	case "add-street":
		return ModeAddStreet, true
	case "remove":
		return ModeRemove, true
	}
	return ModeView, false
}

// Placeholder shape constants, in degrees. The footprint half-width and
// the segment length approximate tens of meters and ~200 m at mid
// latitudes; no geodesic correction at this scale.
const (
	FootprintHalfWidth = 1e-4
	SegmentLength      = 200.0 / 111000.0
)

// Engine synthesizes shapes for add modes and resolves removals. The rng
// only drives segment bearings; shape structure stays deterministic.
type Engine struct {
	rng *rand.Rand
}

// NewEngine creates an edit engine with the given bearing seed.
func NewEngine(seed int64) *Engine {
	return &Engine{rng: rand.New(rand.NewSource(seed))}
}

// Result reports what a tap did to the store.
type Result struct {
	Created *geo.Entity // set for add modes
	Removed *geo.Entity // set for remove mode
	Deleted bool        // removed entity was user-added and dropped outright
}

// Apply consumes one tap in the given mode. View mode is a no-op.
// Remove mode returns geo.ErrEmptySelection when no candidate exists.
func (en *Engine) Apply(store *geo.Store, mode Mode, tap orb.Point) (Result, error) {
	switch mode {
	case ModeAddBuilding:
		return Result{Created: store.AddUserEntity(&geo.Entity{
			Kind:      geo.KindBuilding,
			Anchor:    tap,
			Footprint: squareFootprint(tap, FootprintHalfWidth),
		})}, nil
	case ModeAddTree:
		return Result{Created: store.AddUserEntity(&geo.Entity{
			Kind:   geo.KindTree,
			Anchor: tap,
		})}, nil
	case ModeAddCanal:
		return Result{Created: store.AddUserEntity(&geo.Entity{
			Kind: geo.KindCanal,
			Path: en.segmentFrom(tap),
		})}, nil
	case ModeAddStreet:
		return Result{Created: store.AddUserEntity(&geo.Entity{
			Kind: geo.KindStreet,
			Path: en.segmentFrom(tap),
		})}, nil
	case ModeRemove:
		return en.removeNearest(store, tap)
	}
	return Result{}, nil
}

// removeNearest scans active entities of every kind and removes the one
// whose nearest coordinate is closest to the tap. Exact ties keep the
// first candidate in iteration order (kinds in canonical order, existing
// before user-added).
func (en *Engine) removeNearest(store *geo.Store, tap orb.Point) (Result, error) {
	var best *geo.Entity
	bestD := math.Inf(1)

	for _, kind := range geo.Kinds {
		for _, list := range [2][]*geo.Entity{store.ActiveExisting(kind), store.ActiveUserAdded(kind)} {
			for _, e := range list {
				d := planar.DistanceSquared(tap, e.NearestVertexTo(tap))
				if d < bestD {
					bestD = d
					best = e
				}
			}
		}
	}

	if best == nil {
		return Result{}, geo.ErrEmptySelection
	}
	if best.Origin == geo.OriginUserAdded {
		store.DeleteUserEntity(best.Kind, best.ID)
		return Result{Removed: best, Deleted: true}, nil
	}
	store.MarkRemoved(best.Kind, best.ID)
	return Result{Removed: best}, nil
}

// squareFootprint builds a closed axis-aligned ring centered on p.
func squareFootprint(p orb.Point, half float64) orb.Polygon {
	lon, lat := p[0], p[1]
	ring := orb.Ring{
		{lon - half, lat - half},
		{lon + half, lat - half},
		{lon + half, lat + half},
		{lon - half, lat + half},
		{lon - half, lat - half},
	}
	return orb.Polygon{ring}
}

// segmentFrom builds a two-vertex polyline from the tap in a random
// bearing.
func (en *Engine) segmentFrom(p orb.Point) orb.LineString {
	bearing := en.rng.Float64() * 2 * math.Pi
	end := orb.Point{
		p[0] + SegmentLength*math.Sin(bearing),
		p[1] + SegmentLength*math.Cos(bearing),
	}
	return orb.LineString{p, end}
}
