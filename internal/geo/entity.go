// Package geo holds the urban entity model and the per-kind entity store.
// Entities come in four kinds and carry either a point anchor (buildings,
// trees) or a polyline path (canals, streets).
package geo

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// Kind is the entity category.
type Kind uint8

const (
	KindBuilding Kind = iota
	KindTree
	KindCanal
	KindStreet
)

// Kinds lists all entity kinds in canonical iteration order.
var Kinds = [4]Kind{KindBuilding, KindTree, KindCanal, KindStreet}

// String returns the wire name of the kind.
func (k Kind) String() string {
	switch k {
	case KindBuilding:
		return "building"
	case KindTree:
		return "tree"
	case KindCanal:
		return "canal"
	case KindStreet:
		return "street"
	}
	return "unknown"
}

// ParseKind maps a wire name back to a Kind.
func ParseKind(s string) (Kind, bool) {
	switch strings.ToLower(s) {
	case "building":
		return KindBuilding, true
	case "tree":
		return KindTree, true
	case "canal":
		return KindCanal, true
	case "street":
		return KindStreet, true
	}
	return 0, false
}

// Origin tags where an entity came from. Immutable once created.
type Origin uint8

const (
	OriginExisting Origin = iota // supplied by the geodata provider
	OriginUserAdded              // placed by the player
)

// String returns the wire name of the origin.
func (o Origin) String() string {
	if o == OriginUserAdded {
		return "added"
	}
	return "existing"
}

// Entity is one placed or provider-supplied object on the map.
// Point kinds (building, tree) use Anchor, buildings optionally with a
// Footprint ring. Line kinds (canal, street) use Path with at least
// two vertices.
type Entity struct {
	ID        string
	Kind      Kind
	Origin    Origin
	Anchor    orb.Point      // [lon, lat]
	Footprint orb.Polygon    // optional closed footprint (buildings)
	Path      orb.LineString // polyline vertices (canals, streets)
	Name      string
	Subtype   string
}

// AnchorPoint returns the representative coordinate of the entity:
// the anchor for point kinds, the first vertex for line kinds.
func (e *Entity) AnchorPoint() orb.Point {
	if len(e.Path) > 0 {
		return e.Path[0]
	}
	return e.Anchor
}

// NearestVertexTo returns the entity coordinate closest to p in flat
// degree space. For point kinds this is the anchor; for line kinds the
// nearest path vertex.
func (e *Entity) NearestVertexTo(p orb.Point) orb.Point {
	if len(e.Path) == 0 {
		return e.AnchorPoint()
	}
	best := e.Path[0]
	bestD := planar.DistanceSquared(p, best)
	for _, v := range e.Path[1:] {
		if d := planar.DistanceSquared(p, v); d < bestD {
			bestD = d
			best = v
		}
	}
	return best
}

// Geometry returns the native orb geometry of the entity.
func (e *Entity) Geometry() orb.Geometry {
	switch {
	case len(e.Path) > 0:
		return e.Path
	case len(e.Footprint) > 0:
		return e.Footprint
	default:
		return e.Anchor
	}
}

// NewUserID mints an id for a player-created entity. The timestamp keeps
// ids sortable by creation order, the uuid suffix keeps them unique even
// within one nanosecond.
func NewUserID() string {
	return fmt.Sprintf("u-%d-%s", time.Now().UnixNano(), uuid.NewString()[:8])
}
