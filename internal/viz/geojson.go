// Package viz prepares render payloads for the external drawing surface:
// GeoJSON features, view center/zoom, and sampled heat and wind grids.
// It is a pure read of store + weather + viewport, built on demand.
package viz

import (
	"github.com/paulmach/orb/geojson"

	"github.com/kalstrom/citypulse/internal/geo"
)

// Feature statuses on the wire.
const (
	StatusExisting = "existing"
	StatusAdded    = "added"
	StatusRemoved  = "removed"
)

// ToGeoJSON converts the store into one FeatureCollection: a feature per
// active entity plus ghost features for removed ones.
func ToGeoJSON(store *geo.Store) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, kind := range geo.Kinds {
		for _, e := range store.ActiveExisting(kind) {
			fc.Append(entityFeature(e, StatusExisting))
		}
		for _, e := range store.ActiveUserAdded(kind) {
			fc.Append(entityFeature(e, StatusAdded))
		}
		for _, e := range store.Removed(kind) {
			fc.Append(entityFeature(e, StatusRemoved))
		}
	}
	return fc
}

func entityFeature(e *geo.Entity, status string) *geojson.Feature {
	f := geojson.NewFeature(e.Geometry())
	f.ID = e.ID
	f.Properties["type"] = e.Kind.String()
	f.Properties["status"] = status
	if e.Subtype != "" {
		f.Properties["subtype"] = e.Subtype
	}
	if e.Name != "" {
		f.Properties["name"] = e.Name
	}
	return f
}
