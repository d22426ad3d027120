// Package session owns one player's game context: the entity store, base
// and derived weather, progression charges, and the orbit clock. All
// engine calls go through the session handle; there are no package-level
// singletons.
package session

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/kalstrom/citypulse/internal/climate"
	"github.com/kalstrom/citypulse/internal/edit"
	"github.com/kalstrom/citypulse/internal/geo"
	"github.com/kalstrom/citypulse/internal/orbit"
	"github.com/kalstrom/citypulse/internal/progression"
	"github.com/kalstrom/citypulse/internal/viz"
)

// ErrStaleEpoch marks a provider result that arrived after its location
// was superseded. Callers discard it silently.
var ErrStaleEpoch = errors.New("load epoch superseded")

// Event is a notable session occurrence, kept for display and journaling.
type Event struct {
	Iteration   int    `json:"iteration"`
	Description string `json:"description"`
	Category    string `json:"category"` // "edit", "orbit", "rank", "load"
}

// Session wires the engine components together behind one mutex. The
// clock goroutine and HTTP handlers are the only writers.
type Session struct {
	mu sync.Mutex

	store       *geo.Store
	editor      *edit.Engine
	base        climate.Snapshot
	current     climate.Snapshot
	charges     progression.Charges
	requirement progression.Requirement
	clock       orbit.State
	viewport    *viz.Viewport
	location    orb.Point // [lon, lat]
	epoch       uuid.UUID
	events      []Event
	ranks       int
}

// New creates an empty session. editSeed drives placeholder segment
// bearings.
func New(editSeed int64) *Session {
	return &Session{
		store:       geo.NewStore(),
		editor:      edit.NewEngine(editSeed),
		base:        climate.Snapshot{},
		charges:     progression.Baseline(),
		requirement: progression.DefaultRequirement,
		clock:       orbit.NewState(),
	}
}

// BeginLoad registers a location change and returns the load epoch that
// provider results must present. Any in-flight load for a previous epoch
// becomes stale.
func (s *Session) BeginLoad(lat, lon float64) uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.location = orb.Point{lon, lat}
	s.epoch = uuid.New()
	return s.epoch
}

// ApplyLoad installs fetched entities and the base weather snapshot.
// Results keyed to a superseded epoch are rejected with ErrStaleEpoch and
// leave the session untouched.
func (s *Session) ApplyLoad(epoch uuid.UUID, batch map[geo.Kind][]*geo.Entity, base climate.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if epoch != s.epoch {
		slog.Debug("stale load discarded", "epoch", epoch)
		return ErrStaleEpoch
	}

	s.store.Load(batch)
	s.base = base
	s.clock = orbit.Derive(time.Now())
	s.charges = progression.Baseline()
	s.ranks = 0
	s.recompute()

	total := 0
	for _, k := range geo.Kinds {
		total += len(s.store.ActiveExisting(k))
	}
	s.events = append(s.events, Event{
		Iteration:   s.clock.Iteration,
		Description: "location loaded",
		Category:    "load",
	})
	slog.Info("location loaded", "entities", total,
		"lat", s.location[1], "lon", s.location[0],
		"until_next_pass", s.clock.Remaining)
	return nil
}

// ApplyTap runs one edit action and recomputes weather and progression.
// The whole mutation is synchronous; no partial state is observable.
func (s *Session) ApplyTap(mode edit.Mode, tap orb.Point) (edit.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.editor.Apply(s.store, mode, tap)
	if err != nil {
		return res, err
	}
	s.recompute()

	switch {
	case res.Created != nil:
		s.events = append(s.events, Event{
			Iteration:   s.clock.Iteration,
			Description: res.Created.Kind.String() + " placed",
			Category:    "edit",
		})
	case res.Removed != nil:
		s.events = append(s.events, Event{
			Iteration:   s.clock.Iteration,
			Description: res.Removed.Kind.String() + " removed",
			Category:    "edit",
		})
	}
	return res, nil
}

// Tick advances the orbit clock one unit. On a pass completion the rank
// requirement is re-evaluated; qualification signals RankAchieved again
// on every qualifying pass, deduplication is the consumer's concern.
func (s *Session) Tick() []orbit.Event {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, events := orbit.Tick(s.clock)
	s.clock = next

	for _, ev := range events {
		if ev.Type != orbit.PassCompleted {
			continue
		}
		s.events = append(s.events, Event{
			Iteration:   ev.Iteration,
			Description: "satellite pass completed",
			Category:    "orbit",
		})
		if s.charges.Meets(s.requirement) {
			s.ranks++
			s.events = append(s.events, Event{
				Iteration:   ev.Iteration,
				Description: "rank requirement met",
				Category:    "rank",
			})
			slog.Info("rank achieved", "iteration", ev.Iteration,
				"life", s.charges.Life, "social", s.charges.Social, "energy", s.charges.Energy)
		}
	}

	// Trim old events to prevent unbounded growth (keep last 500).
	if len(s.events) > 500 {
		s.events = s.events[len(s.events)-500:]
	}
	return events
}

// Reset clears all edits, restores the last-loaded existing sets, and
// returns progression and clock to initial values.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.store.Reset()
	s.charges = progression.Baseline()
	s.clock = orbit.NewState()
	s.ranks = 0
	s.recompute()
	s.events = append(s.events, Event{Description: "session reset", Category: "edit"})
	slog.Info("session reset")
}

// SetViewport installs the map surface's visible region; nil clears it.
func (s *Session) SetViewport(vp *viz.Viewport) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.viewport = vp
}

// recompute rebuilds current weather and charges from the store's net
// counts. Always from base; callers hold the mutex.
//
// The impact calculator never sees tree removals (held at zero), and
// canals/streets carry no weather effect at all. Both asymmetries are
// inherited behavior, kept deliberately.
func (s *Session) recompute() {
	s.current = climate.Impact(s.base, climate.Counts{
		BuildingsAdded:   s.store.AddedCount(geo.KindBuilding),
		BuildingsRemoved: s.store.RemovedCount(geo.KindBuilding),
		TreesAdded:       s.store.AddedCount(geo.KindTree),
		TreesRemoved:     0,
	})
	s.charges = progression.Compute(
		s.store.AddedCount(geo.KindTree),
		s.store.AddedCount(geo.KindBuilding),
		s.store.RemovedCount(geo.KindBuilding),
		s.store.AddedCount(geo.KindStreet),
	)
}

// State is a plain-value snapshot of everything the UI displays.
type State struct {
	Location      orb.Point               `json:"location"` // [lon, lat]
	Base          climate.Snapshot        `json:"base_weather"`
	Current       climate.Snapshot        `json:"current_weather"`
	Charges       progression.Charges     `json:"charges"`
	Requirement   progression.Requirement `json:"requirement"`
	PercentLife   int                     `json:"percent_life"`
	PercentSocial int                     `json:"percent_social"`
	PercentEnergy int                     `json:"percent_energy"`
	Clock         orbit.State             `json:"clock"`
	Counts        map[string]int          `json:"counts"`
	RanksAchieved int                     `json:"ranks_achieved"`
	Events        []Event                 `json:"events"`
}

// Snapshot copies the displayable session state.
func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	counts := make(map[string]int, 8)
	for _, k := range geo.Kinds {
		counts[k.String()+"_added"] = s.store.AddedCount(k)
		counts[k.String()+"_removed"] = s.store.RemovedCount(k)
	}

	recent := s.events
	if len(recent) > 20 {
		recent = recent[len(recent)-20:]
	}

	return State{
		Location:      s.location,
		Base:          s.base,
		Current:       s.current,
		Charges:       s.charges,
		Requirement:   s.requirement,
		PercentLife:   progression.PercentToGoal(s.charges.Life, s.requirement.Life),
		PercentSocial: progression.PercentToGoal(s.charges.Social, s.requirement.Social),
		PercentEnergy: progression.PercentToGoal(s.charges.Energy, s.requirement.Energy),
		Clock:         s.clock,
		Counts:        counts,
		RanksAchieved: s.ranks,
		Events:        append([]Event(nil), recent...),
	}
}

// GeoJSON renders the store as a feature collection.
func (s *Session) GeoJSON() *geojson.FeatureCollection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return viz.ToGeoJSON(s.store)
}

// RenderConfig assembles the full payload for the rendering surface.
// Built on demand, not on every mutation.
func (s *Session) RenderConfig(gridSize int) viz.RenderConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	return viz.BuildRenderConfig(s.store, s.current, s.viewport, s.location, gridSize)
}
