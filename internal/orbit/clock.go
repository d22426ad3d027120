// Package orbit models the satellite-pass clock: a countdown to the next
// pass and a count-up since the last one, keyed to a fixed orbital
// period. Tick is pure; the caller's scheduler decides cadence.
package orbit

import "time"

// Period is the orbital period in clock units (seconds at the reference
// cadence of one tick per wall-clock second).
const Period = 6000

// State is the clock state. The zero value is not useful; start from
// NewState or Derive.
type State struct {
	Remaining int `json:"remaining"`  // countdown to next pass, in [0, Period]
	SinceLast int `json:"since_last"` // count-up since last pass
	Iteration int `json:"iteration"`  // completed passes, monotone
}

// NewState returns a freshly reset clock: a full period until the next
// pass.
func NewState() State {
	return State{Remaining: Period}
}

// Derive computes the clock phase from wall-clock time modulo the period.
// Agrees with tick evolution at initialization: SinceLast + Remaining ==
// Period.
func Derive(now time.Time) State {
	since := int(now.Unix() % Period)
	return State{
		Remaining: Period - since,
		SinceLast: since,
	}
}

// EventType tags what a tick produced.
type EventType uint8

const (
	// PassCompleted fires on the pass-completion edge, once per full
	// period.
	PassCompleted EventType = iota
)

// Event is one tick outcome.
type Event struct {
	Type      EventType
	Iteration int // iteration counter after the event
}

// Tick advances the clock by one unit and returns the new state plus any
// events. On the pass-completion edge the countdown resets to a full
// period, the count-up to zero, and the iteration counter advances.
func Tick(s State) (State, []Event) {
	s.SinceLast++
	if s.Remaining <= 1 {
		s.Remaining = Period
		s.SinceLast = 0
		s.Iteration++
		return s, []Event{{Type: PassCompleted, Iteration: s.Iteration}}
	}
	s.Remaining--
	return s, nil
}
