package orbit

import (
	"testing"
	"time"
)

func TestFullPeriodAdvancesIteration(t *testing.T) {
	s := NewState()
	passes := 0

	for i := 0; i < Period; i++ {
		var events []Event
		s, events = Tick(s)
		for _, ev := range events {
			if ev.Type == PassCompleted {
				passes++
			}
		}
	}

	if passes != 1 {
		t.Errorf("expected exactly 1 pass in %d ticks, got %d", Period, passes)
	}
	if s.Iteration != 1 {
		t.Errorf("iteration = %d, want 1", s.Iteration)
	}
	if s.Remaining != Period {
		t.Errorf("remaining = %d, want %d after pass", s.Remaining, Period)
	}
	if s.SinceLast != 0 {
		t.Errorf("since_last = %d, want 0 after pass", s.SinceLast)
	}
}

func TestTickCountsBothWays(t *testing.T) {
	s := NewState()
	s, _ = Tick(s)
	s, _ = Tick(s)
	s, _ = Tick(s)

	if s.Remaining != Period-3 {
		t.Errorf("remaining = %d, want %d", s.Remaining, Period-3)
	}
	if s.SinceLast != 3 {
		t.Errorf("since_last = %d, want 3", s.SinceLast)
	}
}

func TestIterationIsMonotone(t *testing.T) {
	s := NewState()
	last := 0
	for i := 0; i < 3*Period; i++ {
		s, _ = Tick(s)
		if s.Iteration < last {
			t.Fatalf("iteration went backwards at tick %d", i)
		}
		last = s.Iteration
	}
	if s.Iteration != 3 {
		t.Errorf("iteration = %d after 3 periods, want 3", s.Iteration)
	}
}

func TestDeriveAgreesWithTickEvolution(t *testing.T) {
	now := time.Unix(1700000123, 0)
	s := Derive(now)

	if s.SinceLast != int(now.Unix()%Period) {
		t.Errorf("since_last = %d, want %d", s.SinceLast, now.Unix()%Period)
	}
	if s.SinceLast+s.Remaining != Period {
		t.Errorf("since_last (%d) + remaining (%d) != period", s.SinceLast, s.Remaining)
	}

	// Ticking remaining times must land exactly on the pass edge.
	ticksToPass := s.Remaining
	passes := 0
	for i := 0; i < ticksToPass; i++ {
		var events []Event
		s, events = Tick(s)
		passes += len(events)
	}
	if passes != 1 {
		t.Errorf("expected the derived state to pass after %d ticks, got %d passes", ticksToPass, passes)
	}
}
