package relief

import (
	"math"
	"testing"

	"github.com/paulmach/orb"
)

func testProvider() *Provider {
	return New(DefaultConfig(52.52, 13.405))
}

func TestGenerateDeterministic(t *testing.T) {
	a := testProvider()
	b := testProvider()

	for _, probe := range [][2]float64{{52.52, 13.405}, {52.50, 13.38}, {52.54, 13.44}} {
		if a.ElevationAt(probe[0], probe[1]) != b.ElevationAt(probe[0], probe[1]) {
			t.Fatalf("same seed produced different elevation at %v", probe)
		}
	}

	other := New(Config{BaseLat: 52.52, BaseLon: 13.405, GridWidth: 100, GridHeight: 100, Seed: 7})
	same := true
	for _, s := range a.ElevationData(10) {
		if other.ElevationAt(s.Lat, s.Lon) != s.Value {
			same = false
			break
		}
	}
	if same {
		t.Error("different seeds produced identical terrain")
	}
}

func TestElevationEnvelope(t *testing.T) {
	p := testProvider()
	b := p.Bounds()

	if b.MinElevation < 25.0 {
		t.Errorf("min elevation %v below the 25m floor", b.MinElevation)
	}
	if b.MaxElevation <= b.MinElevation {
		t.Errorf("flat terrain: min %v max %v", b.MinElevation, b.MaxElevation)
	}
	for _, s := range p.ElevationData(5) {
		if s.Value < b.MinElevation || s.Value > b.MaxElevation {
			t.Fatalf("sample %v outside envelope [%v, %v]", s.Value, b.MinElevation, b.MaxElevation)
		}
	}
}

func TestBoundsCenterOnConfig(t *testing.T) {
	b := testProvider().Bounds()

	if math.Abs((b.North+b.South)/2-52.52) > 1e-9 {
		t.Errorf("latitude not centered: %v..%v", b.South, b.North)
	}
	if math.Abs((b.East+b.West)/2-13.405) > 1e-9 {
		t.Errorf("longitude not centered: %v..%v", b.West, b.East)
	}
	if b.North <= b.South || b.East <= b.West {
		t.Errorf("degenerate bounds: %+v", b)
	}
}

func TestElevationDataSampleRate(t *testing.T) {
	p := testProvider()

	full := p.ElevationData(1)
	if len(full) != 100*100 {
		t.Errorf("full resolution = %d samples, want 10000", len(full))
	}
	coarse := p.ElevationData(4)
	if len(coarse) != 25*25 {
		t.Errorf("rate-4 = %d samples, want 625", len(coarse))
	}
	if got := p.ElevationData(0); len(got) != len(full) {
		t.Errorf("rate 0 should clamp to 1, got %d samples", len(got))
	}
}

func TestGridLatLonRoundTrip(t *testing.T) {
	p := testProvider()

	for _, c := range [][2]int{{0, 0}, {50, 50}, {99, 99}, {10, 80}} {
		lat, lon := p.GridToLatLon(c[0], c[1])
		x, y := p.LatLonToGrid(lat, lon)
		if x != c[0] || y != c[1] {
			t.Errorf("round trip (%d,%d) -> (%d,%d)", c[0], c[1], x, y)
		}
	}

	// Out-of-area lookups clamp rather than panic.
	x, y := p.LatLonToGrid(0, 0)
	if x != 0 || y != 0 {
		t.Errorf("southwest clamp = (%d,%d)", x, y)
	}
	x, y = p.LatLonToGrid(90, 180)
	if x != 99 || y != 99 {
		t.Errorf("northeast clamp = (%d,%d)", x, y)
	}
}

func TestHillshadeRange(t *testing.T) {
	p := testProvider()

	shades := p.Hillshade(5, 315, 45)
	if len(shades) != 20*20 {
		t.Fatalf("rate-5 hillshade = %d samples, want 400", len(shades))
	}
	min, max := math.Inf(1), math.Inf(-1)
	for _, s := range shades {
		if s.Value < 0 || s.Value > 255 {
			t.Fatalf("shade %v out of [0,255]", s.Value)
		}
		min = math.Min(min, s.Value)
		max = math.Max(max, s.Value)
	}
	if max == min {
		t.Error("uniform hillshade over shaped terrain")
	}
}

func TestContourLines(t *testing.T) {
	p := testProvider()

	contours := p.ContourLines(nil)
	if len(contours) == 0 {
		t.Fatal("no contours from auto levels")
	}
	b := p.Bounds()
	for _, c := range contours {
		if len(c.Points) <= 5 {
			t.Errorf("short contour kept at level %v", c.Elevation)
		}
		if c.Elevation < b.MinElevation-1e-9 || c.Elevation > b.MaxElevation+1e-9 {
			t.Errorf("level %v outside envelope", c.Elevation)
		}
		for _, pt := range c.Points {
			if pt[1] < b.South || pt[1] > b.North || pt[0] < b.West || pt[0] > b.East {
				t.Fatalf("contour point %v outside area", pt)
			}
		}
	}

	// A level far above the terrain yields nothing.
	if got := p.ContourLines([]float64{10000}); len(got) != 0 {
		t.Errorf("impossible level produced %d contours", len(got))
	}
}

func TestChainPointsStopsAtJumps(t *testing.T) {
	pts := []orb.Point{
		{0, 0}, {0.01, 0}, {0.02, 0}, {0.03, 0}, {0.04, 0}, {0.05, 0},
		// Far cluster, beyond the jump threshold.
		{5, 5}, {5.01, 5},
	}

	chained := chainPoints(pts)
	if len(chained) != 6 {
		t.Fatalf("expected chain to stop before the far cluster, got %d points", len(chained))
	}
	for i := 1; i < len(chained); i++ {
		dx := chained[i][0] - chained[i-1][0]
		dy := chained[i][1] - chained[i-1][1]
		if dx*dx+dy*dy >= 0.01 {
			t.Errorf("jump between chained points %d and %d", i-1, i)
		}
	}

	if got := chainPoints(pts[:5]); got != nil {
		t.Errorf("chains of 5 or fewer points should be discarded, got %v", got)
	}
}
