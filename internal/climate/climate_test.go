package climate

import (
	"math"
	"testing"
)

func approx(t *testing.T, name string, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("%s = %v, want %v", name, got, want)
	}
}

func testBase() Snapshot {
	return Snapshot{
		Temperature:   10,
		WindSpeed:     15,
		WindDirection: 220,
		Humidity:      70,
		CO2:           415,
		Pressure:      1012,
	}
}

func TestImpactZeroCountsIsFixedPoint(t *testing.T) {
	base := testBase()
	if got := Impact(base, Counts{}); got != base {
		t.Errorf("Impact(base, {}) = %+v, want base unchanged", got)
	}
}

func TestImpactTwoBuildings(t *testing.T) {
	got := Impact(testBase(), Counts{BuildingsAdded: 2})

	approx(t, "temperature", got.Temperature, 10.3)
	approx(t, "wind", got.WindSpeed, 14.6)
	approx(t, "humidity", got.Humidity, 69.4)
	approx(t, "co2", got.CO2, 416.0)
}

func TestImpactThreeTrees(t *testing.T) {
	got := Impact(testBase(), Counts{TreesAdded: 3})

	approx(t, "temperature", got.Temperature, 9.7)
	approx(t, "wind", got.WindSpeed, 14.7)
	approx(t, "humidity", got.Humidity, 71.2)
	approx(t, "co2", got.CO2, 414.1)
}

func TestImpactPassThroughFields(t *testing.T) {
	got := Impact(testBase(), Counts{BuildingsAdded: 50, TreesAdded: 50})
	if got.Pressure != 1012 {
		t.Errorf("pressure mutated: %v", got.Pressure)
	}
	if got.WindDirection != 220 {
		t.Errorf("wind direction mutated: %v", got.WindDirection)
	}
}

func TestImpactClampingHoldsAtExtremes(t *testing.T) {
	extremes := []Counts{
		{BuildingsAdded: 10000},
		{BuildingsRemoved: 10000},
		{TreesAdded: 10000},
		{TreesRemoved: 10000},
		{BuildingsAdded: 10000, TreesRemoved: 10000},
		{BuildingsRemoved: 10000, TreesAdded: 10000},
	}

	for _, c := range extremes {
		got := Impact(testBase(), c)
		if got.Temperature < MinTemperature || got.Temperature > MaxTemperature {
			t.Errorf("counts %+v: temperature %v out of range", c, got.Temperature)
		}
		if got.WindSpeed < 0 || got.WindSpeed > MaxWindSpeed {
			t.Errorf("counts %+v: wind %v out of range", c, got.WindSpeed)
		}
		if got.Humidity < 0 || got.Humidity > 100 {
			t.Errorf("counts %+v: humidity %v out of range", c, got.Humidity)
		}
		if got.CO2 < MinCO2 {
			t.Errorf("counts %+v: co2 %v below floor", c, got.CO2)
		}
	}
}

func TestImpactAlwaysFromBase(t *testing.T) {
	base := testBase()
	// Applying n buildings once must equal the direct formula, not an
	// accumulation over previous results.
	once := Impact(base, Counts{BuildingsAdded: 5})
	again := Impact(base, Counts{BuildingsAdded: 5})
	if once != again {
		t.Error("repeated computation from base diverged")
	}
}
