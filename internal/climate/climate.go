// Package climate maps net edit counts to bounded deltas over a base
// weather snapshot. The formulas are deliberately simplified and linear;
// consistency and determinism matter here, physical accuracy does not.
package climate

// Snapshot is one set of atmospheric conditions.
type Snapshot struct {
	Temperature   float64 `json:"temperature"`    // °C
	WindSpeed     float64 `json:"wind_speed"`     // km/h
	WindDirection float64 `json:"wind_direction"` // degrees [0,360)
	Humidity      float64 `json:"humidity"`       // % [0,100]
	CO2           float64 `json:"co2"`            // ppm, >= 300
	Pressure      float64 `json:"pressure"`       // hPa
}

// Counts are the net-effect drivers of the impact formula. Canals and
// streets have no modeled weather effect.
type Counts struct {
	BuildingsAdded   int
	BuildingsRemoved int
	TreesAdded       int
	TreesRemoved     int
}

// Per-unit impact coefficients.
const (
	TempPerBuilding     = 0.15
	TempPerTree         = -0.10
	WindPerBuilding     = -0.20
	WindPerTree         = -0.10
	HumidityPerBuilding = -0.30
	HumidityPerTree     = 0.40
	CO2PerBuilding      = 0.50
	CO2PerTree          = -0.30
)

// Physically plausible output bounds.
const (
	MinTemperature = -20.0
	MaxTemperature = 50.0
	MaxWindSpeed   = 100.0
	MinCO2         = 300.0
)

// Impact derives the current snapshot from base and net counts. Pressure
// and wind direction are not edit-sensitive and pass through unchanged.
// Always recompute from base, never from a previous result; incremental
// adjustment drifts.
func Impact(base Snapshot, c Counts) Snapshot {
	netBuildings := float64(c.BuildingsAdded - c.BuildingsRemoved)
	netTrees := float64(c.TreesAdded - c.TreesRemoved)

	out := base
	out.Temperature = clamp(base.Temperature+netBuildings*TempPerBuilding+netTrees*TempPerTree,
		MinTemperature, MaxTemperature)
	out.WindSpeed = clamp(base.WindSpeed+netBuildings*WindPerBuilding+netTrees*WindPerTree,
		0, MaxWindSpeed)
	out.Humidity = clamp(base.Humidity+netBuildings*HumidityPerBuilding+netTrees*HumidityPerTree,
		0, 100)
	out.CO2 = base.CO2 + netBuildings*CO2PerBuilding + netTrees*CO2PerTree
	if out.CO2 < MinCO2 {
		out.CO2 = MinCO2
	}
	return out
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
