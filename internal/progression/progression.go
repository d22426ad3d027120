// Package progression tracks the three bounded charge counters and the
// rank requirement they are measured against.
package progression

import "math"

// Charge baselines. Each charge starts here on a fresh session and grows
// linearly with its entity-count family.
const (
	BaseLife   = 20.0
	BaseSocial = 30.0
	BaseEnergy = 10.0
)

// Per-edit growth rates.
const (
	LifePerTree       = 10.0
	SocialPerBuilding = 5.0
	EnergyPerStreet   = 12.0
)

// Charges are the three [0,100] progression counters.
type Charges struct {
	Life   float64 `json:"life"`
	Social float64 `json:"social"`
	Energy float64 `json:"energy"`
}

// Requirement is the rank threshold triple.
type Requirement struct {
	Life   float64 `json:"life"`
	Social float64 `json:"social"`
	Energy float64 `json:"energy"`
}

// DefaultRequirement is the target rank evaluated on every orbit pass.
var DefaultRequirement = Requirement{Life: 60, Social: 50, Energy: 40}

// Compute derives charges from cumulative edit counts.
func Compute(treesAdded, buildingsAdded, buildingsRemoved, streetsAdded int) Charges {
	return Charges{
		Life:   clamp(BaseLife + float64(treesAdded)*LifePerTree),
		Social: clamp(BaseSocial + float64(buildingsAdded)*SocialPerBuilding - float64(buildingsRemoved)*SocialPerBuilding),
		Energy: clamp(BaseEnergy + float64(streetsAdded)*EnergyPerStreet),
	}
}

// Baseline returns the charges of a fresh session.
func Baseline() Charges {
	return Charges{Life: BaseLife, Social: BaseSocial, Energy: BaseEnergy}
}

// Meets reports whether every charge meets or exceeds its requirement.
func (c Charges) Meets(req Requirement) bool {
	return c.Life >= req.Life && c.Social >= req.Social && c.Energy >= req.Energy
}

// PercentToGoal returns the display progress of one charge toward its
// requirement, capped at 100.
func PercentToGoal(charge, requirement float64) int {
	if requirement <= 0 {
		return 100
	}
	p := int(math.Round(100 * charge / requirement))
	if p > 100 {
		return 100
	}
	return p
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
