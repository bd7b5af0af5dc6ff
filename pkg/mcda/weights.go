package mcda

import (
	"math"

	"github.com/matzehuels/reefrank/pkg/decision"
	"github.com/matzehuels/reefrank/pkg/errors"
)

// Weights are the non-negative importance weights of the ranking criteria.
// They need not sum to one; Rank normalizes them.
type Weights struct {
	InConnectivity  float64 `json:"in_connectivity" toml:"in_connectivity" validate:"gte=0"`
	OutConnectivity float64 `json:"out_connectivity" toml:"out_connectivity" validate:"gte=0"`
	WaveDamage      float64 `json:"wave_damage" toml:"wave_damage" validate:"gte=0"`
	HeatStress      float64 `json:"heat_stress" toml:"heat_stress" validate:"gte=0"`
	Depth           float64 `json:"depth" toml:"depth" validate:"gte=0"`
	Predecessor     float64 `json:"predecessor" toml:"predecessor" validate:"gte=0"`
	Zone            float64 `json:"zone" toml:"zone" validate:"gte=0"`
	Space           float64 `json:"space" toml:"space" validate:"gte=0"`
}

// DefaultWeights weights every criterion equally.
func DefaultWeights() Weights {
	return Weights{1, 1, 1, 1, 1, 1, 1, 1}
}

// Validate returns an INVALID_CONFIG error for a negative or non-finite weight.
func (w Weights) Validate() error {
	for i, v := range w.vector() {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return errors.Config("weight %s = %v, want a finite value >= 0", criterionNames[i], v)
		}
	}
	return nil
}

var criterionNames = [...]string{
	"in_connectivity", "out_connectivity", "wave_damage", "heat_stress",
	"depth", "predecessor", "zone", "space",
}

func (w Weights) vector() []float64 {
	return []float64{
		w.InConnectivity, w.OutConnectivity, w.WaveDamage, w.HeatStress,
		w.Depth, w.Predecessor, w.Zone, w.Space,
	}
}

// Intervention selects the criteria profile used for ranking.
type Intervention int

const (
	Seeding Intervention = iota
	Shading
)

func (iv Intervention) String() string {
	switch iv {
	case Seeding:
		return "seed"
	case Shading:
		return "shade"
	default:
		return "unknown"
	}
}

// criterion is one ranked column and its direction: +1 for a benefit, -1
// for a cost.
type criterion struct {
	col decision.Column
	dir float64
}

// profile returns the criteria of iv, aligned with Weights.vector.
func (iv Intervention) profile() ([]criterion, error) {
	base := []criterion{
		{decision.InConnectivity, 1},
		{decision.OutConnectivity, 1},
		{decision.WaveDamage, -1},
		{decision.HeatStress, -1},
		{decision.DepthPriority, 1},
		{decision.PredecessorPriority, 1},
		{decision.ZonePriority, 1},
		{decision.SeedSpace, 1},
	}
	switch iv {
	case Seeding:
		return base, nil
	case Shading:
		base[3].dir = 1
		base[7].col = decision.ShadeSpace
		return base, nil
	default:
		return nil, errors.Config("unknown intervention %d", int(iv))
	}
}

// Columns returns the decision matrix columns iv ranks on, in weight order.
func (iv Intervention) Columns() []decision.Column {
	crit, err := iv.profile()
	if err != nil {
		return nil
	}
	cols := make([]decision.Column, len(crit))
	for i, c := range crit {
		cols[i] = c.col
	}
	return cols
}

// signedWeights normalizes w and applies the criterion directions of crit.
func signedWeights(w Weights, crit []criterion) []float64 {
	nw := NormalizeVec(w.vector())
	for i, c := range crit {
		nw[i] *= c.dir
	}
	return nw
}
