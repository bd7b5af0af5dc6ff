package domain

import (
	"math"

	"github.com/matzehuels/reefrank/pkg/connectivity"
	"github.com/matzehuels/reefrank/pkg/decision"
	"github.com/matzehuels/reefrank/pkg/errors"
	"github.com/matzehuels/reefrank/pkg/mcda"
)

func predecessorPriority(sites []Site, pred []int) []float64 {
	out := make([]float64, len(sites))
	for i, s := range sites {
		if s.PriorityPredecessor {
			out[i] = 1
		}
		if s.Priority && pred[i] != connectivity.NoPredecessor {
			out[pred[i]] = 1
		}
	}
	return out
}

// ZoneCriteria scores sites by membership of the ordered priority zones.
// Zone k of n is weighted by the k-th entry of NormalizeVec([n, n-1, ..., 1]).
// A site in zone k receives that weight, and the strongest predecessor of
// every zone-k site receives it in addition, once per zone.
func (d *Domain) ZoneCriteria(zones []string) []float64 {
	n := len(zones)
	rank := make([]float64, n)
	for k := range rank {
		rank[k] = float64(n - k)
	}
	w := mcda.NormalizeVec(rank)

	member := make([]float64, len(d.sites))
	preds := make([]float64, len(d.sites))
	for k, z := range zones {
		credited := make(map[int]bool)
		for i, s := range d.sites {
			if s.Zone != z {
				continue
			}
			member[i] = w[k]
			if p := d.cent.Predecessor[i]; p != connectivity.NoPredecessor && !credited[p] {
				credited[p] = true
				preds[p] += w[k]
			}
		}
	}
	for i := range member {
		member[i] += preds[i]
	}
	return member
}

// DepthExclusion returns a mask that is true for sites outside
// [minDepth, minDepth+offset]. It returns an INVALID_CONFIG error for
// negative or non-finite bounds.
func (d *Domain) DepthExclusion(minDepth, offset float64) ([]bool, error) {
	for _, v := range []float64{minDepth, offset} {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return nil, errors.Config("depth bounds must be finite and >= 0, got min %v offset %v", minDepth, offset)
		}
	}
	out := make([]bool, len(d.sites))
	for i, s := range d.sites {
		out[i] = s.Depth < minDepth || s.Depth > minDepth+offset
	}
	return out, nil
}

// DecisionInputs assembles the decision matrix inputs for timestep t and
// replicate r.
func (d *Domain) DecisionInputs(t, r int, riskTolerance float64, zones []string) (decision.Inputs, error) {
	if t < 0 || t >= d.Timesteps() || r < 0 || r >= d.Replicates() {
		return decision.Inputs{}, errors.Data("timestep %d, replicate %d outside %dx%d projections",
			t, r, d.Timesteps(), d.Replicates())
	}
	return decision.Inputs{
		SiteIDs:             d.SiteIDs(),
		InConnectivity:      append([]float64(nil), d.cent.In...),
		OutConnectivity:     append([]float64(nil), d.cent.Out...),
		CoverSum:            d.CoverSum(),
		CoverMax:            d.CoverMax(),
		Area:                d.Area(),
		WaveDamage:          d.wave.Slice(t, r),
		HeatStress:          d.heat.Slice(t, r),
		PredecessorPriority: d.PredecessorPriority(),
		ZoneCriteria:        d.ZoneCriteria(zones),
		DepthPriority:       d.DepthPriority(),
		RiskTolerance:       riskTolerance,
	}, nil
}

// AvailableSeedSpace returns the available seeding space per site in m².
func (d *Domain) AvailableSeedSpace() []float64 {
	return decision.AvailableSeedSpace(d.coverSum, d.coverMax, d.area)
}
