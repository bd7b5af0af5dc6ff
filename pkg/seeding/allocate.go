// Package seeding distributes a pool of seeded coral area over the sites
// picked for seeding.
//
// Every selected site receives a share of each coral type's seeded area
// proportional to its available space:
//
//	share[s]   = available[s] / Σ available[selected]
//	area[s][t] = share[s] · seeded[t]
//	prop[s][t] = area[s][t] / totalArea[s]
//
// Summed over the selected sites, prop·totalArea reconstructs seeded[t].
// A site whose allocation would exceed its available space, or whose
// proportion falls outside [0,1), is an upstream bug and is reported as an
// INVALID_DATA error instead of being clamped.
package seeding

import (
	"encoding/json"

	"gonum.org/v1/gonum/floats"

	"github.com/matzehuels/reefrank/pkg/errors"
)

// capacitySlack absorbs rounding when a site is filled exactly to capacity.
const capacitySlack = 1e-9

// Allocation is the seeded area per selected site and coral type.
type Allocation struct {
	// Sites are the selected site indices, in selection order.
	Sites []int `json:"sites"`

	// Types are the coral type names, when attached with WithTypes.
	Types []string `json:"types,omitempty"`

	// Proportions[i][t] is the fraction of site Sites[i]'s total area
	// seeded with type t.
	Proportions [][]float64 `json:"proportions"`

	// Areas[i][t] is the seeded area in m².
	Areas [][]float64 `json:"areas"`

	typeIndex map[string]int
}

// Allocate splits seeded (m² per coral type) over the selected sites in
// proportion to available space. totalArea and available are indexed by
// site.
func Allocate(totalArea []float64, selected []int, available []float64, seeded []float64) (*Allocation, error) {
	if err := validate(totalArea, selected, available, seeded); err != nil {
		return nil, err
	}

	a := &Allocation{
		Sites:       append([]int(nil), selected...),
		Proportions: make([][]float64, len(selected)),
		Areas:       make([][]float64, len(selected)),
	}
	space := make([]float64, len(selected))
	for i, s := range selected {
		space[i] = available[s]
	}
	pool := floats.Sum(space)
	need := floats.Sum(seeded)
	if pool == 0 && need > 0 {
		return nil, errors.Data("no space available at the %d selected sites for %v m² of coral", len(selected), need)
	}

	for i, s := range selected {
		a.Areas[i] = make([]float64, len(seeded))
		a.Proportions[i] = make([]float64, len(seeded))
		if pool == 0 {
			continue
		}
		share := space[i] / pool
		for t, v := range seeded {
			area := share * v
			a.Areas[i][t] = area
			if area == 0 {
				continue
			}
			if totalArea[s] == 0 {
				return nil, errors.Data("site %d has no area but receives %v m² of type %d", s, area, t)
			}
			a.Proportions[i][t] = area / totalArea[s]
		}

		if got := floats.Sum(a.Areas[i]); got > space[i]*(1+capacitySlack) {
			return nil, errors.Data("site %d receives %v m², above its available space of %v m²", s, got, space[i])
		}
		for t, p := range a.Proportions[i] {
			if p < 0 || p >= 1 {
				return nil, errors.Data("site %d proportion %v for type %d outside [0,1)", s, p, t)
			}
		}
	}
	return a, nil
}

func validate(totalArea []float64, selected []int, available []float64, seeded []float64) error {
	if len(totalArea) != len(available) {
		return errors.Data("total area has %d sites, available space has %d", len(totalArea), len(available))
	}
	if err := errors.ValidateNonNegative("total_area", totalArea); err != nil {
		return err
	}
	if err := errors.ValidateNonNegative("available_space", available); err != nil {
		return err
	}
	if err := errors.ValidateNonNegative("seeded_area", seeded); err != nil {
		return err
	}
	seen := make(map[int]bool, len(selected))
	for _, s := range selected {
		if s < 0 || s >= len(totalArea) {
			return errors.Data("selected site %d out of range [0,%d)", s, len(totalArea))
		}
		if seen[s] {
			return errors.Data("site %d selected twice", s)
		}
		seen[s] = true
	}
	return nil
}

// WithTypes attaches coral type names to a, one per seeded column, so that
// ByType can resolve them.
func (a *Allocation) WithTypes(names []string) error {
	if len(a.Proportions) > 0 && len(names) != len(a.Proportions[0]) {
		return errors.Data("%d coral type names for %d seeded types", len(names), len(a.Proportions[0]))
	}
	idx := make(map[string]int, len(names))
	for i, n := range names {
		if _, dup := idx[n]; dup {
			return errors.Data("duplicate coral type %q", n)
		}
		idx[n] = i
	}
	a.Types = append([]string(nil), names...)
	a.typeIndex = idx
	return nil
}

// UnmarshalJSON restores the type index along with the exported fields.
func (a *Allocation) UnmarshalJSON(data []byte) error {
	type plain Allocation
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*a = Allocation(p)
	if a.Types != nil {
		return a.WithTypes(a.Types)
	}
	return nil
}

// ByType returns the seeded area of every selected site for the named type.
func (a *Allocation) ByType(name string) ([]float64, bool) {
	t, ok := a.typeIndex[name]
	if !ok {
		return nil, false
	}
	out := make([]float64, len(a.Areas))
	for i := range a.Areas {
		out[i] = a.Areas[i][t]
	}
	return out, true
}

// Total returns the area seeded with type t over all selected sites,
// reconstructed from the proportions.
func (a *Allocation) Total(totalArea []float64, t int) float64 {
	var sum float64
	for i, s := range a.Sites {
		sum += a.Proportions[i][t] * totalArea[s]
	}
	return sum
}

// SiteArea returns the area seeded at the i-th selected site over all types.
func (a *Allocation) SiteArea(i int) float64 {
	return floats.Sum(a.Areas[i])
}
