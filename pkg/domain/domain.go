// Package domain holds the immutable description of a reef domain: the site
// table, connectivity with its derived centrality, environmental projection
// cubes, coral cover and optional site distances.
//
// A [Domain] is built once with [New] or [Load]. Derived data (centrality,
// cover sums, predecessor and depth priorities) is computed eagerly at
// construction and never recomputed. Every accessor returns a copy or a
// read-only view, so a Domain can be shared by concurrent replicate workers.
package domain

import (
	"context"
	"math"
	"strconv"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/matzehuels/reefrank/pkg/cache"
	"github.com/matzehuels/reefrank/pkg/connectivity"
	"github.com/matzehuels/reefrank/pkg/errors"
)

// Site is one row of the site table.
type Site struct {
	ID                  string  `json:"id"`
	Area                float64 `json:"area"`  // m²
	K                   float64 `json:"k"`     // maximum coral cover, percent of area
	Depth               float64 `json:"depth"` // m, positive down
	Zone                string  `json:"zone,omitempty"`
	Priority            bool    `json:"priority,omitempty"`
	PriorityPredecessor bool    `json:"priority_predecessor,omitempty"`
}

// Inputs are the raw data a Domain is built from.
type Inputs struct {
	Name  string
	Sites []Site

	// Connectivity is the N×N transition-probability matrix.
	Connectivity       [][]float64
	ConnectivityCutoff float64

	// WaveStress and HeatStress are [timestep][site][replicate] probabilities.
	WaveStress [][][]float64
	HeatStress [][][]float64

	// CoralCover is [type][site], as fractions of site area.
	CoralCover [][]float64
	CoralTypes []string

	// Distances is an optional N×N site distance matrix.
	Distances [][]float64
}

// Domain is an immutable reef domain.
type Domain struct {
	name      string
	sites     []Site
	siteIndex map[string]int
	types     []string
	typeIndex map[string]int

	conn *connectivity.Matrix
	cent *connectivity.Centrality

	wave, heat *Cube

	area      []float64
	coverSum  []float64
	coverMax  []float64
	cover     [][]float64
	depthPrio []float64
	predPrio  []float64
	distances *mat.Dense
}

// New builds a Domain, computing centrality directly.
func New(in Inputs) (*Domain, error) {
	return Load(context.Background(), in, nil, nil)
}

// Load builds a Domain, reusing centrality from c when the connectivity
// matrix has been seen before. A nil cache disables caching.
func Load(ctx context.Context, in Inputs, c cache.Cache, k cache.Keyer) (*Domain, error) {
	n := len(in.Sites)
	d := &Domain{
		name:      in.Name,
		sites:     append([]Site(nil), in.Sites...),
		siteIndex: make(map[string]int, n),
		area:      make([]float64, n),
		coverMax:  make([]float64, n),
		coverSum:  make([]float64, n),
		depthPrio: make([]float64, n),
		predPrio:  make([]float64, n),
	}

	depth := make([]float64, n)
	for i, s := range d.sites {
		if s.ID == "" {
			return nil, errors.Data("site %d has no id", i)
		}
		if _, dup := d.siteIndex[s.ID]; dup {
			return nil, errors.Data("duplicate site id %q", s.ID)
		}
		d.siteIndex[s.ID] = i
		if math.IsNaN(s.K) || s.K < 0 || s.K > 100 {
			return nil, errors.Data("site %s: k = %v, want a percentage in [0,100]", s.ID, s.K)
		}
		d.area[i] = s.Area
		d.coverMax[i] = s.K / 100
		depth[i] = s.Depth
	}
	if err := errors.ValidateNonNegative("area", d.area); err != nil {
		return nil, err
	}
	if err := errors.ValidateNonNegative("depth", depth); err != nil {
		return nil, err
	}
	if n > 0 {
		if hi := floats.Max(depth); hi > 0 {
			for i, v := range depth {
				d.depthPrio[i] = v / hi
			}
		}
	}

	m, err := connectivity.NewMatrix(in.Connectivity, in.ConnectivityCutoff)
	if err != nil {
		return nil, err
	}
	if m.N() != n {
		return nil, errors.Data("connectivity matrix covers %d sites, site table has %d", m.N(), n)
	}
	d.conn = m
	if c != nil {
		d.cent, _, err = connectivity.BuildCached(ctx, c, k, m)
	} else {
		d.cent, err = connectivity.Build(m)
	}
	if err != nil {
		return nil, err
	}

	if err := d.loadCubes(in.WaveStress, in.HeatStress); err != nil {
		return nil, err
	}
	if err := d.loadCover(in.CoralCover, in.CoralTypes); err != nil {
		return nil, err
	}
	if in.Distances != nil {
		if err := errors.ValidateSquare("distances", in.Distances); err != nil {
			return nil, err
		}
		if len(in.Distances) != n {
			return nil, errors.Data("distance matrix covers %d sites, site table has %d", len(in.Distances), n)
		}
		if n > 0 {
			d.distances = mat.NewDense(n, n, nil)
			for i, row := range in.Distances {
				if err := errors.ValidateNonNegative("distances", row); err != nil {
					return nil, err
				}
				d.distances.SetRow(i, row)
			}
		}
	}

	d.predPrio = predecessorPriority(d.sites, d.cent.Predecessor)
	return d, nil
}

func (d *Domain) loadCubes(wave, heat [][][]float64) error {
	var err error
	if d.wave, err = NewCube("wave_stress", wave); err != nil {
		return err
	}
	if d.heat, err = NewCube("heat_stress", heat); err != nil {
		return err
	}
	wt, ws, wr := d.wave.Dims()
	ht, hs, hr := d.heat.Dims()
	if wt != ht || wr != hr {
		return errors.Data("wave cube is %dx%dx%d, heat cube is %dx%dx%d", wt, ws, wr, ht, hs, hr)
	}
	if ht > 0 && (ws != len(d.sites) || hs != len(d.sites)) {
		return errors.Data("environmental cubes cover %d/%d sites, site table has %d", ws, hs, len(d.sites))
	}
	return nil
}

func (d *Domain) loadCover(cover [][]float64, types []string) error {
	if types == nil {
		for i := range cover {
			types = append(types, "type_"+strconv.Itoa(i+1))
		}
	}
	if len(types) != len(cover) {
		return errors.Data("%d coral type names for %d cover rows", len(types), len(cover))
	}
	d.types = append([]string(nil), types...)
	d.typeIndex = make(map[string]int, len(types))
	d.cover = make([][]float64, len(cover))
	for t, row := range cover {
		if _, dup := d.typeIndex[types[t]]; dup {
			return errors.Data("duplicate coral type %q", types[t])
		}
		d.typeIndex[types[t]] = t
		if len(row) != len(d.sites) {
			return errors.Data("cover of %s has %d sites, want %d", types[t], len(row), len(d.sites))
		}
		if err := errors.ValidateProbabilities("cover "+types[t], row); err != nil {
			return err
		}
		d.cover[t] = append([]float64(nil), row...)
		floats.Add(d.coverSum, row)
	}
	for i, v := range d.coverSum {
		if v > 1+1e-9 {
			return errors.Data("site %s: total cover %v exceeds 1", d.sites[i].ID, v)
		}
		d.coverSum[i] = math.Min(v, 1)
	}
	return nil
}

// Name returns the domain name.
func (d *Domain) Name() string { return d.name }

// N returns the number of sites.
func (d *Domain) N() int { return len(d.sites) }

// Site returns site i.
func (d *Domain) Site(i int) Site { return d.sites[i] }

// Sites returns a copy of the site table.
func (d *Domain) Sites() []Site { return append([]Site(nil), d.sites...) }

// SiteIDs returns the site IDs in site order.
func (d *Domain) SiteIDs() []string {
	ids := make([]string, len(d.sites))
	for i, s := range d.sites {
		ids[i] = s.ID
	}
	return ids
}

// SiteIndex resolves a site ID.
func (d *Domain) SiteIndex(id string) (int, bool) {
	i, ok := d.siteIndex[id]
	return i, ok
}

// CoralTypes returns the coral type names in cover order.
func (d *Domain) CoralTypes() []string { return append([]string(nil), d.types...) }

// CoralTypeIndex resolves a coral type name.
func (d *Domain) CoralTypeIndex(name string) (int, bool) {
	i, ok := d.typeIndex[name]
	return i, ok
}

// Connectivity returns the connectivity matrix.
func (d *Domain) Connectivity() *connectivity.Matrix { return d.conn }

// Centrality returns a copy of the centrality vectors.
func (d *Domain) Centrality() connectivity.Centrality {
	return connectivity.Centrality{
		In:          append([]float64(nil), d.cent.In...),
		Out:         append([]float64(nil), d.cent.Out...),
		Predecessor: append([]int(nil), d.cent.Predecessor...),
	}
}

// Timesteps returns the number of timesteps in the environmental cubes.
func (d *Domain) Timesteps() int {
	t, _, _ := d.heat.Dims()
	return t
}

// Replicates returns the number of replicates in the environmental cubes.
func (d *Domain) Replicates() int {
	_, _, r := d.heat.Dims()
	return r
}

// Wave returns the wave stress cube.
func (d *Domain) Wave() *Cube { return d.wave }

// Heat returns the heat stress cube.
func (d *Domain) Heat() *Cube { return d.heat }

// Area returns a copy of the site areas in m².
func (d *Domain) Area() []float64 { return append([]float64(nil), d.area...) }

// CoverMax returns a copy of the maximum cover fractions (k / 100).
func (d *Domain) CoverMax() []float64 { return append([]float64(nil), d.coverMax...) }

// CoverSum returns a copy of the total current cover per site.
func (d *Domain) CoverSum() []float64 { return append([]float64(nil), d.coverSum...) }

// PredecessorPriority returns a copy of the predecessor indicator: 1 for a
// flagged site or the strongest predecessor of a priority site.
func (d *Domain) PredecessorPriority() []float64 { return append([]float64(nil), d.predPrio...) }

// DepthPriority returns a copy of depth / max depth per site.
func (d *Domain) DepthPriority() []float64 { return append([]float64(nil), d.depthPrio...) }

// Distances returns a read-only view of the distance matrix, or nil.
func (d *Domain) Distances() mat.Matrix {
	if d.distances == nil {
		return nil
	}
	return d.distances
}
