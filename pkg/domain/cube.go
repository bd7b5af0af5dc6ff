package domain

import (
	"fmt"

	"github.com/matzehuels/reefrank/pkg/errors"
)

// Cube is an immutable [timestep][site][replicate] array of probabilities.
type Cube struct {
	data       []float64
	nt, ns, nr int
}

// NewCube validates and copies v. Every value must lie in [0,1] and v must
// be rectangular.
func NewCube(name string, v [][][]float64) (*Cube, error) {
	c := &Cube{nt: len(v)}
	if c.nt == 0 {
		return c, nil
	}
	c.ns = len(v[0])
	if c.ns > 0 {
		c.nr = len(v[0][0])
	}
	c.data = make([]float64, 0, c.nt*c.ns*c.nr)
	for t, sites := range v {
		if len(sites) != c.ns {
			return nil, errors.Data("%s timestep %d has %d sites, want %d", name, t, len(sites), c.ns)
		}
		for s, reps := range sites {
			if len(reps) != c.nr {
				return nil, errors.Data("%s[%d][%d] has %d replicates, want %d", name, t, s, len(reps), c.nr)
			}
			if err := errors.ValidateProbabilities(fmt.Sprintf("%s[%d][%d]", name, t, s), reps); err != nil {
				return nil, err
			}
			c.data = append(c.data, reps...)
		}
	}
	return c, nil
}

// Dims returns the number of timesteps, sites and replicates.
func (c *Cube) Dims() (timesteps, sites, replicates int) { return c.nt, c.ns, c.nr }

// At returns the value for timestep t, site s and replicate r.
func (c *Cube) At(t, s, r int) float64 { return c.data[(t*c.ns+s)*c.nr+r] }

// Slice returns a fresh per-site vector for timestep t and replicate r.
func (c *Cube) Slice(t, r int) []float64 {
	out := make([]float64, c.ns)
	for s := range out {
		out[s] = c.At(t, s, r)
	}
	return out
}

// Raw returns a copy of the cube as nested slices.
func (c *Cube) Raw() [][][]float64 {
	out := make([][][]float64, c.nt)
	for t := range out {
		out[t] = make([][]float64, c.ns)
		for s := range out[t] {
			base := (t*c.ns + s) * c.nr
			out[t][s] = append([]float64(nil), c.data[base:base+c.nr]...)
		}
	}
	return out
}
