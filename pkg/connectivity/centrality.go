package connectivity

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/graph/network"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/mat"

	"github.com/matzehuels/reefrank/pkg/cache"
	"github.com/matzehuels/reefrank/pkg/errors"
	"github.com/matzehuels/reefrank/pkg/observability"
)

// KatzAlpha is the attenuation factor used for Katz centrality.
const KatzAlpha = 0.3

// NoPredecessor marks a site without in-neighbours.
const NoPredecessor = -1

// Centrality holds the per-site connectivity metrics derived from a Matrix.
// All slices have length N and are indexed by site.
//
// In is betweenness normalized to [0,1]. Out is 1 - Katz with Katz scaled
// to unit L2 norm, so Out lies in [0,2]; it exceeds 1 when KatzAlpha times
// the spectral radius of the network exceeds one. Predecessor holds
// 0-based site indices, so site 0 is a valid predecessor and sites without
// in-neighbours carry NoPredecessor (-1), also in the JSON encoding.
type Centrality struct {
	In          []float64 `json:"in"`
	Out         []float64 `json:"out"`
	Predecessor []int     `json:"predecessor"`
}

// Build computes betweenness, 1 - Katz and strongest predecessors for m.
// It is a pure function of the matrix contents.
func Build(m *Matrix) (*Centrality, error) {
	n := m.N()
	c := &Centrality{
		In:          make([]float64, n),
		Out:         make([]float64, n),
		Predecessor: make([]int, n),
	}
	if n == 0 {
		return c, nil
	}

	g := simple.NewDirectedGraph()
	for i := 0; i < n; i++ {
		g.AddNode(simple.Node(i))
	}
	for _, e := range m.Edges() {
		g.SetEdge(simple.Edge{F: simple.Node(e.From), T: simple.Node(e.To)})
	}

	if n > 2 {
		scale := float64((n - 1) * (n - 2))
		for id, b := range network.Betweenness(g) {
			c.In[id] = b / scale
		}
	}

	katz, err := katz(m, KatzAlpha)
	if err != nil {
		return nil, err
	}
	for i, k := range katz {
		c.Out[i] = 1 - k
	}

	copy(c.Predecessor, strongestPredecessors(m))
	return c, nil
}

// katz solves (I - alpha*A_in) x = 1 and scales x to unit L2 norm.
// A_in[i][j] is 1 when j→i is an edge.
func katz(m *Matrix, alpha float64) ([]float64, error) {
	n := m.N()
	sys := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		sys.Set(i, i, 1)
	}
	for _, e := range m.Edges() {
		sys.Set(e.To, e.From, -alpha)
	}

	ones := make([]float64, n)
	floats.AddConst(1, ones)

	var x mat.VecDense
	if err := x.SolveVec(sys, mat.NewVecDense(n, ones)); err != nil {
		var cond mat.Condition
		if !stderrors.As(err, &cond) || math.IsInf(float64(cond), 1) {
			return nil, errors.Wrap(errors.ErrCodeInvalidData, err, "katz system is singular")
		}
	}

	out := x.RawVector().Data
	res := make([]float64, n)
	copy(res, out[:n])
	if norm := floats.Norm(res, 2); norm > 0 {
		floats.Scale(1/norm, res)
	}
	for i, v := range res {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, errors.Data("katz centrality for site %d is not finite", i)
		}
	}
	return res, nil
}

// strongestPredecessors returns, for each site, the in-neighbour with the
// most in-neighbours of its own, lowest index on ties.
func strongestPredecessors(m *Matrix) []int {
	n := m.N()
	inDeg := make([]int, n)
	for _, e := range m.Edges() {
		inDeg[e.To]++
	}

	pred := make([]int, n)
	for v := 0; v < n; v++ {
		pred[v] = NoPredecessor
		best := -1
		for u := 0; u < n; u++ {
			if u == v || m.At(u, v) == 0 {
				continue
			}
			if inDeg[u] > best {
				best = inDeg[u]
				pred[v] = u
			}
		}
	}
	return pred
}

// BuildCached is Build memoized in c under the key derived from the matrix
// hash. A nil cache or keyer falls back to NullCache and DefaultKeyer.
// The returned bool reports a cache hit.
func BuildCached(ctx context.Context, c cache.Cache, k cache.Keyer, m *Matrix) (*Centrality, bool, error) {
	if c == nil {
		c = cache.NewNullCache()
	}
	if k == nil {
		k = cache.NewDefaultKeyer()
	}
	key := k.CentralityKey(m.Hash(), cache.CentralityKeyOpts{KatzAlpha: KatzAlpha})

	if data, hit, err := c.Get(ctx, key); err == nil && hit {
		var cached Centrality
		if err := json.Unmarshal(data, &cached); err == nil && len(cached.In) == m.N() {
			observability.Cache().OnCacheHit(ctx, "centrality")
			return &cached, true, nil
		}
	}
	observability.Cache().OnCacheMiss(ctx, "centrality")

	cent, err := Build(m)
	if err != nil {
		return nil, false, err
	}
	if data, err := json.Marshal(cent); err == nil {
		if err := c.Set(ctx, key, data, cache.TTLCentrality); err == nil {
			observability.Cache().OnCacheSet(ctx, "centrality", len(data))
		}
	}
	return cent, false, nil
}
