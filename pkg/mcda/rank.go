package mcda

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/matzehuels/reefrank/pkg/decision"
	"github.com/matzehuels/reefrank/pkg/errors"
)

// Options control a single Rank call.
type Options struct {
	// NSelect is the number of sites to pick. Fewer are returned when the
	// candidates run out.
	NSelect int

	// Exclude marks sites, in the pre-filter ordering, that must not be
	// picked. Nil excludes nothing.
	Exclude []bool

	// Previous carries the ranks of an earlier intervention in the same
	// replicate. It is copied and only this intervention's ranks are
	// replaced.
	Previous *Result

	// Distances is the site-by-site distance matrix in the pre-filter
	// ordering. Required when MinDistance > 0.
	Distances mat.Matrix

	// MinDistance removes every candidate closer than this to a pick.
	MinDistance float64

	// TopN restricts distance-thresholded selection to the TopN best
	// initially scored rows. Zero disables the restriction.
	TopN int
}

func (o Options) validate(n int) error {
	if o.NSelect <= 0 {
		return errors.Config("number of sites to select must be positive, got %d", o.NSelect)
	}
	if o.Exclude != nil && len(o.Exclude) != n {
		return errors.Config("exclusion mask has %d entries, want %d", len(o.Exclude), n)
	}
	if p := o.Previous; p != nil && (len(p.Ranks) != n || p.Sentinel != n+1) {
		return errors.Config("previous ranks cover %d sites, want %d", len(p.Ranks), n)
	}
	if math.IsNaN(o.MinDistance) || o.MinDistance < 0 {
		return errors.Config("minimum distance %v must be >= 0", o.MinDistance)
	}
	if o.TopN < 0 {
		return errors.Config("top-N %d must be >= 0", o.TopN)
	}
	if o.MinDistance > 0 {
		if o.Distances == nil {
			return errors.Config("minimum distance set without a distance matrix")
		}
		if r, c := o.Distances.Dims(); r != n || c != n {
			return errors.Config("distance matrix is %dx%d, want %dx%d", r, c, n, n)
		}
	}
	return nil
}

// Rank selects up to opts.NSelect rows of m for iv and returns the ranks of
// every site in m's pre-filter ordering.
func Rank(m *decision.Matrix, iv Intervention, w Weights, alg Algorithm, opts Options) (*Result, error) {
	crit, err := iv.profile()
	if err != nil {
		return nil, err
	}
	if err := w.Validate(); err != nil {
		return nil, err
	}
	scorer, err := alg.Scorer()
	if err != nil {
		return nil, err
	}
	n := m.CandidateCount()
	if err := opts.validate(n); err != nil {
		return nil, err
	}

	var res *Result
	if opts.Previous != nil {
		res = opts.Previous.Clone()
		for i := range res.Ranks {
			res.set(iv, i, res.Sentinel)
		}
	} else {
		res = NewResult(n)
	}

	var rows []int
	for r := 0; r < m.Rows(); r++ {
		if opts.Exclude == nil || !opts.Exclude[m.SiteIndex(r)] {
			rows = append(rows, r)
		}
	}
	if len(rows) == 0 {
		return res, nil
	}

	sel := &selector{
		m:      m,
		cols:   make([]decision.Column, len(crit)),
		w:      signedWeights(w, crit),
		scorer: scorer,
		opts:   opts,
	}
	for i, c := range crit {
		sel.cols[i] = c.col
	}

	cs, err := sel.score(candidateSet{rows: rows})
	if err != nil {
		return nil, err
	}
	if opts.MinDistance > 0 && opts.TopN > 0 {
		cs = cs.top(opts.TopN)
	}

	for rank := 1; rank <= opts.NSelect && cs.len() > 0; rank++ {
		var pick int
		pick, cs, err = sel.step(cs)
		if err != nil {
			return nil, err
		}
		res.set(iv, m.SiteIndex(pick), rank)
	}
	return res, nil
}

// Score returns the score of every row of m for iv without selecting.
// Rows are scored together, as in the first step of Rank.
func Score(m *decision.Matrix, iv Intervention, w Weights, alg Algorithm) ([]float64, error) {
	crit, err := iv.profile()
	if err != nil {
		return nil, err
	}
	if err := w.Validate(); err != nil {
		return nil, err
	}
	scorer, err := alg.Scorer()
	if err != nil {
		return nil, err
	}
	if m.Rows() == 0 {
		return nil, nil
	}
	rows := make([]int, m.Rows())
	for i := range rows {
		rows[i] = i
	}
	sel := &selector{m: m, w: signedWeights(w, crit), scorer: scorer}
	for _, c := range crit {
		sel.cols = append(sel.cols, c.col)
	}
	cs, err := sel.score(candidateSet{rows: rows})
	if err != nil {
		return nil, err
	}
	return cs.scores, nil
}

// candidateSet is the immutable set of rows still eligible for selection,
// in ascending row order, with their current scores.
type candidateSet struct {
	rows   []int
	scores []float64
}

func (c candidateSet) len() int { return len(c.rows) }

// best returns the position of the highest score, lowest row on ties.
func (c candidateSet) best() int {
	b := 0
	for i := 1; i < len(c.rows); i++ {
		if c.scores[i] > c.scores[b] {
			b = i
		}
	}
	return b
}

// without returns the candidates for which drop is false.
func (c candidateSet) without(drop func(row int) bool) candidateSet {
	var out candidateSet
	for i, r := range c.rows {
		if !drop(r) {
			out.rows = append(out.rows, r)
			out.scores = append(out.scores, c.scores[i])
		}
	}
	return out
}

// top returns the n best scored candidates, still in row order.
func (c candidateSet) top(n int) candidateSet {
	if n >= len(c.rows) {
		return c
	}
	idx := make([]int, len(c.rows))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return c.scores[idx[a]] > c.scores[idx[b]] })
	keep := make(map[int]bool, n)
	for _, i := range idx[:n] {
		keep[c.rows[i]] = true
	}
	return c.without(func(r int) bool { return !keep[r] })
}

type selector struct {
	m      *decision.Matrix
	cols   []decision.Column
	w      []float64
	scorer Scorer
	opts   Options
}

// score returns cs with scores computed over its own rows.
func (s *selector) score(cs candidateSet) (candidateSet, error) {
	x := Normalize(s.m.Select(cs.rows, s.cols))
	scores := s.scorer.Score(x, s.w)
	for i, v := range scores {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return candidateSet{}, errors.Data("score of site %d is not finite", s.m.SiteIndex(cs.rows[i]))
		}
	}
	return candidateSet{rows: cs.rows, scores: scores}, nil
}

// step picks the best candidate and returns it with the remaining set.
func (s *selector) step(cs candidateSet) (int, candidateSet, error) {
	pick := cs.rows[cs.best()]
	site := s.m.SiteIndex(pick)

	next := cs.without(func(r int) bool {
		if r == pick {
			return true
		}
		if s.opts.MinDistance > 0 {
			return s.opts.Distances.At(site, s.m.SiteIndex(r)) < s.opts.MinDistance
		}
		return false
	})
	if next.len() == 0 || !s.scorer.Relative() {
		return pick, next, nil
	}
	next, err := s.score(next)
	return pick, next, err
}
