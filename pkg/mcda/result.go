package mcda

import "sort"

// SiteRank holds the seeding and shading rank of one site. Rank 1 is best.
type SiteRank struct {
	Site  int `json:"site"`
	Seed  int `json:"seed"`
	Shade int `json:"shade"`
}

// Result holds the ranks of every site in the pre-filter ordering for one
// replicate. Ranks[i].Site == i.
type Result struct {
	Ranks    []SiteRank `json:"ranks"`
	Sentinel int        `json:"sentinel"`
}

// NewResult returns a result for n sites with every rank set to the
// sentinel n+1.
func NewResult(n int) *Result {
	r := &Result{Ranks: make([]SiteRank, n), Sentinel: n + 1}
	for i := range r.Ranks {
		r.Ranks[i] = SiteRank{Site: i, Seed: r.Sentinel, Shade: r.Sentinel}
	}
	return r
}

// Clone returns a deep copy of r.
func (r *Result) Clone() *Result {
	c := &Result{Ranks: make([]SiteRank, len(r.Ranks)), Sentinel: r.Sentinel}
	copy(c.Ranks, r.Ranks)
	return c
}

// RankOf returns the rank of site for iv.
func (r *Result) RankOf(iv Intervention, site int) int {
	if iv == Shading {
		return r.Ranks[site].Shade
	}
	return r.Ranks[site].Seed
}

func (r *Result) set(iv Intervention, site, rank int) {
	if iv == Shading {
		r.Ranks[site].Shade = rank
	} else {
		r.Ranks[site].Seed = rank
	}
}

// Selected returns the sites picked for iv, best first.
func (r *Result) Selected(iv Intervention) []int {
	var sites []int
	for i := range r.Ranks {
		if r.RankOf(iv, i) != r.Sentinel {
			sites = append(sites, i)
		}
	}
	sort.Slice(sites, func(a, b int) bool {
		return r.RankOf(iv, sites[a]) < r.RankOf(iv, sites[b])
	})
	return sites
}

// Array returns the ranks as {site, seed, shade} triples.
func (r *Result) Array() [][3]int {
	out := make([][3]int, len(r.Ranks))
	for i, rk := range r.Ranks {
		out[i] = [3]int{rk.Site, rk.Seed, rk.Shade}
	}
	return out
}
