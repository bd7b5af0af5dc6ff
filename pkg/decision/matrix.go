package decision

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/matzehuels/reefrank/pkg/errors"
)

// Inputs are the per-site criteria for one timestep and replicate.
// Every slice is indexed by original site index and must have the same
// length as SiteIDs, except DepthPriority which may be nil.
type Inputs struct {
	SiteIDs []string

	InConnectivity  []float64 // betweenness, [0,1]
	OutConnectivity []float64 // 1 - Katz, [0,2]; scaled by max

	CoverSum []float64 // current total coral cover, fraction of area
	CoverMax []float64 // maximum sustainable cover, fraction of area
	Area     []float64 // m²

	WaveDamage []float64 // probability, [0,1]
	HeatStress []float64 // probability, [0,1]

	PredecessorPriority []float64 // indicator, [0,1]
	ZoneCriteria        []float64 // >= 0
	DepthPriority       []float64 // >= 0, optional

	// RiskTolerance is the largest acceptable heat-stress probability.
	RiskTolerance float64
}

// Matrix is an immutable decision matrix.
type Matrix struct {
	in    Inputs
	seed  []float64 // available seeding space per original site, m²
	shade []float64 // available shading space per original site, m²

	kept  []bool
	sites []int      // original index per row
	data  *mat.Dense // rows × NumColumns, nil when empty
}

// AvailableSeedSpace returns max(0, coverMax-coverSum)·area per site, forced
// to zero where coverMax is zero. The inputs must have equal length.
func AvailableSeedSpace(coverSum, coverMax, area []float64) []float64 {
	out := make([]float64, len(area))
	for i := range out {
		if coverMax[i] == 0 {
			continue
		}
		out[i] = math.Max(0, coverMax[i]-coverSum[i]) * area[i]
	}
	return out
}

// AvailableShadeSpace returns area·coverMax per site.
func AvailableShadeSpace(coverMax, area []float64) []float64 {
	out := make([]float64, len(area))
	for i := range out {
		out[i] = area[i] * coverMax[i]
	}
	return out
}

// Build validates in and assembles the decision matrix. Sites whose heat
// stress exceeds RiskTolerance or whose CoverMax is zero are filtered out.
// A matrix with zero rows is valid.
func Build(in Inputs) (*Matrix, error) {
	if err := validate(in); err != nil {
		return nil, err
	}
	in = clone(in)
	m := &Matrix{
		in:    in,
		seed:  AvailableSeedSpace(in.CoverSum, in.CoverMax, in.Area),
		shade: AvailableShadeSpace(in.CoverMax, in.Area),
	}
	m.kept = make([]bool, len(in.SiteIDs))
	for i := range m.kept {
		m.kept[i] = in.HeatStress[i] <= in.RiskTolerance && in.CoverMax[i] != 0
	}
	m.assemble()
	return m, nil
}

// ForSeeding returns the seeding variant of m: sites whose available seeding
// space is not positive or is below minArea are filtered out as well, and
// columns are rescaled over the remaining rows.
func (m *Matrix) ForSeeding(minArea float64) (*Matrix, error) {
	if math.IsNaN(minArea) || math.IsInf(minArea, 0) || minArea < 0 {
		return nil, errors.Config("minimum seeding area %v must be a finite value >= 0", minArea)
	}
	s := &Matrix{in: m.in, seed: m.seed, shade: m.shade}
	s.kept = make([]bool, len(m.kept))
	for i, k := range m.kept {
		s.kept[i] = k && m.seed[i] > 0 && m.seed[i] >= minArea
	}
	s.assemble()
	return s, nil
}

func (m *Matrix) assemble() {
	for i, k := range m.kept {
		if k {
			m.sites = append(m.sites, i)
		}
	}
	if len(m.sites) == 0 {
		return
	}

	m.data = mat.NewDense(len(m.sites), NumColumns, nil)
	set := func(c Column, v []float64) {
		for r, s := range m.sites {
			m.data.Set(r, int(c), v[s])
		}
	}
	site := make([]float64, len(m.kept))
	for i := range site {
		site[i] = float64(i)
	}
	set(Site, site)
	set(InConnectivity, m.in.InConnectivity)
	set(OutConnectivity, m.in.OutConnectivity)
	set(WaveDamage, m.in.WaveDamage)
	set(HeatStress, m.in.HeatStress)
	if m.in.DepthPriority != nil {
		set(DepthPriority, m.in.DepthPriority)
	}
	set(PredecessorPriority, m.in.PredecessorPriority)
	set(ZonePriority, m.in.ZoneCriteria)
	set(SeedSpace, m.seed)
	set(ShadeSpace, m.shade)

	for _, c := range []Column{InConnectivity, OutConnectivity, DepthPriority, ZonePriority, SeedSpace, ShadeSpace} {
		m.scaleByMax(c)
	}
	m.scaleMinMax(WaveDamage)
	m.scaleMinMax(HeatStress)
}

func (m *Matrix) scaleByMax(c Column) {
	col := mat.Col(nil, int(c), m.data)
	hi := floats.Max(col)
	if hi == 0 {
		return
	}
	for i := range col {
		col[i] /= hi
	}
	m.data.SetCol(int(c), col)
}

func (m *Matrix) scaleMinMax(c Column) {
	col := mat.Col(nil, int(c), m.data)
	lo, hi := floats.Min(col), floats.Max(col)
	if hi == lo {
		return
	}
	for i := range col {
		col[i] = (col[i] - lo) / (hi - lo)
	}
	m.data.SetCol(int(c), col)
}

// Rows returns the number of rows (feasible sites).
func (m *Matrix) Rows() int { return len(m.sites) }

// CandidateCount returns the number of sites in the pre-filter ordering.
func (m *Matrix) CandidateCount() int { return len(m.kept) }

// Kept returns a copy of the mask of surviving sites, aligned to the
// pre-filter ordering.
func (m *Matrix) Kept() []bool {
	out := make([]bool, len(m.kept))
	copy(out, m.kept)
	return out
}

// At returns the value of column c in row r.
func (m *Matrix) At(r int, c Column) float64 { return m.data.At(r, int(c)) }

// Col returns a copy of column c over all rows.
func (m *Matrix) Col(c Column) []float64 {
	if m.data == nil {
		return nil
	}
	return mat.Col(nil, int(c), m.data)
}

// Select returns a copy of the given columns restricted to rows, as a
// len(rows)×len(cols) matrix. It returns nil when either is empty.
func (m *Matrix) Select(rows []int, cols []Column) *mat.Dense {
	if len(rows) == 0 || len(cols) == 0 {
		return nil
	}
	out := mat.NewDense(len(rows), len(cols), nil)
	for i, r := range rows {
		for j, c := range cols {
			out.Set(i, j, m.data.At(r, int(c)))
		}
	}
	return out
}

// SiteIndex returns the original site index of row r.
func (m *Matrix) SiteIndex(r int) int { return m.sites[r] }

// SiteID returns the site ID of row r.
func (m *Matrix) SiteID(r int) string { return m.in.SiteIDs[m.sites[r]] }

// RowOf returns the row holding original site s.
func (m *Matrix) RowOf(s int) (int, bool) {
	if s < 0 || s >= len(m.kept) || !m.kept[s] {
		return 0, false
	}
	return sort.SearchInts(m.sites, s), true
}

// SeedArea returns the raw available seeding space of row r in m².
func (m *Matrix) SeedArea(r int) float64 { return m.seed[m.sites[r]] }

// ShadeArea returns the raw available shading space of row r in m².
func (m *Matrix) ShadeArea(r int) float64 { return m.shade[m.sites[r]] }

// AvailableSeedSpace returns a copy of the raw available seeding space of
// every site in the pre-filter ordering.
func (m *Matrix) AvailableSeedSpace() []float64 {
	out := make([]float64, len(m.seed))
	copy(out, m.seed)
	return out
}

// Dense returns a copy of the full matrix, or nil when it has no rows.
func (m *Matrix) Dense() *mat.Dense {
	if m.data == nil {
		return nil
	}
	return mat.DenseCopyOf(m.data)
}

func validate(in Inputs) error {
	n := len(in.SiteIDs)
	lengths := map[string]int{
		"in_connectivity":      len(in.InConnectivity),
		"out_connectivity":     len(in.OutConnectivity),
		"cover_sum":            len(in.CoverSum),
		"cover_max":            len(in.CoverMax),
		"area":                 len(in.Area),
		"wave_damage":          len(in.WaveDamage),
		"heat_stress":          len(in.HeatStress),
		"predecessor_priority": len(in.PredecessorPriority),
		"zone_criteria":        len(in.ZoneCriteria),
	}
	if in.DepthPriority != nil {
		lengths["depth_priority"] = len(in.DepthPriority)
	}
	if err := errors.ValidateLengths(n, lengths); err != nil {
		return err
	}
	if math.IsNaN(in.RiskTolerance) || in.RiskTolerance < 0 || in.RiskTolerance > 1 {
		return errors.Data("risk tolerance %v outside [0,1]", in.RiskTolerance)
	}

	for _, p := range []struct {
		name string
		v    []float64
	}{
		{"in_connectivity", in.InConnectivity},
		{"cover_sum", in.CoverSum},
		{"cover_max", in.CoverMax},
		{"wave_damage", in.WaveDamage},
		{"heat_stress", in.HeatStress},
		{"predecessor_priority", in.PredecessorPriority},
	} {
		if err := errors.ValidateProbabilities(p.name, p.v); err != nil {
			return err
		}
	}
	for _, p := range []struct {
		name string
		v    []float64
	}{
		{"area", in.Area},
		{"out_connectivity", in.OutConnectivity},
		{"zone_criteria", in.ZoneCriteria},
		{"depth_priority", in.DepthPriority},
	} {
		if err := errors.ValidateNonNegative(p.name, p.v); err != nil {
			return err
		}
	}
	return nil
}

func clone(in Inputs) Inputs {
	cp := func(v []float64) []float64 {
		if v == nil {
			return nil
		}
		return append([]float64(nil), v...)
	}
	return Inputs{
		SiteIDs:             append([]string(nil), in.SiteIDs...),
		InConnectivity:      cp(in.InConnectivity),
		OutConnectivity:     cp(in.OutConnectivity),
		CoverSum:            cp(in.CoverSum),
		CoverMax:            cp(in.CoverMax),
		Area:                cp(in.Area),
		WaveDamage:          cp(in.WaveDamage),
		HeatStress:          cp(in.HeatStress),
		PredecessorPriority: cp(in.PredecessorPriority),
		ZoneCriteria:        cp(in.ZoneCriteria),
		DepthPriority:       cp(in.DepthPriority),
		RiskTolerance:       in.RiskTolerance,
	}
}
