package decision

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/reefrank/pkg/errors"
)

func fiveSites() Inputs {
	return Inputs{
		SiteIDs:             []string{"a", "b", "c", "d", "e"},
		InConnectivity:      []float64{0.1, 0.5, 0.2, 0, 0.3},
		OutConnectivity:     []float64{0.4, 0.2, 0.6, 0.1, 0},
		CoverSum:            []float64{0.3, 0.75, 0.2, 0.1, 0},
		CoverMax:            []float64{0.8, 0.75, 0.95, 0.7, 0.0},
		Area:                []float64{1000, 800, 600, 200, 200},
		WaveDamage:          []float64{0.2, 0.3, 0.1, 0.4, 0.5},
		HeatStress:          []float64{0.05, 0.1, 0.1, 0.5, 0.0},
		PredecessorPriority: []float64{0, 1, 0, 1, 0},
		ZoneCriteria:        []float64{0.5, 0, 1, 0, 0},
		RiskTolerance:       0.8,
	}
}

func TestBuildFiveSites(t *testing.T) {
	m, err := Build(fiveSites())
	require.NoError(t, err)

	assert.Equal(t, []bool{true, true, true, true, false}, m.Kept())
	assert.Equal(t, 4, m.Rows())
	assert.Equal(t, 5, m.CandidateCount())
	_, ok := m.RowOf(4)
	assert.False(t, ok, "site with zero max cover is filtered out")

	// zero max cover forces the raw seeding space to 0
	assert.InDeltaSlice(t, []float64{500, 0, 450, 120, 0}, m.AvailableSeedSpace(), 1e-9)

	assert.Equal(t, []float64{0, 1, 2, 3}, m.Col(Site))
	assert.InDeltaSlice(t, []float64{0.2, 1, 0.4, 0}, m.Col(InConnectivity), 1e-12)
	assert.InDeltaSlice(t, []float64{0, 0.05 / 0.45, 0.05 / 0.45, 1}, m.Col(HeatStress), 1e-12)
	assert.InDeltaSlice(t, []float64{1, 0, 0.9, 0.24}, m.Col(SeedSpace), 1e-12)
	assert.InDeltaSlice(t, []float64{800, 600, 570, 140}, []float64{
		m.ShadeArea(0), m.ShadeArea(1), m.ShadeArea(2), m.ShadeArea(3),
	}, 1e-9)
}

func TestForSeeding(t *testing.T) {
	m, err := Build(fiveSites())
	require.NoError(t, err)

	s, err := m.ForSeeding(0)
	require.NoError(t, err)
	assert.Equal(t, []bool{true, false, true, true, false}, s.Kept(), "no space left at site 1")

	s, err = m.ForSeeding(200)
	require.NoError(t, err)
	assert.Equal(t, []bool{true, false, true, false, false}, s.Kept())
	assert.Equal(t, 2, s.Rows())
	assert.Equal(t, 2, s.SiteIndex(1))
	assert.Equal(t, "c", s.SiteID(1))
	assert.Equal(t, 450.0, s.SeedArea(1))

	// statistics follow the surviving rows
	assert.InDeltaSlice(t, []float64{1, 0.9}, s.Col(SeedSpace), 1e-12)

	_, err = m.ForSeeding(-1)
	assert.True(t, errors.IsConfig(err))

	// the receiver is unchanged
	assert.Equal(t, 4, m.Rows())
}

func TestBuildRiskFilter(t *testing.T) {
	in := fiveSites()
	in.RiskTolerance = 0.08
	m, err := Build(in)
	require.NoError(t, err)
	assert.Equal(t, []bool{true, false, false, false, false}, m.Kept())

	in.RiskTolerance = 0.0
	in.HeatStress = []float64{0.1, 0.1, 0.1, 0.1, 0.1}
	m, err = Build(in)
	require.NoError(t, err)
	assert.Zero(t, m.Rows())
	assert.Nil(t, m.Dense())
	assert.Nil(t, m.Col(HeatStress))
}

func TestBuildConstantRiskKeepsRaw(t *testing.T) {
	in := fiveSites()
	in.HeatStress = []float64{0.3, 0.3, 0.3, 0.3, 0.3}
	in.WaveDamage = []float64{0, 0, 0, 0, 0}
	m, err := Build(in)
	require.NoError(t, err)
	assert.Equal(t, []float64{0.3, 0.3, 0.3, 0.3}, m.Col(HeatStress))
	assert.Equal(t, []float64{0, 0, 0, 0}, m.Col(WaveDamage))
}

func TestBuildValidation(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Inputs)
	}{
		{"length mismatch", func(in *Inputs) { in.Area = in.Area[:3] }},
		{"depth length mismatch", func(in *Inputs) { in.DepthPriority = []float64{1} }},
		{"risk tolerance above one", func(in *Inputs) { in.RiskTolerance = 1.2 }},
		{"risk tolerance nan", func(in *Inputs) { in.RiskTolerance = math.NaN() }},
		{"heat above one", func(in *Inputs) { in.HeatStress[0] = 1.5 }},
		{"cover max negative", func(in *Inputs) { in.CoverMax[2] = -0.1 }},
		{"negative area", func(in *Inputs) { in.Area[1] = -5 }},
		{"nan zone", func(in *Inputs) { in.ZoneCriteria[0] = math.NaN() }},
		{"negative out connectivity", func(in *Inputs) { in.OutConnectivity[3] = -0.1 }},
		{"infinite out connectivity", func(in *Inputs) { in.OutConnectivity[0] = math.Inf(1) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := fiveSites()
			tt.modify(&in)
			_, err := Build(in)
			require.Error(t, err)
			assert.True(t, errors.IsData(err), "got %v", err)
		})
	}
}

func TestBuildOutConnectivityAboveOne(t *testing.T) {
	in := fiveSites()
	in.OutConnectivity = []float64{1.4, 1.2, 0.7, 1.0, 2.0}

	m, err := Build(in)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{1, 1.2 / 1.4, 0.5, 1 / 1.4}, m.Col(OutConnectivity), 1e-12)
}

func TestBuildCopiesInputs(t *testing.T) {
	in := fiveSites()
	m, err := Build(in)
	require.NoError(t, err)
	in.HeatStress[0] = 0.99
	in.Area[0] = 1
	assert.Equal(t, 500.0, m.SeedArea(0))
	assert.Equal(t, 0.0, m.At(0, HeatStress))
}

func TestBuildBounds(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for trial := 0; trial < 50; trial++ {
		n := 1 + rng.Intn(30)
		in := Inputs{SiteIDs: make([]string, n), RiskTolerance: rng.Float64()}
		unit := func() []float64 {
			v := make([]float64, n)
			for i := range v {
				v[i] = rng.Float64()
			}
			return v
		}
		in.InConnectivity, in.OutConnectivity = unit(), unit()
		in.CoverSum, in.CoverMax = unit(), unit()
		in.WaveDamage, in.HeatStress = unit(), unit()
		in.PredecessorPriority, in.ZoneCriteria, in.DepthPriority = unit(), unit(), unit()
		in.Area = make([]float64, n)
		for i := range in.Area {
			in.Area[i] = rng.Float64() * 5000
			if rng.Intn(5) == 0 {
				in.CoverMax[i] = 0
			}
		}

		m, err := Build(in)
		require.NoError(t, err)
		s, err := m.ForSeeding(rng.Float64() * 100)
		require.NoError(t, err)

		for _, dm := range []*Matrix{m, s} {
			for r := 0; r < dm.Rows(); r++ {
				site := dm.SiteIndex(r)
				assert.LessOrEqual(t, in.HeatStress[site], in.RiskTolerance)
				assert.NotZero(t, in.CoverMax[site])
				for _, c := range Columns()[1:] {
					v := dm.At(r, c)
					assert.False(t, math.IsNaN(v) || math.IsInf(v, 0))
					assert.GreaterOrEqual(t, v, 0.0, "%s", c)
					assert.LessOrEqual(t, v, 1.0, "%s", c)
				}
			}
		}
	}
}

func TestColumnString(t *testing.T) {
	assert.Equal(t, "heat_stress", HeatStress.String())
	assert.Equal(t, "unknown", Column(99).String())
	assert.Len(t, Columns(), NumColumns)
}
