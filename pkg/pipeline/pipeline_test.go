package pipeline

import (
	"context"
	"io"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/reefrank/pkg/cache"
	"github.com/matzehuels/reefrank/pkg/domain"
	"github.com/matzehuels/reefrank/pkg/errors"
	"github.com/matzehuels/reefrank/pkg/mcda"
	"github.com/matzehuels/reefrank/pkg/scenario"
)

const (
	nSites = 6
	nSteps = 2
	nReps  = 4
)

func testInputs() domain.Inputs {
	conn := make([][]float64, nSites)
	dist := make([][]float64, nSites)
	for i := range conn {
		conn[i] = make([]float64, nSites)
		dist[i] = make([]float64, nSites)
		conn[i][(i+1)%nSites] = 0.3
		conn[i][(i+2)%nSites] = 0.1
		for j := range dist[i] {
			d := i - j
			if d < 0 {
				d = -d
			}
			dist[i][j] = float64(d) * 100
		}
	}
	stress := func(scale float64) [][][]float64 {
		out := make([][][]float64, nSteps)
		for t := range out {
			out[t] = make([][]float64, nSites)
			for s := range out[t] {
				out[t][s] = make([]float64, nReps)
				for r := range out[t][s] {
					out[t][s][r] = scale * float64((s*7+r*3+t)%10) / 10
				}
			}
		}
		return out
	}
	return domain.Inputs{
		Name: "ring",
		Sites: []domain.Site{
			{ID: "s1", Area: 1000, K: 80, Depth: 4, Zone: "green"},
			{ID: "s2", Area: 800, K: 75, Depth: 6, Priority: true},
			{ID: "s3", Area: 600, K: 95, Depth: 8, Zone: "green"},
			{ID: "s4", Area: 400, K: 70, Depth: 9},
			{ID: "s5", Area: 200, K: 60, Depth: 12, Zone: "orange"},
			{ID: "s6", Area: 300, K: 0, Depth: 5},
		},
		Connectivity: conn,
		WaveStress:   stress(0.5),
		HeatStress:   stress(0.9),
		CoralCover:   [][]float64{{0.1, 0.2, 0.1, 0.3, 0.2, 0}},
		CoralTypes:   []string{"tabular"},
		Distances:    dist,
	}
}

func testScenario() *scenario.Scenario {
	sc := scenario.Default()
	sc.SeedSites = 2
	sc.ShadeSites = 3
	sc.RiskTolerance = 0.8
	sc.DepthMin = 0
	sc.DepthOffset = 20
	sc.PriorityZones = []string{"green", "orange"}
	sc.SeededArea = map[string]float64{"tabular": 30}
	return sc
}

func testRunner(t *testing.T) (*Runner, *domain.Domain) {
	t.Helper()
	r := NewRunner(nil, nil, log.New(io.Discard))
	d, err := r.LoadDomain(context.Background(), testInputs())
	require.NoError(t, err)
	return r, d
}

func TestOptionsValidateAndSetDefaults(t *testing.T) {
	var o Options
	require.NoError(t, o.ValidateAndSetDefaults())
	assert.Positive(t, o.Workers)

	o = Options{Workers: -1}
	assert.True(t, errors.IsConfig(o.ValidateAndSetDefaults()))
}

func TestRun(t *testing.T) {
	r, d := testRunner(t)
	res, err := r.Run(context.Background(), d, testScenario(), Options{Workers: 3, Allocate: true})
	require.NoError(t, err)

	assert.NotEmpty(t, res.RunID)
	assert.Equal(t, []int{0, 1}, res.Timesteps)
	assert.Equal(t, nReps, res.Replicates)
	assert.Equal(t, nSteps*nReps, res.Stats.Jobs)
	assert.Zero(t, res.Stats.Failed)

	for ti := range res.Timesteps {
		ranks := res.RankArray(ti)
		require.Len(t, ranks, nReps)
		for _, rep := range ranks {
			require.Len(t, rep, nSites)
			assert.Equal(t, [3]int{5, nSites + 1, rep[5][2]}, rep[5], "zero-capacity site is never seeded")
		}
		for _, rep := range res.Slots[ti] {
			seeded := rep.Ranks.Selected(mcda.Seeding)
			assert.LessOrEqual(t, len(seeded), 2)
			assert.LessOrEqual(t, len(rep.Ranks.Selected(mcda.Shading)), 3)
			require.NotNil(t, rep.Allocation)
			assert.Equal(t, seeded, rep.Allocation.Sites)
			if len(seeded) > 0 {
				assert.InDelta(t, 30, rep.Allocation.Total(d.Area(), 0), 1e-5)
			}
		}
		for _, f := range res.SelectionFrequency(ti, mcda.Seeding) {
			assert.GreaterOrEqual(t, f, 0.0)
			assert.LessOrEqual(t, f, 1.0)
		}
	}
}

func TestRunDeterministicAcrossWorkers(t *testing.T) {
	r, d := testRunner(t)
	sc := testScenario()
	sc.Algorithm = "vikor"

	one, err := r.Run(context.Background(), d, sc, Options{Workers: 1})
	require.NoError(t, err)
	many, err := r.Run(context.Background(), d, sc, Options{Workers: 8})
	require.NoError(t, err)
	for ti := range one.Timesteps {
		assert.Equal(t, one.RankArray(ti), many.RankArray(ti))
	}
}

func TestRunDepthExclusion(t *testing.T) {
	r, d := testRunner(t)
	sc := testScenario()
	sc.DepthMin = 5
	sc.DepthOffset = 4 // only s2, s3, s4 and s6 are within [5, 9]

	res, err := r.Run(context.Background(), d, sc, Options{})
	require.NoError(t, err)
	for _, reps := range res.Slots {
		for _, rep := range reps {
			for _, s := range rep.Ranks.Selected(mcda.Seeding) {
				assert.Contains(t, []int{1, 2, 3}, s)
			}
			for _, s := range rep.Ranks.Selected(mcda.Shading) {
				assert.Contains(t, []int{1, 2, 3}, s)
			}
		}
	}
}

func TestRunConfigErrorsFailFast(t *testing.T) {
	r, d := testRunner(t)
	tests := []struct {
		name   string
		modify func(*scenario.Scenario)
	}{
		{"risk tolerance", func(sc *scenario.Scenario) { sc.RiskTolerance = 1.5 }},
		{"seed sites", func(sc *scenario.Scenario) { sc.SeedSites = 0 }},
		{"negative weight", func(sc *scenario.Scenario) { sc.SeedWeights.Zone = -1 }},
		{"timestep", func(sc *scenario.Scenario) { sc.Timesteps = []int{5} }},
		{"replicates", func(sc *scenario.Scenario) { sc.Replicates = 99 }},
		{"unknown coral type", func(sc *scenario.Scenario) { sc.SeededArea = map[string]float64{"massive": 1} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sc := testScenario()
			tt.modify(sc)
			_, err := r.Run(context.Background(), d, sc, Options{})
			require.Error(t, err)
			assert.True(t, errors.IsConfig(err), "got %v", err)
		})
	}
}

func TestRunMinDistanceNeedsDistances(t *testing.T) {
	r := NewRunner(nil, nil, log.New(io.Discard))
	in := testInputs()
	in.Distances = nil
	d, err := r.LoadDomain(context.Background(), in)
	require.NoError(t, err)

	sc := testScenario()
	sc.MinDistance = 150
	_, err = r.Run(context.Background(), d, sc, Options{})
	assert.True(t, errors.IsConfig(err))
}

func TestRunMinDistance(t *testing.T) {
	r, d := testRunner(t)
	sc := testScenario()
	sc.MinDistance = 150
	sc.ShadeSites = 6

	res, err := r.Run(context.Background(), d, sc, Options{})
	require.NoError(t, err)
	for _, reps := range res.Slots {
		for _, rep := range reps {
			picks := rep.Ranks.Selected(mcda.Shading)
			for i := range picks {
				for j := i + 1; j < len(picks); j++ {
					gap := picks[i] - picks[j]
					if gap < 0 {
						gap = -gap
					}
					assert.GreaterOrEqual(t, gap, 2, "picks %v closer than min distance", picks)
				}
			}
		}
	}
}

func TestRunContinueOnError(t *testing.T) {
	r, d := testRunner(t)
	sc := testScenario()
	sc.SeededArea = map[string]float64{"tabular": 1e9} // more than any site can take

	_, err := r.Run(context.Background(), d, sc, Options{Allocate: true})
	require.Error(t, err)
	assert.True(t, errors.IsData(err))

	res, err := r.Run(context.Background(), d, sc, Options{Allocate: true, ContinueOnError: true})
	require.NoError(t, err)
	assert.Equal(t, nSteps*nReps, res.Stats.Failed)
	assert.Nil(t, res.RankArray(0)[0])
	assert.Equal(t, make([]float64, nSites), res.SelectionFrequency(0, mcda.Seeding))
}

func TestRunCancelled(t *testing.T) {
	r, d := testRunner(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := r.Run(ctx, d, testScenario(), Options{Workers: 2})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCachedRun(t *testing.T) {
	fc, err := cache.NewFileCache(t.TempDir())
	require.NoError(t, err)
	r := NewRunner(fc, cache.NewScopedKeyer(nil, "test:"), log.New(io.Discard))
	d, err := r.LoadDomain(context.Background(), testInputs())
	require.NoError(t, err)

	res, err := r.Run(context.Background(), d, testScenario(), Options{Allocate: true})
	require.NoError(t, err)

	got, hit, err := r.CachedRun(context.Background(), res.RunID)
	require.NoError(t, err)
	require.True(t, hit)
	assert.Equal(t, res.RankArray(1), got.RankArray(1))
	assert.Equal(t, "tabular", got.Slots[0][0].Allocation.Types[0])

	_, hit, err = r.CachedRun(context.Background(), "missing")
	require.NoError(t, err)
	assert.False(t, hit)
}
