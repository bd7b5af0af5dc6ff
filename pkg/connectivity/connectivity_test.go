package connectivity

import (
	"context"
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/reefrank/pkg/cache"
	"github.com/matzehuels/reefrank/pkg/errors"
)

// chain is 0→1→2.
var chain = [][]float64{
	{0, 0.4, 0},
	{0, 0, 0.2},
	{0, 0, 0},
}

func TestNewMatrixValidation(t *testing.T) {
	tests := []struct {
		name     string
		rows     [][]float64
		cutoff   float64
		wantCode errors.Code
	}{
		{"ok", chain, 0.01, ""},
		{"empty", nil, 0, ""},
		{"ragged", [][]float64{{0, 1}, {1}}, 0, errors.ErrCodeInvalidData},
		{"not square", [][]float64{{0, 1, 0}, {1, 0, 0}}, 0, errors.ErrCodeInvalidData},
		{"above one", [][]float64{{0, 1.2}, {0, 0}}, 0, errors.ErrCodeInvalidData},
		{"negative", [][]float64{{0, -0.1}, {0, 0}}, 0, errors.ErrCodeInvalidData},
		{"cutoff above one", chain, 1.5, errors.ErrCodeInvalidConfig},
		{"cutoff negative", chain, -0.1, errors.ErrCodeInvalidConfig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewMatrix(tt.rows, tt.cutoff)
			if tt.wantCode == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, errors.GetCode(err))
		})
	}
}

func TestNewMatrixCutoff(t *testing.T) {
	m, err := NewMatrix(chain, 0.3)
	require.NoError(t, err)
	assert.Equal(t, 0.4, m.At(0, 1))
	assert.Equal(t, 0.0, m.At(1, 2), "entries below the cutoff are zeroed")
	assert.Len(t, m.Edges(), 1)
}

func TestNewMatrixCopiesInput(t *testing.T) {
	rows := [][]float64{{0, 0.5}, {0.5, 0}}
	m, err := NewMatrix(rows, 0)
	require.NoError(t, err)
	rows[0][1] = 0.9
	assert.Equal(t, 0.5, m.At(0, 1))

	out := m.Rows()
	out[1][0] = 0.9
	assert.Equal(t, 0.5, m.At(1, 0))
}

func TestMatrixHash(t *testing.T) {
	a, _ := NewMatrix(chain, 0)
	b, _ := NewMatrix(chain, 0)
	c, _ := NewMatrix(chain, 0.3)
	assert.Equal(t, a.Hash(), b.Hash())
	assert.NotEqual(t, a.Hash(), c.Hash())
}

func TestBuildChain(t *testing.T) {
	m, err := NewMatrix(chain, 0)
	require.NoError(t, err)
	c, err := Build(m)
	require.NoError(t, err)

	assert.InDeltaSlice(t, []float64{0, 0.5, 0}, c.In, 1e-9)
	assert.InDeltaSlice(t, []float64{0.5348636, 0.3953227, 0.3534604}, c.Out, 1e-6)
	assert.Equal(t, []int{NoPredecessor, 0, 1}, c.Predecessor)
}

func TestCentralityJSONSentinel(t *testing.T) {
	m, err := NewMatrix(chain, 0)
	require.NoError(t, err)
	c, err := Build(m)
	require.NoError(t, err)

	data, err := json.Marshal(c)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"predecessor":[-1,0,1]`)
}

func TestBuildIgnoresSelfRetention(t *testing.T) {
	withLoops := [][]float64{
		{0.9, 0.4, 0},
		{0, 0.5, 0.2},
		{0, 0, 1},
	}
	plain, _ := NewMatrix(chain, 0)
	loops, _ := NewMatrix(withLoops, 0)

	want, err := Build(plain)
	require.NoError(t, err)
	got, err := Build(loops)
	require.NoError(t, err)

	assert.InDeltaSlice(t, want.In, got.In, 1e-12)
	assert.InDeltaSlice(t, want.Out, got.Out, 1e-12)
	assert.Equal(t, want.Predecessor, got.Predecessor)
}

func TestStrongestPredecessorTies(t *testing.T) {
	// 2 feeds 0 and 1, both feed 3: 0 and 1 tie on in-degree.
	rows := [][]float64{
		{0, 0, 0, 1},
		{0, 0, 0, 1},
		{1, 1, 0, 0},
		{0, 0, 0, 0},
	}
	m, err := NewMatrix(rows, 0)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		c, err := Build(m)
		require.NoError(t, err)
		assert.Equal(t, 0, c.Predecessor[3], "ties resolve to the lowest index")
		assert.Equal(t, NoPredecessor, c.Predecessor[2])
	}

	// 3→1 gives site 1 a second in-neighbour, so it wins.
	rows[3][1] = 1
	m, err = NewMatrix(rows, 0)
	require.NoError(t, err)
	c, err := Build(m)
	require.NoError(t, err)
	assert.Equal(t, 1, c.Predecessor[3])
}

func TestBuildSmallGraphs(t *testing.T) {
	for _, rows := range [][][]float64{
		nil,
		{{0}},
		{{0, 1}, {1, 0}},
	} {
		m, err := NewMatrix(rows, 0)
		require.NoError(t, err)
		c, err := Build(m)
		require.NoError(t, err)
		assert.Len(t, c.In, len(rows))
		for _, v := range c.In {
			assert.Zero(t, v, "betweenness is zero for n <= 2")
		}
	}
}

func TestBuildDenseNetwork(t *testing.T) {
	// Every site feeds every other: alpha times the spectral radius (0.3*4)
	// exceeds one, so the Katz solve comes back negative.
	rows := make([][]float64, 5)
	for i := range rows {
		rows[i] = make([]float64, 5)
		for j := range rows[i] {
			if i != j {
				rows[i][j] = 0.2
			}
		}
	}
	m, err := NewMatrix(rows, 0)
	require.NoError(t, err)
	c, err := Build(m)
	require.NoError(t, err)

	want := 1 + 1/math.Sqrt(5)
	for i, v := range c.Out {
		assert.InDelta(t, want, v, 1e-9, "site %d", i)
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, 2.0)
	}
	assert.InDeltaSlice(t, []float64{0, 0, 0, 0, 0}, c.In, 1e-12)
	assert.Equal(t, []int{1, 0, 0, 0, 0}, c.Predecessor)
}

func TestBuildCached(t *testing.T) {
	ctx := context.Background()
	fc, err := cache.NewFileCache(t.TempDir())
	require.NoError(t, err)

	m, _ := NewMatrix(chain, 0)
	first, hit, err := BuildCached(ctx, fc, nil, m)
	require.NoError(t, err)
	assert.False(t, hit)

	second, hit, err := BuildCached(ctx, fc, nil, m)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, first, second)

	// A different matrix is a different key.
	other, _ := NewMatrix(chain, 0.3)
	_, hit, err = BuildCached(ctx, fc, nil, other)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestBuildCachedNullCache(t *testing.T) {
	m, _ := NewMatrix(chain, 0)
	_, hit, err := BuildCached(context.Background(), nil, nil, m)
	require.NoError(t, err)
	assert.False(t, hit)
}
