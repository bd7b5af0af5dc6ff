package nodelink

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/reefrank/pkg/domain"
)

func chain(t *testing.T) *domain.Domain {
	t.Helper()
	flat := func(v float64) [][][]float64 {
		return [][][]float64{{{v}, {v}, {v}}}
	}
	d, err := domain.New(domain.Inputs{
		Name: "chain",
		Sites: []domain.Site{
			{ID: "a", Area: 100, K: 50, Depth: 5},
			{ID: "b", Area: 100, K: 50, Depth: 5, Priority: true},
			{ID: "c", Area: 100, K: 50, Depth: 5},
		},
		Connectivity: [][]float64{
			{0, 0.5, 0.1},
			{0, 0, 0.4},
			{0, 0, 0},
		},
		WaveStress: flat(0.1),
		HeatStress: flat(0.1),
		CoralCover: [][]float64{{0.1, 0.1, 0.1}},
	})
	require.NoError(t, err)
	return d
}

func TestToDOT(t *testing.T) {
	dot := ToDOT(chain(t), Options{Seeded: []int{0, 2}, Shaded: []int{2}})

	assert.True(t, strings.HasPrefix(dot, "digraph G {\n"))
	assert.Contains(t, dot, `"a" [label="a", fillcolor=palegreen];`)
	assert.Contains(t, dot, `"b" [label="b", penwidth=2.5];`)
	assert.Contains(t, dot, `"c" [label="c", fillcolor=khaki];`)
	assert.Contains(t, dot, `"a" -> "b" [penwidth=2.75, color=red];`)
	assert.Contains(t, dot, `"a" -> "c" [penwidth=0.95];`)
	assert.Contains(t, dot, `"b" -> "c" [penwidth=2.30, color=red];`)
}

func TestToDOTDetailed(t *testing.T) {
	dot := ToDOT(chain(t), Options{Detailed: true})

	assert.Contains(t, dot, `label="0.5"`)
	assert.Contains(t, dot, `in: `)
	assert.Contains(t, dot, `out: `)
}

func TestRenderSVG(t *testing.T) {
	svg, err := RenderSVG(ToDOT(chain(t), Options{}))
	require.NoError(t, err)
	assert.True(t, bytes.Contains(svg, []byte(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 `)))
	assert.True(t, bytes.Contains(svg, []byte(">a</text>")))
}

func TestNormalizeViewBox(t *testing.T) {
	in := []byte(`<svg width="10pt" height="20pt" viewBox="0.00 0.00 10.00 20.00"><g/></svg>`)
	got := string(normalizeViewBox(in))
	assert.Equal(t, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 10.00 20.00" width="10" height="20"><g/></svg>`, got)

	plain := []byte("<svg><g/></svg>")
	assert.Equal(t, plain, normalizeViewBox(plain))
}
