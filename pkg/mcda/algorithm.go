package mcda

import (
	"math"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/matzehuels/reefrank/pkg/errors"
)

// Algorithm is a closed set of MCDA scoring methods.
type Algorithm int

const (
	OrderRanking Algorithm = iota + 1
	AdjustedTOPSIS
	VIKOR
)

var algorithmNames = map[Algorithm]string{
	OrderRanking:   "order",
	AdjustedTOPSIS: "topsis",
	VIKOR:          "vikor",
}

func (a Algorithm) String() string {
	if s, ok := algorithmNames[a]; ok {
		return s
	}
	return "unknown"
}

// AlgorithmFromIndex maps the 1-based scenario index to an Algorithm.
func AlgorithmFromIndex(i int) (Algorithm, error) {
	a := Algorithm(i)
	if _, ok := algorithmNames[a]; !ok {
		return 0, errors.Config("unknown MCDA algorithm index %d (want 1-%d)", i, len(algorithmNames))
	}
	return a, nil
}

// ParseAlgorithm maps a name ("order", "topsis", "vikor") to an Algorithm.
func ParseAlgorithm(name string) (Algorithm, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for a, s := range algorithmNames {
		if s == name {
			return a, nil
		}
	}
	return 0, errors.Config("unknown MCDA algorithm %q (want order, topsis or vikor)", name)
}

// Scorer turns a normalized decision matrix and signed weights into one
// score per row. Higher is better. Implementations are pure.
type Scorer interface {
	Score(x mat.Matrix, w []float64) []float64

	// Relative reports whether a row's score depends on the other rows, in
	// which case scores are recomputed after every pick.
	Relative() bool
}

// Scorer returns the implementation of a.
func (a Algorithm) Scorer() (Scorer, error) {
	switch a {
	case OrderRanking:
		return orderRanking{}, nil
	case AdjustedTOPSIS:
		return adjustedTOPSIS{}, nil
	case VIKOR:
		return vikor{v: 0.5}, nil
	default:
		return nil, errors.Config("unknown MCDA algorithm %d", int(a))
	}
}

// weighted returns x with column j multiplied by w[j].
func weighted(x mat.Matrix, w []float64) *mat.Dense {
	r, c := x.Dims()
	v := mat.NewDense(r, c, nil)
	v.Apply(func(i, j int, x float64) float64 { return x * w[j] }, x)
	return v
}

type orderRanking struct{}

func (orderRanking) Relative() bool { return false }

func (orderRanking) Score(x mat.Matrix, w []float64) []float64 {
	r, _ := x.Dims()
	var s mat.VecDense
	s.MulVec(x, mat.NewVecDense(len(w), w))
	out := make([]float64, r)
	copy(out, s.RawVector().Data)
	return out
}

// adjustedTOPSIS scores rows by closeness to the ideal row. Weights are
// signed, so the column maximum is ideal for every criterion.
type adjustedTOPSIS struct{}

func (adjustedTOPSIS) Relative() bool { return true }

func (adjustedTOPSIS) Score(x mat.Matrix, w []float64) []float64 {
	v := weighted(x, w)
	r, c := v.Dims()
	best, worst := colExtremes(v)

	out := make([]float64, r)
	row := make([]float64, c)
	for i := 0; i < r; i++ {
		mat.Row(row, i, v)
		sp := floats.Distance(row, best, 2)
		sn := floats.Distance(row, worst, 2)
		if d := sp + sn; d > 0 {
			out[i] = sn / d
		}
	}
	return out
}

// vikor is the VIKOR compromise method with strategy weight v.
type vikor struct{ v float64 }

func (vikor) Relative() bool { return true }

func (a vikor) Score(x mat.Matrix, w []float64) []float64 {
	v := weighted(x, w)
	r, c := v.Dims()
	best, worst := colExtremes(v)

	s := make([]float64, r)
	q := make([]float64, r)
	reg := make([]float64, r)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			rng := best[j] - worst[j]
			if rng == 0 {
				continue
			}
			d := math.Abs(w[j]) * (best[j] - v.At(i, j)) / rng
			s[i] += d
			reg[i] = math.Max(reg[i], d)
		}
	}

	sMin, sMax := floats.Min(s), floats.Max(s)
	rMin, rMax := floats.Min(reg), floats.Max(reg)
	out := make([]float64, r)
	for i := range q {
		if sMax > sMin {
			q[i] += a.v * (s[i] - sMin) / (sMax - sMin)
		}
		if rMax > rMin {
			q[i] += (1 - a.v) * (reg[i] - rMin) / (rMax - rMin)
		}
		out[i] = 1 - q[i]
	}
	return out
}

// colExtremes returns the per-column maximum and minimum of v.
func colExtremes(v *mat.Dense) (hi, lo []float64) {
	_, c := v.Dims()
	hi = make([]float64, c)
	lo = make([]float64, c)
	for j := 0; j < c; j++ {
		col := mat.Col(nil, j, v)
		hi[j], lo[j] = floats.Max(col), floats.Min(col)
	}
	return hi, lo
}
