package mcda

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Normalize returns a copy of m with every column divided by its L2 norm.
// All-zero columns stay zero.
func Normalize(m mat.Matrix) *mat.Dense {
	out := mat.DenseCopyOf(m)
	_, c := out.Dims()
	for j := 0; j < c; j++ {
		col := mat.Col(nil, j, out)
		out.SetCol(j, NormalizeVec(col))
	}
	return out
}

// NormalizeVec returns v divided by its L2 norm. A zero vector is returned
// as a zero vector of the same length.
func NormalizeVec(v []float64) []float64 {
	out := make([]float64, len(v))
	copy(out, v)
	if norm := floats.Norm(out, 2); norm > 0 {
		for i := range out {
			out[i] /= norm
		}
	}
	return out
}
