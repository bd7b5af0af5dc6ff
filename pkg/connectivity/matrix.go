package connectivity

import (
	"encoding/binary"
	"math"
	"strconv"

	"gonum.org/v1/gonum/mat"

	"github.com/matzehuels/reefrank/pkg/cache"
	"github.com/matzehuels/reefrank/pkg/errors"
)

// Matrix is an immutable N×N transition-probability matrix.
// Values are in [0,1]; entries below the cutoff are stored as zero.
type Matrix struct {
	d      *mat.Dense // nil when n == 0
	n      int
	cutoff float64
}

// Edge is a nonzero off-diagonal link From→To.
type Edge struct {
	From, To int
	Weight   float64
}

// NewMatrix validates rows and builds a Matrix, zeroing entries strictly
// below cutoff. Rows are copied.
//
// Returns an INVALID_DATA error if rows is not square or holds values outside
// [0,1], and INVALID_CONFIG if cutoff is outside [0,1].
func NewMatrix(rows [][]float64, cutoff float64) (*Matrix, error) {
	if math.IsNaN(cutoff) || cutoff < 0 || cutoff > 1 {
		return nil, errors.Config("connectivity cutoff %v outside [0,1]", cutoff)
	}
	if err := errors.ValidateSquare("connectivity matrix", rows); err != nil {
		return nil, err
	}
	n := len(rows)
	if n == 0 {
		return &Matrix{cutoff: cutoff}, nil
	}

	data := make([]float64, 0, n*n)
	for i, row := range rows {
		if err := errors.ValidateProbabilities("connectivity row "+strconv.Itoa(i), row); err != nil {
			return nil, err
		}
		for _, v := range row {
			if v < cutoff {
				v = 0
			}
			data = append(data, v)
		}
	}
	return &Matrix{d: mat.NewDense(n, n, data), n: n, cutoff: cutoff}, nil
}

// N returns the number of sites.
func (m *Matrix) N() int { return m.n }

// Cutoff returns the cutoff applied at construction.
func (m *Matrix) Cutoff() float64 { return m.cutoff }

// At returns the transition probability from site i to site j.
func (m *Matrix) At(i, j int) float64 { return m.d.At(i, j) }

// Dense returns a copy of the matrix as a gonum Dense, or nil for n == 0.
func (m *Matrix) Dense() *mat.Dense {
	if m.d == nil {
		return nil
	}
	return mat.DenseCopyOf(m.d)
}

// Rows returns a copy of the matrix as row slices.
func (m *Matrix) Rows() [][]float64 {
	rows := make([][]float64, m.n)
	for i := range rows {
		rows[i] = mat.Row(nil, i, m.d)
	}
	return rows
}

// Edges returns every nonzero off-diagonal link in row-major order.
func (m *Matrix) Edges() []Edge {
	var edges []Edge
	for i := 0; i < m.n; i++ {
		for j := 0; j < m.n; j++ {
			if i == j {
				continue
			}
			if w := m.d.At(i, j); w != 0 {
				edges = append(edges, Edge{From: i, To: j, Weight: w})
			}
		}
	}
	return edges
}

// Hash returns a content hash of the stored (post-cutoff) values.
// Matrices with identical contents hash identically regardless of cutoff.
func (m *Matrix) Hash() string {
	buf := make([]byte, 8+8*m.n*m.n)
	binary.LittleEndian.PutUint64(buf, uint64(m.n))
	off := 8
	for i := 0; i < m.n; i++ {
		for j := 0; j < m.n; j++ {
			binary.LittleEndian.PutUint64(buf[off:], math.Float64bits(m.d.At(i, j)))
			off += 8
		}
	}
	return cache.Hash(buf)
}
