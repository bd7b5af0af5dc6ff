package errors

import (
	"math"
	"sort"
	"strconv"
	"strings"
)

// ValidateProbabilities checks that every value of v is finite and in [0,1].
// The name identifies the vector in the returned INVALID_DATA error.
func ValidateProbabilities(name string, v []float64) error {
	for i, x := range v {
		if math.IsNaN(x) || x < 0 || x > 1 {
			return Data("%s[%d] = %v, want a value in [0,1]", name, i, x)
		}
	}
	return nil
}

// ValidateNonNegative checks that every value of v is finite and >= 0.
func ValidateNonNegative(name string, v []float64) error {
	for i, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) || x < 0 {
			return Data("%s[%d] = %v, want a finite value >= 0", name, i, x)
		}
	}
	return nil
}

// ValidateFinite checks that v holds no NaN or Inf.
func ValidateFinite(name string, v []float64) error {
	for i, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return Data("%s[%d] is not finite", name, i)
		}
	}
	return nil
}

// ValidateLengths checks that every named length equals want.
// Names are reported in sorted order so the message is deterministic.
//
//	err := errors.ValidateLengths(n, map[string]int{
//	    "area":     len(area),
//	    "cover_max": len(coverMax),
//	})
func ValidateLengths(want int, lengths map[string]int) error {
	var bad []string
	for name, n := range lengths {
		if n != want {
			bad = append(bad, name)
		}
	}
	if len(bad) == 0 {
		return nil
	}
	sort.Strings(bad)
	parts := make([]string, len(bad))
	for i, name := range bad {
		parts[i] = name + "=" + strconv.Itoa(lengths[name])
	}
	return Data("length mismatch, want %d: %s", want, strings.Join(parts, ", "))
}

// ValidateSquare checks that rows describes an n×n matrix.
func ValidateSquare(name string, rows [][]float64) error {
	n := len(rows)
	for i, row := range rows {
		if len(row) != n {
			return Data("%s is not square: row %d has %d columns, want %d", name, i, len(row), n)
		}
	}
	return nil
}
