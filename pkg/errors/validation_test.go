package errors

import (
	"math"
	"strings"
	"testing"
)

func TestValidateProbabilities(t *testing.T) {
	tests := []struct {
		name    string
		v       []float64
		wantErr bool
	}{
		{"empty", nil, false},
		{"bounds", []float64{0, 0.5, 1}, false},
		{"negative", []float64{0.1, -0.01}, true},
		{"above one", []float64{1.0001}, true},
		{"nan", []float64{math.NaN()}, true},
		{"inf", []float64{math.Inf(1)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateProbabilities("heat_stress", tt.v)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateProbabilities(%v) error = %v, wantErr %v", tt.v, err, tt.wantErr)
			}
			if err != nil && !IsData(err) {
				t.Errorf("error code = %v, want %v", GetCode(err), ErrCodeInvalidData)
			}
		})
	}
}

func TestValidateNonNegative(t *testing.T) {
	if err := ValidateNonNegative("area", []float64{0, 12.5}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := ValidateNonNegative("area", []float64{3, -1}); err == nil {
		t.Error("negative area should fail")
	}
	if err := ValidateNonNegative("area", []float64{math.Inf(1)}); err == nil {
		t.Error("infinite area should fail")
	}
}

func TestValidateFinite(t *testing.T) {
	if err := ValidateFinite("depth", []float64{-3, 4}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := ValidateFinite("depth", []float64{math.NaN()}); err == nil {
		t.Error("NaN should fail")
	}
}

func TestValidateLengths(t *testing.T) {
	if err := ValidateLengths(3, map[string]int{"a": 3, "b": 3}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	err := ValidateLengths(3, map[string]int{"zeta": 2, "alpha": 4, "ok": 3})
	if err == nil {
		t.Fatal("expected length mismatch")
	}
	msg := UserMessage(err)
	if !strings.Contains(msg, "alpha=4, zeta=2") {
		t.Errorf("message should list mismatches in sorted order: %q", msg)
	}
}

func TestValidateSquare(t *testing.T) {
	if err := ValidateSquare("m", [][]float64{{0, 1}, {1, 0}}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := ValidateSquare("m", [][]float64{{0, 1}, {1}}); err == nil {
		t.Error("ragged matrix should fail")
	}
	if err := ValidateSquare("m", [][]float64{{0, 1, 2}, {1, 0, 2}}); err == nil {
		t.Error("2x3 matrix should fail")
	}
	if err := ValidateSquare("m", nil); err != nil {
		t.Errorf("empty matrix is square: %v", err)
	}
}
