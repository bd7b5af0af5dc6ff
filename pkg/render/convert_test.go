package render

import (
	stderrors "errors"
	"math"
	"testing"

	"github.com/matzehuels/reefrank/pkg/errors"
)

func TestConvertWithoutRsvg(t *testing.T) {
	orig := lookPath
	lookPath = func(string) (string, error) { return "", stderrors.New("not found") }
	t.Cleanup(func() { lookPath = orig })

	if _, err := ToPDF([]byte("<svg/>")); !errors.Is(err, errors.ErrCodeUnsupported) {
		t.Errorf("ToPDF error = %v, want UNSUPPORTED", err)
	}
	if _, err := ToPNG([]byte("<svg/>"), 2); !errors.Is(err, errors.ErrCodeUnsupported) {
		t.Errorf("ToPNG error = %v, want UNSUPPORTED", err)
	}
}

func TestToPNGScale(t *testing.T) {
	for _, scale := range []float64{0, -1, math.NaN(), math.Inf(1)} {
		if _, err := ToPNG([]byte("<svg/>"), scale); !errors.Is(err, errors.ErrCodeInvalidInput) {
			t.Errorf("ToPNG(scale=%v) error = %v, want INVALID_INPUT", scale, err)
		}
	}
}
