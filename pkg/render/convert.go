package render

import (
	"bytes"
	"context"
	"math"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/matzehuels/reefrank/pkg/errors"
)

// convertTimeout bounds one rsvg-convert call. Large reef networks render
// in well under a second.
const convertTimeout = time.Minute

// ToPDF converts SVG bytes to PDF using rsvg-convert.
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func ToPDF(svg []byte) ([]byte, error) {
	return rsvgConvert(svg, "pdf")
}

// ToPNG converts SVG bytes to PNG. scale multiplies the SVG's size and must
// be positive.
func ToPNG(svg []byte, scale float64) ([]byte, error) {
	if !(scale > 0) || math.IsInf(scale, 0) {
		return nil, errors.New(errors.ErrCodeInvalidInput, "png scale %v must be a positive number", scale)
	}
	return rsvgConvert(svg, "png", "-z", strconv.FormatFloat(scale, 'f', 2, 64))
}

var lookPath = exec.LookPath

func rsvgConvert(svg []byte, format string, extraArgs ...string) ([]byte, error) {
	bin, err := lookPath("rsvg-convert")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeUnsupported, err,
			"%s export requires librsvg (macOS: brew install librsvg, Linux: apt install librsvg2-bin)", format)
	}

	ctx, cancel := context.WithTimeout(context.Background(), convertTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, bin, append([]string{"-f", format}, extraArgs...)...)
	cmd.Stdin = bytes.NewReader(svg)
	var out, stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "rsvg-convert %s: %s", format, strings.TrimSpace(stderr.String()))
	}
	return out.Bytes(), nil
}
