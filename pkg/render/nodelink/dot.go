package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/reefrank/pkg/connectivity"
	"github.com/matzehuels/reefrank/pkg/domain"
	"github.com/matzehuels/reefrank/pkg/render"
)

// Options configures node-link diagram rendering.
type Options struct {
	// Detailed adds centrality values to node labels and weights to edges.
	Detailed bool

	// Seeded and Shaded are site indices to highlight.
	Seeded []int
	Shaded []int
}

const (
	seedFill  = "palegreen"
	shadeFill = "lightskyblue"
	bothFill  = "khaki"
)

// ToDOT converts a domain's connectivity network to Graphviz DOT.
func ToDOT(d *domain.Domain, opts Options) string {
	cent := d.Centrality()
	ids := d.SiteIDs()

	fill := make(map[int]string)
	for _, i := range opts.Seeded {
		fill[i] = seedFill
	}
	for _, i := range opts.Shaded {
		if fill[i] == seedFill {
			fill[i] = bothFill
		} else {
			fill[i] = shadeFill
		}
	}

	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=ellipse, style=filled, fillcolor=white, fontsize=14];\n")
	buf.WriteString("  edge [arrowsize=0.6];\n")
	buf.WriteString("\n")

	for i, id := range ids {
		attrs := []string{fmt.Sprintf("label=%q", nodeLabel(id, cent, i, opts.Detailed))}
		if c, ok := fill[i]; ok {
			attrs = append(attrs, "fillcolor="+c)
		}
		if d.Site(i).Priority {
			attrs = append(attrs, "penwidth=2.5")
		}
		fmt.Fprintf(&buf, "  %q [%s];\n", id, strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, e := range d.Connectivity().Edges() {
		attrs := []string{"penwidth=" + strconv.FormatFloat(edgeWidth(e.Weight), 'f', 2, 64)}
		if cent.Predecessor[e.To] == e.From {
			attrs = append(attrs, "color=red")
		}
		if opts.Detailed {
			attrs = append(attrs, fmt.Sprintf("label=%q", strconv.FormatFloat(e.Weight, 'g', 3, 64)))
		}
		fmt.Fprintf(&buf, "  %q -> %q [%s];\n", ids[e.From], ids[e.To], strings.Join(attrs, ", "))
	}

	buf.WriteString("}\n")
	return buf.String()
}

func nodeLabel(id string, c connectivity.Centrality, i int, detailed bool) string {
	if !detailed {
		return id
	}
	return fmt.Sprintf("%s\nin: %.3f\nout: %.3f", id, c.In[i], c.Out[i])
}

// edgeWidth maps a transition probability in (0,1] to a pen width in
// [0.5,5].
func edgeWidth(p float64) float64 {
	return 0.5 + 4.5*p
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(dot string) ([]byte, error) {
	ctx := context.Background()
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox rewrites the root element so the diagram scales to its
// container instead of Graphviz's point-based size.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	root := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(root))
}

// RenderPDF renders a DOT graph as PDF via SVG conversion.
func RenderPDF(dot string) ([]byte, error) {
	svg, err := RenderSVG(dot)
	if err != nil {
		return nil, err
	}
	return render.ToPDF(svg)
}

// RenderPNG renders a DOT graph as PNG via SVG conversion.
func RenderPNG(dot string, scale float64) ([]byte, error) {
	svg, err := RenderSVG(dot)
	if err != nil {
		return nil, err
	}
	return render.ToPNG(svg, scale)
}
