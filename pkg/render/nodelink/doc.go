// Package nodelink renders reef connectivity networks as node-link diagrams.
//
// # Overview
//
// Each site becomes a node and each retained connectivity entry becomes an
// arrow from source to sink site. Arrow width scales with the larval
// transition probability. The arrow from a site's strongest predecessor is
// drawn in red, so the chains the predecessor priority criterion follows are
// visible at a glance.
//
// # Usage
//
//	dot := nodelink.ToDOT(d, nodelink.Options{Detailed: true})
//	svg, err := nodelink.RenderSVG(dot)
//
// For PDF or PNG output:
//
//	pdf, err := nodelink.RenderPDF(dot)
//	png, err := nodelink.RenderPNG(dot, 2.0)
//
// # Options
//
//   - Detailed: node labels carry in/out centrality and edges their weight
//   - Seeded, Shaded: site indices to highlight, typically a replicate's
//     selections from [mcda.Result.Selected]
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering. PDF and PNG conversion requires librsvg (rsvg-convert).
//
// [mcda.Result.Selected]: github.com/matzehuels/reefrank/pkg/mcda#Result.Selected
package nodelink
