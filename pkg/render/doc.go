// Package render converts rendered reef diagrams between output formats.
//
// Diagrams are produced as SVG by the [nodelink] subpackage. [ToPDF] and
// [ToPNG] convert any SVG using the external rsvg-convert tool from librsvg:
//
//	svg, err := nodelink.RenderSVG(dot)
//	pdf, err := render.ToPDF(svg)
//	png, err := render.ToPNG(svg, 2.0)  // 2x scale
//
// [nodelink]: github.com/matzehuels/reefrank/pkg/render/nodelink
package render
