package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/reefrank/pkg/errors"
	"github.com/matzehuels/reefrank/pkg/mcda"
	"github.com/matzehuels/reefrank/pkg/render/nodelink"
)

// graphOpts holds the command-line flags for the graph command.
type graphOpts struct {
	output    string  // output path; the extension picks the format
	detailed  bool    // centrality in labels, weights on edges
	run       string  // saved run whose selections are highlighted
	timestep  int     // timestep index into the run
	replicate int     // replicate of the run
	scale     float64 // PNG scale
}

// graphCommand renders the connectivity network of a domain.
func (c *CLI) graphCommand() *cobra.Command {
	opts := graphOpts{scale: 2}

	cmd := &cobra.Command{
		Use:   "graph <domain.json>",
		Short: "Render the connectivity network as DOT, SVG, PDF or PNG",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			runner, err := c.newRunner(ctx, false)
			if err != nil {
				return err
			}
			defer runner.Cache.Close()

			d, err := loadDomain(ctx, runner, args[0])
			if err != nil {
				return err
			}

			nlOpts := nodelink.Options{Detailed: opts.detailed}
			if opts.run != "" {
				st, err := c.openStore(ctx)
				if err != nil {
					return err
				}
				defer st.Close()
				res, err := st.GetRun(ctx, opts.run)
				if err != nil {
					return err
				}
				if opts.timestep < 0 || opts.timestep >= len(res.Slots) ||
					opts.replicate < 0 || opts.replicate >= len(res.Slots[opts.timestep]) {
					return errors.New(errors.ErrCodeInvalidInput, "run %s has no timestep index %d replicate %d",
						opts.run, opts.timestep, opts.replicate)
				}
				rep := res.Slots[opts.timestep][opts.replicate]
				if rep == nil || rep.Ranks == nil {
					return errors.New(errors.ErrCodeInvalidInput, "replicate %d of run %s failed", opts.replicate, opts.run)
				}
				nlOpts.Seeded = rep.Ranks.Selected(mcda.Seeding)
				nlOpts.Shaded = rep.Ranks.Selected(mcda.Shading)
			}

			output := opts.output
			if output == "" {
				output = d.Name() + ".svg"
			}
			data, err := renderGraph(nodelink.ToDOT(d, nlOpts), output, opts.scale)
			if err != nil {
				return err
			}
			if err := os.WriteFile(output, data, 0o644); err != nil {
				return err
			}
			printSuccess("Rendered %s", d.Name())
			printFile(output)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.output, "output", "o", "", "output file: .dot, .svg, .pdf or .png (default <domain>.svg)")
	f.BoolVar(&opts.detailed, "detailed", false, "show centrality and edge weights")
	f.StringVar(&opts.run, "run", "", "highlight the selections of a saved run")
	f.IntVar(&opts.timestep, "timestep", 0, "timestep index of --run")
	f.IntVar(&opts.replicate, "replicate", 0, "replicate of --run")
	f.Float64Var(&opts.scale, "scale", opts.scale, "PNG scale factor")
	cmd.ValidArgsFunction = completeDomainFile
	return cmd
}

func renderGraph(dot, output string, scale float64) ([]byte, error) {
	switch ext := strings.ToLower(filepath.Ext(output)); ext {
	case ".dot", ".gv":
		return []byte(dot), nil
	case ".svg":
		return nodelink.RenderSVG(dot)
	case ".pdf":
		return nodelink.RenderPDF(dot)
	case ".png":
		return nodelink.RenderPNG(dot, scale)
	default:
		return nil, fmt.Errorf("unsupported output format %q (want .dot, .svg, .pdf or .png)", ext)
	}
}
