package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/reefrank/pkg/connectivity"
)

type centralityOpts struct {
	noCache bool
	json    bool
}

// centralityCommand prints in/out centrality and the strongest predecessor
// of every site.
func (c *CLI) centralityCommand() *cobra.Command {
	var opts centralityOpts

	cmd := &cobra.Command{
		Use:   "centrality <domain.json>",
		Short: "Compute connectivity centrality and strongest predecessors",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			runner, err := c.newRunner(ctx, opts.noCache)
			if err != nil {
				return err
			}
			defer runner.Cache.Close()

			d, err := loadDomain(ctx, runner, args[0])
			if err != nil {
				return err
			}
			cent := d.Centrality()
			ids := d.SiteIDs()

			if opts.json {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(struct {
					SiteIDs []string `json:"site_ids"`
					connectivity.Centrality
				}{ids, cent})
			}

			rows := make([][]string, len(ids))
			for i, id := range ids {
				pred := "-"
				if p := cent.Predecessor[i]; p != connectivity.NoPredecessor {
					pred = ids[p]
				}
				rows[i] = []string{id, fmtFloat(cent.In[i], 4), fmtFloat(cent.Out[i], 4), pred}
			}
			fmt.Println(StyleTitle.Render(d.Name()))
			fmt.Println(renderTable([]string{"Site", "In", "Out", "Predecessor"}, rows, -1, -1))
			printDetail("%d sites, %d edges above cutoff %g", d.N(), len(d.Connectivity().Edges()), d.Connectivity().Cutoff())
			return nil
		},
	}

	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "recompute centrality instead of using the cache")
	cmd.Flags().BoolVar(&opts.json, "json", false, "print JSON instead of a table")
	cmd.ValidArgsFunction = completeDomainFile
	return cmd
}
