package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/reefrank/pkg/errors"
	"github.com/matzehuels/reefrank/pkg/seeding"
)

// allocateCommand splits the scenario's seeded area over named sites.
func (c *CLI) allocateCommand() *cobra.Command {
	var (
		scenarioPath string
		sites        []string
	)

	cmd := &cobra.Command{
		Use:   "allocate <domain.json> --sites a,b,c",
		Short: "Allocate seeded coral area over chosen sites",
		Long: `Allocate splits the scenario's seeded area of every coral type over the
given sites in proportion to their available space (carrying capacity minus
current cover).`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			sc, err := loadScenario(scenarioPath)
			if err != nil {
				return err
			}
			runner, err := c.newRunner(ctx, false)
			if err != nil {
				return err
			}
			defer runner.Cache.Close()

			d, err := loadDomain(ctx, runner, args[0])
			if err != nil {
				return err
			}
			selected := make([]int, len(sites))
			for i, id := range sites {
				idx, ok := d.SiteIndex(id)
				if !ok {
					return errors.New(errors.ErrCodeNotFound, "site %q is not in domain %s", id, d.Name())
				}
				selected[i] = idx
			}
			seeded, err := sc.SeededVector(d.CoralTypes())
			if err != nil {
				return err
			}

			a, err := seeding.Allocate(d.Area(), selected, d.AvailableSeedSpace(), seeded)
			if err != nil {
				return err
			}
			if err := a.WithTypes(d.CoralTypes()); err != nil {
				return err
			}
			printAllocation(a, sites)
			return nil
		},
	}

	cmd.Flags().StringVarP(&scenarioPath, "scenario", "s", "", "scenario TOML file with seeded_area")
	cmd.Flags().StringSliceVar(&sites, "sites", nil, "site IDs to seed, comma-separated")
	_ = cmd.MarkFlagRequired("sites")
	_ = cmd.RegisterFlagCompletionFunc("scenario", completeScenarioFile)
	cmd.ValidArgsFunction = completeDomainFile
	return cmd
}

func printAllocation(a *seeding.Allocation, ids []string) {
	headers := append([]string{"Site"}, a.Types...)
	headers = append(headers, "Total m²")
	rows := make([][]string, len(a.Sites))
	for i := range a.Sites {
		row := []string{ids[i]}
		for _, area := range a.Areas[i] {
			row = append(row, fmtFloat(area, 1))
		}
		rows[i] = append(row, fmtFloat(a.SiteArea(i), 1))
	}
	fmt.Println(renderTable(headers, rows, len(headers)-1, -1))
}
