package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	reefio "github.com/matzehuels/reefrank/pkg/io"
)

// runsCommand inspects runs saved with "rank --save".
func (c *CLI) runsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List, show and delete saved runs",
	}
	cmd.AddCommand(c.runsListCommand())
	cmd.AddCommand(c.runsShowCommand())
	cmd.AddCommand(c.runsDeleteCommand())
	return cmd
}

func (c *CLI) runsListCommand() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List saved runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, err := c.openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			runs, err := st.ListRuns(ctx, limit)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				printInfo("No saved runs")
				printNextStep("Save one with", "reefrank rank <domain.json> --save")
				return nil
			}
			rows := make([][]string, len(runs))
			for i, r := range runs {
				rows[i] = []string{
					r.ID, r.Domain, r.Scenario, r.Algorithm,
					strconv.Itoa(r.Jobs), strconv.Itoa(r.Failed),
					r.CreatedAt.Local().Format("2006-01-02 15:04"),
				}
			}
			fmt.Println(renderTable([]string{"Run", "Domain", "Scenario", "Algorithm", "Jobs", "Failed", "Created"}, rows, -1, -1))
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum runs to list (0 for all)")
	return cmd
}

func (c *CLI) runsShowCommand() *cobra.Command {
	var (
		output      string
		interactive bool
	)
	cmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show a saved run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, err := c.openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			res, err := st.GetRun(ctx, args[0])
			if err != nil {
				return err
			}
			if output != "" {
				if err := reefio.ExportResult(res, output); err != nil {
					return err
				}
				printFile(output)
				return nil
			}
			if interactive {
				return browseRanks(res)
			}
			printRunSummary(res)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "export the run as JSON to this file")
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "browse the ranks interactively")
	cmd.ValidArgsFunction = c.completeRunID
	return cmd
}

func (c *CLI) runsDeleteCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <run-id>",
		Short: "Delete a saved run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, err := c.openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()
			if err := st.DeleteRun(ctx, args[0]); err != nil {
				return err
			}
			printSuccess("Deleted run %s", args[0])
			return nil
		},
	}
	cmd.ValidArgsFunction = c.completeRunID
	return cmd
}
