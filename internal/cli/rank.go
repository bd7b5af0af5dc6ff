package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	reefio "github.com/matzehuels/reefrank/pkg/io"
	"github.com/matzehuels/reefrank/pkg/mcda"
	"github.com/matzehuels/reefrank/pkg/pipeline"
)

// rankOpts holds the command-line flags for the rank command.
type rankOpts struct {
	scenario        string        // scenario TOML path
	output          string        // result JSON path
	workers         int           // concurrent replicates (0: config, then GOMAXPROCS)
	timeout         time.Duration // run timeout
	allocate        bool          // compute seeding allocations
	continueOnError bool          // record failing replicates instead of aborting
	save            bool          // persist the run in the store
	interactive     bool          // browse ranks in a TUI
	noCache         bool
}

// rankCommand ranks every replicate of a domain under a scenario.
func (c *CLI) rankCommand() *cobra.Command {
	var opts rankOpts

	cmd := &cobra.Command{
		Use:   "rank <domain.json>",
		Short: "Rank seeding and shading sites for every replicate",
		Long: `Rank ranks candidate sites for seeding and shading at every selected
timestep and replicate of a domain, using the MCDA algorithm and weights of a
scenario file. Without --scenario the default scenario is used.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runRank(cmd, args[0], opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.scenario, "scenario", "s", "", "scenario TOML file")
	f.StringVarP(&opts.output, "output", "o", "", "write the result as JSON to this file")
	f.IntVarP(&opts.workers, "workers", "w", 0, "replicates ranked concurrently")
	f.DurationVar(&opts.timeout, "timeout", 0, "abort the run after this long")
	f.BoolVar(&opts.allocate, "allocate", false, "allocate seeded coral area over the seeding sites")
	f.BoolVar(&opts.continueOnError, "continue-on-error", false, "record failing replicates instead of aborting")
	f.BoolVar(&opts.save, "save", false, "save the run to the run store")
	f.BoolVarP(&opts.interactive, "interactive", "i", false, "browse the ranks interactively")
	f.BoolVar(&opts.noCache, "no-cache", false, "disable the centrality and run cache")
	_ = cmd.RegisterFlagCompletionFunc("scenario", completeScenarioFile)
	cmd.ValidArgsFunction = completeDomainFile
	return cmd
}

func (c *CLI) runRank(cmd *cobra.Command, path string, opts rankOpts) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)

	sc, err := loadScenario(opts.scenario)
	if err != nil {
		return err
	}
	runner, err := c.newRunner(ctx, opts.noCache)
	if err != nil {
		return err
	}
	defer runner.Cache.Close()

	d, err := loadDomain(ctx, runner, path)
	if err != nil {
		return err
	}

	workers := opts.workers
	if workers == 0 {
		workers = c.Config.Workers
	}

	var spinner *Spinner
	if !opts.interactive && isatty.IsTerminal(os.Stderr.Fd()) {
		spinner = newSpinnerWithContext(ctx, fmt.Sprintf("Ranking %s", d.Name()))
		spinner.Start()
	}
	prog := newProgress(logger)
	res, err := runner.Run(ctx, d, sc, pipeline.Options{
		Workers:         workers,
		ContinueOnError: opts.continueOnError,
		Timeout:         opts.timeout,
		Allocate:        opts.allocate,
	})
	if err != nil {
		if spinner != nil {
			spinner.StopWithError("Ranking failed")
		}
		return err
	}
	if spinner != nil {
		spinner.Stop()
	}
	prog.done("ranked replicates", "run", res.RunID, "jobs", res.Stats.Jobs)

	if opts.save {
		st, err := c.openStore(ctx)
		if err != nil {
			return fmt.Errorf("open run store: %w", err)
		}
		defer st.Close()
		if err := st.SaveRun(ctx, res); err != nil {
			return err
		}
	}
	if opts.output != "" {
		if err := reefio.ExportResult(res, opts.output); err != nil {
			return err
		}
	}

	if opts.interactive {
		return browseRanks(res)
	}
	printRunSummary(res)
	if opts.output != "" {
		printFile(opts.output)
	}
	if opts.save {
		printNextStep("Inspect later", "reefrank runs show "+res.RunID)
	}
	return nil
}

// printRunSummary prints run metadata and how often each site was picked
// in the first selected timestep.
func printRunSummary(res *pipeline.Result) {
	printSuccess("Ranked %s with %s", res.Domain, res.Algorithm)
	printRunStats(res.Stats.Jobs, res.Stats.Failed, res.Stats.Duration)
	printKeyValue("Run", res.RunID)
	if res.Scenario != nil {
		printKeyValue("Scenario", res.Scenario.Name)
	}
	for _, rep := range res.Failed() {
		printWarning("timestep %d replicate %d: %s", rep.Timestep, rep.Replicate, rep.Error)
	}
	if len(res.Timesteps) == 0 {
		return
	}

	seed := res.SelectionFrequency(0, mcda.Seeding)
	shade := res.SelectionFrequency(0, mcda.Shading)
	var rows [][]string
	for i, id := range res.SiteIDs {
		if seed[i] == 0 && shade[i] == 0 {
			continue
		}
		rows = append(rows, []string{id, fmtFloat(seed[i], 2), fmtFloat(shade[i], 2)})
	}
	fmt.Println()
	fmt.Println(StyleTitle.Render(fmt.Sprintf("Selection frequency, timestep %d", res.Timesteps[0])))
	if len(rows) == 0 {
		printInfo("No site was selected")
		return
	}
	fmt.Println(renderTable([]string{"Site", "Seed", "Shade"}, rows, 1, 2))
}
