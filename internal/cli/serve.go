package cli

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/reefrank/internal/server"
	"github.com/matzehuels/reefrank/pkg/observability"
	"github.com/matzehuels/reefrank/pkg/store"
)

// serveOpts holds the command-line flags for the serve command.
type serveOpts struct {
	port       int
	scenario   string
	watch      bool
	noStore    bool
	runTimeout time.Duration
}

// serveCommand runs the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var opts serveOpts

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the ranking API over HTTP",
		Long: `Serve exposes centrality, ranking and allocation over HTTP, stores ranked
runs and publishes Prometheus metrics on /metrics. With --watch the default
scenario is reloaded whenever its file changes.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd, opts)
		},
	}

	f := cmd.Flags()
	f.IntVarP(&opts.port, "port", "p", 0, "listen port (default from config, 8080)")
	f.StringVarP(&opts.scenario, "scenario", "s", "", "default scenario TOML file")
	f.BoolVar(&opts.watch, "watch", false, "reload the scenario file when it changes")
	f.BoolVar(&opts.noStore, "no-store", false, "do not persist ranked runs")
	f.DurationVar(&opts.runTimeout, "run-timeout", 5*time.Minute, "abort a single rank request after this long")
	_ = cmd.RegisterFlagCompletionFunc("scenario", completeScenarioFile)
	return cmd
}

func (c *CLI) runServe(cmd *cobra.Command, opts serveOpts) error {
	ctx := cmd.Context()
	if opts.watch && opts.scenario == "" {
		return fmt.Errorf("--watch requires --scenario")
	}

	sc, err := loadScenario(opts.scenario)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	hooks := observability.NewPrometheusHooks(reg)
	observability.SetPipelineHooks(hooks)
	observability.SetCacheHooks(hooks)
	observability.SetHTTPHooks(hooks)
	defer observability.Reset()

	runner, err := c.newRunner(ctx, false)
	if err != nil {
		return err
	}
	defer runner.Cache.Close()

	var st store.Store
	if !opts.noStore {
		if st, err = c.openStore(ctx); err != nil {
			return fmt.Errorf("open run store: %w", err)
		}
		defer st.Close()
	}

	port := opts.port
	if port == 0 {
		port = c.Config.Server.Port
	}
	srv := server.New(server.Config{
		Addr:       fmt.Sprintf(":%d", port),
		Runner:     runner,
		Logger:     c.Logger,
		Store:      st,
		Gatherer:   reg,
		Scenario:   sc,
		Workers:    c.Config.Workers,
		RunTimeout: opts.runTimeout,
	})

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.ListenAndServe(ctx) })
	if opts.watch {
		g.Go(func() error { return srv.WatchScenario(ctx, opts.scenario) })
	}
	return g.Wait()
}
