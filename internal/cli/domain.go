package cli

import (
	"context"

	"github.com/matzehuels/reefrank/pkg/domain"
	reefio "github.com/matzehuels/reefrank/pkg/io"
	"github.com/matzehuels/reefrank/pkg/pipeline"
	"github.com/matzehuels/reefrank/pkg/scenario"
)

// loadDomain reads a domain document and builds it through runner so
// centrality comes from the cache when possible.
func loadDomain(ctx context.Context, runner *pipeline.Runner, path string) (*domain.Domain, error) {
	in, err := reefio.ImportDomain(path)
	if err != nil {
		return nil, err
	}
	return runner.LoadDomain(ctx, in)
}

// loadScenario reads the scenario at path, or returns the default scenario
// when path is empty.
func loadScenario(path string) (*scenario.Scenario, error) {
	if path == "" {
		return scenario.Default(), nil
	}
	return scenario.Load(path)
}
