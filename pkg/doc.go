// Package pkg holds the reefrank libraries for ranking reef sites for coral
// restoration interventions.
//
// # Overview
//
// Reefrank picks the sites where seeding heat-tolerant corals or shading
// reefs does the most good. Sites are scored on larval connectivity,
// projected wave and heat stress, coral cover, depth, priority zones and
// the sites that supply priority reefs. The pkg directory is organized as:
//
//  1. [connectivity] - connectivity matrix, centrality, strongest predecessors
//  2. [domain] - the immutable reef domain and its derived criteria
//  3. [decision] - per-replicate decision matrices
//  4. [mcda] - ranking algorithms (order ranking, TOPSIS, VIKOR)
//  5. [seeding] - seeded area allocation over chosen sites
//  6. [scenario] - TOML ranking scenarios
//  7. [pipeline] - concurrent ranking over timesteps and replicates
//  8. [cache], [store] - centrality cache and saved runs
//  9. [io], [render] - JSON documents and network diagrams
//
// # Data Flow
//
//	domain JSON
//	     ↓
//	[io] → [domain] (centrality via [connectivity], cached in [cache])
//	     ↓
//	[pipeline] per (timestep, replicate):
//	     [decision] matrix → [mcda] ranks → [seeding] allocation
//	     ↓
//	result JSON, [store], [render]
//
// # Quick Start
//
//	in, _ := io.ImportDomain("examples/moore.json")
//	runner := pipeline.NewRunner(nil, nil, log.Default())
//	d, _ := runner.LoadDomain(ctx, in)
//	sc, _ := scenario.Load("examples/balanced.toml")
//	res, _ := runner.Run(ctx, d, sc, pipeline.Options{Allocate: true})
//	freq := res.SelectionFrequency(0, mcda.Seeding)
//
// Every package reports bad input with the codes of [errors]: INVALID_DATA
// for malformed data and INVALID_CONFIG for a bad scenario.
//
// [connectivity]: https://pkg.go.dev/github.com/matzehuels/reefrank/pkg/connectivity
// [domain]: https://pkg.go.dev/github.com/matzehuels/reefrank/pkg/domain
// [decision]: https://pkg.go.dev/github.com/matzehuels/reefrank/pkg/decision
// [mcda]: https://pkg.go.dev/github.com/matzehuels/reefrank/pkg/mcda
// [seeding]: https://pkg.go.dev/github.com/matzehuels/reefrank/pkg/seeding
// [scenario]: https://pkg.go.dev/github.com/matzehuels/reefrank/pkg/scenario
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/reefrank/pkg/pipeline
// [cache]: https://pkg.go.dev/github.com/matzehuels/reefrank/pkg/cache
// [store]: https://pkg.go.dev/github.com/matzehuels/reefrank/pkg/store
// [io]: https://pkg.go.dev/github.com/matzehuels/reefrank/pkg/io
// [render]: https://pkg.go.dev/github.com/matzehuels/reefrank/pkg/render
// [errors]: https://pkg.go.dev/github.com/matzehuels/reefrank/pkg/errors
package pkg
