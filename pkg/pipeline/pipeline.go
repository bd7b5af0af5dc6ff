// Package pipeline ranks every (timestep, replicate) pair of a scenario over
// a reef domain.
//
// This package is shared by the CLI and the API server so both entry points
// apply the same validation, caching and worker limits.
//
// # Stages
//
// For each timestep and replicate the pipeline:
//
//  1. builds the decision matrix from the domain's projections
//  2. derives the seeding variant and ranks seeding sites
//  3. ranks shading sites on top of the seeding ranks
//  4. optionally allocates the scenario's seeded coral area over the
//     selected seeding sites
//
// Scenario problems are reported before any replicate runs. Replicates are
// independent and run on a bounded worker pool; each worker writes only its
// own result slot.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	d, err := runner.LoadDomain(ctx, inputs)
//	if err != nil {
//	    return err
//	}
//	res, err := runner.Run(ctx, d, sc, pipeline.Options{Workers: 4, Allocate: true})
//	ranks := res.RankArray(0)
package pipeline

import (
	"runtime"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/reefrank/pkg/errors"
	"github.com/matzehuels/reefrank/pkg/mcda"
	"github.com/matzehuels/reefrank/pkg/scenario"
	"github.com/matzehuels/reefrank/pkg/seeding"
)

// =============================================================================
// Options
// =============================================================================

// Options control how a run is executed. They never change its results.
type Options struct {
	// Workers bounds the number of replicates ranked concurrently.
	// Defaults to GOMAXPROCS.
	Workers int `json:"workers,omitempty"`

	// ContinueOnError records a failing replicate's error in its slot
	// instead of aborting the run.
	ContinueOnError bool `json:"continue_on_error,omitempty"`

	// Timeout bounds the whole run. Zero means no limit.
	Timeout time.Duration `json:"timeout,omitempty"`

	// Allocate computes the seeding area allocation for every replicate.
	Allocate bool `json:"allocate,omitempty"`

	// Logger overrides the runner's logger for this run.
	Logger *log.Logger `json:"-"`
}

// ValidateAndSetDefaults checks the options and fills in defaults.
func (o *Options) ValidateAndSetDefaults() error {
	if o.Workers < 0 {
		return errors.Config("workers must be >= 0, got %d", o.Workers)
	}
	if o.Timeout < 0 {
		return errors.Config("timeout must be >= 0, got %s", o.Timeout)
	}
	if o.Workers == 0 {
		o.Workers = runtime.GOMAXPROCS(0)
	}
	return nil
}

// =============================================================================
// Results
// =============================================================================

// Replicate is the outcome of one (timestep, replicate) pair.
type Replicate struct {
	Timestep   int                 `json:"timestep"`
	Replicate  int                 `json:"replicate"`
	Ranks      *mcda.Result        `json:"ranks,omitempty"`
	Allocation *seeding.Allocation `json:"allocation,omitempty"`

	// Error is set when the replicate failed under ContinueOnError.
	Error string `json:"error,omitempty"`
}

// Stats summarizes a run.
type Stats struct {
	Duration time.Duration `json:"duration"`
	Jobs     int           `json:"jobs"`
	Failed   int           `json:"failed"`
}

// Result holds every replicate of a run, indexed [timestep][replicate] where
// the timestep index refers to Timesteps.
type Result struct {
	RunID      string             `json:"run_id"`
	Domain     string             `json:"domain"`
	Scenario   *scenario.Scenario `json:"scenario"`
	Algorithm  string             `json:"algorithm"`
	SiteIDs    []string           `json:"site_ids"`
	Timesteps  []int              `json:"timesteps"`
	Replicates int                `json:"replicates"`
	Slots      [][]*Replicate     `json:"slots"`
	Stats      Stats              `json:"stats"`
	CreatedAt  time.Time          `json:"created_at"`
}

// RankArray returns the ranks of timestep index ti as
// [replicate][site]{site, seed, shade}. Failed replicates are nil.
func (r *Result) RankArray(ti int) [][][3]int {
	out := make([][][3]int, len(r.Slots[ti]))
	for i, rep := range r.Slots[ti] {
		if rep != nil && rep.Ranks != nil {
			out[i] = rep.Ranks.Array()
		}
	}
	return out
}

// SelectionFrequency returns, for timestep index ti, the fraction of
// successful replicates in which each site was picked for iv.
func (r *Result) SelectionFrequency(ti int, iv mcda.Intervention) []float64 {
	freq := make([]float64, len(r.SiteIDs))
	var n int
	for _, rep := range r.Slots[ti] {
		if rep == nil || rep.Ranks == nil {
			continue
		}
		n++
		for _, s := range rep.Ranks.Selected(iv) {
			freq[s]++
		}
	}
	if n == 0 {
		return freq
	}
	for i := range freq {
		freq[i] /= float64(n)
	}
	return freq
}

// Failed returns the replicates that recorded an error.
func (r *Result) Failed() []*Replicate {
	var out []*Replicate
	for _, reps := range r.Slots {
		for _, rep := range reps {
			if rep != nil && rep.Error != "" {
				out = append(out, rep)
			}
		}
	}
	return out
}
