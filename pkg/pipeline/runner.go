package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/reefrank/pkg/cache"
	"github.com/matzehuels/reefrank/pkg/decision"
	"github.com/matzehuels/reefrank/pkg/domain"
	"github.com/matzehuels/reefrank/pkg/errors"
	"github.com/matzehuels/reefrank/pkg/mcda"
	"github.com/matzehuels/reefrank/pkg/observability"
	"github.com/matzehuels/reefrank/pkg/scenario"
	"github.com/matzehuels/reefrank/pkg/seeding"
)

// Runner executes ranking runs with caching.
// Both CLI and API use it to avoid duplicating the replicate loop.
//
// The Runner is stateless except for the cache and logger, so one Runner
// can serve concurrent runs.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// LoadDomain builds a domain, reusing cached centrality when the
// connectivity matrix has been seen before.
func (r *Runner) LoadDomain(ctx context.Context, in domain.Inputs) (*domain.Domain, error) {
	start := time.Now()
	d, err := domain.Load(ctx, in, r.Cache, r.Keyer)
	if err != nil {
		return nil, err
	}
	r.Logger.Info("loaded domain",
		"name", d.Name(),
		"sites", d.N(),
		"timesteps", d.Timesteps(),
		"replicates", d.Replicates(),
		"duration", time.Since(start))
	return d, nil
}

// plan is the validated, replicate-independent part of a run.
type plan struct {
	alg       mcda.Algorithm
	exclude   []bool
	seeded    []float64
	timesteps []int
	reps      int
	distances bool
}

func (r *Runner) plan(d *domain.Domain, sc *scenario.Scenario) (*plan, error) {
	if sc == nil {
		return nil, errors.Config("no scenario")
	}
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	p := &plan{}
	var err error
	if p.alg, err = sc.MCDA(); err != nil {
		return nil, err
	}
	if p.exclude, err = d.DepthExclusion(sc.DepthMin, sc.DepthOffset); err != nil {
		return nil, err
	}
	if p.seeded, err = sc.SeededVector(d.CoralTypes()); err != nil {
		return nil, err
	}
	if sc.MinDistance > 0 {
		if d.Distances() == nil {
			return nil, errors.Config("min_distance is set but the domain has no distance matrix")
		}
		p.distances = true
	}

	p.timesteps = sc.Timesteps
	if len(p.timesteps) == 0 {
		p.timesteps = make([]int, d.Timesteps())
		for i := range p.timesteps {
			p.timesteps[i] = i
		}
	}
	for _, t := range p.timesteps {
		if t < 0 || t >= d.Timesteps() {
			return nil, errors.Config("timestep %d outside the domain's %d timesteps", t, d.Timesteps())
		}
	}
	p.reps = d.Replicates()
	if sc.Replicates > 0 {
		if sc.Replicates > p.reps {
			return nil, errors.Config("scenario asks for %d replicates, domain has %d", sc.Replicates, p.reps)
		}
		p.reps = sc.Replicates
	}
	return p, nil
}

// Run ranks every selected (timestep, replicate) pair of sc over d.
//
// Scenario errors are returned before any replicate runs. A replicate error
// aborts the run unless opts.ContinueOnError is set. Cancelling ctx stops
// scheduling new replicates and returns the context error.
func (r *Runner) Run(ctx context.Context, d *domain.Domain, sc *scenario.Scenario, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	logger := r.Logger
	if opts.Logger != nil {
		logger = opts.Logger
	}
	p, err := r.plan(d, sc)
	if err != nil {
		return nil, err
	}
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	res := &Result{
		RunID:      uuid.NewString(),
		Domain:     d.Name(),
		Scenario:   sc,
		Algorithm:  p.alg.String(),
		SiteIDs:    d.SiteIDs(),
		Timesteps:  p.timesteps,
		Replicates: p.reps,
		Slots:      make([][]*Replicate, len(p.timesteps)),
		CreatedAt:  time.Now().UTC(),
	}
	for i := range res.Slots {
		res.Slots[i] = make([]*Replicate, p.reps)
	}
	res.Stats.Jobs = len(p.timesteps) * p.reps

	start := time.Now()
	observability.Pipeline().OnRunStart(ctx, res.RunID, res.Stats.Jobs)
	logger.Debug("starting run",
		"run", res.RunID,
		"algorithm", res.Algorithm,
		"jobs", res.Stats.Jobs,
		"workers", opts.Workers)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Workers)
	for ti, t := range p.timesteps {
		for rep := 0; rep < p.reps; rep++ {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				repStart := time.Now()
				out, err := RankReplicate(d, sc, p.alg, p.exclude, t, rep, p.seeded, opts.Allocate)
				observability.Pipeline().OnReplicateComplete(gctx, t, rep, time.Since(repStart), err)
				if err != nil {
					if opts.ContinueOnError && !errors.Is(err, errors.ErrCodeInvalidConfig) {
						logger.Warn("replicate failed", "timestep", t, "replicate", rep, "error", err)
						res.Slots[ti][rep] = &Replicate{Timestep: t, Replicate: rep, Error: err.Error()}
						return nil
					}
					return fmt.Errorf("timestep %d replicate %d: %w", t, rep, err)
				}
				res.Slots[ti][rep] = out
				return nil
			})
		}
	}
	err = g.Wait()
	res.Stats.Duration = time.Since(start)
	observability.Pipeline().OnRunComplete(ctx, res.RunID, res.Stats.Duration, err)
	if err != nil {
		return nil, err
	}
	res.Stats.Failed = len(res.Failed())

	logger.Info("ranked replicates",
		"run", res.RunID,
		"jobs", res.Stats.Jobs,
		"failed", res.Stats.Failed,
		"duration", res.Stats.Duration)

	if data, err := json.Marshal(res); err == nil {
		key := r.Keyer.RunKey(res.RunID)
		if err := r.Cache.Set(ctx, key, data, cache.TTLRun); err == nil {
			observability.Cache().OnCacheSet(ctx, "run", len(data))
		}
	}
	return res, nil
}

// CachedRun returns a recent run by ID from the cache.
func (r *Runner) CachedRun(ctx context.Context, runID string) (*Result, bool, error) {
	data, hit, err := r.Cache.Get(ctx, r.Keyer.RunKey(runID))
	if err != nil || !hit {
		observability.Cache().OnCacheMiss(ctx, "run")
		return nil, false, err
	}
	var res Result
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, false, nil
	}
	observability.Cache().OnCacheHit(ctx, "run")
	return &res, true, nil
}

// RankReplicate ranks seeding and shading sites for timestep t and replicate
// rep. exclude masks sites that must not be picked; seeded is the coral area
// per type to allocate when allocate is set.
func RankReplicate(d *domain.Domain, sc *scenario.Scenario, alg mcda.Algorithm, exclude []bool,
	t, rep int, seeded []float64, allocate bool) (*Replicate, error) {
	in, err := d.DecisionInputs(t, rep, sc.RiskTolerance, sc.PriorityZones)
	if err != nil {
		return nil, err
	}
	m, err := decision.Build(in)
	if err != nil {
		return nil, err
	}
	seedM, err := m.ForSeeding(sc.MinSeedArea)
	if err != nil {
		return nil, err
	}

	opts := mcda.Options{
		NSelect:     sc.SeedSites,
		Exclude:     exclude,
		MinDistance: sc.MinDistance,
		TopN:        sc.TopN,
	}
	if sc.MinDistance > 0 {
		opts.Distances = d.Distances()
	}
	seed, err := mcda.Rank(seedM, mcda.Seeding, sc.SeedWeights, alg, opts)
	if err != nil {
		return nil, fmt.Errorf("rank seeding: %w", err)
	}

	opts.NSelect = sc.ShadeSites
	opts.Previous = seed
	ranks, err := mcda.Rank(m, mcda.Shading, sc.ShadeWeights, alg, opts)
	if err != nil {
		return nil, fmt.Errorf("rank shading: %w", err)
	}

	out := &Replicate{Timestep: t, Replicate: rep, Ranks: ranks}
	if !allocate {
		return out, nil
	}
	alloc, err := seeding.Allocate(in.Area, ranks.Selected(mcda.Seeding), seedM.AvailableSeedSpace(), seeded)
	if err != nil {
		return nil, fmt.Errorf("allocate: %w", err)
	}
	if err := alloc.WithTypes(d.CoralTypes()); err != nil {
		return nil, err
	}
	out.Allocation = alloc
	return out, nil
}
