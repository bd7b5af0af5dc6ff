// Package decision assembles the per-timestep, per-replicate decision matrix
// that the MCDA ranker scores.
//
// Each row is a feasible site; the columns are fixed and addressed through
// the typed [Column] enum. Score-bearing columns are scaled into [0,1]:
//
//   - InConnectivity, OutConnectivity, DepthPriority, ZonePriority, SeedSpace
//     and ShadeSpace are divided by their maximum over the kept rows
//   - WaveDamage and HeatStress are min-max scaled over the kept rows, or
//     kept as raw probabilities when every kept row has the same value
//   - PredecessorPriority is used as given
//
// Risk columns are never inverted here. Whether a column is a benefit or a
// cost is decided by the ranker's criterion directions.
//
// A site is filtered out when its heat-stress probability exceeds the risk
// tolerance or when its maximum cover is zero. [Matrix.ForSeeding] derives
// the seeding variant, which also drops sites whose available seeding space
// is below the minimum seeding area. [Matrix.Kept] records which sites of the
// original ordering survived, and the Site column always carries the
// original index.
package decision
