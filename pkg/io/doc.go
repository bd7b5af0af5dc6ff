// Package io reads reef domains and writes ranking results as JSON.
//
// # Domain Format
//
// A domain document carries the site table, the connectivity matrix,
// environmental projections and coral cover:
//
//	{
//	  "name": "moore",
//	  "sites": [
//	    {"id": "reef-1", "area": 1000, "k": 80, "depth": 6, "zone": "green"},
//	    {"id": "reef-2", "area": 800, "k": 75, "depth": 9, "priority": true}
//	  ],
//	  "connectivity": {"cutoff": 0.01, "matrix": [[0, 0.2], [0.05, 0]]},
//	  "wave_stress": [[[0.1, 0.2], [0.3, 0.1]]],
//	  "heat_stress": [[[0.05, 0.4], [0.2, 0.2]]],
//	  "coral_cover": {"types": ["tabular"], "cover": [[0.2, 0.1]]},
//	  "distances": [[0, 850], [850, 0]]
//	}
//
// Stress cubes are indexed [timestep][site][replicate] and cover is indexed
// [type][site]. "distances" is optional.
//
// Decoding only checks the document's shape. Value checks (probabilities in
// [0,1], square matrices, matching site counts) happen when the inputs are
// turned into a domain, and fail with INVALID_DATA errors.
//
// # Results
//
// [WriteResult] encodes a pipeline result with its run ID, scenario and every
// replicate's ranks and allocation. [ReadResult] decodes it again, so stored
// runs can be inspected later.
package io
