// Package connectivity derives site-level connectivity metrics from a larval
// transition-probability matrix.
//
// # Overview
//
// A [Matrix] holds the probability that larvae released at site i settle at
// site j. Entries below a cutoff are zeroed when the matrix is constructed so
// that negligible links do not become graph edges. Every nonzero off-diagonal
// cell (i, j) is treated as a directed edge i→j; self-retention on the
// diagonal is kept in the matrix but is not an edge.
//
// [Build] turns the matrix into [Centrality]:
//
//   - In: directed betweenness centrality, normalized by (n-1)(n-2)
//   - Out: 1 - Katz centrality (α = [KatzAlpha], unit L2 norm)
//   - Predecessor: the strongest predecessor of every site
//
// The Out convention is deliberate: downstream weights assume this polarity,
// so it must not be "corrected" to plain Katz centrality.
//
// # Strongest Predecessor
//
// For site v, the strongest predecessor is the in-neighbour u of v that has
// the most in-neighbours of its own. In-neighbours are scanned in ascending
// site order and only a strictly larger count replaces the current pick, so
// ties resolve to the lowest index. Sites without in-neighbours get
// [NoPredecessor].
//
// # Caching
//
// Centrality is a pure function of the matrix contents. [BuildCached] keys
// results by [Matrix.Hash] so repeated domain loads reuse earlier work.
//
//	m, err := connectivity.NewMatrix(rows, 0.01)
//	if err != nil {
//	    return err
//	}
//	c, err := connectivity.Build(m)
package connectivity
