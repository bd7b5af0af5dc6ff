package cache

// ScopedKeyer wraps a Keyer with a prefix so several deployments (or
// projects) can share one Redis instance without key collisions.
//
//	projectKeyer := NewScopedKeyer(NewDefaultKeyer(), "gbr:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// CentralityKey generates a prefixed centrality key.
func (k *ScopedKeyer) CentralityKey(matrixHash string, opts CentralityKeyOpts) string {
	return k.prefix + k.inner.CentralityKey(matrixHash, opts)
}

// RunKey generates a prefixed run key.
func (k *ScopedKeyer) RunKey(runID string) string {
	return k.prefix + k.inner.RunKey(runID)
}
