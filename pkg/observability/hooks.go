// Package observability provides hooks for metrics and tracing.
//
// Libraries emit events through globally registered hooks; the defaults are
// no-ops, so packages such as connectivity and pipeline never depend on a
// metrics backend. The CLI and server register [PrometheusHooks] at startup.
//
//	func main() {
//	    hooks := observability.NewPrometheusHooks(prometheus.NewRegistry())
//	    observability.SetPipelineHooks(hooks)
//	    observability.SetCacheHooks(hooks)
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Pipeline().OnRunStart(ctx, runID, jobs)
//	// ... rank replicates ...
//	observability.Pipeline().OnRunComplete(ctx, runID, time.Since(start), err)
package observability

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// =============================================================================
// Pipeline Hooks
// =============================================================================

// PipelineHooks receives events from ranking runs.
type PipelineHooks interface {
	// OnRunStart records the start of a run over jobs (timestep, replicate) pairs.
	OnRunStart(ctx context.Context, runID string, jobs int)

	// OnReplicateComplete records one ranked replicate.
	OnReplicateComplete(ctx context.Context, timestep, replicate int, duration time.Duration, err error)

	// OnRunComplete records the end of a run.
	OnRunComplete(ctx context.Context, runID string, duration time.Duration, err error)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from cache operations.
type CacheHooks interface {
	// OnCacheHit records a cache hit.
	OnCacheHit(ctx context.Context, keyType string)

	// OnCacheMiss records a cache miss.
	OnCacheMiss(ctx context.Context, keyType string)

	// OnCacheSet records a cache write.
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// =============================================================================
// HTTP Hooks
// =============================================================================

// HTTPHooks receives events from the API server.
type HTTPHooks interface {
	// OnRequest records an incoming request on a route pattern.
	OnRequest(ctx context.Context, method, route string)

	// OnResponse records a completed response.
	OnResponse(ctx context.Context, method, route string, statusCode int, duration time.Duration)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopPipelineHooks is a no-op implementation of PipelineHooks.
type NoopPipelineHooks struct{}

func (NoopPipelineHooks) OnRunStart(context.Context, string, int)                              {}
func (NoopPipelineHooks) OnReplicateComplete(context.Context, int, int, time.Duration, error) {}
func (NoopPipelineHooks) OnRunComplete(context.Context, string, time.Duration, error)         {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// NoopHTTPHooks is a no-op implementation of HTTPHooks.
type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnRequest(context.Context, string, string)                       {}
func (NoopHTTPHooks) OnResponse(context.Context, string, string, int, time.Duration) {}

// =============================================================================
// Global Hook Registry
// =============================================================================

// hookSet is replaced as a whole on every Set call, so readers on the
// replicate hot path load one pointer without locking.
type hookSet struct {
	pipeline PipelineHooks
	cache    CacheHooks
	http     HTTPHooks
}

var (
	hooks   atomic.Pointer[hookSet]
	writeMu sync.Mutex
)

func init() { Reset() }

func update(fn func(*hookSet)) {
	writeMu.Lock()
	defer writeMu.Unlock()
	next := *hooks.Load()
	fn(&next)
	hooks.Store(&next)
}

// SetPipelineHooks registers pipeline hooks. A nil h is ignored.
func SetPipelineHooks(h PipelineHooks) {
	if h != nil {
		update(func(s *hookSet) { s.pipeline = h })
	}
}

// SetCacheHooks registers cache hooks. A nil h is ignored.
func SetCacheHooks(h CacheHooks) {
	if h != nil {
		update(func(s *hookSet) { s.cache = h })
	}
}

// SetHTTPHooks registers HTTP hooks. A nil h is ignored.
func SetHTTPHooks(h HTTPHooks) {
	if h != nil {
		update(func(s *hookSet) { s.http = h })
	}
}

// Pipeline returns the registered pipeline hooks.
func Pipeline() PipelineHooks { return hooks.Load().pipeline }

// Cache returns the registered cache hooks.
func Cache() CacheHooks { return hooks.Load().cache }

// HTTP returns the registered HTTP hooks.
func HTTP() HTTPHooks { return hooks.Load().http }

// Reset restores all hooks to their no-op defaults. The serve command calls
// it on shutdown; tests call it between cases.
func Reset() {
	writeMu.Lock()
	defer writeMu.Unlock()
	hooks.Store(&hookSet{
		pipeline: NoopPipelineHooks{},
		cache:    NoopCacheHooks{},
		http:     NoopHTTPHooks{},
	})
}
