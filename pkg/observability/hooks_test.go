package observability

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	p := NoopPipelineHooks{}
	p.OnRunStart(ctx, "run-1", 12)
	p.OnReplicateComplete(ctx, 0, 3, time.Millisecond, nil)
	p.OnRunComplete(ctx, "run-1", time.Second, nil)

	c := NoopCacheHooks{}
	c.OnCacheHit(ctx, "centrality")
	c.OnCacheMiss(ctx, "centrality")
	c.OnCacheSet(ctx, "run", 1024)

	h := NoopHTTPHooks{}
	h.OnRequest(ctx, "POST", "/v1/rank")
	h.OnResponse(ctx, "POST", "/v1/rank", 200, time.Second)
}

func TestRegistry(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	assert.IsType(t, NoopPipelineHooks{}, Pipeline())
	assert.IsType(t, NoopCacheHooks{}, Cache())
	assert.IsType(t, NoopHTTPHooks{}, HTTP())

	p, c, h := &testPipelineHooks{}, &testCacheHooks{}, &testHTTPHooks{}
	SetPipelineHooks(p)
	SetCacheHooks(c)
	SetHTTPHooks(h)
	assert.Same(t, p, Pipeline())
	assert.Same(t, c, Cache())
	assert.Same(t, h, HTTP())

	// Setting one kind leaves the others in place.
	p2 := &testPipelineHooks{}
	SetPipelineHooks(p2)
	assert.Same(t, p2, Pipeline())
	assert.Same(t, c, Cache())

	SetPipelineHooks(nil)
	assert.Same(t, p2, Pipeline(), "nil hooks are ignored")

	Reset()
	assert.IsType(t, NoopPipelineHooks{}, Pipeline())
	assert.IsType(t, NoopHTTPHooks{}, HTTP())
}

func TestRegistryConcurrentUse(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			SetCacheHooks(&testCacheHooks{})
		}()
		go func() {
			defer wg.Done()
			Pipeline().OnRunStart(context.Background(), "run", 1)
			Cache().OnCacheHit(context.Background(), "centrality")
		}()
	}
	wg.Wait()
	assert.IsType(t, &testCacheHooks{}, Cache())
}

type testPipelineHooks struct{ NoopPipelineHooks }
type testCacheHooks struct{ NoopCacheHooks }
type testHTTPHooks struct{ NoopHTTPHooks }
