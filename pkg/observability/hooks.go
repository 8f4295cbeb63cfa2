// Package observability lets callers watch mind-map generation without the
// pipeline packages depending on any metrics or tracing backend.
//
// Three event families exist: pipeline progress, render cache traffic and
// storage uploads. Each has a no-op default. Binaries swap in their own
// implementations at startup:
//
//	observability.LogHooks{Logger: logger}.Install()
//
// and library code emits through the accessors:
//
//	observability.Pipeline().OnStageComplete(ctx, "rasterize", elapsed, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// PipelineHooks observes a single generation from validation to result.
type PipelineHooks interface {
	// OnGenerateStart runs once the Markdown has been accepted.
	OnGenerateStart(ctx context.Context, title string)
	// OnStageComplete runs after every render stage, failed or not.
	OnStageComplete(ctx context.Context, stage string, elapsed time.Duration, err error)
	// OnGenerateComplete runs exactly once per started generation.
	OnGenerateComplete(ctx context.Context, title string, elapsed time.Duration, err error)
}

// CacheHooks observes render cache lookups and writes. key is the cache key.
type CacheHooks interface {
	OnCacheHit(ctx context.Context, key string)
	OnCacheMiss(ctx context.Context, key string)
	OnCacheSet(ctx context.Context, key string, size int)
}

// StorageHooks observes uploads to a storage provider.
type StorageHooks interface {
	OnUpload(ctx context.Context, provider string, size int64, elapsed time.Duration, err error)
}

// NoopPipelineHooks ignores every pipeline event. Embed it to implement a
// subset of PipelineHooks.
type NoopPipelineHooks struct{}

func (NoopPipelineHooks) OnGenerateStart(context.Context, string)                         {}
func (NoopPipelineHooks) OnStageComplete(context.Context, string, time.Duration, error)    {}
func (NoopPipelineHooks) OnGenerateComplete(context.Context, string, time.Duration, error) {}

// NoopCacheHooks ignores every cache event.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// NoopStorageHooks ignores every upload event.
type NoopStorageHooks struct{}

func (NoopStorageHooks) OnUpload(context.Context, string, int64, time.Duration, error) {}

type registry struct {
	mu       sync.RWMutex
	pipeline PipelineHooks
	cache    CacheHooks
	storage  StorageHooks
}

var hooks = newRegistry()

func newRegistry() *registry {
	return &registry{
		pipeline: NoopPipelineHooks{},
		cache:    NoopCacheHooks{},
		storage:  NoopStorageHooks{},
	}
}

func (r *registry) update(fn func(*registry)) {
	r.mu.Lock()
	fn(r)
	r.mu.Unlock()
}

// SetPipelineHooks installs h for all later generations. nil is ignored.
func SetPipelineHooks(h PipelineHooks) {
	if h == nil {
		return
	}
	hooks.update(func(r *registry) { r.pipeline = h })
}

// SetCacheHooks installs h for all later cache operations. nil is ignored.
func SetCacheHooks(h CacheHooks) {
	if h == nil {
		return
	}
	hooks.update(func(r *registry) { r.cache = h })
}

// SetStorageHooks installs h for all later uploads. nil is ignored.
func SetStorageHooks(h StorageHooks) {
	if h == nil {
		return
	}
	hooks.update(func(r *registry) { r.storage = h })
}

// Pipeline returns the installed pipeline hooks.
func Pipeline() PipelineHooks {
	hooks.mu.RLock()
	defer hooks.mu.RUnlock()
	return hooks.pipeline
}

// Cache returns the installed cache hooks.
func Cache() CacheHooks {
	hooks.mu.RLock()
	defer hooks.mu.RUnlock()
	return hooks.cache
}

// Storage returns the installed storage hooks.
func Storage() StorageHooks {
	hooks.mu.RLock()
	defer hooks.mu.RUnlock()
	return hooks.storage
}

// Reset puts the no-op hooks back. Tests call it after installing recorders.
func Reset() {
	fresh := newRegistry()
	hooks.update(func(r *registry) {
		r.pipeline, r.cache, r.storage = fresh.pipeline, fresh.cache, fresh.storage
	})
}
