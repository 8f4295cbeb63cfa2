package observability

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
)

// LogHooks reports pipeline, cache and upload events on a logger. Stage and
// cache traffic go to debug; generation outcomes and uploads go to info, or
// warn when they fail.
type LogHooks struct {
	Logger *log.Logger
}

func (h LogHooks) logger() *log.Logger {
	if h.Logger == nil {
		return log.Default()
	}
	return h.Logger
}

func (h LogHooks) OnGenerateStart(_ context.Context, title string) {
	h.logger().Debug("generation started", "title", title)
}

func (h LogHooks) OnStageComplete(_ context.Context, stage string, elapsed time.Duration, err error) {
	if err != nil {
		h.logger().Debug("stage failed", "stage", stage, "elapsed", elapsed.Round(time.Millisecond), "err", err)
		return
	}
	h.logger().Debug("stage done", "stage", stage, "elapsed", elapsed.Round(time.Millisecond))
}

func (h LogHooks) OnGenerateComplete(_ context.Context, title string, elapsed time.Duration, err error) {
	if err != nil {
		h.logger().Warn("generation failed", "title", title, "elapsed", elapsed.Round(time.Millisecond), "err", err)
		return
	}
	h.logger().Info("generated", "title", title, "elapsed", elapsed.Round(time.Millisecond))
}

func (h LogHooks) OnCacheHit(_ context.Context, key string) {
	h.logger().Debug("cache hit", "key", key)
}

func (h LogHooks) OnCacheMiss(_ context.Context, key string) {
	h.logger().Debug("cache miss", "key", key)
}

func (h LogHooks) OnCacheSet(_ context.Context, key string, size int) {
	h.logger().Debug("cache set", "key", key, "bytes", size)
}

func (h LogHooks) OnUpload(_ context.Context, provider string, size int64, elapsed time.Duration, err error) {
	if err != nil {
		h.logger().Warn("upload failed", "provider", provider, "bytes", size, "err", err)
		return
	}
	h.logger().Info("uploaded", "provider", provider, "bytes", size, "elapsed", elapsed.Round(time.Millisecond))
}

// Install registers h for every event family.
func (h LogHooks) Install() {
	SetPipelineHooks(h)
	SetCacheHooks(h)
	SetStorageHooks(h)
}
