package pipeline

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"runtime/debug"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/mindmapper/pkg/artifact"
	"github.com/matzehuels/mindmapper/pkg/buildinfo"
	"github.com/matzehuels/mindmapper/pkg/cache"
	"github.com/matzehuels/mindmapper/pkg/complexity"
	"github.com/matzehuels/mindmapper/pkg/config"
	"github.com/matzehuels/mindmapper/pkg/errors"
	"github.com/matzehuels/mindmapper/pkg/history"
	"github.com/matzehuels/mindmapper/pkg/observability"
	"github.com/matzehuels/mindmapper/pkg/render"
	"github.com/matzehuels/mindmapper/pkg/storage"
)

// Renderer produces a validated PNG for one request. *render.Pipeline
// implements it.
type Renderer interface {
	Render(ctx context.Context, text, title string, vp complexity.Viewport, opts render.Options) (*render.Output, error)
}

// Coordinator wires rendering, caching, storage and history together.
//
// It holds no per-request state. Multiple goroutines can call Generate on
// the same Coordinator; concurrency limits are the caller's concern.
type Coordinator struct {
	Config   config.Config
	Renderer Renderer
	// Engine names the render engine in cache keys and history.
	Engine  string
	Storage storage.Provider
	// StorageNote is added to every Result as a warning. Open sets it when
	// the configured provider was replaced by local storage.
	StorageNote string
	Cache       cache.Cache
	Keyer       cache.Keyer
	History     history.Store
	Logger      *log.Logger

	now func() time.Time
}

// NewCoordinator creates a coordinator. A nil cache disables caching, a nil
// history discards records and a nil logger uses log.Default(). A nil
// provider keeps images in the temp directory.
func NewCoordinator(cfg config.Config, r Renderer, p storage.Provider, c cache.Cache, h history.Store, logger *log.Logger) *Coordinator {
	if c == nil {
		c = cache.NewNullCache()
	}
	if h == nil {
		h = history.NullStore{}
	}
	if logger == nil {
		logger = log.Default()
	}
	engine := cfg.Render.Engine
	if engine == "" {
		engine = config.EngineMarkmap
	}
	return &Coordinator{
		Config:   cfg,
		Renderer: r,
		Engine:   engine,
		Storage:  p,
		Cache:    c,
		Keyer:    cache.NewScopedKeyer(nil, buildinfo.CacheScope()),
		History:  h,
		Logger:   logger,
		now:      time.Now,
	}
}

// OpenOptions adjust Open for one process.
type OpenOptions struct {
	// NoCache disables the render cache regardless of configuration.
	NoCache bool
}

// Open builds a Coordinator and all of its dependencies from cfg. Storage,
// cache and history problems degrade to local storage, no cache and no
// history respectively, with a warning. Only an unusable render engine or
// output directory is an error.
func Open(ctx context.Context, cfg config.Config, logger *log.Logger, opts OpenOptions) (*Coordinator, error) {
	if logger == nil {
		logger = log.Default()
	}

	renderer, err := render.New(cfg, logger)
	if err != nil {
		return nil, err
	}

	sel, err := storage.Open(ctx, cfg.Storage, logger)
	if err != nil {
		return nil, err
	}

	var c cache.Cache
	if opts.NoCache {
		c = cache.NewNullCache()
	} else if c, err = cache.Open(ctx, cfg.Cache); err != nil {
		logger.Warn("render cache unavailable, caching disabled", "backend", cfg.Cache.Backend, "error", err)
		c = cache.NewNullCache()
	}

	h, err := history.Open(ctx, cfg.History)
	if err != nil {
		logger.Warn("history store unavailable, not recording", "backend", cfg.History.Backend, "error", err)
		h = history.NullStore{}
	}

	coord := NewCoordinator(cfg, renderer, sel.Provider, c, h, logger)
	coord.Engine = renderer.Engine
	if sel.Fallback {
		coord.StorageNote = fmt.Sprintf("storage %q unavailable, saved locally instead: %s", sel.Requested, sel.Reason)
	}
	return coord, nil
}

// Close releases the cache and history connections.
func (c *Coordinator) Close(ctx context.Context) error {
	cerr := c.Cache.Close()
	herr := c.History.Close(ctx)
	if cerr != nil {
		return cerr
	}
	return herr
}

// Generate renders req and stores the image. It always returns a non-nil
// Result; see the package documentation for the failure model.
func (c *Coordinator) Generate(ctx context.Context, req Request) (res *Result) {
	start := time.Now()
	res = &Result{}
	hooks := observability.Pipeline()
	started := false

	defer func() {
		if p := recover(); p != nil {
			c.Logger.Error("generation panicked", "panic", p, "stack", string(debug.Stack()))
			res.fail(errors.New(errors.ErrCodeInternal, "internal error: %v", p))
		}
		res.Stats.Total = time.Since(start)
		if !started {
			return
		}
		var err error
		if !res.Success {
			err = errors.New(errors.Code(res.Code), "%s", res.Error)
		}
		hooks.OnGenerateComplete(ctx, res.Title, res.Stats.Total, err)
		c.record(ctx, req, res)
	}()

	if err := req.ValidateAndSetDefaults(); err != nil {
		return res.fail(err)
	}
	scale, err := render.QualityScale(req.Quality, c.Config.Viewport.DeviceScaleFactor)
	if err != nil {
		return res.fail(err)
	}
	if c.Renderer == nil {
		return res.fail(errors.New(errors.ErrCodeInternal, "no renderer configured"))
	}

	started = true
	res.Title = req.Title
	hooks.OnGenerateStart(ctx, req.Title)
	logger := c.Logger.With("title", req.Title)

	analyzeStart := time.Now()
	profile := complexity.Analyze(req.Markdown)
	vp := complexity.DeriveViewport(profile, c.bounds())
	res.Stats.Analyze = time.Since(analyzeStart)
	res.Profile, res.Viewport = &profile, &vp
	logger.Debug("analyzed outline",
		"score", fmt.Sprintf("%.2f", profile.Score),
		"level", profile.Level,
		"viewport", fmt.Sprintf("%dx%d", vp.Width, vp.Height),
		"scale", scale)

	raster, hit, err := c.rasterize(ctx, req, vp, scale, res, logger)
	if err != nil {
		return res.fail(err)
	}
	res.CacheHit = hit
	res.LocalPath = raster

	if req.IncludeImageData {
		data, err := os.ReadFile(raster)
		if err != nil {
			return res.fail(errors.Wrap(errors.ErrCodeInternal, err, "read rendered image"))
		}
		res.ImageData = "data:image/png;base64," + base64.StdEncoding.EncodeToString(data)
	}

	c.upload(ctx, req.Title, raster, res, logger)
	res.Success = true

	logger.Info("generated mind map",
		"url", res.ImageURL,
		"bytes", res.Stats.SizeBytes,
		"cached", res.CacheHit,
		"duration", time.Since(start).Round(time.Millisecond))
	return res
}

func (c *Coordinator) bounds() complexity.Bounds {
	v := c.Config.Viewport
	return complexity.Bounds{
		BaseWidth:  v.BaseWidth,
		BaseHeight: v.BaseHeight,
		MaxWidth:   v.MaxWidth,
		MaxHeight:  v.MaxHeight,
	}
}

// rasterize returns the path of a validated PNG for req, from the cache when
// possible.
func (c *Coordinator) rasterize(ctx context.Context, req Request, vp complexity.Viewport, scale float64, res *Result, logger *log.Logger) (string, bool, error) {
	key := c.Keyer.RenderKey(req.Markdown, cache.RenderKeyOpts{
		Engine: c.Engine,
		Width:  vp.Width,
		Height: vp.Height,
		Scale:  scale,
	})

	if !req.NoCache {
		if path, size, ok := c.fromCache(ctx, key, logger); ok {
			res.Stats.SizeBytes = size
			return path, true, nil
		}
	}

	out, err := c.Renderer.Render(ctx, req.Markdown, req.Title, vp, render.Options{DeviceScale: scale})
	if err != nil {
		return "", false, err
	}
	res.Stats.Render = out.Timings
	res.Stats.SizeBytes = out.Size

	if !req.NoCache {
		c.toCache(ctx, key, out.Artifact.Raster, logger)
	}
	return out.Artifact.Raster, false, nil
}

// fromCache materializes a cached PNG in the temp directory. Cache errors
// and invalid entries count as misses.
func (c *Coordinator) fromCache(ctx context.Context, key string, logger *log.Logger) (string, int64, bool) {
	data, hit, err := c.Cache.Get(ctx, key)
	if err != nil {
		logger.Warn("cache lookup failed", "error", err)
		return "", 0, false
	}
	if !hit {
		observability.Cache().OnCacheMiss(ctx, key)
		return "", 0, false
	}

	a, err := artifact.New(c.Config.Paths.Temp, "")
	if err != nil {
		logger.Warn("cannot stage cached render", "error", err)
		return "", 0, false
	}
	if err := os.WriteFile(a.Raster, data, 0o644); err != nil {
		logger.Warn("cannot stage cached render", "error", err)
		return "", 0, false
	}
	size, err := render.ValidateRaster(a.Raster)
	if err != nil {
		logger.Warn("discarding invalid cached render", "error", err)
		_ = os.Remove(a.Raster)
		_ = c.Cache.Delete(ctx, key)
		return "", 0, false
	}

	observability.Cache().OnCacheHit(ctx, key)
	logger.Debug("render cache hit", "path", a.Raster)
	return a.Raster, size, true
}

func (c *Coordinator) toCache(ctx context.Context, key, raster string, logger *log.Logger) {
	data, err := os.ReadFile(raster)
	if err != nil {
		logger.Warn("cannot cache render", "error", err)
		return
	}
	ttl := c.Config.Cache.TTL
	if ttl <= 0 {
		ttl = cache.TTLRender
	}
	if err := c.Cache.Set(ctx, key, data, ttl); err != nil {
		logger.Warn("cannot cache render", "error", err)
		return
	}
	observability.Cache().OnCacheSet(ctx, key, len(data))
}

// upload stores raster and records the outcome on res. Failures become
// warnings.
func (c *Coordinator) upload(ctx context.Context, title, raster string, res *Result, logger *log.Logger) {
	if c.StorageNote != "" {
		res.warn(c.StorageNote)
	}
	if c.Storage == nil {
		res.warn("no storage provider configured, image left in the temp directory")
		return
	}

	start := time.Now()
	remote := storage.RemotePath(c.now(), title)
	sr := c.Storage.Upload(ctx, raster, remote)
	res.Stats.Upload = time.Since(start)
	res.Storage = &sr

	if !sr.Success {
		logger.Warn("upload failed, image kept locally", "provider", sr.Provider, "error", sr.Message)
		res.warn("storage upload failed: " + sr.Message)
		return
	}
	res.ImageURL = sr.URL
	if local, ok := c.Storage.(*storage.Local); ok {
		res.LocalPath = local.Path(remote)
	}
	logger.Debug("stored image", "provider", sr.Provider, "remote", remote)
}

// record appends the attempt to history. It outlives request cancellation.
func (c *Coordinator) record(ctx context.Context, req Request, res *Result) {
	r := history.Record{
		Title:     res.Title,
		Quality:   req.Quality,
		Engine:    c.Engine,
		Success:   res.Success,
		Code:      res.Code,
		Error:     res.Error,
		Warning:   res.Warning,
		ImageURL:  res.ImageURL,
		SizeBytes: res.Stats.SizeBytes,
		CacheHit:  res.CacheHit,
		Duration:  res.Stats.Total,
	}
	if res.Profile != nil {
		r.Score = res.Profile.Score
		r.Level = string(res.Profile.Level)
	}
	if res.Viewport != nil {
		r.Width, r.Height = res.Viewport.Width, res.Viewport.Height
	}
	if res.Storage != nil {
		r.RemotePath = res.Storage.RemotePath
		r.Provider = string(res.Storage.Provider)
	}
	if err := c.History.Add(context.WithoutCancel(ctx), r); err != nil {
		c.Logger.Warn("record history failed", "error", err)
	}
}

// ListArtifacts lists stored images for date (YYYY-MM-DD, empty for today)
// whose name contains nameFilter, newest first. Only the local output tree
// is listed.
func (c *Coordinator) ListArtifacts(date, nameFilter string) ([]storage.Entry, error) {
	day := c.now()
	if date != "" {
		d, err := errors.ValidateDate(date)
		if err != nil {
			return nil, err
		}
		day = d
	}

	local := c.Config.Storage.Local
	root := local.Root
	if root == "" {
		root = c.Config.Paths.Output
	}
	entries, err := storage.List(root, local.URLPrefix, day, nameFilter)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "list images for %s", day.Format(errors.DateLayout))
	}
	return entries, nil
}
