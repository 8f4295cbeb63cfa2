package render

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/mindmapper/pkg/artifact"
	"github.com/matzehuels/mindmapper/pkg/complexity"
	"github.com/matzehuels/mindmapper/pkg/errors"
	"github.com/matzehuels/mindmapper/pkg/observability"
)

// Stage names reported to observability hooks and logs.
const (
	StageIn          = "stage-in"
	StageTransform   = "transform"
	StagePostProcess = "post-process"
	StageRasterize   = "rasterize"
	StageValidate    = "validate"
)

// Transformer converts the Markdown file at src into an intermediate
// document at dst.
type Transformer interface {
	Transform(ctx context.Context, src, dst string) error
}

// PostProcessor rewrites an intermediate document in place.
type PostProcessor interface {
	Process(path string) error
}

// Rasterizer renders the intermediate document at src into a PNG at dst.
type Rasterizer interface {
	Rasterize(ctx context.Context, src, dst string, s Surface) error
}

// Surface is the pixel geometry of the raster.
type Surface struct {
	Width       int
	Height      int
	DeviceScale float64
}

// Options are per-request render settings.
type Options struct {
	// DeviceScale is the device pixel ratio, from QualityScale.
	DeviceScale float64
}

// Pipeline renders Markdown to PNG through its stages. It holds no
// per-request state and is safe for concurrent use when its components are.
type Pipeline struct {
	Engine        string
	TempDir       string
	Ext           string
	CleanupMaxAge time.Duration
	Transformer   Transformer
	PostProcessor PostProcessor
	Rasterizer    Rasterizer
	Logger        *log.Logger
}

// Timings records how long each stage took.
type Timings struct {
	StageIn     time.Duration `json:"stage_in"`
	Transform   time.Duration `json:"transform"`
	PostProcess time.Duration `json:"post_process"`
	Rasterize   time.Duration `json:"rasterize"`
	Validate    time.Duration `json:"validate"`
}

// Total returns the sum of all stage durations.
func (t Timings) Total() time.Duration {
	return t.StageIn + t.Transform + t.PostProcess + t.Rasterize + t.Validate
}

// Output is a completed render.
type Output struct {
	Artifact *artifact.Artifact
	Size     int64
	Timings  Timings
}

// Render runs all stages for text. title is used for logging only.
func (p *Pipeline) Render(ctx context.Context, text, title string, vp complexity.Viewport, opts Options) (*Output, error) {
	logger := p.Logger
	if logger == nil {
		logger = log.Default()
	}
	scale := opts.DeviceScale
	if scale <= 0 {
		scale = 1
	}

	out := &Output{}
	hooks := observability.Pipeline()

	run := func(name string, d *time.Duration, fn func() error) error {
		start := time.Now()
		err := fn()
		*d = time.Since(start)
		hooks.OnStageComplete(ctx, name, *d, err)
		if err != nil {
			logger.Debug("stage failed", "stage", name, "duration", *d, "error", err)
			return err
		}
		logger.Debug("stage complete", "stage", name, "duration", *d)
		return nil
	}

	if err := run(StageIn, &out.Timings.StageIn, func() error {
		a, err := p.stageIn(text, logger)
		out.Artifact = a
		return err
	}); err != nil {
		return nil, err
	}
	a := out.Artifact

	if err := run(StageTransform, &out.Timings.Transform, func() error {
		return p.Transformer.Transform(ctx, a.Source, a.Intermediate)
	}); err != nil {
		return nil, err
	}

	// Best effort: a failed post-process leaves the document as transformed.
	_ = run(StagePostProcess, &out.Timings.PostProcess, func() error {
		if p.PostProcessor == nil {
			return nil
		}
		if err := p.PostProcessor.Process(a.Intermediate); err != nil {
			logger.Warn("post-process failed, continuing", "path", a.Intermediate, "error", err)
		}
		return nil
	})

	if err := run(StageRasterize, &out.Timings.Rasterize, func() error {
		return p.Rasterizer.Rasterize(ctx, a.Intermediate, a.Raster, Surface{
			Width:       vp.Width,
			Height:      vp.Height,
			DeviceScale: scale,
		})
	}); err != nil {
		return nil, err
	}

	if err := run(StageValidate, &out.Timings.Validate, func() error {
		size, err := ValidateRaster(a.Raster)
		out.Size = size
		return err
	}); err != nil {
		return nil, err
	}

	logger.Info("rendered mind map",
		"title", title,
		"engine", p.Engine,
		"size", fmt.Sprintf("%dx%d@%.1fx", vp.Width, vp.Height, scale),
		"bytes", out.Size,
		"duration", out.Timings.Total().Round(time.Millisecond))
	return out, nil
}

func (p *Pipeline) stageIn(text string, logger *log.Logger) (*artifact.Artifact, error) {
	maxAge := p.CleanupMaxAge
	if maxAge <= 0 {
		maxAge = artifact.DefaultMaxAge
	}
	if stats := artifact.Cleanup(p.TempDir, maxAge, logger); stats.Removed > 0 {
		logger.Info("cleaned up temp files", "removed", stats.Removed, "failed", stats.Failed)
	}

	a, err := artifact.New(p.TempDir, p.Ext)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "allocate working files")
	}
	if err := os.WriteFile(a.Source, []byte(text), 0o644); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "write markdown source")
	}
	return a, nil
}
