package render

import (
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/mindmapper/pkg/config"
)

// Engine names.
const (
	EngineMarkmap  = config.EngineMarkmap
	EngineGraphviz = config.EngineGraphviz
)

// NewMarkmap builds the markmap CLI + headless Chromium pipeline.
func NewMarkmap(cfg config.Config, logger *log.Logger) *Pipeline {
	return &Pipeline{
		Engine:        EngineMarkmap,
		TempDir:       cfg.Paths.Temp,
		Ext:           ".html",
		CleanupMaxAge: cfg.Render.CleanupMaxAge,
		Transformer:   MarkmapTransformer{Bin: cfg.Render.MarkmapBin},
		PostProcessor: HTMLPostProcessor{Branding: DefaultBranding},
		Rasterizer: BrowserRasterizer{
			Bin:              cfg.Render.BrowserBin,
			NoSandbox:        cfg.Render.NoSandbox,
			ReadinessTimeout: cfg.Render.ReadinessTimeout,
			Settle:           cfg.Render.Settle,
			Branding:         DefaultBranding,
			Logger:           logger,
		},
		Logger: logger,
	}
}

// NewGraphviz builds the in-process goldmark + Graphviz pipeline.
func NewGraphviz(cfg config.Config, logger *log.Logger) *Pipeline {
	return &Pipeline{
		Engine:        EngineGraphviz,
		TempDir:       cfg.Paths.Temp,
		Ext:           ".dot",
		CleanupMaxAge: cfg.Render.CleanupMaxAge,
		Transformer:   OutlineTransformer{},
		Rasterizer:    GraphvizRasterizer{},
		Logger:        logger,
	}
}

// New builds the pipeline for the configured engine.
func New(cfg config.Config, logger *log.Logger) (*Pipeline, error) {
	switch cfg.Render.Engine {
	case EngineMarkmap, "":
		return NewMarkmap(cfg, logger), nil
	case EngineGraphviz:
		return NewGraphviz(cfg, logger), nil
	default:
		return nil, fmt.Errorf("unknown render engine %q", cfg.Render.Engine)
	}
}
