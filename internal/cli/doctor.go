package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/mindmapper/pkg/cache"
	"github.com/matzehuels/mindmapper/pkg/config"
	"github.com/matzehuels/mindmapper/pkg/errors"
	"github.com/matzehuels/mindmapper/pkg/history"
	"github.com/matzehuels/mindmapper/pkg/render"
	"github.com/matzehuels/mindmapper/pkg/storage"
)

// doctorTimeout bounds each check. Launching a browser for the first time
// can include a download.
const doctorTimeout = 2 * time.Minute

// check is one doctor probe.
type check struct {
	name string
	run  func(ctx context.Context) (string, error)
	// optional checks report problems without failing the command.
	optional bool
}

type checkResult struct {
	detail string
	err    error
}

func (c *CLI) doctorCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check that the render engine and storage are usable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			checks := doctorChecks(cfg)

			spinner := newSpinnerWithContext(cmd.Context(), "Running checks...")
			spinner.Start()
			results := runChecks(cmd.Context(), checks)
			spinner.Stop()

			return reportChecks(checks, results)
		},
	}
}

func doctorChecks(cfg config.Config) []check {
	var checks []check

	if cfg.Render.Engine == config.EngineMarkmap {
		mm := render.MarkmapTransformer{Bin: cfg.Render.MarkmapBin}
		browser := render.BrowserRasterizer{Bin: cfg.Render.BrowserBin, NoSandbox: cfg.Render.NoSandbox}
		checks = append(checks,
			check{name: "markmap CLI", run: func(ctx context.Context) (string, error) {
				v, err := mm.Version(ctx)
				if err != nil {
					return "", fmt.Errorf("%w\n  install with: npm install -g markmap-cli", err)
				}
				return v, nil
			}},
			check{name: "Chromium", run: browser.CheckBrowser},
		)
	} else {
		checks = append(checks, check{name: "Graphviz", run: func(context.Context) (string, error) {
			return "embedded", nil
		}})
	}

	checks = append(checks,
		check{name: "Storage", run: func(ctx context.Context) (string, error) {
			t, err := storage.ParseType(cfg.Storage.Type)
			if err != nil {
				return "", err
			}
			if _, err := storage.New(ctx, cfg.Storage); err != nil {
				return "", fmt.Errorf("%s: %s", storage.Describe(t), errors.UserMessage(err))
			}
			return storage.Describe(t), nil
		}},
		check{name: "Cache", optional: true, run: func(ctx context.Context) (string, error) {
			cc, err := cache.Open(ctx, cfg.Cache)
			if err != nil {
				return "", err
			}
			defer cc.Close()
			return backendDetail(cfg.Cache), nil
		}},
		check{name: "History", optional: true, run: func(ctx context.Context) (string, error) {
			h, err := history.Open(ctx, cfg.History)
			if err != nil {
				return "", err
			}
			defer h.Close(ctx)
			return cfg.History.Backend, nil
		}},
	)
	return checks
}

func backendDetail(c config.Cache) string {
	switch c.Backend {
	case config.CacheRedis:
		return "redis " + c.RedisAddr
	case config.CacheNone:
		return "disabled"
	}
	if c.Dir != "" {
		return "file " + c.Dir
	}
	if dir, err := cache.DefaultDir(); err == nil {
		return "file " + dir
	}
	return "file"
}

// runChecks runs every check concurrently. A failing check never cancels
// the others.
func runChecks(ctx context.Context, checks []check) []checkResult {
	results := make([]checkResult, len(checks))
	var g errgroup.Group
	for i, chk := range checks {
		g.Go(func() error {
			cctx, cancel := context.WithTimeout(ctx, doctorTimeout)
			defer cancel()
			detail, err := chk.run(cctx)
			results[i] = checkResult{detail: detail, err: err}
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func reportChecks(checks []check, results []checkResult) error {
	failed := 0
	for i, chk := range checks {
		r := results[i]
		switch {
		case r.err == nil:
			printSuccess("%-12s %s", chk.name, StyleDim.Render(r.detail))
		case chk.optional:
			printWarning("%-12s %v", chk.name, r.err)
		default:
			printError("%-12s %v", chk.name, r.err)
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d required check(s) failed", failed)
	}
	return nil
}
