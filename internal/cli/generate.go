package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/mindmapper/pkg/errors"
	"github.com/matzehuels/mindmapper/pkg/observability"
	"github.com/matzehuels/mindmapper/pkg/pipeline"
)

// generateOpts holds the flags for the generate command.
type generateOpts struct {
	title   string
	quality string
	noCache bool
	dataURI bool
	json    bool
	output  string // copy the PNG here as well
}

func (c *CLI) generateCommand() *cobra.Command {
	var opts generateOpts

	cmd := &cobra.Command{
		Use:   "generate [file|-]",
		Short: "Render a Markdown outline to a mind-map image",
		Long: `Render a Markdown outline to a mind-map PNG and store it.

The outline is read from the given file, or from stdin when the file is "-"
or omitted. It must contain at least one header; the first header becomes the
title unless --title is set.`,
		Example: `  mindmapper generate plan.md
  cat notes.md | mindmapper generate --title "Team Notes" --quality ultra`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src := "-"
			if len(args) == 1 {
				src = args[0]
			}
			markdown, err := readInput(src, cmd.InOrStdin())
			if err != nil {
				return err
			}
			return c.runGenerate(cmd.Context(), cmd.OutOrStdout(), markdown, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.title, "title", "t", "", "image title (default: first header)")
	cmd.Flags().StringVarP(&opts.quality, "quality", "q", "", "quality: low, medium, high, ultra (default from config)")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "render even if a cached image exists")
	cmd.Flags().BoolVar(&opts.dataURI, "data-uri", false, "include a base64 data URI of the image (with --json)")
	cmd.Flags().BoolVar(&opts.json, "json", false, "print the full result as JSON")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "also copy the image to this path")

	_ = cmd.RegisterFlagCompletionFunc("quality", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return []string{"low", "medium", "high", "ultra"}, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

// readInput reads Markdown from path, or from stdin when path is "-".
func readInput(path string, stdin io.Reader) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidInput, err, "read %s", path)
	}
	return string(data), nil
}

func (c *CLI) runGenerate(ctx context.Context, stdout io.Writer, markdown string, opts generateOpts) error {
	logger := loggerFromContext(ctx)

	coord, _, err := c.openCoordinator(ctx, opts.noCache)
	if err != nil {
		return err
	}
	defer coord.Close(context.WithoutCancel(ctx))

	req := pipeline.Request{
		Markdown:         markdown,
		Title:            opts.title,
		Quality:          opts.quality,
		IncludeImageData: opts.dataURI,
		NoCache:          opts.noCache,
	}

	var res *pipeline.Result
	if opts.json {
		res = coord.Generate(ctx, req)
	} else {
		spinner := newSpinnerWithContext(ctx, "Analyzing outline...")
		observability.SetPipelineHooks(spinnerHooks{spinner: spinner})
		spinner.Start()
		res = coord.Generate(ctx, req)
		spinner.Stop()
		observability.SetPipelineHooks(observability.NoopPipelineHooks{})
	}

	if res.Success && opts.output != "" {
		if err := copyFile(res.LocalPath, opts.output); err != nil {
			res.Warning = joinWarning(res.Warning, fmt.Sprintf("copy to %s failed: %v", opts.output, err))
		}
	}

	if opts.json {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(res); err != nil {
			return err
		}
	} else {
		printResult(res, opts.output)
	}

	if !res.Success {
		return errors.New(errors.Code(res.Code), "%s", res.Error)
	}
	logger.Debug("generation finished", "title", res.Title, "total", res.Stats.Total)
	return nil
}

func printResult(res *pipeline.Result, copied string) {
	if !res.Success {
		printError("%s", res.Error)
		printDetail("code: %s", res.Code)
		return
	}

	printSuccess("Generated %s", StyleTitle.Render(res.Title))
	if res.ImageURL != "" {
		printKeyValue("URL", StyleLink.Render(res.ImageURL))
	}
	printKeyValue("File", res.LocalPath)
	if copied != "" {
		printFile(copied)
	}

	var facts []string
	if p := res.Profile; p != nil {
		facts = append(facts, fmt.Sprintf("complexity %.1f (%s)", p.Score, p.Level))
	}
	if v := res.Viewport; v != nil {
		facts = append(facts, fmt.Sprintf("%dx%d", v.Width, v.Height))
	}
	facts = append(facts, humanSize(res.Stats.SizeBytes))
	if res.Storage != nil {
		facts = append(facts, string(res.Storage.Provider))
	}
	printStats(res.CacheHit, facts...)

	if res.Warning != "" {
		printWarning("%s", res.Warning)
	}
}

func joinWarning(existing, msg string) string {
	if existing == "" {
		return msg
	}
	return existing + "; " + msg
}

// copyFile copies src to dst, replacing dst.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
