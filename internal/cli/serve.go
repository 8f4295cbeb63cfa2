package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/mindmapper/internal/server"
	"github.com/matzehuels/mindmapper/pkg/observability"
)

func (c *CLI) serveCommand() *cobra.Command {
	var addr string
	var maxConcurrent int
	var noCache bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the mind-map HTTP API and the output directory",
		Long: `Serve the HTTP API:

  POST /api/mindmaps              generate from {"markdown": "...", "title": "...", "quality": "..."}
  GET  /api/mindmaps?date=&name=  list stored images
  GET  /output/...                stored images (local storage)
  GET  /healthz                   health check`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)

			coord, cfg, err := c.openCoordinator(ctx, noCache)
			if err != nil {
				return err
			}
			defer coord.Close(ctx)

			if !cmd.Flags().Changed("addr") {
				addr = cfg.Server.Addr
			}
			if !cmd.Flags().Changed("max-concurrent") {
				maxConcurrent = cfg.Server.MaxConcurrent
			}
			outputDir := cfg.Storage.Local.Root
			if outputDir == "" {
				outputDir = cfg.Paths.Output
			}

			observability.LogHooks{Logger: logger}.Install()
			defer observability.Reset()

			logger.Info("serving output directory", "dir", outputDir, "storage", coord.Storage.Type())
			srv := server.New(coord, server.Options{
				OutputDir:     outputDir,
				MaxConcurrent: maxConcurrent,
				Logger:        logger,
			})
			return srv.ListenAndServe(ctx, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8090", "listen address (default from config)")
	cmd.Flags().IntVar(&maxConcurrent, "max-concurrent", 2, "concurrent generations (default from config)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the render cache")

	return cmd
}
