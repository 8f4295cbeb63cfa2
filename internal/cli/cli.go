package cli

import (
	"context"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/mindmapper/pkg/buildinfo"
	"github.com/matzehuels/mindmapper/pkg/config"
	"github.com/matzehuels/mindmapper/pkg/pipeline"
)

// appName is the application name used for display and completion files.
const appName = "mindmapper"

// configEnv names the environment variable that supplies a default --config.
const configEnv = "MINDMAPPER_CONFIG"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
	verbose    bool
}

// New creates a new CLI instance logging to w.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Mindmapper turns Markdown outlines into mind-map images",
		Long: `Mindmapper renders a Markdown outline as a mind-map PNG. The image is sized
to the outline's complexity and stored locally or in a cloud object store.`,
		Version:       buildinfo.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if c.verbose {
				c.Logger.SetLevel(LogDebug)
			}
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "enable verbose logging")
	root.PersistentFlags().StringVarP(&c.configPath, "config", "c", os.Getenv(configEnv),
		"TOML config file (default $"+configEnv+")")

	root.AddCommand(c.generateCommand())
	root.AddCommand(c.listCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.historyCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.doctorCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// loadConfig reads the configuration selected by --config.
func (c *CLI) loadConfig() (config.Config, error) {
	return config.Load(c.configPath)
}

// openCoordinator loads the configuration and builds a coordinator for it.
func (c *CLI) openCoordinator(ctx context.Context, noCache bool) (*pipeline.Coordinator, config.Config, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, cfg, err
	}
	coord, err := pipeline.Open(ctx, cfg, loggerFromContext(ctx), pipeline.OpenOptions{NoCache: noCache})
	if err != nil {
		return nil, cfg, err
	}
	return coord, cfg, nil
}
